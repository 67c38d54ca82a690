package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("hunter2!")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2!", hashed)

	require.True(t, CheckPassword("hunter2!", hashed))
	require.False(t, CheckPassword("hunter3!", hashed))
	require.False(t, CheckPassword("hunter2!", "not-a-bcrypt-hash"))
}
