package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateBannerFileType(t *testing.T) {
	require.True(t, ValidateBannerFileType("image/png", "banner.png"))
	require.True(t, ValidateBannerFileType("", "banner.jpg"))
	require.True(t, ValidateBannerFileType("IMAGE/PNG", ""))
	require.False(t, ValidateBannerFileType("application/pdf", "banner.pdf"))
	require.False(t, ValidateBannerFileType("", "script.sh"))
	require.False(t, ValidateBannerFileType("", ""))
}

func TestContentTypeForFilename(t *testing.T) {
	require.Equal(t, "image/png", ContentTypeForFilename("x.PNG"))
	require.Equal(t, "image/jpeg", ContentTypeForFilename("photo.jpg"))
	require.Equal(t, "application/octet-stream", ContentTypeForFilename("notes.txt"))
}

func TestBannerKey(t *testing.T) {
	key := BannerKey("2f1e", "hero.png")
	require.Equal(t, "banners/2f1e/hero.png", key)

	// path traversal in the filename is stripped
	require.Equal(t, "banners/2f1e/hero.png", BannerKey("2f1e", "../../hero.png"))
}
