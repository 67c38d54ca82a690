package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

func TestApplyRegisterFillsToCapacity(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	attendees, err := applyRegister(2, nil, a)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a}, attendees)

	attendees, err = applyRegister(2, attendees, b)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, attendees)

	_, err = applyRegister(2, attendees, c)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestApplyRegisterDuplicate(t *testing.T) {
	a := uuid.New()
	attendees, err := applyRegister(5, nil, a)
	require.NoError(t, err)

	_, err = applyRegister(5, attendees, a)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestApplyRegisterFullEventReportsCapacityFirst(t *testing.T) {
	// A user already on a full list gets the capacity error, not the
	// duplicate error.
	a := uuid.New()
	_, err := applyRegister(1, []uuid.UUID{a}, a)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestApplyUnregisterPreservesOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	attendees, err := applyUnregister([]uuid.UUID{a, b, c}, b)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, c}, attendees)
}

func TestApplyUnregisterNotRegistered(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	_, err := applyUnregister([]uuid.UUID{a}, b)
	require.ErrorIs(t, err, ErrNotRegistered)

	_, err = applyUnregister(nil, b)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegisterUnregisterRoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	attendees, err := applyRegister(2, []uuid.UUID{a}, b)
	require.NoError(t, err)

	attendees, err = applyUnregister(attendees, b)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a}, attendees)

	// seat freed: a third user can now take it
	attendees, err = applyRegister(2, attendees, uuid.New())
	require.NoError(t, err)
	require.Len(t, attendees, 2)
}

func TestCanMutate(t *testing.T) {
	organizer, other := uuid.New(), uuid.New()
	ev := &models.Event{ID: uuid.New(), OrganizerID: organizer}

	require.True(t, CanMutate(ev, organizer, models.RoleUser))
	require.True(t, CanMutate(ev, other, models.RoleAdmin))
	require.False(t, CanMutate(ev, other, models.RoleUser))
}
