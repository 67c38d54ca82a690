package events

import (
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/models"
)

// The attendee-list rules live here as pure functions so that every Store
// implementation enforces identical semantics. Stores are responsible for
// calling them with a consistent snapshot of the attendee list (the Postgres
// store holds a row lock for the duration of the check-then-write).

// applyRegister returns the attendee list with userID appended, or the
// precondition failure. Capacity is checked before duplicate membership, so a
// full event reports ErrCapacityExceeded even to a user already on the list.
func applyRegister(capacity int, attendees []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	if len(attendees) >= capacity {
		return nil, ErrCapacityExceeded
	}
	for _, id := range attendees {
		if id == userID {
			return nil, ErrAlreadyRegistered
		}
	}
	next := make([]uuid.UUID, 0, len(attendees)+1)
	next = append(next, attendees...)
	next = append(next, userID)
	return next, nil
}

// applyUnregister returns the attendee list with userID removed, preserving
// the order of the remaining attendees.
func applyUnregister(attendees []uuid.UUID, userID uuid.UUID) ([]uuid.UUID, error) {
	idx := -1
	for i, id := range attendees {
		if id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotRegistered
	}
	next := make([]uuid.UUID, 0, len(attendees)-1)
	next = append(next, attendees[:idx]...)
	next = append(next, attendees[idx+1:]...)
	return next, nil
}

// CanMutate reports whether the requesting user may update or delete the
// event: the organizer, or any admin.
func CanMutate(ev *models.Event, userID uuid.UUID, role models.Role) bool {
	return ev.OrganizerID == userID || role == models.RoleAdmin
}
