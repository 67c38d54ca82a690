package events

import "errors"

// Sentinel errors for the registration and mutation rules. Handlers map these
// to HTTP statuses; messages are the user-facing text.
var (
	ErrNotFound          = errors.New("event not found")
	ErrCapacityExceeded  = errors.New("Event is at full capacity")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrForbidden         = errors.New("not authorized to modify this event")

	// ErrCapacityBelowAttendance rejects capacity updates that would leave
	// more attendees than seats.
	ErrCapacityBelowAttendance = errors.New("capacity cannot be less than current attendee count")
)

// ValidationError reports a missing or malformed event field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
