package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/models"
)

// Store is the event persistence contract.
//
// RegisterAttendee and UnregisterAttendee are atomic per call: the capacity
// check and the attendee-list write happen under per-event serialization, so
// two concurrent registrations cannot race past the capacity bound.
// Implementations return the package sentinel errors (ErrNotFound,
// ErrCapacityExceeded, ErrAlreadyRegistered, ErrNotRegistered,
// ErrCapacityBelowAttendance) for rule violations.
type Store interface {
	Create(ctx context.Context, ev *models.Event) error
	GetSummary(ctx context.Context, id uuid.UUID) (*models.EventSummary, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.EventDetail, error)
	List(ctx context.Context) ([]models.EventSummary, error)
	Update(ctx context.Context, ev *models.Event) (*models.EventSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetBannerKey(ctx context.Context, id uuid.UUID, key string) error
	RegisterAttendee(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error)
	UnregisterAttendee(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error)
}
