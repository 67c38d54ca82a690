// Package events implements the event store, the registration rules, and the
// HTTP surface for event management.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/models"
)

// maxCapacity bounds organizer-supplied capacities to something sane.
const maxCapacity = 100_000

// SeatNotifier receives attendee-count changes after successful
// registration mutations (e.g. for live seats-remaining feeds).
type SeatNotifier interface {
	SeatsChanged(eventID uuid.UUID, attendeeCount, capacity int)
}

// Service orchestrates event business operations: field validation,
// organizer/admin authorization, and attendee registration.
type Service struct {
	store  Store
	seats  SeatNotifier
	logger *zap.Logger
}

// NewService constructs an event service. seats may be nil when no live feed
// is wired (e.g. in the worker process).
func NewService(store Store, seats SeatNotifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, seats: seats, logger: logger}
}

// CreateParams are the organizer-supplied fields for a new event.
type CreateParams struct {
	Title       string
	Description string
	Location    string
	Category    string
	Date        time.Time
	Capacity    int
}

// UpdateParams are the partial fields for an event update. Nil means "leave
// unchanged". The organizer is not updatable through any path.
type UpdateParams struct {
	Title       *string
	Description *string
	Location    *string
	Category    *string
	Date        *time.Time
	Capacity    *int
}

func validateFields(p CreateParams) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return &ValidationError{Msg: "title is required"}
	case strings.TrimSpace(p.Description) == "":
		return &ValidationError{Msg: "description is required"}
	case p.Date.IsZero():
		return &ValidationError{Msg: "date is required"}
	case strings.TrimSpace(p.Location) == "":
		return &ValidationError{Msg: "location is required"}
	case strings.TrimSpace(p.Category) == "":
		return &ValidationError{Msg: "category is required"}
	case p.Capacity <= 0:
		return &ValidationError{Msg: "capacity must be a positive integer"}
	case p.Capacity > maxCapacity:
		return &ValidationError{Msg: "capacity is too large"}
	}
	return nil
}

// Create validates the fields and persists a new event with an empty attendee
// list, owned by organizerID.
func (s *Service) Create(ctx context.Context, p CreateParams, organizerID uuid.UUID) (*models.EventSummary, error) {
	if err := validateFields(p); err != nil {
		return nil, err
	}
	ev := &models.Event{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Location:    strings.TrimSpace(p.Location),
		Category:    strings.TrimSpace(p.Category),
		Date:        p.Date,
		Capacity:    p.Capacity,
		OrganizerID: organizerID,
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, err
	}
	return &models.EventSummary{Event: *ev, Attendees: []uuid.UUID{}, AttendeeCount: 0}, nil
}

// Get returns the expanded event detail.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.EventDetail, error) {
	return s.store.GetDetail(ctx, id)
}

// List returns all events.
func (s *Service) List(ctx context.Context) ([]models.EventSummary, error) {
	return s.store.List(ctx)
}

// Update applies the provided fields after an organizer/admin check and
// re-validation. Returns ErrForbidden when the requester may not mutate the
// event.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams, userID uuid.UUID, role models.Role) (*models.EventSummary, error) {
	current, err := s.AuthorizeMutate(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}

	ev := current.Event
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.Category != nil {
		ev.Category = *p.Category
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.Capacity != nil {
		ev.Capacity = *p.Capacity
	}
	if err := validateFields(CreateParams{
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Category:    ev.Category,
		Date:        ev.Date,
		Capacity:    ev.Capacity,
	}); err != nil {
		return nil, err
	}

	return s.store.Update(ctx, &ev)
}

// Delete removes the event after an organizer/admin check. The removed
// event's summary is returned so callers can clean up attached resources
// (e.g. the banner object).
func (s *Service) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID, role models.Role) (*models.EventSummary, error) {
	current, err := s.AuthorizeMutate(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return current, nil
}

// AuthorizeMutate returns the event's summary when the user may modify it.
// It returns ErrNotFound when the event does not exist and ErrForbidden when
// the user is neither the organizer nor an admin.
func (s *Service) AuthorizeMutate(ctx context.Context, id uuid.UUID, userID uuid.UUID, role models.Role) (*models.EventSummary, error) {
	current, err := s.store.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(&current.Event, userID, role) {
		return nil, ErrForbidden
	}
	return current, nil
}

// SetBanner records the object key of the event's uploaded banner. Callers
// are expected to have run AuthorizeMutate first.
func (s *Service) SetBanner(ctx context.Context, id uuid.UUID, key string) error {
	return s.store.SetBannerKey(ctx, id, key)
}

// Register adds userID to the event's attendee list and reports the seat
// change.
func (s *Service) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	summary, err := s.store.RegisterAttendee(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	s.notifySeats(summary)
	return summary, nil
}

// Unregister removes userID from the event's attendee list and reports the
// seat change.
func (s *Service) Unregister(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	summary, err := s.store.UnregisterAttendee(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	s.notifySeats(summary)
	return summary, nil
}

func (s *Service) notifySeats(summary *models.EventSummary) {
	if s.seats == nil {
		return
	}
	s.seats.SeatsChanged(summary.ID, summary.AttendeeCount, summary.Capacity)
}
