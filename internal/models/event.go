package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a scheduled event owned by its organizer.
//
// Attendees are stored separately (event_attendees); the Event struct carries
// only the scalar fields. API responses use EventSummary or EventDetail so
// that attendees are always either raw ids or expanded users, never a mix.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Capacity    int       `json:"capacity"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	BannerKey   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventSummary is the list/mutation response shape: attendees as raw user ids
// in registration order.
type EventSummary struct {
	Event
	Attendees     []uuid.UUID `json:"attendees"`
	AttendeeCount int         `json:"attendee_count"`
	BannerURL     string      `json:"banner_url,omitempty"`
}

// EventDetail is the single-event response shape: organizer and attendees
// expanded to public user records.
type EventDetail struct {
	Event
	Organizer     UserPublic   `json:"organizer"`
	Attendees     []UserPublic `json:"attendees"`
	AttendeeCount int          `json:"attendee_count"`
	BannerURL     string       `json:"banner_url,omitempty"`
}
