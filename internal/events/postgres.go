package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/backend/internal/models"
)

const eventColumns = `id, title, description, location, category, date, capacity, organizer_id, banner_key, created_at, updated_at`

// PostgresStore implements Store over a pgx connection pool.
//
// Registration mutations run inside a transaction that locks the event row
// with SELECT ... FOR UPDATE before the capacity check, serializing
// check-then-write per event.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates an event store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Location, &ev.Category,
		&ev.Date, &ev.Capacity, &ev.OrganizerID, &ev.BannerKey, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event with an empty attendee list.
func (s *PostgresStore) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (title, description, location, category, date, capacity, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, banner_key, created_at, updated_at`
	return s.pool.QueryRow(ctx, q, ev.Title, ev.Description, ev.Location, ev.Category,
		ev.Date, ev.Capacity, ev.OrganizerID).
		Scan(&ev.ID, &ev.BannerKey, &ev.CreatedAt, &ev.UpdatedAt)
}

// GetSummary returns an event with its attendee ids in registration order.
func (s *PostgresStore) GetSummary(ctx context.Context, id uuid.UUID) (*models.EventSummary, error) {
	ev, err := scanEvent(s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	ids, err := s.attendeeIDs(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	return summaryOf(ev, ids), nil
}

// GetDetail returns an event with organizer and attendees expanded to public
// user records.
func (s *PostgresStore) GetDetail(ctx context.Context, id uuid.UUID) (*models.EventDetail, error) {
	ev, err := scanEvent(s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	var organizer models.UserPublic
	err = s.pool.QueryRow(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = $1`, ev.OrganizerID).
		Scan(&organizer.ID, &organizer.Name, &organizer.Email, &organizer.Role, &organizer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load organizer: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at
		 FROM event_attendees a JOIN users u ON u.id = a.user_id
		 WHERE a.event_id = $1 ORDER BY a.seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.EventDetail{
		Event:         *ev,
		Organizer:     organizer,
		Attendees:     attendees,
		AttendeeCount: len(attendees),
	}, nil
}

// List returns all events with attendee ids, soonest first. No pagination;
// the dataset is assumed small (see DESIGN.md).
func (s *PostgresStore) List(ctx context.Context) ([]models.EventSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attendeesByEvent := make(map[uuid.UUID][]uuid.UUID)
	aRows, err := s.pool.Query(ctx,
		`SELECT event_id, user_id FROM event_attendees ORDER BY event_id, seq`)
	if err != nil {
		return nil, err
	}
	defer aRows.Close()
	for aRows.Next() {
		var eventID, userID uuid.UUID
		if err := aRows.Scan(&eventID, &userID); err != nil {
			return nil, err
		}
		attendeesByEvent[eventID] = append(attendeesByEvent[eventID], userID)
	}
	if err := aRows.Err(); err != nil {
		return nil, err
	}

	list := make([]models.EventSummary, 0, len(evs))
	for _, ev := range evs {
		list = append(list, *summaryOf(ev, attendeesByEvent[ev.ID]))
	}
	return list, nil
}

// Update writes the mutable event fields. The organizer column is never
// touched. Capacity shrink below the current attendee count is rejected under
// the same row lock that registration takes, so the capacity invariant holds
// even against concurrent registrations.
func (s *PostgresStore) Update(ctx context.Context, ev *models.Event) (*models.EventSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, ev.ID)); err != nil {
		return nil, err
	}

	ids, err := s.attendeeIDs(ctx, tx, ev.ID)
	if err != nil {
		return nil, err
	}
	if ev.Capacity < len(ids) {
		return nil, ErrCapacityBelowAttendance
	}

	const q = `UPDATE events
		SET title = $1, description = $2, location = $3, category = $4, date = $5, capacity = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`
	if err := tx.QueryRow(ctx, q, ev.Title, ev.Description, ev.Location, ev.Category,
		ev.Date, ev.Capacity, ev.ID).Scan(&ev.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return summaryOf(ev, ids), nil
}

// Delete removes an event and (via cascade) its attendee rows.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBannerKey stores the uploaded banner's object key on the event.
func (s *PostgresStore) SetBannerKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET banner_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RegisterAttendee appends userID to the event's attendee list if the event
// exists, has a free seat, and does not already contain the user.
func (s *PostgresStore) RegisterAttendee(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	return s.mutateAttendees(ctx, eventID, userID,
		func(ev *models.Event, ids []uuid.UUID) ([]uuid.UUID, error) {
			return applyRegister(ev.Capacity, ids, userID)
		},
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`)
}

// UnregisterAttendee removes userID from the event's attendee list.
func (s *PostgresStore) UnregisterAttendee(ctx context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	return s.mutateAttendees(ctx, eventID, userID,
		func(_ *models.Event, ids []uuid.UUID) ([]uuid.UUID, error) {
			return applyUnregister(ids, userID)
		},
		`DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`)
}

func (s *PostgresStore) mutateAttendees(
	ctx context.Context,
	eventID, userID uuid.UUID,
	apply func(ev *models.Event, ids []uuid.UUID) ([]uuid.UUID, error),
	writeSQL string,
) (*models.EventSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row lock held until commit: the snapshot below stays consistent for
	// the duration of the check-then-write.
	ev, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		return nil, err
	}

	ids, err := s.attendeeIDs(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	next, err := apply(ev, ids)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, writeSQL, eventID, userID); err != nil {
		return nil, fmt.Errorf("write attendee: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return summaryOf(ev, next), nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PostgresStore) attendeeIDs(ctx context.Context, q querier, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx,
		`SELECT user_id FROM event_attendees WHERE event_id = $1 ORDER BY seq`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func summaryOf(ev *models.Event, attendees []uuid.UUID) *models.EventSummary {
	if attendees == nil {
		attendees = []uuid.UUID{}
	}
	return &models.EventSummary{
		Event:         *ev,
		Attendees:     attendees,
		AttendeeCount: len(attendees),
	}
}
