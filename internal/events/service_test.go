package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

// memStore is an in-memory Store for tests. It applies the same registration
// rules as the Postgres store, serialized under a mutex instead of a row lock.
type memStore struct {
	mu        sync.Mutex
	events    map[uuid.UUID]models.Event
	attendees map[uuid.UUID][]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		events:    make(map[uuid.UUID]models.Event),
		attendees: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *memStore) summaryOf(ev models.Event) *models.EventSummary {
	ids := m.attendees[ev.ID]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return &models.EventSummary{Event: ev, Attendees: out, AttendeeCount: len(out)}
}

func (m *memStore) Create(_ context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = ev.CreatedAt
	m.events[ev.ID] = *ev
	return nil
}

func (m *memStore) GetSummary(_ context.Context, id uuid.UUID) (*models.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.summaryOf(ev), nil
}

func (m *memStore) GetDetail(_ context.Context, id uuid.UUID) (*models.EventDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	attendees := make([]models.UserPublic, 0, len(m.attendees[id]))
	for _, uid := range m.attendees[id] {
		attendees = append(attendees, models.UserPublic{ID: uid})
	}
	return &models.EventDetail{
		Event:         ev,
		Organizer:     models.UserPublic{ID: ev.OrganizerID},
		Attendees:     attendees,
		AttendeeCount: len(attendees),
	}, nil
}

func (m *memStore) List(_ context.Context) ([]models.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EventSummary, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, *m.summaryOf(ev))
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, ev *models.Event) (*models.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.ID]; !ok {
		return nil, ErrNotFound
	}
	if ev.Capacity < len(m.attendees[ev.ID]) {
		return nil, ErrCapacityBelowAttendance
	}
	ev.UpdatedAt = time.Now()
	m.events[ev.ID] = *ev
	return m.summaryOf(*ev), nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	delete(m.attendees, id)
	return nil
}

func (m *memStore) SetBannerKey(_ context.Context, id uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.BannerKey = key
	m.events[id] = ev
	return nil
}

func (m *memStore) RegisterAttendee(_ context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := applyRegister(ev.Capacity, m.attendees[eventID], userID)
	if err != nil {
		return nil, err
	}
	m.attendees[eventID] = next
	return m.summaryOf(ev), nil
}

func (m *memStore) UnregisterAttendee(_ context.Context, eventID, userID uuid.UUID) (*models.EventSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	next, err := applyUnregister(m.attendees[eventID], userID)
	if err != nil {
		return nil, err
	}
	m.attendees[eventID] = next
	return m.summaryOf(ev), nil
}

// seatRecorder records SeatsChanged calls.
type seatRecorder struct {
	mu    sync.Mutex
	calls []SeatsCall
}

type SeatsCall struct {
	EventID       uuid.UUID
	AttendeeCount int
	Capacity      int
}

func (r *seatRecorder) SeatsChanged(eventID uuid.UUID, attendeeCount, capacity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, SeatsCall{EventID: eventID, AttendeeCount: attendeeCount, Capacity: capacity})
}

func validParams() CreateParams {
	return CreateParams{
		Title:       "Go Meetup",
		Description: "Monthly meetup",
		Location:    "Berlin",
		Category:    "tech",
		Date:        time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
		Capacity:    2,
	}
}

func newTestService() (*Service, *memStore, *seatRecorder) {
	store := newMemStore()
	seats := &seatRecorder{}
	return NewService(store, seats, nil), store, seats
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer := uuid.New()

	cases := []struct {
		name   string
		mutate func(*CreateParams)
	}{
		{"empty title", func(p *CreateParams) { p.Title = "  " }},
		{"empty description", func(p *CreateParams) { p.Description = "" }},
		{"zero date", func(p *CreateParams) { p.Date = time.Time{} }},
		{"empty location", func(p *CreateParams) { p.Location = "" }},
		{"empty category", func(p *CreateParams) { p.Category = "" }},
		{"zero capacity", func(p *CreateParams) { p.Capacity = 0 }},
		{"negative capacity", func(p *CreateParams) { p.Capacity = -3 }},
		{"huge capacity", func(p *CreateParams) { p.Capacity = maxCapacity + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			_, err := svc.Create(ctx, p, organizer)
			require.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateAssignsOrganizer(t *testing.T) {
	svc, _, _ := newTestService()
	organizer := uuid.New()

	summary, err := svc.Create(context.Background(), validParams(), organizer)
	require.NoError(t, err)
	require.Equal(t, organizer, summary.OrganizerID)
	require.NotEqual(t, uuid.Nil, summary.ID)
	require.Empty(t, summary.Attendees)
	require.Zero(t, summary.AttendeeCount)
}

func TestUpdateAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer, stranger := uuid.New(), uuid.New()

	summary, err := svc.Create(ctx, validParams(), organizer)
	require.NoError(t, err)

	title := "Renamed"
	_, err = svc.Update(ctx, summary.ID, UpdateParams{Title: &title}, stranger, models.RoleUser)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, summary.ID, UpdateParams{Title: &title}, organizer, models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)

	// admin can mutate someone else's event
	title2 := "Admin renamed"
	updated, err = svc.Update(ctx, summary.ID, UpdateParams{Title: &title2}, stranger, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "Admin renamed", updated.Title)
	require.Equal(t, organizer, updated.OrganizerID)
}

func TestUpdateCapacityBelowAttendance(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer := uuid.New()

	summary, err := svc.Create(ctx, validParams(), organizer) // capacity 2
	require.NoError(t, err)

	_, err = svc.Register(ctx, summary.ID, uuid.New())
	require.NoError(t, err)
	_, err = svc.Register(ctx, summary.ID, uuid.New())
	require.NoError(t, err)

	one := 1
	_, err = svc.Update(ctx, summary.ID, UpdateParams{Capacity: &one}, organizer, models.RoleUser)
	require.ErrorIs(t, err, ErrCapacityBelowAttendance)

	three := 3
	updated, err := svc.Update(ctx, summary.ID, UpdateParams{Capacity: &three}, organizer, models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, 3, updated.Capacity)
}

func TestDeleteAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer, stranger := uuid.New(), uuid.New()

	summary, err := svc.Create(ctx, validParams(), organizer)
	require.NoError(t, err)

	_, err = svc.Delete(ctx, summary.ID, stranger, models.RoleUser)
	require.ErrorIs(t, err, ErrForbidden)

	removed, err := svc.Delete(ctx, summary.ID, organizer, models.RoleUser)
	require.NoError(t, err)
	require.Equal(t, summary.ID, removed.ID)

	_, err = svc.Delete(ctx, summary.ID, organizer, models.RoleUser)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterEnforcesPreconditions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer := uuid.New()

	summary, err := svc.Create(ctx, validParams(), organizer) // capacity 2
	require.NoError(t, err)

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	_, err = svc.Register(ctx, summary.ID, a)
	require.NoError(t, err)
	_, err = svc.Register(ctx, summary.ID, a)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	got, err := svc.Register(ctx, summary.ID, b)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, got.Attendees)

	_, err = svc.Register(ctx, summary.ID, c)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = svc.Register(ctx, uuid.New(), c)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrganizerMayRegisterForOwnEvent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	organizer := uuid.New()

	summary, err := svc.Create(ctx, validParams(), organizer)
	require.NoError(t, err)

	got, err := svc.Register(ctx, summary.ID, organizer)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{organizer}, got.Attendees)
}

func TestUnregisterFreesSeat(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	summary, err := svc.Create(ctx, validParams(), uuid.New()) // capacity 2
	require.NoError(t, err)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	_, err = svc.Register(ctx, summary.ID, a)
	require.NoError(t, err)
	_, err = svc.Register(ctx, summary.ID, b)
	require.NoError(t, err)

	_, err = svc.Unregister(ctx, summary.ID, c)
	require.ErrorIs(t, err, ErrNotRegistered)

	got, err := svc.Unregister(ctx, summary.ID, a)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{b}, got.Attendees)

	got, err = svc.Register(ctx, summary.ID, c)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{b, c}, got.Attendees)
}

func TestRegisterNotifiesSeatChanges(t *testing.T) {
	svc, _, seats := newTestService()
	ctx := context.Background()

	summary, err := svc.Create(ctx, validParams(), uuid.New())
	require.NoError(t, err)

	a := uuid.New()
	_, err = svc.Register(ctx, summary.ID, a)
	require.NoError(t, err)
	_, err = svc.Unregister(ctx, summary.ID, a)
	require.NoError(t, err)

	// failed registration must not notify
	_, err = svc.Unregister(ctx, summary.ID, a)
	require.ErrorIs(t, err, ErrNotRegistered)

	require.Equal(t, []SeatsCall{
		{EventID: summary.ID, AttendeeCount: 1, Capacity: 2},
		{EventID: summary.ID, AttendeeCount: 0, Capacity: 2},
	}, seats.calls)
}

func TestConcurrentRegistrationNeverOversells(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	p := validParams()
	p.Capacity = 5
	summary, err := svc.Create(ctx, p, uuid.New())
	require.NoError(t, err)

	const contenders = 50
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, summary.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, ErrCapacityExceeded)
		}
	}
	require.Equal(t, 5, won)

	final, err := store.GetSummary(ctx, summary.ID)
	require.NoError(t, err)
	require.Equal(t, 5, final.AttendeeCount)
}
