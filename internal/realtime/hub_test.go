package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	published []SeatsUpdate
}

func (f *fakePublisher) PublishEventUpdate(_ uuid.UUID, event string, payload []byte) error {
	if event != "seats" {
		return nil
	}
	var u SeatsUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return err
	}
	f.published = append(f.published, u)
	return nil
}

func testClient(eventID uuid.UUID) *Client {
	return &Client{
		ID:      uuid.NewString(),
		EventID: eventID,
		send:    make(chan WSMessage, 8),
	}
}

func TestHubRoomBookkeeping(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()

	a, b := testClient(eventID), testClient(eventID)
	hub.Register(a)
	hub.Register(b)
	require.Equal(t, 2, hub.WatcherCount(eventID))

	hub.Unregister(a)
	require.Equal(t, 1, hub.WatcherCount(eventID))
	hub.Unregister(b)
	require.Equal(t, 0, hub.WatcherCount(eventID))
}

func TestSeatsChangedReachesLocalWatchers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()

	watcher := testClient(eventID)
	other := testClient(uuid.New())
	hub.Register(watcher)
	hub.Register(other)

	hub.SeatsChanged(eventID, 3, 10)

	select {
	case msg := <-watcher.send:
		require.Equal(t, "seats", msg.Event)
		var u SeatsUpdate
		require.NoError(t, json.Unmarshal(msg.Data, &u))
		require.Equal(t, eventID, u.EventID)
		require.Equal(t, 3, u.AttendeeCount)
		require.Equal(t, 10, u.Capacity)
		require.Equal(t, 7, u.SeatsRemaining)
	default:
		t.Fatal("watcher did not receive seats update")
	}

	// a watcher of a different event sees nothing
	require.Empty(t, other.send)
}

func TestSeatsChangedPublishesForOtherInstances(t *testing.T) {
	pub := &fakePublisher{}
	hub := NewHub(zap.NewNop(), pub, nil)
	eventID := uuid.New()

	watcher := testClient(eventID)
	hub.Register(watcher)

	hub.SeatsChanged(eventID, 1, 2)

	require.Len(t, pub.published, 1)
	require.Equal(t, SeatsUpdate{
		EventID:        eventID,
		AttendeeCount:  1,
		Capacity:       2,
		SeatsRemaining: 1,
	}, pub.published[0])

	// with a publisher wired, delivery goes through the subscription only;
	// SeatsChanged must not also broadcast directly
	require.Empty(t, watcher.send)
}

// loopbackPubSub delivers published messages synchronously to subscribed
// handlers, modelling an instance that is subscribed to its own channel.
type loopbackPubSub struct {
	handlers map[uuid.UUID]func(event string, payload []byte)
}

func newLoopbackPubSub() *loopbackPubSub {
	return &loopbackPubSub{handlers: make(map[uuid.UUID]func(event string, payload []byte))}
}

func (l *loopbackPubSub) PublishEventUpdate(eventID uuid.UUID, event string, payload []byte) error {
	if h, ok := l.handlers[eventID]; ok {
		h(event, payload)
	}
	return nil
}

func (l *loopbackPubSub) SubscribeEvent(eventID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	l.handlers[eventID] = handler
	return func() { delete(l.handlers, eventID) }, nil
}

func TestSeatsChangedDeliversOncePerWatcher(t *testing.T) {
	ps := newLoopbackPubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	eventID := uuid.New()

	watcher := testClient(eventID)
	hub.Register(watcher)

	hub.SeatsChanged(eventID, 4, 10)

	require.Len(t, watcher.send, 1)
	msg := <-watcher.send
	require.Equal(t, "seats", msg.Event)
	var u SeatsUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &u))
	require.Equal(t, 4, u.AttendeeCount)
	require.Equal(t, 6, u.SeatsRemaining)
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()

	slow := &Client{ID: uuid.NewString(), EventID: eventID, send: make(chan WSMessage)}
	hub.Register(slow)

	// must not block even though nothing drains the channel
	hub.SeatsChanged(eventID, 1, 5)
}
