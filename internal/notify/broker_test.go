package notify

import (
	"sync"
	"testing"

	"github.com/boardops/boardops/internal/boardlog"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []Event
	closed bool
	failOn func(Event) bool
}

func (f *fakeConn) Send(e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil && f.failOn(e) {
		return errSendFailed
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type sendFailed struct{}

func (sendFailed) Error() string { return "send failed" }

var errSendFailed = sendFailed{}

func TestRegisterAndUnregisterClient(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	conn := &fakeConn{}
	id := b.RegisterClient(conn, "")
	if id == "" {
		t.Fatal("expected non-empty client id")
	}
	b.UnregisterClient(id)
	b.UnregisterClient(id) // idempotent
}

func TestSubscribeRejectsUnknownEventType(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	id := b.RegisterClient(&fakeConn{}, "")
	result := b.Subscribe(id, []SubscribeRequest{{EventType: "bogus.event"}})
	if len(result.Success) != 0 || len(result.Failed) != 1 {
		t.Fatalf("expected one failure, got %+v", result)
	}
}

func TestSubscribeRejectsInvalidFilterKey(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	id := b.RegisterClient(&fakeConn{}, "")
	result := b.Subscribe(id, []SubscribeRequest{
		{EventType: EventUserJoined, Filter: map[string]any{"notAField": 1}},
	})
	if len(result.Failed) != 1 {
		t.Fatalf("expected filter validation failure, got %+v", result)
	}
}

func TestSubscribeSucceedsWithValidFilter(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	id := b.RegisterClient(&fakeConn{}, "")
	result := b.Subscribe(id, []SubscribeRequest{
		{EventType: EventMessageNew, Filter: map[string]any{"messageBaseId": "general"}},
	})
	if len(result.Success) != 1 {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestSubscribeFailsFastOverCap(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 1)
	id := b.RegisterClient(&fakeConn{}, "")
	result := b.Subscribe(id, []SubscribeRequest{
		{EventType: EventUserJoined},
		{EventType: EventUserLeft},
	})
	if len(result.Success) != 0 || len(result.Failed) != 2 {
		t.Fatalf("expected both requests to fail over cap, got %+v", result)
	}
}

func TestBroadcastDeliversToMatchingFilterOnly(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	connA := &fakeConn{}
	connB := &fakeConn{}
	idA := b.RegisterClient(connA, "")
	idB := b.RegisterClient(connB, "")
	b.Subscribe(idA, []SubscribeRequest{{EventType: EventMessageNew, Filter: map[string]any{"messageBaseId": "general"}}})
	b.Subscribe(idB, []SubscribeRequest{{EventType: EventMessageNew, Filter: map[string]any{"messageBaseId": "off-topic"}}})

	event, err := NewEvent(EventMessageNew, map[string]any{"messageBaseId": "general"})
	if err != nil {
		t.Fatal(err)
	}
	b.Broadcast(event)

	if connA.sentCount() != 1 {
		t.Fatalf("expected matching subscriber to receive event, got %d", connA.sentCount())
	}
	if connB.sentCount() != 0 {
		t.Fatalf("expected non-matching subscriber to receive nothing, got %d", connB.sentCount())
	}
}

func TestBroadcastIsolatesPerClientFailures(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	failing := &fakeConn{failOn: func(Event) bool { return true }}
	healthy := &fakeConn{}
	idF := b.RegisterClient(failing, "")
	idH := b.RegisterClient(healthy, "")
	b.Subscribe(idF, []SubscribeRequest{{EventType: EventUserJoined}})
	b.Subscribe(idH, []SubscribeRequest{{EventType: EventUserJoined}})

	event, _ := NewEvent(EventUserJoined, nil)
	b.Broadcast(event)

	if healthy.sentCount() != 1 {
		t.Fatalf("expected healthy subscriber delivery despite sibling failure, got %d", healthy.sentCount())
	}
}

func TestUnsubscribeRemovesFromIndex(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	conn := &fakeConn{}
	id := b.RegisterClient(conn, "")
	b.Subscribe(id, []SubscribeRequest{{EventType: EventUserJoined}})
	b.Unsubscribe(id, []EventType{EventUserJoined})

	event, _ := NewEvent(EventUserJoined, nil)
	b.Broadcast(event)
	if conn.sentCount() != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", conn.sentCount())
	}
}

func TestBroadcastToClientBypassesSubscriptions(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	conn := &fakeConn{}
	id := b.RegisterClient(conn, "")
	event, _ := NewEvent(EventSystemAnnouncement, nil)
	b.BroadcastToClient(id, event)
	if conn.sentCount() != 1 {
		t.Fatalf("expected direct delivery, got %d", conn.sentCount())
	}
}

func TestBroadcastToAuthenticatedOnlyReachesAuthenticated(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	anon := &fakeConn{}
	auth := &fakeConn{}
	b.RegisterClient(anon, "")
	b.RegisterClient(auth, "user-1")

	event, _ := NewEvent(EventSystemAnnouncement, nil)
	b.BroadcastToAuthenticated(event)

	if anon.sentCount() != 0 {
		t.Fatalf("expected unauthenticated client to receive nothing, got %d", anon.sentCount())
	}
	if auth.sentCount() != 1 {
		t.Fatalf("expected authenticated client to receive event, got %d", auth.sentCount())
	}
}

func TestStatsSnapshotCounts(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	id := b.RegisterClient(&fakeConn{}, "user-1")
	b.Subscribe(id, []SubscribeRequest{{EventType: EventUserJoined}, {EventType: EventUserLeft}})

	stats := b.StatsSnapshot()
	if stats.ClientCount != 1 {
		t.Fatalf("expected 1 client, got %d", stats.ClientCount)
	}
	if stats.AuthenticatedCount != 1 {
		t.Fatalf("expected 1 authenticated client, got %d", stats.AuthenticatedCount)
	}
	if stats.TotalSubscriptions != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", stats.TotalSubscriptions)
	}
	if stats.EventTypeCount != 2 {
		t.Fatalf("expected 2 active event types, got %d", stats.EventTypeCount)
	}
}

func TestIsValidEventType(t *testing.T) {
	if !IsValidEventType("message.new") {
		t.Fatal("expected message.new to be valid")
	}
	if IsValidEventType("heartbeat") {
		t.Fatal("expected heartbeat to be excluded from the subscribable enum")
	}
}

func TestIsLifecycleEventType(t *testing.T) {
	if !IsLifecycleEventType("heartbeat") {
		t.Fatal("expected heartbeat to be a recognized lifecycle type")
	}
	if IsLifecycleEventType("message.new") {
		t.Fatal("expected a domain event type to be excluded from the lifecycle vocabulary")
	}
}

func TestNewLifecycleEventRejectsDomainType(t *testing.T) {
	_, err := NewLifecycleEvent(EventMessageNew, nil)
	if err == nil {
		t.Fatal("expected an error constructing a lifecycle event with a domain event type")
	}
}

func TestNewLifecycleEventStampsTimestamp(t *testing.T) {
	event, err := NewLifecycleEvent(EventHeartbeat, nil)
	if err != nil {
		t.Fatal(err)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected a non-zero timestamp")
	}
	if event.Data == nil {
		t.Fatal("expected nil data to be normalized to an empty map")
	}
}

func TestSendErrorStampsFreshTimestamp(t *testing.T) {
	b := NewBroker(boardlog.Discard(), 0)
	conn := &fakeConn{}
	id := b.RegisterClient(conn, "")

	b.SendError(id, "INTERNAL_ERROR", "boom", nil)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.sent) != 1 {
		t.Fatalf("expected one error event sent, got %d", len(conn.sent))
	}
	got := conn.sent[0]
	if got.Type != EventError {
		t.Fatalf("expected event type %q, got %q", EventError, got.Type)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected a non-zero timestamp on the error event")
	}
}
