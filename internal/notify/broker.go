package notify

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/boardops/boardops/internal/boardlog"
)

// DefaultSubscriptionCap is the per-client subscription ceiling recommended
// by the board's rate-limit defaults.
const DefaultSubscriptionCap = 50

// Broker fans domain events out to subscribed connections. Its registries
// (clients, and the per-event-type subscription index) are guarded by a
// single mutex held for the whole of any mutating operation; broadcast
// takes a snapshot of matching subscriptions under the lock and performs
// sends after releasing it, so one slow or closed connection never blocks
// delivery to another.
type Broker struct {
	mu             sync.Mutex
	clients        map[string]*client
	byType         map[EventType][]string // event type -> client IDs with a subscription on it
	subscriptionCap int
	log            boardlog.Logger
}

// NewBroker creates a Broker with the given per-client subscription cap
// (DefaultSubscriptionCap if cap <= 0).
func NewBroker(log boardlog.Logger, subscriptionCap int) *Broker {
	if subscriptionCap <= 0 {
		subscriptionCap = DefaultSubscriptionCap
	}
	return &Broker{
		clients:         make(map[string]*client),
		byType:          make(map[EventType][]string),
		subscriptionCap: subscriptionCap,
		log:             log,
	}
}

// RegisterClient adds a connection to the registry and returns its
// assigned client ID. userID may be empty for an unauthenticated client.
func (b *Broker) RegisterClient(conn Connection, userID string) string {
	id := uuid.NewString()

	b.mu.Lock()
	b.clients[id] = &client{
		id:            id,
		userID:        userID,
		authenticated: userID != "",
		conn:          conn,
	}
	b.mu.Unlock()

	return id
}

// UnregisterClient is idempotent: it removes the client's subscriptions
// from the per-type index (garbage-collecting now-empty lists) and drops
// the client record.
func (b *Broker) UnregisterClient(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[id]
	if !ok {
		return
	}
	for _, sub := range c.subscriptions {
		b.removeFromIndex(sub.eventType, id)
	}
	delete(b.clients, id)
}

// removeFromIndex deletes id from byType[eventType], removing the whole
// entry if the list becomes empty. Caller must hold b.mu.
func (b *Broker) removeFromIndex(eventType EventType, id string) {
	ids := b.byType[eventType]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(b.byType, eventType)
	} else {
		b.byType[eventType] = ids
	}
}

// AuthenticateClient sets a registered client's userID and marks it
// authenticated. Logs a warning if id is unknown.
func (b *Broker) AuthenticateClient(id string, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[id]
	if !ok {
		b.log.Warn("authenticateClient: unknown client", "client_id", id)
		return
	}
	c.userID = userID
	c.authenticated = true
}

// Subscribe validates and installs each request, returning which
// succeeded and which failed. If adding all requests would push the
// client's total subscription count over the cap, every request fails
// fast without installing any of them.
func (b *Broker) Subscribe(id string, requests []SubscribeRequest) SubscribeResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result SubscribeResult

	c, ok := b.clients[id]
	if !ok {
		for _, r := range requests {
			result.Failed = append(result.Failed, r.EventType)
		}
		return result
	}

	if len(c.subscriptions)+len(requests) > b.subscriptionCap {
		for _, r := range requests {
			result.Failed = append(result.Failed, r.EventType)
		}
		return result
	}

	for _, r := range requests {
		fields, known := FilterFieldsFor(r.EventType)
		if !known {
			result.Failed = append(result.Failed, r.EventType)
			continue
		}
		if !filterKeysValid(r.Filter, fields) {
			result.Failed = append(result.Failed, r.EventType)
			continue
		}

		c.subscriptions = append(c.subscriptions, subscription{eventType: r.EventType, filter: r.Filter})
		b.byType[r.EventType] = append(b.byType[r.EventType], id)
		result.Success = append(result.Success, r.EventType)
	}

	return result
}

func filterKeysValid(filter map[string]any, allowed map[string]bool) bool {
	for k := range filter {
		if !allowed[k] {
			return false
		}
	}
	return true
}

// Unsubscribe removes any subscriptions the client holds on the given
// event types, from both indices.
func (b *Broker) Unsubscribe(id string, eventTypes []EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[id]
	if !ok {
		return
	}
	remove := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		remove[t] = true
	}

	kept := c.subscriptions[:0]
	for _, sub := range c.subscriptions {
		if remove[sub.eventType] {
			b.removeFromIndex(sub.eventType, id)
			continue
		}
		kept = append(kept, sub)
	}
	c.subscriptions = kept
}

// Broadcast delivers event to every client whose subscription on
// event.Type matches its payload. A snapshot of matching client
// connections is taken under the lock; sends run concurrently, after the
// lock is released, via a bounded conc pool so one client's slow or
// failing connection never delays or blocks delivery to another.
func (b *Broker) Broadcast(event Event) {
	targets := b.snapshotSubscribers(event)
	b.sendToAll(targets, event)
}

// snapshotSubscribers takes the event-type subscriber list under the
// lock, filters it by filter match, and returns the matching connections.
func (b *Broker) snapshotSubscribers(event Event) []namedConnection {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := b.byType[event.Type]
	out := make([]namedConnection, 0, len(ids))
	for _, id := range ids {
		c, ok := b.clients[id]
		if !ok {
			continue
		}
		for _, sub := range c.subscriptions {
			if sub.eventType == event.Type && sub.matches(event.Data) {
				out = append(out, namedConnection{id: id, conn: c.conn})
				break
			}
		}
	}
	return out
}

type namedConnection struct {
	id   string
	conn Connection
}

// sendToAll fans event out to every target connection concurrently,
// isolating and logging per-connection failures.
func (b *Broker) sendToAll(targets []namedConnection, event Event) {
	p := pool.New().WithMaxGoroutines(16)
	for _, t := range targets {
		t := t
		p.Go(func() {
			if t.conn.Closed() {
				return
			}
			if err := t.conn.Send(event); err != nil {
				b.log.Warn("broadcast send failed", "client_id", t.id, "event_type", string(event.Type), "cause", err.Error())
			}
		})
	}
	p.Wait()
}

// BroadcastToClient sends event to exactly one client, bypassing
// subscription matching.
func (b *Broker) BroadcastToClient(id string, event Event) {
	b.mu.Lock()
	c, ok := b.clients[id]
	b.mu.Unlock()
	if !ok || c.conn.Closed() {
		return
	}
	if err := c.conn.Send(event); err != nil {
		b.log.Warn("broadcastToClient send failed", "client_id", id, "cause", err.Error())
	}
}

// BroadcastToClients sends event to each of the given client IDs,
// bypassing subscription matching.
func (b *Broker) BroadcastToClients(ids []string, event Event) {
	targets := make([]namedConnection, 0, len(ids))
	b.mu.Lock()
	for _, id := range ids {
		if c, ok := b.clients[id]; ok {
			targets = append(targets, namedConnection{id: id, conn: c.conn})
		}
	}
	b.mu.Unlock()
	b.sendToAll(targets, event)
}

// BroadcastToAuthenticated sends event to every authenticated client,
// bypassing subscription matching.
func (b *Broker) BroadcastToAuthenticated(event Event) {
	b.mu.Lock()
	targets := make([]namedConnection, 0, len(b.clients))
	for id, c := range b.clients {
		if c.authenticated {
			targets = append(targets, namedConnection{id: id, conn: c.conn})
		}
	}
	b.mu.Unlock()
	b.sendToAll(targets, event)
}

// SendError wraps an error payload into a single-client send.
func (b *Broker) SendError(id string, code string, message string, details map[string]any) {
	data := map[string]any{"code": code, "message": message}
	if details != nil {
		data["details"] = details
	}
	event, err := NewLifecycleEvent(EventError, data)
	if err != nil {
		b.log.Warn("sendError: failed to build error event", "client_id", id, "cause", err.Error())
		return
	}
	b.mu.Lock()
	c, ok := b.clients[id]
	b.mu.Unlock()
	if !ok {
		return
	}
	if err := c.conn.Send(event); err != nil {
		b.log.Warn("sendError send failed", "client_id", id, "cause", err.Error())
	}
}

// StatsSnapshot reports the broker's current registry state.
func (b *Broker) StatsSnapshot() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := Stats{
		ClientCount:        len(b.clients),
		SubscribersPerType: make(map[EventType]int, len(b.byType)),
	}
	for _, c := range b.clients {
		if c.authenticated {
			stats.AuthenticatedCount++
		}
		stats.TotalSubscriptions += len(c.subscriptions)
	}
	for t, ids := range b.byType {
		stats.SubscribersPerType[t] = len(ids)
		stats.ActiveEventTypes = append(stats.ActiveEventTypes, t)
	}
	stats.EventTypeCount = len(b.byType)
	return stats
}
