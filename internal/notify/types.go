// Package notify implements the board's typed publish/subscribe
// notification system: a closed event-type enum with per-type filter
// fields, and a broker that fans events out to subscribed connections.
package notify

import "time"

// EventType is a closed enum of the domain events the broker can carry.
// Connection-lifecycle signals (auth, subscription acks, heartbeat,
// error) are deliberately not members of this enum — they are framed
// separately and are never subscribable.
type EventType string

const (
	EventMessageNew          EventType = "message.new"
	EventMessageReply        EventType = "message.reply"
	EventUserJoined          EventType = "user.joined"
	EventUserLeft            EventType = "user.left"
	EventSystemAnnouncement  EventType = "system.announcement"
	EventSystemShutdown      EventType = "system.shutdown"
	EventDoorUpdate          EventType = "door.update"
	EventDoorEntered         EventType = "door.entered"
	EventDoorExited          EventType = "door.exited"
)

// filterFields maps each event type to the payload keys a subscription
// filter on that type may name, and whether the type is ever delivered
// via the broadcast-to-all-subscribers path without a targeted filter.
var filterFields = map[EventType]struct {
	fields      map[string]bool
	broadcastOK bool
}{
	EventMessageNew:         {fields: set("messageBaseId"), broadcastOK: false},
	EventMessageReply:       {fields: set("messageBaseId", "parentId"), broadcastOK: false},
	EventUserJoined:         {fields: set(), broadcastOK: true},
	EventUserLeft:           {fields: set(), broadcastOK: true},
	EventSystemAnnouncement: {fields: set(), broadcastOK: true},
	EventSystemShutdown:     {fields: set(), broadcastOK: true},
	EventDoorUpdate:         {fields: set("sessionId", "doorId"), broadcastOK: false},
	EventDoorEntered:        {fields: set(), broadcastOK: true},
	EventDoorExited:         {fields: set(), broadcastOK: true},
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Connection-lifecycle event types: server-to-client acks and pushes that
// are never subscribable and never appear in filterFields, framed with the
// same {type, timestamp, data} envelope as any other event.
const (
	EventAuthSuccess         EventType = "auth.success"
	EventAuthError           EventType = "auth.error"
	EventSubscriptionSuccess EventType = "subscription.success"
	EventSubscriptionError   EventType = "subscription.error"
	EventHeartbeat           EventType = "heartbeat"
	EventError               EventType = "error"
)

var lifecycleEventTypes = set(
	string(EventAuthSuccess), string(EventAuthError),
	string(EventSubscriptionSuccess), string(EventSubscriptionError),
	string(EventHeartbeat), string(EventError),
)

// IsValidEventType reports whether s names a recognized, subscribable
// enum member. Lifecycle types are deliberately excluded: they are never
// subscribed to, so they are not "valid" in the sense this predicate
// checks.
func IsValidEventType(s string) bool {
	_, ok := filterFields[EventType(s)]
	return ok
}

// IsLifecycleEventType reports whether s names one of the connection-
// lifecycle types framed by NewLifecycleEvent rather than NewEvent.
func IsLifecycleEventType(s string) bool {
	return lifecycleEventTypes[s]
}

// FilterFieldsFor returns the set of payload keys a subscription filter
// on eventType may name, and whether eventType is a recognized member.
func FilterFieldsFor(eventType EventType) (map[string]bool, bool) {
	entry, ok := filterFields[eventType]
	return entry.fields, ok
}

// Event is a single notification instance: its type, the UTC timestamp
// it was created at, and its payload data.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent constructs an Event with a fresh UTC timestamp, rejecting
// unrecognized event types.
func NewEvent(eventType EventType, data map[string]any) (Event, error) {
	if !IsValidEventType(string(eventType)) {
		return Event{}, &UnknownEventType{Type: string(eventType)}
	}
	if data == nil {
		data = map[string]any{}
	}
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}, nil
}

// NewLifecycleEvent constructs a connection-lifecycle Event (auth.*,
// subscription.*, heartbeat, error) with a fresh UTC timestamp, rejecting
// anything outside that separate vocabulary. Domain events go through
// NewEvent instead, which rejects lifecycle types the same way this
// rejects domain types.
func NewLifecycleEvent(eventType EventType, data map[string]any) (Event, error) {
	if !IsLifecycleEventType(string(eventType)) {
		return Event{}, &UnknownEventType{Type: string(eventType)}
	}
	if data == nil {
		data = map[string]any{}
	}
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}, nil
}

// UnknownEventType is returned when a caller names an event type outside
// the closed enum.
type UnknownEventType struct {
	Type string
}

func (e *UnknownEventType) Error() string {
	return "unknown event type: " + e.Type
}
