package notify

// Connection is the minimal transport capability the broker needs from a
// client's socket: write one serialized event, and report whether it is
// still open. Telnet, the interactive terminal, and the websocket push
// channel each supply their own implementation.
type Connection interface {
	Send(event Event) error
	Closed() bool
}

// subscription records one (event type, filter) pairing a client has
// asked to receive.
type subscription struct {
	eventType EventType
	filter    map[string]any
}

// matches reports whether payload satisfies every key in the
// subscription's filter. An absent filter (nil or empty) matches every
// payload; keys absent from the filter are unconstrained.
func (s subscription) matches(data map[string]any) bool {
	for k, want := range s.filter {
		got, ok := data[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// client is the broker's record of one registered connection.
type client struct {
	id            string
	userID        string
	authenticated bool
	conn          Connection
	subscriptions []subscription
}

// SubscribeRequest is one entry in a subscribe() call.
type SubscribeRequest struct {
	EventType EventType
	Filter    map[string]any
}

// SubscribeResult reports which requests in a subscribe() call
// succeeded and which were rejected.
type SubscribeResult struct {
	Success []EventType
	Failed  []EventType
}

// Stats summarizes the broker's current registry state.
type Stats struct {
	ClientCount         int
	AuthenticatedCount  int
	TotalSubscriptions  int
	EventTypeCount      int
	SubscribersPerType  map[EventType]int
	ActiveEventTypes    []EventType
}
