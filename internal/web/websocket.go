package web

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/boardops/boardops/internal/notify"
)

// wsConnection adapts a gorilla websocket connection to notify.Connection.
// Writes are serialized by wsMu since gorilla forbids concurrent writers
// on the same connection.
type wsConnection struct {
	conn   *websocket.Conn
	wsMu   chan struct{}
	closed bool
}

func newWSConnection(conn *websocket.Conn) *wsConnection {
	c := &wsConnection{conn: conn, wsMu: make(chan struct{}, 1)}
	c.wsMu <- struct{}{}
	return c
}

func (c *wsConnection) Send(event notify.Event) error {
	<-c.wsMu
	defer func() { c.wsMu <- struct{}{} }()
	return c.conn.WriteJSON(event)
}

func (c *wsConnection) Closed() bool {
	return c.closed
}

// wsControlMessage is the client-to-server frame a push-channel client
// sends. action is one of authenticate, subscribe, unsubscribe, pong.
type wsControlMessage struct {
	Action    string           `json:"action"`
	Token     string           `json:"token,omitempty"`
	EventType notify.EventType `json:"event_type,omitempty"`
	Filter    map[string]any   `json:"filter,omitempty"`
}

// handleWebSocket upgrades the request to a WebSocket and bridges it into
// the notification broker as a registered, initially unauthenticated
// connection. A client must send an authenticate control frame before any
// subscription it installs is reachable by BroadcastToAuthenticated; its
// token is a user ID issued when the account was created. Outbound
// domain events flow exclusively through broker.Broadcast and friends —
// this read loop only ever carries the four control-frame actions.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Log.Warn("websocket upgrade failed", "error", err)
		return
	}

	wsConn := newWSConnection(conn)
	clientID := s.deps.Broker.RegisterClient(wsConn, "")

	defer func() {
		wsConn.closed = true
		s.deps.Broker.UnregisterClient(clientID)
		_ = conn.Close()
	}()

	for {
		var msg wsControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Action {
		case "authenticate":
			s.handleAuthenticate(wsConn, clientID, msg.Token)
		case "subscribe":
			result := s.deps.Broker.Subscribe(clientID, []notify.SubscribeRequest{
				{EventType: msg.EventType, Filter: msg.Filter},
			})
			s.sendSubscribeAck(wsConn, result)
		case "unsubscribe":
			s.deps.Broker.Unsubscribe(clientID, []notify.EventType{msg.EventType})
		case "pong":
			// Acknowledges a server-initiated heartbeat; nothing to reply with.
		default:
			s.deps.Broker.SendError(clientID, "CONNECTION_ERROR", "unrecognized control frame action", map[string]any{"action": msg.Action})
		}
	}
}

// handleAuthenticate resolves token against the user table and, on
// success, marks the broker's client record authenticated so it becomes
// reachable via BroadcastToAuthenticated.
func (s *Server) handleAuthenticate(wsConn *wsConnection, clientID, token string) {
	user, err := s.deps.DB.GetUser(token)
	if err != nil || user == nil {
		event, buildErr := notify.NewLifecycleEvent(notify.EventAuthError, map[string]any{"error": "invalid token"})
		if buildErr == nil {
			_ = wsConn.Send(event)
		}
		return
	}
	s.deps.Broker.AuthenticateClient(clientID, user.ID)
	event, err := notify.NewLifecycleEvent(notify.EventAuthSuccess, map[string]any{"userId": user.ID, "handle": user.Handle})
	if err == nil {
		_ = wsConn.Send(event)
	}
}

// sendSubscribeAck emits subscription.success when at least one request
// succeeded and subscription.error when at least one failed; both can
// fire for a single batch whose requests partially succeed.
func (s *Server) sendSubscribeAck(wsConn *wsConnection, result notify.SubscribeResult) {
	if len(result.Success) > 0 {
		event, err := notify.NewLifecycleEvent(notify.EventSubscriptionSuccess, map[string]any{"events": result.Success})
		if err == nil {
			_ = wsConn.Send(event)
		}
	}
	if len(result.Failed) > 0 {
		event, err := notify.NewLifecycleEvent(notify.EventSubscriptionError, map[string]any{
			"error":        "one or more event types could not be subscribed",
			"failedEvents": result.Failed,
		})
		if err == nil {
			_ = wsConn.Send(event)
		}
	}
}
