package web

import (
	"time"

	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/notify"
)

// --- API Response Wrappers ---

type APIUsersResponse struct {
	Users []APIUser `json:"users"`
}

type APIMessageBasesResponse struct {
	MessageBases []APIMessageBase `json:"message_bases"`
}

type APIMessagesResponse struct {
	Messages []APIMessage `json:"messages"`
}

type APIDoorSessionsResponse struct {
	DoorSessions []APIDoorSession `json:"door_sessions"`
}

// --- API Resource Types ---

type APIUser struct {
	ID         string     `json:"id"`
	Handle     string     `json:"handle"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

type APIMessageBase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type APIMessage struct {
	ID            string    `json:"id"`
	MessageBaseID string    `json:"message_base_id"`
	ParentID      *string   `json:"parent_id,omitempty"`
	AuthorID      string    `json:"author_id"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

type APIDoorSession struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	DoorID         string    `json:"door_id"`
	State          string    `json:"state"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type APIBrokerStats struct {
	ClientCount         int                        `json:"client_count"`
	AuthenticatedCount  int                        `json:"authenticated_count"`
	TotalSubscriptions  int                        `json:"total_subscriptions"`
	EventTypeCount      int                        `json:"event_type_count"`
	SubscribersPerType  map[notify.EventType]int   `json:"subscribers_per_type"`
	ActiveEventTypes    []notify.EventType         `json:"active_event_types"`
}

// --- API Request Types ---

type APICreateUserRequest struct {
	Handle       string `json:"handle"`
	PasswordHash string `json:"password_hash"`
}

type APICreateMessageBaseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type APICreateMessageRequest struct {
	ParentID *string `json:"parent_id"`
	AuthorID string  `json:"author_id"`
	Subject  string  `json:"subject"`
	Body     string  `json:"body"`
}

type APISystemAnnouncementRequest struct {
	Message string `json:"message"`
}

type APISysopPageRequest struct {
	Message string `json:"message"`
}

type APISysopPageResponse struct {
	Response string `json:"response"`
}

// --- Conversion functions ---

func toAPIUser(u db.User) APIUser {
	return APIUser{ID: u.ID, Handle: u.Handle, CreatedAt: u.CreatedAt, LastSeenAt: u.LastSeenAt}
}

func toAPIUsers(users []db.User) []APIUser {
	out := make([]APIUser, len(users))
	for i, u := range users {
		out[i] = toAPIUser(u)
	}
	return out
}

func toAPIMessageBase(b db.MessageBase) APIMessageBase {
	return APIMessageBase{ID: b.ID, Name: b.Name, Description: b.Description}
}

func toAPIMessageBases(bases []db.MessageBase) []APIMessageBase {
	out := make([]APIMessageBase, len(bases))
	for i, b := range bases {
		out[i] = toAPIMessageBase(b)
	}
	return out
}

func toAPIMessage(m db.Message) APIMessage {
	return APIMessage{
		ID:            m.ID,
		MessageBaseID: m.MessageBaseID,
		ParentID:      m.ParentID,
		AuthorID:      m.AuthorID,
		Subject:       m.Subject,
		Body:          m.Body,
		CreatedAt:     m.CreatedAt,
	}
}

func toAPIMessages(messages []db.Message) []APIMessage {
	out := make([]APIMessage, len(messages))
	for i, m := range messages {
		out[i] = toAPIMessage(m)
	}
	return out
}

func toAPIDoorSession(d db.DoorSessionSummary) APIDoorSession {
	return APIDoorSession{
		SessionID:      d.SessionID,
		UserID:         d.UserID,
		DoorID:         d.DoorID,
		State:          d.State,
		LastActivityAt: d.LastActivityAt,
	}
}

func toAPIDoorSessions(sessions []db.DoorSessionSummary) []APIDoorSession {
	out := make([]APIDoorSession, len(sessions))
	for i, d := range sessions {
		out[i] = toAPIDoorSession(d)
	}
	return out
}

func toAPIBrokerStats(s notify.Stats) APIBrokerStats {
	return APIBrokerStats{
		ClientCount:        s.ClientCount,
		AuthenticatedCount: s.AuthenticatedCount,
		TotalSubscriptions: s.TotalSubscriptions,
		EventTypeCount:     s.EventTypeCount,
		SubscribersPerType: s.SubscribersPerType,
		ActiveEventTypes:   s.ActiveEventTypes,
	}
}
