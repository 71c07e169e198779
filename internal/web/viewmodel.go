package web

import (
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/notify"
)

// dashboardView is the top-level page: broker health plus a quick list
// of message bases, shown on GET /.
type dashboardView struct {
	Stats        notify.Stats
	MessageBases []db.MessageBase
}

// messageBasesView backs the full message-base listing page.
type messageBasesView struct {
	MessageBases []db.MessageBase
}

// messagesView backs one message base's thread listing.
type messagesView struct {
	MessageBase db.MessageBase
	Messages    []db.Message
}

// doorSessionsView backs the admin door-session listing page.
type doorSessionsView struct {
	DoorSessions []db.DoorSessionSummary
}
