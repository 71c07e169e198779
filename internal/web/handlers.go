package web

import (
	"net/http"

	"github.com/boardops/boardops/internal/db"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	bases, err := s.deps.DB.ListMessageBases()
	if err != nil {
		s.deps.Log.Error("list message bases", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "dashboard.html", dashboardView{
		Stats:        s.deps.Broker.StatsSnapshot(),
		MessageBases: bases,
	})
}

func (s *Server) handleDashboardMessageBases(w http.ResponseWriter, r *http.Request) {
	bases, err := s.deps.DB.ListMessageBases()
	if err != nil {
		s.deps.Log.Error("list message bases", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "message_bases.html", messageBasesView{MessageBases: bases})
}

func (s *Server) handleDashboardMessages(w http.ResponseWriter, r *http.Request) {
	baseID := r.PathValue("id")
	base, err := s.findMessageBase(baseID)
	if err != nil {
		s.deps.Log.Error("find message base", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	if base == nil {
		http.NotFound(w, r)
		return
	}

	messages, err := s.deps.DB.ListMessages(baseID, 100, 0)
	if err != nil {
		s.deps.Log.Error("list messages", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "messages.html", messagesView{MessageBase: *base, Messages: messages})
}

func (s *Server) handleDashboardDoorSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.DB.ListDoorSessions(r.Context(), 100, 0)
	if err != nil {
		s.deps.Log.Error("list door sessions", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "door_sessions.html", doorSessionsView{DoorSessions: sessions})
}

// findMessageBase scans the (small) message-base list for id; the board
// keeps few enough bases that a dedicated lookup query isn't worth the
// extra schema surface.
func (s *Server) findMessageBase(id string) (*db.MessageBase, error) {
	bases, err := s.deps.DB.ListMessageBases()
	if err != nil {
		return nil, err
	}
	for _, b := range bases {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}
