package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	return true
}

func parseLimitOffset(r *http.Request, defaultLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// --- Health & stats ---

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPIBrokerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toAPIBrokerStats(s.deps.Broker.StatsSnapshot()))
}

// --- Users ---

func (s *Server) handleAPIListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	users, err := s.deps.DB.ListUsers(limit, offset)
	if err != nil {
		s.deps.Log.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, APIUsersResponse{Users: toAPIUsers(users)})
}

func (s *Server) handleAPICreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req APICreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Handle == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Handle:       req.Handle,
		PasswordHash: req.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.deps.DB.InsertUser(user); err != nil {
		s.deps.Log.Error("insert user", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	event, _ := notify.NewEvent(notify.EventUserJoined, map[string]any{"userId": user.ID, "handle": user.Handle})
	s.deps.Broker.Broadcast(event)

	writeJSON(w, http.StatusCreated, toAPIUser(*user))
}

// --- Message bases ---

func (s *Server) handleAPIListMessageBases(w http.ResponseWriter, r *http.Request) {
	bases, err := s.deps.DB.ListMessageBases()
	if err != nil {
		s.deps.Log.Error("list message bases", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, APIMessageBasesResponse{MessageBases: toAPIMessageBases(bases)})
}

func (s *Server) handleAPICreateMessageBase(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req APICreateMessageBaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	base := &db.MessageBase{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	if err := s.deps.DB.InsertMessageBase(base); err != nil {
		s.deps.Log.Error("insert message base", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, toAPIMessageBase(*base))
}

// --- Messages ---

func (s *Server) handleAPIListMessages(w http.ResponseWriter, r *http.Request) {
	baseID := r.PathValue("id")
	limit, offset, err := parseLimitOffset(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	messages, err := s.deps.DB.ListMessages(baseID, limit, offset)
	if err != nil {
		s.deps.Log.Error("list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, APIMessagesResponse{Messages: toAPIMessages(messages)})
}

func (s *Server) handleAPICreateMessage(w http.ResponseWriter, r *http.Request) {
	baseID := r.PathValue("id")
	if !requireJSON(w, r) {
		return
	}
	var req APICreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AuthorID == "" || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "author_id and subject are required")
		return
	}

	message := &db.Message{
		ID:            uuid.NewString(),
		MessageBaseID: baseID,
		ParentID:      req.ParentID,
		AuthorID:      req.AuthorID,
		Subject:       req.Subject,
		Body:          req.Body,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.deps.DB.InsertMessage(message); err != nil {
		s.deps.Log.Error("insert message", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	eventType := notify.EventMessageNew
	data := map[string]any{"messageBaseId": baseID}
	if req.ParentID != nil {
		eventType = notify.EventMessageReply
		data["parentId"] = *req.ParentID
	}
	event, _ := notify.NewEvent(eventType, data)
	s.deps.Broker.Broadcast(event)

	writeJSON(w, http.StatusCreated, toAPIMessage(*message))
}

// --- Door sessions ---

func (s *Server) handleAPIListDoorSessions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.deps.DB.ListDoorSessions(r.Context(), limit, offset)
	if err != nil {
		s.deps.Log.Error("list door sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, APIDoorSessionsResponse{DoorSessions: toAPIDoorSessions(sessions)})
}

// --- System announcements & the SysOp page endpoint ---

func (s *Server) handleAPISystemAnnouncement(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req APISystemAnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	event, _ := notify.NewEvent(notify.EventSystemAnnouncement, map[string]any{"message": req.Message})
	s.deps.Broker.Broadcast(event)
	writeJSON(w, http.StatusOK, map[string]string{"status": "broadcast"})
}

func (s *Server) handleAPISysopPage(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req APISysopPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	response, err := s.deps.Pager.Page(r.Context(), req.Message)
	if err != nil {
		var timeout sysop.GatewayTimeout
		if errors.As(err, &timeout) {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APISysopPageResponse{Response: response})
}
