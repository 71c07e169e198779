package door

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boardops/boardops/internal/boardlog"
)

// liveSession is a manager's in-memory record of one ACTIVE door
// session. Its own mutex serializes the input/exit operations that
// mutate it, so one session's turn never blocks another's.
type liveSession struct {
	mu     sync.Mutex
	record Record
}

type userDoorKey struct {
	userID string
	doorID string
}

// Manager is the door session state machine described in the package
// doc: enter, step, exit, resume-on-reconnect, idle eviction, and
// single-occupancy enforcement, all over a set of registered Door
// implementations.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*liveSession
	byUserDoor map[userDoorKey]string // active sessions only
	doors      map[string]Door
	repo       Repository
	idleTimeout time.Duration
	log        boardlog.Logger
}

// NewManager builds a Manager over the given doors and persistence
// repository, evicting sessions idle for longer than idleTimeout.
func NewManager(doors []Door, repo Repository, idleTimeout time.Duration, log boardlog.Logger) *Manager {
	byID := make(map[string]Door, len(doors))
	for _, d := range doors {
		byID[d.ID()] = d
	}
	return &Manager{
		sessions:    make(map[string]*liveSession),
		byUserDoor:  make(map[userDoorKey]string),
		doors:       byID,
		repo:        repo,
		idleTimeout: idleTimeout,
		log:         log,
	}
}

// Enter begins or resumes a door session for (userID, doorID). It fails
// with AlreadyInSession if the pair already has a live ACTIVE session,
// restores and emits a resume banner if a SAVED record exists, and
// otherwise starts fresh via the door's Introduce routine.
func (m *Manager) Enter(ctx context.Context, userID, doorID string) (output string, sessionID string, err error) {
	d, ok := m.doors[doorID]
	if !ok {
		return "", "", &UnknownDoor{DoorID: doorID}
	}

	key := userDoorKey{userID: userID, doorID: doorID}

	m.mu.Lock()
	if _, active := m.byUserDoor[key]; active {
		m.mu.Unlock()
		return "", "", &AlreadyInSession{UserID: userID, DoorID: doorID}
	}
	m.mu.Unlock()

	if saved, loadErr := m.repo.LoadByUserAndDoor(ctx, userID, doorID); loadErr == nil && saved != nil {
		saved.State = StateActive
		saved.LastActivityAt = time.Now().UTC()

		m.mu.Lock()
		if _, active := m.byUserDoor[key]; active {
			m.mu.Unlock()
			return "", "", &AlreadyInSession{UserID: userID, DoorID: doorID}
		}
		m.sessions[saved.SessionID] = &liveSession{record: *saved}
		m.byUserDoor[key] = saved.SessionID
		m.mu.Unlock()

		return resumeBanner(doorID), saved.SessionID, nil
	}

	text, data, introErr := d.Introduce(ctx)
	if introErr != nil {
		return "", "", &DoorFailure{Cause: introErr}
	}

	record := Record{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		DoorID:         doorID,
		State:          StateActive,
		Data:           data,
		LastActivityAt: time.Now().UTC(),
	}

	m.mu.Lock()
	if _, active := m.byUserDoor[key]; active {
		m.mu.Unlock()
		return "", "", &AlreadyInSession{UserID: userID, DoorID: doorID}
	}
	m.sessions[record.SessionID] = &liveSession{record: record}
	m.byUserDoor[key] = record.SessionID
	m.mu.Unlock()

	return text, record.SessionID, nil
}

func resumeBanner(doorID string) string {
	return "-- resuming your saved session in " + doorID + " --"
}

// Step sends one input to a live session, enforcing idle timeout first.
// On an idle timeout or the door's own exit signal, the session is
// terminated and its persisted save (if any) is deleted.
func (m *Manager) Step(ctx context.Context, sessionID string, input string) (string, error) {
	live, ok := m.lookup(sessionID)
	if !ok {
		return "", &NoSession{SessionID: sessionID}
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	now := time.Now().UTC()
	if m.idleTimeout > 0 && now.Sub(live.record.LastActivityAt) > m.idleTimeout {
		m.terminate(ctx, live.record)
		return "", &Timeout{SessionID: sessionID, Idle: now.Sub(live.record.LastActivityAt)}
	}

	d, ok := m.doors[live.record.DoorID]
	if !ok {
		return "", &UnknownDoor{DoorID: live.record.DoorID}
	}

	live.record.LastActivityAt = now

	output, newData, exit, err := d.Turn(ctx, input, live.record.Data)
	if err != nil {
		return "", &DoorFailure{Cause: err}
	}
	live.record.Data = newData

	if exit {
		m.terminate(ctx, live.record)
	}

	return output, nil
}

// Exit explicitly ends a live session. No save is persisted: the state
// diagram prohibits persistence across an explicit exit.
func (m *Manager) Exit(ctx context.Context, sessionID string) error {
	live, ok := m.lookup(sessionID)
	if !ok {
		return &NoSession{SessionID: sessionID}
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	m.terminate(ctx, live.record)
	return nil
}

// Disconnect moves a live session to SAVED and persists it via the
// repository, removing it from the in-memory live set. Re-entering the
// same (user, door) pair restores it.
func (m *Manager) Disconnect(ctx context.Context, sessionID string) error {
	live, ok := m.lookup(sessionID)
	if !ok {
		return &NoSession{SessionID: sessionID}
	}
	live.mu.Lock()
	live.record.State = StateSaved
	record := live.record
	live.mu.Unlock()

	if err := m.repo.Save(ctx, record); err != nil {
		m.log.Error("door session save failed", "session_id", sessionID, "cause", err.Error())
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	delete(m.byUserDoor, userDoorKey{userID: record.UserID, doorID: record.DoorID})
	m.mu.Unlock()
	return nil
}

// terminate marks a session TERMINATED, deletes any persisted save, and
// drops it from the live registry. Caller must hold live.mu for the
// session named by record.SessionID.
func (m *Manager) terminate(ctx context.Context, record Record) {
	record.State = StateTerminated

	if err := m.repo.Delete(ctx, record.SessionID); err != nil {
		m.log.Warn("door session delete failed", "session_id", record.SessionID, "cause", err.Error())
	}

	m.mu.Lock()
	delete(m.sessions, record.SessionID)
	delete(m.byUserDoor, userDoorKey{userID: record.UserID, doorID: record.DoorID})
	m.mu.Unlock()
}

func (m *Manager) lookup(sessionID string) (*liveSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live, ok := m.sessions[sessionID]
	return live, ok
}
