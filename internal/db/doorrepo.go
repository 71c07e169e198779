package db

import (
	"context"

	"github.com/boardops/boardops/internal/door"
)

// DoorRepository adapts *DB to door.Repository, the narrow persistence
// contract the door session manager depends on. The manager never
// imports this package directly; cmd/boardops wires a DoorRepository in
// at startup.
type DoorRepository struct {
	db *DB
}

// NewDoorRepository wraps db as a door.Repository.
func NewDoorRepository(db *DB) *DoorRepository {
	return &DoorRepository{db: db}
}

func (r *DoorRepository) Save(ctx context.Context, record door.Record) error {
	return r.db.SaveDoorSession(ctx, record.SessionID, record.UserID, record.DoorID, record.State.String(), record.Data, record.LastActivityAt)
}

func (r *DoorRepository) LoadByUserAndDoor(ctx context.Context, userID, doorID string) (*door.Record, error) {
	sessionID, state, data, lastActivityAt, found, err := r.db.LoadDoorSessionByUserAndDoor(ctx, userID, doorID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &door.Record{
		SessionID:      sessionID,
		UserID:         userID,
		DoorID:         doorID,
		State:          parseState(state),
		Data:           data,
		LastActivityAt: lastActivityAt,
	}, nil
}

func (r *DoorRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.DeleteDoorSession(ctx, sessionID)
}

func parseState(s string) door.State {
	switch s {
	case door.StateActive.String():
		return door.StateActive
	case door.StateSaved.String():
		return door.StateSaved
	case door.StateTerminated.String():
		return door.StateTerminated
	default:
		return door.StateSaved
	}
}
