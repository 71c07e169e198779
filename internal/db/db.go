// Package db is the board's SQLite-backed repository: users, message
// bases, messages, and door sessions, with goose-managed schema
// migrations embedded into the binary.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// DB wraps a connection to the board's SQLite database.
type DB struct {
	conn *sql.DB
}

// User is a persisted board account.
type User struct {
	ID           string
	Handle       string
	PasswordHash string
	CreatedAt    time.Time
	LastSeenAt   *time.Time
}

// MessageBase is a named forum within the board.
type MessageBase struct {
	ID          string
	Name        string
	Description string
}

// Message is one post, optionally a reply to another message in the
// same base.
type Message struct {
	ID            string
	MessageBaseID string
	ParentID      *string
	AuthorID      string
	Subject       string
	Body          string
	CreatedAt     time.Time
}

// Open connects to the SQLite database at path and applies every
// pending migration embedded in MigrationFS.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	migrationsFS, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrationsFS)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for callers that need direct
// access (e.g. ad hoc admin queries from the HTTP dashboard).
func (d *DB) Conn() *sql.DB {
	return d.conn
}

const timeLayout = time.RFC3339

// --- User methods ---

func (d *DB) InsertUser(u *User) error {
	_, err := d.conn.Exec(
		`INSERT INTO users (id, handle, password_hash, created_at, last_seen_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Handle, u.PasswordHash, u.CreatedAt.UTC().Format(timeLayout), formatNullableTime(u.LastSeenAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (d *DB) GetUser(id string) (*User, error) {
	row := d.conn.QueryRow(
		`SELECT id, handle, password_hash, created_at, last_seen_at FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

func (d *DB) GetUserByHandle(handle string) (*User, error) {
	row := d.conn.QueryRow(
		`SELECT id, handle, password_hash, created_at, last_seen_at FROM users WHERE handle = ?`, handle,
	)
	return scanUser(row)
}

func (d *DB) ListUsers(limit, offset int) ([]User, error) {
	rows, err := d.conn.Query(
		`SELECT id, handle, password_hash, created_at, last_seen_at FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (d *DB) TouchUserLastSeen(id string, at time.Time) error {
	_, err := d.conn.Exec(`UPDATE users SET last_seen_at = ? WHERE id = ?`, at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("touch user last seen %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner) (*User, error) {
	var u User
	var createdAt string
	var lastSeenAt sql.NullString
	if err := scanner.Scan(&u.ID, &u.Handle, &u.PasswordHash, &createdAt, &lastSeenAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return finishUser(&u, createdAt, lastSeenAt)
}

func scanUserRow(rows *sql.Rows) (*User, error) {
	var u User
	var createdAt string
	var lastSeenAt sql.NullString
	if err := rows.Scan(&u.ID, &u.Handle, &u.PasswordHash, &createdAt, &lastSeenAt); err != nil {
		return nil, err
	}
	return finishUser(&u, createdAt, lastSeenAt)
}

func finishUser(u *User, createdAt string, lastSeenAt sql.NullString) (*User, error) {
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	u.CreatedAt = parsed
	if lastSeenAt.Valid {
		t, err := time.Parse(timeLayout, lastSeenAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_seen_at: %w", err)
		}
		u.LastSeenAt = &t
	}
	return u, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// --- MessageBase methods ---

func (d *DB) InsertMessageBase(b *MessageBase) error {
	_, err := d.conn.Exec(`INSERT INTO message_bases (id, name, description) VALUES (?, ?, ?)`, b.ID, b.Name, b.Description)
	if err != nil {
		return fmt.Errorf("insert message base: %w", err)
	}
	return nil
}

func (d *DB) ListMessageBases() ([]MessageBase, error) {
	rows, err := d.conn.Query(`SELECT id, name, description FROM message_bases ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list message bases: %w", err)
	}
	defer rows.Close()

	var out []MessageBase
	for rows.Next() {
		var b MessageBase
		if err := rows.Scan(&b.ID, &b.Name, &b.Description); err != nil {
			return nil, fmt.Errorf("scan message base: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Message methods ---

func (d *DB) InsertMessage(m *Message) error {
	_, err := d.conn.Exec(
		`INSERT INTO messages (id, message_base_id, parent_id, author_id, subject, body, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.MessageBaseID, m.ParentID, m.AuthorID, m.Subject, m.Body, m.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (d *DB) ListMessages(messageBaseID string, limit, offset int) ([]Message, error) {
	rows, err := d.conn.Query(
		`SELECT id, message_base_id, parent_id, author_id, subject, body, created_at
		 FROM messages WHERE message_base_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		messageBaseID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.MessageBaseID, &m.ParentID, &m.AuthorID, &m.Subject, &m.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		m.CreatedAt = parsed
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Door session repository ---
//
// The data column holds the JSON encoding of a door session's opaque
// state blob; the door manager treats it as map[string]any and never
// inspects its shape.

func (d *DB) SaveDoorSession(ctx context.Context, sessionID, userID, doorID, state string, data map[string]any, lastActivityAt time.Time) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal door session data: %w", err)
	}
	_, err = d.conn.ExecContext(ctx,
		`INSERT INTO door_sessions (session_id, user_id, door_id, state, data, last_activity_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, door_id) DO UPDATE SET
		   session_id = excluded.session_id,
		   state = excluded.state,
		   data = excluded.data,
		   last_activity_at = excluded.last_activity_at`,
		sessionID, userID, doorID, state, string(blob), lastActivityAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save door session: %w", err)
	}
	return nil
}

func (d *DB) LoadDoorSessionByUserAndDoor(ctx context.Context, userID, doorID string) (sessionID, state string, data map[string]any, lastActivityAt time.Time, found bool, err error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT session_id, state, data, last_activity_at FROM door_sessions WHERE user_id = ? AND door_id = ?`,
		userID, doorID,
	)
	var blob, activityAt string
	scanErr := row.Scan(&sessionID, &state, &blob, &activityAt)
	if scanErr == sql.ErrNoRows {
		return "", "", nil, time.Time{}, false, nil
	}
	if scanErr != nil {
		return "", "", nil, time.Time{}, false, fmt.Errorf("load door session: %w", scanErr)
	}
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return "", "", nil, time.Time{}, false, fmt.Errorf("unmarshal door session data: %w", err)
	}
	parsed, err := time.Parse(timeLayout, activityAt)
	if err != nil {
		return "", "", nil, time.Time{}, false, fmt.Errorf("parse last_activity_at: %w", err)
	}
	return sessionID, state, data, parsed, true, nil
}

func (d *DB) DeleteDoorSession(ctx context.Context, sessionID string) error {
	_, err := d.conn.ExecContext(ctx, `DELETE FROM door_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete door session %s: %w", sessionID, err)
	}
	return nil
}

// DoorSessionSummary is the admin-facing view of a persisted door
// session, used by the HTTP management API's door-session listing.
type DoorSessionSummary struct {
	SessionID      string
	UserID         string
	DoorID         string
	State          string
	LastActivityAt time.Time
}

func (d *DB) ListDoorSessions(ctx context.Context, limit, offset int) ([]DoorSessionSummary, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT session_id, user_id, door_id, state, last_activity_at
		 FROM door_sessions ORDER BY last_activity_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list door sessions: %w", err)
	}
	defer rows.Close()

	var out []DoorSessionSummary
	for rows.Next() {
		var s DoorSessionSummary
		var lastActivityAt string
		if err := rows.Scan(&s.SessionID, &s.UserID, &s.DoorID, &s.State, &lastActivityAt); err != nil {
			return nil, fmt.Errorf("scan door session: %w", err)
		}
		parsed, err := time.Parse(timeLayout, lastActivityAt)
		if err != nil {
			return nil, fmt.Errorf("parse last_activity_at: %w", err)
		}
		s.LastActivityAt = parsed
		out = append(out, s)
	}
	return out, rows.Err()
}
