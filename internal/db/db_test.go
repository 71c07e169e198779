package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpenAndMigrate(t *testing.T) {
	d := openTestDB(t)

	err := d.InsertUser(&User{ID: "u1", Handle: "sysop", PasswordHash: "hash", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	u, err := d.GetUser("u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u == nil || u.Handle != "sysop" {
		t.Fatalf("expected user sysop, got %+v", u)
	}
}

func TestGetUserNotFound(t *testing.T) {
	d := openTestDB(t)
	u, err := d.GetUser("nope")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for non-existent user, got %+v", u)
	}
}

func TestGetUserByHandle(t *testing.T) {
	d := openTestDB(t)
	d.InsertUser(&User{ID: "u1", Handle: "sysop", PasswordHash: "hash", CreatedAt: time.Now().UTC()})

	u, err := d.GetUserByHandle("sysop")
	if err != nil {
		t.Fatalf("GetUserByHandle: %v", err)
	}
	if u == nil || u.ID != "u1" {
		t.Fatalf("expected user u1, got %+v", u)
	}
}

func TestMessageBaseAndMessageRoundTrip(t *testing.T) {
	d := openTestDB(t)
	d.InsertUser(&User{ID: "u1", Handle: "sysop", PasswordHash: "hash", CreatedAt: time.Now().UTC()})
	if err := d.InsertMessageBase(&MessageBase{ID: "b1", Name: "General", Description: "General chatter"}); err != nil {
		t.Fatalf("InsertMessageBase: %v", err)
	}

	bases, err := d.ListMessageBases()
	if err != nil {
		t.Fatalf("ListMessageBases: %v", err)
	}
	if len(bases) != 1 || bases[0].Name != "General" {
		t.Fatalf("expected one base named General, got %+v", bases)
	}

	err = d.InsertMessage(&Message{ID: "m1", MessageBaseID: "b1", AuthorID: "u1", Subject: "hi", Body: "hello board", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	messages, err := d.ListMessages("b1", 10, 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 1 || messages[0].Subject != "hi" {
		t.Fatalf("expected one message, got %+v", messages)
	}
}

func TestDoorSessionSaveLoadDelete(t *testing.T) {
	d := openTestDB(t)
	d.InsertUser(&User{ID: "u1", Handle: "sysop", PasswordHash: "hash", CreatedAt: time.Now().UTC()})
	ctx := context.Background()

	err := d.SaveDoorSession(ctx, "s1", "u1", "oracle", "saved", map[string]any{"step": float64(3)}, time.Now().UTC())
	if err != nil {
		t.Fatalf("SaveDoorSession: %v", err)
	}

	sessionID, state, data, _, found, err := d.LoadDoorSessionByUserAndDoor(ctx, "u1", "oracle")
	if err != nil {
		t.Fatalf("LoadDoorSessionByUserAndDoor: %v", err)
	}
	if !found || sessionID != "s1" || state != "saved" {
		t.Fatalf("expected saved session s1, got %q %q found=%v", sessionID, state, found)
	}
	if data["step"] != float64(3) {
		t.Fatalf("expected step 3, got %+v", data)
	}

	if err := d.DeleteDoorSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteDoorSession: %v", err)
	}
	_, _, _, _, found, err = d.LoadDoorSessionByUserAndDoor(ctx, "u1", "oracle")
	if err != nil {
		t.Fatalf("LoadDoorSessionByUserAndDoor after delete: %v", err)
	}
	if found {
		t.Fatal("expected no session after delete")
	}
}

func TestDoorSessionUpsertReplacesPrior(t *testing.T) {
	d := openTestDB(t)
	d.InsertUser(&User{ID: "u1", Handle: "sysop", PasswordHash: "hash", CreatedAt: time.Now().UTC()})
	ctx := context.Background()

	d.SaveDoorSession(ctx, "s1", "u1", "oracle", "saved", map[string]any{}, time.Now().UTC())
	d.SaveDoorSession(ctx, "s2", "u1", "oracle", "saved", map[string]any{}, time.Now().UTC())

	sessionID, _, _, _, found, err := d.LoadDoorSessionByUserAndDoor(ctx, "u1", "oracle")
	if err != nil {
		t.Fatal(err)
	}
	if !found || sessionID != "s2" {
		t.Fatalf("expected the latest session id s2, got %q", sessionID)
	}
}
