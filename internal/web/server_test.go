package web

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boardops/boardops/internal/ai"
	"github.com/boardops/boardops/internal/boardlog"
	"github.com/boardops/boardops/internal/config"
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
)

// fakeProvider is a minimal ai.AIProvider test double for exercising the
// page-SysOp HTTP endpoint without a live Anthropic client.
type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) GenerateCompletion(ctx context.Context, prompt string, opts ai.CompletionOptions) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, out any) error {
	return f.err
}

func newTestServer(t *testing.T, provider ai.AIProvider) *Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	cfg := &config.Config{HTTPPort: 0}
	log := boardlog.Discard()
	broker := notify.NewBroker(log, notify.DefaultSubscriptionCap)
	pager := sysop.NewPager(ai.NewService(provider, log))

	return New(cfg, Dependencies{
		DB:     database,
		Broker: broker,
		Doors:  nil,
		Pager:  pager,
		Log:    log,
	})
}

func TestHandleDashboardRenders(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})
	s.deps.DB.InsertMessageBase(&db.MessageBase{ID: "b1", Name: "General", Description: "chatter"})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "General") {
		t.Fatalf("expected dashboard body to mention message base name, got %s", rec.Body.String())
	}
}

func TestHandleDashboardMessageBasesRenders(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})
	s.deps.DB.InsertMessageBase(&db.MessageBase{ID: "b1", Name: "General", Description: "chatter"})

	req := httptest.NewRequest("GET", "/message-bases", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleDashboardMessagesNotFoundForUnknownBase(t *testing.T) {
	s := newTestServer(t, &fakeProvider{})

	req := httptest.NewRequest("GET", "/message-bases/missing/messages", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
