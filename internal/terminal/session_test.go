package terminal

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boardops/boardops/internal/ai"
	"github.com/boardops/boardops/internal/boardlog"
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/door"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
)

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

func newTestDeps(t *testing.T, provider ai.AIProvider) Dependencies {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	log := boardlog.Discard()
	broker := notify.NewBroker(log, notify.DefaultSubscriptionCap)
	aiService := ai.NewService(provider, log)
	doors := []door.Door{sysop.NewOracle(aiService)}
	doorMgr := door.NewManager(doors, db.NewDoorRepository(database), 5*time.Minute, log)

	return Dependencies{
		DB:     database,
		Broker: broker,
		Doors:  doorMgr,
		Pager:  sysop.NewPager(aiService),
		Log:    log,
	}
}

// pipeSession runs one session over an in-memory net.Pipe, returning the
// client side for the test to drive and a buffered reader over it;
// readLineWithDeadline reads response lines from that reader with a
// bounded deadline so a stuck read fails fast.
func pipeSession(t *testing.T, deps Dependencies) (net.Conn, *bufio.Reader) {
	t.Helper()
	server, client := net.Pipe()
	sess := newSession(server, deps)
	go sess.run()
	t.Cleanup(func() { _ = client.Close() })
	return client, bufio.NewReader(client)
}

func readLineWithDeadline(t *testing.T, client net.Conn, r *bufio.Reader) string {
	t.Helper()
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func TestSessionSendsWelcomeBanner(t *testing.T) {
	deps := newTestDeps(t, &fakeProvider{})
	client, r := pipeSession(t, deps)

	readLineWithDeadline(t, client, r) // top border of the welcome frame
	line := readLineWithDeadline(t, client, r)
	if !strings.Contains(line, "BOARD OPS") && !strings.Contains(line, "Board Ops") {
		t.Fatalf("expected a welcome banner line, got %q", line)
	}
}

func TestSessionHelpCommand(t *testing.T) {
	deps := newTestDeps(t, &fakeProvider{})
	client, r := pipeSession(t, deps)
	drainFrame(t, client, r)

	_, _ = client.Write([]byte("help\n"))
	line := readLineWithDeadline(t, client, r)
	if !strings.Contains(line, "Commands:") {
		t.Fatalf("expected help output, got %q", line)
	}
}

func TestSessionEnterDoorThenStep(t *testing.T) {
	deps := newTestDeps(t, &fakeProvider{response: "the stars say yes... 🔮"})
	client, r := pipeSession(t, deps)
	drainFrame(t, client, r)

	_, _ = client.Write([]byte("enter oracle\n"))
	line := readLineWithDeadline(t, client, r)
	if line == "" {
		t.Fatal("expected a non-empty response entering the oracle door")
	}

	_, _ = client.Write([]byte("what does the future hold?\n"))
	reply := readLineWithDeadline(t, client, r)
	if reply == "" {
		t.Fatal("expected a non-empty oracle reply")
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	deps := newTestDeps(t, &fakeProvider{})
	client, r := pipeSession(t, deps)
	drainFrame(t, client, r)

	_, _ = client.Write([]byte("frobnicate\n"))
	line := readLineWithDeadline(t, client, r)
	if !strings.Contains(line, "unknown command") {
		t.Fatalf("expected unknown command notice, got %q", line)
	}
}

// drainFrame reads the framed welcome banner emitted on connect: top
// border, two content rows, bottom border.
func drainFrame(t *testing.T, client net.Conn, r *bufio.Reader) {
	t.Helper()
	for i := 0; i < 4; i++ {
		readLineWithDeadline(t, client, r)
	}
}
