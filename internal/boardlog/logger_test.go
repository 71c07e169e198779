package boardlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestNewWritesJSON(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	logger := New(w, slog.LevelInfo)
	logger.Info("hello", "key", "value")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Fatalf("expected JSON msg field, got %q", out)
	}
	if !strings.Contains(out, `"key":"value"`) {
		t.Fatalf("expected JSON key field, got %q", out)
	}
}

func TestWithAttachesFields(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	logger := New(w, slog.LevelInfo).With("door_id", "oracle")
	logger.Info("entered")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if !strings.Contains(buf.String(), `"door_id":"oracle"`) {
		t.Fatalf("expected attached field, got %q", buf.String())
	}
}

func TestDiscardDropsOutput(t *testing.T) {
	logger := Discard()
	logger.Info("should not appear")
	logger.Error("neither should this")
}

func TestContextRoundTrip(t *testing.T) {
	logger := Discard()
	ctx := WithContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the stashed logger to round-trip")
	}
}

func TestFromContextDefaultsToDiscard(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a non-nil default logger")
	}
}
