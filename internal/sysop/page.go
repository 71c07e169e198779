package sysop

import (
	"context"
	"time"

	"github.com/boardops/boardops/internal/ai"
	"github.com/boardops/boardops/internal/ansi"
)

const (
	pageMaxCells    = 500
	pageRaceTimeout = 5 * time.Second
)

// GatewayTimeout is returned by Page when the AI does not respond within
// the page's race window; the in-flight provider call, if it eventually
// completes, is discarded.
type GatewayTimeout struct{}

func (GatewayTimeout) Error() string { return "sysop page timed out waiting for the AI" }

// Pager serves the page-SysOp endpoint: it asks the AI façade for a
// response and races it against a fixed wall-clock budget, since a human
// SysOp is reading the result live.
type Pager struct {
	service *ai.Service
}

// NewPager wraps an ai.Service for the page endpoint.
func NewPager(service *ai.Service) *Pager {
	return &Pager{service: service}
}

// Page asks the AI for a reply to message, truncated to pageMaxCells and
// colorized, racing the call against a 5-second timer. On timeout it
// returns GatewayTimeout immediately without waiting for the provider
// call to finish.
func (p *Pager) Page(ctx context.Context, message string) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		fallback := ai.CannedFallback(ai.FallbackError)
		text, err := p.service.GenerateCompletion(ctx, message, ai.CompletionOptions{MaxTokens: 300}, fallback)
		done <- outcome{text: text, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil {
			return "", result.err
		}
		return ansi.Colorize(ansi.Truncate(result.text, pageMaxCells, "..."), "yellow"), nil
	case <-time.After(pageRaceTimeout):
		return "", GatewayTimeout{}
	}
}
