// Package sysop implements the two thin AI-backed domain actors the
// board exposes over internal/ai: the Oracle door and the page-SysOp
// HTTP endpoint.
package sysop

import (
	"context"
	"strings"

	"github.com/boardops/boardops/internal/ai"
	"github.com/boardops/boardops/internal/ansi"
)

const (
	oracleMaxCells   = 150
	oracleSystem     = "You are a cryptic oracle in a bulletin-board system. Answer the user's question in one or two sentences, mystically and briefly."
	oraclePauseMark  = "..."
)

var oracleGlyphs = []string{"🔮", "✨", "🌙", "⭐"}

// Oracle is a door.Door whose turn function asks the AI façade for a
// mystical response, enforcing the response's length and required
// mystique markers.
type Oracle struct {
	service *ai.Service
}

// NewOracle wraps an ai.Service as a playable door.
func NewOracle(service *ai.Service) *Oracle {
	return &Oracle{service: service}
}

func (o *Oracle) ID() string { return "oracle" }

func (o *Oracle) Introduce(ctx context.Context) (string, map[string]any, error) {
	return ansi.Colorize("The Oracle stirs. Ask, and the mists will answer...", "magenta"), map[string]any{}, nil
}

func (o *Oracle) Turn(ctx context.Context, input string, data map[string]any) (string, map[string]any, bool, error) {
	if isExitCommand(input) {
		return ansi.Colorize("The mists close over the Oracle once more.", "magenta"), data, true, nil
	}

	fallback := ai.CannedFallback(ai.FallbackError)
	text, err := o.service.GenerateCompletion(ctx, input, ai.CompletionOptions{MaxTokens: 120, System: oracleSystem}, fallback)
	if err != nil {
		return "", data, false, err
	}

	text = enforceMystique(text)
	return ansi.Colorize(text, "magenta"), data, false, nil
}

func isExitCommand(input string) bool {
	switch input {
	case "quit", "exit", "leave":
		return true
	default:
		return false
	}
}

// enforceMystique guarantees the Oracle's reply carries at least one
// mystique glyph and one pause marker within the cell budget. Markers
// are appended after truncation, not before: appending first and
// truncating second would risk the truncation cutoff discarding a marker
// appended past it, so any missing marker is reserved space in the
// truncation budget instead. A reply that already carries both markers
// is truncated as is; if that cut removes its only glyph, a glyph is
// appended the same way.
func enforceMystique(text string) string {
	hasGlyph := containsAny(text, oracleGlyphs)
	hasPause := strings.Contains(text, oraclePauseMark)
	if hasGlyph && hasPause {
		truncated := ansi.Truncate(text, oracleMaxCells, "...")
		if containsAny(truncated, oracleGlyphs) {
			return truncated
		}
		hasGlyph = false
	}

	var suffix string
	if !hasGlyph {
		suffix += " " + oracleGlyphs[0]
	}
	if !hasPause {
		suffix += " " + oraclePauseMark
	}

	budget := oracleMaxCells - ansi.Width(suffix)
	if budget < 0 {
		budget = 0
	}
	return ansi.Truncate(text, budget, "...") + suffix
}

func containsAny(text string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}
