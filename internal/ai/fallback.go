package ai

import "github.com/boardops/boardops/internal/ansi"

// FallbackContext names one of the canned situations a caller can request
// a pre-baked fallback string for, used when the AI provider is down.
type FallbackContext string

const (
	FallbackWelcome  FallbackContext = "welcome"
	FallbackGreeting FallbackContext = "greeting"
	FallbackHelp     FallbackContext = "help"
	FallbackError    FallbackContext = "error"
)

var cannedFallbacks = map[FallbackContext]string{
	FallbackWelcome:  ansi.Colorize("Welcome to the board. The Oracle is resting; look around anyway.", "cyan"),
	FallbackGreeting: ansi.Colorize("Hello, traveler.", "green"),
	FallbackHelp:     ansi.Colorize("Type HELP at any prompt for a list of commands.", "yellow"),
	FallbackError:    ansi.Colorize("Something went sideways. A SysOp has been quietly notified.", "red"),
}

// CannedFallback returns the pre-baked fallback string for a context,
// already wrapped in its ANSI color.
func CannedFallback(ctx FallbackContext) string {
	return cannedFallbacks[ctx]
}
