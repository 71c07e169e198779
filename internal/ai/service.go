package ai

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/boardops/boardops/internal/boardlog"
)

// Service is the façade every caller in the board uses instead of talking
// to an AIProvider directly. It owns retry policy, fallback behavior, and
// the health probe.
type Service struct {
	provider      AIProvider
	log           boardlog.Logger
	retryAttempts int
	retryDelay    time.Duration
	fallbacks     bool
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithRetryAttempts overrides the default of 2 retries after the initial
// attempt.
func WithRetryAttempts(n int) Option {
	return func(s *Service) { s.retryAttempts = n }
}

// WithRetryDelay overrides the default backoff delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

// WithFallbacksDisabled turns off fallback-string substitution, causing
// GenerateCompletion to always surface the last typed error once retries
// are exhausted.
func WithFallbacksDisabled() Option {
	return func(s *Service) { s.fallbacks = false }
}

// NewService wraps provider in retry, fallback, and logging behavior.
func NewService(provider AIProvider, log boardlog.Logger, opts ...Option) *Service {
	s := &Service{
		provider:      provider,
		log:           log,
		retryAttempts: 2,
		retryDelay:    500 * time.Millisecond,
		fallbacks:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateCompletion attempts up to retryAttempts+1 times. Configuration
// errors stop immediately; retryable errors sleep retryDelay and retry
// while attempts remain; anything else stops. After the attempts are
// exhausted, a non-empty fallback is returned if fallbacks are enabled,
// otherwise the last typed error is surfaced.
func (s *Service) GenerateCompletion(ctx context.Context, prompt string, opts CompletionOptions, fallback string) (string, error) {
	backoff := retry.WithMaxRetries(uint64(s.retryAttempts), retry.NewConstant(s.retryDelay))

	var lastErr error
	var result string

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		text, callErr := s.provider.GenerateCompletion(ctx, prompt, opts)
		if callErr == nil {
			result = text
			return nil
		}

		aiErr, ok := callErr.(*Error)
		if !ok {
			aiErr = &Error{Message: "unclassified provider error", Kind: KindAPI, Cause: callErr}
		}
		lastErr = aiErr

		if IsConfigurationError(aiErr.Kind) {
			s.log.Error("ai completion stopped: configuration error", "cause", aiErr.Error())
			return aiErr // non-retryable: go-retry stops on a plain error
		}
		if IsRetryable(aiErr.Kind) {
			s.log.Warn("ai completion attempt failed, retrying", "kind", aiErr.Kind.String())
			return retry.RetryableError(aiErr)
		}
		return aiErr
	})

	if err == nil {
		return result, nil
	}

	if s.fallbacks && fallback != "" {
		s.log.Warn("ai completion exhausted retries, using fallback")
		return fallback, nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", err
}

// GenerateStructured makes a single attempt with no retry. On failure it
// logs and returns the typed error, leaving out untouched; an error that
// is not already a typed *Error is first wrapped as an API error.
func (s *Service) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, out any) error {
	err := s.provider.GenerateStructured(ctx, prompt, schema, out)
	if err == nil {
		return nil
	}

	aiErr, ok := err.(*Error)
	if !ok {
		aiErr = &Error{Message: "unclassified provider error", Kind: KindAPI, Cause: err}
	}
	s.log.Error("ai structured call failed", "kind", aiErr.Kind.String(), "cause", aiErr.Error())
	return aiErr
}

// HealthProbe performs a short completion with a small token budget and
// reports whether the provider responded successfully.
func (s *Service) HealthProbe(ctx context.Context) bool {
	_, err := s.provider.GenerateCompletion(ctx, "Reply with the single word: ready.", CompletionOptions{MaxTokens: 8})
	return err == nil
}
