package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
)

// AnthropicProvider is the concrete AIProvider backed by the Anthropic
// Messages API, the same client the teacher used for session summaries.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider builds a provider targeting the given model
// identifier (e.g. "claude-3-5-haiku-20241022"). The client reads its API
// key from the environment the same way the teacher's summarizer did.
func NewAnthropicProvider(model string) *AnthropicProvider {
	client := anthropic.NewClient()
	return &AnthropicProvider{client: &client, model: model}
}

func (p *AnthropicProvider) GenerateCompletion(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &Error{Message: "no text block in response", Kind: KindAPI}
}

// GenerateStructured asks the model to produce JSON conforming to the
// given schema (which SchemaFor can build from a Go type), then decodes
// the response directly into out.
func (p *AnthropicProvider) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, out any) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return &Error{Message: "marshal schema", Kind: KindConfiguration, Cause: err}
	}

	instructed := fmt.Sprintf(
		"%s\n\nRespond with JSON only, matching this schema exactly:\n%s",
		prompt, string(schemaJSON),
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(instructed)),
		},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return classify(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return &Error{Message: "no text block in response", Kind: KindAPI}
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &Error{Message: "decode structured response", Kind: KindAPI, Cause: err}
	}
	return nil
}

// SchemaFor builds a JSON schema map for T's zero value, suitable for
// GenerateStructured's schema argument.
func SchemaFor[T any]() map[string]any {
	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	var zero T
	schema := reflector.Reflect(zero)
	raw, _ := json.Marshal(schema)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

// classify normalizes an Anthropic SDK error into the façade's typed
// error taxonomy, distinguishing rate limits, timeouts, and transport
// failures from configuration problems and opaque API errors.
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &Error{Message: "rate limited by provider", Kind: KindRateLimited, Cause: err}
		case 401, 403:
			return &Error{Message: "provider rejected credentials", Kind: KindConfiguration, Cause: err}
		case 408, 504:
			return &Error{Message: "provider request timed out", Kind: KindTimeout, Cause: err}
		default:
			return &Error{Message: "provider returned an error", Kind: KindAPI, Cause: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Message: "network timeout", Kind: KindTimeout, Cause: err}
		}
		return &Error{Message: "network error", Kind: KindNetwork, Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Message: "context deadline exceeded", Kind: KindTimeout, Cause: err}
	}

	if strings.Contains(err.Error(), "api key") || strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		return &Error{Message: "provider misconfigured", Kind: KindConfiguration, Cause: err}
	}

	return &Error{Message: "provider call failed", Kind: KindAPI, Cause: err}
}
