package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicModels maps friendly names to Anthropic model IDs.
var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-5-20250929",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// statusOverloaded is Anthropic's "overloaded" status.
const statusOverloaded = 529

// AnthropicProvider implements Provider using the Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider. The SDK's own
// retries are off; WithRetry owns the retry policy.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: resolveModel(cfg.Model, anthropicModels)}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.messageParams(req))
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	content, err := anthropicText(msg)
	if err != nil {
		return nil, err
	}
	stop := anthropicStopReason(msg.StopReason)
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := req.Schema.validate(content); err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Model:      string(msg.Model),
		StopReason: stop,
	}, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

// messageParams builds the Messages API request. There is no bare JSON
// mode here, so req.JSON is left to the prompt.
func (p *AnthropicProvider) messageParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}
	return params
}

// anthropicText joins the reply's text blocks. Long replies can arrive
// split across several.
func anthropicText(msg *anthropic.Message) (json.RawMessage, error) {
	var b strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return nil, &ErrInvalidResponse{Err: errors.New("anthropic reply has no text block")}
	}
	return json.RawMessage(b.String()), nil
}

func anthropicStopReason(reason anthropic.StopReason) string {
	switch reason {
	case "max_tokens":
		return "max_tokens"
	case "refusal":
		return "refusal"
	default:
		return "end"
	}
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &ErrProviderUnavailable{Err: err}
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ErrUnauthorized{StatusCode: apiErr.StatusCode, Err: err}
	case http.StatusTooManyRequests:
		rl := &ErrRateLimit{Err: err}
		if apiErr.Response != nil {
			rl.RetryAfter = retryAfter(apiErr.Response.Header)
		}
		return rl
	case statusOverloaded:
		return &ErrProviderUnavailable{Err: fmt.Errorf("anthropic overloaded: %w", err)}
	}
	return &ErrProviderUnavailable{Err: err}
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names are used as-is.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
