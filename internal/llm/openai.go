package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":       "gpt-4o",
	"gpt-4o-mini":  "gpt-4o-mini",
	"gpt-4.1-mini": "gpt-4.1-mini",
}

// OpenAIProvider implements Provider over the chat completions API. Any
// OpenAI-compatible endpoint works through BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return newChatProvider(cfg.APIKey, cfg.BaseURL, resolveModel(cfg.Model, openaiModels), nil), nil
}

// newChatProvider builds a chat completions provider. hc may be nil.
func newChatProvider(apiKey, baseURL, model string, hc *http.Client) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if hc != nil {
		config.HTTPClient = hc
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: model}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return chatResponse(resp, req.Schema)
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	out := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            chatMessages(req),
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}

	switch {
	case req.Schema != nil:
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return out, fmt.Errorf("marshal schema %q: %w", req.Schema.Name, err)
		}
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(def),
				Strict:      req.Schema.Strict,
			},
		}
	case req.JSON:
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out, nil
}

func chatMessages(req Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// chatResponse turns the first choice into a Response. A truncated reply
// becomes ErrMaxTokensExceeded; with a schema the reply is validated.
func chatResponse(resp openai.ChatCompletionResponse, schema *Schema) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("chat completion has no choices")}
	}
	choice := resp.Choices[0]
	content := json.RawMessage(choice.Message.Content)

	stop := chatStopReason(choice.FinishReason)
	if stop == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := schema.validate(content); err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:      resp.Model,
		StopReason: stop,
	}, nil
}

func chatStopReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonLength:
		return "max_tokens"
	case openai.FinishReasonContentFilter:
		return "content_filter"
	default:
		return "end"
	}
}

func mapOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		// An exhausted quota also arrives as a 429 but never clears by waiting.
		if code, _ := apiErr.Code.(string); code == "insufficient_quota" {
			return &ErrUnauthorized{StatusCode: status, Err: err}
		}
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusPaymentRequired, status == http.StatusForbidden:
		return &ErrUnauthorized{StatusCode: status, Err: err}
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
