package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for model interaction.
// Consumers call Generate with a Request and receive text or JSON.
type Provider interface {
	// Generate sends a prompt to the model. When the request carries a
	// Schema the provider uses its native structured output and validates
	// the result; otherwise Content is the model's text as-is.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. A first generation carries one
	// user message; a repair carries the original prompt, the model's reply
	// and a follow-up user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is the raw text.
	Schema *Schema

	// JSON asks for a bare JSON object reply when no Schema is set.
	// Providers without such a mode ignore it; the prompt still has to
	// ask for JSON.
	JSON bool

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (schema name for OpenAI).
	// Kebab-case, e.g. "personality-quiz".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any

	// Strict asks providers that support it to enforce the schema during
	// decoding. Strict schemas cannot use open-ended objects.
	Strict bool
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON object. Otherwise it holds the
	// model's text unmodified, which may not be JSON at all.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns Content as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}
