package quizgen

import "time"

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Timeout bounds each model call, the repair call included.
	Timeout time.Duration

	// MaxTokens is the token budget for one model reply.
	MaxTokens int

	// Temperature controls model output randomness (0.0-1.0).
	Temperature float64

	// StructuredOutput sends QuizSchema with each request so providers
	// use their native JSON mode. The reply is still validated locally.
	StructuredOutput bool
}

// DefaultConfig returns a Config with recommended defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     25 * time.Second,
		MaxTokens:   2048,
		Temperature: 0.4,
	}
}
