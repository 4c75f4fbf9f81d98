package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// retryAfter reads a Retry-After header given in seconds. Zero means the
// provider did not say.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrUnauthorized indicates the provider refused the credentials or the
// account (401, 402, 403). Retrying cannot help.
type ErrUnauthorized struct {
	StatusCode int
	Err        error
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("LLM provider rejected credentials (%d): %v", e.StatusCode, e.Err)
}

func (e *ErrUnauthorized) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ReplyContent extracts the model's reply from content-level errors
// (ErrInvalidResponse, ErrMaxTokensExceeded). ok is false for transport
// errors, which carry no reply.
func ReplyContent(err error) (content json.RawMessage, ok bool) {
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return inv.Content, true
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return maxTok.Content, true
	}
	return nil, false
}
