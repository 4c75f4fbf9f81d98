package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestReplyContent(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{"invalid response", &ErrInvalidResponse{Content: json.RawMessage("oops"), Err: errors.New("bad")}, "oops", true},
		{"wrapped max tokens", fmt.Errorf("call: %w", &ErrMaxTokensExceeded{Content: json.RawMessage(`{"qu`)}), `{"qu`, true},
		{"unavailable", &ErrProviderUnavailable{Err: errors.New("down")}, "", false},
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, "", false},
		{"unauthorized", &ErrUnauthorized{StatusCode: 401, Err: errors.New("bad key")}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReplyContent(tt.err)
			if ok != tt.wantOK || string(got) != tt.want {
				t.Fatalf("ReplyContent = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"12", 12 * time.Second},
		{" 3 ", 3 * time.Second},
		{"", 0},
		{"-1", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := retryAfter(h); got != tt.want {
			t.Errorf("retryAfter(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
	if retryAfter(nil) != 0 {
		t.Error("nil header should mean no hint")
	}
}
