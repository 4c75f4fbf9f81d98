package llm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/store"
)

func openEventStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogging_RecordsEvent(t *testing.T) {
	s := openEventStore(t)
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"quiz":{}}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 34},
	})
	p := WithLogging(mock, "mock", s.EventRepo(), nil)

	ctx := WithCall(context.Background(), Call{Purpose: "quiz-gen", Attempt: 1, Subject: "Cats"})
	_, err := p.Generate(ctx, Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "Quiz name: Cats"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Purpose != "quiz-gen" || e.Provider != "mock" || !e.Success {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.InputTokens != 12 || e.OutputTokens != 34 {
		t.Fatalf("tokens = %d/%d", e.InputTokens, e.OutputTokens)
	}
	if !strings.Contains(e.RequestBody, "Quiz name: Cats") || e.ResponseBody != `{"quiz":{}}` {
		t.Fatalf("bodies not captured: %q / %q", e.RequestBody, e.ResponseBody)
	}
}

func TestLogging_RecordsFailureAndWarns(t *testing.T) {
	s := openEventStore(t)
	core, logs := observer.New(zapcore.DebugLevel)
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, "mock", s.EventRepo(), logger.NewWithCore(core))

	ctx := WithCall(context.Background(), Call{Purpose: "quiz-repair", Attempt: 2, Subject: "Cats"})
	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Success || !strings.Contains(events[0].ErrorMessage, "down") {
		t.Fatalf("unexpected events: %+v", events)
	}
	warned := logs.FilterMessage("model request failed").All()
	if len(warned) != 1 {
		t.Fatalf("expected a warning log, got %v", logs.All())
	}
	fields := warned[0].ContextMap()
	if fields["purpose"] != "quiz-repair" || fields["attempt"] != int64(2) || fields["quiz_name"] != "Cats" {
		t.Fatalf("call labels missing from log: %v", fields)
	}
}

func TestLogging_TokenCountsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{}`),
		Usage:   Usage{InputTokens: 7, OutputTokens: 9},
	})
	p := WithLogging(mock, "mock", nil, logger.NewWithCore(core))

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("model request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 debug entry, got %v", logs.All())
	}
	fields := entries[0].ContextMap()
	if fields["purpose"] != "unknown" {
		t.Fatalf("purpose = %v, want unknown", fields["purpose"])
	}
	if _, ok := fields["attempt"]; ok {
		t.Fatalf("unset attempt should not be logged: %v", fields)
	}
	if fields["input_tokens"] != int64(7) || fields["output_tokens"] != int64(9) {
		t.Fatalf("token counts = %v / %v", fields["input_tokens"], fields["output_tokens"])
	}
}

func TestLogging_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, "mock", nil, nil)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("model = %q", p.ModelID())
	}
}
