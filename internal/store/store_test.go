package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/quizzly/internal/quiz"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stepClock returns a clock that advances by one second per call.
func stepClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(time.Second)
		return t
	}
}

func strPtr(s string) *string { return &s }

func testQuiz() *quiz.Quiz {
	q := &quiz.Quiz{
		Title:       "Which Cat Are You?",
		Description: "Find out.",
		PersonalityTypes: []quiz.PersonalityType{
			{ID: "lazy", Name: "Lazy Cat", Description: "Naps."},
			{ID: "zoomy", Name: "Zoomy Cat", Description: "Runs."},
		},
	}
	for i := 1; i <= quiz.QuestionCount; i++ {
		qu := quiz.Question{ID: fmt.Sprintf("q%d", i), Text: fmt.Sprintf("Question %d?", i)}
		for j, id := range []string{"a", "b", "c", "d"} {
			typ := "lazy"
			if j%2 == 1 {
				typ = "zoomy"
			}
			qu.Choices = append(qu.Choices, quiz.Choice{
				ID:     qu.ID + id,
				Text:   "Choice " + id,
				Scores: map[string]int{typ: j + 1},
			})
		}
		q.Questions = append(q.Questions, qu)
	}
	return q
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"quiz_records", "llm_events"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table name = %q, want %q", name, table)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestRecordCreateAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	q := testQuiz()
	rec, err := repo.Create(ctx, NewRecord{
		Name:         "  Cats  ",
		Quiz:         q,
		RawModelText: `{"quiz":{}}`,
		OwnerUID:     strPtr("u-1"),
		OwnerEmail:   strPtr(""),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}
	if rec.Name != "Cats" {
		t.Errorf("name = %q, want trimmed", rec.Name)
	}
	if rec.FirstQuestionText != "Question 1?" {
		t.Errorf("first question = %q", rec.FirstQuestionText)
	}
	if rec.OwnerEmail != nil {
		t.Errorf("empty owner email should be nil, got %q", *rec.OwnerEmail)
	}
	if !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("created %v != updated %v", rec.CreatedAt, rec.UpdatedAt)
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Cats" || got.RawModelText != `{"quiz":{}}` {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.OwnerUID == nil || *got.OwnerUID != "u-1" {
		t.Errorf("owner uid = %v", got.OwnerUID)
	}
	if got.Quiz == nil || got.Quiz.Title != q.Title || len(got.Quiz.Questions) != quiz.QuestionCount {
		t.Fatalf("quiz not round-tripped: %+v", got.Quiz)
	}
	if got.Quiz.Questions[0].Choices[1].Scores["zoomy"] != 2 {
		t.Errorf("scores not round-tripped: %v", got.Quiz.Questions[0].Choices[1].Scores)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestRecordCreateWithoutQuiz(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	rec, err := repo.Create(ctx, NewRecord{Name: "Draft", FirstQuestionText: "Hello?"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Quiz != nil {
		t.Errorf("expected nil quiz, got %+v", got.Quiz)
	}
	if got.FirstQuestionText != "Hello?" {
		t.Errorf("first question = %q", got.FirstQuestionText)
	}
}

func TestRecordCreateRequiresName(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RecordRepo().Create(context.Background(), NewRecord{Name: "   "})
	if !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v, want ErrNameRequired", err)
	}
}

func TestRecordGetNotFound(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, err = repo.Get(ctx, "  ")
	if !errors.Is(err, ErrIDRequired) {
		t.Fatalf("err = %v, want ErrIDRequired", err)
	}
}

func TestRecordTouch(t *testing.T) {
	s := openTestStore(t)
	s.now = stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := s.RecordRepo()
	ctx := context.Background()

	rec, err := repo.Create(ctx, NewRecord{Name: "Cats", Quiz: testQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Touch(ctx, rec.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updated_at %v should be after created_at %v", got.UpdatedAt, got.CreatedAt)
	}

	if err := repo.Touch(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("touch missing: err = %v, want ErrNotFound", err)
	}
}

func TestRecordListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	s.now = stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := s.RecordRepo()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := repo.Create(ctx, NewRecord{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	all, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Name != "third" || all[2].Name != "first" {
		t.Fatalf("unexpected order: %v", names(all))
	}

	limited, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited len = %d, want 2", len(limited))
	}
}

func names(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestLLMEventsAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", InputTokens: 100, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-repair", InputTokens: 600, OutputTokens: 400, LatencyMs: 1100, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "quiz-gen", LatencyMs: 50, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Provider != "anthropic" || got[0].Success {
		t.Errorf("newest event = %+v", got[0])
	}

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz-gen", Limit: 1})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(gen) != 1 || gen[0].Purpose != "quiz-gen" {
		t.Fatalf("purpose filter = %+v", gen)
	}

	first, err := repo.GetLLMEvent(ctx, got[2].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.RequestBody != "req" || first.ResponseBody != "resp" || !first.Success {
		t.Fatalf("unexpected event: %+v", first)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing event")
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", InputTokens: 100, OutputTokens: 200, LatencyMs: 100},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", InputTokens: 50, OutputTokens: 50, LatencyMs: 300},
		{Provider: "openai", Model: "gpt-4o", Purpose: "quiz-repair", InputTokens: 10, OutputTokens: 20, LatencyMs: 40},
	} {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("purposes = %d, want 2", len(byPurpose))
	}
	gen := byPurpose[0]
	if gen.Purpose != "quiz-gen" || gen.Calls != 2 || gen.InputTokens != 150 || gen.OutputTokens != 250 || gen.AvgLatencyMs != 200 {
		t.Errorf("quiz-gen usage = %+v", gen)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o" || byModel[1].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestDefaultDBPathHonoursEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "custom.db")
	t.Setenv("QUIZZLY_DB", want)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestDefaultDBPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUIZZLY_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if got != filepath.Join(dir, "quizzly", "quizzly.db") {
		t.Errorf("path = %q", got)
	}
}
