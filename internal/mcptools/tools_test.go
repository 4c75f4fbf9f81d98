package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

func newTestRecords(t *testing.T) store.RecordRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s.RecordRepo()
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func sampleQuiz() *quiz.Quiz {
	q := &quiz.Quiz{
		Title:       "Work Style",
		Description: "How do you approach problems?",
		PersonalityTypes: []quiz.PersonalityType{
			{ID: "analyst", Name: "The Analyst", Description: "Thinks before acting."},
			{ID: "explorer", Name: "The Explorer", Description: "Acts to learn."},
		},
	}
	for i := 1; i <= quiz.QuestionCount; i++ {
		id := fmt.Sprintf("q%d", i)
		q.Questions = append(q.Questions, quiz.Question{
			ID:   id,
			Text: fmt.Sprintf("Question %d?", i),
			Choices: []quiz.Choice{
				{ID: id + "a", Text: "A", Scores: map[string]int{"analyst": 4}},
				{ID: id + "b", Text: "B", Scores: map[string]int{"explorer": 4}},
				{ID: id + "c", Text: "C", Scores: map[string]int{"analyst": 1}},
				{ID: id + "d", Text: "D", Scores: map[string]int{"explorer": 2}},
			},
		})
	}
	return q
}

func sampleQuizJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(quiz.Envelope{Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// ─── GenerateTool ────────────────────────────────────────────────────────────

func TestGenerateTool_Definition(t *testing.T) {
	def := NewGenerateTool(nil, nil).Definition()
	if def.Name != "generate_quiz" {
		t.Errorf("tool name = %q", def.Name)
	}
	if _, ok := def.InputSchema.Properties["quiz_name"]; !ok {
		t.Error("missing 'quiz_name' parameter")
	}
}

func TestGenerateTool_SavesRecord(t *testing.T) {
	records := newTestRecords(t)
	mock := llm.NewMockProvider(llm.MockText(sampleQuizJSON(t)))
	tool := NewGenerateTool(quizgen.New(mock, quizgen.DefaultConfig()), records)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"quiz_name": "Work Style"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}

	var out generateOutput
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Attempts != 1 || out.Quiz == nil || out.RecordID == "" {
		t.Fatalf("unexpected output: %+v", out)
	}
	rec, err := records.Get(context.Background(), out.RecordID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Name != "Work Style" {
		t.Errorf("record name = %q", rec.Name)
	}
}

func TestGenerateTool_NoSave(t *testing.T) {
	records := newTestRecords(t)
	mock := llm.NewMockProvider(llm.MockText(sampleQuizJSON(t)))
	tool := NewGenerateTool(quizgen.New(mock, quizgen.DefaultConfig()), records)

	res, _ := tool.Handle(context.Background(), makeReq(map[string]any{"save": false}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	if strings.Contains(resultText(res), "recordId") {
		t.Error("record should not be saved")
	}
	list, _ := records.List(context.Background(), 0)
	if len(list) != 0 {
		t.Errorf("expected no records, got %d", len(list))
	}
}

func TestGenerateTool_Errors(t *testing.T) {
	res, _ := NewGenerateTool(nil, nil).Handle(context.Background(), makeReq(nil))
	if !res.IsError {
		t.Error("expected error without a generator")
	}

	mock := llm.NewMockProvider(llm.MockText("nope"), llm.MockText("nope again"))
	tool := NewGenerateTool(quizgen.New(mock, quizgen.DefaultConfig()), nil)
	res, _ = tool.Handle(context.Background(), makeReq(map[string]any{"quiz_name": "x"}))
	if !res.IsError || !strings.Contains(resultText(res), "unusable quiz") {
		t.Errorf("unexpected result: %s", resultText(res))
	}
}

// ─── ValidateTool ────────────────────────────────────────────────────────────

func TestValidateTool(t *testing.T) {
	tool := NewValidateTool()

	res, _ := tool.Handle(context.Background(), makeReq(map[string]any{"quiz_json": sampleQuizJSON(t)}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var out validateOutput
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Valid || len(out.Errors) != 0 {
		t.Errorf("expected valid quiz: %+v", out)
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]any{"quiz_json": `{"quiz":{"title":"t"}}`}))
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Valid || len(out.Errors) == 0 {
		t.Errorf("expected violations: %+v", out)
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]any{"quiz_json": "not json"}))
	if !res.IsError {
		t.Error("expected tool error for non-JSON input")
	}
}

// ─── GetTool / ScoreTool ─────────────────────────────────────────────────────

func TestGetTool(t *testing.T) {
	records := newTestRecords(t)
	rec, err := records.Create(context.Background(), store.NewRecord{Name: "Work Style", Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tool := NewGetTool(records)

	res, _ := tool.Handle(context.Background(), makeReq(map[string]any{"record_id": rec.ID}))
	if res.IsError || !strings.Contains(resultText(res), rec.ID) {
		t.Errorf("unexpected result: %s", resultText(res))
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]any{"record_id": "missing"}))
	if !res.IsError || !strings.Contains(resultText(res), "not found") {
		t.Errorf("expected not found: %s", resultText(res))
	}
}

func TestScoreTool_Tie(t *testing.T) {
	records := newTestRecords(t)
	rec, err := records.Create(context.Background(), store.NewRecord{Name: "Work Style", Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tool := NewScoreTool(records)

	res, _ := tool.Handle(context.Background(), makeReq(map[string]any{
		"record_id": rec.ID,
		"answers":   `{"q1":"q1a","q2":"q2a","q3":"q3b","q4":"q4b"}`,
	}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var out scoreOutput
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Winners) != 2 || out.Winners[0].ID != "analyst" || out.Winners[1].ID != "explorer" {
		t.Errorf("winners = %+v", out.Winners)
	}
	if out.Totals["analyst"] != 8 || out.Totals["explorer"] != 8 {
		t.Errorf("totals = %v", out.Totals)
	}
}

type touchingRepo struct {
	store.RecordRepo
	touched []string
}

func (r *touchingRepo) Touch(ctx context.Context, id string) error {
	r.touched = append(r.touched, id)
	return r.RecordRepo.Touch(ctx, id)
}

func TestScoreTool_TouchesRecordOnSuccess(t *testing.T) {
	repo := &touchingRepo{RecordRepo: newTestRecords(t)}
	rec, err := repo.Create(context.Background(), store.NewRecord{Name: "Work Style", Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tool := NewScoreTool(repo)

	res, _ := tool.Handle(context.Background(), makeReq(map[string]any{
		"record_id": rec.ID,
		"answers":   `{"q1":"q1a"}`,
	}))
	if !res.IsError || len(repo.touched) != 0 {
		t.Fatalf("rejected answers must not touch the record: %v", repo.touched)
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]any{
		"record_id": rec.ID,
		"answers":   `{"q1":"q1a","q2":"q2a","q3":"q3a","q4":"q4a"}`,
	}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	if len(repo.touched) != 1 || repo.touched[0] != rec.ID {
		t.Errorf("touched = %v, want [%s]", repo.touched, rec.ID)
	}
}

func TestScoreTool_Errors(t *testing.T) {
	records := newTestRecords(t)
	rec, err := records.Create(context.Background(), store.NewRecord{Name: "Work Style", Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tool := NewScoreTool(records)

	tests := map[string]map[string]any{
		"bad answers json": {"record_id": rec.ID, "answers": "[1]"},
		"missing answer":   {"record_id": rec.ID, "answers": `{"q1":"q1a"}`},
		"unknown choice":   {"record_id": rec.ID, "answers": `{"q1":"zz","q2":"q2a","q3":"q3a","q4":"q4a"}`},
		"unknown record":   {"record_id": "missing", "answers": `{}`},
		"unknown question": {"record_id": rec.ID, "answers": `{"q1":"q1a","q2":"q2a","q3":"q3a","q4":"q4a","q9":"zz"}`},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(args))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(res))
			}
		})
	}
}

func TestScoreTool_UnknownQuestionIsNamed(t *testing.T) {
	records := newTestRecords(t)
	rec, err := records.Create(context.Background(), store.NewRecord{Name: "Work Style", Quiz: sampleQuiz()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := NewScoreTool(records).Handle(context.Background(), makeReq(map[string]any{
		"record_id": rec.ID,
		"answers":   `{"q1":"q1a","q2":"q2a","q3":"q3a","q4":"q4a","q9":"zz"}`,
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error, got %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "MissingAnswer") || !strings.Contains(text, `"q9"`) {
		t.Errorf("error should name the unknown question, got %q", text)
	}
}

func TestNewServer(t *testing.T) {
	if s := NewServer("test", Deps{Records: newTestRecords(t)}); s == nil {
		t.Fatal("expected a server")
	}
	if s := NewServer("test", Deps{}); s == nil {
		t.Fatal("expected a server without records")
	}
}
