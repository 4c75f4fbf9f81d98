package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/store"
)

// GetTool handles the get_quiz MCP tool.
type GetTool struct {
	records store.RecordRepo
}

func NewGetTool(records store.RecordRepo) *GetTool {
	return &GetTool{records: records}
}

func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("get_quiz",
		mcp.WithDescription("Fetch a saved quiz record by id."),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("Record id returned by generate_quiz"),
		),
	)
}

func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errResult := loadRecord(ctx, t.records, req.GetString("record_id", ""))
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(rec)
}

// ScoreTool handles the score_quiz MCP tool.
type ScoreTool struct {
	records store.RecordRepo
}

func NewScoreTool(records store.RecordRepo) *ScoreTool {
	return &ScoreTool{records: records}
}

func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_quiz",
		mcp.WithDescription("Score answers against a saved quiz. Every question needs exactly one answer. "+
			"Ties return every tied personality type in declaration order."),
		mcp.WithString("record_id",
			mcp.Required(),
			mcp.Description("Record id of the quiz"),
		),
		mcp.WithString("answers",
			mcp.Required(),
			mcp.Description(`JSON object mapping question id to choice id, e.g. {"q1":"q1a","q2":"q2c"}`),
		),
	)
}

type scoreOutput struct {
	Totals  map[string]int         `json:"totals"`
	Winners []quiz.PersonalityType `json:"winners"`
}

func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var picks map[string]string
	if err := json.Unmarshal([]byte(req.GetString("answers", "")), &picks); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'answers' must be a JSON object of question id to choice id: %v", err)), nil
	}

	rec, errResult := loadRecord(ctx, t.records, req.GetString("record_id", ""))
	if errResult != nil {
		return errResult, nil
	}
	if rec.Quiz == nil {
		return mcp.NewToolResultError("record has no generated quiz"), nil
	}

	// Every key is passed on so Score rejects ids the quiz does not have.
	ids := make([]string, 0, len(picks))
	for id := range picks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	answers := make([]quiz.AnswerSelection, 0, len(ids))
	for _, id := range ids {
		answers = append(answers, quiz.AnswerSelection{QuestionID: id, ChoiceID: picks[id]})
	}

	result, err := quiz.Score(rec.Quiz, answers)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Best effort: updatedAt marks the last time the quiz was played.
	_ = t.records.Touch(ctx, rec.ID)

	out := scoreOutput{Totals: result.Totals}
	for _, id := range result.Winners {
		if pt := rec.Quiz.PersonalityType(id); pt != nil {
			out.Winners = append(out.Winners, *pt)
		}
	}
	return jsonResult(out)
}

func loadRecord(ctx context.Context, records store.RecordRepo, id string) (*store.Record, *mcp.CallToolResult) {
	rec, err := records.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, mcp.NewToolResultError(fmt.Sprintf("quiz %q not found", id))
	case errors.Is(err, store.ErrIDRequired):
		return nil, mcp.NewToolResultError("'record_id' is required")
	case err != nil:
		return nil, mcp.NewToolResultError(fmt.Sprintf("reading quiz: %v", err))
	}
	return rec, nil
}
