package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
)

// GenerateTool handles the generate_quiz MCP tool.
type GenerateTool struct {
	generator quizgen.Generator
	records   store.RecordRepo
}

func NewGenerateTool(generator quizgen.Generator, records store.RecordRepo) *GenerateTool {
	return &GenerateTool{generator: generator, records: records}
}

func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_quiz",
		mcp.WithDescription("Generate a four-question personality quiz for a quiz name. "+
			"The quiz is validated, repaired once if needed, and saved unless save is false."),
		mcp.WithString("quiz_name",
			mcp.Description("Name or theme of the quiz, e.g. 'Which houseplant are you?'. May be empty."),
		),
		mcp.WithBoolean("save",
			mcp.Description("Persist the quiz as a record (default: true)"),
		),
	)
}

type generateOutput struct {
	RecordID string                 `json:"recordId,omitempty"`
	Attempts int                    `json:"attempts"`
	Model    string                 `json:"model"`
	Quiz     *quiz.Quiz             `json:"quiz"`
	Warnings []quiz.ValidationError `json:"warnings,omitempty"`
}

func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.generator == nil {
		return mcp.NewToolResultError("no model API key is configured"), nil
	}
	name := req.GetString("quiz_name", "")

	res, err := t.generator.Generate(ctx, name)
	if err != nil {
		var unrepairable *quizgen.ErrUnrepairableResponse
		if errors.As(err, &unrepairable) {
			return mcp.NewToolResultError("model returned an unusable quiz:\n" + unrepairable.Details()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := generateOutput{
		Attempts: res.Attempts,
		Model:    res.Model,
		Quiz:     res.Quiz,
		Warnings: res.Warnings,
	}
	if t.records != nil && boolArg(req, "save", true) {
		recName := quizgen.NormalizeName(name)
		if recName == quizgen.NamePlaceholder {
			recName = res.Quiz.Title
		}
		rec, err := t.records.Create(ctx, store.NewRecord{
			Name:         recName,
			Quiz:         res.Quiz,
			RawModelText: res.RawText,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("quiz generated but not saved: %v", err)), nil
		}
		out.RecordID = rec.ID
	}
	return jsonResult(out)
}

// boolArg extracts a boolean argument, returning defaultVal when absent.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
