package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abhisek/quizzly/internal/quiz"
)

// ValidateTool handles the validate_quiz MCP tool.
type ValidateTool struct{}

func NewValidateTool() *ValidateTool { return &ValidateTool{} }

func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("validate_quiz",
		mcp.WithDescription("Check a quiz JSON document of the form {\"quiz\": {...}} and list every violation. "+
			"Warnings do not make a quiz invalid."),
		mcp.WithString("quiz_json",
			mcp.Required(),
			mcp.Description("The quiz document as JSON text"),
		),
	)
}

type validateOutput struct {
	Valid    bool                   `json:"valid"`
	Errors   []quiz.ValidationError `json:"errors"`
	Warnings []quiz.ValidationError `json:"warnings"`
}

func (t *ValidateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("quiz_json", "")
	if text == "" {
		return mcp.NewToolResultError("'quiz_json' is required"), nil
	}

	candidate, err := quiz.Decode(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, report := quiz.Validate(candidate)

	out := validateOutput{
		Valid:    !report.Failed(),
		Errors:   report.Errors(),
		Warnings: report.Warnings(),
	}
	if out.Errors == nil {
		out.Errors = []quiz.ValidationError{}
	}
	if out.Warnings == nil {
		out.Warnings = []quiz.ValidationError{}
	}
	return jsonResult(out)
}
