// Package mcptools exposes quiz generation, validation, scoring and record
// lookup as MCP tools.
//
// Each tool follows the same shape:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Domain failures are returned as tool errors, never as Go errors.
package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
)

// Deps are the collaborators the tools need. Generator may be nil when no
// model is configured; Records may be nil to disable persistence.
type Deps struct {
	Generator quizgen.Generator
	Records   store.RecordRepo
}

// NewServer builds an MCP server with every quiz tool registered.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"quizzly",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Generate, validate and score personality quizzes. "+
			"Generated quizzes are saved and can be fetched again by record id."),
	)

	generate := NewGenerateTool(deps.Generator, deps.Records)
	s.AddTool(generate.Definition(), generate.Handle)

	validate := NewValidateTool()
	s.AddTool(validate.Definition(), validate.Handle)

	if deps.Records != nil {
		score := NewScoreTool(deps.Records)
		s.AddTool(score.Definition(), score.Handle)

		get := NewGetTool(deps.Records)
		s.AddTool(get.Definition(), get.Handle)
	}
	return s
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
