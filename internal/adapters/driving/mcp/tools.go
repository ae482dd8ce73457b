package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation id; earlier turns in the same session are used as context"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	NoContext bool     `json:"no_context"`
	Session   string   `json:"session"`
}

// IndexStatusInput is the (empty) input schema for the index_status tool.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Entries   int    `json:"entries"`
	Running   bool   `json:"running"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Failures  int    `json:"failures"`
	StartedAt string `json:"started_at,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents, citing source files",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report the number of indexed entries and the progress of any indexing run",
		}, s.handleIndexStatus)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Answer(ctx, input.SessionID, input.Question)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, AskOutput{}, errors.New("question must not be empty")
		}
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return nil, AskOutput{
		Answer:    answer.Text,
		Sources:   sources,
		NoContext: answer.NoContext,
		Session:   sessionURI(input.SessionID),
	}, nil
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	output, err := s.indexStatus(ctx)
	return nil, output, err
}

func (s *Server) indexStatus(ctx context.Context) (IndexStatusOutput, error) {
	entries, err := s.ports.Ingest.EntryCount(ctx)
	if err != nil {
		return IndexStatusOutput{}, err
	}

	status := s.ports.Ingest.Status()
	output := IndexStatusOutput{
		Entries:   entries,
		Running:   status.Running,
		Documents: status.Documents,
		Chunks:    status.Chunks,
		Failures:  status.Failures,
	}
	if !status.StartedAt.IsZero() {
		output.StartedAt = status.StartedAt.Format(time.RFC3339)
	}
	return output, nil
}
