package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for resources.
	uriScheme = "sercha-rag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Ingest != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "status",
			Name:        "index-status",
			Description: "Index size and indexing progress",
			MIMEType:    "application/json",
		}, s.handleStatusResource)
	}

	if s.ports.Sessions != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "sessions/{sessionId}",
			Name:        "session-transcript",
			Description: "Recent turns of a conversation session",
			MIMEType:    "application/json",
		}, s.handleSessionResource)
	}
}

// handleStatusResource returns the index status as JSON.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.indexStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index status: %w", err)
	}
	return jsonResource(req.Params.URI, status)
}

// handleSessionResource returns the turns held for a session.
func (s *Server) handleSessionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type turnInfo struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}

	turns := s.ports.Sessions.Snapshot(sessionID)
	infos := make([]turnInfo, len(turns))
	for i, turn := range turns {
		infos[i] = turnInfo{Role: string(turn.Role), Text: turn.Text}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like sercha-rag://sessions/{sessionId}.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// sessionURI returns the resource URI for a session.
func sessionURI(sessionID string) string {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	return uriScheme + "sessions/" + sessionID
}
