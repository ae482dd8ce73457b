package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    *domain.Answer
	err       error
	sessionID string
	question  string
}

func (m *mockQueryService) Answer(_ context.Context, sessionID, question string) (*domain.Answer, error) {
	m.sessionID = sessionID
	m.question = question
	return m.answer, m.err
}

// mockIngestor is a mock implementation of driving.IngestionCoordinator.
type mockIngestor struct {
	status   domain.IngestStatus
	entries  int
	countErr error
}

func (m *mockIngestor) IndexAll(context.Context, []string, domain.SkipRules) (*domain.RunSummary, error) {
	return &domain.RunSummary{}, nil
}

func (m *mockIngestor) IndexOne(context.Context, string) (*domain.RunSummary, error) {
	return &domain.RunSummary{}, nil
}

func (m *mockIngestor) Remove(context.Context, string) (int, error) { return 0, nil }

func (m *mockIngestor) Status() domain.IngestStatus { return m.status }

func (m *mockIngestor) EntryCount(context.Context) (int, error) { return m.entries, m.countErr }

// mockSessions is a mock implementation of driving.SessionManager.
type mockSessions struct {
	turns map[string][]domain.ConversationTurn
}

func (m *mockSessions) Append(string, domain.ConversationTurn) error { return nil }

func (m *mockSessions) AppendExchange(string, string, string) error { return nil }

func (m *mockSessions) Snapshot(id string) []domain.ConversationTurn {
	return append([]domain.ConversationTurn{}, m.turns[id]...)
}

func (m *mockSessions) Len(id string) int { return len(m.turns[id]) }

func (m *mockSessions) Sessions() int { return len(m.turns) }

var startedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
