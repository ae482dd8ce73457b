package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultRetrievalK is the number of passages retrieved per question.
const DefaultRetrievalK = 5

// Query outcomes reported to metrics.
const (
	outcomeAnswered  = "answered"
	outcomeNoContext = "no_context"
	outcomeError     = "error"
)

// QueryService answers questions from retrieved passages and session history.
type QueryService struct {
	embedder *BatchEmbedder
	index    driven.VectorIndex
	llm      driven.LLMService
	sessions driving.SessionManager
	prompts  driven.PromptStore
	metrics  driven.Metrics
	k        int
}

// NewQueryService creates a query service retrieving k passages per question.
// The metrics collaborator is optional.
func NewQueryService(
	embedder *BatchEmbedder,
	index driven.VectorIndex,
	llm driven.LLMService,
	sessions driving.SessionManager,
	prompts driven.PromptStore,
	metrics driven.Metrics,
	k int,
) *QueryService {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &QueryService{
		embedder: embedder,
		index:    index,
		llm:      llm,
		sessions: sessions,
		prompts:  prompts,
		metrics:  metrics,
		k:        k,
	}
}

// Answer retrieves passages for question and generates a reply.
// The session records the exchange only when generation succeeds.
func (s *QueryService) Answer(ctx context.Context, sessionID, question string) (answer *domain.Answer, err error) {
	began := time.Now()
	defer func() {
		outcome := outcomeAnswered
		switch {
		case err != nil:
			outcome = outcomeError
		case answer.NoContext:
			outcome = outcomeNoContext
		}
		if s.metrics != nil {
			s.metrics.Query(time.Since(began), outcome)
		}
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	hits, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		logger.Debug("No context retrieved for question in session %q", sessionID)
		return &domain.Answer{Text: domain.NoContextMessage, Sources: []string{}, NoContext: true}, nil
	}

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	messages, err := s.buildMessages(sessionID, question, hits)
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.GenerationError{Err: err}
	}
	reply = strings.TrimSpace(reply)

	if err := s.sessions.AppendExchange(sessionID, question, reply); err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}

	return &domain.Answer{Text: reply, Sources: distinctSources(hits)}, nil
}

func (s *QueryService) retrieve(ctx context.Context, question string) ([]domain.RetrievedEntry, error) {
	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var embedErr *domain.EmbedError
		if errors.As(err, &embedErr) || errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, &domain.EmbedError{Attempts: 1, Err: err}
	}

	hits, err := s.index.Retrieve(ctx, vectors[0], s.k)
	if err != nil {
		return nil, &domain.IndexError{Op: "retrieve", Err: err}
	}
	return hits, nil
}

// buildMessages assembles the system prompt, session history, and the
// question with its retrieved passages.
func (s *QueryService) buildMessages(sessionID, question string, hits []domain.RetrievedEntry) ([]driven.ChatMessage, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, fmt.Errorf("load prompt %s: %w", driven.PromptAnswerSystem, err)
	}
	template, err := s.prompts.Load(driven.PromptAnswerQuestion)
	if err != nil {
		return nil, fmt.Errorf("load prompt %s: %w", driven.PromptAnswerQuestion, err)
	}

	history := s.sessions.Snapshot(sessionID)
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: driven.ChatRoleSystem, Content: system})
	for _, turn := range history {
		role := driven.ChatRoleUser
		if turn.Role == domain.RoleAssistant {
			role = driven.ChatRoleAssistant
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    driven.ChatRoleUser,
		Content: fmt.Sprintf(template, formatPassages(hits), question),
	})
	return messages, nil
}

func formatPassages(hits []domain.RetrievedEntry) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s]\n%s", h.Source.Path, h.Text)
	}
	return b.String()
}

// distinctSources returns source paths in first-retrieved order.
func distinctSources(hits []domain.RetrievedEntry) []string {
	seen := make(map[string]bool, len(hits))
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.Source.Path] {
			continue
		}
		seen[h.Source.Path] = true
		sources = append(sources, h.Source.Path)
	}
	return sources
}
