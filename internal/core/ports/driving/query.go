package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers questions from the indexed corpus.
type QueryService interface {
	// Answer responds to question within the given session.
	// An empty sessionID selects the default session.
	Answer(ctx context.Context, sessionID, question string) (*domain.Answer, error)
}
