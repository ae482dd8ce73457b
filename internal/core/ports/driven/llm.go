package driven

import "context"

// LLMService writes the answer from the assembled conversation.
// Adapters report provider throttling as *domain.RateLimitError.
type LLMService interface {
	// Chat sends the messages in order and returns the assistant reply.
	// An empty reply is an error.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName identifies the model in diagnostics.
	ModelName() string

	// Ping checks reachability and credentials without generating text.
	Ping(ctx context.Context) error

	Close() error
}

// Chat roles understood by every LLM adapter.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one message sent to the model.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single reply. Zero values use the provider default.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
