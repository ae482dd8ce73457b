package domain

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DefaultSessionID is used when a request carries no session identity.
const DefaultSessionID = "default"

// ConversationTurn is one message in a session's history.
type ConversationTurn struct {
	Role Role
	Text string
}

// Answer is the result of a query.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists distinct source paths in first-retrieved order.
	Sources []string

	// NoContext is true when retrieval found nothing to answer from.
	NoContext bool
}

// NoContextMessage is the answer text returned when retrieval is empty.
const NoContextMessage = "No relevant context found in the indexed documents."
