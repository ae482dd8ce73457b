package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SessionManager holds bounded conversation history per session.
type SessionManager interface {
	// Append adds a turn, evicting the oldest when the window is full.
	Append(sessionID string, turn domain.ConversationTurn) error

	// AppendExchange atomically appends a user question and assistant answer.
	AppendExchange(sessionID, question, answer string) error

	// Snapshot returns a copy of the session's turns, oldest first.
	Snapshot(sessionID string) []domain.ConversationTurn

	// Len returns the number of turns held for the session.
	Len(sessionID string) int

	// Sessions returns the number of known sessions.
	Sessions() int
}
