package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionManager = (*SessionManager)(nil)

// DefaultSessionWindow is the number of turns kept per session.
const DefaultSessionWindow = 6

// SessionManager keeps a bounded window of conversation turns per session.
// Sessions are created on first use and live for the process lifetime.
type SessionManager struct {
	capacity int
	metrics  driven.Metrics

	mu       sync.RWMutex
	sessions map[string]*ring
}

// NewSessionManager creates a manager holding at most capacity turns per
// session. Non-positive capacities use DefaultSessionWindow.
func NewSessionManager(capacity int, metrics driven.Metrics) *SessionManager {
	if capacity <= 0 {
		capacity = DefaultSessionWindow
	}
	return &SessionManager{
		capacity: capacity,
		metrics:  metrics,
		sessions: make(map[string]*ring),
	}
}

// Capacity returns the per-session turn limit.
func (m *SessionManager) Capacity() int {
	return m.capacity
}

// Append adds a turn, evicting the oldest when the window is full.
func (m *SessionManager) Append(sessionID string, turn domain.ConversationTurn) error {
	if !turn.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, turn.Role)
	}
	r := m.session(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(turn)
	return nil
}

// AppendExchange appends a question and its answer with no turn from
// another writer in between.
func (m *SessionManager) AppendExchange(sessionID, question, answer string) error {
	r := m.session(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(domain.ConversationTurn{Role: domain.RoleUser, Text: question})
	r.push(domain.ConversationTurn{Role: domain.RoleAssistant, Text: answer})
	return nil
}

// Snapshot returns a copy of the session's turns, oldest first.
// Unknown sessions yield an empty slice and are not created.
func (m *SessionManager) Snapshot(sessionID string) []domain.ConversationTurn {
	r, ok := m.lookup(sessionID)
	if !ok {
		return []domain.ConversationTurn{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Len returns the number of turns held for the session.
func (m *SessionManager) Len(sessionID string) int {
	r, ok := m.lookup(sessionID)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Sessions returns the number of known sessions.
func (m *SessionManager) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *SessionManager) lookup(sessionID string) (*ring, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.sessions[normaliseSessionID(sessionID)]
	return r, ok
}

// session returns the ring for sessionID, creating it if needed.
func (m *SessionManager) session(sessionID string) *ring {
	if r, ok := m.lookup(sessionID); ok {
		return r
	}

	id := normaliseSessionID(sessionID)
	m.mu.Lock()
	r, ok := m.sessions[id]
	if !ok {
		r = &ring{turns: make([]domain.ConversationTurn, m.capacity)}
		m.sessions[id] = r
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok && m.metrics != nil {
		m.metrics.Sessions(n)
	}
	return r
}

func normaliseSessionID(id string) string {
	if id == "" {
		return domain.DefaultSessionID
	}
	return id
}

// ring is a fixed-capacity FIFO of turns.
type ring struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
	head  int // index of the oldest turn
	size  int
}

func (r *ring) push(t domain.ConversationTurn) {
	capacity := len(r.turns)
	if r.size < capacity {
		r.turns[(r.head+r.size)%capacity] = t
		r.size++
		return
	}
	r.turns[r.head] = t
	r.head = (r.head + 1) % capacity
}

func (r *ring) snapshot() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.turns[(r.head+i)%len(r.turns)]
	}
	return out
}
