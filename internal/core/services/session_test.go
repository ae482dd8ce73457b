package services

import (
	"fmt"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func userTurn(text string) domain.ConversationTurn {
	return domain.ConversationTurn{Role: domain.RoleUser, Text: text}
}

func TestSessionManager_Eviction(t *testing.T) {
	for capacity := 1; capacity <= 7; capacity++ {
		t.Run(fmt.Sprintf("N=%d", capacity), func(t *testing.T) {
			m := NewSessionManager(capacity, nil)
			const appended = 10
			for i := 0; i < appended; i++ {
				require.NoError(t, m.Append("s", userTurn(fmt.Sprint(i))))
				assert.LessOrEqual(t, m.Len("s"), capacity)
			}

			snap := m.Snapshot("s")
			require.Len(t, snap, capacity)
			for i, turn := range snap {
				assert.Equal(t, fmt.Sprint(appended-capacity+i), turn.Text)
			}
		})
	}
}

func TestSessionManager_ExchangeEvictsOldestPair(t *testing.T) {
	m := NewSessionManager(6, nil)
	for i := 1; i <= 4; i++ {
		require.NoError(t, m.AppendExchange("s", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i)))
	}

	snap := m.Snapshot("s")
	require.Len(t, snap, 6)
	assert.Equal(t, "q2", snap[0].Text)
	assert.Equal(t, domain.RoleUser, snap[0].Role)
	assert.Equal(t, "a4", snap[5].Text)
	assert.Equal(t, domain.RoleAssistant, snap[5].Role)
}

func TestSessionManager_Isolation(t *testing.T) {
	metrics := newFakeMetrics()
	m := NewSessionManager(4, metrics)

	require.NoError(t, m.Append("alice", userTurn("hi")))
	require.NoError(t, m.Append("", userTurn("default one")))
	require.NoError(t, m.Append(domain.DefaultSessionID, userTurn("default two")))

	assert.Equal(t, 1, m.Len("alice"))
	assert.Equal(t, 2, m.Len(""))
	assert.Equal(t, 0, m.Len("bob"))
	assert.Empty(t, m.Snapshot("bob"))
	assert.Equal(t, 2, m.Sessions())
	assert.Equal(t, 2, metrics.sessions)
}

func TestSessionManager_SnapshotIsCopy(t *testing.T) {
	m := NewSessionManager(2, nil)
	require.NoError(t, m.Append("s", userTurn("original")))

	snap := m.Snapshot("s")
	snap[0].Text = "mutated"

	assert.Equal(t, "original", m.Snapshot("s")[0].Text)
}

func TestSessionManager_RejectsUnknownRole(t *testing.T) {
	m := NewSessionManager(2, nil)
	err := m.Append("s", domain.ConversationTurn{Role: "system", Text: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, m.Len("s"))
}

func TestSessionManager_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultSessionWindow, NewSessionManager(0, nil).Capacity())
}

func TestSessionManager_ConcurrentExchangesStayPaired(t *testing.T) {
	m := NewSessionManager(6, nil)

	var wg stdsync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = m.AppendExchange("shared", fmt.Sprintf("q%d-%d", w, i), fmt.Sprintf("a%d-%d", w, i))
				_ = m.Snapshot("shared")
			}
		}(w)
	}
	wg.Wait()

	snap := m.Snapshot("shared")
	require.Len(t, snap, 6)
	for i := 0; i < len(snap); i += 2 {
		assert.Equal(t, domain.RoleUser, snap[i].Role)
		assert.Equal(t, domain.RoleAssistant, snap[i+1].Role)
		assert.Equal(t, "a"+snap[i].Text[1:], snap[i+1].Text)
	}
}
