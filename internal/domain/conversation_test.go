package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcore/internal/domain"
)

func TestNewConversationID(t *testing.T) {
	t.Run("Commutative", func(t *testing.T) {
		pairs := [][2]string{
			{"alice", "bob"},
			{"bob", "alice"},
			{"zoe", "adam"},
			{"u42", "u7"},
		}
		for _, p := range pairs {
			ab, err := domain.NewConversationID(p[0], p[1])
			require.NoError(t, err)
			ba, err := domain.NewConversationID(p[1], p[0])
			require.NoError(t, err)
			assert.Equal(t, ab, ba)
		}
	})

	t.Run("AlphabeticalJoin", func(t *testing.T) {
		id, err := domain.NewConversationID("b", "a")
		require.NoError(t, err)
		assert.Equal(t, "a-b", id.String())
	})

	t.Run("DistinctPairsDistinctIDs", func(t *testing.T) {
		ids := map[domain.ConversationID]bool{}
		users := []string{"alice", "bob", "carol", "dave"}
		for i, a := range users {
			for _, b := range users[i+1:] {
				id, err := domain.NewConversationID(a, b)
				require.NoError(t, err)
				assert.False(t, ids[id], "pair (%s,%s) collided", a, b)
				ids[id] = true
			}
		}
	})

	t.Run("EmptyParticipant", func(t *testing.T) {
		_, err := domain.NewConversationID("", "bob")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = domain.NewConversationID("alice", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestParseConversationID(t *testing.T) {
	id, err := domain.ParseConversationID("alice-bob")
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationID("alice-bob"), id)

	_, err = domain.ParseConversationID("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
