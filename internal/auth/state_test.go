package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securecicd/backend/internal/auth"
)

func TestStateStore(t *testing.T) {
	store := auth.NewStateStore()

	t.Run("consume returns stored state exactly once", func(t *testing.T) {
		userID := uuid.New()
		token, err := store.Create(auth.StatePurposeConnect, userID, "/settings")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		st, ok := store.Consume(token)
		require.True(t, ok)
		assert.Equal(t, auth.StatePurposeConnect, st.Purpose)
		assert.Equal(t, userID, st.UserID)
		assert.Equal(t, "/settings", st.Redirect)

		_, ok = store.Consume(token)
		assert.False(t, ok, "state must not be replayable")
	})

	t.Run("unknown token", func(t *testing.T) {
		_, ok := store.Consume("deadbeef")
		assert.False(t, ok)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := store.Create(auth.StatePurposeLogin, uuid.Nil, "")
		require.NoError(t, err)
		b, err := store.Create(auth.StatePurposeLogin, uuid.Nil, "")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
