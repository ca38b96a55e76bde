package repository

import (
	"context"
	"sync"
	"testing"

	"shopify-session-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores_copies", func(t *testing.T) {
		repo := NewMemorySessionStorage()
		session := &domain.Session{ID: "off_1", Shop: "a.myshopify.com", Scope: "read_products"}
		require.NoError(t, repo.StoreSession(ctx, session))

		session.Scope = "mutated"
		loaded, err := repo.LoadSession(ctx, "off_1")
		require.NoError(t, err)
		assert.Equal(t, "read_products", loaded.Scope)

		loaded.Scope = "mutated again"
		again, err := repo.LoadSession(ctx, "off_1")
		require.NoError(t, err)
		assert.Equal(t, "read_products", again.Scope)
	})

	t.Run("missing_returns_nil", func(t *testing.T) {
		repo := NewMemorySessionStorage()

		session, err := repo.LoadSession(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, session)
		assert.NoError(t, repo.DeleteSession(ctx, "missing"))
	})

	t.Run("rejects_invalid_session", func(t *testing.T) {
		repo := NewMemorySessionStorage()
		assert.ErrorIs(t, repo.StoreSession(ctx, nil), domain.ErrInvalidSession)
	})

	t.Run("delete_sessions_and_find_by_shop", func(t *testing.T) {
		repo := NewMemorySessionStorage()
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "onl_1", Shop: "a.myshopify.com", IsOnline: true}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_b", Shop: "b.myshopify.com"}))

		sessions, err := repo.FindSessionsByShop(ctx, "a.myshopify.com")
		require.NoError(t, err)
		assert.Len(t, sessions, 2)

		require.NoError(t, repo.DeleteSessions(ctx, []string{"off_1", "onl_1"}))
		sessions, err = repo.FindSessionsByShop(ctx, "a.myshopify.com")
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)

		other, err := repo.FindSessionsByShop(ctx, "b.myshopify.com")
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})

	t.Run("cancelled_context", func(t *testing.T) {
		repo := NewMemorySessionStorage()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := repo.StoreSession(cctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent_access", func(t *testing.T) {
		repo := NewMemorySessionStorage()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"})
				_, _ = repo.FindSessionsByShop(ctx, "a.myshopify.com")
			}()
		}
		wg.Wait()

		loaded, err := repo.LoadSession(ctx, "off_1")
		require.NoError(t, err)
		assert.NotNil(t, loaded)
	})
}
