package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"shopify-session-layer/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStorage(t *testing.T) (*RedisSessionStorage, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStorage(client, zerolog.Nop()).(*RedisSessionStorage), srv
}

// interleavedWrite sets key from a second connection the first time the
// storage client runs command, after the key has been WATCHed.
type interleavedWrite struct {
	once    sync.Once
	other   *redis.Client
	command string
	key     string
	value   string
}

func (h *interleavedWrite) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *interleavedWrite) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if cmd.Name() == h.command {
			h.once.Do(func() {
				h.other.Set(ctx, h.key, h.value, 0)
			})
		}
		return err
	}
}

func (h *interleavedWrite) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newInterleavedRedisStorage(t *testing.T, hook *interleavedWrite) (*RedisSessionStorage, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	other := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		client.Close()
		other.Close()
	})
	hook.other = other
	client.AddHook(hook)
	return NewRedisSessionStorage(client, zerolog.Nop()).(*RedisSessionStorage), srv
}

func TestRedisSessionStorage_StoreAndLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("round_trip", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		expiresAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		session := &domain.Session{
			ID:          "onl_1",
			Shop:        "a.myshopify.com",
			IsOnline:    true,
			Scope:       "read_products",
			ExpiresAt:   &expiresAt,
			AccessToken: "tok_xyz",
		}

		require.NoError(t, repo.StoreSession(ctx, session))

		loaded, err := repo.LoadSession(ctx, "onl_1")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.NotNil(t, loaded.ExpiresAt)
		assert.True(t, expiresAt.Equal(*loaded.ExpiresAt))
		loaded.ExpiresAt = session.ExpiresAt
		assert.Equal(t, session, loaded)

		assert.True(t, srv.Exists("shopify_session:onl_1"))
		members, err := srv.SMembers("shopify_sessions:shop:a.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"onl_1"}, members)
	})

	t.Run("store_overwrites_existing", func(t *testing.T) {
		repo, _ := newRedisStorage(t)

		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com", Scope: "read_products", AccessToken: "tok_abc"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com", Scope: "read_products,write_products"}))

		loaded, err := repo.LoadSession(ctx, "off_1")
		require.NoError(t, err)
		assert.Equal(t, "read_products,write_products", loaded.Scope)
		assert.Empty(t, loaded.AccessToken)
	})

	t.Run("shop_change_moves_index_entry", func(t *testing.T) {
		repo, srv := newRedisStorage(t)

		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "b.myshopify.com"}))

		assert.False(t, srv.Exists("shopify_sessions:shop:a.myshopify.com"))
		sessions, err := repo.FindSessionsByShop(ctx, "b.myshopify.com")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "off_1", sessions[0].ID)
	})

	t.Run("invalid_session_rejected", func(t *testing.T) {
		repo, srv := newRedisStorage(t)

		err := repo.StoreSession(ctx, &domain.Session{ID: "off_1"})
		assert.ErrorIs(t, err, domain.ErrMissingShop)
		assert.Empty(t, srv.Keys())
	})

	t.Run("load_missing_returns_nil", func(t *testing.T) {
		repo, _ := newRedisStorage(t)

		session, err := repo.LoadSession(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("load_corrupt_value_fails", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		require.NoError(t, srv.Set("shopify_session:bad", "{not json"))

		session, err := repo.LoadSession(ctx, "bad")
		require.Error(t, err)
		assert.Nil(t, session)
	})

	t.Run("store_retries_after_concurrent_write", func(t *testing.T) {
		hook := &interleavedWrite{
			command: "get",
			key:     "shopify_session:off_1",
			value:   `{"id":"off_1","shop":"a.myshopify.com","is_online":false,"scope":"read_products"}`,
		}
		repo, _ := newInterleavedRedisStorage(t, hook)

		session := &domain.Session{ID: "off_1", Shop: "a.myshopify.com", Scope: "read_products,write_products", AccessToken: "tok_abc"}
		require.NoError(t, repo.StoreSession(ctx, session))

		loaded, err := repo.LoadSession(ctx, "off_1")
		require.NoError(t, err)
		assert.Equal(t, session, loaded)
	})

	t.Run("server_down_fails", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		srv.Close()

		err := repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store session")
	})
}

func TestRedisSessionStorage_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete_session_removes_index_entry", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "onl_1", Shop: "a.myshopify.com", IsOnline: true}))

		require.NoError(t, repo.DeleteSession(ctx, "off_1"))

		assert.False(t, srv.Exists("shopify_session:off_1"))
		members, err := srv.SMembers("shopify_sessions:shop:a.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"onl_1"}, members)
	})

	t.Run("delete_missing_succeeds", func(t *testing.T) {
		repo, _ := newRedisStorage(t)
		assert.NoError(t, repo.DeleteSession(ctx, "missing"))
	})

	t.Run("delete_sessions_batch", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "onl_1", Shop: "a.myshopify.com", IsOnline: true}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_b", Shop: "b.myshopify.com"}))

		require.NoError(t, repo.DeleteSessions(ctx, []string{"off_1", "onl_1", "missing"}))

		for _, id := range []string{"off_1", "onl_1"} {
			session, err := repo.LoadSession(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, session)
		}
		assert.False(t, srv.Exists("shopify_sessions:shop:a.myshopify.com"))

		other, err := repo.LoadSession(ctx, "off_b")
		require.NoError(t, err)
		assert.NotNil(t, other)
	})

	t.Run("delete_sessions_retries_after_concurrent_write", func(t *testing.T) {
		hook := &interleavedWrite{
			command: "mget",
			key:     "shopify_session:off_1",
			value:   `{"id":"off_1","shop":"a.myshopify.com","is_online":false,"scope":"read_products,write_products"}`,
		}
		repo, srv := newInterleavedRedisStorage(t, hook)
		require.NoError(t, srv.Set("shopify_session:off_1", `{"id":"off_1","shop":"a.myshopify.com","is_online":false}`))
		require.NoError(t, srv.Set("shopify_session:onl_1", `{"id":"onl_1","shop":"a.myshopify.com","is_online":true}`))
		_, err := srv.SAdd("shopify_sessions:shop:a.myshopify.com", "off_1", "onl_1")
		require.NoError(t, err)

		require.NoError(t, repo.DeleteSessions(ctx, []string{"off_1", "onl_1"}))

		assert.False(t, srv.Exists("shopify_session:off_1"))
		assert.False(t, srv.Exists("shopify_session:onl_1"))
		assert.False(t, srv.Exists("shopify_sessions:shop:a.myshopify.com"))
	})

	t.Run("delete_sessions_empty", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		srv.Close()

		assert.NoError(t, repo.DeleteSessions(ctx, []string{}))
	})
}

func TestRedisSessionStorage_FindSessionsByShop(t *testing.T) {
	ctx := context.Background()

	t.Run("returns_only_matching_shop", func(t *testing.T) {
		repo, _ := newRedisStorage(t)
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "onl_1", Shop: "a.myshopify.com", IsOnline: true}))
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_b", Shop: "b.myshopify.com"}))

		sessions, err := repo.FindSessionsByShop(ctx, "a.myshopify.com")
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.ElementsMatch(t, []string{"off_1", "onl_1"}, []string{sessions[0].ID, sessions[1].ID})
	})

	t.Run("skips_stale_index_entries", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		_, err := srv.SAdd("shopify_sessions:shop:a.myshopify.com", "gone")
		require.NoError(t, err)

		sessions, err := repo.FindSessionsByShop(ctx, "a.myshopify.com")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "off_1", sessions[0].ID)
	})

	t.Run("skips_undecodable_entries", func(t *testing.T) {
		repo, srv := newRedisStorage(t)
		require.NoError(t, repo.StoreSession(ctx, &domain.Session{ID: "off_1", Shop: "a.myshopify.com"}))
		require.NoError(t, srv.Set("shopify_session:bad", "{not json"))
		_, err := srv.SAdd("shopify_sessions:shop:a.myshopify.com", "bad")
		require.NoError(t, err)

		sessions, err := repo.FindSessionsByShop(ctx, "a.myshopify.com")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, "off_1", sessions[0].ID)

		require.NoError(t, repo.DeleteSessions(ctx, []string{sessions[0].ID}))
		assert.False(t, srv.Exists("shopify_session:off_1"))
	})

	t.Run("unknown_shop_returns_empty_slice", func(t *testing.T) {
		repo, _ := newRedisStorage(t)

		sessions, err := repo.FindSessionsByShop(ctx, "nobody.myshopify.com")
		require.NoError(t, err)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})
}
