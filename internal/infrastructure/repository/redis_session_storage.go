package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopify-session-layer/internal/domain"
	"shopify-session-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisSessionPrefix   = "shopify_session:"
	redisShopIndexPrefix = "shopify_sessions:shop:"

	// maxTxRetries bounds how often a WATCH transaction is replayed after a conflicting write
	maxTxRetries = 5
)

// RedisSessionStorage implements SessionStorage using Redis.
// Each session is a JSON string; a per-shop set indexes session IDs.
type RedisSessionStorage struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisSessionStorage creates a Redis-backed session storage
func NewRedisSessionStorage(client *redis.Client, logger zerolog.Logger) ports.SessionStorage {
	return &RedisSessionStorage{client: client, logger: logger}
}

func sessionKey(id string) string {
	return redisSessionPrefix + id
}

func shopIndexKey(shop string) string {
	return redisShopIndexPrefix + shop
}

// StoreSession writes the session and moves it to its shop's index in one transaction
func (r *RedisSessionStorage) StoreSession(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionKey(session.ID)
	err = r.watch(ctx, func(tx *redis.Tx) error {
		previous, err := getSession(ctx, tx, key)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if previous != nil && previous.Shop != session.Shop {
				pipe.SRem(ctx, shopIndexKey(previous.Shop), session.ID)
			}
			pipe.SAdd(ctx, shopIndexKey(session.Shop), session.ID)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// LoadSession retrieves a session by ID
func (r *RedisSessionStorage) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := getSession(ctx, r.client, sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// DeleteSession deletes a session and its index entry
func (r *RedisSessionStorage) DeleteSession(ctx context.Context, id string) error {
	if err := r.deleteSessions(ctx, []string{id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessions deletes every listed session in one transaction
func (r *RedisSessionStorage) DeleteSessions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.deleteSessions(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *RedisSessionStorage) deleteSessions(ctx context.Context, ids []string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}

	return r.watch(ctx, func(tx *redis.Tx) error {
		values, err := tx.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			for i, value := range values {
				session, err := decodeSession(value)
				if err != nil || session == nil {
					continue
				}
				pipe.SRem(ctx, shopIndexKey(session.Shop), ids[i])
			}
			return nil
		})
		return err
	}, keys...)
}

// watch runs fn in a WATCH transaction and replays it when a watched key changed before EXEC
func (r *RedisSessionStorage) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.logger.Debug().Strs("keys", keys).Int("attempt", i+1).Msg("Session transaction conflicted, retrying")
	}
	return redis.TxFailedErr
}

// FindSessionsByShop retrieves all sessions of a shop.
// Index entries whose session no longer exists or cannot be decoded are skipped.
func (r *RedisSessionStorage) FindSessionsByShop(ctx context.Context, shop string) ([]*domain.Session, error) {
	ids, err := r.client.SMembers(ctx, shopIndexKey(shop)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}

	sessions := []*domain.Session{}
	if len(ids) == 0 {
		return sessions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}

	for i, value := range values {
		session, err := decodeSession(value)
		if err != nil {
			r.logger.Warn().Err(err).Str("id", ids[i]).Str("shop", shop).Msg("Skipping undecodable session")
			continue
		}
		if session == nil || session.Shop != shop {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getSession(ctx context.Context, client stringGetter, key string) (*domain.Session, error) {
	val, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// decodeSession decodes one MGET reply; missing keys come back as nil.
func decodeSession(value any) (*domain.Session, error) {
	raw, ok := value.(string)
	if !ok {
		return nil, nil
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	return &session, nil
}
