package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

type RedisSessionRepository struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("%s:session:%s:%s", r.prefix, userID, sessionID)
}

func (r *RedisSessionRepository) Get(ctx context.Context, userID, sessionID string) (*model.ConversationState, error) {
	key := r.sessionKey(userID, sessionID)

	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		// an unreadable session restarts the flow instead of blocking it until expiry
		logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding corrupt session state")
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			logx.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete corrupt session state")
		}
		return nil, nil
	}
	return &state, nil
}

func (r *RedisSessionRepository) Put(ctx context.Context, userID, sessionID string, state *model.ConversationState) error {
	if state == nil {
		return fmt.Errorf("nil session state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := r.sessionKey(userID, sessionID)

	// SET with expiry refreshes the TTL on every touch
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store session state in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Clear(ctx context.Context, userID, sessionID string) error {
	key := r.sessionKey(userID, sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return errx.WrapRedis(r.rdb.Ping(ctx).Err())
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
