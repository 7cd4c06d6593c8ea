package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

// BadgerSessionRepository keeps session state in an embedded Badger database.
// Entries carry a TTL so abandoned sessions expire like their Redis counterparts.
type BadgerSessionRepository struct {
	db     *badger.DB
	prefix string
	ttl    time.Duration
}

func NewBadgerSessionRepository(db *badger.DB, prefix string, ttl time.Duration) *BadgerSessionRepository {
	return &BadgerSessionRepository{db: db, prefix: prefix, ttl: ttl}
}

func (r *BadgerSessionRepository) sessionKey(userID, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:session:%s:%s", r.prefix, userID, sessionID))
}

func (r *BadgerSessionRepository) Get(ctx context.Context, userID, sessionID string) (*model.ConversationState, error) {
	key := r.sessionKey(userID, sessionID)
	var state *model.ConversationState
	var corrupt error

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var s model.ConversationState
			if err := json.Unmarshal(val, &s); err != nil {
				corrupt = err
				return nil
			}
			state = &s
			return nil
		})
	})
	if err != nil {
		logx.Error().Err(err).Bytes("key", key).Msg("failed to load session state from badger")
		return nil, errx.WrapBadger(err)
	}
	if corrupt != nil {
		// an unreadable session restarts the flow instead of blocking it until expiry
		logx.Ctx(ctx).Warn().Err(corrupt).Bytes("key", key).Msg("discarding corrupt session state")
		if err := r.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
			logx.Ctx(ctx).Warn().Err(err).Bytes("key", key).Msg("failed to delete corrupt session state")
		}
		return nil, nil
	}
	return state, nil
}

func (r *BadgerSessionRepository) Put(ctx context.Context, userID, sessionID string, state *model.ConversationState) error {
	if state == nil {
		return fmt.Errorf("nil session state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := r.sessionKey(userID, sessionID)

	err = r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, b)
		if r.ttl > 0 {
			e = e.WithTTL(r.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		logx.Error().Err(err).Bytes("key", key).Msg("failed to store session state in badger")
		return errx.WrapBadger(err)
	}
	return nil
}

func (r *BadgerSessionRepository) Clear(ctx context.Context, userID, sessionID string) error {
	key := r.sessionKey(userID, sessionID)
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		logx.Error().Err(err).Bytes("key", key).Msg("failed to delete session state from badger")
		return errx.WrapBadger(err)
	}
	return nil
}

func (r *BadgerSessionRepository) Ping(ctx context.Context) error {
	if r.db.IsClosed() {
		return errx.WrapBadger(badger.ErrDBClosed)
	}
	return nil
}

var _ model.SessionRepository = (*BadgerSessionRepository)(nil)
