package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	"github.com/movie-night-core/server/internal/metrics"
	logx "github.com/movie-night-core/server/pkg/logger"
)

// TurnRunner runs one turn of the state machine.
type TurnRunner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.Turn, error)
}

// TurnManager loads the session state, runs the turn and persists the result.
type TurnManager struct {
	sessions model.SessionRepository
	runner   TurnRunner
}

func NewTurnManager(sessions model.SessionRepository, runner TurnRunner) *TurnManager {
	return &TurnManager{
		sessions: sessions,
		runner:   runner,
	}
}

// HandleTurn advances the (user, session) conversation by one step. State is
// written only once the turn produced a response and the request is still live.
// Session store failures are returned wrapped; the caller decides how to surface them.
func (m *TurnManager) HandleTurn(ctx context.Context, userID, sessionID, message string) (*model.TurnResponse, error) {
	started := time.Now()
	key := model.ConversationKey(userID, sessionID)

	state, err := m.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		metrics.RecordStoreError("get")
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}

	turn, err := m.runner.Invoke(ctx, model.TurnInput{
		UserID:    userID,
		SessionID: sessionID,
		Message:   message,
		State:     state,
	})
	if err != nil {
		return nil, fmt.Errorf("run turn %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run turn %s: %w", key, err)
	}

	if err := m.persist(ctx, turn); err != nil {
		return nil, fmt.Errorf("save session %s: %w", key, err)
	}

	metrics.RecordTurn(turn.Step().String(), string(turn.Outcome), time.Since(started))

	ev := logx.Ctx(ctx).Info().
		Str("conversation_key", key).
		Str("step", turn.Step().String()).
		Str("outcome", string(turn.Outcome)).
		Int("dependency_calls", turn.DependencyCalls).
		Dur("elapsed", time.Since(started))
	if turn.Next != nil {
		ev = ev.Str("next_step", turn.Next.Step.String())
	}
	if turn.Err != nil {
		ev = ev.Str("error_kind", string(errx.KindOf(turn.Err))).AnErr("soft_error", turn.Err)
	}
	ev.Msg("Turn processed")

	return turn.Response, nil
}

func (m *TurnManager) persist(ctx context.Context, turn *model.Turn) error {
	switch {
	case turn.Next != nil:
		if err := m.sessions.Put(ctx, turn.UserID, turn.SessionID, turn.Next); err != nil {
			metrics.RecordStoreError("put")
			return err
		}
	case turn.Clear:
		if err := m.sessions.Clear(ctx, turn.UserID, turn.SessionID); err != nil {
			metrics.RecordStoreError("clear")
			return err
		}
	}
	return nil
}

// Ready reports whether the session store is reachable.
func (m *TurnManager) Ready(ctx context.Context) error {
	return m.sessions.Ping(ctx)
}
