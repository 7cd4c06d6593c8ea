package conversations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movie-night-core/server/internal/agent/model"
	"github.com/movie-night-core/server/internal/agent/repo"
)

type memRepo struct {
	states  map[string]*model.ConversationState
	getErr  error
	putErr  error
	puts    int
	clears  int
	pingErr error
}

func newMemRepo() *memRepo {
	return &memRepo{states: map[string]*model.ConversationState{}}
}

func (r *memRepo) Get(ctx context.Context, userID, sessionID string) (*model.ConversationState, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.states[model.ConversationKey(userID, sessionID)].Clone(), nil
}

func (r *memRepo) Put(ctx context.Context, userID, sessionID string, state *model.ConversationState) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	r.states[model.ConversationKey(userID, sessionID)] = state.Clone()
	return nil
}

func (r *memRepo) Clear(ctx context.Context, userID, sessionID string) error {
	r.clears++
	delete(r.states, model.ConversationKey(userID, sessionID))
	return nil
}

func (r *memRepo) Ping(ctx context.Context) error { return r.pingErr }

type stubRunner struct {
	turn  func(in model.TurnInput) *model.Turn
	err   error
	input model.TurnInput
}

func (s *stubRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.Turn, error) {
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	return s.turn(in), nil
}

func TestHandleTurnPersistsNextState(t *testing.T) {
	repo := newMemRepo()
	runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
		return &model.Turn{
			UserID: in.UserID, SessionID: in.SessionID, Current: in.State,
			Next:     &model.ConversationState{Step: model.StepSelectFriends},
			Response: model.ChoiceResponse("Who?", []string{"alice"}, ""),
			Outcome:  model.OutcomePrompted,
		}
	}}
	m := NewTurnManager(repo, runner)

	resp, err := m.HandleTurn(context.Background(), "u1", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, model.ResponseMultipleChoice, resp.ResponseType)
	assert.Nil(t, runner.input.State)
	assert.Equal(t, model.StepSelectFriends, repo.states["u1:s1"].Step)
}

func TestHandleTurnLeavesStateWhenNoTransition(t *testing.T) {
	repo := newMemRepo()
	repo.states["u1:s1"] = &model.ConversationState{Step: model.StepSelectFriends}
	runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
		return &model.Turn{
			UserID: in.UserID, SessionID: in.SessionID, Current: in.State,
			Response: model.TextResponse("nope"),
			Outcome:  model.OutcomeRejected,
		}
	}}
	m := NewTurnManager(repo, runner)

	_, err := m.HandleTurn(context.Background(), "u1", "s1", "a,b,c,d,e,f")
	require.NoError(t, err)
	assert.Zero(t, repo.puts)
	assert.Zero(t, repo.clears)
	require.NotNil(t, runner.input.State)
	assert.Equal(t, model.StepSelectFriends, runner.input.State.Step)
}

func TestHandleTurnClearsOnFailedReset(t *testing.T) {
	repo := newMemRepo()
	repo.states["u1:s1"] = &model.ConversationState{Step: model.StepSelectMood, Genre: "Comedy"}
	runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
		return &model.Turn{
			UserID: in.UserID, SessionID: in.SessionID, Current: in.State, Reset: true, Clear: true,
			Response: model.TextResponse("down"),
			Outcome:  model.OutcomeDependencyError,
		}
	}}
	m := NewTurnManager(repo, runner)

	_, err := m.HandleTurn(context.Background(), "u1", "s1", "reset")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.clears)
	assert.NotContains(t, repo.states, "u1:s1")
}

func TestHandleTurnStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")

	t.Run("get", func(t *testing.T) {
		repo := newMemRepo()
		repo.getErr = storeErr
		runner := &stubRunner{}
		_, err := NewTurnManager(repo, runner).HandleTurn(context.Background(), "u1", "s1", "")
		require.ErrorIs(t, err, storeErr)
	})

	t.Run("put", func(t *testing.T) {
		repo := newMemRepo()
		repo.putErr = storeErr
		runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
			return &model.Turn{
				UserID: in.UserID, SessionID: in.SessionID,
				Next:     &model.ConversationState{Step: model.StepSelectFriends},
				Response: model.TextResponse("hi"),
			}
		}}
		_, err := NewTurnManager(repo, runner).HandleTurn(context.Background(), "u1", "s1", "")
		require.ErrorIs(t, err, storeErr)
	})
}

func TestHandleTurnDoesNotPersistCancelledTurn(t *testing.T) {
	repo := newMemRepo()
	ctx, cancel := context.WithCancel(context.Background())
	runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
		cancel()
		return &model.Turn{
			UserID: in.UserID, SessionID: in.SessionID,
			Next:     &model.ConversationState{Step: model.StepSelectFriends},
			Response: model.TextResponse("hi"),
		}
	}}

	_, err := NewTurnManager(repo, runner).HandleTurn(ctx, "u1", "s1", "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.puts)
}

func TestReady(t *testing.T) {
	repo := newMemRepo()
	m := NewTurnManager(repo, &stubRunner{})
	assert.NoError(t, m.Ready(context.Background()))

	repo.pingErr = errors.New("down")
	assert.Error(t, m.Ready(context.Background()))
}

func TestHandleTurnRecoversFromCorruptSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, mr.Set("movienight:session:u1:s1", "{not json"))

	runner := &stubRunner{turn: func(in model.TurnInput) *model.Turn {
		return &model.Turn{
			UserID: in.UserID, SessionID: in.SessionID, Current: in.State, Reset: true, Clear: true,
			Next:     &model.ConversationState{Step: model.StepSelectFriends},
			Response: model.ChoiceResponse("Who?", []string{"alice"}, ""),
			Outcome:  model.OutcomePrompted,
		}
	}}
	m := NewTurnManager(repo.NewRedisSessionRepository(rdb, "movienight", time.Minute), runner)

	resp, err := m.HandleTurn(context.Background(), "u1", "s1", "reset")
	require.NoError(t, err)
	assert.Equal(t, model.ResponseMultipleChoice, resp.ResponseType)
	assert.Nil(t, runner.input.State)

	stored, err := mr.Get("movienight:session:u1:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":"select_friends","friends":null,"movies":null,"movie_names":null,"genres":null}`, stored)
}
