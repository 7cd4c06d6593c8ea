package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const (
	NodeLoadTurn      = "LoadTurn"
	NodeGreet         = "Greet"
	NodeSelectFriends = "SelectFriends"
	NodeFetchMovies   = "FetchMovies"
	NodeSelectGenre   = "SelectGenre"
	NodeSelectMood    = "SelectMood"
	NodeRecommend     = "Recommend"
	NodeFallback      = "Fallback"
)

// NewLoadTurnPreHandler seeds the per-invocation FlowState.
func NewLoadTurnPreHandler() func(context.Context, model.TurnInput, *model.FlowState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.FlowState) (model.TurnInput, error) {
		s.ConversationKey = model.ConversationKey(in.UserID, in.SessionID)
		s.DependencyCalls = 0
		return in, nil
	}
}

// NewLoadTurnNode normalises the inbound message and detects the reset command.
func NewLoadTurnNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (*model.Turn, error) {
		return &model.Turn{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Message:   strings.TrimSpace(in.Message),
			Reset:     isReset(in.Message),
			Current:   in.State,
		}, nil
	})
}

// NewStepCondition routes a turn to the node owning its current step.
// A reset or a missing state always restarts at the friend prompt.
func NewStepCondition() func(context.Context, *model.Turn) (string, error) {
	return func(ctx context.Context, t *model.Turn) (string, error) {
		next := routeStep(t)
		logx.Ctx(ctx).Debug().
			Str("conversation_key", model.ConversationKey(t.UserID, t.SessionID)).
			Str("step", t.Step().String()).
			Bool("reset", t.Reset).
			Str("next_node", next).
			Msg("Routing turn")
		return next, nil
	}
}

func routeStep(t *model.Turn) string {
	if t.Reset {
		return NodeGreet
	}
	switch t.Step() {
	case model.StepNone:
		return NodeGreet
	case model.StepSelectFriends:
		return NodeSelectFriends
	case model.StepSelectGenre:
		return NodeSelectGenre
	case model.StepSelectMood:
		return NodeSelectMood
	case model.StepFetchMovies, model.StepQueryRecommendation:
		return NodeFallback
	default:
		return NodeFallback
	}
}

// NewContinueCondition ends the turn when a node already replied, otherwise
// continues to next within the same turn.
func NewContinueCondition(next string) func(context.Context, *model.Turn) (string, error) {
	return func(ctx context.Context, t *model.Turn) (string, error) {
		if t.Done() {
			return compose.END, nil
		}
		return next, nil
	}
}

// NewGreetNode fetches the friend list and emits the friend prompt. It serves
// both the first turn of a session and an explicit reset.
func NewGreetNode(directory model.FriendDirectory, flow model.FlowConfig) *compose.Lambda {
	maxFriends := normalizeMaxFriends(flow.MaxFriends)
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		// a reset drops the old state even if the directory is down
		t.Clear = t.Reset

		friends, err := callDependency(ctx, func(ctx context.Context) ([]string, error) {
			return directory.Friends(ctx, t.UserID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Ctx(ctx).Warn().Err(err).Msg("Friend directory unavailable")
			return fail(t, errx.Dependency(err, MsgDatabaseUnavailable), model.OutcomeDependencyError), nil
		}
		if len(friends) == 0 {
			return fail(t, errx.EmptyResult(errors.New("friend directory is empty"), MsgNoFriendsInDirectory), model.OutcomeEmptyResult), nil
		}

		t.Next = &model.ConversationState{Step: model.StepSelectFriends}
		return respond(t,
			model.ChoiceResponse(fmt.Sprintf(MsgFriendsPrompt, maxFriends), friends, MsgFriendsPlaceholder),
			model.OutcomePrompted,
		), nil
	})
}

// NewSelectFriendsNode validates the comma-separated selection. A valid
// selection continues to FetchMovies without replying.
func NewSelectFriendsNode(directory model.FriendDirectory, flow model.FlowConfig) *compose.Lambda {
	maxFriends := normalizeMaxFriends(flow.MaxFriends)
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		selection := parseFriendSelection(t.Message)
		switch {
		case len(selection) == 0:
			return fail(t, errx.Validation(errors.New("no friends selected"), MsgNoFriendsSelected), model.OutcomeRejected), nil
		case len(selection) > maxFriends:
			logx.Ctx(ctx).Debug().Int("selected", len(selection)).Int("max_friends", maxFriends).Msg("Friend selection over limit")
			return fail(t,
				errx.Validation(fmt.Errorf("%d friends selected", len(selection)), fmt.Sprintf(MsgTooManyFriends, maxFriends)),
				model.OutcomeRejected,
			), nil
		}

		friends, err := callDependency(ctx, func(ctx context.Context) ([]string, error) {
			return directory.Friends(ctx, t.UserID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Ctx(ctx).Warn().Err(err).Msg("Friend directory unavailable")
			return fail(t, errx.Dependency(err, MsgDatabaseUnavailable), model.OutcomeDependencyError), nil
		}

		matched, unknown := matchFriends(selection, friends)
		if len(unknown) > 0 {
			text := fmt.Sprintf(MsgUnknownFriends, strings.Join(unknown, ", "), strings.Join(friends, ", "))
			t.Err = errx.Validation(fmt.Errorf("unknown friends %v", unknown), text)
			return respond(t, model.FillInResponse(text, MsgFriendsPlaceholder), model.OutcomeRejected), nil
		}

		t.Selection = matched
		return t, nil
	})
}

// NewFetchMoviesNode loads the movies saved by the selected friends and moves
// the conversation to genre selection. FETCH_MOVIES is never persisted.
func NewFetchMoviesNode(media model.SharedMedia, flow model.FlowConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		movies, err := callDependency(ctx, func(ctx context.Context) ([]model.Movie, error) {
			return media.SavedMovies(ctx, t.UserID, t.Selection)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Ctx(ctx).Warn().Err(err).Msg("Shared media service unavailable")
			return fail(t, errx.Dependency(err, MsgDatabaseUnavailable), model.OutcomeDependencyError), nil
		}
		if len(movies) == 0 {
			return fail(t, errx.EmptyResult(errors.New("no saved movies"), MsgNoSavedMovies), model.OutcomeEmptyResult), nil
		}

		next := t.Current.Clone()
		next.Step = model.StepSelectGenre
		next.Friends = append([]string(nil), t.Selection...)
		next.Movies = movies
		next.MovieNames = movieNames(movies)
		next.Genres = deriveGenres(movies)
		next.Genre = ""
		next.Mood = ""
		t.Next = next

		logx.Ctx(ctx).Debug().
			Int("friends", len(next.Friends)).
			Int("movies", len(movies)).
			Strs("genres", next.Genres).
			Msg("Saved movies fetched")

		return respond(t, model.ChoiceResponse(MsgGenrePrompt, flow.Genres, MsgGenrePlaceholder), model.OutcomeAdvanced), nil
	})
}

// NewSelectGenreNode stores the chosen genre and prompts for a mood.
func NewSelectGenreNode(flow model.FlowConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if t.Message == "" {
			return respond(t, model.ChoiceResponse(MsgGenrePrompt, flow.Genres, MsgGenrePlaceholder), model.OutcomeRejected), nil
		}

		next := t.Current.Clone()
		next.Step = model.StepSelectMood
		next.Genre = canonicalChoice(t.Message, flow.Genres)
		next.Mood = ""
		t.Next = next

		return respond(t,
			model.ChoiceResponse(fmt.Sprintf(MsgMoodPrompt, next.Genre), flow.Moods, ""),
			model.OutcomeAdvanced,
		), nil
	})
}

// NewSelectMoodNode stores the mood and narrows the saved movies to the chosen
// genre. The recommendation itself happens in the Recommend node.
func NewSelectMoodNode(flow model.FlowConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if t.Message == "" {
			return respond(t,
				model.ChoiceResponse(fmt.Sprintf(MsgMoodPrompt, t.Current.Genre), flow.Moods, ""),
				model.OutcomeRejected,
			), nil
		}

		next := t.Current.Clone()
		next.Step = model.StepQueryRecommendation
		next.Mood = canonicalChoice(t.Message, flow.Moods)
		t.Next = next
		t.Candidates = filterByGenre(next.Movies, next.Genre)

		logx.Ctx(ctx).Debug().
			Str("genre", next.Genre).
			Str("mood", next.Mood).
			Int("candidates", len(t.Candidates)).
			Msg("Candidates selected")
		return t, nil
	})
}

// NewRecommendNode asks the recommendation engine for a pick among the
// candidates. The conversation is complete whatever the engine answers.
func NewRecommendNode(recommender model.Recommender, timeout time.Duration) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		req := model.RecommendationRequest{
			Genre:      t.Next.Genre,
			Mood:       t.Next.Mood,
			Candidates: t.Candidates,
		}
		var (
			text string
			err  error
		)
		if len(req.Candidates) == 0 {
			// answered locally, no engine round trip
			text, err = recommender.Recommend(callCtx, req)
		} else {
			text, err = callDependency(callCtx, func(ctx context.Context) (string, error) {
				return recommender.Recommend(ctx, req)
			})
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Ctx(ctx).Error().Err(err).Msg("Recommendation engine failed")
			return fail(t, errx.Dependency(err, MsgRecommendationError), model.OutcomeEngineError), nil
		}
		if len(req.Candidates) == 0 {
			return fail(t, errx.EmptyResult(fmt.Errorf("no %s candidates", req.Genre), text), model.OutcomeEmptyResult), nil
		}
		return respond(t, model.TextResponse(text+"\n\n"+MsgEnjoy), model.OutcomeCompleted), nil
	})
}

// NewFallbackNode answers turns arriving after completion or in an unknown step.
func NewFallbackNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		logx.Ctx(ctx).Debug().Str("step", t.Step().String()).Msg("No transition for step")
		return fail(t,
			errx.UnknownStep(fmt.Errorf("no transition from step %s", t.Step()), MsgDidNotUnderstand),
			model.OutcomeUnknownStep,
		), nil
	})
}

// NewTurnPostHandler copies the dependency call count out of FlowState and logs the outcome.
func NewTurnPostHandler(node string) func(context.Context, *model.Turn, *model.FlowState) (*model.Turn, error) {
	return func(ctx context.Context, out *model.Turn, state *model.FlowState) (*model.Turn, error) {
		if out == nil {
			return out, nil
		}
		out.DependencyCalls = state.DependencyCalls
		if out.Done() {
			logx.Ctx(ctx).Debug().
				Str("conversation_key", state.ConversationKey).
				Str("node", node).
				Str("outcome", string(out.Outcome)).
				Int("dependency_calls", state.DependencyCalls).
				Msg("Turn resolved")
		}
		return out, nil
	}
}

// fail replies with the safe message of err and keeps err on the turn.
func fail(t *model.Turn, err error, outcome model.Outcome) *model.Turn {
	t.Err = err
	return respond(t, model.TextResponse(errx.MessageOf(err)), outcome)
}

func respond(t *model.Turn, resp *model.TurnResponse, outcome model.Outcome) *model.Turn {
	t.Response = resp
	t.Outcome = outcome
	return t
}

// callDependency counts the call in FlowState before running it.
func callDependency[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	_ = compose.ProcessState(ctx, func(_ context.Context, s *model.FlowState) error {
		s.DependencyCalls++
		return nil
	})
	return fn(ctx)
}
