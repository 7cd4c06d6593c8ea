package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/movie-night-core/server/internal/agent/graph/nodes"
	"github.com/movie-night-core/server/internal/agent/graph/observers"
	"github.com/movie-night-core/server/internal/agent/model"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const graphName = "movie_night_turn"

// Runner executes one conversation turn against the compiled graph.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.Turn, error)
}

// Config holds the collaborators and flow settings needed to build the turn graph.
type Config struct {
	Directory   model.FriendDirectory
	Media       model.SharedMedia
	Recommender model.Recommender
	Flow        model.FlowConfig
	// RecommendationTimeout bounds one engine call. Zero means no extra bound.
	RecommendationTimeout time.Duration
}

// GraphBuilder handles the construction of the turn graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.TurnInput, *model.Turn]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.Turn]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.Turn, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil || out.Response == nil {
		return nil, fmt.Errorf("turn graph produced no response")
	}
	return out, nil
}

// BuildTurnGraph validates cfg, compiles the graph and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	runnable, err := BuildGraph(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Turn graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled turn graph.
func BuildGraph(ctx context.Context, config *Config) (compose.Runnable[model.TurnInput, *model.Turn], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Directory == nil || config.Media == nil {
		return nil, fmt.Errorf("data service clients are nil")
	}
	if config.Recommender == nil {
		return nil, fmt.Errorf("recommender is nil")
	}
	if len(config.Flow.Genres) == 0 || len(config.Flow.Moods) == 0 {
		return nil, fmt.Errorf("flow config needs genres and moods")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.Turn](
			compose.WithGenLocalState(func(ctx context.Context) *model.FlowState {
				return &model.FlowState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds the loader and one node per step transition.
func (b *GraphBuilder) addNodes() error {
	cfg := b.config

	if err := b.graph.AddLambdaNode(nodes.NodeLoadTurn,
		nodes.NewLoadTurnNode(),
		compose.WithStatePreHandler(nodes.NewLoadTurnPreHandler()),
	); err != nil {
		return fmt.Errorf("error adding %s node: %w", nodes.NodeLoadTurn, err)
	}

	steps := []struct {
		key    string
		lambda *compose.Lambda
	}{
		{nodes.NodeGreet, nodes.NewGreetNode(cfg.Directory, cfg.Flow)},
		{nodes.NodeSelectFriends, nodes.NewSelectFriendsNode(cfg.Directory, cfg.Flow)},
		{nodes.NodeFetchMovies, nodes.NewFetchMoviesNode(cfg.Media, cfg.Flow)},
		{nodes.NodeSelectGenre, nodes.NewSelectGenreNode(cfg.Flow)},
		{nodes.NodeSelectMood, nodes.NewSelectMoodNode(cfg.Flow)},
		{nodes.NodeRecommend, nodes.NewRecommendNode(cfg.Recommender, cfg.RecommendationTimeout)},
		{nodes.NodeFallback, nodes.NewFallbackNode()},
	}
	for _, s := range steps {
		if err := b.graph.AddLambdaNode(s.key, s.lambda,
			compose.WithNodeName(s.key),
			compose.WithStatePostHandler(nodes.NewTurnPostHandler(s.key)),
		); err != nil {
			return fmt.Errorf("error adding %s node: %w", s.key, err)
		}
	}
	return nil
}

// addEdges connects every terminal node to END.
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeLoadTurn},
		{nodes.NodeGreet, compose.END},
		{nodes.NodeFetchMovies, compose.END},
		{nodes.NodeSelectGenre, compose.END},
		{nodes.NodeRecommend, compose.END},
		{nodes.NodeFallback, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates the step dispatch and the two in-turn continuations.
func (b *GraphBuilder) addBranches() error {
	stepBranch := compose.NewGraphBranch(
		nodes.NewStepCondition(),
		map[string]bool{
			nodes.NodeGreet:         true,
			nodes.NodeSelectFriends: true,
			nodes.NodeSelectGenre:   true,
			nodes.NodeSelectMood:    true,
			nodes.NodeFallback:      true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeLoadTurn, stepBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding step branch")
		return fmt.Errorf("error adding step branch: %w", err)
	}

	fetchBranch := compose.NewGraphBranch(
		nodes.NewContinueCondition(nodes.NodeFetchMovies),
		map[string]bool{
			nodes.NodeFetchMovies: true,
			compose.END:           true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSelectFriends, fetchBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding fetch branch")
		return fmt.Errorf("error adding fetch branch: %w", err)
	}

	recommendBranch := compose.NewGraphBranch(
		nodes.NewContinueCondition(nodes.NodeRecommend),
		map[string]bool{
			nodes.NodeRecommend: true,
			compose.END:         true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSelectMood, recommendBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding recommend branch")
		return fmt.Errorf("error adding recommend branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.Turn], error) {
	// the longest path is load -> select friends -> fetch movies -> end
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithMaxRunSteps(10),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
