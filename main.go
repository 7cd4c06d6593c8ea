package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/movie-night-core/server/internal/agent/graph"
	"github.com/movie-night-core/server/internal/agent/graph/conversations"
	"github.com/movie-night-core/server/internal/agent/model"
	"github.com/movie-night-core/server/internal/agent/recommend"
	"github.com/movie-night-core/server/internal/agent/repo"
	"github.com/movie-night-core/server/internal/api"
	"github.com/movie-night-core/server/internal/auth"
	"github.com/movie-night-core/server/internal/clients/datasvc"
	"github.com/movie-night-core/server/internal/core"
	pkgbadger "github.com/movie-night-core/server/pkg/badger"
	logx "github.com/movie-night-core/server/pkg/logger"
	pkgredis "github.com/movie-night-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP surface
	HTTP api.Config
	Auth auth.Config

	// Collaborators
	DataService    datasvc.Config
	Gemini         recommend.GeminiConfig
	Recommendation model.RecommendationModelConfig

	// Session storage
	Session model.SessionConfig
	Redis   pkgredis.Config
	Badger  pkgbadger.Config

	Flow model.FlowConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Service: "movie-night"})

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		logx.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
	logx.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg AppConfig) error {
	sessions, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("token verifier: %w", err)
	}

	chatModel, err := recommend.NewGeminiChatModel(ctx, cfg.Gemini, cfg.Recommendation)
	if err != nil {
		return err
	}

	dataClient := datasvc.New(cfg.DataService, nil)

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		Directory:             dataClient,
		Media:                 dataClient,
		Recommender:           recommend.NewChatRecommender(chatModel, cfg.Recommendation.Model),
		Flow:                  cfg.Flow,
		RecommendationTimeout: cfg.Recommendation.Timeout,
	})
	if err != nil {
		return fmt.Errorf("build turn graph: %w", err)
	}

	turns := conversations.NewTurnManager(sessions, runner)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(cfg.HTTP, verifier, turns),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("addr", srv.Addr).
			Str("environment", cfg.Environment.String()).
			Str("session_backend", cfg.Session.Backend).
			Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openSessionStore connects the configured session backend and returns its closer.
func openSessionStore(ctx context.Context, cfg AppConfig) (model.SessionRepository, func(), error) {
	switch cfg.Session.Backend {
	case "badger":
		db, err := cfg.Badger.Open()
		if err != nil {
			return nil, nil, err
		}
		logx.Info().Bool("in_memory", cfg.Badger.Dir == "").Msg("Connected to Badger session store")
		closer := func() {
			if err := db.Close(); err != nil {
				logx.Warn().Err(err).Msg("Failed to close Badger")
			}
		}
		return repo.NewBadgerSessionRepository(db, cfg.Session.KeyPrefix, cfg.Session.TTL), closer, nil
	default:
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("initialise redis client: %w", err)
		}
		logx.Info().Msg("Connected to Redis session store")
		closer := func() {
			if err := rdb.Close(); err != nil {
				logx.Warn().Err(err).Msg("Failed to close Redis client")
			}
		}
		return repo.NewRedisSessionRepository(rdb, cfg.Session.KeyPrefix, cfg.Session.TTL), closer, nil
	}
}
