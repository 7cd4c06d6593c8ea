package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/movie-night-core/server/pkg/logger"
)

type startedAtKey struct{}

// newGraphHandler logs the duration and failures of each graph run.
func newGraphHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			logx.Ctx(ctx).Debug().Str("graph", info.Name).Msg("Graph run started")
			return context.WithValue(ctx, startedAtKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Ctx(ctx).Debug().
				Str("graph", info.Name).
				Dur("elapsed", elapsed(ctx)).
				Msg("Graph run finished")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Ctx(ctx).Error().
				Err(err).
				Str("graph", info.Name).
				Dur("elapsed", elapsed(ctx)).
				Msg("Graph run failed")
			return ctx
		}).
		Build()
}

func elapsed(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}
