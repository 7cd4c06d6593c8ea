// Package datasvc talks to the friends/movies data service over HTTP.
package datasvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/movie-night-core/server/internal/agent/model"
	"github.com/movie-night-core/server/internal/metrics"
	logx "github.com/movie-night-core/server/pkg/logger"
)

// ErrUnavailable is returned for transport failures, non-2xx replies and an open breaker.
var ErrUnavailable = errors.New("data service unavailable")

type Config struct {
	URL             string        `envconfig:"DATA_SERVICE_URL" required:"true" validate:"required,url"`
	Timeout         time.Duration `envconfig:"DATA_SERVICE_TIMEOUT" default:"5s" validate:"gt=0"`
	BreakerFailures uint32        `envconfig:"DATA_SERVICE_BREAKER_FAILURES" default:"5" validate:"gt=0"`
	BreakerTimeout  time.Duration `envconfig:"DATA_SERVICE_BREAKER_TIMEOUT" default:"30s" validate:"gt=0"`
}

type friendsResponse struct {
	Friends []string `json:"friends"`
}

type savedMoviesRequest struct {
	FriendIDs []string `json:"friend_ids"`
}

type savedMoviesResponse struct {
	Movies []model.Movie `json:"movies"`
}

// Client implements both model.FriendDirectory and model.SharedMedia.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
}

func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "data-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Cancelled requests say nothing about the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.SetBreakerState(name, int(to))
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		cb:         cb,
	}
}

// Friends implements model.FriendDirectory.
func (c *Client) Friends(ctx context.Context, userID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/friends", c.baseURL, url.PathEscape(userID))

	body, err := c.do(ctx, "friends", http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp friendsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode friends: %v", ErrUnavailable, err)
	}
	return resp.Friends, nil
}

// SavedMovies implements model.SharedMedia.
func (c *Client) SavedMovies(ctx context.Context, userID string, friendIDs []string) ([]model.Movie, error) {
	endpoint := fmt.Sprintf("%s/users/%s/saved-movies", c.baseURL, url.PathEscape(userID))

	payload, err := json.Marshal(savedMoviesRequest{FriendIDs: friendIDs})
	if err != nil {
		return nil, fmt.Errorf("marshal saved movies request: %w", err)
	}

	body, err := c.do(ctx, "saved_movies", http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp savedMoviesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode saved movies: %v", ErrUnavailable, err)
	}
	return resp.Movies, nil
}

// do runs one bounded request through the breaker and returns the body of a 2xx reply.
func (c *Client) do(ctx context.Context, operation, method, endpoint string, payload []byte) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		reqCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(reqCtx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		result := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.RecordDependencyRequest(operation, result)
		logx.Ctx(ctx).Warn().Err(err).Str("operation", operation).Str("url", endpoint).Msg("data service call failed")
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, endpoint, err)
	}
	metrics.RecordDependencyRequest(operation, "ok")
	return body, nil
}

var (
	_ model.FriendDirectory = (*Client)(nil)
	_ model.SharedMedia     = (*Client)(nil)
)
