package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movie-night-core/server/internal/agent/model"
	"github.com/movie-night-core/server/internal/auth"
	errx "github.com/movie-night-core/server/internal/core/error"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeTurns struct {
	resp      *model.TurnResponse
	err       error
	readyErr  error
	calls     int
	userID    string
	sessionID string
	message   string
}

func (f *fakeTurns) HandleTurn(ctx context.Context, userID, sessionID, message string) (*model.TurnResponse, error) {
	f.calls++
	f.userID, f.sessionID, f.message = userID, sessionID, message
	return f.resp, f.err
}

func (f *fakeTurns) Ready(ctx context.Context) error { return f.readyErr }

func testConfig() Config {
	return Config{RateLimitRequests: 100, RateLimitWindow: time.Minute}
}

func newTestRouter(t *testing.T, cfg Config, turns TurnService) http.Handler {
	t.Helper()
	v, err := auth.NewVerifier(auth.Config{Secret: testSecret})
	require.NoError(t, err)
	return NewRouter(cfg, v, turns)
}

func token(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func chat(t *testing.T, h http.Handler, bearer, body string) (*httptest.ResponseRecorder, model.TurnResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp model.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestChatRejectsBadCredentials(t *testing.T) {
	tests := []struct {
		name   string
		bearer string
		want   string
	}{
		{name: "missing", bearer: "", want: "Missing token."},
		{name: "invalid", bearer: "not-a-jwt", want: "Invalid token."},
		{name: "expired", bearer: token(t, "u1", -time.Hour), want: "Token has expired."},
		{name: "no user claim", bearer: token(t, "", time.Hour), want: "Token is missing the user claim."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := &fakeTurns{}
			rec, resp := chat(t, newTestRouter(t, testConfig(), turns), tt.bearer, `{"session_id":"s1","message":"hi"}`)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, model.ResponseText, resp.ResponseType)
			assert.Equal(t, tt.want, resp.Response)
			assert.Zero(t, turns.calls)
		})
	}
}

func TestChatValidatesBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed", body: `{"session_id":`, want: msgMalformedBody},
		{name: "missing session", body: `{"message":"hi"}`, want: msgSessionIDRequired},
		{name: "empty session", body: `{"session_id":"","message":"hi"}`, want: msgSessionIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := &fakeTurns{}
			rec, resp := chat(t, newTestRouter(t, testConfig(), turns), token(t, "u1", time.Hour), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, model.ResponseText, resp.ResponseType)
			assert.Equal(t, tt.want, resp.Response)
			assert.Zero(t, turns.calls)
		})
	}
}

func TestChatFirstTurn(t *testing.T) {
	turns := &fakeTurns{resp: model.ChoiceResponse("Who's joining?", []string{"alice", "bob"}, "e.g. alice")}
	rec, resp := chat(t, newTestRouter(t, testConfig(), turns), token(t, "u1", time.Hour), `{"session_id":"s1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ResponseMultipleChoice, resp.ResponseType)
	assert.Equal(t, []string{"alice", "bob"}, resp.Options)
	assert.Equal(t, "u1", turns.userID)
	assert.Equal(t, "s1", turns.sessionID)
	assert.Empty(t, turns.message)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.NotContains(t, rec.Body.String(), "conversation_state")
}

func TestChatSoftFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "storage", err: fmt.Errorf("load session: %w", errx.WrapRedis(errors.New("connection refused"))), want: msgStorageUnavailable},
		{name: "unexpected", err: errors.New("boom"), want: msgSomethingWrong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := &fakeTurns{err: tt.err}
			rec, resp := chat(t, newTestRouter(t, testConfig(), turns), token(t, "u1", time.Hour), `{"session_id":"s1","message":"alice"}`)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, model.ResponseText, resp.ResponseType)
			assert.Equal(t, tt.want, resp.Response)
		})
	}
}

func TestChatRateLimitedPerUser(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequests = 1
	turns := &fakeTurns{resp: model.TextResponse("ok")}
	h := newTestRouter(t, cfg, turns)

	rec, _ := chat(t, h, token(t, "u1", time.Hour), `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := chat(t, h, token(t, "u1", time.Hour), `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, msgRateLimited, resp.Response)

	rec, _ = chat(t, h, token(t, "u2", time.Hour), `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, turns.calls)
}

func TestHealthEndpoints(t *testing.T) {
	turns := &fakeTurns{}
	h := newTestRouter(t, testConfig(), turns)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	turns.readyErr = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, testConfig(), &fakeTurns{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "movienight_http_requests_total")
}

func TestRequestIDIsReused(t *testing.T) {
	h := newTestRouter(t, testConfig(), &fakeTurns{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}
