package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/movie-night-core/server/internal/agent/model"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const (
	MsgMissingToken     = "Missing token."
	MsgInvalidToken     = "Invalid token."
	MsgExpiredToken     = "Token has expired."
	MsgMissingUserClaim = "Token is missing the user claim."
)

type userIDKey struct{}

// TokenVerifier is the black-box credential check used by the gate.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// WithUserID stores an authenticated user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Middleware rejects every request without a valid bearer token with 401 and a
// text turn response. Nothing downstream runs for a rejected request.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := v.Verify(BearerToken(r.Header.Get("Authorization")))
			if err != nil {
				logx.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// Unauthorized maps a verification failure onto the 401 reply shown to the caller.
func Unauthorized(err error) *errx.AppError {
	switch {
	case errors.Is(err, ErrMissingToken):
		return errx.Auth(err, MsgMissingToken)
	case errors.Is(err, ErrExpiredToken):
		return errx.Auth(err, MsgExpiredToken)
	case errors.Is(err, ErrMissingUserClaim):
		return errx.Auth(err, MsgMissingUserClaim)
	default:
		return errx.Auth(err, MsgInvalidToken)
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	appErr := Unauthorized(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="movie-night"`)
	w.WriteHeader(errx.StatusOf(appErr))
	_ = json.NewEncoder(w).Encode(model.TextResponse(errx.MessageOf(appErr)))
}
