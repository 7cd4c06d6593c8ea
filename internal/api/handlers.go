package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/movie-night-core/server/internal/agent/model"
	"github.com/movie-night-core/server/internal/auth"
	errx "github.com/movie-night-core/server/internal/core/error"
	logx "github.com/movie-night-core/server/pkg/logger"
)

const (
	maxBodyBytes = 64 << 10

	msgMalformedBody      = "Malformed request body."
	msgSessionIDRequired  = "session_id is required."
	msgInvalidRequest     = "Invalid request."
	msgStorageUnavailable = "Session storage unavailable. Please try again in a moment."
	msgSomethingWrong     = "Something went wrong. Please try again."
)

// TurnService runs conversation turns and reports store readiness.
type TurnService interface {
	HandleTurn(ctx context.Context, userID, sessionID, message string) (*model.TurnResponse, error)
	Ready(ctx context.Context) error
}

type chatRequest struct {
	Message   string `json:"message" validate:"max=2000"`
	SessionID string `json:"session_id" validate:"required,max=128"`
}

// Handler serves the chat and health endpoints.
type Handler struct {
	turns    TurnService
	validate *validator.Validate
}

func NewHandler(turns TurnService) *Handler {
	return &Handler{
		turns:    turns,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Chat handles POST /chat. Every outcome past request validation is a 200
// with a turn response, including soft failures.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, auth.Unauthorized(auth.ErrMissingToken))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logx.Ctx(ctx).Debug().Err(err).Msg("Malformed chat request")
		writeError(w, errx.Validation(err, msgMalformedBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, errx.Validation(err, validationMessage(err)))
		return
	}

	resp, err := h.turns.HandleTurn(ctx, userID, req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logx.Ctx(ctx).Warn().Err(err).Str("session_id", req.SessionID).Msg("Turn aborted")
			writeJSON(w, http.StatusOK, model.TextResponse(msgSomethingWrong))
		case errx.KindOf(err) == errx.KindStorage:
			logx.Ctx(ctx).Error().Err(err).Str("session_id", req.SessionID).Msg("Session store failed")
			writeJSON(w, http.StatusOK, model.TextResponse(msgStorageUnavailable))
		default:
			logx.Ctx(ctx).Error().Err(err).Str("session_id", req.SessionID).Msg("Turn failed")
			writeJSON(w, http.StatusOK, model.TextResponse(msgSomethingWrong))
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the session store is reachable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.turns.Ready(ctx); err != nil {
		logx.Ctx(ctx).Warn().Err(err).Msg("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgInvalidRequest
	}
	for _, fe := range verrs {
		if fe.Field() == "SessionID" && fe.Tag() == "required" {
			return msgSessionIDRequired
		}
	}
	return msgInvalidRequest
}

// writeError replies with the status and safe message carried by err.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errx.StatusOf(err), model.TextResponse(errx.MessageOf(err)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("Failed to write response")
	}
}
