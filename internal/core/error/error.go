package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// BadgerErrorMessage describes Badger related failures.
	BadgerErrorMessage = "badger operation failed"
)

// Kind classifies an AppError for mapping onto HTTP status codes and soft replies.
type Kind string

const (
	KindInternal    Kind = "internal"
	KindAuth        Kind = "auth"
	KindValidation  Kind = "validation"
	KindDependency  Kind = "dependency"
	KindEmptyResult Kind = "empty_result"
	KindUnknownStep Kind = "unknown_step"
	KindStorage     Kind = "storage"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    KindInternal,
		Status:  status,
		Message: message,
	}
}

// Auth marks an authentication failure. Always 401.
func Auth(err error, message string) *AppError {
	return &AppError{Err: err, Kind: KindAuth, Status: http.StatusUnauthorized, Message: message}
}

// Validation marks a rejected request.
func Validation(err error, message string) *AppError {
	return &AppError{Err: err, Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// Dependency marks a failed call to an external collaborator. The message names
// the failure domain and is safe to show to the user.
func Dependency(err error, message string) *AppError {
	return &AppError{Err: err, Kind: KindDependency, Status: http.StatusBadGateway, Message: message}
}

// EmptyResult marks a lookup that succeeded with nothing to offer. The turn
// still answers normally, so the status is 200.
func EmptyResult(err error, message string) *AppError {
	return &AppError{Err: err, Kind: KindEmptyResult, Status: http.StatusOK, Message: message}
}

// UnknownStep marks a message arriving in a step with no transition. Always recoverable via reset.
func UnknownStep(err error, message string) *AppError {
	return &AppError{Err: err, Kind: KindUnknownStep, Status: http.StatusOK, Message: message}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return &AppError{Err: err, Kind: KindStorage, Status: http.StatusNotFound, Message: RedisNotFoundMessage}
	}
	return &AppError{Err: err, Kind: KindStorage, Status: http.StatusBadGateway, Message: RedisErrorMessage}
}

// WrapBadger maps Badger errors to AppError.
func WrapBadger(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &AppError{Err: err, Kind: KindStorage, Status: http.StatusNotFound, Message: BadgerErrorMessage}
	}
	return &AppError{Err: err, Kind: KindStorage, Status: http.StatusBadGateway, Message: BadgerErrorMessage}
}

// KindOf returns the Kind of the first AppError in the chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status of the first AppError in the chain, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message of the first AppError in the chain.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return SystemErrorMessage
}
