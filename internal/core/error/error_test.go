package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))
	assert.Equal(t, KindStorage, KindOf(notFound))
	assert.True(t, errors.Is(notFound, redis.Nil))

	down := fmt.Errorf("load session: %w", WrapRedis(errors.New("dial tcp: connection refused")))
	assert.Equal(t, http.StatusBadGateway, StatusOf(down))
	assert.Equal(t, KindStorage, KindOf(down))
	assert.Equal(t, RedisErrorMessage, MessageOf(down))
}

func TestWrapBadger(t *testing.T) {
	assert.NoError(t, WrapBadger(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapBadger(badger.ErrKeyNotFound)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapBadger(badger.ErrDBClosed)))
}

func TestConstructors(t *testing.T) {
	cause := errors.New("bad signature")

	authErr := Auth(cause, "Invalid token.")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(authErr))
	assert.Equal(t, KindAuth, KindOf(authErr))
	assert.ErrorIs(t, authErr, cause)
	assert.Equal(t, "Invalid token.: bad signature", authErr.Error())

	assert.Equal(t, http.StatusBadRequest, StatusOf(Validation(nil, "session_id is required.")))
	assert.Equal(t, "session_id is required.", Validation(nil, "session_id is required.").Error())
	assert.Equal(t, KindDependency, KindOf(Dependency(cause, "down")))

	empty := fmt.Errorf("fetch movies: %w", EmptyResult(errors.New("no saved movies"), "Nothing saved yet."))
	assert.Equal(t, KindEmptyResult, KindOf(empty))
	assert.Equal(t, http.StatusOK, StatusOf(empty))
	assert.Equal(t, "Nothing saved yet.", MessageOf(empty))

	unknown := UnknownStep(errors.New("no transition"), "Send reset.")
	assert.Equal(t, KindUnknownStep, KindOf(unknown))
	assert.Equal(t, http.StatusOK, StatusOf(unknown))
}

func TestDefaultsForPlainErrors(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, MessageOf(err))
}
