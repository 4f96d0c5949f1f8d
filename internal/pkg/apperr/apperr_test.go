package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("verify ref_1: %w", Wrap(KindVerificationFailed, "verification failed", cause))

	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrPersistence)
	assert.Equal(t, KindVerificationFailed, KindOf(err))
	assert.Equal(t, "verification failed", MessageOf(err))
}

func TestKindOfUnclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "An unexpected error occurred", MessageOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidRequest:     http.StatusBadRequest,
		KindBadPayload:         http.StatusBadRequest,
		KindUnauthorized:       http.StatusUnauthorized,
		KindRateLimited:        http.StatusTooManyRequests,
		KindGateway:            http.StatusInternalServerError,
		KindVerificationFailed: http.StatusInternalServerError,
		KindPersistence:        http.StatusInternalServerError,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "bad: x", Wrap(KindBadPayload, "bad", errors.New("x")).Error())
	assert.Equal(t, "only message", New(KindGateway, "only message").Error())
	assert.Equal(t, "INTERNAL_ERROR", ErrInternal.Error())
}
