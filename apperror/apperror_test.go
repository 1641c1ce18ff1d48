package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		Validation("bad"):        http.StatusBadRequest,
		Auth("who"):              http.StatusUnauthorized,
		Authz("no"):              http.StatusForbidden,
		NotFound("gone"):         http.StatusNotFound,
		Conflict("taken"):        http.StatusConflict,
		RateLimited("slow"):      http.StatusTooManyRequests,
		TooLarge("big"):          http.StatusRequestEntityTooLarge,
		Internal(errors.New("x")): http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.Status(), e.Kind)
	}
}

func TestAs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("claim: %w", Conflict("already claimed"))

	ae, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, ae.Kind)
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: disk full", err.Error())
}
