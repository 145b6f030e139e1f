package apperr

import (
	"errors"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesCode(t *testing.T) {
	wrapped := pkgerrors.Wrap(ErrTransient.WithCause(errors.New("deadlock")), "addFriend")

	assert.True(t, errors.Is(wrapped, ErrTransient))
	assert.False(t, errors.Is(wrapped, ErrPeerNotFound))
	assert.Equal(t, CodeTransient, CodeOf(wrapped))
}

func TestPublicHidesForeignErrors(t *testing.T) {
	pub := Public(errors.New("Error 1213: Deadlock found when trying to get lock"))
	require.NotNil(t, pub)
	assert.Equal(t, CodeUnknown, pub.Code)
	assert.Equal(t, ErrUnknown.Message, pub.Message)

	pub = Public(ErrWeakPassword.WithCause(errors.New("provider: weak-password")))
	assert.Equal(t, CodeWeakPassword, pub.Code)
	assert.Nil(t, pub.Cause)
	assert.Equal(t, "Password should be at least 6 characters", pub.Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeRateLimited))
	assert.Equal(t, http.StatusOK, HTTPStatus(CodeAlreadyFriends))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("nope")))
}
