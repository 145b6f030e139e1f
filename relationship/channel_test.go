package relationship

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"vault/apperr"
)

func TestDeriveChannelIDOrderIndependent(t *testing.T) {
	for i := 0; i < 100; i++ {
		a, b := uuid.NewString(), uuid.NewString()
		assert.Equal(t, DeriveChannelID(a, b), DeriveChannelID(b, a))
	}
}

func TestDeriveChannelIDDistinctPeers(t *testing.T) {
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()
	assert.NotEqual(t, DeriveChannelID(a, b), DeriveChannelID(a, c))
	assert.NotEqual(t, DeriveChannelID(b, a), DeriveChannelID(c, a))
}

func TestDeriveChannelIDCanonicalForm(t *testing.T) {
	assert.Equal(t, "alice_bob", string(DeriveChannelID("bob", "alice")))
}

func TestValidatePair(t *testing.T) {
	assert.NoError(t, ValidatePair("a", "b"))
	assert.True(t, errors.Is(ValidatePair("a", "a"), apperr.ErrSelfRelationship))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(ValidatePair("", "b")))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(ValidatePair("a_x", "b")))
}
