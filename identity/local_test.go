package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vault/memstore"
)

func providerCode(t *testing.T, err error) ProviderCode {
	t.Helper()
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "expected a ProviderError, got %v", err)
	return pe.Code
}

func TestLocalProviderCreateAccount(t *testing.T) {
	p := NewLocalProvider(memstore.New(), 3, time.Minute)
	ctx := context.Background()

	acct, err := p.CreateAccount(ctx, " Alice@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", acct.Email)
	assert.NotEmpty(t, acct.ID)

	_, err = p.CreateAccount(ctx, "alice@example.com", "another")
	assert.Equal(t, CodeEmailInUse, providerCode(t, err))

	_, err = p.CreateAccount(ctx, "not-an-email", "secret1")
	assert.Equal(t, CodeInvalidEmail, providerCode(t, err))

	_, err = p.CreateAccount(ctx, "bob@example.com", "12345")
	assert.Equal(t, CodeWeakPassword, providerCode(t, err))

	_, err = p.CreateAccount(ctx, "bob@example.com", strings.Repeat("é", 37))
	assert.Equal(t, CodePasswordTooLong, providerCode(t, err))

	_, err = p.CreateAccount(ctx, "bob@example.com", strings.Repeat("x", 72))
	assert.NoError(t, err)
}

func TestLocalProviderVerifyPassword(t *testing.T) {
	p := NewLocalProvider(memstore.New(), 3, time.Minute)
	ctx := context.Background()
	created, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	acct, err := p.VerifyPassword(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acct.ID)

	_, err = p.VerifyPassword(ctx, "alice@example.com", "wrong")
	assert.Equal(t, CodeWrongPassword, providerCode(t, err))

	_, err = p.VerifyPassword(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, CodeUserNotFound, providerCode(t, err))
}

func TestLocalProviderLockout(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewLocalProvider(memstore.New(), 3, time.Minute)
	p.now = func() time.Time { return now }
	ctx := context.Background()
	_, err := p.CreateAccount(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = p.VerifyPassword(ctx, "alice@example.com", "wrong")
		assert.Equal(t, CodeWrongPassword, providerCode(t, err))
	}
	_, err = p.VerifyPassword(ctx, "alice@example.com", "secret1")
	assert.Equal(t, CodeTooManyRequests, providerCode(t, err), "correct password is refused while locked out")

	now = now.Add(61 * time.Second)
	_, err = p.VerifyPassword(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Empty(t, p.failures)
}
