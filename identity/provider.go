package identity

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"vault/apperr"
)

// ProviderCode is the error vocabulary of an identity provider.
type ProviderCode string

const (
	CodeEmailInUse      ProviderCode = "auth/email-already-in-use"
	CodeInvalidEmail    ProviderCode = "auth/invalid-email"
	CodeWeakPassword    ProviderCode = "auth/weak-password"
	CodePasswordTooLong ProviderCode = "auth/password-too-long"
	CodeUserNotFound    ProviderCode = "auth/user-not-found"
	CodeWrongPassword   ProviderCode = "auth/wrong-password"
	CodeTooManyRequests ProviderCode = "auth/too-many-requests"
)

type ProviderError struct {
	Code ProviderCode
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s", e.Code)
}

type Account struct {
	ID    string
	Email string
}

// Provider owns credentials. Profiles live in the store, not here.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*Account, error)
	VerifyPassword(ctx context.Context, email, password string) (*Account, error)
}

var classified = map[ProviderCode]*apperr.Error{
	CodeEmailInUse:      apperr.ErrEmailAlreadyRegistered,
	CodeInvalidEmail:    apperr.ErrInvalidEmailFormat,
	CodeWeakPassword:    apperr.ErrWeakPassword,
	CodePasswordTooLong: apperr.ErrPasswordTooLong,
	CodeUserNotFound:    apperr.ErrInvalidCredentials,
	CodeWrongPassword:   apperr.ErrInvalidCredentials,
	CodeTooManyRequests: apperr.ErrRateLimited,
}

// classify maps a provider failure onto the auth taxonomy. Anything the
// provider did not name becomes ErrUnknown so its text is never shown.
func classify(err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if e, ok := classified[pe.Code]; ok {
			return e
		}
	}
	return apperr.ErrUnknown.WithCause(err)
}
