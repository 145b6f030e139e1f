package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"vault/models"
	"vault/store"
	"vault/utils"
)

const (
	minPasswordLength = 6
	// bcrypt only hashes this many bytes and refuses longer input.
	maxPasswordBytes = 72
)

type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// LocalProvider keeps bcrypt hashes in the user table and locks an email
// out after maxFailures failed attempts within window.
type LocalProvider struct {
	accounts    AccountStore
	validate    *validator.Validate
	maxFailures int
	window      time.Duration
	now         func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(accounts AccountStore, maxFailures int, window time.Duration) *LocalProvider {
	return &LocalProvider{
		accounts:    accounts,
		validate:    validator.New(),
		maxFailures: maxFailures,
		window:      window,
		now:         time.Now,
		failures:    make(map[string][]time.Time),
	}
}

func (p *LocalProvider) checkEmail(email string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return &ProviderError{Code: CodeInvalidEmail}
	}
	return nil
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := p.checkEmail(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, &ProviderError{Code: CodeWeakPassword}
	}
	if len(password) > maxPasswordBytes {
		return nil, &ProviderError{Code: CodePasswordTooLong}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := &models.User{
		ID:        utils.GenerateUUID(),
		Email:     email,
		Password:  string(hash),
		CreatedAt: p.now().UTC(),
	}
	if err := p.accounts.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &ProviderError{Code: CodeEmailInUse}
		}
		return nil, errors.Wrap(err, "create account")
	}
	return &Account{ID: user.ID, Email: email}, nil
}

func (p *LocalProvider) VerifyPassword(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := p.checkEmail(email); err != nil {
		return nil, err
	}
	if p.lockedOut(email) {
		return nil, &ProviderError{Code: CodeTooManyRequests}
	}

	user, err := p.accounts.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		p.fail(email)
		return nil, &ProviderError{Code: CodeUserNotFound}
	}
	if err != nil {
		return nil, errors.Wrap(err, "load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		p.fail(email)
		return nil, &ProviderError{Code: CodeWrongPassword}
	}

	p.mu.Lock()
	delete(p.failures, email)
	p.mu.Unlock()
	return &Account{ID: user.ID, Email: user.Email}, nil
}

// recent drops failures older than the window. Callers hold p.mu.
func (p *LocalProvider) recent(email string) []time.Time {
	cutoff := p.now().Add(-p.window)
	kept := p.failures[email][:0]
	for _, t := range p.failures[email] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(p.failures, email)
		return nil
	}
	p.failures[email] = kept
	return kept
}

func (p *LocalProvider) lockedOut(email string) bool {
	if p.maxFailures <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recent(email)) >= p.maxFailures
}

func (p *LocalProvider) fail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[email] = append(p.recent(email), p.now())
}
