//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks vault/identity Provider

// Package identity signs users up and in against a Provider, keeps the
// matching profile and session records, and announces session changes.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/apperr"
	"vault/broker"
	"vault/feed"
	"vault/models"
	"vault/store"
	"vault/utils"
)

// sessionRecheck bounds how late an observer learns that a session expired.
const sessionRecheck = 30 * time.Second

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpsertProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type Heartbeater interface {
	Heartbeat(ctx context.Context, userID string) error
}

type LocationRecorder interface {
	Record(ctx context.Context, userID string, loc models.Location, typ models.SampleType) error
}

type SignUpInput struct {
	Username string
	Email    string
	Password string
	Device   *models.DeviceInfo
	Location *models.Location
}

type SignInInput struct {
	Email    string
	Password string
	Device   *models.DeviceInfo
	Location *models.Location
}

// Result is what a successful sign-up or sign-in hands back to the client.
type Result struct {
	Token   string          `json:"token"`
	Session *models.Session `json:"session"`
	User    *models.User    `json:"user"`
}

type Service struct {
	provider  Provider
	store     Store
	presence  Heartbeater
	locations LocationRecorder
	broker    broker.Broker
	subjects  broker.Subjects
	tokens    *utils.TokenIssuer
	now       func() time.Time
}

func NewService(p Provider, s Store, hb Heartbeater, locations LocationRecorder, b broker.Broker, subjects broker.Subjects, tokens *utils.TokenIssuer) *Service {
	return &Service{
		provider:  p,
		store:     s,
		presence:  hb,
		locations: locations,
		broker:    b,
		subjects:  subjects,
		tokens:    tokens,
		now:       time.Now,
	}
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Result, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.ErrMissingFields
	}

	account, err := s.provider.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, s.reject("signUp", err)
	}

	now := s.now().UTC()
	update := models.ProfileUpdate{
		DisplayName: &in.Username,
		Email:       &account.Email,
		LastLogin:   &now,
		LastSeen:    &now,
		Device:      in.Device,
	}
	if in.Location != nil {
		update.Location = in.Location
		update.RegistrationLocation = in.Location
	}
	return s.establish(ctx, account, update, in.Location, models.SampleRegistration)
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, apperr.ErrMissingFields
	}

	account, err := s.provider.VerifyPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, s.reject("signIn", err)
	}

	now := s.now().UTC()
	update := models.ProfileUpdate{
		LastLogin: &now,
		LastSeen:  &now,
		Location:  in.Location,
		Device:    in.Device,
	}
	return s.establish(ctx, account, update, in.Location, models.SampleLogin)
}

func (s *Service) reject(op string, err error) error {
	classifiedErr := classify(err)
	if apperr.CodeOf(classifiedErr) == apperr.CodeUnknown {
		jww.ERROR.Printf("[%s] provider: %+v", op, err)
	} else {
		jww.DEBUG.Printf("[%s] rejected: %v", op, err)
	}
	return classifiedErr
}

// establish writes the profile, the heartbeat and the location sample for a
// freshly authenticated account, then opens a session.
func (s *Service) establish(ctx context.Context, account *Account, update models.ProfileUpdate, loc *models.Location, sample models.SampleType) (*Result, error) {
	if err := s.store.UpsertProfile(ctx, account.ID, update); err != nil {
		jww.ERROR.Printf("[auth] profile of %s: %+v", account.ID, err)
		return nil, apperr.ErrUnknown.WithCause(err)
	}
	if err := s.presence.Heartbeat(ctx, account.ID); err != nil {
		jww.WARN.Printf("[auth] heartbeat %s: %v", account.ID, err)
	}
	if loc != nil {
		if err := s.locations.Record(ctx, account.ID, *loc, sample); err != nil {
			jww.WARN.Printf("[auth] %s sample for %s: %v", sample, account.ID, err)
		}
	}

	user, err := s.store.GetUser(ctx, account.ID)
	if err != nil {
		jww.ERROR.Printf("[auth] reload %s: %+v", account.ID, err)
		return nil, apperr.ErrUnknown.WithCause(err)
	}

	now := s.now().UTC()
	sess := &models.Session{
		ID:          utils.GenerateUUID(),
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.tokens.TTL()),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		jww.ERROR.Printf("[auth] session for %s: %+v", user.ID, err)
		return nil, apperr.ErrUnknown.WithCause(err)
	}
	token, err := s.tokens.GenerateToken(user.ID, sess.ID, now)
	if err != nil {
		jww.ERROR.Printf("[auth] token for %s: %+v", user.ID, err)
		return nil, apperr.ErrUnknown.WithCause(err)
	}

	s.announce(ctx, user.ID)
	jww.INFO.Printf("[auth] %s signed in", user.ID)
	return &Result{Token: token, Session: sess, User: user}, nil
}

func (s *Service) announce(ctx context.Context, userID string) {
	if err := s.broker.Publish(ctx, s.subjects.Session(userID), nil); err != nil {
		jww.WARN.Printf("[auth] announce session of %s: %v", userID, err)
	}
}

// SignOut revokes the session. Observers of it see nil next.
func (s *Service) SignOut(ctx context.Context, sess *models.Session) error {
	if err := s.store.DeleteSession(ctx, sess.ID); err != nil {
		return errors.Wrapf(err, "revoke session %s", sess.ID)
	}
	s.announce(ctx, sess.UserID)
	return nil
}

// Authenticate resolves a bearer token to its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperr.ErrSessionExpired
	}
	sess, err := s.current(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != claims.UserID {
		return nil, apperr.ErrSessionExpired
	}
	return sess, nil
}

// current returns the session, or nil when it is gone or expired.
func (s *Service) current(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", sessionID)
	}
	if sess.Expired(s.now()) {
		return nil, nil
	}
	return sess, nil
}

// ObserveSession emits the session right away and again on every auth
// event of its user. Once the session is revoked or expired it emits nil.
func (s *Service) ObserveSession(ctx context.Context, sess *models.Session) (*feed.Feed[*models.Session], error) {
	return feed.Start(ctx, s.broker, s.subjects.Session(sess.UserID), sessionRecheck, func(ctx context.Context) (*models.Session, error) {
		return s.current(ctx, sess.ID)
	})
}
