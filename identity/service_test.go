package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"vault/apperr"
	"vault/broker"
	"vault/feed"
	"vault/identity"
	"vault/identity/mocks"
	"vault/location"
	"vault/memstore"
	"vault/models"
	"vault/presence"
	"vault/utils"
)

var subjects = broker.Subjects{Prefix: "test"}

type fixture struct {
	store  *memstore.Store
	broker *broker.Memory
	svc    *identity.Service
	rep    *location.Reporter
}

func newFixture(t *testing.T, p identity.Provider) *fixture {
	t.Helper()
	s := memstore.New()
	b := broker.NewMemory()
	tracker := presence.NewTracker(s, b, subjects, 0)
	rep := location.NewReporter(s, tracker, time.Minute, 10)
	if p == nil {
		p = identity.NewLocalProvider(s, 5, time.Minute)
	}
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	return &fixture{
		store:  s,
		broker: b,
		svc:    identity.NewService(p, s, tracker, rep, b, subjects, tokens),
		rep:    rep,
	}
}

func nextSession(t *testing.T, f *feed.Feed[*models.Session]) *models.Session {
	t.Helper()
	select {
	case v, ok := <-f.C():
		require.True(t, ok, "feed closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
	}
	return nil
}

func TestSignUpWritesProfileAndSession(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	loc := &models.Location{Latitude: 1, Longitude: 2, Accuracy: 3, Timestamp: time.Now().UTC()}
	device := &models.DeviceInfo{Brand: "Acme", Platform: "android"}

	res, err := fx.svc.SignUp(ctx, identity.SignUpInput{
		Username: " Alice ",
		Email:    "alice@example.com",
		Password: "secret1",
		Device:   device,
		Location: loc,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Alice", res.Session.DisplayName)

	u, err := fx.store.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NotNil(t, u.LastSeen)
	require.NotNil(t, u.LastLogin)
	assert.True(t, presence.IsOnline(u.LastSeen, time.Now()))
	assert.Equal(t, device, u.Device)
	require.NotNil(t, u.RegistrationLocation)
	assert.Equal(t, 1.0, u.RegistrationLocation.Latitude)

	history, err := fx.rep.History(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SampleRegistration, history[0].Type)

	sess, err := fx.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, sess.ID)
}

func TestSignInMergesProfile(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	up, err := fx.svc.SignUp(ctx, identity.SignUpInput{Username: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	loc := &models.Location{Latitude: 5, Longitude: 6, Timestamp: time.Now().UTC()}
	in, err := fx.svc.SignIn(ctx, identity.SignInInput{Email: "alice@example.com", Password: "secret1", Location: loc})
	require.NoError(t, err)
	assert.Equal(t, up.User.ID, in.User.ID)
	assert.NotEqual(t, up.Session.ID, in.Session.ID)
	assert.Equal(t, "Alice", in.User.DisplayName, "sign-in keeps the display name")
	require.NotNil(t, in.User.Location)
	assert.Equal(t, 5.0, in.User.Location.Latitude)
	assert.Nil(t, in.User.RegistrationLocation)

	history, err := fx.rep.History(ctx, up.User.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.SampleLogin, history[0].Type)
}

func TestSignInWrongPassword(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	_, err := fx.svc.SignUp(ctx, identity.SignUpInput{Username: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = fx.svc.SignIn(ctx, identity.SignInInput{Email: "alice@example.com", Password: "nope"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password", apperr.Public(err).Message)
}

func TestMissingFieldsNeverReachProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	fx := newFixture(t, p)
	ctx := context.Background()

	_, err := fx.svc.SignUp(ctx, identity.SignUpInput{Username: " ", Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrMissingFields)
	_, err = fx.svc.SignIn(ctx, identity.SignInInput{Email: "a@b.co"})
	assert.ErrorIs(t, err, apperr.ErrMissingFields)
	assert.Equal(t, "All fields are required", apperr.Public(err).Message)
}

func TestProviderErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want *apperr.Error
	}{
		{"email in use", &identity.ProviderError{Code: identity.CodeEmailInUse}, apperr.ErrEmailAlreadyRegistered},
		{"invalid email", &identity.ProviderError{Code: identity.CodeInvalidEmail}, apperr.ErrInvalidEmailFormat},
		{"weak password", &identity.ProviderError{Code: identity.CodeWeakPassword}, apperr.ErrWeakPassword},
		{"password too long", &identity.ProviderError{Code: identity.CodePasswordTooLong}, apperr.ErrPasswordTooLong},
		{"rate limited", &identity.ProviderError{Code: identity.CodeTooManyRequests}, apperr.ErrRateLimited},
		{"unnamed provider code", &identity.ProviderError{Code: "auth/internal-error"}, apperr.ErrUnknown},
		{"foreign error", errors.New("dial tcp 10.0.0.7:3306: connection refused"), apperr.ErrUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := mocks.NewMockProvider(ctrl)
			p.EXPECT().CreateAccount(gomock.Any(), "alice@example.com", "secret1").Return(nil, tc.err)
			fx := newFixture(t, p)

			_, err := fx.svc.SignUp(context.Background(), identity.SignUpInput{Username: "Alice", Email: "alice@example.com", Password: "secret1"})
			assert.ErrorIs(t, err, tc.want)
			pub := apperr.Public(err)
			assert.Equal(t, tc.want.Message, pub.Message)
			assert.NotContains(t, pub.Message, "10.0.0.7")
		})
	}
}

func TestSignInUsesProviderAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	fx := newFixture(t, p)
	ctx := context.Background()
	require.NoError(t, fx.store.CreateUser(ctx, &models.User{ID: "u1", DisplayName: "Alice", Email: "alice@example.com"}))

	p.EXPECT().VerifyPassword(gomock.Any(), "alice@example.com", "secret1").
		Return(&identity.Account{ID: "u1", Email: "alice@example.com"}, nil)

	res, err := fx.svc.SignIn(ctx, identity.SignInInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", res.Session.UserID)
	assert.Equal(t, "Alice", res.Session.DisplayName)
}

func TestObserveSessionAndSignOut(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	res, err := fx.svc.SignUp(ctx, identity.SignUpInput{Username: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	f, err := fx.svc.ObserveSession(ctx, res.Session)
	require.NoError(t, err)
	defer f.Close()

	first := nextSession(t, f)
	require.NotNil(t, first)
	assert.Equal(t, res.Session.ID, first.ID)

	require.NoError(t, fx.svc.SignOut(ctx, res.Session))
	assert.Nil(t, nextSession(t, f))

	_, err = fx.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.svc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
}
