package presence

import (
	"context"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"vault/broker"
	"vault/feed"
	"vault/models"
)

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

// Tracker writes the local user's heartbeats and answers status questions
// about peers. Heartbeats are written on activity, not on a timer.
type Tracker struct {
	store    Store
	broker   broker.Broker
	subjects broker.Subjects
	tick     time.Duration
	now      func() time.Time
}

func NewTracker(s Store, b broker.Broker, subjects broker.Subjects, tick time.Duration) *Tracker {
	return &Tracker{store: s, broker: b, subjects: subjects, tick: tick, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) Heartbeat(ctx context.Context, userID string) error {
	if err := t.store.TouchLastSeen(ctx, userID, t.now().UTC()); err != nil {
		return errors.Wrapf(err, "heartbeat %s", userID)
	}
	if err := t.broker.Publish(ctx, t.subjects.Presence(userID), nil); err != nil {
		jww.WARN.Printf("[presence] announce %s: %v", userID, err)
	}
	return nil
}

func (t *Tracker) Status(ctx context.Context, userID string) (Status, error) {
	u, err := t.store.GetUser(ctx, userID)
	if err != nil {
		return Status{}, errors.Wrapf(err, "presence of %s", userID)
	}
	return Describe(userID, u.LastSeen, t.now()), nil
}

// Watch emits the peer's status whenever they heartbeat and on every tick,
// so a silent peer drifts to offline without any event being pushed.
func (t *Tracker) Watch(ctx context.Context, userID string) (*feed.Feed[Status], error) {
	return feed.Start(ctx, t.broker, t.subjects.Presence(userID), t.tick, func(ctx context.Context) (Status, error) {
		return t.Status(ctx, userID)
	})
}
