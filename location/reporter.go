// Package location records the positions users report and keeps their
// location history.
package location

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"go.uber.org/ratelimit"
	"vault/apperr"
	"vault/models"
)

const defaultHistoryLimit = 100

type Store interface {
	UpsertProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	AppendLocationHistory(ctx context.Context, userID string, entry models.LocationEntry) error
	ListLocationHistory(ctx context.Context, userID string, limit int) ([]models.LocationEntry, error)
}

type Heartbeater interface {
	Heartbeat(ctx context.Context, userID string) error
}

// Reporter accepts a sample only when both the interval and the distance
// threshold have been crossed since the user's previous accepted sample.
// The first sample of a user is always accepted.
type Reporter struct {
	store       Store
	presence    Heartbeater
	interval    time.Duration
	minDistance float64
	now         func() time.Time

	mu   sync.Mutex
	last map[string]models.Location
}

func NewReporter(s Store, hb Heartbeater, interval time.Duration, minDistance float64) *Reporter {
	return &Reporter{
		store:       s,
		presence:    hb,
		interval:    interval,
		minDistance: minDistance,
		now:         time.Now,
		last:        make(map[string]models.Location),
	}
}

func validate(loc models.Location) error {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return apperr.InvalidArg("coordinates out of range")
	}
	return nil
}

func (r *Reporter) accepts(userID string, loc models.Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.last[userID]
	if !ok {
		return true
	}
	if loc.Timestamp.Sub(prev.Timestamp) < r.interval {
		return false
	}
	return Distance(prev, loc) >= r.minDistance
}

func (r *Reporter) remember(userID string, loc models.Location) {
	r.mu.Lock()
	r.last[userID] = loc
	r.mu.Unlock()
}

// Report handles one update sample. It returns whether the sample passed
// the thresholds and was written.
func (r *Reporter) Report(ctx context.Context, userID string, loc models.Location) (bool, error) {
	if err := validate(loc); err != nil {
		return false, err
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = r.now()
	}
	loc.Timestamp = loc.Timestamp.UTC()

	if !r.accepts(userID, loc) {
		jww.TRACE.Printf("[location] %s: sample below thresholds", userID)
		return false, nil
	}

	if err := r.store.UpsertProfile(ctx, userID, models.ProfileUpdate{Location: &loc}); err != nil {
		return false, errors.Wrapf(err, "update location of %s", userID)
	}
	if err := r.presence.Heartbeat(ctx, userID); err != nil {
		jww.WARN.Printf("[location] heartbeat %s: %v", userID, err)
	}
	if err := r.Record(ctx, userID, loc, models.SampleUpdate); err != nil {
		return false, err
	}
	return true, nil
}

// Record appends loc to the user's history without applying thresholds.
// Login and registration samples go through here.
func (r *Reporter) Record(ctx context.Context, userID string, loc models.Location, typ models.SampleType) error {
	if loc.Timestamp.IsZero() {
		loc.Timestamp = r.now().UTC()
	}
	entry := models.LocationEntry{
		Key:        models.HistoryKey(loc.Timestamp, typ),
		Location:   loc,
		Type:       typ,
		RecordedAt: r.now().UTC(),
	}
	if err := r.store.AppendLocationHistory(ctx, userID, entry); err != nil {
		return errors.Wrapf(err, "append %s sample for %s", typ, userID)
	}
	r.remember(userID, loc)
	return nil
}

// Run samples at most once per interval until ctx is done or the sampler
// reports that location is denied or unavailable. Those two end the loop
// quietly; the user simply has no location.
func (r *Reporter) Run(ctx context.Context, userID string, sampler Sampler) {
	limiter := ratelimit.NewUnlimited()
	if r.interval > 0 {
		limiter = ratelimit.New(1, ratelimit.Per(r.interval), ratelimit.WithoutSlack)
	}

	for {
		if !take(ctx, limiter) {
			return
		}

		loc, err := sampler.Sample(ctx)
		switch {
		case errors.Is(err, apperr.ErrLocationPermissionDenied), errors.Is(err, apperr.ErrLocationUnavailable):
			jww.INFO.Printf("[location] %s: sampling stopped: %v", userID, err)
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			jww.WARN.Printf("[location] %s: sample: %v", userID, err)
			continue
		}

		if _, err := r.Report(ctx, userID, loc); err != nil {
			jww.WARN.Printf("[location] %s: %+v", userID, err)
		}
	}
}

// take waits for the limiter unless ctx ends first. An abandoned Take
// finishes on its own within one interval.
func take(ctx context.Context, limiter ratelimit.Limiter) bool {
	done := make(chan struct{})
	go func() {
		limiter.Take()
		close(done)
	}()
	select {
	case <-done:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}

func (r *Reporter) History(ctx context.Context, userID string, limit int) ([]models.LocationEntry, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	entries, err := r.store.ListLocationHistory(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "location history of %s", userID)
	}
	return entries, nil
}
