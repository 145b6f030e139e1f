package location

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vault/apperr"
	"vault/memstore"
	"vault/models"
	"vault/store"
)

type countingHeartbeater struct{ n int32 }

func (c *countingHeartbeater) Heartbeat(context.Context, string) error {
	atomic.AddInt32(&c.n, 1)
	return nil
}

func newReporter(t *testing.T, interval time.Duration, minDistance float64) (*Reporter, *memstore.Store, *countingHeartbeater) {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.CreateUser(context.Background(), &models.User{ID: "u1", DisplayName: "U", Email: "u@example.com"}))
	hb := &countingHeartbeater{}
	return NewReporter(s, hb, interval, minDistance), s, hb
}

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func at(lat, lon float64, offset time.Duration) models.Location {
	return models.Location{Latitude: lat, Longitude: lon, Accuracy: 5, Timestamp: base.Add(offset)}
}

func TestDistance(t *testing.T) {
	paris := models.Location{Latitude: 48.8566, Longitude: 2.3522}
	london := models.Location{Latitude: 51.5074, Longitude: -0.1278}
	assert.InDelta(t, 343500, Distance(paris, london), 1000)
	assert.Zero(t, Distance(paris, paris))
}

func TestReportThresholds(t *testing.T) {
	r, s, hb := newReporter(t, time.Minute, 50)
	ctx := context.Background()

	ok, err := r.Report(ctx, "u1", at(10, 10, 0))
	require.NoError(t, err)
	assert.True(t, ok, "first sample is always accepted")

	ok, err = r.Report(ctx, "u1", at(11, 11, 30*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "too soon")

	ok, err = r.Report(ctx, "u1", at(10.0001, 10, 2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "too close")

	ok, err = r.Report(ctx, "u1", at(10.01, 10, 3*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := r.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryKey(base.Add(3*time.Minute), models.SampleUpdate), entries[0].Key)
	assert.Equal(t, models.SampleUpdate, entries[0].Type)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Location)
	assert.Equal(t, 10.01, u.Location.Latitude)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hb.n))
}

func TestReportRejectsBadCoordinates(t *testing.T) {
	r, _, _ := newReporter(t, time.Minute, 0)
	_, err := r.Report(context.Background(), "u1", at(91, 0, 0))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestRecordPrimesThresholds(t *testing.T) {
	r, _, hb := newReporter(t, time.Minute, 0)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "u1", at(1, 1, 0), models.SampleLogin))
	ok, err := r.Report(ctx, "u1", at(1, 1, 10*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, atomic.LoadInt32(&hb.n))

	entries, err := r.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.SampleLogin, entries[0].Type)
}

func TestHistoryNewestFirstAcrossFractionWidths(t *testing.T) {
	r, _, _ := newReporter(t, 0, 0)
	ctx := context.Background()

	offsets := []time.Duration{
		500 * time.Millisecond,
		510 * time.Millisecond,
		time.Second,
		0,
		100 * time.Millisecond,
	}
	for _, off := range offsets {
		require.NoError(t, r.Record(ctx, "u1", at(1, 1, off), models.SampleUpdate))
	}

	entries, err := r.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, len(offsets))
	want := []time.Duration{time.Second, 510 * time.Millisecond, 500 * time.Millisecond, 100 * time.Millisecond, 0}
	for i, off := range want {
		assert.True(t, base.Add(off).Equal(entries[i].Location.Timestamp), "entry %d: got %s", i, entries[i].Key)
	}
}

func TestHistoryKeySortsLikeTime(t *testing.T) {
	whole := models.HistoryKey(base, models.SampleUpdate)
	half := models.HistoryKey(base.Add(500*time.Millisecond), models.SampleUpdate)
	later := models.HistoryKey(base.Add(510*time.Millisecond), models.SampleUpdate)
	assert.Less(t, whole, half)
	assert.Less(t, half, later)
	assert.Len(t, whole, len(later))
}

func TestRecordKeepsSamplesOfDifferentTypesAtSameInstant(t *testing.T) {
	r, _, _ := newReporter(t, 0, 0)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, "u1", at(1, 1, 0), models.SampleLogin))
	require.NoError(t, r.Record(ctx, "u1", at(2, 2, 0), models.SampleUpdate))
	err := r.Record(ctx, "u1", at(3, 3, 0), models.SampleUpdate)
	assert.ErrorIs(t, err, store.ErrConflict, "history entries are never overwritten")

	entries, err := r.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.Type == models.SampleUpdate {
			assert.Equal(t, 2.0, e.Location.Latitude)
		}
	}
}

func TestRunConsumesPushedSamples(t *testing.T) {
	r, _, _ := newReporter(t, time.Millisecond, 0)
	sampler := NewPushSampler()

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), "u1", sampler)
		close(done)
	}()

	sampler.Push(at(1, 1, 0))
	require.Eventually(t, func() bool {
		entries, _ := r.History(context.Background(), "u1", 0)
		return len(entries) == 1
	}, 2*time.Second, 5*time.Millisecond)

	sampler.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the sampler became unavailable")
	}
}

type deniedSampler struct{ calls int32 }

func (d *deniedSampler) Sample(context.Context) (models.Location, error) {
	atomic.AddInt32(&d.calls, 1)
	return models.Location{}, apperr.ErrLocationPermissionDenied
}

func TestRunStopsQuietlyOnPermissionDenied(t *testing.T) {
	r, _, _ := newReporter(t, time.Millisecond, 0)
	d := &deniedSampler{}

	r.Run(context.Background(), "u1", d)

	assert.Equal(t, int32(1), atomic.LoadInt32(&d.calls))
	entries, err := r.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r, _, _ := newReporter(t, time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, "u1", NewPushSampler())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
}

func TestPushSamplerKeepsNewest(t *testing.T) {
	p := NewPushSampler()
	p.Push(at(1, 1, 0))
	p.Push(at(2, 2, 0))

	loc, err := p.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.0, loc.Latitude)
}
