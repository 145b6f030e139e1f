package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vault/broker"
	"vault/memstore"
	"vault/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, tick time.Duration) (*Tracker, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	s := memstore.NewWithClock(clk.Now)
	require.NoError(t, s.CreateUser(context.Background(), &models.User{ID: "peer", DisplayName: "Peer", Email: "peer@example.com"}))
	tr := NewTracker(s, broker.NewMemory(), broker.Subjects{Prefix: "test"}, tick).WithClock(clk.Now)
	return tr, clk
}

func TestTrackerHeartbeatAndStatus(t *testing.T) {
	tr, clk := setup(t, 0)
	ctx := context.Background()

	st, err := tr.Status(ctx, "peer")
	require.NoError(t, err)
	assert.Equal(t, "Offline", st.Label)

	require.NoError(t, tr.Heartbeat(ctx, "peer"))
	st, err = tr.Status(ctx, "peer")
	require.NoError(t, err)
	assert.True(t, st.Online)

	clk.Advance(3 * time.Minute)
	st, err = tr.Status(ctx, "peer")
	require.NoError(t, err)
	assert.False(t, st.Online)
	assert.Equal(t, "Last seen 3m ago", st.Label)
}

func TestTrackerHeartbeatUnknownUser(t *testing.T) {
	tr, _ := setup(t, 0)
	assert.Error(t, tr.Heartbeat(context.Background(), "ghost"))
}

func TestTrackerWatchFollowsHeartbeats(t *testing.T) {
	tr, _ := setup(t, 0)
	ctx := context.Background()

	w, err := tr.Watch(ctx, "peer")
	require.NoError(t, err)
	defer w.Close()

	first := <-w.C()
	assert.False(t, first.Online)

	require.NoError(t, tr.Heartbeat(ctx, "peer"))
	second := <-w.C()
	assert.True(t, second.Online)
}

func TestTrackerWatchDriftsOfflineOnTick(t *testing.T) {
	tr, clk := setup(t, 5*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, tr.Heartbeat(ctx, "peer"))

	w, err := tr.Watch(ctx, "peer")
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, (<-w.C()).Online)
	clk.Advance(OnlineWindow)

	require.Eventually(t, func() bool {
		st := <-w.C()
		return !st.Online
	}, 2*time.Second, time.Millisecond)
}
