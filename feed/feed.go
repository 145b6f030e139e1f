// Package feed turns broker notifications into restartable, snapshot-style
// subscriptions: each emission is the full current state as re-read by a
// loader, never a delta.
package feed

import (
	"context"
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"vault/broker"
)

type Loader[T any] func(ctx context.Context) (T, error)

type Feed[T any] struct {
	c      chan T
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start subscribes to subject, emits load's result once immediately, then
// again after every notification and every tick (tick <= 0 disables the
// ticker). Notifications that arrive while the consumer is busy coalesce
// into one reload. The feed ends when ctx is done or Close is called.
func Start[T any](ctx context.Context, b broker.Broker, subject string, tick time.Duration, load Loader[T]) (*Feed[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	notify := make(chan struct{}, 1)
	sub, err := b.Subscribe(subject, func([]byte) {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}

	f := &Feed[T]{
		c:      make(chan T),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(ctx, subject, sub, notify, tick, load)
	return f, nil
}

func (f *Feed[T]) run(ctx context.Context, subject string, sub broker.Subscription, notify <-chan struct{}, tick time.Duration, load Loader[T]) {
	defer close(f.done)
	defer close(f.c)
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			jww.WARN.Printf("[feed] unsubscribe %s: %v", subject, err)
		}
	}()

	var ticks <-chan time.Time
	if tick > 0 {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	emit := func() bool {
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			jww.WARN.Printf("[feed] reload %s: %+v", subject, err)
			return true
		}
		select {
		case f.c <- v:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
		case <-ticks:
		}
		if !emit() {
			return
		}
	}
}

// C delivers snapshots. It is closed once the feed has been torn down.
func (f *Feed[T]) C() <-chan T {
	return f.c
}

// Close unsubscribes and waits until no further value can be delivered.
func (f *Feed[T]) Close() {
	f.once.Do(f.cancel)
	<-f.done
}
