package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Subscription is one screen's polling loop for one resource.
type Subscription struct {
	key      string
	interval time.Duration
	sched    *Scheduler
	attempt  func(ctx context.Context)

	cancel context.CancelFunc
	done   chan struct{}

	inFlight atomic.Bool
	skipped  atomic.Int64
	attempts atomic.Int64

	// mu guards stopped and serializes Apply/Fail against Stop.
	mu      sync.Mutex
	stopped bool
}

// Key returns the resource key.
func (sub *Subscription) Key() string { return sub.key }

// Interval returns the tick interval.
func (sub *Subscription) Interval() time.Duration { return sub.interval }

// Skipped returns how many ticks were dropped because a fetch was outstanding.
func (sub *Subscription) Skipped() int64 { return sub.skipped.Load() }

// Attempts returns how many fetches have settled.
func (sub *Subscription) Attempts() int64 { return sub.attempts.Load() }

// Stopped reports whether the subscription has been stopped.
func (sub *Subscription) Stopped() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.stopped
}

// Stop ends the subscription. When Stop returns, no tick will fire and no
// Apply or Fail will run, including for a fetch that is still outstanding.
// Stop is idempotent.
func (sub *Subscription) Stop() {
	sub.halt()
	sub.cancel()
	<-sub.done
	sub.sched.forget(sub)
}

// halt marks the subscription stopped. Taking mu waits out an Apply in progress.
func (sub *Subscription) halt() {
	sub.mu.Lock()
	sub.stopped = true
	sub.mu.Unlock()
}

func (sub *Subscription) loop(ctx context.Context) {
	defer close(sub.done)
	defer sub.sched.forget(sub)
	defer sub.halt()

	sub.launch(ctx)

	ticker := time.NewTicker(sub.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sub.sched.log.Debug("subscription stopped",
				zap.String("key", sub.key),
				zap.Int64("attempts", sub.attempts.Load()),
				zap.Int64("skipped", sub.skipped.Load()),
			)
			return
		case <-ticker.C:
			sub.launch(ctx)
		}
	}
}

// launch starts a fetch unless one is outstanding, in which case the tick is dropped.
func (sub *Subscription) launch(ctx context.Context) {
	if !sub.inFlight.CompareAndSwap(false, true) {
		sub.skipped.Add(1)
		return
	}
	go func() {
		defer sub.inFlight.Store(false)
		sub.attempt(ctx)
	}()
}
