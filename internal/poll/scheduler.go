// Package poll runs the repeating snapshot fetches of mounted screens.
package poll

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/logging"
)

// DefaultAttemptTimeout bounds one fetch when the scheduler is built without a timeout.
const DefaultAttemptTimeout = 10 * time.Second

// Observer is told about every settled attempt, successful or not.
type Observer interface {
	PollSettled(key string, err error)
}

// Outcome is the payload of poll.applied and poll.failed events.
type Outcome struct {
	Key  string
	Err  error
	Took time.Duration
}

// Scheduler owns the live subscriptions, at most one per key.
type Scheduler struct {
	timeout  time.Duration
	observer Observer
	bus      *bus.Bus
	log      *zap.Logger

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewScheduler creates a scheduler. Each attempt is bounded by attemptTimeout.
// observer and b may be nil.
func NewScheduler(attemptTimeout time.Duration, observer Observer, b *bus.Bus, log *zap.Logger) *Scheduler {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Scheduler{
		timeout:  attemptTimeout,
		observer: observer,
		bus:      b,
		log:      logging.OrNop(log),
		subs:     make(map[string]*Subscription),
	}
}

// Task describes one polled resource.
//
// Apply and Fail run on the fetching goroutine while the subscription guard
// is held: they must not block on the UI thread and must not call Stop on
// their own subscription.
type Task[T any] struct {
	Key      string
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	Apply    func(T)
	Fail     func(error) // optional
}

// Run starts polling task: one fetch now, then one per interval. A live
// subscription with the same key is stopped first.
func Run[T any](ctx context.Context, s *Scheduler, task Task[T]) *Subscription {
	if task.Interval <= 0 {
		panic("poll: task interval must be positive")
	}

	s.mu.Lock()
	old := s.subs[task.Key]
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		key:      task.Key,
		interval: task.Interval,
		sched:    s,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	sub.attempt = func(ctx context.Context) {
		attemptTask(ctx, s, sub, task)
	}

	s.mu.Lock()
	s.subs[task.Key] = sub
	s.mu.Unlock()

	s.log.Debug("subscription started", zap.String("key", task.Key), zap.Duration("interval", task.Interval))
	go sub.loop(ctx)
	return sub
}

func attemptTask[T any](ctx context.Context, s *Scheduler, sub *Subscription, task Task[T]) {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	v, err := task.Fetch(actx)
	took := time.Since(start)
	sub.attempts.Add(1)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped {
		s.log.Debug("discarding result of stopped subscription", zap.String("key", sub.key))
		return
	}

	if s.observer != nil {
		s.observer.PollSettled(sub.key, err)
	}
	outcome := Outcome{Key: sub.key, Err: err, Took: took}

	if err != nil {
		if errors.Is(err, backend.ErrNoUpdate) {
			s.log.Debug("poll returned no update", zap.String("key", sub.key))
		} else {
			s.log.Warn("poll failed", zap.String("key", sub.key), zap.Duration("took", took), zap.Error(err))
		}
		s.bus.Publish(bus.NewEvent(bus.KindPollFailed, outcome))
		if task.Fail != nil {
			task.Fail(err)
		}
		return
	}

	task.Apply(v)
	s.bus.Publish(bus.NewEvent(bus.KindPollApplied, outcome))
}

// Active returns the keys of live subscriptions, sorted.
func (s *Scheduler) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StopAll stops every live subscription. Used on logout and shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}
}

func (s *Scheduler) forget(sub *Subscription) {
	s.mu.Lock()
	if s.subs[sub.key] == sub {
		delete(s.subs, sub.key)
	}
	s.mu.Unlock()
}
