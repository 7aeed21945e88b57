package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/mingle/internal/bus"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []error
}

func (o *recordingObserver) PollSettled(_ string, err error) {
	o.mu.Lock()
	o.errs = append(o.errs, err)
	o.mu.Unlock()
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.errs)
}

func TestFirstFetchIsImmediate(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	var fetches atomic.Int32
	var applied atomic.Value

	sub := Run(context.Background(), s, Task[string]{
		Key:      "chatlist",
		Interval: time.Hour,
		Fetch: func(context.Context) (string, error) {
			fetches.Add(1)
			return "snapshot", nil
		},
		Apply: func(v string) { applied.Store(v) },
	})
	defer sub.Stop()

	waitFor(t, "initial apply", func() bool { return applied.Load() != nil })
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if applied.Load().(string) != "snapshot" {
		t.Errorf("applied = %v", applied.Load())
	}
}

func TestTicksWhileFetchingAreSkipped(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	var inFlight, maxInFlight, fetches atomic.Int32
	release := make(chan struct{})

	sub := Run(context.Background(), s, Task[int]{
		Key:      "conversation:direct:2",
		Interval: 5 * time.Millisecond,
		Fetch: func(context.Context) (int, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			if fetches.Add(1) == 1 {
				<-release
			}
			return 0, nil
		},
		Apply: func(int) {},
	})
	defer sub.Stop()

	waitFor(t, "ticks to be skipped", func() bool { return sub.Skipped() >= 3 })
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches while first is outstanding = %d, want 1", got)
	}
	close(release)

	waitFor(t, "polling to resume", func() bool { return fetches.Load() >= 3 })
	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", got)
	}
}

func TestStopDiscardsOutstandingResult(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	var applied, failed atomic.Int32

	sub := Run(context.Background(), s, Task[string]{
		Key:      "conversation:group:4",
		Interval: time.Hour,
		Fetch: func(context.Context) (string, error) {
			defer close(finished)
			close(started)
			<-release // ignores cancellation on purpose
			return "late", nil
		},
		Apply: func(string) { applied.Add(1) },
		Fail:  func(error) { failed.Add(1) },
	})

	<-started
	sub.Stop()
	close(release)
	<-finished
	time.Sleep(10 * time.Millisecond)

	if applied.Load() != 0 || failed.Load() != 0 {
		t.Errorf("after Stop: applied = %d, failed = %d, want 0/0", applied.Load(), failed.Load())
	}
	if !sub.Stopped() {
		t.Error("Stopped() = false")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	sub := Run(context.Background(), s, Task[int]{
		Key:      "grouplist",
		Interval: time.Millisecond,
		Fetch:    func(context.Context) (int, error) { return 1, nil },
		Apply:    func(int) {},
	})

	sub.Stop()
	sub.Stop()
	if len(s.Active()) != 0 {
		t.Errorf("Active() = %v, want empty", s.Active())
	}
}

func TestNoTicksAfterStop(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	var fetches atomic.Int32
	sub := Run(context.Background(), s, Task[int]{
		Key:      "chatlist",
		Interval: 2 * time.Millisecond,
		Fetch: func(context.Context) (int, error) {
			fetches.Add(1)
			return 0, nil
		},
		Apply: func(int) {},
	})
	waitFor(t, "a few fetches", func() bool { return fetches.Load() >= 3 })

	sub.Stop()
	time.Sleep(5 * time.Millisecond) // let an already-launched attempt drain
	after := fetches.Load()
	time.Sleep(20 * time.Millisecond)
	if got := fetches.Load(); got != after {
		t.Errorf("fetches grew from %d to %d after Stop", after, got)
	}
}

func TestFailureKeepsPolling(t *testing.T) {
	obs := &recordingObserver{}
	s := NewScheduler(time.Second, obs, nil, nil)
	var calls atomic.Int32
	var applied, failed atomic.Int32

	sub := Run(context.Background(), s, Task[int]{
		Key:      "chatlist",
		Interval: 2 * time.Millisecond,
		Fetch: func(context.Context) (int, error) {
			if calls.Add(1) == 1 {
				return 0, errors.New("connection refused")
			}
			return 1, nil
		},
		Apply: func(int) { applied.Add(1) },
		Fail:  func(error) { failed.Add(1) },
	})
	defer sub.Stop()

	waitFor(t, "recovery", func() bool { return applied.Load() >= 1 })
	if failed.Load() != 1 {
		t.Errorf("failed = %d, want 1", failed.Load())
	}
	if obs.count() < 2 {
		t.Errorf("observer saw %d outcomes, want >= 2", obs.count())
	}
}

func TestAttemptTimeout(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, nil, nil, nil)
	errCh := make(chan error, 1)

	sub := Run(context.Background(), s, Task[int]{
		Key:      "chatlist",
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		Apply: func(int) {},
		Fail: func(err error) {
			select {
			case errCh <- err:
			default:
			}
		},
	})
	defer sub.Stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Fail(%v), want DeadlineExceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial fetch never settled")
	}
}

func TestRunReplacesSameKey(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	task := Task[int]{
		Key:      "conversation:direct:2",
		Interval: time.Hour,
		Fetch:    func(context.Context) (int, error) { return 0, nil },
		Apply:    func(int) {},
	}

	first := Run(context.Background(), s, task)
	second := Run(context.Background(), s, task)
	defer second.Stop()

	if !first.Stopped() {
		t.Error("first subscription should be stopped")
	}
	if active := s.Active(); len(active) != 1 || active[0] != task.Key {
		t.Errorf("Active() = %v", active)
	}
}

func TestStopAll(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	var subs []*Subscription
	for _, key := range []string{"chatlist", "grouplist", "conversation:direct:2"} {
		subs = append(subs, Run(context.Background(), s, Task[int]{
			Key:      key,
			Interval: time.Hour,
			Fetch:    func(context.Context) (int, error) { return 0, nil },
			Apply:    func(int) {},
		}))
	}
	if got := len(s.Active()); got != 3 {
		t.Fatalf("Active() len = %d, want 3", got)
	}

	s.StopAll()
	if got := s.Active(); len(got) != 0 {
		t.Errorf("Active() after StopAll = %v", got)
	}
	for _, sub := range subs {
		if !sub.Stopped() {
			t.Errorf("%s not stopped", sub.Key())
		}
	}
}

func TestParentCancelEndsSubscription(t *testing.T) {
	s := NewScheduler(time.Second, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub := Run(ctx, s, Task[int]{
		Key:      "grouplist",
		Interval: time.Hour,
		Fetch:    func(context.Context) (int, error) { return 0, nil },
		Apply:    func(int) {},
	})

	cancel()
	waitFor(t, "subscription to end", sub.Stopped)
	waitFor(t, "registry cleanup", func() bool { return len(s.Active()) == 0 })
}

func TestOutcomesPublished(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("poll.", 8)
	defer unsub()

	s := NewScheduler(time.Second, nil, b, nil)
	sub := Run(context.Background(), s, Task[int]{
		Key:      "chatlist",
		Interval: time.Hour,
		Fetch:    func(context.Context) (int, error) { return 0, nil },
		Apply:    func(int) {},
	})
	defer sub.Stop()

	select {
	case evt := <-ch:
		out, ok := evt.Payload.(Outcome)
		if evt.Kind != bus.KindPollApplied || !ok || out.Key != "chatlist" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no poll event")
	}
}
