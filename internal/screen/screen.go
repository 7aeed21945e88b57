// Package screen owns the per-screen view state and its polling subscription.
// A screen starts polling on Mount and stops, synchronously, on Unmount; after
// Unmount returns its view no longer changes.
package screen

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
)

// ErrNotSignedIn is returned when a screen that needs the user is used without a session.
var ErrNotSignedIn = errors.New("not signed in")

// ErrNotSynced is returned by Conversation.Send before the conversation has loaded.
var ErrNotSynced = errors.New("conversation has not loaded yet")

// Session exposes the signed-in user. *session.Keeper implements it.
type Session interface {
	Current() (chat.User, bool)
}

// Intervals holds the refresh cadence of each polled screen.
type Intervals struct {
	DirectChat time.Duration
	ChatList   time.Duration
	GroupList  time.Duration
	GroupChat  time.Duration
}

// DefaultIntervals are the cadences of the original client.
var DefaultIntervals = Intervals{
	DirectChat: 3 * time.Second,
	ChatList:   10 * time.Second,
	GroupList:  6 * time.Second,
	GroupChat:  3 * time.Second,
}

// Deps are the collaborators shared by all screens.
type Deps struct {
	Scheduler *poll.Scheduler
	Fetcher   backend.Fetcher
	Actions   backend.Actions
	Tracker   *outbox.Tracker
	Session   Session
	Intervals Intervals
	Log       *zap.Logger
}

func (d Deps) self() (chat.ID, error) {
	if d.Session == nil {
		return "", ErrNotSignedIn
	}
	u, ok := d.Session.Current()
	if !ok || u.ID == "" {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

// State is the load state every polled screen reports.
type State struct {
	Mounted bool
	// Loading is true from Mount until the first attempt settles.
	Loading bool
	// Err is the last poll failure; the view keeps the previous data.
	Err       error
	UpdatedAt time.Time
}

// base carries the mount bookkeeping shared by polled screens.
type base struct {
	mu       sync.Mutex
	sub      *poll.Subscription
	state    State
	onChange func()
}

// SetOnChange registers fn to be called after every view change. fn runs on
// a polling goroutine and must not block.
func (b *base) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *base) notify() {
	b.mu.Lock()
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// beginMount must be called with mu held.
func (b *base) beginMount() {
	b.state.Mounted = true
	b.state.Loading = true
	b.state.Err = nil
}

// Unmount stops polling. It is idempotent.
func (b *base) Unmount() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.state.Mounted = false
	b.state.Loading = false
	b.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// Mounted reports whether the screen is polling.
func (b *base) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Mounted
}

// settleLocked records a settled attempt; mu must be held.
func (b *base) settleLocked(err error) {
	b.state.Loading = false
	b.state.Err = err
	if err == nil {
		b.state.UpdatedAt = time.Now()
	}
}

func (b *base) fail(err error) {
	b.mu.Lock()
	b.settleLocked(err)
	b.mu.Unlock()
	b.notify()
}
