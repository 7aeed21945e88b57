package status

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
)

// State is the client's connectivity state as shown in the status bar.
type State string

const (
	Booting   State = "BOOTING"
	SignedOut State = "SIGNED_OUT"
	Online    State = "ONLINE"
	Degraded  State = "DEGRADED"
)

// DegradeAfter is the number of consecutive failed polls that moves ONLINE to DEGRADED.
const DegradeAfter = 2

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:   {SignedOut, Online},
	SignedOut: {Online},
	Online:    {Degraded, SignedOut},
	Degraded:  {Online, SignedOut},
}

// Machine tracks and enforces connectivity state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	failures int
	bus      *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

// Ensure moves to the given state unless the machine is already there.
func (m *Machine) Ensure(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == to {
		return nil
	}
	return m.transitionLocked(to)
}

func (m *Machine) transitionLocked(to State) error {
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.failures = 0
	m.bus.Publish(bus.NewEvent(bus.KindStatusChanged, StatusChange{From: from, To: to}))
	return nil
}

// PollSettled records the outcome of one poll attempt. Two transport or status
// failures in a row degrade an online client; any success brings it back.
// Negative-but-well-formed answers and cancellations say nothing about
// connectivity and are ignored.
func (m *Machine) PollSettled(_ string, err error) {
	if err != nil && (errors.Is(err, backend.ErrNoUpdate) || errors.Is(err, context.Canceled)) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		m.failures = 0
		if m.current == Degraded {
			_ = m.transitionLocked(Online)
		}
		return
	}

	m.failures++
	if m.current == Online && m.failures >= DegradeAfter {
		_ = m.transitionLocked(Degraded)
	}
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
