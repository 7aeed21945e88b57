package tui

import (
	"errors"
	"time"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	"github.com/matheus3301/mingle/internal/screen"
)

// activity folds poll and message events into what the status bar shows
// next to the connectivity state. It is only touched on the UI goroutine.
type activity struct {
	lastSync   time.Time
	syncFailed bool
	unsent     map[string]bool // tmp ids of failed sends
}

func newActivity() *activity {
	return &activity{unsent: make(map[string]bool)}
}

// observe applies evt and reports whether the status bar needs a redraw.
func (a *activity) observe(evt bus.Event) bool {
	switch evt.Kind {
	case bus.KindPollApplied:
		a.lastSync = evt.Timestamp
		a.syncFailed = false
	case bus.KindPollFailed:
		out, ok := evt.Payload.(poll.Outcome)
		if ok && errors.Is(out.Err, backend.ErrNoUpdate) {
			return false
		}
		a.syncFailed = true
	case bus.KindMessageFailed:
		if f, ok := evt.Payload.(outbox.Failure); ok {
			a.unsent[f.TmpID] = true
		}
	case bus.KindMessageAck:
		if ack, ok := evt.Payload.(outbox.Ack); ok {
			delete(a.unsent, ack.TmpID)
		}
	case bus.KindMessageDiscarded:
		if d, ok := evt.Payload.(outbox.Discarded); ok {
			delete(a.unsent, d.TmpID)
		}
	case bus.KindSignedOut:
		*a = *newActivity()
	default:
		return false
	}
	return true
}

// Unsent is the number of failed sends still waiting for retry or discard.
func (a *activity) Unsent() int { return len(a.unsent) }

// sendAlert is the flash text for a send or retry that did not go through.
// Transport details stay in the log.
func sendAlert(out outbox.Outcome, err error) string {
	switch {
	case errors.Is(err, screen.ErrNotSynced):
		return "Conversation is still loading, try again in a moment"
	case out.Message.FailReason != "":
		return "Not sent: " + out.Message.FailReason
	default:
		return "Not sent: " + backend.UserMessage(err)
	}
}
