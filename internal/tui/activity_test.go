package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	"github.com/matheus3301/mingle/internal/screen"
)

func TestActivityTracksUnsent(t *testing.T) {
	a := newActivity()
	key := chat.DirectKey("2")

	a.observe(bus.NewEvent(bus.KindMessageFailed, outbox.Failure{Key: key, TmpID: "tmp-1"}))
	a.observe(bus.NewEvent(bus.KindMessageFailed, outbox.Failure{Key: key, TmpID: "tmp-2"}))
	if a.Unsent() != 2 {
		t.Fatalf("Unsent() = %d, want 2", a.Unsent())
	}
	a.observe(bus.NewEvent(bus.KindMessageAck, outbox.Ack{Key: key, TmpID: "tmp-1"}))
	a.observe(bus.NewEvent(bus.KindMessageDiscarded, outbox.Discarded{Key: key, TmpID: "tmp-2"}))
	if a.Unsent() != 0 {
		t.Errorf("Unsent() = %d, want 0", a.Unsent())
	}

	a.observe(bus.NewEvent(bus.KindMessageFailed, outbox.Failure{Key: key, TmpID: "tmp-3"}))
	a.observe(bus.NewEvent(bus.KindSignedOut, nil))
	if a.Unsent() != 0 {
		t.Errorf("Unsent() after sign-out = %d, want 0", a.Unsent())
	}
}

func TestActivityTracksSync(t *testing.T) {
	a := newActivity()

	applied := bus.NewEvent(bus.KindPollApplied, poll.Outcome{Key: "chat_list"})
	if !a.observe(applied) {
		t.Fatal("poll.applied should redraw")
	}
	if !a.lastSync.Equal(applied.Timestamp) || a.syncFailed {
		t.Errorf("after applied: lastSync=%v failed=%v", a.lastSync, a.syncFailed)
	}

	noUpdate := bus.NewEvent(bus.KindPollFailed, poll.Outcome{Key: "chat_list", Err: fmt.Errorf("load: %w", backend.ErrNoUpdate)})
	if a.observe(noUpdate) || a.syncFailed {
		t.Error("a no-update answer is not a sync failure")
	}

	if !a.observe(bus.NewEvent(bus.KindPollFailed, poll.Outcome{Key: "chat_list", Err: errors.New("connection refused")})) {
		t.Fatal("poll.failed should redraw")
	}
	if !a.syncFailed {
		t.Error("syncFailed not set")
	}

	a.observe(bus.NewEvent(bus.KindPollApplied, poll.Outcome{Key: "chat_list"}))
	if a.syncFailed {
		t.Error("a successful poll should clear syncFailed")
	}
}

func TestActivityIgnoresOtherEvents(t *testing.T) {
	a := newActivity()
	if a.observe(bus.Event{Kind: bus.KindMessageOptimistic, Timestamp: time.Now()}) {
		t.Error("message.optimistic should not redraw the status bar")
	}
}

func TestSendAlertIsGeneric(t *testing.T) {
	transport := fmt.Errorf("send to direct:2: %w", errors.New("dial tcp 127.0.0.1:8080: connection refused"))
	tests := []struct {
		name string
		out  outbox.Outcome
		err  error
		want string
	}{
		{"transport", outbox.Outcome{}, transport, "Not sent: " + backend.UserMessage(transport)},
		{"fail reason", outbox.Outcome{Message: chat.Message{FailReason: "Receiver not found"}}, transport, "Not sent: Receiver not found"},
		{"rejected", outbox.Outcome{}, &backend.RejectedError{Endpoint: "SendChat", Message: "Blocked"}, "Not sent: Blocked"},
		{"not loaded", outbox.Outcome{}, screen.ErrNotSynced, "Conversation is still loading, try again in a moment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sendAlert(tt.out, tt.err)
			if got != tt.want {
				t.Errorf("sendAlert() = %q, want %q", got, tt.want)
			}
			if strings.Contains(got, "127.0.0.1") || strings.Contains(got, "direct:2") {
				t.Errorf("sendAlert() leaks transport details: %q", got)
			}
		})
	}
}
