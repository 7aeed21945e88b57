package bus

import "time"

// Event kinds published by the client. Subscribers filter on the prefix before the dot.
const (
	KindStatusChanged = "session.status_changed"
	KindSignedIn      = "session.signed_in"
	KindSignedOut     = "session.signed_out"

	KindMessageOptimistic = "message.optimistic"
	KindMessageAck        = "message.send_ack"
	KindMessageFailed     = "message.send_failed"
	KindMessageDiscarded  = "message.discarded"

	KindPollApplied = "poll.applied"
	KindPollFailed  = "poll.failed"
)

// Event is a client-side notification. Payload types are documented next to the publisher.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
