package store

// Outbox entry states.
const (
	OutboxQueued = "queued"
	OutboxSent   = "sent"
	OutboxFailed = "failed"
)

// OutboxEntry is one row of the local send log.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	Conversation string // chat.Key string form, e.g. "direct:7"
	Body         string
	Status       string
	ErrorMessage string
	Attempts     int
	CreatedAt    int64
	UpdatedAt    int64
}
