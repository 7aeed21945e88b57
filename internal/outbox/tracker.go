// Package outbox tracks optimistic sends from staging until a snapshot confirms them.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/logging"
	chatsync "github.com/matheus3301/mingle/internal/sync"
)

var (
	// ErrEmptyBody is returned for a blank message; nothing is staged or sent.
	ErrEmptyBody = errors.New("message is empty")
	// ErrUnknownMessage is returned when no pending message has the given id.
	ErrUnknownMessage = errors.New("no such pending message")
	// ErrNotFailed is returned when retrying a message that has not failed.
	ErrNotFailed = errors.New("message has not failed")
)

// Submitter sends one message to the backend.
type Submitter interface {
	SendDirect(ctx context.Context, self, peer chat.ID, body string) error
	SendGroup(ctx context.Context, self, group chat.ID, body string) error
}

// Log is the local send log. *store.DB implements it.
type Log interface {
	QueueOutbox(ctx context.Context, clientMsgID, conversation, body string) error
	MarkOutboxSent(ctx context.Context, clientMsgID string) error
	MarkOutboxFailed(ctx context.Context, clientMsgID, errMsg string) error
	DeleteOutbox(ctx context.Context, clientMsgID string) error
}

// Outcome is the result of a submission.
type Outcome struct {
	Accepted bool
	Message  chat.Message
}

// Event payloads published on the bus.
type (
	// Staged is published with message.optimistic.
	Staged struct {
		Key     chat.Key
		Message chat.Message
	}
	// Ack is published with message.send_ack.
	Ack struct {
		Key   chat.Key
		TmpID string
	}
	// Failure is published with message.send_failed.
	Failure struct {
		Key    chat.Key
		TmpID  string
		Reason string
	}
	// Discarded is published with message.discarded.
	Discarded struct {
		Key   chat.Key
		TmpID string
	}
)

// Tracker holds the pending optimistic messages of every conversation.
type Tracker struct {
	submit Submitter
	outbox Log
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[chat.Key][]chat.Message
}

// NewTracker creates a tracker. outbox and b may be nil.
func NewTracker(submit Submitter, outbox Log, b *bus.Bus, logger *zap.Logger) *Tracker {
	return &Tracker{
		submit:  submit,
		outbox:  outbox,
		bus:     b,
		logger:  logging.OrNop(logger),
		now:     time.Now,
		pending: make(map[chat.Key][]chat.Message),
	}
}

// Stage appends an optimistic message to key's pending set. view is what the
// user currently sees in the conversation, snapshot and pending entries both;
// it fixes the message's Baseline.
func (t *Tracker) Stage(ctx context.Context, key chat.Key, view []chat.Message, body string) (chat.Message, error) {
	if strings.TrimSpace(body) == "" {
		return chat.Message{}, ErrEmptyBody
	}

	msg := chat.Message{
		ID:             "tmp-" + uuid.NewString(),
		ConversationID: key.ID,
		Self:           true,
		Body:           body,
		Delivery:       chat.DeliverySent,
		Origin:         chat.OriginOptimistic,
		SendState:      chat.SendSending,
		SentAt:         t.now(),
		Baseline:       chatsync.Baseline(view, body),
	}

	t.mu.Lock()
	t.pending[key] = append(t.pending[key], msg)
	t.mu.Unlock()

	if t.outbox != nil {
		if err := t.outbox.QueueOutbox(ctx, msg.ID, key.String(), body); err != nil {
			t.logger.Warn("failed to record outbox entry", zap.String("tmp_id", msg.ID), zap.Error(err))
		}
	}
	t.bus.Publish(bus.NewEvent(bus.KindMessageOptimistic, Staged{Key: key, Message: msg}))
	return msg, nil
}

// Submit issues exactly one send request for a staged message. On success the
// message stays pending, marked accepted, until a snapshot confirms it. On
// failure it is marked failed and the error is returned.
func (t *Tracker) Submit(ctx context.Context, self chat.ID, key chat.Key, tmpID string) (Outcome, error) {
	msg, ok := t.setState(key, tmpID, chat.SendSending, "")
	if !ok {
		return Outcome{}, ErrUnknownMessage
	}

	var err error
	switch key.Kind {
	case chat.Group:
		err = t.submit.SendGroup(ctx, self, key.ID, msg.Body)
	default:
		err = t.submit.SendDirect(ctx, self, key.ID, msg.Body)
	}

	if err != nil {
		reason := backend.UserMessage(err)
		if updated, ok := t.setState(key, tmpID, chat.SendFailed, reason); ok {
			msg = updated
		}
		t.logger.Error("failed to send message",
			zap.String("conversation", key.String()),
			zap.String("tmp_id", tmpID),
			zap.Error(err),
		)
		if t.outbox != nil {
			_ = t.outbox.MarkOutboxFailed(ctx, tmpID, err.Error())
		}
		t.bus.Publish(bus.NewEvent(bus.KindMessageFailed, Failure{Key: key, TmpID: tmpID, Reason: reason}))
		return Outcome{Message: msg}, fmt.Errorf("send to %s: %w", key, err)
	}

	// A snapshot may already have confirmed the message; then there is nothing to update.
	if updated, ok := t.setState(key, tmpID, chat.SendAccepted, ""); ok {
		msg = updated
	} else {
		msg.SendState = chat.SendAccepted
	}
	if t.outbox != nil {
		if err := t.outbox.MarkOutboxSent(ctx, tmpID); err != nil {
			t.logger.Warn("failed to mark outbox entry sent", zap.String("tmp_id", tmpID), zap.Error(err))
		}
	}
	t.logger.Info("message sent", zap.String("conversation", key.String()), zap.String("tmp_id", tmpID))
	t.bus.Publish(bus.NewEvent(bus.KindMessageAck, Ack{Key: key, TmpID: tmpID}))
	return Outcome{Accepted: true, Message: msg}, nil
}

// Send stages and submits in one step.
func (t *Tracker) Send(ctx context.Context, self chat.ID, key chat.Key, view []chat.Message, body string) (Outcome, error) {
	msg, err := t.Stage(ctx, key, view, body)
	if err != nil {
		return Outcome{}, err
	}
	return t.Submit(ctx, self, key, msg.ID)
}

// Retry resubmits a failed message.
func (t *Tracker) Retry(ctx context.Context, self chat.ID, key chat.Key, tmpID string) (Outcome, error) {
	msg, ok := t.Get(key, tmpID)
	if !ok {
		return Outcome{}, ErrUnknownMessage
	}
	if msg.SendState != chat.SendFailed {
		return Outcome{}, ErrNotFailed
	}
	return t.Submit(ctx, self, key, tmpID)
}

// Discard drops a pending message. Later pending messages with the same body
// counted it in their Baseline, so their baselines are lowered by one.
func (t *Tracker) Discard(ctx context.Context, key chat.Key, tmpID string) error {
	t.mu.Lock()
	list := t.pending[key]
	i := slices.IndexFunc(list, func(m chat.Message) bool { return m.ID == tmpID })
	if i < 0 {
		t.mu.Unlock()
		return ErrUnknownMessage
	}
	gone := list[i]
	list = slices.Delete(list, i, i+1)
	for j := i; j < len(list); j++ {
		if list[j].Body == gone.Body && list[j].Baseline > 0 {
			list[j].Baseline--
		}
	}
	t.store(key, list)
	t.mu.Unlock()

	if t.outbox != nil {
		_ = t.outbox.DeleteOutbox(ctx, tmpID)
	}
	t.bus.Publish(bus.NewEvent(bus.KindMessageDiscarded, Discarded{Key: key, TmpID: tmpID}))
	return nil
}

// Confirm removes messages a snapshot has confirmed.
func (t *Tracker) Confirm(key chat.Key, tmpIDs []string) {
	if len(tmpIDs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	list := slices.DeleteFunc(t.pending[key], func(m chat.Message) bool {
		return slices.Contains(tmpIDs, m.ID)
	})
	t.store(key, list)
}

// Pending returns a copy of key's pending messages in staging order.
func (t *Tracker) Pending(key chat.Key) []chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.pending[key])
}

// Get returns one pending message.
func (t *Tracker) Get(key chat.Key, tmpID string) (chat.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.pending[key] {
		if m.ID == tmpID {
			return m, true
		}
	}
	return chat.Message{}, false
}

// Reset drops every pending message. Used on sign-out.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.pending = make(map[chat.Key][]chat.Message)
	t.mu.Unlock()
}

func (t *Tracker) setState(key chat.Key, tmpID string, state chat.SendState, reason string) (chat.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.pending[key]
	for i := range list {
		if list[i].ID == tmpID {
			list[i].SendState = state
			list[i].FailReason = reason
			return list[i], true
		}
	}
	return chat.Message{}, false
}

// store must be called with mu held.
func (t *Tracker) store(key chat.Key, list []chat.Message) {
	if len(list) == 0 {
		delete(t.pending, key)
		return
	}
	t.pending[key] = list
}
