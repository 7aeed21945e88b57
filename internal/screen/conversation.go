package screen

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/logging"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	chatsync "github.com/matheus3301/mingle/internal/sync"
)

// Conversation is an open direct or group chat.
type Conversation struct {
	base
	deps Deps
	key  chat.Key
	log  *zap.Logger

	snapshot []chat.Message // last applied server snapshot
	members  []string
	view     []chat.Message // snapshot plus unconfirmed optimistic messages
	synced   bool           // a snapshot was applied since the last Mount
}

// ConversationView is a copy of the conversation state.
type ConversationView struct {
	State
	Key      chat.Key
	Messages []chat.Message
	Members  []string
	// Synced is set once a snapshot has been applied in the current mount.
	// Until then Send is refused.
	Synced bool
}

// NewConversation creates an unmounted conversation screen.
func NewConversation(deps Deps, key chat.Key) *Conversation {
	return &Conversation{
		deps: deps,
		key:  key,
		log:  logging.OrNop(deps.Log).With(zap.String("conversation", key.String())),
	}
}

// Key returns the conversation key.
func (s *Conversation) Key() chat.Key { return s.key }

// PollKey is the subscription key of a conversation.
func PollKey(key chat.Key) string { return "conversation:" + key.String() }

// Mount starts polling the conversation. Pending optimistic messages staged
// earlier are shown right away.
func (s *Conversation) Mount(ctx context.Context) error {
	self, err := s.deps.self()
	if err != nil {
		return err
	}
	s.Unmount()

	s.mu.Lock()
	s.beginMount()
	s.synced = false
	s.rebuildLocked()
	s.mu.Unlock()

	interval := s.deps.Intervals.DirectChat
	if s.key.Kind == chat.Group {
		interval = s.deps.Intervals.GroupChat
	}

	sub := poll.Run(ctx, s.deps.Scheduler, poll.Task[backend.GroupSnapshot]{
		Key:      PollKey(s.key),
		Interval: interval,
		Fetch: func(ctx context.Context) (backend.GroupSnapshot, error) {
			if s.key.Kind == chat.Group {
				return s.deps.Fetcher.FetchGroupConversation(ctx, self, s.key.ID)
			}
			msgs, err := s.deps.Fetcher.FetchConversation(ctx, self, s.key.ID)
			return backend.GroupSnapshot{Messages: msgs}, err
		},
		Apply: s.apply,
		Fail:  s.fail,
	})

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *Conversation) apply(snap backend.GroupSnapshot) {
	s.mu.Lock()
	s.snapshot = snap.Messages
	if s.key.Kind == chat.Group {
		s.members = snap.Members
	}
	s.synced = true
	s.rebuildLocked()
	s.settleLocked(nil)
	s.mu.Unlock()
	s.notify()
}

// rebuildLocked recomputes the view from the last snapshot and the tracker's
// pending set, dropping confirmed messages from the tracker. mu must be held.
func (s *Conversation) rebuildLocked() {
	res := chatsync.Reconcile(s.snapshot, s.deps.Tracker.Pending(s.key))
	if len(res.Confirmed) > 0 {
		s.deps.Tracker.Confirm(s.key, res.Confirmed)
		s.log.Debug("optimistic messages confirmed", zap.Strings("tmp_ids", res.Confirmed))
	}
	s.view = res.View
}

// Send shows body immediately and submits it. The returned outcome tells the
// caller whether to clear the input; on error the draft should be kept.
// A message's baseline is counted from the current view, so Send returns
// ErrNotSynced until a snapshot has been applied in this mount.
func (s *Conversation) Send(ctx context.Context, body string) (outbox.Outcome, error) {
	self, err := s.deps.self()
	if err != nil {
		return outbox.Outcome{}, err
	}

	s.mu.Lock()
	if !s.synced {
		s.mu.Unlock()
		return outbox.Outcome{}, ErrNotSynced
	}
	msg, err := s.deps.Tracker.Stage(ctx, s.key, s.view, body)
	s.mu.Unlock()
	if err != nil {
		return outbox.Outcome{}, err
	}
	s.refresh()

	out, err := s.deps.Tracker.Submit(ctx, self, s.key, msg.ID)
	s.refresh()
	return out, err
}

// Retry resubmits a failed message.
func (s *Conversation) Retry(ctx context.Context, tmpID string) (outbox.Outcome, error) {
	self, err := s.deps.self()
	if err != nil {
		return outbox.Outcome{}, err
	}
	out, err := s.deps.Tracker.Retry(ctx, self, s.key, tmpID)
	s.refresh()
	return out, err
}

// Discard removes a failed message from the view.
func (s *Conversation) Discard(ctx context.Context, tmpID string) error {
	err := s.deps.Tracker.Discard(ctx, s.key, tmpID)
	s.refresh()
	return err
}

// LastFailed returns the most recent failed optimistic message, if any.
func (s *Conversation) LastFailed() (chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.view) - 1; i >= 0; i-- {
		if m := s.view[i]; m.Optimistic() && m.SendState == chat.SendFailed {
			return m, true
		}
	}
	return chat.Message{}, false
}

// refresh rebuilds the view after a local change. An unmounted screen stays frozen.
func (s *Conversation) refresh() {
	s.mu.Lock()
	if !s.state.Mounted {
		s.mu.Unlock()
		return
	}
	s.rebuildLocked()
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Conversation) Snapshot() ConversationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ConversationView{
		State:    s.state,
		Key:      s.key,
		Messages: slices.Clone(s.view),
		Members:  slices.Clone(s.members),
		Synced:   s.synced,
	}
}
