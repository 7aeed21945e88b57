package screen

import (
	"context"
	"slices"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/poll"
)

// Poll keys of the list screens.
const (
	KeyChatList  = "chatlist"
	KeyGroupList = "grouplist"
)

// ChatList is the direct chat list screen.
type ChatList struct {
	base
	deps Deps

	rows          []chat.Conversation
	selfHasAvatar bool
}

// ChatListView is a copy of the chat list state.
type ChatListView struct {
	State
	Rows          []chat.Conversation
	SelfHasAvatar bool
}

// NewChatList creates an unmounted chat list.
func NewChatList(deps Deps) *ChatList {
	return &ChatList{deps: deps}
}

// Mount starts polling the chat list.
func (s *ChatList) Mount(ctx context.Context) error {
	self, err := s.deps.self()
	if err != nil {
		return err
	}
	s.Unmount()

	s.mu.Lock()
	s.beginMount()
	s.mu.Unlock()

	sub := poll.Run(ctx, s.deps.Scheduler, poll.Task[backend.ChatListSnapshot]{
		Key:      KeyChatList,
		Interval: s.deps.Intervals.ChatList,
		Fetch: func(ctx context.Context) (backend.ChatListSnapshot, error) {
			return s.deps.Fetcher.FetchChatList(ctx, self)
		},
		Apply: s.apply,
		Fail:  s.fail,
	})

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *ChatList) apply(snap backend.ChatListSnapshot) {
	s.mu.Lock()
	s.rows = snap.Conversations
	s.selfHasAvatar = snap.SelfHasAvatar
	s.settleLocked(nil)
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *ChatList) Snapshot() ChatListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ChatListView{
		State:         s.state,
		Rows:          slices.Clone(s.rows),
		SelfHasAvatar: s.selfHasAvatar,
	}
}

// GroupList is the group list screen.
type GroupList struct {
	base
	deps Deps

	rows []chat.Conversation
}

// GroupListView is a copy of the group list state.
type GroupListView struct {
	State
	Rows []chat.Conversation
}

// NewGroupList creates an unmounted group list.
func NewGroupList(deps Deps) *GroupList {
	return &GroupList{deps: deps}
}

// Mount starts polling the group list.
func (s *GroupList) Mount(ctx context.Context) error {
	self, err := s.deps.self()
	if err != nil {
		return err
	}
	s.Unmount()

	s.mu.Lock()
	s.beginMount()
	s.mu.Unlock()

	sub := poll.Run(ctx, s.deps.Scheduler, poll.Task[[]chat.Conversation]{
		Key:      KeyGroupList,
		Interval: s.deps.Intervals.GroupList,
		Fetch: func(ctx context.Context) ([]chat.Conversation, error) {
			return s.deps.Fetcher.FetchGroupList(ctx, self)
		},
		Apply: s.apply,
		Fail:  s.fail,
	})

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *GroupList) apply(rows []chat.Conversation) {
	s.mu.Lock()
	s.rows = rows
	s.settleLocked(nil)
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *GroupList) Snapshot() GroupListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GroupListView{State: s.state, Rows: slices.Clone(s.rows)}
}
