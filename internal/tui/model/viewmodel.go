// Package model holds the screens the TUI shows and signals when they change.
package model

import (
	"context"
	"sync"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/screen"
)

// ViewModel owns the mounted screens. Pages call the Show/Hide pairs from
// their Start/Stop so that only visible screens poll.
type ViewModel struct {
	mu sync.Mutex

	deps     screen.Deps
	chats    *screen.ChatList
	groups   *screen.GroupList
	conv     *screen.Conversation
	contacts *screen.Contacts
	draft    *screen.GroupDraft

	refreshCh chan struct{}
}

// NewViewModel creates a view model over deps.
func NewViewModel(deps screen.Deps) *ViewModel {
	return &ViewModel{
		deps:      deps,
		draft:     &screen.GroupDraft{},
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh signals that some screen changed and the UI should redraw.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// ShowChats mounts the chat list.
func (vm *ViewModel) ShowChats(ctx context.Context) error {
	vm.mu.Lock()
	if vm.chats == nil {
		vm.chats = screen.NewChatList(vm.deps)
		vm.chats.SetOnChange(vm.signalRefresh)
	}
	s := vm.chats
	vm.mu.Unlock()
	return s.Mount(ctx)
}

// HideChats unmounts the chat list.
func (vm *ViewModel) HideChats() {
	if s := vm.chatList(); s != nil {
		s.Unmount()
	}
}

// Chats returns the chat list state.
func (vm *ViewModel) Chats() screen.ChatListView {
	if s := vm.chatList(); s != nil {
		return s.Snapshot()
	}
	return screen.ChatListView{}
}

func (vm *ViewModel) chatList() *screen.ChatList {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.chats
}

// ShowGroups mounts the group list.
func (vm *ViewModel) ShowGroups(ctx context.Context) error {
	vm.mu.Lock()
	if vm.groups == nil {
		vm.groups = screen.NewGroupList(vm.deps)
		vm.groups.SetOnChange(vm.signalRefresh)
	}
	s := vm.groups
	vm.mu.Unlock()
	return s.Mount(ctx)
}

// HideGroups unmounts the group list.
func (vm *ViewModel) HideGroups() {
	if s := vm.groupList(); s != nil {
		s.Unmount()
	}
}

// Groups returns the group list state.
func (vm *ViewModel) Groups() screen.GroupListView {
	if s := vm.groupList(); s != nil {
		return s.Snapshot()
	}
	return screen.GroupListView{}
}

func (vm *ViewModel) groupList() *screen.GroupList {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.groups
}

// OpenConversation mounts the conversation with key, replacing any other.
func (vm *ViewModel) OpenConversation(ctx context.Context, key chat.Key) error {
	vm.mu.Lock()
	prev := vm.conv
	if prev == nil || prev.Key() != key {
		vm.conv = screen.NewConversation(vm.deps, key)
		vm.conv.SetOnChange(vm.signalRefresh)
	}
	s := vm.conv
	vm.mu.Unlock()

	if prev != nil && prev != s {
		prev.Unmount()
	}
	return s.Mount(ctx)
}

// CloseConversation unmounts the open conversation; its view is kept until
// another conversation is opened.
func (vm *ViewModel) CloseConversation() {
	if s := vm.conversation(); s != nil {
		s.Unmount()
	}
}

// Conversation returns the open conversation state and whether one exists.
func (vm *ViewModel) Conversation() (screen.ConversationView, bool) {
	s := vm.conversation()
	if s == nil {
		return screen.ConversationView{}, false
	}
	return s.Snapshot(), true
}

func (vm *ViewModel) conversation() *screen.Conversation {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.conv
}

// Send submits body to the open conversation.
func (vm *ViewModel) Send(ctx context.Context, body string) (outbox.Outcome, error) {
	s := vm.conversation()
	if s == nil || !s.Mounted() {
		return outbox.Outcome{}, ErrNoConversation
	}
	return s.Send(ctx, body)
}

// RetryLast resubmits the most recent failed message of the open conversation.
func (vm *ViewModel) RetryLast(ctx context.Context) (outbox.Outcome, error) {
	s := vm.conversation()
	if s == nil || !s.Mounted() {
		return outbox.Outcome{}, ErrNoConversation
	}
	m, ok := s.LastFailed()
	if !ok {
		return outbox.Outcome{}, ErrNothingFailed
	}
	return s.Retry(ctx, m.ID)
}

// DiscardLast drops the most recent failed message of the open conversation.
func (vm *ViewModel) DiscardLast(ctx context.Context) error {
	s := vm.conversation()
	if s == nil || !s.Mounted() {
		return ErrNoConversation
	}
	m, ok := s.LastFailed()
	if !ok {
		return ErrNothingFailed
	}
	return s.Discard(ctx, m.ID)
}

// LoadContacts loads the all-users list and resets the group draft.
func (vm *ViewModel) LoadContacts(ctx context.Context) error {
	vm.mu.Lock()
	if vm.contacts == nil {
		vm.contacts = screen.NewContacts(vm.deps)
	}
	c := vm.contacts
	vm.draft = &screen.GroupDraft{}
	vm.mu.Unlock()

	err := c.Mount(ctx)
	vm.signalRefresh()
	return err
}

// Contacts returns the contacts matching q.
func (vm *ViewModel) Contacts(q string) []chat.Contact {
	vm.mu.Lock()
	c := vm.contacts
	vm.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Filter(q)
}

// Draft returns the group being built. It is only touched from the UI goroutine.
func (vm *ViewModel) Draft() *screen.GroupDraft {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.draft
}

// CreateGroup submits the draft and starts a fresh one on success.
func (vm *ViewModel) CreateGroup(ctx context.Context) error {
	d := vm.Draft()
	if err := d.Submit(ctx, vm.deps); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.draft = &screen.GroupDraft{}
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// HideAll unmounts every screen, e.g. on logout.
func (vm *ViewModel) HideAll() {
	vm.HideChats()
	vm.HideGroups()
	vm.CloseConversation()
}
