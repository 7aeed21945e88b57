package screen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
)

// fakeFetcher serves canned snapshots. When gate is set, each fetch signals
// started and then waits for gate.
type fakeFetcher struct {
	mu       sync.Mutex
	direct   map[chat.ID][]chat.Message
	group    map[chat.ID]backend.GroupSnapshot
	chatList backend.ChatListSnapshot
	groups   []chat.Conversation
	err      error
	calls    int

	gate    chan struct{}
	started chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		direct: make(map[chat.ID][]chat.Message),
		group:  make(map[chat.ID]backend.GroupSnapshot),
	}
}

func (f *fakeFetcher) wait(ctx context.Context) {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case started <- struct{}{}:
	default:
	}
	<-gate
}

func (f *fakeFetcher) FetchConversation(ctx context.Context, _, peer chat.ID) ([]chat.Message, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]chat.Message(nil), f.direct[peer]...), nil
}

func (f *fakeFetcher) FetchGroupConversation(ctx context.Context, _, group chat.ID) (backend.GroupSnapshot, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return backend.GroupSnapshot{}, f.err
	}
	return f.group[group], nil
}

func (f *fakeFetcher) FetchChatList(ctx context.Context, _ chat.ID) (backend.ChatListSnapshot, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return backend.ChatListSnapshot{}, f.err
	}
	return f.chatList, nil
}

func (f *fakeFetcher) FetchGroupList(ctx context.Context, _ chat.ID) ([]chat.Conversation, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]chat.Conversation(nil), f.groups...), nil
}

func (f *fakeFetcher) set(fn func(f *fakeFetcher)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

// fakeActions implements backend.Actions for the calls screens make.
type fakeActions struct {
	mu        sync.Mutex
	contacts  []chat.Contact
	err       error
	groups    []backend.GroupForm
	sendCalls int
	sendErr   error
}

func (a *fakeActions) Start(context.Context, string) (backend.StartResult, error) {
	return backend.StartResult{}, errors.New("not used")
}

func (a *fakeActions) SignUp(context.Context, backend.SignUpForm) (string, error) {
	return "", errors.New("not used")
}

func (a *fakeActions) SignIn(context.Context, string, string) (chat.User, error) {
	return chat.User{}, errors.New("not used")
}

func (a *fakeActions) SendDirect(context.Context, chat.ID, chat.ID, string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendCalls++
	return a.sendErr
}

func (a *fakeActions) SendGroup(context.Context, chat.ID, chat.ID, string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendCalls++
	return a.sendErr
}

func (a *fakeActions) MakeGroup(_ context.Context, form backend.GroupForm) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.groups = append(a.groups, form)
	return nil
}

func (a *fakeActions) UpdateProfile(context.Context, chat.ID, string, *backend.Upload) (chat.User, error) {
	return chat.User{}, errors.New("not used")
}

func (a *fakeActions) ListContacts(context.Context, chat.ID) ([]chat.Contact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.contacts, a.err
}

func (a *fakeActions) sends() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sendCalls
}

type fakeSession struct {
	user chat.User
	ok   bool
}

func (s fakeSession) Current() (chat.User, bool) { return s.user, s.ok }

func testDeps(t *testing.T, f *fakeFetcher, a *fakeActions) Deps {
	t.Helper()
	sched := poll.NewScheduler(time.Second, nil, nil, nil)
	t.Cleanup(sched.StopAll)
	return Deps{
		Scheduler: sched,
		Fetcher:   f,
		Actions:   a,
		Tracker:   outbox.NewTracker(a, nil, nil, nil),
		Session:   fakeSession{user: chat.User{ID: "1", Name: "Ann"}, ok: true},
		Intervals: Intervals{
			DirectChat: 5 * time.Millisecond,
			ChatList:   5 * time.Millisecond,
			GroupList:  5 * time.Millisecond,
			GroupChat:  5 * time.Millisecond,
		},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
