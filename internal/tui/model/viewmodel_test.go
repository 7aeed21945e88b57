package model

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/devserver"
	"github.com/matheus3301/mingle/internal/outbox"
	"github.com/matheus3301/mingle/internal/poll"
	"github.com/matheus3301/mingle/internal/screen"
)

type staticSession struct{ user chat.User }

func (s staticSession) Current() (chat.User, bool) { return s.user, s.user.ID != "" }

type fixture struct {
	vm     *ViewModel
	client *backend.Client
	ann    chat.User
	bob    chat.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ts := httptest.NewServer(devserver.New(nil).Handler())
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL+devserver.BasePath, 5*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	ann := signUp(t, client, "Ann", "0770000001")
	bob := signUp(t, client, "Bob", "0770000002")

	sched := poll.NewScheduler(time.Second, nil, nil, nil)
	t.Cleanup(sched.StopAll)
	deps := screen.Deps{
		Scheduler: sched,
		Fetcher:   client,
		Actions:   client,
		Tracker:   outbox.NewTracker(client, nil, nil, nil),
		Session:   staticSession{user: ann},
		Intervals: screen.Intervals{
			DirectChat: 10 * time.Millisecond,
			ChatList:   10 * time.Millisecond,
			GroupList:  10 * time.Millisecond,
			GroupChat:  10 * time.Millisecond,
		},
	}
	return &fixture{vm: NewViewModel(deps), client: client, ann: ann, bob: bob}
}

func signUp(t *testing.T, c *backend.Client, name, mobile string) chat.User {
	t.Helper()
	ctx := context.Background()
	if _, err := c.SignUp(ctx, backend.SignUpForm{Name: name, Password: "secret1", Mobile: mobile}); err != nil {
		t.Fatalf("SignUp(%s) error = %v", name, err)
	}
	u, err := c.SignIn(ctx, mobile, "secret1")
	if err != nil {
		t.Fatalf("SignIn(%s) error = %v", name, err)
	}
	return u
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestShowChatsSignalsRefresh(t *testing.T) {
	f := newFixture(t)
	if err := f.vm.ShowChats(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer f.vm.HideChats()

	select {
	case <-f.vm.RefreshCh():
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh after mounting the chat list")
	}
	waitFor(t, "chat list rows", func() bool { return len(f.vm.Chats().Rows) == 1 })
	if got := f.vm.Chats().Rows[0].DisplayName; got != "Bob" {
		t.Errorf("row name = %q, want Bob", got)
	}
}

func TestHideChatsStopsPolling(t *testing.T) {
	f := newFixture(t)
	if err := f.vm.ShowChats(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first load", func() bool { return !f.vm.Chats().Loading })
	f.vm.HideChats()
	if f.vm.Chats().Mounted {
		t.Error("chat list still mounted after HideChats")
	}
}

func TestConversationSendAndReceive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := chat.DirectKey(f.bob.ID)

	if _, err := f.vm.Send(ctx, "early"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("Send() without conversation error = %v", err)
	}
	if err := f.vm.OpenConversation(ctx, key); err != nil {
		t.Fatal(err)
	}
	defer f.vm.CloseConversation()
	waitFor(t, "conversation loaded", func() bool {
		v, _ := f.vm.Conversation()
		return v.Synced
	})

	out, err := f.vm.Send(ctx, "hi bob")
	if err != nil || !out.Accepted {
		t.Fatalf("Send() = %+v, %v", out, err)
	}
	waitFor(t, "server copy", func() bool {
		v, _ := f.vm.Conversation()
		return len(v.Messages) == 1 && !v.Messages[0].Optimistic()
	})

	if err := f.client.SendDirect(ctx, f.bob.ID, f.ann.ID, "hey ann"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reply", func() bool {
		v, _ := f.vm.Conversation()
		return len(v.Messages) == 2
	})
	v, ok := f.vm.Conversation()
	if !ok || v.Key != key {
		t.Fatalf("Conversation() = %+v, %v", v.Key, ok)
	}
	if v.Messages[1].Self || v.Messages[1].Body != "hey ann" {
		t.Errorf("second message = %+v", v.Messages[1])
	}
}

func TestOpenConversationReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.vm.OpenConversation(ctx, chat.DirectKey(f.bob.ID)); err != nil {
		t.Fatal(err)
	}
	first := f.vm.conversation()
	cid := signUp(t, f.client, "Cid", "0770000003")
	if err := f.vm.OpenConversation(ctx, chat.DirectKey(cid.ID)); err != nil {
		t.Fatal(err)
	}
	defer f.vm.CloseConversation()
	if first.Mounted() {
		t.Error("previous conversation still mounted")
	}
	if v, _ := f.vm.Conversation(); v.Key != chat.DirectKey(cid.ID) {
		t.Errorf("open key = %v", v.Key)
	}
}

func TestRetryWithoutFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.vm.OpenConversation(ctx, chat.DirectKey(f.bob.ID)); err != nil {
		t.Fatal(err)
	}
	defer f.vm.CloseConversation()
	if _, err := f.vm.RetryLast(ctx); !errors.Is(err, ErrNothingFailed) {
		t.Errorf("RetryLast() error = %v, want ErrNothingFailed", err)
	}
	if err := f.vm.DiscardLast(ctx); !errors.Is(err, ErrNothingFailed) {
		t.Errorf("DiscardLast() error = %v, want ErrNothingFailed", err)
	}
}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.vm.LoadContacts(ctx); err != nil {
		t.Fatal(err)
	}
	found := f.vm.Contacts("bo")
	if len(found) != 1 || found[0].ID != f.bob.ID {
		t.Fatalf("Contacts(bo) = %+v", found)
	}

	d := f.vm.Draft()
	d.Name = "Team"
	if err := d.Add(found[0]); err != nil {
		t.Fatal(err)
	}
	if err := f.vm.CreateGroup(ctx); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if f.vm.Draft() == d || len(f.vm.Draft().Members()) != 0 {
		t.Error("draft was not reset after CreateGroup")
	}

	if err := f.vm.ShowGroups(ctx); err != nil {
		t.Fatal(err)
	}
	defer f.vm.HideGroups()
	waitFor(t, "group row", func() bool { return len(f.vm.Groups().Rows) == 1 })
	if got := f.vm.Groups().Rows[0]; got.DisplayName != "Team" || got.Kind != chat.Group {
		t.Errorf("group row = %+v", got)
	}
}

func TestCreateGroupRequiresName(t *testing.T) {
	f := newFixture(t)
	if err := f.vm.CreateGroup(context.Background()); !errors.Is(err, screen.ErrGroupNameRequired) {
		t.Errorf("CreateGroup() error = %v", err)
	}
}
