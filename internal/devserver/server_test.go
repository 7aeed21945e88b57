package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
)

func newTestServer(t *testing.T) (*Server, *backend.Client) {
	t.Helper()
	srv := New(nil)
	srv.state.bcryptCost = bcrypt.MinCost
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL+BasePath, 5*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	return srv, client
}

func register(t *testing.T, c *backend.Client, name, mobile string) chat.User {
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

func TestOnboarding(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	res, err := c.Start(ctx, "0771234567")
	if err != nil || res.Registered {
		t.Fatalf("Start() new number = %+v, %v", res, err)
	}

	_, err = c.SignUp(ctx, backend.SignUpForm{Name: "", Password: "secret1", Mobile: "0771234567"})
	var rej *backend.RejectedError
	if !errors.As(err, &rej) || rej.Message != MsgNameEmpty {
		t.Fatalf("SignUp(no name) error = %v", err)
	}

	name, err := c.SignUp(ctx, backend.SignUpForm{
		Name:     "Ann",
		Password: "secret1",
		Mobile:   "0771234567",
		Image:    &backend.Upload{Filename: "a.png", Data: []byte("png")},
	})
	if err != nil || name != "Ann" {
		t.Fatalf("SignUp() = %q, %v", name, err)
	}

	res, err = c.Start(ctx, "0771234567")
	if err != nil || !res.Registered || res.UserName != "Ann" {
		t.Fatalf("Start() registered = %+v, %v", res, err)
	}

	if _, err := c.SignIn(ctx, "0771234567", "wrong-pass"); !errors.As(err, &rej) {
		t.Fatalf("SignIn(wrong) error = %v", err)
	}
	u, err := c.SignIn(ctx, "0771234567", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "1" || u.Name != "Ann" || !u.HasAvatar || !u.Online {
		t.Errorf("user = %+v", u)
	}

	resp, err := http.Get(c.AssetURL("ProfileImages/0771234567.png"))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("avatar status = %d", resp.StatusCode)
	}
}

func TestDirectChatFlow(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	ann := register(t, c, "Ann", "0771000001")
	bob := register(t, c, "Bob", "0771000002")

	list, err := c.FetchChatList(ctx, ann.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Conversations) != 1 || list.Conversations[0].LastMessagePreview != greeting {
		t.Fatalf("chat list = %+v", list.Conversations)
	}

	if err := c.SendDirect(ctx, ann.ID, bob.ID, "hello"); err != nil {
		t.Fatal(err)
	}

	list, _ = c.FetchChatList(ctx, ann.ID)
	if got := list.Conversations[0].Status; got != chat.StatusSentUnseen {
		t.Errorf("sender status before read = %d, want %d", got, chat.StatusSentUnseen)
	}
	list, _ = c.FetchChatList(ctx, bob.ID)
	row := list.Conversations[0]
	if row.Status != chat.StatusIncomingUnseen || row.UnseenCount != 1 {
		t.Errorf("receiver row = %+v", row)
	}

	msgs, err := c.FetchConversation(ctx, bob.ID, ann.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Self || msgs[0].Body != "hello" {
		t.Fatalf("bob's view = %+v", msgs)
	}

	msgs, _ = c.FetchConversation(ctx, ann.ID, bob.ID)
	if len(msgs) != 1 || !msgs[0].Self || msgs[0].Delivery != chat.DeliverySeen {
		t.Errorf("ann's view after read = %+v", msgs)
	}
	list, _ = c.FetchChatList(ctx, ann.ID)
	if got := list.Conversations[0].Status; got != chat.StatusSeen {
		t.Errorf("sender status after read = %d, want %d", got, chat.StatusSeen)
	}
}

func TestChatListUnknownUserIsNoUpdate(t *testing.T) {
	_, c := newTestServer(t)
	if _, err := c.FetchChatList(context.Background(), "42"); !errors.Is(err, backend.ErrNoUpdate) {
		t.Errorf("FetchChatList(unknown) error = %v, want ErrNoUpdate", err)
	}
}

func TestGroupFlow(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	ann := register(t, c, "Ann", "0771000001")
	bob := register(t, c, "Bob", "0771000002")
	cat := register(t, c, "Cat", "0771000003")

	contacts, err := c.ListContacts(ctx, ann.ID)
	if err != nil || len(contacts) != 2 {
		t.Fatalf("ListContacts() = %+v, %v", contacts, err)
	}

	err = c.MakeGroup(ctx, backend.GroupForm{Name: "Team", Creator: ann.ID, Members: []chat.ID{bob.ID, cat.ID}})
	if err != nil {
		t.Fatal(err)
	}
	groups, err := c.FetchGroupList(ctx, bob.ID)
	if err != nil || len(groups) != 1 || groups[0].DisplayName != "Team" {
		t.Fatalf("FetchGroupList() = %+v, %v", groups, err)
	}
	gid := groups[0].ID

	if err := c.SendGroup(ctx, ann.ID, gid, "yo"); err != nil {
		t.Fatal(err)
	}
	snap, err := c.FetchGroupConversation(ctx, ann.ID, gid)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Members) != 3 || len(snap.Messages) != 1 || !snap.Messages[0].Self {
		t.Fatalf("group snapshot = %+v", snap)
	}
	if snap.Messages[0].Delivery != chat.DeliverySent {
		t.Errorf("delivery before members read = %s", snap.Messages[0].Delivery)
	}

	groups, _ = c.FetchGroupList(ctx, cat.ID)
	if groups[0].UnseenCount != 1 || groups[0].Status != chat.StatusIncomingUnseen {
		t.Errorf("cat's row = %+v", groups[0])
	}

	for _, member := range []chat.ID{bob.ID, cat.ID} {
		snap, _ := c.FetchGroupConversation(ctx, member, gid)
		if snap.Messages[0].SenderName != "Ann" {
			t.Errorf("sender seen by %s = %q", member, snap.Messages[0].SenderName)
		}
	}
	snap, _ = c.FetchGroupConversation(ctx, ann.ID, gid)
	if snap.Messages[0].Delivery != chat.DeliverySeen {
		t.Errorf("delivery after all read = %s", snap.Messages[0].Delivery)
	}
}

func TestUpdateProfile(t *testing.T) {
	_, c := newTestServer(t)
	ann := register(t, c, "Ann", "0771000001")

	u, err := c.UpdateProfile(context.Background(), ann.ID, "Annie", &backend.Upload{Data: []byte("png")})
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "Annie" || !u.HasAvatar || u.Mobile != ann.Mobile {
		t.Errorf("updated user = %+v", u)
	}
}

func TestMalformedIDs(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.FetchConversation(context.Background(), "x", "y")
	var se *backend.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Errorf("FetchConversation(bad ids) error = %v", err)
	}
}
