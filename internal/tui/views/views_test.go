package views

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/mingle/internal/account"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/status"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

func sampleRows() []chat.Conversation {
	return []chat.Conversation{
		{ID: "2", Kind: chat.Direct, DisplayName: "Bob", LastMessagePreview: "see you", Status: chat.StatusSeen, Online: true},
		{ID: "3", Kind: chat.Direct, DisplayName: "Cid", LastMessagePreview: "ping", Status: chat.StatusIncomingUnseen, UnseenCount: 4},
		{ID: "4", Kind: chat.Direct, DisplayName: "Dee", LastMessagePreview: "Say hi!"},
	}
}

func TestConversationListRows(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme(), chat.Direct, "Chats")
	cl.Update(sampleRows(), screen.State{Mounted: true})

	if got := cl.GetRowCount(); got != 4 {
		t.Fatalf("row count = %d, want header + 3", got)
	}
	if got := strings.TrimSpace(cl.GetCell(1, 0).Text); got != "✓✓" {
		t.Errorf("seen row marker = %q", got)
	}
	if got := strings.TrimSpace(cl.GetCell(2, 0).Text); got != "(4)" {
		t.Errorf("unseen row marker = %q", got)
	}
	if got := strings.TrimSpace(cl.GetCell(3, 0).Text); got != "" {
		t.Errorf("greeting row marker = %q, want none", got)
	}
	if got := strings.TrimSpace(cl.GetCell(1, 4).Text); got != "Online" {
		t.Errorf("presence = %q", got)
	}

	c, ok := cl.Selected()
	if !ok || c.ID != "2" {
		t.Errorf("Selected() = %+v, %v", c, ok)
	}
}

func TestConversationListFilter(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme(), chat.Direct, "Chats")
	cl.Update(sampleRows(), screen.State{Mounted: true})
	cl.SetFilter("PING")

	if got := cl.GetRowCount(); got != 2 {
		t.Fatalf("row count = %d, want header + 1", got)
	}
	c, ok := cl.Selected()
	if !ok || c.ID != "3" {
		t.Errorf("Selected() = %+v, %v", c, ok)
	}
	if !strings.Contains(cl.GetTitle(), "(1/3)") {
		t.Errorf("title = %q", cl.GetTitle())
	}

	cl.SetFilter("nobody")
	if _, ok := cl.Selected(); ok {
		t.Error("Selected() on an empty list should report false")
	}
}

func TestGroupListHasNoPresenceColumn(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme(), chat.Group, "Groups")
	cl.Update([]chat.Conversation{
		{ID: "9", Kind: chat.Group, DisplayName: "Team", Status: chat.StatusSeen},
	}, screen.State{})
	if got := cl.GetColumnCount(); got != 4 {
		t.Errorf("column count = %d, want 4", got)
	}
	if got := strings.TrimSpace(cl.GetCell(1, 0).Text); got != "" {
		t.Errorf("group rows carry no tick, got %q", got)
	}
}

func TestMessageThreadRendering(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	mt.SetConversation(chat.Conversation{ID: "2", Kind: chat.Direct, DisplayName: "Bob"})
	mt.Update(screen.ConversationView{
		Key: chat.DirectKey("2"),
		Messages: []chat.Message{
			{ID: "a", Self: false, Body: "hello", Timestamp: "10:00"},
			{ID: "b", Self: true, Body: "hi", Timestamp: "10:01", Delivery: chat.DeliverySeen},
			{ID: "c", Self: true, Body: "oops", Origin: chat.OriginOptimistic, SendState: chat.SendFailed, FailReason: "timeout"},
		},
	})

	text := mt.Messages().GetText(true)
	for _, want := range []string{"Bob", "hello", "You", "✓✓", "oops", "timeout"} {
		if !strings.Contains(text, want) {
			t.Errorf("thread text missing %q:\n%s", want, text)
		}
	}
}

func TestMessageThreadClearDraft(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	var sent []string
	mt.SetOnSend(func(text string) { sent = append(sent, text) })

	mt.Composer().SetText("draft")
	mt.ClearDraft("other")
	if mt.Composer().GetText() != "draft" {
		t.Error("ClearDraft removed text it did not send")
	}
	mt.ClearDraft("draft")
	if mt.Composer().GetText() != "" {
		t.Error("ClearDraft kept the sent text")
	}
}

func TestMessageThreadGroupHeader(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	mt.SetConversation(chat.Conversation{ID: "9", Kind: chat.Group, DisplayName: "Team"})
	mt.Update(screen.ConversationView{Members: []string{"Ann", "Bob"}})
	if got := mt.header.GetText(true); !strings.Contains(got, "Ann, Bob") {
		t.Errorf("header = %q", got)
	}
}

func TestWelcomeSteps(t *testing.T) {
	wv := NewWelcomeView(ui.DefaultTheme())
	if wv.Step() != StepMobile {
		t.Fatalf("initial step = %v", wv.Step())
	}
	if wv.Form().GetFormItemByLabel(labelMobile) == nil {
		t.Fatal("mobile step has no mobile field")
	}

	wv.ShowSignIn("0771234567", "Ann")
	if wv.Step() != StepSignIn || wv.Mobile() != "0771234567" {
		t.Errorf("after ShowSignIn step = %v mobile = %q", wv.Step(), wv.Mobile())
	}
	if wv.Form().GetFormItemByLabel(labelPassword) == nil {
		t.Error("sign-in step has no password field")
	}
	if !strings.Contains(wv.greeting.GetText(true), "Hi Ann") {
		t.Errorf("greeting = %q", wv.greeting.GetText(true))
	}

	wv.ShowSignUp("0771234567")
	for _, label := range []string{labelName, labelPassword, labelImage} {
		if wv.Form().GetFormItemByLabel(label) == nil {
			t.Errorf("sign-up step has no %q field", label)
		}
	}

	wv.ShowMobile()
	if got := wv.text(labelMobile); got != "0771234567" {
		t.Errorf("mobile field = %q, want the number kept", got)
	}
}

func TestWelcomeShowError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"form", account.FormErrors{
			{Field: account.FieldName, Message: account.MsgNameRequired},
			{Field: account.FieldPassword, Message: account.MsgPasswordShort},
		}, []string{"Name: " + account.MsgNameRequired, "Password: " + account.MsgPasswordShort}},
		{"field", &account.FieldError{Field: account.FieldMobile, Message: account.MsgMobileRequired},
			[]string{"Mobile: " + account.MsgMobileRequired}},
		{"plain", errors.New("connection refused"), []string{"connection refused"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wv := NewWelcomeView(ui.DefaultTheme())
			wv.ShowError(tt.err)
			got := wv.ErrorText()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("error text %q missing %q", got, w)
				}
			}
		})
	}

	wv := NewWelcomeView(ui.DefaultTheme())
	wv.ShowError(errors.New("x"))
	wv.ShowError(nil)
	if wv.ErrorText() != "" {
		t.Errorf("ShowError(nil) left %q", wv.ErrorText())
	}
}

func TestStatusBar(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }
	sb.SetProfile("work")
	sb.SetUser("Ann")
	sb.SetState(status.Degraded)
	sb.SetFlash(&ui.FlashMessage{Text: "send failed", Level: ui.FlashErr})

	got := sb.GetText(true)
	for _, want := range []string{"work", "DEGRADED", "Ann", "09:30", "send failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("status bar %q missing %q", got, want)
		}
	}

	sb.SetFlash(nil)
	if strings.Contains(sb.GetText(true), "send failed") {
		t.Error("flash not cleared")
	}
}

func TestStatusBarActivity(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.SetProfile("main")
	if strings.Contains(sb.GetText(true), "synced") {
		t.Error("no sync shown before the first poll")
	}

	at := time.Date(2024, 1, 1, 9, 30, 15, 0, time.Local)
	sb.SetActivity(at, false, 0)
	got := sb.GetText(true)
	if !strings.Contains(got, "synced 09:30:15") || strings.Contains(got, "unsent") {
		t.Errorf("status bar = %q", got)
	}

	sb.SetActivity(at, true, 2)
	got = sb.GetText(true)
	for _, want := range []string{"synced 09:30:15, retrying", "2 unsent"} {
		if !strings.Contains(got, want) {
			t.Errorf("status bar %q missing %q", got, want)
		}
	}
}

func TestGroupViewMembers(t *testing.T) {
	gv := NewGroupView(ui.DefaultTheme())

	list := []chat.Contact{{ID: "2", Name: "Bob", Mobile: "0772"}, {ID: "3", Name: "Cid", Mobile: "0773"}}
	gv.UpdateContacts(list, func(id chat.ID) bool { return id == "3" })
	if got := strings.TrimSpace(gv.Contacts().GetCell(2, 0).Text); got != "+" {
		t.Errorf("picked marker = %q", got)
	}
	if got := strings.TrimSpace(gv.Contacts().GetCell(1, 0).Text); got != "" {
		t.Errorf("unpicked marker = %q", got)
	}

	gv.UpdateMembers(list[1:])
	if !strings.Contains(gv.members.GetTitle(), "(1/10)") {
		t.Errorf("members title = %q", gv.members.GetTitle())
	}
	if !strings.Contains(gv.members.GetText(true), "Cid") {
		t.Errorf("members = %q", gv.members.GetText(true))
	}
}

func TestRenderQR(t *testing.T) {
	out := renderQR("0771234567")
	if strings.Contains(out, "failed") {
		t.Fatalf("renderQR() = %q", out)
	}
	if lines := strings.Count(out, "\n"); lines < 10 {
		t.Errorf("QR has %d lines, want a full code", lines)
	}
}
