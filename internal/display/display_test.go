package display

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/matheus3301/mingle/internal/chat"
)

func TestConversationRow(t *testing.T) {
	tests := []struct {
		name      string
		preview   string
		status    chat.ConversationStatus
		unseen    int
		wantTick  Tick
		wantBadge string
	}{
		{"greeting suppresses seen tick", "Say hi!", chat.StatusSeen, 0, TickNone, ""},
		{"greeting suppresses single tick", "Say hi!", chat.StatusSentUnseen, 0, TickNone, ""},
		{"seen", "hey", chat.StatusSeen, 0, TickDouble, ""},
		{"sent unseen", "hey", chat.StatusSentUnseen, 0, TickSingle, ""},
		{"incoming unseen badge", "hey", chat.StatusIncomingUnseen, 5, TickNone, "5"},
		{"stale count without status 3", "hey", chat.StatusSeen, 5, TickDouble, ""},
		{"status 3 with zero count", "hey", chat.StatusIncomingUnseen, 0, TickNone, ""},
		{"none", "hey", chat.StatusNone, 2, TickNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ConversationRow(chat.Conversation{
				Kind:               chat.Direct,
				LastMessagePreview: tt.preview,
				Status:             tt.status,
				UnseenCount:        tt.unseen,
			})
			if r.Tick != tt.wantTick {
				t.Errorf("Tick = %v, want %v", r.Tick, tt.wantTick)
			}
			if got := r.BadgeText(); got != tt.wantBadge {
				t.Errorf("BadgeText() = %q, want %q", got, tt.wantBadge)
			}
		})
	}
}

func TestGroupRow(t *testing.T) {
	tests := []struct {
		status chat.ConversationStatus
		unseen int
		want   bool
	}{
		{3, 2, true},
		{3, 0, false},
		{1, 4, false},
		{2, 4, false},
	}
	for _, tt := range tests {
		r := RowFor(chat.Conversation{Kind: chat.Group, Status: tt.status, UnseenCount: tt.unseen})
		if r.ShowBadge != tt.want {
			t.Errorf("GroupRow(status %d, unseen %d).ShowBadge = %v, want %v", tt.status, tt.unseen, r.ShowBadge, tt.want)
		}
		if r.Tick != TickNone {
			t.Errorf("group rows carry no tick, got %v", r.Tick)
		}
	}
}

func TestMessageTick(t *testing.T) {
	tests := []struct {
		name string
		msg  chat.Message
		want Tick
	}{
		{"peer message", chat.Message{Self: false, Delivery: chat.DeliverySeen}, TickNone},
		{"self seen", chat.Message{Self: true, Delivery: chat.DeliverySeen, Origin: chat.OriginServer}, TickDouble},
		{"self sent", chat.Message{Self: true, Delivery: chat.DeliverySent, Origin: chat.OriginServer}, TickSingle},
		{"optimistic sending", chat.Message{Self: true, Origin: chat.OriginOptimistic, SendState: chat.SendSending}, TickSingle},
		{"optimistic accepted", chat.Message{Self: true, Origin: chat.OriginOptimistic, SendState: chat.SendAccepted}, TickSingle},
		{"optimistic failed", chat.Message{Self: true, Origin: chat.OriginOptimistic, SendState: chat.SendFailed}, TickFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageTick(tt.msg); got != tt.want {
				t.Errorf("MessageTick() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberPreview(t *testing.T) {
	got := MemberPreview([]string{"Alice", "Bob", "Charlotte", "David"})
	joined := "Alice, Bob, Charlotte, David"
	if len(joined) > PreviewLimit {
		t.Fatalf("fixture assumption broken: %q", joined)
	}
	if got != joined {
		t.Errorf("MemberPreview() = %q, want %q", got, joined)
	}

	long := []string{"Alice", "Bob", "Charlotte", "David", "Eve", "Frank"}
	got = MemberPreview(long)
	want := "Alice, Bob, Charlotte, David, ......"
	if got != want {
		t.Errorf("MemberPreview(long) = %q, want %q", got, want)
	}
}

func TestMemberPreviewMultiByte(t *testing.T) {
	names := []string{"Zoë", "Łukasz", "🧑🏽‍💻 Dev", "Ørjan", "Søren", "Ana"}
	got := MemberPreview(names)

	if !utf8.ValidString(got) {
		t.Fatalf("MemberPreview() produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, PreviewEllipsis) {
		t.Fatalf("MemberPreview() = %q, want ellipsis", got)
	}
	visible := strings.TrimSuffix(got, PreviewEllipsis)
	if n := uniseg.GraphemeClusterCount(visible); n != PreviewLimit {
		t.Errorf("visible clusters = %d, want %d", n, PreviewLimit)
	}
	if !strings.HasPrefix(strings.Join(names, ", "), visible) {
		t.Errorf("visible part %q is not a prefix of the joined names", visible)
	}
}

func TestMemberPreviewEmpty(t *testing.T) {
	if got := MemberPreview(nil); got != "" {
		t.Errorf("MemberPreview(nil) = %q", got)
	}
}

func TestPresence(t *testing.T) {
	if Presence(true) != "Online" {
		t.Errorf("Presence(true) = %q", Presence(true))
	}
	if Presence(false) != "Last Seen few minutes ago" {
		t.Errorf("Presence(false) = %q", Presence(false))
	}
}

func TestAvatar(t *testing.T) {
	resolve := func(rel string) string { return "http://h/MyChatApp/" + rel }
	tests := []struct {
		name string
		conv chat.Conversation
		want string
	}{
		{"profile", chat.Conversation{Kind: chat.Direct, Mobile: "0771", HasAvatar: true}, "http://h/MyChatApp/ProfileImages/0771.png"},
		{"group", chat.Conversation{Kind: chat.Group, ID: "4", HasAvatar: true}, "http://h/MyChatApp/GroupImages/4.png"},
		{"flag off", chat.Conversation{Kind: chat.Direct, Mobile: "0771"}, DefaultAvatar},
		{"group flag off", chat.Conversation{Kind: chat.Group, ID: "4"}, DefaultAvatar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AvatarURL(resolve, AvatarPath(tt.conv)); got != tt.want {
				t.Errorf("avatar = %q, want %q", got, tt.want)
			}
		})
	}
	if got := UserAvatarPath(chat.User{Mobile: "0779", HasAvatar: true}); got != "ProfileImages/0779.png" {
		t.Errorf("UserAvatarPath() = %q", got)
	}
}

func TestTickGlyph(t *testing.T) {
	if TickDouble.Glyph() != "✓✓" || TickSingle.Glyph() != "✓" || TickNone.Glyph() != "" {
		t.Error("unexpected glyphs")
	}
}
