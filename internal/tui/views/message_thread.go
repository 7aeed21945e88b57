package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/display"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// MessageThread displays one conversation and its composer.
type MessageThread struct {
	*tview.Flex
	lifecycle
	theme    *ui.Theme
	header   *tview.TextView
	messages *tview.TextView
	composer *tview.InputField
	conv     chat.Conversation
	onSend   func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	header := tview.NewTextView().
		SetDynamicColors(true)
	header.SetBackgroundColor(theme.BgColor)
	header.SetTextColor(theme.MutedColor)

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Type a message (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		header:   header,
		messages: messages,
		composer: composer,
	}

	// The draft stays in the field until the send is accepted.
	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			if text := composer.GetText(); strings.TrimSpace(text) != "" {
				mt.onSend(text)
			}
		}
	})

	return mt
}

// Name implements ui.Component.
func (mt *MessageThread) Name() string {
	if mt.conv.DisplayName != "" {
		return mt.conv.DisplayName
	}
	return "Messages"
}

// Hints implements ui.Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "d", Description: "Details"},
		{Key: "r", Description: "Retry failed", Accent: true},
		{Key: "x", Description: "Discard failed", Accent: true},
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// SetConversation sets the row the thread was opened from.
func (mt *MessageThread) SetConversation(c chat.Conversation) {
	mt.conv = c
	mt.messages.SetTitle(fmt.Sprintf(" %s ", clean(c.DisplayName)))
	mt.messages.Clear()
	mt.header.Clear()
	mt.composer.SetText("")
}

// Conversation returns the row the thread was opened from.
func (mt *MessageThread) Conversation() chat.Conversation { return mt.conv }

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// ClearDraft empties the composer if it still holds text.
func (mt *MessageThread) ClearDraft(text string) {
	if mt.composer.GetText() == text {
		mt.composer.SetText("")
	}
}

// Update renders view.
func (mt *MessageThread) Update(view screen.ConversationView) {
	mt.renderHeader(view)

	mt.messages.Clear()
	var b strings.Builder
	for _, m := range view.Messages {
		b.WriteString(mt.line(m))
	}
	if len(view.Messages) == 0 && !view.Loading {
		fmt.Fprintf(&b, "[%s]%s[-]", ui.Tag(mt.theme.MutedColor), display.GreetingPlaceholder)
	}
	_, _ = fmt.Fprint(mt.messages, b.String())
	mt.messages.ScrollToEnd()
}

func (mt *MessageThread) renderHeader(view screen.ConversationView) {
	mt.header.Clear()
	var info string
	if mt.conv.Kind == chat.Group {
		info = display.MemberPreview(view.Members)
	} else {
		info = display.Presence(mt.conv.Online)
	}
	switch {
	case view.Loading:
		info += "  loading..."
	case view.Err != nil:
		info += fmt.Sprintf("  [%s]last refresh failed[-]", ui.Tag(mt.theme.FlashErrColor))
	}
	_, _ = fmt.Fprintf(mt.header, " %s", clean(info))
}

func (mt *MessageThread) line(m chat.Message) string {
	name, color := m.SenderName, mt.theme.PeerColor
	if m.Self {
		name, color = "You", mt.theme.SelfColor
	}
	if name == "" {
		name = mt.conv.DisplayName
	}

	var status string
	tick := display.MessageTick(m)
	switch tick {
	case display.TickDouble:
		status = fmt.Sprintf(" [%s]%s[-]", ui.Tag(mt.theme.SeenColor), tick.Glyph())
	case display.TickFailed:
		reason := m.FailReason
		if reason == "" {
			reason = "not sent"
		}
		status = fmt.Sprintf(" [%s]%s %s (r retry, x discard)[-]", ui.Tag(mt.theme.FailedColor), tick.Glyph(), clean(reason))
	case display.TickSingle:
		status = fmt.Sprintf(" [%s]%s[-]", ui.Tag(mt.theme.MutedColor), tick.Glyph())
	}

	ts := m.Timestamp
	if m.Optimistic() {
		ts = ""
		if !m.SentAt.IsZero() {
			ts = m.SentAt.Format("15:04")
		}
		if m.SendState == chat.SendSending {
			ts += " sending..."
		}
	}
	return fmt.Sprintf("[%s::b]%s[-:-:-] [%s]%s[-]%s\n%s\n\n",
		ui.Tag(color), clean(name),
		ui.Tag(mt.theme.MutedColor), clean(ts), status,
		clean(m.Body))
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
