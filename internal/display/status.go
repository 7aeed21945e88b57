// Package display derives what the UI shows from raw snapshot fields.
package display

import (
	"strconv"

	"github.com/matheus3301/mingle/internal/chat"
)

// GreetingPlaceholder is the preview the server sends for a conversation with no messages yet.
const GreetingPlaceholder = "Say hi!"

// Tick is the delivery indicator next to a message or chat-list row.
type Tick int

const (
	TickNone Tick = iota
	TickSingle
	TickDouble
	TickFailed
)

// Glyph returns the terminal rendering of t.
func (t Tick) Glyph() string {
	switch t {
	case TickSingle:
		return "✓"
	case TickDouble:
		return "✓✓"
	case TickFailed:
		return "!"
	default:
		return ""
	}
}

func (t Tick) String() string {
	switch t {
	case TickSingle:
		return "single"
	case TickDouble:
		return "double"
	case TickFailed:
		return "failed"
	default:
		return "none"
	}
}

// MessageTick projects a message's delivery state. Only self-authored messages
// carry a tick; the same rule serves direct and group chats.
func MessageTick(m chat.Message) Tick {
	if !m.Self {
		return TickNone
	}
	if m.Optimistic() {
		if m.SendState == chat.SendFailed {
			return TickFailed
		}
		return TickSingle
	}
	if m.Delivery == chat.DeliverySeen {
		return TickDouble
	}
	return TickSingle
}

// Row is the status decoration of one chat-list or group-list row.
type Row struct {
	Tick      Tick
	ShowBadge bool
	Badge     int
}

// BadgeText returns the unseen count as shown, or "" when there is no badge.
func (r Row) BadgeText() string {
	if !r.ShowBadge {
		return ""
	}
	return strconv.Itoa(r.Badge)
}

// ConversationRow projects a direct chat-list row. The greeting placeholder
// suppresses the tick regardless of status, and the badge needs both an
// unseen incoming last message and a positive count.
func ConversationRow(c chat.Conversation) Row {
	var r Row
	switch {
	case c.LastMessagePreview == GreetingPlaceholder:
	case c.Status == chat.StatusSeen:
		r.Tick = TickDouble
	case c.Status == chat.StatusSentUnseen:
		r.Tick = TickSingle
	}
	if c.Status == chat.StatusIncomingUnseen && c.UnseenCount > 0 {
		r.ShowBadge = true
		r.Badge = c.UnseenCount
	}
	return r
}

// GroupRow projects a group-list row. Group rows carry a badge only.
func GroupRow(c chat.Conversation) Row {
	var r Row
	if c.Status == chat.StatusIncomingUnseen && c.UnseenCount > 0 {
		r.ShowBadge = true
		r.Badge = c.UnseenCount
	}
	return r
}

// RowFor dispatches on the conversation kind.
func RowFor(c chat.Conversation) Row {
	if c.Kind == chat.Group {
		return GroupRow(c)
	}
	return ConversationRow(c)
}
