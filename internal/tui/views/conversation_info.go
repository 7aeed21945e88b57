package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/display"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// ConversationInfo shows the peer profile of a direct chat, or the members of a group.
type ConversationInfo struct {
	*tview.TextView
	lifecycle
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements ui.Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders c. members is only used for groups; avatar is the image URL.
func (ci *ConversationInfo) Update(c chat.Conversation, members []string, avatar string) {
	ci.Clear()
	label, value := ui.Tag(ci.theme.MutedColor), ui.Tag(ci.theme.CounterColor)
	field := func(name, v string) {
		if v == "" {
			v = "-"
		}
		_, _ = fmt.Fprintf(ci, " [%s::b]%-9s[-:-:-] [%s]%s[-]\n", label, name+":", value, clean(v))
	}

	_, _ = fmt.Fprint(ci, "\n")
	field("Name", c.DisplayName)
	if c.Kind == chat.Group {
		field("Type", "Group")
		field("Members", fmt.Sprintf("%d", len(members)))
		field("Image", avatar)
		if len(members) > 0 {
			_, _ = fmt.Fprintf(ci, "\n [%s::b]Members[-:-:-]\n", label)
			for _, m := range members {
				_, _ = fmt.Fprintf(ci, "   %s\n", clean(m))
			}
		}
	} else {
		field("Mobile", c.Mobile)
		presence := display.Presence(c.Online)
		color := ci.theme.OfflineColor
		if c.Online {
			color = ci.theme.OnlineColor
		}
		_, _ = fmt.Fprintf(ci, " [%s::b]%-9s[-:-:-] [%s]%s[-]\n", label, "Status:", ui.Tag(color), presence)
		field("Image", avatar)
	}
	field("Last", strings.TrimSpace(c.LastMessagePreview+"  "+c.LastMessageTime))

	ci.SetTitle(fmt.Sprintf(" %s ", clean(c.DisplayName)))
}
