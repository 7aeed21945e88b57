package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/display"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// ConversationList is the chat list or the group list.
type ConversationList struct {
	*tview.Table
	lifecycle
	theme   *ui.Theme
	kind    chat.Kind
	title   string
	rows    []chat.Conversation
	visible []chat.Conversation
	state   screen.State
	filter  string
}

// NewConversationList creates a list of kind; title names the page.
func NewConversationList(theme *ui.Theme, kind chat.Kind, title string) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &ConversationList{
		Table: table,
		theme: theme,
		kind:  kind,
		title: title,
	}
	cl.render()
	return cl
}

// Name implements ui.Component.
func (cl *ConversationList) Name() string { return cl.title }

// Hints implements ui.Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
	}
	if cl.kind == chat.Group {
		hints = append(hints,
			ui.MenuHint{Key: "c", Description: "Chats"},
			ui.MenuHint{Key: "n", Description: "New group"},
		)
	} else {
		hints = append(hints,
			ui.MenuHint{Key: "g", Description: "Groups"},
			ui.MenuHint{Key: "d", Description: "Details"},
		)
	}
	return append(hints,
		ui.MenuHint{Key: "p", Description: "Profile"},
		ui.MenuHint{Key: ":", Description: "Command"},
		ui.MenuHint{Key: "?", Description: "Help"},
		ui.MenuHint{Key: "q", Description: "Quit"},
	)
}

// Update replaces the rows and load state.
func (cl *ConversationList) Update(rows []chat.Conversation, state screen.State) {
	cl.rows = rows
	cl.state = state
	cl.render()
}

// SetFilter narrows the rows to names or previews containing filter.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	row, _ := cl.GetSelection()
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	if cl.kind == chat.Direct {
		headers = append(headers, struct {
			text string
			exp  int
		}{" STATUS", 0})
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.rows {
		if cl.filter != "" && !containsFold(c.DisplayName, cl.filter) && !containsFold(c.LastMessagePreview, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
	}

	for i, c := range cl.visible {
		r := i + 1
		deco := display.RowFor(c)
		marker := tview.NewTableCell(" " + deco.Tick.Glyph()).SetTextColor(cl.tickColor(deco.Tick))
		if deco.ShowBadge {
			marker = tview.NewTableCell(" (" + deco.BadgeText() + ")").
				SetTextColor(cl.theme.BadgeColor).
				SetAttributes(tcell.AttrBold)
		}
		cl.SetCell(r, 0, marker)
		cl.SetCell(r, 1, tview.NewTableCell(" "+clean(c.DisplayName)).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 2, tview.NewTableCell(" "+clean(c.LastMessagePreview)).SetExpansion(2).SetMaxWidth(48).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 3, tview.NewTableCell(" "+clean(c.LastMessageTime)).SetTextColor(cl.theme.MutedColor).SetAlign(tview.AlignRight))
		if cl.kind == chat.Direct {
			color := cl.theme.OfflineColor
			if c.Online {
				color = cl.theme.OnlineColor
			}
			cl.SetCell(r, 4, tview.NewTableCell(" "+display.Presence(c.Online)).SetTextColor(color))
		}
	}

	if row < 1 {
		row = 1
	}
	if row > len(cl.visible) {
		row = len(cl.visible)
	}
	if row >= 1 {
		cl.Select(row, 0)
	}
	cl.SetTitle(cl.titleText())
}

func (cl *ConversationList) tickColor(t display.Tick) tcell.Color {
	if t == display.TickDouble {
		return cl.theme.SeenColor
	}
	return cl.theme.MutedColor
}

func (cl *ConversationList) titleText() string {
	var suffix string
	switch {
	case cl.state.Loading:
		suffix = " loading..."
	case cl.state.Err != nil:
		suffix = " [" + ui.Tag(cl.theme.FlashErrColor) + "]offline[-]"
	}
	if cl.filter != "" {
		return fmt.Sprintf(" %s (%d/%d) /%s%s ", cl.title, len(cl.visible), len(cl.rows), tview.Escape(cl.filter), suffix)
	}
	return fmt.Sprintf(" %s (%d)%s ", cl.title, len(cl.rows), suffix)
}

// Selected returns the highlighted row.
func (cl *ConversationList) Selected() (chat.Conversation, bool) {
	row, _ := cl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cl.visible) {
		return chat.Conversation{}, false
	}
	return cl.visible[idx], true
}
