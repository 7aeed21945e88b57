package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/tui/ui"
)

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
	lifecycle
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"/", "Filter the list"},
		{"?", "This help"},
		{"Esc", "Go back"},
		{"q", "Quit"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Chats and groups", [][2]string{
		{"Enter", "Open conversation"},
		{"c / g", "Chats / groups"},
		{"n", "New group"},
		{"p", "Profile"},
		{"d", "Peer details"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus the composer"},
		{"Enter", "Send (in composer)"},
		{"r", "Retry the last failed message"},
		{"x", "Discard the last failed message"},
		{"d", "Details"},
	}},
	{"Commands", [][2]string{
		{"Up / Down", "Previous commands"},
		{":chats [name]", "Chat list, or open the chat with name"},
		{":groups", "Group list"},
		{":newgroup", "Create a group"},
		{":profile", "Your profile"},
		{":retry  :discard", "Failed message actions"},
		{":logout", "Sign out of this profile"},
		{":help  :quit", ""},
	}},
}

func (hv *HelpView) render() {
	kc := ui.Tag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-18s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
