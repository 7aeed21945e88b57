package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu lists the keyboard shortcuts of the visible page.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

// Update renders hints one per line.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	for _, h := range hints {
		kc := m.theme.MenuKeyColor
		if h.Accent {
			kc = m.theme.AccentKeyColor
		}
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s\n", colorName(kc), tview.Escape(h.Key), h.Description)
	}
}
