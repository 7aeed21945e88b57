package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays a compact ASCII art logo.
type Logo struct {
	*tview.TextView
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 0)

	title, fg := colorName(theme.TitleColor), colorName(theme.MutedColor)
	_, _ = fmt.Fprintf(tv,
		"[%s::b]╔╦╗╦╔╗╔╔═╗╦  ╔═╗[-:-:-]\n"+
			"[%s::b]║║║║║║║║ ╦║  ║╣ [-:-:-]\n"+
			"[%s::b]╩ ╩╩╝╚╝╚═╝╩═╝╚═╝[-:-:-]\n"+
			"[%s]terminal client[-:-:-]",
		title, title, title, fg,
	)
	return &Logo{TextView: tv}
}
