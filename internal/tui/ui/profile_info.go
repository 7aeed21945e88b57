package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// ProfileData is the header summary of the running client.
type ProfileData struct {
	Profile string
	User    string
	Mobile  string
	Status  string
	Server  string
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &ProfileInfo{TextView: tv, theme: theme}
}

// Update renders data.
func (pi *ProfileInfo) Update(data ProfileData) {
	pi.Clear()
	label, value := colorName(pi.theme.MutedColor), colorName(pi.theme.CounterColor)
	rows := [][2]string{
		{"Profile", data.Profile},
		{"User", data.User},
		{"Mobile", data.Mobile},
		{"Status", data.Status},
		{"Server", data.Server},
	}
	for _, r := range rows {
		v := r[1]
		if v == "" {
			v = "-"
		}
		_, _ = fmt.Fprintf(pi, "[%s::b]%-8s[-:-:-][%s]%s[-]\n", label, r[0]+":", value, tview.Escape(v))
	}
}
