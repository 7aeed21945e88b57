package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/status"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// StatusBar displays the profile, connectivity state and flash messages.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	profile string
	user    string
	state   status.State
	flash   *ui.FlashMessage
	now     func() time.Time

	lastSync   time.Time
	syncFailed bool
	unsent     int
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &StatusBar{TextView: tv, theme: theme, now: time.Now}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetUser updates the signed-in user display.
func (sb *StatusBar) SetUser(name string) {
	sb.user = name
	sb.render()
}

// SetState updates the connectivity state.
func (sb *StatusBar) SetState(s status.State) {
	sb.state = s
	sb.render()
}

// SetActivity updates the last successful sync and the number of failed sends.
func (sb *StatusBar) SetActivity(lastSync time.Time, syncFailed bool, unsent int) {
	sb.lastSync, sb.syncFailed, sb.unsent = lastSync, syncFailed, unsent
	sb.render()
}

// SetFlash sets the flash message; nil clears it.
func (sb *StatusBar) SetFlash(msg *ui.FlashMessage) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) stateColor() string {
	switch sb.state {
	case status.Online:
		return ui.Tag(sb.theme.OnlineColor)
	case status.Degraded:
		return ui.Tag(sb.theme.FlashWarnColor)
	default:
		return ui.Tag(sb.theme.MutedColor)
	}
}

func (sb *StatusBar) render() {
	sb.Clear()

	user := sb.user
	if user == "" {
		user = "-"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-] | %s | %s",
		tview.Escape(sb.profile), sb.stateColor(), sb.state, tview.Escape(user), sb.now().Format("15:04"))

	if !sb.lastSync.IsZero() {
		synced := "synced " + sb.lastSync.Format("15:04:05")
		if sb.syncFailed {
			synced = fmt.Sprintf("[%s]%s, retrying[-]", ui.Tag(sb.theme.FlashWarnColor), synced)
		}
		line += " | " + synced
	}
	if sb.unsent > 0 {
		line += fmt.Sprintf(" | [%s]%d unsent[-]", ui.Tag(sb.theme.FlashErrColor), sb.unsent)
	}

	if sb.flash != nil {
		color := sb.theme.FlashInfoColor
		switch sb.flash.Level {
		case ui.FlashWarn:
			color = sb.theme.FlashWarnColor
		case ui.FlashErr:
			color = sb.theme.FlashErrColor
		}
		line += fmt.Sprintf(" | [%s]%s[-]", ui.Tag(color), tview.Escape(sb.flash.Text))
	}
	_, _ = fmt.Fprint(sb, line)
}
