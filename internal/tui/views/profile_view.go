package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// ProfileView shows the signed-in user with a QR code of their mobile
// number, and a form to change the name and avatar.
type ProfileView struct {
	*tview.Flex
	lifecycle
	theme    *ui.Theme
	info     *tview.TextView
	form     *tview.Form
	errText  *tview.TextView
	onSave   func(name, imagePath string)
	onLogout func()
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	info := tview.NewTextView().
		SetDynamicColors(true)
	info.SetBorder(true)
	info.SetBorderColor(theme.BorderColor)
	info.SetBackgroundColor(theme.BgColor)
	info.SetTextColor(theme.FgColor)
	info.SetTitle(" Profile ")
	info.SetTitleColor(theme.TitleColor)

	errText := tview.NewTextView().
		SetDynamicColors(true)
	errText.SetBackgroundColor(theme.BgColor)

	pv := &ProfileView{
		theme:   theme,
		info:    info,
		errText: errText,
	}

	form := tview.NewForm().
		AddInputField("Name", "", 32, nil, nil).
		AddInputField("Image file", "", 40, nil, nil).
		AddButton("Update", func() {
			if pv.onSave != nil {
				pv.onSave(pv.field("Name"), pv.field("Image file"))
			}
		}).
		AddButton("Log out", func() {
			if pv.onLogout != nil {
				pv.onLogout()
			}
		})
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)
	form.SetTitle(" Edit ")
	form.SetTitleColor(theme.TitleColor)
	pv.form = form

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 9, 0, true).
		AddItem(errText, 1, 0, false)

	pv.Flex = tview.NewFlex().
		AddItem(info, 0, 1, false).
		AddItem(right, 0, 1, true)
	return pv
}

// Name implements ui.Component.
func (pv *ProfileView) Name() string { return "Profile" }

// Hints implements ui.Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSave sets the callback of the Update button.
func (pv *ProfileView) SetOnSave(fn func(name, imagePath string)) { pv.onSave = fn }

// SetOnLogout sets the callback of the Log out button.
func (pv *ProfileView) SetOnLogout(fn func()) { pv.onLogout = fn }

// Form returns the edit form (for focus management).
func (pv *ProfileView) Form() *tview.Form { return pv.form }

func (pv *ProfileView) field(label string) string {
	if in, ok := pv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return in.GetText()
	}
	return ""
}

// Update renders u and resets the form to its values. avatar is the image URL.
func (pv *ProfileView) Update(u chat.User, avatar, server string) {
	pv.info.Clear()
	label, value := ui.Tag(pv.theme.MutedColor), ui.Tag(pv.theme.CounterColor)
	for _, f := range [][2]string{
		{"Name", u.Name},
		{"Mobile", u.Mobile},
		{"Joined", u.RegisteredDate},
		{"Image", avatar},
		{"Server", server},
	} {
		v := f[1]
		if v == "" {
			v = "-"
		}
		_, _ = fmt.Fprintf(pv.info, " [%s::b]%-7s[-:-:-] [%s]%s[-]\n", label, f[0]+":", value, clean(v))
	}
	if u.Mobile != "" {
		_, _ = fmt.Fprintf(pv.info, "\n [%s]Scan to share your number[-]\n%s", label, renderQR(u.Mobile))
	}

	if in, ok := pv.form.GetFormItemByLabel("Name").(*tview.InputField); ok {
		in.SetText(u.Name)
	}
	if in, ok := pv.form.GetFormItemByLabel("Image file").(*tview.InputField); ok {
		in.SetText("")
	}
	pv.errText.Clear()
}

// ShowError shows msg under the form; "" clears it.
func (pv *ProfileView) ShowError(msg string) {
	pv.errText.Clear()
	if msg != "" {
		_, _ = fmt.Fprintf(pv.errText, " [%s]%s[-]", ui.Tag(pv.theme.FlashErrColor), tview.Escape(msg))
	}
}

// renderQR converts a string to a compact QR code using Unicode half-block
// characters; two bitmap rows become one terminal line.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
