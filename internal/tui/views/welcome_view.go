package views

import (
	"errors"
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/account"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// WelcomeStep is the onboarding form being shown.
type WelcomeStep int

const (
	StepMobile WelcomeStep = iota
	StepSignIn
	StepSignUp
)

const (
	labelMobile   = "Mobile"
	labelName     = "Name"
	labelPassword = "Password"
	labelImage    = "Image file"
)

// WelcomeView is the onboarding page: identify by mobile, then sign in or
// sign up.
type WelcomeView struct {
	*tview.Flex
	lifecycle
	theme    *ui.Theme
	greeting *tview.TextView
	form     *tview.Form
	errText  *tview.TextView
	step     WelcomeStep
	mobile   string

	onIdentify func(mobile string)
	onSignIn   func(mobile, password string)
	onSignUp   func(name, password, imagePath string)
}

// NewWelcomeView creates the onboarding page at the mobile step.
func NewWelcomeView(theme *ui.Theme) *WelcomeView {
	greeting := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	greeting.SetBackgroundColor(theme.BgColor)

	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.TableCursorBg)
	form.SetButtonTextColor(theme.TableCursorFg)
	form.SetTitleColor(theme.TitleColor)

	errText := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	errText.SetBackgroundColor(theme.BgColor)

	column := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(greeting, 2, 0, false).
		AddItem(form, 11, 0, true).
		AddItem(errText, 3, 0, false).
		AddItem(nil, 0, 1, false)

	wv := &WelcomeView{
		Flex: tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(column, 60, 0, true).
			AddItem(nil, 0, 1, false),
		theme:    theme,
		greeting: greeting,
		form:     form,
		errText:  errText,
	}
	wv.ShowMobile()
	return wv
}

// Name implements ui.Component.
func (wv *WelcomeView) Name() string { return "Welcome" }

// Hints implements ui.Component.
func (wv *WelcomeView) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Continue"},
	}
	if wv.step != StepMobile {
		hints = append(hints, ui.MenuHint{Key: "Esc", Description: "Change number"})
	}
	return append(hints, ui.MenuHint{Key: "Ctrl-C", Description: "Quit"})
}

// SetOnIdentify sets the callback of the mobile step.
func (wv *WelcomeView) SetOnIdentify(fn func(mobile string)) { wv.onIdentify = fn }

// SetOnSignIn sets the callback of the sign-in step.
func (wv *WelcomeView) SetOnSignIn(fn func(mobile, password string)) { wv.onSignIn = fn }

// SetOnSignUp sets the callback of the sign-up step.
func (wv *WelcomeView) SetOnSignUp(fn func(name, password, imagePath string)) { wv.onSignUp = fn }

// Step returns the form being shown.
func (wv *WelcomeView) Step() WelcomeStep { return wv.step }

// Mobile returns the number being onboarded.
func (wv *WelcomeView) Mobile() string { return wv.mobile }

// Form returns the active form (for focus management).
func (wv *WelcomeView) Form() *tview.Form { return wv.form }

// ShowMobile resets to the first step.
func (wv *WelcomeView) ShowMobile() {
	wv.step = StepMobile
	wv.setGreeting("Welcome to Mingle", "enter your mobile number to continue")
	wv.form.Clear(true)
	wv.form.SetTitle(" Start ")
	wv.form.AddInputField(labelMobile, wv.mobile, 20, tview.InputFieldInteger, nil)
	wv.form.AddButton("Next", func() {
		if wv.onIdentify != nil {
			wv.onIdentify(wv.text(labelMobile))
		}
	})
	wv.form.SetFocus(0)
	wv.ShowError(nil)
}

// ShowSignIn asks for the password of a registered number.
func (wv *WelcomeView) ShowSignIn(mobile, userName string) {
	wv.step = StepSignIn
	wv.mobile = mobile
	wv.setGreeting("Hi "+userName, "sign in to "+mobile)
	wv.form.Clear(true)
	wv.form.SetTitle(" Sign in ")
	wv.form.AddPasswordField(labelPassword, "", 32, '*', nil)
	wv.form.AddButton("Sign in", func() {
		if wv.onSignIn != nil {
			wv.onSignIn(wv.mobile, wv.text(labelPassword))
		}
	})
	wv.form.SetFocus(0)
	wv.ShowError(nil)
}

// ShowSignUp asks for the details of a new account.
func (wv *WelcomeView) ShowSignUp(mobile string) {
	wv.step = StepSignUp
	wv.mobile = mobile
	wv.setGreeting("Create your account", mobile+" is not registered yet")
	wv.form.Clear(true)
	wv.form.SetTitle(" Sign up ")
	wv.form.AddInputField(labelName, "", 32, nil, nil)
	wv.form.AddPasswordField(labelPassword, "", 32, '*', nil)
	wv.form.AddInputField(labelImage, "", 40, nil, nil)
	wv.form.AddButton("Sign up", func() {
		if wv.onSignUp != nil {
			wv.onSignUp(wv.text(labelName), wv.text(labelPassword), wv.text(labelImage))
		}
	})
	wv.form.SetFocus(0)
	wv.ShowError(nil)
}

func (wv *WelcomeView) setGreeting(title, sub string) {
	wv.greeting.Clear()
	_, _ = fmt.Fprintf(wv.greeting, "[%s::b]%s[-:-:-]\n[%s]%s[-]",
		ui.Tag(wv.theme.TitleColor), tview.Escape(title),
		ui.Tag(wv.theme.MutedColor), tview.Escape(sub))
}

func (wv *WelcomeView) text(label string) string {
	if in, ok := wv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return in.GetText()
	}
	return ""
}

// ShowError renders err under the form. Field errors are listed with the
// label of their input; nil clears the area.
func (wv *WelcomeView) ShowError(err error) {
	wv.errText.Clear()
	if err == nil {
		return
	}
	color := ui.Tag(wv.theme.FlashErrColor)

	var form account.FormErrors
	var field *account.FieldError
	switch {
	case errors.As(err, &form):
		for _, fe := range form {
			_, _ = fmt.Fprintf(wv.errText, "[%s]%s: %s[-]\n", color, fieldLabel(fe.Field), tview.Escape(fe.Message))
		}
	case errors.As(err, &field):
		_, _ = fmt.Fprintf(wv.errText, "[%s]%s: %s[-]", color, fieldLabel(field.Field), tview.Escape(field.Message))
	default:
		_, _ = fmt.Fprintf(wv.errText, "[%s]%s[-]", color, tview.Escape(err.Error()))
	}
}

// ErrorText returns the rendered error area.
func (wv *WelcomeView) ErrorText() string {
	return wv.errText.GetText(true)
}

func fieldLabel(field string) string {
	switch field {
	case account.FieldMobile:
		return labelMobile
	case account.FieldName:
		return labelName
	case account.FieldPassword:
		return labelPassword
	default:
		return field
	}
}
