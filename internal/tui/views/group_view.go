package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/tui/ui"
)

// GroupView builds a new group: search contacts, pick members, name it.
type GroupView struct {
	*tview.Flex
	lifecycle
	theme    *ui.Theme
	input    *tview.InputField
	contacts *tview.Table
	members  *tview.TextView
	form     *tview.Form
	errText  *tview.TextView
	data     []chat.Contact

	onQuery  func(query string)
	onToggle func(ct chat.Contact)
	onCreate func(name, description, imagePath string)
}

// NewGroupView creates a new group builder.
func NewGroupView(theme *ui.Theme) *GroupView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	contacts := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	contacts.SetBorder(true)
	contacts.SetBorderColor(theme.BorderColor)
	contacts.SetBackgroundColor(theme.BgColor)
	contacts.SetTitle(" Users ")
	contacts.SetTitleColor(theme.TitleColor)
	contacts.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	members := tview.NewTextView().
		SetDynamicColors(true)
	members.SetBorder(true)
	members.SetBorderColor(theme.BorderColor)
	members.SetBackgroundColor(theme.BgColor)
	members.SetTextColor(theme.FgColor)
	members.SetTitleColor(theme.TitleColor)

	errText := tview.NewTextView().
		SetDynamicColors(true)
	errText.SetBackgroundColor(theme.BgColor)

	gv := &GroupView{
		theme:    theme,
		input:    input,
		contacts: contacts,
		members:  members,
		errText:  errText,
	}

	form := tview.NewForm().
		AddInputField("Name", "", 32, nil, nil).
		AddInputField("Description", "", 40, nil, nil).
		AddInputField("Image file", "", 40, nil, nil).
		AddButton("Create", func() {
			if gv.onCreate != nil {
				gv.onCreate(gv.field("Name"), gv.field("Description"), gv.field("Image file"))
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
	form.SetTitle(" New group ")
	form.SetTitleColor(theme.TitleColor)
	gv.form = form

	input.SetChangedFunc(func(text string) {
		if gv.onQuery != nil {
			gv.onQuery(text)
		}
	})
	contacts.SetSelectedFunc(func(row, _ int) {
		if idx := row - 1; idx >= 0 && idx < len(gv.data) && gv.onToggle != nil {
			gv.onToggle(gv.data[idx])
		}
	})

	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(contacts, 0, 1, false)
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 11, 0, false).
		AddItem(members, 0, 1, false).
		AddItem(errText, 1, 0, false)

	gv.Flex = tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(right, 0, 1, false)
	gv.UpdateMembers(nil)
	return gv
}

// Name implements ui.Component.
func (gv *GroupView) Name() string { return "New group" }

// Hints implements ui.Component.
func (gv *GroupView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Add/remove user"},
		{Key: "Tab", Description: "Switch pane"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnQuery sets the callback run as the search text changes.
func (gv *GroupView) SetOnQuery(fn func(query string)) { gv.onQuery = fn }

// SetOnToggle sets the callback run when a user is picked.
func (gv *GroupView) SetOnToggle(fn func(ct chat.Contact)) { gv.onToggle = fn }

// SetOnCreate sets the callback of the Create button.
func (gv *GroupView) SetOnCreate(fn func(name, description, imagePath string)) { gv.onCreate = fn }

// Reset clears the inputs.
func (gv *GroupView) Reset() {
	gv.input.SetText("")
	for _, label := range []string{"Name", "Description", "Image file"} {
		if in, ok := gv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
			in.SetText("")
		}
	}
	gv.ShowError("")
}

func (gv *GroupView) field(label string) string {
	if in, ok := gv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return in.GetText()
	}
	return ""
}

// Query returns the search text.
func (gv *GroupView) Query() string { return gv.input.GetText() }

// UpdateContacts renders the search results; picked users are marked.
func (gv *GroupView) UpdateContacts(list []chat.Contact, picked func(chat.ID) bool) {
	gv.data = list
	row, _ := gv.contacts.GetSelection()
	gv.contacts.Clear()

	for col, h := range []string{"  ", " NAME", " MOBILE"} {
		gv.contacts.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(gv.theme.TableHeaderFg).
			SetBackgroundColor(gv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}
	for i, ct := range list {
		mark := "  "
		if picked != nil && picked(ct.ID) {
			mark = " +"
		}
		gv.contacts.SetCell(i+1, 0, tview.NewTableCell(mark).SetTextColor(gv.theme.BadgeColor))
		gv.contacts.SetCell(i+1, 1, tview.NewTableCell(" "+clean(ct.Name)).SetExpansion(1).SetTextColor(gv.theme.FgColor))
		gv.contacts.SetCell(i+1, 2, tview.NewTableCell(" "+clean(ct.Mobile)).SetTextColor(gv.theme.MutedColor))
	}
	if row > len(list) {
		row = len(list)
	}
	if row < 1 && len(list) > 0 {
		row = 1
	}
	if row >= 1 {
		gv.contacts.Select(row, 0)
	}
}

// UpdateMembers renders the picked members.
func (gv *GroupView) UpdateMembers(members []chat.Contact) {
	gv.members.Clear()
	gv.members.SetTitle(fmt.Sprintf(" Members (%d/%d) ", len(members), screen.MaxGroupMembers))
	for _, m := range members {
		_, _ = fmt.Fprintf(gv.members, " %s [%s]%s[-]\n", clean(m.Name), ui.Tag(gv.theme.MutedColor), clean(m.Mobile))
	}
}

// ShowError shows msg under the form; "" clears it.
func (gv *GroupView) ShowError(msg string) {
	gv.errText.Clear()
	if msg != "" {
		_, _ = fmt.Fprintf(gv.errText, " [%s]%s[-]", ui.Tag(gv.theme.FlashErrColor), tview.Escape(msg))
	}
}

// Input returns the search field.
func (gv *GroupView) Input() *tview.InputField { return gv.input }

// Contacts returns the results table.
func (gv *GroupView) Contacts() *tview.Table { return gv.contacts }

// Form returns the group form.
func (gv *GroupView) Form() *tview.Form { return gv.form }
