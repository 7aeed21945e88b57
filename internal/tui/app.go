// Package tui is the interactive terminal client.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/account"
	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/bus"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/display"
	"github.com/matheus3301/mingle/internal/logging"
	"github.com/matheus3301/mingle/internal/screen"
	"github.com/matheus3301/mingle/internal/status"
	"github.com/matheus3301/mingle/internal/tui/keys"
	"github.com/matheus3301/mingle/internal/tui/model"
	"github.com/matheus3301/mingle/internal/tui/ui"
	"github.com/matheus3301/mingle/internal/tui/views"
)

// Page names.
const (
	pageWelcome  = "welcome"
	pageChats    = "chats"
	pageGroups   = "groups"
	pageThread   = "thread"
	pageDetails  = "details"
	pageProfile  = "profile"
	pageNewGroup = "newgroup"
	pageHelp     = "help"
)

// formPages take text input everywhere, so only Esc is intercepted there.
var formPages = map[string]bool{
	pageWelcome:  true,
	pageProfile:  true,
	pageNewGroup: true,
}

// Options are the collaborators of the TUI.
type Options struct {
	Profile  string
	BaseURL  string
	AssetURL func(rel string) string
	Account  *account.Service
	Screens  screen.Deps
	Machine  *status.Machine
	Bus      *bus.Bus
	Log      *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	vm       *model.ViewModel
	registry *keys.Registry
	flash    *ui.FlashModel
	opts     Options
	log      *zap.Logger

	profileInfo *ui.ProfileInfo
	menu        *ui.Menu
	crumbs      *ui.Crumbs
	prompt      *ui.Prompt
	layout      *tview.Flex
	promptOn    bool
	statusBar   *views.StatusBar
	activity    *activity

	welcome  *views.WelcomeView
	chats    *views.ConversationList
	groups   *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	profile  *views.ProfileView
	newGroup *views.GroupView
	help     *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:         tview.NewApplication(),
		theme:       theme,
		pages:       ui.NewPages(),
		vm:          model.NewViewModel(opts.Screens),
		registry:    keys.NewRegistry(),
		flash:       ui.NewFlashModel(),
		opts:        opts,
		log:         logging.OrNop(opts.Log).Named("tui"),
		profileInfo: ui.NewProfileInfo(theme),
		menu:        ui.NewMenu(theme),
		crumbs:      ui.NewCrumbs(theme),
		prompt:      ui.NewPrompt(theme),
		statusBar:   views.NewStatusBar(theme),
		activity:    newActivity(),
		welcome:     views.NewWelcomeView(theme),
		chats:       views.NewConversationList(theme, chat.Direct, "Chats"),
		groups:      views.NewConversationList(theme, chat.Group, "Groups"),
		thread:      views.NewMessageThread(theme),
		details:     views.NewConversationInfo(theme),
		profile:     views.NewProfileView(theme),
		newGroup:    views.NewGroupView(theme),
		help:        views.NewHelpView(theme),
		ctx:         ctx,
		cancel:      cancel,
	}

	a.statusBar.SetProfile(opts.Profile)
	a.setupPages()
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupPages() {
	a.pages.AddComponent(pageWelcome, a.welcome, a.welcome)
	a.pages.AddComponent(pageChats, a.chats, a.chats)
	a.pages.AddComponent(pageGroups, a.groups, a.groups)
	a.pages.AddComponent(pageThread, a.thread, a.thread)
	a.pages.AddComponent(pageDetails, a.details, a.details)
	a.pages.AddComponent(pageProfile, a.profile, a.profile)
	a.pages.AddComponent(pageNewGroup, a.newGroup, a.newGroup)
	a.pages.AddComponent(pageHelp, a.help, a.help)

	a.chats.SetOnStart(func() {
		if err := a.vm.ShowChats(a.ctx); err != nil {
			a.flash.Err("Chats: " + err.Error())
		}
		a.renderVisible()
	})
	a.chats.SetOnStop(a.vm.HideChats)

	a.groups.SetOnStart(func() {
		if err := a.vm.ShowGroups(a.ctx); err != nil {
			a.flash.Err("Groups: " + err.Error())
		}
		a.renderVisible()
	})
	a.groups.SetOnStop(a.vm.HideGroups)

	a.thread.SetOnStart(func() {
		if err := a.vm.OpenConversation(a.ctx, a.thread.Conversation().Key()); err != nil {
			a.flash.Err("Conversation: " + err.Error())
		}
		a.renderVisible()
	})
	a.thread.SetOnStop(a.vm.CloseConversation)

	a.profile.SetOnStart(func() {
		u, _ := a.opts.Account.Current()
		a.profile.Update(u, a.assetURL(display.UserAvatarPath(u)), a.opts.BaseURL)
	})

	a.newGroup.SetOnStart(func() {
		a.newGroup.Reset()
		a.newGroup.UpdateMembers(nil)
		go func() {
			err := a.vm.LoadContacts(a.ctx)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.newGroup.ShowError("Could not load users: " + err.Error())
				}
				a.renderContacts()
			})
		}()
	})
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Description: "q:quit", Visible: true,
		Handler: a.Stop,
	})
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Description: "?:help", Visible: true,
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Description: ":command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal("profile", &keys.Action{
		Key: tcell.KeyRune, Rune: 'p',
		Description: "p:profile",
		Handler: func() { a.push(pageProfile) },
	})

	for _, page := range []string{pageChats, pageGroups} {
		a.registry.AddView(page, "filter", &keys.Action{
			Key: tcell.KeyRune, Rune: '/',
			Description: "/:filter", Visible: true,
			Handler: func() { a.showPrompt(ui.PromptFilter) },
		})
		a.registry.AddView(page, "newgroup", &keys.Action{
			Key: tcell.KeyRune, Rune: 'n',
			Description: "n:new group",
			Handler: func() { a.push(pageNewGroup) },
		})
	}
	a.registry.AddView(pageChats, "groups", &keys.Action{
		Key: tcell.KeyRune, Rune: 'g',
		Description: "g:groups",
		Handler: func() { a.pages.Reset(pageGroups) },
	})
	a.registry.AddView(pageChats, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Description: "d:details",
		Handler: func() {
			if c, ok := a.chats.Selected(); ok {
				a.showDetails(c)
			}
		},
	})
	a.registry.AddView(pageGroups, "chats", &keys.Action{
		Key: tcell.KeyRune, Rune: 'c',
		Description: "c:chats",
		Handler: func() { a.pages.Reset(pageChats) },
	})

	a.registry.AddView(pageThread, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, "retry", &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Description: "r:retry",
		Handler: a.retryFailed,
	})
	a.registry.AddView(pageThread, "discard", &keys.Action{
		Key: tcell.KeyRune, Rune: 'x',
		Description: "x:discard",
		Handler: a.discardFailed,
	})
	a.registry.AddView(pageThread, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Description: "d:details",
		Handler: func() { a.showDetails(a.thread.Conversation()) },
	})
}

func (a *App) setupCallbacks() {
	a.pages.SetOnChange(func(stack []string) {
		names := make([]string, 0, len(stack))
		for _, n := range stack {
			names = append(names, a.pages.Component(n).Name())
		}
		a.crumbs.Update(names)
		if c := a.pages.Component(a.pages.Current()); c != nil {
			a.menu.Update(c.Hints())
		}
		a.focusCurrent()
	})

	a.flash.SetOnChange(func() {
		a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.flash.Current()) })
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptFilter {
			a.applyFilter(text)
			return
		}
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.chats.SetSelectedFunc(func(int, int) {
		if c, ok := a.chats.Selected(); ok {
			a.openConversation(c)
		}
	})
	a.groups.SetSelectedFunc(func(int, int) {
		if c, ok := a.groups.Selected(); ok {
			a.openConversation(c)
		}
	})

	a.thread.SetOnSend(a.send)

	a.welcome.SetOnIdentify(a.identify)
	a.welcome.SetOnSignIn(a.signIn)
	a.welcome.SetOnSignUp(a.signUp)

	a.profile.SetOnSave(a.saveProfile)
	a.profile.SetOnLogout(a.logout)

	a.newGroup.SetOnQuery(func(string) { a.renderContacts() })
	a.newGroup.SetOnToggle(a.toggleMember)
	a.newGroup.SetOnCreate(a.createGroup)
}

func (a *App) setupLayout() {
	logo := ui.NewLogo(a.theme)
	header := tview.NewFlex().
		AddItem(a.profileInfo, 0, 2, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(logo, 20, 0, false)

	a.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.layout, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if a.promptOn {
		return event
	}
	current := a.pages.Current()

	if event.Key() == tcell.KeyEscape {
		a.back(current)
		return nil
	}
	if formPages[current] {
		return event
	}
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		return event
	}
	if a.registry.HandleEvent(current, event) {
		return nil
	}
	return event
}

func (a *App) back(current string) {
	switch {
	case current == pageThread && a.app.GetFocus() == a.thread.Composer():
		a.app.SetFocus(a.thread.Messages())
	case current == pageWelcome:
		if a.welcome.Step() != views.StepMobile {
			a.welcome.ShowMobile()
			a.focusCurrent()
		}
	default:
		a.pages.Pop()
	}
}

func (a *App) push(page string) {
	if a.pages.Current() == page || a.pages.Current() == pageWelcome {
		return
	}
	a.pages.Push(page)
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case pageWelcome:
		a.app.SetFocus(a.welcome.Form())
	case pageChats:
		a.app.SetFocus(a.chats)
	case pageGroups:
		a.app.SetFocus(a.groups)
	case pageThread:
		a.app.SetFocus(a.thread.Composer())
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageProfile:
		a.app.SetFocus(a.profile.Form())
	case pageNewGroup:
		a.app.SetFocus(a.newGroup.Input())
	case pageHelp:
		a.app.SetFocus(a.help)
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	if mode == ui.PromptFilter {
		current := a.pages.Current()
		if current != pageChats && current != pageGroups {
			return
		}
	}
	a.prompt.Activate(mode)
	if !a.promptOn {
		a.layout.AddItem(a.prompt, 3, 0, true)
		a.promptOn = true
	}
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	if a.promptOn {
		a.layout.RemoveItem(a.prompt)
		a.promptOn = false
	}
	a.focusCurrent()
}

func (a *App) applyFilter(text string) {
	switch a.pages.Current() {
	case pageChats:
		a.chats.SetFilter(text)
	case pageGroups:
		a.groups.SetFilter(text)
	}
}

func (a *App) runCommand(cmd Command) {
	signedIn := a.pages.Current() != pageWelcome
	switch cmd.Name {
	case "":
	case "quit":
		a.Stop()
	case "help":
		a.push(pageHelp)
	case "chats", "groups":
		if !signedIn {
			return
		}
		page := pageChats
		if cmd.Name == "groups" {
			page = pageGroups
		}
		a.pages.Reset(page)
		if cmd.Args != "" {
			a.openByName(cmd.Name == "groups", cmd.Args)
		}
	case "profile":
		a.push(pageProfile)
	case "newgroup":
		a.push(pageNewGroup)
	case "retry":
		a.retryFailed()
	case "discard":
		a.discardFailed()
	case "logout":
		if signedIn {
			a.logout()
		}
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
}

// openByName opens the first row of the visible list whose name contains
// name. The list may still be loading, in which case the filter is applied.
func (a *App) openByName(group bool, name string) {
	list, rows := a.chats, a.vm.Chats().Rows
	if group {
		list, rows = a.groups, a.vm.Groups().Rows
	}
	for _, c := range rows {
		if strings.Contains(strings.ToLower(c.DisplayName), strings.ToLower(name)) {
			a.openConversation(c)
			return
		}
	}
	list.SetFilter(name)
}

func (a *App) openConversation(c chat.Conversation) {
	a.thread.SetConversation(c)
	a.pages.Push(pageThread)
}

func (a *App) showDetails(c chat.Conversation) {
	var members []string
	if c.Kind == chat.Group {
		if v, ok := a.vm.Conversation(); ok && v.Key == c.Key() {
			members = v.Members
		}
	}
	a.details.Update(c, members, a.assetURL(display.AvatarPath(c)))
	a.push(pageDetails)
}

func (a *App) assetURL(rel string) string {
	return display.AvatarURL(a.opts.AssetURL, rel)
}

// renderVisible copies the state of the visible screen into its view.
func (a *App) renderVisible() {
	switch a.pages.Current() {
	case pageChats:
		v := a.vm.Chats()
		a.chats.Update(v.Rows, v.State)
	case pageGroups:
		v := a.vm.Groups()
		a.groups.Update(v.Rows, v.State)
	case pageThread:
		if v, ok := a.vm.Conversation(); ok {
			a.thread.Update(v)
		}
	}
	a.renderHeader()
}

func (a *App) renderHeader() {
	u, _ := a.opts.Account.Current()
	state := a.opts.Machine.Current()
	a.profileInfo.Update(ui.ProfileData{
		Profile: a.opts.Profile,
		User:    u.Name,
		Mobile:  u.Mobile,
		Status:  string(state),
		Server:  a.opts.BaseURL,
	})
	a.statusBar.SetUser(u.Name)
	a.statusBar.SetState(state)
	a.statusBar.SetActivity(a.activity.lastSync, a.activity.syncFailed, a.activity.Unsent())
	a.statusBar.SetFlash(a.flash.Current())
}

func (a *App) renderContacts() {
	d := a.vm.Draft()
	a.newGroup.UpdateContacts(a.vm.Contacts(a.newGroup.Query()), d.Has)
	a.newGroup.UpdateMembers(d.Members())
}

func (a *App) send(text string) {
	go func() {
		out, err := a.vm.Send(a.ctx, text)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.log.Debug("send failed", zap.Error(err))
				a.flash.Err(sendAlert(out, err))
				return
			}
			if out.Accepted {
				a.thread.ClearDraft(text)
			}
		})
	}()
}

func (a *App) retryFailed() {
	go func() {
		out, err := a.vm.RetryLast(a.ctx)
		switch {
		case err == nil, errors.Is(err, model.ErrNothingFailed), errors.Is(err, model.ErrNoConversation):
			a.queueResult("Message sent", err)
		default:
			a.flash.Err(sendAlert(out, err))
		}
	}()
}

func (a *App) discardFailed() {
	go func() {
		err := a.vm.DiscardLast(a.ctx)
		a.queueResult("Message discarded", err)
	}()
}

func (a *App) queueResult(ok string, err error) {
	if err != nil {
		a.flash.Warn(err.Error())
		return
	}
	a.flash.Info(ok)
}

func (a *App) identify(mobile string) {
	go func() {
		res, err := a.opts.Account.Identify(a.ctx, mobile)
		a.app.QueueUpdateDraw(func() {
			switch {
			case err != nil:
				a.welcome.ShowError(err)
			case res.Registered:
				a.welcome.ShowSignIn(strings.TrimSpace(mobile), res.UserName)
			default:
				a.welcome.ShowSignUp(strings.TrimSpace(mobile))
			}
			a.menu.Update(a.welcome.Hints())
			a.focusCurrent()
		})
	}()
}

func (a *App) signIn(mobile, password string) {
	go func() {
		_, err := a.opts.Account.SignIn(a.ctx, mobile, password)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				var rej *backend.RejectedError
				if errors.As(err, &rej) {
					a.welcome.ShowError(&account.FieldError{Field: account.FieldPassword, Message: rej.Message})
					return
				}
				a.welcome.ShowError(err)
				return
			}
			a.pages.Reset(pageChats)
		})
	}()
}

func (a *App) signUp(name, password, imagePath string) {
	image, err := readUpload(imagePath)
	if err != nil {
		a.welcome.ShowError(err)
		return
	}
	mobile := a.welcome.Mobile()
	go func() {
		_, err := a.opts.Account.SignUp(a.ctx, backend.SignUpForm{
			Name:     name,
			Password: password,
			Mobile:   mobile,
			Image:    image,
		})
		if err == nil {
			_, err = a.opts.Account.SignIn(a.ctx, mobile, password)
		}
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.welcome.ShowError(err)
				return
			}
			a.pages.Reset(pageChats)
		})
	}()
}

func (a *App) saveProfile(name, imagePath string) {
	image, err := readUpload(imagePath)
	if err != nil {
		a.profile.ShowError(err.Error())
		return
	}
	go func() {
		u, err := a.opts.Account.UpdateProfile(a.ctx, strings.TrimSpace(name), image)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				var fe *account.FieldError
				if errors.As(err, &fe) {
					a.profile.ShowError(fe.Message)
					return
				}
				a.profile.ShowError(err.Error())
				return
			}
			a.profile.Update(u, a.assetURL(display.UserAvatarPath(u)), a.opts.BaseURL)
			a.flash.Info("Profile updated")
			a.renderHeader()
		})
	}()
}

func (a *App) logout() {
	a.vm.HideAll()
	a.welcome.ShowMobile()
	a.pages.Reset(pageWelcome)
	go func() {
		err := a.opts.Account.Logout(a.ctx)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err("Logout: " + err.Error())
			}
			a.renderHeader()
		})
	}()
}

func (a *App) toggleMember(ct chat.Contact) {
	d := a.vm.Draft()
	if d.Has(ct.ID) {
		d.Remove(ct.ID)
	} else if err := d.Add(ct); err != nil {
		a.newGroup.ShowError(err.Error())
		return
	}
	a.newGroup.ShowError("")
	a.renderContacts()
}

func (a *App) createGroup(name, description, imagePath string) {
	image, err := readUpload(imagePath)
	if err != nil {
		a.newGroup.ShowError(err.Error())
		return
	}
	d := a.vm.Draft()
	d.Name, d.Description, d.Image = name, description, image
	go func() {
		err := a.vm.CreateGroup(a.ctx)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.newGroup.ShowError(err.Error())
				return
			}
			a.flash.Info(fmt.Sprintf("Group %q created", strings.TrimSpace(name)))
			a.pages.Reset(pageGroups)
		})
	}()
}

// readUpload reads an image file for a form; an empty path means no image.
func readUpload(path string) (*backend.Upload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &backend.Upload{Filename: filepath.Base(path), Data: data}, nil
}

// Run shows the first page and blocks until the UI exits.
func (a *App) Run() error {
	events, unsubscribe := a.opts.Bus.Subscribe("", 64)
	defer unsubscribe()

	go a.refreshLoop(events)

	if _, ok := a.opts.Account.Current(); ok {
		a.pages.Reset(pageChats)
	} else {
		a.pages.Reset(pageWelcome)
	}
	a.renderHeader()

	err := a.app.Run()
	a.cancel()
	a.pages.StopAll()
	return err
}

// refreshLoop redraws on screen changes and bus events, and once a second
// for the clock and flash expiry.
func (a *App) refreshLoop(events <-chan bus.Event) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.renderVisible)
		case evt := <-events:
			a.app.QueueUpdateDraw(func() { a.handleEvent(evt) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderHeader)
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	changed := a.activity.observe(evt)
	if strings.HasPrefix(evt.Kind, "session.") {
		a.log.Debug("session event", zap.String("kind", evt.Kind))
		changed = true
	}
	if changed {
		a.renderHeader()
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
