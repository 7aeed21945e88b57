package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates whether the prompt takes a command or a filter.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

const maxHistory = 50

// Prompt is the one-line command/filter input. Submitted commands are kept
// in a history that Up and Down walk through.
type Prompt struct {
	*tview.InputField
	mode     PromptMode
	history  []string
	cursor   int // index into history; len(history) is the empty line
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input}
	input.SetDoneFunc(p.done)
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if p.mode != PromptCommand {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyUp:
			p.SetText(p.recall(-1))
			return nil
		case tcell.KeyDown:
			p.SetText(p.recall(1))
			return nil
		}
		return ev
	})
	return p
}

func (p *Prompt) done(key tcell.Key) {
	text := p.GetText()
	p.SetText("")
	switch key {
	case tcell.KeyEnter:
		if p.mode == PromptCommand {
			p.remember(text)
		}
		if p.onSubmit != nil {
			p.onSubmit(p.mode, text)
		}
	case tcell.KeyEscape:
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

func (p *Prompt) remember(cmd string) {
	if cmd == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == cmd) {
		p.cursor = len(p.history)
		return
	}
	p.history = append(p.history, cmd)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
	p.cursor = len(p.history)
}

// recall moves the history cursor by step and returns the entry under it.
func (p *Prompt) recall(step int) string {
	p.cursor = min(max(p.cursor+step, 0), len(p.history))
	if p.cursor == len(p.history) {
		return ""
	}
	return p.history[p.cursor]
}

// SetOnSubmit sets the callback for Enter. An empty filter is submitted too,
// so it can clear the active filter.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback for Esc.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate prepares the prompt for mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.cursor = len(p.history)
	p.SetText("")
	if mode == PromptFilter {
		p.SetLabel("/")
		p.SetTitle(" Filter ")
		return
	}
	p.SetLabel(":")
	p.SetTitle(" Command ")
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
