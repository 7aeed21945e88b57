package ui

import "github.com/rivo/tview"

// Pages is a stack-based page manager wrapping tview.Pages. Pages added with
// a Component get Start when they reach the top of the stack and Stop when
// they leave it.
type Pages struct {
	*tview.Pages
	stack      []string
	components map[string]Component
	onChange   func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// AddComponent registers a hidden page backed by c.
func (p *Pages) AddComponent(name string, c Component, item tview.Primitive) {
	p.components[name] = c
	c.Init()
	p.AddPage(name, item, true, false)
}

// Component returns the component registered under name.
func (p *Pages) Component(name string) Component {
	return p.components[name]
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push covers the current page with name.
func (p *Pages) Push(name string) {
	if top := p.Current(); top != "" {
		p.leave(top)
	}
	p.stack = append(p.stack, name)
	p.enter(name)
	p.notify()
}

// Pop removes the top page and shows the previous one. The root page is
// never popped; Pop returns "" in that case.
func (p *Pages) Pop() string {
	if len(p.stack) < 2 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.leave(top)
	p.stack = p.stack[:len(p.stack)-1]
	p.enter(p.Current())
	p.notify()
	return top
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	return append([]string(nil), p.stack...)
}

// Reset clears the stack and shows only name.
func (p *Pages) Reset(name string) {
	if top := p.Current(); top != "" {
		p.leave(top)
	}
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.enter(name)
	p.notify()
}

// StopAll stops the visible component; used on shutdown.
func (p *Pages) StopAll() {
	if top := p.Current(); top != "" {
		if c := p.components[top]; c != nil {
			c.Stop()
		}
	}
}

func (p *Pages) enter(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
	if c := p.components[name]; c != nil {
		c.Start()
	}
}

func (p *Pages) leave(name string) {
	if c := p.components[name]; c != nil {
		c.Stop()
	}
	p.HidePage(name)
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
