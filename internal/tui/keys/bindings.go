// Package keys maps key events to actions, globally or per page.
package keys

import (
	"sort"

	"github.com/gdamore/tcell/v2"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings organized by scope.
type Registry struct {
	Global map[string]*Action
	Views  map[string]map[string]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Global: make(map[string]*Action),
		Views:  make(map[string]map[string]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.Global[name] = action
}

// AddView registers a page-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	if r.Views[view] == nil {
		r.Views[view] = make(map[string]*Action)
	}
	r.Views[view][name] = action
}

// Hints returns the visible descriptions for view, page bindings first,
// each group sorted.
func (r *Registry) Hints(view string) []string {
	hints := visible(r.Views[view])
	return append(hints, visible(r.Global)...)
}

func visible(actions map[string]*Action) []string {
	var out []string
	for _, a := range actions {
		if a.Visible {
			out = append(out, a.Description)
		}
	}
	sort.Strings(out)
	return out
}

// HandleEvent dispatches ev to the matching action of view, falling back to
// the global bindings. It reports whether a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	if a := match(r.Views[view], ev); a != nil {
		a.Handler()
		return true
	}
	if a := match(r.Global, ev); a != nil {
		a.Handler()
		return true
	}
	return false
}

func match(actions map[string]*Action, ev *tcell.EventKey) *Action {
	for _, a := range actions {
		if a.Matches(ev) {
			return a
		}
	}
	return nil
}
