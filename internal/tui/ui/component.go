package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Accent      bool // drawn in the accent color, used for destructive or recovery keys
}

// Component is the lifecycle interface of every page. Start runs when the
// page becomes the visible top of the stack, Stop when it is covered or
// popped; pages that poll mount and unmount their screen there.
type Component interface {
	Name() string
	Init()
	Start()
	Stop()
	Hints() []MenuHint
}
