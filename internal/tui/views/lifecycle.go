package views

// lifecycle lets the app attach screen mounting to a page's Start and Stop.
type lifecycle struct {
	onStart func()
	onStop  func()
}

// SetOnStart sets the callback run when the page becomes visible.
func (l *lifecycle) SetOnStart(fn func()) { l.onStart = fn }

// SetOnStop sets the callback run when the page is covered or popped.
func (l *lifecycle) SetOnStop(fn func()) { l.onStop = fn }

// Start implements ui.Component.
func (l *lifecycle) Start() {
	if l.onStart != nil {
		l.onStart()
	}
}

// Stop implements ui.Component.
func (l *lifecycle) Stop() {
	if l.onStop != nil {
		l.onStop()
	}
}

// Init implements ui.Component.
func (l *lifecycle) Init() {}
