package ui

import (
	"sync"
	"time"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a transient notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current flash message. It is safe for use from
// polling goroutines.
type FlashModel struct {
	mu       sync.RWMutex
	current  FlashMessage
	now      func() time.Time
	onChange func()
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{now: time.Now}
}

// SetOnChange registers fn to run after every new message.
func (f *FlashModel) SetOnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo, 4*time.Second) }

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn, 8*time.Second) }

// Err sets an error-level flash message.
func (f *FlashModel) Err(msg string) { f.set(msg, FlashErr, 10*time.Second) }

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	f.current = FlashMessage{Text: msg, Level: level, Expires: f.now().Add(d)}
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Current returns the live message, or nil once it has expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}
