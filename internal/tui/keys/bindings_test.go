package keys

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHandleEventPrefersView(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.AddGlobal("quit", &Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = append(got, "global") }})
	r.AddView("thread", "quit", &Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = append(got, "view") }})

	if !r.HandleEvent("thread", runeEvent('q')) {
		t.Fatal("HandleEvent(thread, q) = false")
	}
	if !r.HandleEvent("chats", runeEvent('q')) {
		t.Fatal("HandleEvent(chats, q) = false")
	}
	if want := []string{"view", "global"}; !reflect.DeepEqual(got, want) {
		t.Errorf("handlers = %v, want %v", got, want)
	}
	if r.HandleEvent("chats", runeEvent('z')) {
		t.Error("HandleEvent(z) matched nothing but returned true")
	}
}

func TestSpecialKeys(t *testing.T) {
	r := NewRegistry()
	called := false
	r.AddGlobal("back", &Action{Key: tcell.KeyEscape, Handler: func() { called = true }})

	if r.HandleEvent("any", runeEvent('e')) {
		t.Error("rune event matched a special key binding")
	}
	if !r.HandleEvent("any", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) || !called {
		t.Error("Esc was not handled")
	}
}

func TestHintsSortedAndVisibleOnly(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal("quit", &Action{Description: "q:quit", Visible: true})
	r.AddGlobal("help", &Action{Description: "?:help", Visible: true})
	r.AddGlobal("secret", &Action{Description: "x:secret"})
	r.AddView("thread", "retry", &Action{Description: "r:retry", Visible: true})

	want := []string{"r:retry", "?:help", "q:quit"}
	if got := r.Hints("thread"); !reflect.DeepEqual(got, want) {
		t.Errorf("Hints(thread) = %v, want %v", got, want)
	}
}
