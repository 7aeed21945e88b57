package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"quit", Command{Name: "quit"}},
		{" Q ", Command{Name: "quit"}},
		{"chats", Command{Name: "chats"}},
		{"chat Bob Silva", Command{Name: "chats", Args: "Bob Silva"}},
		{"g", Command{Name: "groups"}},
		{"newgroup", Command{Name: "newgroup"}},
		{"me", Command{Name: "profile"}},
		{"retry", Command{Name: "retry"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseCommand(tt.input); got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
