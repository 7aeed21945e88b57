package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var commandAliases = map[string]string{
	"q":       "quit",
	"exit":    "quit",
	"h":       "help",
	"chat":    "chats",
	"c":       "chats",
	"group":   "groups",
	"g":       "groups",
	"ng":      "newgroup",
	"me":      "profile",
	"signout": "logout",
}

// ParseCommand parses a command string (without the leading ':'). Aliases
// resolve to their canonical name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}
