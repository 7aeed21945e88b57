package views

import (
	"strings"

	"github.com/rivo/tview"
)

// sanitizeForTerminal drops the codepoints tcell renders badly: skin tone
// modifiers, the zero width joiner, and variation selectors. A modified emoji
// falls back to its base glyph.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		if isProblematicRune(r) {
			return -1
		}
		return r
	}, s)
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}

// clean prepares untrusted text for a tview cell.
func clean(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
