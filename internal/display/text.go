package display

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/matheus3301/mingle/internal/chat"
)

const (
	// PreviewLimit is the number of visible characters kept by MemberPreview.
	PreviewLimit = 30
	// PreviewEllipsis marks a truncated member preview.
	PreviewEllipsis = "......"
)

// Presence texts.
const (
	PresenceOnline = "Online"
	PresenceAway   = "Last Seen few minutes ago"
)

// MemberPreview joins member names with ", " and keeps the first PreviewLimit
// grapheme clusters, so multi-byte names are never cut inside a character.
func MemberPreview(names []string) string {
	joined := strings.Join(names, ", ")
	if uniseg.GraphemeClusterCount(joined) <= PreviewLimit {
		return joined
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(joined)
	for n := 0; n < PreviewLimit && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	b.WriteString(PreviewEllipsis)
	return b.String()
}

// Presence renders a peer's online flag.
func Presence(online bool) string {
	if online {
		return PresenceOnline
	}
	return PresenceAway
}

// DefaultAvatar is the bundled asset shown when a record has no image.
const DefaultAvatar = "assets/user.png"

// AvatarPath returns the server-relative image path of a conversation, or ""
// when the record says there is no image. Absence is never checked over HTTP.
func AvatarPath(c chat.Conversation) string {
	if !c.HasAvatar {
		return ""
	}
	if c.Kind == chat.Group {
		return "GroupImages/" + string(c.ID) + ".png"
	}
	if c.Mobile == "" {
		return ""
	}
	return "ProfileImages/" + c.Mobile + ".png"
}

// UserAvatarPath is AvatarPath for the signed-in user.
func UserAvatarPath(u chat.User) string {
	return AvatarPath(chat.Conversation{Kind: chat.Direct, Mobile: u.Mobile, HasAvatar: u.HasAvatar})
}

// AvatarURL resolves path with resolve, falling back to DefaultAvatar.
func AvatarURL(resolve func(rel string) string, path string) string {
	if path == "" || resolve == nil {
		return DefaultAvatar
	}
	return resolve(path)
}
