// Package sync merges polled snapshots with locally staged messages.
package sync

import "github.com/matheus3301/mingle/internal/chat"

// Result is the outcome of one reconciliation.
type Result struct {
	// View is the snapshot verbatim followed by the still-pending optimistic
	// messages in staging order.
	View []chat.Message
	// Confirmed holds the ids of pending messages the snapshot now contains.
	Confirmed []string
}

// Reconcile builds the new view of one conversation from a fresh snapshot and
// the conversation's pending optimistic messages. The previous view is not an
// input: confirmed entries always come from the snapshot.
//
// A pending message p is confirmed once the snapshot holds more self-authored
// messages with p's body than p.Baseline, the number of such messages that
// were visible when p was staged.
func Reconcile(fresh, pending []chat.Message) Result {
	counts := make(map[string]int)
	for _, m := range fresh {
		if m.Self {
			counts[m.Body]++
		}
	}

	view := make([]chat.Message, 0, len(fresh)+len(pending))
	view = append(view, fresh...)

	var confirmed []string
	for _, p := range pending {
		if Matches(p, counts[p.Body]) {
			confirmed = append(confirmed, p.ID)
			continue
		}
		view = append(view, p)
	}
	return Result{View: view, Confirmed: confirmed}
}

// Matches reports whether pending message p is confirmed by a snapshot that
// holds selfSameBody self-authored messages with p's body.
func Matches(p chat.Message, selfSameBody int) bool {
	return selfSameBody > p.Baseline
}

// Baseline counts the self-authored messages in view whose body is body. The
// count taken when a message is staged becomes its Baseline.
func Baseline(view []chat.Message, body string) int {
	n := 0
	for _, m := range view {
		if m.Self && m.Body == body {
			n++
		}
	}
	return n
}
