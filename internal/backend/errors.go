package backend

import (
	"errors"
	"fmt"
)

// ErrNoUpdate is returned by a snapshot read when the server answered with a
// well-formed negative body. Callers keep their previous view.
var ErrNoUpdate = errors.New("backend: no update")

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Endpoint, e.Code)
}

// RejectedError is an explicit Success:false answer to an action. Message is
// the server's text and is meant to be shown to the user.
type RejectedError struct {
	Endpoint string
	Message  string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s rejected the request", e.Endpoint)
	}
	return fmt.Sprintf("backend %s rejected the request: %s", e.Endpoint, e.Message)
}

// UserMessage returns the text to show for err: the server's message for a
// rejection, a generic line for everything else.
func UserMessage(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return "Something went wrong. Please try again."
}
