package model

import "errors"

var (
	ErrNoConversation = errors.New("no conversation is open")
	ErrNothingFailed  = errors.New("no failed message to act on")
)
