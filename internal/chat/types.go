package chat

import (
	"time"
)

// Kind distinguishes direct conversations from group conversations.
type Kind string

const (
	Direct Kind = "direct"
	Group  Kind = "group"
)

// Key identifies one conversation: a peer user id for direct chats, a group id for groups.
type Key struct {
	Kind Kind
	ID   ID
}

// DirectKey returns the key of the direct conversation with peer.
func DirectKey(peer ID) Key { return Key{Kind: Direct, ID: peer} }

// GroupKey returns the key of the group conversation.
func GroupKey(group ID) Key { return Key{Kind: Group, ID: group} }

func (k Key) String() string {
	return string(k.Kind) + ":" + string(k.ID)
}

// ConversationStatus is the server's summary of the last message in a chat-list row.
// Values match the wire contract.
type ConversationStatus int

const (
	StatusNone           ConversationStatus = 0
	StatusSeen           ConversationStatus = 1 // last message is ours and was seen
	StatusSentUnseen     ConversationStatus = 2 // last message is ours, not seen yet
	StatusIncomingUnseen ConversationStatus = 3 // last message is theirs and we have not seen it
)

// DeliveryState is only meaningful for self-authored messages.
type DeliveryState string

const (
	DeliverySent DeliveryState = "sent"
	DeliverySeen DeliveryState = "seen"
)

// Origin records where a message in the view came from.
type Origin string

const (
	OriginServer     Origin = "server"
	OriginOptimistic Origin = "optimistic"
)

// SendState tracks an optimistic message through submission.
type SendState string

const (
	SendNone     SendState = ""
	SendSending  SendState = "sending"
	SendAccepted SendState = "accepted"
	SendFailed   SendState = "failed"
)

// Conversation is one chat-list or group-list row. It is rebuilt wholesale from
// every list snapshot and never persisted.
type Conversation struct {
	ID                 ID
	Kind               Kind
	DisplayName        string
	Mobile             string
	HasAvatar          bool
	Online             bool
	LastMessagePreview string
	LastMessageTime    string
	Status             ConversationStatus
	UnseenCount        int
}

// Key returns the conversation key of the row.
func (c Conversation) Key() Key {
	return Key{Kind: c.Kind, ID: c.ID}
}

// Message is a single chat line.
type Message struct {
	ID             string
	ConversationID ID
	Self           bool
	SenderName     string
	Body           string
	// Timestamp is a server-formatted display string. It is not sortable.
	Timestamp string
	Delivery  DeliveryState
	Origin    Origin

	// Optimistic bookkeeping; zero for server entries.
	SendState  SendState
	SentAt     time.Time
	Baseline   int
	FailReason string
}

// Optimistic reports whether the message was created locally and is not yet confirmed.
func (m Message) Optimistic() bool {
	return m.Origin == OriginOptimistic
}

// User is the signed-in account as persisted in the session record.
type User struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Mobile         string `json:"mobile"`
	RegisteredDate string `json:"registered_date"`
	Online         bool   `json:"online"`
	HasAvatar      bool   `json:"has_avatar"`
}

// Contact is an entry of the all-users list used when building a group.
type Contact struct {
	ID     ID
	Name   string
	Mobile string
}
