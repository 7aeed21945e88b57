package backend

import "github.com/matheus3301/mingle/internal/chat"

// Wire records of the backend contract. Field names follow the server's JSON
// exactly, including its spelling.

// Side values of a direct chat record.
const (
	SideSelf  = "right"
	SidePeer  = "left"
	GroupSelf = "you"
)

// ChatRecord is one element of the LoadChat array.
type ChatRecord struct {
	Msg      string `json:"msg"`
	DateTime string `json:"dateTime"`
	Side     string `json:"side"`
	Status   int    `json:"status"`
}

// HomeData is the LoadHomeData body.
type HomeData struct {
	Status          bool      `json:"status"`
	JSONChatArray   []HomeRow `json:"jsonChatArray"`
	UserImageStatus chat.Flag `json:"userImageStatus"`
}

// HomeRow is one chat-list row.
type HomeRow struct {
	UserID           chat.ID   `json:"userId"`
	Name             string    `json:"Name"`
	Mobile           string    `json:"mobile"`
	Msg              string    `json:"msg"`
	DateTime         string    `json:"datetime"`
	ChatStatus       int       `json:"chatStatus"`
	UnSeenCount      int       `json:"unSeenCount"`
	AvatarImageFound chat.Flag `json:"avatar_image_found"`
	UserStatus       int       `json:"userStatus"`
}

// GroupRow is one element of the LoadGroups array.
type GroupRow struct {
	GroupID               chat.ID   `json:"groupId"`
	GroupName             string    `json:"groupName"`
	UserImageStatus       chat.Flag `json:"userImageStatus"`
	LastChatMsg           string    `json:"lastChatMsg"`
	LastChatMsgTime       string    `json:"lastChatMsgTime"`
	LastMessageSeenStatus int       `json:"lastMessageSeenStatus"`
	UnSeenCount           int       `json:"unSeenCount"`
}

// GroupChatData is the LoadGroupChat body.
type GroupChatData struct {
	Chats []GroupChatRecord `json:"chats"`
	Names []string          `json:"names"`
}

// GroupChatRecord is one group message.
type GroupChatRecord struct {
	Msg        string `json:"msg"`
	Date       string `json:"date"`
	SenderName string `json:"senderName"`
	SeenStatus int    `json:"seenStatus"`
}

// UserRecord is the user object returned by SignIn and UpdateUserData.
type UserRecord struct {
	ID               chat.ID   `json:"id"`
	FirstName        string    `json:"first_name"`
	Mobile           string    `json:"mobile"`
	RegisteredDate   string    `json:"registeredDate"`
	UserStatus       int       `json:"userStatus"`
	AvatarImageFound chat.Flag `json:"avatar_image_found"`
}

// ContactRecord is one element of the LoadAllUsers array.
type ContactRecord struct {
	ID     chat.ID `json:"id"`
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`
}

// StartReply is the Start body.
type StartReply struct {
	Msg      string `json:"msg"`
	UserName string `json:"userName,omitempty"`
}

// Start outcomes carried in StartReply.Msg; anything else is an error text.
const (
	StartRegister = "Register"
	StartSuccess  = "Success"
)

// SignUpReply is the SignUp body.
type SignUpReply struct {
	Success  bool   `json:"Success"`
	UserName string `json:"userName,omitempty"`
	Msg      string `json:"msg,omitempty"`
}

// SignInReply is the SignIn body.
type SignInReply struct {
	Success bool        `json:"Success"`
	User    *UserRecord `json:"user,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

// Ack is the body of the send and group-create actions.
type Ack struct {
	Success bool   `json:"Success"`
	Msg     string `json:"msg,omitempty"`
}

// UpdateReply is the UpdateUserData body.
type UpdateReply struct {
	Success bool        `json:"Success"`
	User    *UserRecord `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ToUser maps the wire record onto the session user.
func (r UserRecord) ToUser() chat.User {
	return chat.User{
		ID:             r.ID,
		Name:           r.FirstName,
		Mobile:         r.Mobile,
		RegisteredDate: r.RegisteredDate,
		Online:         r.UserStatus == 1,
		HasAvatar:      bool(r.AvatarImageFound),
	}
}
