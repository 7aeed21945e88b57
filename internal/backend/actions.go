package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/matheus3301/mingle/internal/chat"
)

// Actions are the user-initiated requests.
type Actions interface {
	Start(ctx context.Context, mobile string) (StartResult, error)
	SignUp(ctx context.Context, form SignUpForm) (string, error)
	SignIn(ctx context.Context, mobile, password string) (chat.User, error)
	SendDirect(ctx context.Context, self, peer chat.ID, body string) error
	SendGroup(ctx context.Context, self, group chat.ID, body string) error
	MakeGroup(ctx context.Context, form GroupForm) error
	UpdateProfile(ctx context.Context, self chat.ID, name string, image *Upload) (chat.User, error)
	ListContacts(ctx context.Context, self chat.ID) ([]chat.Contact, error)
}

// StartResult says where onboarding continues for a mobile number.
type StartResult struct {
	// Registered is true when the number has an account; UserName is then set.
	Registered bool
	UserName   string
}

// SignUpForm is the SignUp request.
type SignUpForm struct {
	Name     string
	Password string
	Mobile   string
	Image    *Upload
}

// GroupForm is the MakeGroupChat request.
type GroupForm struct {
	Name        string
	Description string
	Creator     chat.ID
	Members     []chat.ID
	Image       *Upload
}

// Start identifies a mobile number. An unknown reply text is returned as a RejectedError.
func (c *Client) Start(ctx context.Context, mobile string) (StartResult, error) {
	var reply StartReply
	if err := c.postJSON(ctx, EndpointStart, map[string]string{"mobile": mobile}, &reply); err != nil {
		return StartResult{}, err
	}
	switch reply.Msg {
	case StartRegister:
		return StartResult{}, nil
	case StartSuccess:
		return StartResult{Registered: true, UserName: reply.UserName}, nil
	default:
		return StartResult{}, &RejectedError{Endpoint: EndpointStart, Message: reply.Msg}
	}
}

// SignUp registers an account and returns the user name echoed by the server.
func (c *Client) SignUp(ctx context.Context, form SignUpForm) (string, error) {
	fields := []formField{
		{"name", form.Name},
		{"password", form.Password},
		{"mobile", form.Mobile},
	}
	var reply SignUpReply
	if err := c.postMultipart(ctx, EndpointSignUp, fields, form.Image, &reply); err != nil {
		return "", err
	}
	if !reply.Success {
		return "", &RejectedError{Endpoint: EndpointSignUp, Message: reply.Msg}
	}
	return reply.UserName, nil
}

// SignIn exchanges credentials for the user record.
func (c *Client) SignIn(ctx context.Context, mobile, password string) (chat.User, error) {
	body := map[string]string{"password": password, "mobile": mobile}
	var reply SignInReply
	if err := c.postJSON(ctx, EndpointSignIn, body, &reply); err != nil {
		return chat.User{}, err
	}
	if !reply.Success || reply.User == nil {
		return chat.User{}, &RejectedError{Endpoint: EndpointSignIn, Message: reply.Msg}
	}
	return reply.User.ToUser(), nil
}

// SendDirect submits one direct message.
func (c *Client) SendDirect(ctx context.Context, self, peer chat.ID, body string) error {
	q := url.Values{}
	q.Set("U_id", string(self))
	q.Set("OU_id", string(peer))
	q.Set("msg", body)
	return c.ack(ctx, EndpointSendChat, q)
}

// SendGroup submits one group message.
func (c *Client) SendGroup(ctx context.Context, self, group chat.ID, body string) error {
	q := url.Values{}
	q.Set("user_id", string(self))
	q.Set("group_id", string(group))
	q.Set("msg", body)
	return c.ack(ctx, EndpointSendGroup, q)
}

func (c *Client) ack(ctx context.Context, endpoint string, q url.Values) error {
	var reply Ack
	if err := c.getJSON(ctx, endpoint, q, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return &RejectedError{Endpoint: endpoint, Message: reply.Msg}
	}
	return nil
}

// MakeGroup creates a group. Members travel as one JSON array in groupUsers[].
func (c *Client) MakeGroup(ctx context.Context, form GroupForm) error {
	members, err := encodeIDs(form.Members)
	if err != nil {
		return err
	}
	fields := []formField{
		{"groupName", form.Name},
		{"groupDesc", form.Description},
		{"you", string(form.Creator)},
		{"groupUsers[]", members},
	}
	var reply Ack
	if err := c.postMultipart(ctx, EndpointMakeGroup, fields, form.Image, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return &RejectedError{Endpoint: EndpointMakeGroup, Message: reply.Msg}
	}
	return nil
}

// UpdateProfile renames the user and optionally replaces the avatar. The
// returned record replaces the stored session wholesale.
func (c *Client) UpdateProfile(ctx context.Context, self chat.ID, name string, image *Upload) (chat.User, error) {
	fields := []formField{
		{"id", string(self)},
		{"name", name},
	}
	var reply UpdateReply
	if err := c.postMultipart(ctx, EndpointUpdateUser, fields, image, &reply); err != nil {
		return chat.User{}, err
	}
	if !reply.Success || reply.User == nil {
		return chat.User{}, &RejectedError{Endpoint: EndpointUpdateUser, Message: reply.Message}
	}
	return reply.User.ToUser(), nil
}

// ListContacts loads every other user.
func (c *Client) ListContacts(ctx context.Context, self chat.ID) ([]chat.Contact, error) {
	q := url.Values{}
	q.Set("id", string(self))

	var rows []ContactRecord
	if err := c.getJSON(ctx, EndpointLoadAllUsers, q, &rows); err != nil {
		return nil, err
	}
	contacts := make([]chat.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, chat.Contact{ID: r.ID, Name: r.Name, Mobile: r.Mobile})
	}
	return contacts, nil
}

// encodeIDs renders ids as a JSON array, keeping numeric ids numeric.
func encodeIDs(ids []chat.ID) (string, error) {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		s := strings.TrimSpace(string(id))
		if isPlainNumber(s) {
			out = append(out, json.Number(s))
		} else {
			out = append(out, s)
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode group members: %w", err)
	}
	return string(data), nil
}

// isPlainNumber reports whether s is a non-negative integer without leading zeros.
func isPlainNumber(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
