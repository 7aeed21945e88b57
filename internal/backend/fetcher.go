package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matheus3301/mingle/internal/chat"
)

// Fetcher performs the four snapshot reads. Each call returns a complete
// snapshot of one resource, never a delta.
type Fetcher interface {
	FetchConversation(ctx context.Context, self, peer chat.ID) ([]chat.Message, error)
	FetchGroupConversation(ctx context.Context, self, group chat.ID) (GroupSnapshot, error)
	FetchChatList(ctx context.Context, self chat.ID) (ChatListSnapshot, error)
	FetchGroupList(ctx context.Context, self chat.ID) ([]chat.Conversation, error)
}

// GroupSnapshot is one LoadGroupChat answer.
type GroupSnapshot struct {
	Messages []chat.Message
	Members  []string
}

// ChatListSnapshot is one LoadHomeData answer.
type ChatListSnapshot struct {
	Conversations []chat.Conversation
	SelfHasAvatar bool
}

// FetchConversation loads the direct conversation between self and peer in server order.
func (c *Client) FetchConversation(ctx context.Context, self, peer chat.ID) ([]chat.Message, error) {
	q := url.Values{}
	q.Set("U_id", string(self))
	q.Set("OU_id", string(peer))

	var records []ChatRecord
	if err := c.getJSON(ctx, EndpointLoadChat, q, &records); err != nil {
		return nil, err
	}
	return directMessages(peer, records), nil
}

// FetchGroupConversation loads a group's messages and member names in server order.
func (c *Client) FetchGroupConversation(ctx context.Context, self, group chat.ID) (GroupSnapshot, error) {
	q := url.Values{}
	q.Set("id", string(self))
	q.Set("groupId", string(group))

	var data GroupChatData
	if err := c.getJSON(ctx, EndpointLoadGroupChat, q, &data); err != nil {
		return GroupSnapshot{}, err
	}
	return GroupSnapshot{
		Messages: groupMessages(group, data.Chats),
		Members:  append([]string(nil), data.Names...),
	}, nil
}

// FetchChatList loads the direct chat list. A status:false body yields ErrNoUpdate.
func (c *Client) FetchChatList(ctx context.Context, self chat.ID) (ChatListSnapshot, error) {
	q := url.Values{}
	q.Set("id", string(self))

	var data HomeData
	if err := c.getJSON(ctx, EndpointLoadHomeData, q, &data); err != nil {
		return ChatListSnapshot{}, err
	}
	if !data.Status {
		return ChatListSnapshot{}, fmt.Errorf("%s: %w", EndpointLoadHomeData, ErrNoUpdate)
	}

	convs := make([]chat.Conversation, 0, len(data.JSONChatArray))
	for _, row := range data.JSONChatArray {
		convs = append(convs, chat.Conversation{
			ID:                 row.UserID,
			Kind:               chat.Direct,
			DisplayName:        row.Name,
			Mobile:             row.Mobile,
			HasAvatar:          bool(row.AvatarImageFound),
			Online:             row.UserStatus == 1,
			LastMessagePreview: row.Msg,
			LastMessageTime:    row.DateTime,
			Status:             chat.ConversationStatus(row.ChatStatus),
			UnseenCount:        max(row.UnSeenCount, 0),
		})
	}
	return ChatListSnapshot{Conversations: convs, SelfHasAvatar: bool(data.UserImageStatus)}, nil
}

// FetchGroupList loads the groups self belongs to.
func (c *Client) FetchGroupList(ctx context.Context, self chat.ID) ([]chat.Conversation, error) {
	q := url.Values{}
	q.Set("id", string(self))

	var rows []GroupRow
	if err := c.getJSON(ctx, EndpointLoadGroups, q, &rows); err != nil {
		return nil, err
	}

	groups := make([]chat.Conversation, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, chat.Conversation{
			ID:                 row.GroupID,
			Kind:               chat.Group,
			DisplayName:        row.GroupName,
			HasAvatar:          bool(row.UserImageStatus),
			LastMessagePreview: row.LastChatMsg,
			LastMessageTime:    row.LastChatMsgTime,
			Status:             chat.ConversationStatus(row.LastMessageSeenStatus),
			UnseenCount:        max(row.UnSeenCount, 0),
		})
	}
	return groups, nil
}

// Server messages carry no id; they are numbered by position in the snapshot.
func serverMessageID(key chat.Key, i int) string {
	return fmt.Sprintf("%s#%d", key, i)
}

func directMessages(peer chat.ID, records []ChatRecord) []chat.Message {
	key := chat.DirectKey(peer)
	msgs := make([]chat.Message, 0, len(records))
	for i, r := range records {
		m := chat.Message{
			ID:             serverMessageID(key, i),
			ConversationID: peer,
			Self:           r.Side == SideSelf,
			Body:           r.Msg,
			Timestamp:      r.DateTime,
			Origin:         chat.OriginServer,
		}
		if m.Self {
			m.Delivery = deliveryOf(r.Status)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func groupMessages(group chat.ID, records []GroupChatRecord) []chat.Message {
	key := chat.GroupKey(group)
	msgs := make([]chat.Message, 0, len(records))
	for i, r := range records {
		m := chat.Message{
			ID:             serverMessageID(key, i),
			ConversationID: group,
			Self:           r.SenderName == GroupSelf,
			Body:           r.Msg,
			Timestamp:      r.Date,
			Origin:         chat.OriginServer,
		}
		if m.Self {
			m.Delivery = deliveryOf(r.SeenStatus)
		} else {
			m.SenderName = r.SenderName
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func deliveryOf(status int) chat.DeliveryState {
	if status == 1 {
		return chat.DeliverySeen
	}
	return chat.DeliverySent
}
