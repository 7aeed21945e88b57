package devserver

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
)

// Server-side texts. The client shows them verbatim.
const (
	MsgMobileRequired = "Please enter your mobile number"
	MsgNameEmpty      = "Your Name Filed is Empty"
	MsgPasswordShort  = "Password must be at least 6 characters"
	MsgMobileTaken    = "Mobile Number Already Exists"
	MsgBadCredentials = "Invalid Mobile Number or Password"
	MsgEmptyMessage   = "Message is empty"
	MsgUnknownUser    = "User not found"
	MsgUnknownGroup   = "Group not found"
	MsgGroupName      = "Please enter a group name"
	MsgGroupMembers   = "Please add at least one member"
	MsgProfileUpdated = "Profile updated"

	greeting   = "Say hi!"
	timeLayout = "2006-01-02 03:04 PM"
)

var errNotFound = errors.New("not found")

type user struct {
	id         int
	name       string
	mobile     string
	hash       []byte
	registered time.Time
	lastSeen   time.Time
	avatar     []byte
}

type directMessage struct {
	from, to int
	body     string
	at       time.Time
	seen     bool
}

type group struct {
	id      int
	name    string
	desc    string
	members []int
	image   []byte
}

type groupMessage struct {
	group  int
	from   int
	body   string
	at     time.Time
	seenBy map[int]bool
}

// State is the in-memory data of the development backend.
type State struct {
	mu sync.Mutex

	now        func() time.Time
	onlineFor  time.Duration
	bcryptCost int

	users    []*user
	byMobile map[string]*user
	direct   []*directMessage
	groups   []*group
	groupMsg []*groupMessage
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		now:        time.Now,
		onlineFor:  30 * time.Second,
		bcryptCost: bcrypt.DefaultCost,
		byMobile:   make(map[string]*user),
	}
}

func (s *State) userByID(id int) (*user, error) {
	if id < 1 || id > len(s.users) {
		return nil, fmt.Errorf("user %d: %w", id, errNotFound)
	}
	return s.users[id-1], nil
}

func (s *State) groupByID(id int) (*group, error) {
	if id < 1 || id > len(s.groups) {
		return nil, fmt.Errorf("group %d: %w", id, errNotFound)
	}
	return s.groups[id-1], nil
}

// touch records activity; a user is online for onlineFor after their last request.
func (s *State) touch(u *user) {
	u.lastSeen = s.now()
}

func (s *State) online(u *user) bool {
	return !u.lastSeen.IsZero() && s.now().Sub(u.lastSeen) < s.onlineFor
}

func (s *State) record(u *user) backend.UserRecord {
	status := 2
	if s.online(u) {
		status = 1
	}
	return backend.UserRecord{
		ID:               idOf(u.id),
		FirstName:        u.name,
		Mobile:           u.mobile,
		RegisteredDate:   u.registered.Format(timeLayout),
		UserStatus:       status,
		AvatarImageFound: chat.Flag(len(u.avatar) > 0),
	}
}

// Start reports whether mobile is registered.
func (s *State) Start(mobile string) backend.StartReply {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return backend.StartReply{Msg: MsgMobileRequired}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byMobile[mobile]; ok {
		return backend.StartReply{Msg: backend.StartSuccess, UserName: u.name}
	}
	return backend.StartReply{Msg: backend.StartRegister}
}

// SignUp registers a user.
func (s *State) SignUp(name, password, mobile string, avatar []byte) (backend.SignUpReply, error) {
	name, mobile = strings.TrimSpace(name), strings.TrimSpace(mobile)
	switch {
	case name == "":
		return backend.SignUpReply{Msg: MsgNameEmpty}, nil
	case mobile == "":
		return backend.SignUpReply{Msg: MsgMobileRequired}, nil
	case len(password) < 6:
		return backend.SignUpReply{Msg: MsgPasswordShort}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return backend.SignUpReply{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byMobile[mobile]; ok {
		return backend.SignUpReply{Msg: MsgMobileTaken}, nil
	}
	u := &user{
		id:         len(s.users) + 1,
		name:       name,
		mobile:     mobile,
		hash:       hash,
		registered: s.now(),
		avatar:     avatar,
	}
	s.users = append(s.users, u)
	s.byMobile[mobile] = u
	return backend.SignUpReply{Success: true, UserName: name}, nil
}

// SignIn checks credentials.
func (s *State) SignIn(mobile, password string) backend.SignInReply {
	s.mu.Lock()
	u, ok := s.byMobile[strings.TrimSpace(mobile)]
	s.mu.Unlock()
	if !ok {
		return backend.SignInReply{Msg: MsgBadCredentials}
	}
	// hash is immutable once set, so the comparison runs without the lock.
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return backend.SignInReply{Msg: MsgBadCredentials}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(u)
	rec := s.record(u)
	return backend.SignInReply{Success: true, User: &rec}
}

// LoadChat returns the conversation between self and peer and marks the
// peer's messages as seen.
func (s *State) LoadChat(self, peer int) ([]backend.ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return nil, err
	}
	if _, err := s.userByID(peer); err != nil {
		return nil, err
	}
	s.touch(me)

	out := []backend.ChatRecord{}
	for _, m := range s.direct {
		switch {
		case m.from == self && m.to == peer:
			out = append(out, backend.ChatRecord{Msg: m.body, DateTime: m.at.Format(timeLayout), Side: backend.SideSelf, Status: seenStatus(m.seen)})
		case m.from == peer && m.to == self:
			m.seen = true
			out = append(out, backend.ChatRecord{Msg: m.body, DateTime: m.at.Format(timeLayout), Side: backend.SidePeer, Status: 1})
		}
	}
	return out, nil
}

// SendChat appends a direct message.
func (s *State) SendChat(self, peer int, body string) (backend.Ack, error) {
	if strings.TrimSpace(body) == "" {
		return backend.Ack{Msg: MsgEmptyMessage}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return backend.Ack{}, err
	}
	if _, err := s.userByID(peer); err != nil {
		return backend.Ack{Msg: MsgUnknownUser}, nil
	}
	s.touch(me)
	s.direct = append(s.direct, &directMessage{from: self, to: peer, body: body, at: s.now()})
	return backend.Ack{Success: true}, nil
}

// HomeData builds the chat list of self: one row per other user, latest
// conversation first, users without messages last with a greeting.
func (s *State) HomeData(self int) backend.HomeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return backend.HomeData{}
	}
	s.touch(me)

	type row struct {
		backend.HomeRow
		last time.Time
	}
	rows := make([]row, 0, len(s.users))
	for _, peer := range s.users {
		if peer.id == self {
			continue
		}
		r := row{HomeRow: backend.HomeRow{
			UserID:           idOf(peer.id),
			Name:             peer.name,
			Mobile:           peer.mobile,
			Msg:              greeting,
			AvatarImageFound: chat.Flag(len(peer.avatar) > 0),
			UserStatus:       2,
		}}
		if s.online(peer) {
			r.UserStatus = 1
		}
		var last *directMessage
		for _, m := range s.direct {
			if m.from == self && m.to == peer.id || m.from == peer.id && m.to == self {
				last = m
				if m.from == peer.id && !m.seen {
					r.UnSeenCount++
				}
			}
		}
		if last != nil {
			r.Msg = last.body
			r.DateTime = last.at.Format(timeLayout)
			r.last = last.at
			switch {
			case last.from == self && last.seen:
				r.ChatStatus = int(chat.StatusSeen)
			case last.from == self:
				r.ChatStatus = int(chat.StatusSentUnseen)
			case !last.seen:
				r.ChatStatus = int(chat.StatusIncomingUnseen)
			}
		}
		rows = append(rows, r)
	}
	slices.SortStableFunc(rows, func(a, b row) int { return b.last.Compare(a.last) })

	data := backend.HomeData{
		Status:          true,
		JSONChatArray:   make([]backend.HomeRow, 0, len(rows)),
		UserImageStatus: chat.Flag(len(me.avatar) > 0),
	}
	for _, r := range rows {
		data.JSONChatArray = append(data.JSONChatArray, r.HomeRow)
	}
	return data
}

// Groups lists the groups self belongs to.
func (s *State) Groups(self int) ([]backend.GroupRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return nil, err
	}
	s.touch(me)

	out := []backend.GroupRow{}
	for _, g := range s.groups {
		if !slices.Contains(g.members, self) {
			continue
		}
		row := backend.GroupRow{
			GroupID:         idOf(g.id),
			GroupName:       g.name,
			UserImageStatus: chat.Flag(len(g.image) > 0),
			LastChatMsg:     greeting,
		}
		var last *groupMessage
		for _, m := range s.groupMsg {
			if m.group != g.id {
				continue
			}
			last = m
			if m.from != self && !m.seenBy[self] {
				row.UnSeenCount++
			}
		}
		if last != nil {
			row.LastChatMsg = last.body
			row.LastChatMsgTime = last.at.Format(timeLayout)
			switch {
			case last.from == self && s.seenByAll(g, last):
				row.LastMessageSeenStatus = int(chat.StatusSeen)
			case last.from == self:
				row.LastMessageSeenStatus = int(chat.StatusSentUnseen)
			case !last.seenBy[self]:
				row.LastMessageSeenStatus = int(chat.StatusIncomingUnseen)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *State) seenByAll(g *group, m *groupMessage) bool {
	for _, id := range g.members {
		if id != m.from && !m.seenBy[id] {
			return false
		}
	}
	return true
}

// GroupChat returns a group's messages and member names and marks them seen by self.
func (s *State) GroupChat(self, groupID int) (backend.GroupChatData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return backend.GroupChatData{}, err
	}
	g, err := s.groupByID(groupID)
	if err != nil {
		return backend.GroupChatData{}, err
	}
	if !slices.Contains(g.members, self) {
		return backend.GroupChatData{}, fmt.Errorf("user %d in group %d: %w", self, groupID, errNotFound)
	}
	s.touch(me)

	data := backend.GroupChatData{Chats: []backend.GroupChatRecord{}, Names: []string{}}
	for _, id := range g.members {
		if u, err := s.userByID(id); err == nil {
			data.Names = append(data.Names, u.name)
		}
	}
	for _, m := range s.groupMsg {
		if m.group != groupID {
			continue
		}
		rec := backend.GroupChatRecord{Msg: m.body, Date: m.at.Format(timeLayout)}
		if m.from == self {
			rec.SenderName = backend.GroupSelf
			rec.SeenStatus = seenStatus(s.seenByAll(g, m))
		} else {
			m.seenBy[self] = true
			if u, err := s.userByID(m.from); err == nil {
				rec.SenderName = u.name
			}
		}
		data.Chats = append(data.Chats, rec)
	}
	return data, nil
}

// SendGroup appends a group message.
func (s *State) SendGroup(self, groupID int, body string) (backend.Ack, error) {
	if strings.TrimSpace(body) == "" {
		return backend.Ack{Msg: MsgEmptyMessage}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	me, err := s.userByID(self)
	if err != nil {
		return backend.Ack{}, err
	}
	g, err := s.groupByID(groupID)
	if err != nil || !slices.Contains(g.members, self) {
		return backend.Ack{Msg: MsgUnknownGroup}, nil
	}
	s.touch(me)
	s.groupMsg = append(s.groupMsg, &groupMessage{
		group:  groupID,
		from:   self,
		body:   body,
		at:     s.now(),
		seenBy: map[int]bool{self: true},
	})
	return backend.Ack{Success: true}, nil
}

// MakeGroup creates a group; the creator is always a member.
func (s *State) MakeGroup(name, desc string, creator int, members []int, image []byte) (backend.Ack, error) {
	if strings.TrimSpace(name) == "" {
		return backend.Ack{Msg: MsgGroupName}, nil
	}
	if len(members) == 0 {
		return backend.Ack{Msg: MsgGroupMembers}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.userByID(creator); err != nil {
		return backend.Ack{}, err
	}
	ids := []int{creator}
	for _, id := range members {
		if _, err := s.userByID(id); err != nil {
			return backend.Ack{Msg: MsgUnknownUser}, nil
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	s.groups = append(s.groups, &group{
		id:      len(s.groups) + 1,
		name:    strings.TrimSpace(name),
		desc:    strings.TrimSpace(desc),
		members: ids,
		image:   image,
	})
	return backend.Ack{Success: true}, nil
}

// UpdateUser renames a user and optionally replaces the avatar.
func (s *State) UpdateUser(id int, name string, avatar []byte) (backend.UpdateReply, error) {
	if name == "" {
		return backend.UpdateReply{Message: "You Can't Update Empty Name"}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.userByID(id)
	if err != nil {
		return backend.UpdateReply{}, err
	}
	s.touch(u)
	u.name = name
	if len(avatar) > 0 {
		u.avatar = avatar
	}
	rec := s.record(u)
	return backend.UpdateReply{Success: true, User: &rec, Message: MsgProfileUpdated}, nil
}

// Users lists everyone except self.
func (s *State) Users(self int) []backend.ContactRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []backend.ContactRecord{}
	for _, u := range s.users {
		if u.id != self {
			out = append(out, backend.ContactRecord{ID: idOf(u.id), Name: u.name, Mobile: u.mobile})
		}
	}
	return out
}

// ProfileImage returns the avatar stored for mobile.
func (s *State) ProfileImage(mobile string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byMobile[mobile]
	if !ok || len(u.avatar) == 0 {
		return nil, false
	}
	return u.avatar, true
}

// GroupImage returns the image of a group.
func (s *State) GroupImage(id int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.groupByID(id)
	if err != nil || len(g.image) == 0 {
		return nil, false
	}
	return g.image, true
}

func seenStatus(seen bool) int {
	if seen {
		return 1
	}
	return 2
}

func idOf(n int) chat.ID { return chat.ID(strconv.Itoa(n)) }
