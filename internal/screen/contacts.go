package screen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
)

// MaxGroupMembers is the number of users a new group can start with, creator excluded.
const MaxGroupMembers = 10

var (
	ErrGroupFull         = fmt.Errorf("you can only add up to %d users", MaxGroupMembers)
	ErrDuplicateMember   = errors.New("user is already in the group")
	ErrGroupNameRequired = errors.New("group name is required")
	ErrNoMembers         = errors.New("add at least one user")
)

// Contacts is the all-users list used to build a group. It loads once per mount.
type Contacts struct {
	deps Deps

	mu     sync.Mutex
	all    []chat.Contact
	loaded bool
	err    error
}

// NewContacts creates an unloaded contact list.
func NewContacts(deps Deps) *Contacts {
	return &Contacts{deps: deps}
}

// Mount loads the contact list. Unlike the polled screens there is no
// subscription; mounting again reloads.
func (c *Contacts) Mount(ctx context.Context) error {
	self, err := c.deps.self()
	if err != nil {
		return err
	}
	all, err := c.deps.Actions.ListContacts(ctx, self)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err != nil {
		return err
	}
	c.all = all
	c.loaded = true
	return nil
}

// Loaded reports whether a load has succeeded.
func (c *Contacts) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Err returns the last load error.
func (c *Contacts) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Filter returns contacts whose name contains q case-insensitively or whose
// mobile contains q. An empty q returns everyone.
func (c *Contacts) Filter(q string) []chat.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FilterContacts(c.all, q)
}

// FilterContacts applies the Contacts.Filter rule to list.
func FilterContacts(list []chat.Contact, q string) []chat.Contact {
	q = strings.TrimSpace(q)
	if q == "" {
		return slices.Clone(list)
	}
	lower := strings.ToLower(q)
	var out []chat.Contact
	for _, ct := range list {
		if strings.Contains(strings.ToLower(ct.Name), lower) || strings.Contains(ct.Mobile, q) {
			out = append(out, ct)
		}
	}
	return out
}

// GroupDraft collects a new group before it is created.
type GroupDraft struct {
	Name        string
	Description string
	Image       *backend.Upload

	members []chat.Contact
}

// Add appends a member.
func (d *GroupDraft) Add(ct chat.Contact) error {
	if slices.ContainsFunc(d.members, func(m chat.Contact) bool { return m.ID == ct.ID }) {
		return ErrDuplicateMember
	}
	if len(d.members) >= MaxGroupMembers {
		return ErrGroupFull
	}
	d.members = append(d.members, ct)
	return nil
}

// Remove drops a member; unknown ids are ignored.
func (d *GroupDraft) Remove(id chat.ID) {
	d.members = slices.DeleteFunc(d.members, func(m chat.Contact) bool { return m.ID == id })
}

// Has reports whether id is a member.
func (d *GroupDraft) Has(id chat.ID) bool {
	return slices.ContainsFunc(d.members, func(m chat.Contact) bool { return m.ID == id })
}

// Members returns the members in the order they were added.
func (d *GroupDraft) Members() []chat.Contact {
	return slices.Clone(d.members)
}

// Submit creates the group with the signed-in user as creator.
func (d *GroupDraft) Submit(ctx context.Context, deps Deps) error {
	self, err := deps.self()
	if err != nil {
		return err
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrGroupNameRequired
	}
	if len(d.members) == 0 {
		return ErrNoMembers
	}
	ids := make([]chat.ID, 0, len(d.members))
	for _, m := range d.members {
		ids = append(ids, m.ID)
	}
	return deps.Actions.MakeGroup(ctx, backend.GroupForm{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Creator:     self,
		Members:     ids,
		Image:       d.Image,
	})
}
