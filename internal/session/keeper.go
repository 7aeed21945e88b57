package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/logging"
)

// Key is the fixed storage key of the session record.
const Key = "session.user"

// ErrNoSession is returned when no usable session record is stored.
var ErrNoSession = errors.New("not signed in")

// KV is the slice of the local store the keeper needs.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
}

// Keeper owns the persisted user record. The record is always written
// wholesale; screens read the cached copy through Current.
type Keeper struct {
	kv  KV
	log *zap.Logger

	mu      sync.RWMutex
	current *chat.User
}

// NewKeeper creates a Keeper backed by kv.
func NewKeeper(kv KV, log *zap.Logger) *Keeper {
	return &Keeper{kv: kv, log: logging.OrNop(log)}
}

// Load reads the stored record into memory. A missing, empty or unparsable
// record yields ErrNoSession; parse failures are logged, not returned.
func (k *Keeper) Load(ctx context.Context) (chat.User, error) {
	raw, ok, err := k.kv.GetValue(ctx, Key)
	if err != nil {
		return chat.User{}, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" {
		k.set(nil)
		return chat.User{}, ErrNoSession
	}

	var u chat.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		k.log.Warn("discarding unreadable session record", zap.Error(err))
		k.set(nil)
		return chat.User{}, ErrNoSession
	}
	if u.ID == "" {
		k.log.Warn("discarding session record without user id")
		k.set(nil)
		return chat.User{}, ErrNoSession
	}

	k.set(&u)
	return u, nil
}

// Save replaces the stored record with u.
func (k *Keeper) Save(ctx context.Context, u chat.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := k.kv.PutValue(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	k.set(&u)
	return nil
}

// Clear removes the stored record.
func (k *Keeper) Clear(ctx context.Context) error {
	if err := k.kv.DeleteValue(ctx, Key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	k.set(nil)
	return nil
}

// Current returns the in-memory record, if signed in.
func (k *Keeper) Current() (chat.User, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.current == nil {
		return chat.User{}, false
	}
	return *k.current, true
}

func (k *Keeper) set(u *chat.User) {
	k.mu.Lock()
	k.current = u
	k.mu.Unlock()
}
