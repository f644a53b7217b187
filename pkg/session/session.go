// Package session holds the authenticated identity of the CLI user: the API
// token and the profile of the signed-in user.
//
// A Session is consulted by the API client on every request, so clearing it
// takes effect on the next call.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Slot names used by stores.
const (
	TokenSlot = "token"
	UserSlot  = "user"
)

// ErrNoUser is returned by User when no profile is stored.
var ErrNoUser = errors.New("no user stored")

// Profile is the stored identity of the signed-in user.
type Profile struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Store persists raw session slots.
type Store interface {
	// Load returns all stored slots. A missing backing file is not an error.
	Load() (map[string]string, error)
	// Save replaces all stored slots.
	Save(slots map[string]string) error
}

// Session is a thread-safe view over a Store. Reads are served from memory
// after the first load; writes go through to the store.
type Session struct {
	mu     sync.RWMutex
	store  Store
	slots  map[string]string
	loaded bool
}

// New creates a session backed by store.
func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// Load reads the backing store. It is called lazily by the accessors, but
// callers that want to surface a corrupt file early can call it directly.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Session) loadLocked() error {
	if s.loaded {
		return nil
	}
	slots, err := s.store.Load()
	if err != nil {
		return err
	}
	if slots == nil {
		slots = make(map[string]string)
	}
	s.slots = slots
	s.loaded = true
	return nil
}

// Token returns the stored token, or "" if none. It implements
// api.TokenSource; a store that cannot be read yields no token.
func (s *Session) Token() string {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.slots[TokenSlot]
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return ""
	}
	return s.slots[TokenSlot]
}

// IsAuthenticated reports whether a token is stored.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// SetToken stores the token.
func (s *Session) SetToken(token string) error {
	return s.set(TokenSlot, token)
}

// User returns the stored profile.
func (s *Session) User() (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	raw, ok := s.slots[UserSlot]
	if !ok || raw == "" {
		return nil, ErrNoUser
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("stored user profile is corrupt: %w", err)
	}
	return &p, nil
}

// UserID returns the stored user's ID, or 0 when nobody is signed in.
func (s *Session) UserID() int {
	p, err := s.User()
	if err != nil {
		return 0
	}
	return p.ID
}

// SetUser stores the profile.
func (s *Session) SetUser(p *Profile) error {
	if p == nil {
		return s.set(UserSlot, "")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	return s.set(UserSlot, string(data))
}

// Clear removes both slots. The in-memory view is cleared even when the store
// write fails, so the current process stops sending the token either way.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string]string)
	s.loaded = true
	return s.store.Save(map[string]string{})
}

func (s *Session) set(slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	if value == "" {
		delete(s.slots, slot)
	} else {
		s.slots[slot] = value
	}
	return s.store.Save(copySlots(s.slots))
}

func copySlots(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
