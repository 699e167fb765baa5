package core

import "sync"

// ChannelStore holds the process-wide name → channel mapping. The map
// itself is guarded by the store mutex; the composite read-then-write
// sequences (login, logout) are serialized by the Coordinator, which is
// the only writer of channel contents.
type ChannelStore struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	now      func() int64
}

// NewChannelStore builds an empty store. now supplies creation
// timestamps in unix milliseconds.
func NewChannelStore(now func() int64) *ChannelStore {
	return &ChannelStore{
		channels: make(map[string]*Channel),
		now:      now,
	}
}

// Create registers a new channel. It fails when the name is already
// taken. A non-nil user becomes the sole initial occupant.
func (s *ChannelStore) Create(name string, user *User) (*Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.channels[name]; exists {
		return nil, false
	}

	ch := &Channel{
		Name:    name,
		Created: s.now(),
		Users:   []User{},
		Events:  []*Event{},
	}
	if user != nil && user.SessionID != "" {
		ch.Users = append(ch.Users, *user)
	}
	s.channels[name] = ch

	return ch, true
}

// Get returns the channel with the given name, if present.
func (s *ChannelStore) Get(name string) (*Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[name]
	return ch, ok
}

// Delete removes a channel. Deleting an absent name is a no-op.
func (s *ChannelStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.channels, name)
}

// AppendEvent appends to a channel's event log. The caller must ensure
// the channel exists; appending to an absent channel does nothing.
func (s *ChannelStore) AppendEvent(name string, ev *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[name]; ok {
		ch.Events = append(ch.Events, ev)
	}
}

// Len reports the number of live channels.
func (s *ChannelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.channels)
}
