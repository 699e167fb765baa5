package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures a Coordinator.
type Options struct {
	// DefaultChannel is created at startup and survives even when empty.
	DefaultChannel string
	// MaxUsers caps distinct sessions per channel.
	MaxUsers int
	// NewID generates event ids. Defaults to uuid.NewString.
	NewID func() string
	// Now returns the current time in unix milliseconds.
	Now func() int64
}

// Coordinator owns the channel lifecycle rules: login, logout and event
// admission. Each operation is a read-then-write sequence on one
// channel, so a single mutex serializes them all.
type Coordinator struct {
	mu             sync.Mutex
	store          *ChannelStore
	defaultChannel string
	maxUsers       int
	newID          func() string
	now            func() int64
}

// NewCoordinator builds a coordinator over the given store and creates
// the default channel, if one is configured.
func NewCoordinator(store *ChannelStore, opts Options) *Coordinator {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().UnixMilli() }
	}

	c := &Coordinator{
		store:          store,
		defaultChannel: opts.DefaultChannel,
		maxUsers:       opts.MaxUsers,
		newID:          opts.NewID,
		now:            opts.Now,
	}

	if c.defaultChannel != "" {
		c.store.Create(c.defaultChannel, nil)
	}

	return c
}

// Store exposes the underlying channel store, e.g. for gauges.
func (c *Coordinator) Store() *ChannelStore {
	return c.store
}

// Login admits a user into a channel, creating the channel on first
// login. Checks run in a fixed order and the first failure wins:
// credentials present, name free, capacity. Re-login by the same
// session under the same name succeeds without a duplicate membership
// entry or a duplicate login event.
func (c *Coordinator) Login(channel string, user User) (*ClientChannel, *CoreError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if user.Name == "" || user.SessionID == "" {
		return nil, errUsernameInvalid
	}

	ch, exists := c.store.Get(channel)

	if exists {
		for _, u := range ch.Users {
			if u.Name == user.Name && u.SessionID != user.SessionID {
				return nil, errUsernameUnavailable
			}
		}
	}

	if !exists {
		// First login creates the channel with this user as sole
		// occupant. No login event: there is no one to notify.
		ch, _ = c.store.Create(channel, &user)
		return Project(ch), nil
	}

	if len(ch.Users) >= c.maxUsers {
		return nil, errMaxUsers
	}

	// Append the login event before touching membership so the event is
	// authored while the user is still absent from the channel. An
	// empty channel gets no event: there is no one to notify, same as
	// the channel-creation login.
	known := false
	for _, u := range ch.Users {
		if u.SessionID == user.SessionID {
			known = true
			break
		}
	}
	if !known && len(ch.Users) > 0 {
		c.appendSystemEvent(channel, user, SystemLogin)
	}

	// Replace any stale entry holding this display name, keeping the
	// insertion order of everyone else.
	next := ch.Users[:0]
	for _, u := range ch.Users {
		if u.Name != user.Name {
			next = append(next, u)
		}
	}
	ch.Users = append(next, user)

	return Project(ch), nil
}

// Logout removes a session from a channel. When the sole remaining user
// logs out of a non-default channel the channel is deleted and the
// returned projection is nil.
func (c *Coordinator) Logout(channel string, user User) (*ClientChannel, *CoreError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.store.Get(channel)
	if !ok {
		return nil, errChannelNotFound
	}

	if len(ch.Users) == 1 && ch.Users[0].SessionID == user.SessionID && channel != c.defaultChannel {
		c.store.Delete(channel)
		return nil, nil
	}

	// Evict by session id, not name: during the unavailable-name race
	// two sessions may transiently share a display name, and only the
	// matching session leaves.
	next := ch.Users[:0]
	for _, u := range ch.Users {
		if u.SessionID != user.SessionID {
			next = append(next, u)
		}
	}
	ch.Users = next

	c.appendSystemEvent(channel, user, SystemLogout)

	return Project(ch), nil
}

// SubmitEvent admits a user event into a channel's log. The payload
// must be a key/value record; membership of the submitting user is not
// checked, matching the wire protocol's leniency.
func (c *Coordinator) SubmitEvent(channel string, user User, data map[string]any) (*Event, *CoreError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data == nil {
		return nil, errInvalidPayload
	}

	if _, ok := c.store.Get(channel); !ok {
		return nil, errChannelNotFound
	}

	ev := &Event{
		Kind:    EventUser,
		Channel: channel,
		ID:      c.newID(),
		Time:    c.now(),
		User:    user.Name,
		Data:    data,
	}
	c.store.AppendEvent(channel, ev)

	return ev, nil
}

func (c *Coordinator) appendSystemEvent(channel string, user User, system string) *Event {
	ev := &Event{
		Kind:    EventSystem,
		Channel: channel,
		ID:      c.newID(),
		Time:    c.now(),
		User:    user.Name,
		System:  system,
	}
	c.store.AppendEvent(channel, ev)

	return ev
}
