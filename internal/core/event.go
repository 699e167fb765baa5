package core

import "github.com/samber/lo"

// EventKind discriminates the two event variants a channel log carries.
type EventKind int

const (
	// EventUser is an application event with an opaque payload.
	EventUser EventKind = iota
	// EventSystem is a login/logout notification injected by the server.
	EventSystem
)

// System actions carried by EventSystem events.
const (
	SystemLogin  = "login"
	SystemLogout = "logout"
)

// User identifies one connected participant. SessionID is the stable
// identity of a connection; Name is only the display name and may be
// reclaimed by a different session after logout.
type User struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

// Event is one entry in a channel's append-only log. Exactly one of
// Data or System is set, depending on Kind. Time is unix milliseconds.
type Event struct {
	Kind    EventKind      `json:"-"`
	Channel string         `json:"channel"`
	ID      string         `json:"id"`
	Time    int64          `json:"time"`
	User    string         `json:"user"`
	Data    map[string]any `json:"data,omitempty"`
	System  string         `json:"system,omitempty"`
}

// Channel is the server-side state of one named channel. Users keeps
// insertion order and holds at most one entry per session.
type Channel struct {
	Name    string   `json:"name"`
	Created int64    `json:"created"`
	Users   []User   `json:"users"`
	Events  []*Event `json:"events"`
}

// ClientChannel is the client-visible projection of a Channel: same
// shape, but users are reduced to display names. Session ids never
// leave the server.
type ClientChannel struct {
	Name    string   `json:"name"`
	Created int64    `json:"created"`
	Users   []string `json:"users"`
	Events  []*Event `json:"events"`
}

// Project builds the client-visible view of a channel.
func Project(ch *Channel) *ClientChannel {
	return &ClientChannel{
		Name:    ch.Name,
		Created: ch.Created,
		Users:   lo.Map(ch.Users, func(u User, _ int) string { return u.Name }),
		Events:  ch.Events,
	}
}
