package proto

import (
	"encoding/json"

	"github.com/owlchat/owlchat-server/internal/core"
)

const ProtocolVersion = 1

// Request and notification names carried in the envelope Type field.
// Requests and the notifications they trigger share the same name, the
// ack id tells them apart on the client.
const (
	TypeChannelName   = "channel-name"
	TypeChannelLogin  = "channel-login"
	TypeChannelLogout = "channel-logout"
	TypeChannelEvent  = "channel-event"
)

// Inbound is the envelope for requests coming from the client. ID is
// the ack correlation id; the response echoes it back. Zero means the
// client does not want an acknowledgement.
type Inbound struct {
	Type string          `json:"type"`
	ID   int64           `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for messages sent to the client: either the
// ack for a request (ID set) or a broadcast notification (ID zero).
type Outbound struct {
	Type  string `json:"type"`
	ID    int64  `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ChannelAction is the payload of channel-login and channel-logout.
type ChannelAction struct {
	Channel string    `json:"channel"`
	User    core.User `json:"user"`
}

// EventAction is the payload of channel-event. Data stays raw until the
// handler has checked it is an object.
type EventAction struct {
	Channel string          `json:"channel"`
	User    core.User       `json:"user"`
	Data    json.RawMessage `json:"data"`
}

// NameResponse answers a channel-name request.
type NameResponse struct {
	Name string `json:"name"`
}

// LoginResponse acks a successful login and doubles as the
// channel-login notification body.
type LoginResponse struct {
	Channel *core.ClientChannel `json:"channel"`
}

// LogoutResponse acks a logout. Channel is null when the logout
// deleted the channel.
type LogoutResponse struct {
	Channel *core.ClientChannel `json:"channel"`
}

// ErrorResponse is the in-band failure shape: callers distinguish it
// from success by the presence of code instead of channel.
type ErrorResponse struct {
	Code string `json:"code"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
