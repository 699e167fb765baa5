// Package client is a thin helper for talking to an owlchat server:
// it pairs requests with their acks and forwards server notifications
// to registered handlers. No decisions are made here, only I/O glue.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/proto"
)

// ErrEventRejected reports that the server dropped an event submission
// without constructing an event (non-object payload).
var ErrEventRejected = errors.New("event rejected by server")

// ResponseError is an in-band failure ack (code instead of channel).
type ResponseError struct {
	Code string
}

func (e *ResponseError) Error() string {
	return e.Code
}

// Handlers receive server-initiated notifications. Nil handlers are
// skipped.
type Handlers struct {
	OnConnect       func()
	OnConnectError  func(err error)
	OnChannelEvent  func(ev *core.Event)
	OnChannelLogin  func(resp proto.LoginResponse)
	OnChannelLogout func(resp proto.LogoutResponse)
}

// outbound mirrors proto.Outbound with the data kept raw so each
// waiter can decode its own response type.
type outbound struct {
	Type  string          `json:"type"`
	ID    int64           `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Client is one websocket connection to the server.
type Client struct {
	conn     *websocket.Conn
	handlers Handlers

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan outbound

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the server's websocket endpoint and starts the
// notification loop.
func Dial(ctx context.Context, url string, handlers Handlers) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		if handlers.OnConnectError != nil {
			handlers.OnConnectError(err)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		handlers: handlers,
		pending:  make(map[int64]chan outbound),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.readLoop(loopCtx)

	if handlers.OnConnect != nil {
		handlers.OnConnect()
	}

	return c, nil
}

// Close tears the connection down and stops the notification loop.
func (c *Client) Close() error {
	c.cancel()
	err := c.conn.Close(websocket.StatusNormalClosure, "bye")
	<-c.done
	return err
}

// SuggestName asks the server for a fresh human-readable channel name.
func (c *Client) SuggestName(ctx context.Context) (string, error) {
	out, err := c.request(ctx, proto.TypeChannelName, nil)
	if err != nil {
		return "", err
	}

	var resp proto.NameResponse
	if err := json.Unmarshal(out.Data, &resp); err != nil {
		return "", fmt.Errorf("decode name response: %w", err)
	}
	return resp.Name, nil
}

// Login joins a channel. A *ResponseError carries the server's
// rejection code.
func (c *Client) Login(ctx context.Context, channel string, user core.User) (*core.ClientChannel, error) {
	out, err := c.request(ctx, proto.TypeChannelLogin, proto.ChannelAction{Channel: channel, User: user})
	if err != nil {
		return nil, err
	}
	return decodeChannelAck(out.Data)
}

// Logout leaves a channel. A nil projection means the logout deleted
// the channel.
func (c *Client) Logout(ctx context.Context, channel string, user core.User) (*core.ClientChannel, error) {
	out, err := c.request(ctx, proto.TypeChannelLogout, proto.ChannelAction{Channel: channel, User: user})
	if err != nil {
		return nil, err
	}
	return decodeChannelAck(out.Data)
}

// SendEvent submits an event to a channel and returns the event the
// server constructed, or ErrEventRejected when the server dropped it.
func (c *Client) SendEvent(ctx context.Context, channel string, user core.User, data map[string]any) (*core.Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}

	out, err := c.request(ctx, proto.TypeChannelEvent, proto.EventAction{Channel: channel, User: user, Data: raw})
	if err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || string(out.Data) == "null" {
		return nil, ErrEventRejected
	}

	var ev core.Event
	if err := json.Unmarshal(out.Data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &ev, nil
}

func (c *Client) request(ctx context.Context, reqType string, payload any) (outbound, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return outbound{}, fmt.Errorf("encode request: %w", err)
		}
		raw = data
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan outbound, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: reqType, ID: id, Data: raw}); err != nil {
		return outbound{}, fmt.Errorf("send request: %w", err)
	}

	select {
	case out := <-ch:
		if out.Error != nil {
			return outbound{}, &ResponseError{Code: out.Error.Code}
		}
		return out, nil
	case <-ctx.Done():
		return outbound{}, ctx.Err()
	case <-c.done:
		return outbound{}, errors.New("connection closed")
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)

	for {
		var out outbound
		if err := wsjson.Read(ctx, c.conn, &out); err != nil {
			if ctx.Err() == nil && c.handlers.OnConnectError != nil {
				c.handlers.OnConnectError(err)
			}
			return
		}

		if out.ID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[out.ID]
			c.mu.Unlock()
			if ok {
				ch <- out
			}
			continue
		}

		c.notify(out)
	}
}

func (c *Client) notify(out outbound) {
	switch out.Type {
	case proto.TypeChannelEvent:
		if c.handlers.OnChannelEvent == nil {
			return
		}
		var ev core.Event
		if err := json.Unmarshal(out.Data, &ev); err == nil {
			c.handlers.OnChannelEvent(&ev)
		}
	case proto.TypeChannelLogin:
		if c.handlers.OnChannelLogin == nil {
			return
		}
		var resp proto.LoginResponse
		if err := json.Unmarshal(out.Data, &resp); err == nil {
			c.handlers.OnChannelLogin(resp)
		}
	case proto.TypeChannelLogout:
		if c.handlers.OnChannelLogout == nil {
			return
		}
		var resp proto.LogoutResponse
		if err := json.Unmarshal(out.Data, &resp); err == nil {
			c.handlers.OnChannelLogout(resp)
		}
	}
}

// decodeChannelAck distinguishes {channel} success acks from {code}
// rejections by shape, the way the wire protocol defines it.
func decodeChannelAck(raw json.RawMessage) (*core.ClientChannel, error) {
	var ack struct {
		Channel *core.ClientChannel `json:"channel"`
		Code    string              `json:"code"`
	}
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("decode ack: %w", err)
	}
	if ack.Code != "" {
		return nil, &ResponseError{Code: ack.Code}
	}
	return ack.Channel, nil
}
