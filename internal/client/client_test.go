package client

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/config"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/metrics"
	"github.com/owlchat/owlchat-server/internal/proto"
	transporthttp "github.com/owlchat/owlchat-server/internal/transport/http"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	logger := zerolog.New(io.Discard)
	m := metrics.New()

	store := core.NewChannelStore(func() int64 { return time.Now().UnixMilli() })
	coord := core.NewCoordinator(store, core.Options{
		DefaultChannel: "lobby",
		MaxUsers:       8,
	})

	hub := transporthttp.NewHub(16, &logger, m)
	server := transporthttp.NewServer(coord, hub, m, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func TestClientLoginEventLogout(t *testing.T) {
	url := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logins := make(chan proto.LoginResponse, 4)
	events := make(chan *core.Event, 4)
	logouts := make(chan proto.LogoutResponse, 4)

	alice, err := Dial(ctx, url, Handlers{
		OnChannelLogin:  func(resp proto.LoginResponse) { logins <- resp },
		OnChannelEvent:  func(ev *core.Event) { events <- ev },
		OnChannelLogout: func(resp proto.LogoutResponse) { logouts <- resp },
	})
	if err != nil {
		t.Fatalf("dial alice: %v", err)
	}
	defer alice.Close()

	proj, err := alice.Login(ctx, "lobby", core.User{Name: "alice", SessionID: "s1"})
	if err != nil {
		t.Fatalf("alice login: %v", err)
	}
	if len(proj.Users) != 1 || proj.Users[0] != "alice" {
		t.Fatalf("unexpected users: %v", proj.Users)
	}

	bob, err := Dial(ctx, url, Handlers{})
	if err != nil {
		t.Fatalf("dial bob: %v", err)
	}
	defer bob.Close()

	proj, err = bob.Login(ctx, "lobby", core.User{Name: "bob", SessionID: "s2"})
	if err != nil {
		t.Fatalf("bob login: %v", err)
	}
	if len(proj.Users) != 2 {
		t.Fatalf("unexpected users: %v", proj.Users)
	}

	select {
	case resp := <-logins:
		if resp.Channel == nil || len(resp.Channel.Users) != 2 {
			t.Fatalf("unexpected login notification: %+v", resp.Channel)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for login notification")
	}

	ev, err := bob.SendEvent(ctx, "lobby", core.User{Name: "bob", SessionID: "s2"}, map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("bob send event: %v", err)
	}
	if ev.User != "bob" || ev.ID == "" {
		t.Fatalf("unexpected event ack: %+v", ev)
	}

	select {
	case got := <-events:
		if got.User != "bob" || got.Data["text"] != "hi" {
			t.Fatalf("unexpected event notification: %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event notification")
	}

	proj, err = bob.Logout(ctx, "lobby", core.User{Name: "bob", SessionID: "s2"})
	if err != nil {
		t.Fatalf("bob logout: %v", err)
	}
	if len(proj.Users) != 1 || proj.Users[0] != "alice" {
		t.Fatalf("unexpected users after logout: %v", proj.Users)
	}

	select {
	case resp := <-logouts:
		if resp.Channel == nil || len(resp.Channel.Users) != 1 {
			t.Fatalf("unexpected logout notification: %+v", resp.Channel)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for logout notification")
	}
}

func TestClientLoginRejection(t *testing.T) {
	url := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Handlers{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	_, err = c.Login(ctx, "lobby", core.User{Name: "", SessionID: "s1"})
	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.Code != core.ErrCodeUsernameInvalid {
		t.Fatalf("expected UsernameInvalid, got %v", err)
	}
}

func TestClientEventRejected(t *testing.T) {
	url := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Handlers{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	_, err = c.SendEvent(ctx, "lobby", core.User{Name: "alice", SessionID: "s1"}, nil)
	if !errors.Is(err, ErrEventRejected) {
		t.Fatalf("expected ErrEventRejected, got %v", err)
	}
}

func TestClientSuggestName(t *testing.T) {
	url := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Handlers{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	name, err := c.SuggestName(ctx)
	if err != nil {
		t.Fatalf("suggest name: %v", err)
	}
	if name == "" {
		t.Fatal("expected a non-empty name")
	}
}
