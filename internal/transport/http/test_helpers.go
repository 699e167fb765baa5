package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/config"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/metrics"
	"github.com/owlchat/owlchat-server/internal/proto"
)

// rawOutbound keeps the data payload undecoded so each test can pick
// its own response type.
type rawOutbound struct {
	Type  string          `json:"type"`
	ID    int64           `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// startTestServer spins up a full server over httptest with a "lobby"
// default channel.
func startTestServer(t *testing.T, maxUsers int) *httptest.Server {
	t.Helper()

	logger := testLogger()
	m := metrics.New()

	var clock int64
	store := core.NewChannelStore(func() int64 { clock++; return clock })
	var ids int
	coord := core.NewCoordinator(store, core.Options{
		DefaultChannel: "lobby",
		MaxUsers:       maxUsers,
		NewID:          func() string { ids++; return fmt.Sprintf("ev-%d", ids) },
		Now:            func() int64 { clock++; return clock },
	})

	hub := NewHub(16, logger, m)
	server := NewServer(coord, hub, m, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

func sendRequest(t *testing.T, ctx context.Context, conn *websocket.Conn, reqType string, id int64, payload any) {
	t.Helper()

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		raw = data
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: reqType, ID: id, Data: raw}); err != nil {
		t.Fatalf("write request: %v", err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
