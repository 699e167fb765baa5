package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/metrics"
	"github.com/owlchat/owlchat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the session
// coordinator: requests in, acks and broadcasts out.
type WSHandler struct {
	coord    *core.Coordinator
	hub      *Hub
	metrics  *metrics.Metrics
	log      *zerolog.Logger
	msgLimit int
}

// NewWSHandler builds a new WebSocket handler. msgLimit caps requests
// per connection per minute; zero disables the cap.
func NewWSHandler(coord *core.Coordinator, hub *Hub, m *metrics.Metrics, logger *zerolog.Logger, msgLimit int) stdhttp.Handler {
	return &WSHandler{coord: coord, hub: hub, metrics: m, log: logger, msgLimit: msgLimit}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer ws.Close(websocket.StatusInternalError, "internal error")

	conn := h.hub.register(uuid.NewString())
	defer h.hub.unregister(conn)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, ws, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, ws, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", conn.id).Msg("ws connection closed with error")
		}
	}

	ws.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, ws *websocket.Conn, conn *connection) error {
	limiter := newRateLimiter(h.msgLimit)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, ws, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("conn_id", conn.id).Msg("request rate limit exceeded")
			h.sendError(conn, inbound, &proto.Error{Code: "rate_limited", Msg: "too many requests"})
			continue
		}

		h.dispatch(conn, inbound)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, ws *websocket.Conn, conn *connection) error {
	for {
		select {
		case msg, ok := <-conn.send:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, ws, msg); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.id).Msg("write ws message")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
