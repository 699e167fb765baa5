package http

import (
	"encoding/json"

	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/proto"
)

// dispatch routes one inbound request to the coordinator and queues the
// ack plus whatever broadcasts the operation calls for. It runs on the
// connection's read loop, so requests from one client are handled in
// the order they arrive.
func (h *WSHandler) dispatch(conn *connection, in proto.Inbound) {
	switch in.Type {
	case proto.TypeChannelName:
		h.handleName(conn, in)
	case proto.TypeChannelLogin:
		h.handleLogin(conn, in)
	case proto.TypeChannelLogout:
		h.handleLogout(conn, in)
	case proto.TypeChannelEvent:
		h.handleEvent(conn, in)
	default:
		h.log.Warn().Str("conn_id", conn.id).Str("type", in.Type).Msg("unknown request type")
		h.sendError(conn, in, &proto.Error{Code: "invalid_message", Msg: "unknown request type"})
	}
}

func (h *WSHandler) handleName(conn *connection, in proto.Inbound) {
	h.ack(conn, in, proto.NameResponse{Name: core.SuggestChannelName()})
}

func (h *WSHandler) handleLogin(conn *connection, in proto.Inbound) {
	var action proto.ChannelAction
	if err := json.Unmarshal(in.Data, &action); err != nil {
		h.sendError(conn, in, &proto.Error{Code: "bad_request", Msg: "invalid login payload"})
		return
	}

	proj, coreErr := h.coord.Login(action.Channel, action.User)
	if coreErr != nil {
		h.metrics.LoginRejections.WithLabelValues(coreErr.Code).Inc()
		h.ack(conn, in, proto.ErrorResponse{Code: coreErr.Code})
		return
	}

	h.metrics.Logins.Inc()
	h.hub.join(conn, action.Channel)

	resp := proto.LoginResponse{Channel: proj}
	// Login is announced to every connection, not just the channel's
	// group. Matches the wire protocol this server speaks.
	h.hub.toAllExcept(conn, proto.Outbound{Type: proto.TypeChannelLogin, Data: resp})
	h.ack(conn, in, resp)
}

func (h *WSHandler) handleLogout(conn *connection, in proto.Inbound) {
	var action proto.ChannelAction
	if err := json.Unmarshal(in.Data, &action); err != nil {
		h.sendError(conn, in, &proto.Error{Code: "bad_request", Msg: "invalid logout payload"})
		return
	}

	proj, coreErr := h.coord.Logout(action.Channel, action.User)
	if coreErr != nil {
		h.sendError(conn, in, &proto.Error{Code: coreErr.Code, Msg: coreErr.Message})
		return
	}

	h.metrics.Logouts.Inc()

	resp := proto.LogoutResponse{Channel: proj}
	h.hub.toAllExcept(conn, proto.Outbound{Type: proto.TypeChannelLogout, Data: resp})
	h.hub.leave(conn, action.Channel)
	h.ack(conn, in, resp)
}

func (h *WSHandler) handleEvent(conn *connection, in proto.Inbound) {
	var action proto.EventAction
	if err := json.Unmarshal(in.Data, &action); err != nil {
		h.sendError(conn, in, &proto.Error{Code: "bad_request", Msg: "invalid event payload"})
		return
	}

	ev, coreErr := h.coord.SubmitEvent(action.Channel, action.User, decodeObject(action.Data))
	if coreErr != nil {
		// The ack carries a null event; nothing is appended and nothing
		// is broadcast.
		h.log.Debug().Str("conn_id", conn.id).Str("code", coreErr.Code).Msg("event rejected")
		h.ack(conn, in, nil)
		return
	}

	h.metrics.Events.Inc()
	h.hub.toChannel(action.Channel, conn, proto.Outbound{Type: proto.TypeChannelEvent, Data: ev})
	h.ack(conn, in, ev)
}

// ack answers a request on its correlation id. Requests without an id
// do not want a response.
func (h *WSHandler) ack(conn *connection, in proto.Inbound, data any) {
	if in.ID == 0 {
		return
	}
	h.hub.send(conn, proto.Outbound{Type: in.Type, ID: in.ID, Data: data})
}

func (h *WSHandler) sendError(conn *connection, in proto.Inbound, perr *proto.Error) {
	if in.ID == 0 {
		return
	}
	h.hub.send(conn, proto.Outbound{Type: in.Type, ID: in.ID, Error: perr})
}

// decodeObject accepts only key/value payloads: primitives, arrays and
// null all come back as nil.
func decodeObject(raw json.RawMessage) map[string]any {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}
