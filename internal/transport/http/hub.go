package http

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/metrics"
	"github.com/owlchat/owlchat-server/internal/proto"
)

// connection is one registered websocket peer. Outbound traffic goes
// through send; the write loop drains it.
type connection struct {
	id   string
	send chan proto.Outbound
}

// Hub is the broadcast sink: it tracks live connections and their
// channel membership and fans notifications out to them. Login/logout
// announcements are deliberately unscoped (every connection hears
// them); user events stay scoped to the channel's group.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*connection]struct{}
	rooms   map[string]map[*connection]struct{}
	buf     int
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub builds a hub whose connections buffer sendBuffer outbound
// messages before slow consumers start dropping.
func NewHub(sendBuffer int, logger *zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		conns:   make(map[*connection]struct{}),
		rooms:   make(map[string]map[*connection]struct{}),
		buf:     sendBuffer,
		log:     logger,
		metrics: m,
	}
}

// register adds a connection with the given id and returns it.
func (h *Hub) register(id string) *connection {
	c := &connection{
		id:   id,
		send: make(chan proto.Outbound, h.buf),
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.Connections.Inc()
	return c
}

// unregister removes a connection from every group and closes its
// outbound queue, ending the write loop.
func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	for name, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, name)
		}
	}
	close(c.send)
	h.mu.Unlock()

	h.metrics.Connections.Dec()
}

// join adds the connection to a channel's broadcast group.
func (h *Hub) join(c *connection, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[*connection]struct{})
		h.rooms[channel] = room
	}
	room[c] = struct{}{}
}

// leave removes the connection from a channel's broadcast group.
func (h *Hub) leave(c *connection, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[channel]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, channel)
		}
	}
}

// send queues a message for one connection. Delivery is best effort.
func (h *Hub) send(c *connection, msg proto.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.conns[c]; ok {
		h.enqueue(c, msg)
	}
}

// toChannel fans a message out to the channel's group, skipping except.
func (h *Hub) toChannel(channel string, except *connection, msg proto.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[channel] {
		if c == except {
			continue
		}
		h.enqueue(c, msg)
	}
}

// toAllExcept fans a message out to every connection but except.
func (h *Hub) toAllExcept(except *connection, msg proto.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c == except {
			continue
		}
		h.enqueue(c, msg)
	}
}

// enqueue must run under mu so it never races Unregister's close.
func (h *Hub) enqueue(c *connection, msg proto.Outbound) {
	select {
	case c.send <- msg:
	default:
		// Drop if slow consumer.
		h.metrics.EventsDropped.Inc()
		h.log.Debug().Str("conn_id", c.id).Str("type", msg.Type).Msg("dropping message for slow consumer")
	}
}
