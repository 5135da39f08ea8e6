// Package ws is the WebSocket transport: it multiplexes persistent
// connections, groups them into rooms and delivers the core's events.
package ws

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/metrics"
)

// sendBuffer is the per-connection outbound queue depth. A full queue drops
// the frame rather than stalling the whole room.
const sendBuffer = 16

// Hub implements core.Transport. Every method is safe for an absent
// connection or room; late operations against a closed connection are
// no-ops.
type Hub struct {
	log     *zerolog.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	conns map[string]*client
	rooms map[string]map[string]struct{}
}

type client struct {
	id     string
	events chan Outbound
}

// NewHub builds an empty hub.
func NewHub(logger *zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		log:     logger,
		metrics: m,
		conns:   make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

func (h *Hub) add(id string) *client {
	c := &client{id: id, events: make(chan Outbound, sendBuffer)}

	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()

	h.metrics.ActiveConnections.Inc()
	return c
}

// remove unregisters a connection and returns the rooms it occupied, so the
// router can run its leave path for each of them.
func (h *Hub) remove(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[id]; !ok {
		return nil
	}
	delete(h.conns, id)
	h.metrics.ActiveConnections.Dec()

	var occupied []string
	for room, members := range h.rooms {
		if _, ok := members[id]; ok {
			occupied = append(occupied, room)
			delete(members, id)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	return occupied
}

// Join adds the connection to a room.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
}

// Leave removes the connection from a room.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// IsMember reports whether the connection currently belongs to the room.
func (h *Hub) IsMember(connID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[room][connID]
	return ok
}

// BroadcastExcluding delivers an event to every room member except the
// sender.
func (h *Hub) BroadcastExcluding(connID, room, event string, payload any) {
	out := Outbound{Event: event, Channel: room, Data: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id := range h.rooms[room] {
		if id == connID {
			continue
		}
		if c := h.conns[id]; c != nil {
			h.send(c, out)
		}
	}
}

// EmitTo delivers an event to a single connection.
func (h *Hub) EmitTo(connID, event string, args ...any) {
	var data any
	switch len(args) {
	case 0:
	case 1:
		data = args[0]
	default:
		data = args
	}

	h.mu.RLock()
	c := h.conns[connID]
	h.mu.RUnlock()

	if c != nil {
		h.send(c, Outbound{Event: event, Data: data})
	}
}

func (h *Hub) send(c *client, out Outbound) {
	select {
	case c.events <- out:
	default:
		// Drop if slow consumer.
		h.log.Warn().Str("socket_id", c.id).Str("event", out.Event).Msg("send queue full, frame dropped")
	}
}
