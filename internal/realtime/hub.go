package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// Hub binds local sessions to rooms. A room holds one broker subscription while
// at least one local session is in it.
type Hub struct {
	broker domain.Broker

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	name     string
	sessions map[string]*Session
	cancel   func()
}

// NewHub creates a new hub on top of a broker
func NewHub(broker domain.Broker) *Hub {
	return &Hub{
		broker: broker,
		rooms:  make(map[string]*room),
	}
}

// Join adds a session to a room, subscribing to the broker if needed
func (h *Hub) Join(ctx context.Context, name string, s *Session) error {
	if h.addToRoom(name, s) {
		return nil
	}

	stream, cancel, err := h.broker.Subscribe(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to subscribe to room: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another join may have opened the room while we were subscribing
	if r, ok := h.rooms[name]; ok {
		r.sessions[s.id] = s
		cancel()
		return nil
	}

	r := &room{
		name:     name,
		sessions: map[string]*Session{s.id: s},
		cancel:   cancel,
	}
	h.rooms[name] = r
	go h.pump(r, stream)
	return nil
}

func (h *Hub) addToRoom(name string, s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[name]
	if ok {
		r.sessions[s.id] = s
	}
	return ok
}

// Leave removes a session from a room and drops the subscription of an empty room
func (h *Hub) Leave(name string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(name, s)
}

// LeaveAll removes a session from every room it joined
func (h *Hub) LeaveAll(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, r := range h.rooms {
		if _, ok := r.sessions[s.id]; ok {
			h.leaveLocked(name, s)
		}
	}
}

func (h *Hub) leaveLocked(name string, s *Session) {
	r, ok := h.rooms[name]
	if !ok {
		return
	}
	delete(r.sessions, s.id)
	if len(r.sessions) == 0 {
		delete(h.rooms, name)
		r.cancel()
	}
}

// Publish sends an event to every session of a room on every process
func (h *Hub) Publish(ctx context.Context, env domain.Envelope) error {
	return h.broker.Publish(ctx, env)
}

// Size returns the number of local sessions in a room
func (h *Hub) Size(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[name]; ok {
		return len(r.sessions)
	}
	return 0
}

func (h *Hub) pump(r *room, stream <-chan domain.Envelope) {
	for env := range stream {
		h.mu.Lock()
		targets := make([]*Session, 0, len(r.sessions))
		for id, s := range r.sessions {
			if id != env.Exclude {
				targets = append(targets, s)
			}
		}
		h.mu.Unlock()

		frame := Frame{Event: env.Event, Data: env.Data}
		for _, s := range targets {
			s.send(frame)
		}
	}
	log.Debug().Str("room", r.name).Msg("room subscription closed")
}
