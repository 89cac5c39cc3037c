package chat

import (
	"log"
	"sync"
)

// Hub is the room manager: it maps an order ID to the set of currently
// connected sessions subscribed to it. Purely in-memory and process-local;
// persistence side effects of joining belong to the pipeline, not here.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Session]bool
}

// NewHub creates an empty hub. One instance is created at process start
// and injected into the gateway and pipeline; it is never ambient state.
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Session]bool)}
}

// Join idempotently adds the session to the order's room.
func (h *Hub) Join(s *Session, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[orderID]
	if room == nil {
		room = make(map[*Session]bool)
		h.rooms[orderID] = room
	}
	room[s] = true
	s.rooms[orderID] = true
}

// Leave removes the session from the order's room. Empty rooms are dropped.
func (h *Hub) Leave(s *Session, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, orderID)
}

// LeaveAll removes the session from every room it had joined. Called on
// disconnect.
func (h *Hub) LeaveAll(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for orderID := range s.rooms {
		h.leaveLocked(s, orderID)
	}
}

func (h *Hub) leaveLocked(s *Session, orderID uint) {
	if room, ok := h.rooms[orderID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, orderID)
		}
	}
	delete(s.rooms, orderID)
}

// Broadcast delivers an event to every session currently joined to the
// order's room, except the optionally excluded one. Best-effort and
// synchronous within the process: a session that disconnected a moment
// earlier simply does not receive it.
func (h *Hub) Broadcast(orderID uint, event string, payload interface{}, exclude *Session) {
	frame, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.rooms[orderID] {
		if s == exclude {
			continue
		}
		if !s.deliver(frame) {
			log.Printf("Dropped %s frame for slow session %s", event, s.ID)
		}
	}
}

// RoomSize returns the number of sessions joined to the order's room.
func (h *Hub) RoomSize(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}
