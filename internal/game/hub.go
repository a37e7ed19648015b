package game

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdleTimeout is how long a session may go untouched before Sweep drops it.
const IdleTimeout = 24 * time.Hour

// NewHub creates a new session hub with a cleanup goroutine that stops with ctx.
func NewHub(ctx context.Context, onEvict func(id uuid.UUID)) *Hub {
	h := &Hub{Sessions: make(map[uuid.UUID]*Session), OnEvict: onEvict}
	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				h.Sweep(now)
			}
		}
	}()
	return h
}

// Sweep removes sessions idle for longer than IdleTimeout and returns how many it dropped.
func (h *Hub) Sweep(now time.Time) int {
	var evicted []uuid.UUID
	h.Mu.Lock()
	for id, s := range h.Sessions {
		s.Mu.Lock()
		idle := now.Sub(s.LastSeen) > IdleTimeout
		s.Mu.Unlock()
		if idle {
			delete(h.Sessions, id)
			evicted = append(evicted, id)
		}
	}
	h.Mu.Unlock()
	if h.OnEvict != nil {
		for _, id := range evicted {
			h.OnEvict(id)
		}
	}
	return len(evicted)
}

// Create starts a new session with the human on the given side and registers it.
func (h *Hub) Create(human string, elo int, think float64) *Session {
	s := NewSession(uuid.New(), elo, think)
	if human == "black" {
		s.Human = "black"
	}
	h.Put(s)
	return s
}

// Put registers an existing session, replacing any with the same id.
func (h *Hub) Put(s *Session) {
	h.Mu.Lock()
	h.Sessions[s.ID] = s
	h.Mu.Unlock()
}

// Get retrieves a live session.
func (h *Hub) Get(id uuid.UUID) (*Session, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	s, ok := h.Sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return len(h.Sessions)
}
