package game

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionPersistenceBeforeCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var evicted []uuid.UUID
	h := NewHub(ctx, func(id uuid.UUID) { evicted = append(evicted, id) })
	s := h.Create("white", 1320, 0.1)

	// Simulate a session that was last seen 23 hours ago.
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-23 * time.Hour)
	s.Mu.Unlock()

	if n := h.Sweep(time.Now()); n != 0 {
		t.Fatalf("session removed before 24 hours of inactivity")
	}
	if _, ok := h.Get(s.ID); !ok {
		t.Fatalf("session missing after sweep")
	}

	// Simulate a session that was last seen 25 hours ago.
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-25 * time.Hour)
	s.Mu.Unlock()

	if n := h.Sweep(time.Now()); n != 1 {
		t.Fatalf("session not removed after 24 hours of inactivity")
	}
	if _, ok := h.Get(s.ID); ok {
		t.Fatalf("session still registered")
	}
	if len(evicted) != 1 || evicted[0] != s.ID {
		t.Fatalf("evict callback got %v", evicted)
	}
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil)
	s := h.Create("black", 1500, 1)
	if s.Human != "black" {
		t.Fatalf("expected human seat black, got %q", s.Human)
	}
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-25 * time.Hour)
	s.Mu.Unlock()
	s.Touch()

	if n := h.Sweep(time.Now()); n != 0 {
		t.Fatalf("touched session evicted")
	}
	if h.Len() != 1 {
		t.Fatalf("expected one session, got %d", h.Len())
	}
}
