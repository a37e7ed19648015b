package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	id := uuid.New()

	if s.Enabled() {
		t.Fatalf("nil store reports enabled")
	}
	if err := s.CreateGame(ctx, NewGame{ID: id, StartedAt: time.Now()}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := s.RecordMove(ctx, Move{GameID: id, Ply: 1, UCI: "e2e4"}); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	if err := s.CompleteGame(ctx, id, Completion{Result: "1-0", At: time.Now()}); err != nil {
		t.Fatalf("CompleteGame: %v", err)
	}
	if err := s.UpdateLastSeen(ctx, id, time.Now()); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}
	if err := s.ForgetGame(ctx, id, time.Now()); err != nil {
		t.Fatalf("ForgetGame: %v", err)
	}
	if _, err := s.LoadGame(ctx, id); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	games, total, err := s.ListFinished(ctx, 10, 0)
	if err != nil || total != 0 || len(games) != 0 {
		t.Fatalf("ListFinished on nil store: %v %d %v", games, total, err)
	}
	if st, err := s.FetchStats(ctx); err != nil || st != (Stats{}) {
		t.Fatalf("FetchStats on nil store: %+v %v", st, err)
	}
	if NewStore(nil) != nil {
		t.Fatalf("NewStore(nil) should be nil")
	}
}

func TestMoveCodesInOrder(t *testing.T) {
	p := &PersistedGame{Moves: []Move{{UCI: "e2e4"}, {UCI: "e7e5"}, {UCI: "g1f3"}}}
	got := p.MoveCodes()
	if len(got) != 3 || got[0] != "e2e4" || got[2] != "g1f3" {
		t.Fatalf("unexpected codes %v", got)
	}
}
