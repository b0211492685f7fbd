package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/olegri/foosrank/rating"
)

func writeGarbage(path string) error {
	return os.WriteFile(path, []byte("{not json"), 0o644)
}

func TestSheetSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	sh, err := NewSheet(dir)
	if err != nil {
		t.Fatalf("init sheet: %v", err)
	}

	if err := sh.CreatePlayer(ctx, "alice"); err != nil {
		t.Fatalf("create player: %v", err)
	}
	if err := sh.AppendMatch(ctx, MatchRecord{
		ID: "2025-03-01 12:00:00", Winner: "alice", Loser: "bob",
		ScoreWinner: 10, ScoreLoser: 0, ELOWinner: 820, ELOLoser: 780,
	}); err != nil {
		t.Fatalf("append match: %v", err)
	}

	// a second handle over the same directory sees everything
	reopened, err := NewSheet(dir)
	if err != nil {
		t.Fatalf("reopen sheet: %v", err)
	}

	pl, err := reopened.GetPlayer(ctx, "alice")
	if err != nil {
		t.Fatalf("get player after reopen: %v", err)
	}
	if pl.ELO != rating.StartingELO {
		t.Errorf("player row lost on reopen: %+v", pl)
	}

	records, err := reopened.MatchesFor(ctx, "alice")
	if err != nil {
		t.Fatalf("matches after reopen: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("match history lost on reopen, %d records", len(records))
	}
}

func TestSheetConcurrentUpdatesSameProcess(t *testing.T) {
	sh, err := NewSheet(t.TempDir())
	if err != nil {
		t.Fatalf("init sheet: %v", err)
	}

	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		if err := sh.CreatePlayer(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	// the per-collection mutex must keep concurrent whole-file rewrites
	// from losing each other inside one process
	updates := []MatchUpdate{
		{Winner: "alice", Loser: "bob", WinnerELO: 820, LoserELO: 780},
		{Winner: "carol", Loser: "dave", WinnerELO: 820, LoserELO: 780},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(updates))
	for idx, upd := range updates {
		wg.Add(1)
		go func(idx int, upd MatchUpdate) {
			defer wg.Done()
			errs[idx] = sh.ApplyMatchUpdate(ctx, upd)
		}(idx, upd)
	}
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			t.Fatalf("update %d: %v", idx, err)
		}
	}

	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		pl, err := sh.GetPlayer(ctx, name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		if pl.GamesPlayed != 1 {
			t.Errorf("%s update lost, games played = %d", name, pl.GamesPlayed)
		}
	}
}

func TestSheetRejectsGarbageFile(t *testing.T) {
	dir := t.TempDir()

	sh, err := NewSheet(dir)
	if err != nil {
		t.Fatalf("init sheet: %v", err)
	}

	if err := writeGarbage(sh.playersPath); err != nil {
		t.Fatalf("corrupt fixture: %v", err)
	}

	if _, err := sh.ListPlayers(context.Background()); err == nil {
		t.Fatal("listing a corrupt sheet must fail, not return partial data")
	}
}
