package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/olegri/foosrank/rating"
	"github.com/olegri/foosrank/store"
)

// Import replays historical matches from a JSON file through the rating
// workflow, oldest first. Unknown players are registered on the fly with the
// starting rating.
type Import struct {
	File string `long:"file" env:"FILE" required:"true" description:"JSON file with historical matches"`
	StoreOpts
}

type importedMatch struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	ScoreA  *int   `json:"score_a"`
	ScoreB  *int   `json:"score_b"`
	Side    string `json:"side,omitempty"`
}

// Execute runs the command.
func (i Import) Execute([]string) error {
	data, err := os.ReadFile(i.File)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var imported []importedMatch
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	players, matches, err := i.Open()
	if err != nil {
		return err
	}

	svc := &store.Service{Players: players, Matches: matches, Rating: rating.DefaultConfig}

	ctx := context.Background()
	accepted, rejected := 0, 0
	for idx, m := range imported {
		for _, name := range []string{m.PlayerA, m.PlayerB} {
			if _, err := svc.AddPlayer(ctx, name); err != nil &&
				!errors.Is(err, store.ReasonPlayerExists) {
				return fmt.Errorf("register %q: %w", name, err)
			}
		}

		req := store.SubmitRequest{
			PlayerA: m.PlayerA, PlayerB: m.PlayerB,
			ScoreA: m.ScoreA, ScoreB: m.ScoreB,
			Side: m.Side,
		}

		if _, err := svc.SubmitMatch(ctx, req); err != nil {
			var reason store.ErrRejected
			if errors.As(err, &reason) {
				log.Printf("[WARN] match %d skipped: %v", idx, reason)
				rejected++
				continue
			}
			return fmt.Errorf("import match %d: %w", idx, err)
		}
		accepted++
	}

	log.Printf("[INFO] import done, %d matches recorded, %d skipped", accepted, rejected)
	return nil
}
