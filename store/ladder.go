package store

import (
	"context"
	"fmt"
)

// MaxNameLen caps player names at registration time.
const MaxNameLen = 15

// Player represents a ladder player. Column names follow the players sheet
// layout: player_name is the unique key, elo the current rating.
type Player struct {
	Name        string `db:"player_name" json:"player_name"`
	ELO         int    `db:"elo" json:"elo"`
	GamesPlayed int    `db:"n_games_played" json:"n_games_played"`
	Wins        int    `db:"wins" json:"wins"`
	Losses      int    `db:"losses" json:"losses"`
	WinStreak   int    `db:"win_streak" json:"win_streak"`
}

// String returns a short human-readable summary of the player.
func (p Player) String() string {
	return fmt.Sprintf("%s (%d)", p.Name, p.ELO)
}

// MatchRecord is an immutable row in the match history. ID is the submission
// timestamp at second resolution; it doubles as the chronological sort key
// and is not guaranteed unique when two matches land within the same second.
type MatchRecord struct {
	ID          string `db:"id" json:"id"`
	Winner      string `db:"winner" json:"winner"`
	Loser       string `db:"loser" json:"loser"`
	ScoreWinner int    `db:"score_w" json:"score_w"`
	ScoreLoser  int    `db:"score_l" json:"score_l"`
	ELOWinner   int    `db:"elo_w" json:"elo_w"`
	ELOLoser    int    `db:"elo_l" json:"elo_l"`
	Side        string `db:"color_w" json:"color_w,omitempty"` // winning table side, cosmetic
}

// MatchUpdate describes the per-player effects of one decided match. The
// store commits both players' new ratings, game counters and streaks as a
// single unit, or not at all.
type MatchUpdate struct {
	Winner    string
	Loser     string
	WinnerELO int
	LoserELO  int
}

// PlayerStore is the persistence capability the service needs for players.
// Implementations differ in their consistency guarantees, reported via
// Transactional.
type PlayerStore interface {
	// ListPlayers returns all players in insertion order.
	ListPlayers(ctx context.Context) ([]Player, error)
	// GetPlayer returns the player with the given name, or ErrNotFound.
	GetPlayer(ctx context.Context, name string) (Player, error)
	// CreatePlayer registers a new player with the starting rating, or
	// fails with ErrAlreadyExists. Names match case-sensitively.
	CreatePlayer(ctx context.Context, name string) error
	// ApplyMatchUpdate commits both sides of a match result as one unit.
	ApplyMatchUpdate(ctx context.Context, upd MatchUpdate) error
	// Transactional reports whether updates are isolated from concurrent
	// writers. Non-transactional backends can lose racing updates.
	Transactional() bool
}

// MatchLog is the append-only match history capability.
type MatchLog interface {
	// AppendMatch writes one match record. Records are never mutated.
	AppendMatch(ctx context.Context, rec MatchRecord) error
	// MatchesFor returns all records where the player appears as winner
	// or loser, ascending by ID. The backing store has no index, so the
	// implementation sorts.
	MatchesFor(ctx context.Context, name string) ([]MatchRecord, error)
}
