package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/olegri/foosrank/rating"
)

// Service runs the rating update workflow on top of the storage
// capabilities. It is stateless across calls: every submission validates,
// computes and persists from scratch.
type Service struct {
	Players PlayerStore
	Matches MatchLog
	Rating  rating.Config

	// Now is the match-ID clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// ErrRejected is a user-input validation failure. Its text is shown to the
// submitter verbatim; nothing was persisted.
type ErrRejected string

// Error returns the rejection reason.
func (e ErrRejected) Error() string { return string(e) }

// Rejection reasons, one per validation rule.
const (
	ReasonSelectPlayers = ErrRejected("select two players")
	ReasonSamePlayer    = ErrRejected("players must differ")
	ReasonMissingScores = ErrRejected("enter both scores")
	ReasonBadScores     = ErrRejected("scores must be 0-10 with exactly one side at 10")
	ReasonEmptyName     = ErrRejected("enter a name")
	ReasonNameTooLong   = ErrRejected("name too long, 15 characters max")
	ReasonPlayerExists  = ErrRejected("player already exists")
	ReasonUnknownPlayer = ErrRejected("unknown player")
)

// SubmitRequest is a reported match result as entered by the submitter.
// Scores are pointers so an absent entry is distinguishable from zero.
type SubmitRequest struct {
	PlayerA string
	PlayerB string
	ScoreA  *int
	ScoreB  *int
	Side    string // winning table side, optional and cosmetic
}

// SubmitResult is returned on an accepted match.
type SubmitResult struct {
	Record    MatchRecord
	Standings []Player
}

// HistoryEntry is one point of a player's rating-over-time trace.
type HistoryEntry struct {
	MatchID       string
	RatingAfter   int
	Opponent      string
	Won           bool
	PlayerScore   int
	OpponentScore int
}

// SubmitMatch validates a reported result, computes the new ratings and
// persists the player updates and the match record. Validation failures
// come back as ErrRejected with nothing changed; storage failures come back
// as ErrUnavailable.
func (s *Service) SubmitMatch(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if req.PlayerA == "" || req.PlayerB == "" {
		return SubmitResult{}, ReasonSelectPlayers
	}

	playerA, err := s.Players.GetPlayer(ctx, req.PlayerA)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SubmitResult{}, ReasonSelectPlayers
		}
		return SubmitResult{}, s.unavailable("get player", err)
	}

	playerB, err := s.Players.GetPlayer(ctx, req.PlayerB)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SubmitResult{}, ReasonSelectPlayers
		}
		return SubmitResult{}, s.unavailable("get player", err)
	}

	if req.PlayerA == req.PlayerB {
		return SubmitResult{}, ReasonSamePlayer
	}

	if req.ScoreA == nil || req.ScoreB == nil {
		return SubmitResult{}, ReasonMissingScores
	}

	scoreA, scoreB := *req.ScoreA, *req.ScoreB
	if scoreA < 0 || scoreA > 10 || scoreB < 0 || scoreB > 10 {
		return SubmitResult{}, ReasonBadScores
	}
	if (scoreA == 10) == (scoreB == 10) { // both or neither at 10
		return SubmitResult{}, ReasonBadScores
	}

	winner, loser := playerA, playerB
	scoreW, scoreL := scoreA, scoreB
	if scoreB == 10 {
		winner, loser = playerB, playerA
		scoreW, scoreL = scoreB, scoreA
	}

	res := s.Rating.ApplyResult(winner.ELO, loser.ELO,
		winner.GamesPlayed, loser.GamesPlayed, scoreW, scoreL)

	upd := MatchUpdate{
		Winner:    winner.Name,
		Loser:     loser.Name,
		WinnerELO: res.Winner,
		LoserELO:  res.Loser,
	}
	if err := s.Players.ApplyMatchUpdate(ctx, upd); err != nil {
		return SubmitResult{}, s.unavailable("apply match update", err)
	}

	rec := MatchRecord{
		ID:          s.now().Format(time.DateTime),
		Winner:      winner.Name,
		Loser:       loser.Name,
		ScoreWinner: scoreW,
		ScoreLoser:  scoreL,
		ELOWinner:   res.Winner,
		ELOLoser:    res.Loser,
		Side:        req.Side,
	}
	if err := s.Matches.AppendMatch(ctx, rec); err != nil {
		// ratings are already committed, so the history is now one match
		// short of the game counters
		log.Printf("[ERROR] match record lost for %s vs %s: %v", winner.Name, loser.Name, err)
		return SubmitResult{}, s.unavailable("append match", err)
	}

	standings, err := s.Standings(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{Record: rec, Standings: standings}, nil
}

// AddPlayer registers a new player and returns the refreshed standings.
func (s *Service) AddPlayer(ctx context.Context, name string) ([]Player, error) {
	if name == "" {
		return nil, ReasonEmptyName
	}
	if len(name) > MaxNameLen {
		return nil, ReasonNameTooLong
	}

	if err := s.Players.CreatePlayer(ctx, name); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ReasonPlayerExists
		}
		return nil, s.unavailable("create player", err)
	}

	return s.Standings(ctx)
}

// Standings returns all players sorted by rating, best first. The sort is
// stable, so equally rated players keep their registration order.
func (s *Service) Standings(ctx context.Context) ([]Player, error) {
	players, err := s.Players.ListPlayers(ctx)
	if err != nil {
		return nil, s.unavailable("list players", err)
	}

	sort.SliceStable(players, func(i, j int) bool { return players[i].ELO > players[j].ELO })
	return players, nil
}

// History returns the rating-over-time trace for one player, oldest match
// first.
func (s *Service) History(ctx context.Context, name string) ([]HistoryEntry, error) {
	if name == "" {
		return nil, ReasonEmptyName
	}

	if _, err := s.Players.GetPlayer(ctx, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ReasonUnknownPlayer
		}
		return nil, s.unavailable("get player", err)
	}

	records, err := s.Matches.MatchesFor(ctx, name)
	if err != nil {
		return nil, s.unavailable("load matches", err)
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := HistoryEntry{MatchID: rec.ID}
		if rec.Winner == name {
			entry.Won = true
			entry.RatingAfter = rec.ELOWinner
			entry.Opponent = rec.Loser
			entry.PlayerScore = rec.ScoreWinner
			entry.OpponentScore = rec.ScoreLoser
		} else {
			entry.RatingAfter = rec.ELOLoser
			entry.Opponent = rec.Winner
			entry.PlayerScore = rec.ScoreLoser
			entry.OpponentScore = rec.ScoreWinner
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// unavailable hides backend detail from callers: the cause is logged, the
// caller sees only ErrUnavailable.
func (s *Service) unavailable(op string, err error) error {
	log.Printf("[WARN] %s: %v", op, err)
	return fmt.Errorf("%s: %w", op, ErrUnavailable)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
