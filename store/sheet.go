package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/olegri/foosrank/rating"
)

// Sheet persists the ladder in two JSON row files, the way a remote
// spreadsheet client would: every mutation reads the whole collection,
// changes the target rows in memory and writes the whole collection back.
// There is no isolation between processes, so a second writer racing within
// the read-modify-write window loses its update (last writer wins). The
// per-collection mutexes close that race inside a single process only.
type Sheet struct {
	playersPath string
	matchesPath string

	playersMu sync.Mutex
	matchesMu sync.Mutex
}

// NewSheet opens (or creates) the sheet files inside dir.
func NewSheet(dir string) (*Sheet, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sheet dir: %w", err)
	}

	sh := &Sheet{
		playersPath: filepath.Join(dir, "players.json"),
		matchesPath: filepath.Join(dir, "matches.json"),
	}

	for _, path := range []string{sh.playersPath, sh.matchesPath} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("create sheet file: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("stat sheet file: %w", err)
		}
	}

	return sh, nil
}

// Transactional reports that this backend has no write isolation.
func (s *Sheet) Transactional() bool { return false }

// ListPlayers returns all players in sheet row order.
func (s *Sheet) ListPlayers(ctx context.Context) ([]Player, error) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	return s.readPlayers()
}

// GetPlayer returns a player by the given name.
func (s *Sheet) GetPlayer(ctx context.Context, name string) (Player, error) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()

	players, err := s.readPlayers()
	if err != nil {
		return Player{}, err
	}

	for _, pl := range players {
		if pl.Name == name {
			return pl, nil
		}
	}
	return Player{}, ErrNotFound
}

// CreatePlayer appends a new player row with the starting rating.
func (s *Sheet) CreatePlayer(ctx context.Context, name string) error {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()

	players, err := s.readPlayers()
	if err != nil {
		return err
	}

	for _, pl := range players {
		if pl.Name == name {
			return ErrAlreadyExists
		}
	}

	players = append(players, Player{Name: name, ELO: rating.StartingELO})
	return s.writePlayers(players)
}

// ApplyMatchUpdate rewrites the whole players sheet with both rows changed.
// The single write keeps the two rows consistent with each other, but a
// concurrent writer in another process can still overwrite the result.
func (s *Sheet) ApplyMatchUpdate(ctx context.Context, upd MatchUpdate) error {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()

	players, err := s.readPlayers()
	if err != nil {
		return err
	}

	winnerIdx, loserIdx := -1, -1
	for idx, pl := range players {
		switch pl.Name {
		case upd.Winner:
			winnerIdx = idx
		case upd.Loser:
			loserIdx = idx
		}
	}
	if winnerIdx < 0 {
		return fmt.Errorf("update winner %s: %w", upd.Winner, ErrNotFound)
	}
	if loserIdx < 0 {
		return fmt.Errorf("update loser %s: %w", upd.Loser, ErrNotFound)
	}

	players[winnerIdx].ELO = upd.WinnerELO
	players[winnerIdx].GamesPlayed++
	players[winnerIdx].Wins++
	players[winnerIdx].WinStreak++

	players[loserIdx].ELO = upd.LoserELO
	players[loserIdx].GamesPlayed++
	players[loserIdx].Losses++
	players[loserIdx].WinStreak = 0

	return s.writePlayers(players)
}

// AppendMatch rewrites the whole matches sheet with one row added.
func (s *Sheet) AppendMatch(ctx context.Context, rec MatchRecord) error {
	s.matchesMu.Lock()
	defer s.matchesMu.Unlock()

	records, err := s.readMatches()
	if err != nil {
		return err
	}

	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}
	if err := os.WriteFile(s.matchesPath, data, 0o644); err != nil {
		return fmt.Errorf("write matches sheet: %w", err)
	}

	return nil
}

// MatchesFor returns the match history of a player, oldest first. The sheet
// has no index, so rows are filtered and sorted here; append order breaks
// same-second ID ties.
func (s *Sheet) MatchesFor(ctx context.Context, name string) ([]MatchRecord, error) {
	s.matchesMu.Lock()
	defer s.matchesMu.Unlock()

	records, err := s.readMatches()
	if err != nil {
		return nil, err
	}

	var result []MatchRecord
	for _, rec := range records {
		if rec.Winner == name || rec.Loser == name {
			result = append(result, rec)
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Sheet) readPlayers() ([]Player, error) {
	data, err := os.ReadFile(s.playersPath)
	if err != nil {
		return nil, fmt.Errorf("read players sheet: %w", err)
	}

	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("parse players sheet: %w", err)
	}
	return players, nil
}

func (s *Sheet) writePlayers(players []Player) error {
	data, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	if err := os.WriteFile(s.playersPath, data, 0o644); err != nil {
		return fmt.Errorf("write players sheet: %w", err)
	}
	return nil
}

func (s *Sheet) readMatches() ([]MatchRecord, error) {
	data, err := os.ReadFile(s.matchesPath)
	if err != nil {
		return nil, fmt.Errorf("read matches sheet: %w", err)
	}

	var records []MatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse matches sheet: %w", err)
	}
	return records, nil
}
