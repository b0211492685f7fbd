package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/olegri/foosrank/rating"
)

// ErrNotFound indicates that the entity hasn't been found in the storage.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists indicates a uniqueness violation on insert.
var ErrAlreadyExists = errors.New("already exists")

// ErrUnavailable indicates a transient storage failure. The operation did
// not complete and must not be treated as a success.
var ErrUnavailable = errors.New("backend unavailable")

// Store provides methods to store/load ladder data in SQLite. Match updates
// run in row-level transactions, so concurrent submissions for the same
// players serialize while unrelated pairs proceed independently.
type Store struct {
	db *sqlx.DB
}

// New prepares the database.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite allows a single writer per file; one pooled connection keeps
	// concurrent transactions queued in-process instead of failing with
	// SQLITE_BUSY
	db.SetMaxOpenConns(1)

	const schema = `
		CREATE TABLE IF NOT EXISTS players (
			player_name TEXT PRIMARY KEY,
			elo INTEGER NOT NULL,
			n_games_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			win_streak INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS matches (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			winner TEXT NOT NULL,
			loser TEXT NOT NULL,
			score_w INTEGER NOT NULL,
			score_l INTEGER NOT NULL,
			elo_w INTEGER NOT NULL,
			elo_l INTEGER NOT NULL,
			color_w TEXT NOT NULL DEFAULT ''
		);
    `

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Transactional reports that match updates are atomic and isolated.
func (s *Store) Transactional() bool { return true }

// ListPlayers returns all players in registration order.
func (s *Store) ListPlayers(ctx context.Context) ([]Player, error) {
	var players []Player

	const query = `SELECT player_name, elo, n_games_played, wins, losses, win_streak
					FROM players ORDER BY rowid`

	if err := s.db.SelectContext(ctx, &players, query); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	return players, nil
}

// GetPlayer returns a player by the given name.
func (s *Store) GetPlayer(ctx context.Context, name string) (Player, error) {
	var pl Player

	const query = `SELECT player_name, elo, n_games_played, wins, losses, win_streak
					FROM players WHERE player_name = ?`

	if err := s.db.GetContext(ctx, &pl, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound
		}
		return Player{}, fmt.Errorf("get player: %w", err)
	}
	return pl, nil
}

// CreatePlayer inserts a new player with the starting rating.
func (s *Store) CreatePlayer(ctx context.Context, name string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM players WHERE player_name = ?`, name)
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyExists
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO players (player_name, elo) VALUES (?, ?)`,
		name, rating.StartingELO)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ApplyMatchUpdate commits both players' post-match state in one transaction:
// ratings, game counters, win/loss records and streaks change together or
// not at all.
func (s *Store) ApplyMatchUpdate(ctx context.Context, upd MatchUpdate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const winnerQuery = `UPDATE players SET
							elo = ?,
							n_games_played = n_games_played + 1,
							wins = wins + 1,
							win_streak = win_streak + 1
						WHERE player_name = ?`

	const loserQuery = `UPDATE players SET
							elo = ?,
							n_games_played = n_games_played + 1,
							losses = losses + 1,
							win_streak = 0
						WHERE player_name = ?`

	res, err := tx.ExecContext(ctx, winnerQuery, upd.WinnerELO, upd.Winner)
	if err != nil {
		return fmt.Errorf("update winner: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update winner %s: %w", upd.Winner, ErrNotFound)
	}

	res, err = tx.ExecContext(ctx, loserQuery, upd.LoserELO, upd.Loser)
	if err != nil {
		return fmt.Errorf("update loser: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update loser %s: %w", upd.Loser, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// AppendMatch writes one match record to the history.
func (s *Store) AppendMatch(ctx context.Context, rec MatchRecord) error {
	const query = `INSERT INTO matches (id, winner, loser, score_w, score_l, elo_w, elo_l, color_w)
					VALUES (:id, :winner, :loser, :score_w, :score_l, :elo_w, :elo_l, :color_w)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	return nil
}

// MatchesFor returns the match history of a player, oldest first. Same-second
// submissions share an ID, so the insertion sequence breaks ties.
func (s *Store) MatchesFor(ctx context.Context, name string) ([]MatchRecord, error) {
	var records []MatchRecord

	const query = `SELECT id, winner, loser, score_w, score_l, elo_w, elo_l, color_w
					FROM matches WHERE winner = ? OR loser = ?
					ORDER BY id ASC, seq ASC`

	if err := s.db.SelectContext(ctx, &records, query, name, name); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	return records, nil
}
