package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/GundamTCG/EloBot/db"
	"github.com/GundamTCG/EloBot/internal/rating"
)

const defaultLimit = 10

type Entry struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Rating   int    `json:"rating"`
	Rank     string `json:"rank"`
}

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) *Service {
	return &Service{db: database}
}

// Top returns the highest rated players for a mode, best first.
func (s *Service) Top(ctx context.Context, mode string, limit int) ([]Entry, error) {
	cols, err := db.StatColumns(mode)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	query := fmt.Sprintf(`
		SELECT p.player_id, COALESCE(u.username, ''), p.%s, p.%s, p.%s
		FROM players p
		LEFT JOIN users u ON u.id = p.player_id
		ORDER BY p.%s DESC
		LIMIT $1`, cols.Wins, cols.Losses, cols.Rating, cols.Rating)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Wins, &e.Losses, &e.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Rank = rating.Rank(e.Rating)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns one player's record for a mode. Players with no row yet
// get the starting record rather than an error.
func (s *Service) Stats(ctx context.Context, playerID, mode string) (Entry, error) {
	cols, err := db.StatColumns(mode)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{PlayerID: playerID, Rating: rating.Default}
	query := fmt.Sprintf(`
		SELECT COALESCE(u.username, ''), p.%s, p.%s, p.%s
		FROM players p
		LEFT JOIN users u ON u.id = p.player_id
		WHERE p.player_id = $1`, cols.Wins, cols.Losses, cols.Rating)

	err = s.db.QueryRowContext(ctx, query, playerID).Scan(&e.Username, &e.Wins, &e.Losses, &e.Rating)
	if err != nil && err != sql.ErrNoRows {
		return Entry{}, fmt.Errorf("failed to query stats for %s: %w", playerID, err)
	}
	e.Rank = rating.Rank(e.Rating)
	return e, nil
}

// Reset puts a player's record for a mode back to the starting values.
func (s *Service) Reset(ctx context.Context, playerID, mode string) error {
	cols, err := db.StatColumns(mode)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO players (player_id) VALUES ($1) ON CONFLICT (player_id) DO NOTHING", playerID); err != nil {
		return fmt.Errorf("failed to ensure player %s: %w", playerID, err)
	}

	query := fmt.Sprintf("UPDATE players SET %s = 0, %s = 0, %s = $1 WHERE player_id = $2",
		cols.Wins, cols.Losses, cols.Rating)
	if _, err := s.db.ExecContext(ctx, query, rating.Default, playerID); err != nil {
		return fmt.Errorf("failed to reset stats for %s: %w", playerID, err)
	}
	return nil
}
