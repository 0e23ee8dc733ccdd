package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	player_id  TEXT PRIMARY KEY,
	wins_1v1   INTEGER NOT NULL DEFAULT 0,
	losses_1v1 INTEGER NOT NULL DEFAULT 0,
	rating_1v1 INTEGER NOT NULL DEFAULT 1000,
	wins_2v2   INTEGER NOT NULL DEFAULT 0,
	losses_2v2 INTEGER NOT NULL DEFAULT 0,
	rating_2v2 INTEGER NOT NULL DEFAULT 1000
);

CREATE TABLE IF NOT EXISTS matches (
	match_id   TEXT PRIMARY KEY,
	mode       TEXT NOT NULL,
	host_id    TEXT NOT NULL,
	players    TEXT NOT NULL,
	teams      TEXT,
	status     TEXT NOT NULL,
	message_id TEXT,
	channel_id TEXT
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT UNIQUE NOT NULL,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the database, verifies the connection and creates the
// tables if they are missing.
func NewPostgres(url string) (*Postgres, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Postgres{db: conn}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// Conn exposes the underlying connection for read-only query services.
func (p *Postgres) Conn() *sql.DB {
	return p.db
}

func (p *Postgres) PersistMatch(ctx context.Context, snap MatchSnapshot) error {
	playersJSON, err := json.Marshal(snap.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	var teamsJSON sql.NullString
	if snap.Teams != nil {
		raw, err := json.Marshal(snap.Teams)
		if err != nil {
			return fmt.Errorf("failed to marshal teams: %w", err)
		}
		teamsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, mode, host_id, players, teams, status, message_id, channel_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_id) DO UPDATE SET
			mode = $2, host_id = $3, players = $4, teams = $5,
			status = $6, message_id = $7, channel_id = $8
	`, snap.MatchID, snap.Mode, snap.HostID, string(playersJSON), teamsJSON,
		snap.Status, snap.MessageID, snap.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to persist match %s: %w", snap.MatchID, err)
	}
	return nil
}

func (p *Postgres) DeleteMatch(ctx context.Context, matchID string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM matches WHERE match_id = $1", matchID); err != nil {
		return fmt.Errorf("failed to delete match %s: %w", matchID, err)
	}
	return nil
}

func (p *Postgres) LoadActiveMatches(ctx context.Context) ([]MatchSnapshot, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id, mode, host_id, players, teams, status, message_id, channel_id
		FROM matches WHERE status = 'active'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load active matches: %w", err)
	}
	defer rows.Close()

	var snaps []MatchSnapshot
	for rows.Next() {
		var snap MatchSnapshot
		var playersJSON string
		var teamsJSON, messageID, channelID sql.NullString
		if err := rows.Scan(&snap.MatchID, &snap.Mode, &snap.HostID, &playersJSON,
			&teamsJSON, &snap.Status, &messageID, &channelID); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := json.Unmarshal([]byte(playersJSON), &snap.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players for match %s: %w", snap.MatchID, err)
		}
		if teamsJSON.Valid {
			if err := json.Unmarshal([]byte(teamsJSON.String), &snap.Teams); err != nil {
				return nil, fmt.Errorf("failed to unmarshal teams for match %s: %w", snap.MatchID, err)
			}
		}
		snap.MessageID = messageID.String
		snap.ChannelID = channelID.String
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (p *Postgres) EnsurePlayerExists(ctx context.Context, playerID string) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO players (player_id) VALUES ($1) ON CONFLICT (player_id) DO NOTHING", playerID)
	if err != nil {
		return fmt.Errorf("failed to ensure player %s: %w", playerID, err)
	}
	return nil
}

func (p *Postgres) ReadRating(ctx context.Context, playerID, mode string) (int, error) {
	cols, err := StatColumns(mode)
	if err != nil {
		return 0, err
	}
	if err := p.EnsurePlayerExists(ctx, playerID); err != nil {
		return 0, err
	}
	var rating int
	query := fmt.Sprintf("SELECT %s FROM players WHERE player_id = $1", cols.Rating)
	if err := p.db.QueryRowContext(ctx, query, playerID).Scan(&rating); err != nil {
		return 0, fmt.Errorf("failed to read rating for %s: %w", playerID, err)
	}
	return rating, nil
}

func (p *Postgres) WriteRating(ctx context.Context, playerID, mode string, rating int) error {
	cols, err := StatColumns(mode)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE players SET %s = $1 WHERE player_id = $2", cols.Rating)
	if _, err := p.db.ExecContext(ctx, query, rating, playerID); err != nil {
		return fmt.Errorf("failed to write rating for %s: %w", playerID, err)
	}
	return nil
}

func (p *Postgres) WriteOutcome(ctx context.Context, winners, losers []string, mode string) error {
	cols, err := StatColumns(mode)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outcome tx: %w", err)
	}
	defer tx.Rollback()

	winQuery := fmt.Sprintf("UPDATE players SET %s = %s + 1 WHERE player_id = $1", cols.Wins, cols.Wins)
	for _, id := range winners {
		if _, err := tx.ExecContext(ctx, winQuery, id); err != nil {
			return fmt.Errorf("failed to record win for %s: %w", id, err)
		}
	}
	lossQuery := fmt.Sprintf("UPDATE players SET %s = %s + 1 WHERE player_id = $1", cols.Losses, cols.Losses)
	for _, id := range losers {
		if _, err := tx.ExecContext(ctx, lossQuery, id); err != nil {
			return fmt.Errorf("failed to record loss for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Columns holds the per-mode stat column names.
type Columns struct {
	Wins   string
	Losses string
	Rating string
}

// StatColumns maps a validated mode to its column names. Column names are
// interpolated into queries, so the switch is the only place they come from.
func StatColumns(mode string) (Columns, error) {
	switch mode {
	case ModeOneVOne:
		return Columns{Wins: "wins_1v1", Losses: "losses_1v1", Rating: "rating_1v1"}, nil
	case ModeTwoVTwo:
		return Columns{Wins: "wins_2v2", Losses: "losses_2v2", Rating: "rating_2v2"}, nil
	default:
		return Columns{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
