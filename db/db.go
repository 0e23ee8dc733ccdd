package db

import (
	"context"
	"errors"
)

// Game modes. The players table keeps one wins/losses/rating column set per mode.
const (
	ModeOneVOne = "1v1"
	ModeTwoVTwo = "2v2"
)

var ErrUnknownMode = errors.New("unknown game mode")

// MatchSnapshot is the durable form of a live match. It exists only for crash
// recovery: rows are written on every mutation while a match is forming or
// counting down and deleted the moment the match resolves or empties.
type MatchSnapshot struct {
	MatchID   string
	Mode      string
	HostID    string
	Players   []string
	Teams     map[string][]string // team label -> player ids, nil for 1v1
	Status    string              // always "active" while the row exists
	MessageID string              // opaque render-surface handle
	ChannelID string              // opaque surface location
}

// PlayerStats is one player's row for a single mode.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Rating   int    `json:"rating"`
}

// Store is the durable persistence boundary used by the match core.
//
// ReadRating and WriteRating are separate calls on purpose: 2v2 results are
// applied one winner/loser pairing at a time, and each pairing must read the
// row as updated by the pairings before it. WriteOutcome only bumps the
// win/loss counters, exactly once per player per match.
type Store interface {
	PersistMatch(ctx context.Context, snap MatchSnapshot) error
	DeleteMatch(ctx context.Context, matchID string) error
	LoadActiveMatches(ctx context.Context) ([]MatchSnapshot, error)

	EnsurePlayerExists(ctx context.Context, playerID string) error
	ReadRating(ctx context.Context, playerID, mode string) (int, error)
	WriteRating(ctx context.Context, playerID, mode string, rating int) error
	WriteOutcome(ctx context.Context, winners, losers []string, mode string) error
}
