package match

import (
	"fmt"

	"github.com/GundamTCG/EloBot/db"
)

type Mode string

const (
	ModeOneVOne Mode = db.ModeOneVOne
	ModeTwoVTwo Mode = db.ModeTwoVTwo
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeOneVOne, ModeTwoVTwo:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Capacity is the roster size a match of this mode plays with.
func (m Mode) Capacity() int {
	if m == ModeTwoVTwo {
		return 4
	}
	return 2
}

type Status string

const (
	StatusForming  Status = "forming"
	StatusCounting Status = "counting"
	StatusReady    Status = "ready"
	StatusResolved Status = "resolved"
)

type Team string

const (
	TeamA Team = "Team A"
	TeamB Team = "Team B"
)

const teamCapacity = 2

func ParseTeam(raw string) (Team, error) {
	switch Team(raw) {
	case TeamA, TeamB:
		return Team(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTeam, raw)
	}
}

func (t Team) other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Match is one lobby's authoritative state. All fields are guarded by the op
// lock: operations acquire it for their full duration, including persistence
// and render calls, so requests against the same match never interleave.
type Match struct {
	ops chan struct{} // op lock, capacity 1

	id      string
	mode    Mode
	hostID  string
	players []string
	teams   map[Team][]string // 2v2 only, nil otherwise
	status  Status
	surface Surface
	cd      *countdown

	// dead marks a destroyed match. A request can fetch the match from the
	// registry and then block on the op lock while a concurrent operation
	// destroys it; checking dead right after locking fences those stale
	// requests.
	dead bool
}

func newMatch(hostID string, mode Mode) *Match {
	m := &Match{
		ops:     make(chan struct{}, 1),
		id:      hostID,
		mode:    mode,
		hostID:  hostID,
		players: []string{hostID},
		status:  StatusForming,
	}
	if mode == ModeTwoVTwo {
		// The host opens on Team A.
		m.teams = map[Team][]string{TeamA: {hostID}, TeamB: {}}
	}
	return m
}

func (m *Match) lock()   { m.ops <- struct{}{} }
func (m *Match) unlock() { <-m.ops }

func (m *Match) isMember(playerID string) bool {
	for _, p := range m.players {
		if p == playerID {
			return true
		}
	}
	return false
}

func (m *Match) isFull() bool {
	return len(m.players) == m.mode.Capacity()
}

func (m *Match) removePlayer(playerID string) {
	for i, p := range m.players {
		if p == playerID {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
	for team, members := range m.teams {
		for i, p := range members {
			if p == playerID {
				m.teams[team] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
}

// checkTeams validates the 2v2 team partition: both teams within capacity,
// no player on two teams, and teams exactly covering the roster. It is run
// before a team mutation is committed; a failure means the mutation would
// corrupt state and must be rejected.
func (m *Match) checkTeams() error {
	if m.mode != ModeTwoVTwo {
		return nil
	}
	seen := make(map[string]bool)
	count := 0
	for _, team := range []Team{TeamA, TeamB} {
		members := m.teams[team]
		if len(members) > teamCapacity {
			return fmt.Errorf("%s has %d players", team, len(members))
		}
		for _, p := range members {
			if seen[p] {
				return fmt.Errorf("player %s is on both teams", p)
			}
			seen[p] = true
			if !m.isMember(p) {
				return fmt.Errorf("player %s is on a team but not in the roster", p)
			}
			count++
		}
	}
	if count != len(m.players) {
		return fmt.Errorf("teams cover %d of %d roster players", count, len(m.players))
	}
	return nil
}

func (m *Match) snapshot() db.MatchSnapshot {
	snap := db.MatchSnapshot{
		MatchID: m.id,
		Mode:    string(m.mode),
		HostID:  m.hostID,
		Players: append([]string(nil), m.players...),
		Status:  "active",
	}
	if m.teams != nil {
		snap.Teams = make(map[string][]string, len(m.teams))
		for team, members := range m.teams {
			snap.Teams[string(team)] = append([]string(nil), members...)
		}
	}
	if m.surface != nil {
		ref := m.surface.Ref()
		snap.MessageID = ref.MessageID
		snap.ChannelID = ref.ChannelID
	}
	return snap
}

// Info is a read-only snapshot of a live match for listings.
type Info struct {
	ID        string   `json:"id"`
	Mode      Mode     `json:"mode"`
	HostID    string   `json:"host_id"`
	Players   []string `json:"players"`
	Status    Status   `json:"status"`
	Remaining int      `json:"remaining,omitempty"`
}
