package match

import (
	"errors"
	"strings"
	"testing"

	"github.com/GundamTCG/EloBot/db"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw  string
		want Mode
		err  error
	}{
		{raw: "1v1", want: ModeOneVOne},
		{raw: "2v2", want: ModeTwoVTwo},
		{raw: "3v3", err: ErrInvalidMode},
		{raw: "", err: ErrInvalidMode},
		{raw: "1V1", err: ErrInvalidMode},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.raw)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseMode(%q) err = %v, want %v", tt.raw, err, tt.err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestModeCapacity(t *testing.T) {
	if got := ModeOneVOne.Capacity(); got != 2 {
		t.Errorf("1v1 capacity = %d, want 2", got)
	}
	if got := ModeTwoVTwo.Capacity(); got != 4 {
		t.Errorf("2v2 capacity = %d, want 4", got)
	}
}

func TestParseTeam(t *testing.T) {
	if _, err := ParseTeam("Team C"); !errors.Is(err, ErrInvalidTeam) {
		t.Errorf("ParseTeam err = %v, want ErrInvalidTeam", err)
	}
	team, err := ParseTeam("Team B")
	if err != nil || team != TeamB {
		t.Errorf("ParseTeam = (%q, %v), want Team B", team, err)
	}
	if TeamA.other() != TeamB || TeamB.other() != TeamA {
		t.Error("other() does not swap the teams")
	}
}

func TestNewMatch(t *testing.T) {
	m := newMatch("host", ModeTwoVTwo)
	if m.id != "host" || m.hostID != "host" {
		t.Errorf("match id/host = %s/%s, want host/host", m.id, m.hostID)
	}
	if m.status != StatusForming {
		t.Errorf("status = %s, want forming", m.status)
	}
	if len(m.players) != 1 || m.players[0] != "host" {
		t.Errorf("roster = %v, want just the host", m.players)
	}
	if len(m.teams[TeamA]) != 1 || m.teams[TeamA][0] != "host" {
		t.Errorf("Team A = %v, want the host", m.teams[TeamA])
	}

	if newMatch("host", ModeOneVOne).teams != nil {
		t.Error("1v1 match has a team map")
	}
}

func TestCheckTeams(t *testing.T) {
	tests := []struct {
		name    string
		players []string
		teamA   []string
		teamB   []string
		ok      bool
	}{
		{
			name:    "valid partial",
			players: []string{"a", "b", "c"},
			teamA:   []string{"a", "c"},
			teamB:   []string{"b"},
			ok:      true,
		},
		{
			name:    "valid full",
			players: []string{"a", "b", "c", "d"},
			teamA:   []string{"a", "b"},
			teamB:   []string{"c", "d"},
			ok:      true,
		},
		{
			name:    "team over capacity",
			players: []string{"a", "b", "c"},
			teamA:   []string{"a", "b", "c"},
			teamB:   []string{},
		},
		{
			name:    "player on both teams",
			players: []string{"a", "b"},
			teamA:   []string{"a"},
			teamB:   []string{"a", "b"},
		},
		{
			name:    "team member outside roster",
			players: []string{"a"},
			teamA:   []string{"a"},
			teamB:   []string{"ghost"},
		},
		{
			name:    "roster player on no team",
			players: []string{"a", "b"},
			teamA:   []string{"a"},
			teamB:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{
				mode:    ModeTwoVTwo,
				players: tt.players,
				teams:   map[Team][]string{TeamA: tt.teamA, TeamB: tt.teamB},
			}
			err := m.checkTeams()
			if tt.ok && err != nil {
				t.Errorf("checkTeams() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("checkTeams() = nil, want error")
			}
		})
	}
}

func TestRemovePlayerClearsTeams(t *testing.T) {
	m := newMatch("host", ModeTwoVTwo)
	m.players = append(m.players, "p2")
	m.teams[TeamB] = append(m.teams[TeamB], "p2")

	m.removePlayer("p2")
	if m.isMember("p2") {
		t.Error("p2 still in the roster")
	}
	if len(m.teams[TeamB]) != 0 {
		t.Errorf("Team B = %v, want empty", m.teams[TeamB])
	}
	if err := m.checkTeams(); err != nil {
		t.Errorf("teams invalid after removal: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newMatch("host", ModeTwoVTwo)
	m.players = append(m.players, "p2", "p3")
	m.teams[TeamA] = append(m.teams[TeamA], "p3")
	m.teams[TeamB] = append(m.teams[TeamB], "p2")
	m.surface = &fakeSurface{ref: SurfaceRef{MessageID: "msg-9", ChannelID: "2v2"}}

	snap := m.snapshot()
	if snap.MatchID != "host" || snap.Mode != "2v2" || snap.Status != "active" {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if snap.MessageID != "msg-9" || snap.ChannelID != "2v2" {
		t.Fatalf("snapshot surface ref = %s/%s", snap.MessageID, snap.ChannelID)
	}

	restored, err := matchFromSnapshot(snap)
	if err != nil {
		t.Fatalf("matchFromSnapshot: %v", err)
	}
	if restored.id != m.id || restored.mode != m.mode || restored.hostID != m.hostID {
		t.Errorf("restored header = %s/%s/%s", restored.id, restored.mode, restored.hostID)
	}
	if len(restored.players) != 3 {
		t.Errorf("restored roster = %v", restored.players)
	}
	if len(restored.teams[TeamA]) != 2 || len(restored.teams[TeamB]) != 1 {
		t.Errorf("restored teams = %v", restored.teams)
	}
	if restored.status != StatusForming {
		t.Errorf("restored status = %s, want forming", restored.status)
	}
}

func TestMatchFromSnapshotRejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		host    string
		players []string
		teams   map[string][]string
	}{
		{name: "unknown mode", mode: "5v5", host: "host", players: []string{"host", "p2"}},
		{name: "empty roster", mode: "1v1", host: "host"},
		{name: "roster over capacity", mode: "1v1", host: "a", players: []string{"a", "b", "c"}},
		{name: "host not in roster", mode: "1v1", host: "stranger", players: []string{"host", "p2"}},
		{
			name: "bad team label", mode: "2v2", host: "host",
			players: []string{"host"},
			teams:   map[string][]string{"Team X": {"host"}},
		},
		{
			name: "teams missing a roster player", mode: "2v2", host: "host",
			players: []string{"host", "p2"},
			teams:   map[string][]string{"Team A": {"host"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := db.MatchSnapshot{
				MatchID: "host",
				Mode:    tt.mode,
				HostID:  tt.host,
				Players: tt.players,
				Teams:   tt.teams,
			}
			if _, err := matchFromSnapshot(snap); err == nil {
				t.Error("matchFromSnapshot accepted a corrupt row")
			}
		})
	}
}

func TestLobbyText(t *testing.T) {
	m := newMatch("alice", ModeOneVOne)
	m.players = append(m.players, "bob")
	text := lobbyText(m)
	if !strings.Contains(text, "1v1 match hosted by alice") || !strings.Contains(text, "alice, bob") {
		t.Errorf("1v1 lobby text = %q", text)
	}

	m2 := newMatch("alice", ModeTwoVTwo)
	m2.players = append(m2.players, "bob")
	m2.teams[TeamB] = append(m2.teams[TeamB], "bob")
	text = lobbyText(m2)
	if !strings.Contains(text, "Team A: alice") || !strings.Contains(text, "Team B: bob") {
		t.Errorf("2v2 lobby text = %q", text)
	}

	counting := countingText(text, 7)
	if !strings.Contains(counting, "starts in 7 seconds") {
		t.Errorf("counting text = %q", counting)
	}
	if !strings.Contains(startedText(text), "Match has started!") {
		t.Errorf("started text = %q", startedText(text))
	}
}
