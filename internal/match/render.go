package match

import (
	"fmt"
	"strings"
)

func lobbyText(m *Match) string {
	if m.mode == ModeTwoVTwo {
		return fmt.Sprintf("2v2 match hosted by %s\nTeam A: %s\nTeam B: %s",
			m.hostID,
			strings.Join(m.teams[TeamA], ", "),
			strings.Join(m.teams[TeamB], ", "))
	}
	return fmt.Sprintf("1v1 match hosted by %s\nPlayers: %s",
		m.hostID, strings.Join(m.players, ", "))
}

func countingText(base string, remaining int) string {
	return fmt.Sprintf("%s\n\nMatch starts in %d seconds...", base, remaining)
}

func startedText(base string) string {
	return base + "\n\nMatch has started! Report a win to end the match."
}
