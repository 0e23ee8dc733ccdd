package match

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/GundamTCG/EloBot/db"
)

// Reconcile rebuilds the registry from the persisted snapshots after a
// restart. Each snapshot gets its render surface re-attached, or a fresh one
// if the old surface is gone; a match that can get neither is dropped with a
// warning. Countdowns are not resumed mid-flight: a full roster restarts the
// timer from the top.
func (s *Service) Reconcile(ctx context.Context) error {
	snaps, err := s.store.LoadActiveMatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active matches: %w", err)
	}

	restored := 0
	for _, snap := range snaps {
		m, err := matchFromSnapshot(snap)
		if err != nil {
			log.Printf("Dropping persisted match %s: %v", snap.MatchID, err)
			s.dropSnapshot(ctx, snap.MatchID)
			continue
		}

		surface, err := s.presenter.Attach(ctx, SurfaceRef{MessageID: snap.MessageID, ChannelID: snap.ChannelID})
		if errors.Is(err, ErrSurfaceGone) {
			surface, err = s.presenter.Create(ctx, snap.ChannelID, lobbyText(m))
		}
		if err != nil {
			log.Printf("Dropping match %s, surface unrecoverable: %v", snap.MatchID, err)
			s.dropSnapshot(ctx, snap.MatchID)
			continue
		}
		m.surface = surface

		if err := s.registry.attach(m); err != nil {
			log.Printf("Dropping match %s, roster conflicts with an already restored match: %v", snap.MatchID, err)
			s.dropSnapshot(ctx, snap.MatchID)
			continue
		}

		m.lock()
		s.persist(ctx, m) // the surface ref may have changed
		s.render(ctx, m.surface, lobbyText(m))
		s.maybeStartCountdown(m)
		m.unlock()
		restored++
	}

	log.Printf("Reconciliation complete: restored %d of %d persisted matches", restored, len(snaps))
	return nil
}

// dropSnapshot removes an unrecoverable row so it does not re-warn on every
// restart.
func (s *Service) dropSnapshot(ctx context.Context, matchID string) {
	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		log.Printf("Failed to delete dropped match %s: %v", matchID, err)
	}
}

// matchFromSnapshot reconstructs in-memory state and validates it against the
// same invariants live mutations are held to.
func matchFromSnapshot(snap db.MatchSnapshot) (*Match, error) {
	mode, err := ParseMode(snap.Mode)
	if err != nil {
		return nil, err
	}
	if len(snap.Players) == 0 {
		return nil, errors.New("snapshot has an empty roster")
	}
	if len(snap.Players) > mode.Capacity() {
		return nil, fmt.Errorf("snapshot roster of %d exceeds %s capacity", len(snap.Players), mode)
	}

	m := &Match{
		ops:     make(chan struct{}, 1),
		id:      snap.MatchID,
		mode:    mode,
		hostID:  snap.HostID,
		players: append([]string(nil), snap.Players...),
		status:  StatusForming,
	}
	if !m.isMember(snap.HostID) {
		return nil, fmt.Errorf("host %s is not in the snapshot roster", snap.HostID)
	}
	if mode == ModeTwoVTwo {
		m.teams = map[Team][]string{TeamA: {}, TeamB: {}}
		for label, members := range snap.Teams {
			team, err := ParseTeam(label)
			if err != nil {
				return nil, err
			}
			m.teams[team] = append([]string(nil), members...)
		}
		if err := m.checkTeams(); err != nil {
			return nil, fmt.Errorf("snapshot team state invalid: %v", err)
		}
	}
	return m, nil
}
