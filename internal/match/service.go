package match

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itbasis/go-clock"

	"github.com/GundamTCG/EloBot/db"
	"github.com/GundamTCG/EloBot/internal/rating"
)

// promptTTL bounds the team-choice and winner-pick sub-interactions. An
// expired prompt is abandoned, never an applied state change.
const promptTTL = 30 * time.Second

type promptKind int

const (
	promptTeam promptKind = iota
	promptWinner
)

type promptKey struct {
	matchID  string
	playerID string
	kind     promptKind
}

// Service owns the full lifecycle of every match: it validates transitions
// through the state machine, applies rating updates, persists snapshots and
// drives re-renders of the presentation surfaces.
type Service struct {
	registry  *Registry
	store     db.Store
	presenter Presenter
	clk       clock.Clock

	promptMu sync.Mutex
	prompts  map[promptKey]time.Time // key -> expiry

	countdownFrom int
}

func NewService(registry *Registry, store db.Store, presenter Presenter, clk clock.Clock) *Service {
	return &Service{
		registry:      registry,
		store:         store,
		presenter:     presenter,
		clk:           clk,
		prompts:       make(map[promptKey]time.Time),
		countdownFrom: countdownSeconds,
	}
}

// StartMatch opens a new lobby hosted (and initially populated) by hostID and
// renders its surface into the given channel.
func (s *Service) StartMatch(ctx context.Context, hostID, channelID string, mode Mode) error {
	m, err := s.registry.Create(hostID, mode)
	if err != nil {
		return err
	}
	m.lock()
	defer m.unlock()

	surface, err := s.presenter.Create(ctx, channelID, lobbyText(m))
	if err != nil {
		// No surface means no match: undo the registration.
		s.registry.release(hostID)
		s.registry.Remove(m.id)
		return fmt.Errorf("failed to create match surface: %w", err)
	}
	m.surface = surface

	if err := s.store.EnsurePlayerExists(ctx, hostID); err != nil {
		log.Printf("Failed to ensure player %s: %v", hostID, err)
	}
	s.persist(ctx, m)
	return nil
}

// Join enrolls a player into a 1v1 match, or opens the team-choice prompt for
// a 2v2 match. needsTeam reports whether the caller must follow up with
// ChooseTeam.
func (s *Service) Join(ctx context.Context, matchID, playerID string) (needsTeam bool, err error) {
	m, ok := s.registry.Get(matchID)
	if !ok {
		return false, ErrMatchNotFound
	}
	m.lock()
	defer m.unlock()
	if m.dead {
		return false, ErrMatchNotFound
	}

	if err := s.joinGuards(m, playerID); err != nil {
		return false, err
	}

	if m.mode == ModeTwoVTwo {
		s.armPrompt(m.id, playerID, promptTeam)
		return true, nil
	}

	if err := s.enroll(m, playerID, ""); err != nil {
		return false, err
	}
	s.persist(ctx, m)
	s.render(ctx, m.surface, lobbyText(m))
	s.maybeStartCountdown(m)
	return false, nil
}

// ChooseTeam completes a 2v2 join for a player holding a live team prompt.
func (s *Service) ChooseTeam(ctx context.Context, matchID, playerID string, team Team) error {
	m, ok := s.registry.Get(matchID)
	if !ok {
		return ErrMatchNotFound
	}
	m.lock()
	defer m.unlock()
	if m.dead {
		return ErrMatchNotFound
	}

	if !s.takePrompt(m.id, playerID, promptTeam) {
		return ErrSelectionExpired
	}
	// Revalidate: the lobby may have changed while the player was deciding.
	if err := s.joinGuards(m, playerID); err != nil {
		return err
	}
	if len(m.teams[team]) >= teamCapacity {
		return ErrTeamFull
	}

	if err := s.enroll(m, playerID, team); err != nil {
		return err
	}
	s.persist(ctx, m)
	s.render(ctx, m.surface, lobbyText(m))
	s.maybeStartCountdown(m)
	return nil
}

// Leave removes a player. Shrinking a full roster cancels the countdown (and
// waits for it) before the removal is applied; an emptied match is destroyed.
func (s *Service) Leave(ctx context.Context, matchID, playerID string) error {
	m, ok := s.registry.Get(matchID)
	if !ok {
		return ErrMatchNotFound
	}
	m.lock()
	defer m.unlock()
	if m.dead {
		return ErrMatchNotFound
	}

	if !m.isMember(playerID) {
		return ErrNotInMatch
	}

	s.stopCountdown(m)
	m.removePlayer(playerID)
	s.registry.release(playerID)

	if len(m.players) == 0 {
		s.destroy(ctx, m)
		return nil
	}
	if playerID == m.hostID {
		// The lobby keeps its id, the first remaining player takes over
		// hosting duties.
		m.hostID = m.players[0]
	}
	s.persist(ctx, m)
	s.render(ctx, m.surface, lobbyText(m))
	return nil
}

// ReportWin validates that the reporter may end the match and opens the
// winner-pick prompt. The returned options are player ids for 1v1 and team
// labels for 2v2.
func (s *Service) ReportWin(ctx context.Context, matchID, reporterID string) ([]string, error) {
	m, ok := s.registry.Get(matchID)
	if !ok {
		return nil, ErrMatchNotFound
	}
	m.lock()
	defer m.unlock()
	if m.dead {
		return nil, ErrMatchNotFound
	}

	if err := reportGuards(m, reporterID); err != nil {
		return nil, err
	}

	s.armPrompt(m.id, reporterID, promptWinner)
	if m.mode == ModeTwoVTwo {
		return []string{string(TeamA), string(TeamB)}, nil
	}
	return append([]string(nil), m.players...), nil
}

// ResolveWinner applies the reported outcome: rating updates for every
// winner/loser pairing, win/loss counters once per player, then the match is
// purged from the registry, the store and the channel.
func (s *Service) ResolveWinner(ctx context.Context, matchID, reporterID, selection string) error {
	m, ok := s.registry.Get(matchID)
	if !ok {
		return ErrMatchNotFound
	}
	m.lock()
	defer m.unlock()
	if m.dead {
		return ErrMatchNotFound
	}

	if !s.takePrompt(m.id, reporterID, promptWinner) {
		return ErrSelectionExpired
	}
	// The lobby may have changed shape while the reporter was deciding.
	if err := reportGuards(m, reporterID); err != nil {
		return err
	}

	var winners, losers []string
	if m.mode == ModeTwoVTwo {
		if err := m.checkTeams(); err != nil {
			return fmt.Errorf("refusing to resolve match %s, team state invalid: %v", m.id, err)
		}
		team, err := ParseTeam(selection)
		if err != nil {
			return err
		}
		winners = append([]string(nil), m.teams[team]...)
		losers = append([]string(nil), m.teams[team.other()]...)
	} else {
		if !m.isMember(selection) {
			return ErrInvalidWinner
		}
		winners = []string{selection}
		for _, p := range m.players {
			if p != selection {
				losers = append(losers, p)
			}
		}
	}

	if err := s.applyOutcome(ctx, m.mode, winners, losers); err != nil {
		// Nothing was purged: the reporter can retry once the store is back.
		return err
	}

	m.status = StatusResolved
	for _, p := range m.players {
		s.registry.release(p)
	}
	s.destroy(ctx, m)
	return nil
}

// ReportManual is the admin path: apply an outcome directly, without a lobby.
// The sides must have the shape the mode plays with: one distinct player each
// for 1v1, two for 2v2.
func (s *Service) ReportManual(ctx context.Context, mode Mode, winners, losers []string) error {
	sideSize := mode.Capacity() / 2
	if len(winners) != sideSize || len(losers) != sideSize {
		return ErrInvalidReport
	}
	seen := make(map[string]bool)
	for _, id := range append(append([]string(nil), winners...), losers...) {
		if id == "" || seen[id] {
			return ErrInvalidReport
		}
		seen[id] = true
		if err := s.store.EnsurePlayerExists(ctx, id); err != nil {
			return fmt.Errorf("failed to ensure player %s: %w", id, err)
		}
	}
	return s.applyOutcome(ctx, mode, winners, losers)
}

// ListMatches snapshots every live match for lobby listings.
func (s *Service) ListMatches() []Info {
	var infos []Info
	s.registry.ForEach(func(m *Match) bool {
		m.lock()
		if m.dead {
			m.unlock()
			return true
		}
		info := Info{
			ID:      m.id,
			Mode:    m.mode,
			HostID:  m.hostID,
			Players: append([]string(nil), m.players...),
			Status:  m.status,
		}
		if m.status == StatusCounting && m.cd != nil {
			info.Remaining = int(m.cd.remaining.Load())
		}
		m.unlock()
		infos = append(infos, info)
		return true
	})
	return infos
}

// joinGuards runs the join validation chain. Own-roster membership is checked
// first so the player sees the more specific error. The cross-match check is
// advisory, so a 2v2 join fails here instead of after the team prompt; the
// atomic reserve in enroll stays the authoritative guard.
func (s *Service) joinGuards(m *Match, playerID string) error {
	if m.isMember(playerID) {
		return ErrAlreadyJoined
	}
	if _, enrolled := s.registry.enrolledIn(playerID); enrolled {
		return ErrAlreadyInMatch
	}
	if m.isFull() {
		return ErrMatchFull
	}
	return nil
}

func reportGuards(m *Match, reporterID string) error {
	if !m.isMember(reporterID) {
		return ErrNotAMember
	}
	if m.status == StatusCounting {
		return ErrCountdownInProgress
	}
	if !m.isFull() {
		return ErrMatchNotFull
	}
	return nil
}

// enroll reserves the player globally and appends them to the roster (and
// team, for 2v2). The reservation is atomic with the registry-wide check, so
// a player racing joins into two lobbies lands in exactly one.
func (s *Service) enroll(m *Match, playerID string, team Team) error {
	if err := s.registry.reserve(playerID, m.id); err != nil {
		return err
	}
	m.players = append(m.players, playerID)
	if m.mode == ModeTwoVTwo {
		m.teams[team] = append(m.teams[team], playerID)
		if err := m.checkTeams(); err != nil {
			// Roll back rather than commit a corrupt roster.
			m.removePlayer(playerID)
			s.registry.release(playerID)
			return fmt.Errorf("join rejected, team state invalid: %v", err)
		}
	}
	return nil
}

func (s *Service) maybeStartCountdown(m *Match) {
	if !m.isFull() || m.status != StatusForming {
		return
	}
	s.startCountdown(m)
}

// startCountdown arms the timer. Caller holds the op lock and has verified
// the roster is at capacity.
func (s *Service) startCountdown(m *Match) {
	ctx, cancel := context.WithCancel(context.Background())
	cd := &countdown{cancel: cancel, done: make(chan struct{})}
	cd.remaining.Store(int32(s.countdownFrom))
	m.status = StatusCounting
	m.cd = cd
	go s.runCountdown(ctx, m, cd, m.surface, lobbyText(m))
}

// runCountdown renders each remaining second, then marks the match ready.
// The base text is snapshotted at arm time: the roster cannot change while
// the timer is armed, because every roster-shrinking operation stops the
// timer (and waits for this goroutine) first.
func (s *Service) runCountdown(ctx context.Context, m *Match, cd *countdown, surface Surface, base string) {
	defer close(cd.done)

	for remaining := s.countdownFrom; remaining > 0; remaining-- {
		cd.remaining.Store(int32(remaining))
		s.render(ctx, surface, countingText(base, remaining))
		select {
		case <-ctx.Done():
			return
		case <-s.clk.After(countdownTick):
		}
	}

	// Expired. Take the op lock for the final transition, unless a canceller
	// already holds it, in which case the cancellation wins and we exit.
	select {
	case <-ctx.Done():
		return
	case m.ops <- struct{}{}:
	}
	defer m.unlock()
	if m.dead {
		return
	}

	cd.remaining.Store(0)
	m.status = StatusReady
	s.render(ctx, surface, startedText(lobbyText(m)))
}

// stopCountdown cancels an armed timer and waits for its goroutine to exit,
// so a cancelled timer can never re-render after the match changes shape.
// Reverts counting/ready back to forming. Caller holds the op lock.
func (s *Service) stopCountdown(m *Match) {
	if m.cd != nil {
		m.cd.stop()
		m.cd = nil
	}
	if m.status == StatusCounting || m.status == StatusReady {
		m.status = StatusForming
	}
}

// applyOutcome runs the pairwise rating updates in fixed order. Each pairing
// reads the rating rows as left by the pairings before it, then the win/loss
// counters move once per player.
func (s *Service) applyOutcome(ctx context.Context, mode Mode, winners, losers []string) error {
	for _, w := range winners {
		for _, l := range losers {
			winnerRating, err := s.store.ReadRating(ctx, w, string(mode))
			if err != nil {
				return fmt.Errorf("failed to read rating for %s: %w", w, err)
			}
			loserRating, err := s.store.ReadRating(ctx, l, string(mode))
			if err != nil {
				return fmt.Errorf("failed to read rating for %s: %w", l, err)
			}
			newWinner, newLoser := rating.ComputeUpdate(winnerRating, loserRating)
			if err := s.store.WriteRating(ctx, w, string(mode), newWinner); err != nil {
				return fmt.Errorf("failed to write rating for %s: %w", w, err)
			}
			if err := s.store.WriteRating(ctx, l, string(mode), newLoser); err != nil {
				return fmt.Errorf("failed to write rating for %s: %w", l, err)
			}
		}
	}
	if err := s.store.WriteOutcome(ctx, winners, losers, string(mode)); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// persist writes the full snapshot. A failed write is logged and the
// in-memory transition stands: the next successful write or a restart
// reconverges, which is the documented trade-off for staying responsive
// while the store is down.
func (s *Service) persist(ctx context.Context, m *Match) {
	if err := s.store.PersistMatch(ctx, m.snapshot()); err != nil {
		log.Printf("Failed to persist match %s (memory is ahead of the store until the next write): %v", m.id, err)
	}
}

// destroy purges a match everywhere: registry, durable store and, best
// effort, its rendered surface. Caller holds the op lock and has already
// released the roster reservations.
func (s *Service) destroy(ctx context.Context, m *Match) {
	m.dead = true
	s.clearPrompts(m.id)
	s.registry.Remove(m.id)
	if err := s.store.DeleteMatch(ctx, m.id); err != nil {
		log.Printf("Failed to delete match %s from store: %v", m.id, err)
	}
	if m.surface != nil {
		if err := m.surface.Delete(ctx); err != nil {
			log.Printf("Failed to delete surface for match %s: %v", m.id, err)
		}
	}
}

func (s *Service) render(ctx context.Context, surface Surface, text string) {
	if surface == nil {
		return
	}
	if err := surface.Render(ctx, text); err != nil {
		log.Printf("Failed to render surface %s: %v", surface.Ref().MessageID, err)
	}
}

func (s *Service) armPrompt(matchID, playerID string, kind promptKind) {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	now := s.clk.Now()
	// Sweep anything already expired while we are here.
	for key, expires := range s.prompts {
		if now.After(expires) {
			delete(s.prompts, key)
		}
	}
	s.prompts[promptKey{matchID, playerID, kind}] = now.Add(promptTTL)
}

// clearPrompts drops every pending prompt for a match. Run on destroy so a
// stale prompt can never act on a later match reusing the same id.
func (s *Service) clearPrompts(matchID string) {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	for key := range s.prompts {
		if key.matchID == matchID {
			delete(s.prompts, key)
		}
	}
}

// takePrompt consumes a pending prompt. Returns false when it was never
// armed or has expired; either way the entry is gone afterwards.
func (s *Service) takePrompt(matchID, playerID string, kind promptKind) bool {
	s.promptMu.Lock()
	defer s.promptMu.Unlock()
	key := promptKey{matchID, playerID, kind}
	expires, ok := s.prompts[key]
	if !ok {
		return false
	}
	delete(s.prompts, key)
	return !s.clk.Now().After(expires)
}
