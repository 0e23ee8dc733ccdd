package match

import "sync"

// Registry is the process-wide authoritative map of live matches. Alongside
// the match map it keeps a player -> match index so the global
// one-match-per-player rule can be checked and reserved in a single step.
//
// The registry mutex only guards the two maps; per-match serialization is the
// job of each match's own op lock, so operations on unrelated matches never
// contend here beyond a map access.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*Match
	players map[string]string // player id -> match id
}

func NewRegistry() *Registry {
	return &Registry{
		matches: make(map[string]*Match),
		players: make(map[string]string),
	}
}

// Create registers a new forming match keyed by the host's id with the host
// already enrolled. The host check and the enrollment are one atomic step.
func (r *Registry) Create(hostID string, mode Mode) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[hostID]; exists {
		return nil, ErrHostAlreadyHosting
	}
	if _, exists := r.players[hostID]; exists {
		return nil, ErrAlreadyInMatch
	}
	m := newMatch(hostID, mode)
	r.matches[hostID] = m
	r.players[hostID] = hostID
	return m, nil
}

func (r *Registry) Get(matchID string) (*Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[matchID]
	return m, ok
}

// Remove deletes a match from the map. Player reservations are released
// separately as players leave or the match resolves.
func (r *Registry) Remove(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, matchID)
}

// ForEach calls fn for every live match until fn returns false. The snapshot
// is taken under the read lock; fn runs without it so it may take match op
// locks freely.
func (r *Registry) ForEach(fn func(*Match) bool) {
	r.mu.RLock()
	all := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		all = append(all, m)
	}
	r.mu.RUnlock()

	for _, m := range all {
		if !fn(m) {
			return
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// reserve atomically checks that the player is in no match anywhere and
// enrolls them in the given one. This is the guard against the same player
// racing joins into two lobbies.
func (r *Registry) reserve(playerID, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.players[playerID]; exists {
		return ErrAlreadyInMatch
	}
	r.players[playerID] = matchID
	return nil
}

// enrolledIn reports which match, if any, currently holds the player.
func (r *Registry) enrolledIn(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matchID, ok := r.players[playerID]
	return matchID, ok
}

func (r *Registry) release(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, playerID)
}

// attach inserts a reconstructed match and reserves its whole roster. Used
// only by reconciliation; fails without side effects if any roster player is
// already enrolled elsewhere.
func (r *Registry) attach(m *Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.id]; exists {
		return ErrHostAlreadyHosting
	}
	for _, p := range m.players {
		if _, exists := r.players[p]; exists {
			return ErrAlreadyInMatch
		}
	}
	r.matches[m.id] = m
	for _, p := range m.players {
		r.players[p] = m.id
	}
	return nil
}
