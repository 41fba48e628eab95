// Package reveal tracks which leaderboard rows the referee has uncovered.
// The gate is replicated state: every process (or browser context) holds a
// full copy, mutations bump a monotonic version and broadcast the whole
// snapshot, and receivers replace their copy only when the incoming version
// is newer. Last write wins; a missed broadcast is repaired by the next one.
package reveal

import (
	"sync"

	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
)

const messageType = "reveal.state"

// State is the full gate snapshot carried in every broadcast.
type State struct {
	Version      uint64   `json:"version"`
	UserIDs      []string `json:"userIds"`
	BonusTeamIDs []string `json:"bonusTeamIds"`
}

// Gate is safe for concurrent use.
type Gate struct {
	mu       sync.RWMutex
	version  uint64
	users    map[string]struct{}
	bonuses  map[string]struct{}
	channel  *broadcast.Channel
	cancel   func()
	watchers []func(State)
}

// NewGate attaches a gate to ch and starts applying remote snapshots.
// Applying a received snapshot never re-broadcasts it.
func NewGate(ch *broadcast.Channel) *Gate {
	g := &Gate{
		users:   make(map[string]struct{}),
		bonuses: make(map[string]struct{}),
		channel: ch,
	}
	sub, cancel := ch.Subscribe(16)
	g.cancel = cancel
	go g.receive(sub)
	return g
}

func (g *Gate) receive(sub <-chan broadcast.Message) {
	for msg := range sub {
		if msg.Type != messageType {
			continue
		}
		var st State
		if err := msg.Decode(&st); err != nil {
			continue
		}
		g.apply(st)
	}
}

// apply replaces local state when the incoming version is strictly newer.
func (g *Gate) apply(st State) {
	g.mu.Lock()
	if st.Version <= g.version {
		g.mu.Unlock()
		return
	}
	g.version = st.Version
	g.users = toSet(st.UserIDs)
	g.bonuses = toSet(st.BonusTeamIDs)
	watchers := append([]func(State){}, g.watchers...)
	snap := g.snapshotLocked()
	g.mu.Unlock()

	for _, w := range watchers {
		w(snap)
	}
}

// RevealUser marks a member's row as uncovered and broadcasts the new state.
func (g *Gate) RevealUser(userID string) {
	g.mutate(func() {
		g.users[userID] = struct{}{}
	})
}

// RevealTeamBonus marks a team's bonus row as uncovered.
func (g *Gate) RevealTeamBonus(teamID string) {
	g.mutate(func() {
		g.bonuses[teamID] = struct{}{}
	})
}

// SetUsers replaces the revealed-user set wholesale, covering rows again
// when the referee steps backwards.
func (g *Gate) SetUsers(userIDs []string) {
	g.mutate(func() {
		g.users = toSet(userIDs)
	})
}

// Clear covers every row again.
func (g *Gate) Clear() {
	g.mutate(func() {
		g.users = make(map[string]struct{})
		g.bonuses = make(map[string]struct{})
	})
}

func (g *Gate) mutate(fn func()) {
	g.mu.Lock()
	fn()
	g.version++
	snap := g.snapshotLocked()
	watchers := append([]func(State){}, g.watchers...)
	g.mu.Unlock()

	if msg, err := broadcast.NewMessage(messageType, snap); err == nil {
		g.channel.Publish(msg)
	}
	for _, w := range watchers {
		w(snap)
	}
}

// IsUserRevealed reports whether a member's scores may be shown.
func (g *Gate) IsUserRevealed(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.users[userID]
	return ok
}

// IsTeamBonusRevealed reports whether a team's bonus points may be shown.
func (g *Gate) IsTeamBonusRevealed(teamID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.bonuses[teamID]
	return ok
}

// Snapshot returns the current state.
func (g *Gate) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() State {
	return State{
		Version:      g.version,
		UserIDs:      fromSet(g.users),
		BonusTeamIDs: fromSet(g.bonuses),
	}
}

// Watch registers fn to run after every state change, local or remote.
// Callbacks run outside the gate's lock.
func (g *Gate) Watch(fn func(State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watchers = append(g.watchers, fn)
}

// Close detaches the gate from its broadcast channel.
func (g *Gate) Close() {
	if g.cancel != nil {
		g.cancel()
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
