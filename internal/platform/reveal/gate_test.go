package reveal

import (
	"testing"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
)

func TestGateRevealAndClear(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()
	g := NewGate(ch)
	defer g.Close()

	if g.IsUserRevealed("u1") {
		t.Fatal("fresh gate should start fully covered")
	}

	g.RevealUser("u1")
	g.RevealUser("u2")
	g.RevealTeamBonus("t1")

	if !g.IsUserRevealed("u1") || !g.IsUserRevealed("u2") {
		t.Fatal("revealed users not visible")
	}
	if !g.IsTeamBonusRevealed("t1") {
		t.Fatal("revealed team bonus not visible")
	}
	if g.IsTeamBonusRevealed("t2") {
		t.Fatal("unrevealed team bonus should stay covered")
	}

	g.Clear()
	if g.IsUserRevealed("u1") || g.IsTeamBonusRevealed("t1") {
		t.Fatal("Clear should cover everything again")
	}
}

func TestGateSetUsersReplacesWholesale(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()
	g := NewGate(ch)
	defer g.Close()

	g.RevealUser("u1")
	g.RevealUser("u2")
	g.SetUsers([]string{"u2", "u3"})

	if g.IsUserRevealed("u1") {
		t.Fatal("u1 should be covered after SetUsers")
	}
	if !g.IsUserRevealed("u2") || !g.IsUserRevealed("u3") {
		t.Fatal("SetUsers members should be revealed")
	}
}

func TestGateReplicatesAcrossChannel(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()

	a := NewGate(ch)
	defer a.Close()
	b := NewGate(ch)
	defer b.Close()

	a.RevealUser("u1")

	deadline := time.Now().Add(time.Second)
	for !b.IsUserRevealed("u1") {
		if time.Now().After(deadline) {
			t.Fatal("peer gate never applied the broadcast")
		}
		time.Sleep(time.Millisecond)
	}
	if b.Snapshot().Version != a.Snapshot().Version {
		t.Fatalf("versions diverged: %d vs %d", b.Snapshot().Version, a.Snapshot().Version)
	}
}

func TestGateIgnoresStaleState(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()
	g := NewGate(ch)
	defer g.Close()

	g.RevealUser("u1")
	g.RevealUser("u2") // version 2

	g.apply(State{Version: 1, UserIDs: []string{"stale"}})

	if g.IsUserRevealed("stale") || !g.IsUserRevealed("u2") {
		t.Fatal("stale snapshot must not replace newer local state")
	}
}

func TestGateWatchFiresOnReplicatedChange(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()

	a := NewGate(ch)
	defer a.Close()
	b := NewGate(ch)
	defer b.Close()

	got := make(chan State, 4)
	b.Watch(func(st State) { got <- st })

	a.RevealUser("u1")

	select {
	case st := <-got:
		if len(st.UserIDs) != 1 || st.UserIDs[0] != "u1" {
			t.Fatalf("unexpected replicated state: %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("replica watcher never fired")
	}
}

func TestGateWatchFiresOnChange(t *testing.T) {
	ch := broadcast.NewChannel()
	defer ch.Close()
	g := NewGate(ch)
	defer g.Close()

	got := make(chan State, 4)
	g.Watch(func(st State) { got <- st })

	g.RevealUser("u1")

	select {
	case st := <-got:
		if st.Version == 0 || len(st.UserIDs) != 1 {
			t.Fatalf("unexpected state: %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher never fired")
	}
}
