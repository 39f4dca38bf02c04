package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPresenceTouchAssertsOnline(t *testing.T) {
	p := NewPresenceTracker(30 * time.Second)
	alice := uuid.New()

	if got := p.Online(time.Now()); len(got) != 0 {
		t.Fatalf("unknown users reported online: %v", got)
	}

	p.Touch(alice)
	got := p.Online(time.Now())
	if len(got) != 1 || got[0] != alice {
		t.Fatalf("touched user not online: %v", got)
	}
}

func TestPresenceStaleExcludedBeforeSweep(t *testing.T) {
	p := NewPresenceTracker(30 * time.Second)
	alice := uuid.New()
	p.Touch(alice)

	// No sweep has run, but a read past the window must not report online.
	future := time.Now().Add(31 * time.Second)
	if got := p.Online(future); len(got) != 0 {
		t.Fatalf("stale user reported online between sweeps: %v", got)
	}
	if !p.IsStale(alice, future) {
		t.Error("IsStale false past the window")
	}
}

func TestPresenceSweepFlipsOnlyStale(t *testing.T) {
	p := NewPresenceTracker(30 * time.Second)
	stale := uuid.New()
	fresh := uuid.New()

	p.Touch(stale)
	time.Sleep(5 * time.Millisecond)
	p.Touch(fresh)

	cutoff, ok := p.LastSeen(stale)
	if !ok {
		t.Fatal("stale user unknown to tracker")
	}
	// Just past stale's window but inside fresh's.
	now := cutoff.Add(30*time.Second + time.Millisecond)

	flipped := p.SweepStale(now)
	if len(flipped) != 1 || flipped[0] != stale {
		t.Fatalf("sweep flipped %v, want only %s", flipped, stale)
	}
	if got := p.Online(now); len(got) != 1 || got[0] != fresh {
		t.Fatalf("fresh user lost in sweep: %v", got)
	}

	// A second sweep has nothing left to flip.
	if again := p.SweepStale(now); len(again) != 0 {
		t.Fatalf("sweep not idempotent: %v", again)
	}
}

func TestPresenceSurvivesReconnect(t *testing.T) {
	p := NewPresenceTracker(30 * time.Second)
	alice := uuid.New()

	p.Connect(alice)
	p.Connect(alice)
	p.Disconnect(alice)
	if got := p.Online(time.Now()); len(got) != 1 {
		t.Fatalf("user offline with a session still open: %v", got)
	}

	p.Disconnect(alice)
	if got := p.Online(time.Now()); len(got) != 0 {
		t.Fatalf("user online with no sessions: %v", got)
	}

	p.Connect(alice)
	if got := p.Online(time.Now()); len(got) != 1 {
		t.Fatalf("reconnect did not restore presence: %v", got)
	}
}

func TestPresenceTouchRevivesSweptUser(t *testing.T) {
	p := NewPresenceTracker(30 * time.Second)
	alice := uuid.New()

	p.Touch(alice)
	last, _ := p.LastSeen(alice)
	p.SweepStale(last.Add(31 * time.Second))

	p.Touch(alice)
	if got := p.Online(time.Now()); len(got) != 1 {
		t.Fatalf("activity after sweep did not revive presence: %v", got)
	}
}
