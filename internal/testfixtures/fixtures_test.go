package testfixtures

import (
	"testing"
	"time"
)

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}

	if zeroed := NewClock(time.Time{}); !zeroed.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime default, got %v", zeroed.Now())
	}
}

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("cal")
	if got := gen.Next(); got != "cal-1" {
		t.Fatalf("expected cal-1, got %q", got)
	}
	if got := gen.NextFunc()(); got != "cal-2" {
		t.Fatalf("expected cal-2, got %q", got)
	}
}

func TestFixturesAreDistinct(t *testing.T) {
	a := NewUser()
	b := NewUser()
	if a.ID == b.ID || a.Email == b.Email {
		t.Fatal("expected distinct user fixtures")
	}

	first := NewInvite()
	second := NewInvite()
	if first.Token == second.Token {
		t.Fatal("expected distinct invite tokens")
	}
	if !first.ExpiresAt.Equal(first.CreatedAt.Add(7 * 24 * time.Hour)) {
		t.Fatalf("expected 7 day expiry, got %v", first.ExpiresAt)
	}
}
