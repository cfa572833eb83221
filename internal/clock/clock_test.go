package clock

import (
	"testing"
	"time"
)

func TestMonotonicNeverGoesBackwards(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFakeClock(start)
	mono := NewMonotonic(fake)

	if got := mono.Now(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}

	fake.Set(start.Add(-time.Hour))
	if got := mono.Now(); !got.Equal(start) {
		t.Fatalf("expected clock to hold at %v after skew, got %v", start, got)
	}

	fake.Set(start.Add(time.Minute))
	if got := mono.Now(); !got.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected clock to advance, got %v", got)
	}
}

func TestSystemIsUTCSeconds(t *testing.T) {
	now := System{}.Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
	if now.Nanosecond() != 0 {
		t.Fatalf("expected second precision, got %d ns", now.Nanosecond())
	}
}

func TestFakeClockAdvance(t *testing.T) {
	c := NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Advance(90 * time.Second)
	if got := c.Now(); got.Minute() != 1 || got.Second() != 30 {
		t.Fatalf("unexpected time after advance: %v", got)
	}
}
