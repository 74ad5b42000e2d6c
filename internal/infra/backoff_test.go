package infra

import (
	"testing"
	"time"
)

func TestBackoff_DoublesAndCaps(t *testing.T) {
	b := NewBackoff(30*time.Second, 600*time.Second)

	want := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		480 * time.Second,
		600 * time.Second, // capped
		600 * time.Second, // still capped
	}

	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() call %d = %s, want %s", i, got, w)
		}
	}
}

func TestBackoff_ResetReturnsToBase(t *testing.T) {
	b := NewBackoff(30*time.Second, 600*time.Second)

	for i := 0; i < 5; i++ {
		b.Next()
	}
	b.Reset()

	if got := b.Next(); got != 30*time.Second {
		t.Errorf("Next() after Reset = %s, want 30s", got)
	}
}

func TestBackoff_NoShiftOverflow(t *testing.T) {
	b := NewBackoff(time.Second, 60*time.Second)
	b.failures = 100
	if got := b.Next(); got != 60*time.Second {
		t.Errorf("Next() with huge failure count = %s, want 60s", got)
	}
}
