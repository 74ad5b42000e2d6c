package infra

import (
	"testing"
	"time"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(2, 0.001) // negligible refill within the test

	if !rl.TryAcquire() {
		t.Fatalf("First acquire must succeed")
	}
	if !rl.TryAcquire() {
		t.Fatalf("Second acquire must succeed")
	}
	if rl.TryAcquire() {
		t.Fatalf("Third acquire must fail with exhausted burst")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(1, 50) // one token every 20ms

	if !rl.TryAcquire() {
		t.Fatalf("First acquire must succeed")
	}
	if rl.TryAcquire() {
		t.Fatalf("Immediate second acquire must fail")
	}

	time.Sleep(50 * time.Millisecond)
	if !rl.TryAcquire() {
		t.Fatalf("Acquire after refill window must succeed")
	}
}
