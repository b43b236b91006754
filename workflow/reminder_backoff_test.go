package workflow

import (
	"testing"
	"time"
)

func TestBackoffForAttempt(t *testing.T) {
	initial := 5 * time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
		{5, 80 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute}, // 640s exceeds the cap
		{20, 10 * time.Minute},
	}
	for _, tc := range tests {
		if got := BackoffForAttempt(initial, tc.attempt); got != tc.want {
			t.Errorf("BackoffForAttempt(%v, %d) = %v, want %v", initial, tc.attempt, got, tc.want)
		}
	}
}

func TestBackoffForAttemptZeroAndNegative(t *testing.T) {
	initial := 5 * time.Second
	// attempts <= 1 all get the initial backoff
	for _, attempt := range []int{0, -1, 1} {
		if got := BackoffForAttempt(initial, attempt); got != initial {
			t.Errorf("BackoffForAttempt(%v, %d) = %v, want %v", initial, attempt, got, initial)
		}
	}
}
