package models

import (
	"testing"
	"time"
)

func TestAttendanceIdempotencyKey(t *testing.T) {
	at := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	got := AttendanceIdempotencyKey(42, at)
	want := "42_1768465800"
	if got != want {
		t.Fatalf("AttendanceIdempotencyKey = %q, want %q", got, want)
	}

	// nanoseconds must not change the key: same second, same key
	if AttendanceIdempotencyKey(42, at.Add(500*time.Millisecond)) != want {
		t.Fatal("key should be stable within the same second")
	}
}

func TestSessionDuration(t *testing.T) {
	checkIn := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	if got := sessionDuration(checkIn, checkIn.Add(8*time.Hour+30*time.Minute)); got != 30600 {
		t.Fatalf("sessionDuration = %d, want 30600", got)
	}
	if got := sessionDuration(checkIn, checkIn); got != 0 {
		t.Fatalf("zero-length session duration = %d, want 0", got)
	}
	// a checkout stamped before the check-in clamps instead of going negative
	if got := sessionDuration(checkIn, checkIn.Add(-time.Minute)); got != 0 {
		t.Fatalf("backwards session duration = %d, want 0", got)
	}
}

func TestFormatCoordinates(t *testing.T) {
	got := FormatCoordinates(24.7136, 46.6753)
	if got != "24.7136,46.6753" {
		t.Fatalf("FormatCoordinates = %q", got)
	}
	if FormatCoordinates(0, 0) != "0,0" {
		t.Fatalf("FormatCoordinates(0,0) = %q", FormatCoordinates(0, 0))
	}
}

func TestLocationSampleStale(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	fresh := &LocationSample{RecordedAt: now.Add(-9 * time.Minute)}
	if fresh.Stale(now) {
		t.Fatal("sample 9m old should not be stale")
	}

	atBoundary := &LocationSample{RecordedAt: now.Add(-sampleTTL)}
	if atBoundary.Stale(now) {
		t.Fatal("sample exactly at the TTL should not be stale")
	}

	old := &LocationSample{RecordedAt: now.Add(-sampleTTL - time.Second)}
	if !old.Stale(now) {
		t.Fatal("sample past the TTL should be stale")
	}
}
