package models

import (
	"testing"
	"time"
)

func TestShiftWindowSameDay(t *testing.T) {
	shift := &ShiftConfig{StartHour: 9, StartMinute: 0, EndHour: 17, EndMinute: 30, AutoCloseAfterH: 4}
	day := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

	start := shift.StartOfShift(day)
	if start.Hour() != 9 || start.Minute() != 0 || start.Day() != 10 {
		t.Fatalf("unexpected start of shift: %v", start)
	}

	end := shift.EndOfShift(day)
	if end.Hour() != 17 || end.Minute() != 30 || end.Day() != 10 {
		t.Fatalf("unexpected end of shift: %v", end)
	}

	cutoff := shift.AutoCloseCutoff(day)
	want := end.Add(4 * time.Hour)
	if !cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", cutoff, want)
	}
}

func TestShiftWindowOvernight(t *testing.T) {
	// 22:00 -> 06:00 crosses midnight; the end must land on the next day.
	shift := &ShiftConfig{StartHour: 22, StartMinute: 0, EndHour: 6, EndMinute: 0, AutoCloseAfterH: 2}
	day := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	end := shift.EndOfShift(day)
	if end.Day() != 11 || end.Hour() != 6 {
		t.Fatalf("overnight end of shift = %v, want next day 06:00", end)
	}
	if !end.After(shift.StartOfShift(day)) {
		t.Fatalf("end of shift %v not after start %v", end, shift.StartOfShift(day))
	}

	cutoff := shift.AutoCloseCutoff(day)
	if cutoff.Day() != 11 || cutoff.Hour() != 8 {
		t.Fatalf("overnight cutoff = %v, want next day 08:00", cutoff)
	}
}

func TestShiftWindowZeroLengthTreatedAsOvernight(t *testing.T) {
	// equal start/end rolls the end to the next day rather than producing an
	// empty window
	shift := &ShiftConfig{StartHour: 8, StartMinute: 0, EndHour: 8, EndMinute: 0}
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	end := shift.EndOfShift(day)
	if end.Day() != 11 {
		t.Fatalf("end of shift = %v, want next day", end)
	}
}

func TestShiftWindowKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		t.Skip("tzdata not available")
	}
	shift := &ShiftConfig{StartHour: 9, EndHour: 17}
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)

	if got := shift.EndOfShift(day).Location(); got != loc {
		t.Fatalf("end of shift location = %v, want %v", got, loc)
	}
}
