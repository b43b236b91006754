package models

import (
	"testing"
	"time"
)

func TestLeaveDays(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		start, end time.Time
		want       int
	}{
		{day(1), day(1), 1},  // single day
		{day(1), day(5), 5},  // inclusive range
		{day(28), day(30), 3},
	}
	for _, tc := range tests {
		if got := leaveDays(tc.start, tc.end); got != tc.want {
			t.Errorf("leaveDays(%v, %v) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestNewLeaveRequestValidate(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	ok := &NewLeaveRequest{Type: LeaveTypeAnnual, StartDate: start, EndDate: start.AddDate(0, 0, 2)}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	badType := &NewLeaveRequest{Type: LeaveType("vacation"), StartDate: start, EndDate: start}
	if err := badType.validate(); err == nil {
		t.Fatal("unknown leave type accepted")
	}

	reversed := &NewLeaveRequest{Type: LeaveTypeSick, StartDate: start, EndDate: start.AddDate(0, 0, -1)}
	if err := reversed.validate(); err == nil {
		t.Fatal("end date before start date accepted")
	}
}

func TestLeaveTypeDeductible(t *testing.T) {
	for _, typ := range []LeaveType{LeaveTypeAnnual, LeaveTypeSick, LeaveTypeEmergency} {
		if !typ.Deductible() {
			t.Errorf("%s should be deductible", typ)
		}
	}
	if LeaveTypeUnpaid.Deductible() {
		t.Error("unpaid leave should not be deductible")
	}
}

func TestLeaveBalanceRemaining(t *testing.T) {
	b := &LeaveBalance{TotalDays: 21, UsedDays: 8}
	if got := b.Remaining(); got != 13 {
		t.Fatalf("Remaining = %d, want 13", got)
	}

	// over-consumed balances go negative rather than clamping, the caller
	// compares against requested days
	b = &LeaveBalance{TotalDays: 5, UsedDays: 7}
	if got := b.Remaining(); got != -2 {
		t.Fatalf("Remaining = %d, want -2", got)
	}
}

func TestEmployeeRoleValid(t *testing.T) {
	for _, r := range []EmployeeRole{EmployeeRoleAdmin, EmployeeRoleSupervisor, EmployeeRoleStaff} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if EmployeeRole("manager").Valid() {
		t.Error("unknown role accepted")
	}
}
