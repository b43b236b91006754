package workflow

import (
	"testing"

	"github.com/hudoorhq/hudoor_backend/config"
)

func TestReminderText(t *testing.T) {
	titleEn, titleAr, bodyEn, bodyAr := reminderText(config.PushTypeCheckInReminder)
	if titleEn == "" || titleAr == "" || bodyEn == "" || bodyAr == "" {
		t.Fatal("check_in_reminder text must be filled in both languages")
	}

	outEn, outAr, _, _ := reminderText(config.PushTypeCheckOutReminder)
	if outEn == "" || outAr == "" {
		t.Fatal("check_out_reminder text must be filled in both languages")
	}
	if outEn == titleEn {
		t.Fatal("check-in and check-out reminders should not share a title")
	}

	// force_checkout is a silent command, not a user-facing notification
	if en, _, _, _ := reminderText(config.PushTypeForceCheckout); en != "" {
		t.Fatalf("force_checkout should have no reminder text, got %q", en)
	}
}
