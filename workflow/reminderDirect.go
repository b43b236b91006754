package workflow

import (
	"context"
	"os"
	"strings"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"github.com/sirupsen/logrus"
)

// ShouldRunDirectReminderProcessing reports whether due reminders should be
// executed in-process instead of being published to Pub/Sub. Intended for
// local/dev environments where no push topic is configured.
func ShouldRunDirectReminderProcessing() bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv("REMINDER_DIRECT_PROCESSING")))
	switch val {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// DirectDeliver runs the push workflow for a reminder without going through
// Pub/Sub. The message carries the same system actor identity the push
// endpoint would set.
func DirectDeliver(logger *logrus.Logger) func(ctx context.Context, msg config.PushMessage, messageId string) error {
	return func(ctx context.Context, msg config.PushMessage, messageId string) error {
		ctx = utils.SetCompanyIdInContext(ctx, msg.CompanyId)
		ctx = utils.SetEmployeeIdInContext(ctx, 0)
		ctx = utils.SetEmployeeNameInContext(ctx, "System")
		return ProcessMessage(ctx, logger, msg, messageId)
	}
}
