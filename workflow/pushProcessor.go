package workflow

import (
	"context"
	"errors"
	"strconv"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessMessage handles one push-contract message from the Pub/Sub push
// endpoint. Processing is serialized per company via a MySQL advisory lock
// and deduplicated with a DB-backed idempotency key, so redelivery is safe.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.PushMessage, messageId string) error {
	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireCompanyLock(tx.WithContext(ctx), m.CompanyId); err != nil {
			return err
		}
		defer ReleaseCompanyLock(tx.WithContext(ctx), m.CompanyId)

		handlerName := m.Type
		if messageId == "" {
			messageId = strconv.Itoa(m.ID)
		}

		skip, err := BeginIdempotency(tx.WithContext(ctx), m.CompanyId, handlerName, messageId)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		if err := processPush(tx.WithContext(ctx), logger, m); err != nil {
			_ = MarkIdempotencyFailed(tx.WithContext(ctx), m.CompanyId, handlerName, messageId, err)
			return err
		}
		return MarkIdempotencySucceeded(tx.WithContext(ctx), m.CompanyId, handlerName, messageId)
	})
}

func processPush(tx *gorm.DB, logger *logrus.Logger, m config.PushMessage) error {
	switch m.Type {
	case config.PushTypeForceCheckout:
		_, err := models.ForceCheckOutTx(tx, m.CompanyId, m.EmployeeId)
		if errors.Is(err, models.ErrNoActiveCheckIn) {
			// session already closed elsewhere; ack
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"field":       "processPush",
					"company_id":  m.CompanyId,
					"employee_id": m.EmployeeId,
				}).Info("force_checkout skipped: no open session")
			}
			return nil
		}
		return err

	case config.PushTypeCheckInReminder, config.PushTypeCheckOutReminder:
		return publishDeviceReminder(tx.Statement.Context, m)

	default:
		// Unknown types are acked, never retried.
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"field":      "processPush",
				"company_id": m.CompanyId,
				"type":       m.Type,
			}).Warn("unknown push message type acked")
		}
		return nil
	}
}

// publishDeviceReminder fans the reminder out to the device push topic with
// localized text filled in when the producer left it empty.
func publishDeviceReminder(ctx context.Context, m config.PushMessage) error {
	if m.TitleEn == "" {
		m.TitleEn, m.TitleAr, m.BodyEn, m.BodyAr = reminderText(m.Type)
	}
	_, err := config.PublishToDeviceTopic(ctx, m.CompanyId, m)
	return err
}

func reminderText(pushType string) (titleEn, titleAr, bodyEn, bodyAr string) {
	switch pushType {
	case config.PushTypeCheckInReminder:
		return "Check-in reminder", "تذكير تسجيل الحضور",
			"Your shift is starting. Don't forget to check in.",
			"وردية عملك على وشك البدء. لا تنسَ تسجيل الحضور."
	case config.PushTypeCheckOutReminder:
		return "Check-out reminder", "تذكير تسجيل الانصراف",
			"Your shift has ended. Are you still working?",
			"انتهت وردية عملك. هل ما زلت تعمل؟"
	default:
		return "", "", "", ""
	}
}
