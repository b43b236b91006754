package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReminderDispatcher drains the reminder outbox: due PENDING/FAILED rows are
// claimed with SKIP LOCKED and published to the push topic. Stale PROCESSING
// rows (a dispatcher crashed mid-batch) are reclaimed after LockTimeout.
type ReminderDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration

	// Deliver overrides publishing when set. Local/dev environments without
	// Pub/Sub run the push workflow in-process instead (REMINDER_DIRECT_PROCESSING).
	Deliver func(ctx context.Context, msg config.PushMessage, messageId string) error
}

func NewReminderDispatcher(db *gorm.DB, logger *logrus.Logger) *ReminderDispatcher {
	return &ReminderDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PollInterval:   time.Second,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
	}
}

func (d *ReminderDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *ReminderDispatcher) dispatchOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)
	db := d.DB
	if db == nil {
		return
	}

	var claimed []models.ReminderRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED, past due and ready to retry
		// - PROCESSING but lock is stale, reclaim after LockTimeout
		q := tx.
			Where("due_at <= ?", now).
			Where(`
				(
					status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.ReminderStatusPending, models.ReminderStatusFailed}, now, models.ReminderStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		for i := range claimed {
			// Enforce max attempts: poison reminders go terminal (DLQ equivalent).
			if d.MaxAttempts > 0 && claimed[i].Attempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].Status = models.ReminderStatusDead
				if err := tx.Model(&models.ReminderRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"status":          models.ReminderStatusDead,
					"last_error":      &msg,
					"next_attempt_at": nil,
					"locked_at":       nil,
					"locked_by":       nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			// Claim for publishing.
			claimed[i].Status = models.ReminderStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].Attempts = claimed[i].Attempts + 1
			claimed[i].LastError = nil
			if err := tx.Model(&models.ReminderRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"status":          claimed[i].Status,
				"locked_at":       claimed[i].LockedAt,
				"locked_by":       claimed[i].LockedBy,
				"attempts":        gorm.Expr("attempts + 1"),
				"last_error":      nil,
				"next_attempt_at": nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, rec := range claimed {
		// Skip terminal rows that were marked DEAD in the claim transaction.
		if rec.Status == models.ReminderStatusDead {
			continue
		}
		msg := config.PushMessage{
			ID:            rec.ID,
			CompanyId:     rec.CompanyId,
			EmployeeId:    rec.EmployeeId,
			Type:          rec.Type,
			ScheduledFor:  rec.DueAt,
			CorrelationId: rec.CorrelationId,
		}
		if d.Deliver != nil {
			if delErr := d.Deliver(ctx, msg, fmt.Sprintf("direct-%d-%d", rec.ID, rec.Attempts)); delErr != nil {
				d.markPublishFailed(ctx, rec.ID, rec.CompanyId, delErr, rec.Attempts)
				continue
			}
		} else if _, pubErr := config.PublishDeviceNotificationWithResult(ctx, rec.CompanyId, msg); pubErr != nil {
			d.markPublishFailed(ctx, rec.ID, rec.CompanyId, pubErr, rec.Attempts)
			continue
		}
		d.markPublishSent(ctx, rec.ID, now)
	}
}

func (d *ReminderDispatcher) markPublishSent(ctx context.Context, recordID int, now time.Time) {
	db := d.DB.WithContext(ctx)
	_ = db.Model(&models.ReminderRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"status":          models.ReminderStatusSent,
			"sent_at":         &now,
			"locked_at":       nil,
			"locked_by":       nil,
			"next_attempt_at": nil,
		}).Error
}

func (d *ReminderDispatcher) markPublishFailed(ctx context.Context, recordID int, companyID string, err error, attempt int) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	msg := err.Error()

	// Terminal after MaxAttempts (DLQ equivalent).
	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.ReminderRecord{}).
			Where("id = ?", recordID).
			Updates(map[string]interface{}{
				"status":          models.ReminderStatusDead,
				"last_error":      &msg,
				"next_attempt_at": nil,
				"locked_at":       nil,
				"locked_by":       nil,
			}).Error

		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":      "ReminderDispatcher",
				"company_id": companyID,
				"record_id":  recordID,
				"attempt":    attempt,
			}).Error("reminder publish moved to DEAD after max attempts: " + fmt.Sprintf("%v", err))
		}
		return
	}

	backoff := BackoffForAttempt(d.InitialBackoff, attempt)
	next := now.Add(backoff)
	_ = db.Model(&models.ReminderRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"status":          models.ReminderStatusFailed,
			"last_error":      &msg,
			"next_attempt_at": &next,
			"locked_at":       nil,
			"locked_by":       nil,
		}).Error

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":           "ReminderDispatcher",
			"company_id":      companyID,
			"record_id":       recordID,
			"attempt":         attempt,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("reminder publish failed: " + fmt.Sprintf("%v", err))
	}
}

// BackoffForAttempt doubles the initial backoff per attempt, capped at 10m.
func BackoffForAttempt(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > time.Minute*10 {
			return time.Minute * 10
		}
	}
	return backoff
}
