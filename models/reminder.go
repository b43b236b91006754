package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

// Reminder statuses for ReminderRecord.Status.
// Keep these as strings (DB values).
const (
	ReminderStatusPending    = "PENDING"
	ReminderStatusProcessing = "PROCESSING"
	ReminderStatusSent       = "SENT"
	ReminderStatusFailed     = "FAILED"
	ReminderStatusDead       = "DEAD"
)

// ReminderRecord is the durable outbox behind every scheduled notification.
// Rows become eligible at due_at and are claimed by the reminder dispatcher
// with SKIP LOCKED, so multiple instances never double-send.
type ReminderRecord struct {
	ID            int        `gorm:"primary_key" json:"id"`
	CompanyId     string     `gorm:"index;not null" json:"company_id"`
	EmployeeId    int        `gorm:"index;not null" json:"employee_id"`
	Type          string     `gorm:"size:50;not null" json:"type"`
	DueAt         time.Time  `gorm:"not null;index" json:"due_at"`
	Status        string     `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at"`
	LastError     *string    `gorm:"type:text" json:"last_error"`
	LockedAt      *time.Time `json:"locked_at"`
	LockedBy      *string    `gorm:"size:100" json:"locked_by"`
	SentAt        *time.Time `json:"sent_at"`
	CorrelationId string     `gorm:"size:100" json:"correlation_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RescheduleCheckOutReminder supersedes the employee's pending checkout
// reminder with a new one due after the given delay ("still working" action).
func RescheduleCheckOutReminder(ctx context.Context, delay time.Duration) (*ReminderRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}

	// the still-working action only makes sense during an open session
	open, err := GetOpenAttendance(ctx, employeeId)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoActiveCheckIn
	}

	db := config.GetDB()
	tx := db.Begin()

	// supersede any pending checkout reminders for this employee
	err = tx.WithContext(ctx).Model(&ReminderRecord{}).
		Where("company_id = ? AND employee_id = ? AND type = ? AND status = ?",
			companyId, employeeId, config.PushTypeCheckOutReminder, ReminderStatusPending).
		Update("status", ReminderStatusDead).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	record := ReminderRecord{
		CompanyId:     companyId,
		EmployeeId:    employeeId,
		Type:          config.PushTypeCheckOutReminder,
		DueAt:         time.Now().UTC().Add(delay),
		Status:        ReminderStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return &record, tx.Commit().Error
}

func GetReminders(ctx context.Context, employeeId *int, status *string) ([]*ReminderRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*ReminderRecord
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if employeeId != nil && *employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", employeeId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if err := dbCtx.Order("due_at DESC").Limit(200).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
