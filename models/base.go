package models

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

// ScheduleReminder implements a transactional outbox for scheduled
// notifications: the record is written inside the caller's DB transaction but
// nothing is published to Pub/Sub here. Publishing happens asynchronously in
// the reminder dispatcher after commit.
func ScheduleReminder(ctx context.Context, tx *gorm.DB, companyId string, employeeId int, reminderType string, dueAt time.Time) error {

	record := ReminderRecord{
		CompanyId:     companyId,
		EmployeeId:    employeeId,
		Type:          reminderType,
		DueAt:         dueAt,
		Status:        ReminderStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// FormatCoordinates degrades a missing place name to raw "lat,lng" text.
func FormatCoordinates(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
