package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

const moduleSecurityAlert = "SecurityAlert"

// SecurityAlert rows are append-only; nothing ever updates or deletes them.
type SecurityAlert struct {
	ID         int               `gorm:"primary_key" json:"id"`
	CompanyId  string            `gorm:"index;not null" json:"company_id"`
	EmployeeId int               `gorm:"index;not null" json:"employee_id"`
	Type       SecurityAlertType `gorm:"size:50;not null;index" json:"type"`
	DeviceId   string            `gorm:"size:100" json:"device_id"`
	Lat        *float64          `json:"lat"`
	Lng        *float64          `json:"lng"`
	IpAddress  string            `gorm:"size:50" json:"ip_address"`
	Detail     string            `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// raiseSecurityAlert is best-effort: a failed alert write is logged, never
// propagated to the guarded operation.
func raiseSecurityAlert(ctx context.Context, alert *SecurityAlert) {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(alert).Error; err != nil {
		config.LogError(config.GetLogger(), moduleSecurityAlert, "raiseSecurityAlert", "alert write failed", alert.EmployeeId, err)
	}
}

func GetSecurityAlerts(ctx context.Context, employeeId *int, from, to *time.Time) ([]*SecurityAlert, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*SecurityAlert
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if employeeId != nil && *employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", employeeId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("created_at >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("created_at <= ?", to)
	}
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
