package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

// AuditLog is the append-only change trail. Rows are written inside the
// mutating transaction and never touched afterwards.
type AuditLog struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CompanyId     string    `gorm:"index;not null" json:"company_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type" binding:"required"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:255" json:"reference_type"`
	EmployeeId    int       `gorm:"index" json:"employee_id"`
	EmployeeName  string    `gorm:"size:100" json:"employee_name"`
	DeviceId      string    `gorm:"size:100" json:"device_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func createAuditLog(tx *gorm.DB,
	actionType string,
	referenceId int,
	referenceType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var audit AuditLog

	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)

	ctx := tx.Statement.Context
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return errors.New("company id is required")
	}
	// system actors (workers, jobs) have no employee on the context
	employeeId, _ := utils.GetEmployeeIdFromContext(ctx)
	employeeName, _ := utils.GetEmployeeNameFromContext(ctx)
	deviceId, _ := utils.GetDeviceIdFromContext(ctx)

	audit.CompanyId = companyId
	audit.ActionType = actionType
	audit.Before = string(b)
	audit.After = string(a)
	audit.Description = description
	audit.ReferenceID = referenceId
	audit.ReferenceType = referenceType
	audit.EmployeeId = employeeId
	audit.EmployeeName = employeeName
	audit.DeviceId = deviceId

	return tx.Create(&audit).Error
}

func SaveAuditCreate(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createAuditLog(tx, "CREATE", id, tx.Statement.Table, nil, obj, description)
}

func SaveAuditUpdate(tx *gorm.DB, id int, currentValue interface{}, description string) error {
	var newValue = tx.Statement.Dest
	return createAuditLog(tx, "UPDATE", id, tx.Statement.Table, currentValue, newValue, description)
}

func SaveAuditDelete(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createAuditLog(tx, "DELETE", id, tx.Statement.Table, obj, nil, description)
}

func GetAuditLogs(ctx context.Context, referenceType *string, referenceId *int) ([]*AuditLog, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*AuditLog
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if referenceType != nil && *referenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", referenceType)
	}
	if referenceId != nil && *referenceId > 0 {
		dbCtx = dbCtx.Where("reference_id = ?", referenceId)
	}
	if err := dbCtx.Order("created_at DESC").Limit(500).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
