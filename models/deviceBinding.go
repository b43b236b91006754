package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

const moduleDeviceBinding = "DeviceBinding"

// DeviceBinding pins each employee to the first device they logged in from.
// Only an admin override ever mutates an existing binding.
type DeviceBinding struct {
	ID         int       `gorm:"primary_key" json:"id"`
	CompanyId  string    `gorm:"index;not null" json:"company_id"`
	EmployeeId int       `gorm:"not null;uniqueIndex" json:"employee_id"`
	DeviceId   string    `gorm:"size:100;not null" json:"device_id"`
	IsLocked   *bool     `gorm:"not null;default:false" json:"is_locked"`
	BoundAt    time.Time `gorm:"not null" json:"bound_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b DeviceBinding) GetCompanyId() string {
	return b.CompanyId
}

// CheckDevice classifies a login device against the employee's binding.
// Infrastructure failure fails OPEN (Allowed): a broken fraud check must not
// lock the workforce out. Mismatch outcomes raise alert/audit records whose
// failures are swallowed.
func CheckDevice(ctx context.Context, companyId string, employeeId int, deviceId string) DeviceCheckOutcome {

	logger := config.GetLogger()

	if deviceId == "" {
		// nothing to bind against
		return DeviceCheckAllowed
	}

	db := config.GetDB()
	scopedCtx := utils.SetCompanyIdInContext(ctx, companyId)

	var binding DeviceBinding
	err := db.WithContext(scopedCtx).
		Where("company_id = ? AND employee_id = ?", companyId, employeeId).
		Take(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// first device seen: record the binding
			binding = DeviceBinding{
				CompanyId:  companyId,
				EmployeeId: employeeId,
				DeviceId:   deviceId,
				IsLocked:   utils.NewFalse(),
				BoundAt:    time.Now().UTC(),
			}
			if err := db.WithContext(scopedCtx).Create(&binding).Error; err != nil {
				config.LogError(logger, moduleDeviceBinding, "CheckDevice", "failed to record first binding", employeeId, err)
				return DeviceCheckAllowed
			}
			return DeviceCheckNewDevice
		}
		// fail open on infrastructure errors
		config.LogError(logger, moduleDeviceBinding, "CheckDevice", "binding lookup failed", employeeId, err)
		return DeviceCheckAllowed
	}

	if binding.DeviceId == deviceId {
		return DeviceCheckAllowed
	}

	outcome := DeviceCheckDifferentDevice
	alertType := SecurityAlertTypeDeviceMismatch
	if (binding.IsLocked != nil && *binding.IsLocked) || config.StrictDeviceBinding() {
		outcome = DeviceCheckBlocked
		alertType = SecurityAlertTypeDeviceBlocked
	}

	// side effects are best-effort; the outcome stands either way
	raiseSecurityAlert(scopedCtx, &SecurityAlert{
		CompanyId:  companyId,
		EmployeeId: employeeId,
		Type:       alertType,
		DeviceId:   deviceId,
		Detail:     "expected device " + binding.DeviceId,
	})
	recordDeviceAudit(scopedCtx, employeeId, string(outcome), binding.DeviceId, deviceId)

	return outcome
}

// ResetDeviceBinding removes the binding so the next login re-binds.
// Admin only.
func ResetDeviceBinding(ctx context.Context, employeeId int) (bool, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return false, errors.New("company id is required")
	}

	db := config.GetDB()
	var binding DeviceBinding
	err := db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ?", companyId, employeeId).
		Take(&binding).Error
	if err != nil {
		return false, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&binding).Error; err != nil {
		tx.Rollback()
		return false, err
	}
	if err := createAuditLog(tx.WithContext(ctx), "*RESET*", binding.ID, "device_bindings", &binding, nil, "device binding reset"); err != nil {
		tx.Rollback()
		return false, err
	}
	if err := binding.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return false, err
	}
	return true, tx.Commit().Error
}

// LockDeviceBinding makes any mismatch a hard Blocked outcome for this
// employee.
func LockDeviceBinding(ctx context.Context, employeeId int, locked bool) (*DeviceBinding, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var binding DeviceBinding
	err := db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ?", companyId, employeeId).
		Take(&binding).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&binding).Update("IsLocked", locked).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createAuditLog(tx.WithContext(ctx), "*LOCK*", binding.ID, "device_bindings", nil, &binding, "device binding lock toggled"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := binding.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &binding, tx.Commit().Error
}

func GetDeviceBinding(ctx context.Context, employeeId int) (*DeviceBinding, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var binding DeviceBinding
	err := db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ?", companyId, employeeId).
		Take(&binding).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &binding, nil
}

// recordDeviceAudit writes a device-mismatch audit row outside any caller
// transaction; failures are logged and swallowed.
func recordDeviceAudit(ctx context.Context, employeeId int, outcome, expected, actual string) {
	db := config.GetDB()
	if err := createAuditLog(db.WithContext(ctx), "*DEVICE*", employeeId, "employees",
		map[string]string{"device_id": expected},
		map[string]string{"device_id": actual},
		"device check outcome "+outcome); err != nil {
		config.LogError(config.GetLogger(), moduleDeviceBinding, "recordDeviceAudit", "audit write failed", employeeId, err)
	}
}
