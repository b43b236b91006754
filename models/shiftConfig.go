package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

// ShiftConfig is the per-company work window. It drives the check-in/check-out
// reminder schedule and the auto-close cutoff.
type ShiftConfig struct {
	ID              int       `gorm:"primary_key" json:"id"`
	CompanyId       string    `gorm:"index;not null" json:"company_id"`
	Name            string    `gorm:"size:100;not null" json:"name" binding:"required"`
	StartHour       int       `gorm:"not null" json:"start_hour"`
	StartMinute     int       `gorm:"not null" json:"start_minute"`
	EndHour         int       `gorm:"not null" json:"end_hour"`
	EndMinute       int       `gorm:"not null" json:"end_minute"`
	GraceMinutes    int       `gorm:"not null;default:15" json:"grace_minutes"`
	AutoCloseAfterH int       `gorm:"not null;default:4" json:"auto_close_after_h"`
	IsDefault       *bool     `gorm:"not null;default:false" json:"is_default"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShiftConfig struct {
	Name            string `json:"name" binding:"required"`
	StartHour       int    `json:"start_hour"`
	StartMinute     int    `json:"start_minute"`
	EndHour         int    `json:"end_hour"`
	EndMinute       int    `json:"end_minute"`
	GraceMinutes    int    `json:"grace_minutes"`
	AutoCloseAfterH int    `json:"auto_close_after_h"`
	IsDefault       *bool  `json:"is_default"`
}

func (s ShiftConfig) GetCompanyId() string {
	return s.CompanyId
}

// StartOfShift / EndOfShift project the window onto the given day.
func (s *ShiftConfig) StartOfShift(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.StartHour, s.StartMinute, 0, 0, day.Location())
}

func (s *ShiftConfig) EndOfShift(day time.Time) time.Time {
	end := time.Date(day.Year(), day.Month(), day.Day(), s.EndHour, s.EndMinute, 0, 0, day.Location())
	// overnight shift
	if !end.After(s.StartOfShift(day)) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// AutoCloseCutoff is the moment after which a still-open session is force
// closed by the maintenance job.
func (s *ShiftConfig) AutoCloseCutoff(day time.Time) time.Time {
	return s.EndOfShift(day).Add(time.Duration(s.AutoCloseAfterH) * time.Hour)
}

func (input *NewShiftConfig) validate(ctx context.Context, companyId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[ShiftConfig](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[ShiftConfig](ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	if input.StartHour < 0 || input.StartHour > 23 || input.EndHour < 0 || input.EndHour > 23 {
		return errors.New("invalid shift hours")
	}
	if input.StartMinute < 0 || input.StartMinute > 59 || input.EndMinute < 0 || input.EndMinute > 59 {
		return errors.New("invalid shift minutes")
	}
	return nil
}

func createDefaultShiftConfig(tx *gorm.DB, companyId string) error {
	shift := ShiftConfig{
		CompanyId:       companyId,
		Name:            "Default",
		StartHour:       9,
		EndHour:         17,
		GraceMinutes:    15,
		AutoCloseAfterH: 4,
		IsDefault:       utils.NewTrue(),
		IsActive:        utils.NewTrue(),
	}
	return tx.Create(&shift).Error
}

func CreateShiftConfig(ctx context.Context, input *NewShiftConfig) (*ShiftConfig, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	shift := ShiftConfig{
		CompanyId:       companyId,
		Name:            input.Name,
		StartHour:       input.StartHour,
		StartMinute:     input.StartMinute,
		EndHour:         input.EndHour,
		EndMinute:       input.EndMinute,
		GraceMinutes:    input.GraceMinutes,
		AutoCloseAfterH: input.AutoCloseAfterH,
		IsDefault:       input.IsDefault,
		IsActive:        utils.NewTrue(),
	}
	if shift.IsDefault == nil {
		shift.IsDefault = utils.NewFalse()
	}
	if shift.AutoCloseAfterH == 0 {
		shift.AutoCloseAfterH = 4
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&shift).Error; err != nil {
		return nil, err
	}

	// caching
	if err := shift.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &shift, nil
}

func UpdateShiftConfig(ctx context.Context, id int, input *NewShiftConfig) (*ShiftConfig, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	shift, err := utils.FetchModel[ShiftConfig](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&shift).Updates(map[string]interface{}{
		"Name":            input.Name,
		"StartHour":       input.StartHour,
		"StartMinute":     input.StartMinute,
		"EndHour":         input.EndHour,
		"EndMinute":       input.EndMinute,
		"GraceMinutes":    input.GraceMinutes,
		"AutoCloseAfterH": input.AutoCloseAfterH,
		"IsDefault":       input.IsDefault,
	}).Error
	if err != nil {
		return nil, err
	}

	// caching
	if err := RemoveRedisBoth(*shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func GetShiftConfig(ctx context.Context, id int) (*ShiftConfig, error) {
	return GetResource[ShiftConfig](ctx, id)
}

func GetShiftConfigs(ctx context.Context) ([]*ShiftConfig, error) {
	return ListAllResource[ShiftConfig](ctx, "name")
}

// shiftForEmployee resolves the employee's shift (fallback: company default).
// Returns (nil, nil) when the company has no shift at all.
func shiftForEmployee(tx *gorm.DB, companyId string, employeeId int) (*ShiftConfig, error) {

	var shiftId int
	if err := tx.Model(&Employee{}).Where("id = ?", employeeId).
		Select("shift_config_id").Scan(&shiftId).Error; err != nil {
		return nil, err
	}

	var shift ShiftConfig
	if shiftId > 0 {
		if err := tx.Where("company_id = ? AND id = ?", companyId, shiftId).Take(&shift).Error; err == nil {
			return &shift, nil
		}
	}
	err := tx.Where("company_id = ? AND is_default = true AND is_active = true", companyId).
		Take(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

// DefaultShiftForCompany is the exported variant used by the auto-close job.
func DefaultShiftForCompany(ctx context.Context, companyId string) (*ShiftConfig, error) {
	db := config.GetDB()
	scopedCtx := utils.SetCompanyIdInContext(ctx, companyId)
	var shift ShiftConfig
	err := db.WithContext(scopedCtx).
		Where("company_id = ? AND is_default = true AND is_active = true", companyId).
		Take(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}
