package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

// LocationMovement is the append-only movement trail behind the live document.
type LocationMovement struct {
	ID           int       `gorm:"primary_key" json:"id"`
	CompanyId    string    `gorm:"index;not null" json:"company_id"`
	EmployeeId   int       `gorm:"index;not null" json:"employee_id"`
	AttendanceId int       `gorm:"index" json:"attendance_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	PlaceEn      string    `gorm:"size:255" json:"place_en"`
	PlaceAr      string    `gorm:"size:255" json:"place_ar"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func AppendLocationMovement(ctx context.Context, movement *LocationMovement) error {
	db := config.GetDB()
	return db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).Create(movement).Error
}

func GetLocationMovements(ctx context.Context, employeeId int, from, to *time.Time) ([]*LocationMovement, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*LocationMovement
	dbCtx := db.WithContext(ctx).Where("company_id = ? AND employee_id = ?", companyId, employeeId)
	if from != nil {
		dbCtx = dbCtx.Where("recorded_at >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("recorded_at <= ?", to)
	}
	if err := dbCtx.Order("recorded_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
