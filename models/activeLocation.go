package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActiveLocation is the one live-position document per employee. The tracker
// overwrites it every cycle; check-out flips is_active instead of deleting.
type ActiveLocation struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CompanyId   string    `gorm:"index;not null" json:"company_id"`
	EmployeeId  int       `gorm:"not null;uniqueIndex" json:"employee_id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	PlaceEn     string    `gorm:"size:255" json:"place_en"`
	PlaceAr     string    `gorm:"size:255" json:"place_ar"`
	CheckInTime time.Time `gorm:"not null" json:"check_in_time"`
	UpdatedTime time.Time `gorm:"not null" json:"updated_time"`
	IsActive    *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l ActiveLocation) GetCompanyId() string {
	return l.CompanyId
}

// upsertActiveLocation reuses the employee's existing row (unique index on
// employee_id) so a re-check-in after checkout revives the same document.
func upsertActiveLocation(tx *gorm.DB, loc *ActiveLocation) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_id", "lat", "lng", "place_en", "place_ar",
			"check_in_time", "updated_time", "is_active",
		}),
	}).Create(loc).Error
}

func deactivateActiveLocation(tx *gorm.DB, companyId string, employeeId int, at time.Time) error {
	return tx.Model(&ActiveLocation{}).
		Where("company_id = ? AND employee_id = ?", companyId, employeeId).
		Updates(map[string]interface{}{
			"IsActive":    false,
			"UpdatedTime": at,
		}).Error
}

func getActiveLocationTx(tx *gorm.DB, companyId string, employeeId int) (*ActiveLocation, error) {
	var result ActiveLocation
	err := tx.Where("company_id = ? AND employee_id = ?", companyId, employeeId).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// OverwriteActiveLocation is the tracker's write: new coordinates and place,
// the check-in anchor written back unchanged from the attendance record.
func OverwriteActiveLocation(ctx context.Context, companyId string, employeeId int, lat, lng float64, placeEn, placeAr string, checkInAnchor time.Time, at time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&ActiveLocation{}).
		Where("company_id = ? AND employee_id = ? AND is_active = true", companyId, employeeId).
		Updates(map[string]interface{}{
			"Lat":         lat,
			"Lng":         lng,
			"PlaceEn":     placeEn,
			"PlaceAr":     placeAr,
			"CheckInTime": checkInAnchor,
			"UpdatedTime": at,
		}).Error
}

// GetActiveLocations returns the live positions of a company for the admin map.
func GetActiveLocations(ctx context.Context) ([]*ActiveLocation, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*ActiveLocation
	err := db.WithContext(ctx).
		Where("company_id = ? AND is_active = true", companyId).
		Order("updated_time DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListTrackedLocations returns every active document across companies.
// Tracker-only: runs with the tenant scope skipped.
func ListTrackedLocations(ctx context.Context) ([]*ActiveLocation, error) {
	db := config.GetDB()
	var results []*ActiveLocation
	err := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("is_active = true").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetActiveLocation(ctx context.Context, employeeId int) (*ActiveLocation, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	db := config.GetDB()
	return getActiveLocationTx(db.WithContext(ctx), companyId, employeeId)
}
