package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

type Company struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	LogoUrl   string    `json:"logo_url"`
	NameEn    string    `gorm:"index;size:100;not null" json:"name_en" binding:"required"`
	NameAr    string    `gorm:"size:100" json:"name_ar"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Country   string    `gorm:"size:100" json:"country"`
	City      string    `gorm:"size:100" json:"city"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	LogoUrl  string `json:"logo_url"`
	NameEn   string `json:"name_en" binding:"required"`
	NameAr   string `json:"name_ar"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

func (company *Company) StoreRedis() error {
	return config.SetRedisObject("Company:"+fmt.Sprint(company.ID), company, 0)
}

func (company *Company) RemoveRedis() error {
	return config.RemoveRedisKey("Company:" + fmt.Sprint(company.ID))
}

func (input *NewCompany) validate(ctx context.Context, id string) error {
	// name
	if err := utils.ValidateUnique[Company](ctx, "", "name_en", input.NameEn, id); err != nil {
		return err
	}
	// email
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if err := utils.ValidateUnique[Company](ctx, "", "email", input.Email, id); err != nil {
		return err
	}
	// phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
		if err := utils.ValidateUnique[Company](ctx, "", "phone", input.Phone, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateCompany also seeds the default shift window so reminders and the
// auto-close job work from day one.
func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	timezone := "Asia/Riyadh"
	if input.Timezone != "" {
		timezone = input.Timezone
	}

	company := Company{
		ID:       uuid.New(),
		LogoUrl:  input.LogoUrl,
		NameEn:   input.NameEn,
		NameAr:   input.NameAr,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		Country:  input.Country,
		City:     input.City,
		Timezone: timezone,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	companyId := company.ID.String()
	ctx = utils.SetCompanyIdInContext(ctx, companyId)

	if err := createDefaultShiftConfig(tx.WithContext(ctx), companyId); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	// caching
	if err := company.StoreRedis(); err != nil {
		return nil, err
	}
	return &company, nil
}

func UpdateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).Where("id = ?", companyId).First(&company).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err := db.WithContext(ctx).Model(&company).Updates(map[string]interface{}{
		"LogoUrl": input.LogoUrl,
		"NameEn":  input.NameEn,
		"NameAr":  input.NameAr,
		"Email":   input.Email,
		"Phone":   input.Phone,
		"Address": input.Address,
		"Country": input.Country,
		"City":    input.City,
	}).Error
	if err != nil {
		return nil, err
	}

	// caching
	if err := company.RemoveRedis(); err != nil {
		return nil, err
	}
	return &company, nil
}

func ToggleActiveCompany(ctx context.Context, id uuid.UUID, isActive bool) (*Company, error) {

	db := config.GetDB()
	var result Company

	// check exists
	err := db.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&result).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// toggling related employees
	err = tx.WithContext(ctx).Model(&Employee{}).Where("company_id = ?", id).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// caching
	if err := result.RemoveRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &result, tx.Commit().Error
}

func GetCompanyById(ctx context.Context, id string) (*Company, error) {

	var result Company

	exists, err := config.GetRedisObject("Company:"+id, &result)
	if err != nil {
		return nil, err
	}

	if !exists {
		db := config.GetDB()
		err := db.WithContext(ctx).Where("id = ?", id).First(&result).Error
		if err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		// caching
		if err := result.StoreRedis(); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

func GetCompany(ctx context.Context) (*Company, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return GetCompanyById(ctx, companyId)
}

func GetCompanies(ctx context.Context, name *string) ([]*Company, error) {

	db := config.GetDB()
	var results []*Company

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name_en LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name_en").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Location reports local wall-clock helpers for the company's timezone.
func (company *Company) Location() *time.Location {
	loc, err := time.LoadLocation(company.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
