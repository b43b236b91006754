package models

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type Employee struct {
	ID             int          `gorm:"primary_key" json:"id"`
	CompanyId      string       `gorm:"index;not null" json:"company_id"`
	EmployeeNumber string       `gorm:"size:50;not null;index" json:"employee_number" binding:"required"`
	NameEn         string       `gorm:"size:100;not null" json:"name_en" binding:"required"`
	NameAr         string       `gorm:"size:100" json:"name_ar"`
	Email          *string      `gorm:"size:100;unique" json:"email"`
	Phone          string       `gorm:"size:20" json:"phone"`
	Department     string       `gorm:"size:100" json:"department"`
	JobTitle       string       `gorm:"size:100" json:"job_title"`
	AvatarUrl      string       `json:"avatar_url"`
	Password       string       `gorm:"size:255;not null" json:"password"`
	Role           EmployeeRole `gorm:"type:enum('admin','supervisor','employee');default:employee" json:"role"`
	ShiftConfigId  int          `gorm:"index" json:"shift_config_id"`
	IsActive       *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	EmployeeNumber string       `json:"employee_number" binding:"required"`
	NameEn         string       `json:"name_en" binding:"required"`
	NameAr         string       `json:"name_ar"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Department     string       `json:"department"`
	JobTitle       string       `json:"job_title"`
	AvatarUrl      string       `json:"avatar_url"`
	Password       string       `json:"password" binding:"required"`
	Role           EmployeeRole `json:"role"`
	ShiftConfigId  int          `json:"shift_config_id"`
}

func (e Employee) GetCompanyId() string {
	return e.CompanyId
}

func (result *Employee) PrepareGive() {
	result.Password = ""
}

/*
caches:
	Employee:$id
	EmployeeList:$companyId
	Token:$token (session)
	Tokens:$employeeNumber (session set)
*/

type LoginInfo struct {
	Token         string             `json:"token"`
	Jwt           string             `json:"jwt"`
	EmployeeId    int                `json:"employee_id"`
	NameEn        string             `json:"name_en"`
	NameAr        string             `json:"name_ar"`
	Role          EmployeeRole       `json:"role"`
	CompanyId     string             `json:"company_id"`
	CompanyNameEn string             `json:"company_name_en"`
	CompanyNameAr string             `json:"company_name_ar"`
	Timezone      string             `json:"timezone"`
	AvatarUrl     string             `json:"avatar_url"`
	DeviceCheck   DeviceCheckOutcome `json:"device_check"`
	OpenSession   *AttendanceRecord  `json:"open_session"`
}

var ErrDeviceBlocked = errors.New("device is blocked for this employee")

// Login authenticates by employee number + password and consults the device
// binding guard. A Blocked outcome rejects the login; DifferentDevice and
// NewDevice are surfaced to the client but do not reject.
func Login(ctx context.Context, employeeNumber string, password string, deviceId string) (*LoginInfo, error) {

	db := config.GetDB()
	var result LoginInfo

	employee := Employee{}
	err := db.WithContext(ctx).Model(&Employee{}).Where("employee_number = ?", employeeNumber).Take(&employee).Error
	if err != nil {
		return nil, errors.New("invalid employee number or password")
	}

	// check login credentials
	err = utils.ComparePassword(employee.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return nil, errors.New("invalid employee number or password")
	}

	if employee.IsActive == nil || !*employee.IsActive {
		return nil, errors.New("employee is disabled")
	}

	// anti-fraud device guard; Blocked is the only rejecting outcome
	outcome := CheckDevice(ctx, employee.CompanyId, employee.ID, deviceId)
	if outcome == DeviceCheckBlocked {
		return nil, ErrDeviceBlocked
	}
	result.DeviceCheck = outcome

	company, err := GetCompanyById(ctx, employee.CompanyId)
	if err != nil {
		return nil, err
	}

	// session token & JWT
	token := uuid.New()
	result.Token = token.String()
	jwt, err := utils.JwtGenerate(employee.ID, employee.CompanyId, string(employee.Role))
	if err != nil {
		return nil, err
	}
	result.Jwt = jwt
	result.EmployeeId = employee.ID
	result.NameEn = employee.NameEn
	result.NameAr = employee.NameAr
	result.Role = employee.Role
	result.CompanyId = employee.CompanyId
	result.CompanyNameEn = company.NameEn
	result.CompanyNameAr = company.NameAr
	result.Timezone = company.Timezone
	result.AvatarUrl = employee.AvatarUrl

	// the session guard re-arms the client after a restart:
	// an open record means the app resumes in checked-in state
	sessionCtx := utils.SetCompanyIdInContext(ctx, employee.CompanyId)
	openRecord, err := GetOpenAttendance(sessionCtx, employee.ID)
	if err != nil {
		return nil, err
	}
	result.OpenSession = openRecord

	// store token in redis
	token_lifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		return nil, err
	}

	// add new token to the employee's tokens set
	if err := config.AddRedisSet("Tokens:"+employee.EmployeeNumber, token.String()); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue("Token:"+token.String(), employee.EmployeeNumber, time.Duration(token_lifespan)*time.Hour); err != nil {
		return nil, err
	}

	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	err := config.RemoveRedisKey("Token:" + fmt.Sprint(token))
	if err != nil {
		return false, nil
	}
	// remove current token from tokens list
	employeeNumber, ok := utils.GetEmployeeNameFromContext(ctx)
	if !ok || employeeNumber == "" {
		return false, errors.New("employee not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+employeeNumber, token); err != nil {
		return false, err
	}
	return true, nil
}

func (input *NewEmployee) validate(ctx context.Context, companyId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Employee](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Employee](ctx, companyId, "employee_number", input.EmployeeNumber, id); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	if input.Role != "" && !input.Role.Valid() {
		return errors.New("invalid role")
	}
	if input.ShiftConfigId > 0 {
		if err := utils.ValidateResourceId[ShiftConfig](ctx, companyId, input.ShiftConfigId); err != nil {
			return errors.New("shift config not found")
		}
	}
	return nil
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = EmployeeRoleStaff
	}

	employee := Employee{
		CompanyId:      companyId,
		EmployeeNumber: html.EscapeString(strings.TrimSpace(input.EmployeeNumber)),
		NameEn:         input.NameEn,
		NameAr:         input.NameAr,
		Email:          utils.NilIfEmpty(strings.ToLower(input.Email)),
		Phone:          input.Phone,
		Department:     input.Department,
		JobTitle:       input.JobTitle,
		AvatarUrl:      input.AvatarUrl,
		Password:       string(hashedPassword),
		Role:           role,
		ShiftConfigId:  input.ShiftConfigId,
		IsActive:       utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}

	// caching
	if err := employee.RemoveAllRedis(); err != nil {
		return nil, err
	}

	employee.PrepareGive()
	return &employee, nil
}

func UpdateEmployee(ctx context.Context, id int, input *NewEmployee) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	employee, err := utils.FetchModel[Employee](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"EmployeeNumber": html.EscapeString(strings.TrimSpace(input.EmployeeNumber)),
		"NameEn":         input.NameEn,
		"NameAr":         input.NameAr,
		"Email":          utils.NilIfEmpty(strings.ToLower(input.Email)),
		"Phone":          input.Phone,
		"Department":     input.Department,
		"JobTitle":       input.JobTitle,
		"Role":           input.Role,
		"ShiftConfigId":  input.ShiftConfigId,
	}
	if input.AvatarUrl != "" {
		updates["AvatarUrl"] = input.AvatarUrl
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&employee).Updates(updates).Error; err != nil {
		return nil, err
	}

	// caching
	if err := RemoveRedisBoth(*employee); err != nil {
		return nil, err
	}

	employee.PrepareGive()
	return employee, nil
}

// Employees are never hard-deleted; disabling keeps attendance history intact.
// Disabling also revokes every live session token for the employee.
func ToggleActiveEmployee(ctx context.Context, id int, isActive bool) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	employee, err := ToggleActiveModel[Employee](ctx, companyId, id, isActive)
	if err != nil {
		return nil, err
	}

	if !isActive {
		if err := revokeEmployeeSessions(employee.EmployeeNumber); err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "employee", "ToggleActiveEmployee", "revoke sessions", employee.EmployeeNumber, err)
		}
	}

	return employee, nil
}

// revokeEmployeeSessions deletes every session token in the employee's
// token set, then the set itself.
func revokeEmployeeSessions(employeeNumber string) error {
	tokens, err := config.GetRedisSetMembers("Tokens:" + employeeNumber)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, "Token:"+t)
	}
	keys = append(keys, "Tokens:"+employeeNumber)
	return config.RemoveRedisKey(keys...)
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {

	result, err := GetResource[Employee](ctx, id)
	if err != nil {
		return nil, err
	}
	result.PrepareGive()
	return result, nil
}

func GetEmployees(ctx context.Context, name *string) ([]*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*Employee

	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name_en LIKE ? OR name_ar LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	if err := dbCtx.Order("employee_number").Find(&results).Error; err != nil {
		return nil, err
	}

	for i, e := range results {
		e.Password = ""
		results[i] = e
	}
	return results, nil
}

func UpdateEmployeeAvatar(ctx context.Context, id int, avatarUrl string) (*Employee, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	employee, err := utils.FetchModel[Employee](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	previousUrl := employee.AvatarUrl

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&employee).Update("AvatarUrl", avatarUrl).Error; err != nil {
		return nil, err
	}

	// best-effort cleanup of the replaced avatar and its thumbnail
	if key := utils.ExtractObjectKeyFromURL(previousUrl); key != "" && previousUrl != avatarUrl {
		if err := utils.DeleteObjectFromGCS(ctx, key); err != nil {
			logger := config.GetLogger()
			config.LogError(logger, "employee", "UpdateEmployeeAvatar", "delete old avatar", key, err)
		}
		if thumb := thumbnailKeyFor(key); thumb != "" {
			_ = utils.DeleteObjectFromGCS(ctx, thumb)
		}
	}

	// caching
	if err := RemoveRedisBoth(*employee); err != nil {
		return nil, err
	}

	employee.PrepareGive()
	return employee, nil
}

// thumbnailKeyFor maps "<dir>/<name>.<ext>" to the "<dir>/<name>_thumb.jpg"
// sibling written by the avatar upload handler.
func thumbnailKeyFor(objectKey string) string {
	ext := filepath.Ext(objectKey)
	if ext == "" {
		return ""
	}
	return strings.TrimSuffix(objectKey, ext) + "_thumb.jpg"
}

func ChangePassword(ctx context.Context, oldPassword, newPassword string) (bool, error) {

	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return false, errors.New("employee id is required")
	}

	db := config.GetDB()
	var employee Employee
	if err := db.WithContext(ctx).First(&employee, employeeId).Error; err != nil {
		return false, utils.ErrorRecordNotFound
	}

	if err := utils.ComparePassword(employee.Password, oldPassword); err != nil {
		return false, errors.New("incorrect current password")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if err := db.WithContext(ctx).Model(&employee).Update("Password", string(hashed)).Error; err != nil {
		return false, err
	}

	// caching
	if err := employee.RemoveInstanceRedis(); err != nil {
		return false, err
	}
	return true, nil
}
