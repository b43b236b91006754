package models

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

var ErrLeaveBalanceExceeded = errors.New("leave balance exceeded")

type LeaveRequest struct {
	ID         int         `gorm:"primary_key" json:"id"`
	CompanyId  string      `gorm:"index;not null" json:"company_id"`
	EmployeeId int         `gorm:"index;not null" json:"employee_id"`
	Type       LeaveType   `gorm:"type:enum('annual','sick','emergency','unpaid');not null" json:"type"`
	StartDate  time.Time   `gorm:"not null" json:"start_date"`
	EndDate    time.Time   `gorm:"not null" json:"end_date"`
	Days       int         `gorm:"not null" json:"days"`
	Reason     string      `gorm:"type:text" json:"reason"`
	Status     LeaveStatus `gorm:"type:enum('pending','approved','rejected','cancelled');default:pending;index" json:"status"`
	DecidedBy  int         `json:"decided_by"`
	DecidedAt  *time.Time  `json:"decided_at"`
	Note       string      `gorm:"type:text" json:"note"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l LeaveRequest) GetCompanyId() string {
	return l.CompanyId
}

// LeaveBalance is per employee, per type, per calendar year.
type LeaveBalance struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CompanyId   string    `gorm:"index;not null" json:"company_id"`
	EmployeeId  int       `gorm:"not null;index:uniq_balance,unique" json:"employee_id"`
	Type        LeaveType `gorm:"type:enum('annual','sick','emergency','unpaid');not null;index:uniq_balance,unique" json:"type"`
	Year        int       `gorm:"not null;index:uniq_balance,unique" json:"year"`
	TotalDays   int       `gorm:"not null" json:"total_days"`
	UsedDays    int       `gorm:"not null;default:0" json:"used_days"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b LeaveBalance) GetCompanyId() string {
	return b.CompanyId
}

func (b *LeaveBalance) Remaining() int {
	return b.TotalDays - b.UsedDays
}

type NewLeaveRequest struct {
	Type      LeaveType `json:"type" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	Reason    string    `json:"reason"`
}

func (input *NewLeaveRequest) validate() error {
	if !input.Type.Valid() {
		return errors.New("invalid leave type")
	}
	if input.EndDate.Before(input.StartDate) {
		return errors.New("end date before start date")
	}
	return nil
}

func leaveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func CreateLeaveRequest(ctx context.Context, input *NewLeaveRequest) (*LeaveRequest, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	days := leaveDays(input.StartDate, input.EndDate)

	// balance is checked up front as proactive validation; the authoritative
	// check (and the debit) happens at approval
	if input.Type.Deductible() {
		balance, err := getLeaveBalance(ctx, companyId, employeeId, input.Type, input.StartDate.Year())
		if err != nil {
			return nil, err
		}
		if balance != nil && balance.Remaining() < days {
			return nil, ErrLeaveBalanceExceeded
		}
	}

	request := LeaveRequest{
		CompanyId:  companyId,
		EmployeeId: employeeId,
		Type:       input.Type,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Days:       days,
		Reason:     input.Reason,
		Status:     LeaveStatusPending,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&request).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveAuditCreate(tx.WithContext(ctx), request.ID, &request, "leave requested"); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &request, tx.Commit().Error
}

// ApproveLeaveRequest debits the balance and flips the status in one
// transaction. Approving an exhausted balance fails with the same sentinel
// the create path uses.
func ApproveLeaveRequest(ctx context.Context, id int, note string) (*LeaveRequest, error) {
	return decideLeaveRequest(ctx, id, LeaveStatusApproved, note)
}

func RejectLeaveRequest(ctx context.Context, id int, note string) (*LeaveRequest, error) {
	return decideLeaveRequest(ctx, id, LeaveStatusRejected, note)
}

// CancelLeaveRequest is employee-initiated; approved requests refund the
// balance on cancel.
func CancelLeaveRequest(ctx context.Context, id int) (*LeaveRequest, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}

	request, err := utils.FetchModel[LeaveRequest](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if request.EmployeeId != employeeId {
		return nil, errors.New("cannot cancel another employee's request")
	}
	if request.Status == LeaveStatusCancelled || request.Status == LeaveStatusRejected {
		return nil, errors.New("request already decided")
	}

	db := config.GetDB()
	tx := db.Begin()

	if request.Status == LeaveStatusApproved && request.Type.Deductible() {
		if err := adjustLeaveBalance(tx.WithContext(ctx), companyId, request.EmployeeId, request.Type, request.StartDate.Year(), -request.Days); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(&request).Updates(map[string]interface{}{
		"Status":    LeaveStatusCancelled,
		"DecidedAt": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveAuditUpdate(tx.WithContext(ctx), request.ID, &request, "leave cancelled"); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := request.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}
	return request, tx.Commit().Error
}

func decideLeaveRequest(ctx context.Context, id int, status LeaveStatus, note string) (*LeaveRequest, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	deciderId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}

	request, err := utils.FetchModel[LeaveRequest](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if request.Status != LeaveStatusPending {
		return nil, errors.New("request already decided")
	}

	db := config.GetDB()
	tx := db.Begin()

	if status == LeaveStatusApproved && request.Type.Deductible() {
		balance, err := getLeaveBalanceTx(tx.WithContext(ctx), companyId, request.EmployeeId, request.Type, request.StartDate.Year())
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if balance == nil || balance.Remaining() < request.Days {
			tx.Rollback()
			return nil, ErrLeaveBalanceExceeded
		}
		if err := adjustLeaveBalance(tx.WithContext(ctx), companyId, request.EmployeeId, request.Type, request.StartDate.Year(), request.Days); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(&request).Updates(map[string]interface{}{
		"Status":    status,
		"DecidedBy": deciderId,
		"DecidedAt": now,
		"Note":      note,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := SaveAuditUpdate(tx.WithContext(ctx), request.ID, &request, "leave "+string(status)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := request.RemoveInstanceRedis(); err != nil {
		tx.Rollback()
		return nil, err
	}
	return request, tx.Commit().Error
}

func GetLeaveRequest(ctx context.Context, id int) (*LeaveRequest, error) {
	return GetResource[LeaveRequest](ctx, id)
}

func GetLeaveRequests(ctx context.Context, employeeId *int, status *LeaveStatus) ([]*LeaveRequest, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*LeaveRequest
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if employeeId != nil && *employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", employeeId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

/* balances */

func getLeaveBalance(ctx context.Context, companyId string, employeeId int, leaveType LeaveType, year int) (*LeaveBalance, error) {
	db := config.GetDB()
	return getLeaveBalanceTx(db.WithContext(ctx), companyId, employeeId, leaveType, year)
}

func getLeaveBalanceTx(tx *gorm.DB, companyId string, employeeId int, leaveType LeaveType, year int) (*LeaveBalance, error) {
	var balance LeaveBalance
	err := tx.Where("company_id = ? AND employee_id = ? AND type = ? AND year = ?",
		companyId, employeeId, leaveType, year).Take(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

func adjustLeaveBalance(tx *gorm.DB, companyId string, employeeId int, leaveType LeaveType, year int, days int) error {
	return tx.Model(&LeaveBalance{}).
		Where("company_id = ? AND employee_id = ? AND type = ? AND year = ?", companyId, employeeId, leaveType, year).
		UpdateColumn("used_days", gorm.Expr("used_days + ?", days)).Error
}

type NewLeaveBalance struct {
	EmployeeId int       `json:"employee_id" binding:"required"`
	Type       LeaveType `json:"type" binding:"required"`
	Year       int       `json:"year" binding:"required"`
	TotalDays  int       `json:"total_days" binding:"required"`
}

// SetLeaveBalance creates or replaces the allocation for one employee, type
// and year. Admin only.
func SetLeaveBalance(ctx context.Context, input *NewLeaveBalance) (*LeaveBalance, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if !input.Type.Valid() {
		return nil, errors.New("invalid leave type")
	}
	if err := utils.ValidateResourceId[Employee](ctx, companyId, input.EmployeeId); err != nil {
		return nil, errors.New("employee not found")
	}

	db := config.GetDB()
	balance, err := getLeaveBalance(ctx, companyId, input.EmployeeId, input.Type, input.Year)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance = &LeaveBalance{
			CompanyId:  companyId,
			EmployeeId: input.EmployeeId,
			Type:       input.Type,
			Year:       input.Year,
			TotalDays:  input.TotalDays,
		}
		if err := db.WithContext(ctx).Create(balance).Error; err != nil {
			return nil, err
		}
		return balance, nil
	}

	if err := db.WithContext(ctx).Model(balance).Update("TotalDays", input.TotalDays).Error; err != nil {
		return nil, err
	}
	return balance, nil
}

func GetLeaveBalances(ctx context.Context, employeeId int, year int) ([]*LeaveBalance, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*LeaveBalance
	dbCtx := db.WithContext(ctx).Where("company_id = ? AND year = ?", companyId, year)
	if employeeId > 0 {
		dbCtx = dbCtx.Where("employee_id = ?", employeeId)
	}
	if err := dbCtx.Order("employee_id, type").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
