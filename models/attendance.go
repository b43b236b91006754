package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"gorm.io/gorm"
)

var (
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrNoActiveCheckIn  = errors.New("no active check-in")
)

const moduleAttendance = "Attendance"

type AttendanceRecord struct {
	ID             int              `gorm:"primary_key" json:"id"`
	CompanyId      string           `gorm:"index;not null" json:"company_id"`
	EmployeeId     int              `gorm:"index;not null" json:"employee_id"`
	CheckInTime    time.Time        `gorm:"not null;index" json:"check_in_time"`
	CheckInLat     float64          `json:"check_in_lat"`
	CheckInLng     float64          `json:"check_in_lng"`
	CheckInPlace   string           `gorm:"size:255" json:"check_in_place"`
	CheckOutTime   *time.Time       `json:"check_out_time"`
	CheckOutLat    *float64         `json:"check_out_lat"`
	CheckOutLng    *float64         `json:"check_out_lng"`
	CheckOutPlace  string           `gorm:"size:255" json:"check_out_place"`
	DurationSecs   int64            `json:"duration_secs"`
	Status         AttendanceStatus `gorm:"type:enum('checked_in','checked_out');default:checked_in;index" json:"status"`
	IdempotencyKey string           `gorm:"size:100;index" json:"idempotency_key"`
	DeviceId       string           `gorm:"size:100" json:"device_id"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r AttendanceRecord) GetCompanyId() string {
	return r.CompanyId
}

// Coordinates are pointers so that 0 (equator/prime meridian) binds as a
// present value; only an absent field fails the required check.
type NewCheckIn struct {
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
	PlaceName string   `json:"place_name"`
}

type NewCheckOut struct {
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
	PlaceName string   `json:"place_name"`
}

// AttendanceIdempotencyKey stamps each check-in with a client-replay guard.
// Server time, not device time.
func AttendanceIdempotencyKey(employeeId int, at time.Time) string {
	return fmt.Sprintf("%d_%d", employeeId, at.Unix())
}

// sessionDuration is the whole-second span of a session, clamped at zero so
// a checkout stamped before the check-in can never store a negative total.
func sessionDuration(checkIn, checkOut time.Time) int64 {
	d := checkOut.Unix() - checkIn.Unix()
	if d < 0 {
		return 0
	}
	return d
}

// GetOpenAttendance is the single source of truth for "is this employee
// currently checked in": most recent checked_in record, or (nil, nil) when
// there is none. Callers distinguish "no session" from backend failure by the
// error value alone.
func GetOpenAttendance(ctx context.Context, employeeId int) (*AttendanceRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var result AttendanceRecord
	err := db.WithContext(ctx).
		Where("company_id = ? AND employee_id = ? AND status = ?", companyId, employeeId, AttendanceStatusCheckedIn).
		Order("check_in_time DESC").
		Limit(1).
		Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// getOpenAttendanceTx is the in-transaction variant used under the employee
// advisory lock, so the guard and the write see the same state.
func getOpenAttendanceTx(tx *gorm.DB, companyId string, employeeId int) (*AttendanceRecord, error) {
	var result AttendanceRecord
	err := tx.
		Where("company_id = ? AND employee_id = ? AND status = ?", companyId, employeeId, AttendanceStatusCheckedIn).
		Order("check_in_time DESC").
		Limit(1).
		Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// acquireEmployeeLock serializes attendance writes per employee across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that runs the attendance transaction.
func acquireEmployeeLock(tx *gorm.DB, companyId string, employeeId int) error {
	lockName := fmt.Sprintf("attendance:%s:%d", companyId, employeeId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire attendance lock for employee_id=%d", employeeId)
	}
	return nil
}

func releaseEmployeeLock(tx *gorm.DB, companyId string, employeeId int) {
	lockName := fmt.Sprintf("attendance:%s:%d", companyId, employeeId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// CheckIn opens an attendance session. The open-session guard runs inside the
// same advisory-locked transaction as the insert, so two near-simultaneous
// check-ins for one employee can never both pass the guard.
func CheckIn(ctx context.Context, input *NewCheckIn) (*AttendanceRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}
	if input.Lat == nil || input.Lng == nil {
		return nil, errors.New("coordinates are required")
	}
	deviceId, _ := utils.GetDeviceIdFromContext(ctx)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	record, err := checkInTx(ctx, tx, companyId, employeeId, deviceId, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return record, nil
}

// checkInTx runs the guarded insert. The advisory lock must be released on
// the live transaction, before the caller commits or rolls back: RELEASE_LOCK
// on a finished sql.Tx never reaches the server, and GET_LOCK survives commit
// on its connection, so a post-commit release would leak the lock on the
// pooled connection and block every later attendance write for the employee.
func checkInTx(ctx context.Context, tx *gorm.DB, companyId string, employeeId int, deviceId string, input *NewCheckIn) (*AttendanceRecord, error) {

	now := time.Now().UTC()
	lat, lng := *input.Lat, *input.Lng
	placeName := input.PlaceName
	if placeName == "" {
		placeName = FormatCoordinates(lat, lng)
	}

	if err := acquireEmployeeLock(tx, companyId, employeeId); err != nil {
		return nil, err
	}
	defer releaseEmployeeLock(tx, companyId, employeeId)

	// duplicate check-in is a user-facing rejection, not a failure
	open, err := getOpenAttendanceTx(tx, companyId, employeeId)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyCheckedIn
	}

	record := AttendanceRecord{
		CompanyId:      companyId,
		EmployeeId:     employeeId,
		CheckInTime:    now,
		CheckInLat:     lat,
		CheckInLng:     lng,
		CheckInPlace:   placeName,
		Status:         AttendanceStatusCheckedIn,
		IdempotencyKey: AttendanceIdempotencyKey(employeeId, now),
		DeviceId:       deviceId,
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}

	// the tracker keeps this document fresh; the check-in anchor must survive
	// every later overwrite
	if err := upsertActiveLocation(tx, &ActiveLocation{
		CompanyId:   companyId,
		EmployeeId:  employeeId,
		Lat:         lat,
		Lng:         lng,
		PlaceEn:     placeName,
		PlaceAr:     placeName,
		CheckInTime: now,
		UpdatedTime: now,
		IsActive:    utils.NewTrue(),
	}); err != nil {
		return nil, err
	}

	// checkout reminder relative to the shift window
	if due, ok := checkOutReminderDue(tx, companyId, employeeId, now); ok {
		if err := ScheduleReminder(ctx, tx, companyId, employeeId, config.PushTypeCheckOutReminder, due); err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// CheckOut closes the open session. Duration is the difference of server unix
// timestamps; the ActiveLocation document is soft-deleted, never removed.
func CheckOut(ctx context.Context, input *NewCheckOut) (*AttendanceRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
	if !ok {
		return nil, errors.New("employee id is required")
	}
	return checkOutEmployee(ctx, companyId, employeeId, input)
}

// checkOutEmployee is shared by the REST endpoint, the force_checkout push
// handler and the auto-close job (system actors pass the ids explicitly).
func checkOutEmployee(ctx context.Context, companyId string, employeeId int, input *NewCheckOut) (*AttendanceRecord, error) {

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	record, err := checkOutEmployeeTx(tx, companyId, employeeId, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return record, nil
}

func checkOutEmployeeTx(tx *gorm.DB, companyId string, employeeId int, input *NewCheckOut) (*AttendanceRecord, error) {

	if input.Lat == nil || input.Lng == nil {
		return nil, errors.New("coordinates are required")
	}

	now := time.Now().UTC()
	lat, lng := *input.Lat, *input.Lng
	placeName := input.PlaceName
	if placeName == "" {
		placeName = FormatCoordinates(lat, lng)
	}

	if err := acquireEmployeeLock(tx, companyId, employeeId); err != nil {
		return nil, err
	}
	defer releaseEmployeeLock(tx, companyId, employeeId)

	open, err := getOpenAttendanceTx(tx, companyId, employeeId)
	if err != nil {
		return nil, err
	}
	if open == nil {
		// distinct rejection; nothing is written
		return nil, ErrNoActiveCheckIn
	}

	err = tx.Model(open).Updates(map[string]interface{}{
		"CheckOutTime":  now,
		"CheckOutLat":   lat,
		"CheckOutLng":   lng,
		"CheckOutPlace": placeName,
		"DurationSecs":  sessionDuration(open.CheckInTime, now),
		"Status":        AttendanceStatusCheckedOut,
	}).Error
	if err != nil {
		return nil, err
	}

	// soft-delete: the document survives with is_active=false
	if err := deactivateActiveLocation(tx, companyId, employeeId, now); err != nil {
		return nil, err
	}
	return open, nil
}

// GetAttendanceRecords lists an employee's history, newest first.
func GetAttendanceRecords(ctx context.Context, employeeId int, from, to *time.Time) ([]*AttendanceRecord, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var results []*AttendanceRecord
	dbCtx := db.WithContext(ctx).Where("company_id = ? AND employee_id = ?", companyId, employeeId)
	if from != nil {
		dbCtx = dbCtx.Where("check_in_time >= ?", from)
	}
	if to != nil {
		dbCtx = dbCtx.Where("check_in_time <= ?", to)
	}
	if err := dbCtx.Order("check_in_time DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ForceCheckOut closes an employee's open session as the system actor
// (push handler). Closes at the last tracked position; falls back to the
// check-in coordinates when no tracked position exists.
func ForceCheckOut(ctx context.Context, companyId string, employeeId int) (*AttendanceRecord, error) {

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	record, err := ForceCheckOutTx(tx, companyId, employeeId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return record, tx.Commit().Error
}

// ForceCheckOutTx is the in-transaction variant used by the push handler,
// which already holds the company advisory lock on the same connection.
func ForceCheckOutTx(tx *gorm.DB, companyId string, employeeId int) (*AttendanceRecord, error) {

	open, err := getOpenAttendanceTx(tx, companyId, employeeId)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoActiveCheckIn
	}

	input := &NewCheckOut{Lat: utils.NewFloat(open.CheckInLat), Lng: utils.NewFloat(open.CheckInLng), PlaceName: open.CheckInPlace}
	if loc, err := getActiveLocationTx(tx, companyId, employeeId); err == nil && loc != nil {
		input = &NewCheckOut{Lat: utils.NewFloat(loc.Lat), Lng: utils.NewFloat(loc.Lng), PlaceName: loc.PlaceEn}
	}
	return checkOutEmployeeTx(tx, companyId, employeeId, input)
}

// CloseOverdueSessions force-closes sessions still open past the shift cutoff.
// Used by the auto-close maintenance job. Returns the number closed.
func CloseOverdueSessions(ctx context.Context, companyId string, cutoff time.Time) (int, error) {

	db := config.GetDB()
	var stale []*AttendanceRecord
	err := db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND check_in_time < ?", companyId, AttendanceStatusCheckedIn, cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	logger := config.GetLogger()
	closed := 0
	for _, record := range stale {
		// close at the last reported position, not (0,0)
		input := &NewCheckOut{Lat: utils.NewFloat(record.CheckInLat), Lng: utils.NewFloat(record.CheckInLng), PlaceName: record.CheckInPlace}
		if loc, err := getActiveLocationTx(db.WithContext(ctx), companyId, record.EmployeeId); err == nil && loc != nil {
			input = &NewCheckOut{Lat: utils.NewFloat(loc.Lat), Lng: utils.NewFloat(loc.Lng), PlaceName: loc.PlaceEn}
		}
		if _, err := checkOutEmployee(ctx, companyId, record.EmployeeId, input); err != nil {
			if errors.Is(err, ErrNoActiveCheckIn) {
				continue
			}
			config.LogError(logger, moduleAttendance, "CloseOverdueSessions", "force checkout failed", record.EmployeeId, err)
			continue
		}
		closed++
	}
	return closed, nil
}

// checkOutReminderDue derives the reminder time from the employee's shift
// window (fallback: company default shift).
func checkOutReminderDue(tx *gorm.DB, companyId string, employeeId int, checkInTime time.Time) (time.Time, bool) {
	shift, err := shiftForEmployee(tx, companyId, employeeId)
	if err != nil || shift == nil {
		return time.Time{}, false
	}
	due := shift.EndOfShift(checkInTime)
	if !due.After(checkInTime) {
		return time.Time{}, false
	}
	return due, true
}
