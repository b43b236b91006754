package models_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
	"github.com/hudoorhq/hudoor_backend/workflow"
)

func TestAttendanceSessionLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "hudoor_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// Audit hooks require actor identity in context.
	ctx = utils.SetEmployeeIdInContext(ctx, 0)
	ctx = utils.SetEmployeeNameInContext(ctx, "Test")
	ctx = utils.SetIsAdminInContext(ctx, true)

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		NameEn:   "Test Co",
		Email:    "owner@test.local",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	companyID := company.ID.String()
	ctx = utils.SetCompanyIdInContext(ctx, companyID)

	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{
		EmployeeNumber: "E-001",
		NameEn:         "Field Worker",
		Password:       "Secret123!",
		Role:           models.EmployeeRoleStaff,
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	// Act as the employee from here on.
	empCtx := utils.SetCompanyIdInContext(context.Background(), companyID)
	empCtx = utils.SetEmployeeIdInContext(empCtx, employee.ID)
	empCtx = utils.SetEmployeeNameInContext(empCtx, employee.NameEn)
	empCtx = utils.SetDeviceIdInContext(empCtx, "device-abc")

	// 1) Check in.
	record, err := models.CheckIn(empCtx, &models.NewCheckIn{Lat: utils.NewFloat(24.7136), Lng: utils.NewFloat(46.6753), PlaceName: "HQ"})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if record.Status != models.AttendanceStatusCheckedIn {
		t.Fatalf("status = %q, want checked_in", record.Status)
	}
	anchor := record.CheckInTime

	// GET_LOCK survives commit on its connection, so the advisory lock must
	// be free again the moment CheckIn returns. A held lock here would block
	// the later check-out whenever it lands on another pooled connection.
	if !attendanceLockFree(t, companyID, employee.ID) {
		t.Fatalf("attendance advisory lock still held after CheckIn")
	}

	// 2) Double check-in is rejected without opening a second session.
	if _, err := models.CheckIn(empCtx, &models.NewCheckIn{Lat: utils.NewFloat(24.7), Lng: utils.NewFloat(46.7)}); !errors.Is(err, models.ErrAlreadyCheckedIn) {
		t.Fatalf("second CheckIn err = %v, want ErrAlreadyCheckedIn", err)
	}
	// The rejection path must release the lock too.
	if !attendanceLockFree(t, companyID, employee.ID) {
		t.Fatalf("attendance advisory lock still held after rejected CheckIn")
	}

	// 3) ActiveLocation exists, anchored at the check-in time.
	loc, err := models.GetActiveLocation(empCtx, employee.ID)
	if err != nil || loc == nil {
		t.Fatalf("GetActiveLocation: loc=%v err=%v", loc, err)
	}
	if !loc.CheckInTime.Equal(anchor) {
		t.Fatalf("active location anchor = %v, want %v", loc.CheckInTime, anchor)
	}

	// 4) A tracker overwrite ten minutes later moves the position but must
	// leave the check-in anchor untouched.
	later := anchor.Add(10 * time.Minute)
	if err := models.OverwriteActiveLocation(empCtx, companyID, employee.ID, 24.72, 46.68, "On the road", "في الطريق", anchor, later); err != nil {
		t.Fatalf("OverwriteActiveLocation: %v", err)
	}
	loc, err = models.GetActiveLocation(empCtx, employee.ID)
	if err != nil || loc == nil {
		t.Fatalf("GetActiveLocation after overwrite: loc=%v err=%v", loc, err)
	}
	if !loc.CheckInTime.Equal(anchor) {
		t.Fatalf("anchor drifted to %v after tracker overwrite, want %v", loc.CheckInTime, anchor)
	}
	if loc.Lat != 24.72 || loc.PlaceEn != "On the road" {
		t.Fatalf("overwrite did not apply: lat=%v place=%q", loc.Lat, loc.PlaceEn)
	}
	if !loc.UpdatedTime.After(loc.CheckInTime) {
		t.Fatalf("updated_time %v should trail the anchor %v", loc.UpdatedTime, loc.CheckInTime)
	}

	// 5) Check out closes the session and soft-deletes the live location.
	closed, err := models.CheckOut(empCtx, &models.NewCheckOut{Lat: utils.NewFloat(24.72), Lng: utils.NewFloat(46.68), PlaceName: "HQ"})
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if closed.ID != record.ID {
		t.Fatalf("CheckOut closed record %d, want %d", closed.ID, record.ID)
	}
	if !attendanceLockFree(t, companyID, employee.ID) {
		t.Fatalf("attendance advisory lock still held after CheckOut")
	}

	// The stored duration is the span of the server timestamps, never negative.
	var finished models.AttendanceRecord
	if err := config.GetDB().Where("id = ?", record.ID).Take(&finished).Error; err != nil {
		t.Fatalf("reload closed record: %v", err)
	}
	if finished.CheckOutTime == nil {
		t.Fatalf("closed record has no check-out time: %+v", finished)
	}
	wantDuration := finished.CheckOutTime.Unix() - finished.CheckInTime.Unix()
	if finished.DurationSecs != wantDuration {
		t.Fatalf("duration_secs = %d, want %d", finished.DurationSecs, wantDuration)
	}
	if finished.DurationSecs < 0 {
		t.Fatalf("duration_secs = %d, want >= 0", finished.DurationSecs)
	}

	open, err := models.GetOpenAttendance(empCtx, employee.ID)
	if err != nil {
		t.Fatalf("GetOpenAttendance: %v", err)
	}
	if open != nil {
		t.Fatalf("session still open after check-out: %+v", open)
	}
	loc, err = models.GetActiveLocation(empCtx, employee.ID)
	if err != nil {
		t.Fatalf("GetActiveLocation after checkout: %v", err)
	}
	if loc == nil || loc.IsActive == nil || *loc.IsActive {
		t.Fatalf("active location should survive deactivated, got %+v", loc)
	}

	// 6) Checking out again is a distinct rejection.
	if _, err := models.CheckOut(empCtx, &models.NewCheckOut{Lat: utils.NewFloat(1), Lng: utils.NewFloat(1)}); !errors.Is(err, models.ErrNoActiveCheckIn) {
		t.Fatalf("second CheckOut err = %v, want ErrNoActiveCheckIn", err)
	}
}

// attendanceLockFree asks MySQL whether the employee's attendance advisory
// lock is free on any connection.
func attendanceLockFree(t *testing.T, companyID string, employeeID int) bool {
	t.Helper()
	lockName := fmt.Sprintf("attendance:%s:%d", companyID, employeeID)
	var free sql.NullInt64
	if err := config.GetDB().Raw("SELECT IS_FREE_LOCK(?)", lockName).Scan(&free).Error; err != nil {
		t.Fatalf("IS_FREE_LOCK(%q): %v", lockName, err)
	}
	return free.Valid && free.Int64 == 1
}

func TestForceCheckoutPushIsIdempotent(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "hudoor_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetEmployeeIdInContext(ctx, 0)
	ctx = utils.SetEmployeeNameInContext(ctx, "Test")
	ctx = utils.SetIsAdminInContext(ctx, true)

	company, err := models.CreateCompany(ctx, &models.NewCompany{NameEn: "Force Co", Email: "force@test.local", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	companyID := company.ID.String()
	ctx = utils.SetCompanyIdInContext(ctx, companyID)

	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{
		EmployeeNumber: "E-002",
		NameEn:         "Night Worker",
		Password:       "Secret123!",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	empCtx := utils.SetCompanyIdInContext(context.Background(), companyID)
	empCtx = utils.SetEmployeeIdInContext(empCtx, employee.ID)
	empCtx = utils.SetEmployeeNameInContext(empCtx, employee.NameEn)

	if _, err := models.CheckIn(empCtx, &models.NewCheckIn{Lat: utils.NewFloat(24.7), Lng: utils.NewFloat(46.7)}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	sysCtx := utils.SetCompanyIdInContext(context.Background(), companyID)
	sysCtx = utils.SetEmployeeIdInContext(sysCtx, 0)
	sysCtx = utils.SetEmployeeNameInContext(sysCtx, "System")

	msg := config.PushMessage{
		CompanyId:  companyID,
		EmployeeId: employee.ID,
		Type:       config.PushTypeForceCheckout,
	}
	logger := config.GetLogger()

	if err := workflow.ProcessMessage(sysCtx, logger, msg, "msg-force-1"); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	open, err := models.GetOpenAttendance(empCtx, employee.ID)
	if err != nil {
		t.Fatalf("GetOpenAttendance: %v", err)
	}
	if open != nil {
		t.Fatalf("session still open after force_checkout: %+v", open)
	}

	// Redelivery of the same message id must ack cleanly without side effects.
	if err := workflow.ProcessMessage(sysCtx, logger, msg, "msg-force-1"); err != nil {
		t.Fatalf("redelivered ProcessMessage: %v", err)
	}

	// A different message id against a closed session still acks (no open
	// session is not a processing failure).
	if err := workflow.ProcessMessage(sysCtx, logger, msg, "msg-force-2"); err != nil {
		t.Fatalf("ProcessMessage without open session: %v", err)
	}

	db := config.GetDB()
	var count int64
	if err := db.Model(&models.AttendanceRecord{}).
		Where("company_id = ? AND employee_id = ? AND status = ?", companyID, employee.ID, models.AttendanceStatusCheckedOut).
		Count(&count).Error; err != nil {
		t.Fatalf("count closed sessions: %v", err)
	}
	if count != 1 {
		t.Fatalf("closed sessions = %d, want exactly 1", count)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("hudoor-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("hudoor-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=hudoor_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
