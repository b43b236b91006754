package reports

import (
	"context"
	"errors"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
	"github.com/shopspring/decimal"
)

type AttendanceDetail struct {
	ID             int             `json:"id"`
	EmployeeId     int             `json:"employee_id"`
	EmployeeNumber string          `json:"employee_number"`
	EmployeeName   string          `json:"employee_name"`
	CheckInTime    time.Time       `json:"check_in_time"`
	CheckInPlace   string          `json:"check_in_place"`
	CheckOutTime   *time.Time      `json:"check_out_time"`
	CheckOutPlace  string          `json:"check_out_place"`
	Hours          decimal.Decimal `json:"hours"`
	Status         string          `json:"status"`
	DeviceId       string          `json:"device_id"`
}

// GetAttendanceDetailReport lists one row per attendance session in the
// range, newest first. An optional employeeId narrows to a single employee.
func GetAttendanceDetailReport(ctx context.Context, fromDate, toDate time.Time, employeeId *int) ([]*AttendanceDetail, error) {
	start := time.Now()
	defer logSlowReport(ctx, "attendance_detail_report", start, map[string]any{
		"from_date":   fromDate.UTC().Format("2006-01-02"),
		"to_date":     toDate.UTC().Format("2006-01-02"),
		"employee_id": utils.DereferencePtr(employeeId, 0),
	})

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	sql := `
SELECT
    ar.id,
    ar.employee_id,
    employees.employee_number,
    employees.name_en AS employee_name,
    ar.check_in_time,
    ar.check_in_place,
    ar.check_out_time,
    ar.check_out_place,
    ar.duration_secs,
    ar.status,
    ar.device_id
FROM
    attendance_records ar
    LEFT JOIN employees ON employees.id = ar.employee_id
WHERE
    ar.company_id = @companyId
    AND ar.check_in_time BETWEEN @fromDate AND @toDate
    {{- if .employeeId }} AND ar.employee_id = @employeeId {{- end }}
ORDER BY
    ar.check_in_time DESC
`
	sql, err := utils.ExecTemplate(sql, map[string]any{"employeeId": employeeId})
	if err != nil {
		return nil, err
	}

	type detailRow struct {
		ID             int
		EmployeeId     int
		EmployeeNumber string
		EmployeeName   string
		CheckInTime    time.Time
		CheckInPlace   string
		CheckOutTime   *time.Time
		CheckOutPlace  string
		DurationSecs   int64
		Status         string
		DeviceId       string
	}

	var rows []*detailRow
	db := config.GetDB()
	err = db.WithContext(ctx).Raw(sql, map[string]any{
		"companyId":  companyId,
		"fromDate":   fromDate,
		"toDate":     toDate,
		"employeeId": utils.DereferencePtr(employeeId, 0),
	}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	secsPerHour := decimal.NewFromInt(3600)
	var results []*AttendanceDetail
	for _, row := range rows {
		hours := decimal.Zero
		if row.Status == "checked_out" {
			hours = decimal.NewFromInt(row.DurationSecs).Div(secsPerHour).Round(2)
		}
		results = append(results, &AttendanceDetail{
			ID:             row.ID,
			EmployeeId:     row.EmployeeId,
			EmployeeNumber: row.EmployeeNumber,
			EmployeeName:   row.EmployeeName,
			CheckInTime:    row.CheckInTime,
			CheckInPlace:   row.CheckInPlace,
			CheckOutTime:   row.CheckOutTime,
			CheckOutPlace:  row.CheckOutPlace,
			Hours:          hours,
			Status:         row.Status,
			DeviceId:       row.DeviceId,
		})
	}

	return results, nil
}
