package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/hudoorhq/hudoor_backend/utils"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// buildWorkbook fills Sheet1 with a heading row and one row per record.
func buildWorkbook(headings []string, rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, row := range rows {
		col := 'A'
		for _, value := range row {
			f.SetCellValue(sheetName, string(col)+fmt.Sprint(i+2), value)
			col++
		}
	}

	return f, nil
}

// uploadWorkbook stores the workbook in object storage under the company's
// reports prefix and returns the access URL for the mobile/web client.
func uploadWorkbook(ctx context.Context, f *excelize.File, reportName string) (string, error) {
	companyId, _ := utils.GetCompanyIdFromContext(ctx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("reports/%s/%s_%s.xlsx", companyId, reportName, utils.GenerateUniqueFilename())
	if err := utils.UploadBytesToGCS(ctx, objectKey, buf.Bytes(), xlsxContentType); err != nil {
		return "", err
	}

	return utils.BuildObjectAccessURL(objectKey), nil
}

func ExportAttendanceSummaryExcel(ctx context.Context, fromDate, toDate time.Time) (string, error) {
	data, err := GetAttendanceSummaryReport(ctx, fromDate, toDate)
	if err != nil {
		return "", err
	}

	rows := make([][]any, 0, len(data))
	for _, d := range data {
		rows = append(rows, []any{
			d.EmployeeNumber, d.EmployeeName, d.Department,
			d.DaysPresent, d.TotalSessions, d.TotalHours.String(),
			d.AvgHoursPerDay.String(), d.OpenSessions,
		})
	}

	f, err := buildWorkbook([]string{
		"EmployeeNumber", "EmployeeName", "Department",
		"DaysPresent", "TotalSessions", "TotalHours", "AvgHoursPerDay", "OpenSessions",
	}, rows)
	if err != nil {
		return "", err
	}

	return uploadWorkbook(ctx, f, "attendance_summary")
}

func ExportAttendanceDetailExcel(ctx context.Context, fromDate, toDate time.Time, employeeId *int) (string, error) {
	data, err := GetAttendanceDetailReport(ctx, fromDate, toDate, employeeId)
	if err != nil {
		return "", err
	}

	rows := make([][]any, 0, len(data))
	for _, d := range data {
		checkOut := ""
		if d.CheckOutTime != nil {
			checkOut = d.CheckOutTime.Format(time.RFC3339)
		}
		rows = append(rows, []any{
			d.EmployeeNumber, d.EmployeeName,
			d.CheckInTime.Format(time.RFC3339), d.CheckInPlace,
			checkOut, d.CheckOutPlace,
			d.Hours.String(), d.Status,
		})
	}

	f, err := buildWorkbook([]string{
		"EmployeeNumber", "EmployeeName",
		"CheckInTime", "CheckInPlace", "CheckOutTime", "CheckOutPlace",
		"Hours", "Status",
	}, rows)
	if err != nil {
		return "", err
	}

	return uploadWorkbook(ctx, f, "attendance_detail")
}

func ExportLeaveBalanceExcel(ctx context.Context, year int) (string, error) {
	data, err := GetLeaveBalanceReport(ctx, year)
	if err != nil {
		return "", err
	}

	rows := make([][]any, 0, len(data))
	for _, d := range data {
		rows = append(rows, []any{
			d.EmployeeNumber, d.EmployeeName, d.LeaveType, d.Year,
			d.TotalDays, d.UsedDays, d.RemainingDays, d.PendingDays,
		})
	}

	f, err := buildWorkbook([]string{
		"EmployeeNumber", "EmployeeName", "LeaveType", "Year",
		"TotalDays", "UsedDays", "RemainingDays", "PendingDays",
	}, rows)
	if err != nil {
		return "", err
	}

	return uploadWorkbook(ctx, f, "leave_balance")
}
