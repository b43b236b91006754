package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hudoorhq/hudoor_backend/config"
	"github.com/hudoorhq/hudoor_backend/utils"
)

type LeaveBalanceRow struct {
	EmployeeId     int    `json:"employee_id"`
	EmployeeNumber string `json:"employee_number"`
	EmployeeName   string `json:"employee_name"`
	LeaveType      string `json:"leave_type"`
	Year           int    `json:"year"`
	TotalDays      int    `json:"total_days"`
	UsedDays       int    `json:"used_days"`
	RemainingDays  int    `json:"remaining_days"`
	PendingDays    int    `json:"pending_days"`
}

// GetLeaveBalanceReport lists the allowance, consumption and pending demand
// per employee and leave type for one calendar year. Pending days come from
// leave requests awaiting a decision; they are informational and have not
// been debited from the balance yet.
func GetLeaveBalanceReport(ctx context.Context, year int) ([]*LeaveBalanceRow, error) {
	start := time.Now()
	defer logSlowReport(ctx, "leave_balance_report", start, map[string]any{
		"year": year,
	})

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if reportCacheEnabled() {
		key := fmt.Sprintf("report:leave_balance:%s:%d", companyId, year)
		var cached []*LeaveBalanceRow
		if ok, err := cacheGet(key, &cached); err == nil && ok && cached != nil {
			return cached, nil
		}
		rows, err := queryLeaveBalances(ctx, companyId, year)
		if err != nil {
			return nil, err
		}
		_ = cacheSet(key, rows, reportCacheTTL())
		return rows, nil
	}

	return queryLeaveBalances(ctx, companyId, year)
}

func queryLeaveBalances(ctx context.Context, companyId string, year int) ([]*LeaveBalanceRow, error) {
	sql := `
SELECT
    lb.employee_id,
    employees.employee_number,
    employees.name_en AS employee_name,
    lb.type AS leave_type,
    lb.year,
    lb.total_days,
    lb.used_days,
    lb.total_days - lb.used_days AS remaining_days,
    COALESCE(pending.days, 0) AS pending_days
FROM
    leave_balances lb
    LEFT JOIN employees ON employees.id = lb.employee_id
    LEFT JOIN (
        SELECT
            employee_id,
            type,
            SUM(days) AS days
        FROM
            leave_requests
        WHERE
            company_id = @companyId
            AND status = 'pending'
            AND YEAR(start_date) = @year
        GROUP BY
            employee_id, type
    ) AS pending ON pending.employee_id = lb.employee_id AND pending.type = lb.type
WHERE
    lb.company_id = @companyId
    AND lb.year = @year
ORDER BY
    employees.employee_number, lb.type
`

	var rows []*LeaveBalanceRow
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql, map[string]any{
		"companyId": companyId,
		"year":      year,
	}).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
