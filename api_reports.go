package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hudoorhq/hudoor_backend/models/reports"
	"github.com/hudoorhq/hudoor_backend/utils"
)

// reportDateRange resolves the report window from either an explicit
// from/to pair or a named filter (thisMonth, previousMonth, last6months,
// last12months). Writes the error response itself when the input is bad.
func reportDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	if filter := c.Query("filter"); filter != "" {
		from, to, err := utils.GetStartAndEndDateForFilter(filter)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a valid date (YYYY-MM-DD)"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a valid date (YYYY-MM-DD)"})
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func attendanceSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportDateRange(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		if c.Query("export") == "xlsx" {
			url, err := reports.ExportAttendanceSummaryExcel(ctx, from, to)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
			return
		}

		rows, err := reports.GetAttendanceSummaryReport(ctx, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func attendanceDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportDateRange(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		var employeeId *int
		if raw := c.Query("employee_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id must be an integer"})
				return
			}
			employeeId = &id
		}

		if c.Query("export") == "xlsx" {
			url, err := reports.ExportAttendanceDetailExcel(ctx, from, to, employeeId)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
			return
		}

		rows, err := reports.GetAttendanceDetailReport(ctx, from, to, employeeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func leaveBalanceReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		year := time.Now().Year()
		if raw := c.Query("year"); raw != "" {
			y, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
				return
			}
			year = y
		}

		if c.Query("export") == "xlsx" {
			url, err := reports.ExportLeaveBalanceExcel(ctx, year)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url}})
			return
		}

		rows, err := reports.GetLeaveBalanceReport(ctx, year)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}
