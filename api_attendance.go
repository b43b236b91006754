package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
)

// parseDateQuery reads an optional ?name=2006-01-02 query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New(name + " must be YYYY-MM-DD")
	}
	return &t, nil
}

func openAttendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		employeeId, _ := utils.GetEmployeeIdFromContext(ctx)

		record, err := models.GetOpenAttendance(ctx, employeeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		// no open session is a valid answer, not an error
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func checkInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCheckIn
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		record, err := models.CheckIn(c.Request.Context(), &input)
		if err != nil {
			if errors.Is(err, models.ErrAlreadyCheckedIn) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func checkOutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCheckOut
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		record, err := models.CheckOut(c.Request.Context(), &input)
		if err != nil {
			if errors.Is(err, models.ErrNoActiveCheckIn) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func attendanceRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		employeeId, _ := utils.GetEmployeeIdFromContext(ctx)

		// admins may read another employee's history
		if raw := c.Query("employee_id"); raw != "" {
			if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
				if id, err := strconv.Atoi(raw); err == nil {
					employeeId = id
				}
			}
		}

		from, err := parseDateQuery(c, "from")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		to, err := parseDateQuery(c, "to")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		records, err := models.GetAttendanceRecords(ctx, employeeId, from, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	}
}

func locationSampleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLocationSample
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		sample, err := models.ReportLocationSample(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": sample})
	}
}

func activeLocationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		locations, err := models.GetActiveLocations(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": locations})
	}
}

func locationMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, err := strconv.Atoi(c.Query("employee_id"))
		if err != nil || employeeId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "employee_id is required"})
			return
		}

		from, err := parseDateQuery(c, "from")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		to, err := parseDateQuery(c, "to")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		movements, err := models.GetLocationMovements(c.Request.Context(), employeeId, from, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": movements})
	}
}

type stillWorkingRequest struct {
	DelayMinutes int `json:"delay_minutes"`
}

func stillWorkingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stillWorkingRequest
		// body is optional; default delay is 30 minutes
		_ = c.ShouldBindJSON(&req)
		if req.DelayMinutes <= 0 {
			req.DelayMinutes = 30
		}

		record, err := models.RescheduleCheckOutReminder(c.Request.Context(), time.Duration(req.DelayMinutes)*time.Minute)
		if err != nil {
			if errors.Is(err, models.ErrNoActiveCheckIn) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func checkMeOutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCheckOut
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		record, err := models.CheckOut(c.Request.Context(), &input)
		if err != nil {
			if errors.Is(err, models.ErrNoActiveCheckIn) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func listRemindersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var employeeId *int
		if raw := c.Query("employee_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				employeeId = &id
			}
		}
		var status *string
		if raw := c.Query("status"); raw != "" {
			status = &raw
		}

		reminders, err := models.GetReminders(c.Request.Context(), employeeId, status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": reminders})
	}
}
