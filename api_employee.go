package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
)

type loginRequest struct {
	EmployeeNumber string `json:"employee_number" binding:"required"`
	Password       string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		deviceId, _ := utils.GetDeviceIdFromContext(c.Request.Context())
		info, err := models.Login(c.Request.Context(), req.EmployeeNumber, req.Password, deviceId)
		if err != nil {
			if errors.Is(err, models.ErrDeviceBlocked) {
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": info})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": ok})
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		ok, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": ok})
	}
}

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " is invalid"})
		return 0, false
	}
	return id, true
}

func createEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		employee, err := models.CreateEmployee(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": employee})
	}
}

func listEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := utils.NilIfEmpty(c.Query("name"))
		employees, err := models.GetEmployees(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": employees})
	}
}

func getEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		employee, err := models.GetEmployee(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": employee})
	}
}

func updateEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		employee, err := models.UpdateEmployee(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": employee})
	}
}

type toggleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		employee, err := models.ToggleActiveEmployee(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": employee})
	}
}

func getDeviceBindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := pathId(c, "employeeId")
		if !ok {
			return
		}
		binding, err := models.GetDeviceBinding(c.Request.Context(), employeeId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": binding})
	}
}

func resetDeviceBindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := pathId(c, "employeeId")
		if !ok {
			return
		}
		done, err := models.ResetDeviceBinding(c.Request.Context(), employeeId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": done})
	}
}

type lockDeviceRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

func lockDeviceBindingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := pathId(c, "employeeId")
		if !ok {
			return
		}
		var req lockDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		binding, err := models.LockDeviceBinding(c.Request.Context(), employeeId, *req.Locked)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": binding})
	}
}

func createShiftConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewShiftConfig
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		shift, err := models.CreateShiftConfig(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": shift})
	}
}

func listShiftConfigsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shifts, err := models.GetShiftConfigs(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": shifts})
	}
}

func updateShiftConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewShiftConfig
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		shift, err := models.UpdateShiftConfig(c.Request.Context(), id, &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": shift})
	}
}

func createCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		company, err := models.CreateCompany(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": company})
	}
}

func listCompaniesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := utils.NilIfEmpty(c.Query("name"))
		companies, err := models.GetCompanies(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": companies})
	}
}

func updateCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		company, err := models.UpdateCompany(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": company})
	}
}

func listAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		referenceType := utils.NilIfEmpty(c.Query("reference_type"))
		var referenceId *int
		if raw := c.Query("reference_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				referenceId = &id
			}
		}

		logs, err := models.GetAuditLogs(c.Request.Context(), referenceType, referenceId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": logs})
	}
}

func listSecurityAlertsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var employeeId *int
		if raw := c.Query("employee_id"); raw != "" {
			if id, err := strconv.Atoi(raw); err == nil {
				employeeId = &id
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

		alerts, err := models.GetSecurityAlerts(c.Request.Context(), employeeId, from, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": alerts})
	}
}
