package main

import (
	"github.com/gin-gonic/gin"
	"github.com/hudoorhq/hudoor_backend/middlewares"
	"github.com/hudoorhq/hudoor_backend/models"
)

func registerRoutes(r *gin.Engine) {
	r.POST("/pubsub", pushPubSubHandler())

	api := r.Group("/api")
	api.POST("/login", loginHandler())

	auth := api.Group("", middlewares.RequireAuth())
	auth.POST("/logout", logoutHandler())
	auth.POST("/change-password", changePasswordHandler())

	attendance := auth.Group("/attendance")
	attendance.GET("/open", openAttendanceHandler())
	attendance.POST("/check-in", checkInHandler())
	attendance.POST("/check-out", checkOutHandler())
	attendance.GET("/records", attendanceRecordsHandler())

	location := auth.Group("/location")
	location.POST("/sample", locationSampleHandler())
	location.GET("/active", requireSupervisor(), activeLocationsHandler())
	location.GET("/movements", requireSupervisor(), locationMovementsHandler())

	reminders := auth.Group("/reminders")
	reminders.POST("/still-working", stillWorkingHandler())
	reminders.POST("/check-me-out", checkMeOutHandler())
	reminders.GET("", requireAdmin(), listRemindersHandler())

	leaves := auth.Group("/leaves")
	leaves.POST("", createLeaveHandler())
	leaves.GET("", listLeavesHandler())
	leaves.POST("/:id/approve", requireSupervisor(), approveLeaveHandler())
	leaves.POST("/:id/reject", requireSupervisor(), rejectLeaveHandler())
	leaves.POST("/:id/cancel", cancelLeaveHandler())
	auth.GET("/leave-balances", leaveBalancesHandler())
	auth.PUT("/leave-balances", requireAdmin(), setLeaveBalanceHandler())

	employees := auth.Group("/employees", requireAdmin())
	employees.POST("", createEmployeeHandler())
	employees.GET("", listEmployeesHandler())
	employees.GET("/:id", getEmployeeHandler())
	employees.PUT("/:id", updateEmployeeHandler())
	employees.PUT("/:id/toggle", toggleEmployeeHandler())
	auth.POST("/employees/:id/avatar", uploadAvatarHandler())
	auth.POST("/uploads/sign", signUploadHandler())

	devices := auth.Group("/devices", requireAdmin())
	devices.GET("/:employeeId", getDeviceBindingHandler())
	devices.POST("/:employeeId/reset", resetDeviceBindingHandler())
	devices.POST("/:employeeId/lock", lockDeviceBindingHandler())

	shifts := auth.Group("/shifts", requireAdmin())
	shifts.POST("", createShiftConfigHandler())
	shifts.GET("", listShiftConfigsHandler())
	shifts.PUT("/:id", updateShiftConfigHandler())

	companies := auth.Group("/companies", requireAdmin())
	companies.POST("", createCompanyHandler())
	companies.GET("", listCompaniesHandler())
	companies.PUT("", updateCompanyHandler())

	reports := auth.Group("/reports", requireSupervisor())
	reports.GET("/attendance-summary", attendanceSummaryHandler())
	reports.GET("/attendance-detail", attendanceDetailHandler())
	reports.GET("/leave-balance", leaveBalanceReportHandler())

	auth.GET("/audit-logs", requireAdmin(), listAuditLogsHandler())
	auth.GET("/security-alerts", requireAdmin(), listSecurityAlertsHandler())
}

func requireAdmin() gin.HandlerFunc {
	return middlewares.RequireRole(string(models.EmployeeRoleAdmin))
}

func requireSupervisor() gin.HandlerFunc {
	return middlewares.RequireRole(string(models.EmployeeRoleAdmin), string(models.EmployeeRoleSupervisor))
}
