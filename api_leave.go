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

func createLeaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLeaveRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		request, err := models.CreateLeaveRequest(c.Request.Context(), &input)
		if err != nil {
			if errors.Is(err, models.ErrLeaveBalanceExceeded) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": request})
	}
}

func listLeavesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// non-admins only see their own requests
		var employeeId *int
		if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
			if raw := c.Query("employee_id"); raw != "" {
				if id, err := strconv.Atoi(raw); err == nil {
					employeeId = &id
				}
			}
		} else {
			id, _ := utils.GetEmployeeIdFromContext(ctx)
			employeeId = &id
		}

		var status *models.LeaveStatus
		if raw := c.Query("status"); raw != "" {
			s := models.LeaveStatus(raw)
			status = &s
		}

		requests, err := models.GetLeaveRequests(ctx, employeeId, status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": requests})
	}
}

type leaveDecisionRequest struct {
	Note string `json:"note"`
}

func approveLeaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req leaveDecisionRequest
		_ = c.ShouldBindJSON(&req)

		request, err := models.ApproveLeaveRequest(c.Request.Context(), id, req.Note)
		if err != nil {
			if errors.Is(err, models.ErrLeaveBalanceExceeded) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": request})
	}
}

func rejectLeaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req leaveDecisionRequest
		_ = c.ShouldBindJSON(&req)

		request, err := models.RejectLeaveRequest(c.Request.Context(), id, req.Note)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": request})
	}
}

func cancelLeaveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}

		request, err := models.CancelLeaveRequest(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": request})
	}
}

func leaveBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		employeeId, _ := utils.GetEmployeeIdFromContext(ctx)
		if raw := c.Query("employee_id"); raw != "" {
			if isAdmin, _ := utils.GetIsAdminFromContext(ctx); isAdmin {
				if id, err := strconv.Atoi(raw); err == nil {
					employeeId = id
				}
			}
		}

		year := time.Now().Year()
		if raw := c.Query("year"); raw != "" {
			if y, err := strconv.Atoi(raw); err == nil {
				year = y
			}
		}

		balances, err := models.GetLeaveBalances(ctx, employeeId, year)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": balances})
	}
}

func setLeaveBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLeaveBalance
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		balance, err := models.SetLeaveBalance(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": balance})
	}
}
