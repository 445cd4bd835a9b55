package controllers

import (
	"net/http"
	"time"

	"device-loan-backend/app"
	"device-loan-backend/models"

	"github.com/gin-gonic/gin"
)

type DashboardController struct{ *Srv }

func NewDashboardController(s *Srv) *DashboardController { return &DashboardController{Srv: s} }

// GET /api/dashboard/stats
func (dc *DashboardController) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	available, err := dc.Repo.CountDevicesByStatus(ctx, models.DeviceAvailable)
	if err != nil {
		respondError(c, err)
		return
	}
	checkedOut, err := dc.Repo.CountDevicesByStatus(ctx, models.DeviceCheckedOut)
	if err != nil {
		respondError(c, err)
		return
	}
	maintenance, err := dc.Repo.CountDevicesByStatus(ctx, models.DeviceMaintenance)
	if err != nil {
		respondError(c, err)
		return
	}
	reserved, err := dc.Repo.CountLoansByStatus(ctx, models.LoanReserved)
	if err != nil {
		respondError(c, err)
		return
	}
	overdue, err := dc.Repo.CountOverdueLoans(ctx, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, app.H{"data": app.H{
		"available":   available,
		"checkedOut":  checkedOut,
		"maintenance": maintenance,
		"reserved":    reserved,
		"overdue":     overdue,
	}})
}
