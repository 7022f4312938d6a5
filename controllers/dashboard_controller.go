package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yafa-kitchen/recipes/utils"
)

// DashboardController provides back office statistics such as view windows and the daily series.
type DashboardController struct {
	source DashboardSource
}

// NewDashboardController creates a new DashboardController instance.
func NewDashboardController(source DashboardSource) *DashboardController {
	return &DashboardController{source: source}
}

// GetDashboard returns site view counts, the 30 day series, recipe totals,
// the most viewed recipes and the latest ones.
func (d *DashboardController) GetDashboard(ctx *gin.Context) {
	dash, err := d.source.Dashboard(ctx.Request.Context())
	if err != nil {
		respondServiceError(ctx, err, 50030, "failed to load dashboard")
		return
	}
	utils.Success(ctx, dash)
}
