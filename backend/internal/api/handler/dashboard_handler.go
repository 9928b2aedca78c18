package handler

import (
	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// DashboardHandler role dashboards.
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// GetDashboard figures scoped to the caller's role.
// GET /api/{role}/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.dashboardSvc.Get(c.Request.Context(), caller)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, result)
}
