package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/gymledger/internal/service"
)

// DashboardHandler serves the consolidated report
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get handles GET /v1/dashboard
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	report, err := h.dashboard.GetDashboard(c.UserContext())
	if err != nil {
		return respondError(c, "Dashboard", err)
	}
	return respondOK(c, report)
}
