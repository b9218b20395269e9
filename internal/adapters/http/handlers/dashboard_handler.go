package handlers

import (
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns dashboard data based on user role
// @Summary Get dashboard
// @Description Admins get marketplace statistics; users get their own counts
// @Tags Dashboard
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	actor := actorFrom(c)

	if actor.IsAdmin() {
		data, err := h.dashboardService.GetAdminDashboard(c.UserContext())
		if err != nil {
			return response.InternalServerError(c, "Failed to get dashboard data")
		}
		return response.Success(c, "Dashboard data retrieved successfully", fiber.Map{
			"role": actor.Role,
			"data": data,
		})
	}

	data, err := h.dashboardService.GetUserDashboard(c.UserContext(), actor.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard data")
	}
	return response.Success(c, "Dashboard data retrieved successfully", fiber.Map{
		"role": actor.Role,
		"data": data,
	})
}
