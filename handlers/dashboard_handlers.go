package handlers

import (
	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/utils"
)

// GetUserDashboard godoc
// @Summary Member dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse "Not logged in"
// @Router /dashboard [get]
func (h *ApplicationHandler) GetUserDashboard(c *fiber.Ctx) error {
	d, err := h.Dashboard.ForUser(c.UserContext(), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, "Building dashboard failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, d)
}

// GetManagerDashboard godoc
// @Summary Manager dashboard
// @Description Team members with their meetings and aggregate totals.
// @Tags dashboard
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse "Managers only"
// @Router /manager/dashboard [get]
func (h *ApplicationHandler) GetManagerDashboard(c *fiber.Ctx) error {
	d, err := h.Dashboard.ForManager(c.UserContext(), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, "Building manager dashboard failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, d)
}
