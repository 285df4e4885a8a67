package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/crm-system/internal/api/metrics"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// DashboardHandler serves the per-user landing dashboard.
type DashboardHandler struct {
	service ports.ReportService
}

func NewDashboardHandler(service ports.ReportService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// UserDashboard handles GET /api/dashboard/:username.
//
// @Summary      Role-specific dashboard for one staff member
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  ports.UserDashboard
// @Failure      404       {object}  errorResponse
// @Router       /api/dashboard/{username} [get]
func (h *DashboardHandler) UserDashboard(c echo.Context) error {
	dashboard, err := h.service.UserDashboard(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues("user_dashboard").Inc()
	return c.JSON(http.StatusOK, dashboard)
}
