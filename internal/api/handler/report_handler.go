package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/crm-system/internal/api/metrics"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// ReportHandler handles the read-only analytics endpoints.
type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Dashboard handles GET /api/reports/dashboard.
//
// @Summary      Top-level analytics snapshot
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardReport
// @Failure      403  {object}  errorResponse
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c echo.Context) error {
	report, err := h.service.DashboardReport(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues("dashboard").Inc()
	return c.JSON(http.StatusOK, report)
}

// CustomerActivity handles GET /api/reports/customer/:id/activity.
//
// @Summary      Per-customer activity report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  ports.CustomerActivityReport
// @Failure      404  {object}  errorResponse
// @Router       /api/reports/customer/{id}/activity [get]
func (h *ReportHandler) CustomerActivity(c echo.Context) error {
	report, err := h.service.CustomerActivityReport(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues("customer_activity").Inc()
	return c.JSON(http.StatusOK, report)
}

// SalesTrends handles GET /api/reports/sales-trends.
//
// @Summary      Monthly sales breakdown and top performing sales
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.SalesTrendsReport
// @Failure      403  {object}  errorResponse
// @Router       /api/reports/sales-trends [get]
func (h *ReportHandler) SalesTrends(c echo.Context) error {
	report, err := h.service.SalesTrendsReport(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues("sales_trends").Inc()
	return c.JSON(http.StatusOK, report)
}
