package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/api/metrics"
	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// SaleHandler handles HTTP requests for sale operations. Every mutating
// endpoint goes through the ledger engine so customer purchase totals stay
// consistent.
type SaleHandler struct {
	service ports.SaleService
}

func NewSaleHandler(service ports.SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

type createSaleRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	SaleDate    *time.Time      `json:"sale_date,omitempty"`
	Status      *string         `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED CANCELED"`
	Description string          `json:"description,omitempty"`
	CustomerID  string          `json:"customer_id"  validate:"required"`
	SalesRepID  string          `json:"sales_rep_id" validate:"required"`
}

// updateSaleRequest is a partial update: absent fields are left unchanged.
type updateSaleRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	SaleDate    *time.Time       `json:"sale_date,omitempty"`
	Status      *string          `json:"status,omitempty" validate:"omitempty,oneof=PENDING COMPLETED CANCELED"`
	Description *string          `json:"description,omitempty"`
	CustomerID  *string          `json:"customer_id,omitempty"`
	SalesRepID  *string          `json:"sales_rep_id,omitempty"`
}

// Create handles POST /api/sales.
//
// @Summary      Record a new sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSaleRequest  true  "Sale details"
// @Success      201   {object}  domain.Sale
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c echo.Context) error {
	var req createSaleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.Amount.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be greater than 0")
	}

	input := ports.CreateSaleInput{
		Amount:      req.Amount,
		SaleDate:    req.SaleDate,
		Description: req.Description,
		CustomerID:  req.CustomerID,
		SalesRepID:  req.SalesRepID,
	}
	if req.Status != nil {
		status, err := domain.ParseSaleStatus(*req.Status)
		if err != nil {
			return err
		}
		input.Status = &status
	}

	sale, err := h.service.CreateSale(c.Request().Context(), input)
	if err != nil {
		return err
	}

	metrics.SalesCreatedTotal.WithLabelValues(string(sale.Status)).Inc()
	metrics.LedgerAdjustmentsTotal.WithLabelValues("create").Inc()

	return c.JSON(http.StatusCreated, sale)
}

// List handles GET /api/sales.
//
// @Summary      List all sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Sale
// @Failure      403  {object}  errorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c echo.Context) error {
	sales, err := h.service.ListSales(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// Get handles GET /api/sales/:id.
//
// @Summary      Get a sale by id
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale id"
// @Success      200  {object}  domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) Get(c echo.Context) error {
	sale, err := h.service.GetSale(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sale)
}

// ListByRep handles GET /api/sales/rep/:id.
//
// @Summary      List sales recorded by a sales rep
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sales rep id"
// @Success      200  {array}   domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/rep/{id} [get]
func (h *SaleHandler) ListByRep(c echo.Context) error {
	sales, err := h.service.ListSalesByRep(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// ListByCustomer handles GET /api/sales/customer/:id.
//
// @Summary      List sales owned by a customer
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {array}   domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/customer/{id} [get]
func (h *SaleHandler) ListByCustomer(c echo.Context) error {
	sales, err := h.service.ListSalesByCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// ListByStatus handles GET /api/sales/status/:status.
//
// @Summary      List sales by status
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        status  path      string  true  "Sale status (PENDING, COMPLETED, CANCELED)"
// @Success      200     {array}   domain.Sale
// @Failure      400     {object}  errorResponse
// @Router       /api/sales/status/{status} [get]
func (h *SaleHandler) ListByStatus(c echo.Context) error {
	status, err := domain.ParseSaleStatus(c.Param("status"))
	if err != nil {
		return err
	}
	sales, err := h.service.ListSalesByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// ListCompleted handles GET /api/sales/completed.
//
// @Summary      List completed sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Sale
// @Router       /api/sales/completed [get]
func (h *SaleHandler) ListCompleted(c echo.Context) error {
	sales, err := h.service.ListSalesByStatus(c.Request().Context(), domain.SaleCompleted)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// ListCanceled handles GET /api/sales/canceled.
//
// @Summary      List canceled sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Sale
// @Router       /api/sales/canceled [get]
func (h *SaleHandler) ListCanceled(c echo.Context) error {
	sales, err := h.service.ListSalesByStatus(c.Request().Context(), domain.SaleCanceled)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sales)
}

// Update handles PUT /api/sales/:id.
//
// @Summary      Update a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Sale id"
// @Param        body  body      updateSaleRequest  true  "Fields to update"
// @Success      200   {object}  domain.Sale
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sales/{id} [put]
func (h *SaleHandler) Update(c echo.Context) error {
	var req updateSaleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be greater than 0")
	}

	patch := ports.UpdateSalePatch{
		Amount:      req.Amount,
		SaleDate:    req.SaleDate,
		Description: req.Description,
		CustomerID:  req.CustomerID,
		SalesRepID:  req.SalesRepID,
	}
	if req.Status != nil {
		status, err := domain.ParseSaleStatus(*req.Status)
		if err != nil {
			return err
		}
		patch.Status = &status
	}

	sale, err := h.service.UpdateSale(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}

	if patch.Amount != nil || patch.CustomerID != nil {
		metrics.LedgerAdjustmentsTotal.WithLabelValues("update").Inc()
	}

	return c.JSON(http.StatusOK, sale)
}

// Delete handles DELETE /api/sales/:id.
//
// @Summary      Delete a sale and withdraw its amount from the owning customer
// @Tags         sales
// @Security     BearerAuth
// @Param        id  path  string  true  "Sale id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteSale(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.LedgerAdjustmentsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Complete handles PUT /api/sales/:id/complete.
//
// @Summary      Mark a sale COMPLETED
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale id"
// @Success      200  {object}  domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/{id}/complete [put]
func (h *SaleHandler) Complete(c echo.Context) error {
	sale, err := h.service.MarkCompleted(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sale)
}

// Cancel handles PUT /api/sales/:id/cancel.
//
// @Summary      Mark a sale CANCELED
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale id"
// @Success      200  {object}  domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/{id}/cancel [put]
func (h *SaleHandler) Cancel(c echo.Context) error {
	sale, err := h.service.MarkCanceled(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sale)
}

// Pending handles PUT /api/sales/:id/pending.
//
// @Summary      Mark a sale PENDING
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale id"
// @Success      200  {object}  domain.Sale
// @Failure      404  {object}  errorResponse
// @Router       /api/sales/{id}/pending [put]
func (h *SaleHandler) Pending(c echo.Context) error {
	sale, err := h.service.MarkPending(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sale)
}

// UpdateStatus handles PUT /api/sales/:id/status/:status.
//
// @Summary      Set a sale's status
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Sale id"
// @Param        status  path      string  true  "Sale status (PENDING, COMPLETED, CANCELED)"
// @Success      200     {object}  domain.Sale
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/sales/{id}/status/{status} [put]
func (h *SaleHandler) UpdateStatus(c echo.Context) error {
	status, err := domain.ParseSaleStatus(c.Param("status"))
	if err != nil {
		return err
	}
	sale, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sale)
}
