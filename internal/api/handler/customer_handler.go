package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// CustomerHandler handles HTTP requests for customer operations.
type CustomerHandler struct {
	service ports.CustomerService
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

type createCustomerRequest struct {
	FirstName   string `json:"first_name"   validate:"required"`
	LastName    string `json:"last_name"    validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Company     string `json:"company,omitempty"`
	Address     string `json:"address,omitempty"`
}

// updateCustomerRequest is a partial update: absent fields are left unchanged.
type updateCustomerRequest struct {
	FirstName          *string          `json:"first_name,omitempty"`
	LastName           *string          `json:"last_name,omitempty"`
	Email              *string          `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber        *string          `json:"phone_number,omitempty"`
	Company            *string          `json:"company,omitempty"`
	Address            *string          `json:"address,omitempty"`
	Status             *string          `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	TotalPurchaseValue *decimal.Decimal `json:"total_purchase_value,omitempty"`
}

// Create handles POST /api/customers.
//
// @Summary      Register a new customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCustomerRequest  true  "Customer details"
// @Success      201   {object}  domain.Customer
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req createCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	customer, err := h.service.CreateCustomer(c.Request().Context(), ports.CreateCustomerInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Company:     req.Company,
		Address:     req.Address,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, customer)
}

// List handles GET /api/customers.
//
// @Summary      List all customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Customer
// @Failure      403  {object}  errorResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.service.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// ListActive handles GET /api/customers/active.
//
// @Summary      List customers with ACTIVE status
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Customer
// @Failure      403  {object}  errorResponse
// @Router       /api/customers/active [get]
func (h *CustomerHandler) ListActive(c echo.Context) error {
	customers, err := h.service.ListActiveCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// Count handles GET /api/customers/count.
//
// @Summary      Count customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/customers/count [get]
func (h *CustomerHandler) Count(c echo.Context) error {
	n, err := h.service.CountCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Get handles GET /api/customers/:id.
//
// @Summary      Get a customer by id
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  domain.Customer
// @Failure      404  {object}  errorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	customer, err := h.service.GetCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// GetByEmail handles GET /api/customers/email/:email.
//
// @Summary      Get a customer by email
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Customer email"
// @Success      200    {object}  domain.Customer
// @Failure      404    {object}  errorResponse
// @Router       /api/customers/email/{email} [get]
func (h *CustomerHandler) GetByEmail(c echo.Context) error {
	customer, err := h.service.GetCustomerByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Update handles PUT /api/customers/:id.
//
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Customer id"
// @Param        body  body      updateCustomerRequest  true  "Fields to update"
// @Success      200   {object}  domain.Customer
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	var req updateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := ports.UpdateCustomerPatch{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		PhoneNumber:        req.PhoneNumber,
		Company:            req.Company,
		Address:            req.Address,
		TotalPurchaseValue: req.TotalPurchaseValue,
	}
	if req.Status != nil {
		status := domain.CustomerStatus(*req.Status)
		patch.Status = &status
	}

	customer, err := h.service.UpdateCustomer(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Deactivate handles PUT /api/customers/:id/deactivate.
//
// @Summary      Deactivate a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  domain.Customer
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/customers/{id}/deactivate [put]
func (h *CustomerHandler) Deactivate(c echo.Context) error {
	customer, err := h.service.DeactivateCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/:id.
//
// @Summary      Delete a customer
// @Tags         customers
// @Security     BearerAuth
// @Param        id  path  string  true  "Customer id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteCustomer(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
