package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fieldline/crm-system/internal/api/metrics"
	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

const defaultRecentInteractions = 10

// InteractionHandler handles HTTP requests for customer interactions.
type InteractionHandler struct {
	service ports.InteractionService
}

func NewInteractionHandler(service ports.InteractionService) *InteractionHandler {
	return &InteractionHandler{service: service}
}

type createInteractionRequest struct {
	Type            *string    `json:"type,omitempty" validate:"omitempty,oneof=CALL EMAIL MEETING SUPPORT_TICKET"`
	InteractionDate *time.Time `json:"interaction_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CustomerID      string     `json:"customer_id"     validate:"required"`
	PerformedByID   string     `json:"performed_by_id" validate:"required"`
}

// updateInteractionRequest is a partial update: absent fields are left unchanged.
type updateInteractionRequest struct {
	Type            *string    `json:"type,omitempty" validate:"omitempty,oneof=CALL EMAIL MEETING SUPPORT_TICKET"`
	InteractionDate *time.Time `json:"interaction_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CustomerID      *string    `json:"customer_id,omitempty"`
	PerformedByID   *string    `json:"performed_by_id,omitempty"`
}

// Create handles POST /api/interactions.
//
// @Summary      Log a customer interaction
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createInteractionRequest  true  "Interaction details"
// @Success      201   {object}  domain.Interaction
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/interactions [post]
func (h *InteractionHandler) Create(c echo.Context) error {
	var req createInteractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.CreateInteractionInput{
		InteractionDate: req.InteractionDate,
		Notes:           req.Notes,
		CustomerID:      req.CustomerID,
		PerformedByID:   req.PerformedByID,
	}
	if req.Type != nil {
		t, err := domain.ParseInteractionType(*req.Type)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		input.Type = &t
	}

	interaction, err := h.service.CreateInteraction(c.Request().Context(), input)
	if err != nil {
		return err
	}

	metrics.InteractionsLoggedTotal.WithLabelValues(string(interaction.Type)).Inc()

	return c.JSON(http.StatusCreated, interaction)
}

// List handles GET /api/interactions.
//
// @Summary      List all interactions
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Interaction
// @Router       /api/interactions [get]
func (h *InteractionHandler) List(c echo.Context) error {
	interactions, err := h.service.ListInteractions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interactions)
}

// ListRecent handles GET /api/interactions/recent?limit=N.
//
// @Summary      List the most recent interactions
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of interactions (default 10)"
// @Success      200    {array}   domain.Interaction
// @Failure      400    {object}  errorResponse
// @Router       /api/interactions/recent [get]
func (h *InteractionHandler) ListRecent(c echo.Context) error {
	limit := defaultRecentInteractions
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	interactions, err := h.service.ListRecentInteractions(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interactions)
}

// Count handles GET /api/interactions/count.
//
// @Summary      Count interactions
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /api/interactions/count [get]
func (h *InteractionHandler) Count(c echo.Context) error {
	n, err := h.service.CountInteractions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Get handles GET /api/interactions/:id.
//
// @Summary      Get an interaction by id
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Interaction id"
// @Success      200  {object}  domain.Interaction
// @Failure      404  {object}  errorResponse
// @Router       /api/interactions/{id} [get]
func (h *InteractionHandler) Get(c echo.Context) error {
	interaction, err := h.service.GetInteraction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interaction)
}

// ListByCustomer handles GET /api/interactions/customer/:id.
//
// @Summary      List interactions for a customer
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {array}   domain.Interaction
// @Failure      404  {object}  errorResponse
// @Router       /api/interactions/customer/{id} [get]
func (h *InteractionHandler) ListByCustomer(c echo.Context) error {
	interactions, err := h.service.ListInteractionsByCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interactions)
}

// ListByUser handles GET /api/interactions/user/:id.
//
// @Summary      List interactions performed by a staff member
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {array}   domain.Interaction
// @Failure      404  {object}  errorResponse
// @Router       /api/interactions/user/{id} [get]
func (h *InteractionHandler) ListByUser(c echo.Context) error {
	interactions, err := h.service.ListInteractionsByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interactions)
}

// ListByType handles GET /api/interactions/type/:type.
//
// @Summary      List interactions by type
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Interaction type (CALL, EMAIL, MEETING, SUPPORT_TICKET)"
// @Success      200   {array}   domain.Interaction
// @Failure      400   {object}  errorResponse
// @Router       /api/interactions/type/{type} [get]
func (h *InteractionHandler) ListByType(c echo.Context) error {
	t, err := domain.ParseInteractionType(c.Param("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	interactions, err := h.service.ListInteractionsByType(c.Request().Context(), t)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interactions)
}

// Update handles PUT /api/interactions/:id.
//
// @Summary      Update an interaction
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Interaction id"
// @Param        body  body      updateInteractionRequest  true  "Fields to update"
// @Success      200   {object}  domain.Interaction
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/interactions/{id} [put]
func (h *InteractionHandler) Update(c echo.Context) error {
	var req updateInteractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := ports.UpdateInteractionPatch{
		InteractionDate: req.InteractionDate,
		Notes:           req.Notes,
		CustomerID:      req.CustomerID,
		PerformedByID:   req.PerformedByID,
	}
	if req.Type != nil {
		t, err := domain.ParseInteractionType(*req.Type)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		patch.Type = &t
	}

	interaction, err := h.service.UpdateInteraction(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, interaction)
}

// Delete handles DELETE /api/interactions/:id.
//
// @Summary      Delete an interaction
// @Tags         interactions
// @Security     BearerAuth
// @Param        id  path  string  true  "Interaction id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/interactions/{id} [delete]
func (h *InteractionHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteInteraction(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
