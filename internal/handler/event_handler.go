package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/service"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/response"
)

type eventLister interface {
	List(ctx context.Context, userID string, query dto.EventQuery) ([]models.EventInstance, *models.Pagination, error)
	Get(ctx context.Context, uid string) (*models.EventInstance, error)
	CreateCustom(ctx context.Context, userID string, req dto.CreateCustomEventRequest) ([]models.EventInstance, error)
	DeleteCustom(ctx context.Context, userID, uid string) error
}

// EventHandler exposes the event catalog and custom-event endpoints.
type EventHandler struct {
	service eventLister
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Description List catalog and own custom events, filtered by day or series
// @Tags Events
// @Produce json
// @Param date query string false "Voyage day (YYYY-MM-DD)"
// @Param series query string false "Series name"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.EventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event query"))
		return
	}

	events, pagination, err := h.service.List(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param uid path string true "Event UID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{uid} [get]
func (h *EventHandler) Get(c *gin.Context) {
	inst, err := h.service.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// CreateCustom godoc
// @Summary Create custom event
// @Description Create a personal event, optionally recurring via RRULE
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateCustomEventRequest true "Custom event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/custom [post]
func (h *EventHandler) CreateCustom(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCustomEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid custom event payload"))
		return
	}

	created, err := h.service.CreateCustom(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// DeleteCustom godoc
// @Summary Delete custom event
// @Tags Events
// @Param uid path string true "Event UID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /events/custom/{uid} [delete]
func (h *EventHandler) DeleteCustom(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteCustom(c.Request.Context(), claims.UserID, c.Param("uid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
