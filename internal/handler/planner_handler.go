package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/scheduler"
	"github.com/harborline/voyage-api/internal/service"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/response"
)

type plannerSessionManager interface {
	StartSession(ctx context.Context, userID string, req dto.StartSessionRequest) (*scheduler.RenderModel, error)
	GetSession(ctx context.Context, userID, id string) (*scheduler.RenderModel, error)
	SubmitChoices(ctx context.Context, userID, id string, req dto.SubmitChoicesRequest) (*scheduler.RenderModel, *scheduler.ValidationError, error)
	Back(ctx context.Context, userID, id string) (*scheduler.RenderModel, error)
	StartAlternative(ctx context.Context, userID, parentID string, req dto.StartAlternativeRequest) (*scheduler.RenderModel, error)
	Apply(ctx context.Context, userID, id string) (*scheduler.Diff, error)
	Cancel(ctx context.Context, userID, id string) error
	Reschedule(ctx context.Context, userID string, req dto.RescheduleRequest) (*scheduler.AlternativeResult, error)
}

// PlannerHandler exposes the conflict-resolution wizard and the quick
// reschedule endpoint.
type PlannerHandler struct {
	service plannerSessionManager
	metrics *service.MetricsService
}

// NewPlannerHandler constructs the handler. metrics may be nil.
func NewPlannerHandler(svc *service.PlannerService, metrics *service.MetricsService) *PlannerHandler {
	return &PlannerHandler{service: svc, metrics: metrics}
}

// Start godoc
// @Summary Start scheduling session
// @Description Run greedy placement over the requested series and open a conflict-resolution session
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.StartSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scheduler/sessions [post]
func (h *PlannerHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	model, err := h.service.StartSession(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSessionStarted(len(model.Conflicts))
	response.Created(c, model)
}

// Get godoc
// @Summary Get scheduling session
// @Tags Planner
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /scheduler/sessions/{id} [get]
func (h *PlannerHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	model, err := h.service.GetSession(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, model, nil)
}

// Choices godoc
// @Summary Submit conflict decisions
// @Description Resolve the CONFLICTS step with one decision per unresolved series. Rejected submissions leave the session untouched and list the still-conflicting pairs.
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SubmitChoicesRequest true "Choices payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /scheduler/sessions/{id}/choices [post]
func (h *PlannerHandler) Choices(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitChoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid choices payload"))
		return
	}

	model, verr, err := h.service.SubmitChoices(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if verr != nil {
		appErr := appErrors.New("CHOICES_CONFLICT", http.StatusUnprocessableEntity, verr.Message)
		c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: gin.H{"pairs": verr.Pairs}})
		return
	}
	response.JSON(c, http.StatusOK, model, nil)
}

// Back godoc
// @Summary Undo last conflict decisions
// @Tags Planner
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scheduler/sessions/{id}/back [post]
func (h *PlannerHandler) Back(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	model, err := h.service.Back(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, model, nil)
}

// Alternative godoc
// @Summary Find alternative for a blocking event
// @Description Open a nested reschedule session for a committed event that blocks the current resolution
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path string true "Parent session ID"
// @Param payload body dto.StartAlternativeRequest true "Alternative payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scheduler/sessions/{id}/alternatives [post]
func (h *PlannerHandler) Alternative(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.StartAlternativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alternative payload"))
		return
	}

	model, err := h.service.StartAlternative(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, model)
}

// Apply godoc
// @Summary Commit session schedule
// @Description Persist the previewed attendance diff in one transaction and discard the session
// @Tags Planner
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /scheduler/sessions/{id}/apply [post]
func (h *PlannerHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	diff, err := h.service.Apply(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSessionApplied(len(diff.Added), len(diff.Removed))
	response.JSON(c, http.StatusOK, diff, nil)
}

// Cancel godoc
// @Summary Cancel scheduling session
// @Tags Planner
// @Param id path string true "Session ID"
// @Success 204
// @Router /scheduler/sessions/{id} [delete]
func (h *PlannerHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reschedule godoc
// @Summary Reschedule one event
// @Description Move an attended event to a conflict-free slot of the same series, or refuse without changing anything
// @Tags Planner
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scheduler/reschedule [post]
func (h *PlannerHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
