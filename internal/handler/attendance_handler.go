package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/service"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/response"
)

type attendanceToggler interface {
	List(ctx context.Context, userID string) ([]models.EventInstance, error)
	Add(ctx context.Context, userID, uid string) error
	Remove(ctx context.Context, userID, uid string) error
}

// AttendanceHandler exposes the direct attendance toggle.
type AttendanceHandler struct {
	service attendanceToggler
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// List godoc
// @Summary List attended events
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	events, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Add godoc
// @Summary Mark event attended
// @Tags Attendance
// @Param uid path string true "Event UID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /attendance/{uid} [put]
func (h *AttendanceHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Add(c.Request.Context(), claims.UserID, c.Param("uid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Remove godoc
// @Summary Unmark event attended
// @Tags Attendance
// @Param uid path string true "Event UID"
// @Success 204
// @Router /attendance/{uid} [delete]
func (h *AttendanceHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Remove(c.Request.Context(), claims.UserID, c.Param("uid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
