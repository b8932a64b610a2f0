package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/service"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/response"
)

type agendaBuilder interface {
	Build(ctx context.Context, userID string) ([]service.AgendaDay, error)
	Export(ctx context.Context, userID, format string) ([]byte, string, error)
}

// AgendaHandler exposes the day-by-day agenda view and its exports.
type AgendaHandler struct {
	service agendaBuilder
}

// NewAgendaHandler constructs the handler.
func NewAgendaHandler(svc *service.AgendaService) *AgendaHandler {
	return &AgendaHandler{service: svc}
}

// Get godoc
// @Summary Get agenda
// @Description Day-by-day view of attended events with overlap annotations
// @Tags Agenda
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	days, err := h.service.Build(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// Export godoc
// @Summary Export agenda
// @Description Download the agenda as CSV or PDF
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.AgendaExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}

	payload, contentType, err := h.service.Export(c.Request.Context(), claims.UserID, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "agenda.csv"
	if contentType == "application/pdf" {
		filename = "agenda.pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}
