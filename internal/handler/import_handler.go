package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/service"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/response"
)

type scheduleImporter interface {
	ImportJSON(ctx context.Context, req dto.ImportScheduleRequest) (*dto.ImportResult, error)
	ImportICS(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

// ImportHandler exposes schedule ingestion endpoints.
type ImportHandler struct {
	service scheduleImporter
}

// NewImportHandler constructs the handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// ImportJSON godoc
// @Summary Import schedule batch
// @Description Validate and ingest a JSON schedule batch. Re-importing the same schedule is idempotent.
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.ImportScheduleRequest true "Schedule batch"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import/schedule [post]
func (h *ImportHandler) ImportJSON(c *gin.Context) {
	var req dto.ImportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	result, err := h.service.ImportJSON(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// ImportICS godoc
// @Summary Import iCalendar file
// @Description Parse an uploaded .ics file and ingest its events
// @Tags Import
// @Accept mpfd
// @Produce json
// @Param file formData file true "iCalendar file"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import/ics [post]
func (h *ImportHandler) ImportICS(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "ics file required"))
		return
	}
	defer file.Close()

	result, err := h.service.ImportICS(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}
