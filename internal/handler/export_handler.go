package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atfitk/websystem-api/internal/models"
	"github.com/atfitk/websystem-api/internal/service"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/response"
)

type exportService interface {
	Journal(ctx context.Context, filter models.StudentFilter, format string) (*service.ExportFile, error)
	Card(ctx context.Context, id string) (*service.ExportFile, error)
}

// ExportHandler serves journal and card downloads.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Journal godoc
// @Summary Export registry journal
// @Tags Export
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param search query string false "Name substring"
// @Param group query string false "Group"
// @Param district query string false "Police district"
// @Param status query string false "На учете, Снят or УП"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Router /students/export [get]
func (h *ExportHandler) Journal(c *gin.Context) {
	var filter models.StudentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid filter"))
		return
	}
	file, err := h.exports.Journal(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Card godoc
// @Summary Export student card
// @Tags Export
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.ErrorBody
// @Router /students/{id}/card [get]
func (h *ExportHandler) Card(c *gin.Context) {
	file, err := h.exports.Card(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
