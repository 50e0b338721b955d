package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atfitk/websystem-api/internal/middleware"
	"github.com/atfitk/websystem-api/internal/service"
	appErrors "github.com/atfitk/websystem-api/pkg/errors"
	"github.com/atfitk/websystem-api/pkg/response"
)

type photoService interface {
	Upload(ctx context.Context, studentID string, upload service.PhotoUpload) (*service.PhotoResult, error)
	Delete(ctx context.Context, studentID string) error
}

// PhotoHandler manages student photos.
type PhotoHandler struct {
	photos photoService
}

// NewPhotoHandler constructs PhotoHandler.
func NewPhotoHandler(photos photoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Upload godoc
// @Summary Upload student photo
// @Description Multipart field "photo"; JPEG, PNG, WebP or GIF up to 5 MB. Replaces the previous photo.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param photo formData file true "Photo"
// @Success 200 {object} service.PhotoResult
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 413 {object} response.ErrorBody
// @Router /students/{id}/photo [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "No photo file provided"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to upload photo"))
		return
	}
	defer file.Close()

	result, err := h.photos.Upload(c.Request.Context(), c.Param("id"), service.PhotoUpload{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Delete godoc
// @Summary Remove student photo
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.MessageBody
// @Failure 404 {object} response.ErrorBody
// @Router /students/{id}/photo [delete]
func (h *PhotoHandler) Delete(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Photo deleted")
}
