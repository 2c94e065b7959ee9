package handlers

import (
	"context"
	"io"
	"net/http"

	"collab-service/internal/adapters/storage"
	"collab-service/pkg/logger"
	"collab-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// Uploader is implemented by storage.MinIOClient.
type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (storage.Attachment, error)
}

type AttachmentHandler struct {
	uploader Uploader
	maxBytes int64
	logger   *logger.Logger
}

// NewAttachmentHandler accepts a nil uploader when object storage is not
// configured; uploads then answer 503.
func NewAttachmentHandler(uploader Uploader, maxBytes int64, log *logger.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		uploader: uploader,
		maxBytes: maxBytes,
		logger:   log.Component("attachments"),
	}
}

// Upload godoc
// @Summary Upload a chat attachment
// @Description Stores the file and returns the fileName/fileUrl pair a file
// @Description message refers to.
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Attachment"
// @Success 201 {object} storage.Attachment
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 503 {object} response.ErrorBody
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	if h.uploader == nil {
		response.Abort(c, http.StatusServiceUnavailable, response.ErrCodeUnavailable, "attachment storage is not configured")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "file is required")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		response.Abort(c, http.StatusRequestEntityTooLarge, response.ErrCodeParamInvalid, "file is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "cannot read file")
		return
	}
	defer src.Close()

	attachment, err := h.uploader.Upload(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), src, file.Size)
	if err != nil {
		h.logger.Error("Attachment upload failed", "userID", c.GetString("user_id"), "file", file.Filename, "error", err)
		response.Abort(c, http.StatusInternalServerError, response.ErrCodeInternalError, "upload failed")
		return
	}

	h.logger.Info("Attachment uploaded", "userID", c.GetString("user_id"), "url", attachment.FileURL)
	c.JSON(http.StatusCreated, attachment)
}
