package events

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/auth"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/pkg/response"
	"github.com/gatherly/backend/pkg/storage"
)

// UploadBanner handles POST /api/events/:id/banner (organizer or admin).
// The banner is stored in S3 and the object key recorded on the event; the
// response carries a presigned URL for immediate display.
func (h *Handler) UploadBanner(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "banner storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	role := models.Role(c.MustGet(auth.ContextUserRole).(string))

	current, err := h.svc.AuthorizeMutate(c.Request.Context(), id, userID, role)
	if err != nil {
		h.fail(c, err)
		return
	}

	header, err := c.FormFile("banner")
	if err != nil {
		response.BadRequest(c, "banner file is required")
		return
	}
	if header.Size > storage.MaxBannerFileSize {
		response.BadRequest(c, "banner exceeds the 5MB limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateBannerFileType(contentType, header.Filename) {
		response.BadRequest(c, "banner must be a JPEG, PNG, GIF or WebP image")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(header.Filename)
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("open banner upload failed", zap.Error(err))
		response.Internal(c, "could not read upload")
		return
	}
	defer file.Close()

	key := storage.BannerKey(id.String(), header.Filename)
	if err := h.s3.UploadBanner(c.Request.Context(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("banner upload failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "banner upload failed")
		return
	}
	if err := h.svc.SetBanner(c.Request.Context(), id, key); err != nil {
		h.fail(c, err)
		return
	}
	if old := current.BannerKey; old != "" && old != key {
		if err := h.s3.DeleteBanner(c.Request.Context(), old); err != nil {
			h.logger.Warn("delete replaced banner failed", zap.Error(err), zap.String("key", old))
		}
	}

	url, err := h.s3.PresignedBannerURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Warn("presign banner failed", zap.Error(err), zap.String("event_id", id.String()))
	}
	response.OK(c, gin.H{"banner_url": url})
}
