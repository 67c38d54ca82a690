package events

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/auth"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/pkg/queue"
	"github.com/gatherly/backend/pkg/response"
	"github.com/gatherly/backend/pkg/storage"
)

// CreateRequest is the body for POST /api/events.
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Capacity    int    `json:"capacity" binding:"required"`
}

// UpdateRequest is the body for PUT /api/events/:id. Absent fields are left
// unchanged; the organizer is never updatable.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	Capacity    *int    `json:"capacity"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	users  *auth.Repository
	queue  *queue.Queue
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an events handler. queue and s3 may be nil; confirmation
// emails and banner URLs are skipped when the backing service is not
// configured.
func NewHandler(svc *Service, users *auth.Repository, q *queue.Queue, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, users: users, queue: q, s3: s3, logger: logger}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrNotRegistered),
		errors.Is(err, ErrCapacityBelowAttendance),
		IsValidation(err):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("event operation failed", zap.Error(err), zap.String("path", c.FullPath()))
		response.Internal(c, "internal error")
	}
}

// List handles GET /api/events (public).
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/events/:id (public). Attendees and organizer come back
// expanded; the banner URL is presigned when a banner exists.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if detail.BannerKey != "" && h.s3 != nil {
		url, err := h.s3.PresignedBannerURL(c.Request.Context(), detail.BannerKey)
		if err != nil {
			h.logger.Warn("presign banner failed", zap.Error(err), zap.String("event_id", id.String()))
		} else {
			detail.BannerURL = url
		}
	}
	response.OK(c, detail)
}

// Create handles POST /api/events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	date, err := parseTime(req.Date)
	if err != nil {
		response.BadRequest(c, "date must be RFC3339")
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	summary, err := h.svc.Create(c.Request.Context(), CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Date:        date,
		Capacity:    req.Capacity,
	}, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, summary)
}

// Update handles PUT /api/events/:id (organizer or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	params := UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Capacity:    req.Capacity,
	}
	if req.Date != nil {
		t, err := parseTime(*req.Date)
		if err != nil {
			response.BadRequest(c, "date must be RFC3339")
			return
		}
		params.Date = &t
	}

	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	role := models.Role(c.MustGet(auth.ContextUserRole).(string))

	summary, err := h.svc.Update(c.Request.Context(), id, params, userID, role)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, summary)
}

// Delete handles DELETE /api/events/:id (organizer or admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)
	role := models.Role(c.MustGet(auth.ContextUserRole).(string))

	removed, err := h.svc.Delete(c.Request.Context(), id, userID, role)
	if err != nil {
		h.fail(c, err)
		return
	}
	if removed.BannerKey != "" && h.s3 != nil {
		if err := h.s3.DeleteBanner(c.Request.Context(), removed.BannerKey); err != nil {
			h.logger.Warn("delete banner failed", zap.Error(err), zap.String("event_id", id.String()))
		}
	}
	response.Message(c, "Event removed")
}

// Register handles POST /api/events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	summary, err := h.svc.Register(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.enqueueEmail(c.Request.Context(), queue.EmailRegistrationConfirmed, summary, userID)
	response.OK(c, summary)
}

// Unregister handles POST /api/events/:id/unregister.
func (h *Handler) Unregister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	userID := c.MustGet(auth.ContextUserID).(uuid.UUID)

	summary, err := h.svc.Unregister(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.enqueueEmail(c.Request.Context(), queue.EmailRegistrationCancelled, summary, userID)
	response.OK(c, summary)
}

// enqueueEmail queues a notification for the registering user. Failures are
// logged, not surfaced; the registration itself already succeeded.
func (h *Handler) enqueueEmail(ctx context.Context, kind queue.EmailKind, summary *models.EventSummary, userID uuid.UUID) {
	if h.queue == nil || h.users == nil {
		return
	}
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.logger.Warn("load recipient failed", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	err = h.queue.EnqueueEmail(ctx, queue.EmailPayload{
		Kind:           kind,
		EventID:        summary.ID,
		EventTitle:     summary.Title,
		EventDate:      summary.Date,
		EventLocation:  summary.Location,
		RecipientEmail: user.Email,
		RecipientName:  user.Name,
	})
	if err != nil {
		h.logger.Warn("enqueue email failed", zap.Error(err), zap.String("event_id", summary.ID.String()))
	}
}
