package handlers

import (
	"context"
	"net/http"
	"path"

	"snapbook/apperr"
	"snapbook/models"
	"snapbook/services/moderation"
	"snapbook/services/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PhotoHandler exposes upload, moderation and delivery of booking photos.
type PhotoHandler struct {
	Moderation moderation.ModerationService
	Storage    storage.PhotoStorage
	Bookings   moderation.BookingReader
	Logger     *zap.Logger
}

func NewPhotoHandler(svc moderation.ModerationService, store storage.PhotoStorage, bookings moderation.BookingReader, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{Moderation: svc, Storage: store, Bookings: bookings, Logger: logger}
}

// UploadPhoto handles POST /bookings/:id/photos. A multipart "file" is pushed
// to storage first; a JSON body registers a binary that is already stored.
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	logger := getLogger(c, h.Logger)
	bookingID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var input moderation.RegisterUploadInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "file or fileRef must be provided", err)
			return
		}
		input.BookingID = bookingID
		photo, err := h.Moderation.RegisterUpload(c.Request.Context(), actor, input)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"photo": photo})
		return
	}

	// Check permissions before paying for the upload.
	b, err := h.Bookings.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	if actor.Role != models.RoleAdmin && !actor.Is(models.RolePhotographer, b.PhotographerID) {
		respondError(c, logger, apperr.ErrUnauthorized)
		return
	}
	if b.Status != models.BookingCompleted {
		respondError(c, logger, apperr.ErrBookingNotCompleted)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "failed to read file", err)
		return
	}
	defer file.Close()

	stored, err := h.Storage.Upload(c.Request.Context(), file, fileHeader.Filename, path.Join("bookings", bookingID))
	if err != nil {
		logger.Error("Photo upload failed", zap.String("bookingId", bookingID), zap.Error(err))
		respondError(c, logger, err)
		return
	}

	photo, err := h.Moderation.RegisterUpload(c.Request.Context(), actor, moderation.RegisterUploadInput{
		BookingID:    bookingID,
		FileRef:      stored.FileRef,
		ThumbnailRef: stored.ThumbnailRef,
	})
	if err != nil {
		h.discard(c.Request.Context(), logger, stored.FileRef)
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photo": photo})
}

func (h *PhotoHandler) discard(ctx context.Context, logger *zap.Logger, fileRef string) {
	if err := h.Storage.Delete(context.WithoutCancel(ctx), fileRef); err != nil {
		logger.Warn("Failed to delete orphaned upload", zap.String("fileRef", fileRef), zap.Error(err))
	}
}

// GetPhoto handles GET /photos/:id.
func (h *PhotoHandler) GetPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	photo, err := h.Moderation.GetPhoto(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

// ListPhotos handles GET /photos?bookingId=&status=.
func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var filter models.PhotoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid query", err)
		return
	}
	photos, err := h.Moderation.ListPhotos(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos, "count": len(photos)})
}

// ApprovePhoto handles POST /photos/:id/approve.
func (h *PhotoHandler) ApprovePhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	photo, err := h.Moderation.ApprovePhoto(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

type rejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectPhoto handles POST /photos/:id/reject.
func (h *PhotoHandler) RejectPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "reason is required", err)
		return
	}
	photo, err := h.Moderation.RejectPhoto(c.Request.Context(), c.Param("id"), actor, input.Reason)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

// ReplacePhoto handles PUT /photos/:id/file. Like UploadPhoto it takes either
// a multipart file or a JSON body naming stored refs.
func (h *PhotoHandler) ReplacePhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	logger := getLogger(c, h.Logger)
	photoID := c.Param("id")

	var input struct {
		FileRef      string `json:"fileRef" binding:"required"`
		ThumbnailRef string `json:"thumbnailRef"`
	}
	uploaded := false
	if fileHeader, err := c.FormFile("file"); err == nil {
		if actor.Role != models.RoleAdmin {
			respondError(c, logger, apperr.ErrUnauthorized)
			return
		}
		current, err := h.Moderation.GetPhoto(c.Request.Context(), photoID, actor)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			badRequest(c, "failed to read file", err)
			return
		}
		defer file.Close()
		stored, err := h.Storage.Upload(c.Request.Context(), file, fileHeader.Filename, path.Join("bookings", current.BookingID))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		input.FileRef, input.ThumbnailRef = stored.FileRef, stored.ThumbnailRef
		uploaded = true
	} else if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "file or fileRef must be provided", err)
		return
	}

	photo, err := h.Moderation.ReplacePhoto(c.Request.Context(), photoID, actor, input.FileRef, input.ThumbnailRef)
	if err != nil {
		if uploaded {
			h.discard(c.Request.Context(), logger, input.FileRef)
		}
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

// EnhancePhoto handles POST /photos/:id/enhance.
func (h *PhotoHandler) EnhancePhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input moderation.EnhanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid input", err)
		return
	}
	photo, err := h.Moderation.EnhancePhoto(c.Request.Context(), c.Param("id"), actor, input)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo})
}

// DownloadPhoto handles GET /photos/:id/download.
func (h *PhotoHandler) DownloadPhoto(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	results, err := h.Moderation.BulkDownload(c.Request.Context(), []string{c.Param("id")}, actor)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	if r := results[0]; r.Err != nil {
		respondError(c, getLogger(c, h.Logger), r.Err)
		return
	}
	c.JSON(http.StatusOK, results[0])
}

type bulkInput struct {
	PhotoIDs []string `json:"photoIds" binding:"required"`
	Reason   string   `json:"reason"`
}

func (h *PhotoHandler) bulk(c *gin.Context, run func(ctx context.Context, ids []string, actor models.Actor, reason string) ([]moderation.BulkResult, error)) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var input bulkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid input", err)
		return
	}
	if len(input.PhotoIDs) == 0 {
		badRequest(c, "invalid input", errEmptyIDs)
		return
	}
	results, err := run(c.Request.Context(), input.PhotoIDs, actor, input.Reason)
	if err != nil {
		respondError(c, getLogger(c, h.Logger), err)
		return
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "failed": failed})
}

// BulkApprove handles POST /photos/bulk/approve.
func (h *PhotoHandler) BulkApprove(c *gin.Context) {
	h.bulk(c, func(ctx context.Context, ids []string, actor models.Actor, _ string) ([]moderation.BulkResult, error) {
		return h.Moderation.BulkApprove(ctx, ids, actor)
	})
}

// BulkReject handles POST /photos/bulk/reject.
func (h *PhotoHandler) BulkReject(c *gin.Context) {
	h.bulk(c, h.Moderation.BulkReject)
}

// BulkDownload handles POST /photos/bulk/download.
func (h *PhotoHandler) BulkDownload(c *gin.Context) {
	h.bulk(c, func(ctx context.Context, ids []string, actor models.Actor, _ string) ([]moderation.BulkResult, error) {
		return h.Moderation.BulkDownload(ctx, ids, actor)
	})
}
