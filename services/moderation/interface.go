package moderation

import (
	"context"
	"time"

	photoRepo "snapbook/database/repository/photo"
	"snapbook/models"
	"snapbook/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterUploadInput references a binary already written to storage.
type RegisterUploadInput struct {
	BookingID      string `json:"bookingId"`
	ClientID       string `json:"clientId"`
	PhotographerID string `json:"photographerId"`
	FileRef        string `json:"fileRef" binding:"required"`
	ThumbnailRef   string `json:"thumbnailRef"`
}

// EnhanceInput carries an enhanced derivative. An empty EnhancedRef asks the
// configured Enhancer to derive one from the photo's file.
type EnhanceInput struct {
	EnhancedRef string                 `json:"enhancedRef"`
	Settings    models.EnhanceSettings `json:"settings"`
}

// BulkResult is the outcome for one photo of a bulk operation.
type BulkResult struct {
	PhotoID     string        `json:"photoId"`
	Photo       *models.Photo `json:"photo,omitempty"`
	URL         string        `json:"url,omitempty"`
	EnhancedURL string        `json:"enhancedUrl,omitempty"`
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
	Code        string        `json:"code,omitempty"`
}

// ModerationService owns the photo review flow of completed bookings.
type ModerationService interface {
	RegisterUpload(ctx context.Context, actor models.Actor, input RegisterUploadInput) (*models.Photo, error)
	ApprovePhoto(ctx context.Context, photoID string, actor models.Actor) (*models.Photo, error)
	RejectPhoto(ctx context.Context, photoID string, actor models.Actor, reason string) (*models.Photo, error)
	ReplacePhoto(ctx context.Context, photoID string, actor models.Actor, newFileRef, newThumbnailRef string) (*models.Photo, error)
	EnhancePhoto(ctx context.Context, photoID string, actor models.Actor, input EnhanceInput) (*models.Photo, error)

	BulkApprove(ctx context.Context, photoIDs []string, actor models.Actor) ([]BulkResult, error)
	BulkReject(ctx context.Context, photoIDs []string, actor models.Actor, reason string) ([]BulkResult, error)
	BulkDownload(ctx context.Context, photoIDs []string, actor models.Actor) ([]BulkResult, error)

	GetPhoto(ctx context.Context, photoID string, actor models.Actor) (*models.Photo, error)
	ListPhotos(ctx context.Context, actor models.Actor, filter models.PhotoFilter) ([]models.Photo, error)
}

// BookingReader is the slice of the booking store moderation reads.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// URLSigner turns a stored file reference into a time-limited download URL.
type URLSigner interface {
	DownloadURL(ctx context.Context, fileRef string) (string, error)
}

// Enhancer derives the reference of an enhanced copy of fileRef.
type Enhancer interface {
	EnhancedURL(fileRef string, settings models.EnhanceSettings) (string, error)
}

// DefaultModerationService implements ModerationService.
type DefaultModerationService struct {
	Photos   photoRepo.PhotoRepository
	Bookings BookingReader
	Signer   URLSigner
	Enhancer Enhancer
	Events   events.Publisher
	Logger   *zap.Logger

	// BulkConcurrency bounds the fan-out of bulk operations.
	BulkConcurrency int
	MaxBulk         int

	Now   func() time.Time
	NewID func() string
}

func NewModerationService(
	photos photoRepo.PhotoRepository,
	bookings BookingReader,
	signer URLSigner,
	enhancer Enhancer,
	pub events.Publisher,
	logger *zap.Logger,
) *DefaultModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultModerationService{
		Photos:          photos,
		Bookings:        bookings,
		Signer:          signer,
		Enhancer:        enhancer,
		Events:          pub,
		Logger:          logger,
		BulkConcurrency: 8,
		MaxBulk:         100,
		Now:             func() time.Time { return time.Now().UTC() },
		NewID:           uuid.NewString,
	}
}
