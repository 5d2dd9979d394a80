package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"snapbook/models"
)

// UploadResult identifies a stored photo and its thumbnail.
type UploadResult struct {
	FileRef      string `json:"fileRef"`
	ThumbnailRef string `json:"thumbnailRef"`
}

// PhotoStorage holds the binaries behind photo records.
type PhotoStorage interface {
	Upload(ctx context.Context, file io.Reader, filename, folder string) (*UploadResult, error)
	Delete(ctx context.Context, fileRef string) error
	DownloadURL(ctx context.Context, fileRef string) (string, error)
	EnhancedURL(fileRef string, settings models.EnhanceSettings) (string, error)
}

// EnhanceTransformation renders settings as a chained delivery transformation.
func EnhanceTransformation(settings models.EnhanceSettings) string {
	var steps []string
	if settings.AutoImprove {
		steps = append(steps, "e_improve")
	}
	if settings.Brightness != 0 {
		steps = append(steps, fmt.Sprintf("e_brightness:%d", clamp(settings.Brightness)))
	}
	if settings.Contrast != 0 {
		steps = append(steps, fmt.Sprintf("e_contrast:%d", clamp(settings.Contrast)))
	}
	if settings.Saturation != 0 {
		steps = append(steps, fmt.Sprintf("e_saturation:%d", clamp(settings.Saturation)))
	}
	if len(steps) == 0 {
		steps = append(steps, "e_improve")
	}
	return strings.Join(steps, "/")
}

func clamp(v int) int {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
