package storage

import (
	"context"
	"errors"
	"io"
	neturl "net/url"
	"strings"

	"snapbook/models"
)

// StaticURLs serves references as plain URLs under BaseURL. It backs local
// runs that have no Cloudinary account; uploads must go elsewhere.
type StaticURLs struct {
	BaseURL string
}

var ErrUploadUnsupported = errors.New("storage: uploads are not configured")

func (s StaticURLs) Upload(context.Context, io.Reader, string, string) (*UploadResult, error) {
	return nil, ErrUploadUnsupported
}

func (s StaticURLs) Delete(context.Context, string) error {
	return ErrUploadUnsupported
}

func (s StaticURLs) DownloadURL(_ context.Context, fileRef string) (string, error) {
	return strings.TrimRight(s.BaseURL, "/") + "/" + neturl.PathEscape(fileRef), nil
}

func (s StaticURLs) EnhancedURL(fileRef string, settings models.EnhanceSettings) (string, error) {
	return strings.TrimRight(s.BaseURL, "/") + "/" + neturl.PathEscape(fileRef) + "?t=" + neturl.QueryEscape(EnhanceTransformation(settings)), nil
}
