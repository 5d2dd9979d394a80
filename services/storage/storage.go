package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"snapbook/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
)

const thumbnailTransformation = "c_thumb,g_auto,w_400,h_400"

// CloudinaryStorage keeps photos as authenticated Cloudinary assets so every
// delivery URL has to be signed.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage creates a new CloudinaryStorage instance.
func NewCloudinaryStorage(cld *cloudinary.Cloudinary, folder string) *CloudinaryStorage {
	return &CloudinaryStorage{cld: cld, folder: folder}
}

// Upload stores the file under folder and returns its public id and a signed thumbnail URL.
func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, filename, folder string) (*UploadResult, error) {
	uploadParams := uploader.UploadParams{
		Folder:   path.Join(s.folder, folder),
		PublicID: strings.TrimSuffix(path.Base(filename), path.Ext(filename)),
		Type:     api.Authenticated,
	}
	result, err := s.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return nil, fmt.Errorf("CloudinaryStorage: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("CloudinaryStorage: upload rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("CloudinaryStorage: no public ID returned")
	}

	thumb, err := s.signed(result.PublicID, thumbnailTransformation)
	if err != nil {
		return nil, err
	}
	return &UploadResult{FileRef: result.PublicID, ThumbnailRef: thumb}, nil
}

// Delete removes a file from Cloudinary given its public ID.
func (s *CloudinaryStorage) Delete(ctx context.Context, fileRef string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: fileRef, Type: string(api.Authenticated)})
	if err != nil {
		return fmt.Errorf("CloudinaryStorage: failed to delete file: %w", err)
	}
	return nil
}

// DownloadURL returns a signed delivery URL for the original.
func (s *CloudinaryStorage) DownloadURL(_ context.Context, fileRef string) (string, error) {
	return s.signed(fileRef, "fl_attachment")
}

// EnhancedURL returns a signed URL that renders the enhanced derivative on delivery.
func (s *CloudinaryStorage) EnhancedURL(fileRef string, settings models.EnhanceSettings) (string, error) {
	return s.signed(fileRef, EnhanceTransformation(settings))
}

func (s *CloudinaryStorage) signed(publicID, transformation string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("CloudinaryStorage: failed to get asset: %w", err)
	}
	img.DeliveryType = api.Authenticated
	img.Transformation = transformation
	img.Config.URL.SignURL = true
	img.Config.URL.Secure = true
	return url(img)
}

func url(a *asset.Asset) (string, error) {
	u, err := a.String()
	if err != nil {
		return "", fmt.Errorf("CloudinaryStorage: failed to get URL string: %w", err)
	}
	return u, nil
}
