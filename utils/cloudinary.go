package utils

import (
	"fmt"

	"snapbook/config"

	"github.com/cloudinary/cloudinary-go/v2"
)

// NewCloudinary initializes the Cloudinary client from CLOUDINARY_URL.
func NewCloudinary(cfg *config.Config) (*cloudinary.Cloudinary, error) {
	if cfg.CloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("utils.NewCloudinary: failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return cld, nil
}
