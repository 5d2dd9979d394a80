package models

import "time"

// PhotoStatus is the moderation state of a single uploaded photo.
type PhotoStatus string

const (
	PhotoPending  PhotoStatus = "pending"
	PhotoApproved PhotoStatus = "approved"
	PhotoRejected PhotoStatus = "rejected"
)

// EnhanceSettings are the adjustments applied when producing an enhanced copy.
type EnhanceSettings struct {
	Brightness  int  `bson:"brightness" json:"brightness"`
	Contrast    int  `bson:"contrast" json:"contrast"`
	Saturation  int  `bson:"saturation" json:"saturation"`
	AutoImprove bool `bson:"autoImprove" json:"autoImprove"`
}

// Photo is a binary upload attached to a completed booking.
type Photo struct {
	ID              string           `bson:"id" json:"id"`
	BookingID       string           `bson:"bookingId" json:"bookingId"`
	ClientID        string           `bson:"clientId" json:"clientId"`
	PhotographerID  string           `bson:"photographerId" json:"photographerId"`
	Status          PhotoStatus      `bson:"status" json:"status"`
	FileRef         string           `bson:"fileRef" json:"fileRef"`
	ThumbnailRef    string           `bson:"thumbnailRef" json:"thumbnailRef"`
	IsEnhanced      bool             `bson:"isEnhanced" json:"isEnhanced"`
	EnhancedRef     string           `bson:"enhancedRef,omitempty" json:"enhancedRef,omitempty"`
	EnhanceSettings *EnhanceSettings `bson:"enhanceSettings,omitempty" json:"enhanceSettings,omitempty"`
	RejectionReason string           `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ReviewedBy      string           `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	Version         int64            `bson:"version" json:"version"`
	UploadedAt      time.Time        `bson:"uploadedAt" json:"uploadedAt"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// PhotoFilter narrows ListPhotos. Zero fields are ignored.
type PhotoFilter struct {
	BookingID      string        `form:"bookingId"`
	ClientID       string        `form:"clientId"`
	PhotographerID string        `form:"photographerId"`
	Statuses       []PhotoStatus `form:"status"`
	Limit          int64         `form:"limit"`
}
