package models

import "time"

// DeviceToken is the FCM registration token for a user's current device.
type DeviceToken struct {
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Role      Role      `bson:"role" json:"role"`
	DeviceID  string    `bson:"deviceId" json:"deviceId"`
	FCMToken  string    `bson:"fcmToken" json:"fcmToken"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
