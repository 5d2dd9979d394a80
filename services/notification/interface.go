package notification

import (
	"context"
	"errors"
	"fmt"

	"snapbook/apperr"
	deviceRepo "snapbook/database/repository/device"
	"snapbook/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ErrNoDeviceToken is returned when the recipient never registered a device.
var ErrNoDeviceToken = errors.New("recipient has no device token")

// Pusher delivers one push message to one account.
type Pusher interface {
	Push(ctx context.Context, recipientID string, msg models.PushMessage) error
}

// FCMSender is the part of *messaging.Client the pusher uses.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher looks up the recipient's FCM token and sends through Firebase.
type FCMPusher struct {
	Tokens deviceRepo.TokenRepository
	Client FCMSender
}

func NewFCMPusher(tokens deviceRepo.TokenRepository, client FCMSender) (*FCMPusher, error) {
	if tokens == nil || client == nil {
		return nil, fmt.Errorf("notification service initialization error: token store or fcm client is nil")
	}
	return &FCMPusher{Tokens: tokens, Client: client}, nil
}

func (p *FCMPusher) Push(ctx context.Context, recipientID string, msg models.PushMessage) error {
	device, err := p.Tokens.Get(ctx, recipientID)
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("push to %s: %w", recipientID, ErrNoDeviceToken)
	}
	if err != nil {
		return fmt.Errorf("push to %s: could not load device token: %w", recipientID, err)
	}
	if device.FCMToken == "" {
		return fmt.Errorf("push to %s: %w", recipientID, ErrNoDeviceToken)
	}

	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	if _, ok := data["role"]; !ok {
		data["role"] = string(device.Role)
	}

	message := &messaging.Message{
		Token: device.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := p.Client.Send(ctx, message); err != nil {
		return fmt.Errorf("push to %s: failed to send FCM message: %w", recipientID, err)
	}
	return nil
}

// LogPusher writes messages to the log. It is used when Firebase is not configured.
type LogPusher struct {
	Logger *zap.Logger
}

func (p LogPusher) Push(_ context.Context, recipientID string, msg models.PushMessage) error {
	p.Logger.Info("push (log only)",
		zap.String("recipientId", recipientID),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body))
	return nil
}
