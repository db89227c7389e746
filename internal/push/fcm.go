package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// FCMSender sends through Firebase Cloud Messaging to a registration token.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initialises the Firebase app from a service account file.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Println("[Push] Firebase Cloud Messaging ready")
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, target Target, msg Message) error {
	if target.FCMToken == "" {
		return ErrNoChannel
	}

	message := &messaging.Message{
		Token: target.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: map[string]string{
			"url":        msg.URL,
			"tag":        msg.Tag,
			"badgeCount": fmt.Sprintf("%d", msg.BadgeCount),
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  msg.Icon,
				Tag:   msg.Tag,
			},
		},
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return ErrSubscriptionGone
		}
		return fmt.Errorf("fcm: %w", err)
	}
	return nil
}
