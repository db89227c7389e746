package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// WebPushSender delivers VAPID-signed Web Push messages.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	client     webpush.HTTPClient
}

func NewWebPushSender(publicKey, privateKey, subject string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		// the library adds the mailto: prefix itself
		subscriber: strings.TrimPrefix(subject, "mailto:"),
		ttl:        24 * 60 * 60,
		client:     &http.Client{},
	}
}

// WithHTTPClient swaps the HTTP client, mainly for tests.
func (s *WebPushSender) WithHTTPClient(c webpush.HTTPClient) *WebPushSender {
	s.client = c
	return s
}

func (s *WebPushSender) Send(ctx context.Context, target Target, msg Message) error {
	if !target.IsWebPush() {
		return ErrNoChannel
	}
	body, err := msg.Payload()
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.P256dh,
			Auth:   target.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("webpush: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webpush: push service answered %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
