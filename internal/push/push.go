package push

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrSubscriptionGone means the push service no longer knows the subscription
// (HTTP 404/410). The caller should forget it.
var ErrSubscriptionGone = errors.New("push subscription expired")

// ErrNoChannel is returned when a target has nothing a sender can deliver to.
var ErrNoChannel = errors.New("no push channel for target")

// Message is what the service worker receives.
type Message struct {
	Title      string
	Body       string
	Icon       string
	URL        string
	Tag        string
	BadgeCount int64
}

type payload struct {
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	Icon       string      `json:"icon,omitempty"`
	Data       payloadData `json:"data"`
	Tag        string      `json:"tag,omitempty"`
	BadgeCount int64       `json:"badgeCount"`
}

type payloadData struct {
	URL string `json:"url"`
}

// Payload encodes the message in the shape the service worker expects:
// {title, body, icon, data: {url}, tag, badgeCount}.
func (m Message) Payload() ([]byte, error) {
	url := m.URL
	if url == "" {
		url = "/"
	}
	return json.Marshal(payload{
		Title:      m.Title,
		Body:       m.Body,
		Icon:       m.Icon,
		Data:       payloadData{URL: url},
		Tag:        m.Tag,
		BadgeCount: m.BadgeCount,
	})
}

// Target is one device of a recipient: either a Web Push subscription or an
// FCM registration token.
type Target struct {
	Endpoint string
	P256dh   string
	Auth     string
	FCMToken string
}

func (t Target) IsWebPush() bool { return t.Endpoint != "" }

type Sender interface {
	Send(ctx context.Context, target Target, msg Message) error
}

// Router dispatches to the Web Push or FCM sender depending on the target.
// Either sender may be nil when its channel is not configured.
type Router struct {
	WebPush Sender
	FCM     Sender
}

func (r *Router) Send(ctx context.Context, target Target, msg Message) error {
	switch {
	case target.IsWebPush() && r.WebPush != nil:
		return r.WebPush.Send(ctx, target, msg)
	case target.FCMToken != "" && r.FCM != nil:
		return r.FCM.Send(ctx, target, msg)
	default:
		return ErrNoChannel
	}
}
