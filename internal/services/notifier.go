package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"baytna-backend/internal/events"
	"baytna-backend/internal/metrics"
	"baytna-backend/internal/models"
	"baytna-backend/internal/push"
	"baytna-backend/pkg/utils"

	"github.com/sony/gobreaker"
	"gorm.io/gorm"
)

const deliveryTimeout = 30 * time.Second

// Notice is the content of one notification, fanned out to many recipients.
type Notice struct {
	Title   string
	Body    string
	Section models.Section
	URL     string
	Tag     string
}

// Broadcaster pushes realtime frames to connected browsers.
type Broadcaster interface {
	SendToUser(userID uint64, msgType string, payload interface{})
}

type UnreadCounts struct {
	Sections map[models.Section]int64 `json:"sections"`
	Total    int64                    `json:"total"`
}

// Dispatcher stores notifications and delivers them on a best-effort basis.
// Storing is synchronous; push, realtime and event delivery run in the
// background and never fail the caller.
type Dispatcher struct {
	db     *gorm.DB
	sender push.Sender
	rt     Broadcaster
	pub    events.Publisher
	icon   string
	wg     sync.WaitGroup
}

// NewDispatcher accepts nil for sender and rt when the channel is not
// configured.
func NewDispatcher(db *gorm.DB, sender push.Sender, rt Broadcaster, pub events.Publisher) *Dispatcher {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Dispatcher{db: db, sender: sender, rt: rt, pub: pub, icon: "/icons/icon-192.png"}
}

// Notify stores one row per recipient and starts delivery. Duplicate and
// zero ids are dropped.
func (d *Dispatcher) Notify(ctx context.Context, recipients []uint64, n Notice) error {
	if !n.Section.Valid() {
		n.Section = models.SectionHome
	}
	ids := uniqueIDs(recipients)
	if len(ids) == 0 {
		return nil
	}

	rows := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.Notification{
			UserID:  id,
			Title:   n.Title,
			Body:    n.Body,
			Section: n.Section,
			URL:     n.URL,
		})
	}
	if err := d.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Section)).Add(float64(len(rows)))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(rows, n)
	}()
	return nil
}

// NotifyCapable notifies every active user holding capability, except exclude.
func (d *Dispatcher) NotifyCapable(ctx context.Context, capability models.Capability, exclude uint64, n Notice) error {
	ids, err := d.RecipientsWith(ctx, capability)
	if err != nil {
		return err
	}
	return d.Notify(ctx, without(ids, exclude), n)
}

// NotifyRole notifies every active user of role, except exclude.
func (d *Dispatcher) NotifyRole(ctx context.Context, role models.Role, exclude uint64, n Notice) error {
	var ids []uint64
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	return d.Notify(ctx, without(ids, exclude), n)
}

// RecipientsWith returns the ids of active users holding capability.
func (d *Dispatcher) RecipientsWith(ctx context.Context, capability models.Capability) ([]uint64, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Where("is_active = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(users))
	for i := range users {
		if users[i].Can(capability) {
			ids = append(ids, users[i].ID)
		}
	}
	return ids, nil
}

// Wait blocks until every background delivery started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) List(ctx context.Context, userID uint64, section models.Section, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := d.db.WithContext(ctx).Where("user_id = ?", userID)
	if section != "" {
		q = q.Where("section = ?", section)
	}
	var list []models.Notification
	err := q.Order("created_at desc, id desc").Limit(limit).Find(&list).Error
	return list, err
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID uint64, section models.Section) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND section = ? AND is_read = ?", userID, section, false).
		Count(&n).Error
	return n, err
}

// UnreadCounts returns the unread count of every section plus the total.
func (d *Dispatcher) UnreadCounts(ctx context.Context, userID uint64) (UnreadCounts, error) {
	type row struct {
		Section models.Section
		Count   int64
	}
	var rows []row
	err := d.db.WithContext(ctx).Model(&models.Notification{}).
		Select("section, COUNT(*) AS count").
		Where("user_id = ? AND is_read = ?", userID, false).
		Group("section").
		Scan(&rows).Error
	if err != nil {
		return UnreadCounts{}, err
	}

	out := UnreadCounts{Sections: make(map[models.Section]int64, len(models.Sections))}
	for _, s := range models.Sections {
		out.Sections[s] = 0
	}
	for _, r := range rows {
		out.Sections[r.Section] = r.Count
		out.Total += r.Count
	}
	return out, nil
}

func (d *Dispatcher) MarkRead(ctx context.Context, userID, id uint64) error {
	res := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := d.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return utils.ErrNotFound("notification")
		}
	}
	d.pushBadge(ctx, userID)
	return nil
}

// MarkAllRead marks the user's notifications read, limited to section when
// it is not empty.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID uint64, section models.Section) (int64, error) {
	q := d.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)
	if section != "" {
		q = q.Where("section = ?", section)
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	d.pushBadge(ctx, userID)
	return res.RowsAffected, nil
}

func (d *Dispatcher) pushBadge(ctx context.Context, userID uint64) {
	if d.rt == nil {
		return
	}
	counts, err := d.UnreadCounts(ctx, userID)
	if err != nil {
		log.Printf("[Notify] unread counts for user %d: %v", userID, err)
		return
	}
	d.rt.SendToUser(userID, "badge", counts)
}

func (d *Dispatcher) deliver(rows []models.Notification, n Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	for i := range rows {
		row := rows[i]
		counts, err := d.UnreadCounts(ctx, row.UserID)
		if err != nil {
			log.Printf("[Notify] unread counts for user %d: %v", row.UserID, err)
		}

		if d.sender != nil {
			d.pushTo(ctx, row.UserID, push.Message{
				Title:      n.Title,
				Body:       n.Body,
				Icon:       d.icon,
				URL:        n.URL,
				Tag:        n.Tag,
				BadgeCount: counts.Total,
			})
		}
		if d.rt != nil {
			d.rt.SendToUser(row.UserID, "notification", map[string]interface{}{
				"notification": row,
				"unread":       counts,
			})
		}
		if err := d.pub.Publish(ctx, events.NotificationCreated, map[string]interface{}{
			"notification_id": row.ID,
			"user_id":         row.UserID,
			"section":         row.Section,
		}); err != nil {
			log.Printf("[Notify] publish event: %v", err)
		}
	}
}

func (d *Dispatcher) pushTo(ctx context.Context, userID uint64, msg push.Message) {
	var subs []models.PushSubscription
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		log.Printf("[Push] load subscriptions for user %d: %v", userID, err)
		return
	}
	for _, s := range subs {
		err := d.sender.Send(ctx, push.Target{Endpoint: s.Endpoint, P256dh: s.P256dh, Auth: s.Auth}, msg)
		d.recordPush("webpush", err)
		if errors.Is(err, push.ErrSubscriptionGone) {
			if err := d.db.WithContext(ctx).Delete(&models.PushSubscription{}, s.ID).Error; err != nil {
				log.Printf("[Push] delete expired subscription %d: %v", s.ID, err)
			} else {
				log.Printf("[Push] removed expired subscription %d of user %d", s.ID, userID)
			}
		}
	}

	var tokens []string
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Pluck("fcm_token", &tokens).Error; err != nil {
		log.Printf("[Push] load fcm token of user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 || tokens[0] == "" {
		return
	}
	token := tokens[0]
	err := d.sender.Send(ctx, push.Target{FCMToken: token}, msg)
	if errors.Is(err, push.ErrNoChannel) {
		return
	}
	d.recordPush("fcm", err)
	if errors.Is(err, push.ErrSubscriptionGone) {
		if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
			Update("fcm_token", "").Error; err != nil {
			log.Printf("[Push] clear fcm token of user %d: %v", userID, err)
		}
	}
}

func (d *Dispatcher) recordPush(channel string, err error) {
	outcome := "sent"
	switch {
	case err == nil:
	case errors.Is(err, push.ErrSubscriptionGone):
		outcome = "gone"
	case errors.Is(err, push.ErrNoChannel):
		outcome = "no_channel"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "breaker_open"
	default:
		outcome = "failed"
		log.Printf("[Push] %s delivery failed: %v", channel, err)
	}
	metrics.PushDeliveries.WithLabelValues(channel, outcome).Inc()
}

// notify runs a dispatcher call and logs instead of failing the primary write.
func notify(what string, err error) {
	if err != nil {
		log.Printf("[Notify] %s: %v", what, err)
	}
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func without(ids []uint64, exclude uint64) []uint64 {
	out := ids[:0:0]
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// Publisher returns the event publisher shared with the other services.
func (d *Dispatcher) Publisher() events.Publisher {
	return d.pub
}
