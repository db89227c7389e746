package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"baytna-backend/internal/metrics"
	"baytna-backend/internal/models"

	"gorm.io/gorm"
)

var (
	finishedTripStatuses  = []models.TripStatus{models.TripCompleted, models.TripRejected, models.TripCancelled}
	finishedOrderStatuses = []models.OrderStatus{models.OrderCompleted, models.OrderRejected}
)

type SweepResult struct {
	Notifications   int64 `json:"notifications"`
	Trips           int64 `json:"trips"`
	Orders          int64 `json:"orders"`
	OrderItems      int64 `json:"order_items"`
	LaundryRequests int64 `json:"laundry_requests"`
}

// Cleaner deletes stale rows on an interval. It is a plain ticker, not a
// durable job queue: a sweep missed during downtime simply runs later.
type Cleaner struct {
	db                    *gorm.DB
	notificationRetention time.Duration
	historyRetention      time.Duration
}

func NewCleaner(db *gorm.DB, notificationRetention, historyRetention time.Duration) *Cleaner {
	return &Cleaner{
		db:                    db,
		notificationRetention: notificationRetention,
		historyRetention:      historyRetention,
	}
}

// Sweep removes notifications older than the notification retention and
// finished trips, orders and laundry requests older than the history
// retention, measured from their last update.
func (c *Cleaner) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	notifCutoff := now.UTC().Add(-c.notificationRetention)
	historyCutoff := now.UTC().Add(-c.historyRetention)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := tx.Where("created_at < ?", notifCutoff).Delete(&models.Notification{})
		if r.Error != nil {
			return r.Error
		}
		res.Notifications = r.RowsAffected

		r = tx.Where("status IN ? AND updated_at < ?", finishedTripStatuses, historyCutoff).Delete(&models.Trip{})
		if r.Error != nil {
			return r.Error
		}
		res.Trips = r.RowsAffected

		oldOrders := tx.Model(&models.Order{}).Select("id").
			Where("status IN ? AND updated_at < ?", finishedOrderStatuses, historyCutoff)
		r = tx.Where("order_id IN (?)", oldOrders).Delete(&models.OrderItem{})
		if r.Error != nil {
			return r.Error
		}
		res.OrderItems = r.RowsAffected

		r = tx.Where("status IN ? AND updated_at < ?", finishedOrderStatuses, historyCutoff).Delete(&models.Order{})
		if r.Error != nil {
			return r.Error
		}
		res.Orders = r.RowsAffected

		r = tx.Where("status = ? AND updated_at < ?", models.LaundryCompleted, historyCutoff).Delete(&models.LaundryRequest{})
		if r.Error != nil {
			return r.Error
		}
		res.LaundryRequests = r.RowsAffected
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	metrics.CleanupDeleted.WithLabelValues("notifications").Add(float64(res.Notifications))
	metrics.CleanupDeleted.WithLabelValues("trips").Add(float64(res.Trips))
	metrics.CleanupDeleted.WithLabelValues("orders").Add(float64(res.Orders))
	metrics.CleanupDeleted.WithLabelValues("order_items").Add(float64(res.OrderItems))
	metrics.CleanupDeleted.WithLabelValues("laundry_requests").Add(float64(res.LaundryRequests))
	return res, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
// A non-positive interval is refused before any sweep.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Cleanup] stopped")
			return nil
		case <-ticker.C:
			c.sweepAndLog(ctx)
		}
	}
}

func (c *Cleaner) sweepAndLog(ctx context.Context) {
	res, err := c.Sweep(ctx, time.Now())
	if err != nil {
		log.Printf("[Cleanup] sweep failed: %v", err)
		return
	}
	log.Printf("[Cleanup] removed %d notifications, %d trips, %d orders (%d items), %d laundry requests",
		res.Notifications, res.Trips, res.Orders, res.OrderItems, res.LaundryRequests)
}
