package handlers

import (
	"net/http"
	"time"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDashboard returns the counters for the home screen. Every user gets
// their unread badges; the other blocks depend on what they can do.
func (h *Handler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)
	db := h.orm(c)

	unread, err := h.notifier.UnreadCounts(ctx, user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	stats := gin.H{"unread": unread}

	// The first failing query wins; later counts are skipped.
	var queryErr error
	count := func(q *gorm.DB) int64 {
		if queryErr != nil {
			return 0
		}
		var n int64
		queryErr = q.Count(&n).Error
		return n
	}

	stats["my_open_orders"] = count(db.Model(&models.Order{}).
		Where("created_by = ? AND status NOT IN ?", user.ID, []models.OrderStatus{models.OrderCompleted, models.OrderRejected}))
	stats["pending_shortages"] = count(db.Model(&models.Shortage{}).Where("status = ?", models.ShortagePending))

	if user.Can(models.CapApproveOrders) {
		stats["orders_awaiting_approval"] = count(db.Model(&models.Order{}).Where("status = ?", models.OrderPending))
	}
	if user.Can(models.CapApproveTrips) {
		stats["trips_awaiting_approval"] = count(db.Model(&models.Trip{}).Where("status = ?", models.TripPending))
	}
	if user.Can(models.CapDrive) {
		stats["orders_to_buy"] = count(db.Model(&models.Order{}).
			Where("status = ? AND (assigned_driver IS NULL OR assigned_driver = ?)", models.OrderApproved, user.ID))
		start := time.Now().UTC().Truncate(24 * time.Hour)
		stats["trips_today"] = count(db.Model(&models.Trip{}).
			Where("assigned_driver = ? AND departure_time >= ? AND departure_time < ? AND status IN ?",
				user.ID, start, start.Add(24*time.Hour),
				[]models.TripStatus{models.TripApproved, models.TripStarted, models.TripWaiting}))
	}
	if user.Role == models.RoleMaid || user.IsAdmin() {
		stats["open_laundry"] = count(db.Model(&models.LaundryRequest{}).Where("status <> ?", models.LaundryCompleted))

		var tasks []models.HousekeepingTask
		q := db.Where("is_active = ?", true)
		if !user.IsAdmin() {
			q = q.Where("assigned_to = ? OR assigned_to IS NULL", user.ID)
		}
		if err := q.Find(&tasks).Error; err != nil {
			utils.RespondError(c, err)
			return
		}
		due := 0
		now := time.Now()
		for _, t := range tasks {
			if t.IsDue(now) {
				due++
			}
		}
		stats["tasks_due"] = due
	}
	if user.IsAdmin() {
		stats["active_users"] = count(db.Model(&models.User{}).Where("is_active = ?", true))
		stats["active_trips"] = count(db.Model(&models.Trip{}).
			Where("status IN ?", []models.TripStatus{models.TripStarted, models.TripWaiting}))
	}
	if queryErr != nil {
		utils.RespondError(c, queryErr)
		return
	}

	utils.APIResponse(c, http.StatusOK, true, "dashboard", stats)
}
