package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// sectionParam reads ?section; empty means all sections.
func sectionParam(c *gin.Context) (models.Section, bool) {
	s := models.Section(c.Query("section"))
	if s != "" && !s.Valid() {
		utils.RespondError(c, utils.ErrValidation("unknown section %q", s))
		return "", false
	}
	return s, true
}

func (h *Handler) ListNotifications(c *gin.Context) {
	section, ok := sectionParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.notifier.List(c.Request.Context(), currentUser(c).ID, section, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "notifications", list)
}

// UnreadCount returns one number for ?section, or every section plus the
// total without it.
func (h *Handler) UnreadCount(c *gin.Context) {
	section, ok := sectionParam(c)
	if !ok {
		return
	}
	userID := currentUser(c).ID
	if section != "" {
		n, err := h.notifier.UnreadCount(c.Request.Context(), userID, section)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.APIResponse(c, http.StatusOK, true, "unread count", gin.H{"section": section, "count": n})
		return
	}
	counts, err := h.notifier.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "unread counts", counts)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifier.MarkRead(c.Request.Context(), currentUser(c).ID, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "notification read", nil)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	section, ok := sectionParam(c)
	if !ok {
		return
	}
	n, err := h.notifier.MarkAllRead(c.Request.Context(), currentUser(c).ID, section)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "notifications read", gin.H{"updated": n})
}

func (h *Handler) VAPIDPublicKey(c *gin.Context) {
	key := h.cfg.Push.VAPIDPublicKey
	if key == "" {
		utils.RespondError(c, utils.ErrNotFound("web push key"))
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "vapid public key", gin.H{"public_key": key})
}

// PushSubscribe stores the browser subscription. An endpoint seen before is
// moved to the current user with fresh keys.
func (h *Handler) PushSubscribe(c *gin.Context) {
	var input models.PushSubscribeInput
	if !bind(c, &input) {
		return
	}
	user := currentUser(c)

	var sub models.PushSubscription
	err := h.orm(c).Where("endpoint = ?", input.Endpoint).First(&sub).Error
	switch {
	case err == nil:
		err = h.orm(c).Model(&sub).Updates(map[string]interface{}{
			"user_id": user.ID,
			"p256dh":  input.Keys.P256dh,
			"auth":    input.Keys.Auth,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.PushSubscription{
			UserID:   user.ID,
			Endpoint: input.Endpoint,
			P256dh:   input.Keys.P256dh,
			Auth:     input.Keys.Auth,
		}
		err = h.orm(c).Create(&sub).Error
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "subscribed", nil)
}

func (h *Handler) PushUnsubscribe(c *gin.Context) {
	var input models.PushUnsubscribeInput
	if !bind(c, &input) {
		return
	}
	err := h.orm(c).Where("endpoint = ? AND user_id = ?", input.Endpoint, currentUser(c).ID).
		Delete(&models.PushSubscription{}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "unsubscribed", nil)
}
