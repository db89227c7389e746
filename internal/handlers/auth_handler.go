package handlers

import (
	"log"
	"net/http"

	"baytna-backend/internal/middleware"
	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) Login(c *gin.Context) {
	var input models.LoginInput
	if !bind(c, &input) {
		return
	}

	var user models.User
	if err := h.orm(c).Where("username = ? AND is_active = ?", input.Username, true).First(&user).Error; err != nil {
		utils.RespondError(c, utils.ErrUnauthorized("invalid username or password"))
		return
	}
	if !utils.CheckPassword(input.Password, user.PasswordHash) {
		utils.RespondError(c, utils.ErrUnauthorized("invalid username or password"))
		return
	}

	// Android clients register their FCM token at login.
	if input.FCMToken != "" && input.FCMToken != user.FCMToken {
		if err := h.orm(c).Model(&user).Update("fcm_token", input.FCMToken).Error; err != nil {
			log.Printf("[Auth] store fcm token of %s: %v", user.Username, err)
		} else {
			user.FCMToken = input.FCMToken
		}
	}

	sid := uuid.NewString()
	ttl := h.cfg.Auth.SessionTTL
	token, err := utils.GenerateToken(h.cfg.Auth.JWTSecret, user.ID, string(user.Role), sid, ttl)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.sessions.Create(c.Request.Context(), sid, user.ID, ttl); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", h.cfg.Auth.CookieSecure, true)
	log.Printf("[Auth] %s logged in", user.Username)

	utils.APIResponse(c, http.StatusOK, true, "logged in", gin.H{
		"token": token,
		"user":  user.Public(),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), middleware.SessionID(c)); err != nil {
		log.Printf("[Auth] revoke session: %v", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cfg.Auth.CookieSecure, true)
	utils.APIResponse(c, http.StatusOK, true, "logged out", nil)
}

func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	counts, err := h.notifier.UnreadCounts(c.Request.Context(), user.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "current user", gin.H{
		"user":   user.Public(),
		"unread": counts,
	})
}
