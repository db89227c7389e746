package handlers

import (
	"log"
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type userView struct {
	models.User
	Capabilities []models.Capability `json:"capabilities"`
}

func viewUser(u models.User) userView {
	return userView{User: u, Capabilities: u.Capabilities().List()}
}

func (h *Handler) ListUsers(c *gin.Context) {
	q := h.orm(c).Order("full_name")
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if c.Query("active") == "true" {
		q = q.Where("is_active = ?", true)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	utils.APIResponse(c, http.StatusOK, true, "users", out)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var input models.CreateUserInput
	if !bind(c, &input) {
		return
	}

	var taken int64
	if err := h.orm(c).Unscoped().Model(&models.User{}).Where("username = ?", input.Username).Count(&taken).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if taken > 0 {
		utils.RespondError(c, utils.ErrConflict("username %s is already taken", input.Username))
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	user := models.User{
		Username:        input.Username,
		FullName:        input.FullName,
		PasswordHash:    hash,
		Role:            input.Role,
		CanApprove:      input.CanApprove,
		CanAddShortages: input.CanAddShortages,
		CanApproveTrips: input.CanApproveTrips,
		IsActive:        true,
	}
	if err := h.orm(c).Create(&user).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	log.Printf("[User] %s created as %s by user %d", user.Username, user.Role, currentUser(c).ID)
	utils.APIResponse(c, http.StatusCreated, true, "user created", viewUser(user))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateUserInput
	if !bind(c, &input) {
		return
	}

	var user models.User
	if err := h.orm(c).First(&user, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "user"))
		return
	}
	actor := currentUser(c)
	if actor.ID == id && ((input.IsActive != nil && !*input.IsActive) ||
		(input.Role != nil && *input.Role != models.RoleAdmin && user.Role == models.RoleAdmin)) {
		utils.RespondError(c, utils.ErrValidation("you cannot deactivate or demote yourself"))
		return
	}

	updates := map[string]interface{}{}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.CanApprove != nil {
		updates["can_approve"] = *input.CanApprove
	}
	if input.CanAddShortages != nil {
		updates["can_add_shortages"] = *input.CanAddShortages
	}
	if input.CanApproveTrips != nil {
		updates["can_approve_trips"] = *input.CanApproveTrips
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Password != nil {
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		updates["password_hash"] = hash
	}
	if len(updates) > 0 {
		if err := h.orm(c).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			utils.RespondError(c, err)
			return
		}
	}
	if (input.IsActive != nil && !*input.IsActive) || input.Password != nil {
		if err := h.sessions.RevokeUser(c.Request.Context(), id); err != nil {
			log.Printf("[User] revoke sessions of %d: %v", id, err)
		}
	}

	if err := h.orm(c).First(&user, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "user updated", viewUser(user))
}

// DeleteUser deactivates the account; history keeps pointing at it.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id == currentUser(c).ID {
		utils.RespondError(c, utils.ErrValidation("you cannot deactivate yourself"))
		return
	}
	res := h.orm(c).Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.RespondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, utils.ErrNotFound("user"))
		return
	}
	if err := h.sessions.RevokeUser(c.Request.Context(), id); err != nil {
		log.Printf("[User] revoke sessions of %d: %v", id, err)
	}
	utils.APIResponse(c, http.StatusOK, true, "user deactivated", nil)
}
