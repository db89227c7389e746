package handlers

import (
	"net/http"
	"time"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ListMeals returns the plan between ?from and ?to (inclusive dates),
// defaulting to the coming seven days.
func (h *Handler) ListMeals(c *gin.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, to := today, today.AddDate(0, 0, 6)

	if raw := c.Query("from"); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		to = d
	}
	if to.Before(from) {
		utils.RespondError(c, utils.ErrValidation("to must not be before from"))
		return
	}

	var meals []models.Meal
	err := h.orm(c).Where("is_active = ? AND date >= ? AND date < ?", true, from, to.AddDate(0, 0, 1)).
		Order("date, meal_type").Find(&meals).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "meals", meals)
}

func (h *Handler) CreateMeal(c *gin.Context) {
	var input models.MealInput
	if !bind(c, &input) {
		return
	}
	meal := models.Meal{
		Date:        dateOnly(input.Date),
		MealType:    input.MealType,
		Title:       input.Title,
		Description: input.Description,
		CreatedBy:   currentUser(c).ID,
		IsActive:    true,
	}
	if err := h.orm(c).Create(&meal).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "meal planned", meal)
}

func (h *Handler) UpdateMeal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.MealInput
	if !bind(c, &input) {
		return
	}
	var meal models.Meal
	if err := h.orm(c).First(&meal, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "meal"))
		return
	}
	err := h.orm(c).Model(&meal).Updates(map[string]interface{}{
		"date":        dateOnly(input.Date),
		"meal_type":   input.MealType,
		"title":       input.Title,
		"description": input.Description,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&meal, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "meal updated", meal)
}

func (h *Handler) DeleteMeal(c *gin.Context) {
	h.softDelete(c, &models.Meal{}, "meal")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
