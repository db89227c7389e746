package handlers

import (
	"fmt"
	"log"
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/internal/services"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListShortages(c *gin.Context) {
	status := c.DefaultQuery("status", string(models.ShortagePending))
	q := h.orm(c).Preload("Reporter").Order("created_at desc")
	if status != "all" {
		q = q.Where("status = ?", status)
	}
	var list []models.Shortage
	if err := q.Find(&list).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "shortages", list)
}

func (h *Handler) CreateShortage(c *gin.Context) {
	var input models.ShortageInput
	if !bind(c, &input) {
		return
	}
	user := currentUser(c)
	shortage := models.Shortage{
		Name:       input.Name,
		Quantity:   input.Quantity,
		Notes:      input.Notes,
		ProductID:  input.ProductID,
		ReportedBy: user.ID,
		Status:     models.ShortagePending,
	}
	if err := h.orm(c).Create(&shortage).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.notifier.NotifyCapable(c.Request.Context(), models.CapApproveOrders, user.ID, services.Notice{
		Title:   "Running low",
		Body:    fmt.Sprintf("%s reported %s is running out", user.FullName, shortage.Name),
		Section: models.SectionGroceries,
		URL:     "/groceries/shortages",
		Tag:     "shortages",
	}); err != nil {
		log.Printf("[Notify] new shortage: %v", err)
	}
	utils.APIResponse(c, http.StatusCreated, true, "shortage reported", shortage)
}

func (h *Handler) ResolveShortage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	res := h.orm(c).Model(&models.Shortage{}).
		Where("id = ? AND status = ?", id, models.ShortagePending).
		Updates(map[string]interface{}{"status": models.ShortageResolved, "resolved_by": user.ID})
	if res.Error != nil {
		utils.RespondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, utils.ErrNotFound("pending shortage"))
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "shortage resolved", nil)
}

func (h *Handler) DeleteShortage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var shortage models.Shortage
	if err := h.orm(c).First(&shortage, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "shortage"))
		return
	}
	user := currentUser(c)
	if shortage.ReportedBy != user.ID && !user.IsAdmin() {
		utils.RespondError(c, utils.ErrForbidden("only the reporter can delete this shortage"))
		return
	}
	if err := h.orm(c).Delete(&shortage).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "shortage deleted", nil)
}
