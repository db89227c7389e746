package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"baytna-backend/internal/models"
	"baytna-backend/internal/services"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListRooms(c *gin.Context) {
	var rooms []models.Room
	if err := h.orm(c).Where("is_active = ?", true).Order("floor, name").Find(&rooms).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "rooms", rooms)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var input models.RoomInput
	if !bind(c, &input) {
		return
	}
	room := models.Room{Name: input.Name, Floor: input.Floor, IsActive: true}
	if err := h.orm(c).Create(&room).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "room added", room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.RoomInput
	if !bind(c, &input) {
		return
	}
	var room models.Room
	if err := h.orm(c).First(&room, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "room"))
		return
	}
	if err := h.orm(c).Model(&room).Updates(map[string]interface{}{"name": input.Name, "floor": input.Floor}).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&room, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "room updated", room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	h.softDelete(c, &models.Room{}, "room")
}

type taskView struct {
	models.HousekeepingTask
	IsDue bool `json:"is_due"`
}

// ListTasks supports ?room_id, ?assigned_to=me|<id> and ?due=true.
func (h *Handler) ListTasks(c *gin.Context) {
	q := h.orm(c).Preload("Room").Preload("Assignee").Where("is_active = ?", true).Order("room_id, title")
	if rid := utils.StringToUint64(c.Query("room_id")); rid != 0 {
		q = q.Where("room_id = ?", rid)
	}
	switch a := c.Query("assigned_to"); a {
	case "":
	case "me":
		q = q.Where("assigned_to = ?", currentUser(c).ID)
	default:
		q = q.Where("assigned_to = ?", utils.StringToUint64(a))
	}

	var tasks []models.HousekeepingTask
	if err := q.Find(&tasks).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	now := time.Now()
	dueOnly := c.Query("due") == "true"
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		due := t.IsDue(now)
		if dueOnly && !due {
			continue
		}
		out = append(out, taskView{HousekeepingTask: t, IsDue: due})
	}
	utils.APIResponse(c, http.StatusOK, true, "tasks", out)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var input models.TaskInput
	if !bind(c, &input) {
		return
	}
	var room models.Room
	if err := h.orm(c).Where("id = ? AND is_active = ?", input.RoomID, true).First(&room).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "room"))
		return
	}
	if err := h.checkAssignee(c, input.AssignedTo); err != nil {
		utils.RespondError(c, err)
		return
	}

	user := currentUser(c)
	task := models.HousekeepingTask{
		RoomID:      input.RoomID,
		Title:       input.Title,
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		Frequency:   input.Frequency,
		Status:      models.TaskPending,
		DueDate:     input.DueDate,
		IsActive:    true,
		CreatedBy:   user.ID,
	}
	if task.Frequency == "" {
		task.Frequency = models.FrequencyOnce
	}
	if err := h.orm(c).Create(&task).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	h.notifyAssignee(c, user, &task, room.Name)
	utils.APIResponse(c, http.StatusCreated, true, "task created", task)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateTaskInput
	if !bind(c, &input) {
		return
	}
	var task models.HousekeepingTask
	if err := h.orm(c).Preload("Room").First(&task, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "task"))
		return
	}
	if err := h.checkAssignee(c, input.AssignedTo); err != nil {
		utils.RespondError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Frequency != nil {
		updates["frequency"] = *input.Frequency
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	reassigned := input.AssignedTo != nil && (task.AssignedTo == nil || *task.AssignedTo != *input.AssignedTo)
	if input.AssignedTo != nil {
		updates["assigned_to"] = *input.AssignedTo
	}
	if len(updates) > 0 {
		if err := h.orm(c).Model(&models.HousekeepingTask{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			utils.RespondError(c, err)
			return
		}
	}
	if err := h.orm(c).Preload("Room").Preload("Assignee").First(&task, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if reassigned {
		roomName := ""
		if task.Room != nil {
			roomName = task.Room.Name
		}
		h.notifyAssignee(c, currentUser(c), &task, roomName)
	}
	utils.APIResponse(c, http.StatusOK, true, "task updated", task)
}

// CompleteTask stamps the completion. Recurring tasks become due again in
// the next day or week, see HousekeepingTask.IsDue.
func (h *Handler) CompleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var task models.HousekeepingTask
	if err := h.orm(c).Where("id = ? AND is_active = ?", id, true).First(&task).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "task"))
		return
	}
	user := currentUser(c)
	if user.Role == models.RoleDriver {
		utils.RespondError(c, utils.ErrForbidden("drivers cannot complete housekeeping tasks"))
		return
	}
	if !task.IsDue(time.Now()) {
		utils.RespondError(c, utils.ErrValidation("task is already done for this period"))
		return
	}
	now := time.Now().UTC()
	err := h.orm(c).Model(&models.HousekeepingTask{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       models.TaskCompleted,
		"completed_at": now,
		"completed_by": user.ID,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&task, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "task completed", taskView{HousekeepingTask: task, IsDue: task.IsDue(now)})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	h.softDelete(c, &models.HousekeepingTask{}, "task")
}

func (h *Handler) checkAssignee(c *gin.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	var u models.User
	if err := h.orm(c).Where("id = ? AND is_active = ?", *id, true).First(&u).Error; err != nil {
		return utils.NotFoundOr(err, "assignee")
	}
	return nil
}

func (h *Handler) notifyAssignee(c *gin.Context, actor *models.User, task *models.HousekeepingTask, room string) {
	if task.AssignedTo == nil || *task.AssignedTo == actor.ID {
		return
	}
	err := h.notifier.Notify(c.Request.Context(), []uint64{*task.AssignedTo}, services.Notice{
		Title:   "New task",
		Body:    fmt.Sprintf("%s: %s", room, task.Title),
		Section: models.SectionHousekeeping,
		URL:     "/housekeeping/tasks",
		Tag:     fmt.Sprintf("task-%d", task.ID),
	})
	if err != nil {
		log.Printf("[Notify] task assigned: %v", err)
	}
}

// ListLaundry shows maids and admins every request, others their own.
func (h *Handler) ListLaundry(c *gin.Context) {
	user := currentUser(c)
	q := h.orm(c).Preload("Room").Preload("Requester").Order("pickup_date desc, id desc")
	if user.Role != models.RoleMaid && !user.IsAdmin() {
		q = q.Where("requested_by = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.LaundryRequest
	if err := q.Find(&list).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "laundry requests", list)
}

func (h *Handler) CreateLaundry(c *gin.Context) {
	var input models.LaundryInput
	if !bind(c, &input) {
		return
	}
	user := currentUser(c)
	req := models.LaundryRequest{
		RequestedBy: user.ID,
		RoomID:      input.RoomID,
		Items:       input.Items,
		Notes:       input.Notes,
		PickupDate:  input.PickupDate.UTC(),
		Status:      models.LaundryPending,
	}
	if err := h.orm(c).Create(&req).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.notifier.NotifyRole(c.Request.Context(), models.RoleMaid, user.ID, services.Notice{
		Title:   "New laundry request",
		Body:    fmt.Sprintf("%s: %s", user.FullName, req.Items),
		Section: models.SectionHousekeeping,
		URL:     "/housekeeping/laundry",
		Tag:     fmt.Sprintf("laundry-%d", req.ID),
	}); err != nil {
		log.Printf("[Notify] new laundry: %v", err)
	}
	utils.APIResponse(c, http.StatusCreated, true, "laundry request created", req)
}

var laundryNext = map[models.LaundryStatus]models.LaundryStatus{
	models.LaundryPending:    models.LaundryInProgress,
	models.LaundryInProgress: models.LaundryCompleted,
}

// UpdateLaundryStatus moves a request forward one step; maids and admins only.
func (h *Handler) UpdateLaundryStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.LaundryStatusInput
	if !bind(c, &input) {
		return
	}
	var req models.LaundryRequest
	if err := h.orm(c).First(&req, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "laundry request"))
		return
	}
	next, ok := laundryNext[req.Status]
	if !ok || next != input.Status {
		utils.RespondError(c, utils.ErrValidation("cannot move laundry from %s to %s", req.Status, input.Status))
		return
	}

	updates := map[string]interface{}{"status": next}
	if next == models.LaundryCompleted {
		updates["completed_at"] = time.Now().UTC()
	}
	if err := h.orm(c).Model(&models.LaundryRequest{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&req, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	user := currentUser(c)
	if next == models.LaundryCompleted && req.RequestedBy != user.ID {
		if err := h.notifier.Notify(c.Request.Context(), []uint64{req.RequestedBy}, services.Notice{
			Title:   "Laundry ready",
			Body:    req.Items,
			Section: models.SectionHousekeeping,
			URL:     "/housekeeping/laundry",
			Tag:     fmt.Sprintf("laundry-%d", req.ID),
		}); err != nil {
			log.Printf("[Notify] laundry completed: %v", err)
		}
	}
	utils.APIResponse(c, http.StatusOK, true, "laundry is now "+string(next), req)
}
