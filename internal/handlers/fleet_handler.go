package handlers

import (
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVehicles(c *gin.Context) {
	var list []models.Vehicle
	if err := h.orm(c).Where("is_active = ?", true).Order("name").Find(&list).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "vehicles", list)
}

func (h *Handler) CreateVehicle(c *gin.Context) {
	var input models.VehicleInput
	if !bind(c, &input) {
		return
	}
	if err := h.checkPlate(c, input.PlateNumber, 0); err != nil {
		utils.RespondError(c, err)
		return
	}
	v := models.Vehicle{
		Name:        input.Name,
		PlateNumber: input.PlateNumber,
		Model:       input.Model,
		Year:        input.Year,
		Mileage:     input.Mileage,
		IsActive:    true,
	}
	if err := h.orm(c).Create(&v).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "vehicle added", v)
}

func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.VehicleInput
	if !bind(c, &input) {
		return
	}
	var v models.Vehicle
	if err := h.orm(c).First(&v, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "vehicle"))
		return
	}
	if err := h.checkPlate(c, input.PlateNumber, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	err := h.orm(c).Model(&v).Updates(map[string]interface{}{
		"name":         input.Name,
		"plate_number": input.PlateNumber,
		"model":        input.Model,
		"year":         input.Year,
		"mileage":      input.Mileage,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&v, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "vehicle updated", v)
}

// checkPlate rejects a plate number already used by another vehicle,
// including deactivated ones.
func (h *Handler) checkPlate(c *gin.Context, plate string, exceptID uint64) error {
	var taken int64
	if err := h.orm(c).Model(&models.Vehicle{}).
		Where("plate_number = ? AND id <> ?", plate, exceptID).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return utils.ErrConflict("plate number %s is already registered", plate)
	}
	return nil
}

func (h *Handler) DeleteVehicle(c *gin.Context) {
	h.softDelete(c, &models.Vehicle{}, "vehicle")
}

func (h *Handler) ListTechnicians(c *gin.Context) {
	var list []models.Technician
	if err := h.orm(c).Where("is_active = ?", true).Order("name").Find(&list).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "technicians", list)
}

func (h *Handler) CreateTechnician(c *gin.Context) {
	var input models.TechnicianInput
	if !bind(c, &input) {
		return
	}
	t := models.Technician{
		Name:      input.Name,
		Phone:     input.Phone,
		Specialty: input.Specialty,
		Notes:     input.Notes,
		IsActive:  true,
	}
	if err := h.orm(c).Create(&t).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "technician added", t)
}

func (h *Handler) UpdateTechnician(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.TechnicianInput
	if !bind(c, &input) {
		return
	}
	var t models.Technician
	if err := h.orm(c).First(&t, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "technician"))
		return
	}
	err := h.orm(c).Model(&t).Updates(map[string]interface{}{
		"name":      input.Name,
		"phone":     input.Phone,
		"specialty": input.Specialty,
		"notes":     input.Notes,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&t, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "technician updated", t)
}

func (h *Handler) DeleteTechnician(c *gin.Context) {
	h.softDelete(c, &models.Technician{}, "technician")
}

func (h *Handler) ListSpareParts(c *gin.Context) {
	q := h.orm(c).Preload("Vehicle").Preload("Technician").Order("created_at desc")
	if vid := utils.StringToUint64(c.Query("vehicle_id")); vid != 0 {
		q = q.Where("vehicle_id = ?", vid)
	}
	var list []models.SparePart
	if err := q.Find(&list).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "spare parts", list)
}

func (h *Handler) CreateSparePart(c *gin.Context) {
	var input models.SparePartInput
	if !bind(c, &input) {
		return
	}
	if err := h.checkPartRefs(c, input); err != nil {
		utils.RespondError(c, err)
		return
	}
	part := models.SparePart{
		VehicleID:    input.VehicleID,
		TechnicianID: input.TechnicianID,
		Name:         input.Name,
		PartNumber:   input.PartNumber,
		Quantity:     input.Quantity,
		Price:        input.Price,
		InstalledAt:  input.InstalledAt,
		Notes:        input.Notes,
	}
	if part.Quantity == 0 {
		part.Quantity = 1
	}
	if err := h.orm(c).Create(&part).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "spare part recorded", part)
}

func (h *Handler) UpdateSparePart(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.SparePartInput
	if !bind(c, &input) {
		return
	}
	var part models.SparePart
	if err := h.orm(c).First(&part, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "spare part"))
		return
	}
	if err := h.checkPartRefs(c, input); err != nil {
		utils.RespondError(c, err)
		return
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	err := h.orm(c).Model(&part).Updates(map[string]interface{}{
		"vehicle_id":    input.VehicleID,
		"technician_id": input.TechnicianID,
		"name":          input.Name,
		"part_number":   input.PartNumber,
		"quantity":      qty,
		"price":         input.Price,
		"installed_at":  input.InstalledAt,
		"notes":         input.Notes,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).Preload("Vehicle").Preload("Technician").First(&part, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "spare part updated", part)
}

func (h *Handler) DeleteSparePart(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res := h.orm(c).Delete(&models.SparePart{}, id)
	if res.Error != nil {
		utils.RespondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, utils.ErrNotFound("spare part"))
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "spare part deleted", nil)
}

func (h *Handler) checkPartRefs(c *gin.Context, input models.SparePartInput) error {
	if input.Price.IsNegative() {
		return utils.ErrValidation("price cannot be negative")
	}
	var v models.Vehicle
	if err := h.orm(c).First(&v, input.VehicleID).Error; err != nil {
		return utils.NotFoundOr(err, "vehicle")
	}
	if input.TechnicianID != nil {
		var t models.Technician
		if err := h.orm(c).First(&t, *input.TechnicianID).Error; err != nil {
			return utils.NotFoundOr(err, "technician")
		}
	}
	return nil
}
