package handlers

import (
	"net/http"
	"strconv"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxTripMinutes matches the estimated_duration bound on trips.
const maxTripMinutes = 1440

type driverView struct {
	models.UserSummary
	Busy bool `json:"busy"`
}

// ListDrivers returns active drivers with their current busy flag.
func (h *Handler) ListDrivers(c *gin.Context) {
	var drivers []models.User
	if err := h.orm(c).Where("role = ? AND is_active = ?", models.RoleDriver, true).
		Order("full_name").Find(&drivers).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	busy, err := h.availability.BusyDrivers(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	out := make([]driverView, 0, len(drivers))
	for i := range drivers {
		out = append(out, driverView{UserSummary: drivers[i].Public(), Busy: busy[drivers[i].ID]})
	}
	utils.APIResponse(c, http.StatusOK, true, "drivers", out)
}

// DriverAvailability answers
// GET /api/drivers/:id/availability?departureTime&duration&excludeTripId.
// departureTime and duration come together or not at all.
func (h *Handler) DriverAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var driver models.User
	if err := h.orm(c).Where("id = ? AND is_active = ?", id, true).First(&driver).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "driver"))
		return
	}
	if !driver.Can(models.CapDrive) {
		utils.RespondError(c, utils.ErrNotFound("driver"))
		return
	}

	departure, err := utils.ParseOptionalTime(c.Query("departureTime"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	durationParam := c.Query("duration")
	if (departure == nil) != (durationParam == "") {
		utils.RespondError(c, utils.ErrValidation("departureTime and duration must be given together"))
		return
	}

	var window *models.TimeWindow
	if departure != nil {
		minutes, err := strconv.Atoi(durationParam)
		if err != nil || minutes <= 0 || minutes > maxTripMinutes {
			utils.RespondError(c, utils.ErrValidation("duration must be between 1 and %d minutes", maxTripMinutes))
			return
		}
		w := models.NewTimeWindow(departure.UTC(), minutes)
		window = &w
	}

	var exclude *uint64
	if raw := c.Query("excludeTripId"); raw != "" {
		tripID, err := utils.ParseID(raw)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		exclude = &tripID
	}

	res, err := h.availability.Check(c.Request.Context(), id, window, exclude)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "driver availability", res)
}
