package handlers

import (
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/internal/services"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type tripResponse struct {
	Trip     *models.Trip           `json:"trip"`
	Warnings *services.Availability `json:"warnings"`
}

func (h *Handler) ListTrips(c *gin.Context) {
	from, err := utils.ParseOptionalTime(c.Query("from"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	to, err := utils.ParseOptionalTime(c.Query("to"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	trips, err := h.trips.List(c.Request.Context(), currentUser(c), services.TripFilter{
		Status:   models.TripStatus(c.Query("status")),
		DriverID: utils.StringToUint64(c.Query("driver_id")),
		From:     from,
		To:       to,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "trips", trips)
}

func (h *Handler) CreateTrip(c *gin.Context) {
	var input models.CreateTripInput
	if !bind(c, &input) {
		return
	}
	trip, warnings, err := h.trips.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "trip created", tripResponse{trip, warnings})
}

func (h *Handler) GetTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "trip detail", trip)
}

func (h *Handler) UpdateTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateTripInput
	if !bind(c, &input) {
		return
	}
	trip, warnings, err := h.trips.Update(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "trip updated", tripResponse{trip, warnings})
}

func (h *Handler) UpdateTripStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateTripStatusInput
	if !bind(c, &input) {
		return
	}
	trip, err := h.trips.UpdateStatus(c.Request.Context(), currentUser(c), id, input.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "trip is now "+string(trip.Status), trip)
}

func (h *Handler) CancelTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	trip, err := h.trips.Cancel(c.Request.Context(), currentUser(c), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "trip cancelled", trip)
}
