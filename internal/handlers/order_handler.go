package handlers

import (
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/internal/services"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), currentUser(c), services.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "orders", orders)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var input models.CreateOrderInput
	if !bind(c, &input) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "order created", order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "order detail", order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateOrderStatusInput
	if !bind(c, &input) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "order is now "+string(order.Status), order)
}

func (h *Handler) SetOrderReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.ReceiptInput
	if !bind(c, &input) {
		return
	}
	order, err := h.orders.SetReceipt(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "receipt saved", order)
}

func (h *Handler) AddOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.OrderItemInput
	if !bind(c, &input) {
		return
	}
	order, err := h.orders.AddItem(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "item added", order)
}

func (h *Handler) UpdateOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var input models.UpdateOrderItemInput
	if !bind(c, &input) {
		return
	}
	order, err := h.orders.UpdateItem(c.Request.Context(), currentUser(c), id, itemID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "item updated", order)
}

func (h *Handler) DeleteOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	order, err := h.orders.DeleteItem(c.Request.Context(), currentUser(c), id, itemID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "item removed", order)
}
