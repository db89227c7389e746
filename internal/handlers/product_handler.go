package handlers

import (
	"net/http"

	"baytna-backend/internal/models"
	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	q := h.orm(c).Where("is_active = ?", true).Order("category, name")
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if search := c.Query("q"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "products", products)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if !bind(c, &input) {
		return
	}
	if input.Price.IsNegative() {
		utils.RespondError(c, utils.ErrValidation("price cannot be negative"))
		return
	}
	product := models.Product{
		Name:     input.Name,
		Category: input.Category,
		Unit:     input.Unit,
		Price:    input.Price,
		ImageURL: input.ImageURL,
		IsActive: true,
	}
	if err := h.orm(c).Create(&product).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusCreated, true, "product created", product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.ProductInput
	if !bind(c, &input) {
		return
	}
	if input.Price.IsNegative() {
		utils.RespondError(c, utils.ErrValidation("price cannot be negative"))
		return
	}

	var product models.Product
	if err := h.orm(c).First(&product, id).Error; err != nil {
		utils.RespondError(c, utils.NotFoundOr(err, "product"))
		return
	}
	err := h.orm(c).Model(&product).Updates(map[string]interface{}{
		"name":      input.Name,
		"category":  input.Category,
		"unit":      input.Unit,
		"price":     input.Price,
		"image_url": input.ImageURL,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := h.orm(c).First(&product, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.APIResponse(c, http.StatusOK, true, "product updated", product)
}

// DeleteProduct hides the product; old order items keep their copy of it.
func (h *Handler) DeleteProduct(c *gin.Context) {
	h.softDelete(c, &models.Product{}, "product")
}

// softDelete clears is_active on the row named by the :id parameter.
func (h *Handler) softDelete(c *gin.Context, model interface{}, what string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res := h.orm(c).Model(model).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.RespondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, utils.ErrNotFound(what))
		return
	}
	utils.APIResponse(c, http.StatusOK, true, what+" removed", nil)
}
