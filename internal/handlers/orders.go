package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/models"
)

// GET /api/orders
func (h *Handler) ListOrders(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.Orders.FindByCustomer(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// GET /api/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	order, err := h.Orders.FindForActor(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/orders/:id/status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		Status models.DeliveryStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
