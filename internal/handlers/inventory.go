package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/events"
	"medicart_back_end/internal/models"
)

// PUT /api/inventory/:productId/stock
func (h *Handler) UpdateStock(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req struct {
		Quantity *int   `json:"quantity" binding:"required"`
		Reason   string `json:"reason"`
		Type     string `json:"type" binding:"required"` // "restock", "adjustment"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity and type are required"})
		return
	}

	productID := c.Param("productId")
	m, err := h.Ledger.Adjust(c.Request.Context(), productID, models.MovementType(req.Type), *req.Quantity, req.Reason, id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Metrics.Movement(string(m.Type))
	h.Publisher.Publish(c.Request.Context(), events.InventoryAdjusted, productID, map[string]any{
		"product_id": productID,
		"type":       m.Type,
		"quantity":   m.Quantity,
		"prev_stock": m.PrevStock,
		"new_stock":  m.NewStock,
		"user_id":    id.UserID,
	})
	c.JSON(http.StatusOK, m)
}

// GET /api/inventory/:productId/movements
func (h *Handler) ListMovements(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	moves, err := h.Ledger.Movements(c.Request.Context(), c.Param("productId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if moves == nil {
		moves = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, gin.H{"movements": moves, "count": len(moves)})
}
