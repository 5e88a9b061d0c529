package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// GET /api/cart
func (h *Handler) GetCart(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	cart, err := h.Carts.ListItems(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// POST /api/cart/add
func (h *Handler) AddToCart(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	items, err := h.Carts.AddItem(c.Request.Context(), id.UserID, req.ItemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// PUT /api/cart/update
func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId and quantity are required"})
		return
	}

	items, err := h.Carts.SetQuantity(c.Request.Context(), id.UserID, req.ItemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DELETE /api/cart/:itemId
func (h *Handler) RemoveFromCart(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	items, err := h.Carts.RemoveItem(c.Request.Context(), id.UserID, c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
