package handlers

import (
	"net/http"
	"strconv"

	"restaurant-storefront/models"

	"github.com/gin-gonic/gin"
)

// ActivateRestaurant points the storefront at a restaurant. A change from
// the previously active one runs the cart switch protocol: the outgoing cart
// is persisted under its own id and the incoming restaurant's saved cart (or
// a fresh one) is loaded.
func (h *Handler) ActivateRestaurant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	restaurantID := uint(id)

	prev, hadPrev := h.state.CurrentRestaurantID()
	if hadPrev && prev == restaurantID {
		entry, err := h.carts.LoadForRestaurant(restaurantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"switched": false,
			"cart":     entry.CartItems,
			"guest_id": entry.GuestID,
		})
		return
	}

	result, err := h.carts.Switch(restaurantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to switch restaurant"})
		return
	}
	if err := h.state.SetCurrentRestaurantID(restaurantID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to switch restaurant"})
		return
	}

	message := "Started a fresh cart"
	if result.Restored {
		message = "Restored your previous cart"
	}
	c.JSON(http.StatusOK, gin.H{
		"switched": true,
		"restored": result.Restored,
		"message":  message,
		"cart":     result.Entry.CartItems,
		"guest_id": result.Entry.GuestID,
	})
}

// GetCart returns the active restaurant's cart
func (h *Handler) GetCart(c *gin.Context) {
	if err := h.carts.Flush(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	entry, err := h.carts.LoadForRestaurant(h.currentRestaurant())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id": h.currentRestaurant(),
		"cart":          entry.CartItems,
		"guest_id":      entry.GuestID,
		"count":         len(entry.CartItems),
	})
}

// AddCartItem adds a line to the upstream cart and mirrors the result locally
func (h *Handler) AddCartItem(c *gin.Context) {
	var line models.CartItem
	if err := c.ShouldBindJSON(&line); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if line.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
		return
	}

	items, err := h.clientFor(c).AddCartLine(c.Request.Context(), line)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.mirrorCart(c, items)
	c.JSON(http.StatusOK, gin.H{"cart": items, "count": len(items)})
}

// UpdateCartItem changes a line's quantity
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.clientFor(c).UpdateCartLine(c.Request.Context(), c.Param("item_id"), req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.mirrorCart(c, items)
	c.JSON(http.StatusOK, gin.H{"cart": items, "count": len(items)})
}

// RemoveCartItem deletes one line
func (h *Handler) RemoveCartItem(c *gin.Context) {
	lineID := c.Param("item_id")
	client := h.clientFor(c)
	if err := client.RemoveCartLine(c.Request.Context(), lineID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	items, err := client.ListCart(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.mirrorCart(c, items)
	c.JSON(http.StatusOK, gin.H{"cart": items, "count": len(items)})
}

// ClearCart empties the cart upstream and locally
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.clientFor(c).ClearCart(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	h.mirrorCart(c, []models.CartItem{})
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// mirrorCart schedules a debounced write of the upstream cart into the
// local per-restaurant store.
func (h *Handler) mirrorCart(c *gin.Context, items []models.CartItem) {
	restaurantID := h.currentRestaurant()
	entry, err := h.carts.LoadForRestaurant(restaurantID)
	if err != nil {
		return
	}
	h.carts.ScheduleSave(restaurantID, items, entry.GuestID)
}
