package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"restaurant-storefront/models"
	"restaurant-storefront/orders"
	"restaurant-storefront/payment"

	"github.com/gin-gonic/gin"
)

// OrderHistory returns the caller's orders, filtered by tab, free-text
// search, date range and status. Dates are YYYY-MM-DD.
func (h *Handler) OrderHistory(c *gin.Context) {
	history := h.historyFor(c)
	if err := history.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	filter := orders.Filter{
		Tab:    c.DefaultQuery("tab", orders.TabAll),
		Search: c.Query("search"),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
			return
		}
		// inclusive end of day
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	for _, s := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, models.OrderStatus(s))
	}

	list := history.Filtered(filter)
	c.JSON(http.StatusOK, gin.H{"orders": list, "total_size": len(list)})
}

// PayNow opens the gateway for an already placed but unpaid order from the
// history list.
func (h *Handler) PayNow(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.orch.PayNow(c.Request.Context(), orderID, req.Amount, h.customerIDFor(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	go func() {
		outcome := attempt.Await(context.Background())
		log.Printf("pay-now: order %d finished in state %s", outcome.OrderID, outcome.State)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"order_id":    attempt.OrderID,
		"payment_url": attempt.PaymentURL,
		"state":       payment.StateWindowOpen,
	})
}
