package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"restaurant-storefront/models"
	"restaurant-storefront/payment"

	"github.com/gin-gonic/gin"
)

// GatewayCallback is where the payment gateway lands after the customer
// finishes. The signed state token ties the callback to the order it was
// issued for; anything else is dropped.
func (h *Handler) GatewayCallback(c *gin.Context) {
	token := c.Query("state")
	orderID, err := h.signer.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired state token"})
		return
	}

	result := models.GatewayResult{
		Status:  models.GatewayStatus(c.Query("status")),
		Message: c.Query("message"),
		OrderID: orderID,
	}
	switch result.Status {
	case models.GatewaySuccess, models.GatewayFailed, models.GatewayError:
	default:
		result.Status = models.GatewayError
	}

	if !h.orch.Deliver(result) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No payment attempt is waiting for this order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment result received", "order_id": orderID})
}

// WindowClosed lets the UI report that the customer shut the gateway
// window. The running attempt picks this up on its next poll.
func (h *Handler) WindowClosed(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	if !h.windows.ReportClosed(orderID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open window for this order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Window closure recorded"})
}

// GetIncompletePayment returns the unpaid order waiting to be retried, if
// there is one.
func (h *Handler) GetIncompletePayment(c *gin.Context) {
	ip, ok := h.state.IncompletePayment()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No incomplete payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"incomplete_payment": ip})
}

// DismissIncompletePayment drops the stored unpaid order without retrying it.
func (h *Handler) DismissIncompletePayment(c *gin.Context) {
	if err := h.state.ClearIncompletePayment(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear incomplete payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Incomplete payment dismissed"})
}

// RetryPayment reopens the gateway for the stored incomplete payment. No new
// order is placed; the original one is paid.
func (h *Handler) RetryPayment(c *gin.Context) {
	ip, ok := h.state.IncompletePayment()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No incomplete payment to retry"})
		return
	}

	attempt, err := h.orch.Retry(c.Request.Context(), ip, h.customerIDFor(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	go func() {
		outcome := attempt.Await(context.Background())
		log.Printf("retry: order %d finished in state %s", outcome.OrderID, outcome.State)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"order_id":    attempt.OrderID,
		"payment_url": attempt.PaymentURL,
		"state":       payment.StateWindowOpen,
	})
}

// GetAttemptStates describes the payment attempt lifecycle: every state and
// the transitions out of it.
func (h *Handler) GetAttemptStates(c *gin.Context) {
	states := []payment.AttemptState{
		payment.StateIdle,
		payment.StateOrderPlaced,
		payment.StateAwaitingURL,
		payment.StateWindowOpen,
		payment.StateSucceeded,
		payment.StateFailed,
		payment.StateAbandoned,
	}

	info := make([]gin.H, 0, len(states))
	for _, s := range states {
		info = append(info, gin.H{
			"state":       s,
			"terminal":    payment.IsTerminal(s),
			"transitions": payment.ValidTransitionsFrom(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"states":      info,
		"transitions": payment.AllTransitions(),
	})
}
