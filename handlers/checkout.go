package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"restaurant-storefront/checkout"
	"restaurant-storefront/middleware"
	"restaurant-storefront/models"
	"restaurant-storefront/payment"
	"restaurant-storefront/pricing"
	"restaurant-storefront/upstream"

	"github.com/gin-gonic/gin"
)

// Prefill returns the starting checkout form values for this caller, plus
// whether an incomplete payment is waiting to be resumed.
func (h *Handler) Prefill(c *gin.Context) {
	var profile *models.Profile
	var addresses []models.Address

	if _, ok := middleware.CustomerID(c); ok {
		client := h.clientFor(c)
		if p, err := client.Profile(c.Request.Context()); err == nil {
			profile = &p
		}
		if list, err := client.Addresses(c.Request.Context()); err == nil {
			addresses = list
		}
	}

	form := h.forms.Prefill(profile, addresses)
	_, hasIncomplete := h.state.IncompletePayment()
	c.JSON(http.StatusOK, gin.H{
		"form":               form,
		"incomplete_payment": hasIncomplete,
	})
}

// QuoteCart prices the current cart under the given order type, tip and
// coupon, without touching the order flow.
func (h *Handler) QuoteCart(c *gin.Context) {
	var req struct {
		OrderType models.OrderType      `json:"order_type"`
		Tip       pricing.TipSelection  `json:"tip"`
		Coupon    *models.AppliedCoupon `json:"coupon,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderType == "" {
		req.OrderType = models.OrderDelivery
	}

	entry, err := h.carts.LoadForRestaurant(h.currentRestaurant())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}
	meta, err := h.api.RestaurantDetails(c.Request.Context(), h.currentRestaurant())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	cfg := h.platformConfig(c.Request.Context())

	quote := pricing.Quote(entry.CartItems, meta, cfg, req.OrderType, req.Tip, req.Coupon)
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// ApplyCoupon validates a code against the platform and returns the coupon
// for the form to carry through checkout.
func (h *Handler) ApplyCoupon(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coupon code is required"})
		return
	}
	coupon, err := h.clientFor(c).ApplyCoupon(c.Request.Context(), code, h.currentRestaurant())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

// RemoveCoupon drops the applied coupon
func (h *Handler) RemoveCoupon(c *gin.Context) {
	if err := h.clientFor(c).RemoveCoupon(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon removed"})
}

// SubmitCheckout validates the form, assembles the draft and runs the
// payment path. Cash orders finish synchronously; digital ones come back as
// an open gateway window the UI shows while the attempt runs out.
func (h *Handler) SubmitCheckout(c *gin.Context) {
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.carts.Flush(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve cart"})
		return
	}
	restaurantID := h.currentRestaurant()
	entry, err := h.carts.LoadForRestaurant(restaurantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve cart"})
		return
	}
	meta, err := h.api.RestaurantDetails(c.Request.Context(), restaurantID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	cfg := h.platformConfig(c.Request.Context())

	guestID := ""
	if _, authed := middleware.CustomerID(c); !authed {
		guestID = entry.GuestID
	}

	draft, quote, err := h.forms.BuildDraft(form, entry.CartItems, meta, cfg, guestID)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	client := h.clientFor(c)
	if form.PaymentMethod == models.PayCashOnDelivery {
		outcome, err := h.orch.CheckoutCash(c.Request.Context(), draft, quote)
		if err != nil {
			h.checkoutError(c, err)
			return
		}
		h.clearCartAfterOrder(client, restaurantID, entry.GuestID)
		c.JSON(http.StatusOK, gin.H{"outcome": outcome, "quote": quote})
		return
	}

	attempt, err := h.orch.Checkout(c.Request.Context(), draft, quote, h.customerIDFor(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}

	go func() {
		outcome := attempt.Await(context.Background())
		log.Printf("checkout: order %d finished in state %s", outcome.OrderID, outcome.State)
		if outcome.State == payment.StateSucceeded {
			h.clearCartAfterOrder(client, restaurantID, entry.GuestID)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"order_id":    attempt.OrderID,
		"payment_url": attempt.PaymentURL,
		"state":       payment.StateWindowOpen,
		"quote":       quote,
	})
}

func (h *Handler) checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payment.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case errors.Is(err, payment.ErrAttemptInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A payment is already in progress"})
	case errors.Is(err, payment.ErrWindowBlocked):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment window could not be opened"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// clearCartAfterOrder empties the cart once an order is through. Best
// effort: the order exists regardless.
func (h *Handler) clearCartAfterOrder(client *upstream.Client, restaurantID uint, guestID string) {
	if err := client.ClearCart(context.Background()); err != nil {
		log.Printf("checkout: could not clear upstream cart: %v", err)
	}
	if err := h.carts.SaveForRestaurant(restaurantID, []models.CartItem{}, guestID); err != nil {
		log.Printf("checkout: could not clear local cart: %v", err)
	}
}
