package routes

import (
	"restaurant-storefront/handlers"
	"restaurant-storefront/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	// ── Gateway-facing routes (no identity; the state token is the auth) ──
	r.GET("/api/payment/callback", h.GatewayCallback)

	// ── Storefront routes ──────────────────────────────────────────
	api := r.Group("/api")
	api.Use(middleware.Identity())
	{
		// Restaurant context
		api.POST("/restaurants/:id/activate", h.ActivateRestaurant)

		// Cart
		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddCartItem)
		api.PUT("/cart/items/:item_id", h.UpdateCartItem)
		api.DELETE("/cart/items/:item_id", h.RemoveCartItem)
		api.DELETE("/cart", h.ClearCart)

		// Checkout
		api.GET("/checkout/prefill", h.Prefill)
		api.POST("/checkout/quote", h.QuoteCart)
		api.GET("/checkout/coupon", h.ApplyCoupon)
		api.DELETE("/checkout/coupon", h.RemoveCoupon)
		api.POST("/checkout", h.SubmitCheckout)

		// Payment lifecycle
		api.POST("/payment/window-closed/:order_id", h.WindowClosed)
		api.GET("/payment/incomplete", h.GetIncompletePayment)
		api.DELETE("/payment/incomplete", h.DismissIncompletePayment)
		api.POST("/payment/retry", h.RetryPayment)

		// Orders
		api.GET("/orders", h.OrderHistory)
		api.POST("/orders/:order_id/pay", h.PayNow)

		// Attempt lifecycle info (great for docs/Postman)
		api.GET("/payment/states", h.GetAttemptStates)
	}
}
