package handlers

import (
	"context"
	"log"
	"sync"

	"restaurant-storefront/checkout"
	"restaurant-storefront/middleware"
	"restaurant-storefront/models"
	"restaurant-storefront/orders"
	"restaurant-storefront/payment"
	"restaurant-storefront/storage"
	"restaurant-storefront/upstream"

	"github.com/gin-gonic/gin"
)

// Handler wires the HTTP surface to the storefront's moving parts
type Handler struct {
	api          *upstream.Client
	carts        *storage.CartStore
	state        *storage.CheckoutState
	forms        *checkout.Controller
	orch         *payment.Orchestrator
	windows      *payment.Registry
	signer       *payment.StateSigner
	restaurantID uint

	cfgMu       sync.Mutex
	platformCfg models.PlatformConfig
}

func New(api *upstream.Client, carts *storage.CartStore, state *storage.CheckoutState, forms *checkout.Controller, orch *payment.Orchestrator, windows *payment.Registry, signer *payment.StateSigner, restaurantID uint) *Handler {
	return &Handler{
		api:          api,
		carts:        carts,
		state:        state,
		forms:        forms,
		orch:         orch,
		windows:      windows,
		signer:       signer,
		restaurantID: restaurantID,
	}
}

// currentRestaurant is the restaurant the visitor is browsing; the
// configured one until an activate call switches it.
func (h *Handler) currentRestaurant() uint {
	if id, ok := h.state.CurrentRestaurantID(); ok {
		return id
	}
	return h.restaurantID
}

// clientFor builds the upstream client for this caller: bearer token for
// signed-in customers, the restaurant's guest id otherwise.
func (h *Handler) clientFor(c *gin.Context) *upstream.Client {
	if token, ok := middleware.Token(c); ok {
		return h.api.WithAuth(token)
	}
	return h.api.WithGuest(h.guestIDFor(c))
}

// guestIDFor resolves the caller's guest id: an explicit header wins,
// otherwise the per-restaurant id the cart store hands out.
func (h *Handler) guestIDFor(c *gin.Context) string {
	if guestID, ok := middleware.GuestID(c); ok {
		return guestID
	}
	entry, err := h.carts.LoadForRestaurant(h.currentRestaurant())
	if err != nil {
		return ""
	}
	return entry.GuestID
}

// customerIDFor resolves the id sent to the payment gateway: authenticated
// user id, else guest id. The orchestrator generates a fresh one if both
// come up empty.
func (h *Handler) customerIDFor(c *gin.Context) string {
	if customerID, ok := middleware.CustomerID(c); ok {
		return customerID
	}
	return h.guestIDFor(c)
}

// historyFor builds an order-history view for this caller
func (h *Handler) historyFor(c *gin.Context) *orders.History {
	return orders.NewHistory(h.clientFor(c))
}

// platformConfig fetches the fee configuration, falling back to the last
// good copy when upstream is unreachable.
func (h *Handler) platformConfig(ctx context.Context) models.PlatformConfig {
	cfg, err := h.api.PlatformConfig(ctx)
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	if err != nil {
		log.Printf("handlers: platform config fetch failed, using cached: %v", err)
		return h.platformCfg
	}
	h.platformCfg = cfg
	return cfg
}
