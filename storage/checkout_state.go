package storage

import (
	"strconv"

	"restaurant-storefront/models"
)

// State store keys. Each holds one JSON document.
const (
	keyIncompletePayment = "incomplete_payment"
	keyPendingOrder      = "pending_order"
	keyLastOrderInfo     = "last_order_info"
	keyReorderSeed       = "reorder_seed"
	keyCurrentRestaurant = "current_restaurant_id"
)

// CheckoutState is the typed view over the checkout bookkeeping the
// orchestrator and handlers share: what payment is pending, what never
// finished, and what to prefill next time.
type CheckoutState struct {
	kv *KV
}

func NewCheckoutState(kv *KV) *CheckoutState {
	return &CheckoutState{kv: kv}
}

// IncompletePayment returns the stored record, if any. A record stored
// without a status reads back as payment_pending.
func (s *CheckoutState) IncompletePayment() (models.IncompletePayment, bool) {
	var ip models.IncompletePayment
	if err := s.kv.Get(keyIncompletePayment, &ip); err != nil {
		return models.IncompletePayment{}, false
	}
	if ip.Status == "" {
		ip.Status = models.StatusPaymentPending
	}
	return ip, true
}

func (s *CheckoutState) SetIncompletePayment(ip models.IncompletePayment) error {
	return s.kv.Put(keyIncompletePayment, ip)
}

func (s *CheckoutState) ClearIncompletePayment() error {
	return s.kv.Delete(keyIncompletePayment)
}

func (s *CheckoutState) PendingOrder() (models.PendingOrder, bool) {
	var po models.PendingOrder
	if err := s.kv.Get(keyPendingOrder, &po); err != nil {
		return models.PendingOrder{}, false
	}
	if po.Status == "" {
		po.Status = models.StatusPaymentPending
	}
	return po, true
}

func (s *CheckoutState) SetPendingOrder(po models.PendingOrder) error {
	return s.kv.Put(keyPendingOrder, po)
}

func (s *CheckoutState) ClearPendingOrder() error {
	return s.kv.Delete(keyPendingOrder)
}

func (s *CheckoutState) LastOrderInfo() (models.LastOrderInfo, bool) {
	var info models.LastOrderInfo
	if err := s.kv.Get(keyLastOrderInfo, &info); err != nil {
		return models.LastOrderInfo{}, false
	}
	return info, true
}

func (s *CheckoutState) SetLastOrderInfo(info models.LastOrderInfo) error {
	return s.kv.Put(keyLastOrderInfo, info)
}

func (s *CheckoutState) ReorderSeed() (models.ReorderSeed, bool) {
	var seed models.ReorderSeed
	if err := s.kv.Get(keyReorderSeed, &seed); err != nil {
		return models.ReorderSeed{}, false
	}
	return seed, true
}

func (s *CheckoutState) SetReorderSeed(seed models.ReorderSeed) error {
	return s.kv.Put(keyReorderSeed, seed)
}

// CurrentRestaurantID is the restaurant the visitor is browsing; a change
// from a previously stored id triggers the cart switch protocol.
func (s *CheckoutState) CurrentRestaurantID() (uint, bool) {
	var raw string
	if err := s.kv.Get(keyCurrentRestaurant, &raw); err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (s *CheckoutState) SetCurrentRestaurantID(id uint) error {
	return s.kv.Put(keyCurrentRestaurant, strconv.FormatUint(uint64(id), 10))
}
