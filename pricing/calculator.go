// Package pricing derives every amount the storefront shows or submits from a
// cart snapshot and restaurant metadata. All functions are pure; numeric
// coercion parses-with-default-zero so a quote stays computable even with
// partial or malformed metadata.
package pricing

import (
	"strconv"

	"restaurant-storefront/models"
)

// ParseAmount coerces a loosely typed metadata field to a number. Sentinels
// ("out_of_range"), empty values and garbage all come back as 0, since the
// flow must never charge a fee it cannot read.
func ParseAmount(v models.LooseValue) float64 {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// ItemTax returns the tax one cart line contributes.
// percent: price*qty*tax/100; any other type is a flat amount, tax*qty.
func ItemTax(line models.CartItem) float64 {
	if line.Item.Tax <= 0 {
		return 0
	}
	if line.Item.TaxType == models.RatePercent {
		return line.Price * float64(line.Quantity) * line.Item.Tax / 100
	}
	return line.Item.Tax * float64(line.Quantity)
}

// ItemDiscount returns the discount one cart line contributes, with the same
// percent/amount rule as ItemTax.
func ItemDiscount(line models.CartItem) float64 {
	if line.Item.Discount <= 0 {
		return 0
	}
	if line.Item.DiscountType == models.RatePercent {
		return line.Price * float64(line.Quantity) * line.Item.Discount / 100
	}
	return line.Item.Discount * float64(line.Quantity)
}

// Subtotal is the plain sum of price*quantity over the cart
func Subtotal(items []models.CartItem) float64 {
	var total float64
	for _, line := range items {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// TotalTax sums ItemTax over the cart
func TotalTax(items []models.CartItem) float64 {
	var total float64
	for _, line := range items {
		total += ItemTax(line)
	}
	return total
}

// TotalDiscount sums ItemDiscount over the cart
func TotalDiscount(items []models.CartItem) float64 {
	var total float64
	for _, line := range items {
		total += ItemDiscount(line)
	}
	return total
}

// DeliveryFee reads the restaurant's configured fee. The out_of_range
// sentinel and anything non-numeric charge nothing.
func DeliveryFee(meta models.RestaurantMeta) float64 {
	if meta.DeliveryFee.String() == models.DeliveryFeeOutOfRange {
		return 0
	}
	return ParseAmount(meta.DeliveryFee)
}

// RestaurantTax is the restaurant-level percentage fee on the subtotal
func RestaurantTax(meta models.RestaurantMeta, subtotal float64) float64 {
	return subtotal * ParseAmount(meta.Tax) / 100
}

// PlatformFee is the platform's percentage fee on the subtotal
func PlatformFee(cfg models.PlatformConfig, subtotal float64) float64 {
	return subtotal * ParseAmount(cfg.AdditionalCharge) / 100
}

// TipSelection holds the customer's tip choice. Preset percentage and custom
// flat amount are mutually exclusive: setting one clears the other.
type TipSelection struct {
	Percent float64 `json:"percent"`
	Amount  float64 `json:"amount"`
	Custom  bool    `json:"custom"`
}

// SetPercent chooses a preset percentage tip and leaves custom mode
func (t *TipSelection) SetPercent(percent float64) {
	t.Percent = percent
	t.Amount = 0
	t.Custom = false
}

// SetCustom chooses a flat custom tip and clears any preset percentage
func (t *TipSelection) SetCustom(amount float64) {
	t.Amount = amount
	t.Percent = 0
	t.Custom = true
}

// Value resolves the tip to a concrete amount for the given subtotal
func (t TipSelection) Value(subtotal float64) float64 {
	if t.Custom {
		if t.Amount < 0 {
			return 0
		}
		return t.Amount
	}
	if t.Percent <= 0 {
		return 0
	}
	return subtotal * t.Percent / 100
}

// CouponDiscount applies a coupon to the subtotal. A coupon below its
// min_purchase threshold discounts nothing, even though it is still applied.
func CouponDiscount(coupon *models.AppliedCoupon, subtotal float64) float64 {
	if coupon == nil {
		return 0
	}
	if subtotal < coupon.MinPurchase {
		return 0
	}
	if coupon.DiscountType == models.RatePercent {
		return subtotal * coupon.Discount / 100
	}
	return coupon.Discount
}

// Breakdown is one quote: every component plus the grand total
type Breakdown struct {
	Subtotal       float64 `json:"subtotal"`
	ItemTax        float64 `json:"item_tax"`
	ItemDiscount   float64 `json:"item_discount"`
	DeliveryFee    float64 `json:"delivery_fee"`
	RestaurantTax  float64 `json:"restaurant_tax"`
	PlatformFee    float64 `json:"platform_fee"`
	Tip            float64 `json:"tip"`
	CouponDiscount float64 `json:"coupon_discount"`
	Total          float64 `json:"total"`
}

// Quote computes the one canonical breakdown. The same Total feeds both the
// customer-visible summary and the order_amount submitted upstream; tip is
// included on the cash path and the digital path alike. Delivery fee is only
// charged on delivery orders.
func Quote(items []models.CartItem, meta models.RestaurantMeta, cfg models.PlatformConfig, orderType models.OrderType, tip TipSelection, coupon *models.AppliedCoupon) Breakdown {
	b := Breakdown{
		Subtotal:     Subtotal(items),
		ItemTax:      TotalTax(items),
		ItemDiscount: TotalDiscount(items),
	}
	if orderType == models.OrderDelivery {
		b.DeliveryFee = DeliveryFee(meta)
	}
	b.RestaurantTax = RestaurantTax(meta, b.Subtotal)
	b.PlatformFee = PlatformFee(cfg, b.Subtotal)
	b.Tip = tip.Value(b.Subtotal)
	b.CouponDiscount = CouponDiscount(coupon, b.Subtotal)
	b.Total = b.Subtotal + b.ItemTax - b.ItemDiscount + b.DeliveryFee + b.RestaurantTax + b.PlatformFee + b.Tip - b.CouponDiscount
	return b
}

// ResolveSettlementAmount picks the amount to record for an incomplete
// payment. Sources are tried in the order given (preserved pending-order
// amount first, then the last order info, then a fresh quote); the first
// positive one wins, and 0 means no source knew the amount.
func ResolveSettlementAmount(sources ...float64) float64 {
	for _, amount := range sources {
		if amount > 0 {
			return amount
		}
	}
	return 0
}
