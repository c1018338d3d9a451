package models

// RateType says how a tax or discount figure on an item is meant to be read
type RateType string

const (
	RatePercent RateType = "percent"
	RateAmount  RateType = "amount"
)

// ItemInfo is the denormalized product snapshot captured when a line is added
// to the cart. Price and rates are frozen at add time and never re-fetched
// from the catalog during checkout.
type ItemInfo struct {
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Tax          float64  `json:"tax"`
	TaxType      RateType `json:"tax_type"`
	Discount     float64  `json:"discount"`
	DiscountType RateType `json:"discount_type"`
	IsVeg        bool     `json:"is_veg"`
	IsHalal      bool     `json:"is_halal"`
}

// CartItem is one line in a shopping cart
type CartItem struct {
	ID       string   `json:"id"`
	Price    float64  `json:"price"`
	Quantity int      `json:"quantity"`
	Item     ItemInfo `json:"item"`
}

// AppliedCoupon is a coupon the user has explicitly applied. The discount is
// recomputed from the current subtotal on every quote, never cached.
type AppliedCoupon struct {
	Code         string   `json:"code"`
	Discount     float64  `json:"discount"`
	DiscountType RateType `json:"discount_type"`
	MinPurchase  float64  `json:"min_purchase"`
}
