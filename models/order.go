package models

import "time"

// OrderType is how the order reaches the customer
type OrderType string

const (
	OrderDelivery OrderType = "delivery"
	OrderPickup   OrderType = "pickup"
)

// PaymentMethod selects the settlement path at checkout
type PaymentMethod string

const (
	PayCashOnDelivery PaymentMethod = "cash_on_delivery"
	PayDigital        PaymentMethod = "digital_payment"
)

// OrderStatus mirrors the lifecycle states the platform reports. The
// storefront never transitions these itself; it only displays and filters.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusProcessing     OrderStatus = "processing"
	StatusHandover       OrderStatus = "handover"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusDelivered      OrderStatus = "delivered"
	StatusCanceled       OrderStatus = "canceled"
	StatusFailed         OrderStatus = "failed"
	StatusPaymentPending OrderStatus = "payment_pending"
)

// RunningStatuses are the states shown on the "running" tab
var RunningStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusHandover, StatusPickedUp, StatusPaymentPending,
}

// Order is one entry in the customer's order history as served by the
// platform API.
type Order struct {
	ID             int64         `json:"id"`
	Status         OrderStatus   `json:"order_status"`
	Amount         float64       `json:"order_amount"`
	OrderType      OrderType     `json:"order_type"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	DeliveryCharge float64       `json:"delivery_charge"`
	CreatedAt      time.Time     `json:"created_at"`
	ScheduleAt     *time.Time    `json:"schedule_at,omitempty"`
}

// IsRunning reports whether the order belongs on the "running" tab
func (o Order) IsRunning() bool {
	for _, s := range RunningStatuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// OrderDraft is the payload assembled for order placement. Amount fields are
// computed client-side from the cart snapshot at submit time; the same
// computation feeds both the submitted order_amount and the total shown to
// the customer.
type OrderDraft struct {
	RestaurantID   uint          `json:"restaurant_id"`
	OrderType      OrderType     `json:"order_type"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	ScheduleAt     *time.Time    `json:"schedule_at,omitempty"`
	OrderAmount    float64       `json:"order_amount"`
	DeliveryCharge float64       `json:"delivery_charge"`
	CouponCode     string        `json:"coupon_code,omitempty"`
	CouponDiscount float64       `json:"coupon_discount_amount,omitempty"`
	TipAmount      float64       `json:"dm_tips"`
	Cutlery        bool          `json:"cutlery"`

	FirstName string `json:"contact_person_name"`
	LastName  string `json:"contact_person_last_name"`
	Phone     string `json:"contact_person_number"`
	Email     string `json:"contact_person_email,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`

	Note string `json:"order_note,omitempty"`

	// GuestID is set only for unauthenticated checkouts
	GuestID string `json:"guest_id,omitempty"`

	// Items is the cart snapshot the amounts were computed from, kept so a
	// later retry has the original context.
	Items []CartItem `json:"cart"`
}
