package models

import "time"

// GatewayStatus is the outcome the hosted payment page reports back
type GatewayStatus string

const (
	GatewaySuccess GatewayStatus = "success"
	GatewayFailed  GatewayStatus = "failed"
	GatewayError   GatewayStatus = "error"
)

// GatewayResult is the typed form of the gateway's return callback
type GatewayResult struct {
	Status  GatewayStatus `json:"status"`
	Message string        `json:"message,omitempty"`
	OrderID int64         `json:"order_id"`
}

// PendingOrder is written the moment an order is placed, before the gateway
// URL is even requested, so a crash between the two steps still leaves a
// recoverable trace.
type PendingOrder struct {
	OrderID   int64       `json:"order_id"`
	Amount    float64     `json:"amount"`
	Draft     *OrderDraft `json:"order_data,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// IncompletePayment is the durable record of a payment that was initiated but
// never confirmed: the gateway reported failure, or its window closed without
// reporting anything. The customer can resume it later.
type IncompletePayment struct {
	OrderID   int64       `json:"order_id"`
	Amount    float64     `json:"amount"`
	Timestamp time.Time   `json:"timestamp"`
	Draft     *OrderDraft `json:"order_data,omitempty"`
	Status    OrderStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
}

// LastOrderInfo remembers the most recent order placed from this client,
// used as a middle-priority source when resolving a settlement amount.
type LastOrderInfo struct {
	OrderID int64     `json:"order_id"`
	Amount  float64   `json:"amount"`
	SavedAt time.Time `json:"saved_at"`
}
