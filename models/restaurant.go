package models

import (
	"encoding/json"
	"strings"
)

// LooseValue holds a metadata field the upstream API serves as either a JSON
// number or a string (delivery_fee is the worst offender: a number in range,
// the literal "out_of_range" outside it). Callers coerce it to a number with
// parse-default-zero semantics instead of trusting the type.
type LooseValue string

func (v *LooseValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*v = LooseValue(s)
	return nil
}

func (v LooseValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v LooseValue) String() string { return string(v) }

// DeliveryFeeOutOfRange is the sentinel upstream puts in delivery_fee when
// the restaurant is outside serviceable distance. It must never be charged.
const DeliveryFeeOutOfRange = "out_of_range"

// RestaurantMeta is the restaurant metadata the storefront needs for pricing
// and checkout, as served by the platform API.
type RestaurantMeta struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	DeliveryFee   LooseValue `json:"delivery_fee"`
	Tax           LooseValue `json:"tax"`
	MinimumOrder  float64    `json:"minimum_order"`
	ScheduleOrder bool       `json:"schedule_order"`
	Delivery      bool       `json:"delivery"`
	Takeaway      bool       `json:"take_away"`
	Currency      string     `json:"currency"`
}

// PlatformConfig is the slice of /api/v1/config the storefront consumes
type PlatformConfig struct {
	AdditionalCharge LooseValue `json:"additional_charge"`
}
