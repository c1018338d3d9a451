package models

import "time"

// Profile is the authenticated customer's profile as served by the platform
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"f_name"`
	LastName  string `json:"l_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Address is one saved delivery address of an authenticated customer
type Address struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Type    string `json:"address_type"`
}

// ReorderSeed is the contact/address snapshot saved after every successful
// checkout submit, so a quick follow-up order starts prefilled. It only wins
// the prefill precedence while fresh (see checkout.ReorderSeedTTL).
type ReorderSeed struct {
	FirstName string    `json:"f_name"`
	LastName  string    `json:"l_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Zip       string    `json:"zip"`
	OrderType OrderType `json:"order_type"`
	SavedAt   time.Time `json:"saved_at"`
}
