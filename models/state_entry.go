package models

import "time"

// StateEntry is one row of the local state store: a JSON document under a
// versioned key. It is the embedded stand-in for the browser local storage
// the original client kept its checkout bookkeeping in.
type StateEntry struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
