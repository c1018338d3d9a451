// Package storage is the storefront's local state store: per-restaurant carts,
// guest identities and checkout bookkeeping, kept in an embedded sqlite
// key/value table the way the original client kept them in browser local
// storage. Readers treat missing and malformed values identically, so a
// corrupted entry can never take the checkout flow down.
package storage

import (
	"encoding/json"
	"errors"
	"time"

	"restaurant-storefront/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keyPrefix versions the stored keys so a future schema change can migrate
// or ignore old rows instead of misreading them.
const keyPrefix = "v1:"

// ErrNoValue is returned when a key is absent or its value does not parse
var ErrNoValue = errors.New("storage: no value")

// KV stores JSON documents under versioned keys
type KV struct {
	db *gorm.DB
}

func NewKV(db *gorm.DB) *KV {
	return &KV{db: db}
}

// Get unmarshals the value under key into out. Missing rows and unparsable
// JSON both come back as ErrNoValue.
func (s *KV) Get(key string, out interface{}) error {
	var row models.StateEntry
	err := s.db.First(&row, "key = ?", keyPrefix+key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoValue
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(row.Value), out); err != nil {
		return ErrNoValue
	}
	return nil
}

// Put marshals v and upserts it under key
func (s *KV) Put(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.PutRaw(key, string(raw))
}

// PutRaw stores an already-serialized value under key
func (s *KV) PutRaw(key, value string) error {
	row := models.StateEntry{Key: keyPrefix + key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Delete removes the value under key; deleting an absent key is not an error
func (s *KV) Delete(key string) error {
	return s.db.Delete(&models.StateEntry{}, "key = ?", keyPrefix+key).Error
}
