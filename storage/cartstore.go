package storage

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"restaurant-storefront/models"

	"github.com/google/uuid"
)

// cartsKey holds one map keyed by restaurant id, so a visitor keeps an
// independent cart per restaurant across restarts.
const cartsKey = "restaurant_carts"

// DefaultSaveDebounce coalesces rapid quantity changes into one write
const DefaultSaveDebounce = 500 * time.Millisecond

// CartEntry is the persisted cart state of one restaurant
type CartEntry struct {
	CartItems []models.CartItem `json:"cartItems"`
	GuestID   string            `json:"guestId"`
	SavedAt   time.Time         `json:"savedAt"`
}

// NewGuestID derives an anonymous-user surrogate key: current timestamp plus
// restaurant id plus a random suffix, as a numeric string. One guest id
// exists per restaurant and stays stable until the entry is dropped.
func NewGuestID(restaurantID uint) string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint32(u[:4]) % 100000
	return fmt.Sprintf("%d%s%05d", time.Now().UnixMilli(), strconv.FormatUint(uint64(restaurantID), 10), suffix)
}

type pendingSave struct {
	restaurantID uint
	items        []models.CartItem
	guestID      string
}

// CartStore gives each restaurant its own cart and guest identity. Mutation
// paths go through ScheduleSave, which debounces writes; Switch and Flush
// force the pending write out first, so last-write-wins is preserved.
type CartStore struct {
	kv       *KV
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingSave
}

func NewCartStore(kv *KV) *CartStore {
	return &CartStore{kv: kv, debounce: DefaultSaveDebounce}
}

// SetDebounce overrides the save debounce, mainly for tests
func (s *CartStore) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

func (s *CartStore) readAll() map[string]CartEntry {
	carts := map[string]CartEntry{}
	if err := s.kv.Get(cartsKey, &carts); err != nil {
		return map[string]CartEntry{}
	}
	return carts
}

func restaurantKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// LoadForRestaurant returns the stored entry for the restaurant, creating and
// persisting a fresh one (empty cart, new guest id) when absent. Consecutive
// loads without an intervening switch return the same guest id.
func (s *CartStore) LoadForRestaurant(id uint) (CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, _, err := s.loadOrInit(id)
	return entry, err
}

// loadOrInit must be called with the mutex held
func (s *CartStore) loadOrInit(id uint) (CartEntry, bool, error) {
	carts := s.readAll()
	if entry, ok := carts[restaurantKey(id)]; ok && entry.GuestID != "" {
		return entry, true, nil
	}
	entry := CartEntry{CartItems: []models.CartItem{}, GuestID: NewGuestID(id), SavedAt: time.Now()}
	carts[restaurantKey(id)] = entry
	if err := s.kv.Put(cartsKey, carts); err != nil {
		return CartEntry{}, false, err
	}
	return entry, false, nil
}

// SaveForRestaurant overwrites the restaurant's entry immediately
func (s *CartStore) SaveForRestaurant(id uint, items []models.CartItem, guestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(id, items, guestID)
}

// write must be called with the mutex held
func (s *CartStore) write(id uint, items []models.CartItem, guestID string) error {
	carts := s.readAll()
	carts[restaurantKey(id)] = CartEntry{CartItems: items, GuestID: guestID, SavedAt: time.Now()}
	return s.kv.Put(cartsKey, carts)
}

// ScheduleSave records the cart for a debounced write. Rapid successive
// calls coalesce; only the last snapshot is written.
func (s *CartStore) ScheduleSave(id uint, items []models.CartItem, guestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &pendingSave{restaurantID: id, items: items, guestID: guestID}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		// a failed write is retried by the next mutation's flush
		_ = s.Flush()
	})
}

// Flush writes any pending debounced save out now
func (s *CartStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.pending == nil {
		return nil
	}
	p := s.pending
	s.pending = nil
	return s.write(p.restaurantID, p.items, p.guestID)
}

// SwitchResult says what Switch found for the incoming restaurant, so the
// caller can tell the user whether a previous cart was restored or a fresh
// one started.
type SwitchResult struct {
	Entry    CartEntry
	Restored bool
}

// Switch implements the restaurant-change protocol: the outgoing
// restaurant's pending cart is persisted under its own id, then the incoming
// restaurant's saved cart (or a fresh one) is loaded.
func (s *CartStore) Switch(toID uint) (SwitchResult, error) {
	if err := s.Flush(); err != nil {
		return SwitchResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, existed, err := s.loadOrInit(toID)
	if err != nil {
		return SwitchResult{}, err
	}
	return SwitchResult{Entry: entry, Restored: existed && len(entry.CartItems) > 0}, nil
}

// Close flushes any pending write; used at shutdown
func (s *CartStore) Close() error {
	return s.Flush()
}
