// Package orders maintains the customer's order history view: the union of
// the paginated full listing and the small running-order set, filtered
// client-side for tabs, search and date ranges.
package orders

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"restaurant-storefront/models"
)

// pageSize is how many orders one listing call fetches
const pageSize = 25

// maxPages caps the refresh so a huge history cannot stall the view
const maxPages = 20

// Lister is the slice of the upstream client the history needs
type Lister interface {
	Orders(ctx context.Context, limit, offset int) ([]models.Order, int64, error)
	RunningOrders(ctx context.Context) ([]models.Order, error)
}

// Tabs of the order history view
const (
	TabAll     = "all"
	TabRunning = "running"
	TabPast    = "past"
)

// Filter is a set of client-side predicates over the unioned history.
// Zero-valued members do not filter.
type Filter struct {
	Tab      string
	Search   string
	From     time.Time
	To       time.Time
	Statuses []models.OrderStatus
}

// History holds the last refreshed union of order listings
type History struct {
	api Lister

	mu     sync.Mutex
	orders []models.Order
}

func NewHistory(api Lister) *History {
	return &History{api: api}
}

// Refresh fetches the paginated history and the running set and unions them
// by order id. The running entry wins on conflict; it is the fresher status.
func (h *History) Refresh(ctx context.Context) error {
	var fetched []models.Order
	offset := 0
	for page := 0; page < maxPages; page++ {
		batch, total, err := h.api.Orders(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		fetched = append(fetched, batch...)
		offset += len(batch)
		if len(batch) == 0 || int64(offset) >= total {
			break
		}
	}

	running, err := h.api.RunningOrders(ctx)
	if err != nil {
		return err
	}

	byID := make(map[int64]models.Order, len(fetched)+len(running))
	for _, o := range fetched {
		byID[o.ID] = o
	}
	for _, o := range running {
		byID[o.ID] = o
	}

	union := make([]models.Order, 0, len(byID))
	for _, o := range byID {
		union = append(union, o)
	}
	sort.Slice(union, func(i, j int) bool {
		if union[i].CreatedAt.Equal(union[j].CreatedAt) {
			return union[i].ID > union[j].ID
		}
		return union[i].CreatedAt.After(union[j].CreatedAt)
	})

	h.mu.Lock()
	h.orders = union
	h.mu.Unlock()
	return nil
}

// Orders returns a copy of the last refreshed union
func (h *History) Orders() []models.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Order, len(h.orders))
	copy(out, h.orders)
	return out
}

// Filtered applies the filter predicates to the last refreshed union
func (h *History) Filtered(f Filter) []models.Order {
	var out []models.Order
	for _, o := range h.Orders() {
		if matches(o, f) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o models.Order, f Filter) bool {
	switch f.Tab {
	case TabRunning:
		if !o.IsRunning() {
			return false
		}
	case TabPast:
		if o.IsRunning() {
			return false
		}
	}

	if f.Search != "" {
		q := strings.ToLower(f.Search)
		id := strconv.FormatInt(o.ID, 10)
		if !strings.Contains(id, q) && !strings.Contains(strings.ToLower(string(o.Status)), q) {
			return false
		}
	}

	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && o.CreatedAt.After(f.To) {
		return false
	}

	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
