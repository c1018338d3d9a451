package payment

import (
	"errors"
	"sync"
)

// Window dimensions mirror the storefront popup: one size for a fresh
// checkout, a slightly larger one for a retry.
const (
	CheckoutWindowWidth  = 500
	CheckoutWindowHeight = 700
	RetryWindowWidth     = 550
	RetryWindowHeight    = 750
)

// ErrWindowBlocked means the payment window could not be opened at all
var ErrWindowBlocked = errors.New("payment: gateway window blocked")

// GatewayWindow is the surface the hosted payment page is shown in. The
// orchestrator polls Closed to detect silent abandonment and force-closes
// the window on terminal outcomes.
type GatewayWindow interface {
	Closed() bool
	Close()
}

// WindowOpener opens the hosted payment URL for an order. Release drops the
// tracking for an order once its attempt reaches a terminal state.
type WindowOpener interface {
	Open(orderID int64, url string, width, height int) (GatewayWindow, error)
	Release(orderID int64)
}

// TrackedWindow is the production GatewayWindow: the UI opens the actual
// popup with the URL it gets back from the checkout call, then reports
// closure through the window-closed endpoint, which flips this flag.
type TrackedWindow struct {
	mu     sync.Mutex
	url    string
	closed bool
}

func (w *TrackedWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *TrackedWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// URL is the hosted payment URL the window was opened with
func (w *TrackedWindow) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

// Registry tracks the window of each in-flight order
type Registry struct {
	mu      sync.Mutex
	windows map[int64]*TrackedWindow
}

func NewRegistry() *Registry {
	return &Registry{windows: make(map[int64]*TrackedWindow)}
}

// Open registers a window for the order. A window already tracked for the
// same order is replaced; the old one reads as closed.
func (r *Registry) Open(orderID int64, url string, width, height int) (GatewayWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.windows[orderID]; ok {
		old.Close()
	}
	w := &TrackedWindow{url: url}
	r.windows[orderID] = w
	return w, nil
}

// Release stops tracking the order's window. Called once the attempt is
// over; a closure reported after that has nothing left to affect.
func (r *Registry) Release(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, orderID)
}

// ReportClosed marks the order's window closed; false if none is tracked
func (r *Registry) ReportClosed(orderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[orderID]
	if !ok {
		return false
	}
	w.Close()
	return true
}
