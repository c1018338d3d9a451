package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"restaurant-storefront/models"
	"restaurant-storefront/pricing"
	"restaurant-storefront/storage"
	"restaurant-storefront/upstream"
)

// Timing of the silent-abandonment detector: leave the window alone for a
// grace period after it opens, then check its closed state once a second.
// An attempt that sees neither a gateway result nor a window-closed report
// within the TTL (browser crash, tab killed before the report fires) is
// abandoned outright, so one dead window never wedges the orchestrator.
const (
	DefaultCloseGrace = 3 * time.Second
	DefaultClosePoll  = 1 * time.Second
	DefaultAttemptTTL = 10 * time.Minute
)

var (
	// ErrEmptyCart rejects a submit whose resolved cart snapshot is empty.
	// The cart can empty between page load and submit, so this is checked
	// here even when earlier validation passed.
	ErrEmptyCart = errors.New("payment: cart is empty")

	// ErrAttemptInProgress rejects a second submit while one is running
	ErrAttemptInProgress = errors.New("payment: an attempt is already in progress")
)

// PlatformAPI is the slice of the upstream client the orchestrator needs
type PlatformAPI interface {
	PlaceOrder(ctx context.Context, draft models.OrderDraft) (int64, error)
	PaymentURL(ctx context.Context, orderID int64, customerID, callback string) (upstream.PaymentInit, error)
}

// Outcome is the terminal result of one attempt
type Outcome struct {
	State      AttemptState `json:"state"`
	OrderID    int64        `json:"order_id"`
	RedirectTo string       `json:"redirect_to,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// Orchestrator runs checkout attempts. One attempt may be in flight at a
// time; gateway results are delivered to it by order id.
type Orchestrator struct {
	api         PlatformAPI
	state       *storage.CheckoutState
	windows     WindowOpener
	signer      *StateSigner
	callbackURL string

	closeGrace time.Duration
	closePoll  time.Duration
	attemptTTL time.Duration

	mu         sync.Mutex
	processing bool
	attempts   map[int64]*Attempt
}

func NewOrchestrator(api PlatformAPI, state *storage.CheckoutState, windows WindowOpener, signer *StateSigner, callbackURL string) *Orchestrator {
	return &Orchestrator{
		api:         api,
		state:       state,
		windows:     windows,
		signer:      signer,
		callbackURL: callbackURL,
		closeGrace:  DefaultCloseGrace,
		closePoll:   DefaultClosePoll,
		attemptTTL:  DefaultAttemptTTL,
		attempts:    make(map[int64]*Attempt),
	}
}

// SetPollTiming overrides the abandonment detector cadence, mainly for tests
func (o *Orchestrator) SetPollTiming(grace, poll time.Duration) {
	o.closeGrace = grace
	o.closePoll = poll
}

// SetAttemptTTL overrides the attempt's maximum lifetime, mainly for tests
func (o *Orchestrator) SetAttemptTTL(ttl time.Duration) {
	o.attemptTTL = ttl
}

// Attempt is one in-flight checkout attempt, parked in WINDOW_OPEN until an
// outcome arrives. Await drives it to a terminal state.
type Attempt struct {
	OrderID    int64
	PaymentURL string
	Amount     float64

	o      *Orchestrator
	window GatewayWindow
	events chan models.GatewayResult
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.processing {
		return ErrAttemptInProgress
	}
	o.processing = true
	return nil
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.processing = false
	o.mu.Unlock()
}

// Checkout runs the digital-payment path up to the open window: place the
// order, persist the pending-order trace, fetch the gateway URL, open the
// window. The caller follows with Await to collect the outcome. customerID
// is the authenticated user id when there is one; otherwise the draft's
// guest id is used, and failing both a fresh id is generated.
func (o *Orchestrator) Checkout(ctx context.Context, draft models.OrderDraft, quote pricing.Breakdown, customerID string) (*Attempt, error) {
	if len(draft.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := o.begin(); err != nil {
		return nil, err
	}

	if err := CanTransition(StateIdle, StateOrderPlaced); err != nil {
		o.reset()
		return nil, err
	}
	orderID, err := o.api.PlaceOrder(ctx, draft)
	if err != nil {
		o.reset()
		return nil, fmt.Errorf("place order: %w", err)
	}

	// Persisted before the gateway URL is even requested, so a crash between
	// the two steps still leaves a recoverable trace.
	pending := models.PendingOrder{
		OrderID:   orderID,
		Amount:    quote.Total,
		Draft:     &draft,
		Status:    models.StatusPaymentPending,
		CreatedAt: time.Now(),
	}
	if err := o.state.SetPendingOrder(pending); err != nil {
		o.reset()
		return nil, fmt.Errorf("persist pending order: %w", err)
	}
	if err := o.state.SetLastOrderInfo(models.LastOrderInfo{OrderID: orderID, Amount: quote.Total, SavedAt: time.Now()}); err != nil {
		log.Printf("payment: could not record last order info: %v", err)
	}

	if customerID == "" {
		customerID = draft.GuestID
	}
	return o.openGateway(ctx, StateOrderPlaced, orderID, quote.Total, customerID, false)
}

// Retry re-enters the gateway flow for a previously recorded incomplete
// payment. The order is not placed again.
func (o *Orchestrator) Retry(ctx context.Context, incomplete models.IncompletePayment, customerID string) (*Attempt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	return o.openGateway(ctx, StateIdle, incomplete.OrderID, incomplete.Amount, customerID, true)
}

// PayNow re-enters the gateway flow for any listed order, whether or not an
// incomplete-payment record exists for it.
func (o *Orchestrator) PayNow(ctx context.Context, orderID int64, amount float64, customerID string) (*Attempt, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	return o.openGateway(ctx, StateIdle, orderID, amount, customerID, true)
}

// openGateway is step 3 of the flow: signed callback, hosted URL, window.
// Callers hold the processing flag; any failure here releases it.
func (o *Orchestrator) openGateway(ctx context.Context, from AttemptState, orderID int64, amount float64, customerID string, retry bool) (*Attempt, error) {
	if err := CanTransition(from, StateAwaitingURL); err != nil {
		o.reset()
		return nil, err
	}
	if customerID == "" {
		// last resort of the customer-id precedence: user id, guest id, fresh
		customerID = storage.NewGuestID(0)
	}

	token, err := o.signer.Issue(orderID)
	if err != nil {
		o.reset()
		return nil, fmt.Errorf("sign callback state: %w", err)
	}
	callback := o.callbackURL + "?state=" + url.QueryEscape(token)

	init, err := o.api.PaymentURL(ctx, orderID, customerID, callback)
	if err != nil {
		o.reset()
		return nil, fmt.Errorf("fetch payment URL: %w", err)
	}

	width, height := CheckoutWindowWidth, CheckoutWindowHeight
	if retry {
		width, height = RetryWindowWidth, RetryWindowHeight
	}
	win, err := o.windows.Open(orderID, init.PaymentURL, width, height)
	if err != nil {
		o.reset()
		return nil, fmt.Errorf("%w: %v", ErrWindowBlocked, err)
	}

	attempt := &Attempt{
		OrderID:    orderID,
		PaymentURL: init.PaymentURL,
		Amount:     pricing.ResolveSettlementAmount(amount, init.TotalAmount),
		o:          o,
		window:     win,
		events:     make(chan models.GatewayResult, 1),
	}
	o.mu.Lock()
	o.attempts[orderID] = attempt
	o.mu.Unlock()
	return attempt, nil
}

// Deliver routes a gateway result to the attempt it belongs to. It reports
// false when no attempt is waiting for that order.
func (o *Orchestrator) Deliver(result models.GatewayResult) bool {
	o.mu.Lock()
	attempt, ok := o.attempts[result.OrderID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case attempt.events <- result:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) finish(a *Attempt) {
	o.windows.Release(a.OrderID)
	o.mu.Lock()
	delete(o.attempts, a.OrderID)
	o.processing = false
	o.mu.Unlock()
}

// Await blocks until the attempt reaches a terminal state: a gateway result
// arrives, the window is detected closed, or the context is torn down.
// Bookkeeping happens here: success clears the pending and incomplete
// records, failure and abandonment persist an incomplete payment.
func (a *Attempt) Await(ctx context.Context) Outcome {
	defer a.o.finish(a)

	grace := time.NewTimer(a.o.closeGrace)
	defer grace.Stop()
	expiry := time.NewTimer(a.o.attemptTTL)
	defer expiry.Stop()
	var poll *time.Ticker
	var pollC <-chan time.Time
	defer func() {
		if poll != nil {
			poll.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// teardown: close the window and release flags, but leave the
			// pending-order trace for recovery on the next start
			a.window.Close()
			return Outcome{State: StateIdle, OrderID: a.OrderID, Message: ctx.Err().Error()}

		case result := <-a.events:
			if result.Status == models.GatewaySuccess {
				return a.succeed()
			}
			return a.fail(StateFailed, result.Message)

		case <-expiry.C:
			// a late gateway result still wins over the expiry
			select {
			case result := <-a.events:
				if result.Status == models.GatewaySuccess {
					return a.succeed()
				}
				return a.fail(StateFailed, result.Message)
			default:
			}
			return a.fail(StateAbandoned, "payment attempt timed out")

		case <-grace.C:
			if a.window.Closed() {
				return a.fail(StateAbandoned, "")
			}
			poll = time.NewTicker(a.o.closePoll)
			pollC = poll.C

		case <-pollC:
			// a gateway result that raced the poll wins
			select {
			case result := <-a.events:
				if result.Status == models.GatewaySuccess {
					return a.succeed()
				}
				return a.fail(StateFailed, result.Message)
			default:
			}
			if a.window.Closed() {
				return a.fail(StateAbandoned, "")
			}
		}
	}
}

func (a *Attempt) succeed() Outcome {
	a.window.Close()
	if err := a.o.state.ClearPendingOrder(); err != nil {
		log.Printf("payment: could not clear pending order: %v", err)
	}
	if err := a.o.state.ClearIncompletePayment(); err != nil {
		log.Printf("payment: could not clear incomplete payment: %v", err)
	}
	return Outcome{
		State:      StateSucceeded,
		OrderID:    a.OrderID,
		RedirectTo: fmt.Sprintf("/order-status?order_id=%d", a.OrderID),
	}
}

func (a *Attempt) fail(terminal AttemptState, message string) Outcome {
	a.window.Close()

	// amount precedence: preserved pending-order amount, then the last
	// order info, then the amount this attempt was opened with
	var pendingAmount, lastAmount float64
	var draft *models.OrderDraft
	if pending, ok := a.o.state.PendingOrder(); ok && pending.OrderID == a.OrderID {
		pendingAmount = pending.Amount
		draft = pending.Draft
	}
	if info, ok := a.o.state.LastOrderInfo(); ok && info.OrderID == a.OrderID {
		lastAmount = info.Amount
	}

	incomplete := models.IncompletePayment{
		OrderID:   a.OrderID,
		Amount:    pricing.ResolveSettlementAmount(pendingAmount, lastAmount, a.Amount),
		Timestamp: time.Now(),
		Draft:     draft,
		Status:    models.StatusPaymentPending,
		Message:   message,
	}
	if err := a.o.state.SetIncompletePayment(incomplete); err != nil {
		log.Printf("payment: could not record incomplete payment: %v", err)
	}
	if err := a.o.state.ClearPendingOrder(); err != nil {
		log.Printf("payment: could not clear pending order: %v", err)
	}

	return Outcome{State: terminal, OrderID: a.OrderID, Message: message}
}

// CheckoutCash is the cash-on-delivery path: place the order once and send
// the customer straight to the status page. No window, no polling.
func (o *Orchestrator) CheckoutCash(ctx context.Context, draft models.OrderDraft, quote pricing.Breakdown) (Outcome, error) {
	if len(draft.Items) == 0 {
		return Outcome{}, ErrEmptyCart
	}
	orderID, err := o.api.PlaceOrder(ctx, draft)
	if err != nil {
		return Outcome{}, fmt.Errorf("place order: %w", err)
	}
	if err := o.state.SetLastOrderInfo(models.LastOrderInfo{OrderID: orderID, Amount: quote.Total, SavedAt: time.Now()}); err != nil {
		log.Printf("payment: could not record last order info: %v", err)
	}
	return Outcome{
		State:      StateSucceeded,
		OrderID:    orderID,
		RedirectTo: fmt.Sprintf("/order-status?order_id=%d", orderID),
	}, nil
}

// Close force-closes any open windows and releases the in-flight flag, so a
// stale window never outlives the orchestrator.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, attempt := range o.attempts {
		attempt.window.Close()
	}
	o.processing = false
}
