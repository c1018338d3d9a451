// Package upstream is the storefront's client for the platform REST API. All
// business logic (inventory, pricing rules, payment capture, order lifecycle)
// lives behind this API; the storefront only orchestrates around it.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"restaurant-storefront/models"
)

// Client talks to the platform API. Guest requests carry guest_id, signed-in
// requests carry the bearer token; one Client represents one caller identity.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	guestID    string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithAuth returns a copy of the client that authenticates with token
func (c *Client) WithAuth(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// WithGuest returns a copy of the client acting as the given guest
func (c *Client) WithGuest(guestID string) *Client {
	clone := *c
	clone.guestID = guestID
	return &clone
}

// apiError covers both error shapes the platform serves
type apiError struct {
	Message string `json:"message"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	if query == nil {
		query = url.Values{}
	}
	if c.token == "" && c.guestID != "" {
		query.Set("guest_id", c.guestID)
	}

	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err == nil && ae.text() != "" {
			return fmt.Errorf("%s %s: %s", method, path, ae.text())
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// ── Cart ───────────────────────────────────────────────────────────

// AddCartLine adds one line to the server-side cart and returns the new list
func (c *Client) AddCartLine(ctx context.Context, line models.CartItem) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := c.do(ctx, http.MethodPost, "/cart/add", nil, line, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListCart fetches the caller's cart
func (c *Client) ListCart(ctx context.Context) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := c.do(ctx, http.MethodGet, "/cart/list", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateCartLine changes the quantity of one cart line
func (c *Client) UpdateCartLine(ctx context.Context, lineID string, quantity int) ([]models.CartItem, error) {
	body := map[string]interface{}{"cart_id": lineID, "quantity": quantity}
	var items []models.CartItem
	if err := c.do(ctx, http.MethodPost, "/cart/update", nil, body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RemoveCartLine deletes one line from the cart
func (c *Client) RemoveCartLine(ctx context.Context, lineID string) error {
	query := url.Values{"cart_id": {lineID}}
	return c.do(ctx, http.MethodDelete, "/cart/remove-item", query, nil, nil)
}

// ClearCart empties the caller's cart
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/remove", nil, nil, nil)
}

// ── Orders ─────────────────────────────────────────────────────────

type placeOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Message string `json:"message"`
}

// PlaceOrder submits the draft and returns the created order id
func (c *Client) PlaceOrder(ctx context.Context, draft models.OrderDraft) (int64, error) {
	var resp placeOrderResponse
	if err := c.do(ctx, http.MethodPost, "/order", nil, draft, &resp); err != nil {
		return 0, err
	}
	if resp.OrderID == 0 {
		return 0, fmt.Errorf("POST /order: no order id in response")
	}
	return resp.OrderID, nil
}

type orderListResponse struct {
	Orders    []models.Order `json:"orders"`
	TotalSize int64          `json:"total_size"`
}

// Orders fetches one page of the caller's order history
func (c *Client) Orders(ctx context.Context, limit, offset int) ([]models.Order, int64, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var resp orderListResponse
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Orders, resp.TotalSize, nil
}

// RunningOrders fetches the small set of currently active orders
func (c *Client) RunningOrders(ctx context.Context) ([]models.Order, error) {
	var resp orderListResponse
	if err := c.do(ctx, http.MethodGet, "/orders/running", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// ── Payment ────────────────────────────────────────────────────────

// PaymentInit is the hosted-payment handoff: the URL to open and the amount
// the gateway will settle. total_ammount is spelled the way upstream spells it.
type PaymentInit struct {
	Success     bool    `json:"success"`
	PaymentURL  string  `json:"paymentUrl"`
	OrderID     int64   `json:"order_id"`
	TotalAmount float64 `json:"total_ammount"`
	Message     string  `json:"message"`
}

// PaymentURL requests a hosted payment URL for the order. callback is the
// same-origin URL the gateway returns the customer to.
func (c *Client) PaymentURL(ctx context.Context, orderID int64, customerID, callback string) (PaymentInit, error) {
	query := url.Values{
		"order_id":    {strconv.FormatInt(orderID, 10)},
		"customer_id": {customerID},
		"callback":    {callback},
	}
	var init PaymentInit
	if err := c.do(ctx, http.MethodGet, "/api/pay", query, nil, &init); err != nil {
		return PaymentInit{}, err
	}
	if !init.Success || init.PaymentURL == "" {
		msg := init.Message
		if msg == "" {
			msg = "gateway returned no payment URL"
		}
		return PaymentInit{}, fmt.Errorf("GET /api/pay: %s", msg)
	}
	return init, nil
}

// ── Config / profile ───────────────────────────────────────────────

// PlatformConfig fetches the platform fee configuration
func (c *Client) PlatformConfig(ctx context.Context) (models.PlatformConfig, error) {
	var cfg models.PlatformConfig
	if err := c.do(ctx, http.MethodGet, "/api/v1/config", nil, nil, &cfg); err != nil {
		return models.PlatformConfig{}, err
	}
	return cfg, nil
}

// RestaurantDetails fetches the restaurant metadata used for pricing
func (c *Client) RestaurantDetails(ctx context.Context, id uint) (models.RestaurantMeta, error) {
	var meta models.RestaurantMeta
	path := "/restaurants/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &meta); err != nil {
		return models.RestaurantMeta{}, err
	}
	return meta, nil
}

// Profile fetches the signed-in customer's profile
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, nil, &p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Addresses fetches the signed-in customer's saved addresses
func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {
	var list []models.Address
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ApplyCoupon validates a coupon code against the restaurant
func (c *Client) ApplyCoupon(ctx context.Context, code string, restaurantID uint) (models.AppliedCoupon, error) {
	query := url.Values{
		"code":          {code},
		"restaurant_id": {strconv.FormatUint(uint64(restaurantID), 10)},
	}
	var coupon models.AppliedCoupon
	if err := c.do(ctx, http.MethodGet, "/coupon/apply", query, nil, &coupon); err != nil {
		return models.AppliedCoupon{}, err
	}
	return coupon, nil
}

// RemoveCoupon drops the caller's applied coupon
func (c *Client) RemoveCoupon(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/coupon/remove", nil, nil, nil)
}
