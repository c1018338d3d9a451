package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant-storefront/checkout"
	"restaurant-storefront/middleware"
	"restaurant-storefront/models"
	"restaurant-storefront/payment"
	"restaurant-storefront/storage"
	"restaurant-storefront/upstream"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T, upstreamURL string) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StateEntry{}))

	kv := storage.NewKV(db)
	carts := storage.NewCartStore(kv)
	t.Cleanup(func() { carts.Close() })
	state := storage.NewCheckoutState(kv)

	api := upstream.New(upstreamURL)
	signer := payment.NewStateSigner([]byte("test-secret"))
	windows := payment.NewRegistry()
	orch := payment.NewOrchestrator(api, state, windows, signer, "http://storefront.test/api/payment/callback")
	orch.SetPollTiming(5*time.Millisecond, 2*time.Millisecond)
	t.Cleanup(orch.Close)
	forms := checkout.NewController(state)

	h := New(api, carts, state, forms, orch, windows, signer, 7)

	// mirrors routes.SetupRoutes, registered here to keep the test in-package
	r := gin.New()
	r.GET("/api/payment/callback", h.GatewayCallback)
	grp := r.Group("/api")
	grp.Use(middleware.Identity())
	{
		grp.POST("/restaurants/:id/activate", h.ActivateRestaurant)
		grp.GET("/cart", h.GetCart)
		grp.POST("/checkout", h.SubmitCheckout)
		grp.POST("/payment/window-closed/:order_id", h.WindowClosed)
		grp.GET("/payment/incomplete", h.GetIncompletePayment)
		grp.DELETE("/payment/incomplete", h.DismissIncompletePayment)
		grp.GET("/orders", h.OrderHistory)
		grp.GET("/payment/states", h.GetAttemptStates)
	}
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetCartStartsEmptyWithGuestID(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")

	w := doJSON(t, r, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RestaurantID uint              `json:"restaurant_id"`
		Cart         []models.CartItem `json:"cart"`
		GuestID      string            `json:"guest_id"`
		Count        int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.RestaurantID)
	assert.Empty(t, resp.Cart)
	assert.NotEmpty(t, resp.GuestID)
	assert.Zero(t, resp.Count)
}

func TestActivateRestaurantSwitchesCart(t *testing.T) {
	r, h := newTestRouter(t, "http://unused.test")

	w := doJSON(t, r, http.MethodPost, "/api/restaurants/7/activate", "")
	require.Equal(t, http.StatusOK, w.Code)

	// seed a cart for 7 so the later switch back restores it
	entry, err := h.carts.LoadForRestaurant(7)
	require.NoError(t, err)
	require.NoError(t, h.carts.SaveForRestaurant(7, []models.CartItem{
		{ID: "a", Price: 5, Quantity: 2},
	}, entry.GuestID))

	w = doJSON(t, r, http.MethodPost, "/api/restaurants/9/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	var switched struct {
		Switched bool              `json:"switched"`
		Restored bool              `json:"restored"`
		Cart     []models.CartItem `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &switched))
	assert.True(t, switched.Switched)
	assert.False(t, switched.Restored)
	assert.Empty(t, switched.Cart)

	w = doJSON(t, r, http.MethodPost, "/api/restaurants/7/activate", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &switched))
	assert.True(t, switched.Restored)
	require.Len(t, switched.Cart, 1)
	assert.Equal(t, "a", switched.Cart[0].ID)
}

func TestActivateRestaurantRejectsBadID(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	w := doJSON(t, r, http.MethodPost, "/api/restaurants/nope/activate", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGatewayCallbackRejectsBadToken(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	w := doJSON(t, r, http.MethodGet, "/api/payment/callback?state=garbage&status=success", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGatewayCallbackWithNoWaitingAttempt(t *testing.T) {
	r, h := newTestRouter(t, "http://unused.test")
	token, err := h.signer.Issue(42)
	require.NoError(t, err)
	w := doJSON(t, r, http.MethodGet, "/api/payment/callback?state="+token+"&status=success", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWindowClosedUnknownOrder(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	w := doJSON(t, r, http.MethodPost, "/api/payment/window-closed/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIncompletePaymentLifecycle(t *testing.T) {
	r, h := newTestRouter(t, "http://unused.test")

	w := doJSON(t, r, http.MethodGet, "/api/payment/incomplete", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, h.state.SetIncompletePayment(models.IncompletePayment{
		OrderID: 12, Amount: 40, Timestamp: time.Now(), Status: models.StatusPaymentPending,
	}))

	w = doJSON(t, r, http.MethodGet, "/api/payment/incomplete", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		IncompletePayment models.IncompletePayment `json:"incomplete_payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.IncompletePayment.OrderID)

	w = doJSON(t, r, http.MethodDelete, "/api/payment/incomplete", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := h.state.IncompletePayment()
	assert.False(t, ok)
}

func TestSubmitCheckoutFieldErrors(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/restaurants/7":
			json.NewEncoder(w).Encode(models.RestaurantMeta{ID: 7})
		case "/api/v1/config":
			json.NewEncoder(w).Encode(models.PlatformConfig{})
		default:
			http.NotFound(w, req)
		}
	}))
	defer platform.Close()
	r, _ := newTestRouter(t, platform.URL)

	body := `{"order_type":"delivery","payment_method":"digital_payment"}`
	w := doJSON(t, r, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "FirstName")
	assert.Contains(t, resp.Fields, "Address")
}

func TestOrderHistoryFiltersByTab(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/orders":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"total_size": 2,
				"orders": []models.Order{
					{ID: 1, Status: models.StatusDelivered, Amount: 20},
					{ID: 2, Status: models.StatusPending, Amount: 30},
				},
			})
		case "/orders/running":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"orders": []models.Order{{ID: 2, Status: models.StatusProcessing, Amount: 30}},
			})
		case "/restaurants/7":
			json.NewEncoder(w).Encode(models.RestaurantMeta{ID: 7})
		default:
			http.NotFound(w, req)
		}
	}))
	defer platform.Close()

	r, _ := newTestRouter(t, platform.URL)

	w := doJSON(t, r, http.MethodGet, "/api/orders?tab=running", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Orders    []models.Order `json:"orders"`
		TotalSize int            `json:"total_size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(2), resp.Orders[0].ID)
	// the running list's status wins the union
	assert.Equal(t, models.StatusProcessing, resp.Orders[0].Status)
}

func TestOrderHistoryRejectsBadDate(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"total_size": 0, "orders": []models.Order{}})
	}))
	defer platform.Close()

	r, _ := newTestRouter(t, platform.URL)
	w := doJSON(t, r, http.MethodGet, "/api/orders?from=13-01-2026", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttemptStatesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	w := doJSON(t, r, http.MethodGet, "/api/payment/states", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		States []struct {
			State    payment.AttemptState `json:"state"`
			Terminal bool                 `json:"terminal"`
		} `json:"states"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.States, 7)
}

func TestIdentityMiddlewareRejectsMalformedBearer(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuestHeaderPassesThrough(t *testing.T) {
	r, _ := newTestRouter(t, "http://unused.test")
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("X-Guest-ID", "g-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
