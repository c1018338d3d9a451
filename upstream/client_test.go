package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestIDAppendedForAnonymousCalls(t *testing.T) {
	var gotGuest string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGuest = r.URL.Query().Get("guest_id")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).WithGuest("17550001").ListCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "17550001", gotGuest)
}

func TestBearerTokenWinsOverGuestID(t *testing.T) {
	var gotAuth, gotGuest string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotGuest = r.URL.Query().Get("guest_id")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).WithGuest("g1").WithAuth("tok123").ListCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Empty(t, gotGuest)
}

func TestServerMessageSurfacedOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"code":"auth","message":"token expired"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListCart(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestGenericErrorWhenBodyUnusable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListCart(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestPlaceOrderReturnsOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		w.Write([]byte(`{"order_id": 991, "message": "order placed"}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL).PlaceOrder(context.Background(), models.OrderDraft{RestaurantID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(991), id)
}

func TestPaymentURLPassesIdentifiers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "991", q.Get("order_id"))
		assert.Equal(t, "cust-5", q.Get("customer_id"))
		assert.Equal(t, "http://localhost:8080/api/payment/callback", q.Get("callback"))
		w.Write([]byte(`{"success": true, "paymentUrl": "https://gateway.example/pay/xyz", "order_id": 991, "total_ammount": 31.4}`))
	}))
	defer srv.Close()

	init, err := New(srv.URL).PaymentURL(context.Background(), 991, "cust-5", "http://localhost:8080/api/payment/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example/pay/xyz", init.PaymentURL)
	assert.InDelta(t, 31.4, init.TotalAmount, 1e-9)
}

func TestPaymentURLFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "order already settled"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).PaymentURL(context.Background(), 1, "c", "cb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order already settled")
}

func TestLooseDeliveryFeeDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 3, "name": "Taverna", "delivery_fee": "out_of_range", "tax": 5}`))
	}))
	defer srv.Close()

	meta, err := New(srv.URL).RestaurantDetails(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryFeeOutOfRange, meta.DeliveryFee.String())
	assert.Equal(t, "5", meta.Tax.String())
}
