package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/model"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(context.Context) (string, error) { return s.token, nil }

func TestPlaceOrderSendsAuthAndDecodesFill(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-API-Key")

		var req orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ord-1", req.ClientOrderID)
		assert.Equal(t, "USD/JPY", req.Pair)

		json.NewEncoder(w).Encode(orderResponse{
			OrderID:  "broker-77",
			Price:    150.02,
			Quantity: req.Quantity,
			TS:       1700000000,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", staticTokens{"tok-1"}, time.Second)
	fill, err := c.PlaceOrder(context.Background(), model.Order{
		ID:       "ord-1",
		Pair:     model.USDJPY,
		Side:     model.Long,
		Quantity: 10_000,
		Kind:     model.Market,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "ord-1", fill.OrderID)
	assert.Equal(t, 150.02, fill.Price)
	assert.Equal(t, int64(10_000), fill.Quantity)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), fill.TS)
}

func TestPlaceOrderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(orderResponse{Price: 1.1, Quantity: 1000, TS: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", staticTokens{"t"}, time.Second)
	_, err := c.PlaceOrder(context.Background(), model.Order{ID: "ord-2", Pair: model.EURUSD, Side: model.Long, Quantity: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestPlaceOrderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"insufficient margin"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", staticTokens{"t"}, time.Second)
	_, err := c.PlaceOrder(context.Background(), model.Order{ID: "ord-3", Pair: model.EURUSD, Side: model.Short, Quantity: 1000})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, int64(1), calls.Load(), "4xx must not be retried")
}

func TestGetPositionsMapsBrokerState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/positions", r.URL.Path)
		json.NewEncoder(w).Encode([]positionResponse{
			{Pair: "USD/JPY", Side: "long", Quantity: 20_000, AvgPrice: 149.80, OpenedAt: 1700000000},
			{Pair: "EUR/USD", Side: "short", Quantity: 5_000, AvgPrice: 1.0850, OpenedAt: 1700000100},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", staticTokens{"t"}, time.Second)
	positions, err := c.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assert.Equal(t, model.USDJPY, positions[0].Pair)
	assert.Equal(t, model.Long, positions[0].Side)
	assert.Equal(t, int64(20_000), positions[0].Quantity)
	assert.Equal(t, 149.80, positions[0].EntryPrice)
	assert.Equal(t, model.StateOpen, positions[0].State)
	assert.Equal(t, model.Short, positions[1].Side)
}

func TestTOTPSessionCachesToken(t *testing.T) {
	var logins atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		assert.Equal(t, "/v1/session", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key-1", req["api_key"])
		assert.Len(t, req["totp"], 6)

		json.NewEncoder(w).Encode(sessionResponse{Token: "sess-1", ExpiresIn: 3600})
	}))
	defer srv.Close()

	s := NewTOTPSession(srv.URL, "key-1", "secret-1", "JBSWY3DPEHPK3PXP", time.Second)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", tok)

	tok, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", tok)
	assert.Equal(t, int64(1), logins.Load(), "cached token must be reused")
}

func TestTOTPSessionRefreshesNearExpiry(t *testing.T) {
	var logins atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := logins.Add(1)
		json.NewEncoder(w).Encode(sessionResponse{
			Token:     "sess-" + string(rune('0'+n)),
			ExpiresIn: 30, // inside the one minute refresh margin
		})
	}))
	defer srv.Close()

	s := NewTOTPSession(srv.URL, "k", "s", "JBSWY3DPEHPK3PXP", time.Second)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", tok)

	tok, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-2", tok)
	assert.Equal(t, int64(2), logins.Load())
}

func TestTOTPSessionRejectsFailedLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad totp"}`))
	}))
	defer srv.Close()

	s := NewTOTPSession(srv.URL, "k", "s", "JBSWY3DPEHPK3PXP", time.Second)
	_, err := s.Token(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
