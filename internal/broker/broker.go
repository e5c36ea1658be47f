// Package broker talks to the FX broker's REST API: session
// management, order placement and account queries. Network resilience
// (retry with backoff, circuit breaking on persistent 5xx) lives here
// so callers see a single attempt semantics per call.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"fxtrader/internal/model"
)

// API is the broker surface the execution layer depends on.
type API interface {
	// PlaceOrder submits an order. The order's ID is the idempotency
	// key: resubmitting the same ID must not double-fill.
	PlaceOrder(ctx context.Context, order model.Order) (model.Fill, error)
}

// APIError is a non-2xx broker response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("broker: status=%d body=%s", e.StatusCode, string(e.Body))
}

// TokenProvider supplies a session token for request auth.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client is the REST client with resilience policies.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	tokens   TokenProvider
	pipeline failsafe.Executor[*http.Response]
}

// NewClient creates a broker REST client.
func NewClient(baseURL, apiKey string, tokens TokenProvider, timeout time.Duration) *Client {
	retry := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		}).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(10 * time.Second).
		Build()

	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   apiKey,
		tokens:   tokens,
		pipeline: failsafe.With[*http.Response](retry, breaker),
	}
}

type orderRequest struct {
	ClientOrderID string  `json:"client_order_id"`
	Pair          string  `json:"pair"`
	Side          string  `json:"side"`
	Quantity      int64   `json:"quantity"`
	Kind          string  `json:"kind"`
	Price         float64 `json:"price,omitempty"`
}

type orderResponse struct {
	OrderID  string  `json:"order_id"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	TS       int64   `json:"ts"`
}

// PlaceOrder submits an order and returns the broker's fill. The
// client order ID makes retried submissions idempotent server side.
func (c *Client) PlaceOrder(ctx context.Context, order model.Order) (model.Fill, error) {
	req := orderRequest{
		ClientOrderID: order.ID,
		Pair:          string(order.Pair),
		Side:          string(order.Side),
		Quantity:      order.Quantity,
		Kind:          string(order.Kind),
		Price:         order.Price,
	}

	body, err := c.post(ctx, "/v1/orders", req)
	if err != nil {
		return model.Fill{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Fill{}, fmt.Errorf("broker: decode order response: %w", err)
	}

	return model.Fill{
		OrderID:  order.ID,
		Pair:     order.Pair,
		Side:     order.Side,
		Quantity: resp.Quantity,
		Price:    resp.Price,
		TS:       time.Unix(resp.TS, 0).UTC(),
	}, nil
}

type positionResponse struct {
	Pair     string  `json:"pair"`
	Side     string  `json:"side"`
	Quantity int64   `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
	OpenedAt int64   `json:"opened_at"`
}

// GetPositions fetches the broker's view of open positions, used to
// reconcile local state at startup.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/positions", nil)
	if err != nil {
		return nil, err
	}

	var resp []positionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("broker: decode positions: %w", err)
	}

	out := make([]model.Position, 0, len(resp))
	for _, p := range resp {
		out = append(out, model.Position{
			Pair:       model.Pair(p.Pair),
			Side:       model.Direction(p.Side),
			Quantity:   p.Quantity,
			EntryPrice: p.AvgPrice,
			OpenedAt:   time.Unix(p.OpenedAt, 0).UTC(),
			State:      model.StateOpen,
		})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("broker: session token: %w", err)
	}

	var raw []byte
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("broker: marshal request: %w", err)
		}
	}

	resp, err := c.pipeline.GetWithExecution(func(_ failsafe.Execution[*http.Response]) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+token)
		return c.http.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("broker: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("broker: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
