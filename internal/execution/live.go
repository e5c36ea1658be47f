package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"

	"fxtrader/internal/broker"
	"fxtrader/internal/model"
)

// LiveExecutor places orders through the broker API. Submissions are
// rate limited and retried with backoff; every attempt reuses the same
// client order ID so broker-side idempotency prevents double fills.
type LiveExecutor struct {
	api     broker.API
	limiter *rate.Limiter
	retries int
	log     *slog.Logger

	rejected []model.RejectedOrder
}

// NewLiveExecutor creates a live executor. reqPerSec bounds the order
// rate against the broker; maxRetries bounds resubmission of one order.
func NewLiveExecutor(api broker.API, reqPerSec float64, maxRetries int, log *slog.Logger) *LiveExecutor {
	return &LiveExecutor{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
		retries: maxRetries,
		log:     log,
	}
}

// Submit places the order, retrying transient failures. On exhaustion
// the order is recorded as rejected and the last error returned; the
// caller decides whether the position retries later.
func (l *LiveExecutor) Submit(ctx context.Context, order model.Order) (model.Fill, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return model.Fill{}, err
	}

	retry := retrypolicy.NewBuilder[model.Fill]().
		WithBackoff(200*time.Millisecond, 3*time.Second).
		WithMaxRetries(l.retries).
		Build()

	fill, err := failsafe.With[model.Fill](retry).GetWithExecution(
		func(exec failsafe.Execution[model.Fill]) (model.Fill, error) {
			if exec.Attempts() > 1 {
				l.log.Warn("resubmitting order",
					"order_id", order.ID, "attempt", exec.Attempts())
			}
			return l.api.PlaceOrder(ctx, order)
		})
	if err != nil {
		l.rejected = append(l.rejected, model.RejectedOrder{Order: order, Reason: err.Error()})
		l.log.Error("order rejected after retries",
			"order_id", order.ID, "pair", order.Pair, "err", err)
		return model.Fill{}, err
	}

	l.log.Info("order filled",
		"order_id", order.ID, "pair", order.Pair, "side", order.Side,
		"qty", fill.Quantity, "price", fill.Price)
	return fill, nil
}

// Rejected returns orders abandoned after retry exhaustion.
func (l *LiveExecutor) Rejected() []model.RejectedOrder {
	return l.rejected
}
