package execution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxtrader/internal/marketdata"
	"fxtrader/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPaperExecutorCrossesTheSpread(t *testing.T) {
	quotes := marketdata.NewQuoteCache()
	quotes.Set(model.Tick{
		Pair: model.USDJPY, Bid: 149.995, Ask: 150.005,
		TS: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	p := NewPaperExecutor(quotes, 0, testLogger())

	buy, err := p.Submit(context.Background(), model.Order{
		ID: "o1", Pair: model.USDJPY, Side: model.Long, Quantity: 10_000, Kind: model.Market,
	})
	require.NoError(t, err)
	assert.InDelta(t, 150.005, buy.Price, 1e-9, "buys lift the ask")

	sell, err := p.Submit(context.Background(), model.Order{
		ID: "o2", Pair: model.USDJPY, Side: model.Short, Quantity: 10_000, Kind: model.Market,
	})
	require.NoError(t, err)
	assert.InDelta(t, 149.995, sell.Price, 1e-9, "sells hit the bid")

	assert.Len(t, p.Fills(), 2)
}

func TestPaperExecutorSlippageMovesAgainstOrder(t *testing.T) {
	quotes := marketdata.NewQuoteCache()
	quotes.Set(model.Tick{Pair: model.EURUSD, Bid: 1.0849, Ask: 1.0851})
	p := NewPaperExecutor(quotes, 10, testLogger()) // 10 bps

	buy, err := p.Submit(context.Background(), model.Order{
		ID: "o1", Pair: model.EURUSD, Side: model.Long, Quantity: 1000,
	})
	require.NoError(t, err)
	assert.Greater(t, buy.Price, 1.0851, "slippage worsens the buy price")
	assert.Greater(t, buy.Slippage, 0.0)
}

func TestPaperExecutorNoQuote(t *testing.T) {
	p := NewPaperExecutor(marketdata.NewQuoteCache(), 0, testLogger())
	_, err := p.Submit(context.Background(), model.Order{ID: "o1", Pair: model.GBPJPY})
	assert.Error(t, err)
}

// flakyAPI fails a fixed number of attempts before filling, recording
// the client order ID of every attempt.
type flakyAPI struct {
	failures int
	calls    []string
}

func (f *flakyAPI) PlaceOrder(_ context.Context, order model.Order) (model.Fill, error) {
	f.calls = append(f.calls, order.ID)
	if len(f.calls) <= f.failures {
		return model.Fill{}, errors.New("gateway timeout")
	}
	return model.Fill{
		OrderID: order.ID, Pair: order.Pair, Side: order.Side,
		Quantity: order.Quantity, Price: 150.002, TS: time.Now().UTC(),
	}, nil
}

func TestLiveExecutorRetriesWithSameOrderID(t *testing.T) {
	api := &flakyAPI{failures: 2}
	l := NewLiveExecutor(api, 100, 3, testLogger())

	fill, err := l.Submit(context.Background(), model.Order{
		ID: "idempotent-1", Pair: model.USDJPY, Side: model.Long, Quantity: 10_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "idempotent-1", fill.OrderID)

	require.Len(t, api.calls, 3, "two failures then a fill")
	for _, id := range api.calls {
		assert.Equal(t, "idempotent-1", id, "every attempt must reuse the client order ID")
	}
	assert.Empty(t, l.Rejected())
}

func TestLiveExecutorRecordsRejectionOnExhaustion(t *testing.T) {
	api := &flakyAPI{failures: 100}
	l := NewLiveExecutor(api, 100, 2, testLogger())

	_, err := l.Submit(context.Background(), model.Order{
		ID: "doomed-1", Pair: model.USDJPY, Side: model.Long, Quantity: 10_000,
	})
	require.Error(t, err)
	require.Len(t, l.Rejected(), 1)
	assert.Equal(t, "doomed-1", l.Rejected()[0].Order.ID)
	assert.Len(t, api.calls, 3, "initial attempt plus two retries")
}
