package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"fxtrader/internal/model"
)

// PaperExecutor simulates execution against the live quote stream.
// Buys lift the ask, sells hit the bid, and a configurable slippage in
// basis points moves the price further against the order. Fill values
// are accounted in decimal so the simulated ledger never drifts.
type PaperExecutor struct {
	quotes      Quoter
	slippageBps int64
	log         *slog.Logger

	mu     sync.Mutex
	fills  []model.Fill
	traded decimal.Decimal // gross notional, for the session report
}

// NewPaperExecutor creates a paper execution book over a quote source.
func NewPaperExecutor(quotes Quoter, slippageBps int64, log *slog.Logger) *PaperExecutor {
	return &PaperExecutor{
		quotes:      quotes,
		slippageBps: slippageBps,
		log:         log,
	}
}

// Submit fills the order immediately at the current quote. Returns an
// error when no quote has been seen for the pair yet.
func (p *PaperExecutor) Submit(_ context.Context, order model.Order) (model.Fill, error) {
	tick, ok := p.quotes.Last(order.Pair)
	if !ok {
		return model.Fill{}, fmt.Errorf("paper: no quote for %s", order.Pair)
	}

	price := tick.Ask
	if order.Side == model.Short {
		price = tick.Bid
	}

	slip := price * float64(p.slippageBps) / 10000
	if order.Side == model.Long {
		price += slip
	} else {
		price -= slip
	}

	fill := model.Fill{
		OrderID:  order.ID,
		Pair:     order.Pair,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    price,
		Slippage: order.Pair.Pips(slip),
		TS:       tick.TS,
	}

	p.mu.Lock()
	p.fills = append(p.fills, fill)
	p.traded = p.traded.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(order.Quantity)))
	p.mu.Unlock()

	p.log.Debug("paper fill",
		"order_id", order.ID, "pair", order.Pair, "side", order.Side,
		"qty", order.Quantity, "price", price)
	return fill, nil
}

// Fills returns a snapshot of all fills this session.
func (p *PaperExecutor) Fills() []model.Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]model.Fill, len(p.fills))
	copy(cp, p.fills)
	return cp
}

// Notional returns the gross traded notional this session.
func (p *PaperExecutor) Notional() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.traded
}
