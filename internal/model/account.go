package model

import "github.com/shopspring/decimal"

// Account is the trading account state. Single logical owner is the risk
// manager; other layers read snapshots and never mutate it.
type Account struct {
	Equity          decimal.Decimal   `json:"equity"`
	RealizedPnL     decimal.Decimal   `json:"realized_pnl"`
	PeakEquity      decimal.Decimal   `json:"peak_equity"`
	MaxDrawdownSeen float64           `json:"max_drawdown_seen"` // fraction of peak, 0-1
	OpenPositions   map[Pair]Position `json:"open_positions"`
}

// NewAccount creates an account with the given starting equity.
func NewAccount(equity decimal.Decimal) Account {
	return Account{
		Equity:        equity,
		PeakEquity:    equity,
		OpenPositions: make(map[Pair]Position),
	}
}

// Drawdown returns the current decline from peak equity as a fraction.
func (a Account) Drawdown() float64 {
	if a.PeakEquity.IsZero() {
		return 0
	}
	dd, _ := a.PeakEquity.Sub(a.Equity).Div(a.PeakEquity).Float64()
	if dd < 0 {
		return 0
	}
	return dd
}

// Snapshot returns a deep copy safe to hand to readers.
func (a Account) Snapshot() Account {
	cp := a
	cp.OpenPositions = make(map[Pair]Position, len(a.OpenPositions))
	for k, v := range a.OpenPositions {
		cp.OpenPositions[k] = v
	}
	return cp
}
