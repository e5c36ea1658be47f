package model

import "time"

// PositionState tracks the lifecycle of a position per instrument:
// Flat → Pending → Open → Closing → Flat.
type PositionState string

const (
	StateFlat    PositionState = "flat"
	StatePending PositionState = "pending"
	StateOpen    PositionState = "open"
	StateClosing PositionState = "closing"
)

// Position is a single open (or opening/closing) position for one pair.
// Owned exclusively by the risk manager; mutated only through execution
// gateway fill confirmations. At most one position per pair at a time.
type Position struct {
	Pair       Pair          `json:"pair"`
	Side       Direction     `json:"side"`
	Quantity   int64         `json:"quantity"`
	EntryPrice float64       `json:"entry_price"`
	StopPrice  float64       `json:"stop_price"`
	TakeProfit float64       `json:"take_profit,omitempty"`
	TrailingD  float64       `json:"trailing_distance,omitempty"` // price units, 0 = disabled
	OpenedAt   time.Time     `json:"opened_at"`
	State      PositionState `json:"state"`
}

// UnrealizedPips returns the open profit in pips at the given price.
func (p Position) UnrealizedPips(price float64) float64 {
	if p.Side == Long {
		return p.Pair.Pips(price - p.EntryPrice)
	}
	return p.Pair.Pips(p.EntryPrice - price)
}

// StopHit reports whether price has crossed the protective stop.
func (p Position) StopHit(price float64) bool {
	if p.StopPrice == 0 {
		return false
	}
	if p.Side == Long {
		return price <= p.StopPrice
	}
	return price >= p.StopPrice
}

// TakeProfitHit reports whether price has reached the profit target.
func (p Position) TakeProfitHit(price float64) bool {
	if p.TakeProfit == 0 {
		return false
	}
	if p.Side == Long {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
