package model

import "time"

// Direction is a strategy's directional recommendation.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
	Flat  Direction = "flat"
)

// Opposite returns the closing direction for an open side.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	}
	return Flat
}

// Signal is a strategy's recommendation for one pair at one bar close.
// Signals are produced fresh on every closed bar and never mutated.
type Signal struct {
	StrategyID string    `json:"strategy_id"`
	Pair       Pair      `json:"pair"`
	Direction  Direction `json:"direction"`
	Strength   float64   `json:"strength"` // 0.0 - 1.0
	TS         time.Time `json:"ts"`
	Rationale  string    `json:"rationale"`

	// Suggested levels, derived from indicator state at signal time.
	// Zero means "no suggestion"; the risk manager recomputes its own.
	EntryPrice float64 `json:"entry_price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// Actionable reports whether the signal recommends taking a position.
func (s Signal) Actionable() bool {
	return s.Direction == Long || s.Direction == Short
}
