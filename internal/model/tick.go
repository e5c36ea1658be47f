package model

import "time"

// Tick represents a single bid/ask observation for a currency pair.
// Ticks are immutable once created and strictly time-ordered per pair;
// the gateway drops anything at or behind the last accepted timestamp.
type Tick struct {
	Pair   Pair      `json:"pair"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Volume int64     `json:"volume,omitempty"`
	TS     time.Time `json:"ts"` // UTC timestamp
}

// Mid returns the mid price between bid and ask.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns the bid/ask spread in pips.
func (t Tick) Spread() float64 {
	return t.Pair.Pips(t.Ask - t.Bid)
}
