package model

import "strings"

// Pair identifies a currency pair in BASE/QUOTE form, e.g. "USD/JPY".
type Pair string

// Majors traded by default. Any well-formed BASE/QUOTE string is a
// valid Pair; these are just the common cases.
const (
	USDJPY Pair = "USD/JPY"
	EURUSD Pair = "EUR/USD"
	GBPUSD Pair = "GBP/USD"
	AUDUSD Pair = "AUD/USD"
	EURJPY Pair = "EUR/JPY"
	GBPJPY Pair = "GBP/JPY"
)

// Quote returns the quote currency, or "" for a malformed pair.
func (p Pair) Quote() string {
	if i := strings.IndexByte(string(p), '/'); i >= 0 && i+1 < len(p) {
		return string(p[i+1:])
	}
	return ""
}

// Base returns the base currency, or "" for a malformed pair.
func (p Pair) Base() string {
	if i := strings.IndexByte(string(p), '/'); i > 0 {
		return string(p[:i])
	}
	return ""
}

// PipSize returns the price increment of one pip: 0.01 for JPY-quoted
// pairs, 0.0001 otherwise.
func (p Pair) PipSize() float64 {
	if p.Quote() == "JPY" {
		return 0.01
	}
	return 0.0001
}

// Pips converts a price delta to pips for this pair.
func (p Pair) Pips(delta float64) float64 {
	return delta / p.PipSize()
}
