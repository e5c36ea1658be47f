// Package indicator provides incremental technical indicator
// calculations over bar data.
//
// All indicators implement the Indicator interface, receiving bars and
// producing float64 values. Updates are O(1) or O(window) per bar; no
// indicator rescans full history. Values are undefined until Ready
// reports true, and callers must gate on it.
package indicator

import "fxtrader/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA_20", "EMA_9").
	Name() string

	// Update feeds a new bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current calculated value. Returns 0 if not
	// enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
