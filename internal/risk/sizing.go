package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"fxtrader/internal/model"
)

// SizeResult is the outcome of a position size calculation.
type SizeResult struct {
	Units        int64           // recommended size in base currency units
	RiskAmount   decimal.Decimal // account currency at risk if the stop is hit
	StopPips     float64
	RiskReward   float64
}

// PositionSize computes how many units to trade so that a stop-out
// loses at most riskPerTrade of equity. Sizes are rounded down to
// lotStep and clamped to maxUnits. A zero stop distance returns zero
// units; entering without a stop is not allowed.
func PositionSize(equity decimal.Decimal, riskPerTrade float64, pair model.Pair, entry, stop, takeProfit float64, lotStep, maxUnits int64) SizeResult {
	stopDistance := math.Abs(entry - stop)
	res := SizeResult{
		StopPips:   pair.Pips(stopDistance),
		RiskReward: 2.0,
	}
	if stopDistance == 0 {
		return res
	}
	if takeProfit != 0 {
		res.RiskReward = math.Abs(takeProfit-entry) / stopDistance
	}

	res.RiskAmount = equity.Mul(decimal.NewFromFloat(riskPerTrade))

	// Loss per unit on a stop-out is the stop distance in quote
	// currency, which this book treats as the account currency.
	riskFloat, _ := res.RiskAmount.Float64()
	units := int64(riskFloat / stopDistance)

	if lotStep > 0 {
		units = units / lotStep * lotStep
	}
	if maxUnits > 0 && units > maxUnits {
		units = maxUnits
	}
	res.Units = units
	return res
}
