package risk

import (
	"math"

	"fxtrader/internal/model"
)

// StopMode selects how protective stops are placed.
type StopMode string

const (
	StopModeATR   StopMode = "atr"
	StopModeFixed StopMode = "fixed"
)

// StopLoss computes the protective stop for an entry. In ATR mode the
// stop sits atrMultiple ATRs away; in fixed mode it sits fixedPips away.
// ATR mode falls back to fixed when no ATR value is available yet.
func StopLoss(mode StopMode, pair model.Pair, side model.Direction, entry, atr, atrMultiple, fixedPips float64) float64 {
	var distance float64
	if mode == StopModeATR && atr > 0 {
		distance = atr * atrMultiple
	} else {
		distance = fixedPips * pair.PipSize()
	}

	if side == model.Long {
		return entry - distance
	}
	return entry + distance
}

// TakeProfit computes the profit target from the stop distance and a
// risk-reward ratio.
func TakeProfit(side model.Direction, entry, stop, riskReward float64) float64 {
	profit := math.Abs(entry-stop) * riskReward
	if side == model.Long {
		return entry + profit
	}
	return entry - profit
}

// TrailStop returns the ratcheted stop for a position at the given
// price, or 0 when no update is needed. Stops only ever tighten; a
// price move against the position never loosens one.
func TrailStop(p model.Position, price float64) float64 {
	if p.TrailingD <= 0 || p.StopPrice == 0 {
		return 0
	}

	if p.Side == model.Long {
		if newStop := price - p.TrailingD; newStop > p.StopPrice {
			return newStop
		}
		return 0
	}
	if newStop := price + p.TrailingD; newStop < p.StopPrice {
		return newStop
	}
	return 0
}
