package strategy

import (
	"fmt"
	"math"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// BollingerBounce fades closes outside the Bollinger Bands, targeting a
// reversion to the middle band. Confidence grows with how far the close
// penetrated past the band relative to the band width.
type BollingerBounce struct {
	bb *indicator.Bollinger
}

// NewBollingerBounce creates a Bollinger band reversion strategy
// (typically period 20, 2.0 standard deviations).
func NewBollingerBounce(period int, stdDev float64) *BollingerBounce {
	return &BollingerBounce{bb: indicator.NewBollinger(period, stdDev)}
}

func (s *BollingerBounce) Name() string { return "bollinger" }

func (s *BollingerBounce) OnBar(bar model.Bar) *model.Signal {
	s.bb.Update(bar)
	if !s.bb.Ready() {
		return nil
	}

	upper, mid, lower := s.bb.Upper(), s.bb.Value(), s.bb.Lower()
	width := upper - lower
	if width <= 0 {
		return nil
	}
	entry := bar.Close

	if entry <= lower {
		penetration := (lower - entry) / width
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Long,
			Strength:   math.Min(0.5+penetration*2, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("close %.5f under lower band %.5f", entry, lower),
			EntryPrice: entry,
			StopLoss:   entry - width*0.3,
			TakeProfit: mid,
		}
	}

	if entry >= upper {
		penetration := (entry - upper) / width
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Short,
			Strength:   math.Min(0.5+penetration*2, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("close %.5f over upper band %.5f", entry, upper),
			EntryPrice: entry,
			StopLoss:   entry + width*0.3,
			TakeProfit: mid,
		}
	}

	return nil
}
