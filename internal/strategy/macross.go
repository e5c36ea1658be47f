package strategy

import (
	"fmt"
	"math"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// MACross trades moving average crossovers.
//
// Long on a golden cross (fast SMA crosses above slow), short on a
// death cross. Confidence scales with the separation between the
// averages at the moment of the cross.
type MACross struct {
	fast *indicator.SMA
	slow *indicator.SMA
	atr  *indicator.ATR

	prevFast, prevSlow float64
	seeded             bool
}

// NewMACross creates an MA crossover strategy. fastPeriod < slowPeriod
// (typically 20 and 50).
func NewMACross(fastPeriod, slowPeriod int) *MACross {
	return &MACross{
		fast: indicator.NewSMA(fastPeriod),
		slow: indicator.NewSMA(slowPeriod),
		atr:  indicator.NewATR(14),
	}
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) OnBar(bar model.Bar) *model.Signal {
	s.fast.Update(bar)
	s.slow.Update(bar)
	s.atr.Update(bar)

	if !s.slow.Ready() || !s.atr.Ready() {
		return nil
	}

	fast, slow := s.fast.Value(), s.slow.Value()
	defer func() {
		s.prevFast, s.prevSlow = fast, slow
		s.seeded = true
	}()

	if !s.seeded {
		return nil
	}

	entry := bar.Close
	atr := s.atr.Value()

	// Golden cross.
	if s.prevFast <= s.prevSlow && fast > slow {
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Long,
			Strength:   math.Min(math.Abs(fast-slow)/slow*100, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("golden cross, fast %.5f above slow %.5f", fast, slow),
			EntryPrice: entry,
			StopLoss:   entry - atr*2,
			TakeProfit: entry + atr*4,
		}
	}

	// Death cross.
	if s.prevFast >= s.prevSlow && fast < slow {
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Short,
			Strength:   math.Min(math.Abs(slow-fast)/slow*100, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("death cross, fast %.5f below slow %.5f", fast, slow),
			EntryPrice: entry,
			StopLoss:   entry + atr*2,
			TakeProfit: entry - atr*4,
		}
	}

	return nil
}
