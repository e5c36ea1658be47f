package strategy

import (
	"fmt"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// MACDCross trades crossings of the MACD line over its signal line. A
// cross on the bullish side of zero carries more conviction than one
// below it, and symmetrically for shorts.
type MACDCross struct {
	macd *indicator.MACD
	atr  *indicator.ATR

	prevMACD, prevSignal float64
	seeded               bool
}

// NewMACDCross creates a MACD crossover strategy (typically 12, 26, 9).
func NewMACDCross(fast, slow, signal int) *MACDCross {
	return &MACDCross{
		macd: indicator.NewMACD(fast, slow, signal),
		atr:  indicator.NewATR(14),
	}
}

func (s *MACDCross) Name() string { return "macd" }

func (s *MACDCross) OnBar(bar model.Bar) *model.Signal {
	s.macd.Update(bar)
	s.atr.Update(bar)
	if !s.macd.Ready() || !s.atr.Ready() {
		return nil
	}

	line, sigLine := s.macd.Value(), s.macd.Signal()
	defer func() {
		s.prevMACD, s.prevSignal = line, sigLine
		s.seeded = true
	}()
	if !s.seeded {
		return nil
	}

	entry := bar.Close
	atr := s.atr.Value()

	if s.prevMACD <= s.prevSignal && line > sigLine {
		conf := 0.6
		if line > 0 {
			conf = 0.8
		}
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Long,
			Strength:   conf,
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("MACD cross up at %.6f", line),
			EntryPrice: entry,
			StopLoss:   entry - atr*2,
			TakeProfit: entry + atr*4,
		}
	}

	if s.prevMACD >= s.prevSignal && line < sigLine {
		conf := 0.6
		if line < 0 {
			conf = 0.8
		}
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Short,
			Strength:   conf,
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("MACD cross down at %.6f", line),
			EntryPrice: entry,
			StopLoss:   entry + atr*2,
			TakeProfit: entry - atr*4,
		}
	}

	return nil
}
