package strategy

import (
	"fmt"
	"math"

	"fxtrader/internal/indicator"
	"fxtrader/internal/model"
)

// RSIReversion is a mean reversion strategy on RSI extremes: long when
// oversold, short when overbought. A turn in the RSI back toward the
// middle strengthens the signal; without the turn confidence is scaled
// down rather than suppressed.
type RSIReversion struct {
	rsi *indicator.RSI
	atr *indicator.ATR

	oversold   float64
	overbought float64

	prevRSI float64
	seeded  bool
}

// NewRSIReversion creates an RSI mean reversion strategy (typically
// period 14, thresholds 30/70).
func NewRSIReversion(period int, oversold, overbought float64) *RSIReversion {
	return &RSIReversion{
		rsi:        indicator.NewRSI(period),
		atr:        indicator.NewATR(14),
		oversold:   oversold,
		overbought: overbought,
	}
}

func (s *RSIReversion) Name() string { return "rsi_reversion" }

func (s *RSIReversion) OnBar(bar model.Bar) *model.Signal {
	s.rsi.Update(bar)
	s.atr.Update(bar)

	if !s.rsi.Ready() || !s.atr.Ready() {
		return nil
	}

	rsi := s.rsi.Value()
	defer func() {
		s.prevRSI = rsi
		s.seeded = true
	}()
	if !s.seeded {
		return nil
	}

	entry := bar.Close
	atr := s.atr.Value()

	if rsi < s.oversold {
		conf := (s.oversold - rsi) / s.oversold
		if rsi <= s.prevRSI {
			// Still falling: weaker conviction in the bounce.
			conf *= 0.7
		}
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Long,
			Strength:   math.Min(conf, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("oversold, RSI %.1f", rsi),
			EntryPrice: entry,
			StopLoss:   entry - atr*2,
			TakeProfit: entry + atr*3,
		}
	}

	if rsi > s.overbought {
		conf := (rsi - s.overbought) / (100 - s.overbought)
		if rsi >= s.prevRSI {
			conf *= 0.7
		}
		return &model.Signal{
			StrategyID: s.Name(),
			Pair:       bar.Pair,
			Direction:  model.Short,
			Strength:   math.Min(conf, 1.0),
			TS:         bar.CloseTime(),
			Rationale:  fmt.Sprintf("overbought, RSI %.1f", rsi),
			EntryPrice: entry,
			StopLoss:   entry + atr*2,
			TakeProfit: entry - atr*3,
		}
	}

	return nil
}
