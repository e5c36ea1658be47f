package risk

import (
	"fmt"

	"fxtrader/internal/model"
)

// CloseLevel is one rung of the partial take ladder: once a position is
// up targetPips, ratio of its original size is closed.
type CloseLevel struct {
	TargetPips float64
	Ratio      float64
}

// DefaultCloseLevels is the standard scale-out ladder.
var DefaultCloseLevels = []CloseLevel{
	{TargetPips: 30, Ratio: 0.5},
	{TargetPips: 60, Ratio: 0.3},
	{TargetPips: 100, Ratio: 0.2},
}

// CloseLevelsFor builds the scale-out ladder for a configured
// first-rung fraction: frac comes off at the first target and the
// remainder is split 60/40 over the later rungs. Fractions outside
// (0, 1) fall back to DefaultCloseLevels.
func CloseLevelsFor(frac float64) []CloseLevel {
	if frac <= 0 || frac >= 1 {
		return DefaultCloseLevels
	}
	rest := 1 - frac
	return []CloseLevel{
		{TargetPips: 30, Ratio: frac},
		{TargetPips: 60, Ratio: rest * 0.6},
		{TargetPips: 100, Ratio: rest * 0.4},
	}
}

// partialTracker remembers which ladder rungs each position has already
// taken so a level fires at most once per position.
type partialTracker struct {
	levels   []CloseLevel
	executed map[model.Pair]map[int]bool
	origQty  map[model.Pair]int64
	lotStep  int64
}

func newPartialTracker(levels []CloseLevel, lotStep int64) *partialTracker {
	return &partialTracker{
		levels:   levels,
		executed: make(map[model.Pair]map[int]bool),
		origQty:  make(map[model.Pair]int64),
		lotStep:  lotStep,
	}
}

// opened registers a fresh position's full size.
func (t *partialTracker) opened(p model.Position) {
	t.executed[p.Pair] = make(map[int]bool)
	t.origQty[p.Pair] = p.Quantity
}

// closed clears the ladder state for a flat pair.
func (t *partialTracker) closed(pair model.Pair) {
	delete(t.executed, pair)
	delete(t.origQty, pair)
}

// check returns the quantity to scale out at the current price, or 0.
func (t *partialTracker) check(p model.Position, price float64) (int64, string) {
	done, ok := t.executed[p.Pair]
	if !ok {
		return 0, ""
	}

	profitPips := p.UnrealizedPips(price)
	if profitPips <= 0 {
		return 0, ""
	}

	for i, lvl := range t.levels {
		if done[i] || profitPips < lvl.TargetPips {
			continue
		}
		qty := int64(float64(t.origQty[p.Pair]) * lvl.Ratio)
		if t.lotStep > 0 {
			qty = qty / t.lotStep * t.lotStep
		}
		if qty <= 0 || qty > p.Quantity {
			continue
		}
		done[i] = true
		return qty, fmt.Sprintf("partial close, %.0f pips reached", lvl.TargetPips)
	}
	return 0, ""
}
