package strategy

import (
	"fmt"
	"sort"
	"strings"

	"fxtrader/internal/model"
)

// Combiner fuses member strategy signals through a confidence-weighted
// vote. Each vote contributes weight*strength with its direction's
// sign; the fused direction follows the sign of the sum, and its
// strength is the winning side's share. Results below the confidence
// threshold are suppressed.
type Combiner struct {
	weights       map[string]float64
	minConfidence float64
}

// NewCombiner creates a Combiner. Strategies missing from weights get
// weight 1.0, so an empty map is an equal-weight vote.
func NewCombiner(weights map[string]float64, minConfidence float64) *Combiner {
	if weights == nil {
		weights = map[string]float64{}
	}
	return &Combiner{weights: weights, minConfidence: minConfidence}
}

func (c *Combiner) weight(strategyID string) float64 {
	if w, ok := c.weights[strategyID]; ok {
		return w
	}
	return 1.0
}

// Fuse combines the bar's member votes into at most one signal. Returns
// nil when there are no votes, the sides cancel out, or the fused
// confidence is below threshold.
func (c *Combiner) Fuse(bar model.Bar, votes []model.Signal) *model.Signal {
	if len(votes) == 0 {
		return nil
	}

	var score, total float64
	for _, v := range votes {
		w := c.weight(v.StrategyID) * v.Strength
		total += w
		switch v.Direction {
		case model.Long:
			score += w
		case model.Short:
			score -= w
		}
	}
	if total == 0 || score == 0 {
		return nil
	}

	dir := model.Long
	if score < 0 {
		dir = model.Short
	}
	strength := (total + abs(score)) / (2 * total) // winning side's share of total weight
	if strength < c.minConfidence {
		return nil
	}

	// Price levels come from the strongest agreeing member; reasons are
	// collected from all of them.
	var agreeing []model.Signal
	for _, v := range votes {
		if v.Direction == dir {
			agreeing = append(agreeing, v)
		}
	}
	sort.Slice(agreeing, func(i, j int) bool {
		return c.weight(agreeing[i].StrategyID)*agreeing[i].Strength >
			c.weight(agreeing[j].StrategyID)*agreeing[j].Strength
	})
	best := agreeing[0]

	reasons := make([]string, 0, len(agreeing))
	for _, v := range agreeing {
		reasons = append(reasons, v.StrategyID+": "+v.Rationale)
	}

	return &model.Signal{
		StrategyID: "combined",
		Pair:       bar.Pair,
		Direction:  dir,
		Strength:   strength,
		TS:         bar.CloseTime(),
		Rationale:  fmt.Sprintf("%d of %d agree (%s)", len(agreeing), len(votes), strings.Join(reasons, "; ")),
		EntryPrice: best.EntryPrice,
		StopLoss:   best.StopLoss,
		TakeProfit: best.TakeProfit,
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
