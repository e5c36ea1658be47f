// Package paper synthesizes a deterministic tick feed for paper
// trading and demos. It emits a seeded, mean-reverting random walk per
// pair so the rest of the pipeline runs unchanged without a live feed.
package paper

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"fxtrader/internal/model"
)

// Config tunes the synthetic feed.
type Config struct {
	// Pairs and their starting mid prices.
	SeedPrices map[model.Pair]float64

	// Cadence between ticks per pair. Defaults to 250ms.
	Cadence time.Duration

	// Seed fixes the random walk; the same seed replays the same feed.
	Seed int64

	// SpreadPips is the fixed bid/ask spread. Defaults to 1 pip.
	SpreadPips float64

	// VolPips bounds one step of the walk. Defaults to 2 pips.
	VolPips float64
}

func (c *Config) defaults() {
	if c.Cadence <= 0 {
		c.Cadence = 250 * time.Millisecond
	}
	if c.SpreadPips <= 0 {
		c.SpreadPips = 1
	}
	if c.VolPips <= 0 {
		c.VolPips = 2
	}
}

// Source is a synthetic tick generator with the same role as the live
// gateway: it fills tickCh until the context is cancelled.
type Source struct {
	cfg Config
	rng *rand.Rand
	log *slog.Logger

	mid    map[model.Pair]float64
	anchor map[model.Pair]float64
}

// New creates a source over the configured pairs.
func New(cfg Config, log *slog.Logger) *Source {
	cfg.defaults()
	s := &Source{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		log:    log,
		mid:    make(map[model.Pair]float64, len(cfg.SeedPrices)),
		anchor: make(map[model.Pair]float64, len(cfg.SeedPrices)),
	}
	for pair, price := range cfg.SeedPrices {
		s.mid[pair] = price
		s.anchor[pair] = price
	}
	return s
}

// Run emits ticks on a fixed cadence until ctx is cancelled. Pairs are
// stepped in a stable order so a given seed always produces the same
// feed.
func (s *Source) Run(ctx context.Context, tickCh chan<- model.Tick) error {
	pairs := make([]model.Pair, 0, len(s.mid))
	for pair := range s.mid {
		pairs = append(pairs, pair)
	}
	sortPairs(pairs)

	s.log.Info("paper feed started", "pairs", pairs, "cadence", s.cfg.Cadence)

	ticker := time.NewTicker(s.cfg.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, pair := range pairs {
				tick := s.step(pair, now.UTC())
				select {
				case tickCh <- tick:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// step advances one pair's walk and builds the quoted tick.
func (s *Source) step(pair model.Pair, ts time.Time) model.Tick {
	pip := pair.PipSize()
	mid := s.mid[pair]

	// Random step bounded by VolPips, with a gentle pull back toward
	// the seed price so the walk stays in a realistic band.
	step := (s.rng.Float64()*2 - 1) * s.cfg.VolPips * pip
	revert := (s.anchor[pair] - mid) * 0.001
	mid += step + revert
	s.mid[pair] = mid

	half := s.cfg.SpreadPips * pip / 2
	return model.Tick{
		Pair:   pair,
		Bid:    mid - half,
		Ask:    mid + half,
		Volume: 1 + s.rng.Int63n(100),
		TS:     ts,
	}
}

func sortPairs(pairs []model.Pair) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j] < pairs[j-1]; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
