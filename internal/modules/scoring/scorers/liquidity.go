package scorers

import (
	"github.com/aristath/earnscan/internal/domain"
)

// LiquidityScorer scores options-market liquidity (not stock liquidity).
// Below-minimum volume or open interest is a hard filter: fills and exits
// on illiquid chains cost more than any theoretical edge is worth.
type LiquidityScorer struct {
	weight    float64
	minVolume int64
	minOI     int64
}

// LiquidityConfig holds scorer thresholds. Zero values use defaults.
type LiquidityConfig struct {
	Weight    float64
	MinVolume int64
	MinOI     int64
}

// NewLiquidityScorer creates the liquidity scorer.
func NewLiquidityScorer(cfg LiquidityConfig) *LiquidityScorer {
	if cfg.Weight == 0 {
		cfg.Weight = WeightLiquidity
	}
	if cfg.MinVolume == 0 {
		cfg.MinVolume = 100
	}
	if cfg.MinOI == 0 {
		cfg.MinOI = 500
	}

	return &LiquidityScorer{
		weight:    cfg.Weight,
		minVolume: cfg.MinVolume,
		minOI:     cfg.MinOI,
	}
}

// Name returns the scorer name
func (s *LiquidityScorer) Name() string { return "liquidity" }

// Weight returns the scorer weight
func (s *LiquidityScorer) Weight() float64 { return s.weight }

// HardFilter reports that a zero from this scorer excludes the ticker.
func (s *LiquidityScorer) HardFilter() bool { return true }

// Score scores the snapshot's options liquidity.
// Composite of volume (40%), open interest (40%) and spread (20%).
func (s *LiquidityScorer) Score(snap domain.TickerSnapshot) float64 {
	opts := snap.Options

	if opts.OptionsVolume < s.minVolume || opts.OpenInterest < s.minOI {
		return 0 // hard filter
	}

	volScore := scoreVolume(opts.OptionsVolume)
	oiScore := scoreOpenInterest(opts.OpenInterest)
	spreadScore := scoreSpread(opts.BidAskSpreadPct)

	return round2(volScore*0.40 + oiScore*0.40 + spreadScore*0.20)
}

func scoreVolume(volume int64) float64 {
	switch {
	case volume >= 10000:
		return 100
	case volume >= 5000:
		return 80
	case volume >= 1000:
		return 60
	case volume >= 500:
		return 40
	default:
		return 20
	}
}

func scoreOpenInterest(oi int64) float64 {
	switch {
	case oi >= 20000:
		return 100
	case oi >= 10000:
		return 80
	case oi >= 5000:
		return 60
	case oi >= 2000:
		return 40
	default:
		return 20
	}
}

// scoreSpread buckets the bid/ask spread as a fraction of mid.
// Missing data scores neutral 50 - thin names often lack a quote.
func scoreSpread(spread *float64) float64 {
	if spread == nil {
		return 50
	}

	switch {
	case *spread <= 0.05:
		return 100
	case *spread <= 0.10:
		return 80
	case *spread <= 0.15:
		return 60
	case *spread <= 0.20:
		return 40
	default:
		return 20
	}
}
