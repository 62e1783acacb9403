// Package scorers provides the ticker scoring implementations used by the
// composite scorer. Each scorer maps a subset of snapshot attributes to a
// 0-100 sub-score and carries an immutable weight.
//
// Scorers never fail for missing or partial data - every missing-field case
// has a defined numeric fallback. Only malformed input is an error, and that
// is caught upstream by the composite's snapshot validation.
package scorers

import "github.com/aristath/earnscan/internal/domain"

// Scorer is the common contract of the five scoring units.
type Scorer interface {
	// Name identifies the scorer in breakdowns and logs.
	Name() string

	// Weight is the scorer's share of the composite, in (0, 1].
	Weight() float64

	// Score maps a snapshot to [0, 100].
	Score(snap domain.TickerSnapshot) float64

	// HardFilter reports whether a zero score from this scorer excludes
	// the ticker entirely rather than merely dragging the average down.
	HardFilter() bool
}

// Default weights. They intentionally sum to 1.20: the headroom keeps
// top-tier tickers distinguishable after the proximity multiplier instead
// of all clipping at 100.
const (
	WeightIVLevel      = 0.25
	WeightIVExpansion  = 0.35
	WeightLiquidity    = 0.30
	WeightCrushEdge    = 0.25
	WeightFundamentals = 0.05
)
