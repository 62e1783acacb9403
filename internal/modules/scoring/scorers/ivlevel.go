package scorers

import (
	"github.com/aristath/earnscan/internal/domain"
)

// IVLevelScorer scores the ticker's current absolute implied-volatility
// level. A value below the minimum is a hard filter: without elevated IV
// there is no premium worth selling, whatever the other factors say.
type IVLevelScorer struct {
	weight           float64
	minIV            float64 // hard-filter floor, percent
	excellentIV      float64
	extremeIV        float64
	fallbackOKIV     float64 // 0.67 * minIV, precomputed
	fallbackCapScore float64
}

// IVLevelConfig holds scorer thresholds. Zero values use defaults.
type IVLevelConfig struct {
	Weight      float64
	MinIV       float64
	ExcellentIV float64
	ExtremeIV   float64
}

// NewIVLevelScorer creates the IV-level scorer.
func NewIVLevelScorer(cfg IVLevelConfig) *IVLevelScorer {
	if cfg.Weight == 0 {
		cfg.Weight = WeightIVLevel
	}
	if cfg.MinIV == 0 {
		cfg.MinIV = 60
	}
	if cfg.ExcellentIV == 0 {
		cfg.ExcellentIV = 80
	}
	if cfg.ExtremeIV == 0 {
		cfg.ExtremeIV = 100
	}

	return &IVLevelScorer{
		weight:       cfg.Weight,
		minIV:        cfg.MinIV,
		excellentIV:  cfg.ExcellentIV,
		extremeIV:    cfg.ExtremeIV,
		fallbackOKIV: cfg.MinIV * 0.67,
	}
}

// Name returns the scorer name
func (s *IVLevelScorer) Name() string { return "iv_level" }

// Weight returns the scorer weight
func (s *IVLevelScorer) Weight() float64 { return s.weight }

// HardFilter reports that a zero from this scorer excludes the ticker.
func (s *IVLevelScorer) HardFilter() bool { return true }

// Score scores the snapshot's IV level.
func (s *IVLevelScorer) Score(snap domain.TickerSnapshot) float64 {
	if iv := snap.Options.CurrentIV; iv != nil {
		return s.scoreCurrentIV(*iv)
	}

	// Fallback: secondary source provides a decimal fraction derived from
	// realized volatility. Lower confidence, so capped below 100.
	if snap.IV != nil {
		return s.scoreFallbackIV(*snap.IV * 100)
	}

	// No IV from any source: cannot verify the baseline, exclude.
	return 0
}

func (s *IVLevelScorer) scoreCurrentIV(iv float64) float64 {
	if iv < s.minIV {
		return 0 // hard filter
	}
	if iv >= s.extremeIV || iv >= s.excellentIV {
		return 100
	}
	// Linear ramp between the floor and the excellent threshold:
	// 60 at minIV, approaching 80 just below excellentIV (defaults).
	return 60 + (iv - s.minIV)
}

func (s *IVLevelScorer) scoreFallbackIV(ivPct float64) float64 {
	switch {
	case ivPct >= s.minIV:
		return 80
	case ivPct >= s.fallbackOKIV:
		return 60
	default:
		return 30
	}
}
