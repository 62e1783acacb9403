package scorers

import (
	"github.com/aristath/earnscan/internal/domain"
)

// CrushEdgeScorer scores the historical IV crush ratio (expected move over
// actual move). A ratio above 1 means the options market has historically
// over-priced this name's earnings moves - the seller's edge.
type CrushEdgeScorer struct {
	weight float64
}

// NewCrushEdgeScorer creates the crush-edge scorer.
func NewCrushEdgeScorer(weight float64) *CrushEdgeScorer {
	if weight == 0 {
		weight = WeightCrushEdge
	}
	return &CrushEdgeScorer{weight: weight}
}

// Name returns the scorer name
func (s *CrushEdgeScorer) Name() string { return "crush_edge" }

// Weight returns the scorer weight
func (s *CrushEdgeScorer) Weight() float64 { return s.weight }

// HardFilter returns false: even the zero bucket here is an ordinary low
// score, not an exclusion.
func (s *CrushEdgeScorer) HardFilter() bool { return false }

// Score buckets the crush ratio. The ratio is often unavailable for thin
// names, so missing data is neutral 50 rather than a penalty. Below 1.0 is
// the only zero bucket: history says the market under-prices this name's
// moves, a genuine negative signal.
func (s *CrushEdgeScorer) Score(snap domain.TickerSnapshot) float64 {
	ratio := snap.Options.IVCrushRatio
	if ratio == nil {
		return 50
	}

	switch {
	case *ratio >= 1.3:
		return 100
	case *ratio >= 1.2:
		return 80
	case *ratio >= 1.1:
		return 60
	case *ratio >= 1.0:
		return 40
	default:
		return 0
	}
}
