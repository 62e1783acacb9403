// Package vrp implements the volatility-risk-premium calculator: it turns a
// ticker's historical earnings-day moves plus one options-implied move into
// a single actionable recommendation tier.
package vrp

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/pkg/formulas"
)

// Thresholds holds the VRP-ratio tier boundaries. Each bound is inclusive
// at the lower edge of its tier.
type Thresholds struct {
	Excellent float64
	Good      float64
	Marginal  float64
}

// DefaultThresholds returns the standard tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent: 7.0,
		Good:      4.0,
		Marginal:  1.5,
	}
}

// Config holds calculator configuration. Zero values fall back to defaults.
type Config struct {
	MinQuarters int               // minimum historical data points (default 4)
	MoveMetric  domain.MoveMetric // which move series to use (default close)
	Thresholds  Thresholds
	Lookback    int // max historical records considered, most recent first (default 12)
}

// Calculator computes VRP results from historical moves.
type Calculator struct {
	store domain.MoveStore
	cfg   Config
	log   zerolog.Logger
}

// New creates a calculator. Configuration is validated here so threshold
// mistakes fail fast instead of producing silently wrong tiering.
func New(store domain.MoveStore, cfg Config, log zerolog.Logger) (*Calculator, error) {
	if cfg.MinQuarters == 0 {
		cfg.MinQuarters = 4
	}
	if cfg.MoveMetric == "" {
		cfg.MoveMetric = domain.MoveClose
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 12
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}

	if !cfg.MoveMetric.Valid() {
		return nil, fmt.Errorf("unknown move metric %q", cfg.MoveMetric)
	}
	if cfg.MinQuarters < 1 {
		return nil, fmt.Errorf("min quarters must be at least 1, got %d", cfg.MinQuarters)
	}
	t := cfg.Thresholds
	if !(t.Excellent > t.Good && t.Good > t.Marginal && t.Marginal > 0) {
		return nil, fmt.Errorf("thresholds must satisfy excellent > good > marginal > 0, got %.2f/%.2f/%.2f",
			t.Excellent, t.Good, t.Marginal)
	}

	return &Calculator{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "vrp").Logger(),
	}, nil
}

// GetHistoricalMoves fetches up to limit most recent moves for a ticker.
// An unknown ticker yields an empty slice, not an error.
func (c *Calculator) GetHistoricalMoves(ticker string, limit int) ([]domain.HistoricalMove, error) {
	return c.store.GetMoves(ticker, limit)
}

// Calculate evaluates the VRP for one ticker and expiration. A nil result
// (with nil error) means "insufficient data, skip this ticker" - callers
// must branch on it, it is a normal outcome.
//
// impliedMovePct is the options-implied move percent the caller already
// derived (e.g. from an ATM straddle); this function fetches no option
// prices itself.
func (c *Calculator) Calculate(ticker string, expiration time.Time, impliedMovePct float64) (*domain.VRPResult, error) {
	if impliedMovePct < 0 {
		return nil, fmt.Errorf("implied move must be non-negative, got %.2f", impliedMovePct)
	}

	moves, err := c.GetHistoricalMoves(ticker, c.cfg.Lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical moves for %s: %w", ticker, err)
	}

	absMoves := make([]float64, 0, len(moves))
	for _, m := range moves {
		absMoves = append(absMoves, m.MoveFor(c.cfg.MoveMetric))
	}
	absMoves = formulas.AbsValues(absMoves)

	if len(absMoves) < c.cfg.MinQuarters {
		c.log.Debug().
			Str("ticker", ticker).
			Int("quarters", len(absMoves)).
			Int("required", c.cfg.MinQuarters).
			Msg("Insufficient historical moves, skipping")
		return nil, nil
	}

	mean := formulas.Mean(absMoves)
	if mean == 0 {
		// A zero mean makes the ratio undefined; treat like missing data.
		c.log.Debug().Str("ticker", ticker).Msg("Zero historical mean move, skipping")
		return nil, nil
	}

	median := formulas.Median(absMoves)
	ratio := impliedMovePct / mean

	// Penalize erratic historical moves: consistency of the edge is itself
	// a risk factor, so two tickers with the same ratio diverge on edge
	// score when one's history is noisier.
	dispersion := 1.0
	if median > 0 {
		dispersion = 1 + formulas.MeanAbsDev(absMoves)/median
	}
	edge := ratio / dispersion

	return &domain.VRPResult{
		Ticker:              ticker,
		Expiration:          expiration,
		ImpliedMovePct:      impliedMovePct,
		HistoricalMeanPct:   mean,
		HistoricalMedianPct: median,
		HistoricalStdPct:    formulas.StdDev(absMoves),
		VRPRatio:            ratio,
		EdgeScore:           edge,
		Recommendation:      c.recommend(ratio),
		QuartersOfData:      len(absMoves),
	}, nil
}

// recommend maps a VRP ratio to its tier. Lower bounds are inclusive:
// a ratio exactly at a threshold lands in the tier it opens.
func (c *Calculator) recommend(ratio float64) domain.Recommendation {
	t := c.cfg.Thresholds
	switch {
	case ratio >= t.Excellent:
		return domain.RecommendationExcellent
	case ratio >= t.Good:
		return domain.RecommendationGood
	case ratio >= t.Marginal:
		return domain.RecommendationMarginal
	default:
		return domain.RecommendationSkip
	}
}
