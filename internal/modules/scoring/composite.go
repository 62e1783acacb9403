// Package scoring combines the individual scorer units into a single
// weighted composite score per ticker, with hard-filter short-circuiting,
// an earnings-proximity multiplier and snapshot-level memoization.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/modules/scoring/scorers"
	"github.com/aristath/earnscan/pkg/cache"
)

// Config holds composite scorer configuration. Zero values use defaults.
type Config struct {
	CacheTTL  time.Duration
	CacheSize int
}

// CompositeScorer runs the scorer units in order and folds their sub-scores
// into a final 0-100 score. Hard-filter scorers are placed first so an
// excluded ticker skips the remaining (possibly I/O-backed) units.
type CompositeScorer struct {
	scorers []scorers.Scorer
	cache   *cache.Cache[snapshotKey, domain.ScoreBreakdown]
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a composite scorer over the given units. The slice order is
// preserved; callers put hard-filter scorers first.
func New(units []scorers.Scorer, cfg Config, log zerolog.Logger) *CompositeScorer {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 2048
	}

	return &CompositeScorer{
		scorers: units,
		cache:   cache.New[snapshotKey, domain.ScoreBreakdown](cfg.CacheTTL, cfg.CacheSize),
		now:     time.Now,
		log:     log.With().Str("component", "composite_scorer").Logger(),
	}
}

// Score computes the composite score for a snapshot. Results are memoized
// on the full snapshot content: two identical snapshots within the cache
// TTL share one computation.
func (c *CompositeScorer) Score(snap domain.TickerSnapshot) (*domain.ScoreBreakdown, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot for %q: %w", snap.Ticker, err)
	}

	key := keyFor(snap)
	if cached, ok := c.cache.Get(key); ok {
		return &cached, nil
	}

	breakdown := c.compute(snap)
	c.cache.Set(key, breakdown)
	return &breakdown, nil
}

func (c *CompositeScorer) compute(snap domain.TickerSnapshot) domain.ScoreBreakdown {
	breakdown := domain.ScoreBreakdown{
		Ticker:     snap.Ticker,
		Components: make(map[string]float64, len(c.scorers)),
		Weights:    make(map[string]float64, len(c.scorers)),
	}

	var weightedSum, totalWeight float64
	for _, s := range c.scorers {
		score := s.Score(snap)
		breakdown.Components[s.Name()] = score
		breakdown.Weights[s.Name()] = s.Weight()

		if s.HardFilter() && score == 0 {
			breakdown.HardFilter = s.Name()
			breakdown.Final = 0
			c.log.Debug().
				Str("ticker", snap.Ticker).
				Str("filter", s.Name()).
				Msg("ticker hard-filtered")
			return breakdown
		}

		weightedSum += score * s.Weight()
		totalWeight += s.Weight()
	}

	if totalWeight == 0 {
		return breakdown
	}

	// Normalize the weighted sum back onto 0-100 regardless of what the
	// configured weights add up to, then apply the proximity boost.
	base := weightedSum / totalWeight
	final := base * c.proximityMultiplier(snap.EarningsDate)

	breakdown.Final = round2(math.Min(100, math.Max(0, final)))
	return breakdown
}

// proximityMultiplier boosts or dampens the score based on how close the
// earnings event is. IV build-up accelerates in the final days; a setup
// more than two weeks out usually still has time to decay.
func (c *CompositeScorer) proximityMultiplier(earningsDate string) float64 {
	if earningsDate == "" {
		return 1.00
	}

	date, err := time.Parse("2006-01-02", earningsDate)
	if err != nil {
		// Bad dates come from upstream calendar feeds; treat as unknown.
		c.log.Debug().Str("date", earningsDate).Msg("unparsable earnings date")
		return 1.00
	}

	today := c.now().Truncate(24 * time.Hour)
	days := int(date.Sub(today).Hours() / 24)

	switch {
	case days <= 0:
		return 1.15
	case days <= 2:
		return 1.10
	case days <= 5:
		return 1.00
	case days <= 10:
		return 0.95
	default:
		return 0.85
	}
}

// validateSnapshot rejects malformed input before any scorer runs. Missing
// optional data is fine (scorers have fallbacks); impossible values are not.
func validateSnapshot(snap domain.TickerSnapshot) error {
	if snap.Ticker == "" {
		return fmt.Errorf("empty ticker")
	}
	if snap.Price <= 0 || math.IsNaN(snap.Price) || math.IsInf(snap.Price, 0) {
		return fmt.Errorf("price must be positive, got %v", snap.Price)
	}
	if snap.MarketCap < 0 || math.IsNaN(snap.MarketCap) {
		return fmt.Errorf("market cap must be non-negative, got %v", snap.MarketCap)
	}
	if snap.Options.OptionsVolume < 0 {
		return fmt.Errorf("options volume must be non-negative, got %d", snap.Options.OptionsVolume)
	}
	if snap.Options.OpenInterest < 0 {
		return fmt.Errorf("open interest must be non-negative, got %d", snap.Options.OpenInterest)
	}
	for name, v := range map[string]*float64{
		"current_iv":         snap.Options.CurrentIV,
		"iv_crush_ratio":     snap.Options.IVCrushRatio,
		"bid_ask_spread_pct": snap.Options.BidAskSpreadPct,
		"iv":                 snap.IV,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s is not a finite number", name)
		}
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
