package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/modules/scoring/scorers"
)

func fptr(f float64) *float64 { return &f }

// stubScorer returns a fixed score and counts invocations.
type stubScorer struct {
	name   string
	weight float64
	score  float64
	hard   bool
	calls  int
}

func (s *stubScorer) Name() string                           { return s.name }
func (s *stubScorer) Weight() float64                        { return s.weight }
func (s *stubScorer) HardFilter() bool                       { return s.hard }
func (s *stubScorer) Score(_ domain.TickerSnapshot) float64  { s.calls++; return s.score }

var _ scorers.Scorer = (*stubScorer)(nil)

func validSnapshot() domain.TickerSnapshot {
	return domain.TickerSnapshot{
		Ticker:       "AAPL",
		Price:        185,
		MarketCap:    2_800_000_000_000,
		EarningsDate: "2026-09-02",
		Options: domain.OptionsSnapshot{
			CurrentIV:     fptr(85),
			OptionsVolume: 12000,
			OpenInterest:  45000,
		},
	}
}

func newComposite(t *testing.T, units []scorers.Scorer, at time.Time) *CompositeScorer {
	t.Helper()
	c := New(units, Config{}, zerolog.Nop())
	c.now = func() time.Time { return at }
	return c
}

func TestCompositeWeightedNormalization(t *testing.T) {
	// Two units, weights 0.6 + 0.4; scores 100 and 50.
	// base = (100*0.6 + 50*0.4) / 1.0 = 80, proximity 1.00 at 4 days out.
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := newComposite(t, []scorers.Scorer{
		&stubScorer{name: "a", weight: 0.6, score: 100},
		&stubScorer{name: "b", weight: 0.4, score: 50},
	}, at)

	breakdown, err := c.Score(validSnapshot())
	require.NoError(t, err)

	assert.InDelta(t, 80.0, breakdown.Final, 0.001)
	assert.Equal(t, 100.0, breakdown.Components["a"])
	assert.Equal(t, 50.0, breakdown.Components["b"])
	assert.Empty(t, breakdown.HardFilter)
}

func TestCompositeOverweightConfigurationsStayNormalized(t *testing.T) {
	// Weights summing past 1.0 must not inflate the base score.
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := newComposite(t, []scorers.Scorer{
		&stubScorer{name: "a", weight: 0.7, score: 60},
		&stubScorer{name: "b", weight: 0.5, score: 60},
	}, at)

	breakdown, err := c.Score(validSnapshot())
	require.NoError(t, err)
	assert.InDelta(t, 60.0, breakdown.Final, 0.001)
}

func TestCompositeHardFilterShortCircuits(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	gate := &stubScorer{name: "gate", weight: 0.3, score: 0, hard: true}
	tail := &stubScorer{name: "tail", weight: 0.7, score: 100}
	c := newComposite(t, []scorers.Scorer{gate, tail}, at)

	breakdown, err := c.Score(validSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 0.0, breakdown.Final)
	assert.Equal(t, "gate", breakdown.HardFilter)
	assert.Zero(t, tail.calls, "scorers after a tripped hard filter must not run")
}

func TestCompositeZeroFromSoftScorerIsAbsorbed(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := newComposite(t, []scorers.Scorer{
		&stubScorer{name: "soft", weight: 0.5, score: 0},
		&stubScorer{name: "rest", weight: 0.5, score: 100},
	}, at)

	breakdown, err := c.Score(validSnapshot())
	require.NoError(t, err)

	assert.InDelta(t, 50.0, breakdown.Final, 0.001)
	assert.Empty(t, breakdown.HardFilter)
}

func TestCompositeProximityMultiplier(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     string
		expected float64 // final for base score 80
	}{
		{"earnings today", "2026-08-29", 92},      // 1.15
		{"earnings past", "2026-08-27", 92},       // 1.15
		{"tomorrow", "2026-08-30", 88},            // 1.10
		{"two days out", "2026-08-31", 88},        // 1.10
		{"four days out", "2026-09-02", 80},       // 1.00
		{"five days out", "2026-09-03", 80},       // 1.00
		{"eight days out", "2026-09-06", 76},      // 0.95
		{"ten days out", "2026-09-08", 76},        // 0.95
		{"three weeks out", "2026-09-19", 68},     // 0.85
		{"missing date", "", 80},                  // 1.00
		{"unparsable date", "soon", 80},           // 1.00
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComposite(t, []scorers.Scorer{
				&stubScorer{name: "only", weight: 1.0, score: 80},
			}, at)

			snap := validSnapshot()
			snap.EarningsDate = tt.date
			breakdown, err := c.Score(snap)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, breakdown.Final, 0.001)
		})
	}
}

func TestCompositeClampsAtHundred(t *testing.T) {
	// Base 95 with a 1.15 boost would be 109.25; must clamp.
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := newComposite(t, []scorers.Scorer{
		&stubScorer{name: "only", weight: 1.0, score: 95},
	}, at)

	snap := validSnapshot()
	snap.EarningsDate = "2026-08-29"
	breakdown, err := c.Score(snap)
	require.NoError(t, err)
	assert.Equal(t, 100.0, breakdown.Final)
}

func TestCompositeMemoization(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	unit := &stubScorer{name: "only", weight: 1.0, score: 70}
	c := newComposite(t, []scorers.Scorer{unit}, at)

	first, err := c.Score(validSnapshot())
	require.NoError(t, err)
	second, err := c.Score(validSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 1, unit.calls, "identical snapshots must share one computation")
	assert.Equal(t, first.Final, second.Final)

	// Any content change makes a fresh key.
	changed := validSnapshot()
	changed.Options.OptionsVolume++
	_, err = c.Score(changed)
	require.NoError(t, err)
	assert.Equal(t, 2, unit.calls)

	// nil and zero are distinct for optional fields.
	nilIV := validSnapshot()
	nilIV.Options.CurrentIV = nil
	zeroIV := validSnapshot()
	zeroIV.Options.CurrentIV = fptr(0)

	_, err = c.Score(nilIV)
	require.NoError(t, err)
	_, err = c.Score(zeroIV)
	require.NoError(t, err)
	assert.Equal(t, 4, unit.calls)
}

func TestCompositeRejectsMalformedSnapshots(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	c := newComposite(t, []scorers.Scorer{
		&stubScorer{name: "only", weight: 1.0, score: 70},
	}, at)

	tests := []struct {
		name   string
		mutate func(*domain.TickerSnapshot)
	}{
		{"empty ticker", func(s *domain.TickerSnapshot) { s.Ticker = "" }},
		{"zero price", func(s *domain.TickerSnapshot) { s.Price = 0 }},
		{"negative price", func(s *domain.TickerSnapshot) { s.Price = -5 }},
		{"NaN price", func(s *domain.TickerSnapshot) { s.Price = math.NaN() }},
		{"negative market cap", func(s *domain.TickerSnapshot) { s.MarketCap = -1 }},
		{"negative volume", func(s *domain.TickerSnapshot) { s.Options.OptionsVolume = -1 }},
		{"negative open interest", func(s *domain.TickerSnapshot) { s.Options.OpenInterest = -1 }},
		{"NaN IV", func(s *domain.TickerSnapshot) { s.Options.CurrentIV = fptr(math.NaN()) }},
		{"infinite crush ratio", func(s *domain.TickerSnapshot) { s.Options.IVCrushRatio = fptr(math.Inf(1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(&snap)
			breakdown, err := c.Score(snap)
			assert.Error(t, err)
			assert.Nil(t, breakdown)
		})
	}
}

func TestCompositeFullStackExample(t *testing.T) {
	// End-to-end over the real scorer units with a liquid high-IV name.
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	history := &fixedHistory{change: fptr(45)}

	units := []scorers.Scorer{
		scorers.NewIVLevelScorer(scorers.IVLevelConfig{}),
		scorers.NewLiquidityScorer(scorers.LiquidityConfig{}),
		scorers.NewIVExpansionScorer(history, scorers.IVExpansionConfig{}, zerolog.Nop()),
		scorers.NewCrushEdgeScorer(0),
		scorers.NewFundamentalsScorer(0),
	}
	c := newComposite(t, units, at)

	snap := validSnapshot()
	snap.EarningsDate = "2026-09-01" // 3 days out, multiplier 1.00
	snap.Options.IVCrushRatio = fptr(1.25)
	snap.Options.BidAskSpreadPct = fptr(0.04)

	breakdown, err := c.Score(snap)
	require.NoError(t, err)

	// iv_level: IV 85 -> 100 (w 0.25)
	// liquidity: vol 12000, OI 45000, spread 0.04 -> 100 (w 0.30)
	// iv_expansion: +45% -> 80 (w 0.35)
	// crush_edge: 1.25 -> 80 (w 0.25)
	// fundamentals: mega cap, $185 -> 100 (w 0.05)
	// base = (25 + 30 + 28 + 20 + 5) / 1.20 = 90
	assert.InDelta(t, 90.0, breakdown.Final, 0.001)
	assert.Empty(t, breakdown.HardFilter)
	assert.Len(t, breakdown.Components, 5)
}

func TestCompositeHardFilterOnIlliquidTicker(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	units := []scorers.Scorer{
		scorers.NewIVLevelScorer(scorers.IVLevelConfig{}),
		scorers.NewLiquidityScorer(scorers.LiquidityConfig{}),
		scorers.NewCrushEdgeScorer(0),
	}
	c := newComposite(t, units, at)

	snap := validSnapshot()
	snap.Options.OptionsVolume = 10 // under minimum

	breakdown, err := c.Score(snap)
	require.NoError(t, err)
	assert.Equal(t, 0.0, breakdown.Final)
	assert.Equal(t, "liquidity", breakdown.HardFilter)
	assert.NotContains(t, breakdown.Components, "crush_edge")
}

// fixedHistory satisfies domain.IVHistory with a constant change value.
type fixedHistory struct {
	change *float64
}

func (h *fixedHistory) GetRecentIVChange(string, float64, int) (*float64, error) {
	return h.change, nil
}
func (h *fixedHistory) RecordIV(string, float64, time.Time) error { return nil }
func (h *fixedHistory) BackfillRecent(string, int) domain.BackfillResult {
	return domain.BackfillResult{Success: false, Message: "no data source"}
}
