package scorers

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/earnscan/internal/domain"
)

func fptr(f float64) *float64 { return &f }

func snapshotWithIV(iv *float64, fallback *float64) domain.TickerSnapshot {
	return domain.TickerSnapshot{
		Ticker:    "TEST",
		Price:     100,
		MarketCap: 5_000_000_000,
		Options: domain.OptionsSnapshot{
			CurrentIV:     iv,
			OptionsVolume: 5000,
			OpenInterest:  10000,
		},
		IV: fallback,
	}
}

func TestIVLevelScorer(t *testing.T) {
	s := NewIVLevelScorer(IVLevelConfig{})

	assert.Equal(t, "iv_level", s.Name())
	assert.Equal(t, WeightIVLevel, s.Weight())
	assert.True(t, s.HardFilter())

	tests := []struct {
		name     string
		iv       *float64
		fallback *float64
		expected float64
	}{
		{"below minimum is hard filtered", fptr(45), nil, 0},
		{"just below minimum", fptr(59.9), nil, 0},
		{"exactly at minimum", fptr(60), nil, 60},
		{"mid ramp", fptr(70), nil, 70},
		{"excellent threshold", fptr(80), nil, 100},
		{"extreme", fptr(120), nil, 100},
		{"fallback high", nil, fptr(0.65), 80},
		{"fallback moderate", nil, fptr(0.45), 60},
		{"fallback low", nil, fptr(0.20), 30},
		{"no IV from any source", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := s.Score(snapshotWithIV(tt.iv, tt.fallback))
			assert.InDelta(t, tt.expected, score, 0.001)
		})
	}
}

func TestIVLevelScorerCustomThresholds(t *testing.T) {
	s := NewIVLevelScorer(IVLevelConfig{MinIV: 40, ExcellentIV: 60, ExtremeIV: 90})

	assert.Equal(t, 0.0, s.Score(snapshotWithIV(fptr(39), nil)))
	assert.Equal(t, 60.0, s.Score(snapshotWithIV(fptr(40), nil)))
	assert.Equal(t, 100.0, s.Score(snapshotWithIV(fptr(60), nil)))
}

func TestLiquidityScorer(t *testing.T) {
	s := NewLiquidityScorer(LiquidityConfig{})

	assert.Equal(t, "liquidity", s.Name())
	assert.Equal(t, WeightLiquidity, s.Weight())
	assert.True(t, s.HardFilter())

	tests := []struct {
		name     string
		volume   int64
		oi       int64
		spread   *float64
		expected float64
	}{
		{"below minimum volume is hard filtered", 99, 10000, fptr(0.05), 0},
		{"below minimum open interest is hard filtered", 5000, 499, fptr(0.05), 0},
		{"top bucket everywhere", 10000, 20000, fptr(0.05), 100},
		{"bottom bucket everywhere", 100, 500, fptr(0.50), 20},
		{"mixed buckets", 5000, 10000, fptr(0.12), 76}, // 80*.4 + 80*.4 + 60*.2
		{"missing spread scores neutral", 10000, 20000, nil, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.TickerSnapshot{
				Ticker: "TEST",
				Price:  50,
				Options: domain.OptionsSnapshot{
					OptionsVolume:   tt.volume,
					OpenInterest:    tt.oi,
					BidAskSpreadPct: tt.spread,
				},
			}
			assert.InDelta(t, tt.expected, s.Score(snap), 0.001)
		})
	}
}

func TestLiquiditySpreadBoundaries(t *testing.T) {
	tests := []struct {
		spread   float64
		expected float64
	}{
		{0.05, 100},
		{0.051, 80},
		{0.10, 80},
		{0.15, 60},
		{0.20, 40},
		{0.21, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("spread %.3f", tt.spread), func(t *testing.T) {
			assert.Equal(t, tt.expected, scoreSpread(&tt.spread))
		})
	}
}

func TestCrushEdgeScorer(t *testing.T) {
	s := NewCrushEdgeScorer(0)

	assert.Equal(t, "crush_edge", s.Name())
	assert.Equal(t, WeightCrushEdge, s.Weight())
	assert.False(t, s.HardFilter())

	tests := []struct {
		name     string
		ratio    *float64
		expected float64
	}{
		{"missing ratio is neutral", nil, 50},
		{"strong overpricing history", fptr(1.35), 100},
		{"exactly 1.3", fptr(1.3), 100},
		{"exactly 1.2", fptr(1.2), 80},
		{"exactly 1.1", fptr(1.1), 60},
		{"exactly 1.0", fptr(1.0), 40},
		{"underpricing history", fptr(0.95), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.TickerSnapshot{
				Ticker:  "TEST",
				Options: domain.OptionsSnapshot{IVCrushRatio: tt.ratio},
			}
			assert.Equal(t, tt.expected, s.Score(snap))
		})
	}
}

func TestCrushEdgeZeroIsNotExclusion(t *testing.T) {
	// A sub-1 ratio scores 0 but must not hard-filter the ticker.
	s := NewCrushEdgeScorer(0)
	snap := domain.TickerSnapshot{
		Ticker:  "TEST",
		Options: domain.OptionsSnapshot{IVCrushRatio: fptr(0.8)},
	}

	assert.Equal(t, 0.0, s.Score(snap))
	assert.False(t, s.HardFilter())
}

func TestFundamentalsScorer(t *testing.T) {
	s := NewFundamentalsScorer(0)

	assert.Equal(t, "fundamentals", s.Name())
	assert.Equal(t, WeightFundamentals, s.Weight())
	assert.False(t, s.HardFilter())

	tests := []struct {
		name     string
		cap      float64
		price    float64
		expected float64
	}{
		{"mega cap in sweet spot", 50_000_000_000, 150, 100},        // (100+100)/2
		{"large cap in sweet spot", 5_000_000_000, 150, 92.5},       // (85+100)/2
		{"mid cap cheap stock", 800_000_000, 12, 70},                // (70+70)/2
		{"small cap penny-adjacent", 100_000_000, 3, 30},            // (30+30)/2
		{"mega cap extreme price", 50_000_000_000, 2500, 65},        // (100+30)/2
		{"high-priced large cap", 5_000_000_000, 800, 77.5},         // (85+70)/2
		{"small-mid cap single digits", 300_000_000, 7, 50},         // (50+50)/2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.TickerSnapshot{Ticker: "TEST", MarketCap: tt.cap, Price: tt.price}
			assert.InDelta(t, tt.expected, s.Score(snap), 0.001)
		})
	}
}

// stubIVHistory drives the expansion scorer's lookup/backfill paths.
type stubIVHistory struct {
	change         *float64
	lookupErr      error
	backfillResult domain.BackfillResult
	changeAfter    *float64 // returned once backfill has run

	lookupCalls   int
	backfillCalls int
}

func (s *stubIVHistory) GetRecentIVChange(ticker string, currentIV float64, maxLookbackDays int) (*float64, error) {
	s.lookupCalls++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if s.backfillCalls > 0 {
		return s.changeAfter, nil
	}
	return s.change, nil
}

func (s *stubIVHistory) RecordIV(ticker string, iv float64, date time.Time) error { return nil }

func (s *stubIVHistory) BackfillRecent(ticker string, days int) domain.BackfillResult {
	s.backfillCalls++
	return s.backfillResult
}

func TestIVExpansionScorer(t *testing.T) {
	newScorer := func(h domain.IVHistory) *IVExpansionScorer {
		return NewIVExpansionScorer(h, IVExpansionConfig{}, zerolog.Nop())
	}

	t.Run("buckets change percentage", func(t *testing.T) {
		tests := []struct {
			change   float64
			expected float64
		}{
			{120, 100},
			{80, 100},
			{50, 80},
			{40, 80},
			{25, 60},
			{20, 60},
			{5, 40},
			{0, 40},
			{-10, 20},
		}

		for _, tt := range tests {
			h := &stubIVHistory{change: fptr(tt.change)}
			score := newScorer(h).Score(snapshotWithIV(fptr(75), nil))
			assert.Equal(t, tt.expected, score, "change %.0f%%", tt.change)
		}
	})

	t.Run("no current IV scores neutral without touching history", func(t *testing.T) {
		h := &stubIVHistory{}
		score := newScorer(h).Score(snapshotWithIV(nil, nil))

		assert.Equal(t, float64(expansionScoreNoCurrentIV), score)
		assert.Zero(t, h.lookupCalls)
		assert.Zero(t, h.backfillCalls)
	})

	t.Run("missing history triggers backfill then rescoring", func(t *testing.T) {
		h := &stubIVHistory{
			change:         nil,
			backfillResult: domain.BackfillResult{Success: true, DataPoints: 7},
			changeAfter:    fptr(45),
		}
		score := newScorer(h).Score(snapshotWithIV(fptr(75), nil))

		assert.Equal(t, 80.0, score)
		assert.Equal(t, 1, h.backfillCalls)
		assert.Equal(t, 2, h.lookupCalls)
	})

	t.Run("failed backfill scores low floor", func(t *testing.T) {
		h := &stubIVHistory{
			backfillResult: domain.BackfillResult{Success: false, Message: "no price data"},
		}
		score := newScorer(h).Score(snapshotWithIV(fptr(75), nil))

		assert.Equal(t, float64(expansionScoreNoHistory), score)
		assert.Equal(t, 1, h.backfillCalls)
	})

	t.Run("successful backfill with still-empty history scores low floor", func(t *testing.T) {
		h := &stubIVHistory{
			backfillResult: domain.BackfillResult{Success: true, DataPoints: 0},
			changeAfter:    nil,
		}
		score := newScorer(h).Score(snapshotWithIV(fptr(75), nil))

		assert.Equal(t, float64(expansionScoreNoHistory), score)
	})

	t.Run("lookup errors degrade instead of propagating", func(t *testing.T) {
		h := &stubIVHistory{
			lookupErr:      fmt.Errorf("database locked"),
			backfillResult: domain.BackfillResult{Success: false},
		}
		score := newScorer(h).Score(snapshotWithIV(fptr(75), nil))

		assert.Equal(t, float64(expansionScoreNoHistory), score)
	})
}
