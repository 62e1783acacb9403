// Package domain holds the core data model of the earnings scanner.
// Types here are pure values with no infrastructure dependencies.
package domain

import "time"

// MoveMetric selects which historical move series the VRP calculator uses.
type MoveMetric string

const (
	// MoveClose compares prior close to earnings-day close
	MoveClose MoveMetric = "close"
	// MoveGap compares prior close to earnings-day open
	MoveGap MoveMetric = "gap"
	// MoveIntraday compares earnings-day open to earnings-day close
	MoveIntraday MoveMetric = "intraday"
)

// Valid reports whether the metric is one of the known series.
func (m MoveMetric) Valid() bool {
	switch m {
	case MoveClose, MoveGap, MoveIntraday:
		return true
	}
	return false
}

// HistoricalMove is one realized earnings-day price reaction.
// Exactly one record exists per (ticker, earnings date); records are
// immutable once the event has settled.
type HistoricalMove struct {
	Ticker          string    `json:"ticker"`
	EarningsDate    time.Time `json:"earnings_date"`
	PrevClose       float64   `json:"prev_close"`
	EarningsClose   float64   `json:"earnings_close"`
	CloseMovePct    float64   `json:"close_move_pct"`    // signed, close vs prior close
	GapMovePct      float64   `json:"gap_move_pct"`      // signed, open vs prior close
	IntradayMovePct float64   `json:"intraday_move_pct"` // signed, close vs open
}

// MoveFor returns the signed move for the requested metric.
func (h HistoricalMove) MoveFor(metric MoveMetric) float64 {
	switch metric {
	case MoveGap:
		return h.GapMovePct
	case MoveIntraday:
		return h.IntradayMovePct
	default:
		return h.CloseMovePct
	}
}

// Recommendation is the discrete VRP tier for a ticker.
type Recommendation string

const (
	RecommendationSkip      Recommendation = "SKIP"
	RecommendationMarginal  Recommendation = "MARGINAL"
	RecommendationGood      Recommendation = "GOOD"
	RecommendationExcellent Recommendation = "EXCELLENT"
)

// Rank orders recommendations: SKIP < MARGINAL < GOOD < EXCELLENT.
func (r Recommendation) Rank() int {
	switch r {
	case RecommendationMarginal:
		return 1
	case RecommendationGood:
		return 2
	case RecommendationExcellent:
		return 3
	default:
		return 0
	}
}

// VRPResult is the output of one VRP evaluation for a ticker+expiration.
// HistoricalStdPct uses the sample (n-1) standard deviation convention.
type VRPResult struct {
	Ticker              string         `json:"ticker"`
	Expiration          time.Time      `json:"expiration"`
	ImpliedMovePct      float64        `json:"implied_move_pct"`
	HistoricalMeanPct   float64        `json:"historical_mean_pct"`
	HistoricalMedianPct float64        `json:"historical_median_pct"`
	HistoricalStdPct    float64        `json:"historical_std_pct"`
	VRPRatio            float64        `json:"vrp_ratio"`
	EdgeScore           float64        `json:"edge_score"`
	Recommendation      Recommendation `json:"recommendation"`
	QuartersOfData      int            `json:"quarters_of_data"`
}

// OptionsSnapshot is the options-market slice of a ticker snapshot.
// Optional fields are nil when the upstream source had no data.
type OptionsSnapshot struct {
	CurrentIV       *float64 `json:"current_iv,omitempty"`     // percent, e.g. 85.0
	IVCrushRatio    *float64 `json:"iv_crush_ratio,omitempty"` // expected move / actual move
	OptionsVolume   int64    `json:"options_volume"`
	OpenInterest    int64    `json:"open_interest"`
	BidAskSpreadPct *float64 `json:"bid_ask_spread_pct,omitempty"` // fraction, e.g. 0.08
}

// TickerSnapshot is the per-scan view of one ticker, assembled fresh from
// the data clients. The scoring core only reads it.
type TickerSnapshot struct {
	Ticker       string          `json:"ticker"`
	Price        float64         `json:"price"`
	MarketCap    float64         `json:"market_cap"`
	EarningsDate string          `json:"earnings_date,omitempty"` // YYYY-MM-DD, may be empty
	Options      OptionsSnapshot `json:"options"`
	IV           *float64        `json:"iv,omitempty"` // fallback decimal fraction, e.g. 0.65
}

// ScoreBreakdown records each scorer's contribution to a composite score.
type ScoreBreakdown struct {
	Ticker     string             `json:"ticker"`
	Components map[string]float64 `json:"components"` // scorer name -> 0-100 sub-score
	Weights    map[string]float64 `json:"weights"`    // scorer name -> weight
	Final      float64            `json:"final"`      // 0-100, 2 decimals
	HardFilter string             `json:"hard_filter,omitempty"`
}

// MovePrediction is the output contract of the external magnitude predictor.
type MovePrediction struct {
	Ticker           string  `json:"ticker"`
	PredictedMovePct float64 `json:"predicted_move_pct"`
	ConfidenceLow    float64 `json:"confidence_low"`
	ConfidenceHigh   float64 `json:"confidence_high"`
	Confidence       float64 `json:"prediction_confidence"` // 0-1
}

// BackfillResult reports a best-effort IV history backfill attempt.
// Backfill never raises; failures are reported through Success=false.
type BackfillResult struct {
	Success    bool   `json:"success"`
	DataPoints int    `json:"data_points"`
	Message    string `json:"message"`
}
