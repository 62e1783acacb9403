package domain

import "time"

// MoveStore supplies ordered historical earnings-day moves for a ticker.
// Implementations return the most recent records first and an empty slice
// for unknown tickers - absence of data is a normal outcome, not an error.
type MoveStore interface {
	GetMoves(ticker string, limit int) ([]HistoricalMove, error)
}

// IVHistory is the implied-volatility time-series collaborator used by the
// expansion scorer. Writes must be idempotent; concurrent callers may
// trigger backfill for the same ticker.
type IVHistory interface {
	// GetRecentIVChange returns the percent change of currentIV vs the most
	// recent prior reading within the lookback window, or nil when no prior
	// reading exists.
	GetRecentIVChange(ticker string, currentIV float64, maxLookbackDays int) (*float64, error)

	// RecordIV upserts one day's IV observation.
	RecordIV(ticker string, iv float64, date time.Time) error

	// BackfillRecent attempts to populate missing history from an external
	// price source. It must not fail hard; problems are reported in the
	// result's Success and Message fields.
	BackfillRecent(ticker string, days int) BackfillResult
}

// MagnitudePredictor is the optional pre-trained regression model consumed
// by the scan orchestrator. A nil prediction means the model had nothing to
// say for this ticker.
type MagnitudePredictor interface {
	Predict(ticker string, earningsDate time.Time) (*MovePrediction, error)
}
