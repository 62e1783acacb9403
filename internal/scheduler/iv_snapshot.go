package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/locking"
	"github.com/aristath/earnscan/internal/modules/scanner"
)

// IVSnapshotJob records one implied-volatility reading per day for every
// ticker with upcoming earnings. The expansion scorer needs this series to
// measure IV build-up, so the job runs late in the session when quotes have
// settled.
type IVSnapshotJob struct {
	log         zerolog.Logger
	lockManager *locking.Manager
	calendar    scanner.CalendarSource
	market      scanner.MarketData
	ivs         scanner.IVRecorder
	marketHours *MarketHours
	daysAhead   int
}

// IVSnapshotConfig holds configuration for the IV snapshot job.
type IVSnapshotConfig struct {
	Log         zerolog.Logger
	LockManager *locking.Manager
	Calendar    scanner.CalendarSource
	Market      scanner.MarketData
	IVs         scanner.IVRecorder
	MarketHours *MarketHours
	DaysAhead   int
}

// NewIVSnapshotJob creates a new IV snapshot job.
func NewIVSnapshotJob(cfg IVSnapshotConfig) *IVSnapshotJob {
	if cfg.DaysAhead == 0 {
		cfg.DaysAhead = 14
	}
	return &IVSnapshotJob{
		log:         cfg.Log.With().Str("job", "iv_snapshot").Logger(),
		lockManager: cfg.LockManager,
		calendar:    cfg.Calendar,
		market:      cfg.Market,
		ivs:         cfg.IVs,
		marketHours: cfg.MarketHours,
		daysAhead:   cfg.DaysAhead,
	}
}

// Name returns the job name
func (j *IVSnapshotJob) Name() string {
	return "iv_snapshot"
}

// Run records today's IV for all upcoming-earnings tickers. Per-ticker
// failures are logged and skipped; the job itself only fails when the
// calendar is unreachable.
func (j *IVSnapshotJob) Run() error {
	if !j.marketHours.IsTradingDayToday() {
		j.log.Debug().Msg("Market closed, skipping IV snapshot")
		return nil
	}

	if err := j.lockManager.Acquire("iv_snapshot"); err != nil {
		j.log.Warn().Err(err).Msg("IV snapshot already running")
		return nil
	}
	defer j.lockManager.Release("iv_snapshot")

	events, err := j.calendar.GetEarningsInWindow(j.daysAhead)
	if err != nil {
		return err
	}

	recorded := 0
	for _, event := range events {
		if j.snapshotTicker(event.Ticker, event.ReportDate) {
			recorded++
		}
	}

	j.log.Info().
		Int("tickers", len(events)).
		Int("recorded", recorded).
		Msg("IV snapshot completed")

	return nil
}

func (j *IVSnapshotJob) snapshotTicker(ticker, earningsDate string) bool {
	quote, err := j.market.GetQuote(ticker)
	if err != nil || quote.Last <= 0 {
		j.log.Debug().Err(err).Str("ticker", ticker).Msg("no quote, skipping")
		return false
	}

	expirations, err := j.market.GetExpirations(ticker)
	if err != nil {
		j.log.Debug().Err(err).Str("ticker", ticker).Msg("no expirations, skipping")
		return false
	}

	expiration := ""
	for _, date := range expirations {
		if date >= earningsDate {
			expiration = date
			break
		}
	}
	if expiration == "" {
		return false
	}

	options, err := j.market.GetOptionsData(ticker, expiration, quote.Last)
	if err != nil || options.CurrentIV == nil {
		return false
	}

	if err := j.ivs.RecordIV(ticker, *options.CurrentIV, time.Now()); err != nil {
		j.log.Warn().Err(err).Str("ticker", ticker).Msg("failed to record IV")
		return false
	}

	return true
}
