package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/events"
	"github.com/aristath/earnscan/internal/locking"
	"github.com/aristath/earnscan/internal/modules/scanner"
)

// PastEarningsSource lists settled ticker/earnings-date pairs.
type PastEarningsSource interface {
	GetPastEarnings(from, to string) ([]scanner.PastEarnings, error)
}

// MoveIngestor computes and stores realized earnings moves.
type MoveIngestor interface {
	IngestMoves(ticker string, earningsDates []time.Time) (int, error)
}

// MoveIngestJob turns settled earnings events from past scans into
// historical move records. The VRP calculator feeds on these, so the job
// runs nightly after the close; re-ingesting an already-stored date is an
// idempotent upsert.
type MoveIngestJob struct {
	log         zerolog.Logger
	lockManager *locking.Manager
	source      PastEarningsSource
	ingestor    MoveIngestor
	events      *events.Manager
	lookback    int
	now         func() time.Time
}

// MoveIngestConfig holds configuration for the move ingest job.
type MoveIngestConfig struct {
	Log         zerolog.Logger
	LockManager *locking.Manager
	Source      PastEarningsSource
	Ingestor    MoveIngestor
	Events      *events.Manager
	Lookback    int // days of settled earnings to revisit
}

// NewMoveIngestJob creates a new move ingest job.
func NewMoveIngestJob(cfg MoveIngestConfig) *MoveIngestJob {
	if cfg.Lookback == 0 {
		cfg.Lookback = 120
	}
	return &MoveIngestJob{
		log:         cfg.Log.With().Str("job", "move_ingest").Logger(),
		lockManager: cfg.LockManager,
		source:      cfg.Source,
		ingestor:    cfg.Ingestor,
		events:      cfg.Events,
		lookback:    cfg.Lookback,
		now:         time.Now,
	}
}

// Name returns the job name
func (j *MoveIngestJob) Name() string {
	return "move_ingest"
}

// Run ingests realized moves for every earnings date that has passed
// within the lookback window. Per-ticker failures are logged and skipped;
// the job itself only fails when the settled-earnings lookup does.
func (j *MoveIngestJob) Run() error {
	if err := j.lockManager.Acquire("move_ingest"); err != nil {
		j.log.Warn().Err(err).Msg("Move ingest already running")
		return nil
	}
	defer j.lockManager.Release("move_ingest")

	today := j.now().Format("2006-01-02")
	from := j.now().AddDate(0, 0, -j.lookback).Format("2006-01-02")

	pairs, err := j.source.GetPastEarnings(from, today)
	if err != nil {
		return err
	}

	tickers := 0
	stored := 0
	for ticker, dates := range groupByTicker(pairs) {
		count, err := j.ingestor.IngestMoves(ticker, dates)
		stored += count
		if err != nil {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("move ingestion failed")
			j.events.EmitError("scheduler", err, map[string]interface{}{
				"job":    "move_ingest",
				"ticker": ticker,
			})
			continue
		}
		tickers++
	}

	j.log.Info().
		Int("pairs", len(pairs)).
		Int("tickers", tickers).
		Int("stored", stored).
		Msg("Move ingest completed")

	return nil
}

// groupByTicker collects parseable earnings dates per ticker. Rows with a
// malformed date are dropped; they cannot identify a price window.
func groupByTicker(pairs []scanner.PastEarnings) map[string][]time.Time {
	grouped := make(map[string][]time.Time)
	for _, p := range pairs {
		date, err := time.Parse("2006-01-02", p.EarningsDate)
		if err != nil {
			continue
		}
		grouped[p.Ticker] = append(grouped[p.Ticker], date)
	}
	return grouped
}
