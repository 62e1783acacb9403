package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/locking"
	"github.com/aristath/earnscan/internal/modules/scanner"
)

// ScanCycleJob runs the full earnings scan. Scheduled pre-open and early
// afternoon on trading days; can also be triggered on demand via the API.
type ScanCycleJob struct {
	log         zerolog.Logger
	lockManager *locking.Manager
	scanner     *scanner.Scanner
	marketHours *MarketHours
	timeout     time.Duration
}

// ScanCycleConfig holds configuration for the scan cycle job.
type ScanCycleConfig struct {
	Log         zerolog.Logger
	LockManager *locking.Manager
	Scanner     *scanner.Scanner
	MarketHours *MarketHours
	Timeout     time.Duration
}

// NewScanCycleJob creates a new scan cycle job.
func NewScanCycleJob(cfg ScanCycleConfig) *ScanCycleJob {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Minute
	}
	return &ScanCycleJob{
		log:         cfg.Log.With().Str("job", "scan_cycle").Logger(),
		lockManager: cfg.LockManager,
		scanner:     cfg.Scanner,
		marketHours: cfg.MarketHours,
		timeout:     cfg.Timeout,
	}
}

// Name returns the job name
func (j *ScanCycleJob) Name() string {
	return "scan_cycle"
}

// Run executes one scan cycle.
func (j *ScanCycleJob) Run() error {
	if !j.marketHours.IsTradingDayToday() {
		j.log.Debug().Msg("Market closed, skipping scan")
		return nil
	}

	// Acquire lock to prevent concurrent execution
	if err := j.lockManager.Acquire("scan_cycle"); err != nil {
		j.log.Warn().Err(err).Msg("Scan already running")
		return nil // Don't fail, just skip this cycle
	}
	defer j.lockManager.Release("scan_cycle")

	j.log.Info().Msg("Starting scan cycle")

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	summary, err := j.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan cycle failed: %w", err)
	}

	j.log.Info().
		Str("scan_id", summary.ID).
		Int("candidates", summary.Candidates).
		Int("scored", summary.Scored).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Scan cycle completed")

	return nil
}
