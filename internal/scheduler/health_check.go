package scheduler

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/database"
	"github.com/aristath/earnscan/internal/locking"
)

// HealthCheckJob verifies database integrity and prunes stale data.
// Runs every 6 hours.
type HealthCheckJob struct {
	log          zerolog.Logger
	lockManager  *locking.Manager
	db           *database.DB
	historyDir   string
	ivMaxAgeDays int
}

// HealthCheckConfig holds configuration for the health check job.
type HealthCheckConfig struct {
	Log          zerolog.Logger
	LockManager  *locking.Manager
	DB           *database.DB
	HistoryDir   string
	IVMaxAgeDays int // prune IV readings older than this; 0 keeps 365
}

// NewHealthCheckJob creates a new health check job.
func NewHealthCheckJob(cfg HealthCheckConfig) *HealthCheckJob {
	if cfg.IVMaxAgeDays == 0 {
		cfg.IVMaxAgeDays = 365
	}
	return &HealthCheckJob{
		log:          cfg.Log.With().Str("job", "health_check").Logger(),
		lockManager:  cfg.LockManager,
		db:           cfg.DB,
		historyDir:   cfg.HistoryDir,
		ivMaxAgeDays: cfg.IVMaxAgeDays,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Run executes the health check.
func (j *HealthCheckJob) Run() error {
	if err := j.lockManager.Acquire("health_check"); err != nil {
		j.log.Warn().Err(err).Msg("Health check already running")
		return nil
	}
	defer j.lockManager.Release("health_check")

	j.log.Info().Msg("Starting health check")
	startTime := time.Now()

	if err := j.db.HealthCheck(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	if j.historyDir != "" {
		if _, err := os.Stat(j.historyDir); err != nil {
			j.log.Warn().Err(err).Str("dir", j.historyDir).
				Msg("History directory inaccessible, backfill will be degraded")
		}
	}

	pruned, err := j.pruneStaleIV()
	if err != nil {
		return err
	}

	j.log.Info().
		Int64("iv_rows_pruned", pruned).
		Dur("duration", time.Since(startTime)).
		Msg("Health check completed")

	return nil
}

// pruneStaleIV drops IV readings past the retention window. The expansion
// scorer only ever looks back days, not years.
func (j *HealthCheckJob) pruneStaleIV() (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -j.ivMaxAgeDays).Format("2006-01-02")

	result, err := j.db.Exec(`DELETE FROM iv_history WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune IV history: %w", err)
	}

	pruned, _ := result.RowsAffected()
	return pruned, nil
}
