package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/events"
	"github.com/aristath/earnscan/pkg/formulas"
)

// Backfill parameters. The rolling window trades responsiveness against
// noise; 21 sessions is roughly one trading month.
const (
	backfillVolWindow = 21
	sourceLive        = "live"
	sourceBackfill    = "backfill"
)

// PriceSource supplies recent daily closes for the backfill path.
type PriceSource interface {
	GetDailyPrices(ticker string, limit int) ([]DailyPrice, error)
}

// IVRepository stores the daily implied-volatility record and implements
// the self-healing backfill used by the expansion scorer.
type IVRepository struct {
	db     *sql.DB
	prices PriceSource
	events *events.Manager
	log    zerolog.Logger
}

// NewIVRepository creates a new IV repository.
func NewIVRepository(db *sql.DB, prices PriceSource, ev *events.Manager, log zerolog.Logger) *IVRepository {
	return &IVRepository{
		db:     db,
		prices: prices,
		events: ev,
		log:    log.With().Str("component", "iv_repository").Logger(),
	}
}

// GetRecentIVChange returns the percent change of currentIV against the
// most recent reading within the lookback window, or nil when none exists.
// A zero prior reading also yields nil - the change is undefined.
func (r *IVRepository) GetRecentIVChange(ticker string, currentIV float64, maxLookbackDays int) (*float64, error) {
	cutoff := time.Now().AddDate(0, 0, -maxLookbackDays).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")

	var prior float64
	err := r.db.QueryRow(`
		SELECT iv FROM iv_history
		WHERE ticker = ? AND date >= ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, ticker, cutoff, today).Scan(&prior)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query IV history for %s: %w", ticker, err)
	}

	if prior == 0 {
		return nil, nil
	}

	change := (currentIV - prior) / prior * 100
	return &change, nil
}

// RecordIV upserts one day's IV observation. A live reading always wins
// over a backfilled proxy for the same day.
func (r *IVRepository) RecordIV(ticker string, iv float64, date time.Time) error {
	day := date.Format("2006-01-02")
	if err := r.record(ticker, iv, day, sourceLive); err != nil {
		return err
	}

	r.events.Emit(events.IVRecorded, "history", map[string]interface{}{
		"ticker": ticker,
		"date":   day,
		"iv":     iv,
	})
	return nil
}

func (r *IVRepository) record(ticker string, iv float64, date, source string) error {
	query := `
		INSERT INTO iv_history (ticker, date, iv, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET
			iv     = excluded.iv,
			source = excluded.source
		WHERE excluded.source = 'live' OR iv_history.source = 'backfill'
	`

	_, err := r.db.Exec(query, ticker, date, iv, source)
	if err != nil {
		return fmt.Errorf("failed to record IV for %s on %s: %w", ticker, date, err)
	}

	return nil
}

// BackfillRecent populates missing IV history for the trailing days from a
// realized-volatility proxy over daily closes. Existing live readings are
// never overwritten. Never fails hard; problems come back in the result.
func (r *IVRepository) BackfillRecent(ticker string, days int) domain.BackfillResult {
	if r.prices == nil {
		return domain.BackfillResult{Success: false, Message: "no price source configured"}
	}

	r.events.Emit(events.BackfillStarted, "history", map[string]interface{}{
		"ticker": ticker,
		"days":   days,
	})

	// Need enough closes for a full window behind the oldest backfilled day.
	prices, err := r.prices.GetDailyPrices(ticker, days+backfillVolWindow+1)
	if err != nil {
		return r.backfillFailed(ticker, fmt.Sprintf("price lookup failed: %v", err))
	}
	if len(prices) < backfillVolWindow+2 {
		return r.backfillFailed(ticker, fmt.Sprintf("only %d daily prices on record", len(prices)))
	}

	// Newest first from the source; flip to chronological order.
	closes := make([]float64, len(prices))
	dates := make([]string, len(prices))
	for i, p := range prices {
		j := len(prices) - 1 - i
		closes[j] = p.Close
		dates[j] = p.Date
	}

	points := 0
	start := len(closes) - days
	if start < backfillVolWindow+1 {
		start = backfillVolWindow + 1
	}
	for i := start; i < len(closes); i++ {
		vol := formulas.RealizedVolatility(closes[:i+1], backfillVolWindow)
		if vol == nil {
			continue
		}
		if err := r.record(ticker, *vol, dates[i], sourceBackfill); err != nil {
			return r.backfillFailed(ticker, err.Error())
		}
		points++
	}

	r.events.Emit(events.BackfillCompleted, "history", map[string]interface{}{
		"ticker":      ticker,
		"data_points": points,
	})

	return domain.BackfillResult{
		Success:    true,
		DataPoints: points,
		Message:    fmt.Sprintf("backfilled %d days from realized volatility", points),
	}
}

func (r *IVRepository) backfillFailed(ticker, msg string) domain.BackfillResult {
	r.log.Debug().Str("ticker", ticker).Str("reason", msg).Msg("IV backfill failed")
	r.events.Emit(events.BackfillFailed, "history", map[string]interface{}{
		"ticker": ticker,
		"reason": msg,
	})
	return domain.BackfillResult{Success: false, Message: msg}
}
