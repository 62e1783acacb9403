// Package history persists and serves the scanner's time series: realized
// earnings-day moves, the daily IV record, and per-ticker price databases.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
)

// MoveRepository stores realized earnings-day moves in the main database.
type MoveRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMoveRepository creates a new move repository.
func NewMoveRepository(db *sql.DB, log zerolog.Logger) *MoveRepository {
	return &MoveRepository{
		db:  db,
		log: log.With().Str("component", "move_repository").Logger(),
	}
}

// GetMoves returns the most recent moves for a ticker, newest first.
// Unknown tickers return an empty slice.
func (r *MoveRepository) GetMoves(ticker string, limit int) ([]domain.HistoricalMove, error) {
	query := `
		SELECT ticker, earnings_date, prev_close, earnings_close,
		       close_move_pct, gap_move_pct, intraday_move_pct
		FROM historical_moves
		WHERE ticker = ?
		ORDER BY earnings_date DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves for %s: %w", ticker, err)
	}
	defer rows.Close()

	var moves []domain.HistoricalMove
	for rows.Next() {
		var m domain.HistoricalMove
		var date string

		err := rows.Scan(&m.Ticker, &date, &m.PrevClose, &m.EarningsClose,
			&m.CloseMovePct, &m.GapMovePct, &m.IntradayMovePct)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}

		m.EarningsDate, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad earnings date %q for %s: %w", date, ticker, err)
		}

		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moves: %w", err)
	}

	return moves, nil
}

// Upsert inserts a move record, replacing any existing row for the same
// (ticker, earnings date). Re-ingesting a settled event is a no-op in effect.
func (r *MoveRepository) Upsert(m domain.HistoricalMove) error {
	query := `
		INSERT INTO historical_moves
			(ticker, earnings_date, prev_close, earnings_close,
			 close_move_pct, gap_move_pct, intraday_move_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker, earnings_date) DO UPDATE SET
			prev_close        = excluded.prev_close,
			earnings_close    = excluded.earnings_close,
			close_move_pct    = excluded.close_move_pct,
			gap_move_pct      = excluded.gap_move_pct,
			intraday_move_pct = excluded.intraday_move_pct
	`

	_, err := r.db.Exec(query,
		m.Ticker, m.EarningsDate.Format("2006-01-02"), m.PrevClose, m.EarningsClose,
		m.CloseMovePct, m.GapMovePct, m.IntradayMovePct)
	if err != nil {
		return fmt.Errorf("failed to upsert move for %s: %w", m.Ticker, err)
	}

	return nil
}

// CountQuarters returns how many earnings events are on record for a ticker.
func (r *MoveRepository) CountQuarters(ticker string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM historical_moves WHERE ticker = ?`, ticker,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count moves for %s: %w", ticker, err)
	}
	return count, nil
}
