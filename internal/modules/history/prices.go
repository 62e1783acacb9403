package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/pkg/formulas"
)

// PriceDB provides read access to the per-ticker daily price databases.
// Each ticker lives in its own SQLite file under historyDir; files are
// produced by an external download pipeline and treated as read-only here.
type PriceDB struct {
	historyDir string
	log        zerolog.Logger
}

// NewPriceDB creates a new price database accessor.
func NewPriceDB(historyDir string, log zerolog.Logger) *PriceDB {
	return &PriceDB{
		historyDir: historyDir,
		log:        log.With().Str("component", "price_db").Logger(),
	}
}

// DailyPrice represents a daily OHLCV price point.
type DailyPrice struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// GetDailyPrices fetches the most recent daily prices for a ticker,
// newest first.
func (p *PriceDB) GetDailyPrices(ticker string, limit int) ([]DailyPrice, error) {
	db, err := p.open(ticker)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	return scanDailyPrices(rows)
}

// GetPricesAround returns the daily prices in [from, to] inclusive, oldest
// first. Dates are YYYY-MM-DD strings; the window is used by move ingestion
// to locate the sessions surrounding an earnings date.
func (p *PriceDB) GetPricesAround(ticker, from, to string) ([]DailyPrice, error) {
	db, err := p.open(ticker)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query price window: %w", err)
	}
	defer rows.Close()

	return scanDailyPrices(rows)
}

func scanDailyPrices(rows *sql.Rows) ([]DailyPrice, error) {
	var prices []DailyPrice
	for rows.Next() {
		var dp DailyPrice
		var volume sql.NullInt64

		err := rows.Scan(&dp.Date, &dp.Open, &dp.High, &dp.Low, &dp.Close, &volume)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		if volume.Valid {
			dp.Volume = &volume.Int64
		}

		prices = append(prices, dp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// VolatilityStats summarizes recent price-based volatility for a ticker.
// Nil fields mean the price record was too short for that measure.
type VolatilityStats struct {
	Ticker         string   `json:"ticker"`
	Sessions       int      `json:"sessions"`
	RealizedVolPct *float64 `json:"realized_vol_pct,omitempty"` // annualized, 21-session window
	ATRPct         *float64 `json:"atr_pct,omitempty"`          // 14-session ATR, percent of close
}

// VolatilityStats computes recent realized volatility and ATR from the
// ticker's daily price record.
func (p *PriceDB) VolatilityStats(ticker string) (*VolatilityStats, error) {
	prices, err := p.GetDailyPrices(ticker, 120)
	if err != nil {
		return nil, err
	}

	// Newest first from the query; flip to chronological order.
	n := len(prices)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, dp := range prices {
		j := n - 1 - i
		closes[j] = dp.Close
		highs[j] = dp.High
		lows[j] = dp.Low
	}

	return &VolatilityStats{
		Ticker:         ticker,
		Sessions:       n,
		RealizedVolPct: formulas.RealizedVolatility(closes, 21),
		ATRPct:         formulas.ATRPercent(highs, lows, closes, 14),
	}, nil
}

// open opens the price database for a ticker.
func (p *PriceDB) open(ticker string) (*sql.DB, error) {
	// Convert ticker format: BRK.B -> BRK_B
	dbTicker := strings.ReplaceAll(ticker, ".", "_")

	dbPath := filepath.Join(p.historyDir, dbTicker+".db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open price database for %s: %w", ticker, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping price database for %s: %w", ticker, err)
	}

	return db, nil
}
