package history

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePriceFile creates a per-ticker price database with n trading days,
// newest date = 2026-08-28, closes oscillating around base.
func writePriceFile(t *testing.T, dir, ticker string, n int, base float64) {
	t.Helper()

	dbTicker := strings.ReplaceAll(ticker, ".", "_")
	db, err := sql.Open("sqlite3", filepath.Join(dir, dbTicker+".db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE daily_prices (
			date TEXT PRIMARY KEY,
			open_price REAL,
			high_price REAL,
			low_price REAL,
			close_price REAL,
			volume INTEGER
		)
	`)
	require.NoError(t, err)

	end, err := time.Parse("2006-01-02", "2026-08-28")
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, -i).Format("2006-01-02")
		close := base
		if i%2 == 0 {
			close = base * 1.02
		}
		_, err = db.Exec(
			`INSERT INTO daily_prices (date, open_price, high_price, low_price, close_price, volume)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			day, close*0.995, close*1.01, close*0.99, close, 1_000_000+i,
		)
		require.NoError(t, err)
	}
}

func newPriceDB(t *testing.T, n int) *PriceDB {
	t.Helper()
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", n, 100)
	return NewPriceDB(dir, zerolog.Nop())
}

func TestGetDailyPricesNewestFirst(t *testing.T) {
	pdb := newPriceDB(t, 10)

	prices, err := pdb.GetDailyPrices("AAPL", 5)
	require.NoError(t, err)
	require.Len(t, prices, 5)

	assert.Equal(t, "2026-08-28", prices[0].Date)
	for i := 1; i < len(prices); i++ {
		assert.Less(t, prices[i].Date, prices[i-1].Date)
	}
	require.NotNil(t, prices[0].Volume)
	assert.Equal(t, int64(1_000_000), *prices[0].Volume)
}

func TestGetPricesAroundWindow(t *testing.T) {
	pdb := newPriceDB(t, 30)

	prices, err := pdb.GetPricesAround("AAPL", "2026-08-20", "2026-08-25")
	require.NoError(t, err)
	require.NotEmpty(t, prices)

	assert.Equal(t, "2026-08-20", prices[0].Date)
	assert.Equal(t, "2026-08-25", prices[len(prices)-1].Date)
	for i := 1; i < len(prices); i++ {
		assert.Greater(t, prices[i].Date, prices[i-1].Date)
	}
}

func TestPriceDBTickerWithDot(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "BRK.B", 5, 450)
	pdb := NewPriceDB(dir, zerolog.Nop())

	prices, err := pdb.GetDailyPrices("BRK.B", 3)
	require.NoError(t, err)
	assert.Len(t, prices, 3)
}

func TestVolatilityStats(t *testing.T) {
	pdb := newPriceDB(t, 60)

	stats, err := pdb.VolatilityStats("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stats.Ticker)
	assert.Equal(t, 60, stats.Sessions)

	// Alternating +/-2% closes produce a large annualized vol.
	require.NotNil(t, stats.RealizedVolPct)
	assert.Greater(t, *stats.RealizedVolPct, 10.0)

	// Daily range is a couple percent of the close.
	require.NotNil(t, stats.ATRPct)
	assert.Greater(t, *stats.ATRPct, 0.5)
	assert.Less(t, *stats.ATRPct, 10.0)
}

func TestVolatilityStatsShortRecord(t *testing.T) {
	pdb := newPriceDB(t, 5)

	stats, err := pdb.VolatilityStats("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Sessions)
	assert.Nil(t, stats.RealizedVolPct)
	assert.Nil(t, stats.ATRPct)
}

func TestGetDailyPricesMissingTicker(t *testing.T) {
	pdb := NewPriceDB(t.TempDir(), zerolog.Nop())

	_, err := pdb.GetDailyPrices("MSFT", 5)
	require.Error(t, err)
}
