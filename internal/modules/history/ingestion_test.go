package history

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/events"
)

// fixedWindow serves a canned session window regardless of range.
type fixedWindow struct {
	prices []DailyPrice
}

func (f *fixedWindow) GetPricesAround(ticker, from, to string) ([]DailyPrice, error) {
	return f.prices, nil
}

// collectingWriter records upserted moves.
type collectingWriter struct {
	moves []domain.HistoricalMove
}

func (c *collectingWriter) Upsert(m domain.HistoricalMove) error {
	c.moves = append(c.moves, m)
	return nil
}

func newIngestor(prices WindowSource, writer MoveWriter) *Ingestor {
	return NewIngestor(prices, writer, events.NewManager(zerolog.Nop()), zerolog.Nop())
}

func TestIngestMovesComputesAllVariants(t *testing.T) {
	// Earnings after the close on Thursday 2026-01-29: baseline session is
	// the 29th, the reaction session the 30th.
	window := &fixedWindow{prices: []DailyPrice{
		{Date: "2026-01-28", Open: 98, Close: 99},
		{Date: "2026-01-29", Open: 99, Close: 100},  // prev close 100
		{Date: "2026-01-30", Open: 103, Close: 104}, // gap +3%, close +4%
		{Date: "2026-02-02", Open: 104, Close: 105},
	}}
	writer := &collectingWriter{}

	stored, err := newIngestor(window, writer).IngestMoves("AAPL", []time.Time{date("2026-01-30")})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	require.Len(t, writer.moves, 1)

	m := writer.moves[0]
	assert.Equal(t, "AAPL", m.Ticker)
	assert.Equal(t, 100.0, m.PrevClose)
	assert.Equal(t, 104.0, m.EarningsClose)
	assert.InDelta(t, 4.0, m.CloseMovePct, 0.001)
	assert.InDelta(t, 3.0, m.GapMovePct, 0.001)
	assert.InDelta(t, 104.0/103.0*100-100, m.IntradayMovePct, 0.001)
}

func TestIngestMovesWeekendEarningsDateRollsForward(t *testing.T) {
	// Date falls on a Saturday; the reaction session is the following Monday.
	window := &fixedWindow{prices: []DailyPrice{
		{Date: "2026-01-30", Open: 99, Close: 100},
		{Date: "2026-02-02", Open: 102, Close: 98},
	}}
	writer := &collectingWriter{}

	stored, err := newIngestor(window, writer).IngestMoves("AAPL", []time.Time{date("2026-01-31")})
	require.NoError(t, err)
	require.Equal(t, 1, stored)

	m := writer.moves[0]
	assert.InDelta(t, -2.0, m.CloseMovePct, 0.001)
	assert.InDelta(t, 2.0, m.GapMovePct, 0.001)
}

func TestIngestMovesSkipsDatesWithoutSessions(t *testing.T) {
	tests := []struct {
		name   string
		prices []DailyPrice
	}{
		{"empty window", nil},
		{"no session before the date", []DailyPrice{
			{Date: "2026-01-30", Open: 103, Close: 104},
		}},
		{"no session on or after the date", []DailyPrice{
			{Date: "2026-01-28", Open: 98, Close: 99},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &collectingWriter{}
			stored, err := newIngestor(&fixedWindow{prices: tt.prices}, writer).
				IngestMoves("AAPL", []time.Time{date("2026-01-30")})
			require.NoError(t, err)
			assert.Zero(t, stored)
			assert.Empty(t, writer.moves)
		})
	}
}

func TestIngestMovesMultipleDates(t *testing.T) {
	window := &fixedWindow{prices: []DailyPrice{
		{Date: "2026-01-29", Open: 99, Close: 100},
		{Date: "2026-01-30", Open: 103, Close: 104},
	}}
	writer := &collectingWriter{}

	// Second date has no surrounding sessions in the canned window.
	stored, err := newIngestor(window, writer).IngestMoves("AAPL", []time.Time{
		date("2026-01-30"),
		date("2026-04-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
}
