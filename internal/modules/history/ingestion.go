package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/events"
)

// WindowSource supplies the daily prices around an earnings date.
type WindowSource interface {
	GetPricesAround(ticker, from, to string) ([]DailyPrice, error)
}

// MoveWriter persists computed move records.
type MoveWriter interface {
	Upsert(m domain.HistoricalMove) error
}

// Ingestor turns raw daily prices around past earnings dates into move
// records. The nightly move_ingest job drives it over the earnings dates
// that settled since the last run.
type Ingestor struct {
	prices WindowSource
	moves  MoveWriter
	events *events.Manager
	log    zerolog.Logger
}

// NewIngestor creates a new move ingestor.
func NewIngestor(prices WindowSource, moves MoveWriter, ev *events.Manager, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		prices: prices,
		moves:  moves,
		events: ev,
		log:    log.With().Str("component", "move_ingestor").Logger(),
	}
}

// IngestMoves computes and stores move records for the given past earnings
// dates. Dates whose surrounding sessions are not on record are skipped;
// the count of stored records is returned.
func (g *Ingestor) IngestMoves(ticker string, earningsDates []time.Time) (int, error) {
	stored := 0
	for _, date := range earningsDates {
		move, err := g.computeMove(ticker, date)
		if err != nil {
			return stored, err
		}
		if move == nil {
			g.log.Debug().
				Str("ticker", ticker).
				Str("date", date.Format("2006-01-02")).
				Msg("no sessions around earnings date, skipping")
			continue
		}

		if err := g.moves.Upsert(*move); err != nil {
			return stored, err
		}
		stored++
	}

	if stored > 0 {
		g.events.Emit(events.MovesIngested, "history", map[string]interface{}{
			"ticker": ticker,
			"count":  stored,
		})
	}

	return stored, nil
}

// computeMove derives the three move variants for one earnings date. The
// reaction session is the first trading day on or after the earnings date;
// the baseline is the session before it. Returns nil when either session
// is missing from the price record.
func (g *Ingestor) computeMove(ticker string, earningsDate time.Time) (*domain.HistoricalMove, error) {
	day := earningsDate.Format("2006-01-02")
	from := earningsDate.AddDate(0, 0, -7).Format("2006-01-02")
	to := earningsDate.AddDate(0, 0, 5).Format("2006-01-02")

	window, err := g.prices.GetPricesAround(ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load price window for %s around %s: %w", ticker, day, err)
	}

	reaction := -1
	for i, p := range window {
		if p.Date >= day {
			reaction = i
			break
		}
	}
	if reaction <= 0 {
		// Either no session on/after the date, or nothing before it.
		return nil, nil
	}

	prev := window[reaction-1]
	react := window[reaction]
	if prev.Close == 0 || react.Open == 0 {
		return nil, nil
	}

	move := &domain.HistoricalMove{
		Ticker:          ticker,
		EarningsDate:    earningsDate,
		PrevClose:       prev.Close,
		EarningsClose:   react.Close,
		CloseMovePct:    (react.Close - prev.Close) / prev.Close * 100,
		GapMovePct:      (react.Open - prev.Close) / prev.Close * 100,
		IntradayMovePct: (react.Close - react.Open) / react.Open * 100,
	}

	return move, nil
}
