package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/clients/alphavantage"
	"github.com/aristath/earnscan/internal/clients/tradier"
	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/events"
)

// CalendarSource supplies upcoming earnings events.
type CalendarSource interface {
	GetEarningsInWindow(daysAhead int) ([]alphavantage.EarningsEvent, error)
}

// MarketData supplies quotes and options data for snapshot assembly.
type MarketData interface {
	GetQuote(ticker string) (*tradier.Quote, error)
	GetExpirations(ticker string) ([]string, error)
	GetOptionsData(ticker, expiration string, spot float64) (*tradier.OptionsData, error)
}

// CompositeScorer scores an assembled snapshot.
type CompositeScorer interface {
	Score(snap domain.TickerSnapshot) (*domain.ScoreBreakdown, error)
}

// VRPCalculator evaluates the volatility risk premium for a candidate.
type VRPCalculator interface {
	Calculate(ticker string, expiration time.Time, impliedMovePct float64) (*domain.VRPResult, error)
}

// IVRecorder receives live IV observations seen during a scan.
type IVRecorder interface {
	RecordIV(ticker string, iv float64, date time.Time) error
}

// ScanStore persists scan runs.
type ScanStore interface {
	CreateScan(id string, startedAt time.Time) error
	FinishScan(id string, finishedAt time.Time, candidates, skipped int, results []Result) error
}

// Config holds scanner settings. Zero values use defaults.
type Config struct {
	DaysAhead   int     // earnings window to scan
	MinScore    float64 // drop results below this composite score
	Concurrency int     // parallel ticker evaluations
}

// Summary is the outcome of one scan run.
type Summary struct {
	ID         string        `json:"id"`
	Candidates int           `json:"candidates"`
	Scored     int           `json:"scored"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
	Results    []Result      `json:"results"`
}

// Scanner runs the full scan pipeline.
type Scanner struct {
	calendar  CalendarSource
	market    MarketData
	composite CompositeScorer
	vrp       VRPCalculator
	ivs       IVRecorder
	predictor domain.MagnitudePredictor // optional
	store     ScanStore
	events    *events.Manager
	cfg       Config
	now       func() time.Time
	log       zerolog.Logger
}

// New creates a scanner. predictor may be nil when no magnitude service is
// configured.
func New(calendar CalendarSource, market MarketData, composite CompositeScorer,
	vrp VRPCalculator, ivs IVRecorder, predictor domain.MagnitudePredictor,
	store ScanStore, ev *events.Manager, cfg Config, log zerolog.Logger) *Scanner {

	if cfg.DaysAhead == 0 {
		cfg.DaysAhead = 14
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}

	return &Scanner{
		calendar:  calendar,
		market:    market,
		composite: composite,
		vrp:       vrp,
		ivs:       ivs,
		predictor: predictor,
		store:     store,
		events:    ev,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "scanner").Logger(),
	}
}

// Scan runs one full scan and persists the outcome. Individual ticker
// failures are skipped and counted, never fatal to the run.
func (s *Scanner) Scan(ctx context.Context) (*Summary, error) {
	id := uuid.New().String()
	started := s.now()

	if err := s.store.CreateScan(id, started); err != nil {
		return nil, err
	}

	s.events.Emit(events.ScanStarted, "scanner", map[string]interface{}{
		"scan_id":    id,
		"days_ahead": s.cfg.DaysAhead,
	})

	candidates, err := s.calendar.GetEarningsInWindow(s.cfg.DaysAhead)
	if err != nil {
		s.events.Emit(events.ScanFailed, "scanner", map[string]interface{}{
			"scan_id": id,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to load earnings calendar: %w", err)
	}

	results, skipped := s.evaluateAll(ctx, candidates)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		ri, rj := 0, 0
		if results[i].VRP != nil {
			ri = results[i].VRP.Recommendation.Rank()
		}
		if results[j].VRP != nil {
			rj = results[j].VRP.Recommendation.Rank()
		}
		if ri != rj {
			return ri > rj
		}
		return results[i].Ticker < results[j].Ticker
	})

	finished := s.now()
	if err := s.store.FinishScan(id, finished, len(candidates), skipped, results); err != nil {
		return nil, err
	}

	summary := &Summary{
		ID:         id,
		Candidates: len(candidates),
		Scored:     len(results),
		Skipped:    skipped,
		Duration:   finished.Sub(started),
		Results:    results,
	}

	s.events.Emit(events.ScanCompleted, "scanner", map[string]interface{}{
		"scan_id":    id,
		"candidates": summary.Candidates,
		"scored":     summary.Scored,
		"skipped":    summary.Skipped,
		"duration":   summary.Duration.String(),
	})

	return summary, nil
}

// evaluateAll fans candidates out over a bounded worker pool.
func (s *Scanner) evaluateAll(ctx context.Context, candidates []alphavantage.EarningsEvent) ([]Result, int) {
	jobs := make(chan alphavantage.EarningsEvent)
	var mu sync.Mutex
	var results []Result
	skipped := 0

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range jobs {
				result := s.evaluate(event)
				mu.Lock()
				if result != nil {
					results = append(results, *result)
				} else {
					skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, event := range candidates {
		if ctx.Err() != nil {
			// Stop feeding; in-flight evaluations finish normally.
			close(jobs)
			wg.Wait()
			return results, skipped
		}
		jobs <- event
	}
	close(jobs)
	wg.Wait()

	return results, skipped
}

// evaluate runs the full pipeline for one candidate. A nil return means the
// ticker was skipped, for whatever reason; the cause is logged and emitted.
func (s *Scanner) evaluate(event alphavantage.EarningsEvent) *Result {
	quote, err := s.market.GetQuote(event.Ticker)
	if err != nil {
		s.skip(event.Ticker, "quote lookup failed", err)
		return nil
	}
	if quote.Last <= 0 {
		s.skip(event.Ticker, "no usable price", nil)
		return nil
	}

	expiration, err := s.pickExpiration(event)
	if err != nil {
		s.skip(event.Ticker, "no expiration after earnings", err)
		return nil
	}

	options, err := s.market.GetOptionsData(event.Ticker, expiration, quote.Last)
	if err != nil {
		s.skip(event.Ticker, "options data unavailable", err)
		return nil
	}

	snap := domain.TickerSnapshot{
		Ticker:       event.Ticker,
		Price:        quote.Last,
		MarketCap:    quote.MarketCap,
		EarningsDate: event.ReportDate,
		Options: domain.OptionsSnapshot{
			CurrentIV:       options.CurrentIV,
			OptionsVolume:   options.TotalVolume,
			OpenInterest:    options.TotalOpenInterest,
			BidAskSpreadPct: options.BidAskSpreadPct,
		},
	}

	// Keep the live IV record fresh; the expansion scorer depends on it.
	if options.CurrentIV != nil {
		if err := s.ivs.RecordIV(event.Ticker, *options.CurrentIV, s.now()); err != nil {
			s.log.Warn().Err(err).Str("ticker", event.Ticker).Msg("failed to record IV")
		}
	}

	breakdown, err := s.composite.Score(snap)
	if err != nil {
		s.skip(event.Ticker, "scoring failed", err)
		return nil
	}
	if breakdown.HardFilter != "" {
		s.events.Emit(events.TickerFiltered, "scanner", map[string]interface{}{
			"ticker": event.Ticker,
			"filter": breakdown.HardFilter,
		})
		return nil
	}
	if breakdown.Final < s.cfg.MinScore {
		s.skip(event.Ticker, "below minimum score", nil)
		return nil
	}

	result := &Result{
		Ticker:         event.Ticker,
		EarningsDate:   event.ReportDate,
		Score:          breakdown.Final,
		ImpliedMovePct: options.ImpliedMovePct,
	}

	if options.ImpliedMovePct != nil {
		expirationDate, _ := time.Parse("2006-01-02", expiration)
		vrp, err := s.vrp.Calculate(event.Ticker, expirationDate, *options.ImpliedMovePct)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", event.Ticker).Msg("VRP evaluation failed")
		} else {
			result.VRP = vrp // may be nil on insufficient history
		}
	}

	if s.predictor != nil {
		if reportDate, err := time.Parse("2006-01-02", event.ReportDate); err == nil {
			prediction, err := s.predictor.Predict(event.Ticker, reportDate)
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", event.Ticker).Msg("prediction failed")
			} else {
				result.Prediction = prediction
			}
		}
	}

	s.events.Emit(events.TickerScored, "scanner", map[string]interface{}{
		"ticker": event.Ticker,
		"score":  breakdown.Final,
	})

	return result
}

// pickExpiration selects the first option expiration on or after the
// earnings date, the contract that prices the event.
func (s *Scanner) pickExpiration(event alphavantage.EarningsEvent) (string, error) {
	dates, err := s.market.GetExpirations(event.Ticker)
	if err != nil {
		return "", err
	}

	for _, date := range dates {
		if date >= event.ReportDate {
			return date, nil
		}
	}
	return "", fmt.Errorf("no expiration on or after %s", event.ReportDate)
}

func (s *Scanner) skip(ticker, reason string, err error) {
	evt := s.log.Debug().Str("ticker", ticker).Str("reason", reason)
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("ticker skipped")

	data := map[string]interface{}{
		"ticker": ticker,
		"reason": reason,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	s.events.Emit(events.TickerSkipped, "scanner", data)
}
