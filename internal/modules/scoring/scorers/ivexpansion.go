package scorers

import (
	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
)

// IVExpansionScorer scores how fast implied volatility has been rising over
// the trailing days - "is premium building right now". This is the primary
// timing signal and carries the highest weight.
//
// When no recent IV change is on record, the scorer triggers a best-effort
// backfill through the history collaborator before giving up. A ticker with
// no history after backfill scores a low 10, never 0: missing history should
// hurt proportionally more here than in other scorers, but must not zero out
// the whole ticker.
type IVExpansionScorer struct {
	history      domain.IVHistory
	weight       float64
	lookbackDays int
	log          zerolog.Logger
}

// IVExpansionConfig holds scorer configuration. Zero values use defaults.
type IVExpansionConfig struct {
	Weight       float64
	LookbackDays int
}

// Expansion scores for degraded data situations.
const (
	expansionScoreNoCurrentIV = 30 // neutral; IV-level scorer owns this case
	expansionScoreNoHistory   = 10
)

// NewIVExpansionScorer creates the IV-expansion scorer.
func NewIVExpansionScorer(history domain.IVHistory, cfg IVExpansionConfig, log zerolog.Logger) *IVExpansionScorer {
	if cfg.Weight == 0 {
		cfg.Weight = WeightIVExpansion
	}
	if cfg.LookbackDays == 0 {
		cfg.LookbackDays = 7
	}

	return &IVExpansionScorer{
		history:      history,
		weight:       cfg.Weight,
		lookbackDays: cfg.LookbackDays,
		log:          log.With().Str("scorer", "iv_expansion").Logger(),
	}
}

// Name returns the scorer name
func (s *IVExpansionScorer) Name() string { return "iv_expansion" }

// Weight returns the scorer weight
func (s *IVExpansionScorer) Weight() float64 { return s.weight }

// HardFilter returns false: missing expansion data is a penalty, not an exclusion.
func (s *IVExpansionScorer) HardFilter() bool { return false }

// Score scores the snapshot's IV build-up velocity.
func (s *IVExpansionScorer) Score(snap domain.TickerSnapshot) float64 {
	if snap.Options.CurrentIV == nil {
		return expansionScoreNoCurrentIV
	}
	currentIV := *snap.Options.CurrentIV

	change := s.recentChange(snap.Ticker, currentIV)
	if change == nil {
		// Self-healing: try to populate missing history, then look again.
		result := s.history.BackfillRecent(snap.Ticker, s.lookbackDays)
		if !result.Success {
			s.log.Debug().
				Str("ticker", snap.Ticker).
				Str("message", result.Message).
				Msg("IV history backfill failed")
			return expansionScoreNoHistory
		}

		change = s.recentChange(snap.Ticker, currentIV)
		if change == nil {
			return expansionScoreNoHistory
		}
	}

	return scoreIVChange(*change)
}

// recentChange wraps the collaborator call; failures degrade to "no data"
// rather than propagating, per the scorer contract.
func (s *IVExpansionScorer) recentChange(ticker string, currentIV float64) *float64 {
	change, err := s.history.GetRecentIVChange(ticker, currentIV, s.lookbackDays)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("IV change lookup failed")
		return nil
	}
	return change
}

// scoreIVChange buckets the percent change of IV within the lookback window.
// Falling IV ("leaking") floors at 20, not 0 - slow-buildup names should not
// be entirely excluded.
func scoreIVChange(changePct float64) float64 {
	switch {
	case changePct >= 80:
		return 100
	case changePct >= 40:
		return 80
	case changePct >= 20:
		return 60
	case changePct >= 0:
		return 40
	default:
		return 20
	}
}
