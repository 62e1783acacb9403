// Package scanner orchestrates a full earnings scan: candidate discovery,
// snapshot assembly, scoring, VRP evaluation and result persistence.
package scanner

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/domain"
)

// ScanRecord is the stored header of one scan run.
type ScanRecord struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Candidates int        `json:"candidates"`
	Scored     int        `json:"scored"`
	Skipped    int        `json:"skipped"`
}

// Result is one ranked ticker in a scan.
type Result struct {
	Ticker         string  `json:"ticker"`
	EarningsDate   string  `json:"earnings_date,omitempty"`
	Score          float64 `json:"score"`
	ImpliedMovePct *float64 `json:"implied_move_pct,omitempty"`

	VRP        *domain.VRPResult      `json:"vrp,omitempty"`
	Prediction *domain.MovePrediction `json:"prediction,omitempty"`
}

// Repository persists scan runs and their ranked results.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new scan repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "scan_repository").Logger(),
	}
}

// CreateScan inserts the header row for a starting scan.
func (r *Repository) CreateScan(id string, startedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO scans (id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create scan %s: %w", id, err)
	}
	return nil
}

// FinishScan stamps the scan complete and stores its ranked results in one
// transaction.
func (r *Repository) FinishScan(id string, finishedAt time.Time, candidates, skipped int, results []Result) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE scans
		SET finished_at = ?, candidates = ?, scored = ?, skipped = ?
		WHERE id = ?
	`, finishedAt.UTC().Format(time.RFC3339), candidates, len(results), skipped, id)
	if err != nil {
		return fmt.Errorf("failed to finish scan %s: %w", id, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_results
			(scan_id, ticker, earnings_date, score, implied_move_pct,
			 vrp_ratio, edge_score, recommendation, quarters_of_data,
			 predicted_move_pct, prediction_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		var vrpRatio, edgeScore *float64
		var recommendation *string
		var quarters *int
		if res.VRP != nil {
			vrpRatio = &res.VRP.VRPRatio
			edgeScore = &res.VRP.EdgeScore
			rec := string(res.VRP.Recommendation)
			recommendation = &rec
			quarters = &res.VRP.QuartersOfData
		}

		var predictedMove, confidence *float64
		if res.Prediction != nil {
			predictedMove = &res.Prediction.PredictedMovePct
			confidence = &res.Prediction.Confidence
		}

		_, err = stmt.Exec(id, res.Ticker, nullableString(res.EarningsDate), res.Score,
			res.ImpliedMovePct, vrpRatio, edgeScore, recommendation, quarters,
			predictedMove, confidence)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", res.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan %s: %w", id, err)
	}

	return nil
}

// GetScan returns one scan header, or nil when unknown.
func (r *Repository) GetScan(id string) (*ScanRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, started_at, finished_at, candidates, scored, skipped
		FROM scans WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// GetLatestScan returns the most recently started scan, or nil when none
// has run yet.
func (r *Repository) GetLatestScan() (*ScanRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, started_at, finished_at, candidates, scored, skipped
		FROM scans ORDER BY started_at DESC LIMIT 1
	`)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// GetResults returns a scan's results ranked by score, highest first.
func (r *Repository) GetResults(scanID string) ([]Result, error) {
	rows, err := r.db.Query(`
		SELECT ticker, earnings_date, score, implied_move_pct,
		       vrp_ratio, edge_score, recommendation, quarters_of_data,
		       predicted_move_pct, prediction_confidence
		FROM scan_results
		WHERE scan_id = ?
		ORDER BY score DESC
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var res Result
		var earningsDate, recommendation sql.NullString
		var vrpRatio, edgeScore, predictedMove, confidence sql.NullFloat64
		var quarters sql.NullInt64

		err := rows.Scan(&res.Ticker, &earningsDate, &res.Score, &res.ImpliedMovePct,
			&vrpRatio, &edgeScore, &recommendation, &quarters,
			&predictedMove, &confidence)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		res.EarningsDate = earningsDate.String
		if vrpRatio.Valid {
			res.VRP = &domain.VRPResult{
				Ticker:         res.Ticker,
				VRPRatio:       vrpRatio.Float64,
				EdgeScore:      edgeScore.Float64,
				Recommendation: domain.Recommendation(recommendation.String),
				QuartersOfData: int(quarters.Int64),
			}
			if res.ImpliedMovePct != nil {
				res.VRP.ImpliedMovePct = *res.ImpliedMovePct
			}
		}
		if predictedMove.Valid {
			res.Prediction = &domain.MovePrediction{
				Ticker:           res.Ticker,
				PredictedMovePct: predictedMove.Float64,
				Confidence:       confidence.Float64,
			}
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// PastEarnings is one ticker/earnings-date pair seen by a prior scan.
type PastEarnings struct {
	Ticker       string
	EarningsDate string
}

// GetPastEarnings returns the distinct ticker/earnings-date pairs from
// stored scan results whose earnings date falls in [from, to), ordered by
// ticker then date. Move ingestion uses this as its record of which events
// have settled and need realized moves computed.
func (r *Repository) GetPastEarnings(from, to string) ([]PastEarnings, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ticker, earnings_date
		FROM scan_results
		WHERE earnings_date >= ? AND earnings_date < ?
		ORDER BY ticker, earnings_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query past earnings: %w", err)
	}
	defer rows.Close()

	var pairs []PastEarnings
	for rows.Next() {
		var p PastEarnings
		if err := rows.Scan(&p.Ticker, &p.EarningsDate); err != nil {
			return nil, fmt.Errorf("failed to scan past earnings row: %w", err)
		}
		pairs = append(pairs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating past earnings: %w", err)
	}

	return pairs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*ScanRecord, error) {
	var record ScanRecord
	var started string
	var finished sql.NullString

	err := row.Scan(&record.ID, &started, &finished,
		&record.Candidates, &record.Scored, &record.Skipped)
	if err != nil {
		return nil, err
	}

	record.StartedAt, err = time.Parse(time.RFC3339, started)
	if err != nil {
		return nil, fmt.Errorf("bad started_at %q: %w", started, err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339, finished.String)
		if err != nil {
			return nil, fmt.Errorf("bad finished_at %q: %w", finished.String, err)
		}
		record.FinishedAt = &t
	}

	return &record, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
