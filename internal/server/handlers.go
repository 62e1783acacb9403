package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/modules/scanner"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "earnscan",
	})
}

// handleTriggerScan kicks off a scan run in the background.
// POST /api/scan
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if s.triggerScan == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Scanning is not configured")
		return
	}

	if err := s.triggerScan(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "scan started",
	})
}

type scanResponse struct {
	Scan    *scanner.ScanRecord `json:"scan"`
	Results []scanner.Result    `json:"results"`
}

// handleLatestScan returns the most recent scan run and its ranked results.
// GET /api/scan/latest
func (s *Server) handleLatestScan(w http.ResponseWriter, r *http.Request) {
	record, err := s.scans.GetLatestScan()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest scan")
		s.writeError(w, http.StatusInternalServerError, "Failed to load latest scan")
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "No scan has run yet")
		return
	}

	s.respondWithScan(w, record)
}

// handleGetScan returns one scan run by ID.
// GET /api/scan/{id}
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.scans.GetScan(id)
	if err != nil {
		s.log.Error().Err(err).Str("scan_id", id).Msg("Failed to load scan")
		s.writeError(w, http.StatusInternalServerError, "Failed to load scan")
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "Unknown scan ID")
		return
	}

	s.respondWithScan(w, record)
}

func (s *Server) respondWithScan(w http.ResponseWriter, record *scanner.ScanRecord) {
	results, err := s.scans.GetResults(record.ID)
	if err != nil {
		s.log.Error().Err(err).Str("scan_id", record.ID).Msg("Failed to load results")
		s.writeError(w, http.StatusInternalServerError, "Failed to load scan results")
		return
	}

	s.writeJSON(w, http.StatusOK, scanResponse{Scan: record, Results: results})
}

// handleVRP evaluates the volatility risk premium for one ticker.
// GET /api/vrp/{ticker}?implied=5.2&expiration=2026-09-04
func (s *Server) handleVRP(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	implied, err := strconv.ParseFloat(r.URL.Query().Get("implied"), 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "implied query parameter must be a number (percent)")
		return
	}

	expiration := time.Now().AddDate(0, 0, 7)
	if raw := r.URL.Query().Get("expiration"); raw != "" {
		expiration, err = time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "expiration must be YYYY-MM-DD")
			return
		}
	}

	result, err := s.vrp.Calculate(ticker, expiration, implied)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("VRP evaluation failed")
		s.writeError(w, http.StatusInternalServerError, "VRP evaluation failed")
		return
	}
	if result == nil {
		s.writeError(w, http.StatusNotFound, "Insufficient earnings history for this ticker")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleScoreSnapshot scores a caller-supplied snapshot, mainly for
// experimenting with what-if inputs.
// POST /api/score
func (s *Server) handleScoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap domain.TickerSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	breakdown, err := s.scorer.Score(snap)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, breakdown)
}

// handleMoves returns a ticker's realized earnings-day moves.
// GET /api/history/{ticker}/moves?limit=12
func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	limit := 12
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	moves, err := s.vrp.GetHistoricalMoves(ticker, limit)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load moves")
		s.writeError(w, http.StatusInternalServerError, "Failed to load moves")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"moves":  moves,
	})
}

// handleVolatilityStats returns realized volatility and ATR for a ticker.
// GET /api/history/{ticker}/volatility
func (s *Server) handleVolatilityStats(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	stats, err := s.prices.VolatilityStats(ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to compute volatility stats")
		s.writeError(w, http.StatusInternalServerError, "Failed to compute volatility stats")
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
