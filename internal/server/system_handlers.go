package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleSystemStatus reports process and host health.
// GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	dbStatus := "ok"
	if s.db != nil {
		if err := s.db.HealthCheck(); err != nil {
			s.log.Warn().Err(err).Msg("Database health check failed")
			dbStatus = err.Error()
		}
	}

	cpuPct, ramPct := s.hostStats()

	status := map[string]interface{}{
		"status":   "running",
		"database": dbStatus,
		"process": map[string]interface{}{
			"alloc_mb":   m.Alloc / 1024 / 1024,
			"sys_mb":     m.Sys / 1024 / 1024,
			"num_gc":     m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
		"host": map[string]interface{}{
			"cpu_percent": cpuPct,
			"ram_percent": ramPct,
		},
	}
	if s.jobs != nil {
		status["jobs"] = s.jobs.Status()
	}

	s.writeJSON(w, http.StatusOK, status)
}

// hostStats samples host CPU and memory. The short CPU sample keeps the
// status endpoint fast for dashboard polling.
func (s *Server) hostStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
