package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// handleHealth reports service and database health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "ok"
	code := http.StatusOK

	if err := s.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"service":  "pendencias-monitor",
	})
}

// handleStartRun triggers a batch run in the background. The run is guarded
// by the job's overlap check, so a trigger during a running batch is a no-op.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.runJob.Run(); err != nil {
			s.log.Error().Err(err).Msg("On-demand run failed")
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
	})
}

// handleLatestRun returns the most recent run summary held in memory
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	summary := s.latestSummary()
	if summary == nil {
		s.writeError(w, http.StatusNotFound, "no run has completed yet")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp":            summary.Timestamp,
		"total_consultas":      summary.TotalQueries,
		"consultas_executadas": summary.SuccessCount,
		"consultas_com_erro":   summary.ErrorCount,
		"total_pendencias":     summary.TotalCount,
		"taxa_sucesso":         summary.SuccessRate(),
		"interrompida":         summary.Interrupted,
		"top_pendencias":       summary.Top,
	})
}

// handleListSnapshots lists stored snapshot files with modification times
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	files, err := s.trends.ListSnapshotFiles()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type snapshotInfo struct {
		Name       string `json:"name"`
		ModifiedAt string `json:"modified_at"`
		SizeBytes  int64  `json:"size_bytes"`
	}

	infos := make([]snapshotInfo, 0, len(files))
	for _, path := range files {
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos = append(infos, snapshotInfo{
			Name:       filepath.Base(path),
			ModifiedAt: stat.ModTime().Format(time.RFC3339),
			SizeBytes:  stat.Size(),
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": infos,
	})
}

// handleTrendReport renders the comparative report between two dates.
// Query params "from" and "to" take YYYY-MM-DD; they default to yesterday
// and today.
func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := now.AddDate(0, 0, -1)
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid from date, use YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid to date, use YYYY-MM-DD")
			return
		}
		to = parsed
	}

	report, err := s.trends.Report(from, to)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(report)); err != nil {
		s.log.Error().Err(err).Msg("Failed to write report response")
	}
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
