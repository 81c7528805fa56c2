package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"coinscan/internal/scan"
)

// scanRequest is the POST /api/scan body.
type scanRequest struct {
	ScanType      string   `json:"scan_type"`
	FilterScope   string   `json:"filter_scope"`
	MinPrice      float64  `json:"min_price"`
	MaxPrice      float64  `json:"max_price"`
	CustomSymbols []string `json:"custom_symbols"`
	UserID        string   `json:"user_id"`
}

// handleStartScan runs a scan synchronously and returns its outcome. The
// connection stays open for the duration of the run; callers wanting
// progress use the events stream instead of polling.
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ScanType == "" {
		s.respondError(w, http.StatusBadRequest, "scan_type is required")
		return
	}

	result, err := s.orchestrator.Run(r.Context(), scan.Request{
		ScanType:      req.ScanType,
		FilterScope:   req.FilterScope,
		MinPrice:      req.MinPrice,
		MaxPrice:      req.MaxPrice,
		CustomSymbols: req.CustomSymbols,
		UserID:        req.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrScanInProgress):
			s.respondError(w, http.StatusConflict, err.Error())
		case result != nil:
			// The run started and closed with a terminal status; report
			// that outcome rather than a bare 500
			s.respondJSON(w, http.StatusOK, map[string]any{
				"run_id":      result.RunID,
				"status":      result.Status,
				"total_coins": result.TotalCoins,
				"error":       err.Error(),
			})
		default:
			s.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"run_id":          result.RunID,
		"status":          result.Status,
		"total_coins":     result.TotalCoins,
		"recommendations": result.Recommendations,
	})
}

// handleCancelScan cancels the active scan.
func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	runID, err := s.monitor.CancelCurrent()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.log.Info().Str("run_id", runID).Msg("Scan cancellation requested")
	s.respondJSON(w, http.StatusOK, map[string]any{"run_id": runID, "cancelled": true})
}

// handleScanHealth reports the scan monitor state plus process resource
// usage.
func (s *Server) handleScanHealth(w http.ResponseWriter, r *http.Request) {
	status := "idle"
	var current map[string]any

	if snapshot := s.monitor.Status(); snapshot != nil {
		status = "scanning"
		current = map[string]any{
			"run_id":           snapshot.RunID,
			"scan_type":        snapshot.ScanType,
			"started_at":       snapshot.StartedAt,
			"duration_minutes": snapshot.Elapsed().Minutes(),
		}
	}

	payload := map[string]any{
		"status":         status,
		"current_scan":   current,
		"is_stuck":       s.monitor.IsStuck(),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		payload["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		payload["cpu_percent"] = percents[0]
	}

	s.respondJSON(w, http.StatusOK, payload)
}

// handleScanTypes lists the configured scan types.
func (s *Server) handleScanTypes(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"scan_types": scan.PresetNames()})
}

// handleRecentRuns lists recent scan runs, newest first.
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			s.respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	runs, err := s.runRepo.GetRecent(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list scan runs")
		s.respondError(w, http.StatusInternalServerError, "failed to list scan runs")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one scan run with its recommendations.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.runRepo.GetByID(id)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to load scan run")
		s.respondError(w, http.StatusInternalServerError, "failed to load scan run")
		return
	}
	if run == nil {
		s.respondError(w, http.StatusNotFound, "scan run not found")
		return
	}

	recs, err := s.recRepo.GetByRun(id)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to load recommendations")
		s.respondError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"run":             run,
		"recommendations": recs,
	})
}

// handleLiveness is the bare liveness probe.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]any{"error": message})
}
