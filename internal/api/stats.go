package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	AssetsLoaded   int            `json:"assets_loaded"`
	AssetsFailed   int            `json:"assets_failed"`
	AvgDurationMS  float64        `json:"avg_duration_ms"`
	PendingBatches int            `json:"pending_batches"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetBatchStats(r.Context())
	if err != nil {
		s.logger.Error("get batch stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		Total:          stats.Total,
		ByStatus:       stats.CountByStatus,
		AssetsLoaded:   stats.AssetsLoaded,
		AssetsFailed:   stats.AssetsFailed,
		AvgDurationMS:  stats.AvgDurationMS,
		PendingBatches: s.loader.Pending(),
	})
}
