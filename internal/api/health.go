package api

import "net/http"

// healthResponse reports liveness plus how much work the loader is holding.
type healthResponse struct {
	Status              string `json:"status"`
	PendingBatches      int    `json:"pending_batches"`
	OutstandingRequests int    `json:"outstanding_requests"`
	Formats             int    `json:"formats"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:              "ok",
		PendingBatches:      s.loader.Pending(),
		OutstandingRequests: s.loader.Outstanding(),
		Formats:             len(s.formats.List()),
	})
}
