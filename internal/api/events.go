package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/soundbatch/internal/model"
	"github.com/seantiz/soundbatch/internal/store"
)

func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Verify batch exists.
	b, err := s.store.GetBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if err != nil {
		s.logger.Error("get batch for events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, canFlush := w.(http.Flusher)

	if model.Terminal(b.Status) {
		w.WriteHeader(http.StatusOK)
		_ = writeSSEEvent(w, "done", b.Status)
		return
	}

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	// Subscribe on a batch that settled after the status check returns a
	// closed channel, so the loop below ends at once.
	ch, unsub := s.loader.Broker().Subscribe(id)
	defer unsub()
	openEventStreams.Inc()
	defer openEventStreams.Dec()

	w.WriteHeader(http.StatusOK)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "settled")
				if canFlush {
					flusher.Flush()
				}
				return
			}
			if err := writeSSEData(w, ev); err != nil {
				return // Write failed (e.g. client gone).
			}
			if canFlush {
				flusher.Flush()
			}
		case <-s.stopping:
			_ = writeSSEEvent(w, "shutdown", "server stopping")
			return
		case <-r.Context().Done():
			return // Client disconnected.
		}
	}
}

// eventHistoryResponse is the JSON response for GET /v1/batches/:id/events/history.
type eventHistoryResponse struct {
	BatchID string             `json:"batch_id"`
	Events  []model.AssetEvent `json:"events"`
}

func (s *Server) handleGetEventHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, err := s.store.GetBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if err != nil {
		s.logger.Error("get batch for event history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}

	events, err := s.store.GetAssetEvents(r.Context(), id)
	if err != nil {
		s.logger.Error("get asset events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get asset events")
		return
	}
	if events == nil {
		events = []model.AssetEvent{}
	}

	s.writeJSON(w, http.StatusOK, eventHistoryResponse{
		BatchID: id,
		Events:  events,
	})
}

// writeSSEData writes one asset event as a single-line JSON data event.
func writeSSEData(w http.ResponseWriter, ev model.AssetEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// writeSSEEvent writes a named SSE event (event: <type>\ndata: <data>\n\n).
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
