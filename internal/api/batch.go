package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/soundbatch/internal/loader"
	"github.com/seantiz/soundbatch/internal/model"
	"github.com/seantiz/soundbatch/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// createBatchRequest is the JSON body for POST /v1/batches.
type createBatchRequest struct {
	Source   json.RawMessage `json:"source"`
	BasePath string          `json:"base_path"`
	ID       string          `json:"id"`
	Data     *model.AuxData  `json:"data"`
	Label    any             `json:"label"`
}

// rejectedResponse is the body of a rejected batch.
type rejectedResponse struct {
	BatchID string             `json:"batch_id"`
	Errors  []model.ErrorEntry `json:"errors"`
}

// fulfilledResponse is the body of a fulfilled batch.
type fulfilledResponse struct {
	BatchID string `json:"batch_id"`
	*model.BatchResult
}

// listBatchesResponse wraps the paginated list response.
type listBatchesResponse struct {
	Batches []*model.Batch `json:"batches"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// startBatch decodes the request body and hands it to the loader. It writes
// the error response itself and returns nil when the request is unusable.
func (s *Server) startBatch(w http.ResponseWriter, r *http.Request) *loader.Batch {
	var req createBatchRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil
	}
	if len(req.Source) == 0 {
		s.writeError(w, http.StatusBadRequest, "source is required")
		return nil
	}

	in, err := loader.DecodeInput(req.Source)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	opts := []loader.LoadOption{
		loader.WithBasePath(req.BasePath),
		loader.WithLabel(req.Label),
	}
	if req.ID != "" {
		opts = append(opts, loader.WithID(req.ID))
	}
	if req.Data != nil {
		opts = append(opts, loader.WithData(*req.Data))
	}

	// The batch outlives the request when the caller stops waiting.
	return s.loader.Load(context.WithoutCancel(r.Context()), in, opts...)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	b := s.startBatch(w, r)
	if b == nil {
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(s.waitTimeout + writeTimeout)); err != nil {
		s.logger.Debug("extend write deadline", "error", err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.waitTimeout)
	defer cancel()

	res, err := b.Wait(ctx)
	var rej *loader.RejectedError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, fulfilledResponse{BatchID: b.ID(), BatchResult: res})
	case errors.As(err, &rej):
		errs := rej.Errors
		if errs == nil {
			errs = []model.ErrorEntry{}
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, rejectedResponse{BatchID: b.ID(), Errors: errs})
	default:
		// Still loading: hand back the record so the caller can poll or stream.
		s.writeBatchRecord(w, r, b.ID(), http.StatusAccepted)
	}
}

func (s *Server) handleAsyncBatch(w http.ResponseWriter, r *http.Request) {
	b := s.startBatch(w, r)
	if b == nil {
		return
	}
	s.writeBatchRecord(w, r, b.ID(), http.StatusAccepted)
}

func (s *Server) writeBatchRecord(w http.ResponseWriter, r *http.Request, id string, status int) {
	rec, err := s.store.GetBatch(context.WithoutCancel(r.Context()), id)
	if err != nil {
		s.logger.Error("get batch record", "batch_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}
	s.writeJSON(w, status, rec)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := s.store.GetBatch(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if err != nil {
		s.logger.Error("get batch", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}

	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	batches, total, err := s.store.ListBatches(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list batches", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}

	if batches == nil {
		batches = []*model.Batch{}
	}

	s.writeJSON(w, http.StatusOK, listBatchesResponse{
		Batches: batches,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
