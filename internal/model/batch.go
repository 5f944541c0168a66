package model

import "time"

// Batch status constants.
const (
	StatusPending    = "pending"
	StatusFinalizing = "finalizing"
	StatusFulfilled  = "fulfilled"
	StatusRejected   = "rejected"
)

// ErrorReason classifies why an asset did not load.
type ErrorReason string

// Error reasons. The first three are detected before the engine is called.
const (
	ReasonInvalidSource          ErrorReason = "invalid_source"
	ReasonInvalidAlternateSource ErrorReason = "invalid_alternate_source"
	ReasonDuplicateID            ErrorReason = "duplicate_id"
	ReasonEngineLoadFailure      ErrorReason = "engine_load_failure"
)

// Asset outcome constants used by AssetEvent.
const (
	OutcomeLoaded  = "loaded"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
)

// validTransitions maps each batch status to the statuses it may move to.
// Fulfilled and rejected are terminal.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusFinalizing: true,
	},
	StatusFinalizing: {
		StatusFulfilled: true,
		StatusRejected:  true,
	},
}

// ValidTransition reports whether a batch may move from one status to another.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Terminal reports whether status is a settled batch status.
func Terminal(status string) bool {
	return status == StatusFulfilled || status == StatusRejected
}

// LoadRequest is one normalized, engine-ready entry of a manifest.
type LoadRequest struct {
	ID     string  `json:"id"`
	Source Source  `json:"src"`
	Data   AuxData `json:"data"`
	Order  int     `json:"order"`
}

// ResultEntry is one successfully loaded asset, or one sprite region of it.
type ResultEntry struct {
	ID     string        `json:"id"`
	Source string        `json:"source"`
	Data   *AuxData      `json:"data,omitempty"`
	Order  int           `json:"order"`
	Sprite *SpriteRegion `json:"sprite,omitempty"`
}

// ErrorEntry is one asset that did not load.
type ErrorEntry struct {
	ID     string      `json:"id"`
	Source string      `json:"source"`
	Reason ErrorReason `json:"reason"`
}

// BatchResult is the settled value of a batch. On rejection only Errors
// is populated.
type BatchResult struct {
	Label     any           `json:"label,omitempty"`
	Successes []ResultEntry `json:"successes,omitempty"`
	Errors    []ErrorEntry  `json:"errors,omitempty"`
}

// Batch is the persisted record of one load call.
type Batch struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	Label      any          `json:"label,omitempty"`
	BasePath   string       `json:"base_path,omitempty"`
	Requested  int          `json:"requested"`
	Pending    int          `json:"pending"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Result     *BatchResult `json:"result,omitempty"`
	DurationMS *int         `json:"duration_ms,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// AssetEvent records one terminal outcome of one asset within a batch.
type AssetEvent struct {
	BatchID   string      `json:"batch_id"`
	Seq       int         `json:"seq"`
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	Outcome   string      `json:"outcome"`
	Reason    ErrorReason `json:"reason,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
