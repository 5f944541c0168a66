package store

import (
	"context"
	"errors"

	"github.com/seantiz/soundbatch/internal/model"
)

// ErrInvalidTransition is returned when a batch status change is not allowed,
// such as settling a batch that already settled.
var ErrInvalidTransition = errors.New("invalid status transition")

// BatchStats holds aggregate batch statistics.
type BatchStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
	AssetsLoaded  int            `json:"assets_loaded"`
	AssetsFailed  int            `json:"assets_failed"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for batch history.
type Store interface {
	CreateBatch(ctx context.Context, b *model.Batch) error
	GetBatch(ctx context.Context, id string) (*model.Batch, error)
	ListBatches(ctx context.Context, limit, offset int) ([]*model.Batch, int, error)
	FinishBatch(ctx context.Context, b *model.Batch) error
	GetBatchStats(ctx context.Context) (*BatchStats, error)
	InsertAssetEvent(ctx context.Context, ev model.AssetEvent) error
	GetAssetEvents(ctx context.Context, batchID string) ([]model.AssetEvent, error)
	Close() error
}
