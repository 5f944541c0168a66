package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/seantiz/soundbatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestBatch() *model.Batch {
	return &model.Batch{
		ID:        model.NewID(),
		Status:    model.StatusPending,
		Label:     "menu",
		BasePath:  "sounds/",
		Requested: 3,
		Pending:   2,
		Failed:    1,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func settle(b *model.Batch, status string, durationMS int) {
	now := time.Now().UTC()
	b.Status = status
	b.Pending = 0
	b.DurationMS = &durationMS
	b.FinishedAt = &now
}

func TestCreateAndGetBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := makeTestBatch()

	if err := s.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	got, err := s.GetBatch(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}

	if got.ID != b.ID {
		t.Errorf("ID = %q, want %q", got.ID, b.ID)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
	if got.Label != "menu" {
		t.Errorf("Label = %v, want %q", got.Label, "menu")
	}
	if got.BasePath != "sounds/" {
		t.Errorf("BasePath = %q, want %q", got.BasePath, "sounds/")
	}
	if got.Requested != 3 || got.Pending != 2 || got.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", got.Requested, got.Pending, got.Failed)
	}
	if got.Result != nil {
		t.Errorf("Result = %+v, want nil for pending batch", got.Result)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil", got.FinishedAt)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBatch(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Errorf("GetBatch error = %v, want ErrNotFound", err)
	}
}

func TestFinishBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := makeTestBatch()
	if err := s.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	settle(b, model.StatusFulfilled, 120)
	b.Succeeded = 2
	b.Result = &model.BatchResult{
		Label: "menu",
		Successes: []model.ResultEntry{
			{ID: "a", Source: "sounds/a.mp3", Order: 0},
			{ID: "b", Source: "sounds/b.mp3", Order: 2},
		},
		Errors: []model.ErrorEntry{{Source: "x.txt", Reason: model.ReasonInvalidSource}},
	}

	if err := s.FinishBatch(ctx, b); err != nil {
		t.Fatalf("FinishBatch: %v", err)
	}

	got, err := s.GetBatch(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.Status != model.StatusFulfilled {
		t.Errorf("Status = %q, want fulfilled", got.Status)
	}
	if got.Pending != 0 || got.Succeeded != 2 {
		t.Errorf("Pending/Succeeded = %d/%d, want 0/2", got.Pending, got.Succeeded)
	}
	if got.DurationMS == nil || *got.DurationMS != 120 {
		t.Errorf("DurationMS = %v, want 120", got.DurationMS)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt is nil, expected it to be set")
	}
	if got.Result == nil || len(got.Result.Successes) != 2 {
		t.Fatalf("Result = %+v, want two successes", got.Result)
	}
	if got.Result.Successes[1].Source != "sounds/b.mp3" {
		t.Errorf("second success source = %q", got.Result.Successes[1].Source)
	}
	if len(got.Result.Errors) != 1 || got.Result.Errors[0].Reason != model.ReasonInvalidSource {
		t.Errorf("Result.Errors = %+v", got.Result.Errors)
	}
}

func TestFinishBatchTwice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := makeTestBatch()
	if err := s.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	settle(b, model.StatusRejected, 5)
	if err := s.FinishBatch(ctx, b); err != nil {
		t.Fatalf("first FinishBatch: %v", err)
	}

	b.Status = model.StatusFulfilled
	err := s.FinishBatch(ctx, b)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second FinishBatch: got %v, want ErrInvalidTransition", err)
	}

	got, _ := s.GetBatch(ctx, b.ID)
	if got.Status != model.StatusRejected {
		t.Errorf("Status = %q, want rejected to stick", got.Status)
	}
}

func TestFinishBatchNonTerminalStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := makeTestBatch()
	if err := s.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	b.Status = model.StatusFinalizing
	if err := s.FinishBatch(ctx, b); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}

func TestFinishBatchNotFound(t *testing.T) {
	s := newTestStore(t)
	b := makeTestBatch()
	settle(b, model.StatusFulfilled, 1)

	if err := s.FinishBatch(context.Background(), b); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListBatchesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		b := makeTestBatch()
		b.CreatedAt = base.Add(time.Duration(i) * time.Second)
		b.Label = fmt.Sprintf("batch-%d", i)
		if err := s.CreateBatch(ctx, b); err != nil {
			t.Fatalf("CreateBatch: %v", err)
		}
	}

	page, total, err := s.ListBatches(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	// Newest first.
	if page[0].Label != "batch-4" || page[1].Label != "batch-3" {
		t.Errorf("page labels = %v, %v; want batch-4, batch-3", page[0].Label, page[1].Label)
	}

	last, _, err := s.ListBatches(ctx, 2, 4)
	if err != nil {
		t.Fatalf("ListBatches offset: %v", err)
	}
	if len(last) != 1 || last[0].Label != "batch-0" {
		t.Errorf("last page = %+v, want only batch-0", last)
	}
}

func TestListBatchesEmpty(t *testing.T) {
	s := newTestStore(t)

	batches, total, err := s.ListBatches(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if total != 0 || len(batches) != 0 {
		t.Errorf("got %d batches (total %d), want none", len(batches), total)
	}
}

func TestGetBatchStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b := makeTestBatch()
		if err := s.CreateBatch(ctx, b); err != nil {
			t.Fatalf("CreateBatch: %v", err)
		}
		if i < 2 {
			settle(b, model.StatusFulfilled, 100+i*100) // 100, 200
			b.Succeeded = 2
			if err := s.FinishBatch(ctx, b); err != nil {
				t.Fatalf("FinishBatch: %v", err)
			}
		}
	}

	stats, err := s.GetBatchStats(ctx)
	if err != nil {
		t.Fatalf("GetBatchStats: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.CountByStatus[model.StatusFulfilled] != 2 {
		t.Errorf("fulfilled count = %d, want 2", stats.CountByStatus[model.StatusFulfilled])
	}
	if stats.CountByStatus[model.StatusPending] != 1 {
		t.Errorf("pending count = %d, want 1", stats.CountByStatus[model.StatusPending])
	}
	if stats.AssetsLoaded != 4 {
		t.Errorf("AssetsLoaded = %d, want 4", stats.AssetsLoaded)
	}
	if stats.AssetsFailed != 3 {
		t.Errorf("AssetsFailed = %d, want 3", stats.AssetsFailed)
	}
	if stats.AvgDurationMS != 150 {
		t.Errorf("AvgDurationMS = %f, want 150", stats.AvgDurationMS)
	}
}

func TestGetBatchStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.GetBatchStats(context.Background())
	if err != nil {
		t.Fatalf("GetBatchStats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}
	if stats.AvgDurationMS != 0 {
		t.Errorf("AvgDurationMS = %f, want 0", stats.AvgDurationMS)
	}
}

func TestInsertAndGetAssetEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := makeTestBatch()
	if err := s.CreateBatch(ctx, b); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	now := time.Now().UTC()
	events := []model.AssetEvent{
		{BatchID: b.ID, Seq: 2, ID: "c", Source: "c.mp3", Outcome: model.OutcomeFailed, Reason: model.ReasonEngineLoadFailure, CreatedAt: now},
		{BatchID: b.ID, Seq: 0, ID: "", Source: "x.txt", Outcome: model.OutcomeInvalid, Reason: model.ReasonInvalidSource, CreatedAt: now},
		{BatchID: b.ID, Seq: 1, ID: "a", Source: "a.mp3", Outcome: model.OutcomeLoaded, CreatedAt: now},
	}
	for _, ev := range events {
		if err := s.InsertAssetEvent(ctx, ev); err != nil {
			t.Fatalf("InsertAssetEvent: %v", err)
		}
	}

	got, err := s.GetAssetEvents(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetAssetEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Seq != i {
			t.Errorf("event[%d].Seq = %d, want %d", i, ev.Seq, i)
		}
	}
	if got[2].Reason != model.ReasonEngineLoadFailure {
		t.Errorf("event[2].Reason = %q, want %q", got[2].Reason, model.ReasonEngineLoadFailure)
	}
	if got[1].Reason != "" {
		t.Errorf("event[1].Reason = %q, want empty", got[1].Reason)
	}
}

func TestGetAssetEventsIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b1, b2 := makeTestBatch(), makeTestBatch()
	for _, b := range []*model.Batch{b1, b2} {
		if err := s.CreateBatch(ctx, b); err != nil {
			t.Fatalf("CreateBatch: %v", err)
		}
	}
	if err := s.InsertAssetEvent(ctx, model.AssetEvent{BatchID: b1.ID, ID: "a", Source: "a.mp3", Outcome: model.OutcomeLoaded, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("InsertAssetEvent: %v", err)
	}

	got, err := s.GetAssetEvents(ctx, b2.ID)
	if err != nil {
		t.Fatalf("GetAssetEvents: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("batch 2 got %d events, want 0", len(got))
	}
}

func TestMigrationIdempotency(t *testing.T) {
	s := newTestStore(t)

	for _, stmt := range []string{createBatchesTable, createAssetEventsTable, createAssetEventsIndex} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("second migration: %v", err)
		}
	}
}
