package loader

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/seantiz/soundbatch/internal/model"
)

// assemble builds the settled outcome of a finalizing group.
func assemble(g *group) (*model.BatchResult, error) {
	if len(g.successes) == 0 {
		return nil, &RejectedError{
			BatchID: g.id,
			Errors:  append([]model.ErrorEntry{}, g.failures...),
		}
	}

	successes := slices.Clone(g.successes)
	slices.SortStableFunc(successes, func(a, b model.ResultEntry) int {
		return cmp.Compare(a.Order, b.Order)
	})

	res := &model.BatchResult{
		Label:     g.label,
		Successes: successes,
	}
	if len(g.failures) > 0 {
		res.Errors = slices.Clone(g.failures)
	}
	return res, nil
}

// finalize settles a group that has left the loader's table. The caller
// must be the only goroutine holding g.
func (l *Loader) finalize(g *group) {
	res, err := assemble(g)

	status := model.StatusFulfilled
	if err != nil {
		status = model.StatusRejected
	}
	if terr := g.transition(status); terr != nil {
		l.logger.Error("finalize batch", "batch_id", g.id, "error", terr)
		return
	}
	if !g.batch.settle(res, err) {
		l.logger.Error("batch settled twice", "batch_id", g.id)
		return
	}
	l.broker.Close(g.id)

	elapsed := time.Since(g.createdAt)
	batchesTotal.WithLabelValues(status).Inc()
	batchDuration.Observe(elapsed.Seconds())

	l.logger.Info("batch settled",
		"batch_id", g.id,
		"status", status,
		"loaded", g.loaded,
		"errors", len(g.failures),
		"duration_ms", elapsed.Milliseconds(),
	)

	if l.store == nil {
		return
	}
	rec := g.record()
	durationMS := int(elapsed.Milliseconds())
	now := time.Now().UTC()
	rec.DurationMS = &durationMS
	rec.FinishedAt = &now
	rec.Result = res
	if err != nil {
		rec.Result = &model.BatchResult{Errors: g.failures}
	}
	if serr := l.store.FinishBatch(context.Background(), rec); serr != nil {
		l.logger.Error("failed to persist settled batch", "batch_id", g.id, "error", serr)
	}
}
