package loader

import (
	"fmt"
	"sync"
	"time"

	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
)

// group tracks one batch while its assets are in flight. All fields are
// guarded by the owning Loader's mutex until the group leaves the table.
type group struct {
	id        string
	label     any
	basePath  string
	status    string
	requested int
	pending   int
	loaded    int
	seq       int
	createdAt time.Time

	successes []model.ResultEntry
	failures  []model.ErrorEntry

	batch *Batch

	// persisting counts asset events taken under the lock whose history
	// insert has not finished yet. Not guarded by the mutex.
	persisting sync.WaitGroup
}

func newGroup(id string, cfg loadConfig, requested, pending int, invalid []model.ErrorEntry, now time.Time) *group {
	return &group{
		id:        id,
		label:     cfg.label,
		basePath:  cfg.basePath,
		status:    model.StatusPending,
		requested: requested,
		pending:   pending,
		createdAt: now,
		failures:  append([]model.ErrorEntry(nil), invalid...),
		batch:     newBatch(id),
	}
}

func (g *group) transition(to string) error {
	if !model.ValidTransition(g.status, to) {
		return fmt.Errorf("batch %s: %s -> %s not allowed", g.id, g.status, to)
	}
	g.status = to
	return nil
}

// addSuccess appends the loaded asset and one entry per sprite region. The
// event's payload wins over the registered one when present.
func (g *group) addSuccess(e *cacheEntry, ev audio.Event) model.AssetEvent {
	src := ev.Source
	if src == "" {
		src = e.source()
	}
	data := e.req.Data
	if ev.Data != nil {
		data = *ev.Data
	}

	g.loaded++
	g.successes = append(g.successes, model.ResultEntry{
		ID:     e.req.ID,
		Source: src,
		Data:   &data,
		Order:  e.req.Order,
	})
	for _, region := range data.AudioSprite {
		g.successes = append(g.successes, model.ResultEntry{
			ID:     region.ID,
			Source: src,
			Order:  e.req.Order,
			Sprite: &region,
		})
	}

	return g.nextEvent(e.req.ID, src, model.OutcomeLoaded, "")
}

func (g *group) addFailure(e *cacheEntry, ev audio.Event) model.AssetEvent {
	src := ev.Source
	if src == "" {
		src = e.source()
	}
	g.failures = append(g.failures, model.ErrorEntry{
		ID:     e.req.ID,
		Source: src,
		Reason: model.ReasonEngineLoadFailure,
	})
	return g.nextEvent(e.req.ID, src, model.OutcomeFailed, model.ReasonEngineLoadFailure)
}

func (g *group) nextEvent(id, src, outcome string, reason model.ErrorReason) model.AssetEvent {
	ev := model.AssetEvent{
		BatchID:   g.id,
		Seq:       g.seq,
		ID:        id,
		Source:    src,
		Outcome:   outcome,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	g.seq++
	return ev
}

// complete records one terminal event. It reports true exactly once: when
// the pending count reaches zero and the group moves to finalizing.
func (g *group) complete() bool {
	if g.pending <= 0 {
		return false
	}
	g.pending--
	if g.pending > 0 {
		return false
	}
	return g.transition(model.StatusFinalizing) == nil
}

// record snapshots the group as a store record.
func (g *group) record() *model.Batch {
	return &model.Batch{
		ID:        g.id,
		Status:    g.status,
		Label:     g.label,
		BasePath:  g.basePath,
		Requested: g.requested,
		Pending:   g.pending,
		Succeeded: g.loaded,
		Failed:    len(g.failures),
		CreatedAt: g.createdAt,
	}
}
