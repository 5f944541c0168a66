package loader

import (
	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
)

func (l *Loader) handleSuccess(ev audio.Event) {
	l.route("", ev, true)
}

func (l *Loader) handleFailure(ev audio.Event) {
	l.route("", ev, false)
}

// route attributes one terminal event to the group that registered it,
// restricted to groupID when non-empty. Bookkeeping and publishing happen
// under the lock; persistence and settlement happen after it is released.
// The event that settles the group waits for every earlier event's history
// insert, so the store never holds a finished batch with missing events.
func (l *Loader) route(groupID string, ev audio.Event, success bool) {
	l.mu.Lock()

	entry, ok := l.cache.take(ev.ID, ev.Source, groupID)
	if !ok {
		l.mu.Unlock()
		stream := streamFailure
		if success {
			stream = streamSuccess
		}
		unattributedEvents.WithLabelValues(stream).Inc()
		l.logger.Warn("unattributed engine event",
			"asset_id", ev.ID,
			"source", ev.Source,
			"stream", stream,
		)
		return
	}

	g, ok := l.groups[entry.groupID]
	if !ok {
		// Entries leave the cache with their group, so this is a bookkeeping bug.
		l.mu.Unlock()
		l.logger.Error("cache entry without group", "batch_id", entry.groupID, "asset_id", ev.ID)
		return
	}

	var rec model.AssetEvent
	if success {
		rec = g.addSuccess(entry, ev)
	} else {
		rec = g.addFailure(entry, ev)
	}
	l.broker.Publish(g.id, rec)
	g.persisting.Add(1)

	done := g.complete()
	if done {
		delete(l.groups, g.id)
		l.cache.dropGroup(g.id)
	}
	l.mu.Unlock()

	assetsTotal.WithLabelValues(rec.Outcome).Inc()
	if !success {
		l.logger.Warn("asset failed to load",
			"batch_id", g.id,
			"asset_id", rec.ID,
			"source", rec.Source,
			"error", ev.Err,
		)
	}
	l.persistEvent(rec)
	g.persisting.Done()

	if done {
		g.persisting.Wait()
		pendingBatches.Dec()
		l.finalize(g)
	}
}
