package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
	"github.com/seantiz/soundbatch/internal/store"
)

// Loader aggregates engine loads into batches. Each Loader owns its cache
// registry and group table; two loaders on the same engine never see each
// other's batches settle, but both receive every event.
type Loader struct {
	engine          audio.Engine
	logger          *slog.Logger
	store           store.Store
	broker          *Broker
	defaultChannels int

	mu     sync.Mutex
	cache  *cacheRegistry
	groups map[string]*group
}

// Option configures a Loader.
type Option func(*Loader)

// WithStore records batches and asset events in s.
func WithStore(s store.Store) Option {
	return func(l *Loader) {
		l.store = s
	}
}

// WithDefaultChannels sets the channel count attached to requests without a
// data payload.
func WithDefaultChannels(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.defaultChannels = n
		}
	}
}

// New creates a Loader and subscribes it to eng's success and failure
// streams. Subscription happens here and nowhere else.
func New(eng audio.Engine, logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		engine:          eng,
		logger:          logger,
		broker:          NewBroker(),
		defaultChannels: model.DefaultChannels,
		cache:           newCacheRegistry(),
		groups:          make(map[string]*group),
	}
	for _, opt := range opts {
		opt(l)
	}

	eng.OnLoadSuccess(l.handleSuccess)
	eng.OnLoadFailure(l.handleFailure)
	return l
}

// Broker returns the loader's progress broker for live subscriptions.
func (l *Loader) Broker() *Broker {
	return l.broker
}

type loadConfig struct {
	basePath string
	id       string
	data     *model.AuxData
	label    any
}

// LoadOption configures a single Load call.
type LoadOption func(*loadConfig)

// WithBasePath prefixes every source path when it is handed to the engine.
func WithBasePath(p string) LoadOption {
	return func(c *loadConfig) {
		c.basePath = p
	}
}

// WithID sets the id of a model.Path input. Ignored for descriptors.
func WithID(id string) LoadOption {
	return func(c *loadConfig) {
		c.id = id
	}
}

// WithData sets the payload of a model.Path input. Ignored for descriptors.
func WithData(d model.AuxData) LoadOption {
	return func(c *loadConfig) {
		c.data = &d
	}
}

// WithLabel attaches an opaque value returned unchanged in the result.
func WithLabel(label any) LoadOption {
	return func(c *loadConfig) {
		c.label = label
	}
}

// Load normalizes in, registers the valid requests with the engine and
// returns the batch handle. Invalid requests are reported in the batch's
// errors and never reach the engine. A batch with no valid request is
// rejected before Load returns.
func (l *Loader) Load(ctx context.Context, in Input, opts ...LoadOption) *Batch {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	descs := descriptorsFor(in, cfg)
	manifest, invalid := normalize(descs, l.defaultChannels)

	g := newGroup(model.NewID(), cfg, len(descs), len(manifest), invalid, time.Now().UTC())
	l.createRecord(ctx, g)
	l.recordInvalid(g, invalid)

	if len(manifest) == 0 {
		// Nothing will ever arrive from the engine; settle now.
		if err := g.transition(model.StatusFinalizing); err != nil {
			l.logger.Error("finalize empty batch", "batch_id", g.id, "error", err)
		}
		l.finalize(g)
		return g.batch
	}

	l.mu.Lock()
	l.groups[g.id] = g
	for _, req := range manifest {
		l.cache.add(newCacheEntry(req, cfg.basePath, g.id))
	}
	l.mu.Unlock()
	pendingBatches.Inc()

	l.logger.Debug("batch registered",
		"batch_id", g.id,
		"requested", len(descs),
		"valid", len(manifest),
		"invalid", len(invalid),
	)

	if err := l.engine.RegisterAssets(ctx, manifest, cfg.basePath); err != nil {
		l.logger.Error("register assets", "batch_id", g.id, "error", err)
		for _, req := range manifest {
			l.route(g.id, audio.Event{ID: req.ID, Err: err}, false)
		}
	}

	return g.batch
}

// Pending returns the number of batches waiting on engine events.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.groups)
}

// Outstanding returns the number of registered requests awaiting an event.
func (l *Loader) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.len()
}

func (l *Loader) createRecord(ctx context.Context, g *group) {
	if l.store == nil {
		return
	}
	if err := l.store.CreateBatch(ctx, g.record()); err != nil {
		l.logger.Error("failed to persist batch", "batch_id", g.id, "error", err)
	}
}

// recordInvalid stores the locally detected errors as asset events. They are
// not published: no subscriber can exist before Load returns.
func (l *Loader) recordInvalid(g *group, invalid []model.ErrorEntry) {
	for _, e := range invalid {
		ev := g.nextEvent(e.ID, e.Source, model.OutcomeInvalid, e.Reason)
		assetsTotal.WithLabelValues(model.OutcomeInvalid).Inc()
		l.persistEvent(ev)
	}
}

func (l *Loader) persistEvent(ev model.AssetEvent) {
	if l.store == nil {
		return
	}
	if err := l.store.InsertAssetEvent(context.Background(), ev); err != nil {
		l.logger.Error("failed to persist asset event",
			"batch_id", ev.BatchID,
			"seq", ev.Seq,
			"error", err,
		)
	}
}
