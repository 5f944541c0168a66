// Package local implements an audio.Engine that decodes files from a local
// asset directory with beep.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
)

// ErrEmptyStream is reported for files that decode to zero samples.
var ErrEmptyStream = errors.New("decoded stream is empty")

// Compile-time interface satisfaction check.
var _ audio.Engine = (*Engine)(nil)

// Engine loads assets by opening and probing them with the matching decoder.
// Every registered request produces exactly one event, fired from a worker
// goroutine once the file has been decoded or has failed to.
type Engine struct {
	cfg     Config
	formats *audio.Registry
	logger  *slog.Logger
	sem     chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	onSuccess []audio.Handler
	onFailure []audio.Handler
}

// NewEngine creates a local engine reading from cfg.AssetRoot.
func NewEngine(cfg Config, formats *audio.Registry, logger *slog.Logger) *Engine {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = DefaultMaxConcurrentLoads
	}
	return &Engine{
		cfg:     cfg,
		formats: formats,
		logger:  logger,
		sem:     make(chan struct{}, cfg.MaxConcurrentLoads),
	}
}

// OnLoadSuccess subscribes h to the success stream.
func (e *Engine) OnLoadSuccess(h audio.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSuccess = append(e.onSuccess, h)
}

// OnLoadFailure subscribes h to the failure stream.
func (e *Engine) OnLoadFailure(h audio.Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFailure = append(e.onFailure, h)
}

// RegisterAssets starts one load per request and returns immediately. Loads
// outlive ctx's cancellation so that every request still gets its event.
func (e *Engine) RegisterAssets(ctx context.Context, manifest []model.LoadRequest, basePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, req := range manifest {
		src, err := e.pick(req.Source, basePath)
		e.wg.Go(func() {
			e.load(req, src, err)
		})
	}
	return nil
}

// Wait blocks until every started load has fired its event.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// pick returns the resolved source to load. Alternate variants are tried in
// preference order, then in name order; the first one with a registered
// decoder wins.
func (e *Engine) pick(src model.Source, basePath string) (string, error) {
	if !src.IsVariant() {
		return audio.ResolveSource(basePath, src.Path), nil
	}

	names := src.VariantNames()
	if len(names) == 0 {
		return "", errors.New("source has no variants")
	}
	for _, pref := range e.cfg.PreferredFormats {
		for _, name := range names {
			p := src.Variants[name]
			if (strings.EqualFold(name, pref) || audio.Extension(p) == pref) && e.formats.Supports(p) {
				return audio.ResolveSource(basePath, p), nil
			}
		}
	}
	for _, name := range names {
		if p := src.Variants[name]; e.formats.Supports(p) {
			return audio.ResolveSource(basePath, p), nil
		}
	}

	first := audio.ResolveSource(basePath, src.Variants[names[0]])
	return first, fmt.Errorf("no playable variant among %v", names)
}

func (e *Engine) load(req model.LoadRequest, src string, pickErr error) {
	if pickErr != nil {
		e.fail(req, src, pickErr)
		return
	}

	e.sem <- struct{}{}
	activeLoads.Inc()
	err := e.probe(src)
	activeLoads.Dec()
	<-e.sem

	if err != nil {
		e.fail(req, src, err)
		return
	}

	loadsTotal.WithLabelValues(statusLoaded).Inc()
	e.logger.Debug("asset decoded", "asset_id", req.ID, "source", src)

	data := req.Data
	e.emit(true, audio.Event{ID: req.ID, Source: src, Data: &data})
}

// probe opens src under the asset root and decodes its header. The stream
// must hold at least one sample.
func (e *Engine) probe(src string) error {
	f, err := e.formats.Resolve(src)
	if err != nil {
		return err
	}

	start := time.Now()
	file, err := os.Open(e.filePath(src))
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}

	stream, _, err := f.Decode(file)
	decodeDuration.WithLabelValues(f.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		file.Close()
		return fmt.Errorf("decode %s: %w", f.Name, err)
	}
	defer stream.Close()

	if stream.Len() <= 0 {
		return ErrEmptyStream
	}
	return nil
}

// filePath maps a resolved source onto the asset root. Sources cannot
// escape the root.
func (e *Engine) filePath(src string) string {
	return filepath.Join(e.cfg.AssetRoot, filepath.FromSlash(path.Clean("/"+src)))
}

func (e *Engine) fail(req model.LoadRequest, src string, err error) {
	loadsTotal.WithLabelValues(statusFailed).Inc()
	e.logger.Debug("asset failed", "asset_id", req.ID, "source", src, "error", err)
	e.emit(false, audio.Event{ID: req.ID, Source: src, Err: err})
}

// emit calls the subscribed handlers without holding the lock so handlers may
// call back into the engine.
func (e *Engine) emit(success bool, ev audio.Event) {
	e.mu.Lock()
	handlers := e.onFailure
	if success {
		handlers = e.onSuccess
	}
	handlers = append([]audio.Handler(nil), handlers...)
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
