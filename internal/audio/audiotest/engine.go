// Package audiotest provides a scripted audio.Engine for tests and for the
// test server. Events are fired explicitly by the caller, or automatically
// after a delay when auto-reply is enabled.
package audiotest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
)

// ErrScriptedFailure is the cause attached to failures fired by auto-reply.
var ErrScriptedFailure = errors.New("scripted load failure")

// Registration is one recorded RegisterAssets call.
type Registration struct {
	Manifest []model.LoadRequest
	BasePath string
}

// Engine is a scripted audio.Engine. It is safe for concurrent use.
type Engine struct {
	mu            sync.Mutex
	registrations []Registration
	onSuccess     []audio.Handler
	onFailure     []audio.Handler

	registerErr error
	auto        bool
	delay       time.Duration
	failIf      func(model.LoadRequest) bool
	wg          sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoReply makes the engine answer every registered request after delay.
// Requests for which failIf returns true fail; the rest succeed. A nil failIf
// succeeds everything.
func WithAutoReply(delay time.Duration, failIf func(model.LoadRequest) bool) Option {
	return func(e *Engine) {
		e.auto = true
		e.delay = delay
		e.failIf = failIf
	}
}

// WithRegisterError makes every RegisterAssets call return err without
// recording the manifest.
func WithRegisterError(err error) Option {
	return func(e *Engine) {
		e.registerErr = err
	}
}

// New creates a scripted engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile-time interface satisfaction check.
var _ audio.Engine = (*Engine)(nil)

// RegisterAssets records the manifest and, in auto-reply mode, schedules one
// event per request.
func (e *Engine) RegisterAssets(_ context.Context, manifest []model.LoadRequest, basePath string) error {
	if e.registerErr != nil {
		return e.registerErr
	}

	e.mu.Lock()
	e.registrations = append(e.registrations, Registration{
		Manifest: append([]model.LoadRequest(nil), manifest...),
		BasePath: basePath,
	})
	e.mu.Unlock()

	if !e.auto {
		return nil
	}
	for _, req := range manifest {
		e.wg.Go(func() {
			if e.delay > 0 {
				time.Sleep(e.delay)
			}
			src := ResolvedSource(req, basePath)
			data := req.Data
			if e.failIf != nil && e.failIf(req) {
				e.Fail(req.ID, src, ErrScriptedFailure)
				return
			}
			e.Succeed(req.ID, src, &data)
		})
	}
	return nil
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

// Succeed fires a success event to every success subscriber.
func (e *Engine) Succeed(id, src string, data *model.AuxData) {
	e.fire(e.successHandlers(), audio.Event{ID: id, Source: src, Data: data})
}

// Fail fires a failure event to every failure subscriber.
func (e *Engine) Fail(id, src string, err error) {
	e.fire(e.failureHandlers(), audio.Event{ID: id, Source: src, Err: err})
}

// Registrations returns a copy of every recorded RegisterAssets call.
func (e *Engine) Registrations() []Registration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Registration(nil), e.registrations...)
}

// Subscribers returns the number of success and failure subscribers.
func (e *Engine) Subscribers() (success, failure int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.onSuccess), len(e.onFailure)
}

// Wait blocks until all auto-reply goroutines have fired.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) successHandlers() []audio.Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audio.Handler(nil), e.onSuccess...)
}

func (e *Engine) failureHandlers() []audio.Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audio.Handler(nil), e.onFailure...)
}

// fire runs handlers without holding the lock so they may register assets.
func (e *Engine) fire(handlers []audio.Handler, ev audio.Event) {
	for _, h := range handlers {
		h(ev)
	}
}

// ResolvedSource is the source the scripted engine reports for req: the
// plain path, or the first variant in name order, prefixed with basePath.
func ResolvedSource(req model.LoadRequest, basePath string) string {
	if !req.Source.IsVariant() {
		return audio.ResolveSource(basePath, req.Source.Path)
	}
	names := req.Source.VariantNames()
	if len(names) == 0 {
		return ""
	}
	return audio.ResolveSource(basePath, req.Source.Variants[names[0]])
}
