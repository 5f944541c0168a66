package audio

import (
	"context"

	"github.com/seantiz/soundbatch/internal/model"
)

// Engine is the interface an audio engine must implement to be driven by the
// batch loader. Engines know nothing about batches: every registered asset
// produces exactly one terminal event on the global success or failure stream.
type Engine interface {
	// RegisterAssets starts asynchronous loads for every request in the
	// manifest. Paths are resolved against basePath by plain prefixing.
	// Events may fire before RegisterAssets returns.
	RegisterAssets(ctx context.Context, manifest []model.LoadRequest, basePath string) error

	// OnLoadSuccess subscribes h to the success stream.
	OnLoadSuccess(h Handler)

	// OnLoadFailure subscribes h to the failure stream.
	OnLoadFailure(h Handler)
}

// Handler receives terminal events. Handlers may be called from any goroutine.
type Handler func(Event)

// Event is one terminal notification for one registered asset.
type Event struct {
	// ID is the request id the asset was registered under.
	ID string `json:"id"`

	// Source is the resolved source the engine loaded (base path included).
	Source string `json:"src"`

	// Data echoes the payload registered with the request.
	Data *model.AuxData `json:"data,omitempty"`

	// Err carries the failure cause on the failure stream.
	Err error `json:"-"`
}

// ResolveSource returns the path an engine loads for a plain source under
// basePath.
func ResolveSource(basePath, path string) string {
	return basePath + path
}
