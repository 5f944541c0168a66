// Package loader aggregates asynchronous audio asset loads into batches.
// A Loader normalizes one call describing many assets, registers them with
// an audio.Engine, routes the engine's batch-unaware terminal events back to
// the batch that registered each asset, expands audio sprites, and settles
// every batch exactly once.
package loader
