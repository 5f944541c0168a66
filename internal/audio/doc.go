// Package audio defines the contract of the external audio engine the batch
// loader sits on: asset registration plus global, batch-unaware success and
// failure events. It also holds the registry of decodable formats shared by
// engine implementations.
package audio
