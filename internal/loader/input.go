package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/seantiz/soundbatch/internal/model"
)

// ErrUnsupportedInput is returned by DecodeInput for JSON that is not a
// string, an object or an array.
var ErrUnsupportedInput = errors.New("unsupported input shape")

// Input is any accepted request shape: model.Path, model.Descriptor or
// model.Descriptors.
type Input interface {
	Descriptors() []model.Descriptor
}

// DecodeInput maps raw JSON onto an Input: a string becomes a model.Path, an
// object a model.Descriptor and an array model.Descriptors.
func DecodeInput(raw json.RawMessage) (Input, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedInput)
	}

	switch raw[0] {
	case '"':
		var p string
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode path: %w", err)
		}
		return model.Path(p), nil
	case '{':
		var d model.Descriptor
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode descriptor: %w", err)
		}
		return d, nil
	case '[':
		var ds model.Descriptors
		if err := json.Unmarshal(raw, &ds); err != nil {
			return nil, fmt.Errorf("decode descriptors: %w", err)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, raw)
	}
}

// descriptorsFor expands in, applying the single-path id and data options.
func descriptorsFor(in Input, cfg loadConfig) []model.Descriptor {
	if in == nil {
		return nil
	}
	descs := in.Descriptors()
	if _, ok := in.(model.Path); ok && len(descs) == 1 {
		descs[0].ID = cfg.id
		descs[0].Data = cfg.data
	}
	return descs
}
