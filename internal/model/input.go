package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultChannels is the channel count attached to a request whose caller
// supplied no data payload.
const DefaultChannels = 100

// Source is either a single path or a set of alternate paths for the same
// logical asset, keyed by variant name (e.g. "ogg", "mp3").
type Source struct {
	Path     string
	Variants map[string]string
}

// IsVariant reports whether s carries alternate paths rather than one path.
func (s Source) IsVariant() bool {
	return s.Variants != nil
}

// VariantNames returns the variant keys in sorted order.
func (s Source) VariantNames() []string {
	names := make([]string, 0, len(s.Variants))
	for k := range s.Variants {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// String renders the source for logs and error entries.
func (s Source) String() string {
	if !s.IsVariant() {
		return s.Path
	}
	paths := make([]string, 0, len(s.Variants))
	for _, name := range s.VariantNames() {
		paths = append(paths, s.Variants[name])
	}
	return strings.Join(paths, ",")
}

// MarshalJSON encodes a plain source as a string and a variant source as an object.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.IsVariant() {
		return json.Marshal(s.Variants)
	}
	return json.Marshal(s.Path)
}

// UnmarshalJSON accepts a string path or an object of variant paths.
func (s *Source) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) > 0 && b[0] == '"':
		s.Variants = nil
		return json.Unmarshal(b, &s.Path)
	case len(b) > 0 && b[0] == '{':
		s.Path = ""
		s.Variants = make(map[string]string)
		return json.Unmarshal(b, &s.Variants)
	default:
		return fmt.Errorf("source must be a string or an object, got %s", b)
	}
}

// SpriteRegion is one named, time-delimited region of an audio sprite.
// Times are milliseconds.
type SpriteRegion struct {
	ID        string `json:"id"`
	StartTime int    `json:"startTime"`
	Duration  int    `json:"duration"`
}

// AuxData is the payload passed through to the engine with each request: a
// channel count, a sprite table, or both.
type AuxData struct {
	Channels    int            `json:"channels,omitempty"`
	AudioSprite []SpriteRegion `json:"audioSprite,omitempty"`
}

type auxDataObject AuxData

// UnmarshalJSON accepts either a bare number (channel count) or an object.
func (d *AuxData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty data payload")
	}
	if b[0] == '{' {
		var obj auxDataObject
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*d = AuxData(obj)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("data must be a number or an object: %w", err)
	}
	*d = AuxData{Channels: int(n)}
	return nil
}

// Descriptor is one caller-side asset description.
type Descriptor struct {
	ID     string   `json:"id,omitempty"`
	Source Source   `json:"src"`
	Data   *AuxData `json:"data,omitempty"`
}

type descriptorObject Descriptor

// UnmarshalJSON accepts a descriptor object or a bare source path, so a list
// may mix both forms.
func (d *Descriptor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*d = Descriptor{}
		return json.Unmarshal(b, &d.Source.Path)
	}
	var obj descriptorObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*d = Descriptor(obj)
	return nil
}

// Descriptors returns d as a one-element list.
func (d Descriptor) Descriptors() []Descriptor {
	return []Descriptor{d}
}

// Descriptors is a list of asset descriptions loaded as one batch.
type Descriptors []Descriptor

// Descriptors returns the list unchanged.
func (ds Descriptors) Descriptors() []Descriptor {
	return ds
}

// Path is a single source path, the shortest form of a load call.
type Path string

// Descriptors returns a single descriptor for p with no id or data.
func (p Path) Descriptors() []Descriptor {
	return []Descriptor{{Source: Source{Path: string(p)}}}
}
