package audio

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/gopxl/beep"
)

// DecodeFunc opens an encoded stream. The returned streamer owns rc.
type DecodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Format is one decodable container/codec and the file extensions it claims.
type Format struct {
	Name       string
	Extensions []string
	Decode     DecodeFunc
}

// FormatInfo describes a registered format for listing.
type FormatInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// Registry holds registered formats and resolves which one decodes a given
// path based on its extension.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
	byExt   map[string]string
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Format),
		byExt:   make(map[string]string),
	}
}

// Register adds a format, replacing any earlier claim on its extensions.
func (r *Registry) Register(f Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[f.Name] = f
	for _, ext := range f.Extensions {
		r.byExt[strings.ToLower(ext)] = f.Name
	}
}

// Resolve returns the format that decodes p. Returns an error if the
// extension is missing or no format claims it.
func (r *Registry) Resolve(p string) (Format, error) {
	ext := Extension(p)
	if ext == "" {
		return Format{}, fmt.Errorf("path %q has no extension", p)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byExt[ext]
	if !ok {
		return Format{}, fmt.Errorf("no decoder registered for %q files", ext)
	}
	return r.formats[name], nil
}

// Supports reports whether some registered format decodes p.
func (r *Registry) Supports(p string) bool {
	_, err := r.Resolve(p)
	return err == nil
}

// List returns all registered formats sorted by name for a stable API response.
func (r *Registry) List() []FormatInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]FormatInfo, 0, len(r.formats))
	for name, f := range r.formats {
		exts := append([]string(nil), f.Extensions...)
		sort.Strings(exts)
		infos = append(infos, FormatInfo{Name: name, Extensions: exts})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Extension returns the lower-cased extension of p without the dot.
func Extension(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}
