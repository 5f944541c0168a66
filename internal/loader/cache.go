package loader

import (
	"slices"

	"github.com/seantiz/soundbatch/internal/audio"
	"github.com/seantiz/soundbatch/internal/model"
)

// cacheEntry routes engine events for one registered request back to the
// group that registered it.
type cacheEntry struct {
	req     model.LoadRequest
	groupID string

	// resolved holds each path joined with the batch's base path; bare holds
	// the unprefixed paths for engines that report them as given.
	resolved []string
	bare     []string
}

// matches reports whether an event reporting src belongs to this entry,
// looking at the resolved candidates only or, with bare set, at the
// unprefixed ones. An event without a source matches on id alone.
func (e *cacheEntry) matches(src string, bare bool) bool {
	if src == "" {
		return true
	}
	if bare {
		return slices.Contains(e.bare, src)
	}
	return slices.Contains(e.resolved, src)
}

// source is the best source to report when the event did not carry one.
func (e *cacheEntry) source() string {
	if len(e.resolved) > 0 {
		return e.resolved[0]
	}
	return e.req.Source.String()
}

func newCacheEntry(req model.LoadRequest, basePath, groupID string) *cacheEntry {
	resolved, bare := candidatesFor(req.Source, basePath)
	return &cacheEntry{
		req:      req,
		groupID:  groupID,
		resolved: resolved,
		bare:     bare,
	}
}

// candidatesFor lists the source strings an engine may report for s: each
// path resolved against basePath, and separately the bare paths when a base
// path changes them.
func candidatesFor(s model.Source, basePath string) (resolved, bare []string) {
	var paths []string
	if s.IsVariant() {
		for _, name := range s.VariantNames() {
			paths = append(paths, s.Variants[name])
		}
	} else {
		paths = []string{s.Path}
	}

	resolved = make([]string, 0, len(paths))
	for _, p := range paths {
		resolved = append(resolved, audio.ResolveSource(basePath, p))
	}
	if basePath != "" {
		bare = paths
	}
	return resolved, bare
}

// cacheRegistry holds the outstanding requests of every in-flight group.
// Entries sharing an id are kept in registration order so overlapping
// batches with identical requests are served oldest first. Not safe for
// concurrent use; the Loader serializes access.
type cacheRegistry struct {
	byID map[string][]*cacheEntry
	size int
}

func newCacheRegistry() *cacheRegistry {
	return &cacheRegistry{byID: make(map[string][]*cacheEntry)}
}

func (c *cacheRegistry) add(e *cacheEntry) {
	c.byID[e.req.ID] = append(c.byID[e.req.ID], e)
	c.size++
}

// take removes and returns the oldest entry for id matching src. A resolved
// match anywhere wins over a bare-path match, so a batch with a base path
// never absorbs the event of a batch registered without one. A non-empty
// groupID restricts the search to that group.
func (c *cacheRegistry) take(id, src, groupID string) (*cacheEntry, bool) {
	for _, bare := range []bool{false, true} {
		for i, e := range c.byID[id] {
			if groupID != "" && e.groupID != groupID {
				continue
			}
			if !e.matches(src, bare) {
				continue
			}
			c.removeAt(id, i)
			return e, true
		}
	}
	return nil, false
}

// dropGroup removes every remaining entry of groupID and returns how many
// were dropped.
func (c *cacheRegistry) dropGroup(groupID string) int {
	dropped := 0
	for id, entries := range c.byID {
		kept := entries[:0]
		for _, e := range entries {
			if e.groupID == groupID {
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.byID, id)
		} else {
			c.byID[id] = kept
		}
	}
	c.size -= dropped
	return dropped
}

func (c *cacheRegistry) len() int {
	return c.size
}

func (c *cacheRegistry) removeAt(id string, i int) {
	entries := slices.Delete(c.byID[id], i, i+1)
	if len(entries) == 0 {
		delete(c.byID, id)
	} else {
		c.byID[id] = entries
	}
	c.size--
}
