// Package stubcache memoizes stub bundles per outermost declaration so that
// every class view anchored anywhere inside one top-level declaration shares
// a single build of its class-structure skeleton.
package stubcache

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/stub"
	"facet/internal/shared/observability"
)

// Stamps reports the current parse stamp of a source file. The project
// implements it; stamps advance every time a file is re-parsed.
type Stamps interface {
	Stamp(path string) int64
}

// BundleBuilder produces a stub bundle for an outermost declaration.
type BundleBuilder interface {
	Build(outermost *lang.Declaration) (*stub.Bundle, error)
}

// Cache serves stub bundles keyed by file path and outermost qualified name.
// Concurrent requests for the same key share one build, and a cached bundle
// is used only while its stamp matches the file's current stamp, so callers
// observe either a complete old bundle or a complete new one, never a
// partial state.
type Cache struct {
	builder BundleBuilder
	stamps  Stamps
	entries *LRUCache[string, *stub.Bundle]
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports how many bundle requests were served from cache and how
// many required a build since the cache was created.
type Stats struct {
	Hits   int64
	Misses int64
}

// New creates a cache bounded to capacity entries.
func New(builder BundleBuilder, stamps Stamps, capacity int) *Cache {
	return &Cache{
		builder: builder,
		stamps:  stamps,
		entries: NewLRUCache[string, *stub.Bundle](capacity),
	}
}

// Bundle returns the bundle for an outermost declaration, building and
// caching it on first use. A declaration from a superseded parse of its file
// gets a fresh uncached build, so the cache never regresses to older content.
func (c *Cache) Bundle(outermost *lang.Declaration) (*stub.Bundle, error) {
	if outermost == nil || outermost.File == nil {
		return nil, apperrors.New(apperrors.CodeInvariantViolation,
			"bundle requested for a declaration with no source file")
	}

	key := bundleKey(outermost)
	current := c.stamps.Stamp(outermost.File.Path)
	if outermost.File.Stamp != current {
		observability.StubCacheRebuilds.Inc()
		return c.build(outermost)
	}

	if bundle, ok := c.entries.Get(key); ok && bundle.Stamp == current {
		c.hits.Add(1)
		observability.StubCacheHits.Inc()
		return bundle, nil
	}

	// The flight key carries the stamp so a request against a newer parse
	// never joins a build still running for an older one.
	flight := fmt.Sprintf("%s\x00%d", key, current)
	v, err, _ := c.group.Do(flight, func() (interface{}, error) {
		if bundle, ok := c.entries.Get(key); ok && bundle.Stamp == current {
			c.hits.Add(1)
			observability.StubCacheHits.Inc()
			return bundle, nil
		}
		c.misses.Add(1)
		observability.StubCacheMisses.Inc()
		bundle, err := c.build(outermost)
		if err != nil {
			return nil, err
		}
		c.entries.Put(key, bundle)
		return bundle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*stub.Bundle), nil
}

// ClassInfo locates the outermost container of decl, fetches its bundle,
// and returns the class info recorded for decl. A missing entry means the
// declaration tree and the stub pipeline have diverged.
func (c *Cache) ClassInfo(decl *lang.Declaration) (*stub.ClassInfo, error) {
	outermost, err := lang.Outermost(decl)
	if err != nil {
		return nil, err
	}
	bundle, err := c.Bundle(outermost)
	if err != nil {
		return nil, err
	}
	info, ok := bundle.InfoFor(decl)
	if !ok {
		name := decl.Name
		if name == "" {
			name = "<anonymous>"
		}
		err := apperrors.New(apperrors.CodeInvariantViolation,
			"no class info recorded for declaration in its outermost bundle")
		err = apperrors.AddContext(err, apperrors.CtxDeclaration, name)
		err = apperrors.AddContext(err, apperrors.CtxPath, decl.Path())
		err = apperrors.AddContext(err, apperrors.CtxSource, stub.Excerpt(decl.Text))
		return nil, err
	}
	return info, nil
}

// Len returns the number of cached bundles.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns the request counters accumulated so far.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Prune evicts the least recently used percentage of bundles and returns
// how many were dropped. Used under memory pressure; evicted bundles are
// rebuilt on demand.
func (c *Cache) Prune(percentage int) int {
	return c.entries.Prune(percentage)
}

// Clear drops all cached bundles.
func (c *Cache) Clear() {
	c.entries.Clear()
}

func (c *Cache) build(outermost *lang.Declaration) (*stub.Bundle, error) {
	start := time.Now()
	bundle, err := c.builder.Build(outermost)
	observability.StubBuildDuration.Observe(time.Since(start).Seconds())
	return bundle, err
}

func bundleKey(outermost *lang.Declaration) string {
	return outermost.File.Path + "\x00" + outermost.Name
}
