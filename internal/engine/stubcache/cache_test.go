package stubcache

import (
	"sync"
	"testing"
	"time"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
	"facet/internal/engine/stub"
)

type stampTable struct {
	mu     sync.Mutex
	stamps map[string]int64
}

func newStampTable() *stampTable {
	return &stampTable{stamps: make(map[string]int64)}
}

func (s *stampTable) Stamp(path string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stamps[path]
}

func (s *stampTable) set(path string, stamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps[path] = stamp
}

// countingBuilder wraps the real builder and counts invocations. The delay
// widens the build window for the coalescing test.
type countingBuilder struct {
	inner *stub.Builder
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (b *countingBuilder) Build(outermost *lang.Declaration) (*stub.Bundle, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.inner.Build(outermost)
}

func (b *countingBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// cacheFixture builds the tree for:
//
//	package com.example
//
//	class Top {
//	    class In
//	    fun go() {
//	        class Loc
//	    }
//	}
func cacheFixture(stamp int64) (*lang.File, *lang.Declaration) {
	f := &lang.File{Path: "/src/top.kt", Package: "com.example", Stamp: stamp}
	top := &lang.Declaration{Kind: lang.KindClass, Name: "Top", File: f, Text: "class Top { /* body */ }"}
	in := &lang.Declaration{Kind: lang.KindClass, Name: "In", Parent: top, File: f}
	run := &lang.Member{Kind: lang.MemberFunction, Name: "go", Owner: top}
	loc := &lang.Declaration{Kind: lang.KindClass, Name: "Loc", Host: run, File: f}
	run.Hosted = []*lang.Declaration{loc}
	top.Nested = []*lang.Declaration{in}
	top.Members = []*lang.Member{run}
	f.Declarations = []*lang.Declaration{top}
	return f, top
}

func newTestCache(f *lang.File, delay time.Duration) (*Cache, *countingBuilder, *stampTable) {
	registry := resolve.NewRegistry()
	registry.IndexFile(f)
	builder := &countingBuilder{inner: stub.NewBuilder(registry), delay: delay}
	stamps := newStampTable()
	stamps.set(f.Path, f.Stamp)
	return New(builder, stamps, 16), builder, stamps
}

func TestBundleCaching(t *testing.T) {
	t.Run("SecondRequestHitsCache", func(t *testing.T) {
		f, top := cacheFixture(1)
		cache, builder, _ := newTestCache(f, 0)

		first, err := cache.Bundle(top)
		if err != nil {
			t.Fatalf("first request failed: %v", err)
		}
		second, err := cache.Bundle(top)
		if err != nil {
			t.Fatalf("second request failed: %v", err)
		}
		if first != second {
			t.Error("expected both requests to return the same bundle")
		}
		if builder.count() != 1 {
			t.Errorf("expected 1 build, got %d", builder.count())
		}
		if cache.Len() != 1 {
			t.Errorf("expected 1 cached bundle, got %d", cache.Len())
		}
	})

	t.Run("StampChangeRebuilds", func(t *testing.T) {
		f1, top1 := cacheFixture(1)
		cache, builder, stamps := newTestCache(f1, 0)

		old, err := cache.Bundle(top1)
		if err != nil {
			t.Fatalf("initial build failed: %v", err)
		}

		// Re-parse: a fresh tree at the next stamp.
		f2, top2 := cacheFixture(2)
		stamps.set(f2.Path, 2)

		fresh, err := cache.Bundle(top2)
		if err != nil {
			t.Fatalf("rebuild failed: %v", err)
		}
		if fresh == old {
			t.Error("expected a new bundle after the file's stamp advanced")
		}
		if fresh.Stamp != 2 {
			t.Errorf("expected fresh bundle stamp 2, got %d", fresh.Stamp)
		}
		if builder.count() != 2 {
			t.Errorf("expected 2 builds, got %d", builder.count())
		}

		again, err := cache.Bundle(top2)
		if err != nil {
			t.Fatalf("repeat request failed: %v", err)
		}
		if again != fresh {
			t.Error("expected the rebuilt bundle to be served from cache")
		}
		if builder.count() != 2 {
			t.Errorf("expected still 2 builds, got %d", builder.count())
		}
	})

	t.Run("SupersededTreeBuildsUncached", func(t *testing.T) {
		f1, top1 := cacheFixture(1)
		cache, builder, stamps := newTestCache(f1, 0)

		f2, top2 := cacheFixture(2)
		stamps.set(f2.Path, 2)
		fresh, err := cache.Bundle(top2)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		// A caller still holding the older tree gets a matching build but
		// must not displace the current bundle.
		stale, err := cache.Bundle(top1)
		if err != nil {
			t.Fatalf("stale request failed: %v", err)
		}
		if stale.Stamp != 1 {
			t.Errorf("expected stale bundle stamp 1, got %d", stale.Stamp)
		}

		again, err := cache.Bundle(top2)
		if err != nil {
			t.Fatalf("repeat request failed: %v", err)
		}
		if again != fresh {
			t.Error("stale request must not evict the current bundle")
		}
		if builder.count() != 3 {
			t.Errorf("expected 3 builds, got %d", builder.count())
		}
	})

	t.Run("RejectsDetachedDeclaration", func(t *testing.T) {
		f, _ := cacheFixture(1)
		cache, _, _ := newTestCache(f, 0)

		_, err := cache.Bundle(&lang.Declaration{Name: "NoFile"})
		if !apperrors.IsCode(err, apperrors.CodeInvariantViolation) {
			t.Fatalf("expected INVARIANT_VIOLATION, got %v", err)
		}
	})
}

// TestBundleCoalescing checks that concurrent requests for one outermost
// declaration share a single build and all observe the same bundle.
func TestBundleCoalescing(t *testing.T) {
	f, top := cacheFixture(1)
	cache, builder, _ := newTestCache(f, 30*time.Millisecond)

	const callers = 8
	start := make(chan struct{})
	results := make([]*stub.Bundle, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(slot int) {
			defer wg.Done()
			<-start
			results[slot], errs[slot] = cache.Bundle(top)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different bundle", i)
		}
	}
	if builder.count() != 1 {
		t.Errorf("expected exactly 1 build across %d callers, got %d", callers, builder.count())
	}
}

func TestClassInfo(t *testing.T) {
	t.Run("NestedResolvesThroughOutermost", func(t *testing.T) {
		f, top := cacheFixture(1)
		cache, builder, _ := newTestCache(f, 0)

		in := top.Nested[0]
		info, err := cache.ClassInfo(in)
		if err != nil {
			t.Fatalf("ClassInfo failed: %v", err)
		}
		if info.QualifiedName != "com.example.Top.In" {
			t.Errorf("expected com.example.Top.In, got %q", info.QualifiedName)
		}
		if builder.count() != 1 {
			t.Errorf("expected 1 build, got %d", builder.count())
		}
	})

	t.Run("LocalResolvesThroughHostChain", func(t *testing.T) {
		f, top := cacheFixture(1)
		cache, builder, _ := newTestCache(f, 0)

		loc := top.Members[0].Hosted[0]
		info, err := cache.ClassInfo(loc)
		if err != nil {
			t.Fatalf("ClassInfo failed: %v", err)
		}
		if info.QualifiedName != "com.example.Top.1Loc" {
			t.Errorf("expected com.example.Top.1Loc, got %q", info.QualifiedName)
		}

		// The nested class shares the already-built bundle.
		if _, err := cache.ClassInfo(top.Nested[0]); err != nil {
			t.Fatalf("ClassInfo failed: %v", err)
		}
		if builder.count() != 1 {
			t.Errorf("expected 1 shared build, got %d", builder.count())
		}
	})

	t.Run("UnknownDeclarationIsInvariantViolation", func(t *testing.T) {
		f, top := cacheFixture(1)
		cache, _, _ := newTestCache(f, 0)

		// A declaration claiming to live inside go() that the parse never
		// produced cannot have class info.
		ghost := &lang.Declaration{Kind: lang.KindClass, Name: "Ghost", Host: top.Members[0], File: f}
		_, err := cache.ClassInfo(ghost)
		if !apperrors.IsCode(err, apperrors.CodeInvariantViolation) {
			t.Fatalf("expected INVARIANT_VIOLATION, got %v", err)
		}
	})

	t.Run("FileLevelLocalFailsValidation", func(t *testing.T) {
		f, _ := cacheFixture(1)
		cache, _, _ := newTestCache(f, 0)

		helper := &lang.Member{Kind: lang.MemberFunction, Name: "helper"}
		orphan := &lang.Declaration{Kind: lang.KindClass, Name: "Orphan", Host: helper, File: f}
		helper.Hosted = []*lang.Declaration{orphan}

		_, err := cache.ClassInfo(orphan)
		if !apperrors.IsCode(err, apperrors.CodeValidationError) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestCacheClear(t *testing.T) {
	f, top := cacheFixture(1)
	cache, builder, _ := newTestCache(f, 0)

	if _, err := cache.Bundle(top); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after clear, got %d entries", cache.Len())
	}
	if _, err := cache.Bundle(top); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if builder.count() != 2 {
		t.Errorf("expected rebuild after clear, got %d builds", builder.count())
	}
}

func TestCacheStats(t *testing.T) {
	f, top := cacheFixture(1)
	cache, _, _ := newTestCache(f, 0)

	if stats := cache.Stats(); stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("expected zero stats on a fresh cache, got %+v", stats)
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.Bundle(top); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	stats := cache.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
}

func TestCachePrune(t *testing.T) {
	f, top := cacheFixture(1)
	cache, builder, _ := newTestCache(f, 0)

	if _, err := cache.Bundle(top); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if removed := cache.Prune(100); removed != 1 {
		t.Fatalf("expected 1 bundle pruned, got %d", removed)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after prune, got %d entries", cache.Len())
	}

	// A pruned bundle is rebuilt on the next request.
	if _, err := cache.Bundle(top); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if builder.count() != 2 {
		t.Errorf("expected rebuild after prune, got %d builds", builder.count())
	}
}
