// Package project owns the live model of a watched source tree: the parsed
// files, their parse stamps, the name-resolution registry, and the stub
// cache layered on top.
package project

import (
	"sync"

	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
	"facet/internal/engine/stub"
	"facet/internal/engine/stubcache"
	"facet/internal/shared/util"
)

const defaultStubCacheSize = 512

// DefaultDeprecatedNames are the annotation names treated as deprecation
// markers when a project configures none.
var DefaultDeprecatedNames = []string{
	resolve.DeprecatedKotlin,
	resolve.DeprecatedJava,
}

// Options tune a project. Zero values fall back to defaults.
type Options struct {
	// StubCacheSize bounds the number of cached stub bundles.
	StubCacheSize int
	// DeprecatedNames lists qualified annotation names treated as
	// deprecation markers.
	DeprecatedNames []string
	// BuiltinPathPrefixes mark files under these prefixes as part of the
	// language's own runtime. Their declarations are never projected.
	BuiltinPathPrefixes []string
}

// Project is safe for concurrent use. Files are replaced wholesale on every
// re-parse; a tree handed out earlier keeps its old stamp, which is how
// stale reads are detected.
type Project struct {
	mu     sync.RWMutex
	files  map[string]*lang.File
	stamps map[string]int64
	clock  int64

	registry *resolve.Registry
	stubs    *stubcache.Cache

	deprecated      []string
	builtinPrefixes []string
}

func New(opts Options) *Project {
	size := opts.StubCacheSize
	if size <= 0 {
		size = defaultStubCacheSize
	}
	deprecated := opts.DeprecatedNames
	if len(deprecated) == 0 {
		deprecated = DefaultDeprecatedNames
	}
	p := &Project{
		files:           make(map[string]*lang.File),
		stamps:          make(map[string]int64),
		registry:        resolve.NewRegistry(),
		deprecated:      append([]string(nil), deprecated...),
		builtinPrefixes: append([]string(nil), opts.BuiltinPathPrefixes...),
	}
	p.stubs = stubcache.New(stub.NewBuilder(p.registry), p, size)
	return p
}

// SetFile installs a freshly parsed file, assigns it the next parse stamp,
// and reindexes its declarations. Trees from earlier parses of the same path
// keep their old stamp and are recognized as superseded.
func (p *Project) SetFile(file *lang.File) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clock++
	file.Stamp = p.clock
	if !file.Builtin {
		file.Builtin = p.isBuiltinLocked(file.Path)
	}
	p.files[file.Path] = file
	p.stamps[file.Path] = file.Stamp
	p.registry.IndexFile(file)
}

// Remove forgets a file. Stamps for forgotten paths read as zero, so any
// tree still held for the path is treated as superseded.
func (p *Project) Remove(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.files, path)
	delete(p.stamps, path)
	p.registry.RemoveFile(path)
}

// File returns the current tree for path.
func (p *Project) File(path string) (*lang.File, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.files[path]
	return f, ok
}

// FileCount returns the number of tracked files.
func (p *Project) FileCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// EachFile visits all tracked files in path order.
func (p *Project) EachFile(visit func(*lang.File)) {
	p.mu.RLock()
	files := make(map[string]*lang.File, len(p.files))
	for path, f := range p.files {
		files[path] = f
	}
	p.mu.RUnlock()

	for _, path := range util.SortedStringKeys(files) {
		visit(files[path])
	}
}

// Stamp returns the current parse stamp for path, zero when untracked.
func (p *Project) Stamp(path string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stamps[path]
}

// Current reports whether file is the latest parse of its path.
func (p *Project) Current(file *lang.File) bool {
	return file != nil && file.Stamp == p.Stamp(file.Path)
}

// Registry exposes the name-resolution registry.
func (p *Project) Registry() *resolve.Registry {
	return p.registry
}

// Stubs exposes the stub cache.
func (p *Project) Stubs() *stubcache.Cache {
	return p.stubs
}

// DeprecatedNames returns the qualified annotation names treated as
// deprecation markers.
func (p *Project) DeprecatedNames() []string {
	return append([]string(nil), p.deprecated...)
}

// FindDeclaration returns the declaration whose predicted qualified name
// matches, or nil. Local and anonymous declarations have no predictable
// name and are not findable this way.
func (p *Project) FindDeclaration(qualifiedName string) *lang.Declaration {
	var found *lang.Declaration
	p.EachFile(func(f *lang.File) {
		if found != nil {
			return
		}
		f.Walk(func(d *lang.Declaration) {
			if found != nil || d.Local() || d.Anonymous() {
				return
			}
			if internal := stub.PredictInternalName(d); internal != "" && stub.QualifiedNameOf(internal) == qualifiedName {
				found = d
			}
		})
	})
	return found
}

func (p *Project) isBuiltinLocked(path string) bool {
	for _, prefix := range p.builtinPrefixes {
		if util.HasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}
