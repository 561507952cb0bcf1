package resolve

import (
	"strings"
	"sync"

	"facet/internal/engine/lang"
)

// SuperRef is one supertype reference on a descriptor. Name is fully
// qualified when Resolved, otherwise the name exactly as written in source.
// Call carries the constructor-invocation form through from the source
// entry, which is what separates the class supertype from interfaces.
type SuperRef struct {
	Name     string
	Resolved bool
	Call     bool
}

// ClassDescriptor is the resolved view of one class-like declaration:
// its qualified name, kind, and supertype references.
type ClassDescriptor struct {
	QualifiedName string
	Kind          lang.Kind
	SuperTypes    []SuperRef
	Builtin       bool
}

// Registry holds the class descriptors of a project, keyed by qualified
// name, plus the built-in descriptors every project can reference. It owns
// name resolution of written type references against a file's imports.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*ClassDescriptor
	byFile map[string][]string
}

// Root and builtin descriptor names.
const (
	ObjectRoot       = "java.lang.Object"
	AnyClass         = "kotlin.Any"
	DeprecatedKotlin = "kotlin.Deprecated"
	DeprecatedJava   = "java.lang.Deprecated"
)

// defaultImports maps short names that resolve without an import statement.
var defaultImports = map[string]string{
	"Any":        AnyClass,
	"Deprecated": DeprecatedKotlin,
}

func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*ClassDescriptor),
		byFile: make(map[string][]string),
	}
	r.byName[ObjectRoot] = &ClassDescriptor{QualifiedName: ObjectRoot, Kind: lang.KindClass, Builtin: true}
	r.byName[AnyClass] = &ClassDescriptor{
		QualifiedName: AnyClass,
		Kind:          lang.KindClass,
		SuperTypes:    []SuperRef{{Name: ObjectRoot, Resolved: true}},
		Builtin:       true,
	}
	r.byName[DeprecatedKotlin] = &ClassDescriptor{QualifiedName: DeprecatedKotlin, Kind: lang.KindAnnotation, Builtin: true}
	r.byName[DeprecatedJava] = &ClassDescriptor{QualifiedName: DeprecatedJava, Kind: lang.KindAnnotation, Builtin: true}
	return r
}

// IndexFile replaces the registry entries contributed by f with descriptors
// for its current declarations. Local and anonymous declarations are not
// indexed; their descriptors exist only inside stub bundles.
func (r *Registry) IndexFile(f *lang.File) {
	type pending struct {
		decl *lang.Declaration
		name string
	}
	var found []pending
	var collect func(d *lang.Declaration, prefix string)
	collect = func(d *lang.Declaration, prefix string) {
		if d.Name == "" {
			return
		}
		name := d.Name
		if prefix != "" {
			name = prefix + "." + d.Name
		} else if f.Package != "" {
			name = f.Package + "." + d.Name
		}
		found = append(found, pending{decl: d, name: name})
		for _, n := range d.Nested {
			collect(n, name)
		}
	}
	for _, d := range f.Declarations {
		collect(d, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, old := range r.byFile[f.Path] {
		delete(r.byName, old)
	}
	names := make([]string, 0, len(found))
	for _, p := range found {
		r.byName[p.name] = r.describeLocked(f, p.decl, p.name)
		names = append(names, p.name)
	}
	r.byFile[f.Path] = names
}

// RemoveFile drops the descriptors contributed by a deleted file.
func (r *Registry) RemoveFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, old := range r.byFile[path] {
		delete(r.byName, old)
	}
	delete(r.byFile, path)
}

// Describe builds a descriptor for one declaration under the given
// qualified name, resolving its supertype references. The descriptor is not
// stored in the registry; stub building uses this for local and anonymous
// declarations whose names are synthesized per bundle.
func (r *Registry) Describe(f *lang.File, decl *lang.Declaration, qualifiedName string) *ClassDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.describeLocked(f, decl, qualifiedName)
}

func (r *Registry) describeLocked(f *lang.File, decl *lang.Declaration, qualifiedName string) *ClassDescriptor {
	desc := &ClassDescriptor{
		QualifiedName: qualifiedName,
		Kind:          decl.Kind,
	}
	for _, super := range decl.SuperTypes {
		if fq, ok := r.resolveLocked(f, super.Name); ok {
			desc.SuperTypes = append(desc.SuperTypes, SuperRef{Name: fq, Resolved: true, Call: super.Call})
		} else {
			desc.SuperTypes = append(desc.SuperTypes, SuperRef{Name: super.Name, Call: super.Call})
		}
	}
	if len(desc.SuperTypes) == 0 && qualifiedName != AnyClass && qualifiedName != ObjectRoot {
		desc.SuperTypes = []SuperRef{{Name: AnyClass, Resolved: true}}
	}
	return desc
}

// Resolve maps a type name as written in f to a fully qualified name.
// Resolution order: explicit imports (alias first), wildcard imports, the
// file's own package, default imports. Dotted names are taken as already
// qualified.
func (r *Registry) Resolve(f *lang.File, written string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(f, written)
}

func (r *Registry) resolveLocked(f *lang.File, written string) (string, bool) {
	written = strings.TrimSpace(written)
	if written == "" {
		return "", false
	}
	if strings.Contains(written, ".") {
		return written, true
	}
	if f != nil {
		for _, imp := range f.Imports {
			if imp.Wildcard {
				continue
			}
			if imp.Alias == written {
				return imp.Path, true
			}
			if imp.Alias == "" && lastSegment(imp.Path) == written {
				return imp.Path, true
			}
		}
		for _, imp := range f.Imports {
			if !imp.Wildcard {
				continue
			}
			candidate := imp.Path + "." + written
			if _, ok := r.byName[candidate]; ok {
				return candidate, true
			}
		}
		candidate := written
		if f.Package != "" {
			candidate = f.Package + "." + written
		}
		if _, ok := r.byName[candidate]; ok {
			return candidate, true
		}
	}
	if fq, ok := defaultImports[written]; ok {
		return fq, true
	}
	return "", false
}

// Lookup returns the registered descriptor for a qualified name.
func (r *Registry) Lookup(qualifiedName string) (*ClassDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byName[qualifiedName]
	return desc, ok
}

// CheckSupertype reports whether qualifiedName occurs in desc's supertype
// list, or anywhere in its transitive supertype closure when deep is set.
// Unresolved references match by their written name but are not walked
// further.
func (r *Registry) CheckSupertype(desc *ClassDescriptor, qualifiedName string, deep bool) bool {
	if desc == nil || qualifiedName == "" {
		return false
	}
	if !deep {
		for _, super := range desc.SuperTypes {
			if super.Name == qualifiedName {
				return true
			}
		}
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{desc.QualifiedName: true}
	queue := append([]SuperRef(nil), desc.SuperTypes...)
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if ref.Name == qualifiedName {
			return true
		}
		if !ref.Resolved || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		if next, ok := r.byName[ref.Name]; ok {
			queue = append(queue, next.SuperTypes...)
		}
	}
	return false
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
