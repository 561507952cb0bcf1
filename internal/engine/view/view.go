// Package view implements read-only class views: per-declaration objects
// that present a source declaration as the class it compiles to, with the
// identity, modifiers, type parameters, containment, and inheritance
// answers of the binary model. Structural queries delegate to the stub
// bundle of the declaration's outermost container; everything else is
// derived from the declaration itself. Views never mutate source.
package view

import (
	"sync"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/project"
	"facet/internal/engine/stub"
)

// ClassLike is anything that exposes a qualified name in the projected
// type system. Views satisfy it, as do plain named class handles.
type ClassLike interface {
	QualifiedName() string
}

// TypeParameter is one synthesized type parameter, wrapped by position.
// Name is never empty: unnamed source parameters get the fixed placeholder.
type TypeParameter struct {
	Name  string
	Index int
}

// ClassView projects one declaration. Identity is the qualified name alone;
// two views with equal names are the same class regardless of instance or
// parse generation. Each lazy field is computed at most once per instance,
// and a first-computation race resolves to a single winner.
type ClassView struct {
	project       *project.Project
	decl          *lang.Declaration
	qualifiedName string

	info       func() (*stub.ClassInfo, error)
	delegate   func() (*stub.ClassNode, error)
	parent     func() (Parent, error)
	flags      func() stub.AccessFlags
	typeParams func() []TypeParameter
	deprecated func() bool
}

// For builds a class view over decl. It returns a nil view without error
// when the declaration cannot be projected at all: declarations in builtin
// runtime files, and non-local declarations with no predictable binary
// name. The qualified name is fixed at construction; local and anonymous
// declarations take theirs from the class info resolved for their
// outermost container.
func For(p *project.Project, decl *lang.Declaration) (*ClassView, error) {
	if p == nil || decl == nil || decl.File == nil {
		return nil, apperrors.New(apperrors.CodeValidationError,
			"a class view needs a project and a file-attached declaration")
	}
	if decl.File.Builtin {
		return nil, nil
	}

	var qualified string
	if decl.Local() {
		info, err := p.Stubs().ClassInfo(decl)
		if err != nil {
			return nil, err
		}
		qualified = info.QualifiedName
	} else {
		internal := stub.PredictInternalName(decl)
		if internal == "" {
			return nil, nil
		}
		qualified = stub.QualifiedNameOf(internal)
	}
	return newView(p, decl, qualified), nil
}

func newView(p *project.Project, decl *lang.Declaration, qualified string) *ClassView {
	v := &ClassView{project: p, decl: decl, qualifiedName: qualified}
	v.info = sync.OnceValues(v.computeInfo)
	v.delegate = sync.OnceValues(v.computeDelegate)
	v.parent = sync.OnceValues(v.computeParent)
	v.flags = sync.OnceValue(v.computeFlags)
	v.typeParams = sync.OnceValue(v.computeTypeParameters)
	v.deprecated = sync.OnceValue(v.computeDeprecated)
	return v
}

// QualifiedName returns the view's identity.
func (v *ClassView) QualifiedName() string {
	return v.qualifiedName
}

// Name returns the short class name.
func (v *ClassView) Name() string {
	return stub.ShortNameOf(v.qualifiedName)
}

// Key returns the map key for the view. Two views are the same class iff
// their keys are equal.
func (v *ClassView) Key() string {
	return v.qualifiedName
}

// EquivalentTo reports whether other names the same projected class. Stale
// and fresh views of one declaration compare equal across cache
// regeneration.
func (v *ClassView) EquivalentTo(other ClassLike) bool {
	return other != nil && v.qualifiedName == other.QualifiedName()
}

// Declaration returns the backing source declaration.
func (v *ClassView) Declaration() *lang.Declaration {
	return v.decl
}

// Valid reports whether the backing tree is still the current parse of its
// file.
func (v *ClassView) Valid() bool {
	return v.project.Current(v.decl.File)
}

func (v *ClassView) String() string {
	return "ClassView:" + v.qualifiedName
}

// Info returns the resolved class info for this view.
func (v *ClassView) Info() (*stub.ClassInfo, error) {
	return v.info()
}

// Delegate returns the stub node structural queries are answered from.
func (v *ClassView) Delegate() (*stub.ClassNode, error) {
	return v.delegate()
}

// Parent returns the synthesized container, see Parent for the shapes.
func (v *ClassView) Parent() (Parent, error) {
	return v.parent()
}

// Modifiers returns the access flags of the projected class.
func (v *ClassView) Modifiers() stub.AccessFlags {
	return v.flags()
}

// ModifierKeywords returns the canonical keyword list for the flags.
func (v *ClassView) ModifierKeywords() []string {
	return v.flags().Keywords()
}

// TypeParameters returns the synthesized type parameter list, empty for
// declaration kinds that do not support type parameters.
func (v *ClassView) TypeParameters() []TypeParameter {
	return v.typeParams()
}

// Interface reports whether the projected class is a JVM interface.
func (v *ClassView) Interface() bool {
	return stub.InterfaceLike(v.decl)
}

// Annotation reports whether the declaration is an annotation class.
func (v *ClassView) Annotation() bool {
	return v.decl.Kind == lang.KindAnnotation
}

// Enum reports whether the declaration is an enum class.
func (v *ClassView) Enum() bool {
	return v.decl.Kind == lang.KindEnum
}

// Deprecated reports whether the declaration's own annotations mark it
// deprecated. Inherited annotations do not count.
func (v *ClassView) Deprecated() bool {
	return v.deprecated()
}

// Methods lists the methods of the stub node.
func (v *ClassView) Methods() ([]stub.Method, error) {
	node, err := v.delegate()
	if err != nil {
		return nil, err
	}
	return node.Methods, nil
}

// Fields lists the fields of the stub node.
func (v *ClassView) Fields() ([]stub.Field, error) {
	node, err := v.delegate()
	if err != nil {
		return nil, err
	}
	return node.Fields, nil
}

// InnerClasses returns views for the declarations nested directly in this
// class body.
func (v *ClassView) InnerClasses() ([]*ClassView, error) {
	views := make([]*ClassView, 0, len(v.decl.Nested))
	for _, nested := range v.decl.Nested {
		nv, err := For(v.project, nested)
		if err != nil {
			return nil, err
		}
		if nv != nil {
			views = append(views, nv)
		}
	}
	return views, nil
}

// Inheritor reports whether this class inherits from base, directly or
// through the transitive supertype closure when deep is set. When base is
// itself a view, its name is taken from its own resolved descriptor.
func (v *ClassView) Inheritor(base ClassLike, deep bool) (bool, error) {
	if base == nil {
		return false, nil
	}
	baseName := base.QualifiedName()
	if src, ok := base.(interface {
		Info() (*stub.ClassInfo, error)
	}); ok {
		if info, err := src.Info(); err == nil && info.Descriptor != nil {
			baseName = info.Descriptor.QualifiedName
		}
	}
	info, err := v.info()
	if err != nil {
		return false, err
	}
	return v.project.Registry().CheckSupertype(info.Descriptor, baseName, deep), nil
}

// Copy clones the backing declaration and builds a fresh view around the
// clone. The qualified name carries over unchanged.
func (v *ClassView) Copy() *ClassView {
	return newView(v.project, v.decl.Clone(), v.qualifiedName)
}

// Rename always fails: views are read-only projections.
func (v *ClassView) Rename(string) error {
	return v.readOnly("rename")
}

// SetModifiers always fails: views are read-only projections.
func (v *ClassView) SetModifiers(...string) error {
	return v.readOnly("set modifiers")
}

func (v *ClassView) readOnly(operation string) error {
	err := apperrors.New(apperrors.CodeReadOnly,
		"class views are read-only projections of source declarations")
	err = apperrors.AddContext(err, apperrors.CtxClass, v.qualifiedName)
	err = apperrors.AddContext(err, apperrors.CtxOperation, operation)
	return err
}

func (v *ClassView) computeInfo() (*stub.ClassInfo, error) {
	outermost, err := lang.Outermost(v.decl)
	if err != nil {
		return nil, err
	}
	bundle, err := v.project.Stubs().Bundle(outermost)
	if err != nil {
		return nil, err
	}
	if info, ok := bundle.InfoFor(v.decl); ok {
		return info, nil
	}
	if info, ok := bundle.FindInfo(v.qualifiedName); ok {
		return info, nil
	}
	return nil, v.mismatch("no class info matches the view")
}

func (v *ClassView) computeDelegate() (*stub.ClassNode, error) {
	outermost, err := lang.Outermost(v.decl)
	if err != nil {
		return nil, err
	}
	bundle, err := v.project.Stubs().Bundle(outermost)
	if err != nil {
		return nil, err
	}
	if node := bundle.FindClass(v.qualifiedName); node != nil {
		return node, nil
	}
	return nil, v.mismatch("no stub node matches the view")
}

// mismatch reports a divergence between the declaration tree and the stub
// pipeline. Never recoverable.
func (v *ClassView) mismatch(msg string) error {
	err := apperrors.New(apperrors.CodeInvariantViolation, msg)
	err = apperrors.AddContext(err, apperrors.CtxClass, v.qualifiedName)
	err = apperrors.AddContext(err, apperrors.CtxPath, v.decl.Path())
	err = apperrors.AddContext(err, apperrors.CtxSource, stub.Excerpt(v.decl.Text))
	return err
}

func (v *ClassView) computeFlags() stub.AccessFlags {
	return stub.ClassFlags(v.decl)
}

func (v *ClassView) computeTypeParameters() []TypeParameter {
	if !supportsTypeParameters(v.decl.Kind) {
		return nil
	}
	params := make([]TypeParameter, 0, len(v.decl.TypeParameters))
	for i, tp := range v.decl.TypeParameters {
		name := tp.Name
		if name == "" {
			name = stub.NoNameTypeParameter
		}
		params = append(params, TypeParameter{Name: name, Index: i})
	}
	return params
}

func supportsTypeParameters(kind lang.Kind) bool {
	switch kind {
	case lang.KindClass, lang.KindInterface:
		return true
	default:
		return false
	}
}

func (v *ClassView) computeDeprecated() bool {
	known := v.project.DeprecatedNames()
	for _, ann := range v.decl.Annotations {
		if !ann.UserType {
			continue
		}
		if fq, ok := v.project.Registry().Resolve(v.decl.File, ann.Name); ok {
			for _, name := range known {
				if fq == name {
					return true
				}
			}
			continue
		}
		// Unresolvable reference: fall back to short-name matching. Loose on
		// purpose; two distinct annotations sharing a short name both match.
		short := stub.ShortNameOf(ann.Name)
		for _, name := range known {
			if stub.ShortNameOf(name) == short {
				return true
			}
		}
	}
	return false
}
