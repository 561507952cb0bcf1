package view

import (
	"sync/atomic"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/project"
	"facet/internal/engine/resolve"
)

// BaseRef names the single supertype an anonymous view extends, resolved
// against the whole project. Descriptor is nil when no class by that name
// is registered.
type BaseRef struct {
	QualifiedName string
	Descriptor    *resolve.ClassDescriptor
}

// BaseType is a BaseRef materialized at a concrete parse generation. A
// cached value is reused only while its generation is still current.
type BaseType struct {
	Ref   BaseRef
	Stamp int64
}

// AnonymousClassView specializes ClassView for object literals. It adds
// the synthesized base-type contract and suppresses constructs anonymous
// classes cannot have.
type AnonymousClassView struct {
	*ClassView

	base atomic.Pointer[BaseType]
}

// ForAnonymous builds an anonymous class view. Non-literal declarations
// are rejected; the gating of For applies unchanged.
func ForAnonymous(p *project.Project, decl *lang.Declaration) (*AnonymousClassView, error) {
	if decl != nil && !decl.Anonymous() {
		err := apperrors.New(apperrors.CodeValidationError,
			"anonymous class views require an object literal declaration")
		err = apperrors.AddContext(err, apperrors.CtxDeclaration, decl.Name)
		err = apperrors.AddContext(err, apperrors.CtxPath, decl.Path())
		return nil, err
	}
	base, err := For(p, decl)
	if err != nil || base == nil {
		return nil, err
	}
	return &AnonymousClassView{ClassView: base}, nil
}

// BaseClassReference returns the first resolved supertype of the literal's
// descriptor, falling back to the universal root type when none resolved.
func (v *AnonymousClassView) BaseClassReference() (BaseRef, error) {
	info, err := v.Info()
	if err != nil {
		return BaseRef{}, err
	}
	for _, super := range info.SuperTypes {
		if super.Resolved {
			desc, _ := v.project.Registry().Lookup(super.Name)
			return BaseRef{QualifiedName: super.Name, Descriptor: desc}, nil
		}
	}
	root, _ := v.project.Registry().Lookup(resolve.ObjectRoot)
	return BaseRef{QualifiedName: resolve.ObjectRoot, Descriptor: root}, nil
}

// BaseClassType wraps the reference into a type. The value is soft-cached:
// every access revalidates the cached generation against the file's
// current one and recomputes on mismatch.
func (v *AnonymousClassView) BaseClassType() (*BaseType, error) {
	current := v.project.Stamp(v.decl.File.Path)
	if cached := v.base.Load(); cached != nil && cached.Stamp == current {
		return cached, nil
	}
	ref, err := v.BaseClassReference()
	if err != nil {
		return nil, err
	}
	typ := &BaseType{Ref: ref, Stamp: current}
	v.base.Store(typ)
	return typ, nil
}

// ArgumentList is always absent: synthesized anonymous views never model
// constructor call-site syntax.
func (v *AnonymousClassView) ArgumentList() []lang.Param {
	return nil
}

// InQualifiedNew is always false for synthesized anonymous views.
func (v *AnonymousClassView) InQualifiedNew() bool {
	return false
}
