package view

import (
	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
)

// Parent is the synthesized container a view reports for navigation. The
// concrete type is a closed set: FileParent for top-level declarations,
// *ClassView for declarations nested in a class body and for those hosted
// by an initializer block, MemberParent for declarations local to a
// function or property body.
type Parent interface {
	ContainerName() string
}

// FileParent marks a top-level declaration's container: the file itself.
type FileParent struct {
	File *lang.File
}

func (p FileParent) ContainerName() string {
	return p.File.Path
}

// MemberParent is the placeholder container synthesized for a local
// declaration: a method-shaped anchor named after the hosting function, or
// after the hosting property with the accessor marking its synthesized
// getter. Local declarations have no container in the binary model, so
// their effective parent is the nearest named construct that would own
// them in a decompiled view.
type MemberParent struct {
	Name     string
	Accessor string // "get" when anchored at a property's synthesized getter
	Owner    *ClassView
}

func (p MemberParent) ContainerName() string {
	return p.Name
}

func (v *ClassView) computeParent() (Parent, error) {
	switch {
	case v.decl.TopLevel():
		return FileParent{File: v.decl.File}, nil
	case v.decl.Parent != nil:
		owner, err := For(v.project, v.decl.Parent)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, v.parentGap(v.decl.Parent.Name)
		}
		return owner, nil
	}

	host := v.decl.Host
	if host == nil || host.Owner == nil {
		return nil, v.parentGap("")
	}
	owner, err := For(v.project, host.Owner)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, v.parentGap(host.Owner.Name)
	}
	switch host.Kind {
	case lang.MemberInitializer:
		// Initializer blocks are skipped entirely: the parent is the
		// containing class's own view.
		return owner, nil
	case lang.MemberProperty:
		return MemberParent{Name: host.Name, Accessor: "get", Owner: owner}, nil
	default:
		return MemberParent{Name: host.Name, Owner: owner}, nil
	}
}

func (v *ClassView) parentGap(container string) error {
	err := apperrors.New(apperrors.CodeInvariantViolation,
		"enclosing declaration cannot be projected")
	err = apperrors.AddContext(err, apperrors.CtxClass, v.qualifiedName)
	err = apperrors.AddContext(err, apperrors.CtxDeclaration, container)
	err = apperrors.AddContext(err, apperrors.CtxPath, v.decl.Path())
	return err
}

func (v *ClassView) ContainerName() string {
	return v.qualifiedName
}
