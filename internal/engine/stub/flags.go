package stub

import (
	"facet/internal/engine/lang"
)

// AccessFlags is the JVM class access-flag bitmask.
type AccessFlags uint16

const (
	AccPublic     AccessFlags = 0x0001
	AccPrivate    AccessFlags = 0x0002
	AccProtected  AccessFlags = 0x0004
	AccStatic     AccessFlags = 0x0008
	AccFinal      AccessFlags = 0x0010
	AccInterface  AccessFlags = 0x0200
	AccAbstract   AccessFlags = 0x0400
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
)

func (f AccessFlags) IsPublic() bool     { return f&AccPublic != 0 }
func (f AccessFlags) IsPrivate() bool    { return f&AccPrivate != 0 }
func (f AccessFlags) IsProtected() bool  { return f&AccProtected != 0 }
func (f AccessFlags) IsStatic() bool     { return f&AccStatic != 0 }
func (f AccessFlags) IsFinal() bool      { return f&AccFinal != 0 }
func (f AccessFlags) IsInterface() bool  { return f&AccInterface != 0 }
func (f AccessFlags) IsAbstract() bool   { return f&AccAbstract != 0 }
func (f AccessFlags) IsSynthetic() bool  { return f&AccSynthetic != 0 }
func (f AccessFlags) IsAnnotation() bool { return f&AccAnnotation != 0 }
func (f AccessFlags) IsEnum() bool       { return f&AccEnum != 0 }

// Keywords returns the canonical modifier keyword list for the mask,
// visibility first. Kind bits (interface, annotation, enum) do not produce
// keywords.
func (f AccessFlags) Keywords() []string {
	var kw []string
	switch {
	case f.IsPublic():
		kw = append(kw, "public")
	case f.IsProtected():
		kw = append(kw, "protected")
	case f.IsPrivate():
		kw = append(kw, "private")
	}
	if f.IsAbstract() {
		kw = append(kw, "abstract")
	}
	if f.IsStatic() {
		kw = append(kw, "static")
	}
	if f.IsFinal() {
		kw = append(kw, "final")
	}
	return kw
}

// InterfaceLike reports whether a declaration compiles to a JVM interface.
// Annotation classes are interfaces in the binary model.
func InterfaceLike(decl *lang.Declaration) bool {
	return decl.Kind == lang.KindInterface || decl.Kind == lang.KindAnnotation
}

// ClassFlags maps a declaration's source modifiers onto the access flags of
// the class it compiles to.
//
// Visibility: public and internal map to public; protected stays protected;
// private maps to private only for nested declarations, since the binary
// model cannot express a private top-level type; no modifier means public.
// Abstract: set for explicitly abstract declarations and everything
// interface-like. Final: set unless the declaration is abstract or open.
// Static: every non-top-level declaration that is not marked inner.
func ClassFlags(decl *lang.Declaration) AccessFlags {
	var flags AccessFlags

	switch {
	case decl.HasModifier("protected"):
		flags |= AccProtected
	case decl.HasModifier("private") && !decl.TopLevel():
		flags |= AccPrivate
	default:
		flags |= AccPublic
	}

	abstract := decl.HasModifier("abstract") || InterfaceLike(decl)
	if abstract {
		flags |= AccAbstract
	} else if !decl.HasModifier("open") {
		flags |= AccFinal
	}

	if !decl.TopLevel() && !decl.HasModifier("inner") {
		flags |= AccStatic
	}

	switch decl.Kind {
	case lang.KindInterface:
		flags |= AccInterface
	case lang.KindAnnotation:
		flags |= AccInterface | AccAnnotation
	case lang.KindEnum:
		flags |= AccEnum
	}

	return flags
}
