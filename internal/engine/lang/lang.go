package lang

import (
	"time"
)

// Kind classifies a class-like declaration.
type Kind int

const (
	KindClass Kind = iota
	KindInterface
	KindAnnotation
	KindEnum
	KindObject
	KindCompanionObject
	KindObjectLiteral
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindAnnotation:
		return "annotation"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindCompanionObject:
		return "companion_object"
	case KindObjectLiteral:
		return "object_literal"
	default:
		return "unknown"
	}
}

// MemberKind classifies body members that can host local declarations.
type MemberKind int

const (
	MemberFunction MemberKind = iota
	MemberProperty
	MemberInitializer
)

func (k MemberKind) String() string {
	switch k {
	case MemberFunction:
		return "function"
	case MemberProperty:
		return "property"
	case MemberInitializer:
		return "initializer"
	default:
		return "unknown"
	}
}

type Location struct {
	File   string
	Line   int
	Column int
}

// File is one parsed source file. Stamp is the parse generation assigned by
// the owning project; two declaration trees share a stamp only if they came
// from the same parse.
type File struct {
	Path         string
	Package      string
	Imports      []Import
	Declarations []*Declaration
	Members      []*Member // file-level functions and properties
	Builtin      bool      // part of the language's own runtime, never projected
	Stamp        int64
	ParsedAt     time.Time
}

type Import struct {
	Path     string // fully qualified import path
	Alias    string // optional "as" alias
	Wildcard bool
	Location Location
}

// Modifiers is the ordered set of modifier keywords as written in source.
type Modifiers []string

func (m Modifiers) Has(keyword string) bool {
	for _, kw := range m {
		if kw == keyword {
			return true
		}
	}
	return false
}

type TypeParameter struct {
	Name     string // empty when the source parameter has no usable name
	Location Location
}

// Annotation is one annotation entry on a declaration. UserType is false when
// the annotation expression is not a plain type reference and therefore can
// never resolve to an annotation class.
type Annotation struct {
	Name     string
	UserType bool
	Location Location
}

// SuperTypeEntry is one supertype listed after the declaration header, with
// the name exactly as written. Call marks constructor-invocation form
// ("Base()" rather than "Base").
type SuperTypeEntry struct {
	Name     string
	Call     bool
	Location Location
}

// Param is one declared parameter of a function member, with its type text
// exactly as written.
type Param struct {
	Name string
	Type string
}

// Member is a function, property, or initializer block in a declaration body
// or at file level. Owner is nil for file-level members. Hosted lists the
// local declarations found inside the member's body. Type holds the declared
// return or property type text, empty when omitted.
type Member struct {
	Kind      MemberKind
	Name      string // empty for initializer blocks
	Modifiers Modifiers
	Params    []Param
	Type      string
	Owner     *Declaration
	Hosted    []*Declaration
	Location  Location
}

// Declaration is one class-like declaration. Exactly one of Parent and Host
// is set for non-top-level declarations: Parent when the declaration sits
// directly in an enclosing class body, Host when it sits inside a member
// body (which makes it local).
type Declaration struct {
	Kind           Kind
	Name           string // empty for object literals
	Modifiers      Modifiers
	Annotations    []Annotation
	TypeParameters []TypeParameter
	SuperTypes     []SuperTypeEntry
	Nested         []*Declaration
	Members        []*Member
	Parent         *Declaration
	Host           *Member
	File           *File
	Text           string // declaration source text, for diagnostics
	Location       Location
}

func (d *Declaration) HasModifier(keyword string) bool {
	return d.Modifiers.Has(keyword)
}

// TopLevel reports whether the declaration sits directly in its file.
func (d *Declaration) TopLevel() bool {
	return d.Parent == nil && d.Host == nil
}

// Local reports whether the declaration or any enclosing declaration is
// hosted inside a member body.
func (d *Declaration) Local() bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur.Host != nil {
			return true
		}
	}
	return false
}

func (d *Declaration) Anonymous() bool {
	return d.Kind == KindObjectLiteral
}

// Path returns the source file path, tolerating detached declarations.
func (d *Declaration) Path() string {
	if d.File == nil {
		return ""
	}
	return d.File.Path
}

// Clone returns a detached deep copy of the declaration subtree. The copy
// keeps the original's File pointer and its links to enclosing containers,
// but nothing in the original tree points back at the copy, and the copy is
// never indexed by the project.
func (d *Declaration) Clone() *Declaration {
	c := *d
	c.Modifiers = append(Modifiers(nil), d.Modifiers...)
	c.Annotations = append([]Annotation(nil), d.Annotations...)
	c.TypeParameters = append([]TypeParameter(nil), d.TypeParameters...)
	c.SuperTypes = append([]SuperTypeEntry(nil), d.SuperTypes...)
	c.Nested = make([]*Declaration, len(d.Nested))
	for i, n := range d.Nested {
		cn := n.Clone()
		cn.Parent = &c
		cn.Host = nil
		c.Nested[i] = cn
	}
	c.Members = make([]*Member, len(d.Members))
	for i, m := range d.Members {
		c.Members[i] = m.clone(&c)
	}
	return &c
}

func (m *Member) clone(owner *Declaration) *Member {
	c := *m
	c.Owner = owner
	c.Modifiers = append(Modifiers(nil), m.Modifiers...)
	c.Params = append([]Param(nil), m.Params...)
	c.Hosted = make([]*Declaration, len(m.Hosted))
	for i, h := range m.Hosted {
		ch := h.Clone()
		ch.Host = &c
		ch.Parent = nil
		c.Hosted[i] = ch
	}
	return &c
}

// Walk visits every declaration in the file, including local and anonymous
// declarations hosted inside member bodies, in source order.
func (f *File) Walk(visit func(*Declaration)) {
	for _, d := range f.Declarations {
		walkDeclaration(d, visit)
	}
	for _, m := range f.Members {
		for _, h := range m.Hosted {
			walkDeclaration(h, visit)
		}
	}
}

func walkDeclaration(d *Declaration, visit func(*Declaration)) {
	visit(d)
	for _, n := range d.Nested {
		walkDeclaration(n, visit)
	}
	for _, m := range d.Members {
		for _, h := range m.Hosted {
			walkDeclaration(h, visit)
		}
	}
}
