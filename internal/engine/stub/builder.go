package stub

import (
	"fmt"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
)

// Builder turns an outermost declaration into a Bundle. Building is a pure
// function of the declaration tree and the registry contents at call time;
// the same inputs always produce the same tree.
type Builder struct {
	registry *resolve.Registry
}

func NewBuilder(registry *resolve.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build walks the whole outermost declaration once and emits a node plus
// ClassInfo for every class-like declaration inside it, including local and
// anonymous ones. Only top-level declarations are valid roots; anything
// else means the caller skipped the locator and the tree and cache have
// diverged.
func (b *Builder) Build(outermost *lang.Declaration) (*Bundle, error) {
	if outermost == nil || outermost.File == nil {
		return nil, apperrors.New(apperrors.CodeInvariantViolation,
			"stub build requires a declaration attached to a file")
	}
	if !outermost.TopLevel() {
		err := apperrors.New(apperrors.CodeInvariantViolation,
			"stub bundles are built for top-level declarations only")
		err = apperrors.AddContext(err, apperrors.CtxDeclaration, outermost.Name)
		err = apperrors.AddContext(err, apperrors.CtxPath, outermost.Path())
		return nil, err
	}
	internal := PredictInternalName(outermost)
	if internal == "" {
		err := apperrors.New(apperrors.CodeInvariantViolation,
			"top-level declaration has no predictable binary name")
		err = apperrors.AddContext(err, apperrors.CtxPath, outermost.Path())
		err = apperrors.AddContext(err, apperrors.CtxSource, Excerpt(outermost.Text))
		return nil, err
	}

	bundle := &Bundle{
		Root: &FileStub{
			Package: outermost.File.Package,
			Path:    outermost.File.Path,
		},
		Stamp:      outermost.File.Stamp,
		infoByDecl: make(map[*lang.Declaration]*ClassInfo),
		infoByName: make(map[string]*ClassInfo),
	}
	root := b.buildClass(outermost, internal, false, bundle)
	bundle.Root.Classes = []*ClassNode{root}
	return bundle, nil
}

func (b *Builder) buildClass(decl *lang.Declaration, internal string, local bool, bundle *Bundle) *ClassNode {
	node := &ClassNode{
		Name:   binarySimpleName(internal),
		Binary: internal,
		Flags:  ClassFlags(decl),
		Kind:   decl.Kind,
		Local:  local,
	}
	for _, tp := range decl.TypeParameters {
		node.TypeParameters = append(node.TypeParameters, tp.Name)
	}

	qualified := QualifiedNameOf(internal)
	desc, ok := b.registry.Lookup(qualified)
	if !ok {
		desc = b.registry.Describe(decl.File, decl, qualified)
	}
	node.SuperTypes = desc.SuperTypes

	info := &ClassInfo{
		InternalName:  internal,
		QualifiedName: qualified,
		SuperTypes:    desc.SuperTypes,
		Descriptor:    desc,
	}
	bundle.infoByDecl[decl] = info
	bundle.infoByName[internal] = info

	for _, nested := range decl.Nested {
		node.Inner = append(node.Inner, b.buildClass(nested, internal+"$"+nested.Name, local, bundle))
	}

	localIndex := 0
	for _, m := range decl.Members {
		switch m.Kind {
		case lang.MemberFunction:
			node.Methods = append(node.Methods, Method{
				Name:   m.Name,
				Flags:  memberFlags(m),
				Params: m.Params,
				Return: m.Type,
			})
		case lang.MemberProperty:
			node.Fields = append(node.Fields, Field{
				Name:  m.Name,
				Flags: memberFlags(m),
				Type:  m.Type,
			})
		}
		for _, hosted := range m.Hosted {
			localIndex++
			child := fmt.Sprintf("%s$%d%s", internal, localIndex, hosted.Name)
			node.Inner = append(node.Inner, b.buildClass(hosted, child, true, bundle))
		}
	}
	return node
}

func memberFlags(m *lang.Member) AccessFlags {
	var flags AccessFlags
	switch {
	case m.Modifiers.Has("protected"):
		flags |= AccProtected
	case m.Modifiers.Has("private"):
		flags |= AccPrivate
	default:
		flags |= AccPublic
	}
	if m.Modifiers.Has("abstract") {
		flags |= AccAbstract
	} else if !m.Modifiers.Has("open") {
		flags |= AccFinal
	}
	return flags
}

func binarySimpleName(internal string) string {
	for i := len(internal) - 1; i >= 0; i-- {
		if internal[i] == '$' || internal[i] == '/' {
			return internal[i+1:]
		}
	}
	return internal
}

// Excerpt bounds source text attached to diagnostics.
func Excerpt(text string) string {
	const max = 160
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
