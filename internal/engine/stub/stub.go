package stub

import (
	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
)

// ClassInfo is the resolved record of one declaration inside a bundle:
// the binary name assigned to it, the matching qualified name, and its
// resolved descriptor. Never mutated after the bundle is built.
type ClassInfo struct {
	InternalName  string
	QualifiedName string
	SuperTypes    []resolve.SuperRef
	Descriptor    *resolve.ClassDescriptor
}

// FileStub is the binary-like tree built for one outermost declaration.
type FileStub struct {
	Package string
	Path    string
	Classes []*ClassNode
}

// ClassNode is one class in the binary-like tree. Local marks nodes whose
// binary name was synthesized from a hosting member rather than predicted
// from nesting.
type ClassNode struct {
	Name           string // simple binary name: "Outer", "Inner", "1Local", "2"
	Binary         string // internal name: "com/example/Outer$1Local"
	Flags          AccessFlags
	Kind           lang.Kind
	Local          bool
	TypeParameters []string
	SuperTypes     []resolve.SuperRef
	Methods        []Method
	Fields         []Field
	Inner          []*ClassNode
}

// QualifiedName returns the dotted form of the node's binary name.
func (n *ClassNode) QualifiedName() string {
	return QualifiedNameOf(n.Binary)
}

type Method struct {
	Name   string
	Flags  AccessFlags
	Params []lang.Param
	Return string // declared type text, "" for none
}

type Field struct {
	Name  string
	Flags AccessFlags
	Type  string
}

// Bundle is the result of one stub-building pass over an outermost
// declaration: the class tree plus a ClassInfo for every declaration the
// pass visited. Stamp records the parse generation it was built from.
type Bundle struct {
	Root  *FileStub
	Stamp int64

	infoByDecl map[*lang.Declaration]*ClassInfo
	infoByName map[string]*ClassInfo
}

// InfoFor returns the ClassInfo recorded for decl. Declarations from the
// built tree match directly; detached copies of non-local declarations
// match through their predicted binary name.
func (b *Bundle) InfoFor(decl *lang.Declaration) (*ClassInfo, bool) {
	if info, ok := b.infoByDecl[decl]; ok {
		return info, true
	}
	if predicted := PredictInternalName(decl); predicted != "" {
		if info, ok := b.infoByName[predicted]; ok {
			return info, true
		}
	}
	return nil, false
}

// FindInfo returns the ClassInfo whose qualified name matches. Detached
// copies of local declarations resolve through this path: their pointers
// are unknown to the bundle and their binary names are not predictable.
func (b *Bundle) FindInfo(qualifiedName string) (*ClassInfo, bool) {
	for _, info := range b.infoByName {
		if info.QualifiedName == qualifiedName {
			return info, true
		}
	}
	return nil, false
}

// FindClass locates the node whose qualified name matches, anywhere in the
// tree including synthesized local and anonymous nodes.
func (b *Bundle) FindClass(qualifiedName string) *ClassNode {
	if b == nil || b.Root == nil {
		return nil
	}
	for _, c := range b.Root.Classes {
		if found := findClass(c, qualifiedName); found != nil {
			return found
		}
	}
	return nil
}

func findClass(node *ClassNode, qualifiedName string) *ClassNode {
	if node.QualifiedName() == qualifiedName {
		return node
	}
	for _, inner := range node.Inner {
		if found := findClass(inner, qualifiedName); found != nil {
			return found
		}
	}
	return nil
}

// EachClass visits every node in the tree in declaration order.
func (b *Bundle) EachClass(visit func(*ClassNode)) {
	if b == nil || b.Root == nil {
		return
	}
	var walk func(*ClassNode)
	walk = func(n *ClassNode) {
		visit(n)
		for _, inner := range n.Inner {
			walk(inner)
		}
	}
	for _, c := range b.Root.Classes {
		walk(c)
	}
}
