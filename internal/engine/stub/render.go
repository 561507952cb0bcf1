package stub

import (
	"fmt"
	"strings"

	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
)

// RenderJavaFile renders a bundle's class tree as Java-like stub text, the
// decompiled form of the projection. The output stays syntactically valid
// Java: local and anonymous classes are flattened to file level under their
// binary names, and type text with no Java spelling degrades to
// java.lang.Object.
func RenderJavaFile(root *FileStub) string {
	var buf strings.Builder
	if root.Package != "" {
		fmt.Fprintf(&buf, "package %s;\n\n", root.Package)
	}
	queue := append([]*ClassNode(nil), root.Classes...)
	first := true
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if !first {
			buf.WriteString("\n")
		}
		first = false
		queue = append(queue, renderClass(&buf, node, 0)...)
	}
	return buf.String()
}

// RenderJava renders a single class node and its named nested classes.
func RenderJava(node *ClassNode) string {
	var buf strings.Builder
	renderClass(&buf, node, 0)
	return buf.String()
}

// renderClass writes one class and returns the local nodes deferred to
// file level.
func renderClass(buf *strings.Builder, node *ClassNode, depth int) []*ClassNode {
	indent := strings.Repeat("    ", depth)
	head := renderKeywords(node, depth)
	head = append(head, kindKeyword(node.Kind))
	name := node.Name
	if depth == 0 {
		name = flatName(node.Binary)
	}
	name += renderTypeParameters(node.TypeParameters)

	extends, implements := superClause(node)
	line := indent + strings.Join(head, " ") + " " + name
	if extends != "" {
		line += " extends " + extends
	}
	if len(implements) > 0 {
		line += " implements " + strings.Join(implements, ", ")
	}
	buf.WriteString(line + " {\n")

	bodyIndent := indent + "    "
	for _, f := range node.Fields {
		typ := orObject(sanitizeType(f.Type))
		fmt.Fprintf(buf, "%s%s %s %s;\n", bodyIndent, strings.Join(f.Flags.Keywords(), " "), typ, f.Name)
	}
	for _, m := range node.Methods {
		ret := sanitizeType(m.Return)
		if ret == "" {
			ret = "void"
		}
		params := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			params = append(params, orObject(sanitizeType(p.Type))+" "+p.Name)
		}
		sig := fmt.Sprintf("%s%s %s %s(%s)", bodyIndent,
			strings.Join(m.Flags.Keywords(), " "), ret, m.Name, strings.Join(params, ", "))
		if node.Flags.IsInterface() || m.Flags.IsAbstract() {
			buf.WriteString(sig + ";\n")
		} else {
			buf.WriteString(sig + " {\n" + bodyIndent + "}\n")
		}
	}

	var deferred []*ClassNode
	for _, inner := range node.Inner {
		if inner.Local {
			deferred = append(deferred, inner)
			continue
		}
		buf.WriteString("\n")
		deferred = append(deferred, renderClass(buf, inner, depth+1)...)
	}
	buf.WriteString(indent + "}\n")
	return deferred
}

func renderKeywords(node *ClassNode, depth int) []string {
	var kw []string
	for _, k := range node.Flags.Keywords() {
		switch {
		case k == "static" && depth == 0:
			continue
		case k == "final" && node.Kind == lang.KindEnum:
			continue
		case k == "abstract" && node.Kind == lang.KindAnnotation:
			continue
		}
		kw = append(kw, k)
	}
	return kw
}

func kindKeyword(kind lang.Kind) string {
	switch kind {
	case lang.KindInterface:
		return "interface"
	case lang.KindAnnotation:
		return "@interface"
	case lang.KindEnum:
		return "enum"
	default:
		return "class"
	}
}

func renderTypeParameters(params []string) string {
	if len(params) == 0 {
		return ""
	}
	named := make([]string, 0, len(params))
	for _, p := range params {
		if p == "" {
			p = NoNameTypeParameter
		}
		named = append(named, p)
	}
	return "<" + strings.Join(named, ", ") + ">"
}

func superClause(node *ClassNode) (string, []string) {
	switch node.Kind {
	case lang.KindAnnotation:
		return "", nil
	case lang.KindInterface:
		var names []string
		for _, s := range node.SuperTypes {
			if s.Name == resolve.AnyClass {
				continue
			}
			names = append(names, sanitizeType(s.Name))
		}
		// interfaces extend all their supertypes, never implement
		return strings.Join(names, ", "), nil
	case lang.KindEnum:
		var impl []string
		for _, s := range node.SuperTypes {
			if s.Call || s.Name == resolve.AnyClass {
				continue
			}
			impl = append(impl, sanitizeType(s.Name))
		}
		return "", impl
	default:
		extends := ""
		var impl []string
		for _, s := range node.SuperTypes {
			if s.Name == resolve.AnyClass {
				continue
			}
			if s.Call && extends == "" {
				extends = sanitizeType(s.Name)
				continue
			}
			impl = append(impl, sanitizeType(s.Name))
		}
		return extends, impl
	}
}

// flatName renders local and anonymous classes at file level under their
// full binary name, '$' included.
func flatName(binary string) string {
	if idx := strings.LastIndex(binary, "/"); idx >= 0 {
		return binary[idx+1:]
	}
	return binary
}

// sanitizeType downgrades type text that has no Java spelling. Nullability
// marks are dropped and star projections become wildcards; function types
// have no stub representation at all.
func sanitizeType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	if strings.Contains(t, "->") || strings.HasPrefix(t, "(") {
		return "java.lang.Object"
	}
	t = strings.ReplaceAll(t, "?", "")
	t = strings.ReplaceAll(t, "*", "?")
	return t
}

func orObject(t string) string {
	if t == "" {
		return "java.lang.Object"
	}
	return t
}
