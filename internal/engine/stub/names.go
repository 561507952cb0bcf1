package stub

import (
	"strings"

	"facet/internal/engine/lang"
)

// NoNameTypeParameter names synthesized type parameters whose source
// parameter has no usable name, so every projected parameter is nameable
// even over malformed source.
const NoNameTypeParameter = "__no_name__"

// PredictInternalName returns the JVM internal name a declaration will
// compile to: the package path with '/' separators and the nesting chain
// joined with '$'. It returns "" for local and anonymous declarations,
// whose binary names depend on indexes assigned during stub building, and
// whenever a declaration on the chain has no name.
func PredictInternalName(decl *lang.Declaration) string {
	if decl == nil || decl.File == nil || decl.Anonymous() || decl.Local() {
		return ""
	}
	var chain []string
	for cur := decl; cur != nil; cur = cur.Parent {
		if cur.Name == "" || cur.Anonymous() {
			return ""
		}
		chain = append(chain, cur.Name)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	name := strings.Join(chain, "$")
	if pkg := decl.File.Package; pkg != "" {
		return strings.ReplaceAll(pkg, ".", "/") + "/" + name
	}
	return name
}

// QualifiedNameOf converts an internal name to its dotted qualified form.
// Segments synthesized for local classes keep their digit prefix, matching
// how binary names round-trip in the target model.
func QualifiedNameOf(internal string) string {
	s := strings.ReplaceAll(internal, "/", ".")
	return strings.ReplaceAll(s, "$", ".")
}

// ShortNameOf returns the last segment of a dotted qualified name.
func ShortNameOf(qualified string) string {
	if idx := strings.LastIndex(qualified, "."); idx >= 0 {
		return qualified[idx+1:]
	}
	return qualified
}
