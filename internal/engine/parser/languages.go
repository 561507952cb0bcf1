package parser

import (
	tree_sitter_kotlin "github.com/fwcd/tree-sitter-kotlin/bindings/go"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// KotlinLanguage returns the tree-sitter Kotlin grammar.
func KotlinLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_kotlin.Language())
}

// JavaLanguage returns the tree-sitter Java grammar. The projector itself
// never parses Java; the grammar backs the optional check that rendered
// class surfaces are well-formed.
func JavaLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_java.Language())
}
