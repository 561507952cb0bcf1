package formats

import (
	"fmt"
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"facet/internal/engine/parser"
	"facet/internal/engine/stub"
)

// StubFile is one rendered stub ready to be written below the stubs
// output root.
type StubFile struct {
	Path    string // relative: package dirs + <Outermost>.java
	Content string
}

// StubsGenerator renders bundle class trees as Java stub files. With verify
// enabled every rendered file is parsed with the Java grammar and rejected
// if the tree contains syntax errors.
type StubsGenerator struct {
	verify bool
}

func NewStubsGenerator(verify bool) *StubsGenerator {
	return &StubsGenerator{verify: verify}
}

func (s *StubsGenerator) Generate(root *stub.FileStub) ([]StubFile, error) {
	if root == nil || len(root.Classes) == 0 {
		return nil, nil
	}

	content := stub.RenderJavaFile(root)
	if s.verify {
		if err := VerifyJava(content); err != nil {
			return nil, fmt.Errorf("stub for %q: %w", root.Path, err)
		}
	}

	dir := strings.ReplaceAll(root.Package, ".", "/")
	name := root.Classes[0].Name + ".java"

	return []StubFile{{
		Path:    path.Join(dir, name),
		Content: content,
	}}, nil
}

// VerifyJava parses stub text with the Java grammar and reports syntax
// errors. Rendered stubs must stay valid Java even for local and anonymous
// classes flattened to file level.
func VerifyJava(content string) error {
	p := sitter.NewParser()
	defer p.Close()
	_ = p.SetLanguage(parser.JavaLanguage())

	tree := p.Parse([]byte(content), nil)
	if tree == nil {
		return fmt.Errorf("java parse produced no tree")
	}
	defer tree.Close()

	if tree.RootNode().HasError() {
		return fmt.Errorf("rendered stub does not parse as Java")
	}
	return nil
}
