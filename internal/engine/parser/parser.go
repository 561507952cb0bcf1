package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/shared/observability"
	"facet/internal/shared/util"
)

// Extractor turns a parsed syntax tree into the declaration model.
type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*lang.File, error)
}

// Parser parses Kotlin sources into declaration trees. It owns a parser
// pool, so concurrent ParseFile calls share tree-sitter parser instances
// instead of allocating one per file.
type Parser struct {
	pool      *ParserPool
	extractor Extractor
}

var kotlinExtensions = map[string]bool{
	".kt":  true,
	".kts": true,
}

func NewParser() *Parser {
	return &Parser{
		pool:      NewParserPool(KotlinLanguage()),
		extractor: NewKotlinExtractor(),
	}
}

// ParseFile parses content as Kotlin and extracts its declaration tree.
// The returned file carries no parse stamp; the owning project assigns one
// when the file is installed.
func (p *Parser) ParseFile(path string, content []byte) (*lang.File, error) {
	if !p.IsSupportedPath(path) {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("not a Kotlin source file: %s", path))
	}

	start := time.Now()
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		observability.ParseErrors.Inc()
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("parse failed: %s", path))
	}
	defer tree.Close()

	file, err := p.extractor.Extract(tree.RootNode(), content, path)
	if err != nil {
		observability.ParseErrors.Inc()
		return nil, errors.Wrap(err, errors.CodeInternal, "extraction failed")
	}

	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	observability.FilesParsed.Inc()
	return file, nil
}

// LoadFile reads path from disk and parses it.
func (p *Parser) LoadFile(path string) (*lang.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("read %s", path))
	}
	return p.ParseFile(path, content)
}

func (p *Parser) IsSupportedPath(path string) bool {
	return kotlinExtensions[strings.ToLower(filepath.Ext(path))]
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(kotlinExtensions)
}

// ActiveParsers reports how many pooled parsers are currently leased.
func (p *Parser) ActiveParsers() int {
	return p.pool.Stats()
}
