package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"facet/internal/engine/lang"
)

// KotlinExtractor turns a parsed Kotlin syntax tree into the declaration
// model the projector works on. It keeps only what projection needs: the
// package header, imports, class-like declarations with their modifier and
// supertype lists, and the function, property, and initializer members that
// can host local declarations.
type KotlinExtractor struct {
	engine *ExtractorEngine
}

func NewKotlinExtractor() *KotlinExtractor {
	e := &KotlinExtractor{}
	e.engine = NewExtractorEngine(map[string]NodeHandler{
		"package_header":        e.extractPackage,
		"import_header":         e.extractImport,
		"class_declaration":     e.extractClass,
		"object_declaration":    e.extractObject,
		"companion_object":      e.extractCompanion,
		"object_literal":        e.extractObjectLiteral,
		"function_declaration":  e.extractFunction,
		"property_declaration":  e.extractProperty,
		"anonymous_initializer": e.extractInitializer,
		"secondary_constructor": e.extractConstructor,
	})
	return e
}

// Extract walks the tree rooted at root. Safe for concurrent use; all
// per-pass state lives in the context.
func (e *KotlinExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*lang.File, error) {
	file := &lang.File{
		Path:     filePath,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	e.engine.Walk(ctx, root)

	return file, nil
}

func (e *KotlinExtractor) extractPackage(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.File.Package = ctx.ChildText(node, "identifier")
	return true
}

func (e *KotlinExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := lang.Import{
		Path:     ctx.ChildText(node, "identifier"),
		Wildcard: hasChildToken(node, "*"),
		Location: ctx.Location(node),
	}
	if imp.Path == "" {
		return true
	}
	if alias := childOfKind(node, "import_alias"); alias != nil {
		imp.Alias = ctx.ChildText(alias, "type_identifier")
	}
	ctx.File.Imports = append(ctx.File.Imports, imp)
	return true
}

func (e *KotlinExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	decl := e.newDeclaration(ctx, node, lang.KindClass)
	decl.Name = declName(ctx, node)
	e.applyHeader(ctx, node, decl)
	switch {
	case hasChildToken(node, "interface"):
		decl.Kind = lang.KindInterface
	case hasChildToken(node, "enum"):
		decl.Kind = lang.KindEnum
	case decl.HasModifier("annotation"):
		decl.Kind = lang.KindAnnotation
	}
	e.attach(ctx, decl)
	e.extractConstructorProperties(ctx, node, decl)
	e.walkBody(ctx, node, decl)
	return true
}

func (e *KotlinExtractor) extractObject(ctx *ExtractionContext, node *sitter.Node) bool {
	decl := e.newDeclaration(ctx, node, lang.KindObject)
	decl.Name = declName(ctx, node)
	e.applyHeader(ctx, node, decl)
	e.attach(ctx, decl)
	e.walkBody(ctx, node, decl)
	return true
}

func (e *KotlinExtractor) extractCompanion(ctx *ExtractionContext, node *sitter.Node) bool {
	decl := e.newDeclaration(ctx, node, lang.KindCompanionObject)
	decl.Name = declName(ctx, node)
	if decl.Name == "" {
		decl.Name = "Companion"
	}
	e.applyHeader(ctx, node, decl)
	e.attach(ctx, decl)
	e.walkBody(ctx, node, decl)
	return true
}

func (e *KotlinExtractor) extractObjectLiteral(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Member == nil {
		// Literals reachable only through argument positions outside any
		// member body (enum entry arguments, say) are not modeled.
		return true
	}
	decl := e.newDeclaration(ctx, node, lang.KindObjectLiteral)
	e.extractSuperTypes(ctx, node, decl)
	e.attach(ctx, decl)
	e.walkBody(ctx, node, decl)
	return true
}

func (e *KotlinExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Member != nil {
		// Local functions do not open a member of their own; declarations
		// inside them stay hosted by the enclosing member.
		return false
	}
	member := &lang.Member{
		Kind:     lang.MemberFunction,
		Name:     ctx.ChildText(node, "simple_identifier"),
		Owner:    ctx.Decl,
		Location: ctx.Location(node),
	}
	if mods := childOfKind(node, "modifiers"); mods != nil {
		member.Modifiers, _ = e.extractModifiers(ctx, mods)
	}
	member.Params = e.extractParams(ctx, node)
	member.Type = e.returnType(ctx, node)
	e.addMember(ctx, member)
	e.walkHosted(ctx, node, member)
	return true
}

func (e *KotlinExtractor) extractProperty(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Member != nil {
		return false
	}
	variable := childOfKind(node, "variable_declaration")
	member := &lang.Member{
		Kind:     lang.MemberProperty,
		Name:     ctx.ChildText(variable, "simple_identifier"),
		Type:     e.typeOf(ctx, variable),
		Owner:    ctx.Decl,
		Location: ctx.Location(node),
	}
	if mods := childOfKind(node, "modifiers"); mods != nil {
		member.Modifiers, _ = e.extractModifiers(ctx, mods)
	}
	e.addMember(ctx, member)
	e.walkHosted(ctx, node, member)
	return true
}

func (e *KotlinExtractor) extractInitializer(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Member != nil {
		return false
	}
	member := &lang.Member{
		Kind:     lang.MemberInitializer,
		Owner:    ctx.Decl,
		Location: ctx.Location(node),
	}
	e.addMember(ctx, member)
	e.walkHosted(ctx, node, member)
	return true
}

func (e *KotlinExtractor) extractConstructor(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Member != nil {
		return false
	}
	member := &lang.Member{
		Kind:     lang.MemberFunction,
		Name:     "<init>",
		Owner:    ctx.Decl,
		Location: ctx.Location(node),
	}
	if mods := childOfKind(node, "modifiers"); mods != nil {
		member.Modifiers, _ = e.extractModifiers(ctx, mods)
	}
	member.Params = e.extractParams(ctx, node)
	e.addMember(ctx, member)
	e.walkHosted(ctx, node, member)
	return true
}

func (e *KotlinExtractor) newDeclaration(ctx *ExtractionContext, node *sitter.Node, kind lang.Kind) *lang.Declaration {
	return &lang.Declaration{
		Kind:     kind,
		File:     ctx.File,
		Text:     ctx.Text(node),
		Location: ctx.Location(node),
	}
}

// attach links the declaration into the containment model. A declaration met
// inside a member body is hosted by that member, which makes it local; one
// met inside a class body nests under the enclosing declaration; anything
// else is top level.
func (e *KotlinExtractor) attach(ctx *ExtractionContext, decl *lang.Declaration) {
	switch {
	case ctx.Member != nil:
		decl.Host = ctx.Member
		ctx.Member.Hosted = append(ctx.Member.Hosted, decl)
	case ctx.Decl != nil:
		decl.Parent = ctx.Decl
		ctx.Decl.Nested = append(ctx.Decl.Nested, decl)
	default:
		ctx.File.Declarations = append(ctx.File.Declarations, decl)
	}
}

func (e *KotlinExtractor) addMember(ctx *ExtractionContext, member *lang.Member) {
	if ctx.Decl != nil {
		ctx.Decl.Members = append(ctx.Decl.Members, member)
	} else {
		ctx.File.Members = append(ctx.File.Members, member)
	}
}

// walkBody visits the declaration body with a fresh member scope, so body
// declarations nest instead of hosting.
func (e *KotlinExtractor) walkBody(ctx *ExtractionContext, node *sitter.Node, decl *lang.Declaration) {
	body := childOfKind(node, "class_body")
	if body == nil {
		body = childOfKind(node, "enum_class_body")
	}
	if body == nil {
		return
	}
	prevDecl, prevMember := ctx.Decl, ctx.Member
	ctx.Decl, ctx.Member = decl, nil
	for i := uint(0); i < body.ChildCount(); i++ {
		e.engine.Walk(ctx, body.Child(i))
	}
	ctx.Decl, ctx.Member = prevDecl, prevMember
}

// walkHosted visits a member subtree; declarations found inside become
// locals of the member.
func (e *KotlinExtractor) walkHosted(ctx *ExtractionContext, node *sitter.Node, member *lang.Member) {
	prevMember := ctx.Member
	ctx.Member = member
	for i := uint(0); i < node.ChildCount(); i++ {
		e.engine.Walk(ctx, node.Child(i))
	}
	ctx.Member = prevMember
}

func (e *KotlinExtractor) applyHeader(ctx *ExtractionContext, node *sitter.Node, decl *lang.Declaration) {
	if mods := childOfKind(node, "modifiers"); mods != nil {
		decl.Modifiers, decl.Annotations = e.extractModifiers(ctx, mods)
	}
	if params := childOfKind(node, "type_parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			child := params.Child(i)
			if child.Kind() != "type_parameter" {
				continue
			}
			decl.TypeParameters = append(decl.TypeParameters, lang.TypeParameter{
				Name:     ctx.ChildText(child, "type_identifier"),
				Location: ctx.Location(child),
			})
		}
	}
	e.extractSuperTypes(ctx, node, decl)
}

func (e *KotlinExtractor) extractModifiers(ctx *ExtractionContext, node *sitter.Node) (lang.Modifiers, []lang.Annotation) {
	var mods lang.Modifiers
	var anns []lang.Annotation
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		kind := child.Kind()
		switch {
		case kind == "annotation":
			anns = append(anns, e.extractAnnotation(ctx, child))
		case strings.HasSuffix(kind, "_modifier"):
			mods = append(mods, ctx.Text(child))
		}
	}
	return mods, anns
}

// extractAnnotation records the annotation name as written. Resolution
// against the import table happens later; here only plain type references
// are marked as resolvable.
func (e *KotlinExtractor) extractAnnotation(ctx *ExtractionContext, node *sitter.Node) lang.Annotation {
	target := childOfKind(node, "user_type")
	if target == nil {
		if call := childOfKind(node, "constructor_invocation"); call != nil {
			target = childOfKind(call, "user_type")
		}
	}
	if target != nil {
		return lang.Annotation{
			Name:     typeName(ctx.Text(target)),
			UserType: true,
			Location: ctx.Location(node),
		}
	}
	name := strings.TrimSpace(strings.TrimPrefix(ctx.Text(node), "@"))
	return lang.Annotation{Name: name, Location: ctx.Location(node)}
}

func (e *KotlinExtractor) extractSuperTypes(ctx *ExtractionContext, node *sitter.Node, decl *lang.Declaration) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "delegation_specifier" {
			continue
		}
		entry := lang.SuperTypeEntry{Location: ctx.Location(child)}
		if call := childOfKind(child, "constructor_invocation"); call != nil {
			entry.Name = typeName(ctx.ChildText(call, "user_type"))
			entry.Call = true
		} else if deleg := childOfKind(child, "explicit_delegation"); deleg != nil {
			entry.Name = typeName(ctx.ChildText(deleg, "user_type"))
		} else {
			entry.Name = typeName(ctx.ChildText(child, "user_type"))
		}
		if entry.Name == "" {
			continue
		}
		decl.SuperTypes = append(decl.SuperTypes, entry)
	}
}

// extractConstructorProperties lifts val/var primary-constructor parameters
// into property members, matching how they surface on the class.
func (e *KotlinExtractor) extractConstructorProperties(ctx *ExtractionContext, node *sitter.Node, decl *lang.Declaration) {
	ctor := childOfKind(node, "primary_constructor")
	if ctor == nil {
		return
	}
	// The parameter list may sit behind a wrapper node or directly under
	// the constructor.
	params := childOfKind(ctor, "class_parameters")
	if params == nil {
		params = ctor
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)
		if param.Kind() != "class_parameter" {
			continue
		}
		if !hasChildToken(param, "val") && !hasChildToken(param, "var") {
			continue
		}
		member := &lang.Member{
			Kind:     lang.MemberProperty,
			Name:     ctx.ChildText(param, "simple_identifier"),
			Type:     e.typeOf(ctx, param),
			Owner:    decl,
			Location: ctx.Location(param),
		}
		if mods := childOfKind(param, "modifiers"); mods != nil {
			member.Modifiers, _ = e.extractModifiers(ctx, mods)
		}
		decl.Members = append(decl.Members, member)
	}
}

func (e *KotlinExtractor) extractParams(ctx *ExtractionContext, node *sitter.Node) []lang.Param {
	params := childOfKind(node, "function_value_parameters")
	if params == nil {
		return nil
	}
	var out []lang.Param
	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)
		if param.Kind() == "function_value_parameter" {
			param = childOfKind(param, "parameter")
		}
		if param == nil || param.Kind() != "parameter" {
			continue
		}
		out = append(out, lang.Param{
			Name: ctx.ChildText(param, "simple_identifier"),
			Type: e.typeOf(ctx, param),
		})
	}
	return out
}

// returnType scans for a declared type after the parameter list; the
// receiver type of an extension sits before the name and must not match.
func (e *KotlinExtractor) returnType(ctx *ExtractionContext, node *sitter.Node) string {
	seenParams := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "function_value_parameters" {
			seenParams = true
			continue
		}
		if seenParams && typeKinds[child.Kind()] {
			return cleanType(ctx.Text(child))
		}
	}
	return ""
}

// typeOf returns the first declared-type child of node, cleaned up.
func (e *KotlinExtractor) typeOf(ctx *ExtractionContext, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if typeKinds[child.Kind()] {
			return cleanType(ctx.Text(child))
		}
	}
	return ""
}

// typeKinds are the node kinds that can appear in declared-type position.
var typeKinds = map[string]bool{
	"user_type":          true,
	"nullable_type":      true,
	"function_type":      true,
	"parenthesized_type": true,
}

func declName(ctx *ExtractionContext, node *sitter.Node) string {
	if name := ctx.ChildText(node, "type_identifier"); name != "" {
		return name
	}
	return ctx.ChildText(node, "simple_identifier")
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func hasChildToken(node *sitter.Node, token string) bool {
	return childOfKind(node, token) != nil
}

// typeName reduces a written type reference to its dotted name: generic
// arguments and whitespace are dropped.
func typeName(text string) string {
	if idx := strings.Index(text, "<"); idx >= 0 {
		text = text[:idx]
	}
	return strings.Join(strings.Fields(text), "")
}

func cleanType(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
