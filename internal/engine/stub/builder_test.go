package stub

import (
	"testing"

	apperrors "facet/internal/core/errors"
	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
)

// outerFixture builds the declaration tree for:
//
//	open class Base
//	interface Greeter
//	class Outer<T> : Base(), Greeter {
//	    private class Inner
//	    fun run(name: String) { class Local }
//	    val size: Int
//	    init { object : Greeter {} }
//	}
func outerFixture(t *testing.T) (*resolve.Registry, *lang.Declaration) {
	t.Helper()
	f := &lang.File{Path: "src/outer.kt", Package: "com.example", Stamp: 7}
	base := &lang.Declaration{Kind: lang.KindClass, Name: "Base", File: f, Modifiers: lang.Modifiers{"open"}}
	greeter := &lang.Declaration{Kind: lang.KindInterface, Name: "Greeter", File: f}
	outer := &lang.Declaration{
		Kind:           lang.KindClass,
		Name:           "Outer",
		File:           f,
		TypeParameters: []lang.TypeParameter{{Name: "T"}},
		SuperTypes: []lang.SuperTypeEntry{
			{Name: "Base", Call: true},
			{Name: "Greeter"},
		},
		Text: "class Outer<T> : Base(), Greeter",
	}
	inner := &lang.Declaration{Kind: lang.KindClass, Name: "Inner", File: f, Parent: outer,
		Modifiers: lang.Modifiers{"private"}}
	outer.Nested = []*lang.Declaration{inner}

	run := &lang.Member{Kind: lang.MemberFunction, Name: "run", Owner: outer,
		Params: []lang.Param{{Name: "name", Type: "String"}}}
	local := &lang.Declaration{Kind: lang.KindClass, Name: "Local", File: f, Host: run}
	run.Hosted = []*lang.Declaration{local}

	size := &lang.Member{Kind: lang.MemberProperty, Name: "size", Type: "Int", Owner: outer}

	initBlock := &lang.Member{Kind: lang.MemberInitializer, Owner: outer}
	literal := &lang.Declaration{Kind: lang.KindObjectLiteral, File: f, Host: initBlock,
		SuperTypes: []lang.SuperTypeEntry{{Name: "Greeter"}}}
	initBlock.Hosted = []*lang.Declaration{literal}

	outer.Members = []*lang.Member{run, size, initBlock}
	f.Declarations = []*lang.Declaration{base, greeter, outer}

	reg := resolve.NewRegistry()
	reg.IndexFile(f)
	return reg, outer
}

func TestBuild(t *testing.T) {
	reg, outer := outerFixture(t)
	bundle, err := NewBuilder(reg).Build(outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("RootNode", func(t *testing.T) {
		root := bundle.Root.Classes[0]
		if root.Binary != "com/example/Outer" {
			t.Errorf("expected com/example/Outer, got %s", root.Binary)
		}
		if len(root.TypeParameters) != 1 || root.TypeParameters[0] != "T" {
			t.Errorf("type parameters not carried: %v", root.TypeParameters)
		}
		if bundle.Stamp != 7 {
			t.Errorf("expected bundle stamp 7, got %d", bundle.Stamp)
		}
	})

	t.Run("NestedNode", func(t *testing.T) {
		node := bundle.FindClass("com.example.Outer.Inner")
		if node == nil {
			t.Fatal("Inner node missing")
		}
		if !node.Flags.IsPrivate() || !node.Flags.IsStatic() || !node.Flags.IsFinal() {
			t.Errorf("Inner flags wrong: %v", node.Flags.Keywords())
		}
		if node.Local {
			t.Error("body-nested class must not be marked local")
		}
	})

	t.Run("LocalAndAnonymousNames", func(t *testing.T) {
		local := bundle.FindClass("com.example.Outer.1Local")
		if local == nil || !local.Local {
			t.Fatal("expected synthesized node com.example.Outer.1Local")
		}
		literal := bundle.FindClass("com.example.Outer.2")
		if literal == nil || literal.Kind != lang.KindObjectLiteral {
			t.Fatal("expected synthesized node com.example.Outer.2 for the object literal")
		}
	})

	t.Run("MembersMapped", func(t *testing.T) {
		root := bundle.Root.Classes[0]
		if len(root.Methods) != 1 || root.Methods[0].Name != "run" {
			t.Fatalf("methods not mapped: %+v", root.Methods)
		}
		if len(root.Methods[0].Params) != 1 || root.Methods[0].Params[0].Type != "String" {
			t.Errorf("params not carried: %+v", root.Methods[0].Params)
		}
		if len(root.Fields) != 1 || root.Fields[0].Name != "size" || root.Fields[0].Type != "Int" {
			t.Errorf("fields not mapped: %+v", root.Fields)
		}
	})

	t.Run("InfoForEveryDeclaration", func(t *testing.T) {
		count := 0
		var check func(d *lang.Declaration)
		check = func(d *lang.Declaration) {
			count++
			if _, ok := bundle.InfoFor(d); !ok {
				t.Errorf("no ClassInfo for %s (%s)", d.Name, d.Kind)
			}
			for _, n := range d.Nested {
				check(n)
			}
			for _, m := range d.Members {
				for _, h := range m.Hosted {
					check(h)
				}
			}
		}
		check(outer)
		if count != 4 {
			t.Errorf("expected 4 declarations walked, got %d", count)
		}
	})

	t.Run("SupertypesResolved", func(t *testing.T) {
		info, ok := bundle.InfoFor(outer)
		if !ok {
			t.Fatal("no info for Outer")
		}
		if len(info.SuperTypes) != 2 {
			t.Fatalf("expected 2 supertypes, got %+v", info.SuperTypes)
		}
		if info.SuperTypes[0].Name != "com.example.Base" || !info.SuperTypes[0].Call {
			t.Errorf("class supertype wrong: %+v", info.SuperTypes[0])
		}
		if info.SuperTypes[1].Name != "com.example.Greeter" || !info.SuperTypes[1].Resolved {
			t.Errorf("interface supertype wrong: %+v", info.SuperTypes[1])
		}
	})

	t.Run("InfoForDetachedCopy", func(t *testing.T) {
		clone := outer.Clone()
		info, ok := bundle.InfoFor(clone)
		if !ok {
			t.Fatal("expected predicted-name fallback to find the clone's info")
		}
		if info.QualifiedName != "com.example.Outer" {
			t.Errorf("wrong info for clone: %s", info.QualifiedName)
		}
	})
}

func TestBuildRejectsNonTopLevel(t *testing.T) {
	reg, outer := outerFixture(t)
	_, err := NewBuilder(reg).Build(outer.Nested[0])
	if err == nil {
		t.Fatal("expected an error for a nested build root")
	}
	if !apperrors.IsCode(err, apperrors.CodeInvariantViolation) {
		t.Errorf("expected INVARIANT_VIOLATION, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	reg, outer := outerFixture(t)
	b := NewBuilder(reg)
	first, err := b.Build(outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := b.Build(outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var firstNames, secondNames []string
	first.EachClass(func(n *ClassNode) { firstNames = append(firstNames, n.Binary) })
	second.EachClass(func(n *ClassNode) { secondNames = append(secondNames, n.Binary) })
	if len(firstNames) != len(secondNames) {
		t.Fatalf("node counts differ: %d vs %d", len(firstNames), len(secondNames))
	}
	for i := range firstNames {
		if firstNames[i] != secondNames[i] {
			t.Errorf("binary name %d differs: %s vs %s", i, firstNames[i], secondNames[i])
		}
	}
}
