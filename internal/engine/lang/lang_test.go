package lang

import (
	"testing"
)

func testFile(path, pkg string) *File {
	return &File{Path: path, Package: pkg, Stamp: 1}
}

func TestModifiers(t *testing.T) {
	m := Modifiers{"private", "open"}
	if !m.Has("open") {
		t.Error("expected Has to find open")
	}
	if m.Has("abstract") {
		t.Error("expected Has to miss abstract")
	}
}

func TestDeclarationPredicates(t *testing.T) {
	f := testFile("a.kt", "com.example")
	top := &Declaration{Kind: KindClass, Name: "Top", File: f}
	nested := &Declaration{Kind: KindClass, Name: "Nested", File: f, Parent: top}
	top.Nested = []*Declaration{nested}
	method := &Member{Kind: MemberFunction, Name: "run", Owner: top}
	top.Members = []*Member{method}
	local := &Declaration{Kind: KindClass, Name: "Local", File: f, Host: method}
	method.Hosted = []*Declaration{local}
	deeper := &Declaration{Kind: KindClass, Name: "Deeper", File: f, Parent: local}
	local.Nested = []*Declaration{deeper}

	t.Run("TopLevel", func(t *testing.T) {
		if !top.TopLevel() {
			t.Error("top should be top-level")
		}
		if nested.TopLevel() || local.TopLevel() {
			t.Error("nested and local must not be top-level")
		}
	})

	t.Run("Local", func(t *testing.T) {
		if top.Local() || nested.Local() {
			t.Error("top and nested must not be local")
		}
		if !local.Local() {
			t.Error("member-hosted declaration must be local")
		}
		if !deeper.Local() {
			t.Error("class nested inside a local class must be local")
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		lit := &Declaration{Kind: KindObjectLiteral, File: f}
		if !lit.Anonymous() {
			t.Error("object literal must be anonymous")
		}
		if top.Anonymous() {
			t.Error("named class must not be anonymous")
		}
	})
}

func TestDeclarationClone(t *testing.T) {
	f := testFile("a.kt", "com.example")
	outer := &Declaration{
		Kind:           KindClass,
		Name:           "Outer",
		Modifiers:      Modifiers{"open"},
		TypeParameters: []TypeParameter{{Name: "T"}},
		SuperTypes:     []SuperTypeEntry{{Name: "Base", Call: true}},
		File:           f,
	}
	inner := &Declaration{Kind: KindClass, Name: "Inner", File: f, Parent: outer}
	outer.Nested = []*Declaration{inner}
	method := &Member{Kind: MemberFunction, Name: "run", Owner: outer}
	outer.Members = []*Member{method}
	local := &Declaration{Kind: KindClass, Name: "Local", File: f, Host: method}
	method.Hosted = []*Declaration{local}

	clone := outer.Clone()

	if clone == outer {
		t.Fatal("clone must be a new value")
	}
	if clone.File != f {
		t.Error("clone must share the original file")
	}
	if len(clone.Nested) != 1 || clone.Nested[0] == inner {
		t.Fatal("nested declarations must be deep-copied")
	}
	if clone.Nested[0].Parent != clone {
		t.Error("cloned nested declaration must point at the clone")
	}
	if clone.Members[0] == method {
		t.Fatal("members must be deep-copied")
	}
	if clone.Members[0].Hosted[0].Host != clone.Members[0] {
		t.Error("cloned hosted declaration must point at the cloned member")
	}

	clone.Nested[0].Name = "Renamed"
	clone.Modifiers = append(clone.Modifiers, "abstract")
	if inner.Name != "Inner" {
		t.Error("mutating the clone must not touch the original")
	}
	if outer.Modifiers.Has("abstract") {
		t.Error("modifier slices must not be shared")
	}
}

func TestFileWalk(t *testing.T) {
	f := testFile("a.kt", "com.example")
	top := &Declaration{Kind: KindClass, Name: "Top", File: f}
	nested := &Declaration{Kind: KindClass, Name: "Nested", File: f, Parent: top}
	top.Nested = []*Declaration{nested}
	method := &Member{Kind: MemberFunction, Name: "run", Owner: top}
	top.Members = []*Member{method}
	local := &Declaration{Kind: KindObjectLiteral, File: f, Host: method}
	method.Hosted = []*Declaration{local}
	f.Declarations = []*Declaration{top}

	fileFn := &Member{Kind: MemberFunction, Name: "main"}
	fnLocal := &Declaration{Kind: KindClass, Name: "Args", File: f, Host: fileFn}
	fileFn.Hosted = []*Declaration{fnLocal}
	f.Members = []*Member{fileFn}

	var names []string
	f.Walk(func(d *Declaration) {
		name := d.Name
		if name == "" {
			name = "<literal>"
		}
		names = append(names, name)
	})

	want := []string{"Top", "Nested", "<literal>", "Args"}
	if len(names) != len(want) {
		t.Fatalf("expected %d declarations, got %d: %v", len(want), len(names), names)
	}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("walk order mismatch at %d: expected %s, got %s", i, w, names[i])
		}
	}
}
