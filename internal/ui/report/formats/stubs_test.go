package formats

import (
	"strings"
	"testing"

	"facet/internal/engine/lang"
	"facet/internal/engine/resolve"
	"facet/internal/engine/stub"
)

func appStub() *stub.FileStub {
	return &stub.FileStub{
		Package: "com.example",
		Path:    "App.kt",
		Classes: []*stub.ClassNode{
			{
				Name:   "App",
				Binary: "com/example/App",
				Flags:  stub.AccPublic | stub.AccFinal,
				Kind:   lang.KindClass,
				SuperTypes: []resolve.SuperRef{
					{Name: "com.example.Handler", Resolved: true, Call: true},
				},
				Fields: []stub.Field{
					{Name: "name", Flags: stub.AccPrivate | stub.AccFinal, Type: "String"},
				},
				Methods: []stub.Method{
					{Name: "run", Flags: stub.AccPublic | stub.AccFinal, Params: []lang.Param{{Name: "limit", Type: "Int"}}},
				},
				Inner: []*stub.ClassNode{
					{
						Name:   "Inner",
						Binary: "com/example/App$Inner",
						Flags:  stub.AccPublic | stub.AccStatic | stub.AccFinal,
						Kind:   lang.KindClass,
					},
				},
			},
		},
	}
}

func TestStubsGenerator_RendersJavaFile(t *testing.T) {
	gen := NewStubsGenerator(true)
	files, err := gen.Generate(appStub())
	if err != nil {
		t.Fatalf("generate stubs: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 stub file, got %d", len(files))
	}

	if files[0].Path != "com/example/App.java" {
		t.Fatalf("unexpected stub path %q", files[0].Path)
	}
	content := files[0].Content
	if !strings.Contains(content, "package com.example;") {
		t.Fatalf("missing package header:\n%s", content)
	}
	if !strings.Contains(content, "public final class App extends com.example.Handler {") {
		t.Fatalf("missing class header:\n%s", content)
	}
	if !strings.Contains(content, "public static final class Inner {") {
		t.Fatalf("missing nested class:\n%s", content)
	}
	if !strings.Contains(content, "void run(Int limit)") {
		t.Fatalf("missing method signature:\n%s", content)
	}
}

func TestStubsGenerator_EmptyRoot(t *testing.T) {
	gen := NewStubsGenerator(false)
	files, err := gen.Generate(nil)
	if err != nil {
		t.Fatalf("generate stubs: %v", err)
	}
	if files != nil {
		t.Fatalf("expected no stub files, got %v", files)
	}
}

func TestVerifyJava_RejectsBrokenText(t *testing.T) {
	if err := VerifyJava("class {{{ not java"); err == nil {
		t.Fatal("expected verification error for broken text")
	}
	if err := VerifyJava("public final class App {\n}\n"); err != nil {
		t.Fatalf("expected valid stub to verify, got %v", err)
	}
}
