package report

import (
	"strings"
	"testing"
)

const sampleSource = `package com.example

import com.example.io.Writer

class Greeter(val writer: Writer) {
	fun greet(name: String) {
		writer.write("hello " + name)
	}
}

fun main() {
	Greeter(Writer()).greet("world")
}
`

func TestGetClassContext_Found(t *testing.T) {
	ctx := GetClassContext("Greeter", "Greeter.kt", []byte(sampleSource))
	if ctx.Class != "Greeter" {
		t.Errorf("class mismatch: got %q", ctx.Class)
	}
	if len(ctx.Snippets) != 2 {
		t.Fatalf("expected declaration and call-site snippets, got %d", len(ctx.Snippets))
	}
	if ctx.Snippets[0].Line != 5 {
		t.Errorf("expected declaration snippet at line 5, got %d", ctx.Snippets[0].Line)
	}
}

func TestGetClassContext_NotFound(t *testing.T) {
	ctx := GetClassContext("Absent", "Greeter.kt", []byte(sampleSource))
	if len(ctx.Snippets) != 0 {
		t.Errorf("expected 0 snippets for absent class, got %d", len(ctx.Snippets))
	}
}

func TestGetClassContext_Empty(t *testing.T) {
	ctx := GetClassContext("", "Greeter.kt", []byte(sampleSource))
	if len(ctx.Snippets) != 0 {
		t.Error("expected no snippets for empty class name")
	}
	ctx2 := GetClassContext("Greeter", "", []byte{})
	if len(ctx2.Snippets) != 0 {
		t.Error("expected no snippets for empty content")
	}
}

func TestGetClassContext_ContextRadius(t *testing.T) {
	ctx := GetClassContext("Writer", "Greeter.kt", []byte(sampleSource))
	if len(ctx.Snippets) == 0 {
		t.Fatal("expected snippets for Writer")
	}
	maxLines := 2*contextRadius + 1
	for _, s := range ctx.Snippets {
		if len(s.Context) > maxLines {
			t.Errorf("context has %d lines, max expected %d", len(s.Context), maxLines)
		}
		for _, line := range s.Context {
			if !strings.Contains(line, ": ") {
				t.Errorf("context line missing colon separator: %q", line)
			}
		}
	}
}

func TestContainsSymbol_WordBoundary(t *testing.T) {
	// "Handler" must not match inside "EventHandler".
	if containsSymbol("class EventHandler : Runnable", "Handler") {
		t.Error("'Handler' should not match inside 'EventHandler'")
	}
	if !containsSymbol("class Handler : Runnable", "Handler") {
		t.Error("'Handler' word-boundary match failed")
	}
}

func TestSplitLines(t *testing.T) {
	lines := splitLines([]byte("a\nb\nc\n"))
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d: %v", len(lines), lines)
	}
}
