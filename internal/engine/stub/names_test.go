package stub

import (
	"testing"

	"facet/internal/engine/lang"
)

func TestPredictInternalName(t *testing.T) {
	f := &lang.File{Path: "a.kt", Package: "com.example"}
	top := &lang.Declaration{Kind: lang.KindClass, Name: "Outer", File: f}
	nested := &lang.Declaration{Kind: lang.KindClass, Name: "Inner", File: f, Parent: top}
	top.Nested = []*lang.Declaration{nested}
	method := &lang.Member{Kind: lang.MemberFunction, Name: "run", Owner: top}
	top.Members = []*lang.Member{method}
	local := &lang.Declaration{Kind: lang.KindClass, Name: "Local", File: f, Host: method}
	method.Hosted = []*lang.Declaration{local}
	insideLocal := &lang.Declaration{Kind: lang.KindClass, Name: "Deeper", File: f, Parent: local}
	local.Nested = []*lang.Declaration{insideLocal}

	cases := []struct {
		name string
		decl *lang.Declaration
		want string
	}{
		{"TopLevel", top, "com/example/Outer"},
		{"Nested", nested, "com/example/Outer$Inner"},
		{"LocalHasNoPrediction", local, ""},
		{"NestedInsideLocalHasNoPrediction", insideLocal, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PredictInternalName(tc.decl); got != tc.want {
				t.Errorf("PredictInternalName(%s) = %q, expected %q", tc.decl.Name, got, tc.want)
			}
		})
	}

	t.Run("Anonymous", func(t *testing.T) {
		lit := &lang.Declaration{Kind: lang.KindObjectLiteral, File: f, Host: method}
		if got := PredictInternalName(lit); got != "" {
			t.Errorf("expected no prediction for object literal, got %q", got)
		}
	})

	t.Run("DefaultPackage", func(t *testing.T) {
		root := &lang.File{Path: "b.kt"}
		decl := &lang.Declaration{Kind: lang.KindClass, Name: "Bare", File: root}
		if got := PredictInternalName(decl); got != "Bare" {
			t.Errorf("expected Bare, got %q", got)
		}
	})
}

func TestQualifiedNameOf(t *testing.T) {
	cases := []struct {
		internal string
		want     string
	}{
		{"com/example/Outer", "com.example.Outer"},
		{"com/example/Outer$Inner", "com.example.Outer.Inner"},
		{"com/example/Outer$1Local", "com.example.Outer.1Local"},
		{"Bare", "Bare"},
	}
	for _, tc := range cases {
		if got := QualifiedNameOf(tc.internal); got != tc.want {
			t.Errorf("QualifiedNameOf(%q) = %q, expected %q", tc.internal, got, tc.want)
		}
	}
}

func TestShortNameOf(t *testing.T) {
	if got := ShortNameOf("com.example.Outer.Inner"); got != "Inner" {
		t.Errorf("expected Inner, got %q", got)
	}
	if got := ShortNameOf("Bare"); got != "Bare" {
		t.Errorf("expected Bare, got %q", got)
	}
}
