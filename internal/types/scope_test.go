package types

import (
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// Helper function to create a scope for testing
func testScope(parent *Scope, comment string) *Scope {
	return NewScope(parent, BlockScope, syntax.Pos{}, syntax.Pos{}, comment)
}

func TestScopeInsertAndLookup(t *testing.T) {
	scope := testScope(nil, "test")

	obj := NewVar(syntax.Pos{}, "x", Typ[Int])
	if existing := scope.Insert(obj); existing != nil {
		t.Errorf("Insert() returned non-nil for first insert")
	}
	if found := scope.Lookup("x"); found != obj {
		t.Errorf("Lookup() did not return inserted object")
	}

	obj2 := NewVar(syntax.Pos{}, "x", Typ[Float])
	if existing := scope.Insert(obj2); existing != obj {
		t.Errorf("Insert() should return first object for duplicate")
	}
	if obj.Parent() != scope {
		t.Errorf("Parent() not set by Insert")
	}
}

func TestScopeShadow(t *testing.T) {
	scope := testScope(nil, "block")
	first := NewVar(syntax.Pos{}, "x", Typ[Int])
	second := NewVar(syntax.Pos{}, "x", Typ[String])
	scope.Insert(first)
	scope.Shadow(second)
	if scope.Lookup("x") != second {
		t.Errorf("Shadow() did not replace the binding")
	}
}

func TestScopeLookupParent(t *testing.T) {
	parent := testScope(nil, "parent")
	child := testScope(parent, "child")

	obj := NewVar(syntax.Pos{}, "x", Typ[Int])
	parent.Insert(obj)

	found, foundScope := child.LookupParent("x")
	if found != obj || foundScope != parent {
		t.Errorf("LookupParent() = %v, %v", found, foundScope)
	}
	if child.Lookup("x") != nil {
		t.Errorf("Lookup() should not find parent's object")
	}
	if o, s := child.LookupParent("missing"); o != nil || s != nil {
		t.Errorf("LookupParent(missing) = %v, %v", o, s)
	}
}

func TestScopeHierarchy(t *testing.T) {
	pkg := NewPackage("main")
	fn := NewScope(pkg.Scope(), FuncScope, syntax.Pos{}, syntax.Pos{}, "fn main")
	block := testScope(fn, "block")

	if pkg.Scope().Parent() != Universe {
		t.Fatal("package scope should be a child of Universe")
	}
	if block.Func() != fn {
		t.Errorf("Func() = %v, want fn scope", block.Func())
	}
	if len(fn.Children()) != 1 {
		t.Errorf("fn scope children = %d, want 1", len(fn.Children()))
	}

	// Predeclared names are visible from every scope.
	for _, name := range []string{"int", "string", "Vec", "Option", "Some", "Clone", "i64"} {
		if obj, _ := block.LookupParent(name); obj == nil {
			t.Errorf("%s not visible from block scope", name)
		}
	}
}

func TestVisibleNames(t *testing.T) {
	pkg := NewPackage("main")
	pkg.Scope().Insert(NewFuncObj(syntax.Pos{}, "helper", nil))
	fn := NewScope(pkg.Scope(), FuncScope, syntax.Pos{}, syntax.Pos{}, "fn main")
	fn.Insert(NewVar(syntax.Pos{}, "count", Typ[Int]))
	fn.Insert(NewVar(syntax.Pos{}, "helper", Typ[Int]))

	got := strings.Join(fn.VisibleNames(), ",")
	if got != "count,helper" {
		t.Errorf("VisibleNames() = %q, want \"count,helper\"", got)
	}
}

func TestScopeString(t *testing.T) {
	s := testScope(nil, "f")
	s.Insert(NewVar(syntax.Pos{}, "b", Typ[Bool]))
	s.Insert(NewVar(syntax.Pos{}, "a", Typ[Int]))
	want := "scope f {\n  a: int\n  b: bool\n}\n"
	if s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
}

func TestPackageImports(t *testing.T) {
	pkg := NewPackage("main")
	pkg.AddImport(NewModule(syntax.Pos{}, "json", "std::json", true, false))
	pkg.AddImport(NewModule(syntax.Pos{}, "csv", "std::csv", true, false))
	pkg.AddImport(NewModule(syntax.Pos{}, "json", "std::json", true, false))

	var paths []string
	for _, m := range pkg.Imports() {
		paths = append(paths, m.Path())
	}
	if got := strings.Join(paths, " "); got != "std::csv std::json" {
		t.Errorf("Imports() = %q", got)
	}
}
