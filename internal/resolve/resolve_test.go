package resolve

import (
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// resolveSource parses src and resolves it.
func resolveSource(t *testing.T, src string, modules ...string) (*Info, *diag.Bag) {
	t.Helper()
	file, errs := syntax.Parse("test.wj", strings.NewReader(src))
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bag := diag.NewBag()
	info := Resolve(file, &Config{Modules: modules}, bag)
	return info, bag
}

func diagText(bag *diag.Bag) string {
	var lines []string
	for _, d := range bag.Sorted() {
		line := d.String()
		if d.Help != "" {
			line += " (help: " + d.Help + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func expectNoErrors(t *testing.T, src string, modules ...string) *Info {
	t.Helper()
	info, bag := resolveSource(t, src, modules...)
	if bag.Len() > 0 {
		t.Errorf("unexpected diagnostics:\n%s", diagText(bag))
	}
	return info
}

// expectErrors checks that resolution reports code with each message
// substring.
func expectErrors(t *testing.T, src, code string, msgs ...string) {
	t.Helper()
	_, bag := resolveSource(t, src)
	if !bag.Has(code) {
		t.Fatalf("expected %s, got:\n%s", code, diagText(bag))
	}
	text := diagText(bag)
	for _, m := range msgs {
		if !strings.Contains(text, m) {
			t.Errorf("expected diagnostic containing %q, got:\n%s", m, text)
		}
	}
}

const cleanProgram = `use std::json
use std::collections::HashMap

@derive(Clone, Debug)
struct Point {
    x: int,
    y: int
}

impl Point {
    fn new(x: int, y: int) -> Point {
        Point { x, y }
    }

    fn dist2(&self) -> int {
        self.x * self.x + self.y * self.y
    }
}

enum Shape {
    Circle(float),
    Rect { w: float, h: float },
    Empty
}

fn area(s: Shape) -> float {
    match s {
        Shape::Circle(r) => 3.14 * r * r,
        Shape::Rect { w, h } => w * h,
        Shape::Empty => 0.0,
    }
}

fn add(a, b) {
    a + b
}

fn main() {
    let p = Point::new(1, 2)
    let mut total = 0
    for i in 0..10 {
        total += i
    }
    let scores: HashMap<string, int> = HashMap::new()
    let names = vec!["a", "b"]
    for n in &names {
        println!("{}", n)
    }
    let s = json::stringify(&p)
    let f = |x: int| x + 1
    let shape = Shape::Circle(1.0)
    println!("{} {} {} {} {} {}", p.dist2(), total, add(1, 2), f(3), s, area(shape))
}
`

func TestResolveClean(t *testing.T) {
	info := expectNoErrors(t, cleanProgram)
	if got := strings.Join(info.Imports, ","); got != "std::json,std::collections::HashMap" {
		t.Errorf("Imports = %s", got)
	}
	if info.Pkg.Name() != "test" {
		t.Errorf("package name = %q", info.Pkg.Name())
	}
	p := info.Named("Point")
	if p == nil || p.NumMethods() != 2 {
		t.Fatalf("Point = %v", p)
	}
	if st, ok := p.Underlying().(*types.Struct); !ok || st.NumFields() != 2 {
		t.Errorf("Point underlying = %v", p.Underlying())
	}
	shape := info.Named("Shape")
	en, ok := shape.Underlying().(*types.Enum)
	if !ok || len(en.Variants()) != 3 || !en.Variant("Circle").Tuple {
		t.Errorf("Shape underlying = %v", shape.Underlying())
	}
}

func TestUnknownName(t *testing.T) {
	expectErrors(t, "fn main() {\n    let count = 1\n    println!(\"{}\", coutn)\n}\n",
		diag.UnknownName, "cannot find value `coutn`", "did you mean `count`?")
}

func TestUnknownFunction(t *testing.T) {
	expectErrors(t, "fn helper() {}\nfn main() {\n    helpr()\n}\n",
		diag.UnknownFunction, "cannot find function `helpr`", "did you mean `helper`?")
}

func TestUnknownType(t *testing.T) {
	expectErrors(t, "fn f(m: HashMapp<string, int>) {}\n",
		diag.UnknownType, "cannot find type `HashMapp`", "did you mean `HashMap`?")
	expectErrors(t, "fn f<T: Frobnicate>(x: T) {}\n", diag.UnknownType, "`Frobnicate`")
	expectErrors(t, "fn main() {\n    let p = Pointt { x: 1 }\n}\n", diag.UnknownType, "`Pointt`")
}

func TestUnknownModule(t *testing.T) {
	expectErrors(t, "use std::jsn\n", diag.UnknownModule, "unresolved import `std::jsn`", "did you mean `std::json`?")
	expectErrors(t, "use foo::bar\n", diag.UnknownModule, "unresolved import `foo::bar`")
	expectErrors(t, "fn main() {\n    nothere::go()\n}\n", diag.UnknownModule, "`nothere`")
}

func TestProjectModules(t *testing.T) {
	info := expectNoErrors(t, "use utils::helper\nuse crate::models\nfn main() {\n    helper()\n    utils::other()\n}\n", "utils")
	if got := strings.Join(info.Imports, ","); got != "utils::helper,crate::models" {
		t.Errorf("Imports = %s", got)
	}
	m, ok := info.Pkg.Scope().Lookup("helper").(*types.Module)
	if !ok || !m.IsMember() || m.IsStd() {
		t.Errorf("helper = %v", info.Pkg.Scope().Lookup("helper"))
	}
}

func TestStdImports(t *testing.T) {
	info := expectNoErrors(t, `use std::math
use std::json::parse
use std::collections::HashMap as Dict

fn main() {
    let r = math::sqrt(2.0)
    let d: Dict<string, int> = Dict::new()
}
`)
	if got := len(info.Imports); got != 3 {
		t.Errorf("len(Imports) = %d", got)
	}
	m, ok := info.Pkg.Scope().Lookup("math").(*types.Module)
	if !ok || !m.IsStd() || m.IsMember() {
		t.Errorf("math = %v", info.Pkg.Scope().Lookup("math"))
	}
	if _, ok := info.Pkg.Scope().Lookup("Dict").(*types.TypeName); !ok {
		t.Error("alias Dict not declared as a type")
	}
}

func TestUnknownStdFunction(t *testing.T) {
	expectErrors(t, "use std::json\nfn main() {\n    json::stringfy(1)\n}\n",
		diag.UnknownFunction, "`stringfy`", "did you mean `json::stringify`?")
}

func TestMissingField(t *testing.T) {
	const decl = "struct P {\n    x: int,\n    y: int,\n    z: int\n}\n"
	expectErrors(t, decl+"fn main() {\n    let p = P { x: 1 }\n}\n",
		diag.MissingField, "missing fields `y` and `z` in initializer of struct `P`")
	expectErrors(t, decl+"fn main() {\n    let p = P { x: 1, y: 2, z: 3, w: 4 }\n}\n",
		diag.MissingField, "struct `P` has no field named `w`")
	expectNoErrors(t, decl+"fn main() {\n    let p = P { x: 1, y: 2, z: 3 }\n    let q = P { x: 5, ..p }\n}\n")
}

func TestTypeMismatch(t *testing.T) {
	tests := []struct {
		name, src, msg string
	}{
		{"let", "fn main() {\n    let x: int = \"hi\"\n}\n", "expected `int`, found `string`"},
		{"cond", "fn main() {\n    if 1 {\n    }\n}\n", "expected `bool`, found `int`"},
		{"return", "fn f() -> int {\n    return \"no\"\n}\n", "expected `int`, found `string`"},
		{"tail", "fn f() -> bool {\n    1.5\n}\n", "expected `bool`, found `float`"},
		{"arg", "fn f(x: int) {}\nfn main() {\n    f(true)\n}\n", "expected `int`, found `bool`"},
		{"arity", "fn f(x: int) {}\nfn main() {\n    f(1, 2)\n}\n", "takes 1 argument but 2 were supplied"},
		{"field", "struct P {\n    x: int\n}\nfn main() {\n    let p = P { x: \"s\" }\n}\n", "expected `int`, found `string`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrors(t, tt.src, diag.TypeMismatch, tt.msg)
		})
	}
}

func TestNoMismatchForGenericsAndStrings(t *testing.T) {
	expectNoErrors(t, `fn greet(name: &str) -> string {
    format!("hi {}", name)
}

fn first(items) {
    items[0]
}

fn main() {
    let s: string = "abc"
    let g = greet("bob")
    let v = vec![1, 2, 3]
    let x = first(v)
    let f: float = 1
}
`)
}

func TestRedeclared(t *testing.T) {
	expectErrors(t, "fn area() {}\nfn area() {}\n", diag.Redeclared, "`area` is defined multiple times")
	expectErrors(t, "fn f(a: int, a: int) {}\n", diag.Redeclared, "`a`")
}

func TestUnknownVariant(t *testing.T) {
	expectErrors(t, "enum Color {\n    Red,\n    Green\n}\nfn main() {\n    let c = Color::Gren\n}\n",
		diag.UnknownName, "no variant named `Gren`", "did you mean `Color::Green`?")
}

func TestBindingIDsAndShadowing(t *testing.T) {
	info := expectNoErrors(t, "fn main() {\n    let x = 1\n    let x = x + 1\n    println!(\"{}\", x)\n}\n")

	var defs []*types.Var
	for name, obj := range info.Defs {
		if v, ok := obj.(*types.Var); ok && name.Value == "x" {
			defs = append(defs, v)
		}
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions of x, want 2", len(defs))
	}
	if defs[0].ID() == defs[1].ID() {
		t.Error("shadowed bindings share an id")
	}
	for _, v := range defs {
		if info.Vars[v.ID()] != v {
			t.Errorf("Vars[%d] = %v, want %v", v.ID(), info.Vars[v.ID()], v)
		}
	}

	// The x in the second initializer refers to the first binding; the x
	// printed refers to the second.
	var uses []*types.Var
	syntax.Walk(info.Pkg.Scope().Lookup("main").(*types.FuncObj).Decl(), func(n syntax.Node) bool {
		if name, ok := n.(*syntax.Name); ok && name.Value == "x" {
			if v := info.Uses[name]; v != nil {
				uses = append(uses, v.(*types.Var))
			}
		}
		return true
	})
	if len(uses) != 2 || uses[0] == uses[1] || uses[0].ID() > uses[1].ID() {
		t.Errorf("uses of x = %v", uses)
	}
}

func TestInferredResults(t *testing.T) {
	info := expectNoErrors(t, `fn double(x: int) {
    x * 2
}

fn id(x) {
    x
}

fn early(n: int) {
    if n > 0 {
        return "pos"
    }
    "neg"
}

fn quad(x: int) {
    double(double(x))
}

fn sign(n: int) {
    if n > 0 {
        "pos"
    } else if n < 0 {
        "neg"
    } else {
        "zero"
    }
}

fn main() {
    let a = quad(2)
}
`)
	tests := []struct {
		fn, result string
	}{
		{"double", "int"},
		{"id", "_x"},
		{"early", "string"},
		{"quad", "int"},
		{"sign", "string"},
		{"main", "()"},
	}
	for _, tt := range tests {
		f := info.Func(tt.fn)
		if f == nil {
			t.Fatalf("func %s missing", tt.fn)
		}
		if got := f.Signature().Result().String(); got != tt.result {
			t.Errorf("%s result = %s, want %s", tt.fn, got, tt.result)
		}
	}
	p := info.Func("id").Signature().Param(0)
	tp, ok := p.Type().(*types.TypeParam)
	if !ok || !tp.Implicit() {
		t.Errorf("id param type = %v, want implicit type parameter", p.Type())
	}
}

func TestExprTypes(t *testing.T) {
	info := expectNoErrors(t, `struct Box2 {
    items: Vec<string>
}

fn main() {
    let b = Box2 { items: Vec::new() }
    let n = b.items.len()
    let first = b.items.get(0)
    let t = (1, "a")
    let o = Some(3)
    let up = "x".to_uppercase()
}
`)
	want := map[string]string{
		"b":     "Box2",
		"n":     "int",
		"first": "Option<string>",
		"t":     "(int, string)",
		"o":     "Option<int>",
		"up":    "string",
	}
	for name, obj := range info.Defs {
		v, ok := obj.(*types.Var)
		if !ok || v.Kind() != types.LocalVar {
			continue
		}
		if w, ok := want[name.Value]; ok {
			if got := v.Type().String(); got != w {
				t.Errorf("type of %s = %s, want %s", name.Value, got, w)
			}
			delete(want, name.Value)
		}
	}
	if len(want) > 0 {
		t.Errorf("bindings not found: %v", want)
	}
}

func TestScopesRecorded(t *testing.T) {
	info := expectNoErrors(t, "fn main() {\n    for i in 0..3 {\n        let y = i\n    }\n    let f = |a: int| a\n}\n")
	kinds := make(map[types.ScopeKind]int)
	for _, s := range info.Scopes {
		kinds[s.Kind()]++
	}
	if kinds[types.FuncScope] != 1 || kinds[types.ClosureScope] != 1 || kinds[types.BlockScope] < 3 {
		t.Errorf("scope kinds = %v", kinds)
	}
	main := info.Pkg.Scope().Lookup("main").(*types.FuncObj)
	if s := info.Scopes[main.Decl()]; s == nil || s.Parent() != info.Pkg.Scope() {
		t.Error("function scope not nested in the package scope")
	}
}

func TestClosest(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"coutn", []string{"count", "main"}, "count"},
		{"x", []string{"y", "z"}, "y"},
		{"HashMapp", []string{"HashSet", "HashMap"}, "HashMap"},
		{"totally", []string{"main", "count"}, ""},
		{"same", []string{"same"}, ""},
	}
	for _, tt := range tests {
		if got := closest(tt.name, tt.candidates); got != tt.want {
			t.Errorf("closest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
