package opt

import (
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
)

func parseSource(t *testing.T, src string) *syntax.File {
	t.Helper()
	file, errs := syntax.Parse("test.wj", strings.NewReader(src))
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return file
}

// optimize runs the full pipeline over src and fails on an internal
// error.
func optimize(t *testing.T, src string, cfg Config) (*Unit, []PassStats, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	u, stats, err := Optimize(parseSource(t, src), nil, cfg, bag)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	return u, stats, bag
}

func funcNamed(t *testing.T, file *syntax.File, name string) *syntax.FuncDecl {
	t.Helper()
	for _, fn := range funcs(file) {
		if fn.Name.Value == name {
			return fn
		}
	}
	t.Fatalf("no function named %s", name)
	return nil
}

func itemNames(file *syntax.File) []string {
	var out []string
	for _, d := range file.Items {
		out = append(out, itemName(d))
	}
	return out
}

func changedBy(stats []PassStats, name string) int {
	for _, s := range stats {
		if s.Name == name {
			return s.ChangedNodes
		}
	}
	return -1
}

func TestOptimizeKeepsInput(t *testing.T) {
	file := parseSource(t, hoistProgram)
	before := syntax.String(file)
	if _, _, err := Optimize(file, nil, Config{}, nil); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if after := syntax.String(file); after != before {
		t.Errorf("input tree changed:\n%s\nwant:\n%s", after, before)
	}
}

func TestFoldConstants(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string // folded literal; empty if the expression is kept
	}{
		{"arithmetic", "2 * 3 + 4", "10"},
		{"negative", "3 - 5", "-2"},
		{"comparison", "3 < 4", "true"},
		{"string equality", `"a" == "a"`, "true"},
		{"short circuit", "true && false", "false"},
		{"identity", "b && true", ""},
		{"or constant", "false || b", ""},
		{"division by zero", "1 / 0", ""},
		{"parenthesized", "(7) % 4", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn f(b: bool) {\n    " + tt.expr + "\n}\n"
			u, _, _ := optimize(t, src, Config{})
			tail := funcNamed(t, u.File, "f").Body.TailExpr()
			lit, ok := tail.(*syntax.BasicLit)
			switch {
			case tt.want == "" && ok:
				t.Errorf("%s folded to %s, want it kept", tt.expr, lit.Value)
			case tt.want != "" && !ok:
				t.Errorf("%s folded to %s, want %s", tt.expr, syntax.String(tail), tt.want)
			case ok && lit.Value != tt.want:
				t.Errorf("%s = %s, want %s", tt.expr, lit.Value, tt.want)
			}
		})
	}
}

func TestFoldShortCircuitOperand(t *testing.T) {
	u, _, _ := optimize(t, "fn f(b: bool) {\n    b && true\n}\n", Config{})
	tail := funcNamed(t, u.File, "f").Body.TailExpr()
	if !isName(tail, "b") {
		t.Errorf("b && true folded to %s, want b", syntax.String(tail))
	}
}

func TestDeadCode(t *testing.T) {
	u, _, _ := optimize(t, `
fn f() -> int {
    let unused = 1 + 2
    if false {
        println("never")
    }
    return 7
    println("after")
}
`, Config{})
	stmts := funcNamed(t, u.File, "f").Body.Stmts
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want only the return:\n%s", len(stmts), syntax.String(u.File))
	}
	if _, ok := stmts[0].(*syntax.ReturnStmt); !ok {
		t.Errorf("remaining statement is %T, want *syntax.ReturnStmt", stmts[0])
	}
}

func TestDeadCodeKeepsEffects(t *testing.T) {
	u, _, _ := optimize(t, `
fn g() -> int {
    println("effect")
    1
}

fn main() {
    let unused = g()
}
`, Config{})
	if n := len(funcNamed(t, u.File, "main").Body.Stmts); n != 1 {
		t.Errorf("main has %d statements, want the call kept", n)
	}
}

func TestInternStrings(t *testing.T) {
	u, _, _ := optimize(t, `
fn main() {
    let a = "hi"
    let b = "hi"
    let c = "once"
    println("{} {} {}", a, b, c)
    println("{} {} {}", a, b, c)
}
`, Config{})
	if len(u.Interned) != 1 || u.Interned[0] != "hi" {
		t.Fatalf("Interned = %q, want [hi]", u.Interned)
	}
	ids := map[string][]int{}
	syntax.Inspect(u.File, func(n syntax.Node) {
		if l, ok := n.(*syntax.BasicLit); ok && l.Kind == syntax.StringLit {
			ids[l.Value] = append(ids[l.Value], l.InternID)
		}
	})
	if got := ids["hi"]; len(got) != 2 || got[0] != 0 || got[1] != 0 {
		t.Errorf("hi ids = %v, want [0 0]", got)
	}
	if got := ids["once"]; len(got) != 1 || got[0] != -1 {
		t.Errorf("once ids = %v, want [-1]", got)
	}
	for _, id := range ids["{} {} {}"] {
		if id != -1 {
			t.Errorf("format string interned as %d", id)
		}
	}
}

func TestTreeShake(t *testing.T) {
	const src = "fn u() -> int { 42 }\nfn x() -> int { 100 }\nfn main() { u() }\n"

	u, _, _ := optimize(t, src, Config{TreeShake: true, JavaScript: true})
	got := strings.Join(itemNames(u.File), " ")
	if got != "u main" {
		t.Errorf("items = %s, want u main", got)
	}

	u, _, _ = optimize(t, src, Config{})
	if n := len(u.File.Items); n != 3 {
		t.Errorf("without tree shaking got %d items, want 3", n)
	}
}

func TestTreeShakeRecursive(t *testing.T) {
	const rec = `
fn countdown(n: int) -> int {
    if n == 0 {
        return 0
    }
    countdown(n - 1)
}
`
	tests := []struct {
		name string
		main string
		want string
	}{
		{"unreachable", "fn main() {}\n", "main"},
		{"reachable", "fn main() { countdown(3) }\n", "countdown main"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _, _ := optimize(t, rec+tt.main, Config{TreeShake: true})
			if got := strings.Join(itemNames(u.File), " "); got != tt.want {
				t.Errorf("items = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTreeShakeRoots(t *testing.T) {
	u, _, _ := optimize(t, `
struct Point {
    x: int,
}

impl Point {
    fn used(&self) -> int { self.x }
    fn unused(&self) -> int { 0 }
}

struct Orphan {}

pub fn api() -> int { 1 }

#[test]
fn check() {}

fn dead() {}

fn main() {
    let p = Point { x: 1 }
    println("{}", p.used())
}
`, Config{TreeShake: true})
	names := strings.Join(itemNames(u.File), " ")
	for _, want := range []string{"Point", "api", "check", "main"} {
		if !strings.Contains(names, want) {
			t.Errorf("%s was dropped: %s", want, names)
		}
	}
	for _, gone := range []string{"Orphan", "dead"} {
		if strings.Contains(names, gone) {
			t.Errorf("%s was kept: %s", gone, names)
		}
	}
	for _, d := range u.File.Items {
		impl, ok := d.(*syntax.ImplDecl)
		if !ok {
			continue
		}
		if len(impl.Methods) != 1 || impl.Methods[0].Name.Value != "used" {
			t.Errorf("impl methods = %d, want only used", len(impl.Methods))
		}
	}
}

func TestTreeShakeKeepsMethodsAndConstructors(t *testing.T) {
	u, _, _ := optimize(t, `
struct Point {
    x: int,
    y: int,
}

impl Point {
    fn new(x: int, y: int) -> Point {
        Point { x, y }
    }

    fn dist2(self) -> int {
        self.x * self.x + self.y * self.y
    }

    fn unused(self) -> int { 0 }
}

fn main() {
    let p = Point::new(3, 4)
    println(p.dist2())
}
`, Config{TreeShake: true})
	if got := strings.Join(itemNames(u.File), " "); got != "Point  main" {
		t.Errorf("items = %q, want Point, its impl and main", got)
	}
	for _, d := range u.File.Items {
		impl, ok := d.(*syntax.ImplDecl)
		if !ok {
			continue
		}
		var methods []string
		for _, m := range impl.Methods {
			methods = append(methods, m.Name.Value)
		}
		if got := strings.Join(methods, " "); got != "new dist2" {
			t.Errorf("impl methods = %s, want new dist2", got)
		}
	}
}

func TestInlineCandidates(t *testing.T) {
	u, _, _ := optimize(t, `
fn helper(a: int) -> int {
    a + 1
}

fn twice(a: int) -> int {
    a * 2
}

fn main() {
    let x = helper(1)
    let y = twice(x) + twice(2)
    println("{} {}", x, y)
}
`, Config{})
	tests := []struct {
		fn   string
		want bool
	}{
		{"helper", true},
		{"twice", false},
		{"main", false},
	}
	for _, tt := range tests {
		if got := funcNamed(t, u.File, tt.fn).Inline; got != tt.want {
			t.Errorf("%s inline = %v, want %v", tt.fn, got, tt.want)
		}
	}
}

func TestInlineThreshold(t *testing.T) {
	u, _, _ := optimize(t, `
fn helper(a: int) -> int {
    let b = a * 2
    let c = b * 3
    c + a
}

fn main() {
    println("{}", helper(1))
}
`, Config{InlineThreshold: 3})
	if funcNamed(t, u.File, "helper").Inline {
		t.Error("helper is over the threshold but was flagged")
	}
}

const hoistProgram = `
fn f(k: int) -> int {
    let mut total = 0
    for i in 0..10 {
        let scaled = k * 2
        let doubled = total * 2
        total += scaled + doubled + i
    }
    total
}

fn main() {
    println("{}", f(3))
}
`

func TestHoistInvariants(t *testing.T) {
	u, stats, _ := optimize(t, hoistProgram, Config{})
	body := funcNamed(t, u.File, "f").Body
	if len(body.Stmts) != 4 {
		t.Fatalf("f has %d statements, want 4:\n%s", len(body.Stmts), syntax.String(body))
	}
	let, ok := body.Stmts[1].(*syntax.LetStmt)
	if !ok || let.Name() == nil || let.Name().Value != "scaled" {
		t.Errorf("statement 1 = %s, want let scaled", syntax.String(body.Stmts[1]))
	}
	loop, ok := body.Stmts[2].(*syntax.ForStmt)
	if !ok {
		t.Fatalf("statement 2 is %T, want the loop", body.Stmts[2])
	}
	if len(loop.Body.Stmts) != 2 {
		t.Errorf("loop body has %d statements, want doubled and the update", len(loop.Body.Stmts))
	}
	if n := changedBy(stats, "hoist"); n != 1 {
		t.Errorf("hoist changed %d nodes, want 1", n)
	}
}

func TestEscapeMarks(t *testing.T) {
	u, _, _ := optimize(t, `
fn make() -> [int] {
    let kept = vec![1, 2]
    let local = vec![3]
    println("{}", local.len())
    kept
}
`, Config{})
	lets := map[string]bool{}
	syntax.Inspect(funcNamed(t, u.File, "make"), func(n syntax.Node) {
		if s, ok := n.(*syntax.LetStmt); ok && s.Name() != nil {
			lets[s.Name().Value] = s.NoEscape
		}
	})
	if lets["kept"] {
		t.Error("kept is returned but marked as not escaping")
	}
	if !lets["local"] {
		t.Error("local never leaves make but is not marked")
	}
}

func TestSIMDHint(t *testing.T) {
	u, _, _ := optimize(t, `
fn scale(a: [float], b: [float], k: float) {
    for i in 0..a.len() {
        a[i] = b[i] * k
    }
}

fn show(a: [float]) {
    for i in 0..a.len() {
        println("{}", a[i])
    }
}
`, Config{})
	loops := map[string]bool{}
	for _, name := range []string{"scale", "show"} {
		syntax.Inspect(funcNamed(t, u.File, name), func(n syntax.Node) {
			if s, ok := n.(*syntax.ForStmt); ok {
				loops[name] = s.SIMD
			}
		})
	}
	if !loops["scale"] {
		t.Error("element-wise loop in scale not hinted")
	}
	if loops["show"] {
		t.Error("loop with a call in show was hinted")
	}
}

func TestInsertClones(t *testing.T) {
	u, stats, _ := optimize(t, `
fn take(s: string) -> string {
    s
}

fn main() {
    let name = "a".to_string()
    let a = take(name)
    let b = take(name)
    println("{} {}", a, b)
}
`, Config{})
	var calls []*syntax.CallExpr
	syntax.Inspect(funcNamed(t, u.File, "main"), func(n syntax.Node) {
		if c, ok := n.(*syntax.CallExpr); ok && isName(c.Fun, "take") {
			calls = append(calls, c)
		}
	})
	if len(calls) != 2 {
		t.Fatalf("found %d calls to take, want 2", len(calls))
	}
	m, ok := calls[0].Args[0].(*syntax.MethodCallExpr)
	if !ok || m.Name.Value != "clone" {
		t.Errorf("first argument = %s, want name.clone()", syntax.String(calls[0].Args[0]))
	}
	if !isName(calls[1].Args[0], "name") {
		t.Errorf("last use = %s, want the moved name", syntax.String(calls[1].Args[0]))
	}
	if n := changedBy(stats, "clone"); n != 1 {
		t.Errorf("clone changed %d nodes over all iterations, want 1", n)
	}
}

func TestCollapseBorrows(t *testing.T) {
	u, _, _ := optimize(t, `
fn show(s: &string) {
    println("{}", &*s)
}
`, Config{})
	var arg syntax.Expr
	syntax.Inspect(funcNamed(t, u.File, "show"), func(n syntax.Node) {
		if c, ok := n.(*syntax.CallExpr); ok && len(c.Args) == 2 {
			arg = c.Args[1]
		}
	})
	if !isName(arg, "s") {
		t.Errorf("borrow = %s, want s", syntax.String(arg))
	}
}

func TestExhaustiveness(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // substring of the WJ0010 message; empty for none
	}{
		{
			name: "missing variant",
			src: `
enum Shape {
    Circle(float),
    Square(float),
    Point
}

fn area(s: Shape) -> float {
    match s {
        Shape::Circle(r) => r * r,
        Shape::Square(w) => w * w,
    }
}
`,
			want: "`Shape::Point` not covered",
		},
		{
			name: "wildcard",
			src: `
enum Shape {
    Circle(float),
    Point
}

fn area(s: Shape) -> float {
    match s {
        Shape::Circle(r) => r * r,
        _ => 0.0,
    }
}
`,
		},
		{
			name: "option",
			src:  "fn f(o: Option<int>) -> int {\n    match o {\n        Some(x) => x,\n    }\n}\n",
			want: "`None` not covered",
		},
		{
			name: "guarded arm",
			src:  "fn f(o: Option<int>) -> int {\n    match o {\n        Some(x) if x > 0 => x,\n        None => 0,\n    }\n}\n",
			want: "`Some` not covered",
		},
		{
			name: "refutable payload",
			src:  "fn f(o: Option<int>) -> int {\n    match o {\n        Some(1) => 1,\n        None => 0,\n    }\n}\n",
			want: "`Some` not covered",
		},
		{
			name: "or pattern",
			src:  "enum E {\n    A,\n    B\n}\n\nfn f(e: E) -> int {\n    match e {\n        E::A | E::B => 1,\n    }\n}\n",
		},
		{
			name: "bool",
			src:  "fn f(b: bool) -> int {\n    match b {\n        true => 1,\n    }\n}\n",
			want: "`false` not covered",
		},
		{
			name: "integer",
			src:  "fn f(n: int) -> int {\n    match n {\n        0 => 1,\n        1 => 2,\n    }\n}\n",
			want: "`_` not covered",
		},
		{
			name: "binding",
			src:  "fn f(n: int) -> int {\n    match n {\n        0 => 1,\n        other => other,\n    }\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := optimize(t, tt.src, Config{})
			got := bag.WithCode(diag.NonExhaustiveMatch)
			if tt.want == "" {
				if len(got) != 0 {
					t.Errorf("unexpected diagnostic: %s", got[0].Message)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d WJ0010 diagnostics, want 1", len(got))
			}
			if !strings.Contains(got[0].Message, tt.want) {
				t.Errorf("message %q does not contain %q", got[0].Message, tt.want)
			}
			if got[0].Help == "" {
				t.Error("missing help")
			}
		})
	}
}

func TestLowerBoolMatch(t *testing.T) {
	tests := []struct {
		name string
		arms string
		then string
	}{
		{"true first", "true => 1,\n        false => 2,", "1"},
		{"false first", "false => 2,\n        true => 1,", "1"},
		{"wildcard", "true => 1,\n        _ => 2,", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn pick(b: bool) -> int {\n    match b {\n        " + tt.arms + "\n    }\n}\n"
			u, _, _ := optimize(t, src, Config{})
			tail := funcNamed(t, u.File, "pick").Body.TailExpr()
			tern, ok := tail.(*syntax.Ternary)
			if !ok {
				t.Fatalf("tail is %T, want *syntax.Ternary", tail)
			}
			if !isName(tern.Cond, "b") || syntax.String(tern.Then) != tt.then {
				t.Errorf("got %s, want if b { %s } ...", syntax.String(tern), tt.then)
			}
		})
	}
}

func TestLowerKeepsGuards(t *testing.T) {
	u, _, _ := optimize(t, `
fn pick(b: bool, n: int) -> int {
    match b {
        true if n > 0 => 1,
        _ => 2,
    }
}
`, Config{})
	if _, ok := funcNamed(t, u.File, "pick").Body.TailExpr().(*syntax.MatchExpr); !ok {
		t.Error("guarded match was lowered")
	}
}

func TestHoistReturns(t *testing.T) {
	u, _, _ := optimize(t, `
fn sign(n: int) -> int {
    if n < 0 {
        return -1
    } else {
        return 1
    }
}
`, Config{})
	stmts := funcNamed(t, u.File, "sign").Body.Stmts
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	r, ok := stmts[0].(*syntax.ReturnStmt)
	if !ok {
		t.Fatalf("statement is %T, want *syntax.ReturnStmt", stmts[0])
	}
	if _, ok := r.Result.(*syntax.Ternary); !ok {
		t.Errorf("return value is %T, want *syntax.Ternary", r.Result)
	}
}

const minifyProgram = `
fn total(count: int, price: int) -> int {
    let subtotal = count * price
    subtotal + 1
}

fn main() {
    let items = 3
    println("{items}")
    println("{}", total(items, 2))
}
`

func TestMinifyLocals(t *testing.T) {
	cfg := Config{JavaScript: true, Minify: true}
	u, _, _ := optimize(t, minifyProgram, cfg)

	fn := funcNamed(t, u.File, "total")
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Name.Value)
	}
	if got := strings.Join(params, " "); got != "a b" {
		t.Errorf("params = %s, want a b", got)
	}
	if let, ok := fn.Body.Stmts[0].(*syntax.LetStmt); !ok || let.Name().Value != "c" {
		t.Errorf("first let = %s, want c", syntax.String(fn.Body.Stmts[0]))
	}
	if s := syntax.String(funcNamed(t, u.File, "main")); !strings.Contains(s, "let items") {
		t.Errorf("items is named by a format string but was renamed:\n%s", s)
	}

	stats, err := Run(u, []Pass{{Name: "minify", Fn: minifyLocals}}, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats[0].ChangedNodes != 0 {
		t.Errorf("second minify changed %d nodes", stats[0].ChangedNodes)
	}
}

func TestMinifyRequiresJavaScript(t *testing.T) {
	u, _, _ := optimize(t, minifyProgram, Config{Minify: true})
	if s := syntax.String(u.File); !strings.Contains(s, "let subtotal") {
		t.Errorf("locals renamed for a Rust build:\n%s", s)
	}
}

func TestShortName(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{
		{0, "a"},
		{25, "z"},
		{26, "aa"},
		{27, "ab"},
		{26 + 26*26, "aaa"},
	}
	for _, tt := range tests {
		if got := shortName(tt.i); got != tt.want {
			t.Errorf("shortName(%d) = %s, want %s", tt.i, got, tt.want)
		}
	}
}

func TestPassesIdempotent(t *testing.T) {
	cfg := Config{TreeShake: true, JavaScript: true, Minify: true}
	u, _, _ := optimize(t, hoistProgram, cfg)
	stats, err := Run(u, Passes(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, s := range stats {
		if s.ChangedNodes != 0 {
			t.Errorf("pass %s changed %d nodes at the fixed point", s.Name, s.ChangedNodes)
		}
	}
}
