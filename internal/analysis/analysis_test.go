package analysis

import (
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// analyzeSource parses, resolves and analyzes src. Resolution must be
// clean so that every diagnostic in the returned bag is the analyzer's.
func analyzeSource(t *testing.T, src string) (*resolve.Info, *Result, *diag.Bag) {
	t.Helper()
	file, errs := syntax.Parse("test.wj", strings.NewReader(src))
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	bag := diag.NewBag()
	info := resolve.Resolve(file, nil, bag)
	if bag.HasErrors() {
		for _, d := range bag.Sorted() {
			t.Log(d)
		}
		t.Fatalf("resolve reported %d errors", bag.ErrorCount())
	}
	res := Analyze(file, info, bag)
	return info, res, bag
}

func varNamed(t *testing.T, info *resolve.Info, name string) *types.Var {
	t.Helper()
	for _, v := range info.Vars {
		if v.Name() == name {
			return v
		}
	}
	t.Fatalf("no binding named %s", name)
	return nil
}

func expectClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.Len() > 0 {
		for _, d := range bag.Sorted() {
			t.Errorf("unexpected diagnostic: %s", d)
		}
	}
}

func TestModeJoin(t *testing.T) {
	tests := []struct {
		a, b, want Mode
	}{
		{Shared, Shared, Shared},
		{Shared, Exclusive, Exclusive},
		{Exclusive, Shared, Exclusive},
		{Exclusive, Owned, Owned},
		{Owned, Shared, Owned},
		{Copy, Owned, Copy},
		{Shared, Copy, Copy},
	}
	for _, tt := range tests {
		if got := tt.a.Join(tt.b); got != tt.want {
			t.Errorf("%s.Join(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

const modesProgram = `
struct Counter {
    name: string,
    n: int,
}

impl Counter {
    fn get(self) -> int {
        self.n
    }

    fn bump(self) {
        self.n += 1
    }
}

fn length(s: string) -> int {
    s.len()
}

fn push_one(v: [int]) {
    v.push(1)
}

fn keep(v: [int]) -> [int] {
    consume(v)
}

fn consume(v: [int]) -> [int] {
    v
}

fn add(a: int, b: int) -> int {
    a + b
}
`

func TestParamModes(t *testing.T) {
	_, res, bag := analyzeSource(t, modesProgram)
	expectClean(t, bag)

	tests := []struct {
		fn   string
		self bool
		want []Mode
	}{
		{"Counter::get", true, []Mode{Shared}},
		{"Counter::bump", true, []Mode{Exclusive}},
		{"length", false, []Mode{Shared}},
		{"push_one", false, []Mode{Exclusive}},
		{"consume", false, []Mode{Owned}},
		{"keep", false, []Mode{Owned}},
		{"add", false, []Mode{Copy, Copy}},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			sig := res.Sigs.ByName(tt.fn)
			if sig == nil {
				t.Fatalf("no signature for %s", tt.fn)
			}
			var got []Mode
			if tt.self {
				if sig.Recv == nil {
					t.Fatal("missing receiver")
				}
				got = append(got, sig.Recv.Mode)
			}
			for _, p := range sig.Params {
				got = append(got, p.Mode)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d modes, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("param %d: mode = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWrittenModesAreKept(t *testing.T) {
	_, res, bag := analyzeSource(t, `
fn show(v: &[int]) -> int {
    v.len()
}

fn fill(v: &mut [int]) {
    v.push(0)
}

fn own(mut v: [int]) -> [int] {
    v.push(1);
    v
}
`)
	expectClean(t, bag)
	for name, want := range map[string]Mode{"show": Shared, "fill": Exclusive, "own": Owned} {
		p := res.Sigs.ByName(name).Param(0)
		if p.Mode != want || !p.Written {
			t.Errorf("%s: mode = %s written = %v, want %s written", name, p.Mode, p.Written, want)
		}
	}
	if !res.Sigs.ByName("own").Param(0).Mut {
		t.Error("own: parameter should be mut")
	}
}

func TestImmutableAssign(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string // message substring; empty for no error
	}{
		{"reassign", "let x = 10; x = 20;", "cannot assign twice to immutable variable `x`"},
		{"compound", "let w = 1; w += 1;", "cannot assign twice to immutable variable `w`"},
		{"mutable", "let mut y = 1; y = 2;", ""},
		{"deferred", "let z: int; if true { z = 1; } else { z = 2; } println(\"{}\", z);", ""},
		{"deferred twice", "let q: int; q = 1; q = 2;", "cannot assign twice to immutable variable `q`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := analyzeSource(t, "fn main() {\n"+tt.body+"\n}\n")
			got := bag.WithCode(diag.ImmutableAssign)
			if tt.want == "" {
				expectClean(t, bag)
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d WJ0004 diagnostics, want 1", len(got))
			}
			if !strings.Contains(got[0].Message, tt.want) {
				t.Errorf("message = %q, want %q", got[0].Message, tt.want)
			}
			if got[0].Help == "" {
				t.Error("missing help")
			}
		})
	}
}

func TestAssignThroughSharedSelf(t *testing.T) {
	_, _, bag := analyzeSource(t, `
struct C {
    n: int,
    s: string,
}

impl C {
    fn set(&self) {
        self.n = 1
    }
}
`)
	got := bag.WithCode(diag.ImmutableAssign)
	if len(got) != 1 || !strings.Contains(got[0].Message, "behind a `&` reference") {
		t.Fatalf("got %v, want one WJ0004 about a & reference", got)
	}
}

func TestAutoMut(t *testing.T) {
	info, res, bag := analyzeSource(t, `
fn main() {
    let v = Vec::new();
    v.push(1);
    let n = v.len();
    println("{}", n);
}
`)
	expectClean(t, bag)
	if !res.NeedsMut(varNamed(t, info, "v")) {
		t.Error("v should be emitted as let mut")
	}
	if res.NeedsMut(varNamed(t, info, "n")) {
		t.Error("n should not be mut")
	}
}

func TestAutoClone(t *testing.T) {
	info, res, bag := analyzeSource(t, `
fn take(s: string) -> string {
    s
}

fn main() {
    let name = "a".to_string();
    let a = take(name);
    let b = take(name);
}
`)
	expectClean(t, bag)
	sites := res.CloneSites()
	if len(sites) != 1 {
		t.Fatalf("got %d clone sites, want 1", len(sites))
	}
	if line := sites[0].Pos().Line(); line != 8 {
		t.Errorf("clone site on line %d, want 8 (the first move)", line)
	}
	if f := res.FactsOf(varNamed(t, info, "name")); !f.Moved {
		t.Error("name should still be moved by its last use")
	}
}

func TestMovedValue(t *testing.T) {
	_, _, bag := analyzeSource(t, `
struct Handle {
    lock: Mutex<int>,
}

fn eat(h: Handle) {
    drop(h)
}

fn main() {
    let h = Handle { lock: Mutex::new(0) };
    eat(h);
    eat(h);
}
`)
	got := bag.WithCode(diag.MovedValue)
	if len(got) != 1 {
		t.Fatalf("got %d WJ0007 diagnostics, want 1", len(got))
	}
	if got[0].Pos().Line() != 13 {
		t.Errorf("reported on line %d, want 13", got[0].Pos().Line())
	}
	if len(got[0].Notes) == 0 {
		t.Error("missing note pointing at the move")
	}
}

func TestMoveInLoopClones(t *testing.T) {
	_, res, bag := analyzeSource(t, `
fn eat(s: string) {
    drop(s)
}

fn main() {
    let s = "x".to_string();
    for i in 0..3 {
        eat(s);
    }
}
`)
	expectClean(t, bag)
	sites := res.CloneSites()
	if len(sites) != 1 || sites[0].Pos().Line() != 9 {
		t.Fatalf("clone sites = %v, want one on line 9", sites)
	}
}

func TestBorrowConflict(t *testing.T) {
	tests := []struct {
		name string
		call string
		want string
	}{
		{"mut and shared", "both(&mut v, &v);", "also borrowed as immutable"},
		{"mut twice", "twice(&mut v, &mut v);", "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, bag := analyzeSource(t, `
fn both(a: &mut [int], b: &[int]) {}
fn twice(a: &mut [int], b: &mut [int]) {}

fn main() {
    let mut v = vec![1, 2];
    `+tt.call+`
}
`)
			got := bag.WithCode(diag.BorrowConflict)
			if len(got) != 1 {
				t.Fatalf("got %d WJ0008 diagnostics, want 1", len(got))
			}
			if !strings.Contains(got[0].Message, tt.want) {
				t.Errorf("message = %q, want %q", got[0].Message, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	info, res, bag := analyzeSource(t, `
struct Holder {
    v: [int],
}

fn build() -> Holder {
    let items = vec![1];
    let tmp = vec![2];
    let n = tmp.len();
    Holder { v: items }
}

fn adder(k: int) -> fn(int) -> int {
    let f = |x| x + k;
    f
}
`)
	expectClean(t, bag)
	if !res.FactsOf(varNamed(t, info, "items")).Escapes {
		t.Error("items should escape through the returned struct")
	}
	if res.FactsOf(varNamed(t, info, "tmp")).Escapes {
		t.Error("tmp should not escape")
	}
	if !res.FactsOf(varNamed(t, info, "f")).Escapes {
		t.Error("f should escape")
	}
	if len(res.MoveClosures) != 1 {
		t.Errorf("got %d move closures, want 1", len(res.MoveClosures))
	}
}

func TestBorrowedIterationAndMatch(t *testing.T) {
	info, res, bag := analyzeSource(t, `
enum Shape {
    Circle(float),
    Named(string),
}

fn names(list: [string]) -> [string] {
    let mut out = Vec::new();
    for s in list {
        out.push(s);
    }
    out
}

fn label(sh: Shape) -> string {
    match sh {
        Shape::Circle(r) => format!("{}", r),
        Shape::Named(n) => n,
    }
}
`)
	expectClean(t, bag)
	if len(res.BorrowedIter) != 1 {
		t.Errorf("got %d borrowed loops, want 1", len(res.BorrowedIter))
	}
	if len(res.BorrowedMatch) != 1 {
		t.Errorf("got %d borrowed matches, want 1", len(res.BorrowedMatch))
	}
	for _, name := range []string{"s", "r", "n"} {
		if !res.FactsOf(varNamed(t, info, name)).ByRef {
			t.Errorf("%s should be bound by reference", name)
		}
	}
	if got := res.Sigs.ByName("names").Param(0).Mode; got != Shared {
		t.Errorf("names: list mode = %s, want shared", got)
	}
	if got := res.Sigs.ByName("label").Param(0).Mode; got != Shared {
		t.Errorf("label: sh mode = %s, want shared", got)
	}
	var lines []uint32
	for _, e := range res.CloneSites() {
		lines = append(lines, e.Pos().Line())
	}
	if len(lines) != 2 || lines[0] != 10 || lines[1] != 18 {
		t.Errorf("clone sites on lines %v, want [10 18]", lines)
	}
}

func TestUsageCounts(t *testing.T) {
	info, res, bag := analyzeSource(t, `
fn main() {
    let mut total = 0;
    let xs = vec![1, 2, 3];
    for x in xs {
        total += x;
    }
    println("{}", total);
}
`)
	expectClean(t, bag)
	f := res.FactsOf(varNamed(t, info, "total"))
	if f.Writes != 1 || f.Reads != 1 {
		t.Errorf("total: reads = %d writes = %d, want 1 and 1", f.Reads, f.Writes)
	}
	if xs := res.FactsOf(varNamed(t, info, "xs")); !xs.BorrowedImmut || xs.Moved {
		t.Errorf("xs: borrowed = %v moved = %v, want borrowed and not moved", xs.BorrowedImmut, xs.Moved)
	}
}

func TestSignatureBounds(t *testing.T) {
	s := &Signature{Name: "f"}
	s.AddBound("T", "Display")
	s.AddBound("T", "Add<Output = T>")
	s.AddBound("T", "Display")
	s.AddBound("U", "Clone")
	if got, want := s.WhereClause(), "T: Add<Output = T> + Display, U: Clone"; got != want {
		t.Errorf("WhereClause() = %q, want %q", got, want)
	}
	s.Rename = map[string]string{"_a": "T"}
	if s.Generic("_a") != "T" || s.Generic("V") != "V" {
		t.Error("Generic did not apply the rename table")
	}
}
