package infer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/resolve"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

func inferSource(t *testing.T, src string) (*analysis.SignatureTable, *Result, *diag.Bag) {
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
	res := analysis.Analyze(file, info, bag)
	return res.Sigs, Infer(file, info, res, bag), bag
}

func sigNamed(t *testing.T, sigs *analysis.SignatureTable, name string) *analysis.Signature {
	t.Helper()
	s := sigs.ByName(name)
	if s == nil {
		t.Fatalf("no signature for %s", name)
	}
	return s
}

func TestInferBounds(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		fn     string
		params []string
		bounds map[string][]string
	}{
		{
			name:   "add",
			src:    "fn add(a, b) { a + b }\nfn main() { let x = add(2, 3); }\n",
			fn:     "add",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"Add<Output = T>"}},
		},
		{
			name:   "separate groups",
			src:    "fn show(a, b, c) { println(\"{} {:?}\", a, b); c }\n",
			fn:     "show",
			params: []string{"T", "U", "V"},
			bounds: map[string][]string{"T": {"Display"}, "U": {"Debug"}},
		},
		{
			name:   "comparison",
			src:    "fn larger(a, b) -> bool { a > b }\n",
			fn:     "larger",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"PartialOrd"}},
		},
		{
			name:   "if expression tail",
			src:    "fn bigger(a, b) { if a > b { a } else { b } }\nfn main() { println(\"{}\", bigger(1, 2)) }\n",
			fn:     "bigger",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"PartialOrd"}},
		},
		{
			name:   "equality and negation",
			src:    "fn flip(a, b) { if a == b { return -a; } b }\n",
			fn:     "flip",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"Neg<Output = T>", "PartialEq"}},
		},
		{
			name:   "written bounds are kept",
			src:    "fn f<T: Clone>(x: T) { println(\"{}\", x); }\n",
			fn:     "f",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"Clone", "Display"}},
		},
		{
			name:   "user trait",
			src:    "trait Shape {\n    fn area(self) -> float;\n}\n\nfn total(s) -> float { s.area() }\n",
			fn:     "total",
			params: []string{"T"},
			bounds: map[string][]string{"T": {"Shape"}},
		},
		{
			name:   "index and iteration",
			src:    "fn first(xs, ys) { for y in ys { println(\"{}\", y); } xs[0] }\n",
			fn:     "first",
			params: []string{"T", "U"},
			bounds: map[string][]string{"T": {"Index<usize>"}, "U": {"IntoIterator"}},
		},
		{
			name:   "names skip declared types",
			src:    "struct T {\n    n: int,\n}\n\nfn id(a) { a }\n",
			fn:     "id",
			params: []string{"U"},
			bounds: map[string][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigs, _, bag := inferSource(t, tt.src)
			if bag.Has(diag.AmbiguousMethod) {
				t.Fatalf("unexpected ambiguity: %v", bag.WithCode(diag.AmbiguousMethod))
			}
			s := sigNamed(t, sigs, tt.fn)
			if !reflect.DeepEqual(s.TypeParams, tt.params) {
				t.Errorf("type params = %v, want %v", s.TypeParams, tt.params)
			}
			got := make(map[string][]string)
			for n, bs := range s.Bounds {
				if len(bs) > 0 {
					got[n] = bs
				}
			}
			if !reflect.DeepEqual(got, tt.bounds) {
				t.Errorf("bounds = %v, want %v", got, tt.bounds)
			}
		})
	}
}

func TestAddSignature(t *testing.T) {
	sigs, res, _ := inferSource(t, "fn add(a, b) { a + b }\n")
	s := sigNamed(t, sigs, "add")
	if s.Generic("_a") != "T" || s.Generic("_b") != "T" {
		t.Errorf("renames = %v, want both parameters as T", s.Rename)
	}
	if got := s.WhereClause(); got != "T: Add<Output = T>" {
		t.Errorf("where clause = %q", got)
	}
	if got := res.Inferred["add"]["T"]; !reflect.DeepEqual(got, []string{"Add<Output = T>"}) {
		t.Errorf("inferred = %v", got)
	}
}

func TestConcreteGroup(t *testing.T) {
	sigs, _, _ := inferSource(t, "fn inc(x) { x + 1 }\nfn scale(a, b) { a * 2 + b }\n")

	inc := sigNamed(t, sigs, "inc")
	if len(inc.TypeParams) != 0 {
		t.Errorf("inc: type params = %v, want none", inc.TypeParams)
	}
	if c := inc.Concrete["_x"]; !types.Identical(c, types.Typ[types.Int]) {
		t.Errorf("inc: x is %v, want int", c)
	}

	scale := sigNamed(t, sigs, "scale")
	for _, p := range []string{"_a", "_b"} {
		if c := scale.Concrete[p]; !types.Identical(c, types.Typ[types.Int]) {
			t.Errorf("scale: %s is %v, want int", p, c)
		}
	}
}

func TestCloneBound(t *testing.T) {
	sigs, _, bag := inferSource(t, `
fn dup(x) {
    let a = x;
    let b = x;
    b
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Sorted())
	}
	s := sigNamed(t, sigs, "dup")
	if got := s.Bounds["T"]; !reflect.DeepEqual(got, []string{"Clone"}) {
		t.Errorf("bounds = %v, want [Clone]", got)
	}
}

func TestAmbiguousMethod(t *testing.T) {
	_, _, bag := inferSource(t, "fn show(x) { x.fmt() }\n")
	got := bag.WithCode(diag.AmbiguousMethod)
	if len(got) != 1 {
		t.Fatalf("got %d WJ0017 diagnostics, want 1", len(got))
	}
	d := got[0]
	if !strings.Contains(d.Message, "`Debug` and `Display`") {
		t.Errorf("message = %q", d.Message)
	}
	if len(d.Notes) != 2 {
		t.Errorf("notes = %v, want one per candidate", d.Notes)
	}

	_, _, bag = inferSource(t, "fn show<T: Display>(x: T) { x.fmt() }\n")
	if bag.Has(diag.AmbiguousMethod) {
		t.Error("a written bound should resolve the ambiguity")
	}
}

func TestGenericName(t *testing.T) {
	for i, want := range []string{"T", "U", "V", "W", "T1", "T2"} {
		if got := genericName(i); got != want {
			t.Errorf("genericName(%d) = %s, want %s", i, got, want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	got := placeholders("{} {:?} {name} {0} {{x}} {:#?} {:>8}")
	want := []placeholder{
		{index: -1},
		{index: -1, debug: true},
		{index: -1, name: "name"},
		{index: 0},
		{index: -1, debug: true},
		{index: -1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("placeholders = %+v, want %+v", got, want)
	}
}
