package opt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
)

const smallProgram = `
fn double(n: int) -> int {
    n * 2
}

fn main() {
    let x = double(21)
    println("{}", x)
}
`

func TestRunEmpty(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)
	stats, err := Run(u, nil, Config{})
	if err != nil {
		t.Fatalf("Run with no passes: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("got %d stats, want 0", len(stats))
	}
}

func TestRunSinglePass(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)

	called := false
	passes := []Pass{
		{Name: "test", Fn: func(u *Unit) int { called = true; return 0 }},
	}
	stats, err := Run(u, passes, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called {
		t.Error("pass was not called")
	}
	if len(stats) != 1 || stats[0].Name != "test" {
		t.Errorf("stats = %+v, want one entry named test", stats)
	}
}

func TestRunWithVerify(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)
	passes := []Pass{
		{Name: "noop", Fn: func(u *Unit) int { return 0 }},
	}
	if _, err := Run(u, passes, Config{Verify: true}); err != nil {
		t.Fatalf("Run with verify: %v", err)
	}
}

func TestRunMultiplePasses(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)

	var order []string
	passes := []Pass{
		{Name: "first", Fn: func(u *Unit) int { order = append(order, "first"); return 0 }},
		{Name: "second", Fn: func(u *Unit) int { order = append(order, "second"); return 0 }},
	}
	if _, err := Run(u, passes, Config{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("pass order = %v, want [first second]", order)
	}
}

func TestVerifyCatchesBrokenTree(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)
	broken := []Pass{{Name: "break", Fn: func(u *Unit) int {
		// Rename the use of x but not its binding.
		n := 0
		binding := make(map[*syntax.Name]bool)
		syntax.Inspect(u.File, func(node syntax.Node) {
			if p, ok := node.(*syntax.IdentPat); ok {
				binding[p.Name] = true
			}
		})
		syntax.Inspect(u.File, func(node syntax.Node) {
			if name, ok := node.(*syntax.Name); ok && name.Value == "x" && !binding[name] {
				name.Value = "nowhere"
				n++
			}
		})
		return n
	}}}

	_, err := Run(u, broken, Config{Verify: true})
	if err == nil {
		t.Fatal("expected a verification error")
	}
	if !diag.IsICE(err) {
		t.Errorf("error %v is not an internal compiler error", err)
	}
	if !strings.Contains(err.Error(), "verify after break") {
		t.Errorf("error %q does not name the pass", err)
	}
}

func TestRunDump(t *testing.T) {
	u := NewUnit(parseSource(t, smallProgram), nil, Config{}, nil)
	var buf bytes.Buffer
	cfg := Config{DumpBefore: "fold", DumpFunc: "double", Dump: &buf}
	if _, err := Run(u, []Pass{{Name: "fold", Fn: foldConstants}}, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "--- before fold ---") != 1 {
		t.Errorf("dump header missing or repeated:\n%s", out)
	}
	if !strings.Contains(out, "fn double") || strings.Contains(out, "fn main") {
		t.Errorf("dump not filtered to double:\n%s", out)
	}
}

func TestPassesOrder(t *testing.T) {
	want := []string{
		"intern", "fold", "dce", "shake", "inline", "hoist", "escape", "simd",
		"clone", "borrow", "exhaust", "lower", "rethoist", "minify", "verify",
	}
	passes := Passes()
	if len(passes) != len(want) {
		t.Fatalf("got %d passes, want %d", len(passes), len(want))
	}
	for i, p := range passes {
		if p.Name != want[i] {
			t.Errorf("pass %d = %s, want %s", i, p.Name, want[i])
		}
	}
}
