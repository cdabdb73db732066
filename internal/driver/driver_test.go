package driver

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/jsgen"
)

func compile(t *testing.T, src string, opts Options) *Context {
	t.Helper()
	c, err := Compile("test.wj", []byte(src), opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
		err  bool
	}{
		{"", Rust, false},
		{"rust", Rust, false},
		{"JavaScript", JavaScript, false},
		{"js", JavaScript, false},
		{"wasm", Wasm, false},
		{"go", Rust, true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseTarget(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestCompileRustMain(t *testing.T) {
	c := compile(t, "fn main() {}", Options{})
	if c.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	if c.Rust == nil || !strings.Contains(c.Code(), "fn main()") {
		t.Fatalf("output:\n%s", c.Code())
	}
	if !c.HasMain() {
		t.Error("HasMain = false")
	}
	var stages []string
	for _, tm := range c.Timings {
		stages = append(stages, tm.Stage)
	}
	if got := strings.Join(stages, ","); got != "lex,parse,resolve,analyze,infer,optimize,codegen" {
		t.Errorf("stages = %s", got)
	}
	if len(c.Stats) != 15 {
		t.Errorf("%d pass stats, want 15", len(c.Stats))
	}
}

func TestCompileInfersBounds(t *testing.T) {
	c := compile(t, "fn add(a, b) { a + b }\nfn main() { let x = add(2, 3) }", Options{})
	if c.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	if !strings.Contains(c.Code(), "fn add<T: Add<Output = T>>(a: T, b: T) -> T") {
		t.Errorf("add is not generic over Add:\n%s", c.Code())
	}
}

func TestCompileStopsOnErrors(t *testing.T) {
	src := "fn main() {\n let x = 10\n x = 20\n}"
	c := compile(t, src, Options{})
	if !c.Bag.Has(diag.ImmutableAssign) {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	d := c.Bag.WithCode(diag.ImmutableAssign)[0]
	if d.Span.Start.Line() != 3 {
		t.Errorf("diagnostic at line %d, want 3", d.Span.Start.Line())
	}
	if c.Rust != nil || c.Unit != nil {
		t.Error("output generated despite errors")
	}

	c = compile(t, src, Options{EmitOnError: true})
	if c.Rust == nil {
		t.Error("no output with EmitOnError")
	}
	if c.Unit != nil {
		t.Error("optimizer ran on an erroneous program")
	}
}

func TestCompileEmitOnErrorUnresolvedReceiver(t *testing.T) {
	src := "fn main() {\n let n = slf.x\n}"
	for _, target := range []Target{Rust, JavaScript} {
		c, err := Compile("test.wj", []byte(src), Options{Target: target, EmitOnError: true})
		if err != nil {
			t.Fatalf("%v: Compile: %v", target, err)
		}
		if !c.Bag.Has(diag.UnknownName) {
			t.Errorf("%v: diagnostics: %v", target, c.Bag.Sorted())
		}
	}
}

func TestCompileBorrowedCallSites(t *testing.T) {
	src := `fn len2(s: string) -> int { s.len() }
fn add(v: [int]) { v.push(1) }
fn main() {
 let s = "abc"
 let v = [1]
 add(v)
 println("{} {}", len2(s), v.len())
}`
	c := compile(t, src, Options{})
	if c.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	code := c.Code()
	for _, want := range []string{"fn len2(s: &str) -> i64", "fn add(v: &mut Vec<i64>)", "add(&mut v);", "vec![1]"} {
		if !strings.Contains(code, want) {
			t.Errorf("output lacks %q:\n%s", want, code)
		}
	}
	if got := runRust(t, code); got != "3 2\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestCompileIfTailResult(t *testing.T) {
	src := "fn bigger(a, b) {\n if a > b { a } else { b }\n}\nfn main() { println(\"{}\", bigger(1, 2)) }"
	c := compile(t, src, Options{})
	if c.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	code := c.Code()
	if !strings.Contains(code, "fn bigger<T: PartialOrd>(") || !strings.Contains(code, ") -> T {") {
		t.Errorf("bigger lacks its result:\n%s", code)
	}
	if got := runRust(t, code); got != "2\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestCompileTreeShakeMethods(t *testing.T) {
	src := `struct Point { x: int, y: int }
impl Point {
 fn new(x: int, y: int) -> Point { Point { x, y } }
 fn dist2(self) -> int { self.x * self.x + self.y * self.y }
 fn unused(self) -> int { self.x }
}
fn main() {
 let p = Point::new(3, 4)
 println(p.dist2())
}`
	c := compile(t, src, Options{TreeShake: true})
	if c.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", c.Bag.Sorted())
	}
	code := c.Code()
	if !strings.Contains(code, "fn dist2(") || strings.Contains(code, "fn unused(") {
		t.Errorf("tree shaking:\n%s", code)
	}
	if got := runRust(t, code); got != "25\n" {
		t.Errorf("stdout = %q", got)
	}
}

// runRust builds code with rustc and returns the program's stdout. The
// test is skipped past this point when rustc is not installed.
func runRust(t *testing.T, code string) string {
	t.Helper()
	if _, err := exec.LookPath("rustc"); err != nil {
		t.Skip("rustc not installed")
	}
	dir := t.TempDir()
	rs, bin := filepath.Join(dir, "main.rs"), filepath.Join(dir, "main")
	if err := os.WriteFile(rs, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	if out, err := exec.Command("rustc", "--edition", "2021", "-A", "warnings", rs, "-o", bin).CombinedOutput(); err != nil {
		t.Fatalf("rustc: %v\n%s\n%s", err, out, code)
	}
	out, err := exec.Command(bin).Output()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return string(out)
}

func TestCompileJavaScript(t *testing.T) {
	src := "fn u() -> int { 42 }\nfn x() -> int { 100 }\nfn main() { u() }"
	c := compile(t, src, Options{Target: JavaScript, TreeShake: true, SourceMaps: jsgen.MapBoth})
	code := c.Code()
	if !strings.Contains(code, "function u(") || strings.Contains(code, "function x(") {
		t.Errorf("tree shaking:\n%s", code)
	}
	if _, ok := c.JS.File("test.js.map"); !ok {
		t.Error("missing test.js.map")
	}
	if c.Functions() != 2 {
		t.Errorf("Functions = %d, want 2", c.Functions())
	}
}

func TestCompileWasm(t *testing.T) {
	c := compile(t, "pub fn double(n: int) -> int { n * 2 }", Options{Target: Wasm})
	if !strings.Contains(c.Code(), "wasm_bindgen") {
		t.Errorf("wasm output lacks wasm_bindgen:\n%s", c.Code())
	}
}

func TestCompileLogsStages(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	compile(t, "fn main() {}", Options{Logger: log})
	for _, want := range []string{"stage=lex", "stage=parse", "stage=codegen", "file=test.wj"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log lacks %q:\n%s", want, buf.String())
		}
	}
}

func TestCompileImports(t *testing.T) {
	c := compile(t, "use std::json\nfn main() {}", Options{})
	if got := c.Imports(); len(got) != 1 || got[0] != "std::json" {
		t.Errorf("Imports = %v", got)
	}
}

func TestCompileUnterminatedString(t *testing.T) {
	c := compile(t, "fn main() {\n let s = \"abc\n}\n", Options{})
	if got := c.Bag.WithCode(diag.UnterminatedLit); len(got) != 1 {
		t.Errorf("%d unterminated literal diagnostics, want 1: %v", len(got), c.Bag.Sorted())
	}
	if len(c.Tokens) == 0 {
		t.Error("no tokens recorded")
	}
}

func TestName(t *testing.T) {
	for in, want := range map[string]string{
		"src/app.wj": "app",
		"main.wj":    "main",
		"noext":      "noext",
	} {
		c := New(in, nil, Options{})
		if got := c.Name(); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRust(t *testing.T) {
	code := "fn main(){let x=1;}\n"
	got, err := FormatRust(context.Background(), code)
	if _, lookErr := exec.LookPath("rustfmt"); lookErr != nil {
		if !errors.Is(err, ErrNoRustfmt) || got != code {
			t.Errorf("FormatRust without rustfmt = %q, %v", got, err)
		}
		t.Skip("rustfmt not installed")
	}
	if err != nil {
		t.Fatalf("FormatRust: %v", err)
	}
	if !strings.Contains(got, "let x = 1;") {
		t.Errorf("not formatted:\n%s", got)
	}
}
