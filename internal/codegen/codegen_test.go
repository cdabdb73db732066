package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/infer"
	"github.com/windjammer-lang/wj/internal/opt"
	"github.com/windjammer-lang/wj/internal/resolve"
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

// generate runs resolution, analysis and inference over file and
// returns the generated Rust.
func generate(t *testing.T, file *syntax.File, cfg Config) *Output {
	t.Helper()
	bag := diag.NewBag()
	info := resolve.Resolve(file, nil, bag)
	res := analysis.Analyze(file, info, bag)
	infer.Infer(file, info, res, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Sorted())
	}
	out, err := Generate(file, info, res, cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func rust(t *testing.T, src string) string {
	t.Helper()
	return generate(t, parseSource(t, src), Config{}).Code
}

func TestGenerateGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/*.wj")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			src, err := os.ReadFile(f)
			if err != nil {
				t.Fatal(err)
			}
			got := rust(t, string(src))

			golden := strings.TrimSuffix(f, ".wj") + ".rs.golden"
			if os.Getenv("UPDATE_GOLDEN") != "" {
				if err := os.WriteFile(golden, []byte(got), 0644); err != nil {
					t.Fatal(err)
				}
				return
			}
			want, err := os.ReadFile(golden)
			if err != nil {
				t.Fatal(err)
			}
			if got != string(want) {
				t.Errorf("output mismatch for %s\ngot:\n%s\nwant:\n%s\nRun with UPDATE_GOLDEN=1 to update", f, got, want)
			}
		})
	}
}

func TestGenerateEmptyFile(t *testing.T) {
	out := generate(t, parseSource(t, ""), Config{})
	if out.Code != "" {
		t.Errorf("empty file generated %q", out.Code)
	}
	if len(out.Uses) != 0 || len(out.Renames) != 0 {
		t.Errorf("empty file has uses %v and renames %v", out.Uses, out.Renames)
	}
}

func TestGenerateMissingInput(t *testing.T) {
	_, err := Generate(nil, nil, nil, Config{})
	if !diag.IsICE(err) {
		t.Fatalf("Generate(nil) = %v, want an internal error", err)
	}
}

func TestGenerateContains(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
		not  []string
	}{
		{
			name: "borrowed string parameter",
			src:  "fn greet(name: string) { println(\"Hello {}\", name) }\nfn main() { greet(\"Ann\") }",
			want: []string{"fn greet(name: &str) {", `println!("Hello {}", name);`, `greet("Ann");`},
		},
		{
			name: "exclusive parameter",
			src:  "fn bump(v: [int]) { v.push(1) }\nfn main() { let v = [1, 2]\n bump(v) }",
			want: []string{"fn bump(v: &mut Vec<i64>) {", "bump(&mut v);"},
		},
		{
			name: "shared vector is a slice",
			src:  "fn at(v: [int], i: int) -> int { v[i] }\nfn main() { let v = [1, 2]\n println(at(v, 0)) }",
			want: []string{"fn at(v: &[i64], i: i64) -> i64 {", "v[i as usize]", "at(&v, 0)"},
		},
		{
			name: "owned string slot",
			src:  "struct User { name: string }\nfn main() { let u = User { name: \"ann\" }\n println(u.name) }",
			want: []string{"    name: String,", `User { name: "ann".to_string() }`},
			not:  []string{"Copy", "pub name"},
		},
		{
			name: "string struct derives",
			src:  "struct User { name: string, age: int }",
			want: []string{"#[derive(Debug, Clone, PartialEq, Eq, Hash)]"},
		},
		{
			name: "float field drops eq",
			src:  "struct V { x: float }",
			want: []string{"#[derive(Debug, Clone, Copy, PartialEq)]"},
		},
		{
			name: "enum match",
			src:  "enum Color { Red, Green }\nfn name(c: Color) -> string { match c { Red => \"red\", Green => \"green\" } }\nfn main() { println(name(Color::Red)) }",
			want: []string{"enum Color {", "Red,", "fn name(c: Color) -> String {", `Color::Red => "red".to_string(),`, "name(Color::Red)"},
		},
		{
			name: "string concatenation",
			src:  "fn join(a: string, b: string) -> string { a + b }",
			want: []string{`format!("{}{}", a, b)`},
		},
		{
			name: "interpolation",
			src:  "fn main() { let n = 3\n println(\"n = ${n} {x}\") }",
			want: []string{`println!("n = {} {{x}}", n);`},
		},
		{
			name: "escapes",
			src:  "fn main() { println(\"a\\tb\\\"c\\\\\") }",
			want: []string{`println!("a\tb\"c\\");`},
		},
		{
			name: "mutable binding",
			src:  "fn main() { let mut total = 0\n for i in 0..10 { total += i }\n println(total) }",
			want: []string{"let mut total = 0;", "for i in 0..10 {", "total += i;"},
		},
		{
			name: "length is i64",
			src:  "fn count(v: [int]) -> int { v.len() }",
			want: []string{"(v.len() as i64)"},
		},
		{
			name: "const string",
			src:  "const GREETING: string = \"hi\"\nfn main() { println(GREETING) }",
			want: []string{`const GREETING: &str = "hi";`},
		},
		{
			name: "trait impl keeps trait receiver",
			src:  "trait Shape { fn area(&self) -> float }\nstruct Sq { s: float }\nimpl Shape for Sq { fn area(self) -> float { self.s * self.s } }",
			want: []string{"trait Shape {", "fn area(&self) -> f64;", "impl Shape for Sq {", "fn area(&self) -> f64 {"},
		},
		{
			name: "native import",
			src:  "use std::collections::HashMap\nfn main() { let m: HashMap<string, int> = HashMap::new()\n println(m.len()) }",
			want: []string{"use std::collections::HashMap;", "let m: HashMap<String, i64> = HashMap::new();"},
		},
		{
			name: "map type is imported",
			src:  "fn size(m: Map<string, int>) -> int { m.len() }",
			want: []string{"use std::collections::HashMap;", "m: &HashMap<String, i64>"},
		},
		{
			name: "ternary",
			src:  "fn pick(c: bool) -> int { c ? 1 : 2 }",
			want: []string{"if c { 1 } else { 2 }"},
		},
		{
			name: "empty body",
			src:  "fn main() {}",
			want: []string{"fn main() {}"},
			not:  []string{"->"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rust(t, tt.src)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output does not contain %q:\n%s", w, got)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("output contains %q:\n%s", n, got)
				}
			}
		})
	}
}

func TestGenerateRenamesKeywords(t *testing.T) {
	out := generate(t, parseSource(t, "fn main() { let move = 1\n println(move) }"), Config{})
	if !strings.Contains(out.Code, "let move_ = 1;") {
		t.Errorf("keyword binding not renamed:\n%s", out.Code)
	}
	if !strings.Contains(out.Code, `println!("{}", move_);`) {
		t.Errorf("keyword use not renamed:\n%s", out.Code)
	}
	if got := out.Renames["move"]; got != "move_" {
		t.Errorf("Renames[move] = %q, want move_", got)
	}
}

func TestGenerateJSONDerives(t *testing.T) {
	src := "use std::json\nstruct P { x: int }\nfn main() { let p = P { x: 1 }\n println(json::stringify(p)) }"
	got := rust(t, src)
	for _, w := range []string{
		"#[derive(Debug, Clone, Copy, PartialEq, Eq, Hash, serde::Serialize, serde::Deserialize)]",
		"serde_json::to_string(&p).unwrap()",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("output does not contain %q:\n%s", w, got)
		}
	}
	if strings.Contains(got, "use std::json") {
		t.Errorf("stdlib module import leaked into Rust:\n%s", got)
	}
}

func TestGenerateWasm(t *testing.T) {
	file := parseSource(t, "pub fn add(a: int, b: int) -> int { a + b }")
	got := generate(t, file, Config{Target: Wasm}).Code
	if !strings.HasPrefix(got, "use wasm_bindgen::prelude::*;\n\n") {
		t.Errorf("missing wasm prelude:\n%s", got)
	}
	if !strings.Contains(got, "#[wasm_bindgen]\npub fn add(a: i64, b: i64) -> i64 {") {
		t.Errorf("missing export attribute:\n%s", got)
	}
}

func TestGenerateInternedConsts(t *testing.T) {
	src := "fn show(s: string) { println(s) }\nfn main() { show(\"hi\")\n show(\"hi\") }"
	u, _, err := opt.Optimize(parseSource(t, src), nil, opt.Config{}, diag.NewBag())
	if err != nil {
		t.Fatal(err)
	}
	got := generate(t, u.File, Config{Interned: u.Interned}).Code
	if !strings.HasPrefix(got, "const STR_0: &str = \"hi\";\n") {
		t.Errorf("missing interned constant:\n%s", got)
	}
	if strings.Count(got, "show(STR_0)") != 2 {
		t.Errorf("calls do not use the interned constant:\n%s", got)
	}
}

func TestGenerateInlineAttribute(t *testing.T) {
	file := parseSource(t, "fn one() -> int { 1 }\nfn main() { println(one()) }")
	for _, d := range file.Items {
		if fn, ok := d.(*syntax.FuncDecl); ok && fn.Name.Value == "one" {
			fn.Inline = true
		}
	}
	got := generate(t, file, Config{}).Code
	if !strings.Contains(got, "#[inline]\nfn one() -> i64 {") {
		t.Errorf("missing inline attribute:\n%s", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	src := `use std::collections::HashMap
use std::fmt::Display
struct A { x: int }
fn show(a, b) { println(a)
 println(b) }
fn main() { show(1, "x") }`
	first := rust(t, src)
	for i := 0; i < 10; i++ {
		if got := rust(t, src); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{"a\"b", `"a\"b"`},
		{`back\slash`, `"back\\slash"`},
		{"tab\there", `"tab\there"`},
		{"nul\x00", `"nul\0"`},
		{"bell\x07", `"bell\u{7}"`},
		{"héllo", `"héllo"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestImportsLines(t *testing.T) {
	im := newImports()
	im.need("HashMap")
	im.need("HashSet<T>")
	im.need("Display")
	im.need("Vec")
	im.line("use crate::util;")
	want := []string{
		"use crate::util;",
		"use std::collections::{HashMap, HashSet};",
		"use std::fmt::Display;",
	}
	got := im.lines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("lines() = %q, want %q", got, want)
	}
	if paths := im.paths(); len(paths) != 3 || paths[0] != "std::collections::HashMap" {
		t.Errorf("paths() = %v", paths)
	}
}
