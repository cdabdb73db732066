package jsgen

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/diag"
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

// generate resolves src and translates it with cfg.
func generate(t *testing.T, src string, cfg Config) *Output {
	t.Helper()
	file := parseSource(t, src)
	bag := diag.NewBag()
	info := resolve.Resolve(file, nil, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Sorted())
	}
	out, err := Generate(file, info, cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

// optimized runs the optimizer for the JavaScript target before
// translating src.
func optimized(t *testing.T, src string, oc opt.Config, cfg Config) *Output {
	t.Helper()
	oc.JavaScript = true
	u, _, err := opt.Optimize(parseSource(t, src), nil, oc, diag.NewBag())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	cfg.Interned = u.Interned
	out, err := Generate(u.File, u.Info(), cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func TestGenerateEmptyFile(t *testing.T) {
	out := generate(t, "", Config{})
	if out.Code != "" {
		t.Errorf("empty file produced %q", out.Code)
	}
	if len(out.Files) != 1 || out.Files[0].Name != "main.js" {
		t.Errorf("files = %v", out.Files)
	}
}

func TestGenerateMissingInput(t *testing.T) {
	_, err := Generate(nil, nil, Config{})
	if !diag.IsICE(err) {
		t.Errorf("err = %v, want an internal error", err)
	}
}

func TestGenerateCallsMain(t *testing.T) {
	got := generate(t, "fn main() {\n println(\"hi\")\n}", Config{}).Code
	for _, want := range []string{"function main()", "console.log(", "main();"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestGenerateTreeShake(t *testing.T) {
	src := "fn u() -> int { 42 }\nfn x() -> int { 100 }\nfn main() { u() }"
	got := optimized(t, src, opt.Config{TreeShake: true}, Config{}).Code
	if !strings.Contains(got, "function u(") || !strings.Contains(got, "function main(") {
		t.Errorf("reachable functions missing:\n%s", got)
	}
	if strings.Contains(got, "function x(") {
		t.Errorf("unreachable x kept:\n%s", got)
	}

	got = optimized(t, src, opt.Config{}, Config{}).Code
	if !strings.Contains(got, "function x(") {
		t.Errorf("x dropped without tree shaking:\n%s", got)
	}
}

func TestGenerateSourceMapBoth(t *testing.T) {
	src := "fn add(a: int, b: int) -> int { a + b }\nfn main() { println(add(1, 2)) }"
	out := generate(t, src, Config{SourceMaps: MapBoth, Source: "dir/app.wj", Content: src})

	const prefix = "//# sourceMappingURL=data:application/json;charset=utf-8;base64,"
	lines := strings.Split(strings.TrimRight(out.Code, "\n"), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, prefix) {
		t.Fatalf("last line = %q, want an inline source map", last)
	}
	inline, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(last, prefix))
	if err != nil {
		t.Fatalf("decode inline map: %v", err)
	}

	f, ok := out.File("main.js.map")
	if !ok {
		t.Fatalf("no external map among %d files", len(out.Files))
	}
	if f.Content != string(inline) {
		t.Errorf("inline and external maps differ")
	}
	sm, err := ParseSourceMap([]byte(f.Content))
	if err != nil {
		t.Fatalf("ParseSourceMap: %v", err)
	}
	if sm.Version != 3 {
		t.Errorf("version = %d, want 3", sm.Version)
	}
	if len(sm.Sources) != 1 || sm.Sources[0] != "app.wj" {
		t.Errorf("sources = %v", sm.Sources)
	}
	if len(sm.SourcesContent) != 1 || sm.SourcesContent[0] != src {
		t.Errorf("sourcesContent not embedded")
	}
	if sm.Mappings == "" {
		t.Errorf("empty mappings")
	}
	found := false
	for _, n := range sm.Names {
		if n == "add" {
			found = true
		}
	}
	if !found {
		t.Errorf("names = %v, want add", sm.Names)
	}
}

func TestGenerateSourceMapModes(t *testing.T) {
	src := "fn main() { println(1) }"
	tests := []struct {
		mode    MapMode
		comment string
		file    bool
	}{
		{MapNone, "", false},
		{MapExternal, "//# sourceMappingURL=app.js.map", true},
		{MapInline, "//# sourceMappingURL=data:", false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			out := generate(t, src, Config{Name: "app", SourceMaps: tt.mode})
			if tt.comment == "" {
				if strings.Contains(out.Code, "sourceMappingURL") {
					t.Errorf("unexpected map comment:\n%s", out.Code)
				}
			} else if !strings.Contains(out.Code, tt.comment) {
				t.Errorf("output lacks %q:\n%s", tt.comment, out.Code)
			}
			if _, ok := out.File("app.js.map"); ok != tt.file {
				t.Errorf("map file present = %v, want %v", ok, tt.file)
			}
			if (out.Map != nil) != (tt.mode != MapNone) {
				t.Errorf("Map = %v for mode %v", out.Map, tt.mode)
			}
		})
	}
}

func TestSourceMapMappingsRoundTrip(t *testing.T) {
	src := "fn sq(n: int) -> int { n * n }\nfn main() {\n let a = sq(3)\n println(a)\n}"
	out := generate(t, src, Config{SourceMaps: MapExternal})
	f, _ := out.File("main.js.map")
	sm, err := ParseSourceMap([]byte(f.Content))
	if err != nil {
		t.Fatal(err)
	}
	list, err := DecodeMappings(sm.Mappings)
	if err != nil {
		t.Fatalf("DecodeMappings: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("no mappings")
	}
	if got := EncodeMappings(list); got != sm.Mappings {
		t.Errorf("re-encoded mappings differ:\n got %s\nwant %s", got, sm.Mappings)
	}
}

func TestGeneratePolyfills(t *testing.T) {
	cfg := DefaultPolyfills()
	out := generate(t, "fn main() {}", Config{Polyfills: &cfg})
	if !strings.HasPrefix(out.Code, Polyfills(cfg)) {
		t.Errorf("polyfills are not the prelude:\n%s", out.Code)
	}
}

func TestGenerateChunks(t *testing.T) {
	src := `fn scale(n: int) -> int { n * 10 }

@chunk("heavy")
fn crunch(n: int) -> int { scale(n) + 1 }

fn main() { println(crunch(2)) }
`
	out := generate(t, src, Config{})
	chunk, ok := out.File("heavy.js")
	if !ok {
		t.Fatalf("no chunk module among %v", out.Files)
	}
	if !strings.Contains(chunk.Content, "function crunch(") {
		t.Errorf("chunk lacks crunch:\n%s", chunk.Content)
	}
	if !strings.Contains(chunk.Content, `from "./main.js"`) || !strings.Contains(chunk.Content, "scale") {
		t.Errorf("chunk does not import scale from the entry module:\n%s", chunk.Content)
	}
	if !strings.Contains(out.Code, `__wj_load_chunk("heavy")`) {
		t.Errorf("entry module lacks the chunk stub:\n%s", out.Code)
	}
	if !strings.Contains(out.Code, "export function scale(") {
		t.Errorf("scale is not exported for the chunk:\n%s", out.Code)
	}
}

func TestGenerateFederation(t *testing.T) {
	src := "pub fn greet(name: string) -> string { name }\nfn main() {}"
	fc := &FederationConfig{Name: "shop", Exposes: map[string]string{"./greet": "greet"}}
	out := generate(t, src, Config{Federation: fc})
	entry, ok := out.File("remoteEntry.js")
	if !ok {
		t.Fatalf("no remote entry among %v", out.Files)
	}
	for _, want := range []string{"./greet", "shopContainer", "export default shopContainer;"} {
		if !strings.Contains(entry.Content, want) {
			t.Errorf("remote entry lacks %q:\n%s", want, entry.Content)
		}
	}
}

func TestGenerateDifferential(t *testing.T) {
	out := generate(t, "fn main() { println(1) }", Config{Name: "app", Differential: true})
	for _, name := range []string{"app.modern.js", "app.legacy.js", "app.html"} {
		if _, ok := out.File(name); !ok {
			t.Errorf("missing %s", name)
		}
	}
	html, _ := out.File("app.html")
	if !strings.Contains(html.Content, `<script nomodule src="./app.legacy.js">`) {
		t.Errorf("loader:\n%s", html.Content)
	}
}

func TestLegacy(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"const a = 1;", "var a = 1;"},
		{"let b = a;", "var b = a;"},
		{"const f = x => x + 1;", "var f = function(x) { return x + 1; };"},
		{"const g = (a, b) => { return a; };", "var g = function(a, b) { return a; };"},
		{"const h = () => this.v;", "var h = function() { return this.v; }.bind(this);"},
		{"const s = `n=${n}!`;", `var s = ("n=" + (n) + "!");`},
		{"const t = `plain`;", `var t = "plain";`},
	}
	for _, tt := range tests {
		if got := Legacy(tt.in); got != tt.want {
			t.Errorf("Legacy(%q)\n got %q\nwant %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateReservedMemberNames(t *testing.T) {
	src := `struct Point {
    x: int,
    y: int,
}

impl Point {
    fn new(x: int, y: int) -> Point {
        Point { x, y }
    }

    fn delete(self) -> int { self.x }
}

fn main() {
    let p = Point::new(3, 4)
    println(p.delete())
}`
	got := generate(t, src, Config{}).Code
	for _, want := range []string{"static new(", "Point.new(3, 4)", "delete(", ".delete()"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "new_") || strings.Contains(got, "delete_") {
		t.Errorf("member names were renamed:\n%s", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	src := `struct P { x: int, y: int }
@chunk("a")
fn fa() -> int { 1 }
@chunk("b")
fn fb() -> int { 2 }
fn main() {
 let p = P { x: 1, y: 2 }
 println(p.x + fa() + fb())
}
`
	cfg := Config{SourceMaps: MapBoth, Differential: true}
	first := generate(t, src, cfg)
	for i := 0; i < 5; i++ {
		again := generate(t, src, cfg)
		if len(again.Files) != len(first.Files) {
			t.Fatalf("file count changed")
		}
		for j := range first.Files {
			if again.Files[j] != first.Files[j] {
				t.Fatalf("run %d: %s differs", i, first.Files[j].Name)
			}
		}
	}
}
