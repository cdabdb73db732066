package eject

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/windjammer-lang/wj/internal/config"
	"github.com/windjammer-lang/wj/internal/diag"
)

func plan(t *testing.T, opts Options, files ...string) *Result {
	t.Helper()
	var sources []Source
	for i := 0; i+1 < len(files); i += 2 {
		sources = append(sources, Source{Path: files[i], Src: []byte(files[i+1])})
	}
	res, err := Plan(context.Background(), sources, opts)
	if err != nil {
		if res != nil && res.Bag != nil {
			t.Fatalf("Plan: %v\n%v", err, res.Bag.Sorted())
		}
		t.Fatalf("Plan: %v", err)
	}
	return res
}

func content(t *testing.T, res *Result, p string) string {
	t.Helper()
	f, ok := res.File(p)
	if !ok {
		var names []string
		for _, f := range res.Files {
			names = append(names, f.Path)
		}
		t.Fatalf("no %s among %v", p, names)
	}
	return string(f.Content)
}

// decodeManifest parses Cargo.toml into a generic table.
func decodeManifest(t *testing.T, res *Result) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if _, err := toml.Decode(content(t, res, "Cargo.toml"), &m); err != nil {
		t.Fatalf("Cargo.toml does not parse: %v", err)
	}
	return m
}

func table(t *testing.T, m map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := m[key].(map[string]interface{})
	if !ok {
		t.Fatalf("[%s] missing or not a table: %v", key, m[key])
	}
	return v
}

func TestEjectJSONDependencies(t *testing.T) {
	res := plan(t, Options{}, "main.wj", "use std::json\nfn main() {}\n")
	if !res.Bin {
		t.Error("crate with main is not a binary")
	}
	m := decodeManifest(t, res)
	deps := table(t, m, "dependencies")
	for _, name := range []string{"serde", "serde_json"} {
		if _, ok := deps[name]; !ok {
			t.Errorf("dependencies lack %s: %v", name, deps)
		}
	}

	pkg := table(t, m, "package")
	if pkg["name"] != "windjammer-ejected" || pkg["version"] != "0.1.0" || pkg["edition"] != "2021" {
		t.Errorf("package = %v", pkg)
	}
	bins, ok := m["bin"].([]map[string]interface{})
	if !ok || len(bins) != 1 || bins[0]["name"] != "app" || bins[0]["path"] != "src/main.rs" {
		t.Errorf("bin = %#v", m["bin"])
	}
	release := table(t, table(t, m, "profile"), "release")
	if release["opt-level"] != int64(3) || release["lto"] != true || release["codegen-units"] != int64(1) {
		t.Errorf("profile.release = %v", release)
	}
	if _, ok := res.File("src/main.rs"); !ok {
		t.Error("missing src/main.rs")
	}
	for _, p := range []string{".gitignore", "README.md"} {
		if _, ok := res.File(p); !ok {
			t.Errorf("missing %s", p)
		}
	}
}

func TestEjectLibrary(t *testing.T) {
	res := plan(t, Options{}, "shapes.wj", "pub fn area(w: int, h: int) -> int { w * h }\n")
	if res.Bin {
		t.Error("crate without main is a binary")
	}
	m := decodeManifest(t, res)
	lib := table(t, m, "lib")
	if lib["name"] != "windjammer_ejected" || lib["path"] != "src/lib.rs" {
		t.Errorf("lib = %v", lib)
	}
	if _, ok := m["bin"]; ok {
		t.Error("library manifest has a [[bin]] section")
	}
	if got := content(t, res, "src/lib.rs"); !strings.Contains(got, "pub fn area(") {
		t.Errorf("src/lib.rs:\n%s", got)
	}
}

func TestEjectWasm(t *testing.T) {
	res := plan(t, Options{Wasm: true}, "lib.wj", "pub fn double(n: int) -> int { n * 2 }\n")
	m := decodeManifest(t, res)
	lib := table(t, m, "lib")
	if !reflect.DeepEqual(lib["crate-type"], []interface{}{"cdylib"}) {
		t.Errorf("crate-type = %v", lib["crate-type"])
	}
	if _, ok := table(t, m, "dependencies")["wasm-bindgen"]; !ok {
		t.Error("wasm-bindgen missing")
	}
}

func TestEjectModules(t *testing.T) {
	res := plan(t, Options{},
		"main.wj", "use util\nfn main() { println(util::twice(2)) }\n",
		"util.wj", "pub fn twice(n: int) -> int { n * 2 }\n",
		"net/http.wj", "pub fn ping() -> bool { true }\n",
	)
	main := content(t, res, "src/main.rs")
	if !strings.HasPrefix(main, "// Generated by the Windjammer ejector from main.wj.") {
		t.Errorf("src/main.rs lacks the header:\n%s", main)
	}
	for _, want := range []string{"mod net;\n", "mod util;\n", "fn main()"} {
		if !strings.Contains(main, want) {
			t.Errorf("src/main.rs lacks %q:\n%s", want, main)
		}
	}
	if got := content(t, res, "src/net/mod.rs"); !strings.Contains(got, "pub mod http;") {
		t.Errorf("src/net/mod.rs:\n%s", got)
	}
	if got := content(t, res, "src/util.rs"); !strings.Contains(got, "pub fn twice(") {
		t.Errorf("src/util.rs:\n%s", got)
	}
	content(t, res, "src/net/http.rs")
}

func TestEjectNoCommentsNoCargo(t *testing.T) {
	res := plan(t, Options{NoComments: true, NoCargo: true}, "main.wj", "fn main() {}\n")
	if _, ok := res.File("Cargo.toml"); ok {
		t.Error("Cargo.toml written with NoCargo")
	}
	if got := content(t, res, "src/main.rs"); strings.Contains(got, "Generated by") {
		t.Errorf("header written with NoComments:\n%s", got)
	}
}

func TestEjectConfigDependencies(t *testing.T) {
	cfg := config.Default()
	cfg.Package.Name = "my-tool"
	cfg.Dependencies = map[string]config.Dependency{
		"serde_json": {Version: "1.0.100"},
		"anyhow":     {Version: "1"},
	}
	res := plan(t, Options{Config: cfg}, "main.wj", "use std::json\nfn main() {}\n")
	m := decodeManifest(t, res)
	if got := table(t, m, "package")["name"]; got != "my-tool" {
		t.Errorf("package name = %v", got)
	}
	deps := table(t, m, "dependencies")
	if deps["serde_json"] != "1.0.100" || deps["anyhow"] != "1" {
		t.Errorf("dependencies = %v", deps)
	}
	if _, ok := deps["serde"]; !ok {
		t.Errorf("stdlib dependency serde dropped: %v", deps)
	}
}

var fnItem = regexp.MustCompile(`(?m)^\s*(pub )?(async )?fn \w+`)

func TestEjectPreservesFunctionCount(t *testing.T) {
	res := plan(t, Options{},
		"main.wj", "fn helper(n: int) -> int { n + 1 }\nfn main() { println(helper(1)) }\n",
		"math.wj", "pub fn sq(n: int) -> int { n * n }\npub fn cube(n: int) -> int { n * n * n }\n",
	)
	n := 0
	for _, f := range res.Files {
		if filepath.Ext(f.Path) == ".rs" {
			n += len(fnItem.FindAll(f.Content, -1))
		}
	}
	if n != res.Functions || n != 4 {
		t.Errorf("generated %d fn items, compiled %d, want 4", n, res.Functions)
	}
}

func TestEjectAllOrNothing(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	write := func(name, src string) {
		if err := os.WriteFile(filepath.Join(in, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("main.wj", "fn main() { println(1) }\n")
	write("a.wj", "pub fn a() -> int { missing }\n")
	write("b.wj", "pub fn b() { let x = 1\n x = 2 }\n")

	res, err := Eject(context.Background(), in, out, Options{Jobs: 2})
	if !errors.Is(err, ErrCompilation) {
		t.Fatalf("err = %v, want ErrCompilation", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output directory created: %v", err)
	}
	got := res.Bag.Sorted()
	if len(got) < 2 {
		t.Fatalf("diagnostics = %v", got)
	}
	if got[0].Code != diag.UnknownName || got[0].Span.Start.Filename() != "a.wj" {
		t.Errorf("first diagnostic = %v", got[0])
	}
	if !res.Bag.Has(diag.ImmutableAssign) {
		t.Errorf("b.wj diagnostic missing: %v", got)
	}
}

func TestEjectWritesFiles(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "main.wj"), []byte("fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	res, err := Eject(context.Background(), in, out, Options{})
	if err != nil {
		t.Fatalf("Eject: %v", err)
	}
	for _, f := range res.Files {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(f.Path)))
		if err != nil {
			t.Errorf("read %s: %v", f.Path, err)
			continue
		}
		if !bytes.Equal(data, f.Content) {
			t.Errorf("%s differs on disk", f.Path)
		}
	}
}

func TestEjectDeterministic(t *testing.T) {
	files := []string{
		"main.wj", "use std::json\nuse std::regex\nfn main() {}\n",
		"b.wj", "pub fn b() -> int { 2 }\n",
		"a.wj", "pub fn a() -> int { 1 }\n",
	}
	first := plan(t, Options{Jobs: 4}, files...)
	for i := 0; i < 5; i++ {
		again := plan(t, Options{Jobs: 4}, files...)
		if !reflect.DeepEqual(again.Files, first.Files) {
			t.Fatalf("run %d produced different files", i)
		}
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"main.wj", "lib/z.wj", "lib/a.wj", ".git/x.wj", "target/y.wj", "notes.txt"} {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("fn main() {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sources, err := Collect(root)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range sources {
		got = append(got, s.Path)
	}
	want := []string{"lib/a.wj", "lib/z.wj", "main.wj"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Collect = %v, want %v", got, want)
	}

	if _, err := Collect(filepath.Join(root, "lib", "..", "notes.txt")); err != nil {
		t.Errorf("Collect of a single file: %v", err)
	}
	if _, err := Collect(t.TempDir()); err == nil {
		t.Error("Collect of an empty directory succeeded")
	}
}
