package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/driver"
)

func TestRunBuildRustMain(t *testing.T) {
	filename := writeTempWJFile(t, "fn main() {}\n")
	out := filepath.Join(t.TempDir(), "out")
	code, stdout, stderr := captureOutput(t, func() int {
		return run([]string{"build", filename, "--target=rust", "--output", out, "--no-color"})
	})
	if code != exitOK {
		t.Fatalf("build exit=%d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	rs, err := os.ReadFile(filepath.Join(out, "input.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rs), "fn main() {") {
		t.Fatalf("generated Rust lacks main:\n%s", rs)
	}
	cargo, err := os.ReadFile(filepath.Join(out, "Cargo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cargo), `path = "input.rs"`) {
		t.Fatalf("Cargo.toml does not point at the generated file:\n%s", cargo)
	}
}

func TestRunBuildCargoDependencies(t *testing.T) {
	filename := writeTempWJFile(t, "use std::json\nfn main() {}\n")
	out := filepath.Join(t.TempDir(), "out")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"build", "--output=" + out, filename})
	})
	if code != exitOK {
		t.Fatalf("build exit=%d\nstderr:\n%s", code, stderr)
	}
	cargo, err := os.ReadFile(filepath.Join(out, "Cargo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, dep := range []string{"serde =", "serde_json ="} {
		if !strings.Contains(string(cargo), dep) {
			t.Errorf("Cargo.toml lacks %q:\n%s", dep, cargo)
		}
	}
}

func TestRunBuildImmutableAssign(t *testing.T) {
	filename := writeTempWJFile(t, "fn main() {\n    let x = 10\n    x = 20\n}\n")
	out := filepath.Join(t.TempDir(), "out")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"build", filename, "-o", out, "--no-color"})
	})
	if code != exitCompile {
		t.Fatalf("build exit=%d, want %d\nstderr:\n%s", code, exitCompile, stderr)
	}
	if !strings.Contains(stderr, "input.wj:3:5: error [WJ0004]") {
		t.Fatalf("stderr lacks the WJ0004 report:\n%s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written despite errors: %v", err)
	}

	code, _, _ = captureOutput(t, func() int {
		return run([]string{"build", filename, "-o", out, "--emit-on-error"})
	})
	if code != exitCompile {
		t.Fatalf("build --emit-on-error exit=%d, want %d", code, exitCompile)
	}
	if _, err := os.Stat(filepath.Join(out, "input.rs")); err != nil {
		t.Fatalf("--emit-on-error wrote nothing: %v", err)
	}
}

func TestRunBuildJavaScript(t *testing.T) {
	src := "fn u() -> int { 42 }\nfn x() -> int { 100 }\nfn main() { u() }\n"
	filename := writeTempWJFile(t, src)
	out := filepath.Join(t.TempDir(), "out")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"build", filename, "--target=javascript", "--tree-shake", "--source-maps=both", "-o", out})
	})
	if code != exitOK {
		t.Fatalf("build exit=%d\nstderr:\n%s", code, stderr)
	}
	js, err := os.ReadFile(filepath.Join(out, "input.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(js), "function u(") || strings.Contains(string(js), "function x(") {
		t.Errorf("tree shaking:\n%s", js)
	}
	if !strings.Contains(string(js), "//# sourceMappingURL=data:") {
		t.Errorf("no inline source map:\n%s", js)
	}
	data, err := os.ReadFile(filepath.Join(out, "input.js.map"))
	if err != nil {
		t.Fatal(err)
	}
	var sm struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &sm); err != nil || sm.Version != 3 {
		t.Errorf("map version = %d, %v", sm.Version, err)
	}
}

func TestRunBuildUsesConfig(t *testing.T) {
	dir := t.TempDir()
	toml := "[build]\ntarget = \"javascript\"\noutput = \"" + filepath.ToSlash(filepath.Join(dir, "dist")) + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "wj.toml"), []byte(toml), 0o600); err != nil {
		t.Fatal(err)
	}
	filename := filepath.Join(dir, "app.wj")
	if err := os.WriteFile(filename, []byte("fn main() {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"build", filename})
	})
	if code != exitOK {
		t.Fatalf("build exit=%d\nstderr:\n%s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "dist", "app.js")); err != nil {
		t.Fatalf("wj.toml target and output ignored: %v", err)
	}
}

func TestRunBuildEmitAST(t *testing.T) {
	filename := writeTempWJFile(t, "fn add(a: int, b: int) -> int { a + b }\n")
	code, stdout, stderr := captureOutput(t, func() int {
		return run([]string{"build", "--emit-ast", filename})
	})
	if code != exitOK {
		t.Fatalf("exit=%d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "fn add(") {
		t.Fatalf("AST dump:\n%s", stdout)
	}

	code, stdout, _ = captureOutput(t, func() int {
		return run([]string{"build", "--emit-ast=json", filename})
	})
	if code != exitOK || !json.Valid([]byte(stdout)) {
		t.Fatalf("JSON AST dump (exit %d):\n%s", code, stdout)
	}
}

func TestRunBuildEmitTokens(t *testing.T) {
	filename := writeTempWJFile(t, "let s = \"a\\tb\"\n")
	code, stdout, _ := captureOutput(t, func() int {
		return run([]string{"build", "--emit-tokens", filename})
	})
	if code != exitOK {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(stdout, "POSITION") || !strings.Contains(stdout, `"a\tb"`) {
		t.Fatalf("token dump:\n%s", stdout)
	}
}

func TestRunBuildPassStats(t *testing.T) {
	filename := writeTempWJFile(t, "fn main() { println(\"hi\") }\n")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"build", filename, "-o", t.TempDir(), "--emit-pass-stats"})
	})
	if code != exitOK {
		t.Fatalf("exit=%d\nstderr:\n%s", code, stderr)
	}
	for _, pass := range []string{"intern", "fold", "shake", "verify", "total"} {
		if !strings.Contains(stderr, pass) {
			t.Errorf("pass stats lack %s:\n%s", pass, stderr)
		}
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"frobnicate"},
		{"build"},
		{"build", "a.wj", "b.wj"},
		{"build", "--target=cobol", "a.wj"},
		{"build", "--bogus", "a.wj"},
		{"eject", "only-one"},
	}
	for _, args := range tests {
		code, _, _ := captureOutput(t, func() int { return run(args) })
		if code != exitUsage {
			t.Errorf("run(%q) = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestRunExplain(t *testing.T) {
	code, stdout, stderr := captureOutput(t, func() int {
		return run([]string{"explain", "WJ0001", "--no-color"})
	})
	if code != exitOK {
		t.Fatalf("explain exit=%d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Variable not found") {
		t.Errorf("explain output lacks the title:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Example:") || !strings.Contains(stdout, "// Correct:") {
		t.Errorf("explain output lacks an example:\n%s", stdout)
	}

	code, _, _ = captureOutput(t, func() int { return run([]string{"explain", "WJ9999"}) })
	if code != exitCompile {
		t.Errorf("unknown code exit=%d", code)
	}
}

func TestRunExplainListAndSearch(t *testing.T) {
	code, stdout, _ := captureOutput(t, func() int { return run([]string{"explain", "--list"}) })
	if code != exitOK || !strings.Contains(stdout, "WJ0004") || !strings.Contains(stdout, "Ownership Errors:") {
		t.Errorf("list (exit %d):\n%s", code, stdout)
	}
	code, stdout, _ = captureOutput(t, func() int { return run([]string{"explain", "--search", "immutable"}) })
	if code != exitOK || !strings.Contains(stdout, "WJ0004") {
		t.Errorf("search (exit %d):\n%s", code, stdout)
	}
}

func TestRunDocs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "errors.json")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"docs", "--format=json", "-o", out})
	})
	if code != exitOK {
		t.Fatalf("docs exit=%d\nstderr:\n%s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) || !bytes.Contains(data, []byte(`"WJ0001"`)) {
		t.Fatalf("catalog JSON:\n%s", data)
	}
}

func TestRunEject(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "main.wj"), []byte("use std::json\nfn main() {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "ejected")
	code, stdout, stderr := captureOutput(t, func() int {
		return run([]string{"eject", in, out, "--no-color"})
	})
	if code != exitOK {
		t.Fatalf("eject exit=%d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "src/main.rs") {
		t.Errorf("file list:\n%s", stdout)
	}
	cargo, err := os.ReadFile(filepath.Join(out, "Cargo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cargo), "serde_json") {
		t.Errorf("Cargo.toml:\n%s", cargo)
	}
}

func TestRunEjectErrors(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "main.wj"), []byte("fn main() {\n    nope()\n}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "ejected")
	code, _, stderr := captureOutput(t, func() int {
		return run([]string{"eject", "--no-color", in, out})
	})
	if code != exitCompile {
		t.Fatalf("eject exit=%d, want %d\nstderr:\n%s", code, exitCompile, stderr)
	}
	if !strings.Contains(stderr, "main.wj:2:5: error [WJ0002]") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output written despite errors")
	}
}

func TestSessionEval(t *testing.T) {
	s := &session{target: driver.Rust}
	var out, errOut bytes.Buffer
	if !s.eval("fn sq(n: int) -> int { n * n }", &out, &errOut) {
		t.Fatal("session ended")
	}
	if strings.Contains(errOut.String(), "error") || !strings.Contains(out.String(), "fn sq(n: i64) -> i64") {
		t.Fatalf("item:\nstdout:\n%s\nstderr:\n%s", &out, &errOut)
	}
	out.Reset()
	s.eval("println(sq(4))", &out, &errOut)
	if !strings.Contains(out.String(), "fn main()") || !strings.Contains(out.String(), "sq(4)") {
		t.Fatalf("statement:\n%s\nstderr:\n%s", &out, &errOut)
	}
	if len(s.items) != 1 {
		t.Errorf("items = %v", s.items)
	}

	errOut.Reset()
	s.eval("fn broken() { missing }", &out, &errOut)
	if !strings.Contains(errOut.String(), "WJ0001") || len(s.items) != 1 {
		t.Errorf("broken item accepted:\n%s", &errOut)
	}
	if s.eval(":quit", &out, &errOut) {
		t.Error(":quit did not end the session")
	}
}

func TestNesting(t *testing.T) {
	tests := map[string]int{
		"fn main() {":       1,
		"fn main() {}":      0,
		`let s = "{"`:       0,
		"foo(bar[1], {":     2,
		`"\"{" + (`:         1,
		"}":                 -1,
	}
	for in, want := range tests {
		if got := nesting(in); got != want {
			t.Errorf("nesting(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]string{
		"":          "WARN",
		"debug":     "DEBUG",
		"trace":     "DEBUG",
		"wj=info":   "INFO",
		"ERROR":     "ERROR",
		"something": "WARN",
	}
	for in, want := range tests {
		if got := logLevel(in).String(); got != want {
			t.Errorf("logLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func writeTempWJFile(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, "input.wj")
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outC := make(chan []byte)
	errC := make(chan []byte)
	go func() { b, _ := io.ReadAll(rOut); outC <- b }()
	go func() { b, _ := io.ReadAll(rErr); errC <- b }()

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes := <-outC
	errBytes := <-errC
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
