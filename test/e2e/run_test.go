package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/windjammer-lang/wj/internal/driver"
)

// variants are the pipeline settings every program is run under.
var variants = []struct {
	name  string
	shake bool
}{
	{"plain", false},
	{"tree_shake", true},
}

// TestRust runs end-to-end tests for all .wj files in testdata/.
// Each test:
//  1. Compiles the program to Rust in-process
//  2. Builds the .rs file with rustc
//  3. Runs the binary and compares stdout against the .golden file
func TestRust(t *testing.T) {
	testFiles := programs(t)
	if _, err := exec.LookPath("rustc"); err != nil {
		t.Skip("rustc not found, skipping Rust E2E tests")
	}
	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".wj")
		for _, v := range variants {
			t.Run(name+"/"+v.name, func(t *testing.T) {
				tmpDir := t.TempDir()
				rsFile := filepath.Join(tmpDir, "main.rs")
				binFile := filepath.Join(tmpDir, "main")

				compileTo(t, testFile, rsFile, driver.Options{Target: driver.Rust, TreeShake: v.shake})

				cmd := exec.Command("rustc", "--edition", "2021", "-A", "warnings", rsFile, "-o", binFile)
				if out, err := cmd.CombinedOutput(); err != nil {
					t.Fatalf("rustc failed:\n%s\n%v", out, err)
				}
				compare(t, testFile, exec.Command(binFile))
			})
		}
	}
}

// TestJavaScript runs the same programs through the JavaScript backend
// and node.
func TestJavaScript(t *testing.T) {
	testFiles := programs(t)
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not found, skipping JavaScript E2E tests")
	}
	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".wj")
		for _, v := range variants {
			t.Run(name+"/"+v.name, func(t *testing.T) {
				jsFile := filepath.Join(t.TempDir(), "main.mjs")
				compileTo(t, testFile, jsFile, driver.Options{Target: driver.JavaScript, TreeShake: v.shake})
				compare(t, testFile, exec.Command("node", jsFile))
			})
		}
	}
}

func programs(t *testing.T) []string {
	t.Helper()
	testFiles, err := filepath.Glob("testdata/*.wj")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .wj test files found in testdata/")
	}
	return testFiles
}

// compileTo runs the full pipeline in-process and writes the generated
// code to out.
func compileTo(t *testing.T, wjFile, out string, opts driver.Options) {
	t.Helper()
	c, err := driver.CompileFile(wjFile, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if c.Bag.HasErrors() {
		var msgs []string
		for _, d := range c.Bag.Sorted() {
			msgs = append(msgs, d.Span.Start.String()+": "+d.Message)
		}
		t.Fatalf("compile errors:\n%s", strings.Join(msgs, "\n"))
	}
	if err := os.WriteFile(out, []byte(c.Code()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// compare runs cmd and checks its stdout against the .golden file next
// to wjFile.
func compare(t *testing.T, wjFile string, cmd *exec.Cmd) {
	t.Helper()
	expected, err := os.ReadFile(strings.TrimSuffix(wjFile, ".wj") + ".golden")
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if got, want := string(out), string(expected); got != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}
