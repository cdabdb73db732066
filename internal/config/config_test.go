package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const sample = `[package]
name = "demo"
version = "0.2.0"
authors = ["Ann"]

[dependencies]
serde = "1.0"
tokio = { version = "1", features = ["full"] }
local = { path = "../local" }

[build]
target = "javascript"
minify = true
tree-shake = true
source-maps = "both"

[javascript.federation]
name = "shop"
exposes = { "./cart" = "cart" }
remotes = { checkout = "https://cdn.example.com/remoteEntry.js" }
shared = ["react"]
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, sample)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Package.Name != "demo" || cfg.Package.Version != "0.2.0" {
		t.Errorf("package = %+v", cfg.Package)
	}
	if cfg.Package.Edition != "2021" {
		t.Errorf("edition = %q, want the default 2021", cfg.Package.Edition)
	}
	if got := cfg.Dependencies["serde"]; !got.Simple() || got.Version != "1.0" {
		t.Errorf("serde = %+v", got)
	}
	if got := cfg.Dependencies["tokio"]; got.Version != "1" || !reflect.DeepEqual(got.Features, []string{"full"}) {
		t.Errorf("tokio = %+v", got)
	}
	if got := cfg.Dependencies["local"]; got.Path != "../local" || got.Simple() {
		t.Errorf("local = %+v", got)
	}
	b := cfg.Build
	if b.Target != "javascript" || !b.Minify || !b.TreeShake || b.SourceMaps != "both" || b.Polyfills {
		t.Errorf("build = %+v", b)
	}
	if b.Output != "build" {
		t.Errorf("output = %q, want the default", b.Output)
	}
	fed := cfg.JavaScript.Federation
	if fed == nil || fed.Name != "shop" || fed.Exposes["./cart"] != "cart" || len(fed.Shared) != 1 {
		t.Fatalf("federation = %+v", fed)
	}
	if fed.Remotes["checkout"] == "" {
		t.Errorf("remotes = %v", fed.Remotes)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[package\nname = 1", "load"},
		{"unknown key", "[build]\ncolour = true\n", "unknown key"},
		{"bad dependency", "[dependencies]\nx = 3\n", "invalid dependency"},
		{"bad feature", "[dependencies]\nx = { features = [1] }\n", "features"},
		{"unknown dependency key", "[dependencies]\nx = { branch = \"main\" }\n", "unknown dependency key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Package.Authors = []string{"Ann", "Bo"}
	cfg.Dependencies = map[string]Dependency{
		"serde": {Version: "1.0", Features: []string{"derive"}},
		"regex": {Version: "1.10"},
	}
	cfg.Build.Minify = true

	path := filepath.Join(t.TempDir(), FileName)
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `regex = "1.10"`) {
		t.Errorf("simple dependency not written as a string:\n%s", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(root, FileName))
	if path != want {
		t.Errorf("Find = %s, want %s", path, want)
	}

	cfg, found, err := LoadDir(nested)
	if err != nil || found != want || cfg.Package.Name != "x" {
		t.Errorf("LoadDir = %+v, %q, %v", cfg, found, err)
	}
}

func TestFindMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, fs.ErrNotExist) && err != nil {
		t.Fatalf("Find error = %v", err)
	}
	// A wj.toml above the temp dir is possible on developer machines;
	// LoadDir must still succeed.
	cfg, _, err := LoadDir(dir)
	if err != nil || cfg == nil {
		t.Fatalf("LoadDir = %v, %v", cfg, err)
	}
}

func TestDependencyNames(t *testing.T) {
	deps := map[string]Dependency{"b": {}, "a": {}, "c": {}}
	if got := DependencyNames(deps); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("DependencyNames = %v", got)
	}
}
