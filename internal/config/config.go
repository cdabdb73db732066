// Package config loads and saves wj.toml, the project configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project configuration file.
const FileName = "wj.toml"

// Config is the contents of wj.toml.
type Config struct {
	Package         Package               `toml:"package"`
	Dependencies    map[string]Dependency `toml:"dependencies,omitempty"`
	DevDependencies map[string]Dependency `toml:"dev-dependencies,omitempty"`
	Build           Build                 `toml:"build"`
	JavaScript      JavaScript            `toml:"javascript,omitempty"`
}

// Package describes the project.
type Package struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Authors []string `toml:"authors,omitempty"`
	Edition string   `toml:"edition,omitempty"`
}

// Build holds the defaults of wj build. Flags given on the command line
// take precedence.
type Build struct {
	Target     string `toml:"target,omitempty"`
	Output     string `toml:"output,omitempty"`
	Minify     bool   `toml:"minify,omitempty"`
	TreeShake  bool   `toml:"tree-shake,omitempty"`
	SourceMaps string `toml:"source-maps,omitempty"`
	Polyfills  bool   `toml:"polyfills,omitempty"`
	V8Optimize bool   `toml:"v8-optimize,omitempty"`
}

// JavaScript holds settings of the JavaScript target.
type JavaScript struct {
	Federation *Federation `toml:"federation,omitempty"`
}

// Federation configures the module federation container.
type Federation struct {
	Name     string            `toml:"name,omitempty"`
	Filename string            `toml:"filename,omitempty"`
	Exposes  map[string]string `toml:"exposes,omitempty"`
	Remotes  map[string]string `toml:"remotes,omitempty"`
	Shared   []string          `toml:"shared,omitempty"`
}

// Dependency is a Cargo dependency. In wj.toml it is written either as
// a version string or as a table.
type Dependency struct {
	Version  string   `toml:"version,omitempty"`
	Features []string `toml:"features,omitempty"`
	Path     string   `toml:"path,omitempty"`
	Git      string   `toml:"git,omitempty"`
}

// Simple reports whether d is fully described by its version.
func (d Dependency) Simple() bool {
	return d.Version != "" && len(d.Features) == 0 && d.Path == "" && d.Git == ""
}

// UnmarshalTOML accepts both "1.0" and { version = "1.0", ... }.
func (d *Dependency) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		*d = Dependency{Version: v}
		return nil
	case map[string]interface{}:
		*d = Dependency{}
		for key, val := range v {
			switch key {
			case "version", "path", "git":
				s, ok := val.(string)
				if !ok {
					return fmt.Errorf("dependency %s must be a string", key)
				}
				switch key {
				case "version":
					d.Version = s
				case "path":
					d.Path = s
				case "git":
					d.Git = s
				}
			case "features":
				list, ok := val.([]interface{})
				if !ok {
					return errors.New("dependency features must be an array")
				}
				for _, f := range list {
					s, ok := f.(string)
					if !ok {
						return errors.New("dependency features must be strings")
					}
					d.Features = append(d.Features, s)
				}
			default:
				return fmt.Errorf("unknown dependency key %q", key)
			}
		}
		return nil
	}
	return fmt.Errorf("invalid dependency %v", v)
}

// Default returns the configuration of a new project.
func Default() *Config {
	return &Config{
		Package: Package{Name: "windjammer-app", Version: "0.1.0", Edition: "2021"},
		Build:   Build{Target: "rust", Output: "build"},
	}
}

// Load reads the configuration at path. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		// Dependency tables are decoded by Dependency.UnmarshalTOML.
		if len(key) > 0 && (key[0] == "dependencies" || key[0] == "dev-dependencies") {
			continue
		}
		return nil, fmt.Errorf("load %s: unknown key %s", path, key)
	}
	return cfg, nil
}

// Find looks for wj.toml in dir and its parents and returns its path.
// It returns fs.ErrNotExist when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fs.ErrNotExist
		}
		dir = parent
	}
}

// LoadDir loads the configuration governing dir, or the defaults when no
// wj.toml is found.
func LoadDir(dir string) (*Config, string, error) {
	path, err := Find(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// MarshalTOML writes a simple dependency as its version string.
func (d Dependency) MarshalTOML() ([]byte, error) {
	if d.Simple() {
		return []byte(fmt.Sprintf("%q", d.Version)), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{ ")
	first := true
	field := func(key, val string) {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&buf, "%s = %q", key, val)
	}
	if d.Version != "" {
		field("version", d.Version)
	}
	if d.Path != "" {
		field("path", d.Path)
	}
	if d.Git != "" {
		field("git", d.Git)
	}
	if len(d.Features) > 0 {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		buf.WriteString("features = [")
		for i, f := range d.Features {
			if i > 0 {
				buf.WriteString(", ")
			}
			fmt.Fprintf(&buf, "%q", f)
		}
		buf.WriteString("]")
	}
	buf.WriteString(" }")
	return buf.Bytes(), nil
}

// DependencyNames returns the names of deps in sorted order.
func DependencyNames(deps map[string]Dependency) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
