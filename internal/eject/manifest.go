package eject

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/windjammer-lang/wj/internal/config"
	"github.com/windjammer-lang/wj/internal/stdlib"
)

const (
	defaultName    = "windjammer-ejected"
	defaultVersion = "0.1.0"
)

// manifest is the subset of Cargo.toml written by the ejector.
type manifest struct {
	Package         manifestPackage              `toml:"package"`
	Lib             *manifestTarget              `toml:"lib,omitempty"`
	Bin             []manifestTarget             `toml:"bin,omitempty"`
	Dependencies    map[string]config.Dependency `toml:"dependencies"`
	DevDependencies map[string]config.Dependency `toml:"dev-dependencies,omitempty"`
	Profile         manifestProfiles             `toml:"profile"`
}

type manifestPackage struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Edition string   `toml:"edition"`
	Authors []string `toml:"authors,omitempty"`
}

type manifestTarget struct {
	Name      string   `toml:"name"`
	Path      string   `toml:"path"`
	CrateType []string `toml:"crate-type,omitempty"`
}

type manifestProfiles struct {
	Release manifestProfile `toml:"release"`
}

type manifestProfile struct {
	OptLevel     int  `toml:"opt-level"`
	LTO          bool `toml:"lto"`
	CodegenUnits int  `toml:"codegen-units"`
}

// packageInfo returns the package section, taken from the project
// configuration when it names the project.
func packageInfo(cfg *config.Config) manifestPackage {
	p := manifestPackage{Name: defaultName, Version: defaultVersion, Edition: "2021"}
	if cfg == nil {
		return p
	}
	if n := cfg.Package.Name; n != "" && n != config.Default().Package.Name {
		p.Name = n
	}
	if cfg.Package.Version != "" {
		p.Version = cfg.Package.Version
	}
	if cfg.Package.Edition != "" {
		p.Edition = cfg.Package.Edition
	}
	p.Authors = cfg.Package.Authors
	return p
}

// crateName converts a package name into a Rust crate identifier.
func crateName(pkg string) string {
	return strings.ReplaceAll(pkg, "-", "_")
}

// dependencies merges the crates required by the stdlib modules in use
// with the dependencies declared in wj.toml, which win on conflict.
func dependencies(crates []stdlib.Crate, cfg *config.Config, wasm bool) map[string]config.Dependency {
	deps := make(map[string]config.Dependency)
	for _, c := range crates {
		deps[c.Name] = config.Dependency{Version: c.Version, Features: c.Features}
	}
	if wasm {
		if c, ok := stdlib.LookupCrate("wasm-bindgen"); ok {
			deps[c.Name] = config.Dependency{Version: c.Version}
		}
	}
	if cfg != nil {
		for name, d := range cfg.Dependencies {
			deps[name] = d
		}
	}
	return deps
}

// Manifest renders the Cargo.toml of a crate whose root is the single
// generated file at root, relative to the manifest.
func Manifest(imports []string, root string, bin, wasm bool, cfg *config.Config) ([]byte, error) {
	deps := dependencies(stdlib.Crates(imports), cfg, wasm)
	return cargoManifest(packageInfo(cfg), root, bin && !wasm, wasm, deps, cfg)
}

// cargoManifest renders Cargo.toml for a binary or library crate rooted
// at root, or at the conventional path when root is empty.
func cargoManifest(pkg manifestPackage, root string, bin, wasm bool, deps map[string]config.Dependency, cfg *config.Config) ([]byte, error) {
	libPath, binPath := "src/lib.rs", "src/main.rs"
	if root != "" {
		libPath, binPath = root, root
	}
	m := manifest{
		Package:      pkg,
		Dependencies: deps,
		Profile: manifestProfiles{Release: manifestProfile{
			OptLevel:     3,
			LTO:          true,
			CodegenUnits: 1,
		}},
	}
	if cfg != nil && len(cfg.DevDependencies) > 0 {
		m.DevDependencies = cfg.DevDependencies
	}
	switch {
	case wasm:
		m.Lib = &manifestTarget{Name: crateName(pkg.Name), Path: libPath, CrateType: []string{"cdylib"}}
	case bin:
		m.Bin = []manifestTarget{{Name: "app", Path: binPath}}
	default:
		m.Lib = &manifestTarget{Name: crateName(pkg.Name), Path: libPath}
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const gitignore = `/target
**/*.rs.bk
`

func readme(pkg manifestPackage, bin bool) string {
	run := "cargo build --release"
	if bin {
		run = "cargo run --release"
	}
	return "# " + pkg.Name + `

This crate was ejected from a Windjammer project. It is plain Rust and
no longer depends on the Windjammer compiler; edit it like any other
Cargo project.

## Building

` + "```sh\n" + run + "\n```\n"
}
