// Package stdlib describes the WJ standard library: the importable
// modules, the Cargo crates each one pulls in, and how its functions and
// the builtin methods map onto Rust and JavaScript.
package stdlib

import (
	"sort"
	"strings"
)

// Crate is a Cargo dependency.
type Crate struct {
	Name     string
	Version  string
	Features []string
}

// Func is a function exported by a stdlib module. Templates use $0, $1,
// ... for the rendered arguments.
type Func struct {
	Name   string
	Rust   string
	JS     string
	Result string // WJ type of the result, "" if unknown or generic
	Async  bool   // Rust template awaits
}

// Module is an importable stdlib module.
type Module struct {
	Path   string   // std::json
	Crates []string // crate names, see Crates
	Host   bool     // provided by the Rust standard library
	Funcs  map[string]*Func
}

// Name returns the last path segment.
func (m *Module) Name() string {
	return m.Path[strings.LastIndex(m.Path, "::")+2:]
}

// Func returns the named function, or nil.
func (m *Module) Func(name string) *Func {
	return m.Funcs[name]
}

// crates holds the pinned crate versions used for generated manifests.
var crates = map[string]Crate{
	"serde":        {Name: "serde", Version: "1.0", Features: []string{"derive"}},
	"serde_json":   {Name: "serde_json", Version: "1.0"},
	"csv":          {Name: "csv", Version: "1.3"},
	"reqwest":      {Name: "reqwest", Version: "0.11", Features: []string{"json"}},
	"axum":         {Name: "axum", Version: "0.7"},
	"tokio":        {Name: "tokio", Version: "1", Features: []string{"full"}},
	"chrono":       {Name: "chrono", Version: "0.4"},
	"log":          {Name: "log", Version: "0.4"},
	"env_logger":   {Name: "env_logger", Version: "0.11"},
	"regex":        {Name: "regex", Version: "1.10"},
	"clap":         {Name: "clap", Version: "4.5", Features: []string{"derive"}},
	"sqlx":         {Name: "sqlx", Version: "0.7", Features: []string{"runtime-tokio-native-tls", "postgres", "sqlite", "mysql"}},
	"rand":         {Name: "rand", Version: "0.8"},
	"sha2":         {Name: "sha2", Version: "0.10"},
	"bcrypt":       {Name: "bcrypt", Version: "0.15"},
	"base64":       {Name: "base64", Version: "0.21"},
	"wasm-bindgen": {Name: "wasm-bindgen", Version: "0.2"},
}

// LookupCrate returns the pinned version of a crate.
func LookupCrate(name string) (Crate, bool) {
	c, ok := crates[name]
	return c, ok
}

var modules = map[string]*Module{
	"std::json": {Crates: []string{"serde", "serde_json"}, Funcs: funcs(
		&Func{Name: "stringify", Rust: "serde_json::to_string(&$0).unwrap()", JS: "JSON.stringify($0)", Result: "string"},
		&Func{Name: "pretty", Rust: "serde_json::to_string_pretty(&$0).unwrap()", JS: "JSON.stringify($0, null, 2)", Result: "string"},
		&Func{Name: "parse", Rust: "serde_json::from_str(&$0).unwrap()", JS: "JSON.parse($0)"},
	)},
	"std::csv": {Crates: []string{"csv"}, Funcs: funcs(
		&Func{Name: "read", Rust: "csv::Reader::from_path(&$0).unwrap()", JS: "__wj_csv_read($0)"},
		&Func{Name: "parse", Rust: "csv::Reader::from_reader($0.as_bytes())", JS: "__wj_csv_parse($0)"},
	)},
	"std::http": {Crates: []string{"reqwest", "axum", "tokio"}, Funcs: funcs(
		&Func{Name: "get", Rust: "reqwest::get(&*$0).await.unwrap().text().await.unwrap()", JS: "(await (await fetch($0)).text())", Result: "string", Async: true},
		&Func{Name: "get_json", Rust: "reqwest::get(&*$0).await.unwrap().json::<serde_json::Value>().await.unwrap()", JS: "(await (await fetch($0)).json())", Async: true},
	)},
	"std::time": {Crates: []string{"chrono"}, Funcs: funcs(
		&Func{Name: "now", Rust: "chrono::Local::now()", JS: "new Date()"},
		&Func{Name: "timestamp", Rust: "chrono::Utc::now().timestamp()", JS: "Math.floor(Date.now() / 1000)", Result: "int"},
		&Func{Name: "millis", Rust: "chrono::Utc::now().timestamp_millis()", JS: "Date.now()", Result: "int"},
	)},
	"std::log": {Crates: []string{"log", "env_logger"}, Funcs: funcs(
		&Func{Name: "init", Rust: "env_logger::init()", JS: "undefined"},
		&Func{Name: "info", Rust: "log::info!(\"{}\", $0)", JS: "console.info($0)"},
		&Func{Name: "warn", Rust: "log::warn!(\"{}\", $0)", JS: "console.warn($0)"},
		&Func{Name: "error", Rust: "log::error!(\"{}\", $0)", JS: "console.error($0)"},
		&Func{Name: "debug", Rust: "log::debug!(\"{}\", $0)", JS: "console.debug($0)"},
	)},
	"std::regex": {Crates: []string{"regex"}, Funcs: funcs(
		&Func{Name: "new", Rust: "regex::Regex::new(&$0).unwrap()", JS: "new RegExp($0)"},
		&Func{Name: "is_match", Rust: "regex::Regex::new(&$0).unwrap().is_match(&$1)", JS: "new RegExp($0).test($1)", Result: "bool"},
		&Func{Name: "replace_all", Rust: "regex::Regex::new(&$0).unwrap().replace_all(&$1, &*$2).to_string()", JS: "$1.replace(new RegExp($0, 'g'), $2)", Result: "string"},
	)},
	"std::cli": {Crates: []string{"clap"}, Funcs: funcs(
		&Func{Name: "args", Rust: "std::env::args().collect::<Vec<String>>()", JS: "process.argv.slice(1)", Result: "[string]"},
	)},
	"std::db": {Crates: []string{"sqlx", "tokio"}, Funcs: funcs(
		&Func{Name: "connect", Rust: "sqlx::AnyPool::connect(&$0).await.unwrap()", JS: "__wj_db_connect($0)", Async: true},
	)},
	"std::random": {Crates: []string{"rand"}, Funcs: funcs(
		&Func{Name: "range", Rust: "rand::Rng::gen_range(&mut rand::thread_rng(), $0..$1)", JS: "(Math.floor(Math.random() * (($1) - ($0))) + ($0))", Result: "int"},
		&Func{Name: "float", Rust: "rand::random::<f64>()", JS: "Math.random()", Result: "float"},
		&Func{Name: "bool", Rust: "rand::random::<bool>()", JS: "(Math.random() < 0.5)", Result: "bool"},
	)},
	"std::crypto": {Crates: []string{"sha2", "bcrypt", "base64"}, Funcs: funcs(
		&Func{Name: "sha256", Rust: "{ use sha2::Digest; format!(\"{:x}\", sha2::Sha256::digest($0.as_bytes())) }", JS: "__wj_sha256($0)", Result: "string"},
		&Func{Name: "hash_password", Rust: "bcrypt::hash(&$0, bcrypt::DEFAULT_COST).unwrap()", JS: "__wj_hash_password($0)", Result: "string"},
		&Func{Name: "verify_password", Rust: "bcrypt::verify(&$0, &$1).unwrap_or(false)", JS: "__wj_verify_password($0, $1)", Result: "bool"},
		&Func{Name: "base64_encode", Rust: "{ use base64::Engine; base64::engine::general_purpose::STANDARD.encode($0) }", JS: "btoa($0)", Result: "string"},
	)},
	"std::async": {Crates: []string{"tokio"}, Funcs: funcs(
		&Func{Name: "sleep", Rust: "tokio::time::sleep(std::time::Duration::from_millis($0 as u64)).await", JS: "(await new Promise((r) => setTimeout(r, $0)))", Async: true},
	)},
	"std::fs": {Host: true, Funcs: funcs(
		&Func{Name: "read_to_string", Rust: "std::fs::read_to_string(&$0).map_err(|e| e.to_string())", JS: "__wj_fs_read($0)", Result: "Result<string, string>"},
		&Func{Name: "write", Rust: "std::fs::write(&$0, &$1).map_err(|e| e.to_string())", JS: "__wj_fs_write($0, $1)", Result: "Result<(), string>"},
		&Func{Name: "exists", Rust: "std::path::Path::new(&$0).exists()", JS: "__wj_fs_exists($0)", Result: "bool"},
	)},
	"std::strings": {Host: true, Funcs: funcs(
		&Func{Name: "to_upper", Rust: "$0.to_uppercase()", JS: "$0.toUpperCase()", Result: "string"},
		&Func{Name: "to_lower", Rust: "$0.to_lowercase()", JS: "$0.toLowerCase()", Result: "string"},
		&Func{Name: "trim", Rust: "$0.trim().to_string()", JS: "$0.trim()", Result: "string"},
		&Func{Name: "contains", Rust: "$0.contains(&*$1)", JS: "$0.includes($1)", Result: "bool"},
		&Func{Name: "replace", Rust: "$0.replace(&*$1, &*$2)", JS: "$0.split($1).join($2)", Result: "string"},
		&Func{Name: "split", Rust: "$0.split(&*$1).map(|s| s.to_string()).collect::<Vec<String>>()", JS: "$0.split($1)", Result: "[string]"},
		&Func{Name: "join", Rust: "$0.join(&*$1)", JS: "$0.join($1)", Result: "string"},
	)},
	"std::math": {Host: true, Funcs: funcs(
		&Func{Name: "sqrt", Rust: "($0 as f64).sqrt()", JS: "Math.sqrt($0)", Result: "float"},
		&Func{Name: "pow", Rust: "($0 as f64).powf($1 as f64)", JS: "Math.pow($0, $1)", Result: "float"},
		&Func{Name: "abs", Rust: "$0.abs()", JS: "Math.abs($0)"},
		&Func{Name: "floor", Rust: "($0 as f64).floor()", JS: "Math.floor($0)", Result: "float"},
		&Func{Name: "ceil", Rust: "($0 as f64).ceil()", JS: "Math.ceil($0)", Result: "float"},
		&Func{Name: "min", Rust: "std::cmp::min($0, $1)", JS: "Math.min($0, $1)"},
		&Func{Name: "max", Rust: "std::cmp::max($0, $1)", JS: "Math.max($0, $1)"},
		&Func{Name: "pi", Rust: "std::f64::consts::PI", JS: "Math.PI", Result: "float"},
	)},
	"std::env": {Host: true, Funcs: funcs(
		&Func{Name: "var", Rust: "std::env::var(&*$0).ok()", JS: "process.env[$0]", Result: "Option<string>"},
		&Func{Name: "args", Rust: "std::env::args().collect::<Vec<String>>()", JS: "process.argv.slice(1)", Result: "[string]"},
	)},
	"std::process": {Host: true, Funcs: funcs(
		&Func{Name: "exit", Rust: "std::process::exit($0 as i32)", JS: "process.exit($0)"},
	)},
}

func init() {
	for path, m := range modules {
		m.Path = path
	}
}

func funcs(list ...*Func) map[string]*Func {
	m := make(map[string]*Func, len(list))
	for _, f := range list {
		m[f.Name] = f
	}
	return m
}

// rustNative lists Rust standard library modules that may be imported
// directly; they are forwarded to the Rust output unchanged.
var rustNative = map[string]bool{
	"std::collections": true,
	"std::fmt":         true,
	"std::ops":         true,
	"std::io":          true,
	"std::rc":          true,
	"std::cell":        true,
	"std::sync":        true,
	"std::cmp":         true,
	"std::thread":      true,
	"std::mem":         true,
	"std::iter":        true,
	"std::convert":     true,
	"std::hash":        true,
	"std::path":        true,
	"std::str":         true,
	"std::string":      true,
	"std::vec":         true,
	"std::error":       true,
}

// Lookup returns the WJ stdlib module with the given path.
func Lookup(path string) (*Module, bool) {
	m, ok := modules[path]
	return m, ok
}

// Resolve classifies an import path. It returns the stdlib module the
// path names or is inside of, and whether the path refers to a member of
// that module (std::json::parse) rather than the module itself. Native
// reports paths into the Rust standard library.
func Resolve(path string) (m *Module, member, native, ok bool) {
	if m, ok := modules[path]; ok {
		return m, false, false, true
	}
	if i := strings.LastIndex(path, "::"); i > 0 {
		if m, ok := modules[path[:i]]; ok {
			return m, true, false, true
		}
	}
	for p := path; ; {
		if rustNative[p] {
			return nil, p != path, true, true
		}
		i := strings.LastIndex(p, "::")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return nil, false, false, false
}

// Paths returns the sorted paths of all WJ stdlib modules.
func Paths() []string {
	out := make([]string, 0, len(modules))
	for p := range modules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Crates returns the Cargo dependencies required by the given imports,
// deduplicated and sorted by crate name. Unknown and host-only imports
// contribute nothing.
func Crates(imports []string) []Crate {
	seen := make(map[string]bool)
	var out []Crate
	for _, path := range imports {
		m, _, _, ok := Resolve(path)
		if !ok || m == nil {
			continue
		}
		for _, name := range m.Crates {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, crates[name])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
