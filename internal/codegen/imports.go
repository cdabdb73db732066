package codegen

import (
	"sort"
	"strings"
)

// nativePaths maps names the generated code may mention unqualified to
// the Rust module they must be imported from. Prelude names are absent.
var nativePaths = map[string]string{
	"HashMap":   "std::collections",
	"HashSet":   "std::collections",
	"BTreeMap":  "std::collections",
	"BTreeSet":  "std::collections",
	"VecDeque":  "std::collections",
	"Rc":        "std::rc",
	"RefCell":   "std::cell",
	"Cell":      "std::cell",
	"Arc":       "std::sync",
	"Mutex":     "std::sync",
	"RwLock":    "std::sync",
	"Debug":     "std::fmt",
	"Display":   "std::fmt",
	"Formatter": "std::fmt",
	"Hash":      "std::hash",
	"Add":       "std::ops",
	"Sub":       "std::ops",
	"Mul":       "std::ops",
	"Div":       "std::ops",
	"Rem":       "std::ops",
	"Neg":       "std::ops",
	"Not":       "std::ops",
	"Index":     "std::ops",
	"IndexMut":  "std::ops",
	"AddAssign": "std::ops",
	"SubAssign": "std::ops",
	"MulAssign": "std::ops",
	"DivAssign": "std::ops",
}

// imports collects the use declarations of a generated file.
type imports struct {
	names map[string]map[string]bool // module path -> imported names
	raw   map[string]bool            // complete use lines
}

func newImports() *imports {
	return &imports{names: make(map[string]map[string]bool), raw: make(map[string]bool)}
}

// need records that the generated code mentions name unqualified.
// Bound strings such as Add<Output = T> are reduced to the trait name.
func (im *imports) need(name string) {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if mod, ok := nativePaths[name]; ok {
		im.add(mod, name)
	}
}

func (im *imports) add(mod, name string) {
	set := im.names[mod]
	if set == nil {
		set = make(map[string]bool)
		im.names[mod] = set
	}
	set[name] = true
}

// line records a use declaration emitted verbatim.
func (im *imports) line(s string) {
	im.raw[s] = true
}

// lines returns the use declarations sorted by path.
func (im *imports) lines() []string {
	var out []string
	for mod, set := range im.names {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		if len(names) == 1 {
			out = append(out, "use "+mod+"::"+names[0]+";")
		} else {
			out = append(out, "use "+mod+"::{"+strings.Join(names, ", ")+"};")
		}
	}
	for l := range im.raw {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// paths returns every imported Rust path, one per name.
func (im *imports) paths() []string {
	var out []string
	for mod, set := range im.names {
		for n := range set {
			out = append(out, mod+"::"+n)
		}
	}
	sort.Strings(out)
	return out
}
