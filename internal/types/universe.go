package types

import (
	"sort"

	"github.com/windjammer-lang/wj/internal/syntax"
)

// NoPos is the zero position value, used for predeclared objects.
var NoPos syntax.Pos

// Universe is the root scope containing all predeclared objects.
var Universe *Scope

// Library types by name, for predicates and the resolver.
var libraryTypes = make(map[string]*Named)

// libraryTypeNames lists the predeclared generic containers and smart
// pointers with their arity. Map and Set are WJ spellings of HashMap and
// HashSet.
var libraryTypeNames = []struct {
	name  string
	arity int
}{
	{"Vec", 1},
	{"Option", 1},
	{"Result", 2},
	{"HashMap", 2},
	{"HashSet", 1},
	{"Map", 2},
	{"Set", 1},
	{"BTreeMap", 2},
	{"BTreeSet", 1},
	{"VecDeque", 1},
	{"Box", 1},
	{"Rc", 1},
	{"Arc", 1},
	{"RefCell", 1},
	{"Cell", 1},
	{"Mutex", 1},
	{"RwLock", 1},
}

// stdTraits lists the predeclared traits with the methods they declare.
var stdTraits = map[string][]string{
	"Clone":        {"clone"},
	"Copy":         nil,
	"Debug":        {"fmt"},
	"Display":      {"fmt"},
	"ToString":     {"to_string"},
	"PartialEq":    {"eq", "ne"},
	"Eq":           nil,
	"PartialOrd":   {"partial_cmp", "lt", "le", "gt", "ge"},
	"Ord":          {"cmp", "max", "min", "clamp"},
	"Hash":         {"hash"},
	"Default":      {"default"},
	"Add":          {"add"},
	"Sub":          {"sub"},
	"Mul":          {"mul"},
	"Div":          {"div"},
	"Rem":          {"rem"},
	"Neg":          {"neg"},
	"Not":          {"not"},
	"Index":        {"index"},
	"IndexMut":     {"index_mut"},
	"Iterator":     {"next"},
	"IntoIterator": {"into_iter"},
	"From":         {"from"},
	"Into":         {"into"},
	"AsRef":        {"as_ref"},
	"Drop":         {"drop"},
	"Send":         nil,
	"Sync":         nil,
	"Sized":        nil,
	"Fn":           nil,
	"FnMut":        nil,
	"FnOnce":       nil,
}

func init() {
	// Create Universe scope
	Universe = NewScope(nil, UniverseScope, NoPos, NoPos, "universe")

	defPredeclaredTypes()
	defLibraryTypes()
	defPredeclaredTraits()
	defPredeclaredBuiltins()
}

// defPredeclaredTypes defines the basic types and their aliases.
func defPredeclaredTypes() {
	for kind := Bool; kind <= Unit; kind++ {
		typ := Typ[kind]
		if kind == Unit {
			continue
		}
		Universe.Insert(NewTypeName(NoPos, typ.name, typ))
	}
	for name, kind := range basicAliases {
		Universe.Insert(NewTypeName(NoPos, name, Typ[kind]))
	}
}

// defLibraryTypes defines the generic containers of the Rust prelude
// and std::collections.
func defLibraryTypes() {
	for _, lt := range libraryTypeNames {
		obj := NewTypeName(NoPos, lt.name, nil)
		n := NewNamed(obj, nil)
		params := make([]*TypeParam, lt.arity)
		for i := range params {
			params[i] = NewTypeParam(string(rune('T'+i)), i, nil, false)
		}
		n.SetTypeParams(params)
		libraryTypes[lt.name] = n
		Universe.Insert(obj)
	}
}

// defPredeclaredTraits defines the std traits used by bound inference.
func defPredeclaredTraits() {
	for name, methods := range stdTraits {
		obj := NewTypeName(NoPos, name, nil)
		fns := make([]*FuncObj, len(methods))
		for i, m := range methods {
			fns[i] = NewFuncObj(NoPos, m, nil)
		}
		NewNamed(obj, NewTrait(fns))
		Universe.Insert(obj)
	}
}

// defPredeclaredBuiltins defines print functions and the Option/Result
// constructors.
func defPredeclaredBuiltins() {
	for _, b := range []struct {
		name string
		kind BuiltinKind
	}{
		{"print", BuiltinPrint},
		{"println", BuiltinPrintln},
		{"panic", BuiltinPanic},
		{"assert", BuiltinAssert},
		{"drop", BuiltinDrop},
		{"Some", BuiltinSome},
		{"None", BuiltinNone},
		{"Ok", BuiltinOk},
		{"Err", BuiltinErr},
	} {
		Universe.Insert(NewBuiltin(b.name, b.kind))
	}
}

// LibraryType returns the predeclared library type with the given name,
// or nil.
func LibraryType(name string) *Named {
	return libraryTypes[name]
}

// NewVec returns Vec<elem>.
func NewVec(elem Type) *Named {
	return libraryTypes["Vec"].Instantiate(elem)
}

// NewOption returns Option<elem>.
func NewOption(elem Type) *Named {
	return libraryTypes["Option"].Instantiate(elem)
}

// IsStdTrait reports whether name is a predeclared trait.
func IsStdTrait(name string) bool {
	_, ok := stdTraits[name]
	return ok
}

// StdTraitsWithMethod returns the sorted names of predeclared traits that
// declare method.
func StdTraitsWithMethod(method string) []string {
	var out []string
	for name, methods := range stdTraits {
		for _, m := range methods {
			if m == method {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
