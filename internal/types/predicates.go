package types

// Identical reports whether x and y are identical types.
func Identical(x, y Type) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	return identical(x, y)
}

func identical(x, y Type) bool {
	// Handle named types
	xn, xNamed := x.(*Named)
	yn, yNamed := y.(*Named)
	if xNamed && yNamed {
		if xn.Origin() != yn.Origin() || len(xn.targs) != len(yn.targs) {
			return false
		}
		for i := range xn.targs {
			if !Identical(xn.targs[i], yn.targs[i]) {
				return false
			}
		}
		return true
	}
	if xNamed != yNamed {
		return false
	}

	switch x := x.(type) {
	case *Basic:
		if y, ok := y.(*Basic); ok {
			return x.kind == y.kind
		}
	case *Array:
		if y, ok := y.(*Array); ok {
			return x.len == y.len && Identical(x.elem, y.elem)
		}
	case *Tuple:
		if y, ok := y.(*Tuple); ok {
			if len(x.elems) != len(y.elems) {
				return false
			}
			for i := range x.elems {
				if !Identical(x.elems[i], y.elems[i]) {
					return false
				}
			}
			return true
		}
	case *Ref:
		if y, ok := y.(*Ref); ok {
			return x.mut == y.mut && Identical(x.elem, y.elem)
		}
	case *Func:
		if y, ok := y.(*Func); ok {
			return identicalFuncs(x, y)
		}
	case *TypeParam:
		if y, ok := y.(*TypeParam); ok {
			return x.name == y.name && x.index == y.index
		}
	}
	return false
}

func identicalFuncs(x, y *Func) bool {
	if len(x.params) != len(y.params) {
		return false
	}
	for i := range x.params {
		if !Identical(x.params[i].Type(), y.params[i].Type()) {
			return false
		}
	}
	return Identical(x.result, y.result)
}

// AssignableTo reports whether a value of type V may be used where T is
// expected. Invalid types and type parameters are assignable either way
// so that unknown types never produce follow-on errors.
func AssignableTo(V, T Type) bool {
	if V == nil || T == nil || IsInvalid(V) || IsInvalid(T) {
		return true
	}
	if Identical(V, T) {
		return true
	}
	if _, ok := V.(*TypeParam); ok {
		return true
	}
	if _, ok := T.(*TypeParam); ok {
		return true
	}

	if vb, ok := V.(*Basic); ok && vb.info&InfoUntyped != 0 {
		tb, ok := T.Underlying().(*Basic)
		if !ok {
			return false
		}
		switch vb.kind {
		case UntypedInt:
			return tb.info&InfoNumeric != 0
		case UntypedFloat:
			return tb.info&InfoFloat != 0
		}
	}

	// &String coerces to &str.
	if vr, ok := V.(*Ref); ok {
		if tr, ok := T.(*Ref); ok && (!tr.mut || vr.mut) {
			if isKind(tr.elem, Str) && isKind(vr.elem, String) {
				return true
			}
			return AssignableTo(vr.elem, tr.elem)
		}
	}

	// Library instantiations with unknown arguments, such as Vec::new().
	vn, vok := V.(*Named)
	tn, tok := T.(*Named)
	if vok && tok && vn.Origin() == tn.Origin() {
		if len(vn.targs) == 0 || len(tn.targs) == 0 {
			return true
		}
		for i := range vn.targs {
			if i >= len(tn.targs) || !AssignableTo(vn.targs[i], tn.targs[i]) {
				return false
			}
		}
		return true
	}

	// [T] literals and Vec<T> are the same runtime type.
	if va, ok := V.(*Array); ok {
		if tn, ok := T.(*Named); ok && tn.Origin() == libraryTypes["Vec"] {
			return AssignableTo(va.elem, tn.TypeArg(0))
		}
		if ta, ok := T.(*Array); ok {
			return (ta.len < 0 || va.len == ta.len) && AssignableTo(va.elem, ta.elem)
		}
	}
	if vn, ok := V.(*Named); ok && vn.Origin() == libraryTypes["Vec"] {
		if ta, ok := T.(*Array); ok && ta.len < 0 {
			return AssignableTo(vn.TypeArg(0), ta.elem)
		}
	}
	return false
}

func isKind(t Type, kind BasicKind) bool {
	b, ok := t.(*Basic)
	return ok && b.kind == kind
}

// IsInvalid reports whether T is the invalid type.
func IsInvalid(T Type) bool {
	return T == nil || isKind(T, Invalid)
}

// IsUntyped reports whether T is an untyped literal type.
func IsUntyped(T Type) bool {
	b, ok := T.(*Basic)
	return ok && b.info&InfoUntyped != 0
}

// IsBoolean reports whether T is bool.
func IsBoolean(T Type) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&InfoBoolean != 0
}

// IsInteger reports whether T is an integer type.
func IsInteger(T Type) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&InfoInteger != 0
}

// IsFloat reports whether T is a floating-point type.
func IsFloat(T Type) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&InfoFloat != 0
}

// IsNumeric reports whether T is a numeric type (integer or float).
func IsNumeric(T Type) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&InfoNumeric != 0
}

// IsString reports whether T is string or str.
func IsString(T Type) bool {
	b, ok := T.Underlying().(*Basic)
	return ok && b.info&InfoString != 0
}

// IsUnit reports whether T is ().
func IsUnit(T Type) bool {
	return isKind(T, Unit)
}

// Deref strips any number of references.
func Deref(T Type) Type {
	for {
		r, ok := T.(*Ref)
		if !ok {
			return T
		}
		T = r.elem
	}
}

// IsLibrary reports whether T is an instantiation of the named library
// type, for example IsLibrary(t, "Vec").
func IsLibrary(T Type, name string) bool {
	n, ok := T.(*Named)
	return ok && n.Origin() == libraryTypes[name] && libraryTypes[name] != nil
}

// IsSequence reports whether T is indexable by integers: [T], [T; N],
// Vec or VecDeque.
func IsSequence(T Type) bool {
	switch t := Deref(T).(type) {
	case *Array:
		return true
	case *Named:
		return IsLibrary(t, "Vec") || IsLibrary(t, "VecDeque")
	}
	return false
}

// ElemType returns the element type of a sequence, set, or map value,
// or Typ[Invalid].
func ElemType(T Type) Type {
	switch t := Deref(T).(type) {
	case *Array:
		return t.elem
	case *Named:
		switch {
		case IsLibrary(t, "HashMap"), IsLibrary(t, "Map"), IsLibrary(t, "BTreeMap"):
			return t.TypeArg(1)
		case t.IsLibrary() && len(t.targs) > 0:
			return t.targs[0]
		}
	case *Basic:
		if t.kind == String || t.kind == Str {
			return Typ[Char]
		}
	}
	return Typ[Invalid]
}

// DefaultType returns the default type for an untyped type.
// For typed types, returns the type itself.
func DefaultType(T Type) Type {
	b, ok := T.(*Basic)
	if !ok {
		return T
	}
	switch b.kind {
	case UntypedInt:
		return Typ[Int]
	case UntypedFloat:
		return Typ[Float]
	}
	return T
}

// Comparable reports whether values of type T can be compared with == or !=.
func Comparable(T Type) bool {
	return Satisfies(T, "PartialEq")
}

// Ordered reports whether values of type T can be ordered with <, <=, >, >=.
func Ordered(T Type) bool {
	return Satisfies(T, "PartialOrd")
}

// IsCopy reports whether T is Copy under the derivation rules used by
// the Rust backend.
func IsCopy(T Type) bool {
	return Satisfies(T, "Copy")
}

// IsClone reports whether T is Clone.
func IsClone(T Type) bool {
	return Satisfies(T, "Clone")
}

// Satisfies reports whether T implements trait, either through a
// declared impl, a derived implementation, or the library's impls.
// Invalid types satisfy nothing.
func Satisfies(T Type, trait string) bool {
	return (&traitChecker{seen: make(map[*Named]bool)}).satisfies(T, trait)
}

type traitChecker struct {
	seen map[*Named]bool
}

func (c *traitChecker) all(ts []Type, trait string) bool {
	for _, t := range ts {
		if !c.satisfies(t, trait) {
			return false
		}
	}
	return true
}

func (c *traitChecker) satisfies(T Type, trait string) bool {
	switch t := T.(type) {
	case *Basic:
		return basicSatisfies(t, trait)
	case *Ref:
		switch trait {
		case "Copy", "Clone":
			return !t.mut
		case "Default", "Add", "Sub", "Mul", "Div", "Rem", "Neg", "Not":
			return false
		}
		return c.satisfies(t.elem, trait)
	case *Tuple:
		if trait == "Display" {
			return false
		}
		return c.all(t.elems, trait)
	case *Array:
		switch trait {
		case "Display":
			return false
		case "Copy":
			return t.len >= 0 && c.satisfies(t.elem, trait)
		case "Index", "IndexMut", "IntoIterator":
			return true
		}
		return c.satisfies(t.elem, trait)
	case *TypeParam:
		for _, b := range t.bounds {
			if b == trait || (trait == "Clone" && b == "Copy") || (trait == "PartialEq" && b == "Eq") ||
				(trait == "PartialOrd" && b == "Ord") {
				return true
			}
		}
		return false
	case *Func:
		return trait == "Copy" || trait == "Clone"
	case *Named:
		return c.named(t, trait)
	}
	return false
}

func basicSatisfies(b *Basic, trait string) bool {
	if b.kind == Invalid {
		return false
	}
	switch trait {
	case "Copy":
		return b.kind != String && b.kind != Str
	case "Clone", "Default":
		return b.kind != Str
	case "Debug", "PartialEq", "PartialOrd":
		return true
	case "Eq", "Ord", "Hash":
		return b.info&InfoFloat == 0
	case "Display", "ToString":
		return b.kind != Unit
	case "Add":
		return b.info&InfoNumeric != 0 || b.kind == String
	case "Sub", "Mul", "Div", "Rem":
		return b.info&InfoNumeric != 0
	case "Neg":
		return b.info&InfoNumeric != 0 && b.info&InfoUnsigned == 0
	case "Not":
		return b.kind == Bool || b.info&InfoInteger != 0
	case "Index", "IntoIterator":
		return b.kind == String || b.kind == Str
	case "Send", "Sync":
		return true
	case "Sized":
		return b.kind != Str
	}
	return false
}

func (c *traitChecker) named(n *Named, trait string) bool {
	if n.Implements(trait) {
		return true
	}
	if n.IsLibrary() {
		return c.library(n, trait)
	}
	o := n.Origin()
	if c.seen[o] {
		// Recursive types satisfy a trait if the rest of their fields do.
		return true
	}
	c.seen[o] = true
	defer delete(c.seen, o)

	var fields []Type
	switch u := o.underlying.(type) {
	case *Struct:
		for _, f := range u.fields {
			fields = append(fields, f.Type())
		}
	case *Enum:
		for _, v := range u.variants {
			for _, f := range v.Fields {
				fields = append(fields, f.Type())
			}
		}
	default:
		return false
	}
	switch trait {
	case "Debug":
		return true
	case "Clone", "PartialEq", "Eq", "Hash", "PartialOrd", "Ord", "Send", "Sync", "Sized":
		return c.all(fields, trait)
	case "Copy":
		return c.all(fields, "Copy") && DefaultSizes.Sizeof(n) <= MaxCopySize
	case "Default":
		_, isStruct := o.underlying.(*Struct)
		return isStruct && c.all(fields, trait)
	}
	return false
}

func (c *traitChecker) library(n *Named, trait string) bool {
	name := n.obj.Name()
	args := n.targs
	switch trait {
	case "Debug", "Send", "Sync", "Sized":
		return true
	case "Clone":
		switch name {
		case "Rc", "Arc":
			return true
		case "Mutex", "RwLock":
			return false
		}
		return c.all(args, trait)
	case "Copy":
		switch name {
		case "Option":
			return c.all(args, trait)
		case "Result":
			return c.all(args, trait)
		}
		return false
	case "Default":
		switch name {
		case "Result":
			return false
		case "Option", "Vec", "HashMap", "HashSet", "Map", "Set", "BTreeMap", "BTreeSet", "VecDeque":
			return true
		}
		return c.all(args, trait)
	case "PartialEq", "Eq":
		switch name {
		case "Mutex", "RwLock", "Cell":
			return false
		}
		return c.all(args, trait)
	case "PartialOrd", "Ord", "Hash":
		switch name {
		case "HashMap", "HashSet", "Map", "Set", "Mutex", "RwLock", "RefCell", "Cell":
			return false
		}
		return c.all(args, trait)
	case "Index", "IndexMut":
		switch name {
		case "Vec", "VecDeque", "HashMap", "Map", "BTreeMap":
			return true
		}
	case "IntoIterator":
		switch name {
		case "Vec", "VecDeque", "HashMap", "HashSet", "Map", "Set", "BTreeMap", "BTreeSet", "Option", "Result":
			return true
		}
	}
	return false
}
