package types

import "sort"

// Target layout constants for 64-bit Rust targets.
const (
	SizePtr    = 8
	AlignPtr   = 8
	SizeFatPtr = 16 // &str, &[T], &dyn Trait
	SizeVec    = 24 // Vec<T>, String
	SizeMap    = 48 // HashMap<K, V>, HashSet<T>

	// MaxCopySize is the largest struct the Rust backend derives Copy for.
	MaxCopySize = 16
)

// Sizes provides size and alignment calculations that mirror rustc's
// layout closely enough to drive derive decisions.
type Sizes struct{}

// DefaultSizes is the default Sizes implementation.
var DefaultSizes = &Sizes{}

// Sizeof returns the size of type T in bytes.
func (s *Sizes) Sizeof(T Type) int64 {
	switch t := T.(type) {
	case *Basic:
		return t.size
	case *Array:
		if t.len < 0 {
			return SizeVec
		}
		return t.len * s.Sizeof(t.elem)
	case *Tuple:
		size, _ := s.layout(t.elems)
		return size
	case *Ref:
		if isUnsized(t.elem) {
			return SizeFatPtr
		}
		return SizePtr
	case *Func:
		return SizePtr
	case *TypeParam:
		return SizePtr
	case *Named:
		return s.sizeofNamed(t)
	}
	return 0
}

func (s *Sizes) sizeofNamed(n *Named) int64 {
	if n.IsLibrary() {
		switch n.obj.Name() {
		case "Vec", "VecDeque":
			return SizeVec
		case "HashMap", "HashSet", "Map", "Set":
			return SizeMap
		case "BTreeMap", "BTreeSet":
			return SizeVec
		case "Box", "Rc", "Arc":
			return SizePtr
		case "Option":
			inner := n.TypeArg(0)
			if hasNiche(inner) {
				return s.Sizeof(inner)
			}
			return align(s.Sizeof(inner)+1, s.Alignof(inner))
		case "Result":
			a, b := s.Sizeof(n.TypeArg(0)), s.Sizeof(n.TypeArg(1))
			al := max(s.Alignof(n.TypeArg(0)), s.Alignof(n.TypeArg(1)))
			return align(max(a, b)+1, al)
		}
		return SizeVec
	}
	switch u := n.Underlying().(type) {
	case *Struct:
		s.ComputeLayout(u)
		return u.Size()
	case *Enum:
		var payload, al int64 = 0, 1
		for _, v := range u.variants {
			fts := make([]Type, len(v.Fields))
			for i, f := range v.Fields {
				fts[i] = f.Type()
			}
			size, a := s.layout(fts)
			payload = max(payload, size)
			al = max(al, a)
		}
		if payload == 0 {
			return 1
		}
		return align(payload+1, al)
	}
	return SizePtr
}

// Alignof returns the alignment of type T in bytes.
func (s *Sizes) Alignof(T Type) int64 {
	switch t := T.(type) {
	case *Basic:
		if t.kind == String || t.kind == Str {
			return AlignPtr
		}
		if t.size == 0 {
			return 1
		}
		return t.size
	case *Array:
		if t.len < 0 {
			return AlignPtr
		}
		if t.len == 0 {
			return 1
		}
		return s.Alignof(t.elem)
	case *Tuple:
		_, a := s.layout(t.elems)
		return a
	case *Named:
		if st, ok := t.Underlying().(*Struct); ok {
			s.ComputeLayout(st)
			return st.Align()
		}
		if e, ok := t.Underlying().(*Enum); ok {
			var al int64 = 1
			for _, v := range e.variants {
				for _, f := range v.Fields {
					al = max(al, s.Alignof(f.Type()))
				}
			}
			return al
		}
		if IsLibrary(t, "Option") {
			return s.Alignof(t.TypeArg(0))
		}
		return AlignPtr
	}
	return AlignPtr
}

// ComputeLayout computes the size, alignment, and field offsets for a struct.
// Fields are placed in decreasing alignment order, as rustc does for
// repr(Rust) structs. This function is idempotent.
func (s *Sizes) ComputeLayout(st *Struct) {
	if st.LayoutDone() {
		return
	}
	// Guard against recursive structs.
	st.SetLayout(SizePtr, AlignPtr, make([]int64, len(st.fields)))

	order := make([]int, len(st.fields))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Alignof(st.fields[order[a]].Type()) > s.Alignof(st.fields[order[b]].Type())
	})

	var offset int64
	var maxAlign int64 = 1
	offsets := make([]int64, len(st.fields))
	for _, i := range order {
		ft := st.fields[i].Type()
		fa := s.Alignof(ft)
		offset = align(offset, fa)
		offsets[i] = offset
		offset += s.Sizeof(ft)
		maxAlign = max(maxAlign, fa)
	}
	st.SetLayout(align(offset, maxAlign), maxAlign, offsets)
}

// layout returns the size and alignment of a field sequence.
func (s *Sizes) layout(fields []Type) (size, al int64) {
	al = 1
	sorted := append([]Type(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return s.Alignof(sorted[i]) > s.Alignof(sorted[j]) })
	for _, f := range sorted {
		fa := s.Alignof(f)
		size = align(size, fa) + s.Sizeof(f)
		al = max(al, fa)
	}
	return align(size, al), al
}

func isUnsized(t Type) bool {
	switch t := t.(type) {
	case *Basic:
		return t.kind == Str
	case *Named:
		return t.IsTrait()
	}
	return false
}

// hasNiche reports whether Option<t> can reuse an invalid bit pattern of
// t and so needs no separate tag.
func hasNiche(t Type) bool {
	switch t := t.(type) {
	case *Ref, *Func:
		return true
	case *Basic:
		return t.kind == Bool || t.kind == Char || t.kind == String
	case *Named:
		return IsLibrary(t, "Box") || IsLibrary(t, "Rc") || IsLibrary(t, "Arc") || IsLibrary(t, "Vec")
	}
	return false
}

// align returns x rounded up to a multiple of a.
func align(x, a int64) int64 {
	if a <= 1 {
		return x
	}
	return (x + a - 1) &^ (a - 1)
}
