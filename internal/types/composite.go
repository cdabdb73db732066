package types

import (
	"fmt"
	"strings"
)

// Array represents [T] (a growable vector, Len < 0) or [T; N].
type Array struct {
	typ
	len  int64
	elem Type
}

// NewArray creates a fixed-size array type.
func NewArray(len int64, elem Type) *Array {
	return &Array{len: len, elem: elem}
}

// NewSlice creates the growable [T] type.
func NewSlice(elem Type) *Array {
	return &Array{len: -1, elem: elem}
}

// Len returns the array length, or -1 for [T].
func (a *Array) Len() int64 {
	return a.len
}

// IsVec reports whether the array is the growable form.
func (a *Array) IsVec() bool {
	return a.len < 0
}

// Elem returns the array element type.
func (a *Array) Elem() Type {
	return a.elem
}

// Underlying implements Type.
func (a *Array) Underlying() Type {
	return a
}

// String implements Type.
func (a *Array) String() string {
	if a.len < 0 {
		return "[" + a.elem.String() + "]"
	}
	return fmt.Sprintf("[%s; %d]", a.elem, a.len)
}

// Tuple represents (A, B, ...). The empty tuple is Typ[Unit].
type Tuple struct {
	typ
	elems []Type
}

// NewTuple creates a tuple type. With no elements it returns Typ[Unit].
func NewTuple(elems ...Type) Type {
	if len(elems) == 0 {
		return Typ[Unit]
	}
	return &Tuple{elems: elems}
}

// Elems returns the element types.
func (t *Tuple) Elems() []Type {
	return t.elems
}

// Underlying implements Type.
func (t *Tuple) Underlying() Type {
	return t
}

// String implements Type.
func (t *Tuple) String() string {
	parts := make([]string, len(t.elems))
	for i, e := range t.elems {
		parts[i] = e.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Ref represents &T or &mut T.
type Ref struct {
	typ
	mut  bool
	elem Type
}

// NewRef creates a reference type.
func NewRef(elem Type, mut bool) *Ref {
	return &Ref{elem: elem, mut: mut}
}

// Elem returns the referenced type.
func (r *Ref) Elem() Type {
	return r.elem
}

// Mut reports whether the reference is exclusive.
func (r *Ref) Mut() bool {
	return r.mut
}

// Underlying implements Type.
func (r *Ref) Underlying() Type {
	return r
}

// String implements Type.
func (r *Ref) String() string {
	if r.mut {
		return "&mut " + r.elem.String()
	}
	return "&" + r.elem.String()
}

// Struct is the underlying type of a declared struct.
type Struct struct {
	typ
	fields  []*Var
	size    int64
	align   int64
	offsets []int64
}

// NewStruct creates a new struct type with the given fields.
func NewStruct(fields []*Var) *Struct {
	return &Struct{fields: fields}
}

// NumFields returns the number of fields.
func (s *Struct) NumFields() int {
	return len(s.fields)
}

// Field returns the field at the given index.
func (s *Struct) Field(i int) *Var {
	return s.fields[i]
}

// Fields returns all fields.
func (s *Struct) Fields() []*Var {
	return s.fields
}

// FieldByName returns the named field, or nil.
func (s *Struct) FieldByName(name string) *Var {
	for _, f := range s.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Size returns the struct size in bytes.
// Must be called after layout is computed.
func (s *Struct) Size() int64 {
	return s.size
}

// Align returns the struct alignment in bytes.
// Must be called after layout is computed.
func (s *Struct) Align() int64 {
	return s.align
}

// Offset returns the offset of field i in bytes.
// Must be called after layout is computed.
func (s *Struct) Offset(i int) int64 {
	return s.offsets[i]
}

// SetLayout sets the computed layout information.
func (s *Struct) SetLayout(size, align int64, offsets []int64) {
	s.size = size
	s.align = align
	s.offsets = offsets
}

// LayoutDone reports whether layout has been computed.
func (s *Struct) LayoutDone() bool {
	return s.offsets != nil
}

// Underlying implements Type.
func (s *Struct) Underlying() Type {
	return s
}

// String implements Type.
func (s *Struct) String() string {
	var buf strings.Builder
	buf.WriteString("struct { ")
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.Name())
		buf.WriteString(": ")
		buf.WriteString(f.Type().String())
	}
	buf.WriteString(" }")
	return buf.String()
}

// Variant is one case of an enum.
type Variant struct {
	Name   string
	Fields []*Var // payload; positional fields are named "0", "1", ...
	Tuple  bool
}

// Enum is the underlying type of a declared enum.
type Enum struct {
	typ
	variants []*Variant
}

// NewEnum creates an enum type.
func NewEnum(variants []*Variant) *Enum {
	return &Enum{variants: variants}
}

// Variants returns the variants in declaration order.
func (e *Enum) Variants() []*Variant {
	return e.variants
}

// Variant returns the named variant, or nil.
func (e *Enum) Variant(name string) *Variant {
	for _, v := range e.variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Underlying implements Type.
func (e *Enum) Underlying() Type {
	return e
}

// String implements Type.
func (e *Enum) String() string {
	names := make([]string, len(e.variants))
	for i, v := range e.variants {
		names[i] = v.Name
	}
	return "enum { " + strings.Join(names, ", ") + " }"
}

// Trait is the underlying type of a declared trait.
type Trait struct {
	typ
	methods []*FuncObj
}

// NewTrait creates a trait type.
func NewTrait(methods []*FuncObj) *Trait {
	return &Trait{methods: methods}
}

// Methods returns the trait's method signatures.
func (t *Trait) Methods() []*FuncObj {
	return t.methods
}

// Underlying implements Type.
func (t *Trait) Underlying() Type {
	return t
}

// String implements Type.
func (t *Trait) String() string {
	return fmt.Sprintf("trait { %d methods }", len(t.methods))
}

// Func represents a function type fn(A, B) -> R.
type Func struct {
	typ
	recv   *Var   // receiver (nil for non-method functions)
	params []*Var // parameters
	result Type   // Typ[Unit] when none is written
}

// NewFunc creates a new function type. A nil result means unit.
func NewFunc(recv *Var, params []*Var, result Type) *Func {
	if result == nil {
		result = Typ[Unit]
	}
	return &Func{recv: recv, params: params, result: result}
}

// Recv returns the receiver, or nil if this is not a method.
func (f *Func) Recv() *Var {
	return f.recv
}

// Params returns the parameter list.
func (f *Func) Params() []*Var {
	return f.params
}

// NumParams returns the number of parameters.
func (f *Func) NumParams() int {
	return len(f.params)
}

// Param returns the parameter at index i.
func (f *Func) Param(i int) *Var {
	return f.params[i]
}

// Result returns the result type.
func (f *Func) Result() Type {
	return f.result
}

// Underlying implements Type.
func (f *Func) Underlying() Type {
	return f
}

// String implements Type.
func (f *Func) String() string {
	var buf strings.Builder
	buf.WriteString("fn(")
	for i, p := range f.params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.Type().String())
	}
	buf.WriteString(")")
	if f.result != Typ[Unit] {
		buf.WriteString(" -> ")
		buf.WriteString(f.result.String())
	}
	return buf.String()
}

// TypeParam is a generic type parameter. Params introduced for untyped
// function parameters are marked Implicit.
type TypeParam struct {
	typ
	name     string
	index    int
	bounds   []string
	implicit bool
}

// NewTypeParam creates a type parameter.
func NewTypeParam(name string, index int, bounds []string, implicit bool) *TypeParam {
	return &TypeParam{name: name, index: index, bounds: bounds, implicit: implicit}
}

// Name returns the parameter name.
func (p *TypeParam) Name() string { return p.name }

// Index returns the position in the generic parameter list.
func (p *TypeParam) Index() int { return p.index }

// Bounds returns the user-written trait bounds.
func (p *TypeParam) Bounds() []string { return p.bounds }

// Implicit reports whether the parameter was introduced for an untyped
// function parameter.
func (p *TypeParam) Implicit() bool { return p.implicit }

// Underlying implements Type.
func (p *TypeParam) Underlying() Type { return p }

// String implements Type.
func (p *TypeParam) String() string { return p.name }
