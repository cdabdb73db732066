package types

import "github.com/windjammer-lang/wj/internal/syntax"

// Object represents a declared entity: binding, type, function, module
// or builtin.
type Object interface {
	Name() string    // object name
	Type() Type      // object type; Typ[Invalid] when unknown
	Pos() syntax.Pos // declaration position
	Parent() *Scope  // enclosing scope

	setParent(*Scope) // internal: set parent scope
	aObject()         // marker method to restrict implementations
}

// object is the base struct for all objects.
type object struct {
	name   string
	typ    Type
	pos    syntax.Pos
	parent *Scope
}

func (o *object) Name() string { return o.name }
func (o *object) Type() Type {
	if o.typ == nil {
		return Typ[Invalid]
	}
	return o.typ
}
func (o *object) Pos() syntax.Pos    { return o.pos }
func (o *object) Parent() *Scope     { return o.parent }
func (o *object) setParent(s *Scope) { o.parent = s }
func (*object) aObject()             {}

// VarKind distinguishes the places a Var can be declared.
type VarKind uint8

const (
	LocalVar VarKind = iota
	ParamVar
	FieldVar
	ConstVar
	SelfVar
)

// Var represents a binding: local, parameter, const, self or struct field.
// Every Var gets a unit-wide binding id from the resolver.
type Var struct {
	object
	kind    VarKind
	id      int
	mutable bool
	decl    syntax.Node // *syntax.LetStmt, *syntax.Param, *syntax.ConstDecl, pattern...
}

// NewVar creates a new local variable object.
func NewVar(pos syntax.Pos, name string, typ Type) *Var {
	return &Var{object: object{name: name, typ: typ, pos: pos}, id: -1}
}

// NewParam creates a new parameter object.
func NewParam(pos syntax.Pos, name string, typ Type) *Var {
	return &Var{object: object{name: name, typ: typ, pos: pos}, kind: ParamVar, id: -1}
}

// NewField creates a new struct field object.
func NewField(pos syntax.Pos, name string, typ Type) *Var {
	return &Var{object: object{name: name, typ: typ, pos: pos}, kind: FieldVar, id: -1}
}

// NewConst creates a module-level const or static.
func NewConst(pos syntax.Pos, name string, typ Type) *Var {
	return &Var{object: object{name: name, typ: typ, pos: pos}, kind: ConstVar, id: -1}
}

// Kind returns where the variable was declared.
func (v *Var) Kind() VarKind {
	return v.kind
}

// SetKind changes the declaration kind.
func (v *Var) SetKind(k VarKind) {
	v.kind = k
}

// IsField reports whether this variable is a struct field.
func (v *Var) IsField() bool {
	return v.kind == FieldVar
}

// ID returns the binding id, or -1 if unassigned.
func (v *Var) ID() int {
	return v.id
}

// SetID assigns the binding id.
func (v *Var) SetID(id int) {
	v.id = id
}

// Mutable reports whether the binding was declared mut.
func (v *Var) Mutable() bool {
	return v.mutable
}

// SetMutable marks the binding mutable.
func (v *Var) SetMutable(m bool) {
	v.mutable = m
}

// Decl returns the declaring syntax node.
func (v *Var) Decl() syntax.Node {
	return v.decl
}

// SetDecl records the declaring syntax node.
func (v *Var) SetDecl(n syntax.Node) {
	v.decl = n
}

// SetType sets the variable's type.
func (v *Var) SetType(typ Type) {
	v.typ = typ
}

// TypeName represents a declared type name: struct, enum, trait, alias,
// generic parameter or predeclared type.
type TypeName struct {
	object
	decl syntax.Decl
}

// NewTypeName creates a new type name object.
func NewTypeName(pos syntax.Pos, name string, typ Type) *TypeName {
	return &TypeName{object: object{name: name, typ: typ, pos: pos}}
}

// SetType sets the type associated with the type name.
func (t *TypeName) SetType(typ Type) {
	t.typ = typ
}

// Decl returns the declaring item, or nil for predeclared types.
func (t *TypeName) Decl() syntax.Decl {
	return t.decl
}

// SetDecl records the declaring item.
func (t *TypeName) SetDecl(d syntax.Decl) {
	t.decl = d
}

// IsTrait reports whether the name denotes a trait.
func (t *TypeName) IsTrait() bool {
	n, ok := t.typ.(*Named)
	if !ok {
		return false
	}
	_, ok = n.Underlying().(*Trait)
	return ok
}

// FuncObj represents a declared function or method.
type FuncObj struct {
	object
	sig  *Func
	decl *syntax.FuncDecl
	recv *Named // receiver type for methods
}

// NewFuncObj creates a new function object.
// The signature should be set later using SetSignature.
func NewFuncObj(pos syntax.Pos, name string, decl *syntax.FuncDecl) *FuncObj {
	return &FuncObj{object: object{name: name, pos: pos}, decl: decl}
}

// Signature returns the function signature.
func (f *FuncObj) Signature() *Func {
	return f.sig
}

// SetSignature sets the function signature.
func (f *FuncObj) SetSignature(sig *Func) {
	f.sig = sig
	f.typ = sig
}

// Decl returns the function declaration, or nil for library functions.
func (f *FuncObj) Decl() *syntax.FuncDecl {
	return f.decl
}

// Recv returns the receiver type of a method, or nil.
func (f *FuncObj) Recv() *Named {
	return f.recv
}

// SetRecv records the receiver type.
func (f *FuncObj) SetRecv(n *Named) {
	f.recv = n
}

// Module is a name imported with use: the last path segment or its alias.
type Module struct {
	object
	path   string // full path: std::json
	std    bool   // known standard library module
	member bool   // imports an item of a module, not the module itself
}

// NewModule creates a module object.
func NewModule(pos syntax.Pos, name, path string, std, member bool) *Module {
	return &Module{object: object{name: name, pos: pos}, path: path, std: std, member: member}
}

// Path returns the full import path.
func (m *Module) Path() string { return m.path }

// IsStd reports whether the module is a known stdlib module.
func (m *Module) IsStd() bool { return m.std }

// IsMember reports whether the import names an item inside a module.
func (m *Module) IsMember() bool { return m.member }

// BuiltinKind identifies a builtin function or constructor.
type BuiltinKind int

const (
	BuiltinPrint BuiltinKind = iota
	BuiltinPrintln
	BuiltinPanic
	BuiltinAssert
	BuiltinSome
	BuiltinNone
	BuiltinOk
	BuiltinErr
	BuiltinDrop
)

// Builtin represents a predeclared function or variant constructor.
type Builtin struct {
	object
	kind BuiltinKind
}

// NewBuiltin creates a new builtin object.
func NewBuiltin(name string, kind BuiltinKind) *Builtin {
	return &Builtin{object: object{name: name}, kind: kind}
}

// Kind returns the builtin kind.
func (b *Builtin) Kind() BuiltinKind {
	return b.kind
}

// IsConstructor reports whether the builtin is Some, None, Ok or Err.
func (b *Builtin) IsConstructor() bool {
	return b.kind >= BuiltinSome && b.kind <= BuiltinErr
}

// VariantObj is an enum variant brought into scope by the enum's
// declaration, reachable as Enum::Variant.
type VariantObj struct {
	object
	enum    *Named
	variant *Variant
}

// NewVariantObj creates a variant object for enum.
func NewVariantObj(pos syntax.Pos, enum *Named, v *Variant) *VariantObj {
	return &VariantObj{object: object{name: v.Name, typ: enum, pos: pos}, enum: enum, variant: v}
}

// Enum returns the enum type.
func (v *VariantObj) Enum() *Named { return v.enum }

// Variant returns the variant.
func (v *VariantObj) Variant() *Variant { return v.variant }
