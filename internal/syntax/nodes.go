// Package syntax implements lexical and syntactic analysis for the Windjammer (WJ) language.
package syntax

// ----------------------------------------------------------------------------
// Interfaces
//
// There are 5 classes of nodes: Declarations (items), Statements,
// Expressions, Types and Patterns. All nodes implement the Node interface.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Pos   // position of first character belonging to the node
	End() Pos   // position of first character immediately after the node
	Span() Span // [Pos, End)
	aNode()     // marker method to restrict implementations to this package
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Decl is the interface for all item nodes.
type Decl interface {
	Node
	aDecl()
}

// Type is the interface for all type expressions.
type Type interface {
	Node
	aType()
}

// Pattern is the interface for all patterns (match arms, let, for).
type Pattern interface {
	Node
	aPattern()
}

// ----------------------------------------------------------------------------
// Base node types

// node is the base struct embedded in all AST nodes.
type node struct {
	pos Pos
	end Pos
}

func (n *node) Pos() Pos { return n.pos }
func (n *node) End() Pos {
	if n.end.IsValid() {
		return n.end
	}
	return n.pos
}
func (n *node) Span() Span { return MakeSpan(n.pos, n.End()) }
func (n *node) aNode()     {}

// SetPos sets the node span. It is used by passes that synthesize nodes.
func (n *node) SetPos(pos, end Pos) { n.pos, n.end = pos, end }

// expr is embedded in all expression nodes.
type expr struct{ node }

func (*expr) aExpr() {}

// stmt is embedded in all statement nodes.
type stmt struct{ node }

func (*stmt) aStmt() {}

// decl is embedded in all declaration nodes.
type decl struct{ node }

func (*decl) aDecl() {}

// typ is embedded in all type nodes.
type typ struct{ node }

func (*typ) aType() {}

// pat is embedded in all pattern nodes.
type pat struct{ node }

func (*pat) aPattern() {}

// ----------------------------------------------------------------------------
// Files and Declarations

// File represents a complete source file: the program's ordered items.
type File struct {
	node
	Filename string
	Items    []Decl
}

// Attribute is a decorator (@name(args)) or attribute (#[name(args)]).
// Args hold the raw source text of each argument.
type Attribute struct {
	node
	Name string
	Args []string
	Hash bool // written as #[...]
}

// GenericParam is a type parameter with optional bounds: T: Add + Display.
type GenericParam struct {
	node
	Name   *Name
	Bounds []Type
}

// WherePred is one predicate of a where clause: T: Trait + Trait.
type WherePred struct {
	node
	Type   Type
	Bounds []Type
}

// ParamMode is the ownership written on a parameter, if any.
type ParamMode uint8

const (
	ModeNone   ParamMode = iota // nothing written; the analyzer decides
	ModeRef                     // &x: T or &self
	ModeMutRef                  // &mut x: T or &mut self
	ModeMut                     // mut x: T or mut self (owned and mutable)
)

// Param is a function parameter. Type is nil for untyped parameters.
type Param struct {
	node
	Name   *Name
	Type   Type
	Mode   ParamMode
	IsSelf bool
}

// FuncDecl represents a function or method.
// Body is nil for trait method signatures.
type FuncDecl struct {
	decl
	Attrs    []*Attribute
	Pub      bool
	Async    bool
	Name     *Name
	Generics []*GenericParam
	Params   []*Param
	Result   Type // nil if none written
	Where    []*WherePred
	Body     *BlockStmt

	// Set by the optimizer.
	Inline bool
}

// FieldDecl is a named struct or struct-variant field.
type FieldDecl struct {
	node
	Pub  bool
	Name *Name
	Type Type
}

// StructDecl represents struct Name<T> { fields }.
type StructDecl struct {
	decl
	Attrs    []*Attribute
	Pub      bool
	Name     *Name
	Generics []*GenericParam
	Fields   []*FieldDecl
}

// Variant is an enum variant: Unit, Tuple(T, U) or Struct { f: T }.
type Variant struct {
	node
	Name   *Name
	Tuple  []Type
	Fields []*FieldDecl
}

// EnumDecl represents enum Name<T> { variants }.
type EnumDecl struct {
	decl
	Attrs    []*Attribute
	Pub      bool
	Name     *Name
	Generics []*GenericParam
	Variants []*Variant
}

// TraitDecl represents trait Name { methods }.
type TraitDecl struct {
	decl
	Attrs    []*Attribute
	Pub      bool
	Name     *Name
	Generics []*GenericParam
	Methods  []*FuncDecl
}

// ImplDecl represents impl<T> Trait for Type { methods } or impl Type { ... }.
type ImplDecl struct {
	decl
	Attrs    []*Attribute
	Generics []*GenericParam
	Trait    Type // nil for inherent impls
	Type     Type
	Methods  []*FuncDecl
}

// UseDecl represents use a::b::c [as d]. Dotted paths are normalized
// to segments.
type UseDecl struct {
	decl
	Pub   bool
	Path  []*Name
	Alias *Name // nil if none
}

// PathString joins the use path with "::".
func (d *UseDecl) PathString() string {
	s := ""
	for i, n := range d.Path {
		if i > 0 {
			s += "::"
		}
		s += n.Value
	}
	return s
}

// ConstDecl represents const NAME: T = v or static [mut] NAME: T = v.
type ConstDecl struct {
	decl
	Attrs  []*Attribute
	Pub    bool
	Static bool
	Mut    bool
	Name   *Name
	Type   Type
	Value  Expr
}

// TypeAliasDecl represents type Name<T> = Type.
type TypeAliasDecl struct {
	decl
	Pub      bool
	Name     *Name
	Generics []*GenericParam
	Type     Type
}

// BadDecl is a placeholder for an item that failed to parse.
type BadDecl struct {
	decl
}

// ----------------------------------------------------------------------------
// Types

// NamedType is a (possibly qualified) type name with generic arguments:
// int, Vec<T>, std::io::Result<T>, Add<Output = T>, dyn Display.
type NamedType struct {
	typ
	Path  []string
	Args  []Type
	Assoc []*AssocType
	Dyn   bool
}

// Name returns the last path segment.
func (t *NamedType) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}

// AssocType is an associated type binding inside generic arguments: Output = T.
type AssocType struct {
	node
	Name string
	Type Type
}

// RefType is &T or &mut T.
type RefType struct {
	typ
	Mut  bool
	Elem Type
}

// TupleType is (A, B). The empty tuple is the unit type.
type TupleType struct {
	typ
	Elems []Type
}

// ArrayType is [T] (Len == nil) or [T; N].
type ArrayType struct {
	typ
	Elem Type
	Len  Expr
}

// FuncType is fn(A, B) -> R.
type FuncType struct {
	typ
	Params []Type
	Result Type
}

// InferType is the _ placeholder.
type InferType struct {
	typ
}

// ----------------------------------------------------------------------------
// Expressions

// Name represents an identifier.
type Name struct {
	expr
	Value string
}

// BasicLit represents an int, float, string, char or bool literal.
type BasicLit struct {
	expr
	Kind  LitKind
	Value string // decoded value; canonical decimal for numbers
	Raw   string // source text for numbers; empty for synthesized literals

	// InternID is the interned-string id assigned by the optimizer; -1
	// when the literal is not interned.
	InternID int
}

// InterpString is "text ${expr} text". Parts alternate freely between
// *BasicLit string segments and arbitrary expressions.
type InterpString struct {
	expr
	Parts []Expr
}

// Operation represents a unary or binary operation.
// For unary operations, Y is nil; Mut marks &mut x.
type Operation struct {
	expr
	Op  Token
	X   Expr
	Y   Expr
	Mut bool
}

// CallExpr represents Fun(Args).
type CallExpr struct {
	expr
	Fun  Expr
	Args []Expr
}

// MethodCallExpr represents X.Name(Args).
type MethodCallExpr struct {
	expr
	X    Expr
	Name *Name
	Args []Expr
}

// FieldExpr represents X.Sel; Sel is a digit string for tuple fields.
type FieldExpr struct {
	expr
	X   Expr
	Sel *Name
}

// IndexExpr represents X[Index].
type IndexExpr struct {
	expr
	X     Expr
	Index Expr
}

// Ternary represents Cond ? Then : Else and if-expressions.
// Then and Else are *BlockExpr for the if form; Else may be nil.
type Ternary struct {
	expr
	Cond Expr
	Then Expr
	Else Expr
}

// ClosureExpr represents |params| body.
type ClosureExpr struct {
	expr
	Params []*Param
	Body   Expr
}

// BlockExpr wraps a block used in expression position.
type BlockExpr struct {
	expr
	Block *BlockStmt
}

// MatchArm is Pat [if Guard] => Body.
type MatchArm struct {
	node
	Pat   Pattern
	Guard Expr
	Body  Expr
}

// MatchExpr represents match X { arms }.
type MatchExpr struct {
	expr
	X    Expr
	Arms []*MatchArm
}

// FieldInit is Name: Value in a struct literal; Value is a *Name for
// the shorthand form.
type FieldInit struct {
	node
	Name  *Name
	Value Expr
}

// StructLit represents Type { fields, ..Base }.
type StructLit struct {
	expr
	Type   Expr // *Name or *PathExpr
	Fields []*FieldInit
	Base   Expr
}

// ArrayLit represents [a, b, c].
type ArrayLit struct {
	expr
	Elems []Expr
}

// TupleLit represents (a, b). The empty tuple is the unit value.
type TupleLit struct {
	expr
	Elems []Expr
}

// RangeExpr represents Lo..Hi or Lo..=Hi; either bound may be nil.
type RangeExpr struct {
	expr
	Lo        Expr
	Hi        Expr
	Inclusive bool
}

// CastExpr represents X as Type.
type CastExpr struct {
	expr
	X    Expr
	Type Type
}

// TryExpr represents X?.
type TryExpr struct {
	expr
	X Expr
}

// AwaitExpr represents X.await.
type AwaitExpr struct {
	expr
	X Expr
}

// MacroCall represents name!(args).
type MacroCall struct {
	expr
	Name *Name
	Args []Expr
}

// PathExpr represents a qualified path: Color::Red, Vec::new, Vec::<int>::new.
type PathExpr struct {
	expr
	Segments []*Name
	TypeArgs []Type
}

// String joins the segments with "::".
func (e *PathExpr) String() string {
	s := ""
	for i, n := range e.Segments {
		if i > 0 {
			s += "::"
		}
		s += n.Value
	}
	return s
}

// ParenExpr represents (X).
type ParenExpr struct {
	expr
	X Expr
}

// BadExpr is a placeholder for an expression that failed to parse.
type BadExpr struct {
	expr
}

// ----------------------------------------------------------------------------
// Patterns

// WildcardPat is _.
type WildcardPat struct {
	pat
}

// IdentPat binds a name: x, mut x, ref x.
type IdentPat struct {
	pat
	Name *Name
	Mut  bool
	Ref  bool
}

// LitPat matches a literal; Neg marks -1.
type LitPat struct {
	pat
	Lit *BasicLit
	Neg bool
}

// TuplePat is (a, b).
type TuplePat struct {
	pat
	Elems []Pattern
}

// FieldPat is one field of a struct-variant pattern; Pat is nil for
// the shorthand form.
type FieldPat struct {
	node
	Name *Name
	Pat  Pattern
}

// VariantPat is Path, Path(elems) or Path { fields }.
type VariantPat struct {
	pat
	Path   []*Name
	Elems  []Pattern
	Fields []*FieldPat
	Tuple  bool // written with parentheses
	Struct bool // written with braces
}

// Name returns the last path segment (the variant name).
func (p *VariantPat) Name() string {
	return p.Path[len(p.Path)-1].Value
}

// OrPat is a | b.
type OrPat struct {
	pat
	Alts []Pattern
}

// RefPat is &p.
type RefPat struct {
	pat
	Pat Pattern
}

// RangePat is lo..=hi over literals.
type RangePat struct {
	pat
	Lo, Hi    *LitPat
	Inclusive bool
}

// ----------------------------------------------------------------------------
// Statements

// BlockStmt represents { stmts }.
type BlockStmt struct {
	stmt
	Stmts []Stmt
}

// LetStmt represents let [mut] pat [: Type] [= Value].
type LetStmt struct {
	stmt
	Mut   bool
	Pat   Pattern
	Type  Type
	Value Expr

	// Set by the optimizer's escape pass.
	NoEscape bool
}

// Name returns the bound name for simple let statements, or nil.
func (s *LetStmt) Name() *Name {
	if ip, ok := s.Pat.(*IdentPat); ok {
		return ip.Name
	}
	return nil
}

// AssignStmt represents Lhs op Rhs with op one of = += -= *= /= %=.
type AssignStmt struct {
	stmt
	Op  Token
	Lhs Expr
	Rhs Expr
}

// ExprStmt is an expression evaluated for its effect.
// Semi is false for a trailing expression that yields the block value.
type ExprStmt struct {
	stmt
	X    Expr
	Semi bool
}

// ReturnStmt represents return [Result].
type ReturnStmt struct {
	stmt
	Result Expr
}

// IfStmt represents if Cond { Then } [else Else]; Else is *IfStmt or *BlockStmt.
type IfStmt struct {
	stmt
	Cond Expr
	Then *BlockStmt
	Else Stmt
}

// WhileStmt represents while Cond { Body }.
type WhileStmt struct {
	stmt
	Cond Expr
	Body *BlockStmt
}

// LoopStmt represents loop { Body }.
type LoopStmt struct {
	stmt
	Body *BlockStmt
}

// ForStmt represents for Pat in Iter { Body }.
type ForStmt struct {
	stmt
	Pat  Pattern
	Iter Expr
	Body *BlockStmt

	// Set by the optimizer's SIMD pass.
	SIMD bool
}

// BranchStmt represents break or continue.
type BranchStmt struct {
	stmt
	Tok Token // Break or Continue
}

// EmptyStmt is a stray semicolon.
type EmptyStmt struct {
	stmt
}

// BadStmt is a placeholder for a statement that failed to parse.
type BadStmt struct {
	stmt
}

// ----------------------------------------------------------------------------
// Helpers

// TailExpr returns the trailing value expression of b, or nil.
func (b *BlockStmt) TailExpr() Expr {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	if es, ok := b.Stmts[len(b.Stmts)-1].(*ExprStmt); ok && !es.Semi {
		return es.X
	}
	return nil
}

// HasAttr reports whether attrs contains an attribute with the given name.
func HasAttr(attrs []*Attribute, name string) bool {
	return FindAttr(attrs, name) != nil
}

// FindAttr returns the first attribute with the given name, or nil.
func FindAttr(attrs []*Attribute, name string) *Attribute {
	for _, a := range attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// NewName returns an identifier node at pos.
func NewName(pos Pos, value string) *Name {
	n := &Name{Value: value}
	n.pos = pos
	return n
}

// NewStringLit returns a synthesized string literal.
func NewStringLit(pos Pos, value string) *BasicLit {
	l := &BasicLit{Kind: StringLit, Value: value, InternID: -1}
	l.pos = pos
	return l
}

// NewIntLit returns a synthesized integer literal with decimal value.
func NewIntLit(pos Pos, value string) *BasicLit {
	l := &BasicLit{Kind: IntLit, Value: value, InternID: -1}
	l.pos = pos
	return l
}

// NewFloatLit returns a synthesized float literal.
func NewFloatLit(pos Pos, value string) *BasicLit {
	l := &BasicLit{Kind: FloatLit, Value: value, InternID: -1}
	l.pos = pos
	return l
}

// NewBoolLit returns a synthesized boolean literal.
func NewBoolLit(pos Pos, value bool) *BasicLit {
	v := "false"
	if value {
		v = "true"
	}
	l := &BasicLit{Kind: BoolLit, Value: v, InternID: -1}
	l.pos = pos
	return l
}

// NewMethodCall returns x.name(args) positioned at x.
func NewMethodCall(x Expr, name string, args ...Expr) *MethodCallExpr {
	m := &MethodCallExpr{X: x, Name: NewName(x.Pos(), name), Args: args}
	m.pos, m.end = x.Pos(), x.End()
	return m
}

// NewTernary returns cond ? then : els positioned at cond.
func NewTernary(cond, then, els Expr) *Ternary {
	t := &Ternary{Cond: cond, Then: then, Else: els}
	t.pos = cond.Pos()
	if els != nil {
		t.end = els.End()
	}
	return t
}

// NewReturn returns a return statement at pos.
func NewReturn(pos Pos, result Expr) *ReturnStmt {
	r := &ReturnStmt{Result: result}
	r.pos = pos
	if result != nil {
		r.end = result.End()
	}
	return r
}

// NewExprStmt returns an expression statement for x.
func NewExprStmt(x Expr, semi bool) *ExprStmt {
	s := &ExprStmt{X: x, Semi: semi}
	s.pos, s.end = x.Pos(), x.End()
	return s
}
