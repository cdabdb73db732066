package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes node to w as WJ source text. The output parses back to
// an equivalent AST.
func Fprint(w io.Writer, node Node) {
	p := &printer{}
	p.node(node)
	io.WriteString(w, p.buf.String())
}

// String returns the WJ source text of node.
func String(node Node) string {
	var sb strings.Builder
	Fprint(&sb, node)
	return sb.String()
}

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *printer) write(s string) {
	p.buf.WriteString(s)
}

func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.write(strings.Repeat("    ", p.indent))
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *File:
		for i, d := range n.Items {
			if i > 0 {
				p.write("\n")
			}
			p.node(d)
			p.write("\n")
		}
	case Decl:
		p.decl(n)
	case Stmt:
		p.stmt(n)
	case Expr:
		p.expr(n)
	case Type:
		p.typ(n)
	case Pattern:
		p.pattern(n)
	case *Param:
		p.param(n)
	case *MatchArm:
		p.arm(n)
	case *Attribute:
		p.attr(n)
	}
}

// ----------------------------------------------------------------------------
// Items

func (p *printer) attr(a *Attribute) {
	if a.Hash {
		p.write("#[" + a.Name)
	} else {
		p.write("@" + a.Name)
	}
	if len(a.Args) > 0 {
		p.write("(" + strings.Join(a.Args, ", ") + ")")
	}
	if a.Hash {
		p.write("]")
	}
}

func (p *printer) attrs(list []*Attribute) {
	for _, a := range list {
		p.attr(a)
		p.newline()
	}
}

func (p *printer) pub(pub bool) {
	if pub {
		p.write("pub ")
	}
}

func (p *printer) decl(d Decl) {
	switch d := d.(type) {
	case *FuncDecl:
		p.funcDecl(d)

	case *StructDecl:
		p.attrs(d.Attrs)
		p.pub(d.Pub)
		p.write("struct " + d.Name.Value)
		p.generics(d.Generics)
		if d.Fields != nil {
			p.write(" ")
			p.fields(d.Fields)
		}

	case *EnumDecl:
		p.attrs(d.Attrs)
		p.pub(d.Pub)
		p.write("enum " + d.Name.Value)
		p.generics(d.Generics)
		p.write(" {")
		p.indent++
		for _, v := range d.Variants {
			p.newline()
			p.write(v.Name.Value)
			if len(v.Tuple) > 0 {
				p.write("(")
				p.types(v.Tuple)
				p.write(")")
			}
			if len(v.Fields) > 0 {
				p.write(" ")
				p.fields(v.Fields)
			}
			p.write(",")
		}
		p.indent--
		p.newline()
		p.write("}")

	case *TraitDecl:
		p.attrs(d.Attrs)
		p.pub(d.Pub)
		p.write("trait " + d.Name.Value)
		p.generics(d.Generics)
		p.methods(d.Methods)

	case *ImplDecl:
		p.attrs(d.Attrs)
		p.write("impl")
		p.generics(d.Generics)
		p.write(" ")
		if d.Trait != nil {
			p.typ(d.Trait)
			p.write(" for ")
		}
		p.typ(d.Type)
		p.methods(d.Methods)

	case *UseDecl:
		p.pub(d.Pub)
		p.write("use " + d.PathString())
		if d.Alias != nil {
			p.write(" as " + d.Alias.Value)
		}

	case *ConstDecl:
		p.attrs(d.Attrs)
		p.pub(d.Pub)
		switch {
		case d.Static && d.Mut:
			p.write("static mut ")
		case d.Static:
			p.write("static ")
		default:
			p.write("const ")
		}
		p.write(d.Name.Value)
		if d.Type != nil {
			p.write(": ")
			p.typ(d.Type)
		}
		p.write(" = ")
		p.expr(d.Value)

	case *TypeAliasDecl:
		p.pub(d.Pub)
		p.write("type " + d.Name.Value)
		p.generics(d.Generics)
		p.write(" = ")
		p.typ(d.Type)

	case *BadDecl:
		p.write("/* bad item */")
	}
}

func (p *printer) methods(list []*FuncDecl) {
	p.write(" {")
	p.indent++
	for i, m := range list {
		if i > 0 {
			p.write("\n")
		}
		p.newline()
		p.funcDecl(m)
	}
	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) funcDecl(d *FuncDecl) {
	p.attrs(d.Attrs)
	p.pub(d.Pub)
	if d.Async {
		p.write("async ")
	}
	p.write("fn " + d.Name.Value)
	p.generics(d.Generics)
	p.write("(")
	for i, prm := range d.Params {
		if i > 0 {
			p.write(", ")
		}
		p.param(prm)
	}
	p.write(")")
	if d.Result != nil {
		p.write(" -> ")
		p.typ(d.Result)
	}
	if len(d.Where) > 0 {
		p.write(" where ")
		for i, w := range d.Where {
			if i > 0 {
				p.write(", ")
			}
			p.typ(w.Type)
			p.write(": ")
			p.bounds(w.Bounds)
		}
	}
	if d.Body != nil {
		p.write(" ")
		p.block(d.Body)
	}
}

func (p *printer) param(prm *Param) {
	switch prm.Mode {
	case ModeRef:
		p.write("&")
	case ModeMutRef:
		p.write("&mut ")
	case ModeMut:
		p.write("mut ")
	}
	p.write(prm.Name.Value)
	if prm.Type != nil {
		p.write(": ")
		p.typ(prm.Type)
	}
}

func (p *printer) generics(list []*GenericParam) {
	if len(list) == 0 {
		return
	}
	p.write("<")
	for i, g := range list {
		if i > 0 {
			p.write(", ")
		}
		p.write(g.Name.Value)
		if len(g.Bounds) > 0 {
			p.write(": ")
			p.bounds(g.Bounds)
		}
	}
	p.write(">")
}

func (p *printer) bounds(list []Type) {
	for i, b := range list {
		if i > 0 {
			p.write(" + ")
		}
		p.typ(b)
	}
}

func (p *printer) fields(list []*FieldDecl) {
	p.write("{")
	p.indent++
	for _, f := range list {
		p.newline()
		p.pub(f.Pub)
		p.write(f.Name.Value + ": ")
		p.typ(f.Type)
		p.write(",")
	}
	p.indent--
	p.newline()
	p.write("}")
}

// ----------------------------------------------------------------------------
// Types

func (p *printer) types(list []Type) {
	for i, t := range list {
		if i > 0 {
			p.write(", ")
		}
		p.typ(t)
	}
}

func (p *printer) typ(t Type) {
	switch t := t.(type) {
	case *NamedType:
		if t.Dyn {
			p.write("dyn ")
		}
		p.write(strings.Join(t.Path, "::"))
		if len(t.Args) > 0 || len(t.Assoc) > 0 {
			p.write("<")
			p.types(t.Args)
			for i, a := range t.Assoc {
				if i > 0 || len(t.Args) > 0 {
					p.write(", ")
				}
				p.write(a.Name + " = ")
				p.typ(a.Type)
			}
			p.write(">")
		}
	case *RefType:
		p.write("&")
		if t.Mut {
			p.write("mut ")
		}
		p.typ(t.Elem)
	case *TupleType:
		p.write("(")
		p.types(t.Elems)
		if len(t.Elems) == 1 {
			p.write(",")
		}
		p.write(")")
	case *ArrayType:
		p.write("[")
		p.typ(t.Elem)
		if t.Len != nil {
			p.write("; ")
			p.expr(t.Len)
		}
		p.write("]")
	case *FuncType:
		p.write("fn(")
		p.types(t.Params)
		p.write(")")
		if t.Result != nil {
			p.write(" -> ")
			p.typ(t.Result)
		}
	case *InferType:
		p.write("_")
	}
}

// ----------------------------------------------------------------------------
// Statements

func (p *printer) block(b *BlockStmt) {
	if len(b.Stmts) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.indent++
	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *BlockStmt:
		p.block(s)
	case *LetStmt:
		p.write("let ")
		p.pattern(s.Pat)
		if s.Type != nil {
			p.write(": ")
			p.typ(s.Type)
		}
		if s.Value != nil {
			p.write(" = ")
			p.expr(s.Value)
		}
	case *AssignStmt:
		p.expr(s.Lhs)
		p.write(" " + s.Op.String() + " ")
		p.expr(s.Rhs)
	case *ExprStmt:
		p.expr(s.X)
		if s.Semi {
			p.write(";")
		}
	case *ReturnStmt:
		p.write("return")
		if s.Result != nil {
			p.write(" ")
			p.expr(s.Result)
		}
	case *IfStmt:
		p.write("if ")
		p.expr(s.Cond)
		p.write(" ")
		p.block(s.Then)
		if s.Else != nil {
			p.write(" else ")
			p.stmt(s.Else)
		}
	case *WhileStmt:
		p.write("while ")
		p.expr(s.Cond)
		p.write(" ")
		p.block(s.Body)
	case *LoopStmt:
		p.write("loop ")
		p.block(s.Body)
	case *ForStmt:
		p.write("for ")
		p.pattern(s.Pat)
		p.write(" in ")
		p.expr(s.Iter)
		p.write(" ")
		p.block(s.Body)
	case *BranchStmt:
		p.write(s.Tok.String())
	case *EmptyStmt:
		p.write(";")
	case *BadStmt:
		p.write("/* bad statement */")
	}
}

// ----------------------------------------------------------------------------
// Expressions

func (p *printer) exprs(list []Expr) {
	for i, x := range list {
		if i > 0 {
			p.write(", ")
		}
		p.expr(x)
	}
}

func (p *printer) expr(x Expr) {
	switch x := x.(type) {
	case *Name:
		p.write(x.Value)
	case *BasicLit:
		p.write(LitString(x))
	case *InterpString:
		p.write(`"`)
		for _, part := range x.Parts {
			if l, ok := part.(*BasicLit); ok && l.Kind == StringLit {
				p.write(quoteBody(l.Value, true))
				continue
			}
			p.write("${")
			p.expr(part)
			p.write("}")
		}
		p.write(`"`)
	case *Operation:
		if x.Y == nil {
			p.write(x.Op.String())
			if x.Mut {
				p.write("mut ")
			}
			p.expr(x.X)
			return
		}
		p.expr(x.X)
		p.write(" " + x.Op.String() + " ")
		p.expr(x.Y)
	case *CallExpr:
		p.expr(x.Fun)
		p.write("(")
		p.exprs(x.Args)
		p.write(")")
	case *MethodCallExpr:
		p.expr(x.X)
		p.write("." + x.Name.Value + "(")
		p.exprs(x.Args)
		p.write(")")
	case *FieldExpr:
		p.expr(x.X)
		p.write("." + x.Sel.Value)
	case *IndexExpr:
		p.expr(x.X)
		p.write("[")
		p.expr(x.Index)
		p.write("]")
	case *Ternary:
		if then, ok := x.Then.(*BlockExpr); ok {
			p.write("if ")
			p.expr(x.Cond)
			p.write(" ")
			p.block(then.Block)
			if x.Else != nil {
				p.write(" else ")
				if inner := elseIf(x.Else); inner != nil {
					p.expr(inner)
				} else {
					p.expr(x.Else)
				}
			}
			return
		}
		p.expr(x.Cond)
		p.write(" ? ")
		p.expr(x.Then)
		p.write(" : ")
		p.expr(x.Else)
	case *ClosureExpr:
		p.write("|")
		for i, prm := range x.Params {
			if i > 0 {
				p.write(", ")
			}
			p.param(prm)
		}
		p.write("| ")
		p.expr(x.Body)
	case *BlockExpr:
		p.block(x.Block)
	case *MatchExpr:
		p.write("match ")
		p.expr(x.X)
		p.write(" {")
		p.indent++
		for _, a := range x.Arms {
			p.newline()
			p.arm(a)
			p.write(",")
		}
		p.indent--
		p.newline()
		p.write("}")
	case *StructLit:
		p.expr(x.Type)
		p.write(" { ")
		for i, f := range x.Fields {
			if i > 0 {
				p.write(", ")
			}
			if n, ok := f.Value.(*Name); ok && n.Value == f.Name.Value {
				p.write(f.Name.Value)
				continue
			}
			p.write(f.Name.Value + ": ")
			p.expr(f.Value)
		}
		if x.Base != nil {
			if len(x.Fields) > 0 {
				p.write(", ")
			}
			p.write("..")
			p.expr(x.Base)
		}
		p.write(" }")
	case *ArrayLit:
		p.write("[")
		p.exprs(x.Elems)
		p.write("]")
	case *TupleLit:
		p.write("(")
		p.exprs(x.Elems)
		if len(x.Elems) == 1 {
			p.write(",")
		}
		p.write(")")
	case *RangeExpr:
		if x.Lo != nil {
			p.expr(x.Lo)
		}
		if x.Inclusive {
			p.write("..=")
		} else {
			p.write("..")
		}
		if x.Hi != nil {
			p.expr(x.Hi)
		}
	case *CastExpr:
		p.expr(x.X)
		p.write(" as ")
		p.typ(x.Type)
	case *TryExpr:
		p.expr(x.X)
		p.write("?")
	case *AwaitExpr:
		p.expr(x.X)
		p.write(".await")
	case *MacroCall:
		p.write(x.Name.Value + "!(")
		p.exprs(x.Args)
		p.write(")")
	case *PathExpr:
		for i, s := range x.Segments {
			if i > 0 {
				p.write("::")
			}
			p.write(s.Value)
			if i == 0 && len(x.TypeArgs) > 0 {
				p.write("::<")
				p.types(x.TypeArgs)
				p.write(">")
			}
		}
	case *ParenExpr:
		p.write("(")
		p.expr(x.X)
		p.write(")")
	case *BadExpr:
		p.write("/* bad expression */")
	}
}

// elseIf returns the if-expression that forms an else-if chain, or nil.
func elseIf(x Expr) *Ternary {
	b, ok := x.(*BlockExpr)
	if !ok || len(b.Block.Stmts) != 1 {
		return nil
	}
	if t, ok := b.Block.TailExpr().(*Ternary); ok {
		if _, isIf := t.Then.(*BlockExpr); isIf {
			return t
		}
	}
	return nil
}

func (p *printer) arm(a *MatchArm) {
	p.pattern(a.Pat)
	if a.Guard != nil {
		p.write(" if ")
		p.expr(a.Guard)
	}
	p.write(" => ")
	p.expr(a.Body)
}

// ----------------------------------------------------------------------------
// Patterns

func (p *printer) patterns(list []Pattern) {
	for i, x := range list {
		if i > 0 {
			p.write(", ")
		}
		p.pattern(x)
	}
}

func (p *printer) pattern(x Pattern) {
	switch x := x.(type) {
	case *WildcardPat:
		p.write("_")
	case *IdentPat:
		if x.Ref {
			p.write("ref ")
		}
		if x.Mut {
			p.write("mut ")
		}
		p.write(x.Name.Value)
	case *LitPat:
		if x.Neg {
			p.write("-")
		}
		p.write(LitString(x.Lit))
	case *TuplePat:
		p.write("(")
		p.patterns(x.Elems)
		p.write(")")
	case *VariantPat:
		for i, s := range x.Path {
			if i > 0 {
				p.write("::")
			}
			p.write(s.Value)
		}
		switch {
		case x.Tuple:
			p.write("(")
			p.patterns(x.Elems)
			p.write(")")
		case x.Struct:
			p.write(" { ")
			for i, f := range x.Fields {
				if i > 0 {
					p.write(", ")
				}
				p.write(f.Name.Value)
				if f.Pat != nil {
					p.write(": ")
					p.pattern(f.Pat)
				}
			}
			p.write(" }")
		}
	case *OrPat:
		for i, a := range x.Alts {
			if i > 0 {
				p.write(" | ")
			}
			p.pattern(a)
		}
	case *RefPat:
		p.write("&")
		p.pattern(x.Pat)
	case *RangePat:
		p.pattern(x.Lo)
		if x.Inclusive {
			p.write("..=")
		} else {
			p.write("..")
		}
		p.pattern(x.Hi)
	}
}

// ----------------------------------------------------------------------------
// Literals

// LitString returns the WJ source form of a literal.
func LitString(l *BasicLit) string {
	switch l.Kind {
	case StringLit:
		return `"` + quoteBody(l.Value, false) + `"`
	case CharLit:
		if l.Value == "'" {
			return `'\''`
		}
		return "'" + quoteBody(l.Value, false) + "'"
	case IntLit, FloatLit:
		if l.Raw != "" {
			return l.Raw
		}
	}
	return l.Value
}

// quoteBody escapes s for use between double quotes. interp reports
// whether the text is a segment of an interpolated string.
func quoteBody(s string, interp bool) string {
	var sb strings.Builder
	for i, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case 0:
			sb.WriteString(`\0`)
		case '$':
			if interp || strings.HasPrefix(s[i:], "${") {
				sb.WriteString(`\$`)
			} else {
				sb.WriteRune(r)
			}
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u{%x}`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
