package codegen

import (
	"sort"
	"strings"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// wjAttrs are decorators consumed by the compiler itself.
var wjAttrs = map[string]bool{
	"derive": true,
	"chunk":  true,
	"expose": true,
	"export": true,
	"entry":  true,
}

// implCtx describes the impl block enclosing a method.
type implCtx struct {
	trait   *syntax.TraitDecl // implemented trait when declared in this file
	isTrait bool              // a trait impl, local or not
	inTrait bool              // a default method inside a trait declaration
}

func (g *generator) decl(d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.FuncDecl:
		g.funcDecl(d, nil)
	case *syntax.StructDecl:
		g.structDecl(d)
	case *syntax.EnumDecl:
		g.enumDecl(d)
	case *syntax.TraitDecl:
		g.traitDecl(d)
	case *syntax.ImplDecl:
		g.implDecl(d)
	case *syntax.ConstDecl:
		g.constDecl(d)
	case *syntax.TypeAliasDecl:
		g.e.write(vis(d.Pub) + "type " + g.ident(d.Name.Value) + g.genericList(d.Generics) + " = " + g.syntaxType(d.Type) + ";")
	case *syntax.BadDecl:
		g.e.write("// invalid item")
	}
}

func vis(pub bool) string {
	if pub {
		return "pub "
	}
	return ""
}

// attrs forwards the attributes the compiler does not consume.
func (g *generator) attrs(list []*syntax.Attribute) {
	for _, a := range list {
		if wjAttrs[a.Name] {
			continue
		}
		g.attr(a.Name, a.Args)
	}
}

func (g *generator) attr(name string, args []string) {
	if len(args) == 0 {
		g.e.write("#[" + name + "]")
	} else {
		g.e.write("#[" + name + "(" + strings.Join(args, ", ") + ")]")
	}
	g.e.newline()
}

// genericList renders written generic parameters with their bounds.
func (g *generator) genericList(list []*syntax.GenericParam) string {
	if len(list) == 0 {
		return ""
	}
	parts := make([]string, len(list))
	for i, p := range list {
		parts[i] = p.Name.Value
		if len(p.Bounds) > 0 {
			parts[i] += ": " + g.boundList(p.Bounds)
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (g *generator) boundList(bounds []syntax.Type) string {
	parts := make([]string, len(bounds))
	for i, b := range bounds {
		parts[i] = g.syntaxType(b)
	}
	return strings.Join(parts, " + ")
}

// ----------------------------------------------------------------------------
// Functions

func (g *generator) funcDecl(d *syntax.FuncDecl, impl *implCtx) {
	sig := g.res.Sigs.Of(d)
	obj := g.info.Funcs[d]
	savedSig, savedResult := g.sig, g.result
	g.sig, g.result = sig, nil
	defer func() { g.sig, g.result = savedSig, savedResult }()

	topLevel := impl == nil
	isMain := topLevel && d.Name.Value == "main"

	g.attrs(d.Attrs)
	if d.Inline && !syntax.HasAttr(d.Attrs, "inline") {
		g.attr("inline", nil)
	}
	if g.cfg.Target == Wasm && topLevel && d.Pub && !isMain && !syntax.HasAttr(d.Attrs, "wasm_bindgen") {
		g.attr("wasm_bindgen", nil)
	}
	async := d.Async
	if isMain && !async && g.async && d.Body != nil && usesAsync(g, d.Body) {
		async = true
	}
	if isMain && async {
		g.attr("tokio::main", nil)
	}

	if d.Pub && (impl == nil || !impl.isTrait && !impl.inTrait) {
		g.e.write("pub ")
	}
	if async {
		g.e.write("async ")
	}
	g.e.write("fn " + g.ident(d.Name.Value))

	generics, where := g.generics(d, sig)
	g.e.write(generics)
	g.e.write("(" + strings.Join(g.params(d, sig, impl), ", ") + ")")

	switch {
	case d.Result != nil:
		g.e.write(" -> " + g.syntaxType(d.Result))
		if obj != nil && obj.Signature() != nil {
			g.result = obj.Signature().Result()
		}
	case isMain:
	case obj != nil && obj.Signature() != nil:
		if r := obj.Signature().Result(); !types.IsUnit(r) && !types.IsInvalid(r) {
			g.e.write(" -> " + g.rustType(r))
			g.result = r
		}
	}
	if where != "" {
		g.e.write(" where " + where)
	}

	if d.Body == nil {
		g.e.write(";")
		return
	}
	g.e.write(" ")
	g.block(d.Body, g.result != nil, g.result)
}

// usesAsync reports whether b awaits or calls an async stdlib function.
func usesAsync(g *generator, b *syntax.BlockStmt) bool {
	found := false
	syntax.Walk(b, func(n syntax.Node) bool {
		if found {
			return false
		}
		switch n := n.(type) {
		case *syntax.AwaitExpr:
			found = true
		case *syntax.CallExpr:
			if f := g.stdFunc(n.Fun); f != nil && f.Async {
				found = true
			}
		}
		return !found
	})
	return found
}

// generics renders the generic parameter list and where clause of d.
// Without a written where clause the bounds are given inline.
func (g *generator) generics(d *syntax.FuncDecl, sig *analysis.Signature) (list, where string) {
	if sig == nil {
		list = g.genericList(d.Generics)
		if len(d.Where) > 0 {
			where = g.wherePreds(d.Where, nil)
		}
		return list, where
	}
	if len(sig.TypeParams) == 0 && len(d.Where) == 0 {
		return "", ""
	}
	for _, n := range sig.TypeParams {
		for _, b := range sig.Bounds[n] {
			g.need(b)
		}
	}
	if len(d.Where) == 0 {
		parts := make([]string, len(sig.TypeParams))
		for i, n := range sig.TypeParams {
			parts[i] = n
			if bs := sig.Bounds[n]; len(bs) > 0 {
				parts[i] += ": " + strings.Join(bs, " + ")
			}
		}
		return "<" + strings.Join(parts, ", ") + ">", ""
	}
	if len(sig.TypeParams) > 0 {
		list = "<" + strings.Join(sig.TypeParams, ", ") + ">"
	}
	return list, g.wherePreds(d.Where, sig)
}

// wherePreds merges the signature's bounds with where predicates over
// other types into one sorted clause.
func (g *generator) wherePreds(preds []*syntax.WherePred, sig *analysis.Signature) string {
	var parts []string
	generic := make(map[string]bool)
	if sig != nil {
		for _, n := range sig.TypeParams {
			generic[n] = true
			if bs := sig.Bounds[n]; len(bs) > 0 {
				parts = append(parts, n+": "+strings.Join(bs, " + "))
			}
		}
	}
	for _, p := range preds {
		t := g.syntaxType(p.Type)
		if generic[t] {
			continue
		}
		parts = append(parts, t+": "+g.boundList(p.Bounds))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func (g *generator) params(d *syntax.FuncDecl, sig *analysis.Signature, impl *implCtx) []string {
	out := make([]string, 0, len(d.Params))
	i := 0
	for _, p := range d.Params {
		if p.IsSelf {
			var ap *analysis.Param
			if sig != nil {
				ap = sig.Recv
			}
			out = append(out, g.selfParam(d, p, ap, impl))
			continue
		}
		var ap *analysis.Param
		if sig != nil {
			ap = sig.Param(i)
		}
		i++
		name := g.ident(p.Name.Value)
		if ap != nil && ap.Mut || ap == nil && p.Mode == syntax.ModeMut {
			name = "mut " + name
		}
		out = append(out, name+": "+g.paramType(p, ap))
	}
	return out
}

// selfParam renders a receiver. Trait impls keep the receiver written
// by the trait so the method signatures agree.
func (g *generator) selfParam(d *syntax.FuncDecl, p *syntax.Param, ap *analysis.Param, impl *implCtx) string {
	if impl != nil && impl.isTrait && p.Mode == syntax.ModeNone {
		if impl.trait != nil {
			for _, m := range impl.trait.Methods {
				if m.Name.Value == d.Name.Value && len(m.Params) > 0 && m.Params[0].IsSelf {
					return selfParam(m.Params[0], nil)
				}
			}
		}
		return "&self"
	}
	return selfParam(p, ap)
}

// ----------------------------------------------------------------------------
// Types

func (g *generator) structDecl(d *syntax.StructDecl) {
	g.derives(d.Name, d.Attrs, len(d.Generics) > 0)
	g.attrs(d.Attrs)
	g.e.write(vis(d.Pub) + "struct " + g.ident(d.Name.Value) + g.genericList(d.Generics))
	if d.Fields == nil {
		g.e.write(";")
		return
	}
	g.fields(d.Fields, d.Pub)
}

func (g *generator) fields(list []*syntax.FieldDecl, pub bool) {
	if len(list) == 0 {
		g.e.write(" {}")
		return
	}
	g.e.write(" {")
	g.e.indent++
	for _, f := range list {
		g.e.newline()
		g.e.write(vis(f.Pub || pub) + g.ident(f.Name.Value) + ": " + g.syntaxType(f.Type) + ",")
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func (g *generator) enumDecl(d *syntax.EnumDecl) {
	g.derives(d.Name, d.Attrs, len(d.Generics) > 0)
	g.attrs(d.Attrs)
	g.e.write(vis(d.Pub) + "enum " + g.ident(d.Name.Value) + g.genericList(d.Generics))
	if len(d.Variants) == 0 {
		g.e.write(" {}")
		return
	}
	g.e.write(" {")
	g.e.indent++
	for _, v := range d.Variants {
		g.e.newline()
		g.e.write(v.Name.Value)
		switch {
		case v.Fields != nil:
			g.fields(v.Fields, false)
		case v.Tuple != nil:
			parts := make([]string, len(v.Tuple))
			for i, t := range v.Tuple {
				parts[i] = g.syntaxType(t)
			}
			g.e.write("(" + strings.Join(parts, ", ") + ")")
		}
		g.e.write(",")
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// derives emits the derive attribute of a struct or enum: Debug always,
// and each of Clone, Copy, PartialEq, Eq and Hash the fields support.
// Traits with a hand-written impl are left to it.
func (g *generator) derives(name *syntax.Name, attrs []*syntax.Attribute, generic bool) {
	var n *types.Named
	if tn, ok := g.info.Defs[name].(*types.TypeName); ok {
		n, _ = tn.Type().(*types.Named)
	}
	list := []string{"Debug"}
	traits := []string{"Clone", "Copy", "PartialEq", "Eq", "Hash"}
	if generic {
		traits = []string{"Clone", "PartialEq"}
	}
	for _, t := range traits {
		if n == nil || n.Implements(t) {
			continue
		}
		if generic || types.Satisfies(n, t) {
			list = append(list, t)
		}
	}
	has := make(map[string]bool, len(list))
	for _, t := range list {
		has[t] = true
	}
	for _, a := range attrs {
		if a.Name != "derive" {
			continue
		}
		for _, arg := range a.Args {
			for _, t := range strings.Split(arg, ",") {
				t = strings.TrimSpace(t)
				if t != "" && !has[t] {
					has[t] = true
					list = append(list, t)
				}
			}
		}
	}
	if g.json && !has["Serialize"] && !has["serde::Serialize"] {
		list = append(list, "serde::Serialize", "serde::Deserialize")
	}
	g.attr("derive", []string{strings.Join(list, ", ")})
}

func (g *generator) traitDecl(d *syntax.TraitDecl) {
	g.attrs(d.Attrs)
	g.e.write(vis(d.Pub) + "trait " + g.ident(d.Name.Value) + g.genericList(d.Generics))
	g.methods(d.Methods, &implCtx{inTrait: true})
}

func (g *generator) implDecl(d *syntax.ImplDecl) {
	g.attrs(d.Attrs)
	g.e.write("impl" + g.genericList(d.Generics) + " ")
	ctx := &implCtx{}
	if d.Trait != nil {
		ctx.isTrait = true
		if nt, ok := d.Trait.(*syntax.NamedType); ok {
			ctx.trait = g.traits[nt.Name()]
		}
		g.e.write(g.syntaxType(d.Trait) + " for ")
	}
	g.e.write(g.syntaxType(d.Type))
	g.methods(d.Methods, ctx)
}

func (g *generator) methods(list []*syntax.FuncDecl, ctx *implCtx) {
	if len(list) == 0 {
		g.e.write(" {}")
		return
	}
	g.e.write(" {")
	g.e.indent++
	for i, m := range list {
		if i > 0 {
			g.e.emitLine()
		}
		g.e.newline()
		g.funcDecl(m, ctx)
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func (g *generator) constDecl(d *syntax.ConstDecl) {
	g.attrs(d.Attrs)
	kw := "const "
	if d.Static {
		kw = "static "
		if d.Mut {
			kw = "static mut "
		}
	}
	var typ string
	if d.Type != nil {
		typ = g.syntaxType(d.Type)
	} else {
		typ = g.rustType(types.DefaultType(g.info.TypeOf(d.Value)))
	}
	if typ == "String" {
		typ = "&str"
	}
	g.e.write(vis(d.Pub) + kw + g.ident(d.Name.Value) + ": " + typ + " = ")
	g.constValue(d.Value)
	g.e.write(";")
}

// constValue renders a constant initializer; string constants are
// borrowed literals.
func (g *generator) constValue(e syntax.Expr) {
	if l, ok := e.(*syntax.BasicLit); ok && l.Kind == syntax.StringLit {
		g.e.write(quote(l.Value))
		return
	}
	g.expr(e)
}

// useDecl routes an import. WJ stdlib modules expand inline at their
// call sites and need no Rust import.
func (g *generator) useDecl(d *syntax.UseDecl) {
	if len(d.Path) == 0 {
		return
	}
	path := d.PathString()
	alias := ""
	if d.Alias != nil {
		alias = " as " + d.Alias.Value
	}
	line := func(p string) {
		g.imp.line(vis(d.Pub) + "use " + p + alias + ";")
	}
	switch head := d.Path[0].Value; {
	case head == "std":
		m, member, native, ok := stdlib.Resolve(path)
		switch {
		case ok && m != nil:
		case native && member && alias == "" && !d.Pub:
			i := strings.LastIndex(path, "::")
			g.imp.add(path[:i], path[i+2:])
		default:
			line(path)
		}
	case head == "crate", head == "super", head == "self":
		line(path)
	case g.sibling(head):
		if g.cfg.Child {
			line("crate::" + path)
		} else if len(d.Path) > 1 || alias != "" {
			line(path)
		}
	default:
		line(path)
	}
}

func (g *generator) sibling(name string) bool {
	for _, m := range g.cfg.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Statements

// block emits b. When value is set the trailing expression yields the
// block's value and is converted toward want.
func (g *generator) block(b *syntax.BlockStmt, value bool, want types.Type) {
	if b == nil || len(b.Stmts) == 0 {
		g.e.write("{}")
		return
	}
	g.e.write("{")
	g.e.indent++
	g.stmts(b.Stmts, value, want)
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func (g *generator) stmts(list []syntax.Stmt, value bool, want types.Type) {
	last := len(list) - 1
	for last >= 0 {
		if _, ok := list[last].(*syntax.EmptyStmt); !ok {
			break
		}
		last--
	}
	for i, s := range list {
		if _, ok := s.(*syntax.EmptyStmt); ok {
			continue
		}
		g.e.newline()
		g.stmt(s, value && i == last, want)
	}
}

func (g *generator) stmt(s syntax.Stmt, tail bool, want types.Type) {
	switch s := s.(type) {
	case *syntax.ExprStmt:
		if tail && !s.Semi {
			g.exprAs(s.X, want)
			return
		}
		g.stmtExpr(s.X)
	case *syntax.LetStmt:
		g.letStmt(s)
	case *syntax.AssignStmt:
		g.assign(s)
	case *syntax.ReturnStmt:
		if s.Result == nil {
			g.e.write("return;")
			return
		}
		g.e.write("return ")
		g.exprAs(s.Result, g.result)
		g.e.write(";")
	case *syntax.IfStmt:
		g.ifStmt(s, tail, want)
	case *syntax.WhileStmt:
		g.e.write("while ")
		g.expr(s.Cond)
		g.e.write(" ")
		g.block(s.Body, false, nil)
	case *syntax.LoopStmt:
		g.e.write("loop ")
		g.block(s.Body, false, nil)
	case *syntax.ForStmt:
		g.forStmt(s)
	case *syntax.BranchStmt:
		if s.Tok == syntax.Continue {
			g.e.write("continue;")
		} else {
			g.e.write("break;")
		}
	case *syntax.BlockStmt:
		g.block(s, tail, want)
	case *syntax.BadStmt:
		g.e.write("// invalid statement")
	}
}

// stmtExpr emits an expression evaluated for its effect. Block-like
// expressions of unit type stand alone; everything else takes a
// semicolon.
func (g *generator) stmtExpr(x syntax.Expr) {
	g.expr(x)
	switch x.(type) {
	case *syntax.Ternary, *syntax.MatchExpr, *syntax.BlockExpr:
		if t := g.info.TypeOf(x); types.IsUnit(t) || types.IsInvalid(t) {
			return
		}
	}
	g.e.write(";")
}

func (g *generator) ifStmt(s *syntax.IfStmt, value bool, want types.Type) {
	g.e.write("if ")
	g.expr(s.Cond)
	g.e.write(" ")
	g.block(s.Then, value, want)
	switch els := s.Else.(type) {
	case *syntax.IfStmt:
		g.e.write(" else ")
		g.ifStmt(els, value, want)
	case *syntax.BlockStmt:
		g.e.write(" else ")
		g.block(els, value, want)
	}
}

func (g *generator) letStmt(s *syntax.LetStmt) {
	g.e.write("let ")
	g.pattern(s.Pat, true)
	var want types.Type
	if n := s.Name(); n != nil {
		if v := g.info.VarOf(n); v != nil {
			want = v.Type()
		}
	}
	if s.Type != nil {
		g.e.write(": " + g.syntaxType(s.Type))
	}
	if s.Value == nil {
		g.e.write(";")
		return
	}
	g.e.write(" = ")
	if lit, ok := s.Value.(*syntax.ArrayLit); ok && s.Type == nil && g.stackArray(s, lit) {
		g.e.write("[")
		g.exprList(lit.Elems, types.ElemType(want))
		g.e.write("]")
	} else {
		g.exprAs(s.Value, want)
	}
	g.e.write(";")
}

// stackArray reports whether a non-escaping literal of plain scalars can
// live in a fixed-size array instead of a vector.
func (g *generator) stackArray(s *syntax.LetStmt, lit *syntax.ArrayLit) bool {
	if !s.NoEscape || len(lit.Elems) == 0 {
		return false
	}
	for _, e := range lit.Elems {
		l, ok := e.(*syntax.BasicLit)
		if !ok || l.Kind != syntax.IntLit && l.Kind != syntax.FloatLit && l.Kind != syntax.BoolLit {
			return false
		}
	}
	n := s.Name()
	if n == nil {
		return false
	}
	v := g.info.VarOf(n)
	if v == nil || g.res.NeedsMut(v) {
		return false
	}
	f := g.res.FactsOf(v)
	return !f.Moved && f.Writes == 0 && !f.BorrowedMut && !f.Escapes
}

func (g *generator) assign(s *syntax.AssignStmt) {
	lhs := g.place(s.Lhs)
	lt := g.info.TypeOf(s.Lhs)
	if s.Op == syntax.AddAssign && isOwnedString(lt) {
		g.e.write(lhs + " += ")
		switch {
		case isStringLit(s.Rhs), g.isRef(s.Rhs):
			g.expr(s.Rhs)
		default:
			g.e.write("&")
			g.operand(s.Rhs)
		}
		g.e.write(";")
		return
	}
	g.e.write(lhs + " " + s.Op.String() + " ")
	if s.Op == syntax.Assign {
		g.exprAs(s.Rhs, lt)
	} else {
		g.expr(s.Rhs)
	}
	g.e.write(";")
}

// place renders an assignment target. Borrowed bindings are written
// through.
func (g *generator) place(e syntax.Expr) string {
	if n, ok := e.(*syntax.Name); ok {
		if v := g.info.VarOf(n); v != nil {
			if p := g.paramOf(v); p != nil && p.Mode == analysis.Exclusive && !p.Self {
				return "*" + g.ident(n.Value)
			}
			if g.res.FactsOf(v).ByRef {
				return "*" + g.ident(n.Value)
			}
		}
		return g.ident(n.Value)
	}
	return g.capture(func() { g.expr(e) })
}

func (g *generator) forStmt(s *syntax.ForStmt) {
	if s.SIMD && g.cfg.Comments {
		g.e.write("// element-wise loop: eligible for auto-vectorization")
		g.e.newline()
	}
	g.e.write("for ")
	g.pattern(s.Pat, false)
	g.e.write(" in ")
	if g.res.BorrowedIter[s] {
		g.operand(s.Iter)
		g.e.write(".iter()")
	} else {
		g.expr(s.Iter)
	}
	g.e.write(" ")
	g.block(s.Body, false, nil)
}

// ----------------------------------------------------------------------------
// Patterns

// pattern emits p. In let position bindings take mut when the analysis
// requires it.
func (g *generator) pattern(p syntax.Pattern, let bool) {
	switch p := p.(type) {
	case *syntax.WildcardPat:
		g.e.write("_")
	case *syntax.IdentPat:
		if p.Ref {
			g.e.write("ref ")
		}
		mut := p.Mut
		if let && !mut {
			if v := g.info.VarOf(p.Name); v != nil && g.res.NeedsMut(v) {
				mut = true
			}
		}
		if mut {
			g.e.write("mut ")
		}
		g.e.write(g.ident(p.Name.Value))
	case *syntax.LitPat:
		if p.Neg {
			g.e.write("-")
		}
		g.literal(p.Lit, false)
	case *syntax.TuplePat:
		g.e.write("(")
		for i, e := range p.Elems {
			if i > 0 {
				g.e.write(", ")
			}
			g.pattern(e, let)
		}
		if len(p.Elems) == 1 {
			g.e.write(",")
		}
		g.e.write(")")
	case *syntax.RefPat:
		g.e.write("&")
		g.pattern(p.Pat, let)
	case *syntax.OrPat:
		for i, a := range p.Alts {
			if i > 0 {
				g.e.write(" | ")
			}
			g.pattern(a, let)
		}
	case *syntax.RangePat:
		if p.Lo != nil {
			g.pattern(p.Lo, let)
		}
		if p.Inclusive {
			g.e.write("..=")
		} else {
			g.e.write("..")
		}
		if p.Hi != nil {
			g.pattern(p.Hi, let)
		}
	case *syntax.VariantPat:
		g.variantPat(p, let)
	}
}

func (g *generator) variantPat(p *syntax.VariantPat, let bool) {
	g.e.write(g.variantPath(p))
	switch {
	case p.Tuple:
		g.e.write("(")
		for i, e := range p.Elems {
			if i > 0 {
				g.e.write(", ")
			}
			g.pattern(e, let)
		}
		g.e.write(")")
	case p.Struct:
		if len(p.Fields) == 0 {
			g.e.write(" { .. }")
			return
		}
		g.e.write(" { ")
		for i, f := range p.Fields {
			if i > 0 {
				g.e.write(", ")
			}
			g.e.write(g.ident(f.Name.Value))
			if f.Pat != nil {
				g.e.write(": ")
				g.pattern(f.Pat, let)
			}
		}
		g.e.write(" }")
	}
}

// variantPath qualifies a bare variant name with its enum. The enum is
// found from the file's declarations; names shared by several enums are
// left as written.
func (g *generator) variantPath(p *syntax.VariantPat) string {
	if len(p.Path) > 1 {
		parts := make([]string, len(p.Path))
		for i, n := range p.Path {
			parts[i] = n.Value
		}
		return strings.Join(parts, "::")
	}
	name := p.Path[0]
	if g.info.Uses[name] != nil {
		return g.ident(name.Value)
	}
	if enums := g.enums[name.Value]; len(enums) == 1 {
		return enums[0] + "::" + name.Value
	}
	return name.Value
}
