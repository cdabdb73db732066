package codegen

import (
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/analysis"
	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

func (g *generator) expr(e syntax.Expr) {
	g.exprAs(e, nil)
}

// exprAs emits e in a position that wants a value of type want, which
// may be nil. Borrowed strings flowing into owned String slots are
// converted.
func (g *generator) exprAs(e syntax.Expr, want types.Type) {
	if g.res.Clones[e] {
		if _, ok := e.(*syntax.Name); ok {
			g.recvExpr(e)
		} else {
			// value, not expr: the clone flag must not be seen again.
			g.wrapOperand(e, func(x syntax.Expr) { g.value(x, nil) })
		}
		g.e.write(".clone()")
		return
	}
	if isOwnedString(want) {
		if l, ok := e.(*syntax.BasicLit); ok && l.Kind == syntax.StringLit {
			g.literal(l, true)
			return
		}
		if g.borrowedStr(e) {
			g.recvExpr(e)
			g.e.write(".to_string()")
			return
		}
	}
	g.value(e, want)
}

func (g *generator) exprList(list []syntax.Expr, want types.Type) {
	for i, x := range list {
		if i > 0 {
			g.e.write(", ")
		}
		g.exprAs(x, want)
	}
}

func (g *generator) value(e syntax.Expr, want types.Type) {
	switch e := e.(type) {
	case *syntax.Name:
		g.name(e)
	case *syntax.BasicLit:
		g.literal(e, false)
	case *syntax.InterpString:
		format, args := g.interp(e)
		g.e.write("format!(" + format + args + ")")
	case *syntax.Operation:
		g.operation(e)
	case *syntax.CallExpr:
		g.call(e, want)
	case *syntax.MethodCallExpr:
		g.methodCall(e)
	case *syntax.FieldExpr:
		g.recvExpr(e.X)
		g.e.write("." + g.ident(e.Sel.Value))
	case *syntax.IndexExpr:
		g.index(e)
	case *syntax.Ternary:
		g.ternary(e, want)
	case *syntax.ClosureExpr:
		g.closure(e)
	case *syntax.BlockExpr:
		g.block(e.Block, want != nil || !isUnitish(g.info.TypeOf(e)), want)
	case *syntax.MatchExpr:
		g.match(e, want)
	case *syntax.StructLit:
		g.structLit(e)
	case *syntax.ArrayLit:
		elem := types.ElemType(want)
		if want == nil || types.IsInvalid(elem) {
			elem = types.ElemType(g.info.TypeOf(e))
		}
		g.e.write("vec![")
		g.exprList(e.Elems, elem)
		g.e.write("]")
	case *syntax.TupleLit:
		var elems []types.Type
		if t, ok := want.(*types.Tuple); ok {
			elems = t.Elems()
		}
		g.e.write("(")
		for i, x := range e.Elems {
			if i > 0 {
				g.e.write(", ")
			}
			var w types.Type
			if i < len(elems) {
				w = elems[i]
			}
			g.exprAs(x, w)
		}
		if len(e.Elems) == 1 {
			g.e.write(",")
		}
		g.e.write(")")
	case *syntax.RangeExpr:
		if e.Lo != nil {
			g.rangeBound(e.Lo)
		}
		if e.Inclusive {
			g.e.write("..=")
		} else {
			g.e.write("..")
		}
		if e.Hi != nil {
			g.rangeBound(e.Hi)
		}
	case *syntax.CastExpr:
		g.operand(e.X)
		g.e.write(" as " + g.syntaxType(e.Type))
	case *syntax.TryExpr:
		g.operand(e.X)
		g.e.write("?")
	case *syntax.AwaitExpr:
		g.operand(e.X)
		g.e.write(".await")
	case *syntax.MacroCall:
		if e.Name.Value == "vec" {
			g.e.write("vec![")
			g.exprList(e.Args, nil)
			g.e.write("]")
			return
		}
		g.e.write(e.Name.Value + "!(")
		g.exprList(e.Args, nil)
		g.e.write(")")
	case *syntax.PathExpr:
		if f := g.stdFunc(e); f != nil {
			g.e.write(expand(f.Rust, "", nil))
			return
		}
		g.e.write(g.path(e))
	case *syntax.ParenExpr:
		g.e.write("(")
		g.exprAs(e.X, want)
		g.e.write(")")
	case *syntax.BadExpr:
		g.e.write("todo!()")
	}
}

func (g *generator) rangeBound(x syntax.Expr) {
	switch x.(type) {
	case *syntax.RangeExpr, *syntax.ClosureExpr:
		g.e.write("(")
		g.expr(x)
		g.e.write(")")
	default:
		g.expr(x)
	}
}

// name emits a reference to a binding or item. Copy values reached
// through a reference are read through it.
func (g *generator) name(n *syntax.Name) {
	switch obj := g.info.Uses[n].(type) {
	case *types.Var:
		if obj.Kind() == types.SelfVar {
			g.e.write("self")
			return
		}
		if g.res.FactsOf(obj).ByRef && types.IsCopy(obj.Type()) {
			g.e.write("*" + g.ident(n.Value))
			return
		}
	case *types.Module:
		if f := g.stdFunc(n); f != nil {
			g.e.write(expand(f.Rust, "", nil))
			return
		}
	case *types.TypeName:
		g.e.write(g.rustName(n.Value))
		return
	}
	g.e.write(g.ident(n.Value))
}

// recvExpr emits e as a method receiver, field base or format argument:
// bindings are not read through, other composite operands are
// parenthesized.
func (g *generator) recvExpr(e syntax.Expr) {
	if n, ok := e.(*syntax.Name); ok {
		if v, ok := g.info.Uses[n].(*types.Var); ok {
			if v.Kind() == types.SelfVar {
				g.e.write("self")
			} else {
				g.e.write(g.ident(n.Value))
			}
			return
		}
		g.name(n)
		return
	}
	g.operand(e)
}

// operand emits e parenthesized unless it binds tighter than any
// postfix or prefix operator applied to it.
func (g *generator) operand(e syntax.Expr) {
	g.wrapOperand(e, g.expr)
}

func (g *generator) wrapOperand(e syntax.Expr, emit func(syntax.Expr)) {
	switch x := e.(type) {
	case *syntax.Operation, *syntax.CastExpr, *syntax.RangeExpr, *syntax.ClosureExpr:
		g.e.write("(")
		emit(e)
		g.e.write(")")
		return
	case *syntax.Ternary:
		g.e.write("(")
		g.ternary(x, nil)
		g.e.write(")")
		return
	}
	emit(e)
}

// ----------------------------------------------------------------------------
// Literals

func (g *generator) literal(l *syntax.BasicLit, owned bool) {
	switch l.Kind {
	case syntax.StringLit, syntax.InterpLit:
		s := quote(l.Value)
		if l.InternID >= 0 && l.InternID < len(g.cfg.Interned) {
			s = internName(l.InternID)
		}
		if owned {
			s += ".to_string()"
		}
		g.e.write(s)
	case syntax.CharLit:
		g.e.write(quoteChar(l.Value))
	case syntax.IntLit:
		if l.Raw != "" {
			g.e.write(l.Raw)
		} else {
			g.e.write(l.Value)
		}
	case syntax.FloatLit:
		s := l.Raw
		if s == "" {
			s = l.Value
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
		}
		g.e.write(s)
	case syntax.BoolLit:
		g.e.write(l.Value)
	}
}

// quote returns s as a Rust string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		b.WriteString(escapeRune(r, '"'))
	}
	b.WriteByte('"')
	return b.String()
}

func quoteChar(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		b.WriteString(escapeRune(r, '\''))
	}
	b.WriteByte('\'')
	return b.String()
}

func escapeRune(r rune, q rune) string {
	switch r {
	case '\\':
		return `\\`
	case q:
		return `\` + string(q)
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case 0:
		return `\0`
	}
	if r < 0x20 || r == 0x7f {
		return `\u{` + strconv.FormatInt(int64(r), 16) + `}`
	}
	return string(r)
}

// interp renders the format string and trailing arguments of an
// interpolated string.
func (g *generator) interp(e *syntax.InterpString) (format, args string) {
	var f, a strings.Builder
	f.WriteByte('"')
	for _, p := range e.Parts {
		if l, ok := p.(*syntax.BasicLit); ok && l.Kind == syntax.StringLit {
			f.WriteString(escapeFormat(l.Value))
			continue
		}
		f.WriteString("{}")
		a.WriteString(", " + g.fmtArg(p))
	}
	f.WriteByte('"')
	return f.String(), a.String()
}

// escapeFormat escapes s for use inside a format string literal.
func escapeFormat(s string) string {
	q := quote(s)
	q = strings.ReplaceAll(q[1:len(q)-1], "{", "{{")
	return strings.ReplaceAll(q, "}", "}}")
}

func (g *generator) fmtArg(e syntax.Expr) string {
	return g.capture(func() {
		if _, ok := e.(*syntax.Name); ok {
			g.recvExpr(e)
			return
		}
		g.expr(e)
	})
}

// ----------------------------------------------------------------------------
// Operators

func (g *generator) operation(e *syntax.Operation) {
	if e.Y == nil {
		g.unary(e)
		return
	}
	if e.Op == syntax.Add && (isStringType(g.info.TypeOf(e.X)) || isStringType(g.info.TypeOf(e.Y))) {
		g.e.write(`format!("{}{}", ` + g.fmtArg(e.X) + ", " + g.fmtArg(e.Y) + ")")
		return
	}
	var lx, ly bool
	if e.Op.IsComparison() {
		lx, ly = g.refValue(e.X), g.refValue(e.Y)
	}
	g.binaryOperand(e.X, e.Op, false, lx && !ly)
	g.e.write(" " + e.Op.String() + " ")
	g.binaryOperand(e.Y, e.Op, true, ly && !lx)
}

func (g *generator) unary(e *syntax.Operation) {
	switch e.Op {
	case syntax.And:
		if e.Mut {
			g.e.write("&mut ")
		} else {
			g.e.write("&")
		}
		g.recvExpr(e.X)
	case syntax.Mul:
		g.e.write("*")
		g.recvExpr(e.X)
	default:
		g.e.write(e.Op.String())
		g.operand(e.X)
	}
}

func bitwise(t syntax.Token) bool {
	return t == syntax.Or || t == syntax.Xor || t == syntax.And || t == syntax.Shl || t == syntax.Shr
}

// binaryOperand emits one side of a binary operation, parenthesized when
// it would otherwise regroup. Comparisons and mixed bitwise operators are
// always grouped explicitly.
func (g *generator) binaryOperand(x syntax.Expr, op syntax.Token, right, deref bool) {
	paren := false
	switch y := x.(type) {
	case *syntax.Operation:
		if y.Y != nil {
			p, q := y.Op.Precedence(), op.Precedence()
			paren = p < q || right && p == q ||
				op.IsComparison() && y.Op.IsComparison() ||
				bitwise(op) != bitwise(y.Op) && (bitwise(op) || bitwise(y.Op)) && p > q
		}
	case *syntax.CastExpr:
		paren = op == syntax.Lss || op == syntax.Shl || right
	case *syntax.RangeExpr, *syntax.ClosureExpr, *syntax.Ternary:
		paren = true
	}
	if deref {
		g.e.write("*")
		g.recvExpr(x)
		return
	}
	if paren {
		g.e.write("(")
		g.expr(x)
		g.e.write(")")
		return
	}
	g.expr(x)
}

// refValue reports whether e renders as a reference to a non-string
// value.
func (g *generator) refValue(e syntax.Expr) bool {
	if isStringType(g.info.TypeOf(e)) || !g.isRef(e) {
		return false
	}
	if n, ok := e.(*syntax.Name); ok {
		if v := g.info.VarOf(n); v != nil && g.paramOf(v) == nil && types.IsCopy(v.Type()) {
			return false
		}
	}
	return true
}

// ----------------------------------------------------------------------------
// Calls

func (g *generator) call(e *syntax.CallExpr, want types.Type) {
	if f := g.stdFunc(e.Fun); f != nil {
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = g.capture(func() { g.operand(a) })
		}
		g.e.write(expand(f.Rust, "", args))
		return
	}
	switch fun := e.Fun.(type) {
	case *syntax.Name:
		switch obj := g.info.Uses[fun].(type) {
		case *types.Builtin:
			g.builtin(obj, e, want)
			return
		case *types.FuncObj:
			g.e.write(g.ident(fun.Value))
			g.args(e.Args, g.res.Sigs.Lookup(obj), obj.Signature())
			return
		}
	case *syntax.PathExpr:
		g.e.write(g.path(fun))
		last := fun.Segments[len(fun.Segments)-1]
		if obj, ok := g.info.Uses[last].(*types.FuncObj); ok {
			g.args(e.Args, g.res.Sigs.Lookup(obj), obj.Signature())
			return
		}
		g.variantArgs(fun, e.Args)
		return
	}
	g.operand(e.Fun)
	g.args(e.Args, nil, nil)
}

// args emits call arguments in the form each parameter's mode asks for.
func (g *generator) args(list []syntax.Expr, sig *analysis.Signature, ft *types.Func) {
	g.e.write("(")
	for i, a := range list {
		if i > 0 {
			g.e.write(", ")
		}
		var p *analysis.Param
		var pt types.Type
		if sig != nil {
			p = sig.Param(i)
		}
		if ft != nil && i < ft.NumParams() {
			pt = ft.Param(i).Type()
		}
		g.arg(a, p, pt)
	}
	g.e.write(")")
}

func (g *generator) arg(a syntax.Expr, p *analysis.Param, pt types.Type) {
	if p == nil {
		g.exprAs(a, pt)
		return
	}
	switch p.Mode {
	case analysis.Shared:
		if g.isRef(a) {
			g.recvExpr(a)
			return
		}
		g.e.write("&")
		g.recvExpr(a)
	case analysis.Exclusive:
		if g.isExclusive(a) {
			g.recvExpr(a)
			return
		}
		g.e.write("&mut ")
		g.recvExpr(a)
	default:
		g.exprAs(a, pt)
	}
}

// variantArgs emits the arguments of a tuple variant or associated
// function call without a known signature.
func (g *generator) variantArgs(p *syntax.PathExpr, list []syntax.Expr) {
	var fields []*types.Var
	if tn, ok := g.info.Uses[p.Segments[0]].(*types.TypeName); ok && len(p.Segments) == 2 {
		if n, ok := tn.Type().(*types.Named); ok {
			if en, ok := n.Underlying().(*types.Enum); ok {
				if v := en.Variant(p.Segments[1].Value); v != nil {
					fields = v.Fields
				}
			}
		}
	}
	g.e.write("(")
	for i, a := range list {
		if i > 0 {
			g.e.write(", ")
		}
		var w types.Type
		if i < len(fields) {
			w = fields[i].Type()
		}
		g.exprAs(a, w)
	}
	g.e.write(")")
}

func (g *generator) builtin(b *types.Builtin, e *syntax.CallExpr, want types.Type) {
	switch b.Kind() {
	case types.BuiltinPrint, types.BuiltinPrintln, types.BuiltinPanic:
		g.e.write(b.Name() + "!(" + g.formatArgs(e.Args) + ")")
	case types.BuiltinAssert:
		g.e.write("assert!(")
		if len(e.Args) > 0 {
			g.expr(e.Args[0])
			if len(e.Args) > 1 {
				g.e.write(", " + g.formatArgs(e.Args[1:]))
			}
		}
		g.e.write(")")
	case types.BuiltinSome, types.BuiltinOk, types.BuiltinErr:
		var w types.Type
		if n, ok := want.(*types.Named); ok {
			switch {
			case types.IsLibrary(n, "Option") && b.Kind() == types.BuiltinSome,
				types.IsLibrary(n, "Result") && b.Kind() == types.BuiltinOk:
				w = n.TypeArg(0)
			case types.IsLibrary(n, "Result") && b.Kind() == types.BuiltinErr:
				w = n.TypeArg(1)
			}
		}
		g.e.write(b.Name() + "(")
		g.exprList(e.Args, w)
		g.e.write(")")
	case types.BuiltinNone:
		g.e.write("None")
	case types.BuiltinDrop:
		g.e.write("drop(")
		g.exprList(e.Args, nil)
		g.e.write(")")
	}
}

// formatArgs renders the arguments of a formatting macro. A leading
// literal with placeholders is the format string; otherwise every
// argument is displayed in turn, separated by spaces.
func (g *generator) formatArgs(list []syntax.Expr) string {
	if len(list) == 0 {
		return ""
	}
	var rest []syntax.Expr
	format := ""
	switch first := list[0].(type) {
	case *syntax.BasicLit:
		if first.Kind != syntax.StringLit {
			break
		}
		rest = list[1:]
		if len(rest) > 0 && strings.Contains(first.Value, "{") {
			format = quote(first.Value)
		} else {
			format = `"` + escapeFormat(first.Value) + strings.Repeat(" {}", len(rest)) + `"`
		}
	case *syntax.InterpString:
		f, a := g.interp(first)
		if len(list) == 1 {
			return f + a
		}
		format = f[:len(f)-1] + strings.Repeat(" {}", len(list)-1) + `"`
		var b strings.Builder
		b.WriteString(format + a)
		for _, x := range list[1:] {
			b.WriteString(", " + g.fmtArg(x))
		}
		return b.String()
	}
	if format == "" {
		rest = list
		format = `"` + strings.TrimSpace(strings.Repeat("{} ", len(list))) + `"`
	}
	var b strings.Builder
	b.WriteString(format)
	for _, x := range rest {
		b.WriteString(", " + g.fmtArg(x))
	}
	return b.String()
}

// stdFunc returns the stdlib function a callee names, or nil.
func (g *generator) stdFunc(fun syntax.Expr) *stdlib.Func {
	switch f := fun.(type) {
	case *syntax.Name:
		if m, ok := g.info.Uses[f].(*types.Module); ok && m.IsStd() && m.IsMember() {
			path := m.Path()
			i := strings.LastIndex(path, "::")
			if mod, ok := stdlib.Lookup(path[:i]); ok {
				return mod.Func(path[i+2:])
			}
		}
	case *syntax.PathExpr:
		if len(f.Segments) != 2 {
			return nil
		}
		if m, ok := g.info.Uses[f.Segments[0]].(*types.Module); ok && m.IsStd() && !m.IsMember() {
			if mod, ok := stdlib.Lookup(m.Path()); ok {
				return mod.Func(f.Segments[1].Value)
			}
		}
	}
	return nil
}

// expand substitutes a receiver and arguments into a template.
func expand(tmpl, recv string, args []string) string {
	s := strings.ReplaceAll(tmpl, "$recv", recv)
	for i := len(args) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, "$"+strconv.Itoa(i), args[i])
	}
	return s
}

func (g *generator) path(p *syntax.PathExpr) string {
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		seg := s.Value
		if i == 0 {
			if tn, ok := g.info.Uses[s].(*types.TypeName); ok {
				seg = g.rustName(tn.Name())
			}
			if len(p.TypeArgs) > 0 {
				args := make([]string, len(p.TypeArgs))
				for j, t := range p.TypeArgs {
					args[j] = g.syntaxType(t)
				}
				seg += "::<" + strings.Join(args, ", ") + ">"
			}
		} else {
			seg = g.ident(seg)
		}
		parts[i] = seg
	}
	return strings.Join(parts, "::")
}

// ----------------------------------------------------------------------------
// Methods

func (g *generator) methodCall(e *syntax.MethodCallExpr) {
	name := e.Name.Value
	if obj, ok := g.info.Uses[e.Name].(*types.FuncObj); ok {
		g.recvExpr(e.X)
		g.e.write("." + g.ident(name))
		g.args(e.Args, g.res.Sigs.Lookup(obj), obj.Signature())
		return
	}

	recvType := types.Deref(g.info.TypeOf(e.X))
	recv := g.capture(func() { g.recvExpr(e.X) })
	seq := types.IsSequence(recvType)
	switch {
	case name == "len":
		g.e.write("(" + recv + ".len() as i64)")
		return
	case name == "collect" && len(e.Args) == 0:
		g.e.write(recv + ".collect::<Vec<_>>()")
		return
	case seq && (name == "get" || name == "remove") && len(e.Args) == 1:
		g.e.write(recv + "." + name + "(" + g.usize(e.Args[0]) + ")")
		return
	case seq && name == "insert" && len(e.Args) == 2:
		g.e.write(recv + ".insert(" + g.usize(e.Args[0]) + ", ")
		g.exprAs(e.Args[1], types.ElemType(recvType))
		g.e.write(")")
		return
	}

	m, known := stdlib.LookupMethod(name)
	wants := g.methodWants(name, recvType, len(e.Args))
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		want := wants[i]
		if name == "contains" && seq && isOwnedString(types.ElemType(recvType)) {
			want = types.Typ[types.String]
		}
		args[i] = g.capture(func() {
			if known && m.Rust != "" && want == nil {
				g.operand(a)
				return
			}
			g.exprAs(a, want)
		})
	}
	if known && m.Rust != "" {
		g.e.write(expand(m.Rust, recv, args))
		return
	}
	g.e.write(recv + "." + g.ident(name) + "(" + strings.Join(args, ", ") + ")")
}

// methodWants returns the wanted argument types of a builtin method whose
// arguments are stored into the receiver.
func (g *generator) methodWants(name string, recv types.Type, n int) []types.Type {
	wants := make([]types.Type, n)
	if m, ok := stdlib.LookupMethod(name); !ok || !m.Owns {
		return wants
	}
	switch {
	case isMap(recv) && n == 2:
		if nt, ok := recv.(*types.Named); ok {
			wants[0], wants[1] = nt.TypeArg(0), nt.TypeArg(1)
		}
	case n == 1:
		if elem := types.ElemType(recv); !types.IsInvalid(elem) {
			wants[0] = elem
		}
	}
	return wants
}

// usize renders an integer index.
func (g *generator) usize(x syntax.Expr) string {
	if l, ok := x.(*syntax.BasicLit); ok && l.Kind == syntax.IntLit {
		return g.capture(func() { g.literal(l, false) })
	}
	return g.capture(func() { g.operand(x) }) + " as usize"
}

func (g *generator) index(e *syntax.IndexExpr) {
	base := types.Deref(g.info.TypeOf(e.X))
	g.recvExpr(e.X)
	g.e.write("[")
	switch {
	case isMap(base):
		if !g.isRef(e.Index) {
			g.e.write("&")
			g.recvExpr(e.Index)
		} else {
			g.expr(e.Index)
		}
	default:
		if r, ok := e.Index.(*syntax.RangeExpr); ok {
			if r.Lo != nil {
				g.e.write(g.usize(r.Lo))
			}
			if r.Inclusive {
				g.e.write("..=")
			} else {
				g.e.write("..")
			}
			if r.Hi != nil {
				g.e.write(g.usize(r.Hi))
			}
		} else {
			g.e.write(g.usize(e.Index))
		}
	}
	g.e.write("]")
}

// ----------------------------------------------------------------------------
// Compound expressions

func (g *generator) ternary(e *syntax.Ternary, want types.Type) {
	value := !isUnitish(g.info.TypeOf(e)) || want != nil
	g.e.write("if ")
	g.expr(e.Cond)
	g.e.write(" ")
	g.branch(e.Then, value, want)
	if e.Else == nil {
		return
	}
	g.e.write(" else ")
	if t, ok := e.Else.(*syntax.Ternary); ok {
		g.ternary(t, want)
		return
	}
	g.branch(e.Else, value, want)
}

func (g *generator) branch(x syntax.Expr, value bool, want types.Type) {
	if b, ok := x.(*syntax.BlockExpr); ok {
		g.block(b.Block, value, want)
		return
	}
	g.e.write("{ ")
	g.exprAs(x, want)
	g.e.write(" }")
}

func (g *generator) closure(e *syntax.ClosureExpr) {
	if g.res.MoveClosures[e] {
		g.e.write("move ")
	}
	g.e.write("|")
	for i, p := range e.Params {
		if i > 0 {
			g.e.write(", ")
		}
		if p.Mode == syntax.ModeMut {
			g.e.write("mut ")
		}
		g.e.write(g.ident(p.Name.Value))
		if p.Type != nil {
			g.e.write(": " + g.syntaxType(p.Type))
		}
	}
	g.e.write("| ")
	if b, ok := e.Body.(*syntax.BlockExpr); ok {
		g.block(b.Block, true, nil)
		return
	}
	g.expr(e.Body)
}

func (g *generator) match(e *syntax.MatchExpr, want types.Type) {
	value := !isUnitish(g.info.TypeOf(e)) || want != nil
	g.e.write("match ")
	xt := g.info.TypeOf(e.X)
	switch {
	case isOwnedString(xt) && !g.isRef(e.X) && hasStringArm(e):
		g.recvExpr(e.X)
		g.e.write(".as_str()")
	case g.res.BorrowedMatch[e] && !g.isRef(e.X):
		g.e.write("&")
		g.recvExpr(e.X)
	default:
		g.expr(e.X)
	}
	if len(e.Arms) == 0 {
		g.e.write(" {}")
		return
	}
	g.e.write(" {")
	g.e.indent++
	for _, arm := range e.Arms {
		g.e.newline()
		g.pattern(arm.Pat, false)
		if arm.Guard != nil {
			g.e.write(" if ")
			g.expr(arm.Guard)
		}
		g.e.write(" => ")
		if b, ok := arm.Body.(*syntax.BlockExpr); ok {
			g.block(b.Block, value, want)
			continue
		}
		g.exprAs(arm.Body, want)
		g.e.write(",")
	}
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

func hasStringArm(e *syntax.MatchExpr) bool {
	for _, arm := range e.Arms {
		found := false
		syntax.Walk(arm.Pat, func(n syntax.Node) bool {
			if l, ok := n.(*syntax.LitPat); ok && l.Lit.Kind == syntax.StringLit {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func (g *generator) structLit(e *syntax.StructLit) {
	var fields []*types.Var
	var name string
	switch t := e.Type.(type) {
	case *syntax.Name:
		name = t.Value
		if n := g.info.Named(t.Value); n != nil {
			if st, ok := n.Underlying().(*types.Struct); ok {
				fields = st.Fields()
			}
		}
	case *syntax.PathExpr:
		name = g.path(t)
		if tn, ok := g.info.Uses[t.Segments[0]].(*types.TypeName); ok {
			if n, ok := tn.Type().(*types.Named); ok {
				if en, ok := n.Underlying().(*types.Enum); ok {
					if v := en.Variant(t.Segments[len(t.Segments)-1].Value); v != nil {
						fields = v.Fields
					}
				}
			}
		}
	}
	fieldType := func(name string) types.Type {
		for _, f := range fields {
			if f.Name() == name {
				return f.Type()
			}
		}
		return nil
	}
	if len(e.Fields) == 0 && e.Base == nil {
		g.e.write(name + " {}")
		return
	}
	g.e.write(name + " { ")
	for i, f := range e.Fields {
		if i > 0 {
			g.e.write(", ")
		}
		field := g.ident(f.Name.Value)
		v := g.capture(func() { g.exprAs(f.Value, fieldType(f.Name.Value)) })
		if v == field {
			g.e.write(field)
		} else {
			g.e.write(field + ": " + v)
		}
	}
	if e.Base != nil {
		if len(e.Fields) > 0 {
			g.e.write(", ")
		}
		g.e.write("..")
		g.expr(e.Base)
	}
	g.e.write(" }")
}

// ----------------------------------------------------------------------------
// Reference predicates

// isRef reports whether e already renders as a reference: a borrowed
// parameter, a binding into a borrowed value, a string literal or a
// borrow expression.
func (g *generator) isRef(e syntax.Expr) bool {
	switch e := unparen(e).(type) {
	case *syntax.Name:
		v := g.info.VarOf(e)
		if v == nil {
			return false
		}
		if p := g.paramOf(v); p != nil {
			return !p.Mode.ByValue()
		}
		return g.res.FactsOf(v).ByRef
	case *syntax.BasicLit:
		return e.Kind == syntax.StringLit
	case *syntax.Operation:
		return e.Y == nil && e.Op == syntax.And
	}
	return false
}

func (g *generator) isExclusive(e syntax.Expr) bool {
	switch e := unparen(e).(type) {
	case *syntax.Name:
		if v := g.info.VarOf(e); v != nil {
			if p := g.paramOf(v); p != nil {
				return p.Mode == analysis.Exclusive
			}
		}
	case *syntax.Operation:
		return e.Y == nil && e.Op == syntax.And && e.Mut
	}
	return false
}

// borrowedStr reports whether e is a string binding held by reference.
func (g *generator) borrowedStr(e syntax.Expr) bool {
	n, ok := e.(*syntax.Name)
	if !ok {
		return false
	}
	v := g.info.VarOf(n)
	return v != nil && types.IsString(v.Type()) && g.isRef(n)
}

func (g *generator) paramOf(v *types.Var) *analysis.Param {
	return g.paramVars[v]
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

func isOwnedString(t types.Type) bool {
	b, ok := t.(*types.Basic)
	return ok && b.Kind() == types.String
}

func isStringType(t types.Type) bool {
	return !types.IsInvalid(t) && types.IsString(types.Deref(t))
}

func isStringLit(e syntax.Expr) bool {
	l, ok := unparen(e).(*syntax.BasicLit)
	return ok && l.Kind == syntax.StringLit
}

func isUnitish(t types.Type) bool {
	return types.IsUnit(t) || types.IsInvalid(t)
}
