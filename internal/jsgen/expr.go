package jsgen

import (
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/stdlib"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

func (g *generator) expr(e syntax.Expr) {
	switch e := e.(type) {
	case *syntax.Name:
		g.name(e)
	case *syntax.BasicLit:
		g.literal(e)
	case *syntax.InterpString:
		g.e.write(g.template(e.Parts))
	case *syntax.Operation:
		g.operation(e)
	case *syntax.CallExpr:
		g.call(e)
	case *syntax.MethodCallExpr:
		g.methodCall(e)
	case *syntax.FieldExpr:
		g.operand(e.X, 0, false)
		g.e.mark(e.Sel.Pos(), e.Sel.Value)
		g.e.write("." + e.Sel.Value)
	case *syntax.IndexExpr:
		g.index(e)
	case *syntax.Ternary:
		g.ternary(e)
	case *syntax.ClosureExpr:
		g.closure(e)
	case *syntax.BlockExpr:
		g.iife(e, func() { g.block(e.Block, true) })
	case *syntax.MatchExpr:
		g.iife(e, func() {
			g.e.write("{")
			g.e.indent++
			g.e.newline()
			g.matchStmt(e, true)
			g.e.indent--
			g.e.newline()
			g.e.write("}")
		})
	case *syntax.StructLit:
		g.structLit(e)
	case *syntax.ArrayLit:
		g.list("[", e.Elems, "]")
	case *syntax.TupleLit:
		g.list("[", e.Elems, "]")
	case *syntax.RangeExpr:
		g.need(helperRange)
		g.e.write("__wj_range(")
		if e.Lo != nil {
			g.expr(e.Lo)
		} else {
			g.e.write("0")
		}
		g.e.write(",")
		g.e.sp()
		if e.Hi != nil {
			g.expr(e.Hi)
			if e.Inclusive {
				g.e.write(" + 1")
			}
		} else {
			g.e.write("Infinity")
		}
		g.e.write(")")
	case *syntax.CastExpr:
		g.cast(e)
	case *syntax.TryExpr:
		g.need(helperTry)
		g.e.write("__wj_try(")
		g.expr(e.X)
		g.e.write(")")
	case *syntax.AwaitExpr:
		g.e.write("await ")
		g.operand(e.X, 0, false)
	case *syntax.MacroCall:
		g.macro(e)
	case *syntax.PathExpr:
		g.pathValue(e)
	case *syntax.ParenExpr:
		g.e.write("(")
		g.expr(e.X)
		g.e.write(")")
	case *syntax.BadExpr:
		g.e.write("undefined")
	}
}

func (g *generator) list(open string, elems []syntax.Expr, close string) {
	g.e.write(open)
	g.exprList(elems)
	g.e.write(close)
}

func (g *generator) exprList(list []syntax.Expr) {
	for i, x := range list {
		if i > 0 {
			g.e.write(",")
			g.e.sp()
		}
		g.expr(x)
	}
}

// name emits a reference to a binding or item.
func (g *generator) name(n *syntax.Name) {
	g.e.mark(n.Pos(), n.Value)
	switch obj := g.info.Uses[n].(type) {
	case *types.Var:
		if obj.Kind() == types.SelfVar {
			g.e.write("this")
			return
		}
	case *types.Builtin:
		if obj.Kind() == types.BuiltinNone {
			g.e.write("null")
			return
		}
	case *types.Module:
		if f := g.stdFunc(n); f != nil {
			g.e.write(expand(f.JS, "", nil))
			return
		}
	}
	if n.Value == "self" {
		g.e.write("this")
		return
	}
	g.e.write(g.ident(n.Value))
}

// operand emits e parenthesized when it would otherwise regroup under
// the operator parentOp; a zero parentOp means a postfix position.
func (g *generator) operand(e syntax.Expr, parentOp syntax.Token, right bool) {
	paren := false
	switch x := e.(type) {
	case *syntax.Operation:
		if x.Y == nil {
			paren = parentOp == 0
			break
		}
		if parentOp == 0 {
			paren = true
			break
		}
		p, q := x.Op.Precedence(), parentOp.Precedence()
		paren = p < q || right && p == q || bitwise(x.Op) || bitwise(parentOp)
		if x.Op == syntax.Div && types.IsInteger(types.DefaultType(g.info.TypeOf(x))) {
			paren = false // rendered as a call
		}
	case *syntax.CastExpr:
		paren = !g.castIsCall(x)
	case *syntax.Ternary, *syntax.ClosureExpr, *syntax.AwaitExpr, *syntax.RangeExpr:
		paren = true
	case *syntax.BasicLit:
		paren = parentOp == 0 && (x.Kind == syntax.IntLit || x.Kind == syntax.FloatLit)
	}
	if paren {
		g.e.write("(")
		g.expr(e)
		g.e.write(")")
		return
	}
	g.expr(e)
}

func bitwise(t syntax.Token) bool {
	return t == syntax.Or || t == syntax.Xor || t == syntax.And || t == syntax.Shl || t == syntax.Shr
}

// ----------------------------------------------------------------------------
// Literals

func (g *generator) literal(l *syntax.BasicLit) {
	g.e.mark(l.Pos(), "")
	switch l.Kind {
	case syntax.StringLit, syntax.InterpLit, syntax.CharLit:
		if l.Kind != syntax.CharLit && !g.inChunk && l.InternID >= 0 && l.InternID < len(g.cfg.Interned) {
			g.e.write(internName(l.InternID))
			return
		}
		g.e.write(quoteJS(l.Value))
	case syntax.IntLit:
		g.e.write(intLit(l))
	case syntax.FloatLit:
		s := l.Raw
		if s == "" {
			s = l.Value
		}
		s = strings.TrimSuffix(strings.TrimSuffix(s, "f64"), "f32")
		g.e.write(strings.ReplaceAll(s, "_", ""))
	case syntax.BoolLit:
		g.e.write(l.Value)
	}
}

// intLit renders an integer literal without Rust suffixes or separators.
func intLit(l *syntax.BasicLit) string {
	if l.Value != "" {
		if v, err := strconv.ParseInt(l.Value, 0, 64); err == nil {
			return strconv.FormatInt(v, 10)
		}
	}
	s := strings.ReplaceAll(l.Raw, "_", "")
	for _, suf := range []string{"i64", "i32", "i16", "i8", "u64", "u32", "u16", "u8", "usize", "isize"} {
		s = strings.TrimSuffix(s, suf)
	}
	if s == "" {
		return l.Value
	}
	return s
}

func internName(id int) string {
	return "STR_" + strconv.Itoa(id)
}

// quoteJS returns s as a double-quoted JavaScript string literal.
func quoteJS(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0x2028, 0x2029:
			b.WriteString(`\u` + strconv.FormatInt(int64(r), 16))
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x` + hex2(r))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func hex2(r rune) string {
	s := strconv.FormatInt(int64(r), 16)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

// template renders interpolated parts as a template literal.
func (g *generator) template(parts []syntax.Expr) string {
	var b strings.Builder
	b.WriteByte('`')
	for _, p := range parts {
		if l, ok := p.(*syntax.BasicLit); ok && (l.Kind == syntax.StringLit || l.Kind == syntax.InterpLit) {
			b.WriteString(escapeTemplate(l.Value))
			continue
		}
		b.WriteString("${" + g.capture(func() { g.expr(p) }) + "}")
	}
	b.WriteByte('`')
	return b.String()
}

func escapeTemplate(s string) string {
	r := strings.NewReplacer("\\", `\\`, "`", "\\`", "${", "\\${", "\r", `\r`)
	return r.Replace(s)
}

// format emits the message of a formatting builtin: a leading literal
// with {} placeholders becomes a template literal, other arguments are
// joined by spaces.
func (g *generator) format(args []syntax.Expr) {
	if len(args) == 0 {
		g.e.write(`""`)
		return
	}
	rest := args
	var parts []string
	switch first := args[0].(type) {
	case *syntax.BasicLit:
		if first.Kind != syntax.StringLit {
			break
		}
		rest = args[1:]
		if !strings.Contains(first.Value, "{") {
			parts = append(parts, escapeTemplate(first.Value))
			break
		}
		text, used := g.placeholders(first.Value, rest)
		parts = append(parts, text)
		rest = rest[used:]
	case *syntax.InterpString:
		t := g.template(first.Parts)
		parts = append(parts, t[1:len(t)-1])
		rest = args[1:]
	}
	for _, x := range rest {
		v := "${" + g.capture(func() { g.expr(x) }) + "}"
		parts = append(parts, v)
	}
	g.e.write("`" + strings.Join(parts, " ") + "`")
}

// placeholders substitutes args into the {} and {:?} holes of a format
// string. It returns the template text and how many args were used.
func (g *generator) placeholders(s string, args []syntax.Expr) (string, int) {
	var b strings.Builder
	used := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				b.WriteString(escapeTemplate(s[i:]))
				return b.String(), used
			}
			if used < len(args) {
				x := args[used]
				b.WriteString("${" + g.capture(func() { g.expr(x) }) + "}")
				used++
			}
			i += end
		default:
			b.WriteString(escapeTemplate(string(c)))
		}
	}
	return b.String(), used
}

// ----------------------------------------------------------------------------
// Operators

func (g *generator) operation(e *syntax.Operation) {
	if e.Y == nil {
		g.unary(e)
		return
	}
	op := e.Op.String()
	switch e.Op {
	case syntax.Eql, syntax.Neq:
		if g.structural(e.X) || g.structural(e.Y) {
			g.need(helperEq)
			if e.Op == syntax.Neq {
				g.e.write("!")
			}
			g.e.write("__wj_eq(")
			g.expr(e.X)
			g.e.write(",")
			g.e.sp()
			g.expr(e.Y)
			g.e.write(")")
			return
		}
		op += "="
	case syntax.Div:
		if types.IsInteger(types.DefaultType(g.info.TypeOf(e))) {
			g.e.write("Math.trunc(")
			g.operand(e.X, syntax.Div, false)
			g.e.write(" / ")
			g.operand(e.Y, syntax.Div, true)
			g.e.write(")")
			return
		}
	}
	g.operand(e.X, e.Op, false)
	g.e.sp()
	g.e.write(op)
	g.e.sp()
	g.operand(e.Y, e.Op, true)
}

// structural reports whether values of e's type compare by content.
func (g *generator) structural(e syntax.Expr) bool {
	t := types.Deref(g.info.TypeOf(e))
	switch t := t.(type) {
	case *types.Array, *types.Tuple:
		return true
	case *types.Named:
		if t.IsLibrary() {
			return types.IsLibrary(t, "Vec") || types.IsLibrary(t, "Option")
		}
		_, isStruct := t.Underlying().(*types.Struct)
		_, isEnum := t.Underlying().(*types.Enum)
		return isStruct || isEnum
	}
	return false
}

func (g *generator) unary(e *syntax.Operation) {
	switch e.Op {
	case syntax.And, syntax.Mul:
		g.expr(e.X) // references have no runtime form
	default:
		g.e.write(e.Op.String())
		g.operand(e.X, 0, false)
	}
}

// ----------------------------------------------------------------------------
// Calls

func (g *generator) call(e *syntax.CallExpr) {
	if f := g.stdFunc(e.Fun); f != nil {
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = g.capture(func() { g.expr(a) })
		}
		if f.JS == "" {
			g.e.write(f.Name + "(" + strings.Join(args, ", ") + ")")
			return
		}
		if f.Async && !strings.HasPrefix(f.JS, "await ") {
			g.e.write("await ")
		}
		g.e.write(expand(f.JS, "", args))
		return
	}
	if b := g.builtinOf(e.Fun); b != nil {
		g.builtin(b, e)
		return
	}
	switch fun := e.Fun.(type) {
	case *syntax.PathExpr:
		if g.assocCall(fun, e.Args) {
			return
		}
		if g.variantCall(fun, e.Args) {
			return
		}
	case *syntax.Name:
		if vs := g.variants[fun.Value]; len(vs) == 1 && g.items[fun.Value] == nil {
			if _, ok := g.info.Uses[fun].(*types.VariantObj); ok {
				g.e.write(vs[0] + "." + fun.Value)
				g.list("(", e.Args, ")")
				return
			}
		}
	}
	g.operand(e.Fun, 0, false)
	g.list("(", e.Args, ")")
}

// builtinOf returns the builtin a callee names, or nil.
func (g *generator) builtinOf(fun syntax.Expr) *types.Builtin {
	if n, ok := unparen(fun).(*syntax.Name); ok {
		b, _ := g.info.Uses[n].(*types.Builtin)
		return b
	}
	return nil
}

func (g *generator) builtin(b *types.Builtin, e *syntax.CallExpr) {
	switch b.Kind() {
	case types.BuiltinPrint, types.BuiltinPrintln:
		g.e.write("console.log(")
		if len(e.Args) > 0 {
			g.format(e.Args)
		}
		g.e.write(")")
	case types.BuiltinPanic:
		// Only reachable in expression position.
		g.e.write("(() => {")
		g.e.sp()
		g.throw(e.Args)
		g.e.sp()
		g.e.write("})()")
	case types.BuiltinAssert:
		g.e.write("console.assert(")
		if len(e.Args) > 0 {
			g.expr(e.Args[0])
			if len(e.Args) > 1 {
				g.e.write(",")
				g.e.sp()
				g.format(e.Args[1:])
			}
		}
		g.e.write(")")
	case types.BuiltinSome, types.BuiltinOk:
		if len(e.Args) == 0 {
			g.e.write("undefined")
			return
		}
		g.expr(e.Args[0])
	case types.BuiltinErr:
		g.need(helperErr)
		g.e.write("new __WjErr(")
		g.exprList(e.Args)
		g.e.write(")")
	case types.BuiltinNone:
		g.e.write("null")
	case types.BuiltinDrop:
		g.e.write("void 0")
	}
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

// libraryCtors maps associated constructors of library types to their
// JavaScript form. $0 is the first argument.
var libraryCtors = map[string]string{
	"Vec::new":           "[]",
	"Vec::with_capacity": "[]",
	"VecDeque::new":      "[]",
	"HashMap::new":       "new Map()",
	"BTreeMap::new":      "new Map()",
	"Map::new":           "new Map()",
	"HashSet::new":       "new Set()",
	"BTreeSet::new":      "new Set()",
	"String::new":        `""`,
	"String::from":       "String($0)",
	"Box::new":           "$0",
	"Rc::new":            "$0",
	"Arc::new":           "$0",
	"RefCell::new":       "$0",
}

// assocCall emits calls of associated functions: library constructors
// and static methods of local types.
func (g *generator) assocCall(p *syntax.PathExpr, args []syntax.Expr) bool {
	if len(p.Segments) != 2 {
		return false
	}
	head, last := p.Segments[0].Value, p.Segments[1]
	if tmpl, ok := libraryCtors[head+"::"+last.Value]; ok && g.items[head] == nil {
		rendered := make([]string, len(args))
		for i, a := range args {
			rendered[i] = g.capture(func() { g.expr(a) })
		}
		g.e.mark(p.Pos(), "")
		g.e.write(expand(tmpl, "", rendered))
		return true
	}
	if _, ok := g.info.Uses[last].(*types.FuncObj); ok {
		if head == "Self" {
			head = g.selfType()
		}
		// Members keep their names; reserved words are valid after a dot.
		g.e.mark(last.Pos(), last.Value)
		g.e.write(head + "." + last.Value)
		g.list("(", args, ")")
		return true
	}
	return false
}

// variantCall emits the construction of a tuple variant.
func (g *generator) variantCall(p *syntax.PathExpr, args []syntax.Expr) bool {
	ei := g.enumOf(p.Segments, nil)
	if ei == nil || len(p.Segments) < 2 {
		return false
	}
	last := p.Segments[len(p.Segments)-1].Value
	if ei.variants[last] == nil {
		return false
	}
	g.e.write(ei.decl.Name.Value + "." + last)
	g.list("(", args, ")")
	return true
}

// pathValue emits a path used as a value: a unit variant, a constant of
// a module or a function reference.
func (g *generator) pathValue(p *syntax.PathExpr) {
	if f := g.stdFunc(p); f != nil {
		g.e.write(expand(f.JS, "", nil))
		return
	}
	if len(p.Segments) >= 2 {
		head := p.Segments[len(p.Segments)-2].Value
		last := p.Segments[len(p.Segments)-1].Value
		if head == "Self" {
			head = g.selfType()
		}
		if ei := g.enumOf(p.Segments, nil); ei != nil && ei.variants[last] != nil {
			g.e.write(ei.decl.Name.Value + "." + last)
			return
		}
		if tmpl, ok := libraryCtors[head+"::"+last]; ok && g.items[head] == nil {
			g.e.write("(() => " + expand(tmpl, "", []string{"undefined"}) + ")")
			return
		}
		g.e.write(head + "." + last)
		return
	}
	g.e.write(g.ident(p.Segments[0].Value))
}

// selfType returns the name of the type whose impl is being emitted.
func (g *generator) selfType() string {
	if g.self != "" {
		return g.self
	}
	return "this"
}

// ----------------------------------------------------------------------------
// Methods

// methodCall emits a method call. User methods are called as written;
// builtin methods follow their stdlib template, adjusted for the
// receiver's collection kind.
func (g *generator) methodCall(e *syntax.MethodCallExpr) {
	name := e.Name.Value
	recv := g.capture(func() { g.operand(e.X, 0, false) })
	if _, ok := g.info.Uses[e.Name].(*types.FuncObj); ok {
		g.e.write(recv)
		g.e.mark(e.Name.Pos(), name)
		g.e.write("." + name)
		g.list("(", e.Args, ")")
		return
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.capture(func() { g.expr(a) })
	}
	rt := types.Deref(g.info.TypeOf(e.X))
	if tmpl, ok := g.recvOverride(name, rt, len(args)); ok {
		g.e.write(expand(tmpl, recv, args))
		return
	}
	if m, ok := stdlib.LookupMethod(name); ok && m.JS != "" {
		g.e.write(expand(m.JS, recv, args))
		return
	}
	switch name {
	case "is_ok", "is_err":
		g.need(helperErr)
		not := ""
		if name == "is_ok" {
			not = "!"
		}
		g.e.write("(" + not + "(" + recv + " instanceof __WjErr))")
		return
	case "unwrap_or_default":
		g.e.write("(" + recv + " ?? " + zeroValue(typeArg(rt, 0)) + ")")
		return
	case "max", "min":
		if len(args) == 1 {
			g.e.write("Math." + name + "(" + recv + ", " + args[0] + ")")
			return
		}
		g.e.write("Math." + name + "(..." + recv + ")")
		return
	}
	g.e.write(recv + "." + jsMethodName(name) + "(" + strings.Join(args, ", ") + ")")
}

// recvOverride returns the template of a builtin method whose JavaScript
// spelling depends on the receiver's collection kind.
func (g *generator) recvOverride(name string, rt types.Type, n int) (string, bool) {
	isMap := types.IsLibrary(rt, "HashMap") || types.IsLibrary(rt, "BTreeMap") || types.IsLibrary(rt, "Map")
	isSet := types.IsLibrary(rt, "HashSet") || types.IsLibrary(rt, "BTreeSet")
	seq := types.IsSequence(rt)
	switch {
	case name == "insert" && seq && n == 2:
		return "$recv.splice($0, 0, $1)", true
	case name == "insert" && isSet:
		return "$recv.add($0)", true
	case name == "get" && seq:
		return "$recv[$0]", true
	case name == "get_mut" && seq:
		return "$recv[$0]", true
	case name == "remove" && isMap:
		return "$recv.delete($0)", true
	case name == "remove" && isSet:
		return "$recv.delete($0)", true
	case name == "contains" && isSet, name == "contains_key" && isMap:
		return "$recv.has($0)", true
	case name == "len" && (isMap || isSet):
		return "$recv.size", true
	case name == "is_empty" && (isMap || isSet):
		return "($recv.size === 0)", true
	case name == "clear" && (isMap || isSet):
		return "$recv.clear()", true
	case name == "iter" && isMap:
		return "[...$recv.entries()]", true
	case name == "len" && types.IsString(rt):
		return "$recv.length", true
	case name == "push" && types.IsString(rt):
		return "$recv += $0", true
	}
	return "", false
}

// jsMethodName maps iterator adapters onto Array methods.
func jsMethodName(name string) string {
	switch name {
	case "for_each":
		return "forEach"
	case "any":
		return "some"
	case "all":
		return "every"
	case "find":
		return "find"
	case "position":
		return "findIndex"
	case "fold":
		return "reduce"
	case "flat_map":
		return "flatMap"
	}
	return name
}

// zeroValue returns the JavaScript default of t.
func zeroValue(t types.Type) string {
	switch {
	case t == nil:
		return "undefined"
	case types.IsString(t):
		return `""`
	case types.IsNumeric(t):
		return "0"
	case types.IsBoolean(t):
		return "false"
	case types.IsSequence(t):
		return "[]"
	}
	return "undefined"
}

func (g *generator) index(e *syntax.IndexExpr) {
	bt := types.Deref(g.info.TypeOf(e.X))
	if r, ok := unparen(e.Index).(*syntax.RangeExpr); ok {
		g.operand(e.X, 0, false)
		g.e.write(".slice(")
		if r.Lo != nil {
			g.expr(r.Lo)
		} else {
			g.e.write("0")
		}
		if r.Hi != nil {
			g.e.write(",")
			g.e.sp()
			g.expr(r.Hi)
			if r.Inclusive {
				g.e.write(" + 1")
			}
		}
		g.e.write(")")
		return
	}
	g.operand(e.X, 0, false)
	if types.IsLibrary(bt, "HashMap") || types.IsLibrary(bt, "BTreeMap") || types.IsLibrary(bt, "Map") {
		g.e.write(".get(")
		g.expr(e.Index)
		g.e.write(")")
		return
	}
	g.e.write("[")
	g.expr(e.Index)
	g.e.write("]")
}

// ----------------------------------------------------------------------------
// Compound expressions

func (g *generator) ternary(e *syntax.Ternary) {
	if isBlockLike(e.Then) || isBlockLike(e.Else) {
		g.iife(e, func() {
			g.e.write("{")
			g.e.indent++
			g.e.newline()
			g.e.write("if")
			g.e.sp()
			g.e.write("(")
			g.expr(e.Cond)
			g.e.write(")")
			g.e.sp()
			g.retBranch(e.Then)
			if e.Else != nil {
				g.e.write(" else")
				g.e.sp()
				g.retBranch(e.Else)
			}
			g.e.indent--
			g.e.newline()
			g.e.write("}")
		})
		return
	}
	g.operand(e.Cond, syntax.OrOr, false)
	g.e.sp()
	g.e.write("?")
	g.e.sp()
	g.expr(e.Then)
	g.e.sp()
	g.e.write(":")
	g.e.sp()
	if e.Else == nil {
		g.e.write("undefined")
		return
	}
	g.expr(e.Else)
}

func (g *generator) retBranch(x syntax.Expr) {
	if b, ok := unparen(x).(*syntax.BlockExpr); ok {
		g.block(b.Block, true)
		return
	}
	g.e.write("{")
	g.e.indent++
	g.e.newline()
	g.ret(x)
	g.e.indent--
	g.e.newline()
	g.e.write("}")
}

// iife wraps statements producing a value in an immediately invoked
// arrow function, awaiting it when the statements await.
func (g *generator) iife(n syntax.Node, body func()) {
	async := g.usesAwait(n)
	if async {
		g.e.write("(await (async () => ")
	} else {
		g.e.write("(() => ")
	}
	saved := g.fnResult
	g.fnResult = true
	body()
	g.fnResult = saved
	if async {
		g.e.write(")())")
		return
	}
	g.e.write(")()")
}

func (g *generator) closure(e *syntax.ClosureExpr) {
	if g.usesAwait(e.Body) {
		g.e.write("async ")
	}
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = g.ident(p.Name.Value)
	}
	sep := ", "
	if g.e.compact {
		sep = ","
	}
	g.e.write("(" + strings.Join(names, sep) + ")")
	g.e.sp()
	g.e.write("=>")
	g.e.sp()
	if b, ok := e.Body.(*syntax.BlockExpr); ok {
		saved := g.fnResult
		g.fnResult = true
		g.block(b.Block, true)
		g.fnResult = saved
		return
	}
	if _, ok := e.Body.(*syntax.StructLit); ok {
		g.expr(e.Body)
		return
	}
	g.operand(e.Body, syntax.OrOr, false)
}

// structLit emits a constructor call with the fields in declared order.
// Struct variants construct the enum's tagged value.
func (g *generator) structLit(e *syntax.StructLit) {
	var name string
	var order []string
	var ei *enumInfo
	switch t := e.Type.(type) {
	case *syntax.Name:
		name = t.Value
		if name == "Self" {
			name = g.selfType()
		}
		if si := g.structs[name]; si != nil {
			order = si.fields
		}
	case *syntax.PathExpr:
		ei = g.enumOf(t.Segments, nil)
		name = t.Segments[len(t.Segments)-1].Value
		if ei != nil {
			if v := ei.variants[name]; v != nil {
				for _, f := range v.Fields {
					order = append(order, f.Name.Value)
				}
			}
		}
	}
	given := make(map[string]syntax.Expr, len(e.Fields))
	for _, f := range e.Fields {
		given[f.Name.Value] = f.Value
	}
	if order == nil {
		for _, f := range e.Fields {
			order = append(order, f.Name.Value)
		}
	}
	base := ""
	if e.Base != nil {
		base = g.tmp("b")
	}
	values := make([]string, len(order))
	for i, f := range order {
		if x, ok := given[f]; ok {
			values[i] = g.capture(func() { g.expr(x) })
			continue
		}
		if base != "" {
			values[i] = base + "." + f
			continue
		}
		values[i] = "undefined"
	}
	sep := ", "
	if g.e.compact {
		sep = ","
	}
	call := "new " + name + "(" + strings.Join(values, sep) + ")"
	if ei != nil {
		call = ei.decl.Name.Value + "." + name + "(" + strings.Join(values, sep) + ")"
	}
	g.e.mark(e.Pos(), "")
	if base == "" {
		g.e.write(call)
		return
	}
	g.e.write("((" + base + ") => " + call + ")(")
	g.expr(e.Base)
	g.e.write(")")
}

// castIsCall reports whether a cast is rendered as a function call.
func (g *generator) castIsCall(e *syntax.CastExpr) bool {
	to := castTarget(e.Type)
	from := types.DefaultType(g.info.TypeOf(e.X))
	return to == "int" && !types.IsInteger(from) || to == "float" && types.IsString(from)
}

func (g *generator) cast(e *syntax.CastExpr) {
	from := types.DefaultType(g.info.TypeOf(e.X))
	switch castTarget(e.Type) {
	case "int":
		if types.IsInteger(from) {
			g.expr(e.X)
			return
		}
		g.e.write("Math.trunc(")
		g.expr(e.X)
		g.e.write(")")
	case "float":
		if types.IsString(from) {
			g.e.write("Number(")
			g.expr(e.X)
			g.e.write(")")
			return
		}
		g.expr(e.X)
	case "string":
		g.e.write("String(")
		g.expr(e.X)
		g.e.write(")")
	default:
		g.expr(e.X)
	}
}

func castTarget(t syntax.Type) string {
	switch typeName(t) {
	case "int", "i8", "i16", "i32", "i64", "isize", "u8", "u16", "u32", "u64", "usize":
		return "int"
	case "float", "f32", "f64":
		return "float"
	case "string", "String":
		return "string"
	}
	return ""
}

// macro emits the Rust-style macros accepted by the parser.
func (g *generator) macro(e *syntax.MacroCall) {
	switch e.Name.Value {
	case "vec":
		g.list("[", e.Args, "]")
	case "println", "print", "eprintln", "eprint":
		fn := "console.log("
		if strings.HasPrefix(e.Name.Value, "e") {
			fn = "console.error("
		}
		g.e.write(fn)
		if len(e.Args) > 0 {
			g.format(e.Args)
		}
		g.e.write(")")
	case "format":
		g.format(e.Args)
	case "assert", "debug_assert":
		g.e.write("console.assert(")
		g.exprList(e.Args)
		g.e.write(")")
	case "assert_eq", "assert_ne":
		g.need(helperEq)
		not := ""
		if e.Name.Value == "assert_ne" {
			not = "!"
		}
		g.e.write("console.assert(" + not + "__wj_eq(")
		g.exprList(e.Args)
		g.e.write("))")
	case "panic", "unreachable", "todo", "unimplemented":
		g.e.write("(() => {")
		g.e.sp()
		g.throw(e.Args)
		g.e.sp()
		g.e.write("})()")
	default:
		g.e.write(g.ident(e.Name.Value))
		g.list("(", e.Args, ")")
	}
}

func (g *generator) capture(f func()) string {
	return g.e.capture(f)
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
