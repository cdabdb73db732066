package syntax

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Expressions
//
// Precedence, loosest first: assignment (statement level), ternary,
// range, the binary levels of Token.Precedence, cast, unary, postfix.

// expr parses an expression.
func (p *Parser) expr() Expr {
	return p.ternaryExpr()
}

// ternaryExpr parses cond ? then : else. It is right-associative.
func (p *Parser) ternaryExpr() Expr {
	x := p.rangeExpr()
	if !p.ternaryq {
		return x
	}
	p.ternaryq = false

	t := &Ternary{Cond: x}
	t.pos = x.Pos()
	t.Then = p.ternaryExpr()
	p.want(_Colon)
	t.Else = p.ternaryExpr()
	p.finish(t)
	return t
}

// rangeExpr parses lo..hi, lo..=hi and the open forms.
func (p *Parser) rangeExpr() Expr {
	var lo Expr
	pos := p.pos
	if p.tok != _DotDot && p.tok != _DotDotEq {
		lo = p.binaryExpr(0)
		if p.tok != _DotDot && p.tok != _DotDotEq {
			return lo
		}
	}

	r := &RangeExpr{Lo: lo, Inclusive: p.tok == _DotDotEq}
	r.pos = pos
	p.next()
	if p.startsExpr() && !(p.tok == _Lbrace && p.xnest < 0) {
		r.Hi = p.binaryExpr(0)
	} else if r.Inclusive {
		p.errorExpected("range end")
	}
	p.finish(r)
	return r
}

// binaryExpr parses binary operations with precedence greater than prec.
func (p *Parser) binaryExpr(prec int) Expr {
	x := p.castExpr()
	for !p.ternaryq {
		oprec := p.tok.Precedence()
		if oprec <= prec {
			return x
		}
		op := p.tok
		p.next()
		y := p.binaryExpr(oprec)
		o := &Operation{Op: op, X: x, Y: y}
		o.pos = x.Pos()
		p.finish(o)
		x = o
	}
	return x
}

// castExpr parses x as T.
func (p *Parser) castExpr() Expr {
	x := p.unaryExpr()
	for p.tok == _As && !p.ternaryq {
		p.next()
		c := &CastExpr{X: x}
		c.pos = x.Pos()
		c.Type = p.type_()
		p.finish(c)
		x = c
	}
	return x
}

// unaryExpr parses prefix operators and closures.
func (p *Parser) unaryExpr() Expr {
	pos := p.pos
	switch p.tok {
	case _Sub, _Not, _Mul:
		op := p.tok
		p.next()
		o := &Operation{Op: op, X: p.unaryExpr()}
		o.pos = pos
		p.finish(o)
		return o
	case _And:
		p.next()
		o := &Operation{Op: _And, Mut: p.got(_Mut)}
		o.pos = pos
		o.X = p.unaryExpr()
		p.finish(o)
		return o
	case _AndAnd:
		// &&x is &(&x)
		p.next()
		inner := &Operation{Op: _And, Mut: p.got(_Mut)}
		inner.pos = NewPosOffset(pos.filename, pos.line, pos.col+1, pos.offset+1)
		inner.X = p.unaryExpr()
		p.finish(inner)
		o := &Operation{Op: _And, X: inner}
		o.pos = pos
		p.finish(o)
		return o
	case _Or, _OrOr:
		return p.closure()
	}
	return p.postfixExpr(p.operand())
}

// closure parses |params| body or || body.
func (p *Parser) closure() Expr {
	c := &ClosureExpr{}
	c.pos = p.pos
	if !p.got(_OrOr) {
		p.want(_Or)
		for p.tok != _Or && p.tok != _EOF {
			c.Params = append(c.Params, p.param(false))
			if !p.got(_Comma) {
				break
			}
		}
		p.want(_Or)
	}
	if p.got(_Arrow) {
		p.type_() // result annotations are inferred by the target
	}
	oldx := p.xnest
	p.xnest = 0
	c.Body = p.expr()
	p.xnest = oldx
	p.finish(c)
	return c
}

// startsExpr reports whether the current token can begin an expression.
func (p *Parser) startsExpr() bool {
	switch p.tok {
	case _Name, _Literal, _Lparen, _Lbrack, _Lbrace,
		_Sub, _Not, _Mul, _And, _AndAnd, _Or, _OrOr,
		_If, _Match, _Self, _SelfType, _DotDot, _DotDotEq:
		return true
	}
	return false
}

// operand parses a primary expression.
func (p *Parser) operand() Expr {
	switch p.tok {
	case _Name, _Self, _SelfType:
		return p.pathOrName()

	case _Literal:
		return p.literal()

	case _Lparen:
		return p.parenOrTuple()

	case _Lbrack:
		a := &ArrayLit{}
		a.pos = p.pos
		open := p.pos
		p.next()
		oldx := p.xnest
		p.xnest = 0
		a.Elems = p.exprList(_Rbrack)
		p.xnest = oldx
		p.closing(_Rbrack, open)
		p.finish(a)
		return a

	case _Lbrace:
		b := &BlockExpr{}
		b.pos = p.pos
		b.Block = p.blockStmt()
		p.finish(b)
		return b

	case _If:
		return p.ifExpr()

	case _Match:
		return p.matchExpr()

	case _Return, _Break, _Continue:
		// Diverging statements are allowed where a value is expected,
		// as in match arms. They are wrapped in a block.
		b := &BlockExpr{Block: &BlockStmt{}}
		b.pos = p.pos
		b.Block.pos = p.pos
		b.Block.Stmts = []Stmt{p.stmt()}
		p.finish(b.Block)
		p.finish(b)
		return b
	}

	x := &BadExpr{}
	x.pos = p.pos
	p.syntaxError(ExpectedExpression, fmt.Sprintf("expected expression, found %s", p.tokDesc()))
	p.finish(x)
	return x
}

// exprList parses comma-separated expressions up to close.
func (p *Parser) exprList(close Token) []Expr {
	var list []Expr
	for p.tok != close && p.tok != _EOF {
		list = append(list, p.expr())
		if !p.got(_Comma) {
			break
		}
	}
	return list
}

// parenOrTuple parses (), (x), (x,) and (x, y).
func (p *Parser) parenOrTuple() Expr {
	pos := p.pos
	open := p.pos
	p.next()
	oldx := p.xnest
	p.xnest = 0
	defer func() { p.xnest = oldx }()

	if p.tok == _Rparen {
		p.next()
		t := &TupleLit{}
		t.pos = pos
		p.finish(t)
		return t
	}

	x := p.expr()
	if p.tok != _Comma {
		p.closing(_Rparen, open)
		e := &ParenExpr{X: x}
		e.pos = pos
		p.finish(e)
		return e
	}

	t := &TupleLit{Elems: []Expr{x}}
	t.pos = pos
	for p.got(_Comma) {
		if p.tok == _Rparen {
			break
		}
		t.Elems = append(t.Elems, p.expr())
	}
	p.closing(_Rparen, open)
	p.finish(t)
	return t
}

// literal parses a basic or interpolated literal.
func (p *Parser) literal() Expr {
	pos, end := p.pos, p.end
	if p.kind == InterpLit {
		raw := p.lit
		p.next()
		return p.interpString(raw, pos, end)
	}

	l := &BasicLit{Kind: p.kind, Value: p.lit, InternID: -1}
	l.pos, l.end = pos, end
	if p.kind == IntLit || p.kind == FloatLit {
		l.Raw = p.lit
		if v, err := NumericValue(p.lit, p.kind); err == nil {
			l.Value = v
		}
	}
	p.next()
	return l
}

// pathOrName parses a name or a :: path and whatever follows it: a
// macro call or a struct literal.
func (p *Parser) pathOrName() Expr {
	pos := p.pos
	first := NewName(p.pos, p.lit)
	switch p.tok {
	case _Self:
		first.Value = "self"
	case _SelfType:
		first.Value = "Self"
	}
	first.end = p.end
	p.next()

	var x Expr = first
	if p.tok == _ColonColon {
		path := &PathExpr{Segments: []*Name{first}}
		path.pos = pos
		for p.got(_ColonColon) {
			if p.tok == _Lss {
				path.TypeArgs = p.typeArgs()
				continue
			}
			path.Segments = append(path.Segments, p.name())
		}
		p.finish(path)
		x = path
	}

	if p.tok == _Not {
		if n, ok := x.(*Name); ok {
			return p.macroCall(n)
		}
	}

	if p.tok == _Lbrace && p.xnest >= 0 && isUpper(lastSegment(x)) {
		return p.structLit(x)
	}
	return x
}

// lastSegment returns the final identifier of a name or path.
func lastSegment(x Expr) string {
	switch x := x.(type) {
	case *Name:
		return x.Value
	case *PathExpr:
		return x.Segments[len(x.Segments)-1].Value
	}
	return ""
}

// macroCall parses name!(args), name![args] and name!{args}.
func (p *Parser) macroCall(name *Name) Expr {
	m := &MacroCall{Name: name}
	m.pos = name.Pos()
	p.want(_Not)

	var close Token
	switch p.tok {
	case _Lparen:
		close = _Rparen
	case _Lbrack:
		close = _Rbrack
	case _Lbrace:
		close = _Rbrace
	default:
		p.errorExpected("'(' after macro name")
		p.finish(m)
		return m
	}
	open := p.pos
	p.next()
	oldx := p.xnest
	p.xnest = 0
	m.Args = p.exprList(close)
	p.xnest = oldx
	p.closing(close, open)
	p.finish(m)
	return m
}

// structLit parses Type { name: value, name, ..base }.
func (p *Parser) structLit(typ Expr) Expr {
	s := &StructLit{Type: typ}
	s.pos = typ.Pos()
	open := p.expect(_Lbrace)
	oldx := p.xnest
	p.xnest = 0

	for {
		p.skipSemis()
		if p.tok == _Rbrace || p.tok == _EOF {
			break
		}
		if p.got(_DotDot) {
			s.Base = p.expr()
			p.skipSemis()
			break
		}
		f := &FieldInit{}
		f.pos = p.pos
		f.Name = p.name()
		if p.got(_Colon) {
			f.Value = p.expr()
		} else {
			short := NewName(f.Name.Pos(), f.Name.Value)
			short.end = f.Name.End()
			f.Value = short
		}
		p.finish(f)
		s.Fields = append(s.Fields, f)
		if !p.got(_Comma) && p.tok != _Semi && p.tok != _Rbrace {
			p.errorExpected("',' or '}'")
			break
		}
	}

	p.xnest = oldx
	p.closing(_Rbrace, open)
	p.finish(s)
	return s
}

// ifExpr parses if cond { a } else { b } in expression position.
func (p *Parser) ifExpr() Expr {
	t := &Ternary{}
	t.pos = p.pos
	p.want(_If)
	t.Cond = p.header()
	t.Then = p.blockExpr()
	if p.got(_Else) {
		if p.tok == _If {
			b := &BlockExpr{Block: &BlockStmt{}}
			b.pos = p.pos
			b.Block.pos = p.pos
			inner := p.ifExpr()
			b.Block.Stmts = []Stmt{NewExprStmt(inner, false)}
			p.finish(b.Block)
			p.finish(b)
			t.Else = b
		} else {
			t.Else = p.blockExpr()
		}
	}
	p.finish(t)
	return t
}

func (p *Parser) blockExpr() *BlockExpr {
	b := &BlockExpr{}
	b.pos = p.pos
	b.Block = p.blockStmt()
	p.finish(b)
	return b
}

// matchExpr parses match x { pat [if guard] => body, ... }.
func (p *Parser) matchExpr() Expr {
	m := &MatchExpr{}
	m.pos = p.pos
	p.want(_Match)
	m.X = p.header()

	open := p.expect(_Lbrace)
	oldx := p.xnest
	p.xnest = 0
	for {
		p.skipSemis()
		if p.tok == _Rbrace || p.tok == _EOF {
			break
		}
		start := p.pos
		a := &MatchArm{}
		a.pos = p.pos
		a.Pat = p.pattern()
		if p.got(_If) {
			a.Guard = p.expr()
		}
		p.want(_FatArrow)
		a.Body = p.expr()
		p.finish(a)
		m.Arms = append(m.Arms, a)

		if !p.got(_Comma) && p.tok != _Semi && p.tok != _Rbrace {
			if _, isBlock := a.Body.(*BlockExpr); !isBlock {
				p.errorExpected("',' or '}' after match arm")
				p.advanceStmt()
			}
		}
		if p.pos == start {
			p.next()
		}
	}
	p.xnest = oldx
	p.closing(_Rbrace, open)
	p.finish(m)
	return m
}

// postfixExpr parses calls, method calls, fields, indexing, x? and x.await.
func (p *Parser) postfixExpr(x Expr) Expr {
	for {
		switch p.tok {
		case _Dot:
			p.next()
			switch {
			case p.tok == _Await:
				a := &AwaitExpr{X: x}
				a.pos = x.Pos()
				p.next()
				p.finish(a)
				x = a
			case p.tok == _Literal && p.kind == IntLit:
				f := &FieldExpr{X: x, Sel: NewName(p.pos, p.lit)}
				f.pos = x.Pos()
				p.next()
				p.finish(f)
				x = f
			default:
				sel := p.name()
				if p.tok == _ColonColon {
					// turbofish on a method: x.collect::<Vec<int>>()
					p.next()
					p.typeArgs()
				}
				if p.tok == _Lparen {
					m := &MethodCallExpr{X: x, Name: sel}
					m.pos = x.Pos()
					m.Args = p.callArgs()
					p.finish(m)
					x = m
				} else {
					f := &FieldExpr{X: x, Sel: sel}
					f.pos = x.Pos()
					p.finish(f)
					x = f
				}
			}

		case _Lparen:
			c := &CallExpr{Fun: x}
			c.pos = x.Pos()
			c.Args = p.callArgs()
			p.finish(c)
			x = c

		case _Lbrack:
			open := p.pos
			p.next()
			oldx := p.xnest
			p.xnest = 0
			ix := &IndexExpr{X: x}
			ix.pos = x.Pos()
			ix.Index = p.expr()
			p.xnest = oldx
			p.closing(_Rbrack, open)
			p.finish(ix)
			x = ix

		case _Question:
			qend := p.end
			p.next()
			if p.startsExpr() {
				// cond ? a : b
				p.ternaryq = true
				return x
			}
			t := &TryExpr{X: x}
			t.pos = x.Pos()
			t.end = qend
			x = t

		default:
			return x
		}
	}
}

// callArgs parses (args).
func (p *Parser) callArgs() []Expr {
	open := p.pos
	p.next()
	oldx := p.xnest
	p.xnest = 0
	args := p.exprList(_Rparen)
	p.xnest = oldx
	p.closing(_Rparen, open)
	return args
}

// ----------------------------------------------------------------------------
// String interpolation

// interpString splits the raw text of "a ${x} b" into string segments and
// parsed expressions. pos is the position of the opening quote.
func (p *Parser) interpString(raw string, pos, end Pos) Expr {
	s := &InterpString{}
	s.pos, s.end = pos, end

	var text strings.Builder
	textStart := 0
	flush := func(at int) {
		if text.Len() > 0 {
			l := NewStringLit(p.offsetPos(pos, raw, textStart), text.String())
			s.Parts = append(s.Parts, l)
			text.Reset()
		}
		textStart = at
	}

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			r, n := decodeEscape(raw[i:])
			text.WriteString(r)
			i += n
		case c == '$' && i+1 < len(raw) && raw[i+1] == '{':
			flush(i)
			close := matchingBrace(raw, i+2)
			src := raw[i+2 : close]
			s.Parts = append(s.Parts, p.subExpr(p.offsetPos(pos, raw, i+2), src))
			i = close + 1
			textStart = i
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush(len(raw))
	return s
}

// offsetPos returns the position of raw[i], where raw starts just after
// the quote at pos.
func (p *Parser) offsetPos(pos Pos, raw string, i int) Pos {
	line, col := pos.line, pos.col+1
	for _, c := range []byte(raw[:i]) {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return NewPosOffset(pos.filename, line, col, pos.offset+1+uint32(i))
}

// subExpr parses the embedded expression of a ${...} segment.
func (p *Parser) subExpr(pos Pos, src string) Expr {
	sub := &Parser{errh: p.errh}
	sub.scanner = newScannerAt(pos, src, sub.lexError)
	sub.next()
	if sub.tok == _EOF {
		x := &BadExpr{}
		x.pos = pos
		p.errorAt(ExpectedExpression, MakeSpan(pos, pos), "empty interpolation")
		return x
	}
	x := sub.expr()
	if sub.tok != _EOF {
		sub.syntaxError(UnexpectedToken, fmt.Sprintf("unexpected %s in interpolation", sub.tokDesc()))
	}
	p.errcnt += sub.errcnt
	if p.first == nil {
		p.first = sub.first
	}
	return x
}

// matchingBrace returns the index of the '}' closing a brace opened
// before raw[from], skipping nested braces and string literals.
func matchingBrace(raw string, from int) int {
	depth := 0
	for i := from; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '"':
			for i++; i < len(raw) && raw[i] != '"'; i++ {
				if raw[i] == '\\' {
					i++
				}
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return len(raw)
}

// decodeEscape decodes the escape at the start of s and returns the
// text it denotes and the number of bytes consumed.
func decodeEscape(s string) (string, int) {
	switch s[1] {
	case 'n':
		return "\n", 2
	case 't':
		return "\t", 2
	case 'r':
		return "\r", 2
	case '0':
		return "\x00", 2
	case '\\', '"', '\'', '$':
		return s[1:2], 2
	case 'u':
		if len(s) > 3 && s[2] == '{' {
			if end := strings.IndexByte(s, '}'); end > 3 {
				var r rune
				for _, c := range s[3:end] {
					r = r<<4 | hexValue(c)
				}
				return string(r), end + 1
			}
		}
	}
	return s[:2], 2
}
