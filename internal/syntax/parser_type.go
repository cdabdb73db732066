package syntax

import "fmt"

// ----------------------------------------------------------------------------
// Types

// type_ parses a type expression.
func (p *Parser) type_() Type {
	pos := p.pos
	switch p.tok {
	case _And, _AndAnd:
		double := p.tok == _AndAnd
		p.next()
		r := &RefType{Mut: p.got(_Mut)}
		r.pos = pos
		r.Elem = p.type_()
		p.finish(r)
		if double {
			outer := &RefType{Elem: r}
			outer.pos = pos
			p.finish(outer)
			return outer
		}
		return r

	case _Lparen:
		open := p.pos
		p.next()
		var elems []Type
		trailingComma := false
		for p.tok != _Rparen && p.tok != _EOF {
			elems = append(elems, p.type_())
			trailingComma = false
			if !p.got(_Comma) {
				break
			}
			trailingComma = true
		}
		p.closing(_Rparen, open)
		if len(elems) == 1 && !trailingComma {
			return elems[0]
		}
		t := &TupleType{Elems: elems}
		t.pos = pos
		p.finish(t)
		return t

	case _Lbrack:
		open := p.pos
		p.next()
		a := &ArrayType{}
		a.pos = pos
		a.Elem = p.type_()
		if p.got(_Semi) {
			a.Len = p.expr()
		}
		p.closing(_Rbrack, open)
		p.finish(a)
		return a

	case _Fn:
		p.next()
		f := &FuncType{}
		f.pos = pos
		open := p.expect(_Lparen)
		for p.tok != _Rparen && p.tok != _EOF {
			f.Params = append(f.Params, p.type_())
			if !p.got(_Comma) {
				break
			}
		}
		p.closing(_Rparen, open)
		if p.got(_Arrow) {
			f.Result = p.type_()
		}
		p.finish(f)
		return f

	case _Dyn, _Impl:
		p.next()
		t := p.type_()
		if nt, ok := t.(*NamedType); ok {
			nt.Dyn = true
			nt.pos = pos
		}
		return t

	case _Name, _SelfType:
		if p.tok == _Name && p.lit == "_" {
			t := &InferType{}
			t.pos = pos
			p.next()
			p.finish(t)
			return t
		}
		return p.namedType()
	}

	t := &NamedType{Path: []string{"_"}}
	t.pos = pos
	p.syntaxError(ExpectedType, fmt.Sprintf("expected type, found %s", p.tokDesc()))
	p.finish(t)
	return t
}

// namedType parses a::b::Name<Args>.
func (p *Parser) namedType() *NamedType {
	t := &NamedType{}
	t.pos = p.pos
	for {
		if p.tok == _SelfType {
			t.Path = append(t.Path, "Self")
			p.next()
		} else {
			t.Path = append(t.Path, p.name().Value)
		}
		if p.tok != _ColonColon {
			break
		}
		p.next()
	}
	if p.tok == _Lss {
		t.Args, t.Assoc = p.typeArgList()
	}
	p.finish(t)
	return t
}

// typeArgs parses <A, B> and drops associated bindings.
func (p *Parser) typeArgs() []Type {
	args, _ := p.typeArgList()
	return args
}

// typeArgList parses <A, B, Output = C>.
func (p *Parser) typeArgList() ([]Type, []*AssocType) {
	p.want(_Lss)
	var args []Type
	var assoc []*AssocType
	for p.tok != _Gtr && p.tok != _Shr && p.tok != _EOF {
		pos := p.pos
		t := p.type_()
		if nt, ok := t.(*NamedType); ok && p.tok == _Assign && len(nt.Path) == 1 && len(nt.Args) == 0 {
			p.next()
			a := &AssocType{Name: nt.Path[0]}
			a.pos = pos
			a.Type = p.type_()
			p.finish(a)
			assoc = append(assoc, a)
		} else {
			args = append(args, t)
		}
		if !p.got(_Comma) {
			break
		}
	}
	if !p.gotGtr() {
		p.errorExpected("'>'")
	}
	return args, assoc
}

// ----------------------------------------------------------------------------
// Patterns

// pattern parses a pattern with alternatives: a | b.
func (p *Parser) pattern() Pattern {
	pos := p.pos
	x := p.primaryPattern()
	if p.tok != _Or {
		return x
	}
	o := &OrPat{Alts: []Pattern{x}}
	o.pos = pos
	for p.got(_Or) {
		o.Alts = append(o.Alts, p.primaryPattern())
	}
	p.finish(o)
	return o
}

// primaryPattern parses a single pattern without alternatives.
func (p *Parser) primaryPattern() Pattern {
	pos := p.pos
	switch p.tok {
	case _Name:
		if p.lit == "_" {
			w := &WildcardPat{}
			w.pos = pos
			p.next()
			p.finish(w)
			return w
		}
		if p.lit == "ref" {
			p.next()
			ip := &IdentPat{Ref: true}
			ip.pos = pos
			ip.Mut = p.got(_Mut)
			ip.Name = p.name()
			p.finish(ip)
			return ip
		}
		return p.namePattern()

	case _SelfType:
		return p.namePattern()

	case _Mut:
		p.next()
		ip := &IdentPat{Mut: true}
		ip.pos = pos
		ip.Name = p.name()
		p.finish(ip)
		return ip

	case _Literal, _Sub:
		lo := p.litPattern()
		if p.tok != _DotDot && p.tok != _DotDotEq {
			return lo
		}
		r := &RangePat{Lo: lo, Inclusive: p.tok == _DotDotEq}
		r.pos = pos
		p.next()
		r.Hi = p.litPattern()
		p.finish(r)
		return r

	case _Lparen:
		t := &TuplePat{}
		t.pos = pos
		open := p.pos
		p.next()
		for p.tok != _Rparen && p.tok != _EOF {
			t.Elems = append(t.Elems, p.pattern())
			if !p.got(_Comma) {
				break
			}
		}
		p.closing(_Rparen, open)
		p.finish(t)
		return t

	case _And:
		p.next()
		r := &RefPat{}
		r.pos = pos
		r.Pat = p.primaryPattern()
		p.finish(r)
		return r
	}

	w := &WildcardPat{}
	w.pos = pos
	p.syntaxError(ExpectedPattern, fmt.Sprintf("expected pattern, found %s", p.tokDesc()))
	p.finish(w)
	return w
}

// litPattern parses a possibly negated literal.
func (p *Parser) litPattern() *LitPat {
	l := &LitPat{}
	l.pos = p.pos
	l.Neg = p.got(_Sub)
	if p.tok != _Literal || p.kind == InterpLit {
		p.errorExpected("literal")
		l.Lit = NewIntLit(p.pos, "0")
		p.finish(l)
		return l
	}
	lit, _ := p.literal().(*BasicLit)
	l.Lit = lit
	p.finish(l)
	return l
}

// namePattern parses x, Variant, Path::Variant, Variant(p, q) and
// Variant { f, g: p, .. }. Lower-case single names bind; everything else
// names a variant or constant.
func (p *Parser) namePattern() Pattern {
	pos := p.pos
	var path []*Name
	for {
		if p.tok == _SelfType {
			n := NewName(p.pos, "Self")
			p.next()
			path = append(path, n)
		} else {
			path = append(path, p.name())
		}
		if !p.got(_ColonColon) {
			break
		}
	}

	v := &VariantPat{Path: path}
	v.pos = pos
	switch p.tok {
	case _Lparen:
		v.Tuple = true
		open := p.pos
		p.next()
		for p.tok != _Rparen && p.tok != _EOF {
			v.Elems = append(v.Elems, p.pattern())
			if !p.got(_Comma) {
				break
			}
		}
		p.closing(_Rparen, open)
	case _Lbrace:
		v.Struct = true
		open := p.pos
		p.next()
		for {
			p.skipSemis()
			if p.tok == _Rbrace || p.tok == _EOF {
				break
			}
			if p.got(_DotDot) {
				p.skipSemis()
				break
			}
			f := &FieldPat{}
			f.pos = p.pos
			f.Name = p.name()
			if p.got(_Colon) {
				f.Pat = p.pattern()
			}
			p.finish(f)
			v.Fields = append(v.Fields, f)
			if !p.got(_Comma) && p.tok != _Semi && p.tok != _Rbrace {
				p.errorExpected("',' or '}'")
				break
			}
		}
		p.closing(_Rbrace, open)
	default:
		if len(path) == 1 && !isUpper(path[0].Value) {
			ip := &IdentPat{Name: path[0]}
			ip.pos = pos
			p.finish(ip)
			return ip
		}
	}
	p.finish(v)
	return v
}
