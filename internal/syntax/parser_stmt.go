package syntax

import "fmt"

// ----------------------------------------------------------------------------
// Statements

// blockStmt parses { stmts }.
func (p *Parser) blockStmt() *BlockStmt {
	b := &BlockStmt{}
	b.pos = p.pos
	open := p.pos
	if !p.got(_Lbrace) {
		p.errorExpected("'{'")
		p.finish(b)
		return b
	}

	oldx := p.xnest
	p.xnest = 0
	b.Stmts = p.stmtList()
	p.xnest = oldx

	p.closing(_Rbrace, open)
	p.finish(b)
	return b
}

// stmtList parses statements up to the closing '}'. A statement that
// fails to parse is replaced by what was recovered and the parser skips
// to the next ';' or '}'.
func (p *Parser) stmtList() []Stmt {
	var list []Stmt
	for p.tok != _Rbrace && p.tok != _EOF {
		if p.tok == _Semi {
			p.next()
			continue
		}
		start := p.pos
		errs := p.errcnt
		s := p.stmt()
		list = append(list, s)
		if p.errcnt > errs {
			p.advanceStmt()
		} else {
			p.stmtEnd(s)
		}
		if p.pos == start && p.tok != _Rbrace && p.tok != _EOF {
			p.next()
		}
	}
	return list
}

// stmtEnd consumes the terminator following s.
func (p *Parser) stmtEnd(s Stmt) {
	switch p.tok {
	case _Semi:
		if es, ok := s.(*ExprStmt); ok {
			es.Semi = !p.implicit
		}
		p.next()
	case _Rbrace, _EOF:
	default:
		if endsInBlock(s) {
			return
		}
		p.syntaxError(ExpectedToken, fmt.Sprintf("expected ';' or newline after statement, found %s", p.tokDesc()))
		p.advanceStmt()
	}
}

// endsInBlock reports whether s ends with a '}' and needs no terminator.
func endsInBlock(s Stmt) bool {
	switch s := s.(type) {
	case *BlockStmt, *IfStmt, *WhileStmt, *LoopStmt, *ForStmt:
		return true
	case *ExprStmt:
		switch s.X.(type) {
		case *MatchExpr, *BlockExpr:
			return true
		case *Ternary:
			_, ok := s.X.(*Ternary).Then.(*BlockExpr)
			return ok
		}
	}
	return false
}

// stmt parses a single statement.
func (p *Parser) stmt() Stmt {
	switch p.tok {
	case _Let:
		return p.letStmt()
	case _Return:
		return p.returnStmt()
	case _Break, _Continue:
		s := &BranchStmt{Tok: p.tok}
		s.pos = p.pos
		p.next()
		p.finish(s)
		return s
	case _If:
		return p.ifStmt()
	case _While:
		return p.whileStmt()
	case _Loop:
		s := &LoopStmt{}
		s.pos = p.pos
		p.next()
		s.Body = p.blockStmt()
		p.finish(s)
		return s
	case _For:
		return p.forStmt()
	case _Lbrace:
		return p.blockStmt()
	case _Fn, _Struct, _Enum, _Trait, _Impl, _Use, _Const, _Static, _Type, _Pub:
		s := &BadStmt{}
		s.pos = p.pos
		p.syntaxError(ExpectedStatement, fmt.Sprintf("items are not allowed inside a block, found %s", p.tokDesc()))
		p.finish(s)
		return s
	}

	if !p.startsExpr() {
		s := &BadStmt{}
		s.pos = p.pos
		p.syntaxError(ExpectedStatement, fmt.Sprintf("expected statement, found %s", p.tokDesc()))
		p.finish(s)
		return s
	}
	return p.simpleStmt()
}

// simpleStmt parses an expression statement or an assignment.
func (p *Parser) simpleStmt() Stmt {
	pos := p.pos
	x := p.expr()

	if p.tok.IsAssign() {
		s := &AssignStmt{Op: p.tok, Lhs: x}
		s.pos = pos
		p.next()
		s.Rhs = p.expr()
		p.finish(s)
		return s
	}

	s := &ExprStmt{X: x}
	s.pos = pos
	p.finish(s)
	return s
}

// letStmt parses let [mut] pat [: T] [= value].
func (p *Parser) letStmt() *LetStmt {
	s := &LetStmt{}
	s.pos = p.pos
	p.want(_Let)

	s.Pat = p.pattern()
	if ip, ok := s.Pat.(*IdentPat); ok && ip.Mut {
		s.Mut = true
	}
	if p.got(_Colon) {
		s.Type = p.type_()
	}
	if p.got(_Assign) {
		s.Value = p.expr()
	}
	p.finish(s)
	return s
}

// returnStmt parses return [expr].
func (p *Parser) returnStmt() *ReturnStmt {
	s := &ReturnStmt{}
	s.pos = p.pos
	p.want(_Return)
	if p.tok != _Semi && p.tok != _Rbrace && p.tok != _Comma && p.tok != _EOF {
		s.Result = p.expr()
	}
	p.finish(s)
	return s
}

// header parses a control clause expression, where struct literals are
// not allowed so that '{' opens the body.
func (p *Parser) header() Expr {
	oldx := p.xnest
	p.xnest = -1
	x := p.expr()
	p.xnest = oldx
	return x
}

// ifStmt parses if cond { } [else if ... | else { }].
func (p *Parser) ifStmt() *IfStmt {
	s := &IfStmt{}
	s.pos = p.pos
	p.want(_If)
	s.Cond = p.header()
	s.Then = p.blockStmt()
	if p.got(_Else) {
		switch p.tok {
		case _If:
			s.Else = p.ifStmt()
		case _Lbrace:
			s.Else = p.blockStmt()
		default:
			p.errorExpected("if statement or block")
		}
	}
	p.finish(s)
	return s
}

// whileStmt parses while cond { }.
func (p *Parser) whileStmt() *WhileStmt {
	s := &WhileStmt{}
	s.pos = p.pos
	p.want(_While)
	s.Cond = p.header()
	s.Body = p.blockStmt()
	p.finish(s)
	return s
}

// forStmt parses for pat in iter { }.
func (p *Parser) forStmt() *ForStmt {
	s := &ForStmt{}
	s.pos = p.pos
	p.want(_For)
	s.Pat = p.pattern()
	p.want(_In)
	s.Iter = p.header()
	s.Body = p.blockStmt()
	p.finish(s)
	return s
}
