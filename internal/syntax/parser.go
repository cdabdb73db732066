package syntax

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Maximum number of errors reported per file. Parsing continues past it;
// only reporting stops.
const maxErrors = 50

// Parser performs syntax analysis on WJ source code.
type Parser struct {
	scanner *Scanner

	// Current token info (cached from scanner)
	tok      Token
	lit      string
	kind     LitKind
	pos      Pos
	end      Pos
	implicit bool // current _Semi was inserted at a newline
	prevEnd  Pos  // end of the previously consumed token

	// Error handling
	errh    ErrorHandler
	errcnt  int
	first   error // first error encountered
	lastErr Pos   // position of the last reported error

	// Context tracking
	xnest         int  // < 0: struct literals are not allowed (control clauses)
	ternaryq      bool // a '?' starting a ternary was consumed by postfix parsing
	lexErrorCount int
}

// NewParser creates a new Parser for the given source.
// errh receives every lexical and syntax error; it may be nil.
func NewParser(filename string, src io.Reader, errh ErrorHandler) *Parser {
	p := &Parser{errh: errh}
	p.scanner = NewScanner(filename, src, p.lexError)
	p.next()
	return p
}

// Parse parses src and returns the file and every lexical or syntax error.
func Parse(filename string, src io.Reader) (*File, []error) {
	var errs []error
	p := NewParser(filename, src, func(err error) { errs = append(errs, err) })
	return p.Parse(), errs
}

// ParseType parses a single type expression such as Option<[string]>.
func ParseType(src string) (Type, error) {
	var first error
	p := NewParser("", strings.NewReader(src), func(err error) {
		if first == nil {
			first = err
		}
	})
	t := p.type_()
	if first == nil && p.tok != _EOF && p.tok != _Semi {
		first = fmt.Errorf("unexpected %s after type", p.tok)
	}
	return t, first
}

// SetASIEnabled passes the ASI setting to the underlying scanner.
func (p *Parser) SetASIEnabled(enabled bool) {
	p.scanner.SetASIEnabled(enabled)
}

func (p *Parser) lexError(e *LexError) {
	p.lexErrorCount++
	p.report(e, e.Span.Start)
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token, skipping error tokens the scanner
// already reported.
func (p *Parser) next() {
	if p.end.IsValid() {
		p.prevEnd = p.end
	}
	for {
		p.scanner.Next()
		p.tok = p.scanner.Token()
		if p.tok != _Error {
			break
		}
	}
	p.lit = p.scanner.Literal()
	p.kind = p.scanner.LitKind()
	p.pos = p.scanner.Pos()
	p.end = p.scanner.End()
	p.implicit = p.scanner.Implicit()
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, it reports an error and leaves the token in place.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.errorExpected(tok.String())
	}
}

// expect is like want but returns the position of the expected token.
func (p *Parser) expect(tok Token) Pos {
	pos := p.pos
	p.want(tok)
	return pos
}

// closing consumes the delimiter closing one opened at open.
func (p *Parser) closing(tok Token, open Pos) {
	if p.got(tok) {
		return
	}
	if p.tok == _EOF {
		p.errorAt(UnclosedDelimiter, MakeSpan(open, open), fmt.Sprintf("unclosed delimiter; expected %s", tok))
		return
	}
	p.errorExpected(tok.String())
}

// gotGtr consumes a '>' closing a generic list, splitting '>>' and '>='.
func (p *Parser) gotGtr() bool {
	switch p.tok {
	case _Gtr:
		p.next()
		return true
	case _Shr:
		p.tok = _Gtr
		p.pos = NewPosOffset(p.pos.filename, p.pos.line, p.pos.col+1, p.pos.offset+1)
		return true
	case _Geq:
		p.tok = _Assign
		p.pos = NewPosOffset(p.pos.filename, p.pos.line, p.pos.col+1, p.pos.offset+1)
		return true
	}
	return false
}

// skipSemis skips semicolons between items and list elements.
func (p *Parser) skipSemis() {
	for p.tok == _Semi {
		p.next()
	}
}

// ----------------------------------------------------------------------------
// Error handling

// report delivers err unless it duplicates the previous error position
// or exceeds the error budget. Syntax errors after a literal or comment
// that ran into EOF are dropped; the lexical error already covers them.
func (p *Parser) report(err error, pos Pos) {
	if p.errcnt > 0 && pos == p.lastErr {
		return
	}
	if _, isSyntax := err.(*ParseError); isSyntax && p.scanner.eofInLiteral {
		return
	}
	p.lastErr = pos
	if p.errcnt == 0 {
		p.first = err
	}
	p.errcnt++
	if p.errcnt > maxErrors {
		return
	}
	if p.errh != nil {
		p.errh(err)
	}
}

// errorAt reports a syntax error with the given kind and span.
func (p *Parser) errorAt(kind ParseErrorKind, span Span, msg string) {
	p.report(&ParseError{Kind: kind, Span: span, Msg: msg}, span.Start)
}

// syntaxError reports an unexpected-token error at the current token.
func (p *Parser) syntaxError(kind ParseErrorKind, msg string) {
	p.errorAt(kind, MakeSpan(p.pos, p.end), msg)
}

// errorExpected reports that what was expected at the current token.
func (p *Parser) errorExpected(what string) {
	p.syntaxError(ExpectedToken, fmt.Sprintf("expected %s, found %s", what, p.tokDesc()))
}

// tokDesc describes the current token for error messages.
func (p *Parser) tokDesc() string {
	switch p.tok {
	case _Name:
		return "identifier " + p.lit
	case _Literal:
		return p.kind.String() + " literal"
	case _Semi:
		if p.implicit {
			return "newline"
		}
	}
	return "'" + p.tok.String() + "'"
}

// Errors returns the number of errors encountered.
func (p *Parser) Errors() int {
	return p.errcnt
}

// FirstError returns the first error encountered, or nil if none.
func (p *Parser) FirstError() error {
	return p.first
}

// isItemStart reports whether tok can begin an item.
func isItemStart(tok Token) bool {
	switch tok {
	case _Fn, _Async, _Struct, _Enum, _Trait, _Impl, _Use, _Const, _Static, _Type, _Pub, _At, _Hash:
		return true
	}
	return false
}

// advanceItem skips to the next token that can begin an item at brace depth 0.
func (p *Parser) advanceItem() {
	depth := 0
	for p.tok != _EOF {
		switch p.tok {
		case _Lbrace:
			depth++
		case _Rbrace:
			depth--
			if depth <= 0 {
				p.next()
				return
			}
		default:
			if depth == 0 && isItemStart(p.tok) {
				return
			}
		}
		p.next()
	}
}

// advanceStmt skips to the end of the current statement: past the next
// ';' or up to (not past) the '}' closing the enclosing block.
func (p *Parser) advanceStmt() {
	depth := 0
	for p.tok != _EOF {
		switch p.tok {
		case _Lbrace:
			depth++
		case _Rbrace:
			if depth == 0 {
				return
			}
			depth--
		case _Semi:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// ----------------------------------------------------------------------------
// Parsing entry point

// Parse parses a complete source file and returns the AST.
func (p *Parser) Parse() *File {
	f := &File{Filename: p.scanner.filename}
	f.pos = p.pos

	for p.tok != _EOF {
		p.skipSemis()
		if p.tok == _EOF {
			break
		}
		start := p.pos
		f.Items = append(f.Items, p.items()...)
		if p.pos == start && p.tok != _EOF {
			p.next() // guarantee progress
		}
	}

	f.end = p.pos
	return f
}

// ----------------------------------------------------------------------------
// Helper methods

// name parses an identifier and returns a Name node.
func (p *Parser) name() *Name {
	if p.tok != _Name {
		p.errorExpected("identifier")
		return NewName(p.pos, "_")
	}
	n := NewName(p.pos, p.lit)
	n.end = p.end
	p.next()
	return n
}

// finish records the end of n as the end of the last consumed token.
func (p *Parser) finish(n interface{ setEnd(Pos) }) {
	n.setEnd(p.prevEnd)
}

func (n *node) setEnd(end Pos) { n.end = end }

// isUpper reports whether s starts with an upper-case letter.
func isUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// source returns the raw text between two offsets in the scanned file.
func (p *Parser) source(from, to Pos) string {
	buf := p.scanner.buf
	a := int(from.offset - p.scanner.base)
	b := int(to.offset - p.scanner.base)
	if a < 0 || b > len(buf) || a > b {
		return ""
	}
	return strings.TrimSpace(string(buf[a:b]))
}

// ----------------------------------------------------------------------------
// Items

// items parses one item; a grouped use produces several.
func (p *Parser) items() []Decl {
	attrs := p.attributes()
	pub := p.got(_Pub)

	switch p.tok {
	case _Fn, _Async:
		return []Decl{p.funcDecl(attrs, pub, true)}
	case _Struct:
		return []Decl{p.structDecl(attrs, pub)}
	case _Enum:
		return []Decl{p.enumDecl(attrs, pub)}
	case _Trait:
		return []Decl{p.traitDecl(attrs, pub)}
	case _Impl:
		return []Decl{p.implDecl(attrs)}
	case _Use:
		return p.useDecls(pub)
	case _Const, _Static:
		return []Decl{p.constDecl(attrs, pub)}
	case _Type:
		return []Decl{p.typeAliasDecl(pub)}
	}

	d := &BadDecl{}
	d.pos = p.pos
	p.syntaxError(ExpectedItem, fmt.Sprintf("expected item (fn, struct, enum, trait, impl, use, const, type), found %s", p.tokDesc()))
	p.advanceItem()
	p.finish(d)
	return []Decl{d}
}

// attributes parses @name(args) decorators and #[name(args)] attributes.
func (p *Parser) attributes() []*Attribute {
	var attrs []*Attribute
	for p.tok == _At || p.tok == _Hash {
		a := &Attribute{}
		a.pos = p.pos
		hash := p.tok == _Hash
		p.next()
		if hash {
			a.Hash = true
			p.want(_Lbrack)
		}
		a.Name = p.attrName()
		if p.tok == _Lparen {
			a.Args = p.attrArgs()
		}
		if hash {
			p.want(_Rbrack)
		}
		p.finish(a)
		attrs = append(attrs, a)
		p.skipSemis()
	}
	return attrs
}

// attrName parses a possibly qualified attribute name.
func (p *Parser) attrName() string {
	name := p.name().Value
	for p.tok == _ColonColon {
		p.next()
		name += "::" + p.name().Value
	}
	return name
}

// attrArgs returns the raw text of each comma-separated argument.
func (p *Parser) attrArgs() []string {
	open := p.pos
	p.next() // (
	var args []string
	depth := 0
	start := p.pos
	for p.tok != _EOF {
		switch p.tok {
		case _Lparen, _Lbrack, _Lbrace:
			depth++
		case _Rparen, _Rbrack, _Rbrace:
			if depth == 0 {
				if arg := p.source(start, p.pos); arg != "" {
					args = append(args, arg)
				}
				p.closing(_Rparen, open)
				return args
			}
			depth--
		case _Comma:
			if depth == 0 {
				args = append(args, p.source(start, p.pos))
				p.next()
				start = p.pos
				continue
			}
		}
		p.next()
	}
	p.closing(_Rparen, open)
	return args
}

// funcDecl parses [async] fn name<G>(params) [-> T] [where ...] (body | ;).
// needBody is false for trait methods, which may omit the body.
func (p *Parser) funcDecl(attrs []*Attribute, pub, needBody bool) *FuncDecl {
	d := &FuncDecl{Attrs: attrs, Pub: pub}
	d.pos = p.pos
	if len(attrs) > 0 {
		d.pos = attrs[0].pos
	}

	d.Async = p.got(_Async)
	p.want(_Fn)
	d.Name = p.name()
	d.Generics = p.genericParams()
	d.Params = p.params()

	if p.got(_Arrow) {
		d.Result = p.type_()
	}
	d.Where = p.whereClause()

	if p.tok == _Lbrace {
		d.Body = p.blockStmt()
	} else if needBody {
		p.errorExpected("function body")
	} else {
		p.skipSemis()
	}

	p.finish(d)
	return d
}

// genericParams parses an optional <T, U: Bound + Bound> list.
func (p *Parser) genericParams() []*GenericParam {
	if p.tok != _Lss {
		return nil
	}
	p.next()
	var list []*GenericParam
	for p.tok != _Gtr && p.tok != _EOF {
		g := &GenericParam{}
		g.pos = p.pos
		g.Name = p.name()
		if p.got(_Colon) {
			g.Bounds = p.bounds()
		}
		p.finish(g)
		list = append(list, g)
		if !p.got(_Comma) {
			break
		}
	}
	if !p.gotGtr() {
		p.errorExpected("'>'")
	}
	return list
}

// bounds parses Trait + Trait.
func (p *Parser) bounds() []Type {
	var list []Type
	for {
		list = append(list, p.type_())
		if !p.got(_Add) {
			return list
		}
	}
}

// whereClause parses an optional where T: A + B, U: C.
func (p *Parser) whereClause() []*WherePred {
	if !p.got(_Where) {
		return nil
	}
	var preds []*WherePred
	for p.tok != _Lbrace && p.tok != _Semi && p.tok != _EOF {
		w := &WherePred{}
		w.pos = p.pos
		w.Type = p.type_()
		p.want(_Colon)
		w.Bounds = p.bounds()
		p.finish(w)
		preds = append(preds, w)
		if !p.got(_Comma) {
			break
		}
	}
	return preds
}

// params parses a parenthesized parameter list.
func (p *Parser) params() []*Param {
	open := p.expect(_Lparen)
	var list []*Param
	for p.tok != _Rparen && p.tok != _EOF {
		list = append(list, p.param(true))
		if !p.got(_Comma) {
			break
		}
	}
	p.closing(_Rparen, open)
	return list
}

// param parses self, &self, &mut self, mut self, or [mut] name [: Type].
func (p *Parser) param(allowSelf bool) *Param {
	prm := &Param{}
	prm.pos = p.pos

	switch p.tok {
	case _And:
		p.next()
		prm.Mode = ModeRef
		if p.got(_Mut) {
			prm.Mode = ModeMutRef
		}
	case _Mut:
		p.next()
		prm.Mode = ModeMut
	}

	if p.tok == _Self {
		if !allowSelf {
			p.syntaxError(UnexpectedToken, "self is only allowed as a method receiver")
		}
		prm.IsSelf = true
		prm.Name = NewName(p.pos, "self")
		prm.Name.end = p.end
		p.next()
	} else {
		if prm.Mode == ModeRef || prm.Mode == ModeMutRef {
			p.syntaxError(UnexpectedToken, "reference modifiers belong on the parameter type")
		}
		prm.Name = p.name()
	}

	if p.got(_Colon) {
		prm.Type = p.type_()
	}
	p.finish(prm)
	return prm
}

// fieldDecls parses { [pub] name: Type, ... }; ',' and newlines separate fields.
func (p *Parser) fieldDecls() []*FieldDecl {
	open := p.expect(_Lbrace)
	var fields []*FieldDecl
	for {
		p.skipSemis()
		if p.tok == _Rbrace || p.tok == _EOF {
			break
		}
		f := &FieldDecl{}
		f.pos = p.pos
		f.Pub = p.got(_Pub)
		f.Name = p.name()
		p.want(_Colon)
		f.Type = p.type_()
		p.finish(f)
		fields = append(fields, f)
		if !p.got(_Comma) && p.tok != _Semi && p.tok != _Rbrace {
			p.errorExpected("',' or '}'")
			p.advanceStmt()
		}
	}
	p.closing(_Rbrace, open)
	return fields
}

// structDecl parses struct Name<G> { fields } or struct Name;
func (p *Parser) structDecl(attrs []*Attribute, pub bool) *StructDecl {
	d := &StructDecl{Attrs: attrs, Pub: pub}
	d.pos = p.pos
	p.want(_Struct)
	d.Name = p.name()
	d.Generics = p.genericParams()
	if p.tok == _Lbrace {
		d.Fields = p.fieldDecls()
	}
	p.finish(d)
	return d
}

// enumDecl parses enum Name<G> { Variant, Variant(T), Variant { f: T } }.
func (p *Parser) enumDecl(attrs []*Attribute, pub bool) *EnumDecl {
	d := &EnumDecl{Attrs: attrs, Pub: pub}
	d.pos = p.pos
	p.want(_Enum)
	d.Name = p.name()
	d.Generics = p.genericParams()

	open := p.expect(_Lbrace)
	for {
		p.skipSemis()
		if p.tok == _Rbrace || p.tok == _EOF {
			break
		}
		v := &Variant{}
		v.pos = p.pos
		v.Name = p.name()
		switch p.tok {
		case _Lparen:
			popen := p.pos
			p.next()
			for p.tok != _Rparen && p.tok != _EOF {
				v.Tuple = append(v.Tuple, p.type_())
				if !p.got(_Comma) {
					break
				}
			}
			p.closing(_Rparen, popen)
		case _Lbrace:
			v.Fields = p.fieldDecls()
		}
		p.finish(v)
		d.Variants = append(d.Variants, v)
		if !p.got(_Comma) && p.tok != _Semi && p.tok != _Rbrace {
			p.errorExpected("',' or '}'")
			p.advanceStmt()
		}
	}
	p.closing(_Rbrace, open)
	p.finish(d)
	return d
}

// methods parses { fn ... } bodies of traits and impls.
func (p *Parser) methods(needBody bool) []*FuncDecl {
	open := p.expect(_Lbrace)
	var list []*FuncDecl
	for {
		p.skipSemis()
		if p.tok == _Rbrace || p.tok == _EOF {
			break
		}
		attrs := p.attributes()
		pub := p.got(_Pub)
		if p.tok != _Fn && p.tok != _Async {
			p.syntaxError(ExpectedItem, fmt.Sprintf("expected fn, found %s", p.tokDesc()))
			p.advanceStmt()
			if p.tok == _Rbrace {
				break
			}
			continue
		}
		list = append(list, p.funcDecl(attrs, pub, needBody))
	}
	p.closing(_Rbrace, open)
	return list
}

// traitDecl parses trait Name<G> { fn sig; fn with_default() { ... } }.
func (p *Parser) traitDecl(attrs []*Attribute, pub bool) *TraitDecl {
	d := &TraitDecl{Attrs: attrs, Pub: pub}
	d.pos = p.pos
	p.want(_Trait)
	d.Name = p.name()
	d.Generics = p.genericParams()
	d.Methods = p.methods(false)
	p.finish(d)
	return d
}

// implDecl parses impl<G> [Trait for] Type { methods }.
func (p *Parser) implDecl(attrs []*Attribute) *ImplDecl {
	d := &ImplDecl{Attrs: attrs}
	d.pos = p.pos
	p.want(_Impl)
	d.Generics = p.genericParams()
	t := p.type_()
	if p.got(_For) {
		d.Trait = t
		t = p.type_()
	}
	d.Type = t
	p.whereClause()
	d.Methods = p.methods(true)
	p.finish(d)
	return d
}

// useDecls parses use a::b [as c], use a.b.c and use a::{b, c as d}.
func (p *Parser) useDecls(pub bool) []Decl {
	pos := p.pos
	p.want(_Use)

	var prefix []*Name
	for {
		if p.tok == _Lbrace {
			return p.useGroup(pos, pub, prefix)
		}
		seg := p.useSegment()
		prefix = append(prefix, seg)
		if p.tok != _ColonColon && p.tok != _Dot {
			break
		}
		p.next()
	}

	d := &UseDecl{Pub: pub, Path: prefix}
	d.pos = pos
	if p.got(_As) {
		d.Alias = p.name()
	}
	p.finish(d)
	return []Decl{d}
}

// useSegment parses one path segment; self and * are accepted as names.
func (p *Parser) useSegment() *Name {
	switch p.tok {
	case _Self:
		n := NewName(p.pos, "self")
		p.next()
		return n
	case _Mul:
		n := NewName(p.pos, "*")
		p.next()
		return n
	}
	return p.name()
}

func (p *Parser) useGroup(pos Pos, pub bool, prefix []*Name) []Decl {
	open := p.pos
	p.next() // {
	var list []Decl
	for p.tok != _Rbrace && p.tok != _EOF {
		d := &UseDecl{Pub: pub}
		d.pos = pos
		d.Path = append(append([]*Name(nil), prefix...), p.useSegment())
		for p.got(_ColonColon) {
			d.Path = append(d.Path, p.useSegment())
		}
		if p.got(_As) {
			d.Alias = p.name()
		}
		p.finish(d)
		list = append(list, d)
		if !p.got(_Comma) {
			break
		}
	}
	p.closing(_Rbrace, open)
	return list
}

// constDecl parses const NAME [: T] = v and static [mut] NAME [: T] = v.
func (p *Parser) constDecl(attrs []*Attribute, pub bool) *ConstDecl {
	d := &ConstDecl{Attrs: attrs, Pub: pub}
	d.pos = p.pos
	d.Static = p.tok == _Static
	p.next()
	if d.Static {
		d.Mut = p.got(_Mut)
	}
	d.Name = p.name()
	if p.got(_Colon) {
		d.Type = p.type_()
	}
	p.want(_Assign)
	d.Value = p.expr()
	p.finish(d)
	return d
}

// typeAliasDecl parses type Name<G> = Type.
func (p *Parser) typeAliasDecl(pub bool) *TypeAliasDecl {
	d := &TypeAliasDecl{Pub: pub}
	d.pos = p.pos
	p.want(_Type)
	d.Name = p.name()
	d.Generics = p.genericParams()
	p.want(_Assign)
	d.Type = p.type_()
	p.finish(d)
	return d
}
