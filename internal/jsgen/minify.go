package jsgen

import (
	"strconv"
	"strings"
)

// MinifyOptions selects the transformations applied by Minify. The zero
// value leaves the code unchanged.
type MinifyOptions struct {
	RemoveWhitespace    bool
	MangleNames         bool // rename function-local bindings
	RemoveComments      bool
	Compress            bool // shorter spellings of literals and statement ends
	ConstantFolding     bool
	DeadCodeElimination bool
}

// DefaultMinifyOptions enables every transformation.
func DefaultMinifyOptions() MinifyOptions {
	return MinifyOptions{
		RemoveWhitespace:    true,
		MangleNames:         true,
		RemoveComments:      true,
		Compress:            true,
		ConstantFolding:     true,
		DeadCodeElimination: true,
	}
}

// Minify rewrites JavaScript source. It works on tokens and expects
// statements to end with explicit semicolons; regular expression
// literals are not recognized.
func Minify(code string, opts MinifyOptions) string {
	toks := lexJS(code)
	if opts.RemoveComments {
		toks = filterTokens(toks, func(t jsToken) bool { return t.kind != tokComment })
	}
	if opts.ConstantFolding {
		toks = foldConstants(toks)
	}
	if opts.DeadCodeElimination {
		toks = dropDeadBranches(toks)
	}
	if opts.MangleNames {
		toks = mangle(toks)
	}
	if opts.Compress {
		toks = compress(toks)
	}
	if !opts.RemoveWhitespace {
		var b strings.Builder
		for _, t := range toks {
			b.WriteString(t.text)
		}
		return b.String()
	}
	return joinTokens(toks)
}

type jsTokenKind uint8

const (
	tokSpace jsTokenKind = iota
	tokComment
	tokIdent
	tokNumber
	tokString
	tokTemplate // a template literal piece, including its delimiters
	tokPunct
)

type jsToken struct {
	kind jsTokenKind
	text string
	nl   bool // whitespace containing a newline
}

// lexJS splits code into tokens. Template literal substitutions are
// tokenized as code so that names inside them are visible.
func lexJS(code string) []jsToken {
	var out []jsToken
	var stack []int // brace depth at each open template substitution
	depth := 0
	i := 0
	template := func(start int) int {
		// Scan a template piece starting at start, which is just past ` or }.
		j := start
		for j < len(code) {
			switch code[j] {
			case '\\':
				j += 2
				continue
			case '`':
				return j + 1
			case '$':
				if j+1 < len(code) && code[j+1] == '{' {
					stack = append(stack, depth)
					return j + 2
				}
			}
			j++
		}
		return len(code)
	}
	for i < len(code) {
		c := code[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			j := i
			for j < len(code) && strings.IndexByte(" \t\n\r", code[j]) >= 0 {
				j++
			}
			out = append(out, jsToken{kind: tokSpace, text: code[i:j], nl: strings.ContainsRune(code[i:j], '\n')})
			i = j
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			j := strings.IndexByte(code[i:], '\n')
			if j < 0 {
				j = len(code) - i
			}
			out = append(out, jsToken{kind: tokComment, text: code[i : i+j]})
			i += j
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			j := strings.Index(code[i+2:], "*/")
			end := len(code)
			if j >= 0 {
				end = i + 2 + j + 2
			}
			out = append(out, jsToken{kind: tokComment, text: code[i:end]})
			i = end
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(code) && code[j] != c {
				if code[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(code) {
				j++
			}
			out = append(out, jsToken{kind: tokString, text: code[i:min(j, len(code))]})
			i = min(j, len(code))
		case c == '`':
			j := template(i + 1)
			out = append(out, jsToken{kind: tokTemplate, text: code[i:j]})
			i = j
		case c == '}' && len(stack) > 0 && stack[len(stack)-1] == depth:
			stack = stack[:len(stack)-1]
			j := template(i + 1)
			out = append(out, jsToken{kind: tokTemplate, text: code[i:j]})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(code) && isIdentPart(code[j]) {
				j++
			}
			out = append(out, jsToken{kind: tokIdent, text: code[i:j]})
			i = j
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(code) && code[i+1] >= '0' && code[i+1] <= '9':
			j := i + 1
			for j < len(code) && (isIdentPart(code[j]) || code[j] == '.' ||
				(code[j] == '+' || code[j] == '-') && (code[j-1] == 'e' || code[j-1] == 'E')) {
				j++
			}
			out = append(out, jsToken{kind: tokNumber, text: code[i:j]})
			i = j
		default:
			n := punctLen(code[i:])
			switch c {
			case '{':
				depth++
			case '}':
				depth--
			}
			out = append(out, jsToken{kind: tokPunct, text: code[i : i+n]})
			i += n
		}
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

var puncts = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--", "+=", "-=",
	"*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
}

func punctLen(s string) int {
	for _, p := range puncts {
		if strings.HasPrefix(s, p) {
			return len(p)
		}
	}
	return 1
}

func filterTokens(toks []jsToken, keep func(jsToken) bool) []jsToken {
	out := toks[:0:0]
	for _, t := range toks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// significant returns the tokens that are neither space nor comments.
func significant(toks []jsToken) []jsToken {
	return filterTokens(toks, func(t jsToken) bool { return t.kind != tokSpace && t.kind != tokComment })
}

// joinTokens concatenates tokens, keeping a space only where two tokens
// would otherwise merge.
func joinTokens(toks []jsToken) string {
	var b strings.Builder
	var prev jsToken
	have := false
	for _, t := range toks {
		if t.kind == tokSpace {
			continue
		}
		if t.kind == tokComment {
			if have && prev.kind != tokPunct {
				b.WriteByte(' ')
			}
			b.WriteString(t.text)
			if strings.HasPrefix(t.text, "//") {
				b.WriteByte('\n')
				have = false
				continue
			}
			prev, have = t, true
			continue
		}
		if have && needSpace(prev, t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.text)
		prev, have = t, true
	}
	return b.String()
}

func needSpace(a, b jsToken) bool {
	word := func(t jsToken) bool { return t.kind == tokIdent || t.kind == tokNumber }
	if word(a) && word(b) {
		return true
	}
	if a.kind == tokNumber && b.text == "." {
		return true
	}
	if a.kind == tokPunct && b.kind == tokPunct {
		x, y := a.text[len(a.text)-1], b.text[0]
		return (x == '+' || x == '-') && x == y || x == '/' && (y == '/' || y == '*')
	}
	return false
}

// ----------------------------------------------------------------------------
// Constant folding

// foldConstants evaluates numeric and boolean operations whose operands
// are literals and whose neighbors cannot regroup them.
func foldConstants(toks []jsToken) []jsToken {
	for {
		out, changed := foldOnce(toks)
		if !changed {
			return toks
		}
		toks = out
	}
}

// positions returns the indexes of the significant tokens of toks.
func positions(toks []jsToken) []int {
	var idx []int
	for i, t := range toks {
		if t.kind != tokSpace && t.kind != tokComment {
			idx = append(idx, i)
		}
	}
	return idx
}

func foldOnce(toks []jsToken) ([]jsToken, bool) {
	idx := positions(toks)
	at := func(k int) *jsToken {
		if k < 0 || k >= len(idx) {
			return nil
		}
		return &toks[idx[k]]
	}
	prevOK := func(k int) bool {
		p := at(k)
		if p == nil {
			return true
		}
		if p.kind == tokIdent && p.text == "return" {
			return true
		}
		if p.kind != tokPunct {
			return false
		}
		switch p.text {
		case "(", ",", "=", ";", "[", "{", ":", "?", "=>":
			return true
		}
		return false
	}
	nextOK := func(k int) bool {
		n := at(k)
		if n == nil {
			return true
		}
		if n.kind != tokPunct {
			return false
		}
		switch n.text {
		case ")", "]", "}", ";", ",", ":", "?":
			return true
		}
		return false
	}
	for k := range idx {
		t := *at(k)
		if t.kind == tokPunct && t.text == "!" {
			if x := at(k + 1); x != nil && x.kind == tokIdent && (x.text == "true" || x.text == "false") && prevOK(k-1) && nextOK(k+2) {
				v := "true"
				if x.text == "true" {
					v = "false"
				}
				return splice(toks, idx[k], idx[k+1]+1, jsToken{kind: tokIdent, text: v}), true
			}
		}
		if k+2 >= len(idx) || !prevOK(k-1) || !nextOK(k+3) {
			continue
		}
		a, op, b := *at(k), *at(k + 1), *at(k + 2)
		if op.kind != tokPunct {
			continue
		}
		if v, ok := foldNumbers(a, op.text, b); ok {
			return splice(toks, idx[k], idx[k+2]+1, v), true
		}
		if v, ok := foldBools(a, op.text, b); ok {
			return splice(toks, idx[k], idx[k+2]+1, v), true
		}
	}
	return toks, false
}

func splice(toks []jsToken, i, j int, t jsToken) []jsToken {
	out := make([]jsToken, 0, len(toks)-(j-i)+1)
	out = append(out, toks[:i]...)
	out = append(out, t)
	return append(out, toks[j:]...)
}

func foldNumbers(a jsToken, op string, b jsToken) (jsToken, bool) {
	if a.kind != tokNumber || b.kind != tokNumber {
		return jsToken{}, false
	}
	x, err1 := strconv.ParseInt(a.text, 10, 64)
	y, err2 := strconv.ParseInt(b.text, 10, 64)
	if err1 != nil || err2 != nil {
		return jsToken{}, false
	}
	const limit = 1 << 53 // exact in a double
	var v int64
	switch op {
	case "+":
		v = x + y
	case "-":
		v = x - y
	case "*":
		v = x * y
	case "%":
		if y == 0 {
			return jsToken{}, false
		}
		v = x % y
	default:
		return jsToken{}, false
	}
	if v < 0 || v > limit || x > limit || y > limit {
		return jsToken{}, false
	}
	return jsToken{kind: tokNumber, text: strconv.FormatInt(v, 10)}, true
}

func foldBools(a jsToken, op string, b jsToken) (jsToken, bool) {
	isBool := func(t jsToken) bool { return t.kind == tokIdent && (t.text == "true" || t.text == "false") }
	if !isBool(a) || !isBool(b) {
		return jsToken{}, false
	}
	x, y := a.text == "true", b.text == "true"
	var v bool
	switch op {
	case "&&":
		v = x && y
	case "||":
		v = x || y
	case "===", "==":
		v = x == y
	case "!==", "!=":
		v = x != y
	default:
		return jsToken{}, false
	}
	return jsToken{kind: tokIdent, text: strconv.FormatBool(v)}, true
}

// ----------------------------------------------------------------------------
// Dead code

// dropDeadBranches removes if (false) and while (false) statements and
// unwraps if (true) blocks that have no else.
func dropDeadBranches(toks []jsToken) []jsToken {
	for {
		out, changed := dropOnce(toks)
		if !changed {
			return toks
		}
		toks = out
	}
}

func dropOnce(toks []jsToken) ([]jsToken, bool) {
	idx := positions(toks)
	text := func(k int) string {
		if k < 0 || k >= len(idx) {
			return ""
		}
		return toks[idx[k]].text
	}
	for k := 0; k+4 < len(idx); k++ {
		kw := text(k)
		if kw != "if" && kw != "while" || toks[idx[k]].kind != tokIdent || text(k-1) == "else" {
			continue
		}
		if text(k+1) != "(" || text(k+3) != ")" || text(k+4) != "{" {
			continue
		}
		cond := text(k + 2)
		if cond != "false" && !(cond == "true" && kw == "if") {
			continue
		}
		end := matchBrace(toks, idx, k+4)
		if end < 0 || text(end+1) == "else" {
			continue
		}
		out := append([]jsToken(nil), toks[:idx[k]]...)
		if cond == "true" {
			out = append(out, toks[idx[k+4]+1:idx[end]]...)
		}
		out = append(out, toks[idx[end]+1:]...)
		return out, true
	}
	return toks, false
}

// matchBrace returns the position in idx of the brace closing the one
// at position open.
func matchBrace(toks []jsToken, idx []int, open int) int {
	depth := 0
	for k := open; k < len(idx); k++ {
		t := toks[idx[k]]
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// ----------------------------------------------------------------------------
// Name mangling

// mangle renames let, const and var bindings declared inside functions. A name is renamed
// everywhere or nowhere: names used as properties, methods, top-level
// declarations, imports or exports keep their spelling.
func mangle(toks []jsToken) []jsToken {
	sig := significant(toks)
	used := make(map[string]bool)
	keep := make(map[string]bool)
	cands := make(map[string]bool)
	var order []string
	depth := 0
	inImport := false
	for i, t := range sig {
		switch t.kind {
		case tokPunct:
			switch t.text {
			case "{":
				depth++
			case "}":
				depth--
			case ";":
				inImport = false
			}
			continue
		case tokIdent:
		default:
			continue
		}
		used[t.text] = true
		prev := tokenAt(sig, i-1)
		next := tokenAt(sig, i+1)
		switch {
		case t.text == "import", t.text == "export" && next.text == "{":
			inImport = true
		case prev.text == "." || prev.text == "?.":
			keep[t.text] = true
		case next.text == "(" && (prev.text == "{" || prev.text == "}" || prev.text == "static" || prev.text == "async" || prev.text == ","):
			keep[t.text] = true // method definition or shorthand
		case next.text == ":" && (prev.text == "{" || prev.text == ","):
			keep[t.text] = true // object key
		case prev.text == "export" || prev.text == "function" && depth == 0 || prev.text == "class":
			keep[t.text] = true
		case depth == 0 && (prev.text == "const" || prev.text == "let" || prev.text == "var"):
			keep[t.text] = true
		case inImport:
			keep[t.text] = true
			if t.text == "from" {
				inImport = false
			}
		case prev.text == "const" || prev.text == "let" || prev.text == "var":
			if !cands[t.text] {
				cands[t.text] = true
				order = append(order, t.text)
			}
		}
	}
	renames := make(map[string]string)
	n := 0
	for _, name := range order {
		if keep[name] || len(name) <= 1 {
			continue
		}
		var short string
		for {
			short = shortName(n)
			n++
			if !used[short] && !keep[short] && !jsReserved[short] && !jsKeywords[short] {
				break
			}
		}
		renames[name] = short
	}
	if len(renames) == 0 {
		return toks
	}
	out := make([]jsToken, len(toks))
	copy(out, toks)
	var prev jsToken
	for i, t := range out {
		if t.kind == tokSpace || t.kind == tokComment {
			continue
		}
		if t.kind == tokIdent && prev.text != "." && prev.text != "?." {
			if r, ok := renames[t.text]; ok {
				out[i].text = r
			}
		}
		prev = t
	}
	return out
}

func tokenAt(toks []jsToken, i int) jsToken {
	if i < 0 || i >= len(toks) {
		return jsToken{}
	}
	return toks[i]
}

// jsKeywords are words that may not be used as binding names.
var jsKeywords = map[string]bool{
	"do": true, "if": true, "in": true, "for": true, "let": true, "new": true,
	"try": true, "var": true, "case": true, "else": true, "enum": true,
	"this": true, "void": true, "with": true, "break": true, "await": true,
	"const": true, "while": true, "async": true, "of": true, "as": true,
}

// shortName returns the identifier with index i: a..z, A..Z, _, $, then
// two characters and so on.
func shortName(i int) string {
	const first = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_$"
	const rest = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_$"
	b := []byte{first[i%len(first)]}
	i /= len(first)
	for i > 0 {
		i--
		b = append(b, rest[i%len(rest)])
		i /= len(rest)
	}
	return string(b)
}

// ----------------------------------------------------------------------------
// Compression

// compress shortens literals and drops semicolons before closing braces.
func compress(toks []jsToken) []jsToken {
	out := make([]jsToken, 0, len(toks))
	var prev jsToken
	for i, t := range toks {
		if t.kind == tokIdent && prev.text != "." && prev.text != "?." {
			switch t.text {
			case "true":
				t = jsToken{kind: tokPunct, text: "!0"}
			case "false":
				t = jsToken{kind: tokPunct, text: "!1"}
			case "undefined":
				t = jsToken{kind: tokIdent, text: "void 0"}
			}
		}
		if t.kind == tokPunct && t.text == ";" {
			if next := nextSignificant(toks, i+1); next.text == "}" {
				continue
			}
		}
		out = append(out, t)
		if t.kind != tokSpace && t.kind != tokComment {
			prev = t
		}
	}
	return out
}

func nextSignificant(toks []jsToken, i int) jsToken {
	for ; i < len(toks); i++ {
		if toks[i].kind != tokSpace && toks[i].kind != tokComment {
			return toks[i]
		}
	}
	return jsToken{}
}
