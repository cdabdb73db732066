package jsgen

import (
	"strings"
)

// Differential returns the modern bundle, the legacy bundle and the HTML
// snippet that loads the right one for the browser.
func Differential(code, name string) []File {
	modern := "// Windjammer Modern Bundle (ES2015+)\n" +
		"// Chrome 60+, Firefox 60+, Safari 12+, Edge 79+\n\n" + code
	legacy := "// Windjammer Legacy Bundle (ES5)\n" +
		"// IE 11+, older browsers\n\n" +
		Polyfills(PolyfillConfig{Target: ES5, Promise: true, ArrayMethods: true, ObjectMethods: true, Symbol: true}) +
		"\n" + Legacy(code)
	return []File{
		{Name: name + ".modern.js", Content: modern},
		{Name: name + ".legacy.js", Content: legacy},
		{Name: name + ".html", Content: htmlLoader(name)},
	}
}

func htmlLoader(name string) string {
	return `<!-- Windjammer Differential Loading -->
<script type="module" src="./` + name + `.modern.js"></script>
<script nomodule src="./` + name + `.legacy.js"></script>
`
}

// Legacy lowers the ES2015 constructs the generator emits most: const
// and let become var, arrow functions become function expressions and
// template literals become concatenations. Classes, async functions and
// for-of loops are left as written.
func Legacy(code string) string {
	toks := lexJS(code)
	toks = lowerArrows(toks)
	var b strings.Builder
	for _, t := range toks {
		switch {
		case t.kind == tokIdent && (t.text == "const" || t.text == "let"):
			b.WriteString("var")
		case t.kind == tokTemplate:
			b.WriteString(lowerTemplate(t.text))
		default:
			b.WriteString(t.text)
		}
	}
	return b.String()
}

// lowerArrows rewrites every arrow function of toks, innermost last.
func lowerArrows(toks []jsToken) []jsToken {
	for {
		out, ok := lowerArrow(toks)
		if !ok {
			return toks
		}
		toks = out
	}
}

// lowerArrow rewrites the first arrow function of toks.
func lowerArrow(toks []jsToken) ([]jsToken, bool) {
	idx := positions(toks)
	for k, i := range idx {
		if toks[i].kind != tokPunct || toks[i].text != "=>" || k == 0 {
			continue
		}
		// Parameters: a name or a parenthesized list.
		start := k - 1
		var params string
		switch prev := toks[idx[k-1]]; {
		case prev.kind == tokIdent:
			params = prev.text
		case prev.text == ")":
			open := matchParen(toks, idx, k-1)
			if open < 0 {
				continue
			}
			start = open
			var p strings.Builder
			for _, j := range idx[open+1 : k-1] {
				p.WriteString(toks[j].text)
				if toks[j].text == "," {
					p.WriteByte(' ')
				}
			}
			params = p.String()
		default:
			continue
		}
		head := []jsToken{{kind: tokIdent, text: "function"}, {kind: tokPunct, text: "(" + params + ")"}, {kind: tokSpace, text: " "}}

		if k+1 >= len(idx) {
			continue
		}
		bodyStart := k + 1
		var body []jsToken
		var end int // index into idx of the last body token
		if toks[idx[bodyStart]].text == "{" {
			end = matchBrace(toks, idx, bodyStart)
			if end < 0 {
				continue
			}
			body = toks[idx[bodyStart] : idx[end]+1]
		} else {
			end = exprEnd(toks, idx, bodyStart)
			if end < bodyStart {
				continue
			}
			inner := toks[idx[bodyStart] : idx[end]+1]
			body = append([]jsToken{{kind: tokPunct, text: "{"}, {kind: tokSpace, text: " "}, {kind: tokIdent, text: "return"}, {kind: tokSpace, text: " "}}, inner...)
			body = append(body, jsToken{kind: tokPunct, text: ";"}, jsToken{kind: tokSpace, text: " "}, jsToken{kind: tokPunct, text: "}"})
		}
		repl := append(head, body...)
		if usesThis(body) {
			repl = append(repl, jsToken{kind: tokPunct, text: "."}, jsToken{kind: tokIdent, text: "bind"}, jsToken{kind: tokPunct, text: "(this)"})
		}
		// A leading async keeps its place: async function(...) {...}.
		out := make([]jsToken, 0, len(toks)+len(repl))
		out = append(out, toks[:idx[start]]...)
		out = append(out, repl...)
		out = append(out, toks[idx[end]+1:]...)
		return out, true
	}
	return toks, false
}

// matchParen returns the position in idx of the ( matching the ) at
// close, or -1.
func matchParen(toks []jsToken, idx []int, close int) int {
	depth := 0
	for k := close; k >= 0; k-- {
		switch toks[idx[k]].text {
		case ")":
			depth++
		case "(":
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// exprEnd returns the position in idx of the last token of the
// expression starting at start: the token before the first unbalanced
// closer, comma or semicolon.
func exprEnd(toks []jsToken, idx []int, start int) int {
	depth := 0
	for k := start; k < len(idx); k++ {
		t := toks[idx[k]]
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth == 0 {
				return k - 1
			}
			depth--
		case ",", ";":
			if depth == 0 {
				return k - 1
			}
		}
	}
	return len(idx) - 1
}

func usesThis(toks []jsToken) bool {
	for _, t := range toks {
		if t.kind == tokIdent && t.text == "this" {
			return true
		}
	}
	return false
}

// lowerTemplate rewrites one template piece as part of a string
// concatenation. A whole template becomes a string literal; pieces
// around a substitution open or close the parenthesized sum.
func lowerTemplate(piece string) string {
	open := strings.HasPrefix(piece, "`")
	closed := strings.HasSuffix(piece, "`") && len(piece) > 1
	subst := strings.HasSuffix(piece, "${")
	text := piece[1:]
	switch {
	case subst:
		text = text[:len(text)-2]
	case closed:
		text = text[:len(text)-1]
	}
	lit := `"` + templateText(text) + `"`
	switch {
	case open && !subst:
		return lit
	case open:
		return "(" + lit + " + ("
	case subst:
		return ") + " + lit + " + ("
	}
	return ") + " + lit + ")"
}

// templateText converts the raw text of a template piece to the body of
// a double-quoted string.
func templateText(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) && (s[i+1] == '`' || s[i+1] == '$') {
				b.WriteByte(s[i+1])
			} else if i+1 < len(s) {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
			}
			i++
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
