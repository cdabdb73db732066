package opt

import (
	"fmt"
	"strings"

	"github.com/windjammer-lang/wj/internal/diag"
	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// checkExhaustive reports match expressions over enums, Option, Result
// and bool that leave a case uncovered, and matches over other scalar
// types without a catch-all arm. It changes no node.
func checkExhaustive(u *Unit) int {
	info := u.Info()
	syntax.Inspect(u.File, func(n syntax.Node) {
		m, ok := n.(*syntax.MatchExpr)
		if !ok {
			return
		}
		cases, qualify := matchCases(types.Deref(info.TypeOf(m.X)))
		covered := make(map[string]bool)
		for _, arm := range m.Arms {
			if arm.Guard != nil {
				continue
			}
			if cover(arm.Pat, covered) {
				return
			}
		}
		if cases == nil {
			if scalar(types.Deref(info.TypeOf(m.X))) {
				missing(u, m, []string{"_"})
			}
			return
		}
		var out []string
		for _, c := range cases {
			if !covered[c] {
				if qualify != "" {
					c = qualify + "::" + c
				}
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			missing(u, m, out)
		}
	})
	return 0
}

func missing(u *Unit, m *syntax.MatchExpr, cases []string) {
	quoted := make([]string, len(cases))
	for i, c := range cases {
		quoted[i] = "`" + c + "`"
	}
	d := u.report(diag.NonExhaustiveMatch, m.X, "non-exhaustive patterns: %s not covered", strings.Join(quoted, ", "))
	if d == nil {
		return
	}
	if len(cases) == 1 && cases[0] == "_" {
		d.Help = "add a match arm with a wildcard pattern: `_ => ...`"
		return
	}
	d.Help = fmt.Sprintf("add a match arm for %s or a wildcard pattern `_`", strings.Join(quoted, ", "))
}

// matchCases returns the cases of a finite scrutinee type and the
// qualifier used to name them, or nil for other types.
func matchCases(t types.Type) ([]string, string) {
	if types.IsBoolean(t) {
		return []string{"true", "false"}, ""
	}
	n, ok := t.(*types.Named)
	if !ok {
		return nil, ""
	}
	switch {
	case types.IsLibrary(n, "Option"):
		return []string{"Some", "None"}, ""
	case types.IsLibrary(n, "Result"):
		return []string{"Ok", "Err"}, ""
	}
	e, ok := n.Underlying().(*types.Enum)
	if !ok {
		return nil, ""
	}
	var out []string
	for _, v := range e.Variants() {
		out = append(out, v.Name)
	}
	return out, n.Obj().Name()
}

func scalar(t types.Type) bool {
	return types.IsInteger(t) || types.IsString(t) || types.IsFloat(t)
}

// cover records the cases p covers and reports whether p matches every
// value.
func cover(p syntax.Pattern, covered map[string]bool) bool {
	switch p := p.(type) {
	case *syntax.WildcardPat:
		return true
	case *syntax.IdentPat:
		return true
	case *syntax.OrPat:
		all := false
		for _, a := range p.Alts {
			if cover(a, covered) {
				all = true
			}
		}
		return all
	case *syntax.RefPat:
		return cover(p.Pat, covered)
	case *syntax.VariantPat:
		for _, e := range p.Elems {
			if !irrefutable(e) {
				return false
			}
		}
		for _, f := range p.Fields {
			if f.Pat != nil && !irrefutable(f.Pat) {
				return false
			}
		}
		covered[p.Name()] = true
	case *syntax.LitPat:
		if p.Lit.Kind == syntax.BoolLit {
			covered[p.Lit.Value] = true
		}
	}
	return false
}

func irrefutable(p syntax.Pattern) bool {
	switch p := p.(type) {
	case *syntax.WildcardPat, *syntax.IdentPat:
		return true
	case *syntax.TuplePat:
		for _, e := range p.Elems {
			if !irrefutable(e) {
				return false
			}
		}
		return true
	case *syntax.RefPat:
		return irrefutable(p.Pat)
	}
	return false
}
