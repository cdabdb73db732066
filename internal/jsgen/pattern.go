package jsgen

import (
	"strconv"
	"strings"

	"github.com/windjammer-lang/wj/internal/syntax"
	"github.com/windjammer-lang/wj/internal/types"
)

// binding is a name introduced by a pattern and the expression it is
// read from.
type binding struct {
	name, value string
}

// patternCond returns the test that subject, of type t, matches p. An
// empty string means the pattern always matches.
func (g *generator) patternCond(p syntax.Pattern, subject string, t types.Type) string {
	switch p := p.(type) {
	case *syntax.WildcardPat, *syntax.IdentPat:
		return ""
	case *syntax.LitPat:
		return subject + " === " + g.litPat(p)
	case *syntax.RangePat:
		var parts []string
		if p.Lo != nil {
			parts = append(parts, subject+" >= "+g.litPat(p.Lo))
		}
		if p.Hi != nil {
			op := " < "
			if p.Inclusive {
				op = " <= "
			}
			parts = append(parts, subject+op+g.litPat(p.Hi))
		}
		return strings.Join(parts, " && ")
	case *syntax.RefPat:
		return g.patternCond(p.Pat, subject, types.Deref(t))
	case *syntax.OrPat:
		alts := make([]string, 0, len(p.Alts))
		for _, a := range p.Alts {
			c := g.patternCond(a, subject, t)
			if c == "" {
				return ""
			}
			alts = append(alts, "("+c+")")
		}
		return strings.Join(alts, " || ")
	case *syntax.TuplePat:
		var elems []types.Type
		if tup, ok := types.Deref(t).(*types.Tuple); ok {
			elems = tup.Elems()
		}
		var parts []string
		for i, e := range p.Elems {
			if c := g.patternCond(e, index(subject, i), elemAt(elems, i)); c != "" {
				parts = append(parts, c)
			}
		}
		return strings.Join(parts, " && ")
	case *syntax.VariantPat:
		return g.variantCond(p, subject, t)
	}
	return ""
}

func (g *generator) variantCond(p *syntax.VariantPat, subject string, t types.Type) string {
	last := p.Path[len(p.Path)-1]
	if b, ok := g.info.Uses[last].(*types.Builtin); ok {
		switch b.Kind() {
		case types.BuiltinNone:
			return subject + " == null"
		case types.BuiltinSome:
			return join(subject+" != null", g.payloadConds(p, []string{subject}, []types.Type{optionElem(t)}))
		case types.BuiltinOk:
			g.need(helperErr)
			return join("!("+subject+" instanceof __WjErr)", g.payloadConds(p, []string{subject}, []types.Type{typeArg(t, 0)}))
		case types.BuiltinErr:
			g.need(helperErr)
			return join(subject+" instanceof __WjErr", g.payloadConds(p, []string{subject + ".error"}, []types.Type{typeArg(t, 1)}))
		}
	}
	if v, ok := g.info.Uses[last].(*types.Var); ok && v.Kind() == types.ConstVar {
		return subject + " === " + g.ident(last.Value)
	}
	if ei := g.enumOf(p.Path, t); ei != nil {
		if v := ei.variants[last.Value]; v != nil {
			test := subject + ".tag === " + quoteJS(last.Value)
			subjects, ts := g.variantFields(v, p, subject+".values")
			return join(test, g.payloadConds(p, subjects, ts))
		}
	}
	if si := g.structs[last.Value]; si != nil && p.Struct {
		var parts []string
		for _, f := range p.Fields {
			if f.Pat != nil {
				if c := g.patternCond(f.Pat, subject+"."+f.Name.Value, nil); c != "" {
					parts = append(parts, c)
				}
			}
		}
		return strings.Join(parts, " && ")
	}
	return ""
}

// variantFields returns the subject expression and type of each payload
// pattern of p against variant v whose values array is values.
func (g *generator) variantFields(v *syntax.Variant, p *syntax.VariantPat, values string) ([]string, []types.Type) {
	if p.Struct {
		subjects := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			subjects[i] = values + "[" + strconv.Itoa(fieldIndex(v, f.Name.Value)) + "]"
		}
		return subjects, make([]types.Type, len(p.Fields))
	}
	subjects := make([]string, len(p.Elems))
	for i := range p.Elems {
		subjects[i] = index(values, i)
	}
	return subjects, make([]types.Type, len(p.Elems))
}

func fieldIndex(v *syntax.Variant, name string) int {
	for i, f := range v.Fields {
		if f.Name.Value == name {
			return i
		}
	}
	return 0
}

// payloadConds returns the conditions of the payload patterns of p.
func (g *generator) payloadConds(p *syntax.VariantPat, subjects []string, ts []types.Type) string {
	var parts []string
	if p.Struct {
		for i, f := range p.Fields {
			if f.Pat == nil || i >= len(subjects) {
				continue
			}
			if c := g.patternCond(f.Pat, subjects[i], elemAt(ts, i)); c != "" {
				parts = append(parts, c)
			}
		}
		return strings.Join(parts, " && ")
	}
	for i, e := range p.Elems {
		if i >= len(subjects) {
			break
		}
		if c := g.patternCond(e, subjects[i], elemAt(ts, i)); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " && ")
}

// patternBinds appends the bindings introduced by p.
func (g *generator) patternBinds(p syntax.Pattern, subject string, t types.Type, out *[]binding) {
	switch p := p.(type) {
	case *syntax.IdentPat:
		*out = append(*out, binding{g.ident(p.Name.Value), subject})
	case *syntax.RefPat:
		g.patternBinds(p.Pat, subject, types.Deref(t), out)
	case *syntax.OrPat:
		if len(p.Alts) > 0 {
			g.patternBinds(p.Alts[0], subject, t, out)
		}
	case *syntax.TuplePat:
		var elems []types.Type
		if tup, ok := types.Deref(t).(*types.Tuple); ok {
			elems = tup.Elems()
		}
		for i, e := range p.Elems {
			g.patternBinds(e, index(subject, i), elemAt(elems, i), out)
		}
	case *syntax.VariantPat:
		g.variantBinds(p, subject, t, out)
	}
}

func (g *generator) variantBinds(p *syntax.VariantPat, subject string, t types.Type, out *[]binding) {
	last := p.Path[len(p.Path)-1]
	var subjects []string
	switch b, _ := g.info.Uses[last].(*types.Builtin); {
	case b != nil && (b.Kind() == types.BuiltinSome || b.Kind() == types.BuiltinOk):
		subjects = []string{subject}
	case b != nil && b.Kind() == types.BuiltinErr:
		subjects = []string{subject + ".error"}
	case b != nil:
		return
	default:
		if ei := g.enumOf(p.Path, t); ei != nil {
			if v := ei.variants[last.Value]; v != nil {
				subjects, _ = g.variantFields(v, p, subject+".values")
				break
			}
		}
		if p.Struct {
			for _, f := range p.Fields {
				s := subject + "." + f.Name.Value
				if f.Pat == nil {
					*out = append(*out, binding{g.ident(f.Name.Value), s})
				} else {
					g.patternBinds(f.Pat, s, nil, out)
				}
			}
		}
		return
	}
	g.payloadBinds(p, subjects, out)
}

func (g *generator) payloadBinds(p *syntax.VariantPat, subjects []string, out *[]binding) {
	if p.Struct {
		for i, f := range p.Fields {
			if i >= len(subjects) {
				break
			}
			if f.Pat == nil {
				*out = append(*out, binding{g.ident(f.Name.Value), subjects[i]})
			} else {
				g.patternBinds(f.Pat, subjects[i], nil, out)
			}
		}
		return
	}
	for i, e := range p.Elems {
		if i >= len(subjects) {
			break
		}
		g.patternBinds(e, subjects[i], nil, out)
	}
}

// litPat renders the literal of a literal pattern.
func (g *generator) litPat(p *syntax.LitPat) string {
	s := g.capture(func() { g.literal(p.Lit) })
	if p.Neg {
		return "-" + s
	}
	return s
}

func index(subject string, i int) string {
	return subject + "[" + strconv.Itoa(i) + "]"
}

func elemAt(list []types.Type, i int) types.Type {
	if i < len(list) {
		return list[i]
	}
	return nil
}

func join(a, b string) string {
	if b == "" {
		return a
	}
	return a + " && " + b
}

func optionElem(t types.Type) types.Type {
	return typeArg(t, 0)
}

func typeArg(t types.Type, i int) types.Type {
	if n, ok := types.Deref(t).(*types.Named); ok {
		return n.TypeArg(i)
	}
	return nil
}
