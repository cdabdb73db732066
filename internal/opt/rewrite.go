package opt

import (
	"reflect"

	"github.com/windjammer-lang/wj/internal/syntax"
)

var (
	exprType = reflect.TypeOf((*syntax.Expr)(nil)).Elem()
	nodeType = reflect.TypeOf((*syntax.Node)(nil)).Elem()
)

// rewrite replaces every expression below n by f's result. Children are
// rewritten before their parent; f sees each replaced expression once.
func rewrite(n syntax.Node, f func(syntax.Expr) syntax.Expr) {
	v := reflect.ValueOf(n)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	rewriteFields(v.Elem(), f)
}

func rewriteFields(s reflect.Value, f func(syntax.Expr) syntax.Expr) {
	if s.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		fv := s.Field(i)
		if !fv.CanSet() {
			continue
		}
		rewriteValue(fv, f)
	}
}

func rewriteValue(fv reflect.Value, f func(syntax.Expr) syntax.Expr) {
	switch fv.Kind() {
	case reflect.Interface:
		if fv.IsNil() {
			return
		}
		child, ok := fv.Interface().(syntax.Node)
		if !ok {
			return
		}
		rewrite(child, f)
		if fv.Type() == exprType {
			if e := f(child.(syntax.Expr)); e != nil {
				fv.Set(reflect.ValueOf(e))
			}
		}
	case reflect.Ptr:
		if fv.IsNil() || !fv.Type().Implements(nodeType) {
			return
		}
		rewriteFields(fv.Elem(), f)
	case reflect.Slice:
		for j := 0; j < fv.Len(); j++ {
			rewriteValue(fv.Index(j), f)
		}
	}
}

// blocks calls f for every block below n, inner blocks first.
func blocks(n syntax.Node, f func(b *syntax.BlockStmt)) {
	var list []*syntax.BlockStmt
	syntax.Inspect(n, func(n syntax.Node) {
		if b, ok := n.(*syntax.BlockStmt); ok {
			list = append(list, b)
		}
	})
	for i := len(list) - 1; i >= 0; i-- {
		f(list[i])
	}
}

// funcs returns every function and method body owner of file.
func funcs(file *syntax.File) []*syntax.FuncDecl {
	var out []*syntax.FuncDecl
	for _, d := range file.Items {
		switch d := d.(type) {
		case *syntax.FuncDecl:
			out = append(out, d)
		case *syntax.ImplDecl:
			out = append(out, d.Methods...)
		case *syntax.TraitDecl:
			out = append(out, d.Methods...)
		}
	}
	return out
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
