package syntax

import (
	"encoding/json"
	"io"
	"reflect"
)

// FprintJSON writes a JSON representation of the AST to w.
// Each node becomes an object with a "node" kind, its span and its
// exported fields.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(reflect.ValueOf(node)))
}

var (
	nodeType    = reflect.TypeOf((*Node)(nil)).Elem()
	tokenType   = reflect.TypeOf(Token(0))
	litKindType = reflect.TypeOf(LitKind(0))
)

func toJSON(v reflect.Value) interface{} {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return toJSON(v.Elem())

	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		m := map[string]interface{}{}
		if n, ok := v.Interface().(Node); ok {
			m["node"] = v.Elem().Type().Name()
			m["span"] = n.Span().String()
		}
		e := v.Elem()
		for i := 0; i < e.NumField(); i++ {
			f := e.Type().Field(i)
			if !f.IsExported() || f.Anonymous {
				continue
			}
			fv := e.Field(i)
			if fv.IsZero() {
				continue
			}
			m[lowerFirst(f.Name)] = toJSON(fv)
		}
		return m

	case reflect.Slice:
		list := make([]interface{}, v.Len())
		for i := range list {
			list[i] = toJSON(v.Index(i))
		}
		return list
	}

	switch v.Type() {
	case tokenType:
		return v.Interface().(Token).String()
	case litKindType:
		return v.Interface().(LitKind).String()
	}
	return v.Interface()
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
