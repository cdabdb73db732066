package syntax

import "reflect"

// Clone returns a deep copy of the tree rooted at node. Positions are
// preserved; no part of the result aliases the original.
func Clone[N Node](node N) N {
	v := reflect.ValueOf(node)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return node
	}
	return cloneValue(v).Interface().(N)
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Elem().Type())
		c.Elem().Set(v.Elem()) // copies unexported fields: positions only
		cloneFields(c.Elem())
		return c

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(cloneValue(v.Elem()))
		return c

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(cloneValue(v.Index(i)))
		}
		return c
	}
	return v
}

func cloneFields(s reflect.Value) {
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice:
			f.Set(cloneValue(f))
		}
	}
}
