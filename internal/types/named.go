package types

import "strings"

// Named represents a declared or predeclared named type, possibly
// instantiated with type arguments: Point, Vec<int>, Option<T>.
//
// Library types such as Vec or HashMap have a nil underlying type; their
// behavior is described by the predicates in this package.
type Named struct {
	typ
	obj        *TypeName  // type name object
	underlying Type       // *Struct, *Enum, *Trait, nil for library types
	targs      []Type     // type arguments of an instantiation
	tparams    []*TypeParam
	methods    []*FuncObj // methods from inherent and trait impls
	impls      []string   // names of traits implemented for the type
	origin     *Named     // uninstantiated type for instantiations
}

// NewNamed creates a new named type.
// The underlying type may be set later using SetUnderlying.
func NewNamed(obj *TypeName, underlying Type) *Named {
	n := &Named{obj: obj, underlying: underlying}
	if obj != nil && obj.typ == nil {
		obj.typ = n
	}
	return n
}

// Obj returns the type name object.
func (n *Named) Obj() *TypeName {
	return n.obj
}

// Origin returns the generic type n instantiates, or n itself.
func (n *Named) Origin() *Named {
	if n.origin != nil {
		return n.origin
	}
	return n
}

// SetUnderlying sets the underlying type.
func (n *Named) SetUnderlying(underlying Type) {
	n.underlying = underlying
}

// Underlying implements Type. Library types return the receiver.
func (n *Named) Underlying() Type {
	if o := n.Origin(); o.underlying != nil {
		return o.underlying
	}
	return n
}

// IsLibrary reports whether n is a predeclared library type with no
// declared structure.
func (n *Named) IsLibrary() bool {
	return n.Origin().underlying == nil
}

// IsTrait reports whether n names a trait.
func (n *Named) IsTrait() bool {
	_, ok := n.Origin().underlying.(*Trait)
	return ok
}

// TypeArgs returns the type arguments of an instantiation.
func (n *Named) TypeArgs() []Type {
	return n.targs
}

// TypeArg returns the i'th type argument, or Typ[Invalid].
func (n *Named) TypeArg(i int) Type {
	if i < len(n.targs) {
		return n.targs[i]
	}
	return Typ[Invalid]
}

// TypeParams returns the declared generic parameters.
func (n *Named) TypeParams() []*TypeParam {
	return n.Origin().tparams
}

// SetTypeParams sets the declared generic parameters.
func (n *Named) SetTypeParams(params []*TypeParam) {
	n.tparams = params
}

// Instantiate returns n applied to args. With no args it returns n.
func (n *Named) Instantiate(args ...Type) *Named {
	if len(args) == 0 {
		return n
	}
	o := n.Origin()
	return &Named{obj: o.obj, targs: args, origin: o}
}

// String implements Type.
func (n *Named) String() string {
	name := "unnamed"
	if n.obj != nil {
		name = n.obj.Name()
	}
	if len(n.targs) == 0 {
		return name
	}
	args := make([]string, len(n.targs))
	for i, a := range n.targs {
		args[i] = a.String()
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// NumMethods returns the number of methods.
func (n *Named) NumMethods() int {
	return len(n.Origin().methods)
}

// Methods returns all methods.
func (n *Named) Methods() []*FuncObj {
	return n.Origin().methods
}

// AddMethod adds a method to this named type.
func (n *Named) AddMethod(m *FuncObj) {
	o := n.Origin()
	o.methods = append(o.methods, m)
}

// LookupMethod looks up a method by name.
// Returns nil if not found.
func (n *Named) LookupMethod(name string) *FuncObj {
	for _, m := range n.Origin().methods {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// AddImpl records that the type implements trait.
func (n *Named) AddImpl(trait string) {
	o := n.Origin()
	for _, t := range o.impls {
		if t == trait {
			return
		}
	}
	o.impls = append(o.impls, trait)
}

// Implements reports whether an impl of trait was declared for the type.
func (n *Named) Implements(trait string) bool {
	for _, t := range n.Origin().impls {
		if t == trait {
			return true
		}
	}
	return false
}
