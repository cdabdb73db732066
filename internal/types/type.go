// Package types implements the semantic types of Windjammer programs:
// type representations, declared objects, scopes and the predeclared
// universe. It has no dependency on the resolver; the syntax package is
// used only for positions and declarations.
package types

// Type is the interface implemented by all types.
type Type interface {
	// Underlying returns the underlying type.
	// For Named types, returns the type it names.
	// For all other types, returns the receiver.
	Underlying() Type

	// String returns the type in WJ source notation.
	String() string

	// aType is a marker method to restrict implementations to this package.
	aType()
}

// typ is a base struct for all type implementations.
type typ struct{}

func (typ) aType() {}
