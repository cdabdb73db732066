package analysis

import "fmt"

// Mode is the capability a function needs of a parameter. Modes form
// the lattice Shared < Exclusive < Owned; Copy is outside the lattice
// and marks parameters of Copy types, which are passed by value.
type Mode uint8

const (
	Shared    Mode = iota // &T
	Exclusive             // &mut T
	Owned                 // T
	Copy                  // T, by copy
)

var modeNames = [...]string{
	Shared:    "shared",
	Exclusive: "exclusive",
	Owned:     "owned",
	Copy:      "copy",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Join returns the least upper bound of m and o. Copy absorbs
// everything: a Copy value is never borrowed.
func (m Mode) Join(o Mode) Mode {
	if m == Copy || o == Copy {
		return Copy
	}
	if o > m {
		return o
	}
	return m
}

// ByValue reports whether a parameter in mode m is passed by value.
func (m Mode) ByValue() bool {
	return m == Owned || m == Copy
}
