package types

// BasicKind describes the kind of basic type.
type BasicKind int

const (
	Invalid BasicKind = iota // invalid or unknown type; suppresses follow-on errors

	// Concrete basic types. Int and Float are the WJ spellings of i64 and f64.
	Bool
	Char
	Int
	I8
	I16
	I32
	Isize
	U8
	U16
	U32
	U64
	Usize
	Float
	F32
	String // owned string
	Str    // borrowed string slice
	Unit   // ()

	// Untyped kinds of numeric literals before defaulting.
	UntypedInt
	UntypedFloat
)

// BasicInfo describes properties of a basic type.
type BasicInfo int

const (
	InfoBoolean BasicInfo = 1 << iota
	InfoInteger
	InfoUnsigned
	InfoFloat
	InfoString
	InfoChar
	InfoUntyped
	InfoNumeric = InfoInteger | InfoFloat
)

// Basic represents a predeclared scalar type.
type Basic struct {
	typ
	kind BasicKind
	info BasicInfo
	name string
	rust string
	size int64
}

// Kind returns the kind of the basic type.
func (b *Basic) Kind() BasicKind {
	return b.kind
}

// Info returns information about the basic type.
func (b *Basic) Info() BasicInfo {
	return b.info
}

// Name returns the WJ name of the basic type.
func (b *Basic) Name() string {
	return b.name
}

// RustName returns the Rust spelling of the type.
func (b *Basic) RustName() string {
	return b.rust
}

// Underlying implements Type.
func (b *Basic) Underlying() Type {
	return b
}

// String implements Type.
func (b *Basic) String() string {
	return b.name
}

// Typ holds the predeclared basic types, indexed by BasicKind.
var Typ = []*Basic{
	Invalid:      {kind: Invalid, name: "invalid type", rust: "_"},
	Bool:         {kind: Bool, info: InfoBoolean, name: "bool", rust: "bool", size: 1},
	Char:         {kind: Char, info: InfoChar, name: "char", rust: "char", size: 4},
	Int:          {kind: Int, info: InfoInteger, name: "int", rust: "i64", size: 8},
	I8:           {kind: I8, info: InfoInteger, name: "i8", rust: "i8", size: 1},
	I16:          {kind: I16, info: InfoInteger, name: "i16", rust: "i16", size: 2},
	I32:          {kind: I32, info: InfoInteger, name: "i32", rust: "i32", size: 4},
	Isize:        {kind: Isize, info: InfoInteger, name: "isize", rust: "isize", size: 8},
	U8:           {kind: U8, info: InfoInteger | InfoUnsigned, name: "u8", rust: "u8", size: 1},
	U16:          {kind: U16, info: InfoInteger | InfoUnsigned, name: "u16", rust: "u16", size: 2},
	U32:          {kind: U32, info: InfoInteger | InfoUnsigned, name: "u32", rust: "u32", size: 4},
	U64:          {kind: U64, info: InfoInteger | InfoUnsigned, name: "u64", rust: "u64", size: 8},
	Usize:        {kind: Usize, info: InfoInteger | InfoUnsigned, name: "usize", rust: "usize", size: 8},
	Float:        {kind: Float, info: InfoFloat, name: "float", rust: "f64", size: 8},
	F32:          {kind: F32, info: InfoFloat, name: "f32", rust: "f32", size: 4},
	String:       {kind: String, info: InfoString, name: "string", rust: "String", size: 24},
	Str:          {kind: Str, info: InfoString, name: "str", rust: "str", size: 16},
	Unit:         {kind: Unit, name: "()", rust: "()", size: 0},
	UntypedInt:   {kind: UntypedInt, info: InfoInteger | InfoUntyped, name: "untyped int", rust: "i64", size: 8},
	UntypedFloat: {kind: UntypedFloat, info: InfoFloat | InfoUntyped, name: "untyped float", rust: "f64", size: 8},
}

// basicAliases are additional names for basic types.
var basicAliases = map[string]BasicKind{
	"i64":    Int,
	"f64":    Float,
	"String": String,
}
