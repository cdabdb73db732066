package types

import (
	"testing"

	"github.com/windjammer-lang/wj/internal/syntax"
)

func TestSizeofBasic(t *testing.T) {
	tests := []struct {
		kind BasicKind
		size int64
	}{
		{Bool, 1},
		{Char, 4},
		{Int, 8},
		{I32, 4},
		{U8, 1},
		{Float, 8},
		{F32, 4},
		{String, 24},
		{Unit, 0},
	}
	for _, tt := range tests {
		if got := DefaultSizes.Sizeof(Typ[tt.kind]); got != tt.size {
			t.Errorf("Sizeof(%s) = %d, want %d", Typ[tt.kind], got, tt.size)
		}
	}
}

func TestSizeofComposite(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		size int64
	}{
		{"&int", NewRef(Typ[Int], false), 8},
		{"&str", NewRef(Typ[Str], false), 16},
		{"Vec", NewVec(Typ[Int]), 24},
		{"[u8; 4]", NewArray(4, Typ[U8]), 4},
		{"(i32, bool)", NewTuple(Typ[I32], Typ[Bool]), 8},
		{"(bool, int, bool)", NewTuple(Typ[Bool], Typ[Int], Typ[Bool]), 16},
		{"Option<&int>", NewOption(NewRef(Typ[Int], false)), 8},
		{"Option<int>", NewOption(Typ[Int]), 16},
		{"Option<i32>", NewOption(Typ[I32]), 8},
		{"Box", LibraryType("Box").Instantiate(Typ[Int]), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultSizes.Sizeof(tt.typ); got != tt.size {
				t.Errorf("Sizeof(%s) = %d, want %d", tt.typ, got, tt.size)
			}
		})
	}
}

func TestStructLayoutReordersFields(t *testing.T) {
	// bool, int, bool packs to 16 bytes once fields are sorted by alignment.
	st := NewStruct([]*Var{
		field("a", Typ[Bool]),
		field("b", Typ[Int]),
		field("c", Typ[Bool]),
	})
	DefaultSizes.ComputeLayout(st)
	if st.Size() != 16 || st.Align() != 8 {
		t.Errorf("size/align = %d/%d, want 16/8", st.Size(), st.Align())
	}
	if st.Offset(1) != 0 || st.Offset(0) != 8 || st.Offset(2) != 9 {
		t.Errorf("offsets = %d %d %d, want 8 0 9", st.Offset(0), st.Offset(1), st.Offset(2))
	}

	// Second call is a no-op.
	DefaultSizes.ComputeLayout(st)
	if st.Size() != 16 {
		t.Errorf("ComputeLayout not idempotent: size %d", st.Size())
	}
}

func TestEnumSize(t *testing.T) {
	unit := NewNamed(NewTypeName(syntax.Pos{}, "Dir", nil), NewEnum([]*Variant{{Name: "N"}, {Name: "S"}}))
	payload := NewNamed(NewTypeName(syntax.Pos{}, "Msg", nil), NewEnum([]*Variant{
		{Name: "Quit"},
		{Name: "Move", Tuple: true, Fields: []*Var{field("0", Typ[I32]), field("1", Typ[I32])}},
	}))
	if got := DefaultSizes.Sizeof(unit); got != 1 {
		t.Errorf("Sizeof(Dir) = %d, want 1", got)
	}
	if got := DefaultSizes.Sizeof(payload); got != 12 {
		t.Errorf("Sizeof(Msg) = %d, want 12", got)
	}
	if got := DefaultSizes.Alignof(payload); got != 4 {
		t.Errorf("Alignof(Msg) = %d, want 4", got)
	}
}

func TestCopySizeLimit(t *testing.T) {
	pair := newStruct("Pair", field("a", Typ[Int]), field("b", Typ[Int]))
	triple := newStruct("Triple", field("a", Typ[Int]), field("b", Typ[Int]), field("c", Typ[Int]))
	if DefaultSizes.Sizeof(pair) > MaxCopySize {
		t.Errorf("Pair is %d bytes", DefaultSizes.Sizeof(pair))
	}
	if DefaultSizes.Sizeof(triple) <= MaxCopySize {
		t.Errorf("Triple is %d bytes", DefaultSizes.Sizeof(triple))
	}
}
