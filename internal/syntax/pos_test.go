package syntax

import "testing"

func TestPosString(t *testing.T) {
	tests := []struct {
		name    string
		pos     Pos
		wantStr string
	}{
		{"with filename", NewPos("test.wj", 10, 5), "test.wj:10:5"},
		{"without filename", NewPos("", 10, 5), "10:5"},
		{"line 1 col 1", NewPos("main.wj", 1, 1), "main.wj:1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.wantStr {
				t.Errorf("Pos.String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestPosIsValid(t *testing.T) {
	tests := []struct {
		name  string
		pos   Pos
		valid bool
	}{
		{"valid position", NewPos("test.wj", 1, 1), true},
		{"valid position line 100", NewPos("", 100, 50), true},
		{"invalid - zero line", NewPos("test.wj", 0, 1), false},
		{"invalid - zero value", Pos{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsValid(); got != tt.valid {
				t.Errorf("Pos.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestPosBefore(t *testing.T) {
	a := NewPos("f", 1, 5)
	b := NewPos("f", 2, 1)
	c := NewPos("f", 1, 7)
	if !a.Before(b) || !a.Before(c) {
		t.Error("expected 1:5 before 2:1 and 1:7")
	}
	if b.Before(a) || a.Before(a) {
		t.Error("Before must be strict")
	}
}

func TestSpanLen(t *testing.T) {
	s := MakeSpan(NewPosOffset("f", 1, 1, 3), NewPosOffset("f", 1, 6, 8))
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	if (Span{}).Len() != 0 {
		t.Error("zero span should have zero length")
	}
}
