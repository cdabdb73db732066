package syntax

import (
	"strings"
	"testing"
)

func TestSourceNewline(t *testing.T) {
	src := newSource("test", strings.NewReader("a\nb"), nil)

	want := []struct {
		ch        rune
		line, col uint32
	}{
		{'a', 1, 1},
		{'\n', 1, 2},
		{'b', 2, 1},
		{-1, 2, 2},
	}
	for i, w := range want {
		if src.ch != w.ch || src.line != w.line || src.col != w.col {
			t.Errorf("step %d: got ch=%q pos=%d:%d, want ch=%q pos=%d:%d",
				i, src.ch, src.line, src.col, w.ch, w.line, w.col)
		}
		src.nextch()
	}
}

func TestSourceUTF8(t *testing.T) {
	src := newSource("test", strings.NewReader("é世"), nil)
	if src.ch != 'é' {
		t.Fatalf("ch = %q, want 'é'", src.ch)
	}
	src.nextch()
	if src.ch != '世' || src.col != 2 {
		t.Errorf("got ch=%q col=%d, want '世' col 2", src.ch, src.col)
	}
	if got := src.pos().Offset(); got != 2 {
		t.Errorf("offset = %d, want 2", got)
	}
}

func TestSourceInvalidUTF8(t *testing.T) {
	var errs []*LexError
	newSource("test", strings.NewReader("\xff"), func(e *LexError) { errs = append(errs, e) })
	if len(errs) != 1 || errs[0].Kind != IllegalChar {
		t.Fatalf("errors = %v, want one IllegalChar", errs)
	}
}

func TestSourceAt(t *testing.T) {
	src := newSourceAt("f.wj", strings.NewReader("x"), 3, 7, 40, nil)
	p := src.pos()
	if p.Line() != 3 || p.Col() != 7 || p.Offset() != 40 {
		t.Errorf("pos = %d:%d@%d, want 3:7@40", p.Line(), p.Col(), p.Offset())
	}
}

func TestIdentClasses(t *testing.T) {
	for _, r := range []rune{'a', 'Z', '_', 'é', 'π', '世'} {
		if !isIdentStart(r) {
			t.Errorf("isIdentStart(%q) = false", r)
		}
	}
	for _, r := range []rune{'0', '$', '-', ' '} {
		if isIdentStart(r) {
			t.Errorf("isIdentStart(%q) = true", r)
		}
	}
	if !isIdentContinue('9') {
		t.Error("isIdentContinue('9') = false")
	}
}
