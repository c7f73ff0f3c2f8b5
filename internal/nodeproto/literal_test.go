package nodeproto

import (
	"errors"
	"testing"

	"nodeproto/internal/source"
)

func TestLiteralBody(t *testing.T) {
	tok := source.Span{File: 3, Start: 10, End: 14} // "fs"
	got := LiteralBody(tok)
	if got.File != 3 || got.Start != 11 || got.End != 13 {
		t.Fatalf("LiteralBody = %v", got)
	}
	empty := LiteralBody(source.Span{Start: 5, End: 7}) // ""
	if !empty.Empty() || empty.Start != 6 {
		t.Fatalf("empty literal body = %v", empty)
	}
}

func TestBodyRange(t *testing.T) {
	tok := source.Span{Start: 15, End: 24} // "node:fs"
	cases := []struct {
		name       string
		start, end int
		want       source.Span
	}{
		{"insert at start", 0, 0, source.Span{Start: 16, End: 16}},
		{"prefix", 0, 5, source.Span{Start: 16, End: 21}},
		{"to end", 0, ToBodyEnd, source.Span{Start: 16, End: 23}},
		{"tail", 5, ToBodyEnd, source.Span{Start: 21, End: 23}},
		{"insert at end", 7, 7, source.Span{Start: 23, End: 23}},
	}
	for _, c := range cases {
		got, err := BodyRange(tok, c.start, c.end)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBodyRangeRejectsOutOfBody(t *testing.T) {
	tok := source.Span{Start: 0, End: 4} // "fs"
	for _, r := range [][2]int{{-1, 0}, {0, 3}, {2, 1}, {3, ToBodyEnd}} {
		if _, err := BodyRange(tok, r[0], r[1]); !errors.Is(err, ErrBodyRange) {
			t.Errorf("BodyRange(%d, %d): want ErrBodyRange, got %v", r[0], r[1], err)
		}
	}
	if _, err := BodyRange(source.Span{Start: 4, End: 5}, 0, 0); !errors.Is(err, ErrNotLiteral) {
		t.Errorf("one-byte token: want ErrNotLiteral, got %v", err)
	}
}
