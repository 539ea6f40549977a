package ast

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanner(t *testing.T) {
	s := NewScanner([]byte("ab\ncd"), "mem")

	if s.EOF() {
		t.Fatal("EOF() = true at start")
	}

	if !s.HasPrefix("ab\n") {
		t.Error("HasPrefix(ab\\n) = false")
	}

	if got := s.PeekAt(3); got != 'c' {
		t.Errorf("PeekAt(3) = %q, want 'c'", got)
	}

	s.Skip(3)

	want := Position{Offset: 3, Line: 2, Column: 1}
	if got := s.Position(); got != want {
		t.Errorf("Position() = %+v, want %+v", got, want)
	}

	if got := s.Next(); got != 'c' {
		t.Errorf("Next() = %q, want 'c'", got)
	}

	s.Skip(5)

	if !s.EOF() {
		t.Error("EOF() = false after skipping past end")
	}

	if got := s.Next(); got != 0 {
		t.Errorf("Next() at EOF = %q, want 0", got)
	}

	if got := string(s.Slice(1, 4)); got != "b\nc" {
		t.Errorf("Slice(1, 4) = %q", got)
	}
}

func TestParseError(t *testing.T) {
	s := NewScanner([]byte("x\ny"), "page.tpl")
	s.Skip(2)

	cause := errors.New("boom")
	err := error(s.ErrorAt(s.Position(), "bad tag", cause))

	if got, want := err.Error(), "page.tpl:2:1: bad tag: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, ErrParse) {
		t.Error("errors.Is(err, ErrParse) = false")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 || pe.Column != 1 {
		t.Errorf("errors.As = %+v", pe)
	}

	if got := NewScanner(nil, "").Errorf("empty").Error(); got != "<input>:1:1: empty" {
		t.Errorf("unlabeled Error() = %q", got)
	}
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(_ context.Context, s *Scanner) ([]Node, error) {
		return []Node{&Raw{Text: s.Source(), Position: s.Position()}}, nil
	})

	nodes, err := p.Parse(context.Background(), NewScanner([]byte("hi"), ""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(nodes) != 1 || string(nodes[0].(*Raw).Text) != "hi" {
		t.Errorf("Parse() = %#v", nodes)
	}
}

func TestHasBody(t *testing.T) {
	if (&Tag{Name: "x"}).HasBody() {
		t.Error("nil body reports HasBody")
	}

	if !(&Tag{Name: "x", Body: []Node{}}).HasBody() {
		t.Error("empty body does not report HasBody")
	}
}

func TestToList(t *testing.T) {
	pos := Position{Line: 1, Column: 1}
	nodes := []Node{
		&Raw{Text: []byte("a"), Position: pos},
		&Interpolation{Expr: Expr{Source: "name"}, Position: pos},
		&Tag{
			Name:     "for",
			Args:     []Arg{{Name: "item", Expr: Expr{Source: "items"}}},
			Body:     []Node{},
			Position: pos,
			Next:     &Tag{Name: "else", Body: []Node{}, Position: pos},
		},
	}

	want := []any{
		map[string]any{"raw": "a", "pos": "1:1"},
		map[string]any{"expr": "name", "pos": "1:1"},
		map[string]any{
			"tag":  "for",
			"pos":  "1:1",
			"args": []any{"item in items"},
			"body": []any{},
			"next": map[string]any{"tag": "else", "pos": "1:1", "body": []any{}},
		},
	}

	if diff := cmp.Diff(want, ToList(nodes)); diff != "" {
		t.Errorf("ToList() mismatch (-want +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer

	nodes := []Node{&Tag{Name: "include", Args: []Arg{{Expr: Expr{Source: `"nav"`}}}}}
	if err := Dump(context.Background(), &buf, nodes); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"tag: include", "args:", "pos:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() = %q, missing %q", out, want)
		}
	}
}
