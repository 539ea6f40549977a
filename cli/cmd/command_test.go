package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/folio/render"
)

// withStdout returns a context whose kong context prints to a buffer.
func withStdout(t *testing.T, ctx context.Context) (context.Context, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	parser, err := kong.New(&struct{}{}, kong.Writers(&buf, &buf))
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(ctx, ktx), &buf
}

func newTemplate(dir string) *Template {
	return &Template{
		Dir:      dir,
		Ending:   render.DefaultFileEnding,
		Cache:    true,
		MaxDepth: render.DefaultMaxDepth,
		Table:    render.DefaultTable,
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.tpl", `#include("part")|#for(x in items):#(x)#endfor`)
	writeFile(t, dir, "part.tpl", "#uppercased(title)")
	site := writeFile(t, dir, "site.yaml", "title: docs\nitems: [1, 2, 3]\n")

	ctx := WithSourceFiles(context.Background(), []string{site})
	ctx, buf := withStdout(t, ctx)

	r := Render{Path: "page"}
	if err := r.Run(ctx, newTemplate(dir)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := buf.String(), "DOCS|123"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}

	out := filepath.Join(dir, "out.txt")
	r.Output = out

	if err := r.Run(ctx, newTemplate(dir)); err != nil {
		t.Fatalf("Run with output: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "DOCS|123" {
		t.Errorf("output file = %q, want %q", got, "DOCS|123")
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.tpl", "#nosuchtag()")

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", "missing", render.ErrTemplateNotFound},
		{"unknown tag", "bad", ErrRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := withStdout(t, context.Background())

			err := (&Render{Path: tt.path}).Run(ctx, newTemplate(dir))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderCommandStdinConflict(t *testing.T) {
	ctx := WithSourceFiles(context.Background(), []string{stdinSource})

	err := (&Render{Path: stdinSource}).Run(ctx, newTemplate(t.TempDir()))
	if !errors.Is(err, ErrStdin) {
		t.Errorf("err = %v, want ErrStdin", err)
	}
}

func TestASTCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.tpl", "Hi #(name)#if(ok):!#endif")

	ctx, buf := withStdout(t, context.Background())

	if err := (&AST{Path: "page"}).Run(ctx, newTemplate(dir)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"expr: name", "tag: if"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, buf.String())
		}
	}

	writeFile(t, dir, "broken.tpl", "#if(x): never closed")

	err := (&AST{Path: "broken"}).Run(ctx, newTemplate(dir))
	if !errors.Is(err, ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestStoreCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tpl", "A=#(v)")
	b := writeFile(t, dir, "sub/b.tpl", "B")

	tmpl := newTemplate(dir)
	tmpl.DB = filepath.Join(t.TempDir(), "templates.db")

	ctx, buf := withStdout(t, context.Background())

	if err := (&Store{Files: []string{a, b}}).Run(ctx, tmpl); err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := (&Store{}).Run(ctx, tmpl); err != nil {
		t.Fatalf("list: %v", err)
	}

	if got, want := buf.String(), "a.tpl\nsub/b.tpl\n"; got != want {
		t.Errorf("list = %q, want %q", got, want)
	}

	// Rendering reads from the database, not the directory.
	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}

	data := writeFile(t, t.TempDir(), "v.yaml", "v: 1\n")
	ctx = WithSourceFiles(ctx, []string{data})
	buf.Reset()

	if err := (&Render{Path: "a"}).Run(ctx, tmpl); err != nil {
		t.Fatalf("render: %v", err)
	}

	if got := buf.String(); got != "A=1" {
		t.Errorf("render = %q, want %q", got, "A=1")
	}
}

func TestStoreCommandNeedsDatabase(t *testing.T) {
	err := (&Store{}).Run(context.Background(), newTemplate(t.TempDir()))
	if !errors.Is(err, ErrNoDatabase) {
		t.Errorf("err = %v, want ErrNoDatabase", err)
	}
}

func TestSessionPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tpl", "")
	writeFile(t, dir, "b.txt", "")
	writeFile(t, dir, "nested/c.tpl", "")

	tmpl := newTemplate(dir)

	s, err := tmpl.open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.paths(context.Background(), tmpl)
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"a.tpl", "nested/c.tpl"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %q, want %q", got, want)
	}
}
