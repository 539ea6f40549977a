package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/cache"
	"github.com/ardnew/folio/data"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/syntax"
	"github.com/ardnew/folio/tag"
)

// countingParser counts calls to the default parser.
type countingParser struct {
	calls atomic.Int32
	inner ast.Parser
}

func newCounting() *countingParser {
	return &countingParser{inner: syntax.New()}
}

func (p *countingParser) Parse(ctx context.Context, s *ast.Scanner) ([]ast.Node, error) {
	p.calls.Add(1)

	return p.inner.Parse(ctx, s)
}

func newRenderer(t *testing.T, p ast.Parser, opts ...Option) *Renderer {
	t.Helper()

	if p == nil {
		p = syntax.New()
	}

	return New(p, append([]Option{WithLogger(log.Discard())}, opts...)...)
}

func dict(kv ...any) data.Value {
	m := make(map[string]data.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = data.FromNative(kv[i+1])
	}

	return data.Dictionary(m)
}

func TestRenderBytes(t *testing.T) {
	type post struct{ Tags []string }

	tests := []struct {
		name string
		src  string
		ctx  data.Value
		want string
	}{
		{"empty", "", data.Null(), ""},
		{"raw", "hello", data.Null(), "hello"},
		{"interpolation", "Hi #(name)!", dict("name", "ada"), "Hi ada!"},
		{"expression", "#(price * qty)", dict("price", 3, "qty", 4), "12"},
		{"undefined", "[#(missing)]", data.Null(), "[]"},
		{"self", "#(self)", data.String("scalar"), "scalar"},
		{
			"loop",
			"#for(u in users):#(index)=#(u.name)#unless(isLast):, #endunless#endfor",
			dict("users", []any{
				map[string]any{"name": "a"},
				map[string]any{"name": "b"},
			}),
			"0=a, 1=b",
		},
		{
			"conditional",
			"#if(n > 1):many#elseif(n == 1):one#else:none#endif",
			dict("n", 1),
			"one",
		},
		{"tag value", "#count(xs) items", dict("xs", []any{1, 2, 3}), "3 items"},
		{"escape", "#escape(s)", dict("s", "<i>"), "&lt;i&gt;"},
		{"literal hash", `\#(x) #1`, data.Null(), "#(x) #1"},
		{"html anchor", `<a href="#top">#(label)</a>`, dict("label", "up"), `<a href="#top">up</a>`},
		{"css colour", "p { color: #fff; }", data.Null(), "p { color: #fff; }"},
		{
			"contains struct",
			"#contains(posts, p)",
			dict("posts", []any{post{[]string{"a"}}}, "p", post{[]string{"a"}}),
			"true",
		},
	}

	r := newRenderer(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderBytes(context.Background(), []byte(tt.src), tt.ctx, "test")
			if err != nil {
				t.Fatalf("RenderBytes() error = %v", err)
			}

			if got.String() != tt.want {
				t.Errorf("RenderBytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOncePerContent(t *testing.T) {
	p := newCounting()
	r := newRenderer(t, p)
	src := []byte("#(a)-#(b)")

	for range 3 {
		if _, err := r.RenderBytes(context.Background(), src, dict("a", 1, "b", 2), "x"); err != nil {
			t.Fatal(err)
		}
	}

	if n := p.calls.Load(); n != 1 {
		t.Errorf("parser called %d times, want 1", n)
	}

	if _, err := r.RenderBytes(context.Background(), []byte("other"), data.Null(), "y"); err != nil {
		t.Fatal(err)
	}

	if n := p.calls.Load(); n != 2 {
		t.Errorf("parser called %d times after new content, want 2", n)
	}
}

func TestDisabledCacheParsesEveryTime(t *testing.T) {
	p := newCounting()
	r := newRenderer(t, p, WithCache(nil))

	for range 4 {
		if _, err := r.RenderBytes(context.Background(), []byte("#(1)"), data.Null(), "x"); err != nil {
			t.Fatal(err)
		}
	}

	if n := p.calls.Load(); n != 4 {
		t.Errorf("parser called %d times, want 4", n)
	}
}

func TestIdempotent(t *testing.T) {
	r := newRenderer(t, nil)
	src := []byte("#for(x in xs):#(x)#endfor")
	c := dict("xs", []any{"a", "b"})

	first, err := r.RenderBytes(context.Background(), src, c, "x")
	if err != nil {
		t.Fatal(err)
	}

	second, err := r.RenderBytes(context.Background(), src, c, "x")
	if err != nil {
		t.Fatal(err)
	}

	if first.String() != second.String() {
		t.Errorf("renders differ: %q vs %q", first, second)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	store := cache.NewMemory()
	r := newRenderer(t, nil, WithCache(store))
	src := []byte("a #if(x):b#endif c")

	if _, err := r.RenderBytes(context.Background(), src, dict("x", true), "x"); err != nil {
		t.Fatal(err)
	}

	e, ok := store.Get(cache.Fingerprint(src))
	if !ok {
		t.Fatal("cache has no entry after render")
	}

	fresh, err := syntax.New().Parse(context.Background(), ast.NewScanner(src, "x"))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(ast.ToList(fresh), ast.ToList(e.Nodes)); diff != "" {
		t.Errorf("cached nodes differ from a fresh parse (-fresh +cached):\n%s", diff)
	}
}

func TestCollisionIsMiss(t *testing.T) {
	store := cache.NewMemory()
	p := newCounting()
	r := newRenderer(t, p, WithCache(store))
	src := []byte("real")

	// Plant an entry under the fingerprint of src whose bytes differ.
	store.Put(cache.Fingerprint(src), cache.Entry{
		Source: []byte("fake"),
		Nodes:  []ast.Node{&ast.Raw{Text: []byte("WRONG")}},
	})

	got, err := r.RenderBytes(context.Background(), src, data.Null(), "x")
	if err != nil {
		t.Fatal(err)
	}

	if got.String() != "real" || p.calls.Load() != 1 {
		t.Errorf("RenderBytes() = %q after %d parses", got, p.calls.Load())
	}
}

func TestParseErrorNotCached(t *testing.T) {
	store := cache.NewMemory()
	p := newCounting()
	r := newRenderer(t, p, WithCache(store))

	for range 2 {
		_, err := r.RenderBytes(context.Background(), []byte("#if(a"), data.Null(), "bad.tpl")

		var pe *ast.ParseError
		if !errors.As(err, &pe) || pe.Label != "bad.tpl" {
			t.Fatalf("error = %v, want ParseError labelled bad.tpl", err)
		}
	}

	if p.calls.Load() != 2 || store.Len() != 0 {
		t.Errorf("calls = %d, cached = %d; want 2, 0", p.calls.Load(), store.Len())
	}
}

func TestUnknownTag(t *testing.T) {
	r := newRenderer(t, nil)

	view, err := r.RenderBytes(context.Background(), []byte("a #nope(1) b"), data.Null(), "x")
	if view != nil {
		t.Errorf("partial view returned: %q", view)
	}

	var ue *tag.UnknownError
	if !errors.As(err, &ue) || ue.Name != "nope" {
		t.Fatalf("error = %v, want UnknownError for nope", err)
	}

	if !errors.Is(err, tag.ErrUnknown) {
		t.Error("errors.Is(err, ErrUnknown) = false")
	}
}

func TestNestedErrorsPropagate(t *testing.T) {
	r := newRenderer(t, nil)

	_, err := r.RenderBytes(context.Background(), []byte("#if(true):#nope()#endif"), data.Null(), "x")
	if _, ok := err.(*tag.UnknownError); !ok {
		t.Errorf("error = %T %v, want *tag.UnknownError", err, err)
	}

	_, err = r.RenderBytes(context.Background(), []byte("#for(x in xs):#count(x)#endfor"),
		dict("xs", []any{1}), "x")

	var ee *tag.EvaluationError
	if !errors.As(err, &ee) || ee.Name != "count" {
		t.Fatalf("error = %v, want EvaluationError for count", err)
	}

	if !errors.Is(err, tag.ErrArgument) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestInterpolationError(t *testing.T) {
	r := newRenderer(t, nil)

	_, err := r.RenderBytes(context.Background(), []byte("#(1 / x)"), dict("x", "s"), "x")

	var ee *tag.EvaluationError
	if !errors.As(err, &ee) || ee.Name != "" {
		t.Fatalf("error = %v, want EvaluationError for expression", err)
	}
}

func TestResolve(t *testing.T) {
	r := newRenderer(t, nil, WithDirectory("/templates/"), WithFileEnding(".tpl"))

	tests := map[string]string{
		"home":          "/templates/home.tpl",
		"/abs/file.tpl": "/abs/file.tpl",
		"home.tpl":      "/templates/home.tpl",
		"a/b":           "/templates/a/b.tpl",
	}

	for in, want := range tests {
		if got := r.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}

	bare := newRenderer(t, nil, WithFileEnding(""))
	if got := bare.Resolve("x.html"); got != "x.html" {
		t.Errorf("Resolve without directory or ending = %q", got)
	}
}

func TestRenderPath(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "home.tpl"), []byte("Hello #(who)"), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	r := newRenderer(t, nil, WithDirectory(dir))

	got, err := r.RenderPath(context.Background(), "home", dict("who", "ada"))
	if err != nil {
		t.Fatal(err)
	}

	if got.String() != "Hello ada" {
		t.Errorf("RenderPath() = %q", got)
	}

	got, err = r.Render(context.Background(), "home")
	if err != nil || got.String() != "Hello " {
		t.Errorf("Render() = %q, %v", got, err)
	}
}

func TestMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	r := newRenderer(t, nil, WithDirectory(dir))

	_, err := r.Render(context.Background(), "missing")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}

	if want := filepath.Join(dir, "missing.tpl"); nf.Path != want {
		t.Errorf("Path = %q, want %q", nf.Path, want)
	}

	if !errors.Is(err, ErrTemplateNotFound) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error does not match sentinel and cause: %v", err)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub.tpl"), 0o700); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(context.Background(), "sub"); !errors.Is(err, ErrNotRegular) {
		t.Errorf("directory error = %v, want ErrNotRegular", err)
	}
}

func TestEmptyTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "e.tpl"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := newRenderer(t, nil, WithDirectory(dir)).Render(context.Background(), "e")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 0 {
		t.Errorf("Render() = %q, want empty", got)
	}
}

// journal is an ambient environment recording tag side effects.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, s)
}

func TestDocumentOrder(t *testing.T) {
	note := tag.HandlerFunc(func(_ context.Context, c *tag.Context) (data.Value, error) {
		c.Environment().(*journal).add(c.Arg(0).String())

		return data.Null(), nil
	})

	j := &journal{}
	r := newRenderer(t, nil,
		WithEnvironment(j),
		WithRegistry(tag.Default().With("note", note)),
	)

	src := `#note("a")#if(true):#note("b")#endif#for(x in xs):#note(x)#endfor#note("e")`

	if _, err := r.RenderBytes(context.Background(), []byte(src), dict("xs", []any{"c", "d"}), "x"); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, j.entries); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRenderer(t, syntax.New(), WithCache(nil))

	if _, err := r.RenderBytes(ctx, []byte("a #(b)"), data.Null(), "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("RenderBytes() error = %v, want context.Canceled", err)
	}

	if _, err := r.Render(ctx, "anything"); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestSerializerStopsBetweenNodes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stop := tag.HandlerFunc(func(context.Context, *tag.Context) (data.Value, error) {
		cancel()

		return data.String("x"), nil
	})

	s := NewSerializer(tag.NewRegistry(map[string]tag.Handler{"stop": stop}))
	nodes := []ast.Node{
		&ast.Tag{Name: "stop"},
		&ast.Raw{Text: []byte("never")},
	}

	if v, err := s.Serialize(ctx, nodes, data.Null()); v != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Serialize() = %q, %v", v, err)
	}
}

// gatedParser holds every parse until release is closed.
type gatedParser struct {
	countingParser
	release chan struct{}
}

func (p *gatedParser) Parse(ctx context.Context, s *ast.Scanner) ([]ast.Node, error) {
	p.calls.Add(1)
	<-p.release

	return p.inner.Parse(ctx, s)
}

// missCounter closes all once n cache misses have been logged.
type missCounter struct {
	mu   sync.Mutex
	n    int
	seen int
	all  chan struct{}
}

func (w *missCounter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seen += strings.Count(string(b), "cache miss")
	if w.seen == w.n {
		close(w.all)
	}

	return len(b), nil
}

// renderGated renders src from n goroutines that all miss the cache before
// the first parse completes, and returns how often the parser ran.
func renderGated(t *testing.T, n int, src string, check func(View, error)) int32 {
	t.Helper()

	p := &gatedParser{
		countingParser: countingParser{inner: syntax.New()},
		release:        make(chan struct{}),
	}
	w := &missCounter{n: n, all: make(chan struct{})}
	r := New(p, WithLogger(log.Make(w,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
	)))
	c := dict("xs", []any{1, 2, 3})

	var wg sync.WaitGroup

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			check(r.RenderBytes(context.Background(), []byte(src), c, "x"))
		}()
	}

	select {
	case <-w.all:
	case <-time.After(5 * time.Second):
		close(p.release)
		t.Fatal("renders never reached the parser")
	}

	// Each caller logs its miss just before joining the shared parse.
	time.Sleep(20 * time.Millisecond)
	close(p.release)
	wg.Wait()

	return p.calls.Load()
}

func TestConcurrentRenders(t *testing.T) {
	calls := renderGated(t, 16, "#for(x in xs):#(x)#endfor", func(v View, err error) {
		if err != nil || v.String() != "123" {
			t.Errorf("RenderBytes() = %q, %v", v, err)
		}
	})

	if calls != 1 {
		t.Errorf("parser called %d times, want 1 shared parse", calls)
	}
}

func TestConcurrentParseErrorsShared(t *testing.T) {
	calls := renderGated(t, 8, "#if(a", func(v View, err error) {
		var pe *ast.ParseError
		if v != nil || !errors.As(err, &pe) {
			t.Errorf("RenderBytes() = %q, %v; want ParseError", v, err)
		}
	})

	if calls != 1 {
		t.Errorf("parser called %d times, want 1 shared parse", calls)
	}
}

func TestIncludeAndExtend(t *testing.T) {
	fsys := fstest.MapFS{
		"nav.tpl":  {Data: []byte(`<nav>#(title)</nav>`)},
		"base.tpl": {Data: []byte(`#include("nav")<main>#import("body"):empty#endimport</main>`)},
		"page.tpl": {Data: []byte(`#extend("base"):#export("body"):Hi #(who)#endexport#endextend`)},
		"loop.tpl": {Data: []byte(`#include("loop")`)},
		"bad.tpl":  {Data: []byte(`#include("gone")`)},
	}

	r := newRenderer(t, nil, WithLoader(FSLoader{FS: fsys}))
	c := dict("title", "T", "who", "ada")

	got, err := r.RenderPath(context.Background(), "page", c)
	if err != nil {
		t.Fatal(err)
	}

	if want := "<nav>T</nav><main>Hi ada</main>"; got.String() != want {
		t.Errorf("page = %q, want %q", got, want)
	}

	got, err = r.RenderPath(context.Background(), "base", c)
	if err != nil || got.String() != "<nav>T</nav><main>empty</main>" {
		t.Errorf("base = %q, %v", got, err)
	}

	_, err = r.Render(context.Background(), "loop")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("recursive include error = %v, want ErrMaxDepthExceeded", err)
	}

	_, err = r.Render(context.Background(), "bad")

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Path != "gone.tpl" {
		t.Errorf("missing include error = %v", err)
	}

	var ee *tag.EvaluationError
	if !errors.As(err, &ee) || ee.Name != "include" {
		t.Errorf("missing include not attributed to #include: %v", err)
	}

	shallow := newRenderer(t, nil, WithLoader(FSLoader{FS: fsys}), WithMaxDepth(0))
	if _, err := shallow.RenderPath(context.Background(), "base", c); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("WithMaxDepth(0) error = %v", err)
	}
}

type profile struct {
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
}

type broken struct{}

func (broken) ContextValue() (data.Value, error) { return data.Null(), errors.New("no") }

func TestRenderObject(t *testing.T) {
	r := newRenderer(t, nil)
	src := []byte(`#(name): #for(r in roles):#(r)#unless(isLast):,#endunless#endfor`)

	got, err := r.RenderBytesObject(context.Background(), src, profile{Name: "ada", Roles: []string{"x", "y"}}, "x")
	if err != nil {
		t.Fatal(err)
	}

	if got.String() != "ada: x,y" {
		t.Errorf("RenderBytesObject() = %q", got)
	}

	_, err = r.RenderBytesObject(context.Background(), src, broken{}, "x")
	if !errors.Is(err, data.ErrEncoding) {
		t.Errorf("error = %v, want ErrEncoding", err)
	}

	failing := data.EncoderFunc(func(context.Context, any) (data.Value, error) {
		return data.Null(), errors.New("plain failure")
	})

	_, err = newRenderer(t, nil, WithEncoder(failing)).RenderBytesObject(context.Background(), src, 1, "x")

	var ee *data.EncodingError
	if !errors.As(err, &ee) || ee.Type != "int" {
		t.Errorf("error = %v, want EncodingError for int", err)
	}
}

func TestEncoderSeesEnvironment(t *testing.T) {
	enc := data.EncoderFunc(func(ctx context.Context, obj any) (data.Value, error) {
		return data.String(data.Environment(ctx).(string) + obj.(string)), nil
	})

	r := newRenderer(t, nil, WithEncoder(enc), WithEnvironment("env:"))

	got, err := r.RenderBytesObject(context.Background(), []byte("#(self)"), "obj", "x")
	if err != nil || got.String() != "env:obj" {
		t.Errorf("RenderBytesObject() = %q, %v", got, err)
	}
}

func TestViewIsCopied(t *testing.T) {
	v := View("abc")
	b := v.Bytes()
	b[0] = 'z'

	if v.String() != "abc" {
		t.Error("Bytes() aliases the view")
	}

	var sb strings.Builder
	if n, err := v.WriteTo(&sb); err != nil || n != 3 || sb.String() != "abc" {
		t.Errorf("WriteTo() = %d, %v", n, err)
	}
}
