package syntax

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/folio/ast"
)

// Parser is the default [ast.Parser]. It is stateless after construction and
// safe for concurrent use.
type Parser struct {
	binders map[string]bool
	clauses map[string][]string
	keyword map[string]bool
}

// Option configures a [Parser].
type Option func(*Parser)

// WithBinders sets the tags whose arguments may use "name in expr" bindings,
// replacing the default set.
func WithBinders(names ...string) Option {
	return func(p *Parser) {
		p.binders = make(map[string]bool, len(names))
		for _, n := range names {
			p.binders[n] = true
		}
	}
}

// WithClauses declares the ordered clause keywords that may follow a block
// opened by tag. The last clause may appear at most once.
func WithClauses(tag string, clauses ...string) Option {
	return func(p *Parser) {
		p.clauses[tag] = slices.Clone(clauses)
	}
}

// New returns a Parser with the default binders and clauses applied before
// opts.
func New(opts ...Option) *Parser {
	p := &Parser{
		binders: map[string]bool{"for": true},
		clauses: map[string][]string{
			"if":     {"elseif", "else"},
			"unless": {"else"},
			"for":    {"else"},
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	p.keyword = make(map[string]bool)
	for _, list := range p.clauses {
		for _, c := range list {
			p.keyword[c] = true
		}
	}

	return p
}

// Parse implements [ast.Parser].
func (p *Parser) Parse(ctx context.Context, s *ast.Scanner) ([]ast.Node, error) {
	st := &state{p: p, s: s}

	for !s.EOF() {
		pos := s.Position()

		switch c := s.Peek(); {
		case c == '\\' && s.PeekAt(1) == '#':
			s.Skip(2)
			st.text('#', pos)

		case c == '#':
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if err := st.directive(pos); err != nil {
				return nil, err
			}

		default:
			s.Next()
			st.text(c, pos)
		}
	}

	st.flush()

	if n := len(st.stack); n > 0 {
		f := st.stack[n-1]

		return nil, s.ErrorAt(f.root.Position, "missing #end"+f.root.Name, nil)
	}

	return st.top, nil
}

// frame is an open block awaiting its end tag.
type frame struct {
	root  *ast.Tag
	cur   *ast.Tag // clause currently collecting body nodes
	index int      // clause index of cur, -1 for root
	nodes []ast.Node
}

type state struct {
	p     *Parser
	s     *ast.Scanner
	stack []*frame
	top   []ast.Node

	raw    []byte
	rawPos ast.Position
}

func (st *state) text(c byte, pos ast.Position) {
	if len(st.raw) == 0 {
		st.rawPos = pos
	}

	st.raw = append(st.raw, c)
}

func (st *state) flush() {
	if len(st.raw) == 0 {
		return
	}

	st.emit(&ast.Raw{Text: st.raw, Position: st.rawPos})
	st.raw = nil
}

func (st *state) emit(n ast.Node) {
	if k := len(st.stack); k > 0 {
		st.stack[k-1].nodes = append(st.stack[k-1].nodes, n)

		return
	}

	st.top = append(st.top, n)
}

func (st *state) directive(pos ast.Position) error {
	s := st.s

	switch next := s.PeekAt(1); {
	case next == '(':
		s.Next()

		src, err := st.group(pos, "unterminated expression")
		if err != nil {
			return err
		}

		if strings.TrimSpace(src) == "" {
			return s.ErrorAt(pos, "empty expression", nil)
		}

		e, err := st.compile(pos, src)
		if err != nil {
			return err
		}

		st.flush()
		st.emit(&ast.Interpolation{Expr: e, Position: pos})

		return nil

	case isIdentStart(next):
		s.Next()

	default:
		s.Next()
		st.text('#', pos)

		return nil
	}

	name := st.ident()
	opens := s.Peek() == '(' || s.Peek() == ':'

	if rest, ok := strings.CutPrefix(name, "end"); ok && !opens && st.closes(rest) {
		return st.close(pos, name, rest)
	}

	if st.p.keyword[name] {
		return st.clause(pos, name)
	}

	// Anchors and colours read as text.
	if !opens {
		st.text('#', pos)
		for i := range len(name) {
			st.text(name[i], pos)
		}

		return nil
	}

	tag := &ast.Tag{Name: name, Position: pos}

	if s.Peek() == '(' {
		args, err := st.args(pos, name)
		if err != nil {
			return err
		}

		tag.Args = args
	}

	st.flush()
	st.emit(tag)

	if s.Peek() == ':' {
		s.Next()

		st.stack = append(st.stack, &frame{root: tag, cur: tag, index: -1})
	}

	return nil
}

// closes reports whether #end<name> is a closing directive: name is an open
// block, or a tag known to take a body.
func (st *state) closes(name string) bool {
	if name == "" {
		return false
	}

	if st.p.binders[name] || len(st.p.clauses[name]) > 0 {
		return true
	}

	return slices.ContainsFunc(st.stack, func(f *frame) bool {
		return f.root.Name == name
	})
}

func (st *state) close(pos ast.Position, directive, name string) error {
	st.flush()

	k := len(st.stack)
	if k == 0 {
		return st.s.ErrorAt(pos, "unmatched #"+directive, nil)
	}

	f := st.stack[k-1]
	if f.root.Name != name {
		return st.s.ErrorAt(
			pos, "unmatched #"+directive+", expected #end"+f.root.Name, nil,
		)
	}

	f.cur.Body = body(f.nodes)
	st.stack = st.stack[:k-1]

	return nil
}

func (st *state) clause(pos ast.Position, name string) error {
	st.flush()

	k := len(st.stack)
	if k == 0 {
		return st.s.ErrorAt(pos, "misplaced #"+name, nil)
	}

	f := st.stack[k-1]
	list := st.p.clauses[f.root.Name]
	idx := slices.Index(list, name)

	if idx < 0 || idx < f.index || (idx == f.index && idx == len(list)-1) {
		return st.s.ErrorAt(pos, "misplaced #"+name+" in #"+f.root.Name, nil)
	}

	next := &ast.Tag{Name: name, Position: pos}

	if st.s.Peek() == '(' {
		args, err := st.args(pos, name)
		if err != nil {
			return err
		}

		next.Args = args
	}

	if st.s.Peek() == ':' {
		st.s.Next()
	}

	f.cur.Body = body(f.nodes)
	f.cur.Next = next
	f.cur = next
	f.index = idx
	f.nodes = nil

	return nil
}

func (st *state) ident() string {
	start := st.s.Position().Offset
	for isIdentPart(st.s.Peek()) && !st.s.EOF() {
		st.s.Next()
	}

	return string(st.s.Slice(start, st.s.Position().Offset))
}

// group consumes a parenthesized span, honouring nested brackets and quoted
// strings, and returns the text between the outer parentheses.
func (st *state) group(pos ast.Position, reason string) (string, error) {
	s := st.s
	s.Next()

	start := s.Position().Offset
	depth := 1

	for {
		if s.EOF() {
			return "", s.ErrorAt(pos, reason, nil)
		}

		switch c := s.Next(); c {
		case '"', '\'', '`':
			if !skipQuoted(s, c) {
				return "", s.ErrorAt(pos, reason, nil)
			}

		case '(', '[', '{':
			depth++

		case ')', ']', '}':
			depth--
			if depth == 0 {
				if c != ')' {
					return "", s.ErrorAt(pos, "unbalanced brackets", nil)
				}

				return string(s.Slice(start, s.Position().Offset-1)), nil
			}
		}
	}
}

var binding = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s+in\s+(\S.*)$`)

func (st *state) args(pos ast.Position, name string) ([]ast.Arg, error) {
	src, err := st.group(pos, "unterminated argument list")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(src) == "" {
		return nil, nil
	}

	parts := splitArgs(src)
	args := make([]ast.Arg, 0, len(parts))

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, st.s.ErrorAt(pos, "empty argument in #"+name, nil)
		}

		var arg ast.Arg

		if st.p.binders[name] {
			if m := binding.FindStringSubmatch(strings.TrimSpace(part)); m != nil {
				arg.Name, part = m[1], m[2]
			}
		}

		arg.Expr, err = st.compile(pos, part)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	return args, nil
}

func (st *state) compile(pos ast.Position, src string) (ast.Expr, error) {
	src = strings.TrimSpace(src)

	prog, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return ast.Expr{}, st.s.ErrorAt(
			pos, "invalid expression "+strconv.Quote(src), err,
		)
	}

	return ast.Expr{Source: src, Program: prog}, nil
}

// splitArgs splits src at commas outside brackets and quotes.
func splitArgs(src string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)

	for i := 0; i < len(src); i++ {
		c := src[i]

		if quote != 0 {
			switch {
			case c == '\\' && quote != '`':
				i++
			case c == quote:
				quote = 0
			}

			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, src[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, src[start:])
}

func skipQuoted(s *ast.Scanner, quote byte) bool {
	for !s.EOF() {
		c := s.Next()

		switch {
		case c == '\\' && quote != '`':
			s.Next()
		case c == quote:
			return true
		}
	}

	return false
}

func body(nodes []ast.Node) []ast.Node {
	if nodes == nil {
		return []ast.Node{}
	}

	return nodes
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
