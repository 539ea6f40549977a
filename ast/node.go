package ast

import (
	"strconv"

	"github.com/expr-lang/expr/vm"
)

// Position locates a node in its source.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number in bytes, starting at 1
}

// String formats the position as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Node is one parsed template fragment: [*Raw], [*Interpolation], or [*Tag].
type Node interface {
	Pos() Position
	node()
}

// Raw is template content copied to the view verbatim.
type Raw struct {
	Text     []byte
	Position Position
}

// Interpolation writes the textual form of one expression.
type Interpolation struct {
	Expr     Expr
	Position Position
}

// Tag invokes the handler registered under Name.
//
// Body is nil for a tag without a body and non-nil (possibly empty) for a tag
// that wraps child content. Next links the chained clause that follows this
// one inside the same block, such as the else of an if.
type Tag struct {
	Name     string
	Args     []Arg
	Body     []Node
	Next     *Tag
	Position Position
}

// HasBody reports whether the tag wraps child content.
func (t *Tag) HasBody() bool { return t.Body != nil }

func (r *Raw) Pos() Position           { return r.Position }
func (i *Interpolation) Pos() Position { return i.Position }
func (t *Tag) Pos() Position           { return t.Position }

func (*Raw) node()           {}
func (*Interpolation) node() {}
func (*Tag) node()           {}

// Arg is one tag argument. Name is set for a binding argument
// ("item in items"), in which case Expr is the bound collection.
type Arg struct {
	Name string
	Expr Expr
}

// Expr is an expression compiled for evaluation against a Context Value.
type Expr struct {
	Source  string
	Program *vm.Program
}
