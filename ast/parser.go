package ast

import "context"

// Parser converts template bytes into a node sequence.
//
// Implementations must be deterministic: the same bytes always produce an
// equivalent sequence, which is what makes caching by content sound.
// Failures should be reported as [*ParseError].
type Parser interface {
	Parse(ctx context.Context, s *Scanner) ([]Node, error)
}

// ParserFunc adapts a function to the [Parser] interface.
type ParserFunc func(ctx context.Context, s *Scanner) ([]Node, error)

// Parse implements [Parser].
func (f ParserFunc) Parse(ctx context.Context, s *Scanner) ([]Node, error) {
	return f(ctx, s)
}
