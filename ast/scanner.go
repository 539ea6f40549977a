package ast

// Scanner is a sequential cursor over template bytes.
//
// Label names the source in diagnostics only; it never affects parsing.
type Scanner struct {
	Label string

	src    []byte
	offset int
	line   int
	column int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src []byte, label string) *Scanner {
	return &Scanner{
		Label:  label,
		src:    src,
		line:   1,
		column: 1,
	}
}

// Source returns the complete input.
func (s *Scanner) Source() []byte { return s.src }

// EOF reports whether all input has been consumed.
func (s *Scanner) EOF() bool { return s.offset >= len(s.src) }

// Position returns the position of the next unread byte.
func (s *Scanner) Position() Position {
	return Position{Offset: s.offset, Line: s.line, Column: s.column}
}

// Peek returns the next unread byte, or 0 at end of input.
func (s *Scanner) Peek() byte {
	return s.PeekAt(0)
}

// PeekAt returns the byte n positions past the next unread one, or 0.
func (s *Scanner) PeekAt(n int) byte {
	if i := s.offset + n; i >= 0 && i < len(s.src) {
		return s.src[i]
	}

	return 0
}

// HasPrefix reports whether the unread input starts with p.
func (s *Scanner) HasPrefix(p string) bool {
	rest := s.src[min(s.offset, len(s.src)):]

	return len(rest) >= len(p) && string(rest[:len(p)]) == p
}

// Next consumes and returns one byte, or 0 at end of input.
func (s *Scanner) Next() byte {
	if s.EOF() {
		return 0
	}

	c := s.src[s.offset]
	s.offset++

	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}

	return c
}

// Skip consumes n bytes.
func (s *Scanner) Skip(n int) {
	for range n {
		s.Next()
	}
}

// Slice returns the input between two offsets.
func (s *Scanner) Slice(from, to int) []byte {
	return s.src[from:to]
}
