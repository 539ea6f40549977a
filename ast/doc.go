// Package ast defines the parsed form of a template and the boundary between
// the render pipeline and a concrete template grammar.
//
// A [Parser] consumes a [Scanner] (a byte cursor plus a diagnostic label) and
// returns an ordered sequence of [Node] values. Nodes are immutable after the
// parser returns them, so one sequence may be cached and serialized by many
// goroutines at once.
package ast
