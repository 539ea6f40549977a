// Package cache stores parsed templates keyed by a fingerprint of their bytes.
//
// A [Store] never decides validity on the key alone: every [Entry] carries the
// exact bytes it was parsed from, and callers compare them before trusting
// the nodes. A digest collision therefore degrades to a miss.
package cache

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/folio/ast"
)

// Key identifies template bytes by their 128-bit xxh3 digest and length.
type Key struct {
	Hash   xxh3.Uint128
	Length int
}

// Fingerprint returns the Key of src.
func Fingerprint(src []byte) Key {
	return Key{Hash: xxh3.Hash128(src), Length: len(src)}
}

// String formats the key as fixed-width hex followed by the length. Distinct
// keys format distinctly.
func (k Key) String() string {
	return fmt.Sprintf("%016x%016x-%d", k.Hash.Hi, k.Hash.Lo, k.Length)
}

// Entry is one cached parse result.
type Entry struct {
	Source []byte
	Nodes  []ast.Node
}

// Matches reports whether e was parsed from src.
func (e Entry) Matches(src []byte) bool {
	return len(e.Source) == len(src) && bytes.Equal(e.Source, src)
}

// Store maps fingerprints to parse results. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(k Key) (Entry, bool)
	Put(k Key, e Entry)
}

// Memory is an unbounded in-process [Store]. The last write for a key wins.
type Memory struct {
	m   sync.Map
	len atomic.Int64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory { return &Memory{} }

// Get implements [Store].
func (c *Memory) Get(k Key) (Entry, bool) {
	v, ok := c.m.Load(k)
	if !ok {
		return Entry{}, false
	}

	e, ok := v.(Entry)

	return e, ok
}

// Put implements [Store]. The entry's source is copied so later mutation of
// the caller's buffer cannot invalidate it.
func (c *Memory) Put(k Key, e Entry) {
	e.Source = bytes.Clone(e.Source)
	if _, loaded := c.m.Swap(k, e); !loaded {
		c.len.Add(1)
	}
}

// Len returns the number of cached entries.
func (c *Memory) Len() int { return int(c.len.Load()) }

// Clear removes every entry.
func (c *Memory) Clear() {
	c.m.Range(func(k, _ any) bool {
		if _, loaded := c.m.LoadAndDelete(k); loaded {
			c.len.Add(-1)
		}

		return true
	})
}

type disabled struct{}

// Disabled returns a [Store] that never retains anything.
func Disabled() Store { return disabled{} }

func (disabled) Get(Key) (Entry, bool) { return Entry{}, false }
func (disabled) Put(Key, Entry)        {}
