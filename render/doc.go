// Package render turns template bytes into views.
//
// A [Renderer] parses template bytes with an [ast.Parser], caches the
// resulting nodes by content fingerprint, and serializes them against a
// Context Value with a [Serializer]. Templates addressed by path are resolved
// against a base directory and file ending, then fetched through a [Loader].
//
// Every entry point blocks and honours its context. The *Async variants
// return a [Future] for callers that want to compose renders without
// blocking.
package render
