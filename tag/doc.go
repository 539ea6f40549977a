// Package tag defines the handler protocol used to evaluate template tags.
//
// A [Handler] receives a [Context] describing one invocation: the tag name,
// its evaluated arguments, the current Context Value, a lazily rendered body,
// the chained clause that follows it, and the ambient environment. Handlers
// are looked up by name in an immutable [Registry]; an unregistered name is
// always an error.
//
// [Builtins] returns the default handler set, including control flow
// (if, unless, for), string and collection helpers, and layout composition
// (include, extend, export, import).
package tag
