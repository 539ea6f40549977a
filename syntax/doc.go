// Package syntax implements the default template grammar.
//
// Template text is copied verbatim except for directives introduced by '#':
//
//	#(expr)                   interpolation
//	#name(arg, ...)           tag
//	#name(arg, ...): ... #endname
//	#name: ... #endname       tag with a body and no arguments
//	#if(a): ... #elseif(b): ... #else: ... #endif
//	\#                        literal '#'
//
// Arguments are expr-lang expressions separated by top-level commas. For
// binder tags (by default only "for") an argument of the form "item in items"
// binds a name to the collection on its right.
//
// A '#' not followed by '(' or an identifier is literal text. So is an
// identifier directive with neither '(' nor ':' after it, unless it is a
// clause keyword or an #end closing an open block, which lets anchors
// ("#top") and colours ("#fff") pass through untouched.
package syntax
