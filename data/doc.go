// Package data defines the Context Value a template renders against.
//
// A [Value] is a closed variant over null, bool, int, float, string, array,
// dictionary, and an opaque variable. Values are immutable: a render call
// builds one, reads it while serializing, and drops it afterwards.
//
// The package also provides the [Encoder] collaborator that turns arbitrary
// application objects into Values, and [Decode] for YAML/JSON documents.
package data
