package render

import (
	"bytes"
	"io"
)

// View is the rendered output of a template. It must not be modified.
type View []byte

// String returns the view as text.
func (v View) String() string { return string(v) }

// Bytes returns a copy of the view.
func (v View) Bytes() []byte { return bytes.Clone(v) }

// WriteTo implements io.WriterTo.
func (v View) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(v)

	return int64(n), err
}
