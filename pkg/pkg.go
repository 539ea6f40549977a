//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the folio module embedded at build time.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and default config paths.
	Name = "folio"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Cached template view renderer"
	// EnvPrefix prefixes every environment variable read by folio.
	EnvPrefix = "FOLIO_"
)
