// Package cli contains the command line interface for folio.
//
// # Usage
//
//	folio [flags] render <template>
//	folio [flags] ast <template>
//	folio [flags] store [<files> ...]
//	folio [flags] preview [<filter>]
//
// The render command is the default, so "folio -d site.yaml index" renders
// templates/index.tpl against site.yaml.
//
// # Configuration
//
// Template options are resolved in this order, each overriding the last:
//
//  1. built-in defaults
//  2. FOLIO_* variables from dotenv files: ~/.config/folio/.env (if present),
//     then each --env-file
//  3. FOLIO_* variables in the process environment
//  4. ~/.config/folio/config.json and ~/.config/folio/config.yaml
//  5. command-line flags
//
// Recognized variables are FOLIO_DIRECTORY, FOLIO_FILE_ENDING, FOLIO_CACHE,
// and FOLIO_MAX_DEPTH.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, kitchen, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/folio/pprof)
//
// # Databases
//
// With --db, templates are read from a SQLite table instead of the template
// directory. The pure-Go modernc.org/sqlite driver is used unless built with
// -tags cgo_sqlite, which selects github.com/mattn/go-sqlite3.
package cli
