//go:build !cgo_sqlite

package cmd

import _ "modernc.org/sqlite" // database/sql driver "sqlite"

// driverName is the database/sql driver opened for --db.
const driverName = "sqlite"
