//go:build cgo_sqlite

package cmd

import _ "github.com/mattn/go-sqlite3" // database/sql driver "sqlite3"

// driverName is the database/sql driver opened for --db.
const driverName = "sqlite3"
