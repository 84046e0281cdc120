//go:build cgo_sqlite

package store

// Importing mattn/go-sqlite3 registers the "sqlite3" driver with
// database/sql as a side effect. This is the optional cgo alternative to
// the default pure-Go driver in driver_modernc.go.
import (
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"
