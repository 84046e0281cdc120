//go:build !cgo_sqlite

package store

// Importing modernc.org/sqlite registers the "sqlite" driver with
// database/sql as a side effect.
import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure-Go SQLite driver. Building with the
// cgo_sqlite tag swaps this for the mattn/go-sqlite3 cgo driver instead.
const driverName = "sqlite"
