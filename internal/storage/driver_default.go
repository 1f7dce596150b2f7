//go:build !sqlite_vec

package storage

// Default build: pure-Go SQLite driver, no cgo required. The sqlite-vec
// extension cannot be loaded into this driver, so databases opened under
// this build tag run Tier 2 (keyword-only retrieval) unless a database
// previously built with -tags sqlite_vec already populated vec_index — in
// that case reads still work, writes to vec_index are simply skipped.
import (
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver name registered for this build.
const driverName = "sqlite"

// vecCapableBuild reports whether this build can load the sqlite-vec
// extension at all (independent of whether detection at runtime succeeds).
const vecCapableBuild = false
