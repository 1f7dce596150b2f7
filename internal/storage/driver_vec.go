//go:build sqlite_vec && cgo

package storage

// Tier 1 build: cgo SQLite driver with the real sqlite-vec ANN extension
// auto-loaded, mirroring codenerd's internal/store/init_vec.go exactly
// (same build tag, same vec.Auto() call).
import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver name registered for this build.
const driverName = "sqlite3"

// vecCapableBuild reports whether this build can load the sqlite-vec
// extension at all (independent of whether detection at runtime succeeds).
const vecCapableBuild = true

func init() {
	vec.Auto()
}
