//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// busyTimeoutDSN is the modernc.org/sqlite form of the busy timeout parameter.
const busyTimeoutDSN = "_pragma=busy_timeout(5000)"
