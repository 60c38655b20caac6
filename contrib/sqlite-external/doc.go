// Package sqliteexternal registers the CGO SQLite driver (github.com/mattn/go-sqlite3).
//
// It is imported by core/sqlite when built with the cgo_sqlite tag:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/helps
//
// The default build uses the pure Go modernc.org/sqlite driver and needs no CGO.
// The CGO driver is faster for large content stores built with `helps import`.
package sqliteexternal
