//go:build !sqlite_cgo
// +build !sqlite_cgo

package cachestore

// Default build: pure Go SQLite, no C compiler needed, cross-compiles
// cleanly for the packaged launcher binary.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
