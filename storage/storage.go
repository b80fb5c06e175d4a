// SPDX-License-Identifier: EPL-2.0

// Package storage is the blocking file API the request manager drives.
//
// Only the service goroutine reads, seeks or closes a File. AtEnd is the one
// method the render goroutine may call, so implementations answer it from
// atomically tracked state and never touch the operating system.
package storage

import "io"

// File is an open, seekable sample file.
type File interface {
	io.Reader
	io.Seeker
	io.Closer

	// AtEnd reports whether the read position is at or past the end of
	// the readable data. Safe to call from any goroutine.
	AtEnd() bool
}

// FS opens files by name.
type FS interface {
	Open(name string) (File, error)
}
