// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Dir is an FS rooted at a directory. Names may not escape the root.
type Dir string

// Open opens name for reading.
func (d Dir) Open(name string) (File, error) {
	f, err := os.OpenInRoot(string(d), name)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w", err)
	}

	return &osFile{f: f, size: info.Size()}, nil
}

// osFile tracks its own position so AtEnd never needs a syscall.
type osFile struct {
	f    *os.File
	size int64
	pos  atomic.Int64
}

func (o *osFile) Read(p []byte) (int, error) {
	n, err := o.f.Read(p)
	o.pos.Add(int64(n))

	return n, err
}

func (o *osFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := o.f.Seek(offset, whence)
	if err != nil {
		return pos, fmt.Errorf("%w", err)
	}
	o.pos.Store(pos)

	return pos, nil
}

func (o *osFile) Close() error {
	err := o.f.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (o *osFile) AtEnd() bool { return o.pos.Load() >= o.size }

var _ io.ReadSeekCloser = (*osFile)(nil)
