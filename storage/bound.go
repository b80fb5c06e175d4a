// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"io"
	"math"
	"sync/atomic"
)

// Bound returns a File that stops reading at absolute offset end. pos must
// be the current position of f. A non-positive end leaves f unbounded.
//
// Containers often carry chunks after the sample data; bounding the file to
// the data chunk keeps them out of the sample stream.
func Bound(f File, pos, end int64) File {
	if end <= 0 {
		end = math.MaxInt64
	}

	b := &bounded{f: f, end: end}
	b.pos.Store(pos)

	return b
}

type bounded struct {
	f   File
	end int64
	pos atomic.Int64
}

func (b *bounded) Read(p []byte) (int, error) {
	remain := b.end - b.pos.Load()
	if remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remain {
		p = p[:remain]
	}

	n, err := b.f.Read(p)
	b.pos.Add(int64(n))

	return n, err
}

func (b *bounded) Seek(offset int64, whence int) (int64, error) {
	pos, err := b.f.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	b.pos.Store(pos)

	return pos, nil
}

func (b *bounded) Close() error { return b.f.Close() }

func (b *bounded) AtEnd() bool {
	return b.pos.Load() >= b.end || b.f.AtEnd()
}
