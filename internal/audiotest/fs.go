// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/ik5/pcmstream/storage"
)

var errNegativeSeek = errors.New("audiotest: negative position")

// FS is an in-memory storage.FS. Faults can be injected per file name and
// every operation is counted.
type FS struct {
	mtx      sync.Mutex
	files    map[string][]byte
	openErr  map[string]error
	readErr  map[string]error
	seekErr  map[string]error
	readHook func(name string)

	opens  atomic.Int64
	reads  atomic.Int64
	seeks  atomic.Int64
	closes atomic.Int64
}

var _ storage.FS = (*FS)(nil)

// NewFS returns an empty FS.
func NewFS() *FS {
	return &FS{
		files:   make(map[string][]byte),
		openErr: make(map[string]error),
		readErr: make(map[string]error),
		seekErr: make(map[string]error),
	}
}

// Add stores data under name, replacing any previous content.
func (m *FS) Add(name string, data []byte) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.files[name] = data
}

// FailOpen makes Open(name) return err. A nil err clears the fault.
func (m *FS) FailOpen(name string, err error) { m.setFault(m.openErr, name, err) }

// FailRead makes every Read of name return err.
func (m *FS) FailRead(name string, err error) { m.setFault(m.readErr, name, err) }

// FailSeek makes every Seek of name return err.
func (m *FS) FailSeek(name string, err error) { m.setFault(m.seekErr, name, err) }

// OnRead installs a hook run before every Read. It may block, which is how
// tests hold a read in flight.
func (m *FS) OnRead(hook func(name string)) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.readHook = hook
}

func (m *FS) setFault(faults map[string]error, name string, err error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if err == nil {
		delete(faults, name)
		return
	}
	faults[name] = err
}

// Open implements storage.FS.
func (m *FS) Open(name string) (storage.File, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if err := m.openErr[name]; err != nil {
		return nil, err
	}

	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, name)
	}

	m.opens.Add(1)

	return &File{fs: m, name: name, data: data}, nil
}

// Opens is the number of successful Open calls.
func (m *FS) Opens() int64 { return m.opens.Load() }

// Reads is the number of Read calls on files of m.
func (m *FS) Reads() int64 { return m.reads.Load() }

// Seeks is the number of Seek calls on files of m.
func (m *FS) Seeks() int64 { return m.seeks.Load() }

// Closes is the number of Close calls on files of m.
func (m *FS) Closes() int64 { return m.closes.Load() }

// OpenFiles is the number of files opened and not yet closed.
func (m *FS) OpenFiles() int64 { return m.opens.Load() - m.closes.Load() }

func (m *FS) fault(faults map[string]error, name string) (func(string), error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.readHook, faults[name]
}

// File is an open file of FS.
type File struct {
	fs     *FS
	name   string
	data   []byte
	pos    atomic.Int64
	closed atomic.Bool
}

var _ storage.File = (*File)(nil)

func (f *File) Read(p []byte) (int, error) {
	f.fs.reads.Add(1)

	hook, err := f.fs.fault(f.fs.readErr, f.name)
	if hook != nil {
		hook(f.name)
	}
	if err != nil {
		return 0, err
	}
	if f.closed.Load() {
		return 0, fs.ErrClosed
	}

	pos := f.pos.Load()
	if pos >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data[pos:])
	f.pos.Add(int64(n))

	return n, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.fs.seeks.Add(1)

	if _, err := f.fs.fault(f.fs.seekErr, f.name); err != nil {
		return f.pos.Load(), err
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.pos.Load() + offset
	case io.SeekEnd:
		pos = int64(len(f.data)) + offset
	default:
		return 0, fmt.Errorf("audiotest: invalid whence %d", whence)
	}

	if pos < 0 {
		return 0, errNegativeSeek
	}
	f.pos.Store(pos)

	return pos, nil
}

func (f *File) Close() error {
	if f.closed.Swap(true) {
		return fs.ErrClosed
	}
	f.fs.closes.Add(1)

	return nil
}

// AtEnd implements storage.File.
func (f *File) AtEnd() bool { return f.pos.Load() >= int64(len(f.data)) }

// Closed reports whether Close was called.
func (f *File) Closed() bool { return f.closed.Load() }
