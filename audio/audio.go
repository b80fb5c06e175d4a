// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	goaudio "github.com/go-audio/audio"
)

// Header describes where the PCM samples of a container live.
type Header struct {
	// Format holds the sample rate and channel count.
	Format *goaudio.Format
	// BitDepth is the number of bits per sample.
	BitDepth int
	// DataOffset is the absolute byte offset of the first sample.
	DataOffset int64
	// DataSize is the length of the sample data in bytes. Zero when the
	// container does not say.
	DataSize int64
	// ByteOrder of the samples: little endian for WAV, big endian for AIFF.
	ByteOrder binary.ByteOrder
}

// SampleRate in Hz, zero when unknown.
func (h Header) SampleRate() int {
	if h.Format == nil {
		return 0
	}

	return h.Format.SampleRate
}

// Channels count, zero when unknown.
func (h Header) Channels() int {
	if h.Format == nil {
		return 0
	}

	return h.Format.NumChannels
}

// Samples is the number of samples in the data chunk.
func (h Header) Samples() int64 {
	if h.BitDepth <= 0 {
		return 0
	}

	return h.DataSize / int64(h.BitDepth/8)
}

// DataEnd is the absolute byte offset just past the sample data, or zero
// when the data size is unknown.
func (h Header) DataEnd() int64 {
	if h.DataSize <= 0 {
		return 0
	}

	return h.DataOffset + h.DataSize
}

// Locator parses a container header and finds its sample data.
//
// Locate reads from the start of r. The position of r afterwards is
// unspecified; callers seek to DataOffset themselves.
type Locator interface {
	Locate(r io.ReadSeeker) (Header, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(r io.ReadSeeker) (Header, error)

// Locate calls f(r).
func (f LocatorFunc) Locate(r io.ReadSeeker) (Header, error) { return f(r) }

// Registry for locators by format key (e.g., "wav", "aiff").
type Registry struct {
	locators map[string]Locator

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		locators: make(map[string]Locator),
		mtx:      &sync.Mutex{},
	}
}

// Register binds format to l. Keys are case-insensitive and a leading dot
// is ignored, so file extensions can be used directly.
func (r *Registry) Register(format string, l Locator) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.locators[formatKey(format)] = l
}

func (r *Registry) Get(format string) (Locator, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	l, ok := r.locators[formatKey(format)]
	return l, ok
}

// Formats returns the number of registered format keys.
func (r *Registry) Formats() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return len(r.locators)
}

// Locate picks a locator by the extension of name and runs it on rs.
func (r *Registry) Locate(name string, rs io.ReadSeeker) (Header, error) {
	ext := filepath.Ext(name)

	l, ok := r.Get(ext)
	if !ok {
		return Header{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return l.Locate(rs)
}

func formatKey(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}
