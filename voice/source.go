// SPDX-License-Identifier: EPL-2.0

package voice

import (
	"fmt"
	"io"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/formats/aiff"
	"github.com/ik5/pcmstream/formats/wav"
	"github.com/ik5/pcmstream/storage"
)

// Source is a sample file opened, parsed and positioned on its first
// sample, ready to be attached to a voice.
type Source struct {
	Path   string
	Header audio.Header

	file storage.File
}

// Close releases the file of a source that will not be attached.
func (s *Source) Close() error {
	if s == nil || s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// DefaultRegistry knows the WAV and AIFF locators under their usual file
// extensions.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Locator{})
	r.Register("wave", wav.Locator{})
	r.Register("aif", aiff.Locator{})
	r.Register("aiff", aiff.Locator{})
	r.Register("aifc", aiff.Locator{})

	return r
}

// prepare does the blocking part of opening a file.
func prepare(fsys storage.FS, registry *audio.Registry, path string) (*Source, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}

	hdr, err := registry.Locate(path, f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrHeaderParse, path, err)
	}

	if _, err := f.Seek(hdr.DataOffset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSeekFailed, path, err)
	}

	return &Source{
		Path:   path,
		Header: hdr,
		file:   storage.Bound(f, hdr.DataOffset, hdr.DataEnd()),
	}, nil
}
