// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/ik5/pcmstream/audio"
)

// formatPCM is the WAVE_FORMAT_PCM tag of the fmt chunk.
const formatPCM = 1

// Locator finds the PCM data of a mono 16-bit WAV file.
type Locator struct{}

var _ audio.Locator = Locator{}

// Locate implements audio.Locator. On success r is positioned at the first
// sample.
func (Locator) Locate(r io.ReadSeeker) (audio.Header, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return audio.Header{}, fmt.Errorf("%w", err)
	}

	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return audio.Header{}, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return audio.Header{}, ErrNotWavFile
	}

	if dec.WavAudioFormat != formatPCM || dec.BitDepth != 16 {
		return audio.Header{}, ErrOnlyPCM16bitSupported
	}
	if dec.NumChans != 1 {
		return audio.Header{}, ErrOnlyMonoSupported
	}

	if err := dec.FwdToPCM(); err != nil {
		return audio.Header{}, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}
	if dec.PCMChunk == nil {
		return audio.Header{}, ErrUnsupportedWavChunks
	}

	// The riff parser reads chunk headers straight from r, so after
	// FwdToPCM the reader sits on the first sample.
	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return audio.Header{}, fmt.Errorf("%w", err)
	}

	return audio.Header{
		Format:     dec.Format(),
		BitDepth:   int(dec.BitDepth),
		DataOffset: offset,
		DataSize:   int64(dec.PCMSize),
		ByteOrder:  binary.LittleEndian,
	}, nil
}
