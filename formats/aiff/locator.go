// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/pcmstream/audio"
)

// Locator finds the sample data of a mono 16-bit AIFF or uncompressed AIFC
// file.
type Locator struct{}

var _ audio.Locator = Locator{}

// Locate implements audio.Locator. On success r is positioned at the first
// sample.
func (Locator) Locate(r io.ReadSeeker) (audio.Header, error) {
	snd, err := findSound(r)
	if err != nil {
		return audio.Header{}, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return audio.Header{}, fmt.Errorf("%w", err)
	}

	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return audio.Header{}, ErrNotAiffFile
	}

	if dec.BitDepth != 16 {
		return audio.Header{}, ErrOnlyPCM16bitSupported
	}
	if dec.NumChans != 1 {
		return audio.Header{}, ErrOnlyMonoSupported
	}

	if _, err := r.Seek(snd.offset, io.SeekStart); err != nil {
		return audio.Header{}, fmt.Errorf("%w", err)
	}

	return audio.Header{
		Format:     dec.Format(),
		BitDepth:   int(dec.BitDepth),
		DataOffset: snd.offset,
		DataSize:   snd.size,
		ByteOrder:  snd.order,
	}, nil
}

// sound is the position of the samples inside the SSND chunk.
type sound struct {
	offset int64
	size   int64
	order  binary.ByteOrder
}

// findSound walks the chunk list looking for SSND. The go-audio decoder
// keeps the data offset to itself, so the walk is done by hand.
func findSound(r io.ReadSeeker) (sound, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return sound{}, fmt.Errorf("%w", err)
	}

	var form [12]byte
	if _, err := io.ReadFull(r, form[:]); err != nil {
		return sound{}, fmt.Errorf("%w: %w", ErrNotAiffFile, err)
	}

	kind := string(form[8:12])
	if string(form[0:4]) != "FORM" || (kind != "AIFF" && kind != "AIFC") {
		return sound{}, ErrNotAiffFile
	}

	snd := sound{order: binary.BigEndian}
	pos := int64(len(form))

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return sound{}, ErrSoundChunkNotFound
		}

		id := string(hdr[:4])
		size := int64(binary.BigEndian.Uint32(hdr[4:]))

		switch {
		case id == "COMM" && kind == "AIFC":
			order, err := compression(r, size)
			if err != nil {
				return sound{}, err
			}
			snd.order = order

		case id == "SSND":
			var ssnd [8]byte
			if _, err := io.ReadFull(r, ssnd[:]); err != nil {
				return sound{}, fmt.Errorf("%w: %w", ErrSoundChunkNotFound, err)
			}

			skip := int64(binary.BigEndian.Uint32(ssnd[:4]))
			snd.offset = pos + int64(len(hdr)+len(ssnd)) + skip
			snd.size = max(size-int64(len(ssnd))-skip, 0)

			return snd, nil
		}

		// chunks are padded to an even length
		pos += int64(len(hdr)) + size + size&1
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return sound{}, fmt.Errorf("%w", err)
		}
	}
}

// compression reads the AIFC compression type from a COMM chunk and maps
// the uncompressed ones to a byte order.
func compression(r io.Reader, size int64) (binary.ByteOrder, error) {
	const typeOffset = 18

	if size < typeOffset+4 {
		return nil, ErrNotAiffFile
	}

	comm := make([]byte, typeOffset+4)
	if _, err := io.ReadFull(r, comm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAiffFile, err)
	}

	switch string(comm[typeOffset:]) {
	case "NONE", "twos":
		return binary.BigEndian, nil
	case "sowt":
		return binary.LittleEndian, nil
	default:
		return nil, ErrOnlyPCM16bitSupported
	}
}
