// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVHeaderSize is the size of the canonical header written by WAV and
// EncodeWAV: RIFF header, 16 byte fmt chunk and the data chunk header.
const WAVHeaderSize = 44

// WAV returns a mono 16-bit PCM WAV file holding samples.
func WAV(tb testing.TB, sampleRate int, samples []int16) []byte {
	tb.Helper()

	out, err := EncodeWAV(sampleRate, 16, 1, widen(samples))
	if err != nil {
		tb.Fatalf("encode fixture: %v", err)
	}

	return out
}

// MustWAV is WAV for callers without a testing.TB. It panics on failure.
func MustWAV(sampleRate int, samples []int16) []byte {
	out, err := EncodeWAV(sampleRate, 16, 1, widen(samples))
	if err != nil {
		panic(err)
	}

	return out
}

// EncodeWAV runs the go-audio encoder over interleaved data and returns the
// resulting file.
func EncodeWAV(sampleRate, bitDepth, channels int, data []int) ([]byte, error) {
	w := &writeSeeker{}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return w.buf, nil
}

func widen(samples []int16) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(s)
	}

	return out
}

// writeSeeker is an in-memory io.WriteSeeker; the encoder seeks back to
// patch chunk sizes.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n

	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("audiotest: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, errNegativeSeek
	}
	w.pos = int(pos)

	return pos, nil
}

// InsertChunk returns a copy of a canonical WAV file with an extra chunk
// placed between the fmt and data chunks. The RIFF size is updated.
func InsertChunk(file []byte, id string, payload []byte) []byte {
	const fmtEnd = 36

	chunk := riffChunk(binary.LittleEndian, id, payload)

	out := make([]byte, 0, len(file)+len(chunk))
	out = append(out, file[:fmtEnd]...)
	out = append(out, chunk...)
	out = append(out, file[fmtEnd:]...)

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

// AppendChunk returns a copy of a WAV file with an extra chunk after the
// data chunk. The RIFF size is updated.
func AppendChunk(file []byte, id string, payload []byte) []byte {
	out := append(bytes.Clone(file), riffChunk(binary.LittleEndian, id, payload)...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

// AIFFLayout controls the shape of a file built by AIFF. The zero value is
// a mono 16-bit file with the sample data right after the SSND header.
type AIFFLayout struct {
	Channels int
	BitDepth int
	// Offset is the SSND offset field: bytes of padding before the first
	// sample.
	Offset uint32
	// Before and After are raw chunks placed around the SSND chunk.
	Before []byte
	After  []byte
	// NoSound omits the SSND chunk.
	NoSound bool
}

// AIFF builds a big-endian AIFF file holding samples.
func AIFF(sampleRate int, samples []int16, layout AIFFLayout) []byte {
	channels := layout.Channels
	if channels == 0 {
		channels = 1
	}
	bitDepth := layout.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	comm := new(bytes.Buffer)
	_ = binary.Write(comm, binary.BigEndian, uint16(channels))
	_ = binary.Write(comm, binary.BigEndian, uint32(len(samples)/channels))
	_ = binary.Write(comm, binary.BigEndian, uint16(bitDepth))
	comm.Write(Extended(sampleRate))

	body := new(bytes.Buffer)
	body.WriteString("AIFF")
	body.Write(AIFFChunk("COMM", comm.Bytes()))
	body.Write(layout.Before)

	if !layout.NoSound {
		ssnd := new(bytes.Buffer)
		_ = binary.Write(ssnd, binary.BigEndian, layout.Offset)
		_ = binary.Write(ssnd, binary.BigEndian, uint32(0))
		ssnd.Write(make([]byte, layout.Offset))
		for _, s := range samples {
			_ = binary.Write(ssnd, binary.BigEndian, s)
		}
		body.Write(AIFFChunk("SSND", ssnd.Bytes()))
	}

	body.Write(layout.After)

	out := new(bytes.Buffer)
	out.WriteString("FORM")
	_ = binary.Write(out, binary.BigEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

// AIFFChunk encodes a big-endian chunk, padded to an even length.
func AIFFChunk(id string, payload []byte) []byte {
	return riffChunk(binary.BigEndian, id, payload)
}

func riffChunk(order binary.ByteOrder, id string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+1)
	copy(out[:4], id)
	order.PutUint32(out[4:8], uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}

	return out
}

// Extended encodes a positive integer sample rate as the 80-bit IEEE 754
// extended float used by the AIFF COMM chunk.
func Extended(rate int) []byte {
	out := make([]byte, 10)
	if rate <= 0 {
		return out
	}

	n := bits.Len64(uint64(rate))
	binary.BigEndian.PutUint16(out[0:2], uint16(16383+n-1))
	binary.BigEndian.PutUint64(out[2:10], uint64(rate)<<(64-n))

	return out
}
