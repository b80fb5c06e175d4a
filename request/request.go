// SPDX-License-Identifier: EPL-2.0

package request

import (
	"encoding/binary"

	"github.com/ik5/pcmstream/ring"
	"github.com/ik5/pcmstream/storage"
)

// Kind tags a Request.
type Kind uint8

const (
	// KindRead reads samples from File into Target.
	KindRead Kind = iota
	// KindSeek moves File to Offset.
	KindSeek
	// KindClose closes File. Close requests have no owner.
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindSeek:
		return "seek"
	case KindClose:
		return "close"
	default:
		return "unknown"
	}
}

// Owner is notified once a request it submitted has taken effect.
// Owners are compared by identity, so implementations should be pointers.
type Owner interface {
	Acknowledge()
}

// Request is one unit of blocking file work. Build one with Read, Seek or
// Close; the owner is stamped on submission.
type Request struct {
	Kind Kind
	File storage.File

	// Samples is the number of 16-bit samples to read. KindRead only.
	Samples int
	// Target receives the decoded samples. KindRead only.
	Target *ring.Buffer[int16]
	// Order is the byte order of the samples on disk. Nil means little
	// endian. KindRead only.
	Order binary.ByteOrder

	// Offset is the absolute byte position to seek to. KindSeek only.
	Offset int64

	owner Owner
	valid bool
}

// Read asks for up to samples samples from f to be appended to target.
func Read(f storage.File, samples int, target *ring.Buffer[int16], order binary.ByteOrder) Request {
	return Request{Kind: KindRead, File: f, Samples: samples, Target: target, Order: order}
}

// Seek asks for f to be positioned at the absolute byte offset.
func Seek(f storage.File, offset int64) Request {
	return Request{Kind: KindSeek, File: f, Offset: offset}
}

// Close asks for f to be closed.
func Close(f storage.File) Request {
	return Request{Kind: KindClose, File: f}
}

// Owner returns who submitted r, or nil.
func (r Request) Owner() Owner { return r.owner }

// Valid reports whether r is still to be executed.
func (r Request) Valid() bool { return r.valid }

func (r Request) order() binary.ByteOrder {
	if r.Order == nil {
		return binary.LittleEndian
	}

	return r.Order
}
