// SPDX-License-Identifier: EPL-2.0

package voice

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ik5/pcmstream/audio"
	"github.com/ik5/pcmstream/request"
	"github.com/ik5/pcmstream/ring"
	"github.com/ik5/pcmstream/storage"
	"github.com/ik5/pcmstream/utils"
)

// Processor produces one output sample per call.
type Processor interface {
	Process() float32
}

// Stats are the underrun counters of a voice.
type Stats struct {
	// UnderrunEvents counts contiguous runs of empty reads.
	UnderrunEvents uint64
	// UnderrunSamples counts every sample rendered as silence because the
	// buffer was empty.
	UnderrunSamples uint64
}

// Option configures a SampleReader.
type Option func(*SampleReader)

// WithLogger sets the voice logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *SampleReader) { r.logger = l }
}

// WithRegistry replaces the container registry used by Prepare.
func WithRegistry(reg *audio.Registry) Option {
	return func(r *SampleReader) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// SampleReader streams one mono 16-bit sample file through a ring buffer.
//
// Process, Render, Attach, Open, Restart and Close belong to the render
// goroutine. Prepare may run anywhere. The remaining accessors are safe
// from any goroutine.
type SampleReader struct {
	name     string
	cfg      Config
	fill     int
	fsys     storage.FS
	registry *audio.Registry
	manager  *request.Manager
	req      *request.Requester
	buf      *ring.Buffer[int16]
	logger   zerolog.Logger

	// render goroutine state
	file    storage.File
	header  audio.Header
	playing bool
	priming bool
	inRun   bool
	rewind  bool

	path           atomic.Pointer[string]
	active         atomic.Bool
	looping        atomic.Bool
	ended          atomic.Bool
	invalid        atomic.Bool
	underrunEvents atomic.Uint64
	underrunTotal  atomic.Uint64
}

var _ Processor = (*SampleReader)(nil)

// New creates a closed voice named name. Zero fields of cfg take their
// defaults.
func New(name string, m *request.Manager, fsys storage.FS, cfg Config, opts ...Option) (*SampleReader, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(m.MaxChunk()); err != nil {
		return nil, err
	}

	r := &SampleReader{
		name:     name,
		cfg:      cfg,
		fill:     min(cfg.Capacity/2, m.MaxChunk()),
		fsys:     fsys,
		registry: DefaultRegistry(),
		manager:  m,
		req:      request.NewRequester(m),
		buf:      ring.New[int16](cfg.Capacity),
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With().Str("voice", name).Logger()
	r.invalid.Store(true)

	return r, nil
}

// Name returns the voice name.
func (r *SampleReader) Name() string { return r.name }

// Config returns the effective configuration.
func (r *SampleReader) Config() Config { return r.cfg }

// Path returns the path of the attached file, or "".
func (r *SampleReader) Path() string {
	if p := r.path.Load(); p != nil {
		return *p
	}

	return ""
}

// Playing reports whether the voice is producing its stream.
func (r *SampleReader) Playing() bool { return r.active.Load() }

// Invalid reports whether the voice has no usable file.
func (r *SampleReader) Invalid() bool { return r.invalid.Load() }

// Ended reports whether the stream ran out: the file is at its end, nothing
// is pending and the buffer is drained.
func (r *SampleReader) Ended() bool { return r.ended.Load() }

// SetLooping sets whether the engine restarts the voice when it ends.
func (r *SampleReader) SetLooping(on bool) { r.looping.Store(on) }

// Looping reports the looping flag.
func (r *SampleReader) Looping() bool { return r.looping.Load() }

// Readable returns the number of buffered samples.
func (r *SampleReader) Readable() int { return r.buf.Readable() }

// Pending returns the number of unacknowledged requests.
func (r *SampleReader) Pending() int { return r.req.Pending() }

// Stats returns the underrun counters.
func (r *SampleReader) Stats() Stats {
	return Stats{
		UnderrunEvents:  r.underrunEvents.Load(),
		UnderrunSamples: r.underrunTotal.Load(),
	}
}

// TakeStats returns the underrun counters and resets them.
func (r *SampleReader) TakeStats() Stats {
	return Stats{
		UnderrunEvents:  r.underrunEvents.Swap(0),
		UnderrunSamples: r.underrunTotal.Swap(0),
	}
}

// Prepare opens path, locates its sample data and seeks to it. It blocks on
// storage and touches no voice state, so it can run on any goroutine.
func (r *SampleReader) Prepare(path string) (*Source, error) {
	src, err := prepare(r.fsys, r.registry, path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", path).Msg("prepare failed")
		return nil, err
	}

	r.logger.Debug().
		Str("path", path).
		Int("sample_rate", src.Header.SampleRate()).
		Int64("samples", src.Header.Samples()).
		Int64("data_offset", src.Header.DataOffset).
		Msg("prepared")

	return src, nil
}

// Attach switches the voice to src and starts playing it. The previous
// file, if any, is closed by the service goroutine. Attach never blocks.
func (r *SampleReader) Attach(src *Source) {
	r.req.InvalidatePending()

	if r.file != nil {
		r.manager.Release(r.file)
	}
	r.file = src.file
	r.header = src.Header
	src.file = nil

	path := src.Path
	r.path.Store(&path)

	// Nothing of the old file can be in flight any more.
	r.buf.Flush()

	r.invalid.Store(false)
	r.ended.Store(false)
	r.rewind = false
	r.inRun = false

	r.submitRead(r.fill)
	r.priming = true
	r.setPlaying(true)
}

// Open prepares path and attaches it. Because it blocks on storage it is
// only for use while rendering is stopped; otherwise call Prepare on a
// control goroutine and Attach on the render goroutine. On failure the
// voice is closed and left invalid.
func (r *SampleReader) Open(path string) error {
	src, err := r.Prepare(path)
	if err != nil {
		r.Close()
		return err
	}

	r.Attach(src)

	return nil
}

// Restart rewinds the voice to its first sample. Pending requests are
// cancelled and the buffer flushed before the seek is queued.
func (r *SampleReader) Restart() error {
	if r.file == nil || r.invalid.Load() {
		return fmt.Errorf("%w: %s", ErrNotOpen, r.name)
	}

	r.req.InvalidatePending()
	r.buf.Flush()

	r.ended.Store(false)
	r.inRun = false
	r.rewind = true
	r.submitRewind()

	r.priming = true
	r.setPlaying(true)

	return nil
}

// Close stops the voice and releases its file.
func (r *SampleReader) Close() {
	r.setPlaying(false)
	r.req.InvalidatePending()

	if r.file != nil {
		r.manager.Release(r.file)
		r.file = nil
	}

	r.buf.Flush()

	r.rewind = false
	r.priming = false
	r.inRun = false
	r.invalid.Store(true)
}

// Process returns the next sample in [-1, 1], or 0 when stopped, priming
// or starved. It never blocks.
func (r *SampleReader) Process() float32 {
	if !r.playing {
		return 0
	}

	if r.rewind {
		r.retryRewind()
	}

	s, ok := r.buf.TryPop()
	if !ok {
		return r.starved()
	}

	r.priming = false
	r.inRun = false
	r.refill()

	return utils.Int16ToFloat32(s)
}

// Render fills dst with consecutive Process results.
func (r *SampleReader) Render(dst []float32) {
	for i := range dst {
		dst[i] = r.Process()
	}
}

func (r *SampleReader) starved() float32 {
	if !r.rewind && !r.req.HasPending() && r.file.AtEnd() {
		r.playing = false
		r.active.Store(false)
		r.ended.Store(true)
		r.logger.Debug().Msg("stream ended")

		return 0
	}

	if !r.priming {
		if !r.inRun {
			r.inRun = true
			r.underrunEvents.Add(1)
		}
		r.underrunTotal.Add(1)
	}

	r.refill()

	return 0
}

// refill asks for more samples when the buffer is below the low-water mark
// and nothing is outstanding.
func (r *SampleReader) refill() {
	if r.rewind || r.buf.Readable() >= r.cfg.LowWater || r.req.HasPending() || r.file.AtEnd() {
		return
	}

	r.submitRead(r.cfg.RefillChunk)
}

func (r *SampleReader) submitRead(samples int) {
	_ = r.req.Submit(request.Read(r.file, samples, r.buf, r.header.ByteOrder))
}

// submitRewind queues the seek back to the sample data followed by a fresh
// read. A full queue leaves rewind set and Process tries again through
// retryRewind, which does not report the retries as drops.
func (r *SampleReader) submitRewind() {
	r.rewound(r.req.Submit(request.Seek(r.file, r.header.DataOffset)))
}

func (r *SampleReader) retryRewind() {
	r.rewound(r.req.Retry(request.Seek(r.file, r.header.DataOffset)))
}

func (r *SampleReader) rewound(err error) {
	if err != nil {
		return
	}

	r.rewind = false
	r.submitRead(r.fill)
}

func (r *SampleReader) setPlaying(on bool) {
	r.playing = on
	r.active.Store(on)
}
