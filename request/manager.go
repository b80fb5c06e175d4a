// SPDX-License-Identifier: EPL-2.0

package request

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/pcmstream/storage"
	"github.com/ik5/pcmstream/utils"
)

const (
	// DefaultQueueCapacity is the number of requests the queue holds.
	DefaultQueueCapacity = 32
	// DefaultMaxChunk is the largest read, in samples, served in one go.
	DefaultMaxChunk = 2048
)

// Observer receives per-request measurements from the service goroutine
// and drop notifications from submitters.
type Observer interface {
	RequestHandled(kind Kind, elapsed time.Duration, err error)
	RequestDropped(kind Kind)
}

type nopObserver struct{}

func (nopObserver) RequestHandled(Kind, time.Duration, error) {}
func (nopObserver) RequestDropped(Kind)                       {}

// Stats are cumulative manager counters.
type Stats struct {
	// Handled requests had their I/O performed.
	Handled uint64
	// Skipped requests were invalidated before being served.
	Skipped uint64
	// Cancelled requests were invalidated while their I/O was running.
	Cancelled uint64
	// Dropped requests found the queue full.
	Dropped uint64
	// Failed requests hit a read, seek or close error.
	Failed uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// Manager owns the bounded request queue shared by every voice and performs
// the blocking file work. Enqueue and Invalidate may be called from any
// goroutine; HandleRequests and Serve from exactly one service goroutine.
type Manager struct {
	lock  spinLock
	queue []Request
	head  int
	count int

	// request being served and whether it was invalidated meanwhile;
	// both guarded by lock
	active    Owner
	cancelled bool

	scratch []byte
	samples []int16

	wake chan struct{}

	logger   zerolog.Logger
	dropLog  zerolog.Logger
	observer Observer

	handled   atomic.Uint64
	skipped   atomic.Uint64
	cancels   atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	maxChunk  int
	queueSize int
}

// NewManager creates a manager with room for capacity requests and scratch
// space for reads of up to maxChunk samples. Non-positive values select
// the defaults.
func NewManager(capacity, maxChunk int, opts ...Option) *Manager {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}

	m := &Manager{
		queue:     make([]Request, capacity),
		scratch:   make([]byte, 2*maxChunk),
		samples:   make([]int16, maxChunk),
		wake:      make(chan struct{}, 1),
		logger:    zerolog.Nop(),
		observer:  nopObserver{},
		maxChunk:  maxChunk,
		queueSize: capacity,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger = m.logger.With().Str("component", "request").Logger()
	m.dropLog = m.logger.Sample(&zerolog.BurstSampler{Burst: 5, Period: time.Second})

	return m
}

// Cap returns the queue capacity.
func (m *Manager) Cap() int { return m.queueSize }

// MaxChunk returns the largest read served in one request, in samples.
func (m *Manager) MaxChunk() int { return m.maxChunk }

// Len returns the number of queued entries, invalidated ones included.
func (m *Manager) Len() int {
	m.lock.Lock()
	n := m.count
	m.lock.Unlock()

	return n
}

// Stats returns the cumulative counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Handled:   m.handled.Load(),
		Skipped:   m.skipped.Load(),
		Cancelled: m.cancels.Load(),
		Dropped:   m.dropped.Load(),
		Failed:    m.failed.Load(),
	}
}

// Enqueue appends req to the queue. It never blocks and reports false,
// dropping req, when the queue is full.
func (m *Manager) Enqueue(req Request) bool {
	if m.push(req) {
		return true
	}

	m.dropped.Add(1)
	m.observer.RequestDropped(req.Kind)
	m.dropLog.Warn().
		Stringer("kind", req.Kind).
		Int("capacity", m.queueSize).
		Msg("request queue is full")

	return false
}

func (m *Manager) push(req Request) bool {
	req.valid = true

	m.lock.Lock()
	if m.count == len(m.queue) {
		m.lock.Unlock()
		return false
	}
	m.queue[(m.head+m.count)%len(m.queue)] = req
	m.count++
	m.lock.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}

	return true
}

// Invalidate marks every queued request of owner as invalid and cancels its
// in-flight request, if any. It returns the number of requests affected.
// Entries stay in the queue and are skipped by the service goroutine.
func (m *Manager) Invalidate(owner Owner) int {
	if owner == nil {
		return 0
	}

	n := 0

	m.lock.Lock()
	for i := range m.count {
		req := &m.queue[(m.head+i)%len(m.queue)]
		if req.valid && req.owner == owner {
			req.valid = false
			n++
		}
	}
	if m.active == owner && !m.cancelled {
		m.cancelled = true
		n++
	}
	m.lock.Unlock()

	return n
}

// Release closes f on the service goroutine. When the queue is full the
// file is closed in the background instead.
func (m *Manager) Release(f storage.File) {
	if f == nil {
		return
	}
	if m.push(Close(f)) {
		return
	}

	m.logger.Debug().Msg("queue full, closing file in background")
	go func() {
		if err := f.Close(); err != nil {
			m.failed.Add(1)
			m.logger.Warn().Err(err).Msg("close failed")
		}
	}()
}

// HandleRequests serves the requests that are queued when it is called, in
// FIFO order, and returns how many had their I/O performed. Requests queued
// meanwhile wait for the next call.
func (m *Manager) HandleRequests() int {
	m.lock.Lock()
	todo := m.count
	m.lock.Unlock()

	served := 0
	for range todo {
		req, ok := m.pop()
		if !ok {
			break
		}
		if !req.valid {
			m.skipped.Add(1)
			continue
		}

		m.serve(req)
		served++
	}

	return served
}

func (m *Manager) pop() (Request, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.count == 0 {
		return Request{}, false
	}

	req := m.queue[m.head]
	m.queue[m.head] = Request{}
	m.head = (m.head + 1) % len(m.queue)
	m.count--

	if req.valid {
		m.active = req.owner
		m.cancelled = false
	}

	return req, true
}

func (m *Manager) serve(req Request) {
	start := time.Now()

	var (
		err error
		n   int
	)

	switch req.Kind {
	case KindRead:
		n, err = m.read(req)
	case KindSeek:
		_, err = req.File.Seek(req.Offset, io.SeekStart)
	case KindClose:
		err = req.File.Close()
	}

	m.lock.Lock()
	live := !m.cancelled
	if live && n > 0 {
		req.Target.Write(m.samples[:n])
	}
	m.active = nil
	m.cancelled = false
	m.lock.Unlock()

	m.handled.Add(1)
	if !live {
		m.cancels.Add(1)
	}
	if err != nil {
		m.failed.Add(1)
		m.logger.Error().
			Err(err).
			Stringer("kind", req.Kind).
			Msg("request failed")
	}
	m.observer.RequestHandled(req.Kind, time.Since(start), err)

	if live && req.owner != nil {
		req.owner.Acknowledge()
	}
}

// read fills m.samples from the request file and returns the number of
// whole samples decoded. End of file is not an error.
func (m *Manager) read(req Request) (int, error) {
	if req.Target == nil || req.Samples <= 0 {
		return 0, nil
	}

	// Never read more than the ring can take; what is read is consumed
	// from the file.
	want := min(req.Samples, m.maxChunk, req.Target.Writable())
	if want == 0 {
		return 0, nil
	}

	got, err := io.ReadFull(req.File, m.scratch[:2*want])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}

	return utils.DecodePCM16(m.samples, m.scratch[:got], req.order()), err
}

// Serve runs HandleRequests whenever a request is enqueued, and at least
// every interval, until ctx is done. Requests still queued on shutdown are
// served once more so pending closes are not lost.
func (m *Manager) Serve(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Debug().Dur("interval", interval).Msg("request service started")

	for {
		m.HandleRequests()

		select {
		case <-ctx.Done():
			m.HandleRequests()
			m.logger.Debug().Msg("request service stopped")
			return nil
		case <-m.wake:
		case <-ticker.C:
		}
	}
}
