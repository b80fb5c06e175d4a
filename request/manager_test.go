// SPDX-License-Identifier: EPL-2.0

package request

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/pcmstream/internal/audiotest"
	"github.com/ik5/pcmstream/ring"
	"github.com/ik5/pcmstream/storage"
)

// pcm encodes samples as raw 16-bit PCM.
func pcm(samples []int16, order binary.ByteOrder) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		order.PutUint16(out[2*i:], uint16(s))
	}

	return out
}

func openRaw(t *testing.T, fsys *audiotest.FS, name string, samples []int16) storage.File {
	t.Helper()

	fsys.Add(name, pcm(samples, binary.LittleEndian))

	f, err := fsys.Open(name)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", name, err)
	}

	return f
}

// recordingObserver collects observer callbacks.
type recordingObserver struct {
	mtx     sync.Mutex
	handled []Kind
	errs    []error
	dropped []Kind
}

func (o *recordingObserver) RequestHandled(kind Kind, _ time.Duration, err error) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.handled = append(o.handled, kind)
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) RequestDropped(kind Kind) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	o.dropped = append(o.dropped, kind)
}

func TestNewManager_Defaults(t *testing.T) {
	t.Parallel()

	m := NewManager(0, -1)
	if m.Cap() != DefaultQueueCapacity {
		t.Errorf("Cap() = %d, want %d", m.Cap(), DefaultQueueCapacity)
	}
	if m.MaxChunk() != DefaultMaxChunk {
		t.Errorf("MaxChunk() = %d, want %d", m.MaxChunk(), DefaultMaxChunk)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestManager_QueueCapacity(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	m := NewManager(32, 64, WithObserver(obs))
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(8))

	for i := range 32 {
		if err := r.Submit(Seek(f, int64(i))); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}

	if err := r.Submit(Seek(f, 99)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("33rd Submit() error = %v, want ErrQueueFull", err)
	}

	if r.Pending() != 32 {
		t.Errorf("Pending() = %d, want 32", r.Pending())
	}
	if m.Len() != 32 {
		t.Errorf("Len() = %d, want 32", m.Len())
	}
	if got := m.Stats().Dropped; got != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", got)
	}
	if len(obs.dropped) != 1 || obs.dropped[0] != KindSeek {
		t.Errorf("observer dropped = %v, want [seek]", obs.dropped)
	}

	if n := m.HandleRequests(); n != 32 {
		t.Errorf("HandleRequests() = %d, want 32", n)
	}
	if r.HasPending() {
		t.Errorf("Pending() = %d after handling, want 0", r.Pending())
	}
}

func TestRequester_RetryIsNotADrop(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	m := NewManager(1, 64, WithObserver(obs))
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(8))

	if err := r.Submit(Seek(f, 0)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	for range 1000 {
		if err := r.Retry(Seek(f, 0)); !errors.Is(err, ErrQueueFull) {
			t.Fatalf("Retry() error = %v, want ErrQueueFull", err)
		}
	}

	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}
	if got := m.Stats().Dropped; got != 0 || len(obs.dropped) != 0 {
		t.Errorf("dropped = %d, observer %v, want none", got, obs.dropped)
	}

	m.HandleRequests()

	if err := r.Retry(Seek(f, 0)); err != nil {
		t.Fatalf("Retry() on a free slot error = %v", err)
	}
	if r.Pending() != 1 || m.Len() != 1 {
		t.Errorf("pending=%d queued=%d, want 1/1", r.Pending(), m.Len())
	}
}

func TestManager_QueueFullIsLogged(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	m := NewManager(1, 16, WithLogger(zerolog.New(&out)))

	if !m.Enqueue(Seek(nil, 0)) {
		t.Fatal("first Enqueue() = false")
	}
	if m.Enqueue(Seek(nil, 0)) {
		t.Fatal("second Enqueue() = true on full queue")
	}

	if !strings.Contains(out.String(), "request queue is full") {
		t.Errorf("log = %q, want queue full warning", out.String())
	}
	if !strings.Contains(out.String(), `"component":"request"`) {
		t.Errorf("log = %q, want component field", out.String())
	}
}

func TestManager_FIFOAcrossOwners(t *testing.T) {
	t.Parallel()

	m := NewManager(8, 16)
	fsys := audiotest.NewFS()
	a, b := NewRequester(m), NewRequester(m)
	fa := openRaw(t, fsys, "a", audiotest.Ramp(16))
	fb := openRaw(t, fsys, "b", audiotest.Ramp(16))
	ra, rb := ring.New[int16](16), ring.New[int16](16)

	// a: seek to sample 4, read 2; b: read 3
	mustSubmit(t, a, Seek(fa, 8))
	mustSubmit(t, b, Read(fb, 3, rb, nil))
	mustSubmit(t, a, Read(fa, 2, ra, nil))

	m.HandleRequests()

	assertRing(t, ra, []int16{4, 5})
	assertRing(t, rb, []int16{0, 1, 2})
}

func TestManager_ReadRoundTrip(t *testing.T) {
	t.Parallel()

	const capacity = 4096

	m := NewManager(32, capacity/2)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	samples := audiotest.Ramp(capacity)
	f := openRaw(t, fsys, "a", samples)
	buf := ring.New[int16](capacity)

	mustSubmit(t, r, Read(f, capacity/2, buf, binary.LittleEndian))
	m.HandleRequests()

	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
	assertRing(t, buf, samples[:capacity/2])
}

func TestManager_ReadBigEndian(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 16)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	want := []int16{0x0102, -3, 32767}
	fsys.Add("be", pcm(want, binary.BigEndian))

	f, err := fsys.Open("be")
	if err != nil {
		t.Fatal(err)
	}
	buf := ring.New[int16](8)

	mustSubmit(t, r, Read(f, 8, buf, binary.BigEndian))
	m.HandleRequests()

	assertRing(t, buf, want)
}

func TestManager_ShortReadAtEOF(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 2048)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(100))
	buf := ring.New[int16](4096)

	mustSubmit(t, r, Read(f, 2048, buf, nil))
	mustSubmit(t, r, Read(f, 2048, buf, nil))
	m.HandleRequests()

	if buf.Readable() != 100 {
		t.Errorf("Readable() = %d, want 100", buf.Readable())
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
	if st := m.Stats(); st.Failed != 0 || st.Handled != 2 {
		t.Errorf("Stats() = %+v, want 2 handled and no failures", st)
	}
	if !f.AtEnd() {
		t.Error("AtEnd() = false after reading past the end")
	}
}

func TestManager_ReadClampedToWritable(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 64)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(32))
	buf := ring.New[int16](8)
	buf.Write([]int16{-1, -1, -1, -1, -1, -1})

	mustSubmit(t, r, Read(f, 8, buf, nil))
	mustSubmit(t, r, Read(f, 8, buf, nil))
	m.HandleRequests()

	if buf.Writable() != 0 {
		t.Fatalf("Writable() = %d, want 0", buf.Writable())
	}

	// the second read found no room and consumed nothing
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 4 {
		t.Errorf("file position = %d, want 4", pos)
	}
}

func TestManager_Failures(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk on fire")

	obs := &recordingObserver{}
	m := NewManager(4, 16, WithObserver(obs))
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(16))
	fsys.FailRead("a", errDisk)
	fsys.FailSeek("a", errDisk)
	buf := ring.New[int16](16)

	mustSubmit(t, r, Read(f, 8, buf, nil))
	mustSubmit(t, r, Seek(f, 0))
	m.HandleRequests()

	if buf.Readable() != 0 {
		t.Errorf("Readable() = %d, want 0", buf.Readable())
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0: failed requests are still acknowledged", r.Pending())
	}
	if st := m.Stats(); st.Failed != 2 {
		t.Errorf("Stats().Failed = %d, want 2", st.Failed)
	}
	for i, err := range obs.errs {
		if !errors.Is(err, errDisk) {
			t.Errorf("observer err[%d] = %v, want %v", i, err, errDisk)
		}
	}
}

func TestRequester_InvalidatePending(t *testing.T) {
	t.Parallel()

	m := NewManager(32, 16)
	fsys := audiotest.NewFS()
	a, b := NewRequester(m), NewRequester(m)
	fa := openRaw(t, fsys, "a", audiotest.Ramp(64))
	fb := openRaw(t, fsys, "b", audiotest.Ramp(64))
	ra, rb := ring.New[int16](64), ring.New[int16](64)

	for range 5 {
		mustSubmit(t, a, Read(fa, 4, ra, nil))
	}
	mustSubmit(t, b, Read(fb, 4, rb, nil))
	mustSubmit(t, b, Read(fb, 4, rb, nil))

	if n := a.InvalidatePending(); n != 5 {
		t.Fatalf("InvalidatePending() = %d, want 5", n)
	}
	if a.Pending() != 0 || a.HasPending() {
		t.Errorf("Pending() = %d after invalidate, want 0", a.Pending())
	}
	if m.Len() != 7 {
		t.Errorf("Len() = %d, want 7: invalidation does not remove", m.Len())
	}
	if n := a.InvalidatePending(); n != 0 {
		t.Errorf("second InvalidatePending() = %d, want 0", n)
	}

	readsBefore := fsys.Reads()
	if n := m.HandleRequests(); n != 2 {
		t.Errorf("HandleRequests() = %d, want 2", n)
	}

	if got := fsys.Reads() - readsBefore; got != 2 {
		t.Errorf("reads = %d, want 2 (only b)", got)
	}
	if ra.Readable() != 0 {
		t.Errorf("a ring Readable() = %d, want 0", ra.Readable())
	}
	if rb.Readable() != 8 {
		t.Errorf("b ring Readable() = %d, want 8", rb.Readable())
	}
	if a.Pending() != 0 || b.Pending() != 0 {
		t.Errorf("Pending() a=%d b=%d, want 0 0", a.Pending(), b.Pending())
	}
	if st := m.Stats(); st.Skipped != 5 || st.Handled != 2 {
		t.Errorf("Stats() = %+v, want 5 skipped 2 handled", st)
	}
}

func TestRequester_InvalidateInFlight(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 16)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(16))
	buf := ring.New[int16](16)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fsys.OnRead(func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	mustSubmit(t, r, Read(f, 8, buf, nil))

	done := make(chan int)
	go func() { done <- m.HandleRequests() }()

	<-entered
	if n := r.InvalidatePending(); n != 1 {
		t.Errorf("InvalidatePending() = %d, want 1 (in flight)", n)
	}
	close(release)

	if n := <-done; n != 1 {
		t.Errorf("HandleRequests() = %d, want 1", n)
	}

	if buf.Readable() != 0 {
		t.Errorf("Readable() = %d, want 0: cancelled read must not land", buf.Readable())
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0: cancelled read must not be acknowledged", r.Pending())
	}
	if st := m.Stats(); st.Cancelled != 1 {
		t.Errorf("Stats().Cancelled = %d, want 1", st.Cancelled)
	}
}

// chainOwner submits another request every time it is acknowledged.
type chainOwner struct {
	r *Requester
	f storage.File
}

func (c *chainOwner) Acknowledge() {
	c.r.Acknowledge()
	_ = c.r.Submit(Seek(c.f, 0))
}

func TestManager_HandlesOnlyQueuedAtStart(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 16)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(4))
	owner := &chainOwner{r: NewRequester(m), f: f}

	req := Seek(f, 0)
	req.owner = owner
	if !m.Enqueue(req) {
		t.Fatal("Enqueue() = false")
	}

	if n := m.HandleRequests(); n != 1 {
		t.Errorf("HandleRequests() = %d, want 1", n)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (request queued during the drain)", m.Len())
	}
}

func TestManager_Release(t *testing.T) {
	t.Parallel()

	m := NewManager(1, 16)
	fsys := audiotest.NewFS()
	f1 := openRaw(t, fsys, "a", audiotest.Ramp(4))
	f2 := openRaw(t, fsys, "b", audiotest.Ramp(4))

	m.Release(nil)
	m.Release(f1)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}

	// queue full: closed in the background
	m.Release(f2)

	deadline := time.Now().Add(2 * time.Second)
	for !f2.(*audiotest.File).Closed() {
		if time.Now().After(deadline) {
			t.Fatal("background close did not happen")
		}
		time.Sleep(time.Millisecond)
	}

	if f1.(*audiotest.File).Closed() {
		t.Error("queued close ran before HandleRequests")
	}

	// a close has no owner and survives invalidation
	if n := m.Invalidate(nil); n != 0 {
		t.Errorf("Invalidate(nil) = %d, want 0", n)
	}

	m.HandleRequests()
	if !f1.(*audiotest.File).Closed() {
		t.Error("queued close did not run")
	}
	if fsys.OpenFiles() != 0 {
		t.Errorf("OpenFiles() = %d, want 0", fsys.OpenFiles())
	}
}

func TestManager_Serve(t *testing.T) {
	t.Parallel()

	m := NewManager(4, 16)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	f := openRaw(t, fsys, "a", audiotest.Ramp(16))
	buf := ring.New[int16](16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- m.Serve(ctx, time.Hour) }()

	mustSubmit(t, r, Read(f, 8, buf, nil))

	deadline := time.Now().Add(2 * time.Second)
	for r.HasPending() {
		if time.Now().After(deadline) {
			t.Fatal("Serve did not handle the request")
		}
		time.Sleep(time.Millisecond)
	}

	m.Release(f)
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
	if buf.Readable() != 8 {
		t.Errorf("Readable() = %d, want 8", buf.Readable())
	}
	if !f.(*audiotest.File).Closed() {
		t.Error("close queued before shutdown was not served")
	}
}

func TestManager_EnqueueZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	m := NewManager(4, 16)
	r := NewRequester(m)
	buf := ring.New[int16](16)
	req := Read(nil, 8, buf, binary.LittleEndian)

	allocs := testing.AllocsPerRun(100, func() {
		_ = r.Submit(req)
		_ = r.Submit(req)
		r.InvalidatePending()
		m.HandleRequests()
	})

	if allocs > 0 {
		t.Errorf("Submit/Invalidate allocated %v times, want 0", allocs)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindRead, "read"},
		{KindSeek, "seek"},
		{KindClose, "close"},
		{Kind(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func mustSubmit(t *testing.T, r *Requester, req Request) {
	t.Helper()

	if err := r.Submit(req); err != nil {
		t.Fatalf("Submit(%v) error = %v", req.Kind, err)
	}
}

func assertRing(t *testing.T, buf *ring.Buffer[int16], want []int16) {
	t.Helper()

	if buf.Readable() != len(want) {
		t.Fatalf("Readable() = %d, want %d", buf.Readable(), len(want))
	}
	for i, w := range want {
		got, _ := buf.TryPop()
		if got != w {
			t.Fatalf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func BenchmarkManager_SubmitHandle(b *testing.B) {
	m := NewManager(32, 2048)
	r := NewRequester(m)
	fsys := audiotest.NewFS()
	fsys.Add("a", pcm(audiotest.Ramp(4096), binary.LittleEndian))
	f, _ := fsys.Open("a")
	buf := ring.New[int16](4096)

	b.ReportAllocs()

	for b.Loop() {
		_, _ = f.Seek(0, io.SeekStart)
		_ = r.Submit(Read(f, 2048, buf, nil))
		m.HandleRequests()
		buf.Flush()
	}
}
