// SPDX-License-Identifier: EPL-2.0

// Package request moves blocking file work off the render goroutine.
//
// Voices never read, seek or close files themselves. They describe the work
// as a Request and hand it to a Requester, which queues it on the shared
// Manager without blocking. One service goroutine drains the queue and
// performs the I/O:
//
//	m := request.NewManager(request.DefaultQueueCapacity, 2048)
//	go m.Serve(ctx, 10*time.Millisecond)
//
//	req := request.NewRequester(m)
//	err := req.Submit(request.Read(f, 2048, buf, binary.LittleEndian))
//	if errors.Is(err, request.ErrQueueFull) {
//	    // dropped; try again on the next low-water check
//	}
//
// # Acknowledgement
//
// Every Requester counts its unacknowledged requests. The service goroutine
// acknowledges a request after its effect is visible: for a read, after the
// samples were appended to the target ring. A voice uses HasPending to
// avoid asking twice for the same refill.
//
// # Invalidation
//
// InvalidatePending marks the queued requests of one Requester as invalid
// without removing them; the service goroutine skips them without any I/O.
// A request of that Requester whose I/O is already running is cancelled
// too: its samples are discarded under the queue lock, so once
// InvalidatePending returns nothing of the old requests can reach the ring
// and it is safe to flush it.
//
// # Ordering and Backpressure
//
// Requests are served in FIFO order across all voices. A full queue drops
// the newest request; Enqueue reports false and Submit returns
// ErrQueueFull. Drops are counted in Stats and logged through a burst
// sampled zerolog logger. Retry resubmits a request that was already
// dropped once without counting it again.
//
// # Closing Files
//
// Release queues a Close request. Close requests have no owner and are
// never invalidated, so a voice can switch files without blocking on the
// old one.
package request
