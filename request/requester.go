// SPDX-License-Identifier: EPL-2.0

package request

import "sync/atomic"

// Requester submits requests on behalf of one voice and tracks how many
// are still outstanding. Submit and InvalidatePending belong to the voice's
// goroutine; Acknowledge is called by the service goroutine.
type Requester struct {
	m       *Manager
	pending atomic.Int64
}

// NewRequester returns a Requester feeding m.
func NewRequester(m *Manager) *Requester {
	return &Requester{m: m}
}

// Submit stamps req with r as owner and queues it. It never blocks.
func (r *Requester) Submit(req Request) error {
	req.owner = r

	// Count first; the service goroutine may acknowledge before Enqueue
	// returns.
	r.pending.Add(1)
	if !r.m.Enqueue(req) {
		r.pending.Add(-1)
		return ErrQueueFull
	}

	return nil
}

// Retry queues req like Submit but does not count or log a full queue as
// a drop. It is meant for a request the caller already tried to Submit and
// keeps retrying.
func (r *Requester) Retry(req Request) error {
	req.owner = r

	r.pending.Add(1)
	if !r.m.push(req) {
		r.pending.Add(-1)
		return ErrQueueFull
	}

	return nil
}

// Acknowledge marks one request as done.
func (r *Requester) Acknowledge() {
	r.pending.Add(-1)
}

// HasPending reports whether any submitted request is unacknowledged.
func (r *Requester) HasPending() bool { return r.pending.Load() > 0 }

// Pending returns the number of unacknowledged requests.
func (r *Requester) Pending() int { return int(r.pending.Load()) }

// InvalidatePending cancels every queued or in-flight request of r and
// returns how many were cancelled. None of them will be acknowledged and a
// cancelled in-flight read does not reach its ring buffer.
func (r *Requester) InvalidatePending() int {
	n := r.m.Invalidate(r)
	r.pending.Add(-int64(n))

	return n
}
