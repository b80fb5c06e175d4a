// SPDX-License-Identifier: EPL-2.0

// Package ring provides a fixed-capacity single-producer/single-consumer
// circular buffer.
//
// The buffer never blocks, never locks and never allocates after New. It is
// the only type the real-time render path touches besides the voice facade,
// so every operation is O(1) per element.
//
// # Ownership
//
// Exactly one goroutine may push (TryPush, Write) and exactly one goroutine
// may pop (TryPop, Read, Flush). The two cursors are independent
// monotonically increasing counters; the producer only stores the write
// cursor and the consumer only stores the read cursor:
//
//	buf := ring.New[int16](4096)
//
//	// producer goroutine
//	n := buf.Write(samples)
//
//	// consumer goroutine
//	s, ok := buf.TryPop()
//
// # Flushing
//
// Flush moves the read cursor onto the write cursor and discards whatever
// was readable. It is a consumer operation and is only exact while the
// producer is not appending to the same buffer.
//
// # Overflow
//
// TryPush reports false and Write returns a short count when the buffer is
// full. Callers choose the policy at the use site; nothing is overwritten.
package ring
