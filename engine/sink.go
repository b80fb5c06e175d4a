// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"sync/atomic"
)

// Sink consumes rendered blocks. Write is called from the render goroutine
// and must not retain block.
type Sink interface {
	Write(block []float32) error
}

// DiscardSink drops every block.
type DiscardSink struct{}

// Write implements Sink.
func (DiscardSink) Write([]float32) error { return nil }

// MeterSink keeps the peak level and the number of blocks written. Its
// readers are safe from any goroutine.
type MeterSink struct {
	peak   atomic.Uint32
	blocks atomic.Uint64
}

// Write implements Sink.
func (m *MeterSink) Write(block []float32) error {
	var peak float32
	for _, x := range block {
		peak = max(peak, float32(math.Abs(float64(x))))
	}

	for {
		old := m.peak.Load()
		if math.Float32frombits(old) >= peak {
			break
		}
		if m.peak.CompareAndSwap(old, math.Float32bits(peak)) {
			break
		}
	}
	m.blocks.Add(1)

	return nil
}

// Peak returns the largest absolute sample written since the last
// TakePeak.
func (m *MeterSink) Peak() float32 {
	return math.Float32frombits(m.peak.Load())
}

// TakePeak returns the peak and resets it.
func (m *MeterSink) TakePeak() float32 {
	return math.Float32frombits(m.peak.Swap(0))
}

// Blocks returns the number of blocks written.
func (m *MeterSink) Blocks() uint64 { return m.blocks.Load() }
