// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"testing"
)

func TestMeterSink(t *testing.T) {
	t.Parallel()

	var m MeterSink

	if err := m.Write([]float32{0.1, -0.75, 0.5}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := m.Write([]float32{0.25}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if got := m.Peak(); got != 0.75 {
		t.Errorf("Peak() = %v, want 0.75", got)
	}
	if got := m.TakePeak(); got != 0.75 {
		t.Errorf("TakePeak() = %v, want 0.75", got)
	}
	if got := m.Peak(); got != 0 {
		t.Errorf("Peak() after TakePeak = %v, want 0", got)
	}
	if got := m.Blocks(); got != 2 {
		t.Errorf("Blocks() = %d, want 2", got)
	}
}

func TestMeterSink_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	var m MeterSink
	var wg sync.WaitGroup

	wg.Go(func() {
		for i := range 1000 {
			_ = m.Write([]float32{float32(i) / 1000})
		}
	})
	wg.Go(func() {
		for range 1000 {
			if p := m.Peak(); p < 0 || p > 1 {
				t.Errorf("Peak() = %v out of range", p)
				return
			}
		}
	})

	wg.Wait()

	if got := m.Peak(); got != 0.999 {
		t.Errorf("Peak() = %v, want 0.999", got)
	}
}

func TestDiscardSink(t *testing.T) {
	t.Parallel()

	var s Sink = DiscardSink{}
	if err := s.Write(make([]float32, 8)); err != nil {
		t.Errorf("Write() error = %v", err)
	}
}
