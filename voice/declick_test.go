// SPDX-License-Identifier: EPL-2.0

package voice

import "testing"

// script plays back fixed values, then repeats the last one.
type script struct {
	vals  []float32
	calls int
}

func (s *script) Process() float32 {
	i := min(s.calls, len(s.vals)-1)
	s.calls++

	return s.vals[i]
}

func TestDeclicker_FadeOutThenIn(t *testing.T) {
	t.Parallel()

	src := &script{vals: []float32{0.5}}
	d := NewDeclicker(src, 4, false)

	if got := d.Process(); got != 0.5 {
		t.Fatalf("idle Process() = %v, want 0.5", got)
	}

	d.Retrigger()
	if !d.Fading() {
		t.Fatal("Fading() = false after Retrigger")
	}

	want := []float32{
		0.375, 0.25, 0.125, 0, // fade-out of the held 0.5
		0.125, 0.25, 0.375, 0.5, // fade-in of the new stream
		0.5,
	}
	for i, w := range want {
		if got := d.Process(); got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}

	if d.Fading() {
		t.Error("Fading() = true after the fade-in completed")
	}
	// one idle call, four fade-in calls, one trailing call
	if src.calls != 6 {
		t.Errorf("source called %d times, want 6: fade-out must not consume it", src.calls)
	}
}

func TestDeclicker_WaitsForZeroCrossing(t *testing.T) {
	t.Parallel()

	src := &script{vals: []float32{0.3, 0.2, -0.1, -0.2, -0.4}}
	d := NewDeclicker(src, 2, true)
	d.Retrigger() // nothing heard yet, fade-out of silence

	want := []float32{
		0, 0, // fade-out
		0, 0, 0, // waiting, crossing on -0.1
		-0.1, -0.4, // fade-in
	}
	for i, w := range want {
		if got := d.Process(); got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}

	if d.Fading() {
		t.Error("Fading() = true after the fade-in completed")
	}
}

func TestDeclicker_CrossingWaitIsBounded(t *testing.T) {
	t.Parallel()

	d := NewDeclicker(&script{vals: []float32{0.25}}, 8, true)
	d.Retrigger()

	calls := 0
	for d.Fading() && calls < 4*maxCrossingWait {
		d.Process()
		calls++
	}

	if want := 8 + maxCrossingWait + 8; calls != want {
		t.Errorf("transition took %d samples, want %d", calls, want)
	}
	if got := d.Process(); got != 0.25 {
		t.Errorf("Process() = %v after the transition, want 0.25", got)
	}
}

func TestNewDeclicker_DefaultFade(t *testing.T) {
	t.Parallel()

	d := NewDeclicker(&script{vals: []float32{1}}, 0, false)
	d.Process()
	d.Retrigger()

	calls := 0
	for d.Fading() {
		d.Process()
		calls++
	}

	if calls != 2*DefaultFadeSamples {
		t.Errorf("transition took %d samples, want %d", calls, 2*DefaultFadeSamples)
	}
}
