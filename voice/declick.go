// SPDX-License-Identifier: EPL-2.0

package voice

// DefaultFadeSamples is the fade length used when none is given.
const DefaultFadeSamples = 64

// maxCrossingWait bounds the zero-crossing wait so a stream that never
// changes sign still fades back in.
const maxCrossingWait = 1024

type declickState uint8

const (
	declickIdle declickState = iota
	declickFadeOut
	declickWait
	declickFadeIn
)

// Declicker removes the step a retriggered voice would otherwise produce.
// After Retrigger it decays the last output to zero, optionally waits for
// the new stream to cross zero, then fades the new stream in.
//
// Like the Processor it wraps, a Declicker belongs to the render goroutine.
type Declicker struct {
	src   Processor
	fade  int
	cross bool

	state declickState
	count int
	held  float32
	last  float32
	prev  float32
}

var _ Processor = (*Declicker)(nil)

// NewDeclicker wraps src. fade is the fade length in samples; waitCrossing
// enables the zero-crossing wait between fade-out and fade-in.
func NewDeclicker(src Processor, fade int, waitCrossing bool) *Declicker {
	if fade <= 0 {
		fade = DefaultFadeSamples
	}

	return &Declicker{src: src, fade: fade, cross: waitCrossing}
}

// Retrigger starts a fade-out from the last output. Call it right before
// restarting or reopening the wrapped voice.
func (d *Declicker) Retrigger() {
	d.held = d.last
	d.count = d.fade
	d.state = declickFadeOut
}

// Fading reports whether a retrigger transition is in progress.
func (d *Declicker) Fading() bool { return d.state != declickIdle }

// Process implements Processor.
func (d *Declicker) Process() float32 {
	var out float32

	switch d.state {
	case declickIdle:
		out = d.src.Process()

	case declickFadeOut:
		// The old stream is gone; decay what was last heard.
		d.count--
		out = d.held * float32(d.count) / float32(d.fade)
		if d.count == 0 {
			d.next()
		}

	case declickWait:
		x := d.src.Process()
		d.count++
		if crossed(d.prev, x) || d.count >= maxCrossingWait {
			d.startFadeIn()
			out = 0
		}
		d.prev = x

	case declickFadeIn:
		x := d.src.Process()
		d.count--
		out = x * (1 - float32(d.count)/float32(d.fade))
		if d.count == 0 {
			d.state = declickIdle
		}
	}

	d.last = out

	return out
}

func (d *Declicker) next() {
	if !d.cross {
		d.startFadeIn()
		return
	}

	d.state = declickWait
	d.count = 0
	d.prev = 0
}

func (d *Declicker) startFadeIn() {
	d.state = declickFadeIn
	d.count = d.fade
}

func crossed(prev, x float32) bool {
	return (prev < 0 && x >= 0) || (prev >= 0 && x < 0)
}
