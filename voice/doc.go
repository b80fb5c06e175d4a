// SPDX-License-Identifier: EPL-2.0

// Package voice streams 16-bit mono sample files into the render loop.
//
// A SampleReader owns a ring buffer and a request.Requester. The render
// goroutine pops samples with Process or Render; whenever the buffer drops
// below the low-water mark the voice asks the request manager for another
// chunk. Nothing on the render path blocks, locks or allocates.
//
//	m := request.NewManager(request.DefaultQueueCapacity, request.DefaultMaxChunk)
//	v, err := voice.New("kick", m, storage.Dir("samples"), voice.Config{})
//	if err != nil {
//	    return err
//	}
//	if err := v.Open("kick.wav"); err != nil {
//	    return err
//	}
//
//	go m.Serve(ctx, 5*time.Millisecond)
//
//	block := make([]float32, 64)
//	v.Render(block)
//
// # Opening Files
//
// Open blocks on storage and is meant for setup. While rendering, call
// Prepare on a control goroutine and pass the Source to Attach on the
// render goroutine. Attach invalidates everything the voice had queued,
// hands the old file to the service goroutine for closing and asks for the
// first half buffer of the new one.
//
// # Priming and Underruns
//
// Right after Attach or Restart the buffer is empty until the first read
// is served. Those samples are silent but not counted. Afterwards every
// empty Process call counts as an underrun sample and each contiguous run
// of them as one underrun event.
//
// # End of Stream
//
// When the file is exhausted and the buffer drained the voice stops and
// Ended reports true. Restart rewinds it; looping is left to the caller.
//
// # Declicking
//
// Retriggering a voice mid-sound produces a step. A Declicker wrapped
// around the voice fades the old stream out and the new one in.
package voice
