// SPDX-License-Identifier: EPL-2.0

// Package pcmstream streams 16-bit mono PCM sample files from storage into
// a real-time render loop without ever blocking it.
//
// The work is split between two goroutines. The render goroutine pulls
// samples from per-voice ring buffers and never touches a file. The
// service goroutine performs every read, seek and close on its behalf,
// fed by a bounded request queue:
//
//	render goroutine               service goroutine
//	----------------               -----------------
//	voice.Process                  request.Manager.Serve
//	  ring.Buffer.TryPop             storage.File.Read
//	  request.Requester.Submit  ->   ring.Buffer.Write
//
// # Packages
//
//   - ring: lock-free single-producer/single-consumer buffer
//   - request: request queue, per-voice requesters and the service loop
//   - voice: the streaming sample reader and its declicker
//   - engine: mixes voices into blocks for a sink
//   - storage: the file API and its os implementation
//   - audio, formats/wav, formats/aiff: container parsing down to the
//     offset and size of the sample data
//   - utils: sample conversion helpers
//
// # Supported Files
//
// WAV and AIFF/AIFC (uncompressed or sowt) holding mono 16-bit PCM. Other
// layouts are rejected when a file is opened.
//
// # Quick Start
//
//	m := request.NewManager(request.DefaultQueueCapacity, request.DefaultMaxChunk)
//	v, _ := voice.New("kick", m, storage.Dir("samples"), voice.Config{})
//	_ = v.Open("kick.wav")
//
//	go m.Serve(ctx, 5*time.Millisecond)
//
//	block := make([]float32, 64)
//	for {
//	    v.Render(block)
//	    // hand block to the device
//	}
//
// cmd/pcmstream wires the same pieces with configuration, logging and
// metrics.
package pcmstream
