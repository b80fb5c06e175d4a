// SPDX-License-Identifier: EPL-2.0

// Package engine mixes streaming voices into fixed-size blocks.
//
// An Engine owns the render side of a set of voices: it applies control
// commands, pulls one block from every voice, scales and clamps the sum
// and hands it to a Sink. Run adds the request service goroutine and a
// statistics loop, all under one errgroup:
//
//	e, err := engine.New(cfg, manager, voices, &engine.MeterSink{})
//	if err != nil {
//	    return err
//	}
//	if err := e.Open(paths); err != nil {
//	    logger.Warn().Err(err).Msg("some voices are silent")
//	}
//	return e.Run(ctx)
//
// Control methods never touch a voice directly. Reopen does the blocking
// open on its caller's goroutine and posts the result; RestartAll and
// SetLooping post commands. RenderBlock applies them at the start of the
// next block.
package engine
