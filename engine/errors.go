// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid engine configuration")
	// ErrNoVoices is returned by New without any voice.
	ErrNoVoices = errors.New("engine has no voices")
	// ErrCommandQueueFull is returned when the render goroutine is too far
	// behind to take another command.
	ErrCommandQueueFull = errors.New("engine command queue is full")
	// ErrVoiceCount is returned when a path list does not match the voices.
	ErrVoiceCount = errors.New("path count does not match voice count")
	// ErrVoiceIndex is returned for a voice index out of range.
	ErrVoiceIndex = errors.New("voice index out of range")
)
