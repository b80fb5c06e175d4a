// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds test fixtures shared by the streaming packages:
// sample generators, container builders and an in-memory file system with
// fault injection.
package audiotest

import "math"

// Generate returns n samples produced by waveform.
func Generate(n int, waveform func(i int) int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = waveform(i)
	}

	return out
}

// Ramp returns n samples where sample i is int16(i). Values wrap past
// 32767, so every sample of a long ramp is predictable from its index.
func Ramp(n int) []int16 {
	return Generate(n, func(i int) int16 { return int16(i) })
}

// Sine returns n samples of a full scale sine wave.
func Sine(n, sampleRate int, frequency float64) []int16 {
	return Generate(n, func(i int) int16 {
		t := float64(i) / float64(sampleRate)
		return int16(math.Sin(2*math.Pi*frequency*t) * math.MaxInt16)
	})
}

// Constant returns n copies of v.
func Constant(n int, v int16) []int16 {
	return Generate(n, func(int) int16 { return v })
}
