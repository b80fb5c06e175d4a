// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// Int16ToFloat32 maps a 16-bit PCM sample onto [-1, 1).
// -32768 maps to exactly -1.0.
func Int16ToFloat32(s int16) float32 {
	return float32(s) / 32768.0
}

func Float32ToInt16(x float32) int16 {
	// Clamp and scale
	x = Clamp(x, -1, 1)

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}

	return x
}

// DecodePCM16 decodes whole 16-bit samples from src into dst using order and
// returns the number of samples written. A trailing odd byte is ignored.
func DecodePCM16(dst []int16, src []byte, order binary.ByteOrder) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		dst[i] = int16(order.Uint16(src[2*i : 2*i+2]))
	}

	return n
}
