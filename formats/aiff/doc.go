// SPDX-License-Identifier: EPL-2.0

// Package aiff locates the sample data of AIFF files.
//
// The format fields (channels, bit depth, sample rate) are read with
// github.com/go-audio/aiff. The position of the samples is found by walking
// the chunk list to the SSND chunk and applying its offset field.
//
// # Supported Formats
//
// Currently supported:
//   - AIFF, mono, 16-bit, any sample rate
//   - AIFC with the uncompressed "NONE" and "twos" (big endian) or "sowt"
//     (little endian) compression types
//
// # Locating Sample Data
//
//	f, _ := os.Open("snare.aiff")
//	hdr, err := aiff.Locator{}.Locate(f)
//	if err != nil {
//	    // Handle error
//	}
//	// f now sits on the first sample
//
// AIFF stores samples big endian; hdr.ByteOrder says which order to decode
// with.
//
// # Error Handling
//
// The package defines several error types:
//   - ErrNotAiffFile: The input is not a FORM/AIFF file
//   - ErrOnlyPCM16bitSupported: Compressed or not 16-bit data
//   - ErrOnlyMonoSupported: More than one channel
//   - ErrSoundChunkNotFound: No SSND chunk
package aiff
