// SPDX-License-Identifier: EPL-2.0

// Package audio describes sample containers to the streaming layer.
//
// A voice streams raw 16-bit PCM straight from disk, so the only thing it
// needs from a container is where the samples start, how many bytes they
// span and in which byte order they are stored. That is a Header.
//
// # Locators
//
// A Locator parses one container format and returns its Header:
//
//	type Locator interface {
//	    Locate(r io.ReadSeeker) (Header, error)
//	}
//
// The formats/wav and formats/aiff packages provide locators for WAV and
// AIFF files. Both accept mono 16-bit PCM only.
//
// # Format Registry
//
// The registry maps format keys to locators. Keys are case-insensitive and
// a leading dot is dropped, so a file extension can be used as a key:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Locator{})
//	registry.Register("aiff", aiff.Locator{})
//	hdr, err := registry.Locate("kick.WAV", f)
//
// Locate returns ErrUnsupportedFormat when no locator is registered for
// the extension.
//
// # Sample Format
//
// Samples on disk are signed 16-bit integers. The render path converts
// them to float32 in the range [-1.0, 1.0) by dividing by 32768 (see
// utils.Int16ToFloat32).
package audio
