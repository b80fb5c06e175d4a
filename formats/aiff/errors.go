// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	// ErrNotAiffFile indicates the file is not a valid AIFF file
	ErrNotAiffFile = errors.New("not an AIFF file")

	// ErrOnlyPCM16bitSupported indicates only uncompressed 16-bit PCM is supported
	ErrOnlyPCM16bitSupported = errors.New("only 16-bit PCM AIFF is supported")

	// ErrOnlyMonoSupported indicates the file has more than one channel
	ErrOnlyMonoSupported = errors.New("only mono AIFF is supported")

	// ErrSoundChunkNotFound indicates the file has no SSND chunk
	ErrSoundChunkNotFound = errors.New("AIFF sound data chunk not found")
)
