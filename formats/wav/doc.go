// SPDX-License-Identifier: EPL-2.0

// Package wav locates the sample data of WAV files.
//
// Voices stream samples straight from disk, so this package does not
// decode audio. It parses the RIFF header with github.com/go-audio/wav,
// checks the format and reports where the PCM data chunk starts.
//
// # Supported Formats
//
// Only mono PCM 16-bit files are accepted, at any sample rate. Extra
// chunks between fmt and data (LIST, JUNK, fact, ...) are skipped.
//
// # Locating Sample Data
//
//	f, _ := os.Open("kick.wav")
//	hdr, err := wav.Locator{}.Locate(f)
//	if err != nil {
//	    // Handle error
//	}
//	// f now sits on the first sample
//	fmt.Println(hdr.DataOffset, hdr.Samples())
//
// # Error Handling
//
// The package defines several error types:
//   - ErrNotWavFile: The input is not a RIFF/WAVE file
//   - ErrOnlyPCM16bitSupported: The data is not 16-bit integer PCM
//   - ErrOnlyMonoSupported: The file has more than one channel
//   - ErrUnsupportedWavChunks: No data chunk could be found
//
// Errors from the underlying parser are wrapped, so errors.Is works:
//
//	if errors.Is(err, wav.ErrOnlyMonoSupported) {
//	    fmt.Println("convert the file to mono first")
//	}
package wav
