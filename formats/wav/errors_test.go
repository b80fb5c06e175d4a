// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"testing"
)

var allErrors = map[string]error{
	"ErrNotWavFile":            ErrNotWavFile,
	"ErrOnlyPCM16bitSupported": ErrOnlyPCM16bitSupported,
	"ErrOnlyMonoSupported":     ErrOnlyMonoSupported,
	"ErrUnsupportedWavChunks":  ErrUnsupportedWavChunks,
}

func TestErrors_IsComparison(t *testing.T) {
	t.Parallel()

	for name, err := range allErrors {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if !errors.Is(err, err) {
				t.Errorf("errors.Is(%s, %s) = false, want true", name, name)
			}

			otherErr := errors.New("some other error")
			if errors.Is(otherErr, err) {
				t.Errorf("errors.Is(otherErr, %s) = true, want false", name)
			}

			wrappedErr := errors.Join(err, errors.New("additional context"))
			if !errors.Is(wrappedErr, err) {
				t.Errorf("errors.Is(wrappedErr, %s) = false, want true", name)
			}
		})
	}
}

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	messages := make(map[string]string)

	for name, err := range allErrors {
		msg := err.Error()
		if existing, found := messages[msg]; found {
			t.Errorf("%s has same message as %s: %q", name, existing, msg)
		}
		messages[msg] = name
	}
}
