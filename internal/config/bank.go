// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one voice of a bank.
type Entry struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
}

// Bank lists the file each voice plays, relative to the sample directory.
//
//	voices:
//	  - path: kick.wav
//	  - path: pad.aiff
//	    loop: true
type Bank struct {
	Voices []Entry `yaml:"voices"`
}

// DefaultBank names n voices 40.wav, 42.wav, 44.wav and so on.
func DefaultBank(n int) *Bank {
	b := &Bank{Voices: make([]Entry, n)}
	for i := range b.Voices {
		b.Voices[i].Path = fmt.Sprintf("%d.wav", 40+2*i)
	}

	return b
}

// LoadBank reads and validates the YAML bank at path.
func LoadBank(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open bank %q: %w", path, err)
	}
	defer f.Close()

	b, err := DecodeBank(f)
	if err != nil {
		return nil, fmt.Errorf("config: bank %q: %w", path, err)
	}

	return b, nil
}

// DecodeBank decodes a YAML bank from r and validates it. Unknown keys are
// rejected.
func DecodeBank(r io.Reader) (*Bank, error) {
	var b Bank

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBank, err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}

// Validate requires at least one voice and a path for each.
func (b *Bank) Validate() error {
	if len(b.Voices) == 0 {
		return fmt.Errorf("%w: no voices", ErrInvalidBank)
	}

	var errs []error
	for i, v := range b.Voices {
		if v.Path == "" {
			errs = append(errs, fmt.Errorf("%w: voice %d has no path", ErrInvalidBank, i))
		}
	}

	return errors.Join(errs...)
}

// Paths returns the file of every voice in order.
func (b *Bank) Paths() []string {
	paths := make([]string, len(b.Voices))
	for i, v := range b.Voices {
		paths[i] = v.Path
	}

	return paths
}
