// SPDX-License-Identifier: EPL-2.0

package voice

import "fmt"

// DefaultCapacity is the ring size of a voice, in samples.
const DefaultCapacity = 4096

// Config sizes the ring buffer of a voice and its refill policy.
type Config struct {
	// Capacity of the ring buffer in samples.
	Capacity int
	// RefillChunk is the number of samples asked for on each refill.
	RefillChunk int
	// LowWater is the readable level below which a refill is requested.
	LowWater int
}

// DefaultConfig returns a 4096 sample ring refilled by halves.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero fields: Capacity 4096, RefillChunk and LowWater
// half the capacity.
func (c Config) WithDefaults() Config {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.RefillChunk == 0 {
		c.RefillChunk = c.Capacity / 2
	}
	if c.LowWater == 0 {
		c.LowWater = c.Capacity / 2
	}

	return c
}

// Validate reports whether c describes a usable ring. maxChunk is the
// largest read the request manager serves.
func (c Config) Validate(maxChunk int) error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d must be positive", ErrInvalidConfig, c.Capacity)
	case c.RefillChunk <= 0 || c.RefillChunk > c.Capacity:
		return fmt.Errorf("%w: refill chunk %d must be in (0, %d]", ErrInvalidConfig, c.RefillChunk, c.Capacity)
	case c.RefillChunk > maxChunk:
		return fmt.Errorf("%w: refill chunk %d exceeds request scratch of %d", ErrInvalidConfig, c.RefillChunk, maxChunk)
	case c.LowWater < 0 || c.LowWater > c.Capacity:
		return fmt.Errorf("%w: low water %d must be in [0, %d]", ErrInvalidConfig, c.LowWater, c.Capacity)
	}

	return nil
}
