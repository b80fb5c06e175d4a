// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	// ErrInvalidConfig is returned when a setting is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidBank is returned for a voice bank that cannot be played.
	ErrInvalidBank = errors.New("invalid voice bank")
)
