// SPDX-License-Identifier: EPL-2.0

package voice

import "errors"

var (
	ErrOpenFailed    = errors.New("failed to open sample file")
	ErrHeaderParse   = errors.New("failed to parse sample header")
	ErrSeekFailed    = errors.New("failed to seek to sample data")
	ErrNotOpen       = errors.New("voice has no open file")
	ErrInvalidConfig = errors.New("invalid voice config")
)
