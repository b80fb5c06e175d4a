// SPDX-License-Identifier: EPL-2.0

package request

import "errors"

var (
	// ErrQueueFull is returned by Requester.Submit when the manager queue
	// has no free slot. The request is dropped.
	ErrQueueFull = errors.New("request queue is full")
)
