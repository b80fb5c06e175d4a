// SPDX-License-Identifier: EPL-2.0

// Package observability builds the process logger and the Prometheus
// instruments shared by the request manager, the voices and the engine.
package observability
