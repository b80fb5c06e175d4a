// SPDX-License-Identifier: EPL-2.0

//go:build unix

package main

import (
	"os"
	"syscall"
)

var (
	restartSignals = []os.Signal{syscall.SIGUSR1}
	reopenSignals  = []os.Signal{syscall.SIGUSR2}
)
