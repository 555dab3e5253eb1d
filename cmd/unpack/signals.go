//go:build !windows

package main

import (
	"os"
	"syscall"
)

// termsigs contains the signals that terminate the program. The temporary
// output file is removed if one of them is received.
var termsigs = []os.Signal{
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGPIPE,
	syscall.SIGTERM,
}
