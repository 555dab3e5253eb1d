package lzma

import "github.com/ulikunitz/unpack/internal/xlog"

// debug stores a reference to a logger. It may contain nil for no output.
var debug xlog.Logger

// SetDebugLogger sets the logger for debug output of the package. The
// log.Logger type can be used. A nil logger switches the output off.
func SetDebugLogger(l xlog.Logger) {
	debug = xlog.WithPrefix(l, "lzma: ")
}
