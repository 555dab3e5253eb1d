package main

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ulikunitz/unpack/internal/xlog"
)

// newDebugLogger routes decoder debug output to the logrus logger. It
// returns nil for a nil logger, which switches the debug output off.
func newDebugLogger(l *logrus.Logger) xlog.Logger {
	if l == nil {
		return nil
	}
	return xlog.Func(func(s string) {
		l.Debug(strings.TrimSuffix(s, "\n"))
	})
}
