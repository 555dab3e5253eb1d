/*
Package xlog provides a Logger interface and supporting functions to control
debug output.

The log.Logger type of the standard library supports the Logger interface.
Calling the print functions of this package with a nil Logger does nothing,
so the decoders can keep a package variable that is nil unless debugging has
been switched on. No formatting is done in that case.
*/
package xlog

import "fmt"

// Logger is the interface required for debug output. The log.Logger type
// supports it.
type Logger interface {
	Output(calldepth int, s string) error
}

// Print outputs the arguments using the logger. If the logger is nil nothing
// will be printed.
func Print(l Logger, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprint(v...))
	}
}

// Printf prints the arguments using the format string. If the logger argument
// is nil nothing will be printed.
func Printf(l Logger, format string, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprintf(format, v...))
	}
}

// Println prints the arguments and adds a newline. If the logger argument is
// nil nothing will be printed.
func Println(l Logger, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprintln(v...))
	}
}

// Func converts a function into a Logger. The call depth is ignored.
type Func func(s string)

// Output calls the function.
func (f Func) Output(calldepth int, s string) error {
	f(s)
	return nil
}

type prefixLogger struct {
	l      Logger
	prefix string
}

func (p *prefixLogger) Output(calldepth int, s string) error {
	return p.l.Output(calldepth+1, p.prefix+s)
}

// WithPrefix returns a logger that puts the prefix in front of every
// message. It returns nil for a nil logger.
func WithPrefix(l Logger, prefix string) Logger {
	if l == nil {
		return nil
	}
	return &prefixLogger{l: l, prefix: prefix}
}
