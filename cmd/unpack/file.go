package main

import (
	"bufio"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/bzip2"
	"github.com/ulikunitz/unpack/internal/stream"
)

// unpackSuffix is appended to the output path for the temporary file.
const unpackSuffix = ".unpack"

// signalHandler removes the temporary file if the program is terminated.
// The returned quit channel must be closed to terminate the handler
// goroutine.
func signalHandler(tmpPath string) chan<- struct{} {
	quit := make(chan struct{})
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, termsigs...)
	go func() {
		select {
		case <-quit:
			signal.Stop(sigch)
			return
		case <-sigch:
			if tmpPath != "-" {
				os.Remove(tmpPath)
			}
			os.Exit(7)
		}
	}()
	return quit
}

// userPathError represents a path error presentable to a user. Unlike
// os.PathError it doesn't contain the operation.
type userPathError struct {
	Path string
	Err  error
}

func (e *userPathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *userPathError) Unwrap() error { return e.Err }

// userError removes the operation from path errors.
func userError(err error) error {
	var pe *os.PathError
	if !errors.As(err, &pe) {
		return err
	}
	return &userPathError{Path: pe.Path, Err: pe.Err}
}

// outputPaths determines the format of the file and the output paths.
func (c *command) outputPaths(path string) (f *format, out, tmp string,
	err error) {
	if path == "-" {
		if c.opts.format == "" {
			return nil, "", "", errors.New(
				"standard input requires the format option")
		}
		f, err = lookupFormat(c.opts.format)
		return f, "-", "-", err
	}
	f, out, err = detectFormat(path)
	if c.opts.format != "" {
		if f, err = lookupFormat(c.opts.format); err != nil {
			return nil, "", "", err
		}
		if out == "" {
			out = path + ".out"
		}
	} else if err != nil {
		return nil, "", "", errors.Wrapf(err, "%s", path)
	}
	if c.opts.stdout {
		return f, "-", "-", nil
	}
	return f, out, out + unpackSuffix, nil
}

// decompress decodes the data from r and writes it to w.
func (c *command) decompress(w io.Writer, r io.Reader, f *format,
	path string) error {
	if c.opts.offset > 0 {
		if _, err := stream.NewCounter(r).Discard64(c.opts.offset); err != nil {
			return errors.Wrapf(err, "%s: skipping offset", path)
		}
	}
	br := bufio.NewReader(r)
	d, err := f.newDecoder(br, c.opts.params)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	s := unpack.NewStats(d)
	bw := bufio.NewWriter(w)
	if _, err = unpack.NewReader(s, br).WriteTo(bw); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"in":      s.TotalIn(),
		"out":     s.TotalOut(),
		"rateOut": s.RateOut(),
		"time":    s.ProcessingTime(),
	}).Debugf("%s: %s", path, d.Name())
	if bd, ok := d.(*bzip2.Decoder); ok && !bd.CRCCheckPassed() {
		c.warn(errors.Errorf("%s: CRC check failed", path))
	}
	return nil
}

// unpackFile decodes path into tmpPath.
func (c *command) unpackFile(f *format, path, tmpPath string) (err error) {
	src := c.stdin
	if path != "-" {
		fi, err := os.Lstat(path)
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return errors.Errorf("%s is not a regular file", path)
		}
		r, err := os.Open(path)
		if err != nil {
			return err
		}
		defer r.Close()
		src = r
	}

	w := c.stdout
	if tmpPath != "-" {
		if c.opts.force {
			os.Remove(tmpPath)
		}
		var fw *os.File
		fw, err = os.OpenFile(tmpPath,
			os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				fw.Close()
			} else {
				err = fw.Close()
			}
		}()
		w = fw
	}
	return c.decompress(w, src, f, path)
}

// processFile decompresses a single file.
func (c *command) processFile(path string) {
	f, outputPath, tmpPath, err := c.outputPaths(path)
	if err != nil {
		c.warn(userError(err))
		return
	}
	if outputPath != "-" {
		_, err = os.Lstat(outputPath)
		if err == nil && !c.opts.force {
			c.warn(errors.Errorf("file %s exists", outputPath))
			return
		}
	}
	defer func() {
		if tmpPath != "-" {
			os.Remove(tmpPath)
		}
	}()
	quit := signalHandler(tmpPath)
	defer close(quit)

	if err = c.unpackFile(f, path, tmpPath); err != nil {
		c.warn(userError(err))
		return
	}
	if tmpPath != "-" && outputPath != "-" {
		if err = os.Rename(tmpPath, outputPath); err != nil {
			c.warn(userError(err))
			return
		}
	}
	if !c.opts.keep && !c.opts.stdout && path != "-" {
		if err = os.Remove(path); err != nil {
			c.warn(userError(err))
			return
		}
	}
}
