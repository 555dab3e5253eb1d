// Command unpack decompresses DEFLATE, zlib, bzip2 and LZMA files.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ulikunitz/unpack/bzip2"
	"github.com/ulikunitz/unpack/deflate"
	"github.com/ulikunitz/unpack/lzma"
)

const usageStr = `Usage: unpack [OPTION]... [FILE]...
Decompress FILEs in place. The format is detected from the file suffix:
.deflate, .deflate64, .zz, .zlib, .bz2 and .lzma.

  -c, --stdout           write to standard output and keep input files
  -F, --format NAME      decode the files in the given format
  -f, --force            overwrite existing output files
  -h, --help             give this help
  -k, --keep             keep (don't delete) input files
  -o, --offset N         skip N bytes of each input before decoding
  -p, --property K=V     set a decoder property; may be repeated
      --list-formats     list the supported formats
      --show-properties  show the decoder properties of the formats
  -v, --verbose          print statistics and debug output

With no FILE, or when FILE is -, read standard input. Reading standard
input requires the -F option.
`

// options stores the command line options.
type options struct {
	stdout  bool
	force   bool
	keep    bool
	verbose bool
	format  string
	offset  int64
	params  []string
}

// exit status values
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// command holds the environment of a single run.
type command struct {
	stdin  io.Reader
	stdout io.Writer
	log    *logrus.Logger
	opts   options
	status int
}

// warn reports a problem with a file and sets the exit status.
func (c *command) warn(err error) {
	c.log.Warn(err)
	c.status = exitFailure
}

// setDebugLogger routes the debug output of the decoders through logrus.
func setDebugLogger(l *logrus.Logger) {
	dl := newDebugLogger(l)
	deflate.SetDebugLogger(dl)
	bzip2.SetDebugLogger(dl)
	lzma.SetDebugLogger(dl)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmdName := filepath.Base(args[0])
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	log.SetLevel(logrus.InfoLevel)

	fs := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(true)
	fs.Usage = func() { fmt.Fprint(stderr, usageStr) }
	c := &command{stdin: stdin, stdout: stdout, log: log}
	var (
		help           = fs.BoolP("help", "h", false, "")
		listFormatsOpt = fs.Bool("list-formats", false, "")
		showProps      = fs.Bool("show-properties", false, "")
	)
	fs.BoolVarP(&c.opts.stdout, "stdout", "c", false, "")
	fs.BoolVarP(&c.opts.force, "force", "f", false, "")
	fs.BoolVarP(&c.opts.keep, "keep", "k", false, "")
	fs.BoolVarP(&c.opts.verbose, "verbose", "v", false, "")
	fs.StringVarP(&c.opts.format, "format", "F", "", "")
	fs.StringArrayVarP(&c.opts.params, "property", "p", nil, "")
	fs.Int64VarP(&c.opts.offset, "offset", "o", 0, "")

	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	if *help {
		fmt.Fprint(stdout, usageStr)
		return exitOK
	}
	if c.opts.verbose {
		log.SetLevel(logrus.DebugLevel)
		setDebugLogger(log)
		defer setDebugLogger(nil)
	}
	if *listFormatsOpt {
		listFormats(stdout)
		return exitOK
	}
	if *showProps {
		return c.showProperties()
	}
	if c.opts.offset < 0 {
		log.Errorf("negative offset %d", c.opts.offset)
		return exitUsage
	}
	if c.opts.format != "" {
		if _, err := lookupFormat(c.opts.format); err != nil {
			log.Error(err)
			return exitUsage
		}
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	for _, path := range paths {
		c.processFile(path)
	}
	return c.status
}

// showProperties prints the properties of the selected format or of all
// formats.
func (c *command) showProperties() int {
	names := sortedFormats()
	if c.opts.format != "" {
		names = []string{c.opts.format}
	}
	for _, name := range names {
		f, err := lookupFormat(name)
		if err != nil {
			c.log.Error(err)
			return exitUsage
		}
		p, err := f.properties(c.opts.params)
		if err != nil {
			c.log.Error(err)
			return exitUsage
		}
		pretty.Fprintf(c.stdout, "%s (%s): %# v\n", f.name, f.decoder,
			propertyValues(p))
	}
	return exitOK
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
