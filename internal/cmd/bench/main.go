// Command bench measures the decoding speed of the decoders on the Silesia
// corpus.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"testing"

	"github.com/kr/pretty"
	"github.com/spf13/pflag"
	"github.com/ulikunitz/zdata"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/bzip2"
	"github.com/ulikunitz/unpack/deflate"
	"github.com/ulikunitz/unpack/internal/corpus"
	"github.com/ulikunitz/unpack/lzma"
)

// result summarizes the benchmark of a format.
type result struct {
	Format  string
	Ratio   float64
	MBPerS  float64
	NsPerOp int64
}

// mbPerSec returns the megabytes (1 000 000 bytes) per second that are
// processed.
func mbPerSec(r testing.BenchmarkResult) float64 {
	if r.Bytes <= 0 || r.T <= 0 || r.N <= 0 {
		return 0
	}
	return (float64(r.Bytes) * float64(r.N) / 1e6) / r.T.Seconds()
}

// compressed stores the original and the compressed data of a file.
type compressed struct {
	name string
	data []byte
	c    []byte
}

func compressFiles(format string, files []corpus.File, maxSize int,
) (cfiles []compressed, err error) {
	for _, f := range files {
		data := f.Data
		if maxSize > 0 && len(data) > maxSize {
			data = data[:maxSize]
		}
		c, err := corpus.Compress(format, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		cfiles = append(cfiles, compressed{f.Name, data, c})
	}
	return cfiles, nil
}

// newDecoder creates the decoder; the LZMA header is read from r.
func newDecoder(format string, r io.Reader) (unpack.Decoder, error) {
	switch format {
	case corpus.Deflate:
		return deflate.NewDecoder(), nil
	case corpus.ZLIB:
		return deflate.Config{Format: deflate.ZLIB}.NewDecoder()
	case corpus.Bzip2:
		return bzip2.NewDecoder(), nil
	case corpus.LZMA:
		h, err := lzma.ReadHeader(r)
		if err != nil {
			return nil, err
		}
		return h.Config().NewDecoder()
	}
	return nil, fmt.Errorf("format %q not supported", format)
}

func decodeFiles(format string, cfiles []compressed) error {
	for _, f := range cfiles {
		r := bytes.NewReader(f.c)
		d, err := newDecoder(format, r)
		if err != nil {
			return err
		}
		n, err := unpack.NewReader(d, r).WriteTo(io.Discard)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if n != int64(len(f.data)) {
			return fmt.Errorf("%s: decoded %d bytes; want %d",
				f.name, n, len(f.data))
		}
	}
	return nil
}

func decoderBenchmark(format string, cfiles []compressed,
) func(b *testing.B) {
	return func(b *testing.B) {
		var size int64
		for _, f := range cfiles {
			size += int64(len(f.data))
		}
		b.SetBytes(size)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := decodeFiles(format, cfiles); err != nil {
				b.Fatalf("decodeFiles error %s", err)
			}
		}
	}
}

func main() {
	log.SetPrefix("bench: ")
	log.SetFlags(0)
	testing.Init()

	var (
		formats = pflag.StringSliceP("format", "F", corpus.Formats,
			"formats to benchmark")
		maxSize = pflag.IntP("max-size", "m", 0,
			"maximum number of bytes used per file; 0 for all")
		verbose = pflag.BoolP("verbose", "v", false,
			"debug output of the decoders")
	)
	pflag.Parse()
	if *verbose {
		l := log.New(os.Stderr, "", 0)
		deflate.SetDebugLogger(l)
		bzip2.SetDebugLogger(l)
		lzma.SetDebugLogger(l)
	}

	files, err := corpus.Files(zdata.Silesia)
	if err != nil {
		log.Fatalf("corpus.Files(zdata.Silesia) error %s", err)
	}

	var results []result
	for _, format := range *formats {
		cfiles, err := compressFiles(format, files, *maxSize)
		if err != nil {
			log.Fatal(err)
		}
		var csize, usize int64
		for _, f := range cfiles {
			csize += int64(len(f.c))
			usize += int64(len(f.data))
		}
		r := testing.Benchmark(decoderBenchmark(format, cfiles))
		fmt.Printf("%s %s\n", format, r)
		results = append(results, result{
			Format:  format,
			Ratio:   float64(csize) / float64(usize),
			MBPerS:  mbPerSec(r),
			NsPerOp: r.NsPerOp(),
		})
	}
	fmt.Printf("\n### Result ###\n\n")
	pretty.Println(results)
}
