// Package corpus loads test corpora and compresses them with third-party
// encoders. The compressed data is used to check and benchmark the
// decoders.
package corpus

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/ulikunitz/xz/lzma"
)

// File is a corpus file.
type File struct {
	Name string
	Data []byte
}

// Files reads all regular files of the corpus.
func Files(corpus fs.FS) (files []File, err error) {
	err = fs.WalkDir(corpus, ".",
		func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			data, err := fs.ReadFile(corpus, path)
			if err != nil {
				return err
			}
			files = append(files, File{Name: path, Data: data})
			return nil
		})
	return files, err
}

// Size returns the total size of the files.
func Size(files []File) int64 {
	n := int64(0)
	for _, f := range files {
		n += int64(len(f.Data))
	}
	return n
}

// Formats supported by Compress.
const (
	Deflate = "deflate"
	ZLIB    = "zlib"
	Bzip2   = "bzip2"
	LZMA    = "lzma"
)

// Formats lists the formats supported by Compress.
var Formats = []string{Deflate, ZLIB, Bzip2, LZMA}

// Compress compresses data in the given format. LZMA data is preceded by
// the 13-byte header with the size of the data.
func Compress(format string, data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	var (
		w   io.WriteCloser
		err error
	)
	switch format {
	case Deflate:
		w, err = flate.NewWriter(buf, flate.DefaultCompression)
	case ZLIB:
		w, err = zlib.NewWriterLevel(buf, zlib.DefaultCompression)
	case Bzip2:
		w, err = dsbzip2.NewWriter(buf,
			&dsbzip2.WriterConfig{Level: 9})
	case LZMA:
		w, err = lzma.WriterConfig{
			SizeInHeader: true,
			Size:         int64(len(data)),
		}.NewWriter(buf)
	default:
		return nil, fmt.Errorf("corpus: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if _, err = w.Write(data); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
