package unpack

import "io"

// Decoder is the interface implemented by all format decoders.
//
// Decode writes decoded bytes into dst and returns their number. The source
// is read on demand; it doesn't need to be the same reader for all calls, but
// it must continue the stream where the last call stopped. Decode returns
// (0, io.EOF) after the stream has been completely decoded and all bytes have
// been delivered. Any other error is fatal and the decoder must be Reset
// before it can be used again.
type Decoder interface {
	// Name returns the compression name, e.g. "LZMA compression".
	Name() string
	// Properties returns the properties the decoder has been created
	// with. Changes to the returned value have no effect on the decoder.
	Properties() *Properties
	// Reset puts the decoder into its initial state.
	Reset()
	Decode(dst []byte, src io.Reader) (n int, err error)
}

// Reader supports the reading of decoded data using the io.Reader interface.
type Reader struct {
	d   Decoder
	src io.Reader
	err error
}

// NewReader returns a reader for the data decoded from src.
func NewReader(d Decoder, src io.Reader) *Reader {
	return &Reader{d: d, src: src}
}

// Read reads decoded data. It never returns zero bytes without an error if p
// is not empty.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err = r.d.Decode(p, r.src)
		if err != nil {
			r.err = err
			return n, err
		}
		if n > 0 {
			return n, nil
		}
	}
}

// WriteTo writes the complete decoded stream to w.
func (r *Reader) WriteTo(w io.Writer) (n int64, err error) {
	if r.err != nil {
		if r.err == io.EOF {
			return 0, nil
		}
		return 0, r.err
	}
	buf := make([]byte, 64*1024)
	for {
		k, err := r.d.Decode(buf, r.src)
		if k > 0 {
			m, werr := w.Write(buf[:k])
			n += int64(m)
			if werr != nil {
				return n, werr
			}
			if m < k {
				return n, io.ErrShortWrite
			}
		}
		if err != nil {
			r.err = err
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
	}
}
