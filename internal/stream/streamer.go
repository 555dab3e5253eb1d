// Package stream provides a reader that keeps track of the number of bytes
// read and supports the discarding of input.
package stream

import (
	"errors"
	"io"
)

// Counter is a reader that counts the bytes read from the underlying reader.
// The reader can be replaced without resetting the offset, which allows a
// decoder to be called with a different source for every call.
type Counter struct {
	r   io.Reader
	buf []byte
	off int64
}

// NewCounter creates a counter for the reader.
func NewCounter(r io.Reader) *Counter {
	return &Counter{r: r}
}

// SetReader replaces the underlying reader. The offset is kept.
func (c *Counter) SetReader(r io.Reader) { c.r = r }

// Offset returns the number of bytes read since the counter has been
// created or reset.
func (c *Counter) Offset() int64 {
	return c.off
}

// Reset sets the offset to zero.
func (c *Counter) Reset() { c.off = 0 }

// Read reads data into p. The offset will be updated accordingly.
func (c *Counter) Read(p []byte) (n int, err error) {
	n, err = c.r.Read(p)
	c.off += int64(n)
	return n, err
}

// ReadByte reads a single byte. It uses the ReadByte method of the
// underlying reader if available.
func (c *Counter) ReadByte() (b byte, err error) {
	if br, ok := c.r.(io.ByteReader); ok {
		b, err = br.ReadByte()
		if err == nil {
			c.off++
		}
		return b, err
	}
	var p [1]byte
	for {
		n, err := c.Read(p[:])
		if n == 1 {
			return p[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Discard64 discards n bytes from the reader. It returns an error if n < 0
// or if the underlying Read method returns an error.
func (c *Counter) Discard64(n int64) (discarded int64, err error) {
	if n <= 0 {
		if n < 0 {
			return 0, errors.New("discard: negative count")
		}
		return 0, nil
	}
	if c.buf == nil {
		c.buf = make([]byte, 16*1024)
	}
	p := c.buf
	k := n
	for k > 0 {
		if k < int64(len(p)) {
			p = p[:k]
		}
		s, err := c.Read(p)
		k -= int64(s)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return n - k, err
		}
	}
	return n, nil
}
