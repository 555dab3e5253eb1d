package lzma

// decoderDict is the circular dictionary of the decoder. New bytes are
// written at index c; flush reads them at index r. Bytes that haven't been
// flushed are never overwritten.
type decoderDict struct {
	data []byte
	// current index
	c int
	// reader index
	r int
	// bytes written but not flushed
	pending int
	// total number of bytes written
	pos int64
}

// newDecoderDict allocates a dictionary with the given buffer size.
func newDecoderDict(size int) *decoderDict {
	return &decoderDict{data: make([]byte, size)}
}

// reset clears the dictionary without releasing the buffer.
func (d *decoderDict) reset() {
	*d = decoderDict{data: d.data}
}

// available returns the number of bytes that can be written without
// overwriting bytes that haven't been flushed.
func (d *decoderDict) available() int { return len(d.data) - d.pending }

// byteAt returns the byte at the given distance. Distance 1 is the last
// byte written. Zero is returned for distances outside of the data
// written.
func (d *decoderDict) byteAt(dist int) byte {
	if !(0 < dist && int64(dist) <= d.pos && dist <= len(d.data)) {
		return 0
	}
	i := d.c - dist
	if i < 0 {
		i += len(d.data)
	}
	return d.data[i]
}

func (d *decoderDict) putByte(b byte) {
	d.data[d.c] = b
	d.c++
	if d.c == len(d.data) {
		d.c = 0
	}
	d.pending++
	d.pos++
}

// writeMatch copies n bytes starting at the distance dist. The caller must
// ensure that the distance is covered by the data written and that n
// doesn't exceed the available space.
func (d *decoderDict) writeMatch(dist, n int) {
	i := d.c - dist
	if i < 0 {
		i += len(d.data)
	}
	for ; n > 0; n-- {
		d.data[d.c] = d.data[i]
		i++
		if i == len(d.data) {
			i = 0
		}
		d.c++
		if d.c == len(d.data) {
			d.c = 0
		}
		d.pending++
		d.pos++
	}
}

// flush copies pending bytes into p.
func (d *decoderDict) flush(p []byte) int {
	n := 0
	for d.pending > 0 && n < len(p) {
		end := d.r + d.pending
		if end > len(d.data) {
			end = len(d.data)
		}
		k := copy(p[n:], d.data[d.r:end])
		n += k
		d.pending -= k
		d.r += k
		if d.r == len(d.data) {
			d.r = 0
		}
	}
	return n
}
