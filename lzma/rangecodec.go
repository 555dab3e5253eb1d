package lzma

import (
	"io"

	"github.com/ulikunitz/unpack"
)

// rangeDecoder decodes single bits of the range encoding stream.
type rangeDecoder struct {
	br     io.ByteReader
	nrange uint32
	code   uint32
}

// init initializes the range decoder by reading five bytes from the byte
// reader. The first byte must be zero.
func (d *rangeDecoder) init(br io.ByteReader) error {
	*d = rangeDecoder{br: br, nrange: 0xffffffff}
	b, err := d.readByte()
	if err != nil {
		return err
	}
	if b != 0 {
		return unpack.InvalidData("lzma",
			"first byte of range coder stream not zero")
	}
	for i := 0; i < 4; i++ {
		if err = d.updateCode(); err != nil {
			return err
		}
	}
	if d.code >= d.nrange {
		return unpack.InvalidData("lzma", "range coder code too large")
	}
	return nil
}

// readByte reads the next byte. The end of the input is reported as
// insufficient data because the range coder always needs more bytes.
func (d *rangeDecoder) readByte() (byte, error) {
	b, err := d.br.ReadByte()
	if err == io.EOF {
		return 0, unpack.InsufficientData("lzma", "end of input reached")
	}
	return b, err
}

// updateCode reads a new byte into the code.
func (d *rangeDecoder) updateCode() error {
	b, err := d.readByte()
	if err != nil {
		return err
	}
	d.code = (d.code << 8) | uint32(b)
	return nil
}

// normalize keeps the range above 2^24 by reading another byte.
func (d *rangeDecoder) normalize() error {
	const top = 1 << 24
	if d.nrange >= top {
		return nil
	}
	d.nrange <<= 8
	// d.code < d.nrange will be maintained
	return d.updateCode()
}

// directDecodeBit decodes a bit with probability 1/2. The return value b will
// contain the bit at the least-significant position. All other bits will be
// zero.
func (d *rangeDecoder) directDecodeBit() (b uint32, err error) {
	d.nrange >>= 1
	d.code -= d.nrange
	t := 0 - (d.code >> 31)
	d.code += d.nrange & t
	b = (t + 1) & 1
	return b, d.normalize()
}

// decodeBit decodes a single bit. The bit will be returned at the
// least-significant position. All other bits will be zero. The probability
// value will be updated.
func (d *rangeDecoder) decodeBit(p *prob) (b uint32, err error) {
	bound := p.bound(d.nrange)
	if d.code < bound {
		d.nrange = bound
		p.inc()
		b = 0
	} else {
		d.code -= bound
		d.nrange -= bound
		p.dec()
		b = 1
	}
	return b, d.normalize()
}
