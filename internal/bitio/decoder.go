package bitio

import (
	"io"

	"github.com/ulikunitz/unpack"
)

// Decoder feeds the bytes of a source into a number of registers. Every
// byte is fed into all registers, so the registers always hold the same bits
// in different orders. After the source has been exhausted the trailing
// bytes are fed, which allows formats to peek beyond the end of the stream.
//
// Register 0 is used for byte reads and must not reverse the bits of the
// bytes fed.
type Decoder struct {
	regs     []Register
	trailing []byte
	// number of trailing bytes fed
	tpos  int
	eof   bool
	total int64
	p     [1]byte
}

// NewDecoder creates a new decoder for the registers.
func NewDecoder(trailing []byte, regs ...Register) *Decoder {
	if len(regs) == 0 {
		panic("bitio: no registers")
	}
	return &Decoder{regs: regs, trailing: trailing}
}

// Reset clears all registers and counters.
func (d *Decoder) Reset() {
	for _, r := range d.regs {
		r.Clear()
	}
	d.tpos = 0
	d.eof = false
	d.total = 0
}

// TotalBits returns the number of bits consumed.
func (d *Decoder) TotalBits() int64 { return d.total }

// readByte reads a single byte from the source.
func (d *Decoder) readByte(src io.Reader) (b byte, err error) {
	if br, ok := src.(io.ByteReader); ok {
		return br.ReadByte()
	}
	for {
		n, err := src.Read(d.p[:])
		if n == 1 {
			return d.p[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (d *Decoder) feed(b byte) {
	for _, r := range d.regs {
		r.Feed(b)
	}
}

// fill makes sure that register reg holds at least n bits.
func (d *Decoder) fill(src io.Reader, n uint, reg int) error {
	r := d.regs[reg]
	for r.Len() < n {
		if !d.eof {
			b, err := d.readByte(src)
			if err == nil {
				d.feed(b)
				continue
			}
			if err != io.EOF {
				return err
			}
			d.eof = true
		}
		if d.tpos >= len(d.trailing) {
			return unpack.InsufficientData("bitio",
				"end of input reached")
		}
		d.feed(d.trailing[d.tpos])
		d.tpos++
	}
	return nil
}

// PeekBits returns the next n bits from register reg without consuming
// them.
func (d *Decoder) PeekBits(src io.Reader, n uint, reg int) (uint32, error) {
	if n > 32 {
		panic("bitio: more than 32 bits requested")
	}
	if err := d.fill(src, n, reg); err != nil {
		return 0, err
	}
	return d.regs[reg].Peek(n), nil
}

// DecodeBits reads n bits from register reg and consumes them in all
// registers.
func (d *Decoder) DecodeBits(src io.Reader, n uint, reg int) (uint32, error) {
	v, err := d.PeekBits(src, n, reg)
	if err != nil {
		return 0, err
	}
	d.DiscardBits(n)
	return v, nil
}

// DiscardBits consumes n bits that have been peeked before.
func (d *Decoder) DiscardBits(n uint) {
	for _, r := range d.regs {
		r.Discard(n)
	}
	d.total += int64(n)
}

// AlignToByte discards the bits up to the next byte boundary.
func (d *Decoder) AlignToByte() {
	d.DiscardBits(d.regs[0].Len() % 8)
}

// available returns the number of bits in the registers that stem from the
// source and not from the trailing bytes.
func (d *Decoder) available() uint {
	n := d.regs[0].Len()
	t := 8 * uint(d.tpos)
	if t >= n {
		return 0
	}
	return n - t
}

// ReadBytes fills dst with the next bytes of the stream. The decoder must be
// aligned. The bytes buffered in the registers are returned first, then the
// source is read directly. Trailing bytes are never returned.
func (d *Decoder) ReadBytes(src io.Reader, dst []byte) (n int, err error) {
	if d.regs[0].Len()%8 != 0 {
		panic("bitio: ReadBytes requires byte alignment")
	}
	r := d.regs[0]
	for n < len(dst) && d.available() >= 8 {
		dst[n] = byte(r.Peek(8))
		d.DiscardBits(8)
		n++
	}
	for n < len(dst) {
		if d.eof {
			return n, unpack.InsufficientData("bitio",
				"end of input reached")
		}
		k, err := src.Read(dst[n:])
		n += k
		d.total += 8 * int64(k)
		if err != nil {
			if err != io.EOF {
				return n, err
			}
			d.eof = true
		}
	}
	return n, nil
}

// ReadByte reads a single byte. See ReadBytes.
func (d *Decoder) ReadByte(src io.Reader) (byte, error) {
	var p [1]byte
	if _, err := d.ReadBytes(src, p[:]); err != nil {
		return 0, err
	}
	return p[0], nil
}

// More reports whether more input is available. It may feed a byte from
// the source into the registers.
func (d *Decoder) More(src io.Reader) (bool, error) {
	if d.available() > 0 {
		return true, nil
	}
	if d.eof {
		return false, nil
	}
	b, err := d.readByte(src)
	if err != nil {
		if err == io.EOF {
			d.eof = true
			return false, nil
		}
		return false, err
	}
	d.feed(b)
	return true, nil
}
