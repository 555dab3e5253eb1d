// Package bitio provides bit registers and a decoder that feeds the bytes of
// a source into multiple registers in lock-step.
package bitio

import "math/bits"

// Register holds bits that have been read from the input but not yet
// consumed. A register must never be asked for more than 32 bits.
type Register interface {
	// Feed appends the 8 bits of the byte.
	Feed(b byte)
	// Peek returns the next n bits without consuming them.
	Peek(n uint) uint32
	// Discard consumes n bits.
	Discard(n uint)
	// Len returns the number of bits available.
	Len() uint
	// Clear removes all bits.
	Clear()
}

func mask(n uint) uint64 { return 1<<n - 1 }

// checkPeek panics if n bits cannot be provided.
func checkPeek(n, len uint) {
	if n > 32 {
		panic("bitio: more than 32 bits requested")
	}
	if n > len {
		panic("bitio: not enough bits in register")
	}
}

// MSB is a register for streams that store the most-significant bit of a
// value first. It is used by bzip2.
type MSB struct {
	reg uint64
	n   uint
}

// Feed appends the byte.
func (r *MSB) Feed(b byte) {
	r.reg = r.reg<<8 | uint64(b)
	r.n += 8
}

// Peek returns the next n bits.
func (r *MSB) Peek(n uint) uint32 {
	checkPeek(n, r.n)
	return uint32((r.reg >> (r.n - n)) & mask(n))
}

// Discard consumes n bits.
func (r *MSB) Discard(n uint) {
	if n > r.n {
		panic("bitio: discard exceeds register length")
	}
	r.n -= n
	r.reg &= mask(r.n)
}

// Len returns the number of bits in the register.
func (r *MSB) Len() uint { return r.n }

// Clear empties the register.
func (r *MSB) Clear() { *r = MSB{} }

// LSBStream is a register for streams that store the least-significant bit
// of a byte first, but whose values have to be read bit by bit in stream
// order. The bytes are reversed when fed, so the prefix codes of DEFLATE can
// be peeked with their first bit as most-significant bit.
type LSBStream struct {
	MSB
}

// Feed appends the reversed byte.
func (r *LSBStream) Feed(b byte) {
	r.MSB.Feed(bits.Reverse8(b))
}

// Clear empties the register.
func (r *LSBStream) Clear() { *r = LSBStream{} }

// LSBBytes is a register for streams that store the least-significant bit
// first and combine bits into values with the first bit as least-significant
// bit. DEFLATE uses it for header fields and extra bits.
type LSBBytes struct {
	reg uint64
	n   uint
}

// Feed appends the byte above the existing bits.
func (r *LSBBytes) Feed(b byte) {
	r.reg |= uint64(b) << r.n
	r.n += 8
}

// Peek returns the next n bits.
func (r *LSBBytes) Peek(n uint) uint32 {
	checkPeek(n, r.n)
	return uint32(r.reg & mask(n))
}

// Discard consumes n bits.
func (r *LSBBytes) Discard(n uint) {
	if n > r.n {
		panic("bitio: discard exceeds register length")
	}
	r.reg >>= n
	r.n -= n
}

// Len returns the number of bits in the register.
func (r *LSBBytes) Len() uint { return r.n }

// Clear empties the register.
func (r *LSBBytes) Clear() { *r = LSBBytes{} }
