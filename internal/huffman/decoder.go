// Package huffman implements the decoding of canonical Huffman codes as used
// by DEFLATE and bzip2.
package huffman

import (
	"fmt"
	"io"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/internal/bitio"
)

// maxTableBits gives the maximum number of bits resolved by the fast length
// table.
const maxTableBits = 9

// Decoder decodes the symbols of a canonical Huffman code. The code is
// defined by the code lengths of the symbols. Codes are assigned in the
// order of increasing lengths and within a length in the order of the
// symbols.
type Decoder struct {
	maxBits   uint
	tableBits uint
	// limits[n] is the first code value, padded to maxBits, that has a
	// length greater than n
	limits []uint32
	// positions[n] is the index of the first symbol with length n
	positions []int
	symbols   []int
	// code lengths for the values of the first tableBits bits
	lengths []byte
	tmp     []int
}

// New creates a decoder for codes with up to maxBits bits and numSymbols
// symbols.
func New(maxBits uint, numSymbols int) *Decoder {
	if !(1 <= maxBits && maxBits <= 32) {
		panic(fmt.Errorf("huffman: maxBits=%d out of range", maxBits))
	}
	if numSymbols <= 0 {
		panic("huffman: numSymbols must be positive")
	}
	tableBits := uint(maxTableBits)
	if maxBits < tableBits {
		tableBits = maxBits
	}
	return &Decoder{
		maxBits:   maxBits,
		tableBits: tableBits,
		limits:    make([]uint32, maxBits+1),
		positions: make([]int, maxBits+1),
		symbols:   make([]int, numSymbols),
		lengths:   make([]byte, 1<<tableBits),
		tmp:       make([]int, maxBits+1),
	}
}

// MaxBits returns the maximum code length supported by the decoder.
func (h *Decoder) MaxBits() uint { return h.maxBits }

// SetCodeLengths builds the decoding tables for the code lengths. A length
// of zero marks an unused symbol. An over-subscribed code is invalid.
// Incomplete codes are accepted; their unused codes decode as -1.
func (h *Decoder) SetCodeLengths(lengths []byte) error {
	if len(lengths) > len(h.symbols) {
		panic("huffman: too many code lengths")
	}
	counts := h.tmp
	for i := range counts {
		counts[i] = 0
	}
	for _, n := range lengths {
		if uint(n) > h.maxBits {
			return unpack.InvalidData("huffman",
				"code length %d exceeds %d bits", n, h.maxBits)
		}
		counts[n]++
	}
	counts[0] = 0

	maxValue := uint32(1) << h.maxBits
	var start uint32
	index := uint32(0)
	h.limits[0] = 0
	h.positions[0] = 0
	for n := uint(1); n <= h.maxBits; n++ {
		start += uint32(counts[n]) << (h.maxBits - n)
		if start > maxValue {
			return unpack.InvalidData("huffman",
				"code lengths are over-subscribed")
		}
		if n == h.maxBits {
			h.limits[n] = maxValue
		} else {
			h.limits[n] = start
		}
		h.positions[n] = h.positions[n-1] + counts[n-1]
		if n <= h.tableBits {
			limit := h.limits[n] >> (h.maxBits - h.tableBits)
			for ; index < limit; index++ {
				h.lengths[index] = byte(n)
			}
		}
	}

	// counts is reused as the running positions
	for n := uint(1); n <= h.maxBits; n++ {
		counts[n] = h.positions[n]
	}
	for i := range h.symbols {
		h.symbols[i] = -1
	}
	for sym, n := range lengths {
		if n == 0 {
			continue
		}
		h.symbols[counts[n]] = sym
		counts[n]++
	}
	return nil
}

// DecodeSymbol decodes the next symbol using register reg of the bit
// decoder. The register must provide the code bits with the first bit as
// most-significant bit. The function returns -1 for codes that are not
// assigned to a symbol.
func (h *Decoder) DecodeSymbol(src io.Reader, bd *bitio.Decoder, reg int,
) (sym int, err error) {
	value, err := bd.PeekBits(src, h.maxBits, reg)
	if err != nil {
		return -1, err
	}
	var n uint
	if value < h.limits[h.tableBits] {
		n = uint(h.lengths[value>>(h.maxBits-h.tableBits)])
	} else {
		n = h.tableBits + 1
		for n < h.maxBits && value >= h.limits[n] {
			n++
		}
	}
	bd.DiscardBits(n)
	index := h.positions[n] +
		int((value-h.limits[n-1])>>(h.maxBits-n))
	if index < 0 || index >= len(h.symbols) {
		return -1, nil
	}
	return h.symbols[index], nil
}
