package lzma

// probTree stores enough probability values to be used by the tree decoders.
type probTree struct {
	probs []prob
	bits  byte
}

// makeProbTree initializes a probTree structure.
func makeProbTree(bits int) probTree {
	if !(1 <= bits && bits <= 32) {
		panic("bits outside of range [1,32]")
	}
	t := probTree{
		bits:  byte(bits),
		probs: make([]prob, 1<<uint(bits)),
	}
	t.reset()
	return t
}

// reset sets all probabilities to their initial value.
func (t *probTree) reset() { initProbs(t.probs) }

// Bits provides the number of bits for the values to decode.
func (t *probTree) Bits() int {
	return int(t.bits)
}

// treeDecoder decodes values with a fixed bit size. It uses a tree of
// probability values. The root of the tree is the most-significant bit.
type treeDecoder struct {
	probTree
}

// makeTreeDecoder makes a tree decoder. The bits value must be inside the
// range [1,32].
func makeTreeDecoder(bits int) treeDecoder {
	return treeDecoder{makeProbTree(bits)}
}

// Decode uses the range decoder to decode a fixed-bit-size value. Errors may
// be caused by the range decoder.
func (td *treeDecoder) Decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for j := 0; j < int(td.bits); j++ {
		b, err := d.decodeBit(&td.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | b
	}
	return m - (1 << uint(td.bits)), nil
}

// treeReverseDecoder is another tree decoder, where the least-significant
// bit is the start of the probability tree.
type treeReverseDecoder struct {
	probTree
}

// makeTreeReverseDecoder creates a treeReverseDecoder value. The bits
// argument must be in the range [1,32].
func makeTreeReverseDecoder(bits int) treeReverseDecoder {
	return treeReverseDecoder{makeProbTree(bits)}
}

// Decode uses the range decoder to decode a fixed-bit-size value. Errors
// returned by the range decoder will be returned.
func (td *treeReverseDecoder) Decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for j := uint(0); j < uint(td.bits); j++ {
		b, err := d.decodeBit(&td.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | b
		v |= b << j
	}
	return v, nil
}

// directDecoder decodes values with a fixed number of bits and a
// probability of 1/2 for each bit.
type directDecoder byte

// Decode decodes the value. The most-significant bit is decoded first.
func (dd directDecoder) Decode(d *rangeDecoder) (v uint32, err error) {
	for i := int(dd) - 1; i >= 0; i-- {
		x, err := d.directDecodeBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | x
	}
	return v, nil
}
