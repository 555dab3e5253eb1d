package lzma

// maxPosBits defines the number of bits of the position value that are used
// to compute the posState value. The value is used to select the tree
// decoder for length decoding.
const maxPosBits = 4

// minMatchLen and maxMatchLen give the minimum and maximum values for
// decoding length values. minMatchLen is also used as base for the encoded
// length values.
const (
	minMatchLen = 2
	maxMatchLen = minMatchLen + 16 + 256 - 1
)

// lengthDecoder decodes the length of matches.
type lengthDecoder struct {
	choice [2]prob
	low    [1 << maxPosBits]treeDecoder
	mid    [1 << maxPosBits]treeDecoder
	high   treeDecoder
}

// init initializes a new length decoder.
func (ld *lengthDecoder) init() {
	initProbs(ld.choice[:])
	for i := range ld.low {
		ld.low[i] = makeTreeDecoder(3)
	}
	for i := range ld.mid {
		ld.mid[i] = makeTreeDecoder(3)
	}
	ld.high = makeTreeDecoder(8)
}

// reset puts the decoder into its initial state without allocating.
func (ld *lengthDecoder) reset() {
	initProbs(ld.choice[:])
	for i := range ld.low {
		ld.low[i].reset()
		ld.mid[i].reset()
	}
	ld.high.reset()
}

// Decode reads the length offset. Add minMatchLen to compute the actual
// length to the length offset l.
func (ld *lengthDecoder) Decode(d *rangeDecoder, posState uint32,
) (l uint32, err error) {
	var b uint32
	if b, err = d.decodeBit(&ld.choice[0]); err != nil {
		return
	}
	if b == 0 {
		l, err = ld.low[posState].Decode(d)
		return
	}
	if b, err = d.decodeBit(&ld.choice[1]); err != nil {
		return
	}
	if b == 0 {
		l, err = ld.mid[posState].Decode(d)
		l += 8
		return
	}
	l, err = ld.high.Decode(d)
	l += 16
	return
}
