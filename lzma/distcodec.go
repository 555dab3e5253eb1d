package lzma

const (
	// number of length states for the position slot decoders
	lenStates     = 4
	startPosModel = 4
	endPosModel   = 14
	posSlotBits   = 6
	alignBits     = 4
)

// eosDist is the distance value of the end-of-stream marker.
const eosDist = 1<<32 - 1

// distDecoder decodes the distances of matches. The values returned are
// zero-based; the actual distance is one higher.
type distDecoder struct {
	posSlotDecoders [lenStates]treeDecoder
	posModel        [endPosModel - startPosModel]treeReverseDecoder
	alignDecoder    treeReverseDecoder
}

// init initializes the distance decoder.
func (dd *distDecoder) init() {
	for i := range dd.posSlotDecoders {
		dd.posSlotDecoders[i] = makeTreeDecoder(posSlotBits)
	}
	for i := range dd.posModel {
		posSlot := startPosModel + i
		bits := (posSlot >> 1) - 1
		dd.posModel[i] = makeTreeReverseDecoder(bits)
	}
	dd.alignDecoder = makeTreeReverseDecoder(alignBits)
}

// reset puts the decoder into its initial state without allocating.
func (dd *distDecoder) reset() {
	for i := range dd.posSlotDecoders {
		dd.posSlotDecoders[i].reset()
	}
	for i := range dd.posModel {
		dd.posModel[i].reset()
	}
	dd.alignDecoder.reset()
}

// lenState converts the length offset into the length state.
func lenState(l uint32) uint32 {
	if l >= lenStates {
		l = lenStates - 1
	}
	return l
}

// Decode decodes the distance offset using the length offset l.
func (dd *distDecoder) Decode(d *rangeDecoder, l uint32,
) (dist uint32, err error) {
	posSlot, err := dd.posSlotDecoders[lenState(l)].Decode(d)
	if err != nil {
		return
	}
	if posSlot < startPosModel {
		return posSlot, nil
	}

	bits := (posSlot >> 1) - 1
	dist = (2 | (posSlot & 1)) << bits
	var u uint32
	if posSlot < endPosModel {
		tc := &dd.posModel[posSlot-startPosModel]
		if u, err = tc.Decode(d); err != nil {
			return 0, err
		}
		dist += u
		return dist, nil
	}

	dic := directDecoder(bits - alignBits)
	if u, err = dic.Decode(d); err != nil {
		return 0, err
	}
	dist += u << alignBits
	if u, err = dd.alignDecoder.Decode(d); err != nil {
		return 0, err
	}
	dist += u
	return dist, nil
}
