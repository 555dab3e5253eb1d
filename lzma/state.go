package lzma

// states defines the overall state count
const states = 12

// state maintains the probabilities and the state machine of the decoding
// process.
type state struct {
	rep         [4]uint32
	isMatch     [states << maxPosBits]prob
	isRepG0Long [states << maxPosBits]prob
	isRep       [states]prob
	isRepG0     [states]prob
	isRepG1     [states]prob
	isRepG2     [states]prob
	litDecoder  literalDecoder
	lenDecoder  lengthDecoder
	repLenDec   lengthDecoder
	distDecoder distDecoder
	state       uint32
	posBitMask  uint32
	Properties  Properties
}

// newState creates a new state for the given properties.
func newState(p Properties) *state {
	s := &state{
		Properties: p,
		posBitMask: (uint32(1) << uint(p.PB)) - 1,
	}
	s.litDecoder.init(p.LC, p.LP)
	s.lenDecoder.init()
	s.repLenDec.init()
	s.distDecoder.init()
	s.Reset()
	return s
}

// Reset sets all state information to the original values.
func (s *state) Reset() {
	s.rep = [4]uint32{}
	s.state = 0
	initProbs(s.isMatch[:])
	initProbs(s.isRepG0Long[:])
	initProbs(s.isRep[:])
	initProbs(s.isRepG0[:])
	initProbs(s.isRepG1[:])
	initProbs(s.isRepG2[:])
	initProbs(s.litDecoder.probs)
	s.lenDecoder.reset()
	s.repLenDec.reset()
	s.distDecoder.reset()
}

// updateStateLiteral updates the state for a literal.
func (s *state) updateStateLiteral() {
	switch {
	case s.state < 4:
		s.state = 0
		return
	case s.state < 10:
		s.state -= 3
		return
	}
	s.state -= 6
}

// updateStateMatch updates the state for a match.
func (s *state) updateStateMatch() {
	if s.state < 7 {
		s.state = 7
	} else {
		s.state = 10
	}
}

// updateStateRep updates the state for a repetition.
func (s *state) updateStateRep() {
	if s.state < 7 {
		s.state = 8
	} else {
		s.state = 11
	}
}

// updateStateShortRep updates the state for a short repetition.
func (s *state) updateStateShortRep() {
	if s.state < 7 {
		s.state = 9
	} else {
		s.state = 11
	}
}

// states computes the states of the operation codec.
func (s *state) states(pos int64) (state1, state2, posState uint32) {
	state1 = s.state
	posState = uint32(pos) & s.posBitMask
	state2 = (s.state << maxPosBits) | posState
	return
}

// litState computes the literal state.
func (s *state) litState(prev byte, pos int64) uint32 {
	lp, lc := uint(s.Properties.LP), uint(s.Properties.LC)
	litState := ((uint32(pos) & ((1 << lp) - 1)) << lc) |
		(uint32(prev) >> (8 - lc))
	return litState
}
