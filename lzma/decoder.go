package lzma

import (
	"io"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/internal/stream"
	"github.com/ulikunitz/unpack/internal/xlog"
)

// Name is the compression name of the LZMA decoder.
const Name = "LZMA compression"

// phases of the decoder
const (
	// range decoder must be initialized
	phaseBegin = iota
	phaseDecode
	phaseEOF
)

// Decoder decodes raw LZMA streams. The stream doesn't include the header
// of LZMA files; the parameters of the header are provided by the Config.
type Decoder struct {
	cfg  Config
	cr   *stream.Counter
	rd   rangeDecoder
	st   *state
	dict *decoderDict
	// limit for match distances
	dictCheck int64
	phase     int
	// bytes of the current match that still have to be copied
	copyLen int
	err     error
}

// NewDecoder creates a decoder using the default configuration.
func NewDecoder() *Decoder {
	d, err := DefaultConfig().NewDecoder()
	if err != nil {
		panic(err)
	}
	return d
}

// NewDecoder creates a decoder using the configuration.
func (c Config) NewDecoder() (d *Decoder, err error) {
	if err = c.Verify(); err != nil {
		return nil, err
	}
	d = &Decoder{
		cfg:       c,
		cr:        stream.NewCounter(nil),
		st:        newState(c.Properties),
		dict:      newDecoderDict(c.bufferSize()),
		dictCheck: int64(c.dictCheck()),
	}
	d.Reset()
	return d, nil
}

// Name returns the compression name.
func (d *Decoder) Name() string { return Name }

// Properties returns the decoder configuration as property set.
func (d *Decoder) Properties() *unpack.Properties {
	return d.cfg.PropertySet()
}

// Config returns the configuration of the decoder.
func (d *Decoder) Config() Config { return d.cfg }

// Reset puts the decoder into its initial state.
func (d *Decoder) Reset() {
	d.cr.Reset()
	d.rd = rangeDecoder{}
	d.st.Reset()
	d.dict.reset()
	d.phase = phaseBegin
	d.copyLen = 0
	d.err = nil
}

// TotalIn returns the number of input bytes consumed.
func (d *Decoder) TotalIn() int64 { return d.cr.Offset() }

// TotalOut returns the number of bytes decoded so far, including the bytes
// that haven't been returned by Decode yet.
func (d *Decoder) TotalOut() int64 { return d.dict.pos }

// Decode decodes data into dst. See unpack.Decoder for the details.
//
// The stream ends with the end-of-stream marker, after DecodedSize bytes or
// at the first match whose distance exceeds the data decoded or the
// dictionary size.
func (d *Decoder) Decode(dst []byte, src io.Reader) (n int, err error) {
	if d.err != nil {
		return 0, d.err
	}
	d.cr.SetReader(src)
	for n < len(dst) {
		n += d.dict.flush(dst[n:])
		if n == len(dst) {
			break
		}
		switch d.phase {
		case phaseEOF:
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		case phaseBegin:
			if err = d.rd.init(d.cr); err != nil {
				d.err = err
				return n, err
			}
			d.phase = phaseDecode
		}
		quota := len(dst) - n
		if k := d.dict.available(); quota > k {
			quota = k
		}
		if err = d.decodeOps(quota); err != nil {
			d.err = err
			n += d.dict.flush(dst[n:])
			return n, err
		}
	}
	return n, nil
}

// decodeOps writes up to quota bytes into the dictionary.
func (d *Decoder) decodeOps(quota int) error {
	for quota > 0 {
		if d.cfg.DecodedSize >= 0 {
			r := d.cfg.DecodedSize - d.dict.pos
			if r <= 0 {
				if d.copyLen > 0 {
					xlog.Printf(debug, "match truncated by decoded size %d",
						d.cfg.DecodedSize)
				}
				d.phase = phaseEOF
				return nil
			}
			if int64(quota) > r {
				quota = int(r)
			}
		}
		if d.copyLen > 0 {
			k := d.copyLen
			if k > quota {
				k = quota
			}
			d.dict.writeMatch(int(d.st.rep[0])+1, k)
			d.copyLen -= k
			quota -= k
			continue
		}
		k, err := d.decodeOp(quota)
		if err != nil {
			return err
		}
		if d.phase == phaseEOF {
			return nil
		}
		quota -= k
	}
	return nil
}

// decodeOp decodes a literal or a match. At most quota bytes are written;
// the rest of a match is kept in copyLen.
func (d *Decoder) decodeOp(quota int) (n int, err error) {
	s := d.st
	pos := d.dict.pos
	st1, st2, posState := s.states(pos)

	b, err := d.rd.decodeBit(&s.isMatch[st2])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		match := d.dict.byteAt(int(s.rep[0]) + 1)
		litState := s.litState(d.dict.byteAt(1), pos)
		c, err := s.litDecoder.Decode(&d.rd, st1, match, litState)
		if err != nil {
			return 0, err
		}
		s.updateStateLiteral()
		d.dict.putByte(c)
		return 1, nil
	}

	var length int
	if b, err = d.rd.decodeBit(&s.isRep[st1]); err != nil {
		return 0, err
	}
	if b == 0 {
		s.rep[3], s.rep[2], s.rep[1] = s.rep[2], s.rep[1], s.rep[0]
		l, err := s.lenDecoder.Decode(&d.rd, posState)
		if err != nil {
			return 0, err
		}
		s.updateStateMatch()
		if s.rep[0], err = s.distDecoder.Decode(&d.rd, l); err != nil {
			return 0, err
		}
		if s.rep[0] == eosDist {
			xlog.Printf(debug, "end-of-stream marker at %d", pos)
			d.phase = phaseEOF
			return 0, nil
		}
		length = int(l) + minMatchLen
	} else {
		length, err = d.decodeRep(st1, st2, posState)
		if err != nil {
			return 0, err
		}
	}

	if int64(s.rep[0]) >= pos || int64(s.rep[0]) >= d.dictCheck {
		xlog.Printf(debug, "distance %d at position %d ends the stream",
			int64(s.rep[0])+1, pos)
		d.phase = phaseEOF
		return 0, nil
	}
	n = length
	if n > quota {
		n = quota
	}
	d.dict.writeMatch(int(s.rep[0])+1, n)
	d.copyLen = length - n
	return n, nil
}

// decodeRep decodes the repetition of one of the last four distances and
// returns the length of the match.
func (d *Decoder) decodeRep(st1, st2, posState uint32) (length int, err error) {
	s := d.st
	b, err := d.rd.decodeBit(&s.isRepG0[st1])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		if b, err = d.rd.decodeBit(&s.isRepG0Long[st2]); err != nil {
			return 0, err
		}
		if b == 0 {
			s.updateStateShortRep()
			return 1, nil
		}
	} else {
		var dist uint32
		if b, err = d.rd.decodeBit(&s.isRepG1[st1]); err != nil {
			return 0, err
		}
		if b == 0 {
			dist = s.rep[1]
		} else {
			if b, err = d.rd.decodeBit(&s.isRepG2[st1]); err != nil {
				return 0, err
			}
			if b == 0 {
				dist = s.rep[2]
			} else {
				dist = s.rep[3]
				s.rep[3] = s.rep[2]
			}
			s.rep[2] = s.rep[1]
		}
		s.rep[1] = s.rep[0]
		s.rep[0] = dist
	}
	l, err := s.repLenDec.Decode(&d.rd, posState)
	if err != nil {
		return 0, err
	}
	s.updateStateRep()
	return int(l) + minMatchLen, nil
}
