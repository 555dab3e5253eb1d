package bzip2

import (
	"io"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/internal/bitio"
	"github.com/ulikunitz/unpack/internal/huffman"
	"github.com/ulikunitz/unpack/internal/xlog"
)

// Name is the compression name of the bzip2 decoder.
const Name = "Bzip2 compression"

// decoder states
const (
	// stream header expected
	stateStreamBegin = iota
	// block or end-of-stream marker expected
	stateBlockBegin
	// block parsed, emission not started
	stateDecodeA
	// next byte of the block must be fetched
	stateDecodeB
	// fetched byte must be emitted
	stateDecodeC
	// end-of-stream marker has been read
	stateStreamEnd
	stateEOF
)

// Decoder decodes bzip2 streams.
type Decoder struct {
	cfg   Config
	bd    *bitio.Decoder
	state int
	// maximum block size of the current stream
	limit int

	tables    [maxTables]*huffman.Decoder
	selectors []byte
	// bytes in use in the order of their values
	alphabet [256]byte
	// low byte: last column of the sorted rotations, high bits: next index
	tt         []uint32
	origPtr    int
	randomized bool

	// number of bytes of tt to be emitted
	blockLen   int
	pos        uint32
	prev       byte
	cur        int
	repeat     int
	rndIndex   int
	rndCounter int

	blockCRC  uint32
	crc       uint32
	streamCRC uint32
	crcPassed bool
	err       error
}

// NewDecoder creates a decoder for bzip2 files.
func NewDecoder() *Decoder {
	d, err := Config{}.NewDecoder()
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
		cfg: c,
		bd:  bitio.NewDecoder(nil, &bitio.MSB{}),
	}
	for i := range d.tables {
		d.tables[i] = huffman.New(maxCodeBits, maxSymbols)
	}
	d.Reset()
	return d, nil
}

// Name returns the compression name.
func (d *Decoder) Name() string { return Name }

// Properties returns the decoder configuration as property set.
func (d *Decoder) Properties() *unpack.Properties {
	return d.cfg.Properties()
}

// Config returns the configuration of the decoder.
func (d *Decoder) Config() Config { return d.cfg }

// Reset puts the decoder into its initial state.
func (d *Decoder) Reset() {
	d.bd.Reset()
	d.state = stateStreamBegin
	if d.cfg.Format == Raw {
		d.state = stateBlockBegin
	}
	d.setLimit(d.cfg.BlockSize)
	d.blockLen = 0
	d.streamCRC = 0
	d.crcPassed = true
	d.err = nil
}

// CRCCheckPassed reports whether all CRCs read so far matched the decoded
// data. A mismatch doesn't stop the decoding.
func (d *Decoder) CRCCheckPassed() bool { return d.crcPassed }

// TotalIn returns the number of input bytes consumed. Bytes of a
// partially consumed byte are counted.
func (d *Decoder) TotalIn() int64 { return (d.bd.TotalBits() + 7) / 8 }

func (d *Decoder) setLimit(class byte) {
	d.limit = blockLimit(class)
	if cap(d.tt) < d.limit {
		d.tt = make([]uint32, d.limit)
	}
	d.tt = d.tt[:d.limit]
}

// Decode decodes data into dst. See unpack.Decoder for the details.
func (d *Decoder) Decode(dst []byte, src io.Reader) (n int, err error) {
	if d.err != nil {
		return 0, d.err
	}
	for n < len(dst) {
		switch d.state {
		case stateStreamBegin:
			err = d.readStreamHeader(src)
		case stateBlockBegin:
			err = d.readBlockBegin(src)
		case stateStreamEnd:
			err = d.nextStream(src)
		case stateEOF:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		default:
			n += d.emit(dst[n:])
		}
		if err != nil {
			d.err = err
			return n, err
		}
	}
	return n, nil
}

// fieldReader reads bit fields from the input. The first error is kept and
// all following reads return zero.
type fieldReader struct {
	src io.Reader
	bd  *bitio.Decoder
	err error
}

func (r *fieldReader) bits(n uint) uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	v, r.err = r.bd.DecodeBits(r.src, n, 0)
	return v
}

func (r *fieldReader) bit() bool { return r.bits(1) != 0 }

// readStreamHeader reads the header "BZh" and the block size digit.
func (d *Decoder) readStreamHeader(src io.Reader) error {
	r := fieldReader{src: src, bd: d.bd}
	magic := r.bits(24)
	digit := r.bits(8)
	if r.err != nil {
		return r.err
	}
	if magic != 0x425a68 {
		return unpack.InvalidData("bzip2", "no bzip2 stream header")
	}
	if !('1' <= digit && digit <= '9') {
		return unpack.InvalidData("bzip2",
			"invalid block size %q", byte(digit))
	}
	d.setLimit(byte(digit - '0'))
	d.streamCRC = 0
	d.state = stateBlockBegin
	xlog.Printf(debug, "stream header block size %d", d.limit)
	return nil
}

// readBlockBegin reads the magic number that starts a block or the end of
// the stream.
func (d *Decoder) readBlockBegin(src io.Reader) error {
	r := fieldReader{src: src, bd: d.bd}
	magic := uint64(r.bits(24))<<24 | uint64(r.bits(24))
	if r.err != nil {
		return r.err
	}
	if magic != blockMagic && magic != eosMagic {
		return unpack.InvalidData("bzip2", "invalid block magic %#012x",
			magic)
	}
	crc := r.bits(32)
	if r.err != nil {
		return r.err
	}
	switch magic {
	case blockMagic:
		d.blockCRC = crc
		d.streamCRC = (d.streamCRC<<1 | d.streamCRC>>31) ^ crc
		if err := d.readBlock(src); err != nil {
			return err
		}
		d.crc = 0xffffffff
		d.state = stateDecodeA
	case eosMagic:
		if crc != d.streamCRC {
			xlog.Printf(debug, "stream CRC %08x; want %08x",
				d.streamCRC, crc)
			d.crcPassed = false
		}
		d.bd.AlignToByte()
		d.state = stateStreamEnd
		xlog.Printf(debug, "end of stream after %d bytes", d.TotalIn())
	}
	return nil
}

// nextStream checks whether another stream follows.
func (d *Decoder) nextStream(src io.Reader) error {
	if d.cfg.Format == Raw {
		d.state = stateEOF
		return nil
	}
	more, err := d.bd.More(src)
	if err != nil {
		return err
	}
	if more {
		d.state = stateStreamBegin
	} else {
		d.state = stateEOF
	}
	return nil
}

// readBlock parses a block after its magic and CRC and prepares the inverse
// Burrows-Wheeler transform.
func (d *Decoder) readBlock(src io.Reader) error {
	r := fieldReader{src: src, bd: d.bd}
	d.randomized = r.bit()
	origPtr := int(r.bits(24))
	if r.err != nil {
		return r.err
	}
	if origPtr >= d.limit {
		return unpack.InvalidData("bzip2",
			"origin pointer %d exceeds block size %d", origPtr, d.limit)
	}

	inUse := r.bits(16)
	numUsed := 0
	for i := 0; i < 16; i++ {
		if inUse&(0x8000>>i) == 0 {
			continue
		}
		m := r.bits(16)
		for j := 0; j < 16; j++ {
			if m&(0x8000>>j) != 0 {
				d.alphabet[numUsed] = byte(16*i + j)
				numUsed++
			}
		}
	}
	if r.err != nil {
		return r.err
	}
	if numUsed == 0 {
		return unpack.InvalidData("bzip2", "no bytes in use")
	}
	numSymbols := numUsed + 2

	numTables := int(r.bits(3))
	numSelectors := int(r.bits(15))
	if r.err != nil {
		return r.err
	}
	if !(minTables <= numTables && numTables <= maxTables) {
		return unpack.InvalidData("bzip2",
			"number of tables %d out of range", numTables)
	}
	if numSelectors < minSelectors {
		return unpack.InvalidData("bzip2", "no selectors")
	}
	if err := d.readSelectors(&r, numTables, numSelectors); err != nil {
		return err
	}

	var lens [maxSymbols]byte
	for t := 0; t < numTables; t++ {
		n := int(r.bits(5))
		for i := 0; i < numSymbols; i++ {
			for {
				if n < 1 || n > maxCodeBits {
					if r.err != nil {
						return r.err
					}
					return unpack.InvalidData("bzip2",
						"code length %d out of range", n)
				}
				if !r.bit() {
					break
				}
				if r.bit() {
					n--
				} else {
					n++
				}
			}
			lens[i] = byte(n)
		}
		if r.err != nil {
			return r.err
		}
		if err := d.tables[t].SetCodeLengths(lens[:numSymbols]); err != nil {
			return err
		}
	}
	xlog.Printf(debug, "block randomized=%t tables=%d selectors=%d"+
		" symbols=%d", d.randomized, numTables, numSelectors, numSymbols)

	var counts [256]int
	n, err := d.readSymbols(src, numUsed, &counts)
	if err != nil {
		return err
	}
	if origPtr >= n {
		return unpack.InvalidData("bzip2",
			"origin pointer %d outside block of %d bytes", origPtr, n)
	}
	inverseBWT(d.tt[:n], &counts)
	d.origPtr = origPtr
	d.blockLen = n
	return nil
}

// readSelectors reads the move-to-front coded table selectors.
func (d *Decoder) readSelectors(r *fieldReader, numTables, numSelectors int,
) error {
	var order [maxTables]byte
	for i := range order {
		order[i] = byte(i)
	}
	if cap(d.selectors) < numSelectors {
		d.selectors = make([]byte, numSelectors)
	}
	d.selectors = d.selectors[:numSelectors]
	for i := range d.selectors {
		j := 0
		for r.bit() {
			j++
			if j >= numTables {
				return unpack.InvalidData("bzip2",
					"selector %d out of range", j)
			}
		}
		if r.err != nil {
			return r.err
		}
		s := order[j]
		copy(order[1:j+1], order[:j])
		order[0] = s
		d.selectors[i] = s
	}
	return nil
}

// readSymbols decodes the Huffman coded symbols of the block, reverts the
// run-length encoding of the zeros and the move-to-front transform. The
// bytes are stored in tt and counted in counts. The function returns the
// number of bytes in the block.
func (d *Decoder) readSymbols(src io.Reader, numUsed int, counts *[256]int,
) (n int, err error) {
	mtf := d.alphabet
	eob := numUsed + 1
	var (
		h     *huffman.Decoder
		group int
		sel   int
		run   int
		shift uint
	)
	for {
		if group == 0 {
			if sel >= len(d.selectors) {
				return n, unpack.InvalidData("bzip2",
					"selectors exhausted")
			}
			h = d.tables[d.selectors[sel]]
			sel++
			group = symbolsPerGroup
		}
		group--
		sym, err := h.DecodeSymbol(src, d.bd, 0)
		if err != nil {
			return n, err
		}
		if sym < 0 {
			return n, unpack.InvalidData("bzip2", "invalid code")
		}
		if sym <= runB {
			run += (sym + 1) << shift
			shift++
			if run > d.limit-n {
				return n, unpack.InvalidData("bzip2",
					"run exceeds block size %d", d.limit)
			}
			continue
		}
		if run > 0 {
			b := mtf[0]
			counts[b] += run
			for ; run > 0; run-- {
				d.tt[n] = uint32(b)
				n++
			}
			shift = 0
		}
		if sym == eob {
			return n, nil
		}
		if n >= d.limit {
			return n, unpack.InvalidData("bzip2",
				"block exceeds size %d", d.limit)
		}
		j := sym - 1
		b := mtf[j]
		copy(mtf[1:j+1], mtf[:j])
		mtf[0] = b
		counts[b]++
		d.tt[n] = uint32(b)
		n++
	}
}

// inverseBWT links the bytes of the last column in tt into the chain that
// produces the original data. The low byte of each entry keeps the byte;
// the higher bits receive the index of the next entry. The counts are
// overwritten.
func inverseBWT(tt []uint32, counts *[256]int) {
	sum := 0
	for i, c := range counts {
		counts[i] = sum
		sum += c
	}
	for i := range tt {
		b := tt[i] & 0xff
		tt[counts[b]] |= uint32(i) << 8
		counts[b]++
	}
}

// emit writes the bytes of the current block into p. It reverts the
// run-length encoding of the first stage and the randomization.
func (d *Decoder) emit(p []byte) int {
	if d.state == stateDecodeA {
		d.pos = d.tt[d.tt[d.origPtr]>>8]
		d.prev = byte(d.pos)
		d.repeat = 0
		d.rndIndex = 1
		d.rndCounter = int(rndTable[0]) - 2
		d.state = stateDecodeB
	}
	n := 0
	for d.blockLen > 0 && n < len(p) {
		if d.state == stateDecodeB {
			d.cur = int(d.pos & 0xff)
			d.pos = d.tt[d.pos>>8]
			if d.randomized {
				if d.rndCounter == 0 {
					d.cur ^= 1
					d.rndCounter = int(rndTable[d.rndIndex])
					d.rndIndex = (d.rndIndex + 1) & 0x1ff
				}
				d.rndCounter--
			}
			d.state = stateDecodeC
		}
		if d.repeat == 4 {
			// cur is the number of repetitions of prev
			for d.cur > 0 && n < len(p) {
				p[n] = d.prev
				d.crc = updateCRC(d.crc, d.prev)
				n++
				d.cur--
			}
			if d.cur > 0 {
				return n
			}
			d.repeat = 0
		} else {
			b := byte(d.cur)
			if b != d.prev {
				d.repeat = 0
			}
			d.repeat++
			d.prev = b
			p[n] = b
			d.crc = updateCRC(d.crc, b)
			n++
		}
		d.state = stateDecodeB
		d.blockLen--
	}
	if d.blockLen == 0 {
		if crc := ^d.crc; crc != d.blockCRC {
			xlog.Printf(debug, "block CRC %08x; want %08x",
				crc, d.blockCRC)
			d.crcPassed = false
		}
		d.state = stateBlockBegin
	}
	return n
}
