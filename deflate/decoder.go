package deflate

import (
	"io"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/internal/bitio"
	"github.com/ulikunitz/unpack/internal/huffman"
	"github.com/ulikunitz/unpack/internal/xlog"
)

// Name is the compression name of the deflate decoder.
const Name = "Deflate compression"

// registers of the bit decoder
const (
	// values stored with the least-significant bit first
	regValue = 0
	// prefix codes
	regCode = 1
)

// values of blockRemaining besides the pending copy lengths
const (
	finished       = -1
	awaitingHeader = -2
)

// trailing bytes fed after the end of input; the prefix code decoder may
// peek beyond the last code.
var trailing = []byte{0xff, 0xff, 0xff, 0xff}

// Decoder decodes DEFLATE streams.
type Decoder struct {
	cfg  Config
	bd   *bitio.Decoder
	hist *history

	mainDec  *huffman.Decoder
	distDec  *huffman.Decoder
	levelDec *huffman.Decoder
	lens     [mainTableSize + distTableSize]byte
	levels   levels
	lenTable *lengthTable

	// -2 header expected, -1 finished, 0 in block, >0 pending copy
	blockRemaining int
	// zero-based distance of the pending copy
	rep0       int
	readTables bool
	finalBlock bool
	stored     bool
	storedLen  int
	numDist    int
	zlibHeader bool
	// io.EOF has been returned for the current stream
	eosReported bool
	err         error
}

// NewDecoder creates a decoder for raw DEFLATE streams.
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
		cfg:      c,
		bd:       bitio.NewDecoder(trailing, &bitio.LSBBytes{}, &bitio.LSBStream{}),
		mainDec:  huffman.New(maxCodeBits, mainTableSize),
		distDec:  huffman.New(maxCodeBits, distTableSize),
		levelDec: huffman.New(maxCodeBits, levelTableSize),
		lenTable: &lengths32,
	}
	size := historySize32
	if c.History64 {
		size = historySize64
		d.lenTable = &lengths64
	}
	d.hist = newHistory(size)
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
	d.hist.reset(false)
	d.blockRemaining = awaitingHeader
	d.rep0 = 0
	d.readTables = true
	d.finalBlock = false
	d.stored = false
	d.storedLen = 0
	d.numDist = 0
	d.zlibHeader = d.cfg.Format == ZLIB
	d.eosReported = false
	d.err = nil
}

// BlockRemaining returns the block state: -2 if a block header is expected,
// -1 if the stream is finished, a positive number for the length of a
// pending copy and 0 otherwise.
func (d *Decoder) BlockRemaining() int { return d.blockRemaining }

// TotalIn returns the number of input bytes consumed. Bytes of a
// partially consumed byte are counted.
func (d *Decoder) TotalIn() int64 { return (d.bd.TotalBits() + 7) / 8 }

// Decode decodes data into dst. See unpack.Decoder for the details.
func (d *Decoder) Decode(dst []byte, src io.Reader) (n int, err error) {
	if d.err != nil {
		return 0, d.err
	}
	for n < len(dst) {
		n += d.hist.flush(dst[n:])
		if n == len(dst) {
			break
		}
		if d.blockRemaining == finished {
			if n > 0 {
				break
			}
			if !d.cfg.RestartAfterEOS || !d.eosReported {
				d.eosReported = true
				return 0, io.EOF
			}
			more, err := d.bd.More(src)
			if err != nil {
				d.err = err
				return 0, err
			}
			if !more {
				return 0, io.EOF
			}
			d.restart()
		}
		quota := len(dst) - n
		if half := d.hist.Size() / 2; quota > half {
			quota = half
		}
		if err = d.decodeBlocks(src, quota); err != nil {
			d.err = err
			n += d.hist.flush(dst[n:])
			return n, err
		}
	}
	return n, nil
}

// restart prepares the decoding of the next stream.
func (d *Decoder) restart() {
	xlog.Printf(debug, "restart after end of stream")
	d.hist.reset(d.cfg.KeepHistory)
	d.blockRemaining = awaitingHeader
	d.readTables = true
	d.finalBlock = false
	d.zlibHeader = d.cfg.Format == ZLIB
	d.eosReported = false
}

// decodeBlocks writes up to quota bytes into the window.
func (d *Decoder) decodeBlocks(src io.Reader, quota int) error {
	for quota > 0 {
		switch {
		case d.blockRemaining == finished:
			return nil
		case d.blockRemaining == awaitingHeader:
			if d.zlibHeader {
				if err := d.readZLIBHeader(src); err != nil {
					return err
				}
				d.zlibHeader = false
			}
			d.readTables = true
			d.blockRemaining = 0
		case d.blockRemaining > 0:
			k := d.blockRemaining
			if k > quota {
				k = quota
			}
			if err := d.hist.copyBlock(d.rep0, k); err != nil {
				return err
			}
			d.blockRemaining -= k
			quota -= k
		case d.readTables:
			if d.finalBlock {
				return d.finish(src)
			}
			d.readTables = false
			if err := d.readBlockHeader(src); err != nil {
				return err
			}
		case d.stored:
			k := d.storedLen
			if k > quota {
				k = quota
			}
			if err := d.hist.putBytes(src, d.bd, k); err != nil {
				return err
			}
			d.storedLen -= k
			d.readTables = d.storedLen == 0
			quota -= k
		default:
			var err error
			if quota, err = d.decodeSymbols(src, quota); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeSymbols decodes literals and matches until the end of the block
// or until the quota has been used.
func (d *Decoder) decodeSymbols(src io.Reader, quota int) (int, error) {
	for quota > 0 {
		sym, err := d.mainDec.DecodeSymbol(src, d.bd, regCode)
		if err != nil {
			return quota, err
		}
		switch {
		case sym < 0:
			return quota, unpack.InvalidData("deflate",
				"invalid literal/length code")
		case sym < endOfBlock:
			d.hist.putByte(byte(sym))
			quota--
			continue
		case sym == endOfBlock:
			d.readTables = true
			return quota, nil
		case sym-firstLength >= len(d.lenTable.start):
			return quota, unpack.InvalidData("deflate",
				"invalid length symbol %d", sym)
		}
		i := sym - firstLength
		x, err := d.bd.DecodeBits(src, uint(d.lenTable.bits[i]), regValue)
		if err != nil {
			return quota, err
		}
		n := int(d.lenTable.start[i]) + minMatchLen + int(x)

		sym, err = d.distDec.DecodeSymbol(src, d.bd, regCode)
		if err != nil {
			return quota, err
		}
		if sym < 0 || sym >= d.numDist {
			return quota, unpack.InvalidData("deflate",
				"invalid distance symbol %d", sym)
		}
		x, err = d.bd.DecodeBits(src, uint(distBits[sym]), regValue)
		if err != nil {
			return quota, err
		}
		dist := int(distStart[sym] + x)

		k := n
		if k > quota {
			k = quota
		}
		if err = d.hist.copyBlock(dist, k); err != nil {
			return quota, err
		}
		quota -= k
		if n > k {
			d.blockRemaining = n - k
			d.rep0 = dist
			return quota, nil
		}
	}
	return quota, nil
}

// finish reads the trailer after the final block.
func (d *Decoder) finish(src io.Reader) error {
	d.bd.AlignToByte()
	if d.cfg.Format == ZLIB {
		var p [4]byte
		if _, err := d.bd.ReadBytes(src, p[:]); err != nil {
			return err
		}
		xlog.Printf(debug, "zlib checksum %02x", p)
	}
	d.blockRemaining = finished
	xlog.Printf(debug, "end of stream after %d bytes", d.TotalIn())
	return nil
}

// readZLIBHeader reads and checks the two header bytes of RFC 1950.
func (d *Decoder) readZLIBHeader(src io.Reader) error {
	var p [2]byte
	if _, err := d.bd.ReadBytes(src, p[:]); err != nil {
		return err
	}
	cmf, flg := p[0], p[1]
	if cmf&0x0f != 8 {
		return unpack.InvalidData("deflate",
			"unsupported zlib compression method %d", cmf&0x0f)
	}
	if cmf>>4 > 7 {
		return unpack.InvalidData("deflate",
			"zlib window size %d too large", cmf>>4)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return unpack.InvalidData("deflate", "zlib header check failed")
	}
	if flg&0x20 != 0 {
		return unpack.InvalidData("deflate",
			"zlib preset dictionaries are not supported")
	}
	return nil
}

// readBlockHeader reads the block header and sets up the code tables.
func (d *Decoder) readBlockHeader(src io.Reader) error {
	x, err := d.bd.DecodeBits(src, 3, regValue)
	if err != nil {
		return err
	}
	d.finalBlock = x&1 != 0
	switch x >> 1 {
	case 0:
		d.stored = true
		d.bd.AlignToByte()
		x, err = d.bd.DecodeBits(src, 16, regValue)
		if err != nil {
			return err
		}
		d.storedLen = int(x)
		if d.cfg.Format != NSIS {
			y, err := d.bd.DecodeBits(src, 16, regValue)
			if err != nil {
				return err
			}
			if x^y != 0xffff {
				return unpack.InvalidData("deflate",
					"stored block length %#04x doesn't match"+
						" complement %#04x", x, y)
			}
		}
		d.readTables = d.storedLen == 0
		xlog.Printf(debug, "stored block len=%d final=%t",
			d.storedLen, d.finalBlock)
		return nil
	case 1:
		d.stored = false
		d.levels.setFixed()
		d.numDist = numDist32
		if d.cfg.History64 {
			d.numDist = numDist64
		}
		xlog.Printf(debug, "fixed block final=%t", d.finalBlock)
	case 2:
		d.stored = false
		if err = d.readDynamicLevels(src); err != nil {
			return err
		}
		xlog.Printf(debug, "dynamic block final=%t numDist=%d",
			d.finalBlock, d.numDist)
	default:
		return unpack.InvalidData("deflate", "invalid block type 3")
	}
	if err = d.mainDec.SetCodeLengths(d.levels.main[:]); err != nil {
		return err
	}
	return d.distDec.SetCodeLengths(d.levels.dist[:])
}

// readDynamicLevels reads the code lengths of a dynamic block.
func (d *Decoder) readDynamicLevels(src io.Reader) error {
	x, err := d.bd.DecodeBits(src, 14, regValue)
	if err != nil {
		return err
	}
	numMain := int(x&0x1f) + 257
	d.numDist = int(x>>5&0x1f) + 1
	numLevels := int(x>>10) + 4
	if !d.cfg.History64 && d.numDist > numDist32 {
		return unpack.InvalidData("deflate",
			"%d distance codes not supported", d.numDist)
	}

	var levelLens [levelTableSize]byte
	for i := 0; i < numLevels; i++ {
		x, err = d.bd.DecodeBits(src, 3, regValue)
		if err != nil {
			return err
		}
		levelLens[levelOrder[i]] = byte(x)
	}
	if err = d.levelDec.SetCodeLengths(levelLens[:]); err != nil {
		return err
	}

	lens := d.lens[:numMain+d.numDist]
	for i := 0; i < len(lens); {
		sym, err := d.levelDec.DecodeSymbol(src, d.bd, regCode)
		if err != nil {
			return err
		}
		if sym < 0 {
			return unpack.InvalidData("deflate",
				"invalid code length code")
		}
		if sym < 16 {
			lens[i] = byte(sym)
			i++
			continue
		}
		var (
			v    byte
			bits uint
			rep  int
		)
		switch sym {
		case 16:
			if i == 0 {
				return unpack.InvalidData("deflate",
					"no code length to repeat")
			}
			v, bits, rep = lens[i-1], 2, 3
		case 17:
			bits, rep = 3, 3
		default:
			bits, rep = 7, 11
		}
		x, err = d.bd.DecodeBits(src, bits, regValue)
		if err != nil {
			return err
		}
		// runs exceeding the table are cut
		for rep += int(x); rep > 0 && i < len(lens); rep-- {
			lens[i] = v
			i++
		}
	}
	if lens[endOfBlock] == 0 {
		return unpack.InvalidData("deflate", "no end-of-block code")
	}
	d.levels.set(lens, numMain)
	return nil
}
