package lzma

import (
	"errors"
	"fmt"

	"github.com/ulikunitz/unpack"
)

// minDictBuffer is the minimum size of the dictionary buffer.
const minDictBuffer = 1 << 12

// MaxDictSize is the largest dictionary size accepted. It is the limit the
// xz utilities use for LZMA.
const MaxDictSize = 1536 << 20

// Config describes the parameters of a decoder. The values are usually
// taken from the header of an LZMA file.
type Config struct {
	Properties Properties
	// DictSize limits the distance of matches. Zero is handled like a
	// dictionary size of one byte.
	DictSize int
	// DecodedSize is the number of bytes to decode. A negative value
	// means that the size is unknown and the stream must end with the
	// end-of-stream marker.
	DecodedSize int64
}

// DefaultConfig returns the configuration for properties code 0x5d and a
// dictionary of 8 MiB.
func DefaultConfig() Config {
	return Config{
		Properties:  Properties{LC: 3, LP: 0, PB: 2},
		DictSize:    8 << 20,
		DecodedSize: -1,
	}
}

// Verify checks the configuration.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("lzma: config must not be nil")
	}
	if err := c.Properties.Verify(); err != nil {
		return err
	}
	if c.DictSize < 0 {
		return fmt.Errorf("lzma: negative dictionary size %d", c.DictSize)
	}
	if int64(c.DictSize) > MaxDictSize {
		return fmt.Errorf("lzma: dictionary size %d exceeds maximum %d",
			c.DictSize, int64(MaxDictSize))
	}
	return nil
}

// dictCheck returns the limit for match distances.
func (c *Config) dictCheck() int {
	if c.DictSize < 1 {
		return 1
	}
	return c.DictSize
}

// bufferSize returns the size of the dictionary buffer. Streams of known
// size don't need a buffer larger than the decoded data.
func (c *Config) bufferSize() int {
	n := c.dictCheck()
	if c.DecodedSize >= 0 && c.DecodedSize < int64(n) {
		n = int(c.DecodedSize)
	}
	if n < minDictBuffer {
		n = minDictBuffer
	}
	return n
}

// Properties of the LZMA decoder.
var (
	LcLpPbProperty = unpack.Property{
		Key: "lzma.lcLpPb", Type: unpack.ByteProperty}
	DictionarySizeProperty = unpack.Property{
		Key: "lzma.dictionarySize", Type: unpack.IntProperty}
	DecodedSizeProperty = unpack.Property{
		Key: "lzma.decodedSize", Type: unpack.LongProperty}
)

// PropertySet returns the configuration as property set.
func (c Config) PropertySet() *unpack.Properties {
	p := unpack.NewProperties()
	p.Register(LcLpPbProperty, c.Properties.Code())
	p.Register(DictionarySizeProperty, c.DictSize)
	p.Register(DecodedSizeProperty, c.DecodedSize)
	return p
}

func configFromProperties(p *unpack.Properties) (c Config, err error) {
	c.Properties, err = PropertiesForCode(p.Byte(LcLpPbProperty))
	if err != nil {
		return Config{}, err
	}
	c.DictSize = p.Int(DictionarySizeProperty)
	c.DecodedSize = p.Long(DecodedSizeProperty)
	return c, nil
}
