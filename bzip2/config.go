package bzip2

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ulikunitz/unpack"
)

// Format selects whether the stream header is present.
type Format byte

const (
	// Stream is the format of bzip2 files. Every stream starts with the
	// header "BZh" followed by the block size digit. Concatenated streams
	// are decoded one after the other.
	Stream Format = iota
	// Raw streams start directly with the first block. Container formats
	// that store the block size elsewhere use it.
	Raw
)

var formatNames = [...]string{"STREAM", "RAW"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", f)
}

// UnmarshalText parses the format name. Case is ignored.
func (f *Format) UnmarshalText(text []byte) error {
	s := strings.ToUpper(string(text))
	for i, name := range formatNames {
		if s == name {
			*f = Format(i)
			return nil
		}
	}
	return fmt.Errorf("bzip2: unknown format %q", text)
}

// Config describes the parameters of a decoder.
type Config struct {
	Format Format
	// BlockSize is the block size class from 1 to 9. The maximum block
	// size is BlockSize*100000 bytes. Zero accepts blocks of the maximum
	// size of 900000 bytes. The header of a stream overrides the value.
	BlockSize byte
}

// Verify checks the configuration.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("bzip2: config must not be nil")
	}
	if int(c.Format) >= len(formatNames) {
		return fmt.Errorf("bzip2: unsupported format %s", c.Format)
	}
	if c.BlockSize > 9 {
		return fmt.Errorf("bzip2: block size class %d out of range [0,9]",
			c.BlockSize)
	}
	return nil
}

// blockLimit returns the maximum block size for the block size class.
func blockLimit(class byte) int {
	if class == 0 {
		return maxBlockSize
	}
	return int(class) * blockSizeUnit
}

// Properties of the bzip2 decoder.
var (
	FormatProperty = unpack.Property{
		Key: "bzip2.format", Type: unpack.EnumProperty}
	BlockSizeProperty = unpack.Property{
		Key: "bzip2.blockSize", Type: unpack.ByteProperty}
)

// Properties returns the configuration as property set.
func (c Config) Properties() *unpack.Properties {
	p := unpack.NewProperties()
	p.Register(FormatProperty, c.Format)
	p.Register(BlockSizeProperty, c.BlockSize)
	return p
}

func configFromProperties(p *unpack.Properties) Config {
	return Config{
		Format:    p.Enum(FormatProperty).(Format),
		BlockSize: p.Byte(BlockSizeProperty),
	}
}
