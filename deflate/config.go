package deflate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ulikunitz/unpack"
)

// Format selects the stream wrapper.
type Format byte

const (
	// Default is the raw format of RFC 1951.
	Default Format = iota
	// ZLIB adds the header and trailer of RFC 1950.
	ZLIB
	// NSIS is the variant of the Nullsoft installer, whose stored blocks
	// don't contain the complement of the block length.
	NSIS
)

var formatNames = [...]string{"DEFAULT", "ZLIB", "NSIS"}

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
	return fmt.Errorf("deflate: unknown format %q", text)
}

// Config describes the parameters of a decoder.
type Config struct {
	Format Format
	// History64 selects the 64 KiB window of the Deflate64 variant.
	History64 bool
	// KeepHistory preserves the window when the next stream is
	// started.
	KeepHistory bool
	// RestartAfterEOS lets the decoder start a new stream if more input
	// follows the end of a stream. The end of each stream is reported
	// by a single io.EOF.
	RestartAfterEOS bool
}

// Verify checks the configuration.
func (c *Config) Verify() error {
	if c == nil {
		return errors.New("deflate: config must not be nil")
	}
	if int(c.Format) >= len(formatNames) {
		return fmt.Errorf("deflate: unsupported format %s", c.Format)
	}
	return nil
}

// Properties of the deflate decoder.
var (
	FormatProperty = unpack.Property{
		Key: "deflate.format", Type: unpack.EnumProperty}
	History64Property = unpack.Property{
		Key: "deflate.history64", Type: unpack.BoolProperty}
	KeepHistoryProperty = unpack.Property{
		Key: "deflate.keepHistory", Type: unpack.BoolProperty}
	RestartAfterEOSProperty = unpack.Property{
		Key: "deflate.restartAfterEOS", Type: unpack.BoolProperty}
)

// Properties returns the configuration as property set.
func (c Config) Properties() *unpack.Properties {
	p := unpack.NewProperties()
	p.Register(FormatProperty, c.Format)
	p.Register(History64Property, c.History64)
	p.Register(KeepHistoryProperty, c.KeepHistory)
	p.Register(RestartAfterEOSProperty, c.RestartAfterEOS)
	return p
}

// configFromProperties reads the configuration from the property set, which
// must contain all deflate properties.
func configFromProperties(p *unpack.Properties) Config {
	return Config{
		Format:          p.Enum(FormatProperty).(Format),
		History64:       p.Bool(History64Property),
		KeepHistory:     p.Bool(KeepHistoryProperty),
		RestartAfterEOS: p.Bool(RestartAfterEOSProperty),
	}
}
