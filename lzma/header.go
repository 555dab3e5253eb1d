package lzma

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ulikunitz/unpack"
)

// HeaderLen provides the length of the header of an LZMA file.
const HeaderLen = 13

// noHeaderSize marks an unknown size in the header.
const noHeaderSize uint64 = 1<<64 - 1

// Header represents the header of an LZMA file.
type Header struct {
	Properties Properties
	DictSize   uint32
	// uncompressed size; negative value if no size is given
	Size int64
}

// UnmarshalBinary parses the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) != HeaderLen {
		return unpack.InvalidData("lzma", "header has length %d; want %d",
			len(data), HeaderLen)
	}
	var err error
	if h.Properties, err = PropertiesForCode(data[0]); err != nil {
		return unpack.InvalidData("lzma", "properties code %#02x",
			data[0])
	}
	h.DictSize = binary.LittleEndian.Uint32(data[1:])
	s := binary.LittleEndian.Uint64(data[5:])
	switch {
	case s == noHeaderSize:
		h.Size = -1
	case s > math.MaxInt64:
		return unpack.InvalidData("lzma", "uncompressed size %d too large",
			s)
	default:
		h.Size = int64(s)
	}
	return nil
}

// MarshalBinary encodes the header.
func (h *Header) MarshalBinary() (data []byte, err error) {
	if err = h.Properties.Verify(); err != nil {
		return nil, err
	}
	data = make([]byte, HeaderLen)
	data[0] = h.Properties.Code()
	binary.LittleEndian.PutUint32(data[1:], h.DictSize)
	s := noHeaderSize
	if h.Size >= 0 {
		s = uint64(h.Size)
	}
	binary.LittleEndian.PutUint64(data[5:], s)
	return data, nil
}

// ReadHeader reads the header of an LZMA file from r.
func ReadHeader(r io.Reader) (h Header, err error) {
	p := make([]byte, HeaderLen)
	if _, err = io.ReadFull(r, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return h, unpack.InsufficientData("lzma",
				"header truncated")
		}
		return h, err
	}
	err = h.UnmarshalBinary(p)
	return h, err
}

// Config returns the decoder configuration for the stream following the
// header.
func (h *Header) Config() Config {
	dictSize := int64(h.DictSize)
	if dictSize > math.MaxInt {
		dictSize = math.MaxInt
	}
	return Config{
		Properties:  h.Properties,
		DictSize:    int(dictSize),
		DecodedSize: h.Size,
	}
}
