package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ulikunitz/unpack"
	"github.com/ulikunitz/unpack/bzip2"
	"github.com/ulikunitz/unpack/deflate"
	"github.com/ulikunitz/unpack/lzma"
)

// format describes a file format supported by the command. It selects the
// decoder and presets some of its properties.
type format struct {
	name     string
	decoder  string
	suffixes []string
	preset   func(p *unpack.Properties) error
	// readHeader consumes a file header and sets the decoder properties
	// found in it.
	readHeader func(r io.Reader, p *unpack.Properties) error
}

func setFormat(prop unpack.Property, v fmt.Stringer) func(*unpack.Properties) error {
	return func(p *unpack.Properties) error { return p.Set(prop, v) }
}

// readLZMAHeader reads the header of .lzma files.
func readLZMAHeader(r io.Reader, p *unpack.Properties) error {
	h, err := lzma.ReadHeader(r)
	if err != nil {
		return err
	}
	cfg := h.Config()
	if err = p.Set(lzma.LcLpPbProperty, cfg.Properties.Code()); err != nil {
		return err
	}
	if err = p.Set(lzma.DictionarySizeProperty, cfg.DictSize); err != nil {
		return err
	}
	return p.Set(lzma.DecodedSizeProperty, cfg.DecodedSize)
}

var formats = []*format{
	{
		name:     "deflate",
		decoder:  deflate.Name,
		suffixes: []string{".deflate"},
	},
	{
		name:     "deflate64",
		decoder:  deflate.Name,
		suffixes: []string{".deflate64"},
		preset: func(p *unpack.Properties) error {
			return p.Set(deflate.History64Property, true)
		},
	},
	{
		name:     "zlib",
		decoder:  deflate.Name,
		suffixes: []string{".zz", ".zlib"},
		preset:   setFormat(deflate.FormatProperty, deflate.ZLIB),
	},
	{
		name:    "nsis",
		decoder: deflate.Name,
		preset:  setFormat(deflate.FormatProperty, deflate.NSIS),
	},
	{
		name:     "bzip2",
		decoder:  bzip2.Name,
		suffixes: []string{".bz2"},
	},
	{
		name:       "lzma",
		decoder:    lzma.Name,
		suffixes:   []string{".lzma"},
		readHeader: readLZMAHeader,
	},
	{
		name:    "lzma-raw",
		decoder: lzma.Name,
	},
}

// lookupFormat finds the format by name.
func lookupFormat(name string) (*format, error) {
	name = strings.ToLower(name)
	for _, f := range formats {
		if f.name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("format %q not supported", name)
}

// detectFormat uses the file suffix to find the format. It returns the
// path without the suffix.
func detectFormat(path string) (f *format, base string, err error) {
	for _, f := range formats {
		for _, s := range f.suffixes {
			if strings.HasSuffix(path, s) && len(path) > len(s) {
				return f, path[:len(path)-len(s)], nil
			}
		}
	}
	return nil, "", fmt.Errorf("unknown suffix")
}

// properties returns the decoder properties for the format with the
// user-provided values applied.
func (f *format) properties(params []string) (*unpack.Properties, error) {
	fac, err := unpack.Lookup(f.decoder)
	if err != nil {
		return nil, err
	}
	p := fac.DefaultProperties()
	if f.preset != nil {
		if err = f.preset(p); err != nil {
			return nil, err
		}
	}
	for _, param := range params {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			return nil, fmt.Errorf("property %q has no value", param)
		}
		if err = p.Parse(key, value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// newDecoder creates the decoder. The file header is read from r if the
// format has one.
func (f *format) newDecoder(r *bufio.Reader, params []string,
) (unpack.Decoder, error) {
	p, err := f.properties(params)
	if err != nil {
		return nil, err
	}
	if f.readHeader != nil {
		if err = f.readHeader(r, p); err != nil {
			return nil, err
		}
	}
	return unpack.NewDecoder(f.decoder, p)
}

// listFormats writes the supported formats.
func listFormats(w io.Writer) {
	for _, f := range formats {
		fmt.Fprintf(w, "%-10s %-20s %s\n", f.name, f.decoder,
			strings.Join(f.suffixes, " "))
	}
}

// propertyValues returns the property values as map.
func propertyValues(p *unpack.Properties) map[string]interface{} {
	m := make(map[string]interface{})
	for _, k := range p.Keys() {
		prop, _ := p.Lookup(k)
		v, err := p.Get(prop)
		if err != nil {
			panic(err)
		}
		m[k] = v
	}
	return m
}

// sortedFormats returns the format names.
func sortedFormats() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.name
	}
	sort.Strings(names)
	return names
}
