package lzma

import "github.com/ulikunitz/unpack"

func init() {
	unpack.Register(factory{})
}

// factory creates LZMA decoders by name.
type factory struct{}

func (factory) Name() string { return Name }

func (factory) DefaultProperties() *unpack.Properties {
	return DefaultConfig().PropertySet()
}

func (f factory) NewDecoder(p *unpack.Properties) (unpack.Decoder, error) {
	q, err := unpack.MergeDefaults(f, p)
	if err != nil {
		return nil, err
	}
	c, err := configFromProperties(q)
	if err != nil {
		return nil, err
	}
	return c.NewDecoder()
}
