package deflate

import "github.com/ulikunitz/unpack"

func init() {
	unpack.Register(factory{})
}

// factory creates deflate decoders by name.
type factory struct{}

func (factory) Name() string { return Name }

func (factory) DefaultProperties() *unpack.Properties {
	return Config{}.Properties()
}

func (f factory) NewDecoder(p *unpack.Properties) (unpack.Decoder, error) {
	q, err := unpack.MergeDefaults(f, p)
	if err != nil {
		return nil, err
	}
	return configFromProperties(q).NewDecoder()
}
