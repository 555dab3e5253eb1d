package unpack

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates decoders for a compression format.
type Factory interface {
	// Name returns the compression name.
	Name() string
	// DefaultProperties returns a new property set containing all
	// properties supported by the format with their default values.
	DefaultProperties() *Properties
	// NewDecoder creates a decoder. The properties p may be nil or
	// contain a subset of the default properties.
	NewDecoder(p *Properties) (Decoder, error)
}

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a factory available by its name. It panics if a factory
// with the same name has already been registered. Format packages call it in
// their init functions.
func Register(f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	name := f.Name()
	if _, dup := factories[name]; dup {
		panic("unpack: Register called twice for " + name)
	}
	factories[name] = f
}

// Lookup returns the factory registered for the name.
func Lookup(name string) (Factory, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unpack: unknown compression %q", name)
	}
	return f, nil
}

// Names returns the sorted names of all registered factories.
func Names() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDecoder creates a decoder for the named compression. The properties may
// be nil.
func NewDecoder(name string, p *Properties) (Decoder, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return f.NewDecoder(p)
}

// MergeDefaults returns the default properties of the factory updated with
// the values of p. It is a helper for Factory implementations.
func MergeDefaults(f Factory, p *Properties) (*Properties, error) {
	q := f.DefaultProperties()
	if p == nil {
		return q, nil
	}
	if err := q.Merge(p); err != nil {
		return nil, err
	}
	return q, nil
}
