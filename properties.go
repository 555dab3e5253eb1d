package unpack

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// PropertyType gives the type of a property value.
type PropertyType int

// Supported property types. The Go types of the values are byte, int, int64,
// bool and, for enumerations, a type implementing fmt.Stringer.
const (
	ByteProperty PropertyType = iota + 1
	IntProperty
	LongProperty
	BoolProperty
	EnumProperty
)

var propertyTypeNames = map[PropertyType]string{
	ByteProperty: "byte",
	IntProperty:  "int",
	LongProperty: "long",
	BoolProperty: "bool",
	EnumProperty: "enum",
}

func (t PropertyType) String() string {
	s, ok := propertyTypeNames[t]
	if !ok {
		return fmt.Sprintf("PropertyType(%d)", int(t))
	}
	return s
}

// Property describes a decoder parameter.
type Property struct {
	Key  string
	Type PropertyType
}

func (p Property) String() string {
	return p.Key + "(" + p.Type.String() + ")"
}

// checkValue checks whether v can be the value of a property with the given
// type.
func (t PropertyType) checkValue(v interface{}) bool {
	switch t {
	case ByteProperty:
		_, ok := v.(byte)
		return ok
	case IntProperty:
		_, ok := v.(int)
		return ok
	case LongProperty:
		_, ok := v.(int64)
		return ok
	case BoolProperty:
		_, ok := v.(bool)
		return ok
	case EnumProperty:
		_, ok := v.(fmt.Stringer)
		return ok
	}
	return false
}

type propertyEntry struct {
	prop  Property
	value interface{}
}

// Properties stores typed property values. Only registered properties can be
// set.
type Properties struct {
	m map[string]propertyEntry
}

// NewProperties creates an empty property set.
func NewProperties() *Properties {
	return &Properties{m: make(map[string]propertyEntry)}
}

// Register adds the property with its default value. The function panics if
// the value doesn't match the property type.
func (p *Properties) Register(prop Property, v interface{}) {
	if !prop.Type.checkValue(v) {
		panic(fmt.Errorf("unpack: value %v not supported for property %s",
			v, prop))
	}
	p.m[prop.Key] = propertyEntry{prop: prop, value: v}
}

// lookup finds the entry for the property and checks its type.
func (p *Properties) lookup(prop Property) (e propertyEntry, err error) {
	e, ok := p.m[prop.Key]
	if !ok {
		return e, fmt.Errorf("unpack: property %s not registered", prop.Key)
	}
	if e.prop.Type != prop.Type {
		return e, fmt.Errorf("unpack: property %s has type %s; not %s",
			prop.Key, e.prop.Type, prop.Type)
	}
	return e, nil
}

// Set changes the value of a registered property. Values of enumeration
// properties must have the same type as the registered default.
func (p *Properties) Set(prop Property, v interface{}) error {
	e, err := p.lookup(prop)
	if err != nil {
		return err
	}
	if !prop.Type.checkValue(v) ||
		reflect.TypeOf(v) != reflect.TypeOf(e.value) {
		return fmt.Errorf("unpack: value %v of type %T not supported"+
			" for property %s", v, v, prop)
	}
	e.value = v
	p.m[prop.Key] = e
	return nil
}

// Get returns the value of the property.
func (p *Properties) Get(prop Property) (v interface{}, err error) {
	e, err := p.lookup(prop)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// mustGet panics if the property is not registered with the right type.
func (p *Properties) mustGet(prop Property) interface{} {
	v, err := p.Get(prop)
	if err != nil {
		panic(err)
	}
	return v
}

// Byte returns the value of a byte property.
func (p *Properties) Byte(prop Property) byte {
	return p.mustGet(Property{prop.Key, ByteProperty}).(byte)
}

// Int returns the value of an int property.
func (p *Properties) Int(prop Property) int {
	return p.mustGet(Property{prop.Key, IntProperty}).(int)
}

// Long returns the value of a long property.
func (p *Properties) Long(prop Property) int64 {
	return p.mustGet(Property{prop.Key, LongProperty}).(int64)
}

// Bool returns the value of a bool property.
func (p *Properties) Bool(prop Property) bool {
	return p.mustGet(Property{prop.Key, BoolProperty}).(bool)
}

// Enum returns the value of an enumeration property. The caller has to
// assert the concrete type.
func (p *Properties) Enum(prop Property) fmt.Stringer {
	return p.mustGet(Property{prop.Key, EnumProperty}).(fmt.Stringer)
}

// Parse sets the property with the given key from its string
// representation. Enumeration types must implement encoding.TextUnmarshaler
// on their pointer type.
func (p *Properties) Parse(key, s string) error {
	e, ok := p.m[key]
	if !ok {
		return fmt.Errorf("unpack: property %s not registered", key)
	}
	s = strings.TrimSpace(s)
	var (
		v   interface{}
		err error
	)
	switch e.prop.Type {
	case ByteProperty:
		var u uint64
		u, err = strconv.ParseUint(s, 0, 8)
		v = byte(u)
	case IntProperty:
		var i int64
		i, err = strconv.ParseInt(s, 0, strconv.IntSize)
		v = int(i)
	case LongProperty:
		v, err = strconv.ParseInt(s, 0, 64)
	case BoolProperty:
		v, err = strconv.ParseBool(s)
	case EnumProperty:
		ptr := reflect.New(reflect.TypeOf(e.value))
		u, ok := ptr.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return fmt.Errorf("unpack: enum property %s can't be parsed",
				key)
		}
		if err = u.UnmarshalText([]byte(s)); err == nil {
			v = ptr.Elem().Interface()
		}
	}
	if err != nil {
		return fmt.Errorf("unpack: property %s: %w", key, err)
	}
	return p.Set(e.prop, v)
}

// Keys returns the sorted list of property keys.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the property registered under the given key.
func (p *Properties) Lookup(key string) (prop Property, ok bool) {
	e, ok := p.m[key]
	return e.prop, ok
}

// Clone creates a copy of the property set.
func (p *Properties) Clone() *Properties {
	q := NewProperties()
	for k, e := range p.m {
		q.m[k] = e
	}
	return q
}

// Merge sets all properties of q in p. All properties of q must be
// registered in p with the same type.
func (p *Properties) Merge(q *Properties) error {
	for _, k := range q.Keys() {
		e := q.m[k]
		if err := p.Set(e.prop, e.value); err != nil {
			return err
		}
	}
	return nil
}

// String lists the properties as key=value pairs.
func (p *Properties) String() string {
	var sb strings.Builder
	for i, k := range p.Keys() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, p.m[k].value)
	}
	return sb.String()
}
