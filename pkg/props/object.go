package props

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/cuekit-dev/cuekit/pkg/signal"
)

// ErrNoProperty is returned when a per-property signal is requested for a
// name the object does not recognize.
var ErrNoProperty = errors.New("no such property")

// Filter narrows (or reshapes) a property-name set. It receives the full
// sorted name list and returns the names the caller wants; it may build a
// new slice freely.
type Filter func(names []string) []string

// Map is the serialized property mapping: values are primitives, opaque
// blobs, or nested Maps for nested reactive objects.
type Map map[string]any

// Change is the payload of the aggregate property-changed signal.
type Change struct {
	Object Holder
	Name   string
	Value  any
}

// Holder is the reactive object contract: property enumeration, default
// snapshotting, recursive serialization, merge-based deserialization, and
// change signals. Object and InstanceObject implement it; a property value
// implementing Holder is treated as a nested object everywhere.
type Holder interface {
	Type() *Type
	PropertyNames(filter Filter) []string
	ClassDefaults(filter Filter) Map
	InstanceDefaults(filter Filter) Map
	Properties(includeDefaults bool, filter Filter) Map
	UpdateProperties(values Map)
	Get(name string) any
	Set(name string, value any)
	Changed(name string) (*signal.Signal[any], error)
	PropertyChanged() *signal.Signal[Change]
	Clone() Holder
}

// Object is the reactive base entity. Every registered property holds its
// class-declared default after construction; Set stores a value and emits
// the aggregate signal followed by the per-name signal. Objects are not
// synchronized and belong to the model goroutine.
type Object struct {
	typ    *Type
	values map[string]any

	// locals holds instance-scoped property wrappers. It stays nil for
	// plain objects; InstanceObject enables it.
	locals map[string]*InstanceProperty

	// self is the identity carried in Change payloads, so a wrapping
	// variant reports itself rather than the embedded Object.
	self Holder

	// changed holds the lazily created per-property signals.
	changed         map[string]*signal.Signal[any]
	propertyChanged *signal.Signal[Change]
}

// NewObject creates an object of type t with every registered property set
// to its declared default. A default implementing Holder is cloned so
// instances never share nested state.
func NewObject(t *Type) *Object {
	o := &Object{
		typ:             t,
		values:          make(map[string]any),
		propertyChanged: signal.New[Change](),
	}
	o.self = o
	o.populateDefaults()
	return o
}

func (o *Object) populateDefaults() {
	for name, p := range o.typ.props {
		if nested, ok := p.Default.(Holder); ok {
			o.values[name] = nested.Clone()
		} else {
			o.values[name] = p.Default
		}
	}
}

// Type returns the object's registered type.
func (o *Object) Type() *Type {
	return o.typ
}

// PropertyNames returns the sorted names of the object's properties,
// optionally transformed by filter. The result is the caller's to mutate.
func (o *Object) PropertyNames(filter Filter) []string {
	names := o.typ.Names()
	if o.locals != nil {
		for name := range o.locals {
			if !o.typ.Has(name) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
	}
	return applyFilter(names, filter)
}

// Get returns the current value stored for name, falling back to the
// declared default for a never-set registered property and to nil for an
// unknown name. Instance-local property wrappers are unwrapped.
func (o *Object) Get(name string) any {
	if o.locals != nil {
		if p, ok := o.locals[name]; ok {
			return p.Value()
		}
	}
	if v, ok := o.values[name]; ok {
		return v
	}
	if p, ok := o.typ.property(name); ok {
		return p.Default
	}
	return nil
}

// Set stores value under name. A registered name additionally triggers
// change notification: the aggregate signal first, then the per-name
// signal if one has been created. An unrecognized name is stored as a
// plain attribute with no notification.
//
// On an object with instance properties enabled, assigning an
// *InstanceProperty installs and registers it locally, and assigning a
// plain value to a locally registered name delegates into the wrapper.
func (o *Object) Set(name string, value any) {
	if o.locals != nil {
		if p, ok := value.(*InstanceProperty); ok {
			o.locals[name] = p
			return
		}
		if p, ok := o.locals[name]; ok {
			p.set(value)
			o.emitChanged(name, value)
			return
		}
	}

	o.values[name] = value
	if o.typ.Has(name) {
		o.emitChanged(name, value)
	}
}

func (o *Object) emitChanged(name string, value any) {
	o.propertyChanged.Emit(Change{Object: o.self, Name: name, Value: value})
	if sig, ok := o.changed[name]; ok {
		sig.Emit(value)
	}
}

// PropertyChanged returns the aggregate signal emitted after any property
// changes, carrying (object, name, value).
func (o *Object) PropertyChanged() *signal.Signal[Change] {
	return o.propertyChanged
}

// Changed returns the dedicated signal for one property, creating and
// caching it on first request. Requesting an unrecognized name fails with
// ErrNoProperty.
func (o *Object) Changed(name string) (*signal.Signal[any], error) {
	if !o.recognizes(name) {
		return nil, fmt.Errorf("%w: %q", ErrNoProperty, name)
	}
	if o.changed == nil {
		o.changed = make(map[string]*signal.Signal[any])
	}
	sig, ok := o.changed[name]
	if !ok {
		sig = signal.New[any]()
		o.changed[name] = sig
	}
	return sig, nil
}

func (o *Object) recognizes(name string) bool {
	if o.typ.Has(name) {
		return true
	}
	if o.locals != nil {
		_, ok := o.locals[name]
		return ok
	}
	return false
}

// propertyDefault returns the declared default for name: the descriptor's
// for a class property, the attach-time value for an instance property.
func (o *Object) propertyDefault(name string) (any, bool) {
	if o.locals != nil {
		if p, ok := o.locals[name]; ok {
			return p.Default, true
		}
	}
	if p, ok := o.typ.property(name); ok {
		return p.Default, true
	}
	return nil, false
}

// ClassDefaults returns the declared default of every class-registered
// property, without descending into nested object defaults.
func (o *Object) ClassDefaults(filter Filter) Map {
	return o.typ.Defaults(filter)
}

// InstanceDefaults returns the default of every property the instance
// recognizes, recursively snapshotting defaults that are themselves
// reactive objects.
func (o *Object) InstanceDefaults(filter Filter) Map {
	defaults := make(Map)
	for _, name := range o.PropertyNames(filter) {
		value, ok := o.propertyDefault(name)
		if !ok {
			continue
		}
		if nested, isNested := value.(Holder); isNested {
			value = nested.InstanceDefaults(nil)
		}
		defaults[name] = value
	}
	return defaults
}

// Properties serializes current state to a Map. With includeDefaults,
// every property is present and nested objects are fully expanded. In
// sparse mode only values differing from their declared default appear,
// and a nested object appears only if its own sparse export is non-empty.
func (o *Object) Properties(includeDefaults bool, filter Filter) Map {
	out := make(Map)
	for _, name := range o.PropertyNames(filter) {
		value := o.Get(name)

		if nested, ok := value.(Holder); ok {
			inner := nested.Properties(includeDefaults, filter)
			if includeDefaults || len(inner) > 0 {
				out[name] = inner
			}
			continue
		}

		def, _ := o.propertyDefault(name)
		if includeDefaults || !valuesEqual(value, def) {
			out[name] = value
		}
	}
	return out
}

// UpdateProperties applies values to the object. A value for a property
// whose current value is a nested object merges into it rather than
// replacing it; anything else assigns directly, with the usual change
// notification. Unknown names are silently skipped so newer or older
// exports load cleanly.
func (o *Object) UpdateProperties(values Map) {
	for name, value := range values {
		if !o.recognizes(name) {
			continue
		}
		if nested, ok := o.Get(name).(Holder); ok {
			if inner, ok := asMap(value); ok {
				nested.UpdateProperties(inner)
			}
			continue
		}
		o.self.Set(name, value)
	}
}

// MarshalJSON serializes the object as its full property export, so an
// object reaching a JSON encoder (nested in a defaults map, for example)
// renders as the same mapping shape Properties produces.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Properties(true, nil))
}

// Clone returns a fresh object of the same type carrying the same property
// values.
func (o *Object) Clone() Holder {
	fresh := NewObject(o.typ)
	fresh.UpdateProperties(o.Properties(true, nil))
	return fresh
}

// asMap normalizes a nested serialized value: exports produce Map, JSON
// decoding produces map[string]any.
func asMap(value any) (Map, bool) {
	switch m := value.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	default:
		return nil, false
	}
}

func applyFilter(names []string, filter Filter) []string {
	if filter == nil {
		return names
	}
	return filter(names)
}

// valuesEqual compares a current value against a declared default. Numbers
// compare by value across kinds, since JSON decoding turns every number into
// float64 while defaults are often declared as ints; everything else falls
// back to reflect.DeepEqual.
func valuesEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
