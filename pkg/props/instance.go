package props

import (
	"github.com/cuekit-dev/cuekit/pkg/signal"
)

// InstanceProperty is a property carried by exactly one instance rather
// than declared by its type. It wraps the current value; reads unwrap
// transparently and writes delegate through the wrapper, firing the same
// change notifications as a class-declared property.
//
// The Default recorded at creation is what sparse exports compare against.
type InstanceProperty struct {
	// Default is the value the property is considered unchanged from.
	Default any

	value any
	getFn func() any
	setFn func(any)
}

// NewInstanceProperty creates a wrapper holding value, which also becomes
// the property's default.
func NewInstanceProperty(value any) *InstanceProperty {
	return &InstanceProperty{Default: value, value: value}
}

// WithHooks redirects reads and writes through the given functions instead
// of the wrapper's own storage. Either may be nil to keep the default
// behavior. It returns the wrapper for chaining at attach time.
func (p *InstanceProperty) WithHooks(get func() any, set func(any)) *InstanceProperty {
	p.getFn = get
	p.setFn = set
	return p
}

// Value returns the wrapped value.
func (p *InstanceProperty) Value() any {
	if p.getFn != nil {
		return p.getFn()
	}
	return p.value
}

func (p *InstanceProperty) set(value any) {
	if p.setFn != nil {
		p.setFn(value)
		return
	}
	p.value = value
}

// InstanceObject is an Object that additionally carries a per-instance
// registry of dynamically attached properties. Attached names participate
// in enumeration, serialization, and change signals exactly like class
// properties; on a name collision the instance-local property wins.
type InstanceObject struct {
	Object
}

// NewInstanceObject creates an object of type t with instance properties
// enabled.
func NewInstanceObject(t *Type) *InstanceObject {
	o := &InstanceObject{
		Object: Object{
			typ:             t,
			values:          make(map[string]any),
			locals:          make(map[string]*InstanceProperty),
			propertyChanged: signal.New[Change](),
		},
	}
	o.self = o
	o.populateDefaults()
	return o
}

// Attach installs p under name and registers it in the instance-local
// registry. Attaching over an existing instance property replaces it.
func (o *InstanceObject) Attach(name string, p *InstanceProperty) {
	if p == nil {
		return
	}
	o.locals[name] = p
}

// Detach removes the instance property registered under name, along with
// any cached per-name signal. Detaching an unknown name is a no-op.
func (o *InstanceObject) Detach(name string) {
	delete(o.locals, name)
	delete(o.changed, name)
}

// Attached reports whether name is registered in the instance-local
// registry.
func (o *InstanceObject) Attached(name string) bool {
	_, ok := o.locals[name]
	return ok
}

// Clone returns a fresh instance object of the same type with equivalent
// attached properties and property values.
//
// Hooked properties are materialized: the clone receives a plain value
// wrapper holding the hook's current value, so it never writes through the
// original's backing.
func (o *InstanceObject) Clone() Holder {
	fresh := NewInstanceObject(o.typ)
	for name, p := range o.locals {
		value := p.Value()
		if nested, ok := value.(Holder); ok {
			value = nested.Clone()
		}
		local := NewInstanceProperty(value)
		local.Default = p.Default
		fresh.Attach(name, local)
	}
	fresh.UpdateProperties(o.Properties(true, nil))
	return fresh
}
