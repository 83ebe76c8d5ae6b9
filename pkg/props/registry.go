package props

import (
	"fmt"
	"sort"
)

// Property declares a named, class-level attribute with a default value.
// Descriptors are immutable after definition; value storage lives on the
// instances, never on the descriptor.
//
// A Default that implements Holder enables nested composition: each new
// instance receives its own clone of the nested object.
type Property struct {
	Default any
}

// Schema maps property names to their descriptors for type definition.
type Schema map[string]Property

// Type is a registered schema: the set of properties an object of this
// type carries, merged from its ancestor chain at definition time.
type Type struct {
	name     string
	parent   *Type
	children []*Type

	// props is the merged name -> descriptor table; own marks the names
	// declared directly on this type (as opposed to inherited).
	props map[string]Property
	own   map[string]bool
}

// typesByName indexes every defined type. Definition is expected to happen
// from package init functions on a single goroutine.
var typesByName = map[string]*Type{}

// NewType defines a type with the given schema, merging the parent's
// properties (parent may be nil for a root type). The new type is linked
// into the parent's child list so later Declare/Remove calls on any
// ancestor cascade here. Defining two types with the same name panics.
func NewType(name string, parent *Type, schema Schema) *Type {
	if _, exists := typesByName[name]; exists {
		panic(fmt.Sprintf("props: type %q already defined", name))
	}

	t := &Type{
		name:   name,
		parent: parent,
		props:  make(map[string]Property),
		own:    make(map[string]bool),
	}
	if parent != nil {
		parent.children = append(parent.children, t)
		for n, p := range parent.props {
			t.props[n] = p
		}
	}
	for n, p := range schema {
		t.props[n] = p
		t.own[n] = true
	}

	typesByName[name] = t
	return t
}

// TypeByName returns the type registered under name, or nil.
func TypeByName(name string) *Type {
	return typesByName[name]
}

// TypeNames returns the sorted names of every defined type.
func TypeNames() []string {
	names := make([]string, 0, len(typesByName))
	for name := range typesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the type's registered name.
func (t *Type) Name() string {
	return t.name
}

// Parent returns the type this one derives from, or nil for a root type.
func (t *Type) Parent() *Type {
	return t.parent
}

// DerivesFrom reports whether t is anc or a transitive subtype of it.
func (t *Type) DerivesFrom(anc *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// Has reports whether name is a registered property of this type.
func (t *Type) Has(name string) bool {
	_, ok := t.props[name]
	return ok
}

// property returns the descriptor for name, walking nothing: the table is
// already merged with the ancestor chain.
func (t *Type) property(name string) (Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

// Names returns a sorted copy of the registered property names. Mutating
// the returned slice does not affect the registry.
func (t *Type) Names() []string {
	names := make([]string, 0, len(t.props))
	for name := range t.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns every registered name mapped to its declared default,
// optionally narrowed by filter. It does not descend into nested object
// defaults; callers needing deep defaults use InstanceDefaults on an
// object instead.
func (t *Type) Defaults(filter Filter) Map {
	defaults := make(Map)
	for _, name := range applyFilter(t.Names(), filter) {
		if p, ok := t.props[name]; ok {
			defaults[name] = p.Default
		}
	}
	return defaults
}

// Declare adds a property to this type after definition and cascades it to
// every live transitive subtype. A subtype that declared its own property
// under the same name keeps its own descriptor.
func (t *Type) Declare(name string, p Property) {
	t.props[name] = p
	t.own[name] = true
	for _, child := range t.children {
		child.inherit(name, p)
	}
}

func (t *Type) inherit(name string, p Property) {
	if !t.own[name] {
		t.props[name] = p
	}
	for _, child := range t.children {
		child.inherit(name, p)
	}
}

// Remove deletes a property from this type and from every live transitive
// subtype, including subtypes that declared it themselves.
func (t *Type) Remove(name string) {
	delete(t.props, name)
	delete(t.own, name)
	for _, child := range t.children {
		child.Remove(name)
	}
}
